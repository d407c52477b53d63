// Copyright 2024 The Inspektor Gadget authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package syscalls holds the fixed syscall tables used when deriving a
// seccomp policy from trace and audit logs.
package syscalls

import (
	libseccomp "github.com/seccomp/libseccomp-golang"
)

// SocketCalls is the set of socket-family syscalls that 32-bit x86
// multiplexes through socketcall(2).
var SocketCalls = map[string]struct{}{
	"accept":      {},
	"bind":        {},
	"connect":     {},
	"getpeername": {},
	"getsockname": {},
	"getsockopt":  {},
	"listen":      {},
	"recv":        {},
	"recvfrom":    {},
	"recvmsg":     {},
	"send":        {},
	"sendmsg":     {},
	"sendto":      {},
	"setsockopt":  {},
	"shutdown":    {},
	"socket":      {},
	"socketpair":  {},
}

// PrivateARM maps private ARM syscall numbers to their names. These can
// be found in any ARM specific unistd.h such as Linux's
// arch/arm/include/uapi/asm/unistd.h.
var PrivateARM = map[int]string{
	983041: "ARM_breakpoint",
	983042: "ARM_cacheflush",
	983043: "ARM_usr26",
	983044: "ARM_usr32",
	983045: "ARM_set_tls",
}

var privateARMNames = func() map[string]struct{} {
	names := make(map[string]struct{}, len(PrivateARM))
	for _, name := range PrivateARM {
		names[name] = struct{}{}
	}
	return names
}()

// IsPrivateARMName reports whether name, including the ARM_ prefix, is a
// private ARM syscall.
func IsPrivateARMName(name string) bool {
	_, ok := privateARMNames[name]
	return ok
}

// ResolveNumber resolves a syscall number to a name. Private ARM numbers
// come from the fixed table since the audit userspace tables do not know
// them; anything else is asked to libseccomp.
func ResolveNumber(nr int) (string, bool) {
	if name, ok := PrivateARM[nr]; ok {
		return name, true
	}
	name, err := libseccomp.ScmpSyscall(nr).GetName()
	if err != nil {
		return "", false
	}
	return name, true
}
