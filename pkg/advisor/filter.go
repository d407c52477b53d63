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

package advisor

import (
	"fmt"
	"strings"
)

// SeccompFilter returns a minijail seccomp-bpf filter expression for
// the syscall: one `arg<N> == <value>` clause per observed value,
// joined by ` || `.
//
// For the memory protection syscalls it first checks whether any
// observed call mapped memory with both PROT_EXEC and PROT_WRITE. If
// none did, the value list is replaced by a concise pair of negated
// clauses forbidding simultaneously writable and executable mappings.
func SeccompFilter(syscall string, entry *ArgInspectionEntry) string {
	var atoms []string
	values := entry.Values()

	if protFlagsArg(syscall, entry.ArgIndex) && !observedWriteExec(values) {
		atoms = append(atoms,
			fmt.Sprintf("arg%d in ~PROT_EXEC", entry.ArgIndex),
			fmt.Sprintf("arg%d in ~PROT_WRITE", entry.ArgIndex))
		values = nil
	}
	for _, value := range values {
		atoms = append(atoms, fmt.Sprintf("arg%d == %s", entry.ArgIndex, value))
	}
	return strings.Join(atoms, " || ")
}

func protFlagsArg(syscall string, argIndex int) bool {
	switch syscall {
	case "mmap", "mmap2", "mprotect":
		return argIndex == 2
	}
	return false
}

// observedWriteExec reports whether any observed protection value asks
// for both PROT_EXEC and PROT_WRITE.
func observedWriteExec(values []string) bool {
	for _, value := range values {
		var exec, write bool
		for _, flag := range strings.Split(value, "|") {
			switch strings.TrimSpace(flag) {
			case "PROT_EXEC":
				exec = true
			case "PROT_WRITE":
				write = true
			}
		}
		if exec && write {
			return true
		}
	}
	return false
}
