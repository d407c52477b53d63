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
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/inspektor-gadget/seccomp-advisor/pkg/auditlog"
	"github.com/inspektor-gadget/seccomp-advisor/pkg/syscalls"
)

// AuditReader iterates the events of an audit log. It is satisfied by
// *auditlog.Reader; tests use an in-memory implementation.
type AuditReader interface {
	// Next returns the next event, io.EOF once exhausted.
	Next() (*auditlog.Event, error)
}

// ParseAuditLog walks the events of one audit.log and accumulates into
// stats the syscalls of SECCOMP and SYSCALL records whose comm field
// matches the given process name.
//
// Per the recommended audit setup, syscalls requiring argument
// inspection are logged as SYSCALL records (which carry the a0..a3
// fields) and everything else as SECCOMP records. Records of the
// complementary combinations are skipped so a syscall logged both ways
// is never counted twice.
func ParseAuditLog(r AuditReader, comm string, stats *Stats) error {
	sawEvent := false
	for {
		event, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		sawEvent = true

		if !eventMatches(event, comm) {
			continue
		}
		for i := range event.Records {
			if err := parseAuditRecord(&event.Records[i], comm, stats); err != nil {
				return err
			}
		}
	}
	if !sawEvent {
		return errors.New("unable to parse audit log: no records found")
	}
	return nil
}

// eventMatches reports whether any record of the event is a SECCOMP or
// SYSCALL record for the observed process.
func eventMatches(event *auditlog.Event, comm string) bool {
	for i := range event.Records {
		if recordMatches(&event.Records[i], comm) {
			return true
		}
	}
	return false
}

func recordMatches(rec *auditlog.Record, comm string) bool {
	if rec.Type != "SECCOMP" && rec.Type != "SYSCALL" {
		return false
	}
	return rec.Fields["comm"] == comm
}

func parseAuditRecord(rec *auditlog.Record, comm string, stats *Stats) error {
	// Some records of a matching event may still be irrelevant, e.g.
	// PROCTITLE records or records of another process.
	if !recordMatches(rec, comm) {
		return nil
	}

	syscall, ok := rec.Fields["syscall"]
	if !ok {
		return fmt.Errorf("could not find field %q in record of type %s", "syscall", rec.Type)
	}
	syscall = resolveSyscallName(syscall)

	entry := stats.Inspection(syscall)
	if (entry != nil && rec.Type == "SECCOMP") || (entry == nil && rec.Type == "SYSCALL") {
		// SECCOMP records carry no argument detail, so they cannot
		// serve a syscall that needs argument inspection; and a
		// SYSCALL record for a syscall that needs none duplicates its
		// SECCOMP record. Audit lets a few such records slip through
		// despite the setup instructions.
		return nil
	}
	if rec.Type == "SYSCALL" {
		fieldName := "a" + strconv.Itoa(entry.ArgIndex)
		value, ok := rec.Fields[fieldName]
		if !ok {
			return fmt.Errorf("could not find field %q in record of type %s", fieldName, rec.Type)
		}
		entry.Record(value)
	}

	stats.Increment(syscall)
	return nil
}

// resolveSyscallName maps a still-numeric syscall value to a name. The
// audit binding already resolved everything its tables know; what is
// left are private arch syscalls and numbers newer than the tables.
// Numbers nobody can resolve pass through verbatim: the policy consumer
// rejects unknown entries itself.
func resolveSyscallName(syscall string) string {
	nr, err := strconv.Atoi(syscall)
	if err != nil {
		return syscall
	}
	if name, ok := syscalls.ResolveNumber(nr); ok {
		return name
	}
	return syscall
}
