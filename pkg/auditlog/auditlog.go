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

// Package auditlog reads audit.log files produced by the Linux audit
// subsystem and groups their records into events.
//
// Each log line is one record. Records sharing the same audit timestamp
// and sequence number belong to the same event; auditd writes them on
// consecutive lines, so grouping only needs one record of lookahead.
package auditlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-libaudit/v2/auparse"
)

// Record is one parsed audit record. Fields contains only the fields of
// this record, so field lookups cannot cross over into neighbouring
// records of the same event.
type Record struct {
	// Type is the audit record type, e.g. "SYSCALL" or "SECCOMP".
	Type string

	// Fields maps field names to their values. Quoted values are
	// unquoted, the syscall field is resolved to a name when the audit
	// userspace tables know the number for the record's arch, and the
	// a0..a3 registers carry their 0x prefix.
	Fields map[string]string
}

// Event is a group of records sharing one audit sequence number.
type Event struct {
	Records []Record
}

// Reader iterates over the events of one audit log.
type Reader struct {
	scanner *bufio.Scanner
	closer  io.Closer

	// pending is the first record of the next event, kept across Next
	// calls since reading it is the only way to notice the current
	// event ended.
	pending    *Record
	pendingKey eventKey
}

type eventKey struct {
	timestamp time.Time
	sequence  uint32
}

// Open opens the audit log at path. The returned reader must be closed.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	r := NewReader(f)
	r.closer = f
	return r, nil
}

// maxLineSize bounds one audit log line. Records with long hex encoded
// fields overflow the 64KB bufio default.
const maxLineSize = 16 * 1024 * 1024

// NewReader returns a reader iterating the audit records of r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, maxLineSize)
	return &Reader{scanner: scanner}
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Next returns the next event. It returns io.EOF once the log is
// exhausted. Lines that do not parse as audit records are skipped;
// audit logs routinely contain daemon status lines.
func (r *Reader) Next() (*Event, error) {
	ev := &Event{}
	var key eventKey

	if r.pending != nil {
		ev.Records = append(ev.Records, *r.pending)
		key = r.pendingKey
		r.pending = nil
	}

	for r.scanner.Scan() {
		msg, err := auparse.ParseLogLine(r.scanner.Text())
		if err != nil {
			continue
		}
		rec := newRecord(msg)
		recKey := eventKey{timestamp: msg.Timestamp, sequence: msg.Sequence}

		if len(ev.Records) == 0 {
			ev.Records = append(ev.Records, rec)
			key = recKey
			continue
		}
		if recKey == key {
			ev.Records = append(ev.Records, rec)
			continue
		}

		// First record of the following event.
		r.pending = &rec
		r.pendingKey = recKey
		return ev, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}
	if len(ev.Records) == 0 {
		return nil, io.EOF
	}
	return ev, nil
}

func newRecord(msg *auparse.AuditMessage) Record {
	fields, err := msg.Data()
	if err != nil {
		fields = map[string]string{}
	}
	resolveSyscallField(fields)
	normalizeArgFields(fields)
	return Record{
		Type:   recordTypeName(msg.RecordType),
		Fields: fields,
	}
}

// recordTypeName pins the spelling of the two record types the policy
// generation cares about; everything else keeps the library's name.
func recordTypeName(t auparse.AuditMessageType) string {
	switch t {
	case auparse.AUDIT_SYSCALL:
		return "SYSCALL"
	case auparse.AUDIT_SECCOMP:
		return "SECCOMP"
	}
	return t.String()
}

// resolveSyscallField replaces a numeric syscall field with the name
// known to the audit userspace tables for the record's arch, leaving
// unknown numbers untouched.
func resolveSyscallField(fields map[string]string) {
	value, ok := fields["syscall"]
	if !ok {
		return
	}
	nr, err := strconv.Atoi(value)
	if err != nil {
		// Already a name.
		return
	}
	if name, ok := auparse.AuditSyscalls[archName(fields["arch"])][nr]; ok {
		fields["syscall"] = name
	}
}

// normalizeArgFields restores the 0x prefix on the a0..a3 registers of
// SYSCALL records. Audit writes them as bare hex digits, which a
// consumer would misread as decimal.
func normalizeArgFields(fields map[string]string) {
	for _, name := range [...]string{"a0", "a1", "a2", "a3"} {
		value, ok := fields[name]
		if !ok || strings.HasPrefix(value, "0x") {
			continue
		}
		if _, err := strconv.ParseUint(value, 16, 64); err != nil {
			continue
		}
		fields[name] = "0x" + value
	}
}

// auditArches maps the AUDIT_ARCH values this tool cares about to the
// arch names used by the audit syscall tables. Only needed when the
// arch field was not already interpreted.
var auditArches = map[uint64]string{
	0xc000003e: "x86_64",
	0x40000003: "i386",
	0x40000028: "arm",
	0xc00000b7: "aarch64",
}

func archName(arch string) string {
	if nr, err := strconv.ParseUint(arch, 16, 32); err == nil {
		if name, ok := auditArches[nr]; ok {
			return name
		}
	}
	return arch
}
