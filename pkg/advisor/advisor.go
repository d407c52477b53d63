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

// Package advisor derives a minijail seccomp policy from strace and
// audit logs recorded while exercising the workload to confine.
package advisor

import "sort"

// ArgInspectionEntry tracks the distinct values observed for one
// argument of a syscall that gets an argument filter instead of a
// blanket allow. Values keep their first-observed order so repeated
// runs over the same logs synthesize identical filters.
type ArgInspectionEntry struct {
	ArgIndex int

	values []string
	seen   map[string]struct{}
}

// Record adds value to the observed set.
func (e *ArgInspectionEntry) Record(value string) {
	if _, ok := e.seen[value]; ok {
		return
	}
	e.seen[value] = struct{}{}
	e.values = append(e.values, value)
}

// Values returns the observed values in first-observed order.
func (e *ArgInspectionEntry) Values() []string {
	return e.values
}

// Stats is the aggregate state shared by the trace and audit parsers:
// per-syscall occurrence counts and the argument inspection table.
type Stats struct {
	counts map[string]int

	// order holds the syscall names in first-seen order. It is the tie
	// break when sorting by count, keeping output deterministic.
	order []string

	argInspection map[string]*ArgInspectionEntry
}

// NewStats returns empty aggregate state. The argument inspection table
// is fixed: only these six syscalls ever get argument filters.
func NewStats() *Stats {
	newEntry := func(index int) *ArgInspectionEntry {
		return &ArgInspectionEntry{ArgIndex: index, seen: map[string]struct{}{}}
	}
	return &Stats{
		counts: map[string]int{},
		argInspection: map[string]*ArgInspectionEntry{
			"socket":   newEntry(0), // int domain
			"ioctl":    newEntry(1), // int request
			"prctl":    newEntry(0), // int option
			"mmap":     newEntry(2), // int prot
			"mmap2":    newEntry(2), // int prot
			"mprotect": newEntry(2), // int prot
		},
	}
}

// Increment counts one occurrence of the syscall.
func (s *Stats) Increment(name string) {
	if _, ok := s.counts[name]; !ok {
		s.order = append(s.order, name)
	}
	s.counts[name]++
}

// Count returns the occurrence count of the syscall, 0 if never seen.
func (s *Stats) Count(name string) int {
	return s.counts[name]
}

// Inspection returns the argument inspection entry for the syscall, or
// nil if it does not require argument inspection.
func (s *Stats) Inspection(name string) *ArgInspectionEntry {
	return s.argInspection[name]
}

// baselineSyscalls are guaranteed to appear in every policy: a process
// must at least be able to exit and return from signal handlers.
var baselineSyscalls = []string{
	"restart_syscall", "exit", "exit_group", "rt_sigreturn",
}

// MergeBaseline adds the baseline syscalls with count 1 where absent.
// Observed counts are never overwritten.
func (s *Stats) MergeBaseline() {
	for _, name := range baselineSyscalls {
		if _, ok := s.counts[name]; !ok {
			s.Increment(name)
		}
	}
}

// SortedByName returns all counted syscalls in alphabetical order.
func (s *Stats) SortedByName() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	sort.Strings(names)
	return names
}

// SortedByCount returns all counted syscalls by descending count, ties
// broken by first-seen order. Frequent syscalls come first so the
// generated filter checks the hot path early.
func (s *Stats) SortedByCount() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	sort.SliceStable(names, func(i, j int) bool {
		return s.counts[names[i]] > s.counts[names[j]]
	})
	return names
}
