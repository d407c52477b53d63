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
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/inspektor-gadget/seccomp-advisor/pkg/syscalls"
)

// maxLineSize bounds one log line. The bufio default of 64KB is too
// small for traces captured with a large strace -s string limit.
const maxLineSize = 16 * 1024 * 1024

// traceLineRe skips any leading PID tag or numeric prefix and captures
// the syscall name and the argument list. Stopping the argument capture
// before '<' tolerates truncated "<unfinished ...>" lines.
var traceLineRe = regexp.MustCompile(`^\s*(?:\[[^]]*\]|\d+)?\s*([a-zA-Z0-9_]+)\(([^)<]*)`)

// ParseTraceFile parses one file produced by strace(1), accumulating
// syscall counts and inspected argument values into stats. Lines not
// matching the call syntax are skipped; strace logs commonly carry
// unrelated diagnostic lines.
func ParseTraceFile(filename string, stats *Stats) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("opening trace file: %w", err)
	}
	defer f.Close()

	return parseTrace(f, filename, stats)
}

func parseTrace(r io.Reader, filename string, stats *Stats) error {
	// 32-bit x86 multiplexes the socket calls through socketcall(2),
	// so a trace taken on such a machine must be recorded under that
	// name. The architecture is only knowable from the filename.
	usesSocketcall := strings.Contains(filename, "i386") ||
		(strings.Contains(filename, "x86") && !strings.Contains(filename, "64"))

	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, maxLineSize)
	for scanner.Scan() {
		matches := traceLineRe.FindStringSubmatch(scanner.Text())
		if matches == nil {
			continue
		}

		syscall, rawArgs := matches[1], matches[2]
		if usesSocketcall {
			if _, ok := syscalls.SocketCalls[syscall]; ok {
				syscall = "socketcall"
			}
		}

		// strace omits the ARM_ prefix on all private ARM syscalls.
		// Add it back. These syscalls are exclusive to ARM so this
		// needs no filename based arch heuristic.
		if syscalls.IsPrivateARMName("ARM_" + syscall) {
			syscall = "ARM_" + syscall
		}

		stats.Increment(syscall)

		entry := stats.Inspection(syscall)
		if entry == nil {
			continue
		}
		// Naive comma split: commas nested inside struct arguments
		// mis-split. The argument indices in the inspection table all
		// refer to scalar arguments, so in practice this holds up.
		args := strings.Split(rawArgs, ",")
		if entry.ArgIndex >= len(args) {
			// Line truncated before the inspected argument.
			continue
		}
		entry.Record(strings.TrimSpace(args[entry.ArgIndex]))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading trace file: %w", err)
	}
	return nil
}
