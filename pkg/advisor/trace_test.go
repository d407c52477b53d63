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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTrace(t *testing.T) {
	type testCase struct {
		filename       string
		content        string
		expectedCounts map[string]int
		expectedValues map[string][]string
	}

	tests := map[string]testCase{
		"basic_calls": {
			filename: "strace-x86_64.log",
			content: `openat(AT_FDCWD, "/etc/ld.so.cache", O_RDONLY|O_CLOEXEC) = 3
close(3)                                = 0
close(4)                                = 0
`,
			expectedCounts: map[string]int{"openat": 1, "close": 2},
		},
		"pid_prefixes": {
			filename: "strace.log",
			content: `1234  close(3) = 0
[pid  1235] close(4) = 0
`,
			expectedCounts: map[string]int{"close": 2},
		},
		"diagnostic_lines_skipped": {
			filename: "strace.log",
			content: `strace: Process 1234 attached
+++ exited with 0 +++
close(3) = 0
`,
			expectedCounts: map[string]int{"close": 1},
		},
		"arg_inspection": {
			filename: "strace-x86_64.log",
			content: `ioctl(0, TCGETS, {B38400 opts_isig}) = 0
ioctl(0, TCSETS, {B38400 opts_isig}) = 0
ioctl(0, TCGETS, {B38400 opts_isig}) = 0
socket(AF_UNIX, SOCK_STREAM|SOCK_CLOEXEC, 0) = 3
mmap(NULL, 8192, PROT_READ|PROT_WRITE, MAP_PRIVATE|MAP_ANONYMOUS, -1, 0) = 0x7fd1
prctl(PR_SET_NAME, "worker") = 0
`,
			expectedCounts: map[string]int{
				"ioctl": 3, "socket": 1, "mmap": 1, "prctl": 1,
			},
			expectedValues: map[string][]string{
				"ioctl":  {"TCGETS", "TCSETS"},
				"socket": {"AF_UNIX"},
				"mmap":   {"PROT_READ|PROT_WRITE"},
				"prctl":  {"PR_SET_NAME"},
			},
		},
		"unfinished_line_truncated_before_inspected_arg": {
			filename: "strace-x86_64.log",
			content: `mmap(NULL,  <unfinished ...>
`,
			expectedCounts: map[string]int{"mmap": 1},
			expectedValues: map[string][]string{"mmap": nil},
		},
		"socketcall_rewrite_i386": {
			filename: "strace-i386.log",
			content: `socket(PF_INET, SOCK_STREAM, IPPROTO_TCP) = 3
connect(3, {sa_family=AF_INET}, 16) = 0
shutdown(3, SHUT_RDWR) = 0
close(3) = 0
`,
			expectedCounts: map[string]int{"socketcall": 3, "close": 1},
			// socketcall itself takes no argument inspection; the
			// original socket arguments are not recorded.
			expectedValues: map[string][]string{"socket": nil},
		},
		"socketcall_rewrite_x86_without_64": {
			filename: "trace-x86.log",
			content: `socket(PF_INET, SOCK_STREAM, IPPROTO_TCP) = 3
`,
			expectedCounts: map[string]int{"socketcall": 1},
		},
		"no_socketcall_rewrite_on_x86_64": {
			filename: "strace-x86_64.log",
			content: `socket(AF_INET, SOCK_STREAM, IPPROTO_TCP) = 3
`,
			expectedCounts: map[string]int{"socket": 1},
			expectedValues: map[string][]string{"socket": {"AF_INET"}},
		},
		"private_arm_prefix": {
			filename: "strace-arm.log",
			content: `breakpoint() = 0
cacheflush(0xb6f0, 0xb6f8, 0) = 0
close(3) = 0
`,
			expectedCounts: map[string]int{
				"ARM_breakpoint": 1, "ARM_cacheflush": 1, "close": 1,
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			stats := NewStats()
			require.NoError(t, parseTrace(strings.NewReader(test.content), test.filename, stats))

			for syscall, count := range test.expectedCounts {
				require.Equal(t, count, stats.Count(syscall), "count of %s", syscall)
			}
			for syscall, values := range test.expectedValues {
				entry := stats.Inspection(syscall)
				require.NotNil(t, entry, "inspection entry of %s", syscall)
				require.Equal(t, values, entry.Values(), "values of %s", syscall)
			}
		})
	}
}

func TestParseTraceLongLine(t *testing.T) {
	// Tracing a large write with a high strace -s string limit produces
	// one line well past the default bufio token size.
	line := `write(1, "` + strings.Repeat("A", 128*1024) + `", 131072) = 131072`

	stats := NewStats()
	require.NoError(t, parseTrace(strings.NewReader(line+"\nclose(3) = 0\n"), "strace-x86_64.log", stats))
	require.Equal(t, 1, stats.Count("write"))
	require.Equal(t, 1, stats.Count("close"))
}

func TestParseTraceFileCountsEachMatchingLineOnce(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "strace.log", "close(3) = 0\nclose(4) = 0\nnot a call\n")

	stats := NewStats()
	require.NoError(t, ParseTraceFile(path, stats))
	require.Equal(t, 2, stats.Count("close"))
}

func TestParseTraceFileMissing(t *testing.T) {
	require.Error(t, ParseTraceFile("/nonexistent/trace.log", NewStats()))
}
