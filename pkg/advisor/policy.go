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
	"io"
)

// Allow is the policy marker for an unconditionally allowed syscall.
const Allow = "1"

// Notice is the license block prepended to every generated file.
const Notice = `# Copyright (C) 2018 The Android Open Source Project
#
# Licensed under the Apache License, Version 2.0 (the "License");
# you may not use this file except in compliance with the License.
# You may obtain a copy of the License at
#
#      http://www.apache.org/licenses/LICENSE-2.0
#
# Unless required by applicable law or agreed to in writing, software
# distributed under the License is distributed on an "AS IS" BASIS,
# WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
# See the License for the specific language governing permissions and
# limitations under the License.
`

// WritePolicy merges the baseline syscalls into stats and writes the
// policy to policyW, one `<syscall>: <filter>` line per syscall.
// Syscalls without an argument inspection entry get the allow marker.
//
// When freqW is non-nil a `<syscall>: <count>` report is written to it
// and both outputs are ordered alphabetically for human scanning.
// Without a frequency report the policy is ordered by descending count
// so the hot path is checked first.
func WritePolicy(policyW, freqW io.Writer, stats *Stats) error {
	stats.MergeBaseline()

	var names []string
	if freqW == nil {
		names = stats.SortedByCount()
	} else {
		names = stats.SortedByName()
	}

	if _, err := fmt.Fprintf(policyW, "%s\n", Notice); err != nil {
		return fmt.Errorf("writing policy: %w", err)
	}
	if freqW != nil {
		if _, err := fmt.Fprintf(freqW, "%s\n", Notice); err != nil {
			return fmt.Errorf("writing frequency report: %w", err)
		}
	}

	for _, name := range names {
		filter := Allow
		if entry := stats.Inspection(name); entry != nil {
			filter = SeccompFilter(name, entry)
		}
		if _, err := fmt.Fprintf(policyW, "%s: %s\n", name, filter); err != nil {
			return fmt.Errorf("writing policy: %w", err)
		}
		if freqW != nil {
			if _, err := fmt.Fprintf(freqW, "%s: %d\n", name, stats.Count(name)); err != nil {
				return fmt.Errorf("writing frequency report: %w", err)
			}
		}
	}
	return nil
}
