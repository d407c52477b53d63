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
	"os"
	"regexp"
)

var (
	straceLineRe = regexp.MustCompile(`[a-z]+[0-9]*\(.+\) += `)
	auditLineRe  = regexp.MustCompile(`type=(SYSCALL|SECCOMP)`)
)

// ClassifiedInputs buckets the input filenames by log format. The two
// lists are disjoint and keep the relative order of the input.
type ClassifiedInputs struct {
	Traces    []string
	AuditLogs []string
}

// ClassifyInputs decides, per file, whether it is an strace log or an
// audit log using simple content based heuristics: the first line
// matching either format wins. A file matching neither is treated as an
// strace log, both for legacy behavior and in case the strace pattern
// is imperfect.
func ClassifyInputs(filenames []string) (*ClassifiedInputs, error) {
	inputs := &ClassifiedInputs{}
	for _, filename := range filenames {
		isAudit, err := classifyFile(filename)
		if err != nil {
			return nil, err
		}
		if isAudit {
			inputs.AuditLogs = append(inputs.AuditLogs, filename)
		} else {
			inputs.Traces = append(inputs.Traces, filename)
		}
	}
	return inputs, nil
}

func classifyFile(filename string) (isAudit bool, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return false, fmt.Errorf("input file %s not found: %w", filename, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(nil, maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if straceLineRe.MatchString(line) {
			return false, nil
		}
		if auditLineRe.MatchString(line) {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("reading %s: %w", filename, err)
	}
	return false, nil
}
