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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestClassifyInputs(t *testing.T) {
	dir := t.TempDir()

	trace := writeTempFile(t, dir, "strace.log",
		"openat(AT_FDCWD, \"/etc/ld.so.cache\", O_RDONLY|O_CLOEXEC) = 3\n")
	audit := writeTempFile(t, dir, "audit.log",
		"type=SYSCALL msg=audit(1605271498.804:109): arch=c000003e syscall=16 comm=\"cat\"\n")
	neither := writeTempFile(t, dir, "junk.log",
		"just some diagnostics\nnothing else\n")
	// A file whose first matching line is an strace call, even though an
	// audit marker shows up later.
	mixed := writeTempFile(t, dir, "mixed.log",
		"close(3) = 0\ntype=SECCOMP msg=audit(1.0:1): comm=\"x\"\n")

	inputs, err := ClassifyInputs([]string{trace, audit, neither, mixed})
	require.NoError(t, err)
	require.Equal(t, []string{trace, neither, mixed}, inputs.Traces)
	require.Equal(t, []string{audit}, inputs.AuditLogs)
}

func TestClassifyInputsAuditBeforeTracePattern(t *testing.T) {
	dir := t.TempDir()

	file := writeTempFile(t, dir, "audit-first.log",
		"type=SECCOMP msg=audit(1.0:1): comm=\"x\"\nclose(3) = 0\n")

	inputs, err := ClassifyInputs([]string{file})
	require.NoError(t, err)
	require.Empty(t, inputs.Traces)
	require.Equal(t, []string{file}, inputs.AuditLogs)
}

func TestClassifyInputsLongFirstLine(t *testing.T) {
	dir := t.TempDir()

	file := writeTempFile(t, dir, "long.log",
		strings.Repeat("x", 128*1024)+"\ntype=SECCOMP msg=audit(1.0:1): comm=\"x\"\n")

	inputs, err := ClassifyInputs([]string{file})
	require.NoError(t, err)
	require.Equal(t, []string{file}, inputs.AuditLogs)
}

func TestClassifyInputsMissingFile(t *testing.T) {
	_, err := ClassifyInputs([]string{filepath.Join(t.TempDir(), "nope.log")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}
