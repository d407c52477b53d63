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

package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloseOutputsReportsCloseError(t *testing.T) {
	closeErr := errors.New("device full")

	err := closeOutputs(nil,
		func() error { return nil },
		func() error { return closeErr },
	)
	require.ErrorIs(t, err, closeErr)
}

func TestCloseOutputsKeepsWriteError(t *testing.T) {
	writeErr := errors.New("write failed")

	err := closeOutputs(writeErr, func() error { return errors.New("close failed") })
	require.ErrorIs(t, err, writeErr)
}

func TestCloseOutputsClosesAllOutputs(t *testing.T) {
	closed := 0
	closer := func() error {
		closed++
		return errors.New("close failed")
	}

	err := closeOutputs(nil, closer, closer)
	require.Error(t, err)
	require.Equal(t, 2, closed)
}
