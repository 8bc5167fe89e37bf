// Copyright (c) 2020 anatolygudkov. All rights reserved.
// Use of this source code is governed by MIT license
// that can be found in the LICENSE file.
package cli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setArgs(args []string) (restore func()) {
	prev := os.Args
	os.Args = args
	return func() { os.Args = prev }
}

func TestStartPassesParsedFlagsAndArgsToWork(t *testing.T) {
	a, err := NewNamedApp("coordctl-test")
	require.NoError(t, err)

	addr := a.StringFlag("addr", 'a', ":8080", "listen address")
	capacity := a.IntFlag("capacity", 'c', 1024, "counter capacity")

	restore := setArgs([]string{"coordctl-test", "--addr", ":9090", "-c", "64", "positional"})
	defer restore()

	var gotArgs []string
	var ran bool
	a.Start(func(args []string) error {
		ran = true
		gotArgs = args
		return nil
	})

	assert.True(t, ran)
	assert.Equal(t, ":9090", *addr)
	assert.Equal(t, 64, *capacity)
	assert.Equal(t, []string{"positional"}, gotArgs)
}

func TestRequireRejectsMissingFlag(t *testing.T) {
	a, err := NewNamedApp("coordctl-test")
	require.NoError(t, err)

	a.StringFlag("file", 'f', "", "counters file")
	a.Require("file")

	restore := setArgs([]string{"coordctl-test"})
	defer restore()

	var ran bool
	a.Start(func(args []string) error {
		ran = true
		return nil
	})

	assert.False(t, ran, "work must not run when a required flag is missing")
}

func TestStartRunsWorkThatReturnsError(t *testing.T) {
	a, err := NewNamedApp("coordctl-test")
	require.NoError(t, err)

	restore := setArgs([]string{"coordctl-test"})
	defer restore()

	var ran bool
	a.Start(func(args []string) error {
		ran = true
		return assertError("boom")
	})

	assert.True(t, ran)
}

type assertError string

func (e assertError) Error() string { return string(e) }
