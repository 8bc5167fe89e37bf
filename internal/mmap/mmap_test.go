// Copyright (c) 2020 anatolygudkov. All rights reserved.
// Use of this source code is governed by MIT license
// that can be found in the LICENSE file.
package mmap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapNewFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.dat")

	buf, closer, err := MapNewFile(path, 4096)
	require.NoError(t, err)
	require.NotNil(t, buf)
	defer closer.Close()

	assert.GreaterOrEqual(t, buf.Capacity(), 4096)

	buf.PutInt64(0, 0x0102030405060708)
	assert.Equal(t, int64(0x0102030405060708), buf.GetInt64(0))
}

func TestMapNewFileAlignsToPageSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.dat")

	buf, closer, err := MapNewFile(path, 1)
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, align(1, 4096), buf.Capacity())
}

func TestMapExistingFileReadWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.dat")

	buf, closer, err := MapNewFile(path, 4096)
	require.NoError(t, err)
	buf.PutInt64(8, 42)
	require.NoError(t, closer.Close())

	reopened, closer2, err := MapExistingFile(path, false)
	require.NoError(t, err)
	defer closer2.Close()

	assert.Equal(t, int64(42), reopened.GetInt64(8))
}

func TestMapExistingFileReadOnlyReadsContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.dat")

	buf, closer, err := MapNewFile(path, 4096)
	require.NoError(t, err)
	require.NoError(t, closer.Close())
	_ = buf

	reopened, closer2, err := MapExistingFile(path, true)
	require.NoError(t, err)
	defer closer2.Close()

	assert.Equal(t, int64(0), reopened.GetInt64(0))
}

func TestAlign(t *testing.T) {
	assert.Equal(t, 4096, align(1, 4096))
	assert.Equal(t, 4096, align(4096, 4096))
	assert.Equal(t, 8192, align(4097, 4096))
}
