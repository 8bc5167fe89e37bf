// Copyright (c) 2020 anatolygudkov. All rights reserved.
// Use of this source code is governed by MIT license
// that can be found in the LICENSE file.

// Package mmap is the region provider: the one place in this
// repository that touches the OS. It maps a file (or truncates and
// creates one) and hands the resulting bytes to the rest of the
// codebase as a *buffer.Buffer, never as a raw address/size pair.
package mmap

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/relaygrid/corecoord/buffer"
)

// MapNewFile creates (or truncates) the file at path to a page-aligned
// size of at least size bytes and maps it read-write. The returned
// Closer unmaps the region.
func MapNewFile(path string, size int) (*buffer.Buffer, Closer, error) {
	pageSize := os.Getpagesize()
	alignedSize := align(size, pageSize)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, nil, errors.Wrapf(err, "mmap: creating parent directory for %s", path)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "mmap: opening %s", path)
	}
	defer f.Close()

	if err := f.Truncate(int64(alignedSize)); err != nil {
		return nil, nil, errors.Wrapf(err, "mmap: truncating %s to %d bytes", path, alignedSize)
	}

	data, err := mmapFile(f, alignedSize, false)
	if err != nil {
		return nil, nil, err
	}

	buf, err := buffer.New(data)
	if err != nil {
		unmap(data)
		return nil, nil, err
	}

	// Pre-touch every page so later writers never take a page fault on
	// the hot path.
	pageCount := alignedSize / pageSize
	for i := 0; i < pageCount; i++ {
		buf.PutInt64(i*pageSize, buf.GetInt64(i*pageSize))
	}

	return buf, closerFunc(func() error { return unmap(data) }), nil
}

// MapExistingFile maps the file at path, read-only if readOnly is
// true, read-write otherwise. The file's full size is mapped.
func MapExistingFile(path string, readOnly bool) (*buffer.Buffer, Closer, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}

	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "mmap: opening %s", path)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "mmap: stat %s", path)
	}

	data, err := mmapFile(f, int(fi.Size()), readOnly)
	if err != nil {
		return nil, nil, err
	}

	buf, err := buffer.New(data)
	if err != nil {
		unmap(data)
		return nil, nil, err
	}

	return buf, closerFunc(func() error { return unmap(data) }), nil
}

// Closer unmaps a region returned by MapNewFile or MapExistingFile.
type Closer interface {
	Close() error
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// align rounds v up to the next multiple of alignment, which must be a
// power of two.
func align(v, alignment int) int {
	return (v + alignment - 1) &^ (alignment - 1)
}
