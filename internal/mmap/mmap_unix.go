// Copyright (c) 2020 anatolygudkov. All rights reserved.
// Use of this source code is governed by MIT license
// that can be found in the LICENSE file.

//go:build !windows && !plan9 && !aix

package mmap

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func mmapFile(f *os.File, size int, readOnly bool) ([]byte, error) {
	prot := unix.PROT_READ
	if !readOnly {
		prot |= unix.PROT_WRITE
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, prot, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrapf(err, "mmap: mapping %s", f.Name())
	}
	return data, nil
}

func unmap(data []byte) error {
	if err := unix.Munmap(data); err != nil {
		return errors.Wrap(err, "mmap: unmapping region")
	}
	return nil
}
