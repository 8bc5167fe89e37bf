// Copyright (c) 2020 anatolygudkov. All rights reserved.
// Use of this source code is governed by MIT license
// that can be found in the LICENSE file.

// Package buffer provides bounds-checked, alignment-verified access to a
// raw byte region with plain, volatile (acquire), release-ordered and
// atomic fetch-and-add variants for 32/64-bit integers and byte spans.
//
// A Buffer never allocates or frees the memory it wraps: the caller
// supplies a []byte (backed by a Go slice, an mmap'd region, or anything
// else) and the Buffer is only ever a typed view over it. Every accessor
// bounds-checks its offset against the region's capacity.
package buffer

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"unsafe"
)

const sizeOfInt32 = 4
const sizeOfInt64 = 8

// Buffer is a bounds-checked view over a byte region.
type Buffer struct {
	data []byte
}

// New wraps data, verifying that its base address is 8-byte aligned.
// Most callers should prefer this over MustNew: a region coming from a
// page-aligned mmap, or from make([]byte, n), is always aligned in
// practice, but New still returns an error rather than panicking for
// regions built by less conventional means.
func New(data []byte) (*Buffer, error) {
	b := &Buffer{data: data}
	if err := b.VerifyAlignment(); err != nil {
		return nil, err
	}
	return b, nil
}

// MustNew is like New but panics on alignment failure. Alignment failures
// indicate a programming bug, not a runtime condition worth recovering
// from, so call sites that already know their region is aligned (e.g.
// immediately after an mmap call) can skip the error check.
func MustNew(data []byte) *Buffer {
	b, err := New(data)
	if err != nil {
		panic(err)
	}
	return b
}

// VerifyAlignment returns an error if the buffer's base address is not
// 8-byte aligned. An empty buffer is always considered aligned.
func (b *Buffer) VerifyAlignment() error {
	if len(b.data) == 0 {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&b.data[0]))
	if addr%sizeOfInt64 != 0 {
		return fmt.Errorf("buffer: base address %#x is not 8-byte aligned", addr)
	}
	return nil
}

// Capacity returns the number of bytes in the region.
func (b *Buffer) Capacity() int {
	return len(b.data)
}

// BoundsCheck returns an error if the span [offset, offset+length) falls
// outside the region.
func (b *Buffer) BoundsCheck(offset, length int) error {
	if offset < 0 || length < 0 || offset+length > len(b.data) {
		return fmt.Errorf("buffer: out of bounds access offset=%d length=%d capacity=%d", offset, length, len(b.data))
	}
	return nil
}

// Slice returns a Buffer over the sub-region [offset, offset+length),
// sharing the same backing array.
func (b *Buffer) Slice(offset, length int) (*Buffer, error) {
	if err := b.BoundsCheck(offset, length); err != nil {
		return nil, err
	}
	return &Buffer{data: b.data[offset : offset+length]}, nil
}

// MustSlice is like Slice but panics on a bounds violation.
func (b *Buffer) MustSlice(offset, length int) *Buffer {
	s, err := b.Slice(offset, length)
	if err != nil {
		panic(err)
	}
	return s
}

func (b *Buffer) ptrInt32(offset int) *int32 {
	if err := b.BoundsCheck(offset, sizeOfInt32); err != nil {
		panic(err)
	}
	return (*int32)(unsafe.Pointer(&b.data[offset]))
}

func (b *Buffer) ptrInt64(offset int) *int64 {
	if err := b.BoundsCheck(offset, sizeOfInt64); err != nil {
		panic(err)
	}
	return (*int64)(unsafe.Pointer(&b.data[offset]))
}

// GetInt32 is a plain load; no ordering is guaranteed with respect to
// other goroutines.
func (b *Buffer) GetInt32(offset int) int32 {
	return *b.ptrInt32(offset)
}

// PutInt32 is a plain store.
func (b *Buffer) PutInt32(offset int, v int32) {
	*b.ptrInt32(offset) = v
}

// GetInt32Volatile is an acquire-ordered load: it observes every store
// that happened-before a matching PutInt32Ordered/GetAndAddInt32 in
// another goroutine.
func (b *Buffer) GetInt32Volatile(offset int) int32 {
	return atomic.LoadInt32(b.ptrInt32(offset))
}

// PutInt32Ordered is a release-ordered store: prior plain stores in this
// goroutine cannot be reordered past it, and it becomes visible to a
// subsequent GetInt32Volatile in another goroutine.
func (b *Buffer) PutInt32Ordered(offset int, v int32) {
	atomic.StoreInt32(b.ptrInt32(offset), v)
}

// GetAndAddInt32 is a sequentially-consistent fetch-and-add. It returns
// the value before the addition.
func (b *Buffer) GetAndAddInt32(offset int, delta int32) int32 {
	return atomic.AddInt32(b.ptrInt32(offset), delta) - delta
}

// CompareAndSwapInt32 is a sequentially-consistent CAS.
func (b *Buffer) CompareAndSwapInt32(offset int, old, new int32) bool {
	return atomic.CompareAndSwapInt32(b.ptrInt32(offset), old, new)
}

// GetInt64 is a plain load.
func (b *Buffer) GetInt64(offset int) int64 {
	return *b.ptrInt64(offset)
}

// PutInt64 is a plain store.
func (b *Buffer) PutInt64(offset int, v int64) {
	*b.ptrInt64(offset) = v
}

// GetInt64Volatile is an acquire-ordered load.
func (b *Buffer) GetInt64Volatile(offset int) int64 {
	return atomic.LoadInt64(b.ptrInt64(offset))
}

// PutInt64Ordered is a release-ordered store.
func (b *Buffer) PutInt64Ordered(offset int, v int64) {
	atomic.StoreInt64(b.ptrInt64(offset), v)
}

// GetAndAddInt64 is a sequentially-consistent fetch-and-add, returning
// the pre-addition value. This is the sole arbiter for the term
// appender's tail counter: every producer gets back a distinct raw tail.
func (b *Buffer) GetAndAddInt64(offset int, delta int64) int64 {
	return atomic.AddInt64(b.ptrInt64(offset), delta) - delta
}

// CompareAndSwapInt64 is a sequentially-consistent CAS.
func (b *Buffer) CompareAndSwapInt64(offset int, old, new int64) bool {
	return atomic.CompareAndSwapInt64(b.ptrInt64(offset), old, new)
}

// PutBytes copies src into the region starting at offset.
func (b *Buffer) PutBytes(offset int, src []byte) error {
	if err := b.BoundsCheck(offset, len(src)); err != nil {
		return err
	}
	copy(b.data[offset:], src)
	return nil
}

// GetBytes returns a copy of length bytes starting at offset.
func (b *Buffer) GetBytes(offset, length int) ([]byte, error) {
	if err := b.BoundsCheck(offset, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, b.data[offset:offset+length])
	return out, nil
}

// PutStringASCII writes a 4-byte little-endian length prefix followed by
// s's bytes.
func (b *Buffer) PutStringASCII(offset int, s string) error {
	if err := b.BoundsCheck(offset, sizeOfInt32+len(s)); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b.data[offset:], uint32(len(s)))
	copy(b.data[offset+sizeOfInt32:], s)
	return nil
}

// GetStringASCII reads a 4-byte little-endian length prefix followed by
// that many bytes, starting at offset.
func (b *Buffer) GetStringASCII(offset int) (string, error) {
	if err := b.BoundsCheck(offset, sizeOfInt32); err != nil {
		return "", err
	}
	length := int(binary.LittleEndian.Uint32(b.data[offset:]))
	if err := b.BoundsCheck(offset+sizeOfInt32, length); err != nil {
		return "", err
	}
	return string(b.data[offset+sizeOfInt32 : offset+sizeOfInt32+length]), nil
}
