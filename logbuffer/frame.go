// Copyright (c) 2016 Stanislav Liberman. Adapted under the Apache
// License, Version 2.0 (see the aeron-go project this frame layout is
// ported from for the original).

// Package logbuffer implements a multi-producer, lock-free, append-only
// log writer over a fixed-size term buffer: the term appender half of
// this repository's shared-memory coordination core.
package logbuffer

import (
	"encoding/binary"

	"github.com/relaygrid/corecoord/buffer"
)

// FrameAlignment is the byte boundary every frame (including padding
// frames) is aligned up to.
const FrameAlignment = 32

// Frame type ids for the default header layout.
const (
	FrameTypePad  int16 = 0
	FrameTypeData int16 = 1
)

// Fragmentation flags for the default header layout.
const (
	FlagBeginFragment uint8 = 0x80
	FlagEndFragment   uint8 = 0x40
	FlagUnfragmented        = FlagBeginFragment | FlagEndFragment
)

// Default header field offsets. HeaderLength is the fixed size of every
// frame's header, itself included in frameLength before alignment.
const (
	fieldFrameLength = 0
	fieldVersion     = 4
	fieldFlags       = 5
	fieldType        = 6
	fieldTermOffset  = 8
	fieldTermID      = 12
	fieldReserved    = 16

	// HeaderLength is the size in bytes of the default frame header.
	HeaderLength = 24

	// CurrentVersion is written into every frame's version field.
	CurrentVersion uint8 = 0
)

// AlignUp rounds v up to the next multiple of alignment, which must be a
// power of two.
func AlignUp(v, alignment int32) int32 {
	return (v + alignment - 1) &^ (alignment - 1)
}

// frameLengthVolatile reads a frame's length field with acquire
// semantics: a consumer doing this load, when it observes a nonzero
// value, is guaranteed to see every other field the producer wrote
// before releasing the length.
func frameLengthVolatile(buf *buffer.Buffer, offset int32) int32 {
	return buf.GetInt32Volatile(int(offset) + fieldFrameLength)
}

// publishFrameLength releases the frame: it must be called strictly
// after every other header/payload/reserved-value write for the frame.
func publishFrameLength(buf *buffer.Buffer, offset, length int32) {
	buf.PutInt32Ordered(int(offset)+fieldFrameLength, length)
}

func putFrameType(buf *buffer.Buffer, offset int32, frameType int16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(frameType))
	_ = buf.PutBytes(int(offset)+fieldType, b[:])
}

func frameType(buf *buffer.Buffer, offset int32) int16 {
	b, _ := buf.GetBytes(int(offset)+fieldType, 2)
	return int16(binary.LittleEndian.Uint16(b))
}

func putFrameFlags(buf *buffer.Buffer, offset int32, flags uint8) {
	_ = buf.PutBytes(int(offset)+fieldFlags, []byte{flags})
}
