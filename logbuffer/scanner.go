// Copyright (c) 2016 Stanislav Liberman. Adapted under the Apache
// License, Version 2.0.
package logbuffer

import "github.com/relaygrid/corecoord/buffer"

// Frame is a read-only view of one frame observed by FrameScanner.
type Frame struct {
	Offset      int32
	FrameLength int32
	Type        int16
	Flags       uint8
	TermID      int32
	Payload     []byte
}

// FrameScanner walks a term buffer frame by frame using the same
// acquire-ordered length load producers release on commit. A minimal
// scanner like this is useful for the demo server and for asserting the
// appender's properties from outside the package.
type FrameScanner struct {
	term *buffer.Buffer
}

// NewFrameScanner constructs a scanner over term.
func NewFrameScanner(term *buffer.Buffer) *FrameScanner {
	return &FrameScanner{term: term}
}

// Scan calls consumer for every frame from offset 0 up to the first
// unpublished (zero-length) slot or the end of the term, stopping early
// if consumer returns false. Padding frames are included with
// Type == FrameTypePad; callers that only want data frames can filter.
func (s *FrameScanner) Scan(consumer func(Frame) bool) {
	var offset int32
	termLength := int32(s.term.Capacity())

	for offset < termLength {
		length := frameLengthVolatile(s.term, offset)
		if length == 0 {
			return
		}

		frameType := frameType(s.term, offset)
		flagsByte, _ := s.term.GetBytes(int(offset)+fieldFlags, 1)
		termID := s.term.GetInt32(int(offset) + fieldTermID)

		var payload []byte
		if length > HeaderLength {
			payload, _ = s.term.GetBytes(int(offset+HeaderLength), int(length-HeaderLength))
		}

		frame := Frame{
			Offset:      offset,
			FrameLength: length,
			Type:        frameType,
			Flags:       flagsByte[0],
			TermID:      termID,
			Payload:     payload,
		}

		if !consumer(frame) {
			return
		}

		offset += AlignUp(length, FrameAlignment)
	}
}
