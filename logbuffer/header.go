// Copyright (c) 2016 Stanislav Liberman. Adapted under the Apache
// License, Version 2.0.
package logbuffer

import "github.com/relaygrid/corecoord/buffer"

// HeaderWriter is the external collaborator that writes a frame's
// header. It must not write the length field — the Appender publishes
// that with release ordering as the frame's commit step, strictly after
// the header and payload are otherwise complete.
type HeaderWriter interface {
	Write(buf *buffer.Buffer, offset, frameLength, termID int32)
}

// ReservedValueSupplier computes the 8-byte reserved value stored in a
// frame, given the fully-written buffer, the frame's offset and its
// length. The Appender calls this after the payload is copied but
// before the length is published.
type ReservedValueSupplier func(buf *buffer.Buffer, offset, frameLength int32) int64

// ZeroReservedValue is a ReservedValueSupplier that always returns 0,
// used when a caller has no use for the reserved value field.
func ZeroReservedValue(buf *buffer.Buffer, offset, frameLength int32) int64 {
	return 0
}

// DefaultHeaderWriter writes the standard frame header: version,
// fragmentation flags, frame type, term offset and term id. It is
// unfragmented by default; AppendFragmented overwrites the flags field
// per-frame as it writes a message's pieces.
type DefaultHeaderWriter struct{}

// Write implements HeaderWriter.
func (DefaultHeaderWriter) Write(buf *buffer.Buffer, offset, frameLength, termID int32) {
	_ = buf.PutBytes(int(offset)+fieldVersion, []byte{CurrentVersion})
	putFrameFlags(buf, offset, FlagUnfragmented)
	putFrameType(buf, offset, FrameTypeData)
	buf.PutInt32(int(offset)+fieldTermOffset, offset)
	buf.PutInt32(int(offset)+fieldTermID, termID)
	buf.PutInt64(int(offset)+fieldReserved, 0)
}
