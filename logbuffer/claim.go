// Copyright (c) 2016 Stanislav Liberman. Adapted under the Apache
// License, Version 2.0.
package logbuffer

import "github.com/relaygrid/corecoord/buffer"

// Claim is a reserved, caller-writable region of the term buffer
// returned by Appender.Claim. The caller fills in the payload (and, if
// it wants one, the reserved value) and then calls Commit, which is the
// claim's linearization point: a consumer doing an acquire-load of the
// frame's length only ever sees it once Commit has run.
type Claim struct {
	buf         *buffer.Buffer
	offset      int32
	frameLength int32
	committed   bool
}

// Offset returns the byte offset, within the term buffer, of the
// claimed frame's header.
func (c *Claim) Offset() int32 {
	return c.offset
}

// PayloadOffset returns the byte offset, within the term buffer, where
// the caller should start writing its payload.
func (c *Claim) PayloadOffset() int32 {
	return c.offset + HeaderLength
}

// PayloadLength returns the number of payload bytes reserved (the
// claimed length minus the header).
func (c *Claim) PayloadLength() int32 {
	return c.frameLength - HeaderLength
}

// PutBytes copies payload into the claimed region at relativeOffset
// (relative to PayloadOffset), bounds-checked against PayloadLength.
func (c *Claim) PutBytes(relativeOffset int32, payload []byte) error {
	payloadRegion, err := c.buf.Slice(int(c.PayloadOffset()), int(c.PayloadLength()))
	if err != nil {
		return err
	}
	return payloadRegion.PutBytes(int(relativeOffset), payload)
}

// PutReservedValue writes v into the frame's reserved-value field.
func (c *Claim) PutReservedValue(v int64) {
	c.buf.PutInt64(int(c.offset)+fieldReserved, v)
}

// Commit publishes the frame's length with release ordering. It must be
// called exactly once; it panics if called twice or after Abort, since
// either indicates a caller bug (a frame cannot be committed and then
// reused).
func (c *Claim) Commit() {
	if c.committed {
		panic("logbuffer: Claim committed twice")
	}
	c.committed = true
	publishFrameLength(c.buf, c.offset, c.frameLength)
}

// Abort converts the claimed region into a padding frame instead of a
// data frame, for a caller that reserved space and then decided not to
// use it. Consumers scanning the term see an ordinary skippable frame.
func (c *Claim) Abort() {
	if c.committed {
		panic("logbuffer: Claim aborted after commit")
	}
	c.committed = true
	putFrameType(c.buf, c.offset, FrameTypePad)
	publishFrameLength(c.buf, c.offset, c.frameLength)
}
