// Copyright (c) 2016 Stanislav Liberman. Adapted under the Apache
// License, Version 2.0. Modeled on aeron-go's term appender and
// generalized to this repository's HeaderWriter/ReservedValueSupplier
// collaborators.
package logbuffer

import (
	"fmt"

	"github.com/relaygrid/corecoord/buffer"
)

// Appender is a multi-producer, lock-free appender over a single term
// buffer. Every producer arrival does exactly one atomic fetch-add
// against the tail counter; the rest of the work (header write, payload
// copy, length publish) happens over the disjoint range that fetch-add
// granted, with no further coordination between producers.
type Appender struct {
	term       *buffer.Buffer
	tail       *buffer.Buffer
	tailOffset int
	termLength int32
}

// NewAppender constructs an Appender over term (the append target) and
// a tail counter kept at tailOffset within tailMetadata (typically one
// of several per-partition tail counters packed into a shared metadata
// buffer). term's capacity must be a power of two and a multiple of
// FrameAlignment.
func NewAppender(term, tailMetadata *buffer.Buffer, tailOffset int) (*Appender, error) {
	length := term.Capacity()
	if length <= 0 || length&(length-1) != 0 {
		return nil, fmt.Errorf("logbuffer: term length %d is not a power of two", length)
	}
	if int32(length)%FrameAlignment != 0 {
		return nil, fmt.Errorf("logbuffer: term length %d is not a multiple of frame alignment %d", length, FrameAlignment)
	}
	if err := tailMetadata.BoundsCheck(tailOffset, 8); err != nil {
		return nil, err
	}
	return &Appender{
		term:       term,
		tail:       tailMetadata,
		tailOffset: tailOffset,
		termLength: int32(length),
	}, nil
}

// RawTail returns the current packed (termID, termOffset) tail value
// with acquire ordering.
func (a *Appender) RawTail() int64 {
	return a.tail.GetInt64Volatile(a.tailOffset)
}

// Tail unpacks the current tail into its term id and term offset.
func (a *Appender) Tail() (termID, termOffset int32) {
	return unpackTail(a.RawTail())
}

// InitializeTermID sets the tail to (termID, 0). Used when rotating a
// partition into service for a new term; not itself part of the
// producer hot path.
func (a *Appender) InitializeTermID(termID int32) {
	a.tail.PutInt64Ordered(a.tailOffset, int64(termID)<<32)
}

func (a *Appender) getAndAddRawTail(alignedLength int32) int64 {
	return a.tail.GetAndAddInt64(a.tailOffset, int64(alignedLength))
}

func unpackTail(rawTail int64) (termID, termOffset int32) {
	return int32(rawTail >> 32), int32(rawTail)
}

// Claim reserves a region of length bytes of payload (headerLength
// added automatically, then aligned to FrameAlignment) for the caller
// to fill in and Commit. On end-of-term, the returned Claim is nil and
// Result.IsEndOfTerm() is true.
func (a *Appender) Claim(header HeaderWriter, length int32) (Result, *Claim, error) {
	frameLength := length + HeaderLength
	alignedLength := AlignUp(frameLength, FrameAlignment)

	rawTail := a.getAndAddRawTail(alignedLength)
	termID, termOffset := unpackTail(rawTail)

	resultOffset := termOffset + alignedLength
	if resultOffset > a.termLength {
		return a.handleEndOfLog(termID, termOffset, header), nil, nil
	}

	header.Write(a.term, termOffset, frameLength, termID)
	claim := &Claim{buf: a.term, offset: termOffset, frameLength: frameLength}
	return Pack(termID, resultOffset), claim, nil
}

// AppendUnfragmented appends src as a single frame.
func (a *Appender) AppendUnfragmented(header HeaderWriter, src []byte, reservedValueSupplier ReservedValueSupplier) (Result, error) {
	length := int32(len(src))
	frameLength := length + HeaderLength
	alignedLength := AlignUp(frameLength, FrameAlignment)

	rawTail := a.getAndAddRawTail(alignedLength)
	termID, termOffset := unpackTail(rawTail)

	resultOffset := termOffset + alignedLength
	if resultOffset > a.termLength {
		return a.handleEndOfLog(termID, termOffset, header), nil
	}

	header.Write(a.term, termOffset, frameLength, termID)
	if err := a.term.PutBytes(int(termOffset+HeaderLength), src); err != nil {
		return 0, err
	}

	if reservedValueSupplier != nil {
		reserved := reservedValueSupplier(a.term, termOffset, frameLength)
		a.term.PutInt64(int(termOffset)+fieldReserved, reserved)
	}

	publishFrameLength(a.term, termOffset, frameLength)
	return Pack(termID, resultOffset), nil
}

// AppendFragmented appends src as a sequence of frames of at most
// maxPayloadLength payload bytes each: BEGIN_FRAG on the first,
// END_FRAG on the last, no fragmentation flag on any frame in between. A
// message that fits within a single maxPayloadLength-sized frame still
// goes through this path and comes out UNFRAGMENTED (both flags set).
func (a *Appender) AppendFragmented(header HeaderWriter, src []byte, maxPayloadLength int32, reservedValueSupplier ReservedValueSupplier) (Result, error) {
	length := int32(len(src))
	numMaxPayloads := length / maxPayloadLength
	remainingPayload := length % maxPayloadLength

	var lastFrameLength int32
	if remainingPayload > 0 {
		lastFrameLength = AlignUp(remainingPayload+HeaderLength, FrameAlignment)
	}
	requiredLength := numMaxPayloads*AlignUp(maxPayloadLength+HeaderLength, FrameAlignment) + lastFrameLength

	rawTail := a.getAndAddRawTail(requiredLength)
	termID, termOffset := unpackTail(rawTail)

	resultOffset := termOffset + requiredLength
	if resultOffset > a.termLength {
		return a.handleEndOfLog(termID, termOffset, header), nil
	}

	flags := FlagBeginFragment
	remaining := length
	offset := termOffset

	for remaining > 0 {
		bytesToWrite := remaining
		if bytesToWrite > maxPayloadLength {
			bytesToWrite = maxPayloadLength
		}
		frameLength := bytesToWrite + HeaderLength
		alignedLength := AlignUp(frameLength, FrameAlignment)

		header.Write(a.term, offset, frameLength, termID)
		if err := a.term.PutBytes(int(offset+HeaderLength), src[length-remaining:length-remaining+bytesToWrite]); err != nil {
			return 0, err
		}

		if bytesToWrite >= remaining {
			flags |= FlagEndFragment
		}
		putFrameFlags(a.term, offset, flags)

		if reservedValueSupplier != nil {
			reserved := reservedValueSupplier(a.term, offset, frameLength)
			a.term.PutInt64(int(offset)+fieldReserved, reserved)
		}

		publishFrameLength(a.term, offset, frameLength)

		flags = 0
		offset += alignedLength
		remaining -= bytesToWrite
	}

	return Pack(termID, resultOffset), nil
}

// handleEndOfLog handles a reservation that ran past the term's end: a
// producer that raced past the term's end gets FAILED with no writes;
// one landing exactly on the end gets TRIPPED with no writes; one
// landing short of the end gets a single PADDING frame covering the
// remainder, then TRIPPED.
func (a *Appender) handleEndOfLog(termID, termOffset int32, header HeaderWriter) Result {
	if termOffset > a.termLength {
		return Pack(termID, Failed)
	}

	if termOffset < a.termLength {
		paddingLength := a.termLength - termOffset
		header.Write(a.term, termOffset, paddingLength, termID)
		putFrameType(a.term, termOffset, FrameTypePad)
		publishFrameLength(a.term, termOffset, paddingLength)
	}

	return Pack(termID, Tripped)
}
