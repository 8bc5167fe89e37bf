// Copyright (c) 2020 anatolygudkov. All rights reserved.
// Use of this source code is governed by MIT license
// that can be found in the LICENSE file.
package counters

import (
	"github.com/pkg/errors"

	"github.com/relaygrid/corecoord/buffer"
)

// Manager is the single-owner allocator/reclaimer of counter slots. It
// embeds a Reader over the same regions so callers get both read and
// mutate methods from one value, without Manager having to re-declare
// or forward each read accessor itself.
//
// Manager is NOT safe for concurrent use: a single logical owner is
// expected to perform all Allocate/Free calls. Any number of goroutines
// may concurrently use a Reader (including the embedded Manager.Reader) or a
// Position bound to an already-allocated id.
type Manager struct {
	*Reader

	idHighWaterMark int32
	freelist        []int32
}

// NewManager constructs a Manager over metadata and values regions. The
// regions must satisfy metadataCapacity >= 4*valuesCapacity (the
// metadata-to-values slot-size invariant); NewManager does not enforce
// this itself since doing so would require zeroing assumptions about who
// constructed the regions, but Allocate will simply run out of capacity
// sooner if it is violated.
func NewManager(metadata, values *buffer.Buffer) *Manager {
	return &Manager{
		Reader:          NewReader(metadata, values),
		idHighWaterMark: -1,
		freelist:        nil,
	}
}

// Counter is a handle to a newly allocated slot, returned by the
// Allocate family. It is also a *Position (see position.go) bound to
// this Manager, so Close() reclaims the slot.
type Counter = Position

func (m *Manager) nextCounterID() int32 {
	if len(m.freelist) > 0 {
		id := m.freelist[0]
		m.freelist = m.freelist[1:]
		// Clear stale data before re-publication.
		m.values.PutInt64Ordered(valuesOffset(id), 0)
		return id
	}
	m.idHighWaterMark++
	return m.idHighWaterMark
}

func (m *Manager) returnToFreelist(id int32) {
	m.freelist = append(m.freelist, id)
}

func (m *Manager) checkCapacity(id int32) error {
	if (int(id)+1)*valuesSlotLength > m.values.Capacity() ||
		(int(id)+1)*metadataSlotLength > m.metadata.Capacity() {
		return ErrOutOfCapacity
	}
	return nil
}

// Allocate creates a new counter with the given label and type id, with
// no key bytes (all 120 key bytes are zero).
func (m *Manager) Allocate(label string, typeID int32) (*Counter, error) {
	return m.allocate(label, typeID, nil)
}

// AllocateWithKeyWriter creates a new counter, calling writeKey with a
// bounded 120-byte view of the key region before the counter is
// published.
func (m *Manager) AllocateWithKeyWriter(label string, typeID int32, writeKey func(KeyWriter)) (*Counter, error) {
	return m.allocate(label, typeID, writeKey)
}

// AllocateRaw creates a new counter, writing key directly (truncated to
// 120 bytes if longer, zero-padded if shorter).
func (m *Manager) AllocateRaw(typeID int32, key []byte, label string) (*Counter, error) {
	return m.allocate(label, typeID, func(kw KeyWriter) {
		kw.PutBytes(key)
	})
}

func (m *Manager) allocate(label string, typeID int32, writeKey func(KeyWriter)) (*Counter, error) {
	fromFreelist := len(m.freelist) > 0
	id := m.nextCounterID()

	if err := m.checkCapacity(id); err != nil {
		// Give the id back rather than leak it: an id popped off the
		// freelist goes back onto it, and an id taken by growing the
		// high-water mark is undone by rolling the mark back.
		if fromFreelist {
			m.returnToFreelist(id)
		} else {
			m.idHighWaterMark--
		}
		return nil, errors.Wrapf(ErrOutOfCapacity, "counter id %d", id)
	}

	mOff := metadataOffset(id)

	m.metadata.PutInt32(mOff+metadataTypeIDOffset, typeID)

	kw := KeyWriter{metadata: m.metadata, offset: mOff + metadataKeyOffset}
	if writeKey != nil {
		writeKey(kw)
	} else {
		kw.PutBytes(nil)
	}

	labelBytes := []byte(label)
	if len(labelBytes) > metadataLabelMaxLength {
		labelBytes = labelBytes[:metadataLabelMaxLength]
	}
	m.metadata.PutInt32(mOff+metadataLabelLenOffset, int32(len(labelBytes)))
	if err := m.metadata.PutBytes(mOff+metadataLabelBytesOffset, labelBytes); err != nil {
		m.returnToFreelist(id)
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}

	// Linearization point: a reader that observes Allocated from here on
	// is guaranteed to see the type id, key and label written above.
	m.metadata.PutInt32Ordered(mOff+metadataStateOffset, int32(Allocated))

	return &Counter{
		values: m.values,
		id:     id,
		offset: valuesOffset(id),
		owner:  m,
	}, nil
}

// Free reclaims id: it publishes state=Reclaimed with release ordering
// and pushes the id onto the freelist. It does not zero the values
// slot — zeroing happens lazily, at the next reuse, in nextCounterID.
func (m *Manager) Free(id int32) error {
	state, err := m.CounterState(id)
	if err != nil {
		return err
	}
	if state != Allocated {
		return errors.Wrapf(ErrNotFound, "counter %d is not allocated (state=%s)", id, state)
	}

	m.metadata.PutInt32Ordered(metadataOffset(id)+metadataStateOffset, int32(Reclaimed))
	m.returnToFreelist(id)
	return nil
}

// SetCounterValue release-stores v into id's value slot, bypassing any
// Position handle. Used for administrative updates, e.g. seeding a
// counter before handing it to another collaborator.
func (m *Manager) SetCounterValue(id int32, v int64) error {
	if err := m.checkID(id); err != nil {
		return err
	}
	m.values.PutInt64Ordered(valuesOffset(id), v)
	return nil
}
