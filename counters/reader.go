// Copyright (c) 2020 anatolygudkov. All rights reserved.
// Use of this source code is governed by MIT license
// that can be found in the LICENSE file.
package counters

import (
	"github.com/pkg/errors"

	"github.com/relaygrid/corecoord/buffer"
)

// Reader is a read-only view over a metadata region and a values region
// using the fixed record layout from layout.go. Readers never mutate and
// tolerate concurrent writers: a slot observed as Allocated is re-checked
// after reading its dependent fields, since the slot may be freed and
// reallocated between the state load and the field reads.
type Reader struct {
	metadata *buffer.Buffer
	values   *buffer.Buffer
}

// NewReader constructs a Reader over metadata and values regions. It
// does not validate that metadataCapacity >= 4*valuesCapacity; callers
// that construct the regions themselves (rather than through Manager)
// are responsible for respecting that invariant.
func NewReader(metadata, values *buffer.Buffer) *Reader {
	return &Reader{metadata: metadata, values: values}
}

// MaxCounterID returns the highest id that fits in the configured
// regions, i.e. valuesCapacity/128 - 1 (clamped further if the metadata
// region is smaller than the 4x invariant calls for).
func (r *Reader) MaxCounterID() int32 {
	return maxCounterID(r.values.Capacity(), r.metadata.Capacity())
}

func (r *Reader) checkID(id int32) error {
	if id < 0 || id > r.MaxCounterID() {
		return errors.Wrapf(ErrNotFound, "counter id %d out of range", id)
	}
	return nil
}

// CounterState does an acquire-load of the 32-bit state field.
func (r *Reader) CounterState(id int32) (State, error) {
	if err := r.checkID(id); err != nil {
		return Unused, err
	}
	return State(r.metadata.GetInt32Volatile(metadataOffset(id) + metadataStateOffset)), nil
}

// CounterTypeID plain-loads the type id, after confirming the slot is
// currently Allocated.
func (r *Reader) CounterTypeID(id int32) (int32, error) {
	state, err := r.CounterState(id)
	if err != nil {
		return 0, err
	}
	if state != Allocated {
		return 0, errors.Wrapf(ErrNotFound, "counter %d is not allocated", id)
	}
	return r.metadata.GetInt32(metadataOffset(id) + metadataTypeIDOffset), nil
}

// CounterKey returns the 120 raw key bytes for id.
func (r *Reader) CounterKey(id int32) ([]byte, error) {
	state, err := r.CounterState(id)
	if err != nil {
		return nil, err
	}
	if state != Allocated {
		return nil, errors.Wrapf(ErrNotFound, "counter %d is not allocated", id)
	}
	key, err := r.metadata.GetBytes(metadataOffset(id)+metadataKeyOffset, metadataKeyLength)
	if err != nil {
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}
	return key, nil
}

// CounterLabel decodes the length-prefixed label string for id.
func (r *Reader) CounterLabel(id int32) (string, error) {
	state, err := r.CounterState(id)
	if err != nil {
		return "", err
	}
	if state != Allocated {
		return "", errors.Wrapf(ErrNotFound, "counter %d is not allocated", id)
	}
	label, err := r.metadata.GetStringASCII(metadataOffset(id) + metadataLabelLenOffset)
	if err != nil {
		return "", errors.Wrap(ErrCorrupt, err.Error())
	}
	return label, nil
}

// CounterValue does an acquire-load of the 64-bit counter value.
func (r *Reader) CounterValue(id int32) (int64, error) {
	if err := r.checkID(id); err != nil {
		return 0, err
	}
	return r.values.GetInt64Volatile(valuesOffset(id)), nil
}

// ForEach iterates over every slot that is observed Allocated, calling
// consumer(id, typeID, label) for each. Iteration stops early if
// consumer returns false. A slot whose state changes between the
// initial read and the field reads is skipped rather than reported with
// stale data, via a double-check-after-read on the state field.
func (r *Reader) ForEach(consumer func(id, typeID int32, label string) bool) {
	max := r.MaxCounterID()
	for id := int32(0); id <= max; id++ {
		off := metadataOffset(id)

		state := State(r.metadata.GetInt32Volatile(off + metadataStateOffset))
		if state != Allocated {
			continue
		}

		typeID := r.metadata.GetInt32(off + metadataTypeIDOffset)
		labelLen := r.metadata.GetInt32(off + metadataLabelLenOffset)
		label, err := r.metadata.GetBytes(off+metadataLabelBytesOffset, int(labelLen))
		if err != nil {
			continue
		}

		// Re-check the state after reading the dependent fields: if the
		// slot was freed and reused underneath us, the fields we just
		// read may belong to a different counter than the id we're
		// about to report.
		if State(r.metadata.GetInt32Volatile(off+metadataStateOffset)) != state {
			continue
		}

		if !consumer(id, typeID, string(label)) {
			return
		}
	}
}
