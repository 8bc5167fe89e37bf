// Copyright (c) 2020 anatolygudkov. All rights reserved.
// Use of this source code is governed by MIT license
// that can be found in the LICENSE file.

// Package counters implements a fixed-capacity, shared-memory table of
// named 64-bit counters with atomic read/update semantics: a read-only
// Reader, a single-owner Manager for allocation and reclamation, and a
// per-slot Position handle for the hot mutation path.
package counters

/*
Layout of a single values slot (128 bytes):

  0                   1
  0 1 2 3 4 5 6 7 8 9 0 1 2 3 ... 127
 +-----------------------------------+
 |          counter value            |
 +-----------------------------------+
 |       120 bytes of padding        |
 ...                                 |
 +-----------------------------------+

The padding isolates each counter on its own pair of cache lines, so one
producer hammering its counter never invalidates a neighbor's cache line.

Layout of a single metadata slot (512 bytes):

 +-----------------------------------+
 |         record state (i32)        |  0..4
 +-----------------------------------+
 |          type id (i32)            |  4..8
 +-----------------------------------+
 |         key bytes (120)           |  8..128
 ...                                 |
 +-----------------------------------+
 |        label length (i32)         |  128..132
 +-----------------------------------+
 |        label bytes (380)          |  132..512
 ...                                 |
 +-----------------------------------+
*/

// RecordLayoutVersion identifies the on-disk shape of the values/metadata
// slots above. A reader and writer mapping the same region must agree on
// this version; there is no migration path between versions.
const RecordLayoutVersion int32 = 1

const (
	valuesSlotLength = 128

	metadataStateOffset      = 0
	metadataTypeIDOffset     = metadataStateOffset + 4
	metadataKeyOffset        = metadataTypeIDOffset + 4
	metadataKeyLength        = 120
	metadataLabelLenOffset   = metadataKeyOffset + metadataKeyLength // 128
	metadataLabelBytesOffset = metadataLabelLenOffset + 4            // 132
	metadataLabelMaxLength   = 380
	metadataSlotLength       = metadataLabelBytesOffset + metadataLabelMaxLength // 512
)

// State is the published lifecycle state of a counter's metadata slot.
type State int32

// Record states, encoded as fixed int32 values: UNUSED=0, ALLOCATED=1, RECLAIMED=-1.
const (
	Unused    State = 0
	Allocated State = 1
	Reclaimed State = -1
)

func (s State) String() string {
	switch s {
	case Unused:
		return "unused"
	case Allocated:
		return "allocated"
	case Reclaimed:
		return "reclaimed"
	default:
		return "unknown"
	}
}

// NullCounterID is returned by search operations that find no match.
const NullCounterID int32 = -1

func valuesOffset(id int32) int {
	return int(id) * valuesSlotLength
}

func metadataOffset(id int32) int {
	return int(id) * metadataSlotLength
}

// maxCounterID returns the highest id that fits in the given values and
// metadata region capacities, honoring the invariant that the metadata
// region is sized at least 4x the values region.
func maxCounterID(valuesCapacity, metadataCapacity int) int32 {
	byValues := valuesCapacity/valuesSlotLength - 1
	byMetadata := metadataCapacity/metadataSlotLength - 1
	if byMetadata < byValues {
		return int32(byMetadata)
	}
	return int32(byValues)
}
