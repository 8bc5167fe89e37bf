// Copyright (c) 2020 anatolygudkov. All rights reserved.
// Use of this source code is governed by MIT license
// that can be found in the LICENSE file.
package counters

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaygrid/corecoord/buffer"
)

func newTestManager(t *testing.T, numSlots int) *Manager {
	t.Helper()
	metadata := buffer.MustNew(make([]byte, numSlots*metadataSlotLength))
	values := buffer.MustNew(make([]byte, numSlots*valuesSlotLength))
	return NewManager(metadata, values)
}

// S1: Allocate/read.
func TestAllocateAndRead(t *testing.T) {
	m := newTestManager(t, 16)

	c, err := m.Allocate("alpha", 7)
	require.NoError(t, err)
	assert.Equal(t, int32(0), c.ID())

	state, err := m.CounterState(0)
	require.NoError(t, err)
	assert.Equal(t, Allocated, state)

	typeID, err := m.CounterTypeID(0)
	require.NoError(t, err)
	assert.Equal(t, int32(7), typeID)

	label, err := m.CounterLabel(0)
	require.NoError(t, err)
	assert.Equal(t, "alpha", label)
}

// S2: Free and reuse.
func TestFreeAndReuse(t *testing.T) {
	m := newTestManager(t, 16)

	first, err := m.Allocate("alpha", 7)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := m.Allocate("beta", 9)
	require.NoError(t, err)
	assert.Equal(t, int32(0), second.ID())

	value, err := m.CounterValue(0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), value)

	label, err := m.CounterLabel(0)
	require.NoError(t, err)
	assert.Equal(t, "beta", label)
}

// S3: Capacity.
func TestAllocateOutOfCapacity(t *testing.T) {
	m := newTestManager(t, 16)

	for i := 0; i < 16; i++ {
		_, err := m.Allocate("counter", 0)
		require.NoError(t, err)
	}

	_, err := m.Allocate("overflow", 0)
	require.ErrorIs(t, err, ErrOutOfCapacity)

	assert.Equal(t, int32(15), m.idHighWaterMark)
}

// Property 2: freelist FIFO reuse.
func TestFreelistFIFOReuse(t *testing.T) {
	m := newTestManager(t, 16)

	var ids []int32
	for i := 0; i < 3; i++ {
		c, err := m.Allocate("counter", 0)
		require.NoError(t, err)
		ids = append(ids, c.ID())
	}

	for i := 0; i < 16-3; i++ {
		_, err := m.Allocate("filler", 0)
		require.NoError(t, err)
	}

	require.NoError(t, m.Free(ids[0]))
	require.NoError(t, m.Free(ids[1]))
	require.NoError(t, m.Free(ids[2]))

	for _, want := range ids {
		c, err := m.Allocate("reused", 0)
		require.NoError(t, err)
		assert.Equal(t, want, c.ID())

		value, err := m.CounterValue(c.ID())
		require.NoError(t, err)
		assert.Equal(t, int64(0), value)
	}
}

func TestDoubleFreeRejected(t *testing.T) {
	m := newTestManager(t, 4)

	c, err := m.Allocate("alpha", 0)
	require.NoError(t, err)

	require.NoError(t, m.Free(c.ID()))
	assert.ErrorIs(t, m.Free(c.ID()), ErrNotFound)
}

func TestAllocateWithKeyWriter(t *testing.T) {
	m := newTestManager(t, 4)

	c, err := m.AllocateWithKeyWriter("keyed", 1, func(kw KeyWriter) {
		kw.PutInt64(424242)
	})
	require.NoError(t, err)

	key, err := m.CounterKey(c.ID())
	require.NoError(t, err)

	var got int64
	for i := 7; i >= 0; i-- {
		got = got<<8 | int64(key[i])
	}
	assert.Equal(t, int64(424242), got)
}

func TestAllocateTruncatesOversizedLabel(t *testing.T) {
	m := newTestManager(t, 4)

	longLabel := make([]byte, metadataLabelMaxLength+50)
	for i := range longLabel {
		longLabel[i] = 'x'
	}

	c, err := m.Allocate(string(longLabel), 0)
	require.NoError(t, err)

	label, err := m.CounterLabel(c.ID())
	require.NoError(t, err)
	assert.Len(t, label, metadataLabelMaxLength)
}

// Property 1: allocation is linearizable on state publish. A reader
// racing allocations never observes Allocated without also observing
// the fields the allocation wrote.
func TestAllocationLinearizableUnderConcurrentReaders(t *testing.T) {
	const slots = 64
	m := newTestManager(t, slots)
	reader := NewReader(m.metadata, m.values)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			reader.ForEach(func(id, typeID int32, label string) bool {
				// If a slot reports Allocated, its fields must be
				// self-consistent: the label "counter-N" must encode
				// the type id N.
				if rest, ok := strings.CutPrefix(label, "counter-"); ok {
					if want, err := strconv.Atoi(rest); err == nil {
						assert.Equal(t, int32(want), typeID)
					}
				}
				return true
			})
		}
	}()

	for i := int32(0); i < slots; i++ {
		_, err := m.Allocate(labelFor(i), i)
		require.NoError(t, err)
	}

	close(stop)
	wg.Wait()
}

func labelFor(typeID int32) string {
	return fmt.Sprintf("counter-%d", typeID)
}
