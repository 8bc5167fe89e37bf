// Copyright (c) 2020 anatolygudkov. All rights reserved.
// Use of this source code is governed by MIT license
// that can be found in the LICENSE file.
package buffer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuffer(t *testing.T, size int) *Buffer {
	t.Helper()
	b, err := New(make([]byte, size))
	require.NoError(t, err)
	return b
}

func TestPutGetBytes(t *testing.T) {
	b := newTestBuffer(t, 1000)

	require.NoError(t, b.PutBytes(2, []byte("test")))

	got, err := b.GetBytes(2, 4)
	require.NoError(t, err)
	assert.Equal(t, "test", string(got))
}

func TestStringASCIIRoundTrip(t *testing.T) {
	b := newTestBuffer(t, 512)

	require.NoError(t, b.PutStringASCII(128, "alpha"))

	s, err := b.GetStringASCII(128)
	require.NoError(t, err)
	assert.Equal(t, "alpha", s)
}

func TestInt32PlainVolatile(t *testing.T) {
	b := newTestBuffer(t, 64)

	b.PutInt32(0, 42)
	assert.Equal(t, int32(42), b.GetInt32(0))

	b.PutInt32Ordered(4, 7)
	assert.Equal(t, int32(7), b.GetInt32Volatile(4))
}

func TestInt64GetAndAdd(t *testing.T) {
	b := newTestBuffer(t, 64)

	b.PutInt64(0, 10)
	prev := b.GetAndAddInt64(0, 5)
	assert.Equal(t, int64(10), prev)
	assert.Equal(t, int64(15), b.GetInt64(0))
}

func TestGetAndAddInt64ConcurrentDisjoint(t *testing.T) {
	b := newTestBuffer(t, 8)
	b.PutInt64(0, 0)

	const goroutines = 64
	const perGoroutine = 100

	seen := make([][]int64, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		g := g
		go func() {
			defer wg.Done()
			values := make([]int64, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				values[i] = b.GetAndAddInt64(0, 1)
			}
			seen[g] = values
		}()
	}
	wg.Wait()

	all := make(map[int64]bool)
	for _, values := range seen {
		for _, v := range values {
			require.False(t, all[v], "value %d handed out twice", v)
			all[v] = true
		}
	}
	assert.Equal(t, goroutines*perGoroutine, len(all))
	assert.Equal(t, int64(goroutines*perGoroutine), b.GetInt64(0))
}

func TestBoundsCheck(t *testing.T) {
	b := newTestBuffer(t, 16)

	err := b.BoundsCheck(10, 10)
	assert.Error(t, err)

	err = b.BoundsCheck(0, 16)
	assert.NoError(t, err)
}

func TestGetBytesOutOfBounds(t *testing.T) {
	b := newTestBuffer(t, 16)

	_, err := b.GetBytes(10, 10)
	assert.Error(t, err)
}

func TestSliceSharesBackingArray(t *testing.T) {
	b := newTestBuffer(t, 64)

	s, err := b.Slice(8, 8)
	require.NoError(t, err)

	s.PutInt64(0, 99)
	assert.Equal(t, int64(99), b.GetInt64(8))
}

func TestCompareAndSwapInt64(t *testing.T) {
	b := newTestBuffer(t, 64)
	b.PutInt64(0, 1)

	assert.True(t, b.CompareAndSwapInt64(0, 1, 2))
	assert.False(t, b.CompareAndSwapInt64(0, 1, 3))
	assert.Equal(t, int64(2), b.GetInt64(0))
}
