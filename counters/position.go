// Copyright (c) 2020 anatolygudkov. All rights reserved.
// Use of this source code is governed by MIT license
// that can be found in the LICENSE file.
package counters

import (
	"sync/atomic"

	"github.com/relaygrid/corecoord/buffer"
)

// Position is a per-slot handle binding a counter id to the values
// region: typed reads, plain and release-ordered writes, and
// "propose-max" updates for the single-writer position-tracking use
// case this repository's messaging transport uses counters for.
//
// The propose-max operations are intentionally not atomic: a Position is
// owned by exactly one producer by convention, and avoiding a CAS loop
// is the entire point. Concurrent calls from more than one goroutine
// produce an unspecified but memory-safe result — that is a documented
// contract, not a bug.
type Position struct {
	values *buffer.Buffer
	id     int32
	offset int
	owner  *Manager // nil if this Position does not own its slot
	closed int32
}

// NewUnownedPosition binds a Position to id over values without
// reclaim-on-close semantics — used by collaborators that only ever
// read/write a counter another component allocated.
func NewUnownedPosition(values *buffer.Buffer, id int32) *Position {
	return &Position{values: values, id: id, offset: valuesOffset(id)}
}

// ID returns the bound counter id.
func (p *Position) ID() int32 {
	return p.id
}

// Get is a plain load of the counter value.
func (p *Position) Get() int64 {
	return p.values.GetInt64(p.offset)
}

// GetVolatile is an acquire-ordered load of the counter value.
func (p *Position) GetVolatile() int64 {
	return p.values.GetInt64Volatile(p.offset)
}

// Set is a plain store.
func (p *Position) Set(v int64) {
	p.values.PutInt64(p.offset, v)
}

// SetOrdered is a release-ordered store.
func (p *Position) SetOrdered(v int64) {
	p.values.PutInt64Ordered(p.offset, v)
}

// ProposeMax stores v if it is greater than the current plain-loaded
// value, returning true if it did. Single-writer contract: correct only
// when one producer updates this Position.
func (p *Position) ProposeMax(v int64) bool {
	if p.values.GetInt64(p.offset) < v {
		p.values.PutInt64(p.offset, v)
		return true
	}
	return false
}

// ProposeMaxOrdered is ProposeMax, but the store (if any) is
// release-ordered.
func (p *Position) ProposeMaxOrdered(v int64) bool {
	if p.values.GetInt64(p.offset) < v {
		p.values.PutInt64Ordered(p.offset, v)
		return true
	}
	return false
}

// Close is idempotent. On its first call, if this Position owns its
// slot (it was returned by one of Manager's Allocate methods), it frees
// the slot via the owning Manager.
func (p *Position) Close() error {
	if !atomic.CompareAndSwapInt32(&p.closed, 0, 1) {
		return nil
	}
	if p.owner != nil {
		return p.owner.Free(p.id)
	}
	return nil
}

// IsClosed reports whether Close has already run.
func (p *Position) IsClosed() bool {
	return atomic.LoadInt32(&p.closed) != 0
}
