// Copyright (c) 2020 anatolygudkov. All rights reserved.
// Use of this source code is governed by MIT license
// that can be found in the LICENSE file.
package counters

import "github.com/pkg/errors"

// ErrOutOfCapacity is returned by Allocate when no more counter ids fit
// in the configured values/metadata regions.
var ErrOutOfCapacity = errors.New("counters: out of capacity")

// ErrNotFound is returned by queries made against an id that does not
// name a currently allocated counter.
var ErrNotFound = errors.New("counters: not found")

// ErrCorrupt wraps a bounds or alignment failure surfaced by the
// underlying buffer. It indicates a programming bug (a mismatched
// region/capacity pairing), not a recoverable runtime condition.
var ErrCorrupt = errors.New("counters: corrupt layout")
