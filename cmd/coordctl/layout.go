// Copyright (c) 2020 anatolygudkov. All rights reserved.
// Use of this source code is governed by MIT license
// that can be found in the LICENSE file.

// regionLayout carves a single mapped file into the four sub-regions
// cmd/coordctl needs: a counters values region, a counters metadata
// region (sized 4x the values region, per counters/layout.go's
// invariant), a small tail-counter region (one int64 per term
// partition), and the term buffers themselves.
package main

import (
	"github.com/relaygrid/corecoord/buffer"
	"github.com/relaygrid/corecoord/internal/config"
)

const valuesSlotLength = 128
const metadataSlotLength = 512
const tailSlotLength = 8

type regionLayout struct {
	values   *buffer.Buffer
	metadata *buffer.Buffer
	tails    *buffer.Buffer
	terms    []*buffer.Buffer
}

// totalSize returns the file size cfg requires.
func totalSize(cfg config.Config) int {
	valuesSize := cfg.CounterCapacity * valuesSlotLength
	metadataSize := cfg.CounterCapacity * metadataSlotLength
	tailsSize := cfg.TermPartitions * tailSlotLength
	termsSize := cfg.TermPartitions * cfg.TermLength
	return valuesSize + metadataSize + tailsSize + termsSize
}

// sliceRegions carves region out according to cfg. region must be at
// least totalSize(cfg) bytes.
func sliceRegions(region *buffer.Buffer, cfg config.Config) (*regionLayout, error) {
	valuesSize := cfg.CounterCapacity * valuesSlotLength
	metadataSize := cfg.CounterCapacity * metadataSlotLength
	tailsSize := cfg.TermPartitions * tailSlotLength

	offset := 0
	values, err := region.Slice(offset, valuesSize)
	if err != nil {
		return nil, err
	}
	offset += valuesSize

	metadata, err := region.Slice(offset, metadataSize)
	if err != nil {
		return nil, err
	}
	offset += metadataSize

	tails, err := region.Slice(offset, tailsSize)
	if err != nil {
		return nil, err
	}
	offset += tailsSize

	terms := make([]*buffer.Buffer, cfg.TermPartitions)
	for i := 0; i < cfg.TermPartitions; i++ {
		term, err := region.Slice(offset, cfg.TermLength)
		if err != nil {
			return nil, err
		}
		terms[i] = term
		offset += cfg.TermLength
	}

	return &regionLayout{values: values, metadata: metadata, tails: tails, terms: terms}, nil
}
