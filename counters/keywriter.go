// Copyright (c) 2020 anatolygudkov. All rights reserved.
// Use of this source code is governed by MIT license
// that can be found in the LICENSE file.
package counters

import "github.com/relaygrid/corecoord/buffer"

// KeyWriter is a bounded, writable view of exactly 120 bytes handed to a
// caller-supplied callback during AllocateWithKeyWriter, so the caller
// never has to juggle metadata-region offsets directly.
type KeyWriter struct {
	metadata *buffer.Buffer
	offset   int
}

// PutBytes copies up to 120 bytes of src into the key region, truncating
// silently if src is longer and zero-filling the remainder.
func (k KeyWriter) PutBytes(src []byte) {
	n := len(src)
	if n > metadataKeyLength {
		n = metadataKeyLength
	}
	_ = k.metadata.PutBytes(k.offset, src[:n])
	if n < metadataKeyLength {
		zeros := make([]byte, metadataKeyLength-n)
		_ = k.metadata.PutBytes(k.offset+n, zeros)
	}
}

// PutInt64 writes v as 8 little-endian bytes at the start of the key
// region, the common case for keys that are themselves a single counter
// id or session id.
func (k KeyWriter) PutInt64(v int64) {
	k.metadata.PutInt64(k.offset, v)
}

// Len is always 120, the fixed key region size.
func (k KeyWriter) Len() int {
	return metadataKeyLength
}
