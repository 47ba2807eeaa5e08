//
// Copyright © 2024 Aaron M. Wenger
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package rle

import "math"

// MaxRunLength is the largest run length representable in one encoded slot.
const MaxRunLength = math.MaxUint16

// AppendRun appends the run (length, value) to enc as one or more
// (run length, value) pairs, splitting runs longer than MaxRunLength so that
// every emitted run length fits an unsigned 16-bit slot. A length of zero or
// less appends nothing.
func AppendRun(enc []uint16, length, value int) []uint16 {
	for length > MaxRunLength {
		enc = append(enc, MaxRunLength, uint16(value))
		length -= MaxRunLength
	}
	if length > 0 {
		enc = append(enc, uint16(length), uint16(value))
	}
	return enc
}

// Encode compresses values into the alternating (run length, value) layout
// produced by AppendRun.
func Encode(values []int) []uint16 {
	var enc []uint16
	for i := 0; i < len(values); {
		j := i
		for j < len(values) && values[j] == values[i] {
			j++
		}
		enc = AppendRun(enc, j-i, values[i])
		i = j
	}
	return enc
}

// Expand decodes enc to per-position values.
func Expand(enc []uint16) []uint16 {
	var n int
	for i := 0; i+1 < len(enc); i += 2 {
		n += int(enc[i])
	}
	values := make([]uint16, 0, n)
	for i := 0; i+1 < len(enc); i += 2 {
		for j := 0; j < int(enc[i]); j++ {
			values = append(values, enc[i+1])
		}
	}
	return values
}
