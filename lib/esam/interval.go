//
// Copyright © 2024 Aaron M. Wenger
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package esam

import (
	"github.com/biogo/hts/sam"
)

// Interval is the reference footprint of one alignment with the edit
// operations covering it. Start and End are 0-based half-open coordinates.
type Interval struct {
	Start   int
	End     int
	Reverse bool
	Cigar   sam.Cigar
}

// NewInterval extracts the alignment interval of r.
func NewInterval(r *sam.Record) Interval {
	return Interval{
		Start:   r.Start(),
		End:     r.End(),
		Reverse: r.Flags&sam.Reverse != 0,
		Cigar:   r.Cigar,
	}
}

// Len returns the reference length of the interval.
func (v Interval) Len() int {
	return v.End - v.Start
}
