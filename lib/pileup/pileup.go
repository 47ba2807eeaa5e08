//
// Copyright © 2024 Aaron M. Wenger
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package pileup

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/biogo/hts/sam"

	"github.com/amwenger/reviomisc/lib/esam"
	"github.com/amwenger/reviomisc/lib/rle"
)

var (
	// ErrMatchOp reports an alignment using the generic M operation where
	// the = and X operations are required.
	ErrMatchOp = errors.New("pileup: generic match operation")
	// ErrNegativeDepth reports alignment intervals resolving to a negative
	// depth, i.e. corrupt interval boundaries.
	ErrNegativeDepth = errors.New("pileup: negative depth")
)

// Suffixes of read names marking single-strand consensus.
const (
	SuffixFwd = "/fwd"
	SuffixRev = "/rev"
)

// FilterStrand drops reverse-strand alignments when name marks a
// single-strand consensus read. Alignments of regular reads are all kept.
func FilterStrand(name string, alns []esam.Interval) []esam.Interval {
	if !strings.HasSuffix(name, SuffixFwd) && !strings.HasSuffix(name, SuffixRev) {
		return alns
	}
	var kept []esam.Interval
	for _, aln := range alns {
		if !aln.Reverse {
			kept = append(kept, aln)
		}
	}
	return kept
}

// Cover computes the per-position alignment depth over a read of the given
// length, encoded as (run length, depth) pairs. Runs longer than
// rle.MaxRunLength are split. Without any alignment the whole read is a
// single run of depth zero.
func Cover(length int, alns []esam.Interval) ([]uint16, error) {
	// Depth changes at interval boundaries, clamped to the read
	delta := make(map[int]int)
	for _, aln := range alns {
		delta[min(max(aln.Start, 0), length)]++
		delta[min(max(aln.End, 0), length)]--
	}
	bounds := make([]int, 0, len(delta))
	for pos := range delta {
		bounds = append(bounds, pos)
	}
	sort.Ints(bounds)
	var enc []uint16
	var prev, depth int
	for _, pos := range bounds {
		if pos > prev {
			enc = rle.AppendRun(enc, pos-prev, depth)
			prev = pos
		}
		depth += delta[pos]
		if depth < 0 {
			return nil, fmt.Errorf("%w at position %d", ErrNegativeDepth, pos)
		}
	}
	if length > prev {
		enc = rle.AppendRun(enc, length-prev, depth)
	}
	return enc, nil
}

// Tally accumulates the per-position count of subread bases matching and
// mismatching the read, saturating at 255. The = and X operations advance
// the position and count, D and N advance without counting, and I, S, H and
// P neither advance nor count. The generic M operation is an error.
func Tally(length int, alns []esam.Interval) (match, mismatch []uint8, err error) {
	nMatch := make([]int, length)
	nMismatch := make([]int, length)
	for _, aln := range alns {
		pos := aln.Start
		for _, co := range aln.Cigar {
			t := co.Type()
			if t == sam.CigarMatch {
				return nil, nil, fmt.Errorf("%w: %s", ErrMatchOp, aln.Cigar)
			}
			lr := co.Len() * t.Consumes().Reference
			switch t {
			case sam.CigarEqual:
				for ip := max(pos, 0); ip < min(pos+lr, length); ip++ {
					nMatch[ip]++
				}
			case sam.CigarMismatch:
				for ip := max(pos, 0); ip < min(pos+lr, length); ip++ {
					nMismatch[ip]++
				}
			}
			pos += lr
		}
	}
	match = make([]uint8, length)
	mismatch = make([]uint8, length)
	for ip := 0; ip < length; ip++ {
		match[ip] = uint8(min(nMatch[ip], math.MaxUint8))
		mismatch[ip] = uint8(min(nMismatch[ip], math.MaxUint8))
	}
	return match, mismatch, nil
}

// Annotate computes the depth, match and mismatch profiles of one read of
// the given length from the alignments of its subreads.
func Annotate(name string, length int, alns []esam.Interval) (cover []uint16, match, mismatch []uint8, err error) {
	alns = FilterStrand(name, alns)
	cover, err = Cover(length, alns)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	match, mismatch, err = Tally(length, alns)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	return cover, match, mismatch, nil
}
