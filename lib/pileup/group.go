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

	"github.com/biogo/hts/sam"

	"gopkg.in/fatih/set.v0"

	"github.com/amwenger/reviomisc/lib/ccs"
	"github.com/amwenger/reviomisc/lib/esam"
)

var (
	// ErrOutOfOrder reports a subread alignment arriving after its read was
	// closed. Input must be grouped by read.
	ErrOutOfOrder = errors.New("pileup: read out of order")
	// ErrUnknownTarget reports a subread aligned to a read absent from the
	// consensus read set.
	ErrUnknownTarget = errors.New("pileup: unknown read")
)

// Group holds the subread alignments of one consensus read. Seq numbers the
// groups in closing order, starting at zero.
type Group struct {
	Seq  uint64
	Read *ccs.Read
	Alns []esam.Interval
}

// Merger assembles consecutive subread alignments into per-read groups.
type Merger struct {
	store  *ccs.Store
	cur    *Group
	closed set.Interface
	seq    uint64
}

func NewMerger(store *ccs.Store) *Merger {
	return &Merger{store: store, closed: set.New(set.NonThreadSafe)}
}

// Feed adds the alignment of one mapped subread. It returns the completed
// group when r opens a different read than the current one, nil otherwise.
func (m *Merger) Feed(r *sam.Record) (*Group, error) {
	name := r.Ref.Name()
	if m.cur != nil && name == m.cur.Read.Name {
		m.cur.Alns = append(m.cur.Alns, esam.NewInterval(r))
		return nil, nil
	}
	if m.closed.Has(name) {
		return nil, fmt.Errorf("%w: %s", ErrOutOfOrder, name)
	}
	read, ok := m.store.Reads[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, name)
	}
	done := m.cur
	if done != nil {
		m.closed.Add(done.Read.Name)
	}
	m.cur = &Group{Seq: m.seq, Read: read, Alns: []esam.Interval{esam.NewInterval(r)}}
	m.seq++
	return done, nil
}

// Finish closes and returns the last open group, or nil when no alignment
// was fed.
func (m *Merger) Finish() *Group {
	done := m.cur
	if done != nil {
		m.closed.Add(done.Read.Name)
		m.cur = nil
	}
	return done
}

// Remaining returns one empty group per consensus read without any fed
// alignment, in store order. Call after Finish.
func (m *Merger) Remaining() []*Group {
	var groups []*Group
	for _, name := range m.store.Names {
		if m.closed.Has(name) {
			continue
		}
		groups = append(groups, &Group{Seq: m.seq, Read: m.store.Reads[name]})
		m.seq++
	}
	return groups
}
