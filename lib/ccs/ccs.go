//
// Copyright © 2024 Aaron M. Wenger
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package ccs

import (
	"fmt"
	"io"

	"github.com/biogo/hts/sam"

	"github.com/amwenger/reviomisc/lib/esam"
)

// Auxiliary tags holding the per-base subread support of a consensus read.
var (
	TagCoverage = sam.Tag{'s', 'c'}
	TagMatch    = sam.Tag{'s', 'm'}
	TagMismatch = sam.Tag{'s', 'x'}
)

// Read is one consensus read. Depth holds the run-length encoded subread
// depth once the read has been annotated.
type Read struct {
	Name   string
	Length int
	Rec    *sam.Record
	Depth  []uint16
}

// Store holds consensus reads by name. Names preserves the input order.
type Store struct {
	Reads  map[string]*Read
	Names  []string
	Header *sam.Header
}

// LoadStore reads all consensus reads from pathSAM. Read names must be
// unique. For SAM input, a non-empty cmd is used to decompress the file.
func LoadStore(pathSAM esam.PathSAM, cmd []string, nWorker int) (*Store, error) {
	r, err := esam.NewReader(pathSAM, cmd, nWorker)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	store := &Store{Reads: make(map[string]*Read), Header: r.Header()}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		if _, ok := store.Reads[rec.Name]; ok {
			return nil, fmt.Errorf("duplicate read %s in %s", rec.Name, pathSAM.Path)
		}
		store.Reads[rec.Name] = &Read{Name: rec.Name, Length: rec.Seq.Length, Rec: rec}
		store.Names = append(store.Names, rec.Name)
	}
	return store, nil
}

// Attach sets the annotation tags on the read record, replacing existing
// values, and keeps the encoded depth on the read.
func Attach(read *Read, cover []uint16, match, mismatch []uint8) error {
	auxCover, err := sam.NewAux(TagCoverage, cover)
	if err != nil {
		return err
	}
	auxMatch, err := sam.NewAux(TagMatch, match)
	if err != nil {
		return err
	}
	auxMismatch, err := sam.NewAux(TagMismatch, mismatch)
	if err != nil {
		return err
	}
	esam.SetAux(read.Rec, auxCover)
	esam.SetAux(read.Rec, auxMatch)
	esam.SetAux(read.Rec, auxMismatch)
	read.Depth = cover
	return nil
}
