//
// Copyright © 2024 Aaron M. Wenger
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package esam

import (
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
)

// PathSAM stores Path to SAM (Binary=false) or BAM (Binary=true) file.
type PathSAM struct {
	Path   string
	Binary bool
}

// NewPathSAM detects the file format from the path extension.
func NewPathSAM(path string) PathSAM {
	return PathSAM{Path: path, Binary: strings.HasSuffix(path, ".bam")}
}

// Reader reads records from a SAM or BAM file, or from the standard output
// of an external command reading the file.
type Reader struct {
	rr sam.RecordReader
	f  *os.File
	pp io.ReadCloser
}

// NewReader opens pathSAM for reading. For SAM input with a non-empty cmd,
// the command is started with the path appended as last argument and records
// are parsed from its standard output. nWorker sets the number of BAM
// decompression goroutine(s).
func NewReader(pathSAM PathSAM, cmd []string, nWorker int) (*Reader, error) {
	var r Reader
	var err error
	if pathSAM.Binary {
		r.f, err = os.Open(pathSAM.Path)
		if err != nil {
			return nil, err
		}
		r.rr, err = bam.NewReader(r.f, nWorker)
		if err != nil {
			r.f.Close()
			return nil, err
		}
	} else if len(cmd) == 0 {
		r.f, err = os.Open(pathSAM.Path)
		if err != nil {
			return nil, err
		}
		r.rr, err = sam.NewReader(r.f)
		if err != nil {
			r.f.Close()
			return nil, err
		}
	} else {
		cmd = append(cmd, pathSAM.Path)
		p := exec.Command(cmd[0], cmd[1:]...)
		if r.pp, err = p.StdoutPipe(); err != nil {
			return nil, err
		}
		if err = p.Start(); err != nil {
			return nil, err
		}
		r.rr, err = sam.NewReader(r.pp)
		if err != nil {
			r.pp.Close()
			return nil, err
		}
	}
	return &r, nil
}

// Header returns the SAM header.
func (r *Reader) Header() *sam.Header {
	switch rr := r.rr.(type) {
	case *bam.Reader:
		return rr.Header()
	case *sam.Reader:
		return rr.Header()
	}
	return nil
}

// Read returns the next record.
func (r *Reader) Read() (*sam.Record, error) {
	return r.rr.Read()
}

// Close closes the underlying file or pipe.
func (r *Reader) Close() error {
	var err error
	if br, ok := r.rr.(*bam.Reader); ok {
		err = br.Close()
	}
	if r.pp != nil {
		if errp := r.pp.Close(); err == nil {
			err = errp
		}
	}
	if r.f != nil {
		if errf := r.f.Close(); err == nil {
			err = errf
		}
	}
	return err
}

// Writer writes records to a SAM or BAM file. A path of "-" writes SAM to
// the standard output.
type Writer struct {
	f  *os.File
	bw *bam.Writer
	sw *sam.Writer
}

// NewWriter opens pathSAM for writing records under header. nWorker sets the
// number of BAM compression goroutine(s).
func NewWriter(pathSAM PathSAM, header *sam.Header, nWorker int) (*Writer, error) {
	var w Writer
	var err error
	out := os.Stdout
	if pathSAM.Path != "-" {
		out, err = os.Create(pathSAM.Path)
		if err != nil {
			return nil, err
		}
		w.f = out
	}
	if pathSAM.Binary {
		w.bw, err = bam.NewWriter(out, header, nWorker)
	} else {
		w.sw, err = sam.NewWriter(out, header, sam.FlagDecimal)
	}
	if err != nil {
		if w.f != nil {
			w.f.Close()
		}
		return nil, err
	}
	return &w, nil
}

// Write writes r.
func (w *Writer) Write(r *sam.Record) error {
	if w.bw != nil {
		return w.bw.Write(r)
	}
	return w.sw.Write(r)
}

// Close flushes and closes the output.
func (w *Writer) Close() error {
	var err error
	if w.bw != nil {
		err = w.bw.Close()
	}
	if w.f != nil {
		if errf := w.f.Close(); err == nil {
			err = errf
		}
	}
	return err
}
