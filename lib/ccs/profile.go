//
// Copyright © 2024 Aaron M. Wenger
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package ccs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/adler32"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4"

	"github.com/amwenger/reviomisc/lib/rle"
)

type GenericWriter interface {
	Write(buf []byte) (n int, err error)
	Close() error
}

// WriteDepths writes the subread depth of every read of the store, in store
// order. Format is "bedgraph", "csv" or "binary", optionally followed by
// "+lz4", "+lz4hc" or "+gz" to compress the output.
func WriteDepths(store *Store, path string, format string) error {
	var zipFormat string
	if strings.Contains(format, "+") {
		doubleFormat := strings.Split(format, "+")
		format, zipFormat = doubleFormat[0], doubleFormat[1]
	}
	switch format {
	case "bedgraph", "binary", "csv":
	default:
		return fmt.Errorf("unknown depth format %s", format)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	var writer GenericWriter
	switch zipFormat {
	case "lz4":
		writer = lz4.NewWriter(f)
	case "lz4hc":
		lzWriter := lz4.NewWriter(f)
		lzWriter.Header = lz4.Header{CompressionLevel: 9}
		writer = lzWriter
	case "gz":
		writer = gzip.NewWriter(f)
	default:
		writer = f
	}
	switch format {
	case "bedgraph":
		for _, name := range store.Names {
			read := store.Reads[name]
			runs := read.Depth
			if len(runs) == 0 {
				runs = rle.AppendRun(nil, read.Length, 0)
			}
			// Merge runs split at the encoding limit
			var pos int
			for i := 0; i+1 < len(runs); {
				length := int(runs[i])
				depth := runs[i+1]
				j := i + 2
				for j+1 < len(runs) && runs[j+1] == depth {
					length += int(runs[j])
					j += 2
				}
				if depth != 0 {
					fmt.Fprintf(writer, "%s\t%d\t%d\t%d\n", name, pos, pos+length, depth)
				}
				pos += length
				i = j
			}
		}
	case "binary":
		// Version
		var version uint8
		version = 1
		binary.Write(writer, binary.LittleEndian, version)
		// Read and total lengths
		var totalLength, l uint32
		bufChecksum := new(bytes.Buffer)
		for _, name := range store.Names {
			l = uint32(store.Reads[name].Length)
			if err := binary.Write(bufChecksum, binary.LittleEndian, l); err != nil {
				return err
			}
			totalLength += l
		}
		// Write total length
		binary.Write(writer, binary.LittleEndian, totalLength)
		// Checksum
		checksum := adler32.Checksum(bufChecksum.Bytes())
		if err := binary.Write(writer, binary.LittleEndian, checksum); err != nil {
			return err
		}
		// Write depths
		for _, name := range store.Names {
			read := store.Reads[name]
			depths := rle.Expand(read.Depth)
			if len(depths) != read.Length {
				depths = make([]uint16, read.Length)
			}
			if err := binary.Write(writer, binary.LittleEndian, depths); err != nil {
				return err
			}
		}
	case "csv":
		for _, name := range store.Names {
			read := store.Reads[name]
			depths := rle.Expand(read.Depth)
			if len(depths) != read.Length {
				depths = make([]uint16, read.Length)
			}
			fdepth := fmt.Sprintf("%v", depths)
			fmt.Fprintf(writer, "%s,%d,%s\n", name, len(depths), fdepth[1:len(fdepth)-1])
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}
	f.Close()
	return nil
}
