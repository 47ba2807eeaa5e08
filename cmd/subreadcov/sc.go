//
// Copyright © 2024 Aaron M. Wenger
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/amwenger/reviomisc/lib/ccs"
	"github.com/amwenger/reviomisc/lib/esam"
	"github.com/amwenger/reviomisc/lib/pileup"

	"github.com/biogo/hts/sam"
	"golang.org/x/sync/errgroup"
)

// Packet carries one annotated consensus read from a worker to the writer.
type Packet struct {
	Seq       uint64
	Read      *ccs.Read
	NAln      int
	NMatch    uint64
	NMismatch uint64
}

// AddCommas adds commas after every 3 characters.
func AddCommas(s string) string {
	if len(s) <= 3 {
		return s
	} else {
		return AddCommas(s[0:len(s)-3]) + "," + s[len(s)-3:]
	}
}

// AnnotateCCS tags each consensus read with its subread support computed
// from the alignment stream, writing reads in group order.
func AnnotateCCS(pathCCS, pathAln esam.PathSAM, SAMCmdIn []string, minMappingQuality byte, pathOut esam.PathSAM, pathDepth, depthFormat string, allReads bool, pathReport string, plot bool, nWorker int, timeStart time.Time, verboseLevel int) (nAlign uint64, err error) {
	// Workers
	nWorker1 := max(1, nWorker/2)
	nWorker2 := max(1, nWorker-nWorker1)

	// Load consensus reads
	if verboseLevel > 0 {
		timeNow := time.Now()
		fmt.Fprintf(os.Stderr, "%.1fmin - Loading consensus reads from %s\n", timeNow.Sub(timeStart).Minutes(), pathCCS.Path)
	}
	store, err := ccs.LoadStore(pathCCS, SAMCmdIn, nWorker1)
	if err != nil {
		return nAlign, err
	}
	if verboseLevel > 0 {
		timeNow := time.Now()
		fmt.Fprintf(os.Stderr, "%.1fmin - %s consensus read(s) loaded\n", timeNow.Sub(timeStart).Minutes(), AddCommas(strconv.Itoa(len(store.Names))))
	}

	// Open output SAM
	samWriter, err := esam.NewWriter(pathOut, store.Header, nWorker1)
	if err != nil {
		return nAlign, err
	}

	// Init. group merger
	merger := pileup.NewMerger(store)

	// Init. skipped alignment counter
	var nSkip uint64

	// Start sync errgroup
	g, gctx := errgroup.WithContext(context.Background())

	// Start group channel
	chGroup := make(chan *pileup.Group, nWorker*10)
	// Start receiving channel
	chFinal := make(chan *Packet, nWorker*10)

	g.Go(func() error {
		defer close(chGroup)
		timeLog := time.Now()
		if verboseLevel > 0 {
			timeNow := time.Now()
			fmt.Fprintf(os.Stderr, "%.1fmin - Opening %s\n", timeNow.Sub(timeStart).Minutes(), pathAln.Path)
		}
		// Open SAM
		samReader, err := esam.NewReader(pathAln, SAMCmdIn, nWorker1)
		if err != nil {
			return err
		}
		defer samReader.Close()
		// Parse SAM
		for {
			aread, err := samReader.Read()
			if err == io.EOF {
				break
			} else if err != nil {
				return err
			}
			// Ignore unmapped read(s) and secondary/supplementary alignment(s)
			if aread.Flags&sam.Unmapped != 0 || aread.Flags&sam.Secondary != 0 || aread.Flags&sam.Supplementary != 0 {
				nSkip++
				continue
			}
			// Minimum mapping quality
			if minMappingQuality > 0 && aread.MapQ < minMappingQuality {
				nSkip++
				continue
			}
			group, err := merger.Feed(aread)
			if err != nil {
				return err
			}
			if group != nil {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case chGroup <- group:
				}
			}
			nAlign++

			if verboseLevel > 0 {
				timeNow := time.Now()
				if timeNow.Sub(timeLog).Minutes() > 1. {
					fmt.Fprintf(os.Stderr, "%.1fmin - %s align. - %.2f Ma/hr\n", timeNow.Sub(timeStart).Minutes(), AddCommas(strconv.FormatUint(nAlign, 10)), (float64(nAlign)/timeNow.Sub(timeStart).Hours())/1000000.)
					timeLog = timeNow
				}
			}
		}
		// Close the last group
		if group := merger.Finish(); group != nil {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case chGroup <- group:
			}
		}
		// Send consensus reads without any alignment
		if allReads {
			for _, group := range merger.Remaining() {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case chGroup <- group:
				}
			}
		}
		return nil
	})

	// Spawn worker goroutine(s)
	g.Go(func() error {
		defer close(chFinal)
		// Start worker(s)
		wg, wgctx := errgroup.WithContext(gctx)
		for i := 0; i < nWorker2; i++ {
			wg.Go(func() error {
				// Loop over data
				for group := range chGroup {
					cover, match, mismatch, err := pileup.Annotate(group.Read.Name, group.Read.Length, group.Alns)
					if err != nil {
						return err
					}
					if err := ccs.Attach(group.Read, cover, match, mismatch); err != nil {
						return err
					}
					p := &Packet{Seq: group.Seq, Read: group.Read, NAln: len(group.Alns)}
					for _, n := range match {
						p.NMatch += uint64(n)
					}
					for _, n := range mismatch {
						p.NMismatch += uint64(n)
					}
					select {
					case <-wgctx.Done():
						return wgctx.Err()
					case chFinal <- p:
					}
				}
				return nil
			})
		}
		// Wait for the workers to finish
		err := wg.Wait()
		if err != nil {
			return err
		}
		return nil
	})

	// Write annotated reads in group order
	var writeErr error
	var nReadAligned, nMatchTotal, nMismatchTotal uint64
	var depthHist []float64
	pending := make(map[uint64]*Packet)
	var iNext uint64
	for p := range chFinal {
		pending[p.Seq] = p
		for {
			q, found := pending[iNext]
			if !found {
				break
			}
			delete(pending, iNext)
			iNext++
			if q.NAln > 0 {
				nReadAligned++
			}
			nMatchTotal += q.NMatch
			nMismatchTotal += q.NMismatch
			for i := 0; i+1 < len(q.Read.Depth); i += 2 {
				d := int(q.Read.Depth[i+1])
				for len(depthHist) <= d {
					depthHist = append(depthHist, 0.)
				}
				depthHist[d] += float64(q.Read.Depth[i])
			}
			if writeErr == nil {
				writeErr = samWriter.Write(q.Read.Rec)
			}
		}
	}

	err = g.Wait()
	if err != nil {
		return nAlign, err
	}
	if writeErr != nil {
		return nAlign, writeErr
	}
	err = samWriter.Close()
	if err != nil {
		return nAlign, err
	}

	// Output: Report
	if pathReport != "" {
		report := Report{
			NRead:         uint64(len(store.Names)),
			NReadAligned:  nReadAligned,
			NAlign:        nAlign,
			NAlignSkipped: nSkip,
		}
		report.DepthMean, report.DepthMedian = depthStats(depthHist)
		if nMatchTotal+nMismatchTotal > 0 {
			report.Concordance = float64(nMatchTotal) / float64(nMatchTotal+nMismatchTotal)
		}
		err = WriteReport(pathReport, report)
		if err != nil {
			return nAlign, err
		}
	}
	// Output: Depth histogram
	if plot {
		PlotDepth(os.Stderr, depthHist)
	}
	// Output: Depth profile(s)
	if pathDepth != "" {
		if verboseLevel > 0 {
			timeNow := time.Now()
			fmt.Fprintf(os.Stderr, "%.1fmin - Writing %s depth profile(s) to %s\n", timeNow.Sub(timeStart).Minutes(), depthFormat, pathDepth)
		}
		err = ccs.WriteDepths(store, pathDepth, depthFormat)
		if err != nil {
			return nAlign, err
		}
	}

	return nAlign, nil
}
