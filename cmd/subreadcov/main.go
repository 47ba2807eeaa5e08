//
// Copyright © 2024 Aaron M. Wenger
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/amwenger/reviomisc/lib/esam"
)

var version = "DEV"

func main() {
	// Arguments: General
	var pathReport string
	var nWorker, verboseLevel int
	var verbose, printVersion bool
	flag.StringVar(&pathReport, "path_report", "", "Write JSON report to path (stdout with -)")
	flag.IntVar(&nWorker, "num_worker", 1, "Number of worker(s)")
	flag.IntVar(&verboseLevel, "verbose_level", 0, "Verbose level")
	flag.BoolVar(&verbose, "verbose", false, "Verbose")
	flag.BoolVar(&printVersion, "version", false, "Print version and quit")
	// Arguments: Input
	var pathCCSRaw, pathAlnRaw, rawSAMCmdIn string
	flag.StringVar(&pathCCSRaw, "path_ccs", "", "Path to consensus reads SAM/BAM file")
	flag.StringVar(&pathAlnRaw, "path_aln", "", "Path to subread alignments SAM/BAM file, grouped by consensus read")
	flag.StringVar(&rawSAMCmdIn, "sam_command_in", "", "Command line to execute for opening each SAM file (comma separated)")
	// Arguments: Alignment selection
	var minMappingQualityRaw int
	flag.IntVar(&minMappingQualityRaw, "min_mapping_quality", 0, "Minimum alignment mapping quality")
	// Arguments: Output
	var pathOutRaw, pathDepth, depthFormat string
	var allReads, plot bool
	flag.StringVar(&pathOutRaw, "path_out", "-", "Path to tagged SAM/BAM output (SAM on stdout with -)")
	flag.StringVar(&pathDepth, "path_depth", "", "Path to depth profile output")
	flag.StringVar(&depthFormat, "depth_format", "bedgraph", "Depth output format: 'bedgraph', 'binary' or 'csv', optionally compressed with '+lz4', '+lz4hc' or '+gz'")
	flag.BoolVar(&allReads, "all_reads", false, "Also output consensus reads without any subread alignment, tagged with zero support")
	flag.BoolVar(&plot, "plot", false, "Print depth histogram to standard error")
	// Arguments: Parse
	flag.Parse()

	// Version
	if printVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Verbose
	if verbose && verboseLevel == 0 {
		verboseLevel = 1
	}

	// Max CPU
	runtime.GOMAXPROCS(nWorker * 2)

	// Time start
	var timeStart time.Time
	if verboseLevel > 0 {
		timeStart = time.Now()
	}

	// Check arguments
	if len(pathCCSRaw) == 0 {
		log.Fatal("No consensus reads input")
	} else if _, err := os.Stat(pathCCSRaw); os.IsNotExist(err) {
		log.Fatalln(pathCCSRaw, "not found")
	}
	if len(pathAlnRaw) == 0 {
		log.Fatal("No alignment input")
	} else if _, err := os.Stat(pathAlnRaw); os.IsNotExist(err) {
		log.Fatalln(pathAlnRaw, "not found")
	}

	// Parse raw arguments
	pathCCS := esam.NewPathSAM(pathCCSRaw)
	pathAln := esam.NewPathSAM(pathAlnRaw)
	pathOut := esam.NewPathSAM(pathOutRaw)
	var SAMCmdIn []string
	if len(rawSAMCmdIn) > 0 {
		SAMCmdIn = strings.Split(rawSAMCmdIn, ",")
	}
	// minMappingQuality
	var minMappingQuality byte
	minMappingQuality = byte(minMappingQualityRaw)

	// Annotate consensus reads with subread support
	nAlign, err := AnnotateCCS(pathCCS, pathAln, SAMCmdIn, minMappingQuality, pathOut, pathDepth, depthFormat, allReads, pathReport, plot, nWorker, timeStart, verboseLevel)
	if err != nil {
		log.Fatal(err)
	}

	// Verbose
	if verboseLevel > 0 {
		timeEnd := time.Now()
		fmt.Fprintf(os.Stderr, "%.1fmin - Done %d align.\n", timeEnd.Sub(timeStart).Minutes(), nAlign)
	}
}
