//
// Copyright © 2024 Aaron M. Wenger
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type Report struct {
	NRead         uint64  `json:"n_read"`
	NReadAligned  uint64  `json:"n_read_aligned"`
	NAlign        uint64  `json:"n_align"`
	NAlignSkipped uint64  `json:"n_align_skipped"`
	DepthMean     float64 `json:"depth_mean"`
	DepthMedian   float64 `json:"depth_median"`
	Concordance   float64 `json:"concordance"`
}

// depthStats returns the mean and median subread depth per consensus base.
// depthHist counts consensus bases per depth, indexed by depth.
func depthStats(depthHist []float64) (mean, median float64) {
	if len(depthHist) == 0 || floats.Sum(depthHist) == 0. {
		return 0., 0.
	}
	depths := make([]float64, len(depthHist))
	for i := range depths {
		depths[i] = float64(i)
	}
	mean = stat.Mean(depths, depthHist)
	median = stat.Quantile(0.5, stat.Empirical, depths, depthHist)
	return mean, median
}

func WriteReport(pathReport string, report Report) error {
	reportJSON, _ := json.MarshalIndent(report, "", "  ")
	if pathReport != "-" {
		if f, err := os.Create(pathReport); err != nil {
			return err
		} else {
			f.Write(reportJSON)
			f.Close()
		}
	} else {
		fmt.Println(string(reportJSON))
	}
	return nil
}

// PlotDepth prints a histogram of consensus base counts per subread depth.
func PlotDepth(w io.Writer, depthHist []float64) {
	n := len(depthHist)
	for n > 1 && depthHist[n-1] == 0. {
		n--
	}
	if n == 0 {
		return
	}
	fmt.Fprintln(w, asciigraph.Plot(depthHist[:n],
		asciigraph.Height(10),
		asciigraph.Precision(0),
		asciigraph.Caption("Consensus bases per subread depth")))
}
