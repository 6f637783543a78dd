// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package reject

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// DefaultCutoff is the robust z-score above which ThresholdSummary marks a
// trial or channel as bad.
const DefaultCutoff = 4.0

// ThresholdSummary is the non-interactive summary strategy: it computes the
// configured metric for every channel x trial cell over the latency window,
// collapses the matrix to per-trial and per-channel levels, and deselects
// entries whose level deviates from the median by more than Cutoff robust
// standard deviations.
type ThresholdSummary struct {
	Cutoff float64 // 0 means Options.Cutoff, falling back to DefaultCutoff
}

// Select implements Strategy.
func (t ThresholdSummary) Select(opts Options, ds *Dataset) ([]bool, []bool, Options, error) {
	cutoff := t.Cutoff
	if cutoff == 0 {
		cutoff = opts.Cutoff
	}
	if cutoff == 0 {
		cutoff = DefaultCutoff
	}

	win := Window{Begin: opts.Latency.Begin, End: opts.Latency.End}
	m, err := MetricMatrix(ds, win, opts.Metric)
	if err != nil {
		return nil, nil, opts, err
	}

	// Collapse the matrix: a trial's level is its worst channel, a
	// channel's level is its worst trial.
	nchan, ntrial := len(ds.Labels), len(ds.Trials)
	trialLevel := make([]float64, ntrial)
	chanLevel := make([]float64, nchan)
	for j := range trialLevel {
		trialLevel[j] = math.Inf(-1)
	}
	for i := 0; i < nchan; i++ {
		chanLevel[i] = math.Inf(-1)
		for j := 0; j < ntrial; j++ {
			trialLevel[j] = max64(trialLevel[j], m[i][j])
			chanLevel[i] = max64(chanLevel[i], m[i][j])
		}
	}

	trials, err := thresholdMask(trialLevel, cutoff)
	if err != nil {
		return nil, nil, opts, err
	}
	channels, err := thresholdMask(chanLevel, cutoff)
	if err != nil {
		return nil, nil, opts, err
	}
	return channels, trials, opts, nil
}

// MetricMatrix evaluates the metric for every channel x trial cell over the
// samples inside the latency window.
func MetricMatrix(ds *Dataset, win Window, metric Metric) ([][]float64, error) {
	m := make([][]float64, len(ds.Labels))
	for i := range m {
		m[i] = make([]float64, len(ds.Trials))
	}
	for j, trial := range ds.Trials {
		lo, hi := windowBounds(ds.Time[j], win)
		if lo >= hi {
			return nil, fmt.Errorf("trial %d has no samples in latency window [%g, %g]", j, win.Begin, win.End)
		}
		for i, row := range trial {
			v, err := metricValue(row[lo:hi], metric)
			if err != nil {
				return nil, fmt.Errorf("error computing %s for channel %d trial %d: %w", metric, i, j, err)
			}
			m[i][j] = v
		}
	}
	return m, nil
}

// windowBounds returns the half-open sample range [lo, hi) whose timestamps
// fall inside the window. Time vectors are ordered.
func windowBounds(time []float64, win Window) (int, int) {
	lo := 0
	for lo < len(time) && time[lo] < win.Begin {
		lo++
	}
	hi := len(time)
	for hi > lo && time[hi-1] > win.End {
		hi--
	}
	return lo, hi
}

func metricValue(x []float64, metric Metric) (float64, error) {
	switch metric {
	case MetricVar:
		return stats.Variance(x)
	case MetricMin:
		return stats.Min(x)
	case MetricMax:
		return stats.Max(x)
	case MetricMaxAbs:
		m := 0.0
		for _, v := range x {
			if a := math.Abs(v); a > m {
				m = a
			}
		}
		return m, nil
	case MetricRange:
		lo, err := stats.Min(x)
		if err != nil {
			return 0, err
		}
		hi, err := stats.Max(x)
		if err != nil {
			return 0, err
		}
		return hi - lo, nil
	case MetricKurtosis:
		return stat.ExKurtosis(x, nil) + 3, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
}

// thresholdMask marks levels whose robust z-score exceeds the cutoff as
// false. If the median absolute deviation is zero the levels are
// indistinguishable and everything stays selected.
func thresholdMask(levels []float64, cutoff float64) ([]bool, error) {
	mask := make([]bool, len(levels))
	for i := range mask {
		mask[i] = true
	}
	if len(levels) == 0 {
		return mask, nil
	}

	med, err := stats.Median(levels)
	if err != nil {
		return nil, err
	}
	dev := make([]float64, len(levels))
	for i, v := range levels {
		dev[i] = math.Abs(v - med)
	}
	mad, err := stats.Median(dev)
	if err != nil {
		return nil, err
	}
	if mad == 0 {
		return mask, nil
	}

	// 1.4826 scales the MAD to a normal-consistent standard deviation.
	sigma := 1.4826 * mad
	for i, v := range levels {
		if math.Abs(v-med)/sigma > cutoff {
			mask[i] = false
		}
	}
	return mask, nil
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
