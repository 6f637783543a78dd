// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package reject marks trials and channels of a multi-trial recording as
// good or bad and rebuilds the dataset and its interval bookkeeping to match
// that selection.
//
// A pass resolves a latency window common to all trials, optionally rescales
// channel groups for comparable display, hands the (scaled) data to a
// selection strategy which returns boolean keep-masks over channels and
// trials, and finally reconciles those masks against the original data and
// the caller's interval table.
package reject

import (
	"fmt"
	"log/slog"
)

// Result is the outcome of a rejection pass.
type Result struct {
	Dataset *Dataset // Filtered dataset
	Options Options  // Options as updated by the strategy, latency resolved
	Window  Window   // Resolved latency window

	Artifact [][2]int // Sample spans of rejected trials, empty without an interval table
	Trl      Trl      // Interval rows of retained trials, empty without an interval table

	RemovedTrials   []int    // Indices of rejected trials, in selection order
	RemovedChannels []string // Labels of rejected channels

	Provenance *Provenance
}

// Reject runs one selection pass over the dataset. trl is the optional
// interval table of the recording, one row per trial in original order; nil
// degrades the artifact bookkeeping to empty tables with a warning. The
// strategies bundle supplies the collaborator for each selection method;
// DefaultStrategies is a reasonable starting point.
//
// The input dataset is never modified; the result carries a new one.
func Reject(ds *Dataset, trl Trl, opts Options, strategies Strategies) (*Result, error) {
	if ds == nil {
		return nil, fmt.Errorf("nil dataset")
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}

	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	log := opts.Logger

	// Channel and trial subsets shrink the working set before the window
	// is resolved. The subset indices are remembered so the interval
	// table can be reduced to match.
	working := ds
	if opts.Channel != nil {
		var err error
		working, err = subsetChannels(working, opts.Channel)
		if err != nil {
			return nil, err
		}
	}
	var subset []int
	if opts.Trials != nil {
		var err error
		working, subset, err = subsetTrials(working, opts.Trials)
		if err != nil {
			return nil, err
		}
	}

	win, err := ResolveLatency(working.Time, opts.Latency)
	if err != nil {
		return nil, err
	}
	// Strategies see the resolved window through the options.
	opts.Latency = LatencyWindow(win.Begin, win.End)

	// Selection runs on a scaled copy when group scaling is configured;
	// the reconciliation below always uses the unscaled working set.
	display := working
	if scales := opts.groupScales(); len(scales) > 0 {
		scaled, applied := ScaleGroups(working, scales, opts.Classifier)
		display = scaled
		if applied {
			log.Info("channel-group scaling applied for display", slog.Int("groups", len(scales)))
		}
	}

	strat, err := strategies.forMethod(opts.Method)
	if err != nil {
		return nil, err
	}
	if opts.Method == MethodSummary {
		log.Info("selecting", slog.String("method", string(opts.Method)), slog.String("metric", string(opts.Metric)))
	} else {
		log.Info("selecting", slog.String("method", string(opts.Method)))
	}

	channels, trials, updated, err := strat.Select(opts, display)
	if err != nil {
		return nil, fmt.Errorf("%s selection failed: %w", opts.Method, err)
	}
	if channels == nil {
		channels = allTrue(len(working.Labels))
	}
	if trials == nil {
		trials = allTrue(len(working.Trials))
	}

	if trl == nil {
		log.Warn("no interval table supplied; artifact bookkeeping will be empty")
	}
	out, artifact, kept, err := Reconcile(working, trl, subset, channels, trials, updated.KeepChannel)
	if err != nil {
		return nil, err
	}

	reportSelection(log, working.Labels, channels, trials)

	out.Provenance = stampProvenance(ds.Provenance, win, artifact, kept)
	return &Result{
		Dataset:         out,
		Options:         updated,
		Window:          win,
		Artifact:        artifact,
		Trl:             kept,
		RemovedTrials:   removedTrials(trials),
		RemovedChannels: removedLabels(working.Labels, channels),
		Provenance:      out.Provenance,
	}, nil
}

// subsetChannels returns a dataset restricted to the given labels, keeping
// the original row order. Unknown labels are a configuration error.
func subsetChannels(ds *Dataset, labels []string) (*Dataset, error) {
	have := make(map[string]bool, len(ds.Labels))
	for _, l := range ds.Labels {
		have[l] = true
	}
	for _, l := range labels {
		if !have[l] {
			return nil, fmt.Errorf("unknown channel %q", l)
		}
	}

	rows := labelIndices(ds.Labels, labels)
	out := &Dataset{
		FSample:    ds.FSample,
		Offsets:    ds.Offsets,
		Provenance: ds.Provenance,
		Time:       ds.Time,
	}
	for _, r := range rows {
		out.Labels = append(out.Labels, ds.Labels[r])
	}
	for _, trial := range ds.Trials {
		sub := make([][]float64, 0, len(rows))
		for _, r := range rows {
			sub = append(sub, trial[r])
		}
		out.Trials = append(out.Trials, sub)
	}
	return out, nil
}

// subsetTrials returns a dataset restricted to the given trial indices, in
// the given order, along with the indices themselves.
func subsetTrials(ds *Dataset, idx []int) (*Dataset, []int, error) {
	out := &Dataset{
		Labels:     ds.Labels,
		FSample:    ds.FSample,
		Provenance: ds.Provenance,
	}
	for _, i := range idx {
		if i < 0 || i >= len(ds.Trials) {
			return nil, nil, fmt.Errorf("trial index %d outside dataset of %d trials", i, len(ds.Trials))
		}
		out.Time = append(out.Time, ds.Time[i])
		out.Trials = append(out.Trials, ds.Trials[i])
	}
	return out, append([]int(nil), idx...), nil
}
