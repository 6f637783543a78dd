// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package reject

import "fmt"

// Dataset holds a multi-trial, multi-channel recording. Every trial carries
// its own time vector and a channels x samples matrix aligned to it; all
// trials share the same ordered channel labels.
type Dataset struct {
	Labels  []string      // Channel labels, one per matrix row, unique
	Time    [][]float64   // Per-trial time vectors in seconds
	Trials  [][][]float64 // Per-trial sample matrices, channels x samples
	FSample float64       // Sampling rate in Hz, 0 if unknown

	// Offsets is per-trial offset metadata carried by old-format datasets.
	// It has no defined meaning once trials are filtered and is never
	// propagated into an output dataset.
	Offsets []int

	// Provenance of the processing step that produced this dataset, if any.
	Provenance *Provenance
}

// Trl is an interval table: one row per trial in original trial order, each
// row [beginSample, endSample, ...extra] locating the trial in its parent
// continuous recording.
type Trl [][]int

// Window is a latency window in seconds.
type Window struct {
	Begin float64
	End   float64
}

// Provenance records what a rejection pass did to a dataset. Passes chain
// through Previous, oldest last.
type Provenance struct {
	ID       string   // Unique identifier of this pass
	Tool     string   // Producing tool name
	Version  string   // Producing tool version
	Latency  Window   // Latency window the selection was evaluated over
	Artifact [][2]int // Sample spans of rejected trials
	Trl      Trl      // Interval rows of retained trials
	Previous *Provenance
}

// Validate checks the structural invariants of the dataset: one time vector
// and one sample matrix per trial, one matrix row per channel label, and
// matrix columns aligned to the time vector.
func (d *Dataset) Validate() error {
	if len(d.Time) != len(d.Trials) {
		return fmt.Errorf("dataset has %d time vectors but %d trials", len(d.Time), len(d.Trials))
	}
	for i, trial := range d.Trials {
		if len(trial) != len(d.Labels) {
			return fmt.Errorf("trial %d has %d channels, expected %d", i, len(trial), len(d.Labels))
		}
		for j, row := range trial {
			if len(row) != len(d.Time[i]) {
				return fmt.Errorf("trial %d channel %d has %d samples, expected %d", i, j, len(row), len(d.Time[i]))
			}
		}
	}
	return nil
}

// Copy returns a deep copy of the dataset. The provenance chain is shared;
// everything else is freshly allocated.
func (d *Dataset) Copy() *Dataset {
	out := &Dataset{
		Labels:     append([]string(nil), d.Labels...),
		Time:       make([][]float64, len(d.Time)),
		Trials:     make([][][]float64, len(d.Trials)),
		FSample:    d.FSample,
		Offsets:    append([]int(nil), d.Offsets...),
		Provenance: d.Provenance,
	}
	for i, tv := range d.Time {
		out.Time[i] = append([]float64(nil), tv...)
	}
	for i, trial := range d.Trials {
		rows := make([][]float64, len(trial))
		for j, row := range trial {
			rows[j] = append([]float64(nil), row...)
		}
		out.Trials[i] = rows
	}
	return out
}
