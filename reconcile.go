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
)

// Reconcile applies the selection masks to the original (unscaled) dataset
// and derives the interval bookkeeping.
//
// trl, when present, has one row per trial of the pre-subset recording;
// subset is the trial index subset applied before selection (nil if none),
// used to reduce trl so its rows line up 1:1 with ds.Trials. Rows of bad
// trials become the artifact table (begin/end columns only); rows of good
// trials are returned unchanged as the retained-interval table. A nil trl
// yields empty tables.
//
// Masks are true = keep; a nil mask keeps everything. The returned dataset
// is a new object: trials are filtered in order, the channel mask is applied
// under the keep policy, and legacy per-trial offset metadata is dropped.
func Reconcile(ds *Dataset, trl Trl, subset []int, channels, trials []bool, keep KeepChannel) (*Dataset, [][2]int, Trl, error) {
	if channels == nil {
		channels = allTrue(len(ds.Labels))
	}
	if trials == nil {
		trials = allTrue(len(ds.Trials))
	}
	if len(channels) != len(ds.Labels) {
		return nil, nil, nil, fmt.Errorf("channel mask has %d entries, expected %d", len(channels), len(ds.Labels))
	}
	if len(trials) != len(ds.Trials) {
		return nil, nil, nil, fmt.Errorf("trial mask has %d entries, expected %d", len(trials), len(ds.Trials))
	}

	artifact := [][2]int{}
	kept := Trl{}
	if trl != nil {
		rows := trl
		if subset != nil {
			rows = make(Trl, 0, len(subset))
			for _, idx := range subset {
				if idx < 0 || idx >= len(trl) {
					return nil, nil, nil, fmt.Errorf("trial subset index %d outside interval table of %d rows", idx, len(trl))
				}
				rows = append(rows, trl[idx])
			}
		}
		if len(rows) != len(trials) {
			return nil, nil, nil, fmt.Errorf("interval table has %d rows, expected %d", len(rows), len(trials))
		}
		for i, row := range rows {
			if len(row) < 2 {
				return nil, nil, nil, fmt.Errorf("interval table row %d has %d columns, need at least 2", i, len(row))
			}
			if trials[i] {
				kept = append(kept, row)
			} else {
				artifact = append(artifact, [2]int{row[0], row[1]})
			}
		}
	}

	out := &Dataset{
		Labels:  append([]string(nil), ds.Labels...),
		FSample: ds.FSample,
		// Offsets intentionally not carried over.
	}
	for i := range ds.Trials {
		if !trials[i] {
			continue
		}
		out.Time = append(out.Time, ds.Time[i])
		out.Trials = append(out.Trials, ds.Trials[i])
	}

	if !all(channels) {
		switch keep {
		case KeepChannelNo:
			labels := make([]string, 0, len(ds.Labels))
			for i, ok := range channels {
				if ok {
					labels = append(labels, ds.Labels[i])
				}
			}
			out.Labels = labels
			for t, trial := range out.Trials {
				rows := make([][]float64, 0, len(labels))
				for i, ok := range channels {
					if ok {
						rows = append(rows, trial[i])
					}
				}
				out.Trials[t] = rows
			}
		case KeepChannelNaN:
			for t, trial := range out.Trials {
				rows := make([][]float64, len(trial))
				copy(rows, trial)
				for i, ok := range channels {
					if !ok {
						nan := make([]float64, len(trial[i]))
						for s := range nan {
							nan[s] = math.NaN()
						}
						rows[i] = nan
					}
				}
				out.Trials[t] = rows
			}
		case KeepChannelYes:
			// All channels retained unchanged.
		default:
			return nil, nil, nil, fmt.Errorf("unknown keepchannel policy %q", keep)
		}
	}

	return out, artifact, kept, nil
}

func allTrue(n int) []bool {
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	return mask
}

func all(mask []bool) bool {
	for _, ok := range mask {
		if !ok {
			return false
		}
	}
	return true
}
