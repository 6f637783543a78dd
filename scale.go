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
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Classifier maps a channel-group name to the channel labels belonging to
// that group.
type Classifier interface {
	Channels(group string, labels []string) []string
}

// PrefixClassifier classifies channels by label prefix, following the EDF
// labelling convention ("EEG Fpz-Cz", "EOG horizontal", ...). Matching is
// case-insensitive.
type PrefixClassifier struct{}

// Channels returns the labels whose prefix matches the group name.
func (PrefixClassifier) Channels(group string, labels []string) []string {
	var out []string
	for _, label := range labels {
		if strings.HasPrefix(strings.ToLower(label), strings.ToLower(group)) {
			out = append(out, label)
		}
	}
	return out
}

// GroupScale is one channel-group scale factor.
type GroupScale struct {
	Group  string
	Factor float64
}

// ScaleGroups returns a copy of the dataset with each group's channels
// multiplied by its factor, across every trial. Groups are applied
// sequentially in the given order, so a channel in two groups is scaled by
// both factors. A group resolving to no channels is a no-op. The input
// dataset is never modified. The second return reports whether any scaling
// was actually applied.
func ScaleGroups(ds *Dataset, scales []GroupScale, c Classifier) (*Dataset, bool) {
	out := ds.Copy()
	applied := false
	for _, gs := range scales {
		if gs.Factor == 0 {
			continue
		}
		rows := labelIndices(out.Labels, c.Channels(gs.Group, out.Labels))
		if len(rows) == 0 {
			continue
		}
		for _, trial := range out.Trials {
			for _, r := range rows {
				floats.Scale(gs.Factor, trial[r])
			}
		}
		applied = true
	}
	return out, applied
}

// labelIndices maps channel labels to their row indices, preserving row
// order. Labels not present are skipped.
func labelIndices(labels, subset []string) []int {
	want := make(map[string]bool, len(subset))
	for _, l := range subset {
		want[l] = true
	}
	var rows []int
	for i, l := range labels {
		if want[l] {
			rows = append(rows, i)
		}
	}
	return rows
}
