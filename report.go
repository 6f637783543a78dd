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
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	toolName    = "reject"
	toolVersion = "0.2.0"
)

// removedTrials returns the indices where the mask is false.
func removedTrials(mask []bool) []int {
	var out []int
	for i, ok := range mask {
		if !ok {
			out = append(out, i)
		}
	}
	return out
}

// removedLabels returns the labels where the mask is false.
func removedLabels(labels []string, mask []bool) []string {
	var out []string
	for i, ok := range mask {
		if !ok {
			out = append(out, labels[i])
		}
	}
	return out
}

// reportSelection logs, for trials and channels independently, how many were
// kept and which were removed.
func reportSelection(log *slog.Logger, labels []string, channels, trials []bool) {
	badTrials := removedTrials(trials)
	log.Info("trial selection",
		slog.Int("kept", len(trials)-len(badTrials)),
		slog.Int("removed", len(badTrials)))
	if len(badTrials) > 0 {
		log.Info("removed trials", slog.String("indices", joinInts(badTrials)))
	}

	badChans := removedLabels(labels, channels)
	log.Info("channel selection",
		slog.Int("kept", len(channels)-len(badChans)),
		slog.Int("removed", len(badChans)))
	if len(badChans) > 0 {
		log.Info("removed channels", slog.String("labels", strings.Join(badChans, ", ")))
	}
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}

// stampProvenance builds the provenance record for this pass, chaining any
// lineage the input dataset carried.
func stampProvenance(prev *Provenance, win Window, artifact [][2]int, kept Trl) *Provenance {
	return &Provenance{
		ID:       uuid.NewString(),
		Tool:     toolName,
		Version:  toolVersion,
		Latency:  win,
		Artifact: artifact,
		Trl:      kept,
		Previous: prev,
	}
}
