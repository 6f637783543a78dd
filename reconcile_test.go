// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package reject_test

import (
	"math"
	"testing"

	"github.com/OpenPSG/reject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileIntervalPartition(t *testing.T) {
	ds := makeDataset([]string{"EEG Fpz-Cz", "EOG horizontal"}, 3, 10)
	trl := reject.Trl{{0, 99}, {100, 199}, {200, 299}}

	out, artifact, kept, err := reject.Reconcile(ds, trl, nil, nil, []bool{true, false, true}, reject.KeepChannelNo)
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{100, 199}}, artifact)
	assert.Equal(t, reject.Trl{{0, 99}, {200, 299}}, kept)
	assert.Len(t, out.Trials, 2)
}

func TestReconcileTrialFilter(t *testing.T) {
	ds := makeDataset([]string{"EEG Fpz-Cz"}, 4, 5)

	out, _, _, err := reject.Reconcile(ds, nil, nil, nil, []bool{false, true, false, true}, reject.KeepChannelNo)
	require.NoError(t, err)

	// Order preserved: trials 1 and 3 survive in that order.
	require.Len(t, out.Trials, 2)
	assert.Equal(t, ds.Trials[1], out.Trials[0])
	assert.Equal(t, ds.Trials[3], out.Trials[1])
	assert.Equal(t, ds.Time[1], out.Time[0])
}

func TestReconcileSubsetReduction(t *testing.T) {
	ds := makeDataset([]string{"EEG Fpz-Cz"}, 2, 5)
	trl := reject.Trl{{0, 9}, {10, 19}, {20, 29}, {30, 39}}

	// Trials 1 and 3 were selected earlier; the second of those is bad.
	out, artifact, kept, err := reject.Reconcile(ds, trl, []int{1, 3}, nil, []bool{true, false}, reject.KeepChannelNo)
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{30, 39}}, artifact)
	assert.Equal(t, reject.Trl{{10, 19}}, kept)
	assert.Len(t, out.Trials, 1)
}

func TestReconcileNoIntervalTable(t *testing.T) {
	ds := makeDataset([]string{"EEG Fpz-Cz"}, 3, 5)

	_, artifact, kept, err := reject.Reconcile(ds, nil, nil, nil, []bool{true, false, true}, reject.KeepChannelNo)
	require.NoError(t, err)
	assert.Empty(t, artifact)
	assert.Empty(t, kept)
}

func TestReconcileDropChannels(t *testing.T) {
	ds := makeDataset([]string{"EEG Fpz-Cz", "EOG horizontal", "EMG submental"}, 2, 5)

	out, _, _, err := reject.Reconcile(ds, nil, nil, []bool{true, false, true}, nil, reject.KeepChannelNo)
	require.NoError(t, err)

	assert.Equal(t, []string{"EEG Fpz-Cz", "EMG submental"}, out.Labels)
	for _, trial := range out.Trials {
		require.Len(t, trial, 2)
	}
	assert.Equal(t, ds.Trials[0][2], out.Trials[0][1])
}

func TestReconcileNaNChannels(t *testing.T) {
	ds := makeDataset([]string{"EEG Fpz-Cz", "EOG horizontal"}, 2, 5)

	out, _, _, err := reject.Reconcile(ds, nil, nil, []bool{true, false}, nil, reject.KeepChannelNaN)
	require.NoError(t, err)

	// Structure unchanged, bad channel NaN-filled in every trial.
	assert.Equal(t, ds.Labels, out.Labels)
	for ti, trial := range out.Trials {
		require.Len(t, trial, 2)
		for s, v := range trial[1] {
			assert.True(t, math.IsNaN(v), "trial %d sample %d", ti, s)
		}
		assert.Equal(t, ds.Trials[ti][0], trial[0])
	}

	// The input dataset keeps its original values.
	for s, v := range ds.Trials[0][1] {
		assert.False(t, math.IsNaN(v), "input sample %d", s)
	}
}

func TestReconcileKeepChannels(t *testing.T) {
	ds := makeDataset([]string{"EEG Fpz-Cz", "EOG horizontal"}, 2, 5)

	out, _, _, err := reject.Reconcile(ds, nil, nil, []bool{true, false}, nil, reject.KeepChannelYes)
	require.NoError(t, err)

	assert.Equal(t, ds.Labels, out.Labels)
	assert.Equal(t, ds.Trials, out.Trials)
}

func TestReconcileIdempotent(t *testing.T) {
	ds := makeDataset([]string{"EEG Fpz-Cz", "EOG horizontal"}, 3, 5)
	ds.Offsets = []int{-10, -10, -10}

	out, _, _, err := reject.Reconcile(ds, nil, nil, nil, nil, reject.KeepChannelNo)
	require.NoError(t, err)

	assert.Equal(t, ds.Labels, out.Labels)
	assert.Equal(t, ds.Time, out.Time)
	assert.Equal(t, ds.Trials, out.Trials)
	// Legacy offset metadata never propagates.
	assert.Nil(t, out.Offsets)
}

func TestReconcileMaskLengths(t *testing.T) {
	ds := makeDataset([]string{"EEG Fpz-Cz"}, 2, 5)

	_, _, _, err := reject.Reconcile(ds, nil, nil, []bool{true, true}, nil, reject.KeepChannelNo)
	require.Error(t, err)

	_, _, _, err = reject.Reconcile(ds, nil, nil, nil, []bool{true}, reject.KeepChannelNo)
	require.Error(t, err)

	_, _, _, err = reject.Reconcile(ds, reject.Trl{{0, 9}}, nil, nil, nil, reject.KeepChannelNo)
	require.Error(t, err)
}

func TestReconcileAllRejected(t *testing.T) {
	ds := makeDataset([]string{"EEG Fpz-Cz"}, 2, 5)
	trl := reject.Trl{{0, 9}, {10, 19}}

	out, artifact, kept, err := reject.Reconcile(ds, trl, nil, []bool{false}, []bool{false, false}, reject.KeepChannelNo)
	require.NoError(t, err)
	assert.Empty(t, out.Trials)
	assert.Empty(t, out.Labels)
	assert.Equal(t, [][2]int{{0, 9}, {10, 19}}, artifact)
	assert.Empty(t, kept)
}
