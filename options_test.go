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
	"os"
	"path/filepath"
	"testing"

	"github.com/OpenPSG/reject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeOptionsFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "options.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadOptions(t *testing.T) {
	path := writeOptionsFile(t, `
method: summary
metric: kurtosis
keepchannel: nan
latency: minperlength
cutoff: 6
eegscale: 1.5
channel: ["EEG Fpz-Cz"]
trials: [0, 2]
`)

	opts, err := reject.LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, reject.MethodSummary, opts.Method)
	assert.Equal(t, reject.MetricKurtosis, opts.Metric)
	assert.Equal(t, reject.KeepChannelNaN, opts.KeepChannel)
	assert.Equal(t, reject.LatencyMinPerLength, opts.Latency.Policy)
	assert.Equal(t, 6.0, opts.Cutoff)
	assert.Equal(t, 1.5, opts.EEGScale)
	assert.Equal(t, []string{"EEG Fpz-Cz"}, opts.Channel)
	assert.Equal(t, []int{0, 2}, opts.Trials)
}

func TestLoadOptionsExplicitLatency(t *testing.T) {
	path := writeOptionsFile(t, "latency: [-0.2, 0.8]\n")

	opts, err := reject.LoadOptions(path)
	require.NoError(t, err)

	// An explicit pair resolves without consulting any trials.
	win, err := reject.ResolveLatency(nil, opts.Latency)
	require.NoError(t, err)
	assert.Equal(t, reject.Window{Begin: -0.2, End: 0.8}, win)
}

func TestLoadOptionsBadLatency(t *testing.T) {
	path := writeOptionsFile(t, "latency: [1, 2, 3]\n")
	_, err := reject.LoadOptions(path)
	require.Error(t, err)

	path = writeOptionsFile(t, "latency: {begin: 1}\n")
	_, err = reject.LoadOptions(path)
	require.Error(t, err)
}

func TestLoadOptionsMissingFile(t *testing.T) {
	_, err := reject.LoadOptions(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestRejectDefaultsApplied(t *testing.T) {
	ds := makeDataset([]string{"EEG Fpz-Cz"}, 2, 10)

	res, err := reject.Reject(ds, nil, reject.Options{}, reject.DefaultStrategies())
	require.NoError(t, err)

	// Defaults: summary/var over the union envelope.
	assert.Equal(t, reject.MethodSummary, res.Options.Method)
	assert.Equal(t, reject.MetricVar, res.Options.Metric)
	assert.Equal(t, reject.KeepChannelNo, res.Options.KeepChannel)
	assert.Equal(t, reject.Window{Begin: 0, End: 0.9}, res.Window)
}
