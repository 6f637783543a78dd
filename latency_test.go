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
	"testing"

	"github.com/OpenPSG/reject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLatency(t *testing.T) {
	// Trials spanning [0,1], [0.5,1.5] and [0,2].
	times := [][]float64{
		{0, 0.5, 1},
		{0.5, 1, 1.5},
		{0, 1, 2},
	}

	for _, tc := range []struct {
		policy reject.LatencyPolicy
		want   reject.Window
	}{
		{reject.LatencyMaxPerLength, reject.Window{Begin: 0, End: 2}},
		{reject.LatencyMinPerLength, reject.Window{Begin: 0.5, End: 1}},
		{reject.LatencyPrestim, reject.Window{Begin: 0, End: 0}},
		{reject.LatencyPoststim, reject.Window{Begin: 0, End: 2}},
	} {
		win, err := reject.ResolveLatency(times, reject.LatencySpec{Policy: tc.policy})
		require.NoError(t, err, string(tc.policy))
		assert.Equal(t, tc.want, win, string(tc.policy))
	}
}

func TestResolveLatencyExplicit(t *testing.T) {
	win, err := reject.ResolveLatency(nil, reject.LatencyWindow(-0.2, 0.8))
	require.NoError(t, err)
	assert.Equal(t, reject.Window{Begin: -0.2, End: 0.8}, win)

	// An inverted explicit window is a configuration error.
	_, err = reject.ResolveLatency(nil, reject.LatencyWindow(1, 0))
	require.ErrorIs(t, err, reject.ErrEmptyWindow)
}

func TestResolveLatencyNoOverlap(t *testing.T) {
	times := [][]float64{
		{0, 0.5, 1},
		{2, 2.5, 3},
	}
	_, err := reject.ResolveLatency(times, reject.LatencySpec{Policy: reject.LatencyMinPerLength})
	require.ErrorIs(t, err, reject.ErrEmptyWindow)
}

func TestResolveLatencyErrors(t *testing.T) {
	_, err := reject.ResolveLatency(nil, reject.LatencySpec{Policy: reject.LatencyMaxPerLength})
	require.Error(t, err)

	_, err = reject.ResolveLatency([][]float64{{}}, reject.LatencySpec{Policy: reject.LatencyMaxPerLength})
	require.Error(t, err)

	_, err = reject.ResolveLatency([][]float64{{0, 1}}, reject.LatencySpec{Policy: "bogus"})
	require.Error(t, err)
}
