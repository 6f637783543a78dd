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

// Strategy performs one trial/channel selection pass. It receives the
// options (with the latency field resolved to an explicit window) and the
// dataset to evaluate, which may be a display-scaled copy. It returns a
// channel mask and a trial mask (true = keep) plus a possibly updated copy
// of the options. A nil mask means all-true: nothing deselected.
//
// Interactive strategies block until the user completes a selection.
type Strategy interface {
	Select(opts Options, ds *Dataset) (channels, trials []bool, updated Options, err error)
}

// Strategies bundles one strategy per selection method.
type Strategies struct {
	Summary Strategy
	Channel Strategy
	Trial   Strategy
}

// DefaultStrategies uses the automatic summary-metric strategy for
// MethodSummary. The channel and trial displays are inherently interactive,
// so their defaults keep everything.
func DefaultStrategies() Strategies {
	return Strategies{
		Summary: ThresholdSummary{},
		Channel: KeepAll{},
		Trial:   KeepAll{},
	}
}

// forMethod routes a method name to its strategy.
func (s Strategies) forMethod(m Method) (Strategy, error) {
	var strat Strategy
	switch m {
	case MethodSummary:
		strat = s.Summary
	case MethodChannel:
		strat = s.Channel
	case MethodTrial:
		strat = s.Trial
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, m)
	}
	if strat == nil {
		return nil, fmt.Errorf("no strategy registered for method %q", m)
	}
	return strat, nil
}

// KeepAll is the no-op strategy: every channel and every trial stays
// selected.
type KeepAll struct{}

// Select deselects nothing.
func (KeepAll) Select(opts Options, ds *Dataset) ([]bool, []bool, Options, error) {
	return nil, nil, opts, nil
}
