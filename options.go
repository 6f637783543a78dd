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
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Method selects which strategy performs the trial/channel selection.
type Method string

const (
	MethodSummary Method = "summary" // Per-trial summary metric
	MethodChannel Method = "channel" // Full-channel display
	MethodTrial   Method = "trial"   // Full-trial display
)

// Metric is the per-trial summary metric used by MethodSummary.
type Metric string

const (
	MetricVar      Metric = "var"
	MetricMin      Metric = "min"
	MetricMax      Metric = "max"
	MetricMaxAbs   Metric = "maxabs"
	MetricRange    Metric = "range"
	MetricKurtosis Metric = "kurtosis"
)

// KeepChannel controls how channels deselected by the strategy are
// represented in the output.
type KeepChannel string

const (
	KeepChannelNo  KeepChannel = "no"  // Drop deselected channels
	KeepChannelYes KeepChannel = "yes" // Retain all channels unchanged
	KeepChannelNaN KeepChannel = "nan" // Retain deselected channels, NaN-filled
)

// Options configures a rejection pass. The zero value is usable; Reject
// applies the documented defaults before running.
type Options struct {
	Channel     []string    `yaml:"channel"`     // Channel label subset, nil = all
	Trials      []int       `yaml:"trials"`      // Trial index subset, nil = all
	Latency     LatencySpec `yaml:"latency"`     // Window or policy, default maxperlength
	Method      Method      `yaml:"method"`      // Default summary
	Metric      Metric      `yaml:"metric"`      // Summary metric, default var
	KeepChannel KeepChannel `yaml:"keepchannel"` // Default no
	Cutoff      float64     `yaml:"cutoff"`      // Robust z cutoff for the automatic summary strategy, 0 = strategy default

	// Per-channel-group display scale factors, applied in this order.
	// 0 means no scaling for that group.
	EEGScale float64 `yaml:"eegscale"`
	EOGScale float64 `yaml:"eogscale"`
	ECGScale float64 `yaml:"ecgscale"`
	EMGScale float64 `yaml:"emgscale"`

	// Classifier maps channel-group names to channel labels. Default
	// PrefixClassifier.
	Classifier Classifier `yaml:"-"`

	// Logger receives selection reports. Default slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

// LoadOptions reads options from a YAML file. The latency field accepts
// either a policy name or a [begin, end] pair.
func LoadOptions(path string) (Options, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("error reading options file: %w", err)
	}
	var opts Options
	if err := yaml.Unmarshal(b, &opts); err != nil {
		return Options{}, fmt.Errorf("error parsing options file: %w", err)
	}
	return opts, nil
}

// withDefaults fills in unset option fields.
func (o Options) withDefaults() Options {
	if o.Method == "" {
		o.Method = MethodSummary
	}
	if o.Metric == "" {
		o.Metric = MetricVar
	}
	if o.KeepChannel == "" {
		o.KeepChannel = KeepChannelNo
	}
	if o.Latency.isZero() {
		o.Latency = LatencySpec{Policy: LatencyMaxPerLength}
	}
	if o.Classifier == nil {
		o.Classifier = PrefixClassifier{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func (o Options) validate() error {
	switch o.Method {
	case MethodSummary, MethodChannel, MethodTrial:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMethod, o.Method)
	}
	switch o.Metric {
	case MetricVar, MetricMin, MetricMax, MetricMaxAbs, MetricRange, MetricKurtosis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMetric, o.Metric)
	}
	switch o.KeepChannel {
	case KeepChannelNo, KeepChannelYes, KeepChannelNaN:
	default:
		return fmt.Errorf("unknown keepchannel policy %q", o.KeepChannel)
	}
	return nil
}

// groupScales returns the configured scale factors in their fixed
// application order.
func (o Options) groupScales() []GroupScale {
	var scales []GroupScale
	for _, gs := range []GroupScale{
		{Group: "eeg", Factor: o.EEGScale},
		{Group: "eog", Factor: o.EOGScale},
		{Group: "ecg", Factor: o.ECGScale},
		{Group: "emg", Factor: o.EMGScale},
	} {
		if gs.Factor != 0 {
			scales = append(scales, gs)
		}
	}
	return scales
}
