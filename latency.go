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

	"gopkg.in/yaml.v3"
)

// LatencyPolicy names a rule for deriving a latency window from the actual
// time spans of all trials.
type LatencyPolicy string

const (
	// LatencyMinPerLength is the intersection of all trial spans: the
	// window every trial fully covers.
	LatencyMinPerLength LatencyPolicy = "minperlength"
	// LatencyMaxPerLength is the union envelope of all trial spans.
	LatencyMaxPerLength LatencyPolicy = "maxperlength"
	// LatencyPrestim is the envelope up to time zero.
	LatencyPrestim LatencyPolicy = "prestim"
	// LatencyPoststim is the envelope from time zero.
	LatencyPoststim LatencyPolicy = "poststim"
)

// LatencySpec is either a named policy or an explicit window.
type LatencySpec struct {
	Policy LatencyPolicy // Empty when the window is explicit
	Begin  float64
	End    float64

	explicit bool
}

// LatencyWindow returns a spec for an explicit [begin, end] window.
func LatencyWindow(begin, end float64) LatencySpec {
	return LatencySpec{Begin: begin, End: end, explicit: true}
}

func (l LatencySpec) isZero() bool {
	return !l.explicit && l.Policy == ""
}

// UnmarshalYAML accepts either a scalar policy name or a [begin, end]
// sequence.
func (l *LatencySpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var policy string
		if err := value.Decode(&policy); err != nil {
			return err
		}
		*l = LatencySpec{Policy: LatencyPolicy(policy)}
		return nil
	case yaml.SequenceNode:
		var pair []float64
		if err := value.Decode(&pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("latency window must have exactly 2 elements, got %d", len(pair))
		}
		*l = LatencyWindow(pair[0], pair[1])
		return nil
	default:
		return fmt.Errorf("latency must be a policy name or a [begin, end] pair")
	}
}

// ResolveLatency turns a latency spec into a concrete window using the time
// vectors of all trials. A minperlength request over non-overlapping trials
// and an explicit window with begin > end are both configuration errors.
func ResolveLatency(times [][]float64, spec LatencySpec) (Window, error) {
	if spec.explicit {
		if spec.Begin > spec.End {
			return Window{}, fmt.Errorf("%w: [%g, %g]", ErrEmptyWindow, spec.Begin, spec.End)
		}
		return Window{Begin: spec.Begin, End: spec.End}, nil
	}

	if len(times) == 0 {
		return Window{}, fmt.Errorf("cannot resolve latency policy %q without trials", spec.Policy)
	}

	var intersection, envelope Window
	for i, tv := range times {
		if len(tv) == 0 {
			return Window{}, fmt.Errorf("trial %d has an empty time vector", i)
		}
		lo, hi := tv[0], tv[0]
		for _, t := range tv[1:] {
			if t < lo {
				lo = t
			}
			if t > hi {
				hi = t
			}
		}
		if i == 0 {
			intersection = Window{Begin: lo, End: hi}
			envelope = Window{Begin: lo, End: hi}
			continue
		}
		if lo > intersection.Begin {
			intersection.Begin = lo
		}
		if hi < intersection.End {
			intersection.End = hi
		}
		if lo < envelope.Begin {
			envelope.Begin = lo
		}
		if hi > envelope.End {
			envelope.End = hi
		}
	}

	switch spec.Policy {
	case LatencyMinPerLength:
		if intersection.Begin > intersection.End {
			return Window{}, fmt.Errorf("%w: trials do not overlap, intersection is [%g, %g]",
				ErrEmptyWindow, intersection.Begin, intersection.End)
		}
		return intersection, nil
	case LatencyMaxPerLength:
		return envelope, nil
	case LatencyPrestim:
		return Window{Begin: envelope.Begin, End: 0}, nil
	case LatencyPoststim:
		return Window{Begin: 0, End: envelope.End}, nil
	default:
		return Window{}, fmt.Errorf("unknown latency policy %q", spec.Policy)
	}
}
