// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package reject

import "errors"

var (
	// ErrUnknownMethod indicates a selection method outside the supported set.
	ErrUnknownMethod = errors.New("unknown selection method")
	// ErrUnknownMetric indicates a summary metric outside the supported set.
	ErrUnknownMetric = errors.New("unknown summary metric")
	// ErrEmptyWindow indicates a latency window with begin > end.
	ErrEmptyWindow = errors.New("empty latency window")
)
