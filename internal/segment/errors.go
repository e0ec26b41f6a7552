// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package segment

import "errors"

var (
	// ErrInvalidInput reports a malformed or out-of-range record or dataset.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientData reports too few samples for the requested cluster range.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrModelNotReady reports a predict or statistics call before any
	// successful train or load.
	ErrModelNotReady = errors.New("model not trained or loaded")

	// ErrNotFitted reports use of a scaler or model that was never fit.
	ErrNotFitted = errors.New("model not fitted")

	// ErrTrainingInProgress is returned when a second training run is
	// requested while one is still active.
	ErrTrainingInProgress = errors.New("training already in progress")
)
