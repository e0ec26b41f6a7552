// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

// Package artifact persists the fitted scaler and clustering model.
//
// A Backend moves opaque byte blobs by key (local directory or S3). A Store
// wraps each value in a checksummed, snappy-compressed envelope with
// metadata. A Repository writes the scaler and model as a matched pair and
// refuses to load halves from different training runs.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned when a key does not exist in the backend.
	ErrNotFound = errors.New("artifact not found")

	// ErrChecksumMismatch is returned when stored bytes do not match their recorded checksum.
	ErrChecksumMismatch = errors.New("artifact checksum mismatch")

	// ErrGenerationMismatch is returned when the scaler and model come from different training runs.
	ErrGenerationMismatch = errors.New("scaler and model generations differ")

	// ErrUnsupportedFormat is returned for envelopes written by a newer format version.
	ErrUnsupportedFormat = errors.New("unsupported artifact format version")
)

// Backend stores opaque blobs by key.
type Backend interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Name() string
}

// cleanKey rejects empty, absolute and parent-escaping keys.
func cleanKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("artifact key is empty")
	}
	cleaned := path.Clean(strings.ReplaceAll(key, "\\", "/"))
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("artifact key %q escapes the store root", key)
	}
	return cleaned, nil
}
