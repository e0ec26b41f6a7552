// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package artifact

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang/snappy"

	"github.com/tomtom215/segmentus/internal/metrics"
)

// FormatVersion is written into every envelope.
const FormatVersion = 1

// Metadata describes a stored artifact.
type Metadata struct {
	// Name is the artifact name, e.g. "scaler" or "kmeans".
	Name string `json:"name"`

	// Generation identifies the training run that produced the artifact.
	Generation string `json:"generation"`

	FormatVersion int       `json:"format_version"`
	TrainedAt     time.Time `json:"trained_at"`
	SavedAt       time.Time `json:"saved_at"`

	// Checksum is the hex SHA-256 of the uncompressed payload.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size.
	SizeBytes int64 `json:"size_bytes"`

	// Samples is the number of training rows.
	Samples int `json:"samples"`

	// K is the cluster count; zero for the scaler.
	K int `json:"k,omitempty"`
}

// envelope is the stored wire format.
type envelope struct {
	Metadata   Metadata
	Compressed []byte
}

// Store encodes values into checksummed envelopes on a Backend.
type Store struct {
	backend Backend
}

// NewStore wraps backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// Save gob-encodes v, compresses it and writes it under key.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *Store) Save(ctx context.Context, key string, v interface{}, meta Metadata) (*Metadata, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(v); err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}

	sum := sha256.Sum256(raw.Bytes())
	compressed := snappy.Encode(nil, raw.Bytes())

	meta.FormatVersion = FormatVersion
	meta.Checksum = hex.EncodeToString(sum[:])
	meta.SizeBytes = int64(len(compressed))
	meta.SavedAt = time.Now().UTC()

	var out bytes.Buffer
	if err := gob.NewEncoder(&out).Encode(envelope{Metadata: meta, Compressed: compressed}); err != nil {
		return nil, fmt.Errorf("encode envelope %s: %w", key, err)
	}
	if err := s.backend.Put(ctx, key, out.Bytes()); err != nil {
		return nil, fmt.Errorf("write %s to %s: %w", key, s.backend.Name(), err)
	}
	metrics.ArtifactBytes.WithLabelValues(meta.Name).Set(float64(meta.SizeBytes))
	return &meta, nil
}

// Load reads key, verifies its checksum and decodes it into target.
func (s *Store) Load(ctx context.Context, key string, target interface{}) (*Metadata, error) {
	data, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode envelope %s: %w", key, err)
	}
	if env.Metadata.FormatVersion > FormatVersion {
		return nil, fmt.Errorf("%w: %s has version %d", ErrUnsupportedFormat, key, env.Metadata.FormatVersion)
	}

	raw, err := snappy.Decode(nil, env.Compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", key, err)
	}
	sum := sha256.Sum256(raw)
	if got := hex.EncodeToString(sum[:]); got != env.Metadata.Checksum {
		return nil, fmt.Errorf("%w: %s expected %s, got %s", ErrChecksumMismatch, key, env.Metadata.Checksum, got)
	}

	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(target); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &env.Metadata, nil
}

// Stat returns the metadata of key without decoding its payload.
func (s *Store) Stat(ctx context.Context, key string) (*Metadata, error) {
	data, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode envelope %s: %w", key, err)
	}
	return &env.Metadata, nil
}
