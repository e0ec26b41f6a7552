// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package artifact

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/segmentus/internal/segment"
)

// Artifact keys.
const (
	ScalerKey = "models/scaler.gob.sz"
	ModelKey  = "models/kmeans.gob.sz"
)

var _ segment.Persister = (*Repository)(nil)

// Repository persists segment.Artifacts as a scaler and model pair.
type Repository struct {
	store  *Store
	logger zerolog.Logger
}

// NewRepository creates a repository over backend.
//
//nolint:gocritic // zerolog.Logger is passed by value by design of the library
func NewRepository(backend Backend, logger zerolog.Logger) *Repository {
	return &Repository{
		store:  NewStore(backend),
		logger: logger.With().Str("component", "artifact").Str("backend", backend.Name()).Logger(),
	}
}

// Save writes the scaler first and the model last. A crash between the two
// leaves a generation mismatch that Load rejects.
func (r *Repository) Save(ctx context.Context, a *segment.Artifacts) error {
	base := Metadata{
		Generation: a.Generation,
		TrainedAt:  a.TrainedAt,
		Samples:    a.Scaler.Samples,
	}

	scalerMeta := base
	scalerMeta.Name = "scaler"
	if _, err := r.store.Save(ctx, ScalerKey, a.Scaler, scalerMeta); err != nil {
		return fmt.Errorf("save scaler: %w", err)
	}

	modelMeta := base
	modelMeta.Name = "kmeans"
	modelMeta.K = a.Model.K
	saved, err := r.store.Save(ctx, ModelKey, a.Model, modelMeta)
	if err != nil {
		return fmt.Errorf("save model: %w", err)
	}

	r.logger.Info().
		Str("generation", a.Generation).
		Int("k", a.Model.K).
		Int64("model_bytes", saved.SizeBytes).
		Msg("Saved model artifacts")
	return nil
}

// Load reads both halves and verifies they belong to the same generation.
func (r *Repository) Load(ctx context.Context) (*segment.Artifacts, error) {
	var scaler segment.Scaler
	scalerMeta, err := r.store.Load(ctx, ScalerKey, &scaler)
	if err != nil {
		return nil, fmt.Errorf("load scaler: %w", err)
	}

	var model segment.Model
	modelMeta, err := r.store.Load(ctx, ModelKey, &model)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	if scalerMeta.Generation != modelMeta.Generation {
		return nil, fmt.Errorf("%w: scaler %q, model %q", ErrGenerationMismatch, scalerMeta.Generation, modelMeta.Generation)
	}
	if model.K != len(model.Centroids) || model.K == 0 {
		return nil, fmt.Errorf("load model: %w: k=%d with %d centroids", segment.ErrNotFitted, model.K, len(model.Centroids))
	}

	r.logger.Debug().Str("generation", modelMeta.Generation).Int("k", model.K).Msg("Loaded model artifacts")
	return &segment.Artifacts{
		Generation: modelMeta.Generation,
		TrainedAt:  modelMeta.TrainedAt,
		Scaler:     scaler,
		Model:      model,
	}, nil
}

// Describe returns the stored model metadata.
func (r *Repository) Describe(ctx context.Context) (*Metadata, error) {
	return r.store.Stat(ctx, ModelKey)
}
