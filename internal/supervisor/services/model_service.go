// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/segmentus/internal/segment"
	ws "github.com/tomtom215/segmentus/internal/websocket"
)

// ModelManager is the part of *segment.Manager the lifecycle service drives.
type ModelManager interface {
	Load(ctx context.Context) error
	Train(ctx context.Context, k *int) (segment.TrainResult, error)
	Ready() bool
	Generation() string
}

// ModelBroadcaster is satisfied by *websocket.Hub.
type ModelBroadcaster interface {
	BroadcastModelTrained(event ws.ModelEvent)
	BroadcastModelLoaded(event ws.ModelEvent)
}

// ModelLifecycleConfig controls startup and periodic retraining.
type ModelLifecycleConfig struct {
	TrainOnStartup  bool
	RetrainInterval time.Duration
}

// ModelLifecycleService restores the persisted model at startup, trains
// one when none is usable and TrainOnStartup is set, and retrains on a
// fixed interval when RetrainInterval is positive.
//
// Training failures are logged, never returned: a broken dataset should
// leave the API serving 400s, not put the model layer into a restart loop.
type ModelLifecycleService struct {
	manager     ModelManager
	broadcaster ModelBroadcaster
	cfg         ModelLifecycleConfig
	logger      zerolog.Logger
	name        string

	// started is true once the startup load/train attempt has run, so a
	// supervisor restart does not repeat it.
	started bool
}

// NewModelLifecycleService creates the service. broadcaster may be nil.
func NewModelLifecycleService(manager ModelManager, broadcaster ModelBroadcaster, cfg ModelLifecycleConfig, logger zerolog.Logger) *ModelLifecycleService {
	return &ModelLifecycleService{
		manager:     manager,
		broadcaster: broadcaster,
		cfg:         cfg,
		logger:      logger.With().Str("service", "model-lifecycle").Logger(),
		name:        "model-lifecycle",
	}
}

// Serve implements suture.Service.
func (s *ModelLifecycleService) Serve(ctx context.Context) error {
	if !s.started {
		s.startup(ctx)
		s.started = true
	}

	if s.cfg.RetrainInterval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.cfg.RetrainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.retrain(ctx)
		}
	}
}

func (s *ModelLifecycleService) startup(ctx context.Context) {
	err := s.manager.Load(ctx)
	if err == nil {
		if s.broadcaster != nil {
			s.broadcaster.BroadcastModelLoaded(ws.ModelEvent{Generation: s.manager.Generation()})
		}
		return
	}
	if ctx.Err() != nil {
		return
	}

	if !s.cfg.TrainOnStartup {
		s.logger.Warn().Err(err).Msg("no usable model artifacts; waiting for POST /api/v1/model/train")
		return
	}
	s.logger.Info().Err(err).Msg("no usable model artifacts; training at startup")
	s.train(ctx, "startup")
}

func (s *ModelLifecycleService) retrain(ctx context.Context) {
	s.train(ctx, "scheduler")
}

func (s *ModelLifecycleService) train(ctx context.Context, trigger string) {
	res, err := s.manager.Train(ctx, nil)
	switch {
	case errors.Is(err, segment.ErrTrainingInProgress):
		s.logger.Info().Str("trigger", trigger).Msg("training already running; skipped")
		return
	case err != nil:
		if ctx.Err() == nil {
			s.logger.Error().Err(err).Str("trigger", trigger).Msg("training failed")
		}
		return
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastModelTrained(ws.ModelEvent{
			NClusters:       res.NClusters,
			SilhouetteScore: res.SilhouetteScore,
			Inertia:         res.Inertia,
			Generation:      res.Generation,
			TriggeredBy:     trigger,
		})
	}
}

// String names the service in supervisor logs.
func (s *ModelLifecycleService) String() string {
	return s.name
}
