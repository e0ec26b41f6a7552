// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package api

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/segmentus/internal/artifact"
	"github.com/tomtom215/segmentus/internal/auth"
	"github.com/tomtom215/segmentus/internal/cache"
	"github.com/tomtom215/segmentus/internal/config"
	"github.com/tomtom215/segmentus/internal/database"
	"github.com/tomtom215/segmentus/internal/logging"
	"github.com/tomtom215/segmentus/internal/segment"
	ws "github.com/tomtom215/segmentus/internal/websocket"
)

// ArtifactDescriber reports metadata about the persisted model.
type ArtifactDescriber interface {
	Describe(ctx context.Context) (*artifact.Metadata, error)
}

// Handler holds the dependencies shared by every endpoint.
type Handler struct {
	db           *database.DB
	manager      *segment.Manager
	config       *config.Config
	jwtManager   *auth.JWTManager
	revocations  auth.RevocationStore
	loginLimiter *auth.RateLimiter
	wsHub        *ws.Hub
	upgrader     websocket.Upgrader
	artifacts    ArtifactDescriber
	security     *logging.SecurityLogger
	startTime    time.Time
	version      string

	// clusterCache is keyed by model generation, so a retrain makes old
	// entries unreachable without an explicit purge.
	clusterCache *cache.Cache
	// elbowCache is keyed by the dataset fingerprint.
	elbowCache *cache.Cache
}

// NewHandler creates a Handler. The login limiter is started here and
// stopped by Close.
func NewHandler(db *database.DB, manager *segment.Manager, cfg *config.Config, jwtManager *auth.JWTManager, revocations auth.RevocationStore, wsHub *ws.Hub) *Handler {
	limiter := auth.NewRateLimiter(cfg.Security.LoginRateLimit, time.Minute)
	limiter.StartCleanup(5 * time.Minute)

	return &Handler{
		db:           db,
		manager:      manager,
		config:       cfg,
		jwtManager:   jwtManager,
		revocations:  revocations,
		loginLimiter: limiter,
		wsHub:        wsHub,
		upgrader:     ws.NewUpgrader(cfg.Security.CORSOrigins),
		security:     logging.NewSecurityLogger(),
		startTime:    time.Now(),
		version:      "dev",
		clusterCache: cache.New("clusters", cfg.Cache.TTL),
		elbowCache:   cache.New("elbow", cfg.Cache.TTL),
	}
}

// SetArtifactDescriber enables artifact metadata in GET /model/info.
func (h *Handler) SetArtifactDescriber(d ArtifactDescriber) {
	h.artifacts = d
}

// SetVersion sets the build version reported by /health.
func (h *Handler) SetVersion(v string) {
	if v != "" {
		h.version = v
	}
}

// ClearCache drops every cached statistics, chart and elbow entry.
func (h *Handler) ClearCache() {
	h.clusterCache.Clear()
	h.elbowCache.Clear()
	logging.Debug().Msg("Model caches cleared")
}

// Close stops background goroutines owned by the handler.
func (h *Handler) Close() {
	h.loginLimiter.Stop()
	h.clusterCache.Close()
	h.elbowCache.Close()
}
