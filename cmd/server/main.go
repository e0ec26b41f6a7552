// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/segmentus/internal/api"
	"github.com/tomtom215/segmentus/internal/artifact"
	"github.com/tomtom215/segmentus/internal/auth"
	"github.com/tomtom215/segmentus/internal/authz"
	"github.com/tomtom215/segmentus/internal/config"
	"github.com/tomtom215/segmentus/internal/database"
	"github.com/tomtom215/segmentus/internal/dataset"
	"github.com/tomtom215/segmentus/internal/logging"
	"github.com/tomtom215/segmentus/internal/segment"
	"github.com/tomtom215/segmentus/internal/supervisor"
	"github.com/tomtom215/segmentus/internal/supervisor/services"
	ws "github.com/tomtom215/segmentus/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("artifact_backend", cfg.Artifacts.Backend).
		Msg("Starting Segmentus")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if cfg.Security.AuthMode == auth.AuthModeJWT {
		created, err := api.EnsureAdmin(ctx, db, &cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to bootstrap admin account")
		}
		if created {
			logging.Info().Str("username", cfg.Security.AdminUsername).Msg("Bootstrap admin account created")
		}
	}

	backend, err := newArtifactBackend(ctx, &cfg.Artifacts)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize artifact storage")
	}
	repo := artifact.NewRepository(backend, logging.Logger())

	source := dataset.NewSource(cfg.Dataset.Path, logging.Logger())
	source.Rows = cfg.Dataset.SyntheticRows
	source.Seed = cfg.Dataset.Seed

	manager, err := segment.NewManager(segment.Config{
		KMin: cfg.Model.KMin,
		KMax: cfg.Model.KMax,
		Fit: segment.FitOptions{
			Seed:    cfg.Model.Seed,
			NInit:   cfg.Model.NInit,
			MaxIter: cfg.Model.MaxIter,
		},
		TrainTimeout: cfg.Model.TrainTimeout,
	}, source, repo, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create segment manager")
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	revocations, err := newRevocationStore(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open token revocation store")
	}
	defer func() {
		if err := revocations.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing revocation store")
		}
	}()

	if cfg.Security.AuthMode == auth.AuthModeNone {
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("  Every request runs with admin permissions.")
		logging.Warn().Msg("  Use this only for local development.")
		logging.Warn().Msg("============================================================")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().
			Strs("origins", cfg.Security.CORSOrigins).
			Msg("CORS allows any origin while authentication is enabled; set CORS_ORIGINS to specific origins in production")
	}

	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization")
	}
	defer enforcer.Close()

	wsHub := ws.NewHub()

	handler := api.NewHandler(db, manager, cfg, jwtManager, revocations, wsHub)
	handler.SetArtifactDescriber(repo)
	handler.SetVersion(version)
	defer handler.Close()

	router := api.NewRouter(
		handler,
		auth.NewMiddleware(jwtManager, revocations, db, cfg.Security.AuthMode),
		authz.NewMiddleware(enforcer),
		api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)),
	)

	server := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// Training requests run as long as TrainTimeout.
		WriteTimeout: maxDuration(cfg.Server.Timeout, cfg.Model.TrainTimeout+5*time.Second),
		IdleTimeout:  60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddModelService(services.NewModelLifecycleService(manager, wsHub, services.ModelLifecycleConfig{
		TrainOnStartup:  cfg.Model.TrainOnStartup,
		RetrainInterval: cfg.Model.RetrainInterval,
	}, logging.Logger()))
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Server stopped")
}

func newArtifactBackend(ctx context.Context, cfg *config.ArtifactsConfig) (artifact.Backend, error) {
	switch cfg.Backend {
	case "s3":
		return artifact.NewS3Backend(ctx, artifact.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			UsePathStyle:    cfg.S3.UsePathStyle,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
	case "file", "":
		return artifact.NewFileBackend(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown artifact backend %q", cfg.Backend)
	}
}

// newRevocationStore persists revoked token IDs in badger when a path is
// configured, so a logout survives a restart.
func newRevocationStore(cfg *config.SecurityConfig) (auth.RevocationStore, error) {
	if cfg.RevocationPath == "" {
		return auth.NewMemoryRevocationStore(), nil
	}
	return auth.OpenBadgerRevocationStore(cfg.RevocationPath)
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
