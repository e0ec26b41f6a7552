// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

// Package config loads Segmentus configuration.
//
// Values are layered with koanf: struct defaults, then an optional YAML
// file, then environment variables. The merged result is validated before
// it is returned, so callers never see a half-valid Config.
package config

import (
	"time"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Dataset   DatasetConfig   `koanf:"dataset"`
	Model     ModelConfig     `koanf:"model"`
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
	Cache     CacheConfig     `koanf:"cache"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// DatasetConfig locates the training CSV.
type DatasetConfig struct {
	Path          string `koanf:"path"`
	SyntheticRows int    `koanf:"synthetic_rows"`
	Seed          int64  `koanf:"seed"`
}

// ModelConfig controls training.
type ModelConfig struct {
	KMin    int   `koanf:"k_min"`
	KMax    int   `koanf:"k_max"`
	Seed    int64 `koanf:"seed"`
	NInit   int   `koanf:"n_init"`
	MaxIter int   `koanf:"max_iter"`

	// TrainOnStartup trains when no usable artifacts are found at startup.
	TrainOnStartup bool `koanf:"train_on_startup"`

	// RetrainInterval schedules periodic retraining; zero disables it.
	RetrainInterval time.Duration `koanf:"retrain_interval"`

	TrainTimeout time.Duration `koanf:"train_timeout"`
}

// ArtifactsConfig selects where the scaler and model are stored.
type ArtifactsConfig struct {
	// Backend is "file" or "s3".
	Backend string   `koanf:"backend"`
	Dir     string   `koanf:"dir"`
	S3      S3Config `koanf:"s3"`
}

// S3Config configures the S3 artifact backend.
type S3Config struct {
	Bucket          string `koanf:"bucket"`
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	Prefix          string `koanf:"prefix"`
	UsePathStyle    bool   `koanf:"use_path_style"`
}

// SecurityConfig holds authentication and request limiting settings.
type SecurityConfig struct {
	// AuthMode is "jwt" or "none".
	AuthMode       string        `koanf:"auth_mode"`
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`

	// Bootstrap admin, created at startup when absent.
	AdminUsername string `koanf:"admin_username"`
	AdminPassword string `koanf:"admin_password"`
	AdminEmail    string `koanf:"admin_email"`

	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// LoginRateLimit is login attempts per minute per client IP.
	LoginRateLimit int `koanf:"login_rate_limit"`

	CORSOrigins []string `koanf:"cors_origins"`

	// RevocationPath is the badger directory for revoked token IDs. Empty
	// keeps revocations in memory.
	RevocationPath string `koanf:"revocation_path"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// Address returns host:port for the HTTP listener.
func (s ServerConfig) Address() string {
	return joinHostPort(s.Host, s.Port)
}
