// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Rate limit bounds.
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateDataset,
		c.validateModel,
		c.validateArtifacts,
		c.validateSecurity,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	return nil
}

func (c *Config) validateDataset() error {
	if c.Dataset.Path == "" {
		return fmt.Errorf("DATASET_PATH is required")
	}
	if c.Dataset.SyntheticRows < 1 {
		return fmt.Errorf("DATASET_SYNTHETIC_ROWS must be at least 1")
	}
	return nil
}

func (c *Config) validateModel() error {
	m := c.Model
	if m.KMin < 2 {
		return fmt.Errorf("MODEL_K_MIN must be at least 2")
	}
	if m.KMax < m.KMin {
		return fmt.Errorf("MODEL_K_MAX (%d) must not be below MODEL_K_MIN (%d)", m.KMax, m.KMin)
	}
	if m.NInit < 1 {
		return fmt.Errorf("MODEL_N_INIT must be at least 1")
	}
	if m.MaxIter < 1 {
		return fmt.Errorf("MODEL_MAX_ITER must be at least 1")
	}
	if m.RetrainInterval < 0 {
		return fmt.Errorf("MODEL_RETRAIN_INTERVAL must not be negative")
	}
	if m.RetrainInterval > 0 && m.RetrainInterval < time.Minute {
		return fmt.Errorf("MODEL_RETRAIN_INTERVAL must be at least 1m when enabled")
	}
	if m.TrainTimeout <= 0 {
		return fmt.Errorf("MODEL_TRAIN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateArtifacts() error {
	switch c.Artifacts.Backend {
	case "file":
		if c.Artifacts.Dir == "" {
			return fmt.Errorf("ARTIFACT_DIR is required when ARTIFACT_BACKEND is file")
		}
	case "s3":
		if c.Artifacts.S3.Bucket == "" {
			return fmt.Errorf("ARTIFACT_S3_BUCKET is required when ARTIFACT_BACKEND is s3")
		}
		if c.Artifacts.S3.Endpoint != "" {
			if err := validateHTTPURL(c.Artifacts.S3.Endpoint, "ARTIFACT_S3_ENDPOINT"); err != nil {
				return err
			}
		}
		if (c.Artifacts.S3.AccessKeyID == "") != (c.Artifacts.S3.SecretAccessKey == "") {
			return fmt.Errorf("ARTIFACT_S3_ACCESS_KEY_ID and ARTIFACT_S3_SECRET_ACCESS_KEY must be set together")
		}
	default:
		return fmt.Errorf("ARTIFACT_BACKEND must be one of: file, s3")
	}
	return nil
}

// validateHTTPURL accepts an http(s) base URL with no path or query.
func validateHTTPURL(rawURL, fieldName string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if u.Path != "" && u.Path != "/" {
		return fmt.Errorf("%s should be base URL only, remove path: %s", fieldName, u.Path)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters", fieldName)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case "jwt":
		if err := c.validateJWT(); err != nil {
			return err
		}
	case "none":
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be one of: jwt, none")
	}

	if c.Security.AuthMode != "none" && c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production with authentication enabled")
	}
	if c.Security.LoginRateLimit < 1 {
		return fmt.Errorf("LOGIN_RATE_LIMIT must be at least 1")
	}
	return c.validateRateLimits()
}

func (c *Config) validateJWT() error {
	s := c.Security
	if s.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}
	if c.IsProduction() {
		if len(s.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if containsPlaceholder(s.JWTSecret) {
			return fmt.Errorf("JWT_SECRET contains a placeholder value - generate one with: openssl rand -base64 32")
		}
	}
	if s.AdminUsername != "" || s.AdminPassword != "" {
		return c.validateAdminCredentials()
	}
	return nil
}

func (c *Config) validateAdminCredentials() error {
	s := c.Security
	if s.AdminUsername == "" || s.AdminPassword == "" {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	if !c.IsProduction() {
		return nil
	}
	if containsPlaceholder(s.AdminPassword) || s.AdminPassword == "admin123" {
		return fmt.Errorf("ADMIN_PASSWORD uses a development default - set a secure password")
	}
	if err := DefaultPasswordPolicy().ValidateWithError(s.AdminPassword, s.AdminUsername); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD: %w", err)
	}
	return nil
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS reports wildcard CORS with authentication enabled.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.Security.AuthMode != "none" && c.hasWildcardCORS()
}

// IsProduction reports ENVIRONMENT=production|prod.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

var placeholders = []string{"changeme", "change-me", "replace", "your-secret", "example", "placeholder"}

func containsPlaceholder(v string) bool {
	lower := strings.ToLower(v)
	for _, p := range placeholders {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
