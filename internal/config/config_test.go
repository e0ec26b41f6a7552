// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Model.KMin != 2 || cfg.Model.KMax != 10 || cfg.Model.NInit != 10 || cfg.Model.MaxIter != 300 {
		t.Errorf("Model = %+v", cfg.Model)
	}
	if cfg.Model.Seed != 42 || !cfg.Model.TrainOnStartup {
		t.Errorf("Model seed/startup = %d/%v", cfg.Model.Seed, cfg.Model.TrainOnStartup)
	}
	if cfg.Artifacts.Backend != "file" {
		t.Errorf("Artifacts.Backend = %q, want file", cfg.Artifacts.Backend)
	}
	if cfg.Security.SessionTimeout != 24*time.Hour {
		t.Errorf("SessionTimeout = %v, want 24h", cfg.Security.SessionTimeout)
	}
	if cfg.Server.Address() != "0.0.0.0:8000" {
		t.Errorf("Address() = %q", cfg.Server.Address())
	}
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	path := writeYAML(t, `
server:
  port: 9000
model:
  k_max: 6
  retrain_interval: 1h
artifacts:
  backend: s3
  s3:
    bucket: from-file
    endpoint: http://localhost:9000
    use_path_style: true
security:
  cors_origins:
    - https://a.example.org
`)

	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("ARTIFACT_S3_BUCKET", "from-env")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want env override 9100", cfg.Server.Port)
	}
	if cfg.Model.KMax != 6 || cfg.Model.RetrainInterval != time.Hour {
		t.Errorf("Model = %+v", cfg.Model)
	}
	if cfg.Artifacts.S3.Bucket != "from-env" || !cfg.Artifacts.S3.UsePathStyle {
		t.Errorf("Artifacts.S3 = %+v", cfg.Artifacts.S3)
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "https://a.example.org" {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_CommaSeparatedCORS(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://a.example.org, https://b.example.org")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	want := []string{"https://a.example.org", "https://b.example.org"}
	if strings.Join(cfg.Security.CORSOrigins, "|") != strings.Join(want, "|") {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
}

func TestLoad_InvalidRejected(t *testing.T) {
	t.Setenv("MODEL_K_MIN", "1")
	if _, err := LoadFile(""); err == nil || !strings.Contains(err.Error(), "MODEL_K_MIN") {
		t.Errorf("LoadFile() error = %v, want MODEL_K_MIN validation error", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"HTTP_PORT":          "server.port",
		"DUCKDB_PATH":        "database.path",
		"ARTIFACT_S3_PREFIX": "artifacts.s3.prefix",
		"DISABLE_RATE_LIMIT": "security.rate_limit_disabled",
		"PATH":               "",
		"HOME":               "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "HTTP_PORT"},
		{name: "k max below k min", mutate: func(c *Config) { c.Model.KMax = 1 }, wantErr: "MODEL_K_MAX"},
		{name: "retrain too frequent", mutate: func(c *Config) { c.Model.RetrainInterval = time.Second }, wantErr: "MODEL_RETRAIN_INTERVAL"},
		{name: "unknown backend", mutate: func(c *Config) { c.Artifacts.Backend = "ftp" }, wantErr: "ARTIFACT_BACKEND"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Artifacts.Backend = "s3" }, wantErr: "ARTIFACT_S3_BUCKET"},
		{
			name: "s3 endpoint with path",
			mutate: func(c *Config) {
				c.Artifacts.Backend = "s3"
				c.Artifacts.S3.Bucket = "b"
				c.Artifacts.S3.Endpoint = "http://minio:9000/bucket"
			},
			wantErr: "ARTIFACT_S3_ENDPOINT",
		},
		{
			name: "s3 half credentials",
			mutate: func(c *Config) {
				c.Artifacts.Backend = "s3"
				c.Artifacts.S3.Bucket = "b"
				c.Artifacts.S3.AccessKeyID = "id"
			},
			wantErr: "must be set together",
		},
		{name: "unknown auth mode", mutate: func(c *Config) { c.Security.AuthMode = "basic" }, wantErr: "AUTH_MODE"},
		{
			name: "auth none in production",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
				c.Security.AuthMode = "none"
			},
			wantErr: "AUTH_MODE=none",
		},
		{
			name: "short secret in production",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
				c.Security.JWTSecret = "short"
			},
			wantErr: "JWT_SECRET",
		},
		{
			name: "default admin password in production",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
				c.Security.JWTSecret = "k8d7F2mQ9vX4pL1sT6wZ3yB0nH5jR8cE"
			},
			wantErr: "ADMIN_PASSWORD",
		},
		{
			name: "wildcard cors in production",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
				c.Security.JWTSecret = "k8d7F2mQ9vX4pL1sT6wZ3yB0nH5jR8cE"
				c.Security.AdminPassword = "Tr1cky!Segment#42"
				c.Security.CORSOrigins = []string{"*"}
			},
			wantErr: "CORS_ORIGINS",
		},
		{name: "rate limit window", mutate: func(c *Config) { c.Security.RateLimitWindow = time.Millisecond }, wantErr: "RATE_LIMIT_WINDOW"},
		{name: "log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestPasswordPolicy(t *testing.T) {
	p := DefaultPasswordPolicy()
	if err := p.ValidateWithError("Tr1cky!Segment#42", "admin"); err != nil {
		t.Errorf("strong password rejected: %v", err)
	}

	problems := p.Validate("aaaa", "admin")
	if len(problems) < 4 {
		t.Errorf("weak password only produced %d problems: %v", len(problems), problems)
	}
	if err := p.ValidateWithError("Admin-Password-2026!", "admin"); err == nil {
		t.Error("password containing the username accepted")
	}
	if err := UserPasswordPolicy().ValidateWithError("secret", "bob"); err != nil {
		t.Errorf("six character user password rejected: %v", err)
	}
	if err := UserPasswordPolicy().ValidateWithError("12345", "bob"); err == nil {
		t.Error("five character user password accepted")
	}
}
