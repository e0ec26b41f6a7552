// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/segmentus/config.yaml",
	"/etc/segmentus/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. Development defaults include
// a bootstrap admin so a fresh checkout is usable immediately.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8000,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:      "./data/segmentus.duckdb",
			MaxMemory: "512MB",
			Threads:   0,
		},
		Dataset: DatasetConfig{
			Path:          "./data/customers.csv",
			SyntheticRows: 5000,
			Seed:          42,
		},
		Model: ModelConfig{
			KMin:            2,
			KMax:            10,
			Seed:            42,
			NInit:           10,
			MaxIter:         300,
			TrainOnStartup:  true,
			RetrainInterval: 0,
			TrainTimeout:    10 * time.Minute,
		},
		Artifacts: ArtifactsConfig{
			Backend: "file",
			Dir:     "./models",
			S3: S3Config{
				Region: "us-east-1",
				Prefix: "segmentus",
			},
		},
		Security: SecurityConfig{
			AuthMode:        "jwt",
			SessionTimeout:  24 * time.Hour,
			AdminUsername:   "admin",
			AdminPassword:   "admin123",
			AdminEmail:      "admin@segmentus.local",
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			LoginRateLimit:  10,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			RevocationPath:  "./data/revoked",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
	}
}

// Load reads configuration from defaults, an optional YAML file and the
// environment (ENV > file > defaults), then validates it.
func Load() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile is Load with an explicit YAML path.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns CONFIG_PATH if it exists, else the first default path found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as strings from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(strVal, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names to koanf paths.
var envMappings = map[string]string{
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"dataset_path":           "dataset.path",
	"dataset_synthetic_rows": "dataset.synthetic_rows",
	"dataset_seed":           "dataset.seed",

	"model_k_min":            "model.k_min",
	"model_k_max":            "model.k_max",
	"model_seed":             "model.seed",
	"model_n_init":           "model.n_init",
	"model_max_iter":         "model.max_iter",
	"model_train_on_startup": "model.train_on_startup",
	"model_retrain_interval": "model.retrain_interval",
	"model_train_timeout":    "model.train_timeout",

	"artifact_backend":              "artifacts.backend",
	"artifact_dir":                  "artifacts.dir",
	"artifact_s3_bucket":            "artifacts.s3.bucket",
	"artifact_s3_region":            "artifacts.s3.region",
	"artifact_s3_endpoint":          "artifacts.s3.endpoint",
	"artifact_s3_access_key_id":     "artifacts.s3.access_key_id",
	"artifact_s3_secret_access_key": "artifacts.s3.secret_access_key",
	"artifact_s3_prefix":            "artifacts.s3.prefix",
	"artifact_s3_use_path_style":    "artifacts.s3.use_path_style",

	"auth_mode":           "security.auth_mode",
	"jwt_secret":          "security.jwt_secret",
	"session_timeout":     "security.session_timeout",
	"admin_username":      "security.admin_username",
	"admin_password":      "security.admin_password",
	"admin_email":         "security.admin_email",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"login_rate_limit":    "security.login_rate_limit",
	"cors_origins":        "security.cors_origins",
	"revocation_path":     "security.revocation_path",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"cache_ttl": "cache.ttl",
}

// envTransformFunc maps known variables and drops everything else, so
// unrelated process environment never leaks into the config tree.
//
//   - HTTP_PORT -> server.port
//   - ARTIFACT_S3_BUCKET -> artifacts.s3.bucket
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
