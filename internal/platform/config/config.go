// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. A local '.env' file,
when present, is read first with 'joho/godotenv' so development setups do not
need exported variables.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, storage) via constructors.
  - Precedence: Real environment variables always win over '.env' entries.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Configuration Schema

// Config holds all runtime configuration for the MotionMaster API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL              string        `env:"DATABASE_URL,required"`
	DatabaseMaxConns         int32         `env:"DATABASE_MAX_CONNS"         envDefault:"20"`
	DatabaseStatementTimeout time.Duration `env:"DATABASE_STATEMENT_TIMEOUT" envDefault:"30s"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Cryptographic keys for identity signing
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// Blob storage for uploaded videos and poster frames
	StorageRoot   string `env:"STORAGE_ROOT"    envDefault:"./data/blobs"`
	MaxVideoBytes int64  `env:"MAX_VIDEO_BYTES" envDefault:"524288000"`
	MaxFrameBytes int64  `env:"MAX_FRAME_BYTES" envDefault:"10485760"`

	// Region selection rendering
	MaxDisplayHeight float64 `env:"MAX_DISPLAY_HEIGHT" envDefault:"400"`

	// Simulated analysis pacing
	AnalysisTick   time.Duration `env:"ANALYSIS_TICK"   envDefault:"200ms"`
	AnalysisSettle time.Duration `env:"ANALYSIS_SETTLE" envDefault:"1s"`

	// Cross-Origin Resource Sharing
	AllowedOriginSuffix string `env:"ALLOWED_ORIGIN_SUFFIX" envDefault:"motionmaster.app"`
}

// # Configuration Loading

// Load reads an optional '.env' file and parses environment variables into a [Config].
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read env file: %w", err)
	}

	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.MaxVideoBytes <= 0 || cfg.MaxFrameBytes <= 0 {
		return nil, fmt.Errorf("config: upload limits must be positive")
	}

	if cfg.AnalysisTick <= 0 {
		return nil, fmt.Errorf("config: ANALYSIS_TICK must be positive")
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowsOrigin reports whether a browser origin may call the API.
func (c *Config) AllowsOrigin(origin string) bool {
	if c.IsDevelopment() {
		return true
	}
	return c.AllowedOriginSuffix != "" && strings.HasSuffix(origin, c.AllowedOriginSuffix)
}
