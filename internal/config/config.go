// Package config loads runtime configuration for the vault.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// JSON schema (durations as "60s" strings or integer nanoseconds):
//
//	{
//	  "backend": "file",
//	  "data_file": "/home/me/.config/securevault/secure_data.json",
//	  "dsn": "postgres://...",
//	  "salt": "secure_salt_Value",
//	  "kdf_iterations": 100000,
//	  "lockout_threshold": 3,
//	  "lockout_duration": "60s",
//	  "log_level": "info",
//	  "dev": false
//	}
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	pkgcrypto "github.com/and161185/secure-vault/internal/crypto"
)

// Storage backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// MinKDFIterations is the lowest iteration count accepted from configuration.
const MinKDFIterations = 100_000

// Config holds every tunable of the vault.
type Config struct {
	Backend          string
	DataFile         string
	DSN              string
	Salt             string
	KDFIterations    int
	LockoutThreshold int
	LockoutDuration  time.Duration
	LogLevel         string
	Dev              bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Backend = BackendFile
	c.DataFile = filepath.Join(cfgDir(), "secure_data.json")
	c.DSN = ""
	c.Salt = pkgcrypto.DefaultSalt
	c.KDFIterations = pkgcrypto.DefaultIterations
	c.LockoutThreshold = 3
	c.LockoutDuration = 60 * time.Second
	c.LogLevel = "info"
	c.Dev = false
}

// Load builds a Config from defaults, then the JSON file named by -c/-config
// (if any), then the remaining flags in args. args excludes the program name.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	fl, err := parseFlags(args, *cfg)
	if err != nil {
		return nil, err
	}
	if fl.configPath != "" {
		if err := parseJSON(fl.configPath, cfg); err != nil {
			return nil, err
		}
	}
	fl.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the vault cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendFile:
		if c.DataFile == "" {
			errs = append(errs, errors.New("data file path is empty"))
		}
	case BackendPostgres:
		if c.DSN == "" {
			errs = append(errs, errors.New("postgres backend requires a DSN"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	if c.Salt == "" {
		errs = append(errs, errors.New("salt is empty"))
	}
	if c.KDFIterations < MinKDFIterations {
		errs = append(errs, fmt.Errorf("kdf iterations %d below minimum %d", c.KDFIterations, MinKDFIterations))
	}
	if c.LockoutThreshold < 1 {
		errs = append(errs, fmt.Errorf("lockout threshold must be >= 1, got %d", c.LockoutThreshold))
	}
	if c.LockoutDuration <= 0 {
		errs = append(errs, fmt.Errorf("lockout duration must be positive, got %s", c.LockoutDuration))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "securevault")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "securevault")
}
