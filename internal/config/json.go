package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Duration decodes from "60s"-style strings or integer nanoseconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		d.Duration = time.Duration(x)
	case string:
		p, err := time.ParseDuration(x)
		if err != nil {
			return err
		}
		d.Duration = p
	default:
		return errors.New("invalid duration")
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// jsonConfig is the file DTO. Pointer fields distinguish "absent" from zero.
type jsonConfig struct {
	Backend          *string   `json:"backend"`
	DataFile         *string   `json:"data_file"`
	DSN              *string   `json:"dsn"`
	Salt             *string   `json:"salt"`
	KDFIterations    *int      `json:"kdf_iterations"`
	LockoutThreshold *int      `json:"lockout_threshold"`
	LockoutDuration  *Duration `json:"lockout_duration"`
	LogLevel         *string   `json:"log_level"`
	Dev              *bool     `json:"dev"`
}

// parseJSON overlays cfg with the keys present in the file at path.
func parseJSON(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}

	if jc.Backend != nil {
		cfg.Backend = *jc.Backend
	}
	if jc.DataFile != nil {
		cfg.DataFile = *jc.DataFile
	}
	if jc.DSN != nil {
		cfg.DSN = *jc.DSN
	}
	if jc.Salt != nil {
		cfg.Salt = *jc.Salt
	}
	if jc.KDFIterations != nil {
		cfg.KDFIterations = *jc.KDFIterations
	}
	if jc.LockoutThreshold != nil {
		cfg.LockoutThreshold = *jc.LockoutThreshold
	}
	if jc.LockoutDuration != nil {
		cfg.LockoutDuration = jc.LockoutDuration.Duration
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
	if jc.Dev != nil {
		cfg.Dev = *jc.Dev
	}
	return nil
}
