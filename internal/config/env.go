package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by LoadEnv.
const EnvPrefix = "conselho"

// EnvConfig holds settings read from CONSELHO_* environment variables.
// Unset variables stay nil.
type EnvConfig struct {
	MinAverage    *float64 `envconfig:"MIN_AVERAGE"`
	MinAttendance *float64 `envconfig:"MIN_ATTENDANCE"`
	ScanRows      *int     `envconfig:"SCAN_ROWS"`
	LogLevel      *string  `envconfig:"LOG_LEVEL"`
}

// LoadEnv reads the environment.
func LoadEnv() (EnvConfig, error) {
	var env EnvConfig
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return EnvConfig{}, fmt.Errorf("failed to read environment: %w", err)
	}
	return env, nil
}

// WithEnv returns cfg with every value set in env taking precedence.
func (cfg FileConfig) WithEnv(env EnvConfig) FileConfig {
	if env.MinAverage != nil {
		cfg.Thresholds.MinAverage = env.MinAverage
	}
	if env.MinAttendance != nil {
		cfg.Thresholds.MinAttendance = env.MinAttendance
	}
	if env.ScanRows != nil {
		cfg.Detect.ScanRows = env.ScanRows
	}
	if env.LogLevel != nil {
		cfg.Log.Level = env.LogLevel
	}
	return cfg
}
