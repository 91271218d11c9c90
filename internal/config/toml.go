// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/conselho/internal/model"
	"github.com/verte-zerg/conselho/internal/schema"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Thresholds ThresholdsConfig `toml:"thresholds"`
	Detect     DetectConfig     `toml:"detect"`
	Output     OutputConfig     `toml:"output"`
	Log        LogConfig        `toml:"log"`
	Mapping    MappingConfig    `toml:"mapping"`
}

// ThresholdsConfig maps risk thresholds.
type ThresholdsConfig struct {
	MinAverage    *float64 `toml:"min-average"`
	MinAttendance *float64 `toml:"min-attendance"`
}

// DetectConfig maps header detection settings.
type DetectConfig struct {
	ScanRows *int `toml:"scan-rows"`
}

// OutputConfig maps report output settings.
type OutputConfig struct {
	Format      *string `toml:"format"`
	BOM         *bool   `toml:"bom"`
	AlertMarker *string `toml:"alert-marker"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// MappingConfig holds per-period header overrides: raw header text to a
// schema field name, or "ignore".
type MappingConfig struct {
	Period1 map[string]string `toml:"period1"`
	Period2 map[string]string `toml:"period2"`
	Period3 map[string]string `toml:"period3"`
}

// ForPeriod returns the raw overrides for period 1, 2 or 3.
func (m MappingConfig) ForPeriod(p int) map[string]string {
	switch p {
	case 1:
		return m.Period1
	case 2:
		return m.Period2
	case 3:
		return m.Period3
	default:
		return nil
	}
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// ParseMapping validates raw overrides. Targets must be schema field names;
// "ignore", "(ignore)" and the empty string drop the column.
func ParseMapping(raw map[string]string) (model.HeaderMapping, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(model.HeaderMapping, len(raw))
	for _, header := range keys {
		target := strings.TrimSpace(raw[header])
		switch strings.ToLower(target) {
		case "", "ignore", string(model.Ignore):
			out[header] = model.Ignore
			continue
		}
		field := model.Field(target)
		if !schema.IsCanonical(field) {
			return nil, fmt.Errorf("mapping for %q: unknown field %q", header, target)
		}
		out[header] = field
	}
	return out, nil
}
