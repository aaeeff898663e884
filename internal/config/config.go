// Package config loads and validates the tuning parameters that govern
// screening and ingestion, per spec.md §6's configuration table.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Salad109/satellite-conjunction-api/internal/security"
)

// ScreeningConfig holds the recognized configuration options from
// spec.md §6. Fields are pointers so a partial JSON document leaves
// unspecified options at their documented default, mirroring the
// teacher's TuningConfig pattern.
type ScreeningConfig struct {
	ToleranceKM           *float64 `json:"tolerance_km,omitempty"`
	ThresholdKM           *float64 `json:"threshold_km,omitempty"`
	LookaheadHours        *float64 `json:"lookahead_hours,omitempty"`
	StepSeconds           *float64 `json:"step_seconds,omitempty"`
	BatchSize             *int     `json:"batch_size,omitempty"`
	IngestionScheduleCron *string  `json:"ingestion_schedule_cron,omitempty"`
	ScreeningScheduleCron *string  `json:"screening_schedule_cron,omitempty"`
}

// Empty returns a ScreeningConfig with every field unset (nil), so every
// Get* accessor below falls back to its documented default.
func Empty() *ScreeningConfig {
	return &ScreeningConfig{}
}

// Load reads a ScreeningConfig from a JSON file. The path is validated to
// live within the current working directory tree (or the OS temp
// directory, for test fixtures) to guard against path-traversal input
// from an untrusted caller, mirroring internal/security's path-validation
// helper.
func Load(path string) (*ScreeningConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: resolve working directory: %w", err)
	}
	if err := security.ValidatePathWithinAllowedDirs(path, []string{cwd, os.TempDir()}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that set fields hold sane values.
func (c *ScreeningConfig) Validate() error {
	if c.ToleranceKM != nil && *c.ToleranceKM <= 0 {
		return fmt.Errorf("tolerance_km must be positive, got %f", *c.ToleranceKM)
	}
	if c.ThresholdKM != nil && *c.ThresholdKM <= 0 {
		return fmt.Errorf("threshold_km must be positive, got %f", *c.ThresholdKM)
	}
	if c.LookaheadHours != nil && *c.LookaheadHours <= 0 {
		return fmt.Errorf("lookahead_hours must be positive, got %f", *c.LookaheadHours)
	}
	if c.StepSeconds != nil && *c.StepSeconds <= 0 {
		return fmt.Errorf("step_seconds must be positive, got %f", *c.StepSeconds)
	}
	if c.BatchSize != nil && *c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", *c.BatchSize)
	}
	return nil
}

// GetToleranceKM returns tolerance_km or its default (50, per spec.md §6).
func (c *ScreeningConfig) GetToleranceKM() float64 {
	if c.ToleranceKM == nil {
		return 50
	}
	return *c.ToleranceKM
}

// GetThresholdKM returns threshold_km or its default (5.0).
func (c *ScreeningConfig) GetThresholdKM() float64 {
	if c.ThresholdKM == nil {
		return 5.0
	}
	return *c.ThresholdKM
}

// GetLookaheadHours returns lookahead_hours or its default (24).
func (c *ScreeningConfig) GetLookaheadHours() float64 {
	if c.LookaheadHours == nil {
		return 24
	}
	return *c.LookaheadHours
}

// GetLookahead returns lookahead_hours as a time.Duration.
func (c *ScreeningConfig) GetLookahead() time.Duration {
	return time.Duration(c.GetLookaheadHours() * float64(time.Hour))
}

// GetStepSeconds returns step_seconds or its default (3).
func (c *ScreeningConfig) GetStepSeconds() float64 {
	if c.StepSeconds == nil {
		return 3
	}
	return *c.StepSeconds
}

// GetStep returns step_seconds as a time.Duration.
func (c *ScreeningConfig) GetStep() time.Duration {
	return time.Duration(c.GetStepSeconds() * float64(time.Second))
}

// GetBatchSize returns batch_size or its default (1000).
func (c *ScreeningConfig) GetBatchSize() int {
	if c.BatchSize == nil {
		return 1000
	}
	return *c.BatchSize
}

// GetIngestionScheduleCron returns ingestion.schedule.cron or its default
// (21 minutes past every sixth hour, per spec.md §6).
func (c *ScreeningConfig) GetIngestionScheduleCron() string {
	if c.IngestionScheduleCron == nil || *c.IngestionScheduleCron == "" {
		return "21 */6 * * *"
	}
	return *c.IngestionScheduleCron
}

// GetScreeningScheduleCron returns the screening cron expression, or ""
// if screening is only triggered manually/via the HTTP surface (the
// reference behavior per spec.md §6).
func (c *ScreeningConfig) GetScreeningScheduleCron() string {
	if c.ScreeningScheduleCron == nil {
		return ""
	}
	return *c.ScreeningScheduleCron
}
