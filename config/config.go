// Package config loads runtime settings for the opname report service.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// jakarta is used when the tz database is unavailable.
var jakarta = time.FixedZone("WIB", 7*60*60)

// Config holds runtime configuration, read from OPNAME_* environment variables.
type Config struct {
	CompanyName string `envconfig:"COMPANY_NAME" default:"PT. SUMBER ALFARIA TRIJAYA, Tbk"`
	BranchLine  string `envconfig:"BRANCH_LINE" default:"BUILDING & MAINTENANCE DEPARTMENT"`
	ReportTitle string `envconfig:"REPORT_TITLE" default:"LAPORAN OPNAME FINAL & RAB"`
	TimeZone    string `envconfig:"TIMEZONE" default:"Asia/Jakarta"`

	PhotoProxyURL    string        `envconfig:"PHOTO_PROXY_URL"`
	PhotoTimeout     time.Duration `envconfig:"PHOTO_TIMEOUT" default:"20s"`
	PhotoConcurrency int           `envconfig:"PHOTO_CONCURRENCY" default:"6"`
	PhotoMaxPixels   int           `envconfig:"PHOTO_MAX_PIXELS" default:"1600"`
	PhotoMaxBytes    int64         `envconfig:"PHOTO_MAX_BYTES" default:"15728640"`

	OutputDir string `envconfig:"OUTPUT_DIR" default:"."`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("opname", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the report pipeline cannot run with.
func (c *Config) Validate() error {
	if c.PhotoConcurrency <= 0 {
		return errors.New("config: photo concurrency must be positive")
	}
	if c.PhotoMaxPixels <= 0 {
		return errors.New("config: photo max pixels must be positive")
	}
	if c.PhotoMaxBytes <= 0 {
		return errors.New("config: photo max bytes must be positive")
	}
	if c.TimeZone != "" {
		if _, err := time.LoadLocation(c.TimeZone); err != nil {
			return fmt.Errorf("config: invalid timezone %q: %w", c.TimeZone, err)
		}
	}
	return nil
}

// DefaultLocation is WIB (UTC+7).
func DefaultLocation() *time.Location {
	return jakarta
}

// Location returns the configured report timezone, or WIB (UTC+7).
func (c *Config) Location() *time.Location {
	if c == nil || c.TimeZone == "" {
		return jakarta
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return jakarta
	}
	return loc
}

// NewLogger returns a slog.Logger honouring LogFormat.
func NewLogger(cfg *Config) *slog.Logger {
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
