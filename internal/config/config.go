package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"retortweb/internal/extract"
	"retortweb/internal/lethality"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHTTPAddr       = ":8080"
	DefaultMaxUploadBytes = 10 << 20
	DefaultMaxRows        = 10000
	DefaultCacheEntries   = 256
	DefaultAuditLogPath   = "retort_audit_log.csv"
)

// Config is the top-level configuration. Fields map 1:1 to config.example.yaml.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Lethality  LethalityConfig  `yaml:"lethality"`
	Extraction ExtractionConfig `yaml:"extraction"`
	AuditLog   AuditLogConfig   `yaml:"audit_log"`
}

// ServerConfig holds the HTTP front end settings.
type ServerConfig struct {
	// HTTPAddr is the listen address, e.g. ":8080".
	HTTPAddr string `yaml:"http_addr"`

	// MaxUploadBytes caps the multipart body of an upload.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// MaxRows rejects spreadsheets with more rows than this.
	MaxRows int `yaml:"max_rows"`

	// CacheEntries bounds how many recent evaluations stay downloadable.
	CacheEntries int `yaml:"cache_entries"`
}

// LogConfig selects the slog level: debug | info | warn | error.
type LogConfig struct {
	Level string `yaml:"level"`
}

// LethalityConfig mirrors lethality.Config.
type LethalityConfig struct {
	ReferenceTemp float64 `yaml:"reference_temp"`
	ZValue        float64 `yaml:"z_value"`

	// Floor is practical (skip samples below FloorTemp) or canonical
	// (apply the formula to every sample). Required.
	Floor     string  `yaml:"floor"`
	FloorTemp float64 `yaml:"floor_temp"`

	// HoldPolicy is consecutive or total.
	HoldPolicy     string  `yaml:"hold_policy"`
	MinHoldTemp    float64 `yaml:"min_hold_temp"`
	MinHoldMinutes int     `yaml:"min_hold_minutes"`
}

// Core converts c to the calculator's config type.
func (c LethalityConfig) Core() lethality.Config {
	return lethality.Config{
		ReferenceTemp:  c.ReferenceTemp,
		ZValue:         c.ZValue,
		Floor:          lethality.FloorPolicy(c.Floor),
		FloorTemp:      c.FloorTemp,
		HoldPolicy:     lethality.HoldPolicy(c.HoldPolicy),
		MinHoldTemp:    c.MinHoldTemp,
		MinHoldMinutes: c.MinHoldMinutes,
	}
}

// ExtractionConfig mirrors extract.Options.
type ExtractionConfig struct {
	// Marker identifies the header row. An empty string means row 1 is
	// the header.
	Marker           string  `yaml:"marker"`
	HeaderKeyword    string  `yaml:"header_keyword"`
	Threshold        float64 `yaml:"threshold"`
	MinCount         int     `yaml:"min_count"`
	FallbackColumn   int     `yaml:"fallback_column"`
	PressureMinCount int     `yaml:"pressure_min_count"`
}

// Options converts c to the extractor's option type.
func (c ExtractionConfig) Options() extract.Options {
	return extract.Options{
		Marker:           c.Marker,
		HeaderKeyword:    c.HeaderKeyword,
		Threshold:        c.Threshold,
		MinCount:         c.MinCount,
		FallbackColumn:   c.FallbackColumn,
		PressureMinCount: c.PressureMinCount,
	}
}

// AuditLogConfig configures the append-only CSV evaluation log.
type AuditLogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data)
}

// Parse is Load without the file read.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values. The floor
// policy is intentionally left empty.
func defaults() *Config {
	ex := extract.DefaultOptions()
	return &Config{
		Server: ServerConfig{
			HTTPAddr:       DefaultHTTPAddr,
			MaxUploadBytes: DefaultMaxUploadBytes,
			MaxRows:        DefaultMaxRows,
			CacheEntries:   DefaultCacheEntries,
		},
		Log: LogConfig{Level: "info"},
		Lethality: LethalityConfig{
			ReferenceTemp:  lethality.DefaultReferenceTemp,
			ZValue:         lethality.DefaultZValue,
			FloorTemp:      lethality.PracticalFloorTemp,
			HoldPolicy:     string(lethality.HoldConsecutive),
			MinHoldTemp:    lethality.DefaultMinHoldTemp,
			MinHoldMinutes: lethality.DefaultMinHoldMinutes,
		},
		Extraction: ExtractionConfig{
			Marker:           ex.Marker,
			Threshold:        ex.Threshold,
			MinCount:         ex.MinCount,
			FallbackColumn:   ex.FallbackColumn,
			PressureMinCount: ex.PressureMinCount,
		},
		AuditLog: AuditLogConfig{
			Enabled: true,
			Path:    DefaultAuditLogPath,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	if cfg.Server.MaxRows <= 0 {
		return fmt.Errorf("server.max_rows must be positive")
	}
	if cfg.Server.CacheEntries <= 0 {
		return fmt.Errorf("server.cache_entries must be positive")
	}
	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	if err := cfg.Lethality.Core().Validate(); err != nil {
		return fmt.Errorf("lethality: %w", err)
	}
	if math.IsNaN(cfg.Extraction.Threshold) || math.IsInf(cfg.Extraction.Threshold, 0) {
		return fmt.Errorf("extraction.threshold must be finite")
	}
	if cfg.Extraction.MinCount < 0 {
		return fmt.Errorf("extraction.min_count must not be negative")
	}
	if cfg.AuditLog.Enabled && cfg.AuditLog.Path == "" {
		return fmt.Errorf("audit_log.path is required when audit_log.enabled is true")
	}
	return nil
}

// ParseLevel maps a config level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log.level: unknown level %q", s)
	}
}
