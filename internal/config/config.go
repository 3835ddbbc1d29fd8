// Package config loads the optional JSON config file for the CLI. Every
// field is a pointer so a partial file only overrides what it names;
// the Get* accessors supply defaults for the rest.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/beam.report/internal/capture"
	"github.com/banshee-data/beam.report/internal/histogram"
)

// Config represents the root configuration for the beam tool. The same
// schema works for a full site config and for a one-field override file.
type Config struct {
	// Endpoint is the XML-RPC URL of the RayCi control server.
	Endpoint *string `json:"endpoint,omitempty"`

	// RequestTimeout bounds a single RPC round trip, as a duration
	// string like "10s".
	RequestTimeout *string `json:"request_timeout,omitempty"`

	// Retries is how many times a call is retried after a transport
	// failure before giving up.
	Retries *int `json:"retries,omitempty"`

	// Capture params
	OutputDir     *string `json:"output_dir,omitempty"`
	DefaultFormat *string `json:"default_format,omitempty"` // "png" or "fits"
	NameAttempts  *int    `json:"name_attempts,omitempty"`

	// CaptureIndex is the path of a SQLite journal of past captures.
	// Empty disables journaling.
	CaptureIndex *string `json:"capture_index,omitempty"`

	// Histogram params
	HistogramBins *int `json:"histogram_bins,omitempty"`
}

// Helper functions to create pointers
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// EmptyConfig returns a Config with all fields set to nil, so every
// accessor falls back to its default.
func EmptyConfig() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file. The file must have a .json
// extension and stay under the max file size. Fields omitted from the
// JSON keep their defaults, so partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.RequestTimeout != nil && *c.RequestTimeout != "" {
		d, err := time.ParseDuration(*c.RequestTimeout)
		if err != nil {
			return fmt.Errorf("invalid request_timeout '%s': %w", *c.RequestTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("request_timeout must be positive, got %s", d)
		}
	}

	if c.Retries != nil && *c.Retries < 0 {
		return fmt.Errorf("retries must be non-negative, got %d", *c.Retries)
	}

	if c.DefaultFormat != nil && *c.DefaultFormat != "" {
		if _, err := capture.ParseFormat(*c.DefaultFormat); err != nil {
			return fmt.Errorf("invalid default_format '%s': %w", *c.DefaultFormat, err)
		}
	}

	if c.NameAttempts != nil && *c.NameAttempts < 1 {
		return fmt.Errorf("name_attempts must be at least 1, got %d", *c.NameAttempts)
	}

	if c.HistogramBins != nil && *c.HistogramBins < 1 {
		return fmt.Errorf("histogram_bins must be at least 1, got %d", *c.HistogramBins)
	}

	return nil
}

// GetEndpoint returns the endpoint value or the default.
func (c *Config) GetEndpoint() string {
	if c.Endpoint == nil || *c.Endpoint == "" {
		return "http://localhost:8080/RPC2" // default
	}
	return *c.Endpoint
}

// GetRequestTimeout parses and returns the RequestTimeout as a time.Duration.
func (c *Config) GetRequestTimeout() time.Duration {
	if c.RequestTimeout == nil || *c.RequestTimeout == "" {
		return 10 * time.Second // default
	}
	d, err := time.ParseDuration(*c.RequestTimeout)
	if err != nil {
		return 10 * time.Second // default on parse error
	}
	return d
}

// GetRetries returns the retries value or the default.
func (c *Config) GetRetries() int {
	if c.Retries == nil {
		return 0 // default: fail on the first transport error
	}
	return *c.Retries
}

// GetOutputDir returns the output_dir value or the default.
func (c *Config) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "." // default
	}
	return *c.OutputDir
}

// GetDefaultFormat returns the default_format value parsed as a capture
// format, or PNG.
func (c *Config) GetDefaultFormat() capture.Format {
	if c.DefaultFormat == nil || *c.DefaultFormat == "" {
		return capture.FormatPNG
	}
	f, err := capture.ParseFormat(*c.DefaultFormat)
	if err != nil {
		return capture.FormatPNG // default on parse error
	}
	return f
}

// GetNameAttempts returns the name_attempts value or the default.
func (c *Config) GetNameAttempts() int {
	if c.NameAttempts == nil {
		return capture.DefaultNameAttempts
	}
	return *c.NameAttempts
}

// GetCaptureIndex returns the capture_index path, or "" when journaling
// is disabled.
func (c *Config) GetCaptureIndex() string {
	if c.CaptureIndex == nil {
		return ""
	}
	return *c.CaptureIndex
}

// GetHistogramBins returns the histogram_bins value or the default.
func (c *Config) GetHistogramBins() int {
	if c.HistogramBins == nil {
		return histogram.DefaultBinCount
	}
	return *c.HistogramBins
}
