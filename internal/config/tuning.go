// Package config loads and validates runtime tuning for the counting
// pipeline. All values are optional in the JSON file; the Get* accessors
// supply the production defaults for anything omitted, so partial configs
// are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/formsense/repcoach/internal/engine"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tuning parameters.
// The schema matches the /api/config endpoint so the same JSON can be used
// for both startup configuration and runtime inspection.
type TuningConfig struct {
	// Counter params
	ProbabilityThreshold *float64 `json:"probability_threshold,omitempty"`
	StabilityFrames      *int     `json:"stability_frames,omitempty"`
	MinRepInterval       *string  `json:"min_rep_interval,omitempty"` // duration string like "800ms"
	QualityThreshold     *float64 `json:"quality_threshold,omitempty"`
	MaxHistory           *int     `json:"max_history,omitempty"`
	SmoothingWindow      *int     `json:"smoothing_window,omitempty"`

	// Ingest quality gate params
	MinVisibleLandmarks *int     `json:"min_visible_landmarks,omitempty"`
	VisibilityThreshold *float64 `json:"visibility_threshold,omitempty"`

	// Transport params
	HTTPAddr   *string `json:"http_addr,omitempty"`
	UDPAddr    *string `json:"udp_addr,omitempty"`
	SerialPort *string `json:"serial_port,omitempty"` // empty disables the serial source
	SerialBaud *int    `json:"serial_baud,omitempty"`

	// Storage params
	DBPath         *string `json:"db_path,omitempty"` // empty disables persistence
	DefaultSession *string `json:"default_exercise,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must
// have a .json extension and stay under the max file size. Fields omitted
// from the JSON retain their defaults.
func LoadTuningConfig(path string) (*TuningConfig, error) {
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

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.ProbabilityThreshold != nil {
		if *c.ProbabilityThreshold <= 0.5 || *c.ProbabilityThreshold >= 1 {
			return fmt.Errorf("probability_threshold must be in (0.5, 1), got %f", *c.ProbabilityThreshold)
		}
	}

	if c.StabilityFrames != nil && *c.StabilityFrames < 1 {
		return fmt.Errorf("stability_frames must be >= 1, got %d", *c.StabilityFrames)
	}

	if c.MinRepInterval != nil && *c.MinRepInterval != "" {
		if _, err := time.ParseDuration(*c.MinRepInterval); err != nil {
			return fmt.Errorf("invalid min_rep_interval '%s': %w", *c.MinRepInterval, err)
		}
	}

	if c.QualityThreshold != nil {
		if *c.QualityThreshold < 0 || *c.QualityThreshold > 1 {
			return fmt.Errorf("quality_threshold must be between 0 and 1, got %f", *c.QualityThreshold)
		}
	}

	if c.MaxHistory != nil && *c.MaxHistory < 1 {
		return fmt.Errorf("max_history must be >= 1, got %d", *c.MaxHistory)
	}

	if c.SmoothingWindow != nil && *c.SmoothingWindow < 1 {
		return fmt.Errorf("smoothing_window must be >= 1, got %d", *c.SmoothingWindow)
	}

	if c.MinVisibleLandmarks != nil {
		if *c.MinVisibleLandmarks < 0 || *c.MinVisibleLandmarks > 33 {
			return fmt.Errorf("min_visible_landmarks must be between 0 and 33, got %d", *c.MinVisibleLandmarks)
		}
	}

	if c.VisibilityThreshold != nil {
		if *c.VisibilityThreshold < 0 || *c.VisibilityThreshold > 1 {
			return fmt.Errorf("visibility_threshold must be between 0 and 1, got %f", *c.VisibilityThreshold)
		}
	}

	if c.SerialBaud != nil && *c.SerialBaud <= 0 {
		return fmt.Errorf("serial_baud must be positive, got %d", *c.SerialBaud)
	}

	if c.DefaultSession != nil && *c.DefaultSession != "" {
		if _, err := engine.ParseExercise(*c.DefaultSession); err != nil {
			return fmt.Errorf("invalid default_exercise: %w", err)
		}
	}

	return nil
}

// CountingConfig assembles the engine configuration from the tuning values
// and their defaults.
func (c *TuningConfig) CountingConfig() engine.CountingConfig {
	return engine.CountingConfig{
		ProbabilityThreshold: c.GetProbabilityThreshold(),
		StabilityFrames:      c.GetStabilityFrames(),
		MinRepInterval:       c.GetMinRepInterval(),
		QualityThreshold:     c.GetQualityThreshold(),
		MaxHistory:           c.GetMaxHistory(),
		SmoothingWindow:      c.GetSmoothingWindow(),
	}
}

// GetProbabilityThreshold returns the probability_threshold value or the default.
func (c *TuningConfig) GetProbabilityThreshold() float64 {
	if c.ProbabilityThreshold == nil {
		return engine.DefaultProbabilityThreshold
	}
	return *c.ProbabilityThreshold
}

// GetStabilityFrames returns the stability_frames value or the default.
func (c *TuningConfig) GetStabilityFrames() int {
	if c.StabilityFrames == nil {
		return engine.DefaultStabilityFrames
	}
	return *c.StabilityFrames
}

// GetMinRepInterval parses and returns the MinRepInterval as a time.Duration.
func (c *TuningConfig) GetMinRepInterval() time.Duration {
	if c.MinRepInterval == nil || *c.MinRepInterval == "" {
		return engine.DefaultMinRepInterval
	}
	d, err := time.ParseDuration(*c.MinRepInterval)
	if err != nil {
		return engine.DefaultMinRepInterval // default on parse error
	}
	return d
}

// GetQualityThreshold returns the quality_threshold value or the default.
func (c *TuningConfig) GetQualityThreshold() float64 {
	if c.QualityThreshold == nil {
		return engine.DefaultQualityThreshold
	}
	return *c.QualityThreshold
}

// GetMaxHistory returns the max_history value or the default.
func (c *TuningConfig) GetMaxHistory() int {
	if c.MaxHistory == nil {
		return engine.DefaultMaxHistory
	}
	return *c.MaxHistory
}

// GetSmoothingWindow returns the smoothing_window value or the default.
func (c *TuningConfig) GetSmoothingWindow() int {
	if c.SmoothingWindow == nil {
		return engine.DefaultSmoothingWindow
	}
	return *c.SmoothingWindow
}

// GetMinVisibleLandmarks returns the min_visible_landmarks value or the default.
func (c *TuningConfig) GetMinVisibleLandmarks() int {
	if c.MinVisibleLandmarks == nil {
		return 10
	}
	return *c.MinVisibleLandmarks
}

// GetVisibilityThreshold returns the visibility_threshold value or the default.
func (c *TuningConfig) GetVisibilityThreshold() float64 {
	if c.VisibilityThreshold == nil {
		return 0.5
	}
	return *c.VisibilityThreshold
}

// GetHTTPAddr returns the http_addr value or the default.
func (c *TuningConfig) GetHTTPAddr() string {
	if c.HTTPAddr == nil || *c.HTTPAddr == "" {
		return ":8080"
	}
	return *c.HTTPAddr
}

// GetUDPAddr returns the udp_addr value or the default.
func (c *TuningConfig) GetUDPAddr() string {
	if c.UDPAddr == nil || *c.UDPAddr == "" {
		return ":9100"
	}
	return *c.UDPAddr
}

// GetSerialPort returns the serial_port value; empty means disabled.
func (c *TuningConfig) GetSerialPort() string {
	if c.SerialPort == nil {
		return ""
	}
	return *c.SerialPort
}

// GetSerialBaud returns the serial_baud value or the default.
func (c *TuningConfig) GetSerialBaud() int {
	if c.SerialBaud == nil {
		return 115200
	}
	return *c.SerialBaud
}

// GetDBPath returns the db_path value or the default.
func (c *TuningConfig) GetDBPath() string {
	if c.DBPath == nil {
		return "repcoach.db"
	}
	return *c.DBPath
}

// GetDefaultExercise returns the default_exercise value; empty means no
// session is started until one is selected over the API.
func (c *TuningConfig) GetDefaultExercise() string {
	if c.DefaultSession == nil {
		return ""
	}
	return *c.DefaultSession
}
