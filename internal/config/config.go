// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - Load layers a YAML file and MATCHUP_ environment variables on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"runtime"
	"strings"
	"time"
)

// ErrInvalidConfig marks a Config that failed Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// PredictorBaseURL is the prediction backend serving /api/teams and /api/predict.
	PredictorBaseURL string `koanf:"predictor_base_url"`

	// PredictorTimeout bounds each backend call.
	PredictorTimeout time.Duration `koanf:"predictor_timeout"`

	// WorkerCount sets the number of prediction workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the prediction job queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize bounds the remembered idempotency keys.
	DedupeSize int `koanf:"dedupe_size"`

	// SessionTTL expires sessions idle for longer than this.
	SessionTTL time.Duration `koanf:"session_ttl"`

	// MaxSessions caps open sessions.
	MaxSessions int `koanf:"max_sessions"`

	// MCPEnabled mounts the MCP endpoint at MCPPath.
	MCPEnabled bool   `koanf:"mcp_enabled"`
	MCPPath    string `koanf:"mcp_path"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":8080",
		PredictorBaseURL: "http://localhost:5000",
		PredictorTimeout: 10 * time.Second,
		WorkerCount:      runtime.NumCPU(),
		QueueSize:        256,
		DedupeSize:       4096,
		SessionTTL:       30 * time.Minute,
		MaxSessions:      10_000,
		MCPEnabled:       true,
		MCPPath:          "/mcp",
		ShutdownTimeout:  10 * time.Second,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.MaxSessions <= 0:
		return fmt.Errorf("%w: max_sessions must be positive, got %d", ErrInvalidConfig, c.MaxSessions)
	case c.PredictorTimeout <= 0:
		return fmt.Errorf("%w: predictor_timeout must be positive", ErrInvalidConfig)
	case c.SessionTTL <= 0:
		return fmt.Errorf("%w: session_ttl must be positive", ErrInvalidConfig)
	case c.MCPEnabled && !strings.HasPrefix(c.MCPPath, "/"):
		return fmt.Errorf("%w: mcp_path must start with /, got %q", ErrInvalidConfig, c.MCPPath)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	u, err := url.Parse(c.PredictorBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: predictor_base_url must be an http(s) URL, got %q", ErrInvalidConfig, c.PredictorBaseURL)
	}
	return nil
}
