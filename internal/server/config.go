package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/nicholsonjohnc/dsi-optimization/internal/config"
	"github.com/nicholsonjohnc/dsi-optimization/internal/lp"
	"github.com/nicholsonjohnc/dsi-optimization/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address          string               `yaml:"address"`
	MaxRequestSize   string               `yaml:"maxRequestSize"`
	Solve            SolveLimits          `yaml:"solve"`
	Logging          config.LoggingConfig `yaml:"logging"`
	requestSizeBytes int64
}

// SolveLimits bound the work a single request may ask for.
type SolveLimits struct {
	// MaxTimeout caps the per-problem solver timeout and the duration of
	// the whole request.
	MaxTimeout time.Duration `yaml:"maxTimeout"`
	// MaxParallelism caps the concurrent solves of one request.
	MaxParallelism int `yaml:"maxParallelism"`
}

// DefaultSolveLimits returns the limits used when none are configured.
func DefaultSolveLimits() SolveLimits {
	return SolveLimits{
		MaxTimeout:     constants.DefaultMaxSolveTimeout,
		MaxParallelism: constants.DefaultMaxSolveParallelism,
	}
}

func (l SolveLimits) withDefaults() SolveLimits {
	if l.MaxTimeout <= 0 {
		l.MaxTimeout = constants.DefaultMaxSolveTimeout
	}
	if l.MaxParallelism <= 0 {
		l.MaxParallelism = constants.DefaultMaxSolveParallelism
	}
	return l
}

// Apply clamps a request's solver settings to the limits. Requests that
// disable the solver timeout or select an engine that keeps running after
// cancellation are rejected.
func (l SolveLimits) Apply(cfg *config.Configuration) error {
	l = l.withDefaults()
	limits, err := lp.LimitsOf(cfg.Solver.Name)
	if err != nil {
		return err
	}
	if !limits.Interruptible {
		return fmt.Errorf("solver %q cannot be interrupted and is not available over HTTP", cfg.Solver.Name)
	}
	if cfg.Solver.Timeout <= 0 {
		return fmt.Errorf("solver timeout must be positive, got %s", cfg.Solver.Timeout)
	}
	cfg.Solver.Timeout = min(cfg.Solver.Timeout, l.MaxTimeout)
	if cfg.Solver.Parallelism <= 0 || cfg.Solver.Parallelism > l.MaxParallelism {
		cfg.Solver.Parallelism = l.MaxParallelism
	}
	return nil
}

// LoadConfig loads the server configuration from YAML. If the file does not exist,
// defaults are returned without error.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Address:          constants.DefaultServerAddress,
		MaxRequestSize:   strconv.FormatInt(constants.DefaultMaxRequestSizeBytes, 10),
		Solve:            DefaultSolveLimits(),
		requestSizeBytes: constants.DefaultMaxRequestSizeBytes,
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RequestSizeBytes returns the maximum accepted request body in bytes.
func (c *Config) RequestSizeBytes() int64 {
	return c.requestSizeBytes
}

// SetRequestSizeBytes overrides the configured request size.
func (c *Config) SetRequestSizeBytes(size int64) {
	if size > 0 {
		c.requestSizeBytes = size
		c.MaxRequestSize = strconv.FormatInt(size, 10)
	}
}

func (c *Config) normalize() error {
	c.Address = strings.TrimSpace(c.Address)
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}

	size, err := ParseSize(c.MaxRequestSize)
	if err != nil {
		return err
	}
	if size <= 0 {
		size = constants.DefaultMaxRequestSizeBytes
	}
	c.requestSizeBytes = size
	c.MaxRequestSize = strconv.FormatInt(size, 10)

	if c.Solve.MaxTimeout < 0 || c.Solve.MaxParallelism < 0 {
		return fmt.Errorf("solve limits must not be negative, got %+v", c.Solve)
	}
	c.Solve = c.Solve.withDefaults()
	return nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxRequestSizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := strings.IndexFunc(upper, func(r rune) bool { return !unicode.IsDigit(r) })
	if idx == -1 {
		idx = len(upper)
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}

	n, err := strconv.ParseInt(upper[:idx], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var shift uint
	switch unit := strings.TrimSpace(upper[idx:]); unit {
	case "", "B":
	case "K", "KB":
		shift = 10
	case "M", "MB":
		shift = 20
	case "G", "GB":
		shift = 30
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unit)
	}

	if n > (1<<63-1)>>shift {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return n << shift, nil
}
