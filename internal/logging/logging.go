// Package logging builds zap loggers from the logging configuration section.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nicholsonjohnc/dsi-optimization/internal/config"
	"github.com/nicholsonjohnc/dsi-optimization/pkg/constants"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a zap logger based on configuration and a CLI override.
func New(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	zapConfig, err := BuildConfig(loggingConfig, logLevelOverride)
	if err != nil {
		return nil, err
	}
	return zapConfig.Build()
}

// BuildConfig resolves the zap configuration without building the logger.
func BuildConfig(loggingConfig config.LoggingConfig, logLevelOverride string) (zap.Config, error) {
	// CLI override takes precedence
	level := strings.ToLower(strings.TrimSpace(loggingConfig.Level))
	if override := strings.ToLower(strings.TrimSpace(logLevelOverride)); override != "" {
		level = override
	}
	if level == "" {
		level = constants.LogLevelInfo
	}

	var zapLevel zapcore.Level
	switch level {
	case constants.LogLevelDebug:
		zapLevel = zapcore.DebugLevel
	case constants.LogLevelInfo:
		zapLevel = zapcore.InfoLevel
	case constants.LogLevelWarn, "warning":
		zapLevel = zapcore.WarnLevel
	case constants.LogLevelError:
		zapLevel = zapcore.ErrorLevel
	default:
		return zap.Config{}, fmt.Errorf("invalid log level: %s", level)
	}

	format := strings.ToLower(strings.TrimSpace(loggingConfig.Format))
	if format == "" {
		format = constants.LogFormatJSON
	}

	var zapConfig zap.Config
	switch format {
	case constants.LogFormatConsole:
		zapConfig = zap.NewDevelopmentConfig()
	case constants.LogFormatJSON:
		zapConfig = zap.NewProductionConfig()
	default:
		return zap.Config{}, fmt.Errorf("invalid log format: %s", format)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)

	// Logs go to stderr so results on stdout stay machine-readable
	zapConfig.OutputPaths = []string{"stderr"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return zap.Config{}, fmt.Errorf("failed to create log directory %s: %w", dir, err)
			}
		}

		file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zap.Config{}, fmt.Errorf("failed to open log file %s: %w", loggingConfig.OutputFile, err)
		}
		_ = file.Close()

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig, nil
}
