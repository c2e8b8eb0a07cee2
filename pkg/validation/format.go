// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/nicholsonjohnc/dsi-optimization/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON:
		return nil
	}
	return fmt.Errorf("expected output format of %s, %s or %s, got %s",
		constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON, format)
}

// ValidateLogLevel checks a logging level. An empty level is accepted and
// means the default.
func ValidateLogLevel(level string) error {
	switch level {
	case "", constants.LogLevelDebug, constants.LogLevelInfo, constants.LogLevelWarn, constants.LogLevelError:
		return nil
	}
	return fmt.Errorf("expected log level of debug, info, warn or error, got %s", level)
}

// ValidateLogFormat checks a logging encoder name. An empty format is
// accepted and means the default.
func ValidateLogFormat(format string) error {
	switch format {
	case "", constants.LogFormatConsole, constants.LogFormatJSON:
		return nil
	}
	return fmt.Errorf("expected log format of %s or %s, got %s", constants.LogFormatConsole, constants.LogFormatJSON, format)
}
