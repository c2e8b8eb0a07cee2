// Package constants provides shared constants for the newsvendor optimizer.
package constants

import "time"

// Numeric constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// QuantityTolerance is the tolerance used when comparing order quantities
	QuantityTolerance = 1e-6

	// ProbabilitySumTolerance is how far scenario probabilities may drift
	// from 1 before a warning is raised
	ProbabilitySumTolerance = 1e-6

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Logging constants
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment variable overrides, e.g. NEWSVENDOR_SOLVER_NAME
	EnvPrefix = "NEWSVENDOR"
)

// Solver defaults
const (
	// DefaultSolver is the LP engine used when none is configured
	DefaultSolver = "revised"

	// DefaultSolveTimeout bounds a single problem's solve
	DefaultSolveTimeout = "30s"

	// DefaultSamples is the Monte-Carlo sample count when a sampled problem sets none
	DefaultSamples = 5000

	// LargeScenarioCount is the scenario count above which a warning is raised;
	// solve time grows quadratically in it
	LargeScenarioCount = 5000
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxRequestSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxRequestSizeBytes int64 = 256 * 1024

	// DefaultMaxSolveTimeout caps the solver timeout a request may ask for
	// and bounds the whole request
	DefaultMaxSolveTimeout = time.Minute

	// DefaultMaxSolveParallelism caps the concurrent solves of one request
	DefaultMaxSolveParallelism = 4
)
