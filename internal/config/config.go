// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nicholsonjohnc/dsi-optimization/pkg/configprocessor"
	"github.com/nicholsonjohnc/dsi-optimization/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for the newsvendor optimizer.
type Configuration struct {
	Solver   SolverConfig    `yaml:"solver,omitempty" mapstructure:"solver"`
	Problems []ProblemConfig `yaml:"problems" mapstructure:"problems"`
	Logging  LoggingConfig   `yaml:"logging,omitempty" mapstructure:"logging"`
	Output   OutputConfig    `yaml:"output,omitempty" mapstructure:"output"`
}

// SolverConfig selects and tunes the LP engine.
type SolverConfig struct {
	Name      string  `yaml:"name,omitempty" mapstructure:"name"`
	Tolerance float64 `yaml:"tolerance,omitempty" mapstructure:"tolerance"`
	// Timeout bounds each problem's solve; 0 disables it.
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	// Parallelism caps concurrent solves; 0 means one worker per CPU.
	Parallelism int `yaml:"parallelism,omitempty" mapstructure:"parallelism"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a configuration document of the given
// type ("yaml" or "json") from r.
func LoadConfigurationFromReader(r io.Reader, configType string) (*Configuration, error) {
	v := newViper()
	configType = strings.ToLower(strings.TrimSpace(configType))
	if configType == "" || configType == "yml" {
		configType = "yaml"
	}
	v.SetConfigType(configType)

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading configuration, %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("solver.name", constants.DefaultSolver)
	v.SetDefault("solver.timeout", constants.DefaultSolveTimeout)
	v.SetDefault("solver.parallelism", 0)
	v.SetDefault("solver.tolerance", 0)
	v.SetDefault("logging.level", constants.LogLevelInfo)
	v.SetDefault("logging.format", constants.LogFormatConsole)
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	configuration.Normalize()
	return &configuration, nil
}

// Normalize trims and canonicalises every section in place.
func (c *Configuration) Normalize() {
	if c == nil {
		return
	}
	c.Solver.Name = strings.ToLower(strings.TrimSpace(c.Solver.Name))
	if c.Solver.Name == "" {
		c.Solver.Name = constants.DefaultSolver
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.OutputFile = strings.TrimSpace(c.Logging.OutputFile)
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatPretty
	}

	for i := range c.Problems {
		c.Problems[i].Normalize(i)
	}
}

// ActiveProblems returns the problems that should be solved, in order.
func (c *Configuration) ActiveProblems() []ProblemConfig {
	var out []ProblemConfig
	for _, p := range c.Problems {
		if p.IsActive() {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	problems := make([]configprocessor.ProblemInfo, 0, len(c.Problems))
	for _, p := range c.Problems {
		info := configprocessor.ProblemInfo{
			Name:          p.Name,
			Active:        p.IsActive(),
			Normalize:     p.Demand.NormalizeProbabilities,
			QuantityStart: p.QuantityStart,
		}
		switch p.Demand.Kind {
		case DemandKindSampled:
			info.Sampled = true
			info.SampleCount = p.Demand.Samples
		case DemandKindDeterministic:
			info.Demands = []float64{p.Demand.Value}
			info.Probabilities = []float64{1}
		default:
			for _, sc := range p.Demand.Scenarios {
				info.Demands = append(info.Demands, sc.Demand)
				info.Probabilities = append(info.Probabilities, sc.Probability)
			}
		}
		problems = append(problems, info)
	}

	// Use the configprocessor for validation
	processor := configprocessor.NewProcessor()
	return processor.ValidateConfiguration(problems)
}
