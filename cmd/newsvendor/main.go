package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nicholsonjohnc/dsi-optimization/internal/config"
	"github.com/nicholsonjohnc/dsi-optimization/internal/logging"
	"github.com/nicholsonjohnc/dsi-optimization/internal/optimizer"
	"github.com/nicholsonjohnc/dsi-optimization/pkg/constants"
	"github.com/nicholsonjohnc/dsi-optimization/pkg/output"
	"github.com/nicholsonjohnc/dsi-optimization/pkg/validation"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.StringP("config", "c", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.StringP("output-format", "o", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	solverName := flag.String("solver", "", "LP engine override (revised or simplex)")
	parallelism := flag.Int("parallelism", -1, "maximum concurrent solves (0 = one per CPU)")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": %q}\n", *configLocation, err.Error())
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": %q}\n", err.Error())
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI overrides take precedence over config
	if *outputFormatFlag != "" {
		conf.Output.Format = *outputFormatFlag
	}
	if *solverName != "" {
		conf.Solver.Name = *solverName
	}
	if *parallelism >= 0 {
		conf.Solver.Parallelism = *parallelism
	}
	conf.Normalize()

	if err := validation.ValidateOutputFormat(conf.Output.Format); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	runner, err := optimizer.NewRunner(logger, conf)
	if err != nil {
		logger.Fatal("invalid configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := runner.Run(ctx)
	if err != nil {
		logger.Fatal("failed to solve problems",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if err := output.Write(os.Stdout, conf.Output.Format, result.Summaries); err != nil {
		logger.Fatal("failed to write results",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
