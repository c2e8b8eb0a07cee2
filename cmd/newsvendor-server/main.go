package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nicholsonjohnc/dsi-optimization/internal/logging"
	"github.com/nicholsonjohnc/dsi-optimization/internal/server"
	"github.com/nicholsonjohnc/dsi-optimization/pkg/constants"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	configLocation := flag.StringP("config", "c", constants.DefaultServerConfigFile, "path to server configuration file")
	address := flag.StringP("address", "a", "", "listen address override")
	maxRequestSize := flag.String("max-request-size", "", "maximum request body override, e.g. 256K or 1M")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": %q}\n", *configLocation, err.Error())
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": %q}\n", err.Error())
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if *address != "" {
		cfg.Address = *address
	}
	if *maxRequestSize != "" {
		size, err := server.ParseSize(*maxRequestSize)
		if err != nil {
			logger.Fatal("invalid max request size",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		cfg.SetRequestSizeBytes(size)
	}

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.NewHandler(logger, cfg.RequestSizeBytes(), cfg.Solve, version),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}()

	logger.Info("newsvendor server listening",
		zap.String("op", "main"),
		zap.String("address", cfg.Address),
		zap.Int64("maxRequestSize", cfg.RequestSizeBytes()),
		zap.Duration("maxSolveTimeout", cfg.Solve.MaxTimeout),
		zap.Int("maxSolveParallelism", cfg.Solve.MaxParallelism),
		zap.String("version", version),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
