// Package server exposes the newsvendor optimizer over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/nicholsonjohnc/dsi-optimization/internal/config"
	"github.com/nicholsonjohnc/dsi-optimization/internal/demand"
	"github.com/nicholsonjohnc/dsi-optimization/internal/lp"
	"github.com/nicholsonjohnc/dsi-optimization/internal/newsvendor"
	"github.com/nicholsonjohnc/dsi-optimization/internal/optimizer"
	"github.com/nicholsonjohnc/dsi-optimization/pkg/constants"
	"github.com/nicholsonjohnc/dsi-optimization/pkg/optimization"
	"github.com/nicholsonjohnc/dsi-optimization/pkg/output"
	"go.uber.org/zap"
)

type handler struct {
	logger         *zap.Logger
	maxRequestSize int64
	limits         SolveLimits
	version        string
}

// NewHandler constructs the HTTP handler that serves the solve API. Every
// posted configuration is clamped to limits before it is solved.
func NewHandler(logger *zap.Logger, maxRequestSize int64, limits SolveLimits, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxRequestSize <= 0 {
		maxRequestSize = constants.DefaultMaxRequestSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:         logger,
		maxRequestSize: maxRequestSize,
		limits:         limits.withDefaults(),
		version:        trimmedVersion,
	}

	mux := http.NewServeMux()

	// Solve every active problem of a posted configuration
	mux.HandleFunc("/api/solve", h.handleSolve)

	// Version endpoint for client metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

type solveResponse struct {
	Summaries []optimization.Summary `json:"summaries"`
	CSV       string                 `json:"csv"`
	Warnings  []string               `json:"warnings,omitempty"`
	Duration  string                 `json:"duration"`
}

func (h *handler) handleSolve(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSolve"

	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestSize)

	body, configType, err := h.readConfiguration(r)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxRequestSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(body), configType)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if err := h.limits.Apply(cfg); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid configuration: %v", err), op)
		return
	}
	warnings := cfg.ValidateConfiguration()

	runner, err := optimizer.NewRunner(h.logger, cfg)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid configuration: %v", err), op)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.limits.MaxTimeout)
	defer cancel()
	result, err := runner.Run(ctx)
	if err != nil {
		h.respondErrorWithOp(w, statusForError(err), fmt.Sprintf("optimizer execution failed: %v", err), op)
		return
	}

	elapsed := time.Since(start)

	if strings.EqualFold(r.URL.Query().Get("format"), constants.OutputFormatCSV) {
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(http.StatusOK)
		if err := output.CsvFormat(w, result.Summaries); err != nil {
			h.logger.Error("failed to write CSV response", zap.String("op", op), zap.Error(err))
		}
		return
	}

	response := solveResponse{
		Summaries: result.Summaries,
		CSV:       output.CsvString(result.Summaries),
		Warnings:  warnings,
		Duration:  elapsed.String(),
	}
	if response.Summaries == nil {
		response.Summaries = []optimization.Summary{}
	}

	h.logger.Info("problems solved",
		zap.String("op", op),
		zap.Int("problems", len(response.Summaries)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

// readConfiguration returns the posted configuration and its viper config
// type. Multipart uploads carry the document in the "file" field.
func (h *handler) readConfiguration(r *http.Request) ([]byte, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var reader io.Reader = r.Body
	configType := "yaml"
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(h.maxRequestSize); err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				return nil, "", err
			}
			return nil, "", fmt.Errorf("failed to parse upload: %w", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", errors.New("missing configuration file")
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil {
				h.logger.Warn("failed to close uploaded file",
					zap.String("op", "server.readConfiguration"),
					zap.Error(closeErr),
				)
			}
		}()
		if strings.HasSuffix(strings.ToLower(header.Filename), ".json") {
			configType = "json"
		}
		reader = file
	case "application/json":
		configType = "json"
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("failed to read configuration: %w", err)
	}
	if len(bytes.TrimSpace(buf.Bytes())) == 0 {
		return nil, "", errors.New("empty configuration")
	}
	return buf.Bytes(), configType, nil
}

// statusForError maps optimizer failures onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, newsvendor.ErrInvalidCosts),
		errors.Is(err, newsvendor.ErrInvalidScenarios),
		errors.Is(err, demand.ErrInvalidDistribution),
		errors.Is(err, lp.ErrUnsupportedModel):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, newsvendor.ErrSolverFailure):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("solve request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
