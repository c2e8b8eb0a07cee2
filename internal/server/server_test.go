package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nicholsonjohnc/dsi-optimization/internal/lp"
	"github.com/nicholsonjohnc/dsi-optimization/internal/newsvendor"
	"github.com/nicholsonjohnc/dsi-optimization/pkg/constants"
	"github.com/nicholsonjohnc/dsi-optimization/pkg/testutil"
	"go.uber.org/zap"
)

const retailYAML = `problems:
  - name: retail three-scenario
    price: 15.99
    cost: 7.99
    salvageValue: 6.99
    demand:
      kind: three-scenario
      scenarios:
        - {demand: 4200, probability: 0.2}
        - {demand: 5000, probability: 0.1}
        - {demand: 8200, probability: 0.7}
`

func sampledYAML(samples int) string {
	return fmt.Sprintf(`problems:
  - name: literature normal
    price: 150
    cost: 100
    salvageValue: 70
    demand:
      kind: sampled
      samples: %d
      seed: 3
      distribution: {name: normal, mean: 3649, stdDev: 926}
`, samples)
}

func postSolve(t *testing.T, h http.Handler, contentType, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeSolve(t *testing.T, rr *httptest.ResponseRecorder) solveResponse {
	t.Helper()
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp solveResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHandleSolveYAML(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxRequestSizeBytes, DefaultSolveLimits(), "")

	resp := decodeSolve(t, postSolve(t, handler, "application/yaml", "/api/solve", []byte(retailYAML)))

	if len(resp.Summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(resp.Summaries))
	}
	summary := resp.Summaries[0]

	// cu=8, co=1: F(5000)=0.3 < 8/9, so the optimum is the largest demand
	costs, err := newsvendor.NewCostStructure(15.99, 7.99, 6.99, 0)
	if err != nil {
		t.Fatalf("NewCostStructure() error = %v", err)
	}
	model, err := newsvendor.BuildScenarioModel(costs, newsvendor.ScenarioSet{
		{Demand: 4200, Probability: 0.2},
		{Demand: 5000, Probability: 0.1},
		{Demand: 8200, Probability: 0.7},
	})
	if err != nil {
		t.Fatalf("BuildScenarioModel() error = %v", err)
	}
	wantCost := model.ExpectedCost(8200)
	if math.Abs(wantCost-1120) > 1e-9 {
		t.Fatalf("expected cost at q=8200 is 0.2*4000 + 0.1*3200 = 1120, got %v", wantCost)
	}
	if math.Abs(summary.Quantity-8200) > 1e-6 || math.Abs(summary.ExpectedCost-wantCost) > 1e-4 {
		t.Fatalf("unexpected solution q=%v cost=%v", summary.Quantity, summary.ExpectedCost)
	}
	if resp.CSV == "" || resp.Duration == "" {
		t.Fatal("expected CSV and duration in response")
	}
}

func TestHandleSolveJSON(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 0, DefaultSolveLimits(), "1.0.0")

	payload := map[string]interface{}{
		"problems": []map[string]interface{}{
			{
				"name":         "literature deterministic",
				"price":        150,
				"cost":         100,
				"salvageValue": 70,
				"demand":       map[string]interface{}{"value": 3940},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to encode payload: %v", err)
	}

	resp := decodeSolve(t, postSolve(t, handler, "application/json; charset=utf-8", "/api/solve", body))
	summary := testutil.FindSummary(resp.Summaries, "literature deterministic")
	if summary == nil {
		t.Fatal("summary missing")
	}
	if math.Abs(summary.Quantity-3940) > 1e-6 || summary.ExpectedCost != 0 {
		t.Fatalf("unexpected deterministic solution %+v", summary)
	}
}

func TestHandleSolveMultipartUpload(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxRequestSizeBytes, DefaultSolveLimits(), "")

	data, err := os.ReadFile(filepath.Join("..", "..", "test", "test_config.yaml"))
	if err != nil {
		t.Fatalf("failed to read test config: %v", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "test_config.yaml")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("failed to write form data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	resp := decodeSolve(t, postSolve(t, handler, writer.FormDataContentType(), "/api/solve", body.Bytes()))
	if len(resp.Summaries) != 4 {
		t.Fatalf("expected 4 summaries, got %d", len(resp.Summaries))
	}
}

func TestHandleSolveCSVFormat(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxRequestSizeBytes, DefaultSolveLimits(), "")

	rr := postSolve(t, handler, "", "/api/solve?format=csv", []byte(retailYAML))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %s", ct)
	}
	records, err := csv.NewReader(rr.Body).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV body: %v", err)
	}
	if len(records) != 2 || records[1][0] != "retail three-scenario" {
		t.Fatalf("unexpected CSV records %v", records)
	}
}

func TestHandleSolveWarnings(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxRequestSizeBytes, DefaultSolveLimits(), "")

	doc := strings.Replace(retailYAML, "probability: 0.7", "probability: 0.6", 1)
	resp := decodeSolve(t, postSolve(t, handler, "", "/api/solve", []byte(doc)))
	if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], "sum to 0.900000") {
		t.Fatalf("expected a probability-sum warning, got %v", resp.Warnings)
	}
}

func TestHandleSolveErrors(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxRequestSizeBytes, DefaultSolveLimits(), "")

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"empty body", "", http.StatusBadRequest},
		{"malformed yaml", "problems: [unterminated", http.StatusBadRequest},
		{"no problems", "output:\n  format: json\n", http.StatusBadRequest},
		{"salvage above cost", strings.Replace(retailYAML, "salvageValue: 6.99", "salvageValue: 9.99", 1), http.StatusBadRequest},
		{"negative demand", strings.Replace(retailYAML, "demand: 4200", "demand: -4200", 1), http.StatusBadRequest},
		{"unknown solver", "solver:\n  name: glpk\n" + retailYAML, http.StatusBadRequest},
		{"uninterruptible solver", "solver:\n  name: simplex\n" + retailYAML, http.StatusBadRequest},
		{"disabled timeout", "solver:\n  timeout: 0s\n" + retailYAML, http.StatusBadRequest},
		{"too many samples", sampledYAML(25000), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postSolve(t, handler, "", "/api/solve", []byte(tt.body))
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if resp["error"] == "" {
				t.Fatal("expected error message in response")
			}
		})
	}
}

func TestHandleSolveMonteCarlo(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxRequestSizeBytes, DefaultSolveLimits(), "")

	resp := decodeSolve(t, postSolve(t, handler, "", "/api/solve", []byte(sampledYAML(5000))))
	summary := resp.Summaries[0]
	if summary.Scenarios != 5000 || summary.Solver != lp.RevisedSolverName {
		t.Fatalf("unexpected summary %+v", summary)
	}
	// standard error of the 5000-draw sample quantile is about 17 units
	if math.Abs(summary.Quantity-3944.06) > 75 {
		t.Fatalf("Monte-Carlo optimum %v too far from 3944.06", summary.Quantity)
	}
}

func TestHandleSolveStopsWhenClientLeaves(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxRequestSizeBytes, DefaultSolveLimits(), "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/solve", strings.NewReader(sampledYAML(10000))).WithContext(ctx)
	rr := httptest.NewRecorder()

	start := time.Now()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d: %s", rr.Code, rr.Body.String())
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("cancelled request took %s", elapsed)
	}
}

func TestHandleSolveRequestTooLarge(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 64, DefaultSolveLimits(), "")

	rr := postSolve(t, handler, "", "/api/solve", []byte(retailYAML))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rr.Code)
	}
}

func TestHandleSolveMissingUploadField(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxRequestSizeBytes, DefaultSolveLimits(), "")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("other", "value"); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	rr := postSolve(t, handler, writer.FormDataContentType(), "/api/solve", body.Bytes())
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxRequestSizeBytes, DefaultSolveLimits(), "")

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/solve"},
		{http.MethodPost, "/api/version"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: expected status 405, got %d", tc.method, tc.path, rr.Code)
		}
	}
}

func TestHandleVersion(t *testing.T) {
	tests := []struct{ configured, want string }{
		{" 1.2.3 ", "1.2.3"},
		{"", "dev"},
	}
	for _, tt := range tests {
		handler := NewHandler(nil, constants.DefaultMaxRequestSizeBytes, DefaultSolveLimits(), tt.configured)
		req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		var resp map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["version"] != tt.want {
			t.Fatalf("expected version %q, got %q", tt.want, resp["version"])
		}
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("p: %w", newsvendor.ErrInvalidCosts), http.StatusBadRequest},
		{fmt.Errorf("%w: %w", newsvendor.ErrSolverFailure, lp.ErrUnsupportedModel), http.StatusBadRequest},
		{fmt.Errorf("%w: status infeasible", newsvendor.ErrSolverFailure), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: %w", newsvendor.ErrSolverFailure, context.DeadlineExceeded), http.StatusGatewayTimeout},
		{fmt.Errorf("%w: %w", newsvendor.ErrSolverFailure, context.Canceled), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusForError(tt.err); got != tt.want {
			t.Errorf("statusForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
