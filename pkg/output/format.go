// Package output provides utilities for formatting and displaying optimization results.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nicholsonjohnc/dsi-optimization/pkg/constants"
	"github.com/nicholsonjohnc/dsi-optimization/pkg/format"
	"github.com/nicholsonjohnc/dsi-optimization/pkg/optimization"
)

// Write renders results in the named format (pretty, csv or json).
func Write(w io.Writer, outputFormat string, results []optimization.Summary) error {
	switch strings.ToLower(strings.TrimSpace(outputFormat)) {
	case constants.OutputFormatPretty, "":
		return PrettyFormat(w, results)
	case constants.OutputFormatCSV:
		return CsvFormat(w, results)
	case constants.OutputFormatJSON:
		return JSONFormat(w, results)
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, results []optimization.Summary) error {
	var b strings.Builder
	for i, result := range results {
		fmt.Fprintf(&b, "--- Results for problem %s ---\n", result.Name)
		fmt.Fprintf(&b, "Demand           | %s (%d scenarios)\n", result.Kind, result.Scenarios)
		fmt.Fprintf(&b, "Solver           | %s (%s, %s)\n", result.Solver, result.Status, result.Duration)
		fmt.Fprintf(&b, "Underage cost    | %s\n", format.Currency(result.UnderageCost))
		fmt.Fprintf(&b, "Overage cost     | %s\n", format.Currency(result.OverageCost))
		fmt.Fprintf(&b, "Critical ratio   | %.4f\n", result.CriticalFractile)
		fmt.Fprintf(&b, "Order quantity   | %s\n", format.Quantity(result.Quantity, 2))
		fmt.Fprintf(&b, "Expected cost    | %s\n", format.Currency(result.ExpectedCost))
		if result.HasAnalytical() {
			fmt.Fprintf(&b, "Analytical       | %s (expected cost %s)\n",
				format.Quantity(*result.Analytical, 2), format.Currency(*result.AnalyticalCost))
			fmt.Fprintf(&b, "Gap              | %s (%s)\n", format.Quantity(result.Gap, 2), format.Percent(result.GapPercent))
		}
		for _, note := range result.Notes {
			fmt.Fprintf(&b, "Note             | %s\n", note)
		}
		if i < len(results)-1 {
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

var csvHeader = []string{
	"name", "kind", "scenarios", "solver", "status",
	"underage cost", "overage cost", "critical fractile",
	"quantity", "expected cost", "analytical quantity", "analytical cost",
	"gap", "gap percent", "duration", "notes",
}

// CsvFormat outputs one row per problem in comma-separated value format.
func CsvFormat(w io.Writer, results []optimization.Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, result := range results {
		analytical, analyticalCost := "", ""
		if result.HasAnalytical() {
			analytical = formatFloat(*result.Analytical, 6)
			analyticalCost = formatFloat(*result.AnalyticalCost, 2)
		}
		record := []string{
			result.Name,
			result.Kind,
			strconv.Itoa(result.Scenarios),
			result.Solver,
			result.Status,
			formatFloat(result.UnderageCost, 2),
			formatFloat(result.OverageCost, 2),
			formatFloat(result.CriticalFractile, 6),
			formatFloat(result.Quantity, 6),
			formatFloat(result.ExpectedCost, 2),
			analytical,
			analyticalCost,
			formatFloat(result.Gap, 6),
			formatFloat(result.GapPercent, 4),
			result.Duration.String(),
			strings.Join(result.Notes, "; "),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CsvString returns the CSV representation as a string.
func CsvString(results []optimization.Summary) string {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, results); err != nil {
		return ""
	}
	return buf.String()
}

// JSONFormat outputs the summaries as an indented JSON array.
func JSONFormat(w io.Writer, results []optimization.Summary) error {
	if results == nil {
		results = []optimization.Summary{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func formatFloat(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
