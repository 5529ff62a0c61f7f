package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ReportGenerator renders a set of validation results into a
// human-readable text report.
type ReportGenerator struct{}

// NewReportGenerator creates a new report generator
func NewReportGenerator() *ReportGenerator {
	return &ReportGenerator{}
}

// Generate renders the report. An empty result set renders a valid
// zero-count report.
func (g *ReportGenerator) Generate(results []*ValidationResult, mode Mode) string {
	var b strings.Builder

	total := len(results)
	passed := 0
	maxDev := decimal.Zero
	devSum := decimal.Zero
	devCount := 0

	for _, r := range results {
		if r.Passed {
			passed++
		}
		if r.MaxDeviation.GreaterThan(maxDev) {
			maxDev = r.MaxDeviation
		}
		for _, pc := range r.Products {
			for _, fc := range pc.Fields {
				devSum = devSum.Add(fc.Diff)
				devCount++
			}
		}
	}

	passRate := decimal.Zero
	if total > 0 {
		passRate = decimal.NewFromInt(int64(passed)).Div(decimal.NewFromInt(int64(total))).Mul(decimal.NewFromInt(100))
	}
	avgDev := decimal.Zero
	if devCount > 0 {
		avgDev = devSum.Div(decimal.NewFromInt(int64(devCount)))
	}

	b.WriteString("Ground-Truth Validation Report\n")
	b.WriteString("==============================\n")
	fmt.Fprintf(&b, "Mode:              %s\n", mode)
	fmt.Fprintf(&b, "Files checked:     %d\n", total)
	fmt.Fprintf(&b, "Passed:            %d\n", passed)
	fmt.Fprintf(&b, "Failed:            %d\n", total-passed)
	fmt.Fprintf(&b, "Pass rate:         %s%%\n", passRate.StringFixed(1))
	fmt.Fprintf(&b, "Average deviation: %s\n", avgDev.StringFixed(4))
	fmt.Fprintf(&b, "Max deviation:     %s\n", maxDev.StringFixed(4))

	for _, r := range results {
		b.WriteString("\n")
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "[%s] %s (%d/%d fields within tolerance)\n", status, r.Filename, r.PassedFields, r.CheckedFields)
		if r.Passed {
			continue
		}
		for _, pc := range r.Products {
			if pc.Passed {
				continue
			}
			fmt.Fprintf(&b, "  product %s (row %d):\n", pc.SKU, pc.Row)
			for _, fc := range pc.Fields {
				if fc.Passed {
					continue
				}
				fmt.Fprintf(&b, "    %-26s phase %-2d cell %-5s expected %s, got %s (diff %s)\n",
					fc.Field, fc.Phase, fc.Cell,
					fc.Expected.StringFixed(2), fc.Actual.StringFixed(2), fc.Diff.StringFixed(2))
			}
		}
	}

	return b.String()
}
