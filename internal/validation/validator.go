package validation

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/quote-engine/internal/calculation"
)

// Mode selects how many mapped fields the validator checks.
type Mode string

const (
	// ModeSummary checks only the curated headline fields.
	ModeSummary Mode = "summary"
	// ModeDetailed checks every mapped field across every phase.
	ModeDetailed Mode = "detailed"
)

// Tolerance bounds the allowed deviation between computed and expected
// values. A field passes when either bound holds.
type Tolerance struct {
	Abs        decimal.Decimal // absolute, in currency units
	RelPercent decimal.Decimal // relative, in percent of the expected value
}

// DefaultTolerance matches the reference spreadsheet comparison bounds.
func DefaultTolerance() Tolerance {
	return Tolerance{
		Abs:        decimal.RequireFromString("2.00"),
		RelPercent: decimal.RequireFromString("0.011"),
	}
}

// FieldComparison is the outcome of checking one mapped cell.
type FieldComparison struct {
	Field    ResultField     `json:"field"`
	Cell     string          `json:"cell"`
	Phase    int             `json:"phase"`
	Actual   decimal.Decimal `json:"actual"`
	Expected decimal.Decimal `json:"expected"`
	Diff     decimal.Decimal `json:"diff"`
	Passed   bool            `json:"passed"`
}

// ProductComparison aggregates the field checks of one product row. It
// passes only if every checked field passes.
type ProductComparison struct {
	SKU          string            `json:"sku"`
	Row          int               `json:"row"`
	Passed       bool              `json:"passed"`
	Fields       []FieldComparison `json:"fields"`
	FailedFields []string          `json:"failed_fields,omitempty"`
}

// ValidationResult is the outcome of validating one workbook. A numeric
// mismatch lands here as a failed comparison, never as an error.
type ValidationResult struct {
	Filename      string              `json:"filename"`
	Mode          Mode                `json:"mode"`
	Passed        bool                `json:"passed"`
	CheckedFields int                 `json:"checked_fields"`
	PassedFields  int                 `json:"passed_fields"`
	MaxDeviation  decimal.Decimal     `json:"max_deviation"`
	Products      []ProductComparison `json:"products"`
}

// Validator feeds parsed ground-truth data through the calculation
// pipeline and diffs every mapped field against the expected cells.
type Validator struct {
	calc   *calculation.Calculator
	sysCfg calculation.SystemConfig
	tol    Tolerance
	logger *zap.Logger
}

// NewValidator creates a new validator
func NewValidator(sysCfg calculation.SystemConfig, tol Tolerance, logger *zap.Logger) *Validator {
	return &Validator{
		calc:   calculation.NewCalculator(logger),
		sysCfg: sysCfg,
		tol:    tol,
		logger: logger,
	}
}

// Validate maps the raw extraction into engine inputs, runs the
// pipeline and compares the mapped output cells. It returns an error
// only when the inputs cannot be run (resolution or calculation
// failure), never for an out-of-tolerance field.
func (v *Validator) Validate(data *QuoteData, mode Mode) (*ValidationResult, error) {
	quote, products, rates := mapInputs(data)

	calcResult, err := v.calc.CalculateQuote(quote, products, v.sysCfg, rates)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate %s: %w", data.Filename, err)
	}

	result := &ValidationResult{
		Filename: data.Filename,
		Mode:     mode,
		Passed:   true,
	}

	for i := range data.Products {
		pc := v.compareProduct(&data.Products[i], &calcResult.Products[i], data.ExpectedResults, mode)
		result.CheckedFields += len(pc.Fields)
		for _, fc := range pc.Fields {
			if fc.Passed {
				result.PassedFields++
			}
			if fc.Diff.GreaterThan(result.MaxDeviation) {
				result.MaxDeviation = fc.Diff
			}
		}
		if !pc.Passed {
			result.Passed = false
		}
		result.Products = append(result.Products, pc)
	}

	v.logger.Debug("Workbook validated",
		zap.String("file", data.Filename),
		zap.String("mode", string(mode)),
		zap.Bool("passed", result.Passed),
		zap.Int("checked_fields", result.CheckedFields),
		zap.String("max_deviation", result.MaxDeviation.String()))

	return result, nil
}

// compareProduct checks every mapped (and, in summary mode, headline)
// field for which the workbook supplies an expected value.
func (v *Validator) compareProduct(raw *RawProduct, computed *calculation.ProductCalculationResult, expected map[string]decimal.Decimal, mode Mode) ProductComparison {
	pc := ProductComparison{SKU: raw.SKU, Row: raw.Row, Passed: true}

	for _, m := range ResultCellMappings {
		if mode == ModeSummary && !summaryFields[m.Field] {
			continue
		}
		cell := fmt.Sprintf("%s%d", m.Column, raw.Row)
		want, ok := expected[cell]
		if !ok {
			continue
		}
		accessor, ok := AccessorFor(m.Field)
		if !ok {
			// Guarded by the mapping tests; skipping keeps a stale
			// table from panicking a QA run.
			continue
		}

		got := accessor(computed)
		diff := got.Sub(want).Abs()
		fc := FieldComparison{
			Field:    m.Field,
			Cell:     cell,
			Phase:    m.Phase,
			Actual:   got,
			Expected: want,
			Diff:     diff,
			Passed:   v.withinTolerance(diff, want),
		}
		pc.Fields = append(pc.Fields, fc)
		if !fc.Passed {
			pc.Passed = false
			pc.FailedFields = append(pc.FailedFields, string(m.Field))
		}
	}

	return pc
}

// withinTolerance passes a deviation that satisfies either the absolute
// or the relative bound.
func (v *Validator) withinTolerance(diff, expected decimal.Decimal) bool {
	if diff.LessThanOrEqual(v.tol.Abs) {
		return true
	}
	if expected.IsZero() {
		return false
	}
	rel := diff.Div(expected.Abs()).Mul(decimal.NewFromInt(100))
	return rel.LessThanOrEqual(v.tol.RelPercent)
}

// mapInputs converts the raw extraction into the engine's input types.
func mapInputs(data *QuoteData) (calculation.QuoteVariables, []calculation.ProductInput, calculation.ExchangeRates) {
	q := data.Quote

	feeType := calculation.DMFeeType(q.DMFeeType)
	if feeType == "" {
		feeType = calculation.DMFeePercent
	}

	milestones := make([]calculation.PaymentMilestone, 0, len(q.Milestones))
	for _, m := range q.Milestones {
		milestones = append(milestones, calculation.PaymentMilestone{Percent: m.Percent, DueInDays: m.DueInDays})
	}

	quote := calculation.QuoteVariables{
		SellerRegion:      q.SellerRegion,
		QuoteCurrency:     q.QuoteCurrency,
		AdvancePercent:    q.AdvancePercent,
		DeliveryDate:      q.DeliveryDate,
		PaymentMilestones: milestones,
		DMFeeType:         feeType,
		DMFeeRate:         q.DMFeeRate,
		DMFeeAmount:       q.DMFeeAmount,
		LogisticsFirstLeg: q.LogisticsFirstLeg,
		LogisticsLastLeg:  q.LogisticsLastLeg,
		CustomsTotal:      q.CustomsTotal,
		BrokerageTotal:    q.BrokerageTotal,
		FinancingDays:     q.FinancingDays,
	}

	products := make([]calculation.ProductInput, 0, len(data.Products))
	for _, rp := range data.Products {
		products = append(products, calculation.ProductInput{
			SKU:              rp.SKU,
			Name:             rp.Name,
			BasePriceWithVAT: rp.BasePriceWithVAT,
			Currency:         rp.Currency,
			Quantity:         rp.Quantity,
			WeightKg:         rp.WeightKg,
			SupplierCountry:  rp.SupplierCountry,
		})
	}

	entries := make(map[string]calculation.RateEntry, len(q.Rates))
	for code, rate := range q.Rates {
		entries[code] = calculation.RateEntry{Rate: rate, Source: "fixture:" + data.Filename}
	}
	rates := calculation.ExchangeRates{Settlement: q.Settlement, Entries: entries}

	return quote, products, rates
}
