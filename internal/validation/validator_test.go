package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/quote-engine/internal/calculation"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fixtureQuoteData() *QuoteData {
	return &QuoteData{
		Filename:  "fixture_001.xlsx",
		SheetName: "Calculation",
		Quote: RawQuote{
			SellerRegion:  "RU",
			QuoteCurrency: "USD",
			Settlement:    "USD",
			DMFeeType:     "percent",
			Rates:         map[string]decimal.Decimal{},
		},
		Products: []RawProduct{
			{Row: 16, SKU: "T-1", Name: "Widget", BasePriceWithVAT: dec("1000"), Currency: "USD", Quantity: 10, SupplierCountry: "CN"},
		},
		ExpectedResults: map[string]decimal.Decimal{},
	}
}

// computedField runs the engine on the fixture inputs and projects one
// mapped field, so expectations can be stated as exact offsets.
func computedField(t *testing.T, data *QuoteData, field ResultField) decimal.Decimal {
	t.Helper()
	quote, products, rates := mapInputs(data)
	result, err := calculation.NewCalculator(zap.NewNop()).CalculateQuote(quote, products, calculation.DefaultSystemConfig(), rates)
	require.NoError(t, err)
	accessor, ok := AccessorFor(field)
	require.True(t, ok)
	return accessor(&result.Products[0])
}

func TestValidator_ToleranceClassification(t *testing.T) {
	logger := zap.NewNop()
	absOnly := Tolerance{Abs: dec("2.00"), RelPercent: decimal.Zero}

	t.Run("deviation within 2.00 units passes", func(t *testing.T) {
		data := fixtureQuoteData()
		computed := computedField(t, data, FieldSalePriceTotalNoVAT)
		data.ExpectedResults["AK16"] = computed.Add(dec("1.50"))

		v := NewValidator(calculation.DefaultSystemConfig(), absOnly, logger)
		result, err := v.Validate(data, ModeDetailed)
		require.NoError(t, err)

		assert.True(t, result.Passed)
		assert.Equal(t, 1, result.CheckedFields)
		assert.Equal(t, 1, result.PassedFields)
		assert.True(t, result.MaxDeviation.Equal(dec("1.50")))
	})

	t.Run("deviation of 10.00 fails and names the field", func(t *testing.T) {
		data := fixtureQuoteData()
		computed := computedField(t, data, FieldSalePriceTotalNoVAT)
		data.ExpectedResults["AK16"] = computed.Add(dec("10.00"))

		v := NewValidator(calculation.DefaultSystemConfig(), absOnly, logger)
		result, err := v.Validate(data, ModeDetailed)
		require.NoError(t, err)

		assert.False(t, result.Passed)
		require.Len(t, result.Products, 1)
		assert.False(t, result.Products[0].Passed)
		assert.Contains(t, result.Products[0].FailedFields, "sales_price_total_no_vat")
		assert.True(t, result.MaxDeviation.Equal(dec("10.00")))
	})

	t.Run("relative tolerance rescues a large base", func(t *testing.T) {
		data := fixtureQuoteData()
		computed := computedField(t, data, FieldSalePriceTotalNoVAT)
		data.ExpectedResults["AK16"] = computed.Add(dec("2.50"))

		// 2.50 over ~10700 is far past 2 abs units but well under 0.1%
		v := NewValidator(calculation.DefaultSystemConfig(), Tolerance{Abs: dec("2.00"), RelPercent: dec("0.1")}, logger)
		result, err := v.Validate(data, ModeDetailed)
		require.NoError(t, err)
		assert.True(t, result.Passed)
	})
}

func TestValidator_Modes(t *testing.T) {
	logger := zap.NewNop()
	tol := DefaultTolerance()

	data := fixtureQuoteData()
	for _, field := range []ResultField{FieldPurchasePriceTotal, FieldSalePriceTotalNoVAT, FieldNetVATPayable, FieldTransitCommission} {
		computed := computedField(t, data, field)
		for _, m := range ResultCellMappings {
			if m.Field == field {
				data.ExpectedResults[m.Column+"16"] = computed
			}
		}
	}

	t.Run("summary checks only the headline fields", func(t *testing.T) {
		v := NewValidator(calculation.DefaultSystemConfig(), tol, logger)
		result, err := v.Validate(data, ModeSummary)
		require.NoError(t, err)
		assert.Equal(t, 3, result.CheckedFields, "purchase total is mapped but not a headline field")
		assert.True(t, result.Passed)
	})

	t.Run("detailed checks every supplied expected cell", func(t *testing.T) {
		v := NewValidator(calculation.DefaultSystemConfig(), tol, logger)
		result, err := v.Validate(data, ModeDetailed)
		require.NoError(t, err)
		assert.Equal(t, 4, result.CheckedFields)
		assert.True(t, result.Passed)
	})
}

func TestValidator_CalculationFailureIsAnError(t *testing.T) {
	data := fixtureQuoteData()
	data.Products[0].Quantity = 0

	v := NewValidator(calculation.DefaultSystemConfig(), DefaultTolerance(), zap.NewNop())
	result, err := v.Validate(data, ModeDetailed)
	assert.Nil(t, result)
	var calcErr *calculation.CalculationError
	require.ErrorAs(t, err, &calcErr)
}
