package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func usdRates() ExchangeRates {
	return ExchangeRates{Settlement: "USD", Entries: map[string]RateEntry{
		"EUR": {Rate: dec("1.10"), Source: "test"},
		"CNY": {Rate: dec("0.14"), Source: "test"},
	}}
}

func TestPipeline_PurchasePrice(t *testing.T) {
	calc := NewCalculator(zap.NewNop())
	cfg := DefaultSystemConfig()

	quote := QuoteVariables{
		SellerRegion:  "RU",
		QuoteCurrency: "USD",
		DMFeeType:     DMFeePercent,
	}
	products := []ProductInput{
		{SKU: "P-1", BasePriceWithVAT: dec("1000.00"), Currency: "USD", Quantity: 10, SupplierCountry: "TR"},
	}

	result, err := calc.CalculateQuote(quote, products, cfg, usdRates())
	require.NoError(t, err)
	require.Len(t, result.Products, 1)

	p := result.Products[0]
	assert.True(t, p.PurchasePriceTotal.Equal(dec("10000.00")),
		"1000.00 x 10 in quote currency, got %s", p.PurchasePriceTotal)
	assert.True(t, p.PurchasePriceNoVAT.Equal(dec("10000").Div(dec("1.20"))),
		"net of the 20%% supplier VAT")
	assert.True(t, p.InputVAT.Equal(p.PurchasePriceTotal.Sub(p.PurchasePriceNoVAT)))
}

func TestPipeline_SingleProductCollapse(t *testing.T) {
	calc := NewCalculator(zap.NewNop())
	cfg := DefaultSystemConfig()

	quote := QuoteVariables{
		SellerRegion:      "RU",
		QuoteCurrency:     "USD",
		LogisticsFirstLeg: dec("1200"),
		LogisticsLastLeg:  dec("800"),
		CustomsTotal:      dec("500"),
		BrokerageTotal:    dec("100"),
		DMFeeType:         DMFeePercent,
	}
	products := []ProductInput{
		{SKU: "S-1", BasePriceWithVAT: dec("250"), Currency: "USD", Quantity: 4, SupplierCountry: "CN"},
	}

	result, err := calc.CalculateQuote(quote, products, cfg, usdRates())
	require.NoError(t, err)

	p := result.Products[0]
	agg := result.Aggregate

	assert.True(t, p.DistributionKey.Equal(dec("1")), "single product owns the whole quote")
	assert.True(t, agg.SupplierPaymentRequired.Equal(p.PurchasePriceTotal),
		"Pass B supplier payment equals the product's own purchase total")
	expectedTBF := p.PurchasePriceTotal.Add(p.LogisticsTotal).Add(p.CustomsFee).Add(p.BrokerageFee)
	assert.True(t, agg.TotalBeforeForwarding.Equal(expectedTBF),
		"Pass B total collapses to the single product's Pass A values")
	assert.True(t, p.LogisticsTotal.Equal(dec("2000")))
	assert.True(t, p.CustomsFee.Equal(dec("500")))
}

func TestPipeline_FinancingAndVAT(t *testing.T) {
	calc := NewCalculator(zap.NewNop())
	cfg := DefaultSystemConfig()

	quote := QuoteVariables{
		SellerRegion:   "RU",
		QuoteCurrency:  "USD",
		AdvancePercent: dec("50"),
		FinancingDays:  30,
		PaymentMilestones: []PaymentMilestone{
			{Percent: dec("100"), DueInDays: 60},
		},
		DMFeeType: DMFeePercent,
		DMFeeRate: decimal.Zero,
	}
	products := []ProductInput{
		{SKU: "F-1", BasePriceWithVAT: dec("100"), Currency: "USD", Quantity: 10, SupplierCountry: "CN"},
	}

	result, err := calc.CalculateQuote(quote, products, cfg, usdRates())
	require.NoError(t, err)

	agg := result.Aggregate
	// financed = 1000 * (1 - 50/100) = 500
	// loan interest 500*0.0005*30 = 7.5; forex 500*0.015 = 7.5; commission 500*0.01 = 5
	assert.True(t, agg.TotalFinancingCost.Equal(dec("20")), "got %s", agg.TotalFinancingCost)
	// credit interest: 100% milestone, 60 days on the unadvanced half
	assert.True(t, agg.CreditSalesInterest.Equal(dec("15")), "got %s", agg.CreditSalesInterest)

	p := result.Products[0]
	assert.True(t, p.InitialFinancingCost.Equal(dec("20")))
	assert.True(t, p.CreditFinancingCost.Equal(dec("15")))
	assert.True(t, p.COGSTotal.Equal(dec("1035")))
	assert.True(t, p.COGSPerUnit.Equal(dec("103.5")))

	// CN markup 7% on the landed cost
	assert.True(t, p.InternalSalePrice.Equal(dec("1070")))
	assert.True(t, p.Profit.Equal(dec("35")))
	assert.True(t, p.DMFee.Equal(decimal.Zero))

	// No delivery date: legacy 20% seller VAT
	assert.True(t, p.SalePriceNoVAT.Equal(dec("1070")))
	assert.True(t, p.OutputVAT.Equal(dec("214")))
	assert.True(t, p.SalePriceWithVAT.Equal(dec("1284")))
	expectedNetVAT := dec("214").Sub(dec("1000").Sub(dec("1000").Div(dec("1.13"))))
	assert.True(t, p.NetVATPayable.Equal(expectedNetVAT), "got %s", p.NetVATPayable)

	assert.True(t, p.TransitCommission.Equal(dec("1070").Mul(dec("0.005"))))
	assert.True(t, p.SalePricePerUnit.Equal(dec("128.40")), "per-unit display price rounds half-up to 2dp")
}

func TestPipeline_FinancingOverridesPerProduct(t *testing.T) {
	calc := NewCalculator(zap.NewNop())
	cfg := DefaultSystemConfig()

	quote := QuoteVariables{
		SellerRegion:  "RU",
		QuoteCurrency: "USD",
		FinancingDays: 30,
		PaymentMilestones: []PaymentMilestone{
			{Percent: dec("100"), DueInDays: 60},
		},
		DMFeeType: DMFeePercent,
	}

	t.Run("fully advanced product carries no financing cost", func(t *testing.T) {
		fullAdvance := dec("100")
		products := []ProductInput{
			{SKU: "FA-1", BasePriceWithVAT: dec("100"), Currency: "USD", Quantity: 5, SupplierCountry: "CN"},
			{
				SKU: "FA-2", BasePriceWithVAT: dec("100"), Currency: "USD", Quantity: 5, SupplierCountry: "CN",
				Overrides: ProductOverrides{AdvancePercent: &fullAdvance},
			},
		}

		result, err := calc.CalculateQuote(quote, products, cfg, usdRates())
		require.NoError(t, err)

		// Equal purchase totals, keys 0.5 each. Only FA-1's half of the
		// 1000 total is financed: 500 * (0.0005*30 + 0.015 + 0.01) = 20.
		agg := result.Aggregate
		assert.True(t, agg.TotalFinancingCost.Equal(dec("20")), "got %s", agg.TotalFinancingCost)
		// Credit interest likewise accrues only on FA-1's unadvanced half.
		assert.True(t, agg.CreditSalesInterest.Equal(dec("15")), "got %s", agg.CreditSalesInterest)
	})

	t.Run("term override shortens one product's interest", func(t *testing.T) {
		noTerm := 0
		products := []ProductInput{
			{SKU: "FT-1", BasePriceWithVAT: dec("100"), Currency: "USD", Quantity: 5, SupplierCountry: "CN"},
			{
				SKU: "FT-2", BasePriceWithVAT: dec("100"), Currency: "USD", Quantity: 5, SupplierCountry: "CN",
				Overrides: ProductOverrides{FinancingDays: &noTerm},
			},
		}

		result, err := calc.CalculateQuote(quote, products, cfg, usdRates())
		require.NoError(t, err)

		// FT-1: 500 * 0.04 = 20. FT-2 accrues no loan interest but still
		// pays forex risk and commission: 500 * 0.025 = 12.5.
		assert.True(t, result.Aggregate.TotalFinancingCost.Equal(dec("32.5")),
			"got %s", result.Aggregate.TotalFinancingCost)
	})
}

func TestPipeline_VATCutoverByDeliveryDate(t *testing.T) {
	calc := NewCalculator(zap.NewNop())
	cfg := DefaultSystemConfig()

	quote := QuoteVariables{
		SellerRegion:  "RU",
		QuoteCurrency: "USD",
		DeliveryDate:  date(2026, 2, 1),
		DMFeeType:     DMFeePercent,
	}
	products := []ProductInput{
		{SKU: "V-1", BasePriceWithVAT: dec("100"), Currency: "USD", Quantity: 10, SupplierCountry: "CN"},
	}

	result, err := calc.CalculateQuote(quote, products, cfg, usdRates())
	require.NoError(t, err)

	p := result.Products[0]
	assert.True(t, p.OutputVAT.Equal(p.SalePriceNoVAT.Mul(dec("0.22"))),
		"delivery after the cutover must use the 22%% rate")
}

func TestPipeline_InvalidInputAbortsQuote(t *testing.T) {
	calc := NewCalculator(zap.NewNop())
	cfg := DefaultSystemConfig()
	quote := QuoteVariables{SellerRegion: "RU", QuoteCurrency: "USD", DMFeeType: DMFeePercent}

	t.Run("zero quantity", func(t *testing.T) {
		products := []ProductInput{
			{SKU: "OK-1", BasePriceWithVAT: dec("100"), Currency: "USD", Quantity: 1, SupplierCountry: "CN"},
			{SKU: "BAD-1", BasePriceWithVAT: dec("100"), Currency: "USD", Quantity: 0, SupplierCountry: "CN"},
		}
		result, err := calc.CalculateQuote(quote, products, cfg, usdRates())
		assert.Nil(t, result, "no partial results on abort")
		var calcErr *CalculationError
		require.ErrorAs(t, err, &calcErr)
		assert.Equal(t, "BAD-1", calcErr.ProductSKU)
		assert.Equal(t, 1, calcErr.Phase)
		assert.Equal(t, "quantity", calcErr.Field)
	})

	t.Run("negative price", func(t *testing.T) {
		products := []ProductInput{
			{SKU: "BAD-2", BasePriceWithVAT: dec("-5"), Currency: "USD", Quantity: 1, SupplierCountry: "CN"},
		}
		result, err := calc.CalculateQuote(quote, products, cfg, usdRates())
		assert.Nil(t, result)
		var calcErr *CalculationError
		require.ErrorAs(t, err, &calcErr)
		assert.Equal(t, "base_price_with_vat", calcErr.Field)
	})

	t.Run("empty quote", func(t *testing.T) {
		result, err := calc.CalculateQuote(quote, nil, cfg, usdRates())
		assert.Nil(t, result)
		var calcErr *CalculationError
		require.ErrorAs(t, err, &calcErr)
		assert.Equal(t, "products", calcErr.Field)
	})
}

func TestPipeline_DMFeeTypes(t *testing.T) {
	calc := NewCalculator(zap.NewNop())
	cfg := DefaultSystemConfig()

	base := QuoteVariables{SellerRegion: "RU", QuoteCurrency: "USD"}
	products := []ProductInput{
		{SKU: "D-1", BasePriceWithVAT: dec("100"), Currency: "USD", Quantity: 10, SupplierCountry: "CN"},
	}

	t.Run("percent fee on the internal sale price", func(t *testing.T) {
		quote := base
		quote.DMFeeType = DMFeePercent
		quote.DMFeeRate = dec("0.02")
		result, err := calc.CalculateQuote(quote, products, cfg, usdRates())
		require.NoError(t, err)
		p := result.Products[0]
		assert.True(t, p.DMFee.Equal(dec("1070").Mul(dec("0.02"))))
		assert.True(t, p.SalePriceNoVAT.Equal(p.InternalSalePrice.Add(p.DMFee)))
	})

	t.Run("fixed fee distributed by key", func(t *testing.T) {
		quote := base
		quote.DMFeeType = DMFeeFixed
		quote.DMFeeAmount = dec("300")
		result, err := calc.CalculateQuote(quote, products, cfg, usdRates())
		require.NoError(t, err)
		assert.True(t, result.Products[0].DMFee.Equal(dec("300")), "single product takes the whole fixed fee")
	})
}
