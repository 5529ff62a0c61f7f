package calculation

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Resolver merges quote-level defaults with per-product overrides and
// performs all lookups (VAT schedule, markup table, rate snapshot),
// producing one immutable ResolvedProduct per input. A per-product
// override masks the quote default field-by-field, never wholesale.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a new variable resolver
func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve produces fully-resolved inputs for every product in the
// quote. The first unresolvable field aborts with a *ConfigurationError
// naming it.
func (r *Resolver) Resolve(quote QuoteVariables, products []ProductInput, cfg SystemConfig, rates ExchangeRates) ([]ResolvedProduct, error) {
	if quote.QuoteCurrency == "" {
		return nil, &ConfigurationError{Field: "quote_currency", Reason: "quote currency is required"}
	}
	if !SupportedCurrencies[quote.QuoteCurrency] {
		return nil, &ConfigurationError{Field: "quote_currency", Value: quote.QuoteCurrency, Reason: "currency not in supported set"}
	}
	if quote.SellerRegion == "" {
		return nil, &ConfigurationError{Field: "seller_region", Reason: "seller region is required"}
	}

	sellerVAT, err := cfg.VATRateFor(quote.SellerRegion, quote.DeliveryDate)
	if err != nil {
		return nil, err
	}

	resolved := make([]ResolvedProduct, 0, len(products))
	for _, p := range products {
		rp, err := r.resolveProduct(quote, p, cfg, rates, sellerVAT)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, rp)
	}

	r.logger.Debug("Resolved quote variables",
		zap.String("seller_region", quote.SellerRegion),
		zap.String("quote_currency", quote.QuoteCurrency),
		zap.Int("products", len(resolved)))

	return resolved, nil
}

func (r *Resolver) resolveProduct(quote QuoteVariables, p ProductInput, cfg SystemConfig, rates ExchangeRates, sellerVAT decimal.Decimal) (ResolvedProduct, error) {
	if p.Currency == "" {
		return ResolvedProduct{}, &ConfigurationError{Field: "currency", Value: p.SKU, Reason: "product currency is required"}
	}
	if !SupportedCurrencies[p.Currency] {
		return ResolvedProduct{}, &ConfigurationError{Field: "currency", Value: p.Currency, Reason: "currency not in supported set"}
	}

	supplierVAT, err := cfg.SupplierVATFor(p.SupplierCountry)
	if err != nil {
		return ResolvedProduct{}, err
	}
	markup, err := cfg.InternalMarkupFor(p.SupplierCountry)
	if err != nil {
		return ResolvedProduct{}, err
	}

	conversion, err := rates.Convert(decimal.NewFromInt(1), p.Currency, quote.QuoteCurrency)
	if err != nil {
		return ResolvedProduct{}, err
	}

	rp := ResolvedProduct{
		SKU:              p.SKU,
		Name:             p.Name,
		BasePriceWithVAT: p.BasePriceWithVAT,
		Currency:         p.Currency,
		Quantity:         p.Quantity,
		WeightKg:         p.WeightKg,
		SupplierCountry:  p.SupplierCountry,

		SupplierVATRate: supplierVAT,
		InternalMarkup:  markup,
		SellerVATRate:   sellerVAT,
		ConversionRate:  conversion,

		AdvancePercent:    quote.AdvancePercent,
		FinancingDays:     quote.FinancingDays,
		LogisticsFirstLeg: quote.LogisticsFirstLeg,
		LogisticsLastLeg:  quote.LogisticsLastLeg,
		CustomsTotal:      quote.CustomsTotal,
		BrokerageTotal:    quote.BrokerageTotal,
		DMFeeType:         quote.DMFeeType,
		DMFeeRate:         quote.DMFeeRate,
		DMFeeAmount:       quote.DMFeeAmount,
	}

	ov := p.Overrides
	if ov.LogisticsFirstLeg != nil {
		rp.LogisticsFirstLeg = *ov.LogisticsFirstLeg
	}
	if ov.LogisticsLastLeg != nil {
		rp.LogisticsLastLeg = *ov.LogisticsLastLeg
	}
	if ov.CustomsTotal != nil {
		rp.CustomsTotal = *ov.CustomsTotal
	}
	if ov.BrokerageTotal != nil {
		rp.BrokerageTotal = *ov.BrokerageTotal
	}
	if ov.AdvancePercent != nil {
		rp.AdvancePercent = *ov.AdvancePercent
	}
	if ov.FinancingDays != nil {
		rp.FinancingDays = *ov.FinancingDays
	}
	if ov.DMFeeRate != nil {
		rp.DMFeeRate = *ov.DMFeeRate
	}

	if rp.DMFeeType == "" {
		rp.DMFeeType = DMFeePercent
	}

	return rp, nil
}
