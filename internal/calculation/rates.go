package calculation

import (
	"time"

	"github.com/shopspring/decimal"
)

// VATRule is one entry of the date-ranged VAT schedule: the rate for a
// seller region from ValidFrom onwards, until a later rule takes over.
type VATRule struct {
	Region    string
	ValidFrom time.Time
	Rate      decimal.Decimal
}

// SystemConfig holds admin-tunable rates that are not tied to a single
// quote. It is passed explicitly into the resolver and pipeline; there
// is no process-wide state.
type SystemConfig struct {
	ForexRiskRate           decimal.Decimal
	FinancingCommissionRate decimal.Decimal
	DailyLoanInterestRate   decimal.Decimal
	TransitCommissionRate   decimal.Decimal

	// Per-supplier-country tables
	SupplierVATRates map[string]decimal.Decimal
	InternalMarkups  map[string]decimal.Decimal

	VATSchedule   []VATRule
	LegacyVATRate decimal.Decimal
}

// ruVATCutover is the date the reference jurisdiction's VAT moves from
// 20% to 22%.
var ruVATCutover = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// DefaultSystemConfig returns the standard rate tables. Callers may
// replace any table before handing the config to a run.
func DefaultSystemConfig() SystemConfig {
	pct := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	return SystemConfig{
		ForexRiskRate:           pct("0.015"),
		FinancingCommissionRate: pct("0.01"),
		DailyLoanInterestRate:   pct("0.0005"),
		TransitCommissionRate:   pct("0.005"),
		SupplierVATRates: map[string]decimal.Decimal{
			"CN": pct("0.13"),
			"TR": pct("0.20"),
			"DE": pct("0.19"),
			"RU": pct("0.20"),
			"AE": pct("0.05"),
		},
		InternalMarkups: map[string]decimal.Decimal{
			"CN": pct("0.07"),
			"TR": pct("0.06"),
			"DE": pct("0.05"),
			"RU": pct("0.04"),
			"AE": pct("0.06"),
		},
		VATSchedule: []VATRule{
			{Region: "RU", ValidFrom: time.Time{}, Rate: pct("0.20")},
			{Region: "RU", ValidFrom: ruVATCutover, Rate: pct("0.22")},
			{Region: "AE", ValidFrom: time.Time{}, Rate: decimal.Zero},
			{Region: "HK", ValidFrom: time.Time{}, Rate: decimal.Zero},
		},
		LegacyVATRate: pct("0.20"),
	}
}

// VATRateFor resolves the seller VAT rate for a region and delivery
// date. Flat-rated regions (a single dateless rule) keep their rate
// even without a delivery date; regions with a dated schedule fall back
// to the legacy rate when no date is supplied.
func (c SystemConfig) VATRateFor(region string, deliveryDate *time.Time) (decimal.Decimal, error) {
	var rules []VATRule
	for _, r := range c.VATSchedule {
		if r.Region == region {
			rules = append(rules, r)
		}
	}
	if len(rules) == 0 {
		return decimal.Decimal{}, &ConfigurationError{Field: "seller_region", Value: region, Reason: "no VAT rule for region"}
	}

	if deliveryDate == nil {
		if len(rules) == 1 && rules[0].ValidFrom.IsZero() {
			return rules[0].Rate, nil
		}
		return c.LegacyVATRate, nil
	}

	// Latest rule with ValidFrom <= delivery date wins.
	var best *VATRule
	for i := range rules {
		r := &rules[i]
		if r.ValidFrom.After(*deliveryDate) {
			continue
		}
		if best == nil || r.ValidFrom.After(best.ValidFrom) {
			best = r
		}
	}
	if best == nil {
		return decimal.Decimal{}, &ConfigurationError{Field: "seller_region", Value: region, Reason: "no VAT rule effective on delivery date"}
	}
	return best.Rate, nil
}

// SupplierVATFor returns the VAT rate of a supplier country.
func (c SystemConfig) SupplierVATFor(country string) (decimal.Decimal, error) {
	rate, ok := c.SupplierVATRates[country]
	if !ok {
		return decimal.Decimal{}, &ConfigurationError{Field: "supplier_country", Value: country, Reason: "no supplier VAT rate for country"}
	}
	return rate, nil
}

// InternalMarkupFor returns the internal markup of a supplier country.
func (c SystemConfig) InternalMarkupFor(country string) (decimal.Decimal, error) {
	markup, ok := c.InternalMarkups[country]
	if !ok {
		return decimal.Decimal{}, &ConfigurationError{Field: "supplier_country", Value: country, Reason: "no internal markup for country"}
	}
	return markup, nil
}
