package calculation

import (
	"time"

	"github.com/shopspring/decimal"
)

// DMFeeType selects how the deal-management fee is charged
type DMFeeType string

const (
	DMFeePercent DMFeeType = "percent"
	DMFeeFixed   DMFeeType = "fixed"
)

// SupportedCurrencies is the closed set of currency codes the engine accepts
var SupportedCurrencies = map[string]bool{
	"USD": true,
	"EUR": true,
	"CNY": true,
	"RUB": true,
	"AED": true,
	"TRY": true,
}

// PaymentMilestone is one step of the client payment schedule
type PaymentMilestone struct {
	Percent   decimal.Decimal `json:"percent"`
	DueInDays int             `json:"due_in_days"`
}

// QuoteVariables holds quote-level inputs shared by every product unless overridden
type QuoteVariables struct {
	SellerCompany     string             `json:"seller_company"`
	SellerRegion      string             `json:"seller_region"`
	QuoteCurrency     string             `json:"quote_currency"`
	SaleType          string             `json:"sale_type"`
	Incoterms         string             `json:"incoterms"`
	AdvancePercent    decimal.Decimal    `json:"advance_percent"`
	DeliveryDate      *time.Time         `json:"delivery_date,omitempty"`
	PaymentMilestones []PaymentMilestone `json:"payment_milestones,omitempty"`
	DMFeeType         DMFeeType          `json:"dm_fee_type"`
	DMFeeRate         decimal.Decimal    `json:"dm_fee_rate"`
	DMFeeAmount       decimal.Decimal    `json:"dm_fee_amount"`
	LogisticsFirstLeg decimal.Decimal    `json:"logistics_first_leg"`
	LogisticsLastLeg  decimal.Decimal    `json:"logistics_last_leg"`
	CustomsTotal      decimal.Decimal    `json:"customs_total"`
	BrokerageTotal    decimal.Decimal    `json:"brokerage_total"`
	FinancingDays     int                `json:"financing_days"`
}

// ProductOverrides carries optional per-product values that mask the
// quote-level defaults field-by-field during resolution. A nil field
// means "use the quote default".
type ProductOverrides struct {
	LogisticsFirstLeg *decimal.Decimal `json:"logistics_first_leg,omitempty"`
	LogisticsLastLeg  *decimal.Decimal `json:"logistics_last_leg,omitempty"`
	CustomsTotal      *decimal.Decimal `json:"customs_total,omitempty"`
	BrokerageTotal    *decimal.Decimal `json:"brokerage_total,omitempty"`
	AdvancePercent    *decimal.Decimal `json:"advance_percent,omitempty"`
	FinancingDays     *int             `json:"financing_days,omitempty"`
	DMFeeRate         *decimal.Decimal `json:"dm_fee_rate,omitempty"`
}

// ProductInput is one product line as submitted to a calculation run.
// Immutable once submitted.
type ProductInput struct {
	SKU              string           `json:"sku"`
	Name             string           `json:"name"`
	BasePriceWithVAT decimal.Decimal  `json:"base_price_with_vat"`
	Currency         string           `json:"currency"`
	Quantity         int64            `json:"quantity"`
	WeightKg         decimal.Decimal  `json:"weight_kg"`
	SupplierCountry  string           `json:"supplier_country"`
	Overrides        ProductOverrides `json:"overrides,omitempty"`
}

// RateEntry is one resolved exchange rate: units of the settlement
// currency per one unit of the quoted currency, tagged with provenance.
type RateEntry struct {
	Rate      decimal.Decimal `json:"rate"`
	Source    string          `json:"source"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// ExchangeRates is a read-only rate snapshot for one calculation run.
// The engine performs no live lookups.
type ExchangeRates struct {
	Settlement string               `json:"settlement"`
	Entries    map[string]RateEntry `json:"entries"`
}

// RateFor returns the settlement rate for a currency code. The
// settlement currency itself is always rate 1.
func (r ExchangeRates) RateFor(currency string) (decimal.Decimal, bool) {
	if currency == r.Settlement {
		return decimal.NewFromInt(1), true
	}
	entry, ok := r.Entries[currency]
	if !ok {
		return decimal.Decimal{}, false
	}
	return entry.Rate, true
}

// Convert cross-rates an amount between two currencies through the
// settlement currency.
func (r ExchangeRates) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	fromRate, ok := r.RateFor(from)
	if !ok {
		return decimal.Decimal{}, &ConfigurationError{Field: "exchange_rate", Value: from, Reason: "currency not present in rate snapshot"}
	}
	if !fromRate.IsPositive() {
		return decimal.Decimal{}, &ConfigurationError{Field: "exchange_rate", Value: from, Reason: "snapshot rate must be positive"}
	}
	toRate, ok := r.RateFor(to)
	if !ok {
		return decimal.Decimal{}, &ConfigurationError{Field: "exchange_rate", Value: to, Reason: "currency not present in rate snapshot"}
	}
	if !toRate.IsPositive() {
		return decimal.Decimal{}, &ConfigurationError{Field: "exchange_rate", Value: to, Reason: "snapshot rate must be positive"}
	}
	return amount.Mul(fromRate).Div(toRate), nil
}

// ResolvedProduct is the fully-resolved, immutable per-product input the
// pipeline runs on: quote defaults merged with overrides plus all
// lookup results (VAT, markup, conversion rate).
type ResolvedProduct struct {
	SKU              string
	Name             string
	BasePriceWithVAT decimal.Decimal
	Currency         string
	Quantity         int64
	WeightKg         decimal.Decimal
	SupplierCountry  string

	SupplierVATRate decimal.Decimal
	InternalMarkup  decimal.Decimal
	SellerVATRate   decimal.Decimal
	ConversionRate  decimal.Decimal

	AdvancePercent    decimal.Decimal
	FinancingDays     int
	LogisticsFirstLeg decimal.Decimal
	LogisticsLastLeg  decimal.Decimal
	CustomsTotal      decimal.Decimal
	BrokerageTotal    decimal.Decimal
	DMFeeType         DMFeeType
	DMFeeRate         decimal.Decimal
	DMFeeAmount       decimal.Decimal
}

// ProductCalculationResult holds every phase output for one product.
// Produced exactly once per product per run and never mutated.
type ProductCalculationResult struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`

	// Phase 1
	PurchasePriceUnit  decimal.Decimal `json:"purchase_price_unit"`
	PurchasePriceTotal decimal.Decimal `json:"purchase_price_total"`
	PurchasePriceNoVAT decimal.Decimal `json:"purchase_price_no_vat"`
	InputVAT           decimal.Decimal `json:"input_vat"`

	// Phase 2
	DistributionKey   decimal.Decimal `json:"distribution_key"`
	LogisticsFirstLeg decimal.Decimal `json:"logistics_first_leg"`
	LogisticsLastLeg  decimal.Decimal `json:"logistics_last_leg"`
	LogisticsTotal    decimal.Decimal `json:"logistics_total"`

	// Phase 3
	CustomsFee   decimal.Decimal `json:"customs_fee"`
	BrokerageFee decimal.Decimal `json:"brokerage_fee"`

	// Phase 4
	InternalSalePrice decimal.Decimal `json:"internal_sale_price"`

	// Phase 9
	InitialFinancingCost decimal.Decimal `json:"initial_financing_cost"`
	CreditFinancingCost  decimal.Decimal `json:"credit_financing_cost"`
	FinancingCostTotal   decimal.Decimal `json:"financing_cost_total"`

	// Phase 10
	COGSPerUnit decimal.Decimal `json:"cogs_per_unit"`
	COGSTotal   decimal.Decimal `json:"cogs_total"`

	// Phase 11
	Profit decimal.Decimal `json:"profit"`
	DMFee  decimal.Decimal `json:"dm_fee"`

	// Phase 12
	SalePriceNoVAT   decimal.Decimal `json:"sale_price_no_vat"`
	OutputVAT        decimal.Decimal `json:"output_vat"`
	SalePriceWithVAT decimal.Decimal `json:"sale_price_with_vat"`
	NetVATPayable    decimal.Decimal `json:"net_vat_payable"`

	// Phase 13
	TransitCommission decimal.Decimal `json:"transit_commission"`
	SalePricePerUnit  decimal.Decimal `json:"sale_price_per_unit"`
}

// QuoteLevelAggregate holds the Pass B quote-scalar outputs shared by
// every product's redistribution phase.
type QuoteLevelAggregate struct {
	SupplierPaymentRequired decimal.Decimal `json:"supplier_payment_required"`
	TotalBeforeForwarding   decimal.Decimal `json:"total_before_forwarding"`
	TotalFinancingCost      decimal.Decimal `json:"total_financing_cost"`
	CreditSalesInterest     decimal.Decimal `json:"credit_sales_interest"`
}

// QuoteCalculationResult is the full output of one quote run: ordered
// per-product results plus the quote-level aggregate.
type QuoteCalculationResult struct {
	Products  []ProductCalculationResult `json:"products"`
	Aggregate QuoteLevelAggregate        `json:"aggregate"`
}
