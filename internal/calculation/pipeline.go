package calculation

import (
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine runs the 13-phase calculation pipeline over resolved inputs.
// It is a pure function of its arguments: no I/O, no shared state, safe
// for concurrent quotes.
//
// Phases 1-4 (Pass A) run per product and fan out across goroutines;
// phases 5-8 (Pass B) aggregate once per quote after every Pass A
// result is in; phases 9-13 (Pass C) redistribute the Pass B scalars
// back onto each product by the distribution key.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a new calculation engine
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// passAResult carries the per-product outputs of phases 1-4.
type passAResult struct {
	purchaseUnit  decimal.Decimal
	purchaseTotal decimal.Decimal
	purchaseNet   decimal.Decimal
	inputVAT      decimal.Decimal

	key            decimal.Decimal
	firstLeg       decimal.Decimal
	lastLeg        decimal.Decimal
	logisticsTotal decimal.Decimal
	customs        decimal.Decimal
	brokerage      decimal.Decimal
	internalSale   decimal.Decimal
}

// Calculate runs the full pipeline for one quote. A single structurally
// invalid product aborts the whole quote with a *CalculationError;
// partial results are never returned.
func (e *Engine) Calculate(quote QuoteVariables, products []ResolvedProduct, cfg SystemConfig) (*QuoteCalculationResult, error) {
	if len(products) == 0 {
		return nil, &CalculationError{Phase: 1, Field: "products", Reason: "quote has no products"}
	}

	partial := make([]passAResult, len(products))
	errs := make([]error, len(products))

	// Phase 1: purchase price, per product.
	var wg sync.WaitGroup
	for i := range products {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			partial[i], errs[i] = phasePurchasePrice(products[i])
		}(i)
	}
	wg.Wait()
	if err := firstError(errs); err != nil {
		return nil, err
	}

	// Distribution keys need every product's phase 1 output.
	totals := make([]decimal.Decimal, len(products))
	for i := range partial {
		totals[i] = partial[i].purchaseTotal
	}
	keys, err := distributionKeys(totals)
	if err != nil {
		return nil, err
	}

	// Phases 2-4: logistics, customs, internal sale price.
	for i := range products {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			partial[i].key = keys[i]
			phaseLogistics(&partial[i], products[i])
			phaseCustoms(&partial[i], products[i])
			phaseInternalSalePrice(&partial[i], products[i])
		}(i)
	}
	wg.Wait()

	// Pass B: phases 5-8, once per quote. Strict join point: every
	// Pass A result must be in before aggregation starts.
	agg := e.aggregate(quote, products, partial, cfg)

	// Pass C: phases 9-13, per product.
	results := make([]ProductCalculationResult, len(products))
	for i := range products {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = redistribute(products[i], partial[i], agg, cfg)
		}(i)
	}
	wg.Wait()

	e.logger.Debug("Quote calculation complete",
		zap.Int("products", len(results)),
		zap.String("total_before_forwarding", agg.TotalBeforeForwarding.String()),
		zap.String("total_financing_cost", agg.TotalFinancingCost.String()))

	return &QuoteCalculationResult{Products: results, Aggregate: agg}, nil
}

// phasePurchasePrice converts the unit price into the quote currency
// and totals it (phase 1), splitting out the supplier VAT component.
func phasePurchasePrice(p ResolvedProduct) (passAResult, error) {
	if p.Quantity <= 0 {
		return passAResult{}, &CalculationError{ProductSKU: p.SKU, Phase: 1, Field: "quantity", Reason: "quantity must be positive"}
	}
	if !p.BasePriceWithVAT.IsPositive() {
		return passAResult{}, &CalculationError{ProductSKU: p.SKU, Phase: 1, Field: "base_price_with_vat", Reason: "price must be positive"}
	}

	unit := p.BasePriceWithVAT.Mul(p.ConversionRate)
	total := unit.Mul(decimal.NewFromInt(p.Quantity))
	net := total.Div(decimal.NewFromInt(1).Add(p.SupplierVATRate))

	return passAResult{
		purchaseUnit:  unit,
		purchaseTotal: total,
		purchaseNet:   net,
		inputVAT:      total.Sub(net),
	}, nil
}

// phaseLogistics apportions the resolved leg totals by the distribution
// key (phase 2).
func phaseLogistics(r *passAResult, p ResolvedProduct) {
	r.firstLeg = r.key.Mul(p.LogisticsFirstLeg)
	r.lastLeg = r.key.Mul(p.LogisticsLastLeg)
	r.logisticsTotal = r.firstLeg.Add(r.lastLeg)
}

// phaseCustoms apportions customs and brokerage totals (phase 3).
func phaseCustoms(r *passAResult, p ResolvedProduct) {
	r.customs = r.key.Mul(p.CustomsTotal)
	r.brokerage = r.key.Mul(p.BrokerageTotal)
}

// phaseInternalSalePrice marks up the landed cost by the supplier
// country's internal markup (phase 4).
func phaseInternalSalePrice(r *passAResult, p ResolvedProduct) {
	landed := r.purchaseTotal.Add(r.logisticsTotal).Add(r.customs)
	r.internalSale = landed.Mul(decimal.NewFromInt(1).Add(p.InternalMarkup))
}

// aggregate runs phases 5-8 once per quote. The milestone schedule is
// quote-scalar; the advance percentage and financing term come from the
// resolved products, so per-product overrides of those fields shape
// each product's slice of the financing cost.
func (e *Engine) aggregate(quote QuoteVariables, products []ResolvedProduct, partial []passAResult, cfg SystemConfig) QuoteLevelAggregate {
	hundred := decimal.NewFromInt(100)
	one := decimal.NewFromInt(1)

	// Phase 5: supplier payment required.
	supplierPayment := decimal.Zero
	for _, r := range partial {
		supplierPayment = supplierPayment.Add(r.purchaseTotal)
	}

	// Phase 6: total cost before forwarding.
	tbf := supplierPayment
	for _, r := range partial {
		tbf = tbf.Add(r.logisticsTotal).Add(r.customs).Add(r.brokerage)
	}

	// Phase 7: financing cost on the non-advanced share of each
	// product's slice of the total.
	totalFinancing := decimal.Zero
	for i, p := range products {
		unadvanced := one.Sub(p.AdvancePercent.Div(hundred))
		financed := tbf.Mul(partial[i].key).Mul(unadvanced)
		loanInterest := financed.Mul(cfg.DailyLoanInterestRate).Mul(decimal.NewFromInt(int64(p.FinancingDays)))
		forexRisk := financed.Mul(cfg.ForexRiskRate)
		commission := financed.Mul(cfg.FinancingCommissionRate)
		totalFinancing = totalFinancing.Add(loanInterest).Add(forexRisk).Add(commission)
	}

	// Phase 8: credit-sales interest over the milestone schedule.
	creditInterest := decimal.Zero
	for _, m := range quote.PaymentMilestones {
		milestoneShare := m.Percent.Div(hundred)
		for i, p := range products {
			unadvanced := one.Sub(p.AdvancePercent.Div(hundred))
			share := milestoneShare.Mul(unadvanced).Mul(tbf.Mul(partial[i].key))
			creditInterest = creditInterest.Add(share.Mul(cfg.DailyLoanInterestRate).Mul(decimal.NewFromInt(int64(m.DueInDays))))
		}
	}

	return QuoteLevelAggregate{
		SupplierPaymentRequired: supplierPayment,
		TotalBeforeForwarding:   tbf,
		TotalFinancingCost:      totalFinancing,
		CreditSalesInterest:     creditInterest,
	}
}

// redistribute runs phases 9-13 for one product: financing shares,
// COGS, profit and DM fee, sale price and VAT, transit commission.
func redistribute(p ResolvedProduct, r passAResult, agg QuoteLevelAggregate, cfg SystemConfig) ProductCalculationResult {
	// Phase 9: financing redistribution by the same key.
	initFin := r.key.Mul(agg.TotalFinancingCost)
	creditFin := r.key.Mul(agg.CreditSalesInterest)
	finTotal := initFin.Add(creditFin)

	// Phase 10: cost of goods sold.
	cogsTotal := r.purchaseTotal.Add(r.logisticsTotal).Add(r.customs).Add(r.brokerage).Add(finTotal)
	cogsPerUnit := cogsTotal.Div(decimal.NewFromInt(p.Quantity))

	// Phase 11: profit and DM fee.
	profit := r.internalSale.Sub(cogsTotal)
	var dmFee decimal.Decimal
	switch p.DMFeeType {
	case DMFeeFixed:
		dmFee = r.key.Mul(p.DMFeeAmount)
	default:
		dmFee = p.DMFeeRate.Mul(r.internalSale)
	}

	// Phase 12: sale price and VAT.
	saleNoVAT := r.internalSale.Add(dmFee)
	outputVAT := saleNoVAT.Mul(p.SellerVATRate)
	saleWithVAT := saleNoVAT.Add(outputVAT)
	netVAT := outputVAT.Sub(r.inputVAT)

	// Phase 13: transit commission plus the per-unit display price, the
	// single presentation rounding in the pipeline.
	transit := cfg.TransitCommissionRate.Mul(saleNoVAT)
	perUnit := saleWithVAT.Div(decimal.NewFromInt(p.Quantity)).Round(2)

	return ProductCalculationResult{
		SKU:      p.SKU,
		Name:     p.Name,
		Quantity: p.Quantity,

		PurchasePriceUnit:  r.purchaseUnit,
		PurchasePriceTotal: r.purchaseTotal,
		PurchasePriceNoVAT: r.purchaseNet,
		InputVAT:           r.inputVAT,

		DistributionKey:   r.key,
		LogisticsFirstLeg: r.firstLeg,
		LogisticsLastLeg:  r.lastLeg,
		LogisticsTotal:    r.logisticsTotal,

		CustomsFee:   r.customs,
		BrokerageFee: r.brokerage,

		InternalSalePrice: r.internalSale,

		InitialFinancingCost: initFin,
		CreditFinancingCost:  creditFin,
		FinancingCostTotal:   finTotal,

		COGSPerUnit: cogsPerUnit,
		COGSTotal:   cogsTotal,

		Profit: profit,
		DMFee:  dmFee,

		SalePriceNoVAT:   saleNoVAT,
		OutputVAT:        outputVAT,
		SalePriceWithVAT: saleWithVAT,
		NetVATPayable:    netVAT,

		TransitCommission: transit,
		SalePricePerUnit:  perUnit,
	}
}

// firstError returns the lowest-index error so aborts are deterministic
// regardless of goroutine scheduling.
func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
