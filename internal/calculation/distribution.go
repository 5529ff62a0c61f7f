package calculation

import (
	"github.com/shopspring/decimal"
)

// keySumTolerance bounds how far the distribution keys may drift from
// exactly 1 before the quote is aborted.
var keySumTolerance = decimal.New(1, -9)

// distributionKeys computes each product's share of the quote: its
// purchase-price total divided by the quote-wide sum. Any quote-level
// total spread by these keys sums back to the original within the
// division precision.
func distributionKeys(purchaseTotals []decimal.Decimal) ([]decimal.Decimal, error) {
	total := decimal.Zero
	for _, t := range purchaseTotals {
		total = total.Add(t)
	}
	if !total.IsPositive() {
		return nil, &CalculationError{Phase: 2, Field: "purchase_price_total", Reason: "quote-wide purchase total must be positive"}
	}

	keys := make([]decimal.Decimal, len(purchaseTotals))
	sum := decimal.Zero
	for i, t := range purchaseTotals {
		keys[i] = t.Div(total)
		sum = sum.Add(keys[i])
	}

	if sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(keySumTolerance) {
		return nil, &CalculationError{Phase: 2, Field: "distribution_key", Reason: "distribution keys do not sum to 1 within tolerance"}
	}
	return keys, nil
}
