package validation

import (
	"github.com/shopspring/decimal"

	"github.com/garyjia/quote-engine/internal/calculation"
)

// ResultField names one field of ProductCalculationResult. The names
// mirror the JSON tags of the result type; the mapping tests assert
// that every mapped name resolves to an accessor.
type ResultField string

const (
	FieldPurchasePriceTotal   ResultField = "purchase_price_total"
	FieldPurchasePriceNoVAT   ResultField = "purchase_price_no_vat"
	FieldLogisticsFirstLeg    ResultField = "logistics_first_leg"
	FieldLogisticsLastLeg     ResultField = "logistics_last_leg"
	FieldLogisticsTotal       ResultField = "logistics_total"
	FieldCustomsFee           ResultField = "customs_fee"
	FieldBrokerageFee         ResultField = "brokerage_fee"
	FieldInternalSalePrice    ResultField = "internal_sale_price"
	FieldInitialFinancingCost ResultField = "initial_financing_cost"
	FieldCreditFinancingCost  ResultField = "credit_financing_cost"
	FieldCOGSPerUnit          ResultField = "cogs_per_unit"
	FieldCOGSTotal            ResultField = "cogs_total"
	FieldProfit               ResultField = "profit"
	FieldDMFee                ResultField = "dm_fee"
	FieldSalePriceTotalNoVAT  ResultField = "sales_price_total_no_vat"
	FieldSalePriceWithVAT     ResultField = "sales_price_with_vat"
	FieldNetVATPayable        ResultField = "net_vat_payable"
	FieldTransitCommission    ResultField = "transit_commission"
)

// CellMapping binds one spreadsheet column (per product row) to a
// result field and the phase that owns it. The table is a versioned
// contract with the reference workbook layout: products occupy one row
// each starting at ProductStartRow.
type CellMapping struct {
	Column string
	Field  ResultField
	Phase  int
}

// ResultCellMappings is the authoritative column-to-field table.
var ResultCellMappings = []CellMapping{
	{Column: "H", Field: FieldPurchasePriceTotal, Phase: 1},
	{Column: "I", Field: FieldPurchasePriceNoVAT, Phase: 1},
	{Column: "J", Field: FieldLogisticsFirstLeg, Phase: 2},
	{Column: "K", Field: FieldLogisticsLastLeg, Phase: 2},
	{Column: "L", Field: FieldLogisticsTotal, Phase: 2},
	{Column: "M", Field: FieldCustomsFee, Phase: 3},
	{Column: "N", Field: FieldBrokerageFee, Phase: 3},
	{Column: "O", Field: FieldInternalSalePrice, Phase: 4},
	{Column: "P", Field: FieldInitialFinancingCost, Phase: 9},
	{Column: "Q", Field: FieldCreditFinancingCost, Phase: 9},
	{Column: "R", Field: FieldCOGSPerUnit, Phase: 10},
	{Column: "S", Field: FieldCOGSTotal, Phase: 10},
	{Column: "T", Field: FieldProfit, Phase: 11},
	{Column: "U", Field: FieldDMFee, Phase: 11},
	{Column: "AK", Field: FieldSalePriceTotalNoVAT, Phase: 12},
	{Column: "AL", Field: FieldSalePriceWithVAT, Phase: 12},
	{Column: "AM", Field: FieldNetVATPayable, Phase: 12},
	{Column: "AQ", Field: FieldTransitCommission, Phase: 13},
}

// summaryFields is the curated headline subset checked in summary mode.
var summaryFields = map[ResultField]bool{
	FieldSalePriceTotalNoVAT: true,
	FieldNetVATPayable:       true,
	FieldTransitCommission:   true,
}

// fieldAccessors projects a named field out of a calculation result.
var fieldAccessors = map[ResultField]func(*calculation.ProductCalculationResult) decimal.Decimal{
	FieldPurchasePriceTotal:   func(r *calculation.ProductCalculationResult) decimal.Decimal { return r.PurchasePriceTotal },
	FieldPurchasePriceNoVAT:   func(r *calculation.ProductCalculationResult) decimal.Decimal { return r.PurchasePriceNoVAT },
	FieldLogisticsFirstLeg:    func(r *calculation.ProductCalculationResult) decimal.Decimal { return r.LogisticsFirstLeg },
	FieldLogisticsLastLeg:     func(r *calculation.ProductCalculationResult) decimal.Decimal { return r.LogisticsLastLeg },
	FieldLogisticsTotal:       func(r *calculation.ProductCalculationResult) decimal.Decimal { return r.LogisticsTotal },
	FieldCustomsFee:           func(r *calculation.ProductCalculationResult) decimal.Decimal { return r.CustomsFee },
	FieldBrokerageFee:         func(r *calculation.ProductCalculationResult) decimal.Decimal { return r.BrokerageFee },
	FieldInternalSalePrice:    func(r *calculation.ProductCalculationResult) decimal.Decimal { return r.InternalSalePrice },
	FieldInitialFinancingCost: func(r *calculation.ProductCalculationResult) decimal.Decimal { return r.InitialFinancingCost },
	FieldCreditFinancingCost:  func(r *calculation.ProductCalculationResult) decimal.Decimal { return r.CreditFinancingCost },
	FieldCOGSPerUnit:          func(r *calculation.ProductCalculationResult) decimal.Decimal { return r.COGSPerUnit },
	FieldCOGSTotal:            func(r *calculation.ProductCalculationResult) decimal.Decimal { return r.COGSTotal },
	FieldProfit:               func(r *calculation.ProductCalculationResult) decimal.Decimal { return r.Profit },
	FieldDMFee:                func(r *calculation.ProductCalculationResult) decimal.Decimal { return r.DMFee },
	FieldSalePriceTotalNoVAT:  func(r *calculation.ProductCalculationResult) decimal.Decimal { return r.SalePriceNoVAT },
	FieldSalePriceWithVAT:     func(r *calculation.ProductCalculationResult) decimal.Decimal { return r.SalePriceWithVAT },
	FieldNetVATPayable:        func(r *calculation.ProductCalculationResult) decimal.Decimal { return r.NetVATPayable },
	FieldTransitCommission:    func(r *calculation.ProductCalculationResult) decimal.Decimal { return r.TransitCommission },
}

// AccessorFor returns the projection function for a mapped field.
func AccessorFor(field ResultField) (func(*calculation.ProductCalculationResult) decimal.Decimal, bool) {
	fn, ok := fieldAccessors[field]
	return fn, ok
}
