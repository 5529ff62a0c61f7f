package validation

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// calculationSheetNames lists the known spellings of the calculation
// sheet across reference workbook generations.
var calculationSheetNames = []string{"Calculation", "Расчет", "Расчёт", "Calc"}

// ProductStartRow is the first product row of the calculation sheet;
// products occupy one row each until the SKU column goes blank.
const ProductStartRow = 16

// Quote-level input cells of the calculation sheet.
const (
	cellSellerRegion      = "B2"
	cellQuoteCurrency     = "B3"
	cellAdvancePercent    = "B4"
	cellDeliveryDate      = "B5"
	cellFinancingDays     = "B6"
	cellLogisticsFirstLeg = "B7"
	cellLogisticsLastLeg  = "B8"
	cellCustomsTotal      = "B9"
	cellBrokerageTotal    = "B10"
	cellDMFeeType         = "B11"
	cellDMFeeRate         = "B12"
	cellDMFeeAmount       = "B13"
	cellSettlement        = "B14"
)

// RawMilestone is one extracted payment-schedule row.
type RawMilestone struct {
	Percent   decimal.Decimal
	DueInDays int
}

// RawQuote holds the quote-level inputs extracted from the sheet.
type RawQuote struct {
	SellerRegion      string
	QuoteCurrency     string
	AdvancePercent    decimal.Decimal
	DeliveryDate      *time.Time
	FinancingDays     int
	LogisticsFirstLeg decimal.Decimal
	LogisticsLastLeg  decimal.Decimal
	CustomsTotal      decimal.Decimal
	BrokerageTotal    decimal.Decimal
	DMFeeType         string
	DMFeeRate         decimal.Decimal
	DMFeeAmount       decimal.Decimal
	Settlement        string
	Rates             map[string]decimal.Decimal
	Milestones        []RawMilestone
}

// RawProduct holds one extracted product row.
type RawProduct struct {
	Row              int
	SKU              string
	Name             string
	BasePriceWithVAT decimal.Decimal
	Currency         string
	Quantity         int64
	WeightKg         decimal.Decimal
	SupplierCountry  string
}

// QuoteData is the full extraction of one reference workbook: inputs
// plus the expected output cells, keyed by cell reference. Used only by
// the validator, never by production calculation.
type QuoteData struct {
	Filename        string
	SheetName       string
	Quote           RawQuote
	Products        []RawProduct
	ExpectedResults map[string]decimal.Decimal
}

// Parser extracts QuoteData from reference spreadsheets
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a new ground-truth parser
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// ParseWorkbook opens a reference workbook, locates the calculation
// sheet and extracts inputs and expected outputs.
func (p *Parser) ParseWorkbook(path string) (*QuoteData, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &ParseError{File: filepath.Base(path), Reason: fmt.Sprintf("cannot open workbook: %v", err)}
	}
	defer f.Close()

	filename := filepath.Base(path)
	sheet := findCalculationSheet(f)
	if sheet == "" {
		return nil, &ParseError{File: filename, Reason: "calculation sheet not found"}
	}

	quote, err := p.parseQuote(f, filename, sheet)
	if err != nil {
		return nil, err
	}

	products, expected, err := p.parseProducts(f, filename, sheet)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, &ParseError{File: filename, Sheet: sheet, Reason: "no product rows found"}
	}

	p.logger.Debug("Workbook parsed",
		zap.String("file", filename),
		zap.String("sheet", sheet),
		zap.Int("products", len(products)),
		zap.Int("expected_cells", len(expected)))

	return &QuoteData{
		Filename:        filename,
		SheetName:       sheet,
		Quote:           *quote,
		Products:        products,
		ExpectedResults: expected,
	}, nil
}

// findCalculationSheet matches the sheet list against the known name
// variants, case-insensitively.
func findCalculationSheet(f *excelize.File) string {
	for _, name := range f.GetSheetList() {
		for _, candidate := range calculationSheetNames {
			if strings.EqualFold(strings.TrimSpace(name), candidate) {
				return name
			}
		}
	}
	return ""
}

func (p *Parser) parseQuote(f *excelize.File, filename, sheet string) (*RawQuote, error) {
	q := &RawQuote{Rates: make(map[string]decimal.Decimal)}
	var err error

	if q.SellerRegion, err = p.requireString(f, filename, sheet, cellSellerRegion); err != nil {
		return nil, err
	}
	if q.QuoteCurrency, err = p.requireString(f, filename, sheet, cellQuoteCurrency); err != nil {
		return nil, err
	}
	if q.AdvancePercent, err = p.requireDecimal(f, filename, sheet, cellAdvancePercent); err != nil {
		return nil, err
	}
	if q.DeliveryDate, err = p.optionalDate(f, filename, sheet, cellDeliveryDate); err != nil {
		return nil, err
	}
	days, err := p.requireDecimal(f, filename, sheet, cellFinancingDays)
	if err != nil {
		return nil, err
	}
	q.FinancingDays = int(days.IntPart())
	if q.LogisticsFirstLeg, err = p.requireDecimal(f, filename, sheet, cellLogisticsFirstLeg); err != nil {
		return nil, err
	}
	if q.LogisticsLastLeg, err = p.requireDecimal(f, filename, sheet, cellLogisticsLastLeg); err != nil {
		return nil, err
	}
	if q.CustomsTotal, err = p.requireDecimal(f, filename, sheet, cellCustomsTotal); err != nil {
		return nil, err
	}
	if q.BrokerageTotal, err = p.requireDecimal(f, filename, sheet, cellBrokerageTotal); err != nil {
		return nil, err
	}
	q.DMFeeType = p.cellString(f, sheet, cellDMFeeType)
	q.DMFeeRate = p.optionalDecimal(f, sheet, cellDMFeeRate)
	q.DMFeeAmount = p.optionalDecimal(f, sheet, cellDMFeeAmount)
	if q.Settlement, err = p.requireString(f, filename, sheet, cellSettlement); err != nil {
		return nil, err
	}

	// Exchange-rate block: columns D (code) and E (rate) from row 2
	// until the code column goes blank.
	for row := 2; ; row++ {
		code := p.cellString(f, sheet, fmt.Sprintf("D%d", row))
		if code == "" {
			break
		}
		cell := fmt.Sprintf("E%d", row)
		rate, err := p.requireDecimal(f, filename, sheet, cell)
		if err != nil {
			return nil, err
		}
		q.Rates[strings.ToUpper(code)] = rate
	}

	// Milestone block: columns G (percent) and H (due days) from row 2.
	for row := 2; ; row++ {
		pctRaw := p.cellString(f, sheet, fmt.Sprintf("G%d", row))
		if pctRaw == "" {
			break
		}
		pct, err := decimal.NewFromString(pctRaw)
		if err != nil {
			return nil, &ParseError{File: filename, Sheet: sheet, Cell: fmt.Sprintf("G%d", row), Reason: "milestone percent is not numeric"}
		}
		daysRaw := p.cellString(f, sheet, fmt.Sprintf("H%d", row))
		due, err := strconv.Atoi(daysRaw)
		if err != nil {
			return nil, &ParseError{File: filename, Sheet: sheet, Cell: fmt.Sprintf("H%d", row), Reason: "milestone due days is not an integer"}
		}
		q.Milestones = append(q.Milestones, RawMilestone{Percent: pct, DueInDays: due})
	}

	return q, nil
}

func (p *Parser) parseProducts(f *excelize.File, filename, sheet string) ([]RawProduct, map[string]decimal.Decimal, error) {
	var products []RawProduct
	expected := make(map[string]decimal.Decimal)

	for row := ProductStartRow; ; row++ {
		sku := p.cellString(f, sheet, fmt.Sprintf("A%d", row))
		if sku == "" {
			break
		}

		price, err := p.requireDecimal(f, filename, sheet, fmt.Sprintf("C%d", row))
		if err != nil {
			return nil, nil, err
		}
		currency, err := p.requireString(f, filename, sheet, fmt.Sprintf("D%d", row))
		if err != nil {
			return nil, nil, err
		}
		qty, err := p.requireDecimal(f, filename, sheet, fmt.Sprintf("E%d", row))
		if err != nil {
			return nil, nil, err
		}
		country, err := p.requireString(f, filename, sheet, fmt.Sprintf("G%d", row))
		if err != nil {
			return nil, nil, err
		}

		products = append(products, RawProduct{
			Row:              row,
			SKU:              sku,
			Name:             p.cellString(f, sheet, fmt.Sprintf("B%d", row)),
			BasePriceWithVAT: price,
			Currency:         strings.ToUpper(currency),
			Quantity:         qty.IntPart(),
			WeightKg:         p.optionalDecimal(f, sheet, fmt.Sprintf("F%d", row)),
			SupplierCountry:  strings.ToUpper(country),
		})

		// Expected output cells are sparse: blanks are simply not
		// checked, only malformed numbers are an error.
		for _, m := range ResultCellMappings {
			cell := fmt.Sprintf("%s%d", m.Column, row)
			raw := p.cellString(f, sheet, cell)
			if raw == "" {
				continue
			}
			value, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, nil, &ParseError{File: filename, Sheet: sheet, Cell: cell, Reason: "expected value is not numeric"}
			}
			expected[cell] = value
		}
	}

	return products, expected, nil
}

func (p *Parser) cellString(f *excelize.File, sheet, cell string) string {
	raw, err := f.GetCellValue(sheet, cell)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(raw)
}

func (p *Parser) requireString(f *excelize.File, filename, sheet, cell string) (string, error) {
	raw := p.cellString(f, sheet, cell)
	if raw == "" {
		return "", &ParseError{File: filename, Sheet: sheet, Cell: cell, Reason: "required cell is empty"}
	}
	return raw, nil
}

func (p *Parser) requireDecimal(f *excelize.File, filename, sheet, cell string) (decimal.Decimal, error) {
	raw := p.cellString(f, sheet, cell)
	if raw == "" {
		return decimal.Decimal{}, &ParseError{File: filename, Sheet: sheet, Cell: cell, Reason: "required cell is empty"}
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, &ParseError{File: filename, Sheet: sheet, Cell: cell, Reason: "required cell is not numeric"}
	}
	return value, nil
}

func (p *Parser) optionalDecimal(f *excelize.File, sheet, cell string) decimal.Decimal {
	raw := p.cellString(f, sheet, cell)
	if raw == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return value
}

func (p *Parser) optionalDate(f *excelize.File, filename, sheet, cell string) (*time.Time, error) {
	raw := p.cellString(f, sheet, cell)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", "02.01.2006", "01-02-06"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, &ParseError{File: filename, Sheet: sheet, Cell: cell, Reason: "delivery date is not a recognized date"}
}
