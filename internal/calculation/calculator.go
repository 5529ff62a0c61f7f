package calculation

import (
	"go.uber.org/zap"
)

// Calculator ties the variable resolver and the phase pipeline together
// behind a single entry point. Like its parts it holds no mutable
// state and may be shared across goroutines.
type Calculator struct {
	resolver *Resolver
	engine   *Engine
	logger   *zap.Logger
}

// NewCalculator creates a new quote calculator
func NewCalculator(logger *zap.Logger) *Calculator {
	return &Calculator{
		resolver: NewResolver(logger),
		engine:   NewEngine(logger),
		logger:   logger,
	}
}

// CalculateQuote resolves the inputs and runs the full pipeline for one
// quote.
func (c *Calculator) CalculateQuote(quote QuoteVariables, products []ProductInput, cfg SystemConfig, rates ExchangeRates) (*QuoteCalculationResult, error) {
	resolved, err := c.resolver.Resolve(quote, products, cfg, rates)
	if err != nil {
		c.logger.Error("Failed to resolve quote variables", zap.Error(err))
		return nil, err
	}
	return c.engine.Calculate(quote, resolved, cfg)
}
