package calculation

import "fmt"

// ConfigurationError reports a required variable that could not be
// resolved: no default, no override, or a code outside the supported
// set. It is never downgraded to a default value.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("configuration error: %s=%q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// CalculationError reports a structurally invalid input or a violated
// phase precondition. It aborts the whole quote; partial results are
// never returned.
type CalculationError struct {
	ProductSKU string
	Phase      int
	Field      string
	Reason     string
}

func (e *CalculationError) Error() string {
	if e.ProductSKU != "" {
		return fmt.Sprintf("calculation error: phase %d, product %s, field %s: %s", e.Phase, e.ProductSKU, e.Field, e.Reason)
	}
	return fmt.Sprintf("calculation error: phase %d, field %s: %s", e.Phase, e.Field, e.Reason)
}
