package validation

import "fmt"

// ParseError reports a reference workbook whose structure cannot be
// read: missing calculation sheet, or a required cell that is empty or
// non-numeric. Numeric mismatches are never a ParseError.
type ParseError struct {
	File   string
	Sheet  string
	Cell   string
	Reason string
}

func (e *ParseError) Error() string {
	switch {
	case e.Cell != "":
		return fmt.Sprintf("parse error: %s sheet %q cell %s: %s", e.File, e.Sheet, e.Cell, e.Reason)
	case e.Sheet != "":
		return fmt.Sprintf("parse error: %s sheet %q: %s", e.File, e.Sheet, e.Reason)
	default:
		return fmt.Sprintf("parse error: %s: %s", e.File, e.Reason)
	}
}
