package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The mapping table is a static contract: every mapped field must
// resolve to a result-type accessor and no column may be bound twice.
func TestResultCellMappings_Integrity(t *testing.T) {
	t.Run("every mapped field has an accessor", func(t *testing.T) {
		for _, m := range ResultCellMappings {
			_, ok := AccessorFor(m.Field)
			assert.True(t, ok, "mapping for column %s references unknown field %q", m.Column, m.Field)
		}
	})

	t.Run("no column is mapped twice", func(t *testing.T) {
		seen := make(map[string]ResultField)
		for _, m := range ResultCellMappings {
			prev, dup := seen[m.Column]
			assert.False(t, dup, "column %s mapped to both %q and %q", m.Column, prev, m.Field)
			seen[m.Column] = m.Field
		}
	})

	t.Run("no field is mapped twice", func(t *testing.T) {
		seen := make(map[ResultField]string)
		for _, m := range ResultCellMappings {
			prev, dup := seen[m.Field]
			assert.False(t, dup, "field %q mapped to both column %s and %s", m.Field, prev, m.Column)
			seen[m.Field] = m.Column
		}
	})

	t.Run("phases are within the pipeline range", func(t *testing.T) {
		for _, m := range ResultCellMappings {
			assert.GreaterOrEqual(t, m.Phase, 1)
			assert.LessOrEqual(t, m.Phase, 13)
		}
	})

	t.Run("summary fields are a subset of the mapped fields", func(t *testing.T) {
		mapped := make(map[ResultField]bool)
		for _, m := range ResultCellMappings {
			mapped[m.Field] = true
		}
		for f := range summaryFields {
			assert.True(t, mapped[f], "summary field %q is not in the mapping table", f)
		}
		require.NotEmpty(t, summaryFields)
	})
}
