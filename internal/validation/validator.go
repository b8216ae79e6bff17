// =============================================================================
// SKU Mapper - Validation
// =============================================================================
//
// Schema validation is deliberately narrow: a table is checked only for the
// presence of the column names a stage needs. Cell values are never
// validated; an unmapped or empty SKU is data, not an error.
//
// ERROR HANDLING:
//   A missing column is reported as a *SchemaError so callers can tell it
//   apart from I/O and parse failures with errors.As.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/sku-mapper/internal/table"
)

// =============================================================================
// SCHEMA ERROR
// =============================================================================

// SchemaError reports the required columns a table lacks.
type SchemaError struct {
	// Table is the name of the offending table (usually the file name).
	Table string

	// Required lists every column the stage needs, in order.
	Required []string

	// Missing lists the required columns that were not found.
	Missing []string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s must contain %s columns (missing %s)",
		e.Table, quoteJoin(e.Required, " and "), quoteJoin(e.Missing, ", "))
}

// =============================================================================
// VALIDATION FUNCTIONS
// =============================================================================

// RequireColumns returns a *SchemaError naming every column in required that
// t lacks, or nil when all are present. Column names match exactly.
func RequireColumns(t *table.Table, required ...string) error {
	missing := t.MissingColumns(required...)
	if len(missing) == 0 {
		return nil
	}

	return &SchemaError{
		Table:    t.Name,
		Required: append([]string(nil), required...),
		Missing:  missing,
	}
}

func quoteJoin(names []string, sep string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = "'" + name + "'"
	}
	return strings.Join(quoted, sep)
}
