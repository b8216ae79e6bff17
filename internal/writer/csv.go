package writer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ginjaninja78/sku-mapper/internal/table"
)

// WriteCSV writes t as delimited text: a header row, then one record per row.
// Quoting follows encoding/csv, which quotes only fields that need it.
func WriteCSV(w io.Writer, t *table.Table, comma rune) error {
	cw := csv.NewWriter(w)
	if comma != 0 {
		cw.Comma = comma
	}

	if err := cw.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}
