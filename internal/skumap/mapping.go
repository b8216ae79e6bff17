// Package skumap maps seller SKUs in sales tables onto master SKUs.
//
// The package has two stages. LoadMapping turns a mapping table with SKU and
// MSKU columns into an immutable Mapping. Merge applies a Mapping to a batch
// of sales tables and concatenates the results, tagging every SKU that has no
// mapping with Unknown.
package skumap

import (
	"fmt"

	"github.com/ginjaninja78/sku-mapper/internal/table"
	"github.com/ginjaninja78/sku-mapper/internal/validation"
)

const (
	// ColumnSKU is the lookup key column, required in mapping and sales tables.
	ColumnSKU = "SKU"

	// ColumnMSKU is the mapped value column. It is required in the mapping
	// table and added to every row of the combined table.
	ColumnMSKU = "MSKU"

	// Unknown is the MSKU given to a SKU the mapping does not resolve.
	Unknown = "UNKNOWN"
)

// Pair is one row of a mapping table.
type Pair struct {
	SKU  string
	MSKU string
}

// Mapping is a SKU -> MSKU dictionary. It is built once per run and never
// modified afterwards, so it is safe for concurrent readers.
type Mapping struct {
	entries    map[string]string
	rows       int
	duplicates int
}

// LoadMapping builds a Mapping from a table with SKU and MSKU columns.
//
// If either column is missing it returns a *validation.SchemaError and no
// Mapping. When a SKU appears more than once, the last row wins; this is not
// reported as a warning. Rows with an empty SKU are ignored.
func LoadMapping(t *table.Table) (*Mapping, error) {
	if err := validation.RequireColumns(t, ColumnSKU, ColumnMSKU); err != nil {
		return nil, fmt.Errorf("invalid mapping file: %w", err)
	}

	pairs := make([]Pair, len(t.Rows))
	for i, row := range t.Rows {
		pairs[i] = Pair{SKU: row[ColumnSKU], MSKU: row[ColumnMSKU]}
	}
	return FromPairs(pairs), nil
}

// FromPairs builds a Mapping from pairs in order, with the same last-write-wins
// and empty-key rules as LoadMapping.
func FromPairs(pairs []Pair) *Mapping {
	m := &Mapping{entries: make(map[string]string, len(pairs))}
	for _, p := range pairs {
		if p.SKU == "" {
			continue
		}
		m.rows++
		if _, seen := m.entries[p.SKU]; seen {
			m.duplicates++
		}
		m.entries[p.SKU] = p.MSKU
	}
	return m
}

// Lookup returns the MSKU for sku, or Unknown when sku has no mapping or maps
// to an empty value. It never returns the empty string.
func (m *Mapping) Lookup(sku string) string {
	if msku, ok := m.Resolve(sku); ok {
		return msku
	}
	return Unknown
}

// Resolve returns the MSKU for sku and whether it resolved to a non-empty
// value.
func (m *Mapping) Resolve(sku string) (string, bool) {
	msku, ok := m.entries[sku]
	if !ok || msku == "" {
		return "", false
	}
	return msku, true
}

// Len returns the number of distinct SKUs in the mapping.
func (m *Mapping) Len() int {
	return len(m.entries)
}

// Rows returns the number of mapping rows that carried a SKU.
func (m *Mapping) Rows() int {
	return m.rows
}

// Duplicates returns how many rows replaced the MSKU of an earlier row with
// the same SKU.
func (m *Mapping) Duplicates() int {
	return m.duplicates
}
