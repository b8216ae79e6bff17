// =============================================================================
// SKU Mapper - Shared Table Model
// =============================================================================
//
// This package contains the tabular data model shared by every stage of the
// mapping pipeline. Types defined here are used by:
//   - csvparser / xlsxparser (producers)
//   - skumap (mapping loader and batch merger)
//   - writer, chart, llm, server (consumers)
//
// ROW MODEL:
//   A row is a map of column name -> cell value. A column that a row does not
//   carry is a missing value and reads as the empty string.
//
// =============================================================================

package table

// =============================================================================
// TABLE STRUCTURE
// =============================================================================

// Table is an ordered, header-addressed set of rows.
type Table struct {
	// Name identifies where the table came from, usually the uploaded
	// file name. It is used in warnings and log fields.
	Name string

	// Headers holds the column names in display order.
	Headers []string

	// Rows contains the data rows as maps of header -> value.
	Rows []map[string]string

	// index mirrors Headers for constant-time HasColumn lookups.
	index map[string]struct{}
}

// New creates an empty table with the given columns.
func New(name string, headers []string) *Table {
	t := &Table{
		Name:    name,
		Headers: make([]string, 0, len(headers)),
		Rows:    []map[string]string{},
	}
	for _, h := range headers {
		t.AddColumn(h)
	}
	return t
}

// =============================================================================
// COLUMN OPERATIONS
// =============================================================================

// HasColumn reports whether the table has a column with exactly this name.
func (t *Table) HasColumn(name string) bool {
	t.ensureIndex()
	_, ok := t.index[name]
	return ok
}

// AddColumn appends a column to the header list. Adding an existing column
// is a no-op, so the original position is kept.
func (t *Table) AddColumn(name string) {
	t.ensureIndex()
	if _, ok := t.index[name]; ok {
		return
	}
	t.index[name] = struct{}{}
	t.Headers = append(t.Headers, name)
}

// MissingColumns returns the names from required that the table lacks, in
// the order they were asked for.
func (t *Table) MissingColumns(required ...string) []string {
	var missing []string
	for _, name := range required {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Column returns every value of one column in row order.
func (t *Table) Column(name string) []string {
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[name]
	}
	return values
}

func (t *Table) ensureIndex() {
	if t.index != nil && len(t.index) == len(t.Headers) {
		return
	}
	t.index = make(map[string]struct{}, len(t.Headers))
	for _, h := range t.Headers {
		t.index[h] = struct{}{}
	}
}

// =============================================================================
// ROW OPERATIONS
// =============================================================================

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Head returns a table sharing the first n rows. A non-positive n or an n
// larger than the table returns every row.
func (t *Table) Head(n int) *Table {
	head := New(t.Name, t.Headers)
	rows := t.Rows
	if n > 0 && n < len(rows) {
		rows = rows[:n]
	}
	head.Rows = append(head.Rows, rows...)
	return head
}

// Records flattens the table into a header record followed by one record per
// row, aligned on Headers. Missing cells become empty strings.
func (t *Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows)+1)
	header := make([]string, len(t.Headers))
	copy(header, t.Headers)
	records = append(records, header)

	for _, row := range t.Rows {
		record := make([]string, len(t.Headers))
		for i, h := range t.Headers {
			record[i] = row[h]
		}
		records = append(records, record)
	}
	return records
}
