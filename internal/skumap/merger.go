package skumap

import (
	"fmt"

	"github.com/ginjaninja78/sku-mapper/internal/table"
)

// CombinedName is the name given to the combined table.
const CombinedName = "mapped_sales"

// Source is one sales file waiting to be read. Parse is called only when the
// batch reaches the file, so a mapping failure means no sales file is read.
type Source struct {
	Name  string
	Parse func() (*table.Table, error)
}

// Status tags the outcome of one file in a batch.
type Status int

const (
	// Mapped means the file's rows were mapped and appended.
	Mapped Status = iota
	// Skipped means the file lacked a SKU column and contributed no rows.
	Skipped
)

func (s Status) String() string {
	switch s {
	case Mapped:
		return "mapped"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText renders the status by name in JSON responses.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name written by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "mapped":
		*s = Mapped
	case "skipped":
		*s = Skipped
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}

// Outcome describes what happened to one file of a batch.
type Outcome struct {
	File   string `json:"file"`
	Status Status `json:"status"`

	// Rows is the number of rows the file contributed.
	Rows int `json:"rows"`

	// Unknown is how many of those rows got the Unknown sentinel.
	Unknown int `json:"unknown"`

	// Warning is set for skipped files.
	Warning string `json:"warning,omitempty"`
}

// Result is the output of Merge.
type Result struct {
	// Combined holds every mapped row in file order, then row order. It is
	// never nil, even when no file was mapped.
	Combined *table.Table

	// Outcomes has one entry per source, in the order given.
	Outcomes []Outcome
}

// Warnings returns the warnings of skipped files in batch order.
func (r *Result) Warnings() []string {
	var warnings []string
	for _, o := range r.Outcomes {
		if o.Warning != "" {
			warnings = append(warnings, o.Warning)
		}
	}
	return warnings
}

// UnknownRows returns the number of combined rows carrying Unknown.
func (r *Result) UnknownRows() int {
	n := 0
	for _, o := range r.Outcomes {
		n += o.Unknown
	}
	return n
}

// Merge maps every source through m and concatenates the results.
//
// Files are handled one at a time in order. A file without a SKU column is
// skipped with a warning and the batch continues. A file that fails to parse
// aborts the batch: Merge returns the parse error and no result.
func Merge(m *Mapping, sources []Source) (*Result, error) {
	result := &Result{
		Combined: table.New(CombinedName, nil),
		Outcomes: make([]Outcome, 0, len(sources)),
	}

	for _, src := range sources {
		sales, err := src.Parse()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", src.Name, err)
		}

		outcome := MapTable(m, sales, result.Combined)
		outcome.File = src.Name
		result.Outcomes = append(result.Outcomes, outcome)
	}

	return result, nil
}

// MapTable maps the rows of sales and appends them to combined. The sales
// table is not modified.
func MapTable(m *Mapping, sales, combined *table.Table) Outcome {
	if !sales.HasColumn(ColumnSKU) {
		return Outcome{
			File:    sales.Name,
			Status:  Skipped,
			Warning: fmt.Sprintf("File %s skipped: No '%s' column found.", sales.Name, ColumnSKU),
		}
	}

	for _, h := range sales.Headers {
		combined.AddColumn(h)
	}
	combined.AddColumn(ColumnMSKU)

	outcome := Outcome{File: sales.Name, Status: Mapped}
	for _, row := range sales.Rows {
		mapped := make(map[string]string, len(row)+1)
		for k, v := range row {
			mapped[k] = v
		}

		msku := m.Lookup(row[ColumnSKU])
		if msku == Unknown {
			outcome.Unknown++
		}
		mapped[ColumnMSKU] = msku

		combined.Rows = append(combined.Rows, mapped)
		outcome.Rows++
	}

	return outcome
}
