// =============================================================================
// SKU Mapper - Output Writer Module
// =============================================================================
//
// This module serializes the combined table for download. Three formats are
// supported:
//
//   csv  - UTF-8 delimited text with a header row (the default)
//   xlsx - an Excel workbook with one sheet
//   xml  - one <row> element per record, one <field> per column:
//
//   <mappedSales rows="2">
//     <row n="1">
//       <field name="SKU">A-100</field>
//       <field name="MSKU">M-1</field>
//     </row>
//     ...
//   </mappedSales>
//
// Column order always follows the table headers, and missing cells are
// written as empty values.
//
// =============================================================================

package writer

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/sku-mapper/internal/table"
)

// =============================================================================
// FORMATS
// =============================================================================

// Format names an output encoding.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
	XML  Format = "xml"
)

// ParseFormat validates a format name. Matching is case-insensitive and an
// empty name selects CSV.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", CSV:
		return CSV, nil
	case XLSX:
		return XLSX, nil
	case XML:
		return XML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want csv, xlsx or xml)", name)
	}
}

// ContentType returns the MIME type used when serving the format.
func (f Format) ContentType() string {
	switch f {
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case XML:
		return "application/xml; charset=utf-8"
	default:
		return "text/csv; charset=utf-8"
	}
}

// FileName returns the download file name for a base name, e.g.
// "mapped_sales" -> "mapped_sales.csv".
func FileName(base string, f Format) string {
	return base + "." + string(f)
}

// =============================================================================
// WRITE FUNCTIONS
// =============================================================================

// Options tweaks serialization.
type Options struct {
	// Comma is the CSV delimiter. Zero means ','.
	Comma rune

	// SheetName names the XLSX sheet. Empty means "Mapped Sales".
	SheetName string
}

// Write serializes t to w in the given format.
func Write(w io.Writer, t *table.Table, f Format, opts Options) error {
	switch f {
	case CSV:
		return WriteCSV(w, t, opts.Comma)
	case XLSX:
		return WriteXLSX(w, t, opts.SheetName)
	case XML:
		return WriteXML(w, t)
	default:
		return fmt.Errorf("unsupported output format %q", f)
	}
}

// Encode is Write into a byte slice.
func Encode(t *table.Table, f Format, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, t, f, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
