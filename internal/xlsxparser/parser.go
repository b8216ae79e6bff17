// =============================================================================
// SKU Mapper - XLSX Parser
// =============================================================================
//
// This module reads mapping and sales uploads saved as Excel workbooks. A
// workbook is read the same way a CSV file is: the first non-blank row of the
// sheet is the header row and every following non-blank row is a record. A
// row whose cells are all empty is blank; a row with whitespace in two or
// more cells is a row of missing values and is kept.
//
// SHEET SELECTION:
//   Parse reads the first sheet that is not hidden. ParseSheet reads a sheet
//   by name.
//
// CELL VALUES:
//   Cells are read as their formatted text, which is what a user sees in
//   Excel. Formulas are not evaluated beyond the cached value.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sku-mapper/internal/csvparser"
	"github.com/ginjaninja78/sku-mapper/internal/table"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads the first visible sheet of a workbook as a table.
//
// PARAMETERS:
//   - name: The table name, usually the uploaded file name.
//   - r: The workbook bytes.
//
// RETURNS:
//   - A pointer to the parsed table.
//   - An error if the workbook cannot be opened or has no usable sheet.
func Parse(name string, r io.Reader) (*table.Table, error) {
	return ParseSheet(name, r, "")
}

// ParseSheet reads one sheet of a workbook as a table. An empty sheetName
// selects the first visible sheet.
func ParseSheet(name string, r io.Reader, sheetName string) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = firstVisibleSheet(f)
		if sheetName == "" {
			return nil, fmt.Errorf("workbook has no visible sheets")
		}
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet '%s': %w", sheetName, err)
	}

	// Leading blank rows are skipped so the first row with content is the
	// header row.
	start := 0
	for start < len(rows) && csvparser.IsBlankLine(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, csvparser.ErrEmptyFile
	}

	headers := csvparser.CleanHeaders(rows[start])
	data := table.New(name, headers)

	for i := start + 1; i < len(rows); i++ {
		row := rows[i]
		if csvparser.IsBlankLine(row) {
			continue
		}

		if len(row) > len(headers) && !allBlank(row[len(headers):]) {
			return nil, fmt.Errorf("expected %d fields in row %d of sheet '%s', saw %d", len(headers), i+1, sheetName, len(row))
		}

		// GetRows drops trailing empty cells, so short rows are normal here.
		record := make(map[string]string, len(headers))
		for col, header := range headers {
			if col < len(row) {
				record[header] = row[col]
			} else {
				record[header] = ""
			}
		}
		data.Rows = append(data.Rows, record)
	}

	return data, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// firstVisibleSheet returns the name of the first sheet that is not hidden.
func firstVisibleSheet(f *excelize.File) string {
	for _, sheet := range f.GetSheetList() {
		visible, err := f.GetSheetVisible(sheet)
		if err == nil && visible {
			return sheet
		}
	}
	return ""
}

// allBlank checks if every cell holds only whitespace.
func allBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
