// =============================================================================
// SKU Mapper - CSV Parser Module
// =============================================================================
//
// This module is responsible for parsing delimited uploads (mapping files and
// sales files) into tables. It handles:
//   - Different delimiters (comma, pipe, tab, semicolon)
//   - A UTF-8 byte order mark in front of the header row
//   - Empty and duplicate header names
//   - Short rows (padded with missing values)
//
// ROW COUNT:
//   Only blank lines are dropped. A line holding nothing but delimiters, such
//   as ",,", is a row of missing values and is kept.
//
// FAILURE MODES:
//   Any malformed input is a fatal error for the whole run. The error carries
//   the underlying parser message so it can be shown to the user verbatim:
//   - An empty file has no header row and fails with ErrEmptyFile.
//   - A row with more fields than the header fails with the line number.
//   - A quoting error fails with the encoding/csv message.
//
// =============================================================================

package csvparser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/sku-mapper/internal/config"
	"github.com/ginjaninja78/sku-mapper/internal/table"
)

// ErrEmptyFile is returned for input that does not even hold a header row.
var ErrEmptyFile = errors.New("no columns to parse from file")

// utf8BOM is stripped from the first header cell.
const utf8BOM = "\ufeff"

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads delimited data and returns it as a table.
//
// PARAMETERS:
//   - name: The table name, usually the uploaded file name.
//   - r: The delimited data.
//   - settings: The CSV parsing settings.
//
// RETURNS:
//   - A pointer to the parsed table.
//   - An error if the data cannot be parsed.
//
// PARSING PROCESS:
//   1. Configure the CSV reader with the delimiter and quoting settings
//   2. Read and clean the header row
//   3. Read data rows, skipping blank lines
//   4. Convert each row to a map of header -> value
func Parse(name string, r io.Reader, settings config.CSVSettings) (*table.Table, error) {
	csvReader := csv.NewReader(r)
	if err := configureReader(csvReader, settings); err != nil {
		return nil, err
	}

	headerRow, err := csvReader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	headers := CleanHeaders(headerRow)
	data := table.New(name, headers)

	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		if IsBlankLine(row) {
			continue
		}

		if len(row) > len(headers) {
			line, _ := csvReader.FieldPos(0)
			return nil, fmt.Errorf("expected %d fields in line %d, saw %d", len(headers), line, len(row))
		}

		data.Rows = append(data.Rows, rowToMap(row, headers))
	}

	return data, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) error {
	comma, err := settings.Comma()
	if err != nil {
		return err
	}
	reader.Comma = comma

	// Row width is checked against the header in Parse so the error can say
	// which line is too long; short rows are padded instead of rejected.
	reader.FieldsPerRecord = -1

	reader.LazyQuotes = settings.LazyQuotes
	reader.TrimLeadingSpace = settings.TrimLeadingSpace

	return nil
}

// CleanHeaders cleans and normalizes header values. It is shared with the
// xlsx reader so both formats name columns the same way.
//
// Header text is otherwise kept as written, so " SKU" does not name the SKU
// column.
//
// CLEANING OPERATIONS:
//   - Strip a UTF-8 byte order mark from the first header
//   - Name empty headers "Column_N" (1-based position)
//   - Suffix repeated headers ".1", ".2", ... so every column stays addressable
func CleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	used := make(map[string]bool, len(headers))
	repeats := make(map[string]int)

	for i, header := range headers {
		if i == 0 {
			header = strings.TrimPrefix(header, utf8BOM)
		}
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}

		name := header
		for used[name] {
			repeats[header]++
			name = fmt.Sprintf("%s.%d", header, repeats[header])
		}
		used[name] = true

		cleaned[i] = name
	}

	return cleaned
}

// rowToMap converts a record to a map aligned on headers. Cells missing at
// the end of a short row become empty strings.
func rowToMap(row, headers []string) map[string]string {
	rowMap := make(map[string]string, len(headers))
	for colIndex, header := range headers {
		if colIndex < len(row) {
			rowMap[header] = row[colIndex]
		} else {
			rowMap[header] = ""
		}
	}
	return rowMap
}

// IsBlankLine reports whether a record came from a blank or whitespace-only
// line. Records with more than one field are never blank.
func IsBlankLine(row []string) bool {
	switch len(row) {
	case 0:
		return true
	case 1:
		return strings.TrimSpace(row[0]) == ""
	}
	return false
}
