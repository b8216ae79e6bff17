// =============================================================================
// SKU Mapper - Converter Module
// =============================================================================
//
// This module orchestrates one mapping run, from reading the uploaded files
// to the combined table and its statistics. Both the CLI and the web server
// call it, so everything that differs between them (where files come from,
// what happens to the result) stays outside this package.
//
// PIPELINE:
//   1. Read the mapping file and build the SKU -> MSKU dictionary
//   2. Read each sales file in order, lazily, only after step 1 succeeded
//   3. Map and merge the sales tables into the combined table
//   4. Aggregate the optional Quantity chart
//   5. Collect statistics
//
// A run is synchronous and processes files one at a time in upload order.
//
// =============================================================================

package converter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ginjaninja78/sku-mapper/internal/chart"
	"github.com/ginjaninja78/sku-mapper/internal/config"
	"github.com/ginjaninja78/sku-mapper/internal/csvparser"
	"github.com/ginjaninja78/sku-mapper/internal/skumap"
	"github.com/ginjaninja78/sku-mapper/internal/table"
	"github.com/ginjaninja78/sku-mapper/internal/xlsxparser"
)

// =============================================================================
// INPUTS
// =============================================================================

// Input is one uploaded file. Open is called at most once per run.
type Input struct {
	// Name is the file name shown in warnings and outcomes.
	Name string

	// Open returns the file contents.
	Open func() (io.ReadCloser, error)
}

// FileInput returns an Input reading the file at path. The input is named
// after the base name of the path.
func FileInput(path string) Input {
	return Input{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// ReaderInput returns an Input over an already opened reader, as used for
// multipart uploads.
func ReaderInput(name string, r io.Reader) Input {
	return Input{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(r), nil
		},
	}
}

// isWorkbook reports whether a file name has an Excel workbook extension.
func isWorkbook(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// ReadTable opens an input and parses it with the reader matching its
// extension: .xlsx and .xlsm go to the workbook reader, everything else is
// read as delimited text.
func ReadTable(in Input, settings config.CSVSettings) (*table.Table, error) {
	rc, err := in.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", in.Name, err)
	}
	defer rc.Close()

	if isWorkbook(in.Name) {
		return xlsxparser.Parse(in.Name, rc)
	}
	return csvparser.Parse(in.Name, rc, settings)
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result is the outcome of one successful run. The embedded merge result
// carries the combined table, the per-file outcomes and their warnings.
type Result struct {
	*skumap.Result

	// Chart is the Quantity-by-MSKU aggregation. It is nil when the combined
	// table has no Quantity column.
	Chart *chart.Chart

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about one run.
type ProcessingStats struct {
	// MappingRows is the number of data rows in the mapping file.
	MappingRows int `json:"mappingRows"`

	// MappingKeys is the number of distinct SKUs in the dictionary.
	MappingKeys int `json:"mappingKeys"`

	// DuplicateKeys counts mapping rows that replaced an earlier entry.
	DuplicateKeys int `json:"duplicateKeys"`

	// FilesMapped and FilesSkipped split the sales files by outcome.
	FilesMapped  int `json:"filesMapped"`
	FilesSkipped int `json:"filesSkipped"`

	// RowsMapped is the number of rows in the combined table.
	RowsMapped int `json:"rowsMapped"`

	// UnknownRows is the number of rows whose SKU had no mapping.
	UnknownRows int `json:"unknownRows"`

	// ProcessingTime is the wall time of the run.
	ProcessingTime time.Duration `json:"processingTime"`
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the mapping pipeline with a fixed configuration.
type Converter struct {
	csv config.CSVSettings
}

// New creates a Converter.
//
// PARAMETERS:
//   - cfg: The application configuration. Only the csv section is used.
//
// RETURNS:
//   - A new Converter instance.
func New(cfg *config.Config) *Converter {
	return &Converter{csv: cfg.CSV}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline for one mapping file and any number of sales
// files.
//
// RETURNS:
//   - The Result on success, even when every sales file was skipped or no
//     sales file was given.
//   - An error if the mapping file cannot be read, lacks the SKU or MSKU
//     column, or if any sales file fails to parse. No sales file is read
//     when the mapping fails.
func (c *Converter) Run(mapping Input, sales []Input) (*Result, error) {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: LOAD MAPPING
	// =========================================================================

	log.Debug().Str("file", mapping.Name).Msg("Loading mapping file")

	mappingTable, err := ReadTable(mapping, c.csv)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	m, err := skumap.LoadMapping(mappingTable)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("file", mapping.Name).
		Int("rows", m.Rows()).
		Int("keys", m.Len()).
		Int("duplicates", m.Duplicates()).
		Msg("Mapping loaded")

	// =========================================================================
	// STEP 2 & 3: READ, MAP AND MERGE SALES FILES
	// =========================================================================

	sources := make([]skumap.Source, len(sales))
	for i, in := range sales {
		in := in
		sources[i] = skumap.Source{
			Name: in.Name,
			Parse: func() (*table.Table, error) {
				return ReadTable(in, c.csv)
			},
		}
	}

	merged, err := skumap.Merge(m, sources)
	if err != nil {
		return nil, err
	}

	result := &Result{Result: merged}

	for _, o := range merged.Outcomes {
		switch o.Status {
		case skumap.Skipped:
			result.Stats.FilesSkipped++
			log.Warn().Str("file", o.File).Msg(o.Warning)
		default:
			result.Stats.FilesMapped++
			log.Debug().
				Str("file", o.File).
				Int("rows", o.Rows).
				Int("unknown", o.Unknown).
				Msg("Sales file mapped")
		}
	}

	// =========================================================================
	// STEP 4: CHART
	// =========================================================================

	if ch, ok := chart.Build(merged.Combined); ok {
		result.Chart = ch
	}

	// =========================================================================
	// COMPLETE
	// =========================================================================

	result.Stats.MappingRows = m.Rows()
	result.Stats.MappingKeys = m.Len()
	result.Stats.DuplicateKeys = m.Duplicates()
	result.Stats.RowsMapped = merged.Combined.Len()
	result.Stats.UnknownRows = merged.UnknownRows()
	result.Stats.ProcessingTime = time.Since(startTime)

	log.Info().
		Int("files", len(sales)).
		Int("rows", result.Stats.RowsMapped).
		Int("unknown", result.Stats.UnknownRows).
		Int("warnings", result.Stats.FilesSkipped).
		Dur("elapsed", result.Stats.ProcessingTime).
		Msg("Mapping run complete")

	return result, nil
}
