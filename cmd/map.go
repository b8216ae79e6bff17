// =============================================================================
// SKU Mapper - Map Command
// =============================================================================
//
// This file defines the 'map' command, which runs one mapping over local
// files.
//
// COMMAND USAGE:
//   mapper map --mapping FILE [flags] SALES...
//
// FLAGS:
//   --mapping  : The lookup file with SKU and MSKU columns (required)
//   --out      : Output path (default: mapped_sales.<format>)
//   --format   : Output format: csv, xlsx or xml (default from config)
//   --preview  : Number of rows to print (default from config, 0 disables)
//   --chart    : Print the Quantity-by-MSKU bar chart
//   --ask      : Ask a question about the combined table
//   --api-key  : Credential for --ask (default: $MAPPER_LLM_API_KEY)
//
// PROCESSING PIPELINE:
//   1. Expand the sales file arguments
//   2. Run the mapping (mapping file first, then each sales file in order)
//   3. Print warnings for skipped files
//   4. Write the combined table to the output file
//   5. Print the preview, the chart and the answer, as requested
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sku-mapper/internal/config"
	"github.com/ginjaninja78/sku-mapper/internal/converter"
	"github.com/ginjaninja78/sku-mapper/internal/llm"
	"github.com/ginjaninja78/sku-mapper/internal/table"
	"github.com/ginjaninja78/sku-mapper/internal/writer"
	"github.com/ginjaninja78/sku-mapper/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	mappingFile string
	outPath     string
	outFormat   string
	previewRows int
	showChart   bool
	askQuestion string
	askAPIKey   string
)

// chartBarWidth is the length of the longest bar printed by --chart.
const chartBarWidth = 40

// newAnswerer builds the query delegate used by --ask.
var newAnswerer = func(cfg config.LLMConfig) llm.Answerer {
	return llm.NewClient(cfg)
}

// =============================================================================
// MAP COMMAND DEFINITION
// =============================================================================

var mapCmd = &cobra.Command{
	Use:   "map --mapping FILE [flags] SALES...",
	Short: "Map the SKUs of sales files to MSKUs",
	Long: `The map command reads the mapping file, then maps every sales file in the
order given and writes the combined table.

Sales files without a SKU column are skipped with a warning. SKUs missing from
the mapping are tagged UNKNOWN. A mapping file without SKU and MSKU columns, or
any file that cannot be parsed, stops the run without writing output.

Files ending in .xlsx are read as Excel workbooks (first visible sheet); all
other files are read as delimited text.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runMap(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(mapCmd)

	mapCmd.Flags().StringVarP(&mappingFile, "mapping", "m", "", "Mapping file with SKU and MSKU columns")
	mapCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default mapped_sales.<format>)")
	mapCmd.Flags().StringVarP(&outFormat, "format", "f", "", "Output format: csv, xlsx or xml (default from config)")
	mapCmd.Flags().IntVar(&previewRows, "preview", -1, "Rows to preview (default from config, 0 disables)")
	mapCmd.Flags().BoolVar(&showChart, "chart", false, "Print total Quantity per MSKU")
	mapCmd.Flags().StringVar(&askQuestion, "ask", "", "Question to ask about the combined table")
	mapCmd.Flags().StringVar(&askAPIKey, "api-key", "", "API key for --ask (default $MAPPER_LLM_API_KEY)")

	mapCmd.MarkFlagRequired("mapping")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runMap(cmd *cobra.Command, args []string) error {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	// =========================================================================
	// STEP 1: RESOLVE OPTIONS AND INPUTS
	// =========================================================================

	formatName := outFormat
	if formatName == "" {
		formatName = appConfig.Output.Format
	}
	format, err := writer.ParseFormat(formatName)
	if err != nil {
		return err
	}

	target := outPath
	if target == "" {
		target = writer.FileName(appConfig.Output.BaseName, format)
	}

	rows := previewRows
	if rows < 0 {
		rows = appConfig.Output.PreviewRows
	}

	salesPaths, err := utils.ExpandInputs(args)
	if err != nil {
		return err
	}

	sales := make([]converter.Input, len(salesPaths))
	for i, p := range salesPaths {
		sales[i] = converter.FileInput(p)
	}

	// =========================================================================
	// STEP 2: RUN THE MAPPING
	// =========================================================================

	res, err := converter.New(appConfig).Run(converter.FileInput(mappingFile), sales)
	if err != nil {
		return err
	}

	for _, w := range res.Warnings() {
		fmt.Fprintf(stderr, "Warning: %s\n", w)
	}

	// =========================================================================
	// STEP 3: WRITE OUTPUT
	// =========================================================================

	comma, err := appConfig.CSV.Comma()
	if err != nil {
		return err
	}
	data, err := writer.Encode(res.Combined, format, writer.Options{Comma: comma})
	if err != nil {
		return fmt.Errorf("failed to serialize combined table: %w", err)
	}
	if err := utils.WriteOutputFile(target, data); err != nil {
		return err
	}

	log.Info().Str("file", target).Int("rows", res.Combined.Len()).Msg("Wrote combined table")
	fmt.Fprintf(stdout, "Mapped %d row(s) from %d file(s), %d without a mapping. Wrote %s\n",
		res.Stats.RowsMapped, res.Stats.FilesMapped, res.Stats.UnknownRows, target)

	// =========================================================================
	// STEP 4: PREVIEW, CHART AND QUESTION
	// =========================================================================

	if rows > 0 && res.Combined.Len() > 0 {
		fmt.Fprintln(stdout)
		if err := printPreview(stdout, res.Combined.Head(rows)); err != nil {
			return err
		}
	}

	if showChart {
		fmt.Fprintln(stdout)
		if res.Chart == nil {
			fmt.Fprintln(stdout, "No Quantity column; chart not available.")
		} else if err := res.Chart.WriteText(stdout, chartBarWidth); err != nil {
			return err
		}
	}

	if askQuestion != "" {
		key := askAPIKey
		if key == "" {
			key = appConfig.LLM.APIKey
		}

		answer, err := newAnswerer(appConfig.LLM).Answer(cmd.Context(), res.Combined, askQuestion, key)
		if err != nil {
			return fmt.Errorf("failed to answer question: %w", err)
		}
		fmt.Fprintf(stdout, "\n%s\n", strings.TrimSpace(answer))
	}

	return nil
}

// printPreview prints t as an aligned text table.
func printPreview(w io.Writer, t *table.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, record := range t.Records() {
		fmt.Fprintln(tw, strings.Join(record, "\t"))
	}
	return tw.Flush()
}
