// =============================================================================
// SKU Mapper - Main Entry Point
// =============================================================================
//
// This is the main entry point for the SKU Mapper CLI application. It
// delegates command execution to the cmd package.
//
// USAGE:
//   mapper map --mapping FILE SALES...   - Map sales files and write the result
//   mapper serve                         - Start the web application
//   mapper version                       - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Parsing, mapping, output, chart, query and web server
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/sku-mapper/cmd"
)

func main() {
	cmd.Execute()
}
