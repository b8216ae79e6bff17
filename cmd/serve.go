// =============================================================================
// SKU Mapper - Serve Command
// =============================================================================
//
// This file defines the 'serve' command, which starts the web application:
// an upload form plus the JSON API used by it.
//
// COMMAND USAGE:
//   mapper serve [--addr :8080]
//
// =============================================================================

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sku-mapper/internal/server"
)

// serveAddr overrides server.addr from the configuration.
var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web application",
	Long: `The serve command starts the web application. Upload a mapping file and
any number of sales files on the start page to preview, chart, download and
query the combined table.

Combined tables are kept in memory for server.session_ttl after the upload.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		addr := appConfig.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		return server.NewServer(appConfig, newAnswerer(appConfig.LLM)).Run(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
}
