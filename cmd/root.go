// =============================================================================
// SKU Mapper - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every subcommand is
// attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (mapper)
//   ├── mapCmd     (mapper map)
//   ├── serveCmd   (mapper serve)
//   └── versionCmd (mapper version)
//
// Before any subcommand runs, the root command:
//   1. Loads a .env file from the working directory, if present
//   2. Loads the configuration (--config, optional)
//   3. Sets up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sku-mapper/internal/config"
	"github.com/ginjaninja78/sku-mapper/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// appConfig is the configuration loaded before any subcommand runs.
var appConfig *config.Config

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "mapper",
	Short: "SKU Mapper - Map sales SKUs to master SKUs",
	Long: `SKU Mapper maps the Stock Keeping Units (SKUs) found in sales files to
canonical Master SKUs (MSKUs) using a lookup file with SKU and MSKU columns.
SKUs without a mapping are tagged UNKNOWN. All sales files are combined into
one table that can be previewed, charted, downloaded and queried.

Example Usage:
  mapper map --mapping mapping.csv jan.csv feb.csv
  mapper map --mapping mapping.xlsx --format xlsx --chart sales/*.csv
  mapper serve --addr :8080`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dotenv := config.LoadDotEnv()

		cfg, err := config.LoadOptional(cfgFile)
		if err != nil {
			return err
		}
		appConfig = cfg

		logging.Setup(cfg.LogLevel, cfg.Environment, verbose)
		log.Debug().
			Str("config", cfgFile).
			Bool("dotenv", dotenv).
			Str("log_level", cfg.LogLevel).
			Msg("Configuration loaded")

		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file; a missing file means defaults",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}
