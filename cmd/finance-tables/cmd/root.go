// Package cmd provides CLI commands for finance-tables.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "finance-tables",
	Short: "Serve and maintain CSV-backed finance datasets",
	Long: `finance-tables serves the datasets of a personal finance ledger
(movements, accounts, categories, counterparties, instruments and loans),
each stored as one CSV file, over an HTTP JSON API.

It supports:
- Listing, creating, updating and deleting records of any dataset
- Balances per dimension and a yearly dashboard
- A SQLite log of every mutation
- Restoring previous versions of a dataset file

Example:
  finance-tables serve --port 5000
  finance-tables check
  finance-tables snapshots restore cuentas`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logging
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(checkCmd)
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
