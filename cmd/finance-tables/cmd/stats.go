package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/finance-tables/pkg/catalog"
	"github.com/pigeonworks-llc/finance-tables/pkg/db"
	"github.com/pigeonworks-llc/finance-tables/pkg/pathutil"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display mutation statistics",
	Long: `Display statistics about the mutations applied to the datasets.

Shows:
- Total number of mutations
- Mutations per operation and per dataset
- Last mutation timestamp

Example:
  finance-tables stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	slog.Info("Loading configuration")

	// Load configuration
	cfg, err := loadConfig()
	exitOnError(err, "failed to load configuration")

	pathResolver := pathutil.New(pathutil.Config{
		DataRoot:      cfg.Data.Root,
		HistoryDBPath: cfg.Data.HistoryDBPath,
	})

	// Open database connection
	dbPath := pathResolver.GetHistoryDBPath()
	slog.Debug("Opening database", "path", dbPath)

	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	stats, err := db.NewHistory(conn).GetStats(context.Background())
	exitOnError(err, "failed to get statistics")

	printStats(cmd, stats)

	slog.Info("Statistics displayed successfully")
}

func printStats(cmd *cobra.Command, stats *db.Stats) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "\n=== Mutation Statistics ===")
	fmt.Fprintf(out, "Total mutations: %d\n", stats.TotalMutations)
	for _, op := range []db.Operation{db.OperationCreate, db.OperationUpdate, db.OperationDelete, db.OperationRestore} {
		fmt.Fprintf(out, "  %-8s       %d\n", op, stats.ByOperation[op])
	}

	fmt.Fprintln(out, "Per dataset:")
	for _, name := range catalog.Names {
		if n := stats.ByDataset[name]; n > 0 {
			fmt.Fprintf(out, "  %-14s %d\n", name, n)
		}
	}

	if stats.LastMutation.Valid {
		fmt.Fprintf(out, "Last mutation:   %s\n", stats.LastMutation.String)
	} else {
		fmt.Fprintf(out, "Last mutation:   (never)\n")
	}

	fmt.Fprintln(out)
}
