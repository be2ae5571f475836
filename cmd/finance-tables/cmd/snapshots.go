package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/finance-tables/pkg/db"
)

// snapshotsCmd represents the snapshots command.
var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List and restore previous versions of dataset files",
	Long: `Every time a dataset file is rewritten its previous content is kept
in the snapshot database. The server holds that database open, so stop it
before using these commands.`,
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list [dataset]",
	Short: "List the snapshots of one or every dataset",
	Args:  cobra.MaximumNArgs(1),
	Run:   runSnapshotsList,
}

var snapshotsRestoreCmd = &cobra.Command{
	Use:   "restore <dataset> [seq]",
	Short: "Restore a dataset file from a snapshot (default: the newest)",
	Long: `Restore a dataset file from a snapshot. Without seq the newest
snapshot is used. The content being replaced is itself snapshotted, so a
restore can be undone with another restore.

Example:
  finance-tables snapshots restore movimientos
  finance-tables snapshots restore cuentas 12`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runSnapshotsRestore,
}

func init() {
	snapshotsCmd.AddCommand(snapshotsListCmd)
	snapshotsCmd.AddCommand(snapshotsRestoreCmd)
}

func runSnapshotsList(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	exitOnError(err, "failed to load configuration")

	a, err := openApp(cfg, slog.Default())
	exitOnError(err, "failed to initialize")
	defer a.Close()

	names := a.catalog.Names()
	if len(args) == 1 {
		names = args[:1]
	}
	exitOnError(listSnapshots(cmd, a, names), "failed to list snapshots")
}

func listSnapshots(cmd *cobra.Command, a *app, names []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATASET\tSEQ\tTAKEN AT\tBYTES")

	for _, name := range names {
		key, err := a.store.SnapshotKey(name)
		if err != nil {
			return err
		}
		entries, err := a.snapshots.List(key)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\n", name, e.Seq, e.TakenAt.Local().Format("2006-01-02 15:04:05"), e.Size)
		}
	}
	return w.Flush()
}

func runSnapshotsRestore(cmd *cobra.Command, args []string) {
	var seq uint64
	if len(args) == 2 {
		n, err := strconv.ParseUint(args[1], 10, 64)
		exitOnError(err, "invalid snapshot sequence")
		seq = n
	}

	cfg, err := loadConfig()
	exitOnError(err, "failed to load configuration")

	a, err := openApp(cfg, slog.Default())
	exitOnError(err, "failed to initialize")
	defer a.Close()

	restored, err := restoreSnapshot(context.Background(), a, args[0], seq)
	exitOnError(err, "failed to restore snapshot")

	fmt.Fprintf(cmd.OutOrStdout(), "Restored %s from snapshot %d\n", args[0], restored)
}

// restoreSnapshot writes snapshot seq (0 for the newest) back to the
// dataset file, logs the restore in the history and returns the sequence
// restored.
func restoreSnapshot(ctx context.Context, a *app, dataset string, seq uint64) (uint64, error) {
	key, err := a.store.SnapshotKey(dataset)
	if err != nil {
		return 0, err
	}
	entry, err := a.snapshots.Get(key, seq)
	if err != nil {
		return 0, fmt.Errorf("%s snapshot %d: %w", dataset, seq, err)
	}

	if err := a.store.Restore(dataset, entry.Content); err != nil {
		return 0, err
	}

	if _, err := a.history.RecordMutation(ctx, db.Mutation{
		Dataset:   dataset,
		Operation: db.OperationRestore,
		RecordKey: strconv.FormatUint(entry.Seq, 10),
	}); err != nil {
		slog.Warn("failed to record restore", "dataset", dataset, "error", err)
	}
	if err := a.history.SetMetadata(ctx, "last_restore", fmt.Sprintf("%s@%d", dataset, entry.Seq)); err != nil {
		slog.Warn("failed to record restore metadata", "dataset", dataset, "error", err)
	}

	return entry.Seq, nil
}
