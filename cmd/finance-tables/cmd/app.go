package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pigeonworks-llc/finance-tables/pkg/catalog"
	"github.com/pigeonworks-llc/finance-tables/pkg/config"
	"github.com/pigeonworks-llc/finance-tables/pkg/datasets"
	"github.com/pigeonworks-llc/finance-tables/pkg/db"
	"github.com/pigeonworks-llc/finance-tables/pkg/pathutil"
	"github.com/pigeonworks-llc/finance-tables/pkg/snapshot"
	"github.com/pigeonworks-llc/finance-tables/pkg/table"
)

// app holds the components wired from a configuration.
type app struct {
	paths     *pathutil.PathResolver
	catalog   catalog.Catalog
	conn      *db.Connection
	history   *db.History
	snapshots *snapshot.Store
	store     *table.Store
	service   *datasets.Service
}

// loadConfig loads and validates the configuration named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate([]string{"data", "root"}, []string{"server", "port"}); err != nil {
		return nil, err
	}
	if cfg.Debug {
		debug = true
	}
	return cfg, nil
}

// openApp opens the history and snapshot databases and builds the service.
func openApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	paths := pathutil.New(pathutil.Config{
		DataRoot:       cfg.Data.Root,
		HistoryDBPath:  cfg.Data.HistoryDBPath,
		SnapshotDBPath: cfg.Snapshot.DBPath,
	})

	cat, err := catalog.Load(paths.GetDataRoot(), paths.Resolve(cfg.Data.DatasetsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset catalog: %w", err)
	}

	logger.Debug("Opening history database", "path", paths.GetHistoryDBPath())
	conn, err := db.Open(paths.GetHistoryDBPath())
	if err != nil {
		return nil, err
	}

	if err := paths.EnsureParentDir(paths.GetSnapshotDBPath()); err != nil {
		conn.Close()
		return nil, err
	}
	logger.Debug("Opening snapshot database", "path", paths.GetSnapshotDBPath())
	snaps, err := snapshot.Open(paths.GetSnapshotDBPath(), cfg.Snapshot.Keep)
	if err != nil {
		conn.Close()
		return nil, err
	}

	store := table.NewStore(table.StoreConfig{
		Catalog:   cat,
		Snapshots: snaps,
		Logger:    logger,
	})
	history := db.NewHistory(conn)

	return &app{
		paths:     paths,
		catalog:   cat,
		conn:      conn,
		history:   history,
		snapshots: snaps,
		store:     store,
		service: datasets.New(datasets.Config{
			Store:   store,
			History: history,
			Logger:  logger,
		}),
	}, nil
}

// Close closes the databases.
func (a *app) Close() error {
	return errors.Join(a.snapshots.Close(), a.conn.Close())
}
