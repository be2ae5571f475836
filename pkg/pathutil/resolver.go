// Package pathutil provides centralized path management for the data root,
// dataset files and the local state databases.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// stateDir is the directory, under the data root, holding local state.
const stateDir = ".finance"

// PathResolver manages paths for dataset files, history and snapshot databases.
type PathResolver struct {
	dataRoot       string
	historyDBPath  string
	snapshotDBPath string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// DataRoot is the directory relative dataset paths are resolved against (e.g., ~/finanzas)
	DataRoot string
	// HistoryDBPath is the path to the SQLite mutation history database
	HistoryDBPath string
	// SnapshotDBPath is the path to the bbolt snapshot database
	SnapshotDBPath string
}

// New creates a new PathResolver with the given configuration.
// An empty DataRoot means the current directory.
// If HistoryDBPath is empty, it defaults to {DataRoot}/.finance/history.db
// If SnapshotDBPath is empty, it defaults to {DataRoot}/.finance/snapshots.db
func New(config Config) *PathResolver {
	root := config.DataRoot
	if root == "" {
		root = "."
	}

	historyPath := config.HistoryDBPath
	if historyPath == "" {
		historyPath = filepath.Join(root, stateDir, "history.db")
	}

	snapshotPath := config.SnapshotDBPath
	if snapshotPath == "" {
		snapshotPath = filepath.Join(root, stateDir, "snapshots.db")
	}

	return &PathResolver{
		dataRoot:       root,
		historyDBPath:  historyPath,
		snapshotDBPath: snapshotPath,
	}
}

// GetDataRoot returns the data root directory.
func (p *PathResolver) GetDataRoot() string {
	return p.dataRoot
}

// GetHistoryDBPath returns the mutation history database path.
func (p *PathResolver) GetHistoryDBPath() string {
	return p.historyDBPath
}

// GetSnapshotDBPath returns the snapshot database path.
func (p *PathResolver) GetSnapshotDBPath() string {
	return p.snapshotDBPath
}

// Resolve returns path unchanged when absolute, else joined to the data root.
// An empty path stays empty.
func (p *PathResolver) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.dataRoot, path)
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	return p.EnsureDir(filepath.Dir(filePath))
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
