package table

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pigeonworks-llc/finance-tables/pkg/catalog"
)

// ErrPersistence is returned when a table could not be written to its file.
var ErrPersistence = errors.New("persistence failure")

// Source tells which path produced a loaded table.
type Source int

const (
	// SourceMissing means the file does not exist.
	SourceMissing Source = iota
	// SourceStrict means Parse succeeded.
	SourceStrict
	// SourceLenient means Parse failed and ParseLenient succeeded.
	SourceLenient
	// SourceFailed means the file could not be read or parsed at all.
	SourceFailed
)

func (s Source) String() string {
	switch s {
	case SourceMissing:
		return "missing"
	case SourceStrict:
		return "strict"
	case SourceLenient:
		return "lenient"
	default:
		return "failed"
	}
}

// Snapshotter keeps the previous content of a file before it is overwritten.
type Snapshotter interface {
	Snapshot(key string, previous []byte) error
}

// StoreConfig represents the configuration for Store.
type StoreConfig struct {
	// Catalog binds dataset names to files.
	Catalog catalog.Catalog
	// Snapshots receives the previous content of every overwritten file (optional).
	Snapshots Snapshotter
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Store loads and rewrites dataset files. It holds no table state: every
// Load reads the file again.
type Store struct {
	catalog   catalog.Catalog
	snapshots Snapshotter
	logger    *slog.Logger
}

// NewStore creates a new Store.
func NewStore(cfg StoreConfig) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		catalog:   cfg.Catalog,
		snapshots: cfg.Snapshots,
		logger:    logger,
	}
}

// Catalog returns the store's catalog.
func (s *Store) Catalog() catalog.Catalog {
	return s.catalog
}

// Load reads the dataset's table. See LoadFile.
func (s *Store) Load(name string) (*Table, error) {
	path, err := s.catalog.Path(name)
	if err != nil {
		return nil, err
	}
	return s.LoadFile(path), nil
}

// Save overwrites the dataset's file with t. See SaveFile.
func (s *Store) Save(name string, t *Table) error {
	path, err := s.catalog.Path(name)
	if err != nil {
		return err
	}
	return s.SaveFile(t, path)
}

// LoadFile reads the table stored at path. It never fails: a missing file
// is the empty table, a malformed one goes through ParseLenient, and a
// file that cannot be read at all is logged and treated as empty.
func (s *Store) LoadFile(path string) *Table {
	t, _ := s.Inspect(path)
	return t
}

// Inspect is LoadFile, also reporting which path produced the table.
func (s *Store) Inspect(path string) (*Table, Source) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Empty(), SourceMissing
	}
	if err != nil {
		s.logger.Error("failed to read dataset file", "path", path, "error", err)
		return Empty(), SourceFailed
	}

	t, err := Parse(bytes.NewReader(data))
	if err == nil {
		return t, SourceStrict
	}
	s.logger.Warn("strict parse failed, retrying leniently", "path", path, "error", err)

	t, err = ParseLenient(bytes.NewReader(data))
	if err != nil {
		s.logger.Error("lenient parse failed", "path", path, "error", err)
		return Empty(), SourceFailed
	}
	return t, SourceLenient
}

// SaveFile overwrites the file at path with t, creating parent directories
// as needed. The previous content, if any, is handed to the snapshotter
// first; a snapshot failure is logged and does not stop the write.
//
// The file is rewritten in place: a crash during the write can leave it
// truncated.
func (s *Store) SaveFile(t *Table, path string) error {
	var buf bytes.Buffer
	if err := Write(&buf, t); err != nil {
		return fmt.Errorf("%w: failed to serialize %s: %w", ErrPersistence, path, err)
	}

	if err := s.writeFile(path, buf.Bytes()); err != nil {
		return err
	}

	s.logger.Debug("dataset saved", "path", path, "rows", t.Len(), "columns", len(t.Columns))
	return nil
}

// Restore overwrites the dataset's file with content verbatim, after
// checking that content parses. The content being replaced is snapshotted
// like on any other save.
func (s *Store) Restore(name string, content []byte) error {
	path, err := s.catalog.Path(name)
	if err != nil {
		return err
	}
	if _, err := ParseLenient(bytes.NewReader(content)); err != nil {
		return fmt.Errorf("refusing to restore unparseable content for %s: %w", name, err)
	}
	if err := s.writeFile(path, content); err != nil {
		return err
	}

	s.logger.Info("dataset restored", "dataset", name, "path", path, "bytes", len(content))
	return nil
}

// SnapshotKey returns the key under which the dataset's previous versions
// are snapshotted.
func (s *Store) SnapshotKey(name string) (string, error) {
	path, err := s.catalog.Path(name)
	if err != nil {
		return "", err
	}
	return filepath.Base(path), nil
}

func (s *Store) writeFile(path string, data []byte) error {
	if s.snapshots != nil {
		s.snapshot(path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: failed to create directory: %w", ErrPersistence, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: failed to write %s: %w", ErrPersistence, path, err)
	}
	return nil
}

func (s *Store) snapshot(path string) {
	previous, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		s.logger.Warn("failed to read file for snapshot", "path", path, "error", err)
		return
	}
	if err := s.snapshots.Snapshot(filepath.Base(path), previous); err != nil {
		s.logger.Warn("failed to snapshot file", "path", path, "error", err)
	}
}
