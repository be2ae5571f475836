// Package datasets runs the load, mutate and save cycle of every request
// against the dataset files and records each successful mutation.
//
// Each call reads the file again, changes the table in memory and rewrites
// the whole file. There is no locking between calls: two concurrent
// mutations of the same dataset race, the last writer wins, and two
// concurrent movement creations can be issued the same identifier.
package datasets

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pigeonworks-llc/finance-tables/pkg/catalog"
	"github.com/pigeonworks-llc/finance-tables/pkg/db"
	"github.com/pigeonworks-llc/finance-tables/pkg/records"
	"github.com/pigeonworks-llc/finance-tables/pkg/summary"
	"github.com/pigeonworks-llc/finance-tables/pkg/table"
)

// History stores and reads back the mutation log.
type History interface {
	RecordMutation(ctx context.Context, m db.Mutation) (string, error)
	Recent(ctx context.Context, dataset string, limit int) ([]db.Mutation, error)
}

// Config represents the configuration for Service.
type Config struct {
	Store *table.Store
	// History is optional; without it mutations are not logged.
	History History
	// Now defaults to time.Now. It dates new movement identifiers.
	Now    func() time.Time
	Logger *slog.Logger
}

// Service executes dataset operations.
type Service struct {
	store   *table.Store
	history History
	now     func() time.Time
	logger  *slog.Logger
}

// New creates a new Service.
func New(cfg Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   cfg.Store,
		history: cfg.History,
		now:     now,
		logger:  logger,
	}
}

// List returns every record of the dataset in file order.
func (s *Service) List(ctx context.Context, dataset string) ([]table.Record, error) {
	t, err := s.store.Load(dataset)
	if err != nil {
		return nil, err
	}
	return t.Records(), nil
}

// Create adds a record to the dataset and returns its key. Movements get a
// generated identifier; other datasets return the value of their key field,
// which may be empty.
func (s *Service) Create(ctx context.Context, dataset string, fields records.Fields) (string, error) {
	t, err := s.store.Load(dataset)
	if err != nil {
		return "", err
	}

	var key string
	if dataset == catalog.Movements {
		key, err = records.CreateMovement(t, fields, s.now())
		if err != nil {
			return "", err
		}
	} else {
		keyCol := records.KeyColumn(dataset, t.Columns)
		if t.IsEmpty() {
			if _, ok := fields[keyCol]; ok {
				t.AddColumn(keyCol)
			}
		}
		records.Create(t, fields)
		key = fields[keyCol].Text()
	}

	if err := s.store.Save(dataset, t); err != nil {
		return "", err
	}
	s.record(ctx, dataset, db.OperationCreate, key, 1, fields)
	return key, nil
}

// Update applies updates to every record of the dataset whose key is key.
func (s *Service) Update(ctx context.Context, dataset, key string, updates records.Fields) error {
	t, err := s.store.Load(dataset)
	if err != nil {
		return err
	}

	var matched int
	if dataset == catalog.Movements {
		matched = len(t.Match(records.ColMovID, key))
		err = records.UpdateMovement(t, key, updates)
	} else {
		keyCol := records.KeyColumn(dataset, t.Columns)
		matched = len(t.Match(keyCol, key))
		err = records.Update(t, keyCol, key, updates)
	}
	if err != nil {
		return err
	}

	if err := s.store.Save(dataset, t); err != nil {
		return err
	}
	s.record(ctx, dataset, db.OperationUpdate, key, matched, updates)
	return nil
}

// Delete removes every record of the dataset whose key is key and returns
// how many were removed.
func (s *Service) Delete(ctx context.Context, dataset, key string) (int, error) {
	t, err := s.store.Load(dataset)
	if err != nil {
		return 0, err
	}

	keyCol := records.ColMovID
	if dataset != catalog.Movements {
		keyCol = records.KeyColumn(dataset, t.Columns)
	}
	removed, err := records.Delete(t, keyCol, key)
	if err != nil {
		return 0, err
	}

	if err := s.store.Save(dataset, t); err != nil {
		return 0, err
	}
	s.record(ctx, dataset, db.OperationDelete, key, removed, nil)
	return removed, nil
}

// Balances sums the movements per member of a dimension dataset.
func (s *Service) Balances(ctx context.Context, dimension string) (summary.BalanceReport, error) {
	if !catalog.IsDimension(dimension) {
		return summary.BalanceReport{}, catalog.ErrInvalidDataset
	}
	dim, err := s.store.Load(dimension)
	if err != nil {
		return summary.BalanceReport{}, err
	}
	movements, err := s.store.Load(catalog.Movements)
	if err != nil {
		return summary.BalanceReport{}, err
	}
	return summary.Balances(dimension, movements, dim), nil
}

// Dashboard summarizes a year of movements. Year 0 means the current year.
func (s *Service) Dashboard(ctx context.Context, year int) (summary.DashboardReport, error) {
	if year == 0 {
		year = s.now().Year()
	}
	movements, err := s.store.Load(catalog.Movements)
	if err != nil {
		return summary.DashboardReport{}, err
	}
	categories, err := s.store.Load(catalog.Categories)
	if err != nil {
		return summary.DashboardReport{}, err
	}
	return summary.Dashboard(year, movements, categories), nil
}

// History returns up to limit recent mutations, of one dataset when
// dataset is not empty.
func (s *Service) History(ctx context.Context, dataset string, limit int) ([]db.Mutation, error) {
	if dataset != "" && !s.store.Catalog().Has(dataset) {
		return nil, catalog.ErrInvalidDataset
	}
	if s.history == nil {
		return []db.Mutation{}, nil
	}
	return s.history.Recent(ctx, dataset, limit)
}

// record logs a mutation that has already been saved. A history failure is
// logged and does not fail the request.
func (s *Service) record(ctx context.Context, dataset string, op db.Operation, key string, rows int, fields records.Fields) {
	s.logger.InfoContext(ctx, "dataset mutated", "dataset", dataset, "operation", op, "key", key, "rows", rows)
	if s.history == nil {
		return
	}

	var payload json.RawMessage
	if fields != nil {
		data, err := json.Marshal(fields)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to encode mutation payload", "dataset", dataset, "error", err)
		}
		payload = data
	}

	if _, err := s.history.RecordMutation(ctx, db.Mutation{
		Dataset:      dataset,
		Operation:    op,
		RecordKey:    key,
		RowsAffected: rows,
		Payload:      payload,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to record mutation", "dataset", dataset, "key", key, "error", err)
	}
}
