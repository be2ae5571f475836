package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Operation is the kind of mutation applied to a dataset.
type Operation string

const (
	OperationCreate  Operation = "create"
	OperationUpdate  Operation = "update"
	OperationDelete  Operation = "delete"
	OperationRestore Operation = "restore"
)

// Mutation is one mutation history record.
type Mutation struct {
	ID           int64           `json:"-"`
	EventID      string          `json:"event_id"`
	Dataset      string          `json:"dataset"`
	Operation    Operation       `json:"operation"`
	RecordKey    string          `json:"record_key"`
	RowsAffected int             `json:"rows_affected"`
	Payload      json.RawMessage `json:"payload"`
	RecordedAt   time.Time       `json:"recorded_at"`
}

// History manages mutation history operations.
type History struct {
	conn *Connection
}

// NewHistory creates a new History instance.
func NewHistory(conn *Connection) *History {
	return &History{conn: conn}
}

// RecordMutation stores a mutation. EventID is generated when empty and
// Payload defaults to an empty JSON object.
func (h *History) RecordMutation(ctx context.Context, m Mutation) (string, error) {
	if m.EventID == "" {
		m.EventID = uuid.NewString()
	}
	payload := m.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	query := `
		INSERT INTO mutation_history (event_id, dataset, operation, record_key, rows_affected, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := h.conn.ExecContext(ctx, query,
		m.EventID,
		m.Dataset,
		string(m.Operation),
		m.RecordKey,
		m.RowsAffected,
		string(payload),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record mutation: %w", err)
	}

	return m.EventID, nil
}

// Recent returns up to limit mutations, newest first. An empty dataset
// selects every dataset; a non-positive limit selects all records.
func (h *History) Recent(ctx context.Context, dataset string, limit int) ([]Mutation, error) {
	query := `
		SELECT id, event_id, dataset, operation, record_key, rows_affected, payload, recorded_at
		FROM mutation_history
		WHERE (? = '' OR dataset = ?)
		ORDER BY id DESC
		LIMIT ?
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := h.conn.QueryContext(ctx, query, dataset, dataset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get mutation history: %w", err)
	}
	defer rows.Close()

	mutations := []Mutation{}
	for rows.Next() {
		var m Mutation
		var operation, payload string

		if err := rows.Scan(
			&m.ID,
			&m.EventID,
			&m.Dataset,
			&operation,
			&m.RecordKey,
			&m.RowsAffected,
			&payload,
			&m.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan mutation: %w", err)
		}

		m.Operation = Operation(operation)
		m.Payload = json.RawMessage(payload)
		mutations = append(mutations, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mutation history: %w", err)
	}

	return mutations, nil
}

// Stats represents mutation statistics.
type Stats struct {
	TotalMutations int
	ByOperation    map[Operation]int
	ByDataset      map[string]int
	LastMutation   sql.NullString
}

// GetStats retrieves mutation statistics.
func (h *History) GetStats(ctx context.Context) (*Stats, error) {
	stats := Stats{
		ByOperation: make(map[Operation]int),
		ByDataset:   make(map[string]int),
	}

	err := h.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM mutation_history`).Scan(&stats.TotalMutations)
	if err != nil {
		return nil, fmt.Errorf("failed to get mutation count: %w", err)
	}

	if err := h.countBy(ctx, "operation", func(k string, n int) { stats.ByOperation[Operation(k)] = n }); err != nil {
		return nil, err
	}
	if err := h.countBy(ctx, "dataset", func(k string, n int) { stats.ByDataset[k] = n }); err != nil {
		return nil, err
	}

	// Get last mutation time
	err = h.conn.QueryRowContext(ctx, `SELECT MAX(recorded_at) FROM mutation_history`).Scan(&stats.LastMutation)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get last mutation time: %w", err)
	}

	return &stats, nil
}

// countBy groups mutation counts by column, which must be a trusted column name.
func (h *History) countBy(ctx context.Context, column string, add func(key string, n int)) error {
	rows, err := h.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s, COUNT(*) FROM mutation_history GROUP BY %s`, column, column))
	if err != nil {
		return fmt.Errorf("failed to count mutations by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("failed to scan %s count: %w", column, err)
		}
		add(key, n)
	}
	return rows.Err()
}

// GetMetadata retrieves a metadata value.
func (h *History) GetMetadata(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM history_metadata WHERE key = ?`

	var value string
	err := h.conn.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}

	return value, nil
}

// SetMetadata sets a metadata value.
func (h *History) SetMetadata(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO history_metadata (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := h.conn.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}

	return nil
}
