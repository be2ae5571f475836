// Package db provides the SQLite mutation history of the datasets.
package db

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Mutation history table
-- One row per create/update/delete applied to a dataset file
CREATE TABLE IF NOT EXISTS mutation_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    event_id TEXT NOT NULL UNIQUE,     -- UUID of the mutation
    dataset TEXT NOT NULL,             -- logical dataset name
    operation TEXT NOT NULL,           -- 'create', 'update' or 'delete'
    record_key TEXT NOT NULL,          -- key value of the affected rows
    rows_affected INTEGER NOT NULL,
    payload TEXT NOT NULL,             -- JSON of the submitted fields
    recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_mutation_history_dataset
    ON mutation_history(dataset, recorded_at);

CREATE INDEX IF NOT EXISTS idx_mutation_history_key
    ON mutation_history(dataset, record_key);

-- History metadata table
-- Stores key-value metadata such as the last restore
CREATE TABLE IF NOT EXISTS history_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
