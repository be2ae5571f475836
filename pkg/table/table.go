package table

import (
	"encoding/json"
	"slices"
)

// Row maps a column name to its value.
type Row map[string]Value

// Table is an ordered set of columns and an ordered set of rows.
// Every row holds exactly the table's columns; missing cells are null.
type Table struct {
	Columns []string
	Rows    []Row
}

// Empty returns the empty dataset: no columns, no rows.
func Empty() *Table {
	return &Table{}
}

// New creates a table with the given columns and no rows.
func New(columns ...string) *Table {
	return &Table{Columns: slices.Clone(columns)}
}

// IsEmpty reports whether the table has neither columns nor rows.
func (t *Table) IsEmpty() bool {
	return len(t.Columns) == 0 && len(t.Rows) == 0
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	return slices.Contains(t.Columns, name)
}

// AddColumn appends a column and sets it to null in every existing row.
// Adding an existing column is a no-op.
func (t *Table) AddColumn(name string) {
	if t.HasColumn(name) {
		return
	}
	t.Columns = append(t.Columns, name)
	for _, row := range t.Rows {
		row[name] = Null()
	}
}

// Append adds a row holding the table's columns. Cells missing from values
// are null; keys that are not columns are ignored.
func (t *Table) Append(values Row) {
	row := make(Row, len(t.Columns))
	for _, c := range t.Columns {
		row[c] = values[c]
	}
	t.Rows = append(t.Rows, row)
}

// Match returns the indices of rows whose column value matches key, in row order.
func (t *Table) Match(column, key string) []int {
	if !t.HasColumn(column) {
		return nil
	}
	var idx []int
	for i, row := range t.Rows {
		if row[column].Matches(key) {
			idx = append(idx, i)
		}
	}
	return idx
}

// RemoveRows removes the rows at the given indices, keeping the order of the rest.
func (t *Table) RemoveRows(indices []int) {
	if len(indices) == 0 {
		return
	}
	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		drop[i] = true
	}
	kept := t.Rows[:0]
	for i, row := range t.Rows {
		if !drop[i] {
			kept = append(kept, row)
		}
	}
	clear(t.Rows[len(kept):])
	t.Rows = kept
}

// Equal reports whether both tables have the same columns in the same order
// and the same rows in the same order.
func (t *Table) Equal(o *Table) bool {
	if !slices.Equal(t.Columns, o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Rows {
		for _, c := range t.Columns {
			if !t.Rows[i][c].Equal(o.Rows[i][c]) {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{Columns: slices.Clone(t.Columns), Rows: make([]Row, len(t.Rows))}
	for i, row := range t.Rows {
		c.Rows[i] = make(Row, len(row))
		for k, v := range row {
			c.Rows[i][k] = v
		}
	}
	return c
}

// Records returns the rows as JSON-ready records.
// An empty table yields an empty, non-nil slice.
func (t *Table) Records() []Record {
	records := make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		records = append(records, Record{columns: t.Columns, row: row})
	}
	return records
}

// Record is a row bound to its table's column order, so that it encodes
// as a JSON object with keys in column order.
type Record struct {
	columns []string
	row     Row
}

// Get returns the value of a column.
func (r Record) Get(column string) Value {
	return r.row[column]
}

// MarshalJSON writes the record's fields in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, c := range r.columns {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		val, err := r.row[c].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}
