package records

import (
	"maps"
	"slices"

	"github.com/pigeonworks-llc/finance-tables/pkg/table"
)

// Fields is a set of column values, as received from a request body.
type Fields map[string]table.Value

// FieldsFromJSON converts a decoded JSON object into Fields.
func FieldsFromJSON(obj map[string]interface{}) (Fields, error) {
	fields := make(Fields, len(obj))
	for k, raw := range obj {
		v, err := table.FromJSON(raw)
		if err != nil {
			return nil, &ValidationError{Field: k, Err: err}
		}
		fields[k] = v
	}
	return fields, nil
}

// Names returns the field names in sorted order.
func (f Fields) Names() []string {
	return slices.Sorted(maps.Keys(f))
}

func (f Fields) clone() Fields {
	c := make(Fields, len(f))
	maps.Copy(c, f)
	return c
}

// Create appends a row built from fields. Fields that are not columns yet
// become new columns, appended in name order, and are null in the existing
// rows. Columns missing from fields are null in the new row.
func Create(t *table.Table, fields Fields) {
	for _, name := range fields.Names() {
		t.AddColumn(name)
	}
	t.Append(table.Row(fields))
}

// Update overwrites, in every row whose keyColumn matches key, the columns
// named in updates. The key column and unknown columns are left alone.
func Update(t *table.Table, keyColumn, key string, updates Fields) error {
	idx := t.Match(keyColumn, key)
	if len(idx) == 0 {
		return ErrNotFound
	}

	for _, name := range updates.Names() {
		if name == keyColumn || !t.HasColumn(name) {
			continue
		}
		for _, i := range idx {
			t.Rows[i][name] = updates[name]
		}
	}
	return nil
}

// Delete removes every row whose keyColumn matches key and returns how
// many were removed.
func Delete(t *table.Table, keyColumn, key string) (int, error) {
	before := t.Len()
	t.RemoveRows(t.Match(keyColumn, key))
	removed := before - t.Len()
	if removed == 0 {
		return 0, ErrNotFound
	}
	return removed, nil
}
