package records

import (
	"slices"
	"strings"
)

// Singular returns the singular form of a dataset name: the trailing "s"
// is dropped ("categorias" -> "categoria"). Other names are unchanged.
func Singular(dataset string) string {
	if s, ok := strings.CutSuffix(dataset, "s"); ok {
		return s
	}
	return dataset
}

// KeyColumn returns the key column of a dataset. The candidate is the
// singular name followed by "_id"; when the table has no such column the
// first column is the key. A table without columns yields the candidate.
func KeyColumn(dataset string, columns []string) string {
	candidate := Singular(dataset) + "_id"
	if len(columns) == 0 || slices.Contains(columns, candidate) {
		return candidate
	}
	return columns[0]
}

// NameColumn returns the conventional display-name column of a dimension
// ("categorias" -> "categoria_nombre").
func NameColumn(dataset string) string {
	return Singular(dataset) + "_nombre"
}
