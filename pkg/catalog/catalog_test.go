package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestNew(t *testing.T) {
	c := New("/data")

	tests := []struct {
		name     string
		expected string
	}{
		{Movements, "/data/fact_movimientos.csv"},
		{Categories, "/data/dim_categorias.csv"},
		{Loans, "/data/dim_prestamos.csv"},
	}

	for _, tt := range tests {
		got, err := c.Path(tt.name)
		if err != nil {
			t.Fatalf("Path(%q) error = %v", tt.name, err)
		}
		if got != tt.expected {
			t.Errorf("Path(%q) = %v, expected %v", tt.name, got, tt.expected)
		}
	}

	if _, err := c.Path("presupuestos"); !errors.Is(err, ErrInvalidDataset) {
		t.Errorf("Path() error = %v, expected ErrInvalidDataset", err)
	}
	if !slices.Equal(c.Names(), Names) {
		t.Errorf("Names() = %v, expected %v", c.Names(), Names)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datasets.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "datasets:\n  movimientos: ledger/movements.csv\n  prestamos: /srv/loans.csv\n")

	c, err := Load("/data", path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name     string
		expected string
	}{
		{Movements, "/data/ledger/movements.csv"},
		{Loans, "/srv/loans.csv"},
		{Accounts, "/data/dim_cuentas.csv"},
	}
	for _, tt := range tests {
		if got, _ := c.Path(tt.name); got != tt.expected {
			t.Errorf("Path(%q) = %v, expected %v", tt.name, got, tt.expected)
		}
	}

	// The default catalog is not affected by overrides.
	if got, _ := New("/data").Path(Movements); got != "/data/fact_movimientos.csv" {
		t.Errorf("New() after Load() = %v", got)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		invalid bool
	}{
		{"unknown dataset", "datasets:\n  presupuestos: p.csv\n", true},
		{"empty path", "datasets:\n  cuentas: \"  \"\n", false},
		{"malformed yaml", "datasets: [\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("/data", writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() succeeded, expected an error")
			}
			if errors.Is(err, ErrInvalidDataset) != tt.invalid {
				t.Errorf("Load() error = %v, ErrInvalidDataset expected: %v", err, tt.invalid)
			}
		})
	}

	if _, err := Load("/data", "/nonexistent/datasets.yaml"); err == nil {
		t.Error("Load() with a missing file succeeded")
	}
}

func TestIsDimension(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{Accounts, true},
		{Categories, true},
		{Movements, false},
		{"presupuestos", false},
	}

	for _, tt := range tests {
		if got := IsDimension(tt.name); got != tt.expected {
			t.Errorf("IsDimension(%q) = %v, expected %v", tt.name, got, tt.expected)
		}
	}
}
