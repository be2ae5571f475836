package snapshot

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T, keep int) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "snapshots.db"), keep)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSnapshotAndGet(t *testing.T) {
	s := openTestStore(t, 0)
	fixed := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	for _, content := range []string{"v1\n", "v2\n"} {
		if err := s.Snapshot("dim_cuentas.csv", []byte(content)); err != nil {
			t.Fatalf("Snapshot() error = %v", err)
		}
	}

	tests := []struct {
		name     string
		seq      uint64
		expected string
	}{
		{"newest", 0, "v2\n"},
		{"first", 1, "v1\n"},
		{"second", 2, "v2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := s.Get("dim_cuentas.csv", tt.seq)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(e.Content) != tt.expected {
				t.Errorf("Get() content = %q, expected %q", e.Content, tt.expected)
			}
			if !e.TakenAt.Equal(fixed) || e.Size != len(tt.expected) {
				t.Errorf("Get() = %+v", e)
			}
		})
	}
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t, 0)

	if _, err := s.Get("dim_cuentas.csv", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on unknown key error = %v, expected ErrNotFound", err)
	}

	if err := s.Snapshot("dim_cuentas.csv", []byte("v1\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get("dim_cuentas.csv", 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on unknown seq error = %v, expected ErrNotFound", err)
	}
}

func TestRetention(t *testing.T) {
	s := openTestStore(t, 3)

	for i := 1; i <= 5; i++ {
		if err := s.Snapshot("fact_movimientos.csv", []byte(fmt.Sprintf("v%d\n", i))); err != nil {
			t.Fatalf("Snapshot() error = %v", err)
		}
	}

	entries, err := s.List("fact_movimientos.csv")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("List() returned %d entries, expected 3", len(entries))
	}
	for i, seq := range []uint64{5, 4, 3} {
		if entries[i].Seq != seq {
			t.Errorf("List()[%d].Seq = %d, expected %d", i, entries[i].Seq, seq)
		}
		if entries[i].Content != nil {
			t.Errorf("List()[%d] carries content", i)
		}
	}

	if _, err := s.Get("fact_movimientos.csv", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() of a pruned snapshot error = %v, expected ErrNotFound", err)
	}
}

func TestKeysAndEmptyList(t *testing.T) {
	s := openTestStore(t, 0)

	entries, err := s.List("dim_prestamos.csv")
	if err != nil || entries == nil || len(entries) != 0 {
		t.Errorf("List() on unknown key = %v, %v; expected empty", entries, err)
	}

	for _, k := range []string{"dim_cuentas.csv", "dim_categorias.csv"} {
		if err := s.Snapshot(k, []byte("x\n")); err != nil {
			t.Fatal(err)
		}
	}
	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 2 || keys[0] != "dim_categorias.csv" || keys[1] != "dim_cuentas.csv" {
		t.Errorf("Keys() = %v", keys)
	}
}
