// Package catalog binds the logical dataset names to their backing files.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDataset is returned when a dataset name is not in the catalog.
var ErrInvalidDataset = errors.New("invalid dataset")

// Dataset names.
const (
	Movements    = "movimientos"
	Categories   = "categorias"
	Counterparts = "contrapartes"
	Accounts     = "cuentas"
	Instruments  = "instrumentos"
	Loans        = "prestamos"
)

// Names lists every dataset in display order.
var Names = []string{Movements, Categories, Counterparts, Accounts, Instruments, Loans}

// DefaultFiles maps each dataset to its default file name.
var DefaultFiles = map[string]string{
	Movements:    "fact_movimientos.csv",
	Categories:   "dim_categorias.csv",
	Counterparts: "dim_contrapartes.csv",
	Accounts:     "dim_cuentas.csv",
	Instruments:  "dim_instrumentos.csv",
	Loans:        "dim_prestamos.csv",
}

// Catalog is an immutable mapping from dataset name to file path.
type Catalog struct {
	paths map[string]string
}

// New builds a catalog with every dataset under root using DefaultFiles.
func New(root string) Catalog {
	paths := make(map[string]string, len(DefaultFiles))
	for name, file := range DefaultFiles {
		paths[name] = filepath.Join(root, file)
	}
	return Catalog{paths: paths}
}

// fileConfig is the YAML layout of a catalog override file.
//
//	datasets:
//	  movimientos: ledger/movements.csv
//	  prestamos: /srv/data/loans.csv
type fileConfig struct {
	Datasets map[string]string `yaml:"datasets"`
}

// Load builds the default catalog under root and applies the overrides
// found in the YAML file at configPath. Relative paths in the file are
// resolved against root. Only the known dataset names may be overridden.
func Load(root, configPath string) (Catalog, error) {
	c := New(root)
	if configPath == "" {
		return c, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for name, path := range cfg.Datasets {
		if _, ok := c.paths[name]; !ok {
			return Catalog{}, fmt.Errorf("%w: %q in %s", ErrInvalidDataset, name, configPath)
		}
		if strings.TrimSpace(path) == "" {
			return Catalog{}, fmt.Errorf("empty path for dataset %q in %s", name, configPath)
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		c.paths[name] = path
	}

	return c, nil
}

// Path returns the file backing a dataset.
func (c Catalog) Path(name string) (string, error) {
	p, ok := c.paths[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidDataset, name)
	}
	return p, nil
}

// Has reports whether name is a known dataset.
func (c Catalog) Has(name string) bool {
	_, ok := c.paths[name]
	return ok
}

// Names returns the datasets of the catalog in display order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c.paths))
	for _, n := range Names {
		if _, ok := c.paths[n]; ok {
			names = append(names, n)
		}
	}
	return slices.Clip(names)
}

// IsDimension reports whether name is a dimension dataset.
func IsDimension(name string) bool {
	return name != Movements && slices.Contains(Names, name)
}
