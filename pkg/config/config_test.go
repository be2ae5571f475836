package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var configKeys = []string{"PORT", "DATA_ROOT", "DATASETS_FILE", "HISTORY_DB_PATH", "SNAPSHOT_DB_PATH", "SNAPSHOT_KEEP", "DEBUG"}

// clearEnv blanks every configuration variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, expected 5000", cfg.Server.Port)
	}
	if cfg.Data.Root != "." {
		t.Errorf("Data.Root = %q, expected .", cfg.Data.Root)
	}
	if cfg.Snapshot.Keep != 20 {
		t.Errorf("Snapshot.Keep = %d, expected 20", cfg.Snapshot.Keep)
	}
	if cfg.Debug {
		t.Error("Debug = true, expected false")
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	for _, k := range configKeys {
		os.Unsetenv(k)
	}

	envFile := filepath.Join(t.TempDir(), "test.env")
	content := "PORT=8081\nDATA_ROOT=/srv/finanzas\nDATASETS_FILE=datasets.yaml\nSNAPSHOT_KEEP=3\nDEBUG=true\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8081 || cfg.Data.Root != "/srv/finanzas" || cfg.Data.DatasetsFile != "datasets.yaml" {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.Snapshot.Keep != 3 || !cfg.Debug {
		t.Errorf("Load() = %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"non-numeric port", "PORT", "http"},
		{"non-numeric keep", "SNAPSHOT_KEEP", "many"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.val)

			if _, err := Load(); err == nil || !strings.Contains(err.Error(), tt.key) {
				t.Errorf("Load() error = %v, expected an error naming %s", err, tt.key)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("Load() with a missing .env file succeeded")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Port: 5000},
		Data:     DataConfig{Root: "/data"},
		Snapshot: SnapshotConfig{Keep: 0},
	}

	tests := []struct {
		name     string
		required [][]string
		missing  string
	}{
		{"all set", [][]string{{"server", "port"}, {"data", "root"}}, ""},
		{"missing datasets file", [][]string{{"data", "root"}, {"data", "datasetsFile"}}, "data.datasetsFile"},
		{"non-positive keep", [][]string{{"snapshot", "keep"}}, "snapshot.keep"},
		{"short path ignored", [][]string{{"data"}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cfg.Validate(tt.required...)
			if tt.missing == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.missing) {
				t.Errorf("Validate() error = %v, expected it to name %s", err, tt.missing)
			}
		})
	}
}
