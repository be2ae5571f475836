// Package config provides configuration management for finance-tables.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Snapshot SnapshotConfig
	Debug    bool
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Port int
}

// DataConfig represents the location of the dataset files and history.
type DataConfig struct {
	Root          string
	DatasetsFile  string
	HistoryDBPath string
}

// SnapshotConfig represents the previous-version store configuration.
type SnapshotConfig struct {
	DBPath string
	Keep   int
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	// Load .env file
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	port, err := parseIntEnv("PORT", 5000)
	if err != nil {
		return nil, err
	}
	keep, err := parseIntEnv("SNAPSHOT_KEEP", 20)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port: port,
		},
		Data: DataConfig{
			Root:          getEnvOrDefault("DATA_ROOT", "."),
			DatasetsFile:  os.Getenv("DATASETS_FILE"),
			HistoryDBPath: os.Getenv("HISTORY_DB_PATH"),
		},
		Snapshot: SnapshotConfig{
			DBPath: os.Getenv("SNAPSHOT_DB_PATH"),
			Keep:   keep,
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate validates the configuration.
// It checks if all required fields are set.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) < 2 {
			continue
		}

		var value string
		switch path[0] {
		case "server":
			if path[1] == "port" && c.Server.Port > 0 && c.Server.Port < 65536 {
				value = strconv.Itoa(c.Server.Port)
			}
		case "data":
			switch path[1] {
			case "root":
				value = c.Data.Root
			case "datasetsFile":
				value = c.Data.DatasetsFile
			case "historyDbPath":
				value = c.Data.HistoryDBPath
			}
		case "snapshot":
			switch path[1] {
			case "dbPath":
				value = c.Snapshot.DBPath
			case "keep":
				if c.Snapshot.Keep > 0 {
					value = strconv.Itoa(c.Snapshot.Keep)
				}
			}
		}

		if value == "" {
			missing = append(missing, strings.Join(path, "."))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv parses an int from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %s", key, value)
	}

	return parsed, nil
}
