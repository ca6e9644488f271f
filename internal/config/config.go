// Package config loads service configuration from an optional YAML file with
// environment variable overrides. Environment values win over file values.
package config

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v6"
	"github.com/ghodss/yaml"
)

const (
	DriverSQLite   = "sqlite"
	DriverBigQuery = "bigquery"
)

type Config struct {
	Server  ServerConfig  `json:"server"`
	Storage StorageConfig `json:"storage"`
	Gemini  GeminiConfig  `json:"gemini"`
	Auth    AuthConfig    `json:"auth"`
	Ledger  LedgerConfig  `json:"ledger"`
	Reports ReportsConfig `json:"reports"`
}

type ServerConfig struct {
	Addr    string `json:"addr" env:"DUKABOOK_ADDR"`
	LogJSON bool   `json:"logJSON" env:"DUKABOOK_LOG_JSON"`
}

type StorageConfig struct {
	// Driver selects the persistence backend, "sqlite" or "bigquery".
	Driver string `json:"driver" env:"DUKABOOK_STORAGE_DRIVER"`

	SQLitePath string `json:"sqlitePath" env:"DUKABOOK_SQLITE_PATH"`

	BigQueryProject string `json:"bigqueryProject" env:"DUKABOOK_BQ_PROJECT"`
	BigQueryDataset string `json:"bigqueryDataset" env:"DUKABOOK_BQ_DATASET"`

	// ReceiptsBucket is the GCS bucket holding uploaded receipt images.
	// Receipt scanning is disabled when empty.
	ReceiptsBucket string `json:"receiptsBucket" env:"DUKABOOK_RECEIPTS_BUCKET"`
}

type GeminiConfig struct {
	// Enabled switches transaction extraction from the built-in rule
	// backend to the Gemini model. Receipt scanning always needs Gemini.
	Enabled bool   `json:"enabled" env:"DUKABOOK_GEMINI_ENABLED"`
	Model   string `json:"model" env:"DUKABOOK_GEMINI_MODEL"`
}

type AuthConfig struct {
	JWTSecret string `json:"jwtSecret" env:"DUKABOOK_JWT_SECRET"`
	TokenTTL  string `json:"tokenTTL" env:"DUKABOOK_TOKEN_TTL"`
}

type LedgerConfig struct {
	Currency string `json:"currency" env:"DUKABOOK_CURRENCY"`
}

type ReportsConfig struct {
	// SummarySchedule is a cron expression for the periodic summary log.
	// Scheduling is disabled when empty.
	SummarySchedule string `json:"summarySchedule" env:"DUKABOOK_SUMMARY_SCHEDULE"`
	ChartDir        string `json:"chartDir" env:"DUKABOOK_CHART_DIR"`
}

func defaults() Config {
	return Config{
		Server:  ServerConfig{Addr: ":8080"},
		Storage: StorageConfig{Driver: DriverSQLite, SQLitePath: "dukabook.db"},
		Gemini:  GeminiConfig{Model: "gemini-2.5-flash"},
		Auth:    AuthConfig{TokenTTL: "24h"},
		Ledger:  LedgerConfig{Currency: "UGX"},
	}
}

// Load reads the YAML file at path if it exists, applies environment
// overrides, and fills remaining gaps with defaults. A missing file is not an
// error; an unreadable or malformed one is.
func Load(path string) (*Config, error) {
	var fileCfg Config
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	var envCfg Config
	if err := env.Parse(&envCfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	cfg := envCfg
	if err := mergo.Merge(&cfg, fileCfg); err != nil {
		return nil, fmt.Errorf("merging config: %w", err)
	}
	if err := mergo.Merge(&cfg, defaults()); err != nil {
		return nil, fmt.Errorf("applying config defaults: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
	case DriverBigQuery:
		if c.Storage.BigQueryProject == "" || c.Storage.BigQueryDataset == "" {
			return fmt.Errorf("bigquery storage requires DUKABOOK_BQ_PROJECT and DUKABOOK_BQ_DATASET")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}
