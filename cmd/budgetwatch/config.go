package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

// Config is the per-instance configuration the setup wizard produces.
type Config struct {
	AccessToken string `toml:"access_token"`
	BudgetID    string `toml:"budget_id"`
	BudgetName  string `toml:"budget_name"`

	// InstanceID is the stable identifier keying this instance's durable
	// records. Minted on first load if absent.
	InstanceID string `toml:"instance_id"`

	SelectedAccounts   []string `toml:"selected_accounts"`
	SelectedCategories []string `toml:"selected_categories"`

	Currency                string `toml:"currency"`
	UpdateIntervalMinutes   int    `toml:"update_interval_minutes"`
	IncludeClosedAccounts   bool   `toml:"include_closed_accounts"`
	IncludeHiddenCategories bool   `toml:"include_hidden_categories"`

	DBPath    string `toml:"db_path"`
	SentryDSN string `toml:"sentry_dsn"`
}

// loadConfig reads and validates the TOML config file.
func loadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("config %s: access_token is required", path)
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}

	if cfg.DBPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home dir: %w", err)
		}
		cfg.DBPath = filepath.Join(homeDir, ".budgetwatch", "budgetwatch.db")
	}

	return &cfg, nil
}

// pollInterval converts the configured minutes to a duration; bounds are
// applied by the scheduler.
func (c *Config) pollInterval() time.Duration {
	return time.Duration(c.UpdateIntervalMinutes) * time.Minute
}
