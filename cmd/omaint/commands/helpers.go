package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/openmaint/openmaint/pkg/config"
	"github.com/openmaint/openmaint/pkg/stores"
)

// loadConfig loads the configuration file named by the --config flag,
// falling back to ./openmaint.yaml and finally to built-in defaults.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = "openmaint.yaml"
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

// openStore opens, initializes, and migrates the configured SQLite
// store. The caller closes it.
func openStore(ctx context.Context, cfg *config.Config) (*stores.SQLiteStore, error) {
	store, err := stores.NewSQLiteStore(stores.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// printJSON writes a value as indented JSON to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
