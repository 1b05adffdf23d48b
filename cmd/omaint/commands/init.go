package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openmaint/openmaint/pkg/stores"
	"github.com/openmaint/openmaint/pkg/workorder"
)

func newInitCommand() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize an OpenMaint workspace",
		Long: `Initialize a new OpenMaint workspace with a SQLite database, a default
configuration file, and the built-in checklist template.`,
		Example: `  # Initialize in ./data
  omaint init

  # Initialize with custom config path
  omaint init --config /etc/openmaint/openmaint.yaml --data-dir /var/lib/openmaint`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Info().
				Str("data_dir", dataDir).
				Str("config", configPath).
				Msg("Initializing workspace")

			ctx := cmd.Context()

			if err := os.MkdirAll(dataDir, 0700); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dataDir, err)
			}
			fmt.Printf("✓ Created directory: %s\n", dataDir)

			// Initialize SQLite database
			dbPath := filepath.Join(dataDir, "openmaint.db")
			store, err := stores.NewSQLiteStore(stores.Config{
				Path: dbPath,
			})
			if err != nil {
				return fmt.Errorf("failed to create store: %w", err)
			}

			if err := store.Init(ctx); err != nil {
				return fmt.Errorf("failed to initialize store: %w", err)
			}
			defer store.Close()

			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			fmt.Printf("✓ Initialized SQLite database: %s\n", dbPath)

			// Seed the built-in checklist template as the default
			tpl := &workorder.ChecklistTemplate{
				ID:        "builtin",
				Name:      "Plantilla básica",
				IsDefault: true,
				Items:     workorder.BuiltinTemplateItems(),
				CreatedAt: time.Now(),
			}
			if err := store.SaveTemplate(ctx, tpl); err != nil {
				return fmt.Errorf("failed to seed default template: %w", err)
			}
			fmt.Printf("✓ Seeded default checklist template: %s\n", tpl.Name)

			// Create default config file
			defaultConfig := `# OpenMaint Configuration

service:
  name: openmaint
  environment: development

database:
  path: %s

logging:
  level: info
  format: console

metrics:
  enabled: true
  listen_address: ":9090"

policy:
  enabled: true
  paths: []
  watch: false

templates:
  path: ""
  watch: false
`
			configContent := fmt.Sprintf(defaultConfig, dbPath)

			if configPath == "" {
				configPath = "./openmaint.yaml"
			}

			if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			fmt.Printf("✓ Created config file: %s\n", configPath)

			fmt.Printf("\n✅ Workspace initialized successfully!\n\n")
			fmt.Printf("Next steps:\n")
			fmt.Printf("  1. Create a work order:\n")
			fmt.Printf("     omaint order create --title \"Revisión mensual\" --type preventivo --machine m-1\n\n")
			fmt.Printf("  2. Inspect the dashboard:\n")
			fmt.Printf("     omaint report overview\n\n")

			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "./data", "data directory for the SQLite database")

	return cmd
}
