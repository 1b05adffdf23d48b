package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "omaint",
		Short: "OpenMaint - Work Order Lifecycle & Maintenance Analytics Engine",
		Long: `OpenMaint manages the full lifecycle of plant maintenance work orders
and derives analytics from the resulting records.

Features:
  - Preventive and corrective work orders with checklists
  - Guarded lifecycle transitions with per-field change history
  - Recurring preventive orders with calendar-aware scheduling
  - Preventive compliance, recurring failure, stop, and punctuality reports
  - Rego policy enforcement for role-based authorization`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newOrderCommand())
	rootCmd.AddCommand(newReportCommand())
	rootCmd.AddCommand(newTemplateCommand())
	rootCmd.AddCommand(newServeCommand())

	return rootCmd
}
