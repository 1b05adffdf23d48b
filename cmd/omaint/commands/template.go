package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openmaint/openmaint/pkg/config"
)

func newTemplateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage checklist templates",
	}

	cmd.AddCommand(newTemplateListCommand())
	cmd.AddCommand(newTemplateShowCommand())
	cmd.AddCommand(newTemplateImportCommand())
	cmd.AddCommand(newTemplateDeleteCommand())

	return cmd
}

func newTemplateListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List checklist templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			templates, err := store.ListTemplates(ctx)
			if err != nil {
				return err
			}

			return printJSON(templates)
		},
	}
}

func newTemplateShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <template-id>",
		Short: "Show a checklist template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			tpl, err := store.GetTemplate(ctx, args[0])
			if err != nil {
				return err
			}

			return printJSON(tpl)
		},
	}
}

func newTemplateImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import checklist templates from a YAML document",
		Long: `Import checklist templates from a YAML template document. Existing
templates with the same ID are replaced; importing a default template
demotes the previous default.`,
		Example: `  omaint template import templates.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			templates, err := config.LoadTemplates(args[0])
			if err != nil {
				return err
			}

			for i := range templates {
				if err := store.SaveTemplate(ctx, &templates[i]); err != nil {
					return fmt.Errorf("failed to save template %s: %w", templates[i].ID, err)
				}
			}

			log.Info().Int("count", len(templates)).Msg("Templates imported")
			fmt.Printf("✓ Imported %d templates\n", len(templates))
			return nil
		},
	}
}

func newTemplateDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <template-id>",
		Short: "Delete a checklist template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteTemplate(ctx, args[0]); err != nil {
				return err
			}

			fmt.Printf("✓ Deleted template %s\n", args[0])
			return nil
		},
	}
}
