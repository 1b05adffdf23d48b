package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/openmaint/openmaint/pkg/config"
	"github.com/openmaint/openmaint/pkg/policy"
	"github.com/openmaint/openmaint/pkg/stores"
	"github.com/openmaint/openmaint/pkg/telemetry"
	"github.com/openmaint/openmaint/pkg/workorder"
)

func newServeCommand() *cobra.Command {
	var gaugeInterval time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the telemetry and watcher daemon",
		Long: `Run the long-lived daemon: expose Prometheus metrics, keep the
open-order gauges current, and reload checklist templates and
authorization policies when their files change. Runs until
interrupted.`,
		Example: `  # Run with the default config
  omaint serve

  # Run against a specific config file
  omaint serve --config /etc/openmaint/openmaint.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			tel, err := telemetry.NewTelemetry(&telemetry.Config{
				ServiceName:    cfg.Service.Name,
				ServiceVersion: cfg.Service.Version,
				Environment:    cfg.Service.Environment,
				Logging: telemetry.LoggingConfig{
					Level:  cfg.Logging.Level,
					Format: cfg.Logging.Format,
					Output: cfg.Logging.Output,
				},
				Metrics: telemetry.MetricsConfig{
					Enabled:       cfg.Metrics.Enabled,
					ListenAddress: cfg.Metrics.ListenAddress,
					Path:          cfg.Metrics.Path,
					Namespace:     cfg.Metrics.Namespace,
				},
			})
			if err != nil {
				return fmt.Errorf("failed to initialize telemetry: %w", err)
			}
			logger := tel.Logger

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := tel.StartMetricsServer(); err != nil {
				return fmt.Errorf("failed to start metrics server: %w", err)
			}
			if cfg.Metrics.Enabled {
				logger.Infof("Metrics server listening on %s", cfg.Metrics.ListenAddress)
			}

			if cfg.Templates.Path != "" && cfg.Templates.Watch {
				watcher := config.NewTemplateWatcher(logger.Zerolog())
				defer watcher.Stop()

				err := watcher.Watch(ctx, cfg.Templates.Path, func(templates []workorder.ChecklistTemplate) error {
					for i := range templates {
						if err := store.SaveTemplate(ctx, &templates[i]); err != nil {
							return err
						}
					}
					logger.Infof("Reloaded %d checklist templates", len(templates))
					return nil
				})
				if err != nil {
					return fmt.Errorf("failed to watch templates: %w", err)
				}
				logger.Infof("Watching templates: %s", cfg.Templates.Path)
			}

			if cfg.Policy.Enabled && cfg.Policy.Watch && len(cfg.Policy.Paths) > 0 {
				engine, err := policy.NewEngine(logger.Zerolog())
				if err != nil {
					return fmt.Errorf("failed to create policy engine: %w", err)
				}
				if err := engine.LoadPolicies(ctx, cfg.Policy.Paths); err != nil {
					return fmt.Errorf("failed to load policies: %w", err)
				}

				loader := policy.NewLoader(logger.Zerolog())
				defer loader.StopWatching()

				err = loader.Watch(ctx, cfg.Policy.Paths, func(policies []policy.Policy) error {
					if err := engine.LoadPolicies(ctx, cfg.Policy.Paths); err != nil {
						return err
					}
					logger.Infof("Reloaded %d authorization policies", len(policies))
					return nil
				})
				if err != nil {
					return fmt.Errorf("failed to watch policies: %w", err)
				}
				logger.Infof("Watching policies: %v", cfg.Policy.Paths)
			}

			refreshGauges := func() {
				counts := map[workorder.Status]float64{}
				orders, err := store.ListOrders(ctx, stores.OrderFilter{})
				if err != nil {
					logger.WithError(err).Error("Failed to refresh open-order gauges")
					return
				}
				for _, o := range orders {
					if !o.Status.IsTerminal() {
						counts[o.Status]++
					}
				}
				for _, status := range []workorder.Status{
					workorder.StatusPending,
					workorder.StatusInProgress,
					workorder.StatusPostponed,
				} {
					tel.Metrics.SetOpenOrders(string(status), counts[status])
				}
			}

			refreshGauges()
			ticker := time.NewTicker(gaugeInterval)
			defer ticker.Stop()

			logger.Info("OpenMaint daemon started")

			for {
				select {
				case <-ctx.Done():
					logger.Info("OpenMaint daemon shutting down")
					return nil
				case <-ticker.C:
					if err := store.HealthCheck(ctx); err != nil {
						logger.WithError(err).Error("Database health check failed")
						continue
					}
					refreshGauges()
				}
			}
		},
	}

	cmd.Flags().DurationVar(&gaugeInterval, "gauge-interval", 30*time.Second, "how often to refresh open-order gauges")

	return cmd
}
