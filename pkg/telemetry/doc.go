// Package telemetry provides structured logging and Prometheus metrics
// for the maintenance engine.
//
// The package bundles two components behind a single Telemetry value:
//
//   - Logger: a zerolog wrapper with helpers for the fields the engine
//     logs most (order IDs, machine IDs, actors, actions)
//   - Metrics: a Prometheus collector for lifecycle counters, validation
//     failures, report latencies, and policy denials
//
// # Usage
//
// Create a telemetry instance from configuration and attach it to a
// context. Components downstream retrieve it with FromTelemetryContext
// or pull just the logger with FromContext:
//
//	cfg := telemetry.DefaultConfig()
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//		return err
//	}
//	ctx = tel.WithContext(ctx)
//
//	log := telemetry.FromContext(ctx).WithOrderID(order.ID)
//	log.Info("Transition applied")
//
// # Metrics endpoint
//
// When metrics are enabled, StartMetricsServer exposes the registry on
// the configured listen address (default :9090) at /metrics:
//
//	if err := tel.StartMetricsServer(); err != nil {
//		return err
//	}
//
// # Configuration
//
// DefaultConfig returns sensible development defaults. ProductionConfig
// switches logging to sampled JSON output with Unix timestamps, and
// DevelopmentConfig enables debug-level console output. All
// configurations are validated by NewTelemetry before use.
package telemetry
