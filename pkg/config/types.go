package config

import (
	"time"
)

// Config is the engine configuration loaded from YAML.
type Config struct {
	// Service identifies the running service.
	Service ServiceConfig `yaml:"service" validate:"required"`

	// Database configures the SQLite store.
	Database DatabaseConfig `yaml:"database" validate:"required"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Policy configures authorization policy loading.
	Policy PolicyConfig `yaml:"policy"`

	// Templates configures checklist template documents.
	Templates TemplatesConfig `yaml:"templates"`
}

// ServiceConfig identifies the service.
type ServiceConfig struct {
	// Name is the service name used in telemetry.
	Name string `yaml:"name" validate:"required"`

	// Version is the service version.
	Version string `yaml:"version"`

	// Environment is the deployment environment.
	Environment string `yaml:"environment" validate:"omitempty,oneof=development staging production"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path" validate:"required"`

	// MaxOpenConns caps the connection pool.
	MaxOpenConns int `yaml:"max_open_conns" validate:"gte=0"`

	// MaxIdleConns caps idle connections.
	MaxIdleConns int `yaml:"max_idle_conns" validate:"gte=0"`

	// ConnMaxLifetime bounds connection reuse.
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level sets the minimum log level.
	Level string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal"`

	// Format specifies the log format.
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`

	// Output specifies where logs are written (stdout, stderr, file path).
	Output string `yaml:"output"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled controls whether metrics are exposed.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the metrics HTTP listen address.
	ListenAddress string `yaml:"listen_address" validate:"required_if=Enabled true"`

	// Path is the HTTP path for metrics.
	Path string `yaml:"path"`

	// Namespace is the metrics namespace prefix.
	Namespace string `yaml:"namespace"`
}

// PolicyConfig configures authorization policy loading.
type PolicyConfig struct {
	// Enabled controls whether policies are enforced.
	Enabled bool `yaml:"enabled"`

	// Paths lists .rego files or directories to load.
	Paths []string `yaml:"paths"`

	// Watch reloads policies when the files change.
	Watch bool `yaml:"watch"`
}

// TemplatesConfig configures checklist template documents.
type TemplatesConfig struct {
	// Path is the YAML template document path. Empty disables file
	// templates; new preventive orders fall back to the built-in
	// checklist.
	Path string `yaml:"path"`

	// Watch reloads templates when the file changes.
	Watch bool `yaml:"watch"`
}

// TemplateDocument is the YAML shape of a checklist template file.
type TemplateDocument struct {
	// Templates lists the authored templates.
	Templates []TemplateSpec `yaml:"templates" validate:"dive"`
}

// TemplateSpec is one authored checklist template.
type TemplateSpec struct {
	// ID is the template identifier.
	ID string `yaml:"id" validate:"required"`

	// Name is the template name.
	Name string `yaml:"name" validate:"required"`

	// Default marks the template used for new preventive orders. At
	// most one template may be the default.
	Default bool `yaml:"default"`

	// Items are the ordered template items.
	Items []TemplateItemSpec `yaml:"items" validate:"required,min=1,dive"`
}

// TemplateItemSpec is one authored checklist item.
type TemplateItemSpec struct {
	// Name is the verification text.
	Name string `yaml:"name" validate:"required"`

	// Required marks the item as completion-gating.
	Required bool `yaml:"required"`
}
