package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/openmaint/openmaint/pkg/workorder"
)

// Default returns the default engine configuration.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "openmaint",
			Version:     "dev",
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:            "openmaint.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled:       true,
			ListenAddress: ":9090",
			Path:          "/metrics",
			Namespace:     "openmaint",
		},
	}
}

// Load reads a YAML configuration file, applies defaults, and validates
// the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks a configuration against its struct tags.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// LoadTemplates reads a YAML template document and converts it into
// checklist templates. Item ordinals are assigned from document order.
func LoadTemplates(path string) ([]workorder.ChecklistTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	var doc TemplateDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse template file %s: %w", path, err)
	}

	if err := validator.New().Struct(&doc); err != nil {
		return nil, fmt.Errorf("invalid template document %s: %w", path, err)
	}

	defaults := 0
	for _, spec := range doc.Templates {
		if spec.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return nil, fmt.Errorf("template document %s declares %d default templates, at most one allowed", path, defaults)
	}

	now := time.Now()
	templates := make([]workorder.ChecklistTemplate, 0, len(doc.Templates))
	seen := make(map[string]bool, len(doc.Templates))
	for _, spec := range doc.Templates {
		if seen[spec.ID] {
			return nil, fmt.Errorf("duplicate template id %q in %s", spec.ID, path)
		}
		seen[spec.ID] = true

		items := make([]workorder.TemplateItem, len(spec.Items))
		for i, item := range spec.Items {
			items[i] = workorder.TemplateItem{
				Name:       item.Name,
				IsRequired: item.Required,
				Ordinal:    i + 1,
			}
		}

		templates = append(templates, workorder.ChecklistTemplate{
			ID:        spec.ID,
			Name:      spec.Name,
			IsDefault: spec.Default,
			Items:     items,
			CreatedAt: now,
		})
	}

	return templates, nil
}
