package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/openmaint/openmaint/pkg/workorder"
)

const testConfig = `
service:
  name: openmaint
  version: "1.2.0"
  environment: production
database:
  path: /var/lib/openmaint/openmaint.db
  max_open_conns: 10
logging:
  level: debug
  format: json
metrics:
  enabled: true
  listen_address: ":9191"
policy:
  enabled: true
  paths:
    - /etc/openmaint/policies
  watch: true
templates:
  path: /etc/openmaint/templates.yaml
  watch: true
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeFile(t, "openmaint.yaml", testConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.Name != "openmaint" || cfg.Service.Environment != "production" {
		t.Errorf("service = %+v", cfg.Service)
	}
	if cfg.Database.Path != "/var/lib/openmaint/openmaint.db" {
		t.Errorf("database path = %s", cfg.Database.Path)
	}
	if cfg.Database.MaxOpenConns != 10 {
		t.Errorf("max open conns = %d, want file value 10", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns != 5 {
		t.Errorf("max idle conns = %d, want default 5", cfg.Database.MaxIdleConns)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("output = %s, want default stdout", cfg.Logging.Output)
	}
	if cfg.Metrics.ListenAddress != ":9191" {
		t.Errorf("metrics address = %s", cfg.Metrics.ListenAddress)
	}
	if !cfg.Policy.Enabled || len(cfg.Policy.Paths) != 1 {
		t.Errorf("policy = %+v", cfg.Policy)
	}
	if cfg.Templates.Path == "" || !cfg.Templates.Watch {
		t.Errorf("templates = %+v", cfg.Templates)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing service name", "service:\n  name: \"\"\ndatabase:\n  path: db.sqlite\n"},
		{"bad environment", "service:\n  name: x\n  environment: testing\ndatabase:\n  path: db.sqlite\n"},
		{"bad log level", "service:\n  name: x\ndatabase:\n  path: db.sqlite\nlogging:\n  level: loud\n"},
		{"bad log format", "service:\n  name: x\ndatabase:\n  path: db.sqlite\nlogging:\n  format: xml\n"},
		{"not yaml", "{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeFile(t, "bad.yaml", tt.content)); err == nil {
				t.Error("Load() must fail")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/no/such/openmaint.yaml"); err == nil {
		t.Error("Load() of missing file must fail")
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Errorf("Default() must validate: %v", err)
	}
}

const testTemplates = `
templates:
  - id: t-general
    name: Mantenimiento general
    default: true
    items:
      - name: Área o máquina recogida
        required: true
      - name: Orden y limpieza
        required: true
      - name: Anotar observaciones
  - id: t-electrico
    name: Inspección eléctrica
    items:
      - name: Revisar cuadros
        required: true
`

func TestLoadTemplates(t *testing.T) {
	templates, err := LoadTemplates(writeFile(t, "templates.yaml", testTemplates))
	if err != nil {
		t.Fatalf("LoadTemplates() error = %v", err)
	}
	if len(templates) != 2 {
		t.Fatalf("loaded %d templates, want 2", len(templates))
	}

	general := templates[0]
	if general.ID != "t-general" || !general.IsDefault {
		t.Errorf("first template = %+v", general)
	}
	if len(general.Items) != 3 {
		t.Fatalf("general items = %d, want 3", len(general.Items))
	}
	if general.Items[0].Ordinal != 1 || general.Items[2].Ordinal != 3 {
		t.Errorf("ordinals must follow document order: %+v", general.Items)
	}
	if !general.Items[0].IsRequired || general.Items[2].IsRequired {
		t.Errorf("required flags wrong: %+v", general.Items)
	}
	if templates[1].IsDefault {
		t.Error("second template must not be default")
	}
}

func TestLoadTemplatesRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"two defaults", `
templates:
  - id: a
    name: A
    default: true
    items: [{name: x}]
  - id: b
    name: B
    default: true
    items: [{name: y}]
`},
		{"duplicate ids", `
templates:
  - id: a
    name: A
    items: [{name: x}]
  - id: a
    name: B
    items: [{name: y}]
`},
		{"empty items", `
templates:
  - id: a
    name: A
    items: []
`},
		{"missing name", `
templates:
  - id: a
    items: [{name: x}]
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadTemplates(writeFile(t, "templates.yaml", tt.content)); err == nil {
				t.Error("LoadTemplates() must fail")
			}
		})
	}
}

func TestTemplateWatcherStop(t *testing.T) {
	w := NewTemplateWatcher(zerolog.Nop())
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() without Watch() error = %v", err)
	}
}

func TestTemplateWatcherReload(t *testing.T) {
	path := writeFile(t, "templates.yaml", testTemplates)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewTemplateWatcher(zerolog.Nop())
	reloaded := make(chan []workorder.ChecklistTemplate, 1)
	err := w.Watch(ctx, path, func(tpls []workorder.ChecklistTemplate) error {
		select {
		case reloaded <- tpls:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Stop()

	// Rewrite the file with a single template and wait for the debounced
	// reload.
	single := `
templates:
  - id: t-solo
    name: Única
    items: [{name: x, required: true}]
`
	if err := os.WriteFile(path, []byte(single), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case tpls := <-reloaded:
		if len(tpls) != 1 || tpls[0].ID != "t-solo" {
			t.Errorf("reloaded templates = %+v", tpls)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for template reload")
	}
}
