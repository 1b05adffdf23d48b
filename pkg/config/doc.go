// Package config provides YAML configuration loading and checklist
// template documents for the maintenance engine.
//
// # Overview
//
// The config package loads the engine configuration file, applies
// defaults, and validates the result with struct tags. It also loads
// checklist template documents authored in YAML and can watch the
// template file for changes so templates are hot reloaded without a
// restart.
//
// # Usage Example
//
//	cfg, err := config.Load("openmaint.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	templates, err := config.LoadTemplates(cfg.Templates.Path)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	watcher := config.NewTemplateWatcher(logger)
//	err = watcher.Watch(ctx, cfg.Templates.Path, func(tpls []workorder.ChecklistTemplate) error {
//	    return applyTemplates(tpls)
//	})
//
// # Configuration Structure
//
// A typical configuration file:
//
//	service:
//	  name: openmaint
//	  environment: production
//	database:
//	  path: /var/lib/openmaint/openmaint.db
//	logging:
//	  level: info
//	  format: json
//	metrics:
//	  enabled: true
//	  listen_address: ":9090"
//	policy:
//	  enabled: true
//	  paths:
//	    - /etc/openmaint/policies
//	templates:
//	  path: /etc/openmaint/templates.yaml
//	  watch: true
package config
