package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/openmaint/openmaint/pkg/workorder"
)

// TemplateWatcher watches a checklist template file and reloads it on
// change.
type TemplateWatcher struct {
	logger  zerolog.Logger
	watcher *fsnotify.Watcher
}

// NewTemplateWatcher creates a new template watcher.
func NewTemplateWatcher(logger zerolog.Logger) *TemplateWatcher {
	return &TemplateWatcher{
		logger: logger.With().Str("component", "template-watcher").Logger(),
	}
}

// Watch starts watching the template file and calls reloadFn with the
// freshly loaded templates on every change. Watch returns after the
// watcher is installed; events are processed in the background until the
// context is cancelled.
func (w *TemplateWatcher) Watch(ctx context.Context, path string, reloadFn func([]workorder.ChecklistTemplate) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	w.watcher = watcher

	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch template file: %w", err)
	}

	go w.processEvents(ctx, path, reloadFn)

	w.logger.Info().Str("path", path).Msg("Started watching template file")
	return nil
}

// processEvents processes file system events and triggers reloads.
func (w *TemplateWatcher) processEvents(ctx context.Context, path string, reloadFn func([]workorder.ChecklistTemplate) error) {
	// Debounce reload events
	var reloadTimer *time.Timer
	reloadDelay := 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			if w.watcher != nil {
				_ = w.watcher.Close()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 && strings.HasSuffix(event.Name, ".yaml") {
				w.logger.Debug().
					Str("file", event.Name).
					Str("op", event.Op.String()).
					Msg("Template file changed")

				if reloadTimer != nil {
					reloadTimer.Stop()
				}
				reloadTimer = time.AfterFunc(reloadDelay, func() {
					if err := w.triggerReload(path, reloadFn); err != nil {
						w.logger.Error().Err(err).Msg("Failed to reload templates")
					}
				})
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

// triggerReload reloads the template file and applies the result.
func (w *TemplateWatcher) triggerReload(path string, reloadFn func([]workorder.ChecklistTemplate) error) error {
	templates, err := LoadTemplates(path)
	if err != nil {
		return fmt.Errorf("failed to reload templates: %w", err)
	}

	if err := reloadFn(templates); err != nil {
		return fmt.Errorf("failed to apply reloaded templates: %w", err)
	}

	w.logger.Info().
		Int("count", len(templates)).
		Msg("Templates reloaded successfully")

	return nil
}

// Stop stops watching for file changes.
func (w *TemplateWatcher) Stop() error {
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}
