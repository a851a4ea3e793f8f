package docfold

import (
	"log/slog"
	"time"

	"github.com/docfold/docfold/internal/styles"
)

// Option configures an Exporter.
type Option func(*Exporter)

// WithTimeout sets the per-operation browser timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Exporter) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// WithLogger sets the structured logger used by all pipeline stages.
func WithLogger(log *slog.Logger) Option {
	return func(e *Exporter) {
		if log != nil {
			e.log = log
		}
	}
}

// WithSnippetDir sets the directory holding named user CSS snippets.
func WithSnippetDir(dir string) Option {
	return func(e *Exporter) {
		e.snippetDir = dir
	}
}

// WithConfigPath sets the file where the last-used export configuration is
// persisted between sessions.
func WithConfigPath(path string) Option {
	return func(e *Exporter) {
		e.configPath = path
	}
}

// WithStyleSource replaces the default style source (the bundled base
// stylesheet) with an explicit one.
func WithStyleSource(source styles.Source) Option {
	return func(e *Exporter) {
		if source != nil {
			e.styleSource = source
		}
	}
}
