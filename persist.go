package docfold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/docfold/docfold/internal/yamlutil"
)

// LoadLastConfig returns the last persisted export configuration, or the
// defaults when none was persisted yet or the file is unreadable. A corrupt
// configuration file never blocks an export.
func (e *Exporter) LoadLastConfig() *ExportConfig {
	cfg := DefaultExportConfig()
	if e.configPath == "" {
		return cfg
	}

	data, err := os.ReadFile(e.configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			e.log.Warn("reading persisted configuration failed, using defaults",
				"path", e.configPath, "error", err)
		}
		return cfg
	}
	if err := yamlutil.Unmarshal(data, cfg); err != nil {
		e.log.Warn("parsing persisted configuration failed, using defaults",
			"path", e.configPath, "error", err)
		return DefaultExportConfig()
	}
	if err := cfg.Validate(); err != nil {
		e.log.Warn("persisted configuration invalid, using defaults",
			"path", e.configPath, "error", err)
		return DefaultExportConfig()
	}
	return cfg
}

// SaveLastConfig persists cfg as the default for future sessions. A no-op
// when no configuration path is set.
func (e *Exporter) SaveLastConfig(cfg *ExportConfig) error {
	if e.configPath == "" {
		return nil
	}
	data, err := yamlutil.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(e.configPath), 0o755); err != nil {
		return fmt.Errorf("creating configuration directory: %w", err)
	}
	if err := os.WriteFile(e.configPath, data, 0o644); err != nil { // #nosec G306 -- preferences, not a secret
		return fmt.Errorf("writing configuration: %w", err)
	}
	return nil
}
