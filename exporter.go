package docfold

import (
	"log/slog"
	"time"

	"github.com/docfold/docfold/internal/assets"
	"github.com/docfold/docfold/internal/hostrender"
	"github.com/docfold/docfold/internal/styles"
	"github.com/docfold/docfold/internal/surface"
	"github.com/docfold/docfold/internal/transform"
	"github.com/docfold/docfold/internal/vault"
)

// Exporter owns the long-lived pipeline collaborators: the vault index, the
// markdown renderer, the shared browser and the surface manager. One exporter
// serves many sequential sessions.
type Exporter struct {
	vault       *vault.FSVault
	renderer    *hostrender.GoldmarkRenderer
	browser     *surface.Browser
	transformer *transform.Transformer
	manager     *surface.Manager
	snippets    *assets.SnippetStore

	styleSource styles.Source
	log         *slog.Logger
	timeout     time.Duration
	snippetDir  string
	configPath  string
}

// NewExporter creates an exporter over a vault directory. The browser is not
// launched until the first session needs it.
func NewExporter(vaultRoot string, opts ...Option) (*Exporter, error) {
	e := &Exporter{
		log:     slog.Default(),
		timeout: surface.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}

	v, err := vault.NewFSVault(vaultRoot)
	if err != nil {
		return nil, err
	}
	e.vault = v

	if e.styleSource == nil {
		e.styleSource = styles.SliceSource{
			styles.StaticSheet{SheetID: "docfold-base", SheetRules: []string{assets.BaseCSS()}},
		}
	}

	e.renderer = hostrender.NewGoldmarkRenderer(v, e.log)
	e.browser = surface.NewBrowser(e.timeout)
	settler := surface.NewSettleRunner(e.browser, e.log)
	e.transformer = transform.NewTransformer(e.renderer, v, v, settler, e.log)
	collector := styles.NewCollector(e.styleSource, e.log)
	e.manager = surface.NewManager(e.browser, collector, e.log)
	e.snippets = assets.NewSnippetStore(e.snippetDir)

	return e, nil
}

// Vault exposes the underlying document index, for callers that need to
// resolve or enumerate documents themselves.
func (e *Exporter) Vault() *vault.FSVault { return e.vault }

// SnippetNames lists the available CSS snippet names.
func (e *Exporter) SnippetNames() ([]string, error) {
	return e.snippets.List()
}

// NewSession opens a session with the given configuration; a nil config
// falls back to the persisted defaults. The configuration is validated
// eagerly; an invalid one never produces a session.
func (e *Exporter) NewSession(cfg *ExportConfig) (*Session, error) {
	if cfg == nil {
		cfg = e.LoadLastConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newSession(e, cfg.clone()), nil
}

// Close shuts down the shared browser and every active surface.
func (e *Exporter) Close() error {
	e.manager.Clear()
	return e.browser.Close()
}
