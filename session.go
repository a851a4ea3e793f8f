package docfold

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/docfold/docfold/internal/fileutil"
	"github.com/docfold/docfold/internal/styles"
	"github.com/docfold/docfold/internal/surface"
	"github.com/docfold/docfold/internal/transform"
	"github.com/docfold/docfold/internal/vault"
)

// State is the session lifecycle phase.
type State int

// Session states. A session moves strictly forward except for the
// PreviewReady loop: re-rendering and abandoned exports both return there.
const (
	StateIdle State = iota
	StateRendering
	StatePreviewReady
	StateExporting
	StateDone
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRendering:
		return "rendering"
	case StatePreviewReady:
		return "preview-ready"
	case StateExporting:
		return "exporting"
	case StateDone:
		return "done"
	case StateCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// OutputResolver supplies export destinations, typically by prompting the
// user. Returning ok=false declines the export; the session silently returns
// to the preview state.
type OutputResolver interface {
	// SingleFile resolves the destination for a single-file export, given a
	// suggested filename.
	SingleFile(suggested string) (path string, ok bool)
	// Directory resolves the destination directory for a multi-output export.
	Directory() (dir string, ok bool)
}

// fixedOutput is an OutputResolver that always accepts a fixed destination.
type fixedOutput string

func (f fixedOutput) SingleFile(string) (string, bool) { return string(f), true }
func (f fixedOutput) Directory() (string, bool)        { return string(f), true }

// FixedOutput returns an OutputResolver that writes to the given path without
// prompting: a file path for single output, a directory for multi output.
func FixedOutput(path string) OutputResolver { return fixedOutput(path) }

// Artifact describes one written PDF file.
type Artifact struct {
	Path  string
	Pages int
}

// Session is one render-preview-export cycle over a fixed configuration.
type Session struct {
	exp *Exporter
	cfg *ExportConfig

	mu         sync.Mutex
	state      State
	attachWG   sync.WaitGroup
	attachErrs []error
}

func newSession(exp *Exporter, cfg *ExportConfig) *Session {
	return &Session{exp: exp, cfg: cfg, state: StateIdle}
}

// Config returns the session's configuration.
func (s *Session) Config() *ExportConfig { return s.cfg }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Render expands ref into source documents, transforms each into an isolated
// HTML document, merges them unless multi-output mode is on, and attaches a
// preview surface per resulting document. Surfaces attach concurrently;
// Export joins them. Re-rendering tears down all existing surfaces first.
func (s *Session) Render(ctx context.Context, ref string) error {
	s.mu.Lock()
	if s.state != StateIdle && s.state != StatePreviewReady {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: render in %s", ErrSessionState, state)
	}
	s.state = StateRendering
	s.mu.Unlock()

	docs, err := s.renderDocuments(ctx, ref)
	if err != nil {
		s.setState(StateIdle)
		return err
	}
	if len(docs) == 0 {
		s.setState(StateIdle)
		return fmt.Errorf("%w: %q", ErrNoDocuments, ref)
	}

	if !s.cfg.MultiOutput && len(docs) > 1 {
		docs = []*transform.RenderedDocument{transform.Merge(docs)}
	}

	snippet := s.snippetEntries()

	// Wholesale rebuild: every refresh recreates all surfaces.
	s.attachWG.Wait()
	s.exp.manager.Clear()

	s.mu.Lock()
	s.attachErrs = nil
	s.mu.Unlock()

	for _, doc := range docs {
		s.attachWG.Add(1)
		go func(doc *transform.RenderedDocument) {
			defer s.attachWG.Done()
			if _, attachErr := s.exp.manager.Attach(ctx, doc, snippet); attachErr != nil {
				s.mu.Lock()
				s.attachErrs = append(s.attachErrs, attachErr)
				s.mu.Unlock()
			}
		}(doc)
	}

	s.setState(StatePreviewReady)
	return nil
}

// renderDocuments expands ref and transforms each resulting source. A folder
// expands to its direct children; a document with toc front matter expands to
// its outbound links, rendered as a merged collection with rewritten anchors.
func (s *Session) renderDocuments(ctx context.Context, ref string) ([]*transform.RenderedDocument, error) {
	opts := transform.Options{ShowTitle: s.cfg.ShowTitle}

	if s.exp.vault.IsFolder(ref) {
		sources, err := s.exp.vault.ListFolder(ref)
		if err != nil {
			return nil, err
		}
		var docs []*transform.RenderedDocument
		for _, src := range sources {
			doc, err := s.exp.transformer.Transform(ctx, src, opts, nil)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
		return docs, nil
	}

	src, err := s.exp.vault.Resolve(ref)
	if err != nil {
		return nil, err
	}

	fm, err := s.exp.vault.FrontMatter(src)
	if err == nil && tocEnabled(fm) {
		return s.renderTOC(ctx, src, opts)
	}

	doc, err := s.exp.transformer.Transform(ctx, src, opts, nil)
	if err != nil {
		return nil, err
	}
	return []*transform.RenderedDocument{doc}, nil
}

// renderTOC renders a table-of-contents document followed by each document it
// links to. Every linked document gets an injected title anchor, and the toc
// document's links are rewritten to point at those anchors, so the merged
// result navigates internally.
func (s *Session) renderTOC(ctx context.Context, toc *vault.Document, opts transform.Options) ([]*transform.RenderedDocument, error) {
	links, err := s.exp.vault.Links(toc)
	if err != nil {
		return nil, err
	}

	tocDoc, err := s.exp.transformer.Transform(ctx, toc, opts, nil)
	if err != nil {
		return nil, err
	}
	docs := []*transform.RenderedDocument{tocDoc}
	mapping := make(map[string]string)

	for i, link := range links {
		target := strings.SplitN(link.Link, "#", 2)[0]
		src, resolveErr := s.exp.vault.Resolve(target)
		if resolveErr != nil {
			s.exp.log.Warn("skipping unresolved toc entry", "target", link.Link)
			continue
		}
		anchorID := fmt.Sprintf("toc-%d-%s", i+1, slugify(link.DisplayText))
		doc, transformErr := s.exp.transformer.Transform(ctx, src, opts, &transform.Extra{
			TitleOverride: link.DisplayText,
			AnchorID:      anchorID,
		})
		if transformErr != nil {
			return nil, transformErr
		}
		docs = append(docs, doc)
		mapping[link.Link] = anchorID
		mapping[target] = anchorID
	}

	if container := transform.ContentContainer(tocDoc.Doc); container != nil {
		transform.RewriteLinks(container, mapping)
	}
	return docs, nil
}

// snippetEntries loads the configured CSS snippet, when any. An unreadable
// snippet is logged and skipped; the render continues without it.
func (s *Session) snippetEntries() []styles.Entry {
	if s.cfg.CSSSnippet == "" {
		return nil
	}
	css, err := s.exp.snippets.Read(s.cfg.CSSSnippet)
	if err != nil {
		s.exp.log.Warn("css snippet unavailable, continuing without it",
			"snippet", s.cfg.CSSSnippet, "error", err)
		return nil
	}
	return styles.SnippetEntries(s.cfg.CSSSnippet, css)
}

// Surfaces returns the attached preview surfaces, joining any in-flight
// attachments first.
func (s *Session) Surfaces() []*surface.Surface {
	s.attachWG.Wait()
	return s.exp.manager.Surfaces()
}

// Resize recomputes the preview scale for the given container width and
// applies it to every surface. Returns the applied scale.
func (s *Session) Resize(ctx context.Context, containerWidthPx float64) (float64, error) {
	width, _, err := s.cfg.pageSizeMM()
	if err != nil {
		return 0, err
	}
	s.attachWG.Wait()
	return s.exp.manager.ResizeAll(ctx, width, containerWidthPx), nil
}

// Export generates one PDF per surface and writes them to the destination the
// resolver supplies. A declined resolution abandons the export silently and
// returns the session to the preview state with no artifacts and no error.
func (s *Session) Export(ctx context.Context, resolver OutputResolver) ([]Artifact, error) {
	s.mu.Lock()
	if s.state != StatePreviewReady {
		state := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: export in %s", ErrSessionState, state)
	}
	s.state = StateExporting
	s.mu.Unlock()

	s.attachWG.Wait()
	s.mu.Lock()
	attachErr := errors.Join(s.attachErrs...)
	s.mu.Unlock()
	if attachErr != nil {
		s.setState(StatePreviewReady)
		return nil, fmt.Errorf("attaching preview surfaces: %w", attachErr)
	}

	surfaces := s.exp.manager.Surfaces()
	if len(surfaces) == 0 {
		s.setState(StatePreviewReady)
		return nil, ErrNoDocuments
	}

	if err := s.exp.SaveLastConfig(s.cfg); err != nil {
		s.exp.log.Warn("persisting export configuration failed", "error", err)
	}

	var artifacts []Artifact
	var err error
	if s.cfg.MultiOutput {
		artifacts, err = s.exportMulti(ctx, resolver, surfaces)
	} else {
		artifacts, err = s.exportSingle(ctx, resolver, surfaces[0])
	}
	if err != nil {
		s.setState(StatePreviewReady)
		return nil, err
	}
	if artifacts == nil {
		// Declined destination: not an error, back to preview.
		s.setState(StatePreviewReady)
		return nil, nil
	}

	if s.cfg.OpenAfterExport {
		for _, a := range artifacts {
			if openErr := openFile(a.Path); openErr != nil {
				s.exp.log.Warn("opening exported file failed", "path", a.Path, "error", openErr)
			}
		}
	}

	s.setState(StateDone)
	return artifacts, nil
}

// exportSingle writes the only surface to a single file.
func (s *Session) exportSingle(ctx context.Context, resolver OutputResolver, surf *surface.Surface) ([]Artifact, error) {
	suggested := s.suggestedName(surf)
	path, ok := resolver.SingleFile(suggested)
	if !ok {
		return nil, nil
	}
	artifact, err := s.writePDF(ctx, surf, path)
	if err != nil {
		return nil, err
	}
	return []Artifact{artifact}, nil
}

// exportMulti writes every surface into the resolved directory, named after
// its source document. Surfaces export concurrently.
func (s *Session) exportMulti(ctx context.Context, resolver OutputResolver, surfaces []*surface.Surface) ([]Artifact, error) {
	dir, ok := resolver.Directory()
	if !ok {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWritePDF, err)
	}

	artifacts := make([]Artifact, len(surfaces))
	errs := make([]error, len(surfaces))
	var wg sync.WaitGroup
	for i, surf := range surfaces {
		wg.Add(1)
		go func(i int, surf *surface.Surface) {
			defer wg.Done()
			name := s.suggestedName(surf)
			artifacts[i], errs[i] = s.writePDF(ctx, surf, filepath.Join(dir, name))
		}(i, surf)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// writePDF prints one surface and writes it to path, then validates the
// written artifact.
func (s *Session) writePDF(ctx context.Context, surf *surface.Surface, path string) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}

	title := ""
	if surf.Doc != nil && surf.Doc.Source != nil {
		title = surf.Doc.Source.Title
	}
	opts, err := s.cfg.pdfOptions(title)
	if err != nil {
		return Artifact{}, err
	}
	pdf, err := surf.ToPDF(opts)
	if err != nil {
		return Artifact{}, err
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil { // #nosec G306 -- exported document, not a secret
		return Artifact{}, fmt.Errorf("%w: %v", ErrWritePDF, err)
	}

	artifact, err := verifyArtifact(path)
	if err != nil {
		return Artifact{}, err
	}
	s.exp.log.Info("exported", "path", path, "pages", artifact.Pages)
	return artifact, nil
}

// suggestedName derives the output filename for a surface from its source
// document, with the optional timestamp suffix.
func (s *Session) suggestedName(surf *surface.Surface) string {
	name := "export"
	if surf.Doc != nil && surf.Doc.Source != nil {
		name = fileutil.BaseName(surf.Doc.Source.Path)
	}
	if s.cfg.TimestampSuffix {
		name += "-" + fileutil.TimestampSuffix(time.Now())
	}
	return name + ".pdf"
}

// Close tears down the session's surfaces. A session closed before a
// completed export is canceled.
func (s *Session) Close() {
	s.attachWG.Wait()
	s.exp.manager.Clear()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDone {
		s.state = StateCanceled
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// tocEnabled reports whether front matter requests table-of-contents
// expansion.
func tocEnabled(fm map[string]any) bool {
	switch v := fm["toc"].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// slugify reduces display text to a lowercase dash-separated identifier.
func slugify(s string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(s), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "entry"
	}
	return slug
}
