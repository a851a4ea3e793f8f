// Package transform turns source documents into isolated, self-contained
// HTML documents ready for pagination preview and PDF generation: block
// anchors placed, internal links repaired, transclusions resolved and
// encoded, canvases rasterized, asynchronous embeds settled.
package transform

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"github.com/docfold/docfold/internal/domutil"
	"github.com/docfold/docfold/internal/hostrender"
	"github.com/docfold/docfold/internal/vault"
)

// Class markers on the transformed tree. The print container class enables
// pagination-aware styling in the patch stylesheet.
const (
	printContainerClass = "docfold-print"
	titleClass          = "docfold-title"
	hiddenClass         = "docfold-hidden"
	elementWrapperClass = "el"
)

// RenderedDocument is the transformed output for one source document.
type RenderedDocument struct {
	Doc         *html.Node     // standalone HTML document
	FrontMatter map[string]any // parsed front matter, never nil
	Source      *vault.Document
	AnchorID    string // injected title anchor when rendered as a link target
	Empty       bool   // true when the source text could not be read
	Notice      string // user-visible notice accompanying an empty document
}

// Extra carries per-invocation overrides used when a document is transformed
// as a transclusion or table-of-contents target.
type Extra struct {
	TitleOverride string
	AnchorID      string
}

// Options are the transformer-relevant parts of the export configuration.
type Options struct {
	ShowTitle bool
}

// Settler runs a serialized document through a live rendering surface until
// DOM mutation activity quiesces, snapshotting canvases along the way, and
// returns the settled markup. Implementations must degrade on timeout, not
// fail.
type Settler interface {
	Settle(ctx context.Context, htmlDoc string, waitForEmbeds bool) (string, error)
}

// Transformer drives the per-document transformation pipeline.
type Transformer struct {
	renderer hostrender.Renderer
	vault    vault.Vault
	meta     vault.MetadataIndex
	settler  Settler // optional; nil skips the live settle pass
	log      *slog.Logger
}

// NewTransformer wires the transformer's collaborators. settler may be nil.
func NewTransformer(renderer hostrender.Renderer, v vault.Vault, meta vault.MetadataIndex, settler Settler, log *slog.Logger) *Transformer {
	if log == nil {
		log = slog.Default()
	}
	return &Transformer{renderer: renderer, vault: v, meta: meta, settler: settler, log: log}
}

// Transform produces the isolated HTML document for one source document.
// A source whose text cannot be read yields an empty document with a notice
// rather than an error; only context cancellation and renderer failures are
// fatal.
func (t *Transformer) Transform(ctx context.Context, src *vault.Document, opts Options, extra *Extra) (*RenderedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if extra == nil {
		extra = &Extra{}
	}

	title := src.Title
	if extra.TitleOverride != "" {
		title = extra.TitleOverride
	}

	raw, err := t.vault.ReadText(src)
	if err != nil {
		t.log.Warn("source text unavailable, exporting empty document", "doc", src.Path, "error", err)
		return &RenderedDocument{
			Doc:         domutil.NewDocument(title),
			FrontMatter: map[string]any{},
			Source:      src,
			AnchorID:    extra.AnchorID,
			Empty:       true,
			Notice:      fmt.Sprintf("No content available for %s", src.Path),
		}, nil
	}

	fm, body := vault.SplitFrontMatter(raw)
	lineOffset := strings.Count(raw, "\n") - strings.Count(body, "\n")

	// Anchor placement happens on source text, before rendering, via
	// placeholder markers that survive the markdown engine.
	augmented := body
	if t.meta != nil {
		anchors, anchorErr := t.meta.BlockAnchors(src)
		if anchorErr != nil {
			t.log.Warn("block anchor index unavailable", "doc", src.Path, "error", anchorErr)
		} else {
			augmented = PlaceAnchors(body, anchors, lineOffset)
		}
	}

	// Working document: the container must be attached for post-processing.
	working := domutil.NewDocument(title)
	container := domutil.Element("div", printContainerClass)
	domutil.Body(working).AppendChild(container)
	container.AppendChild(t.titleHeading(title, opts, extra))

	// Synchronous render phase, captured at the append boundary. The
	// capture sentinel is control flow, not an error.
	capture := &hostrender.CaptureTarget{}
	rc := hostrender.RenderContext{Doc: src, SourcePath: src.Path}
	if renderErr := t.renderer.RenderFragment(ctx, rc, augmented, capture); renderErr != nil {
		if !errors.Is(renderErr, hostrender.ErrCaptureComplete) {
			return nil, fmt.Errorf("rendering %s: %w", src.Path, renderErr)
		}
	}

	// Re-wrap captured nodes into individually-owned containers. An empty
	// capture is legitimate: the document may render to nothing.
	for _, node := range capture.Nodes() {
		wrapper := domutil.Element("div", elementWrapperClass)
		wrapper.AppendChild(node)
		container.AppendChild(wrapper)
	}

	ConvertAnchorPlaceholders(container)

	// Explicit post-process phase with a minimal synthetic context, then
	// await the deferred work it scheduled (transclusion resolution).
	pc := &hostrender.ProcessContext{
		DocID:       docID(src.Path),
		SourcePath:  src.Path,
		Frontmatter: map[string]any{},
	}
	if ppErr := t.renderer.PostProcess(ctx, pc, container); ppErr != nil {
		return nil, fmt.Errorf("post-processing %s: %w", src.Path, ppErr)
	}
	if waitErr := pc.Wait(ctx); waitErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		t.log.Warn("deferred render work failed", "doc", src.Path, "error", waitErr)
	}

	RepairLinks(container, t.resolver(src))

	// Live settle pass for asynchronous embeds, then canvas replacement.
	// Settle failures degrade to the unsettled tree.
	container = t.settle(ctx, working, container, raw, src.Path)
	ReplaceCanvases(container)

	// Clone into a fresh, isolated document and discard the working tree.
	final := domutil.NewDocument(title)
	domutil.Body(final).AppendChild(domutil.Clone(container))
	domutil.Detach(container)
	domutil.SetTitle(final, title)

	if encErr := EncodeEmbedded(final); encErr != nil {
		return nil, fmt.Errorf("encoding transclusions in %s: %w", src.Path, encErr)
	}

	return &RenderedDocument{
		Doc:         final,
		FrontMatter: fm,
		Source:      src,
		AnchorID:    extra.AnchorID,
	}, nil
}

// titleHeading composes the document heading, hidden when the configuration
// disables titles, and carrying the injected anchor id when present.
func (t *Transformer) titleHeading(title string, opts Options, extra *Extra) *html.Node {
	h1 := domutil.Element("h1", titleClass)
	if !opts.ShowTitle {
		domutil.AddClass(h1, hiddenClass)
	}
	if extra.AnchorID != "" {
		domutil.SetAttr(h1, "id", extra.AnchorID)
	}
	h1.AppendChild(domutil.Text(title))
	return h1
}

// resolver builds the link resolver for repair: a target survives when it
// resolves in the vault to a document with a non-empty title.
func (t *Transformer) resolver(current *vault.Document) LinkResolver {
	return func(target string) bool {
		if t.vault == nil {
			return false
		}
		doc, err := t.vault.Resolve(target)
		return err == nil && doc.Title != ""
	}
}

// settle runs the live settle pass when the source contains asynchronous
// content markers and a settler is available. It returns the container to
// continue with: the settled one, or the original on any failure.
func (t *Transformer) settle(ctx context.Context, working, container *html.Node, raw, path string) *html.Node {
	if t.settler == nil || !NeedsSettle(raw) {
		return container
	}

	serialized, err := domutil.Render(working)
	if err != nil {
		t.log.Warn("serializing for settle pass failed", "doc", path, "error", err)
		return container
	}
	settled, err := t.settler.Settle(ctx, serialized, true)
	if err != nil {
		t.log.Warn("settle pass failed, continuing with unsettled content", "doc", path, "error", err)
		return container
	}
	doc, err := domutil.ParseDocument(settled)
	if err != nil {
		t.log.Warn("parsing settled document failed", "doc", path, "error", err)
		return container
	}
	if settledContainer := ContentContainer(doc); settledContainer != nil {
		return settledContainer
	}
	return container
}

// NeedsSettle reports whether raw source text contains content that renders
// asynchronously: a query code fence or a transclusion marker.
func NeedsSettle(raw string) bool {
	return strings.Contains(raw, "```query") || strings.Contains(raw, "![[")
}

// docID derives a stable synthetic document id from the source path.
func docID(path string) string {
	return fmt.Sprintf("docfold-%08x", crc32.ChecksumIEEE([]byte(path)))
}
