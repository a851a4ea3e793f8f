package hostrender

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"

	"github.com/docfold/docfold/internal/domutil"
	"github.com/docfold/docfold/internal/vault"
)

// ErrMarkdownConversion indicates the markdown engine failed.
var ErrMarkdownConversion = errors.New("markdown conversion failed")

// DefaultEmbedDepth bounds transclusion nesting. Beyond this, embeds render
// as unresolved placeholders instead of recursing.
const DefaultEmbedDepth = 4

// Reference pattern: optional embed bang, [[target]] or [[target|display]].
var refPattern = regexp.MustCompile(`(!?)\[\[([^\[\]|]+)(?:\|([^\[\]]*))?\]\]`)

// GoldmarkRenderer implements Renderer with goldmark (pure Go) plus a
// vault-backed post-process phase for links and transclusions.
type GoldmarkRenderer struct {
	md         goldmark.Markdown
	vault      vault.Vault
	log        *slog.Logger
	embedDepth int
}

// Compile-time interface check.
var _ Renderer = (*GoldmarkRenderer)(nil)

// NewGoldmarkRenderer creates a renderer with GFM extensions, footnotes and
// class-based syntax highlighting. The vault resolves transclusion targets;
// it may be nil, in which case every embed renders as unresolved.
func NewGoldmarkRenderer(v vault.Vault, log *slog.Logger) *GoldmarkRenderer {
	if log == nil {
		log = slog.Default()
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true), // external stylesheet control
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			htmlrenderer.WithHardWraps(),
			htmlrenderer.WithXHTML(),
			// WithUnsafe intentionally NOT used: raw HTML in sources stays
			// escaped all the way to the rendering surface.
		),
	)
	return &GoldmarkRenderer{md: md, vault: v, log: log, embedDepth: DefaultEmbedDepth}
}

// RenderFragment converts markdown and hands the parsed nodes to target.
// When target returns ErrCaptureComplete the integrated finalize pass is
// skipped and the sentinel propagates to the caller, which is expected to
// swallow it.
func (r *GoldmarkRenderer) RenderFragment(ctx context.Context, rc RenderContext, markdown string, target FragmentTarget) error {
	fragment, err := r.convert(ctx, markdown)
	if err != nil {
		return err
	}

	nodes, err := domutil.ParseFragment(fragment)
	if err != nil {
		return fmt.Errorf("parsing rendered fragment: %w", err)
	}

	if err := target.Append(nodes); err != nil {
		return err
	}

	// Integrated finalize pass. Runs only when the target accepted the
	// nodes without short-circuiting, and requires them attached.
	return r.finalize(nodes)
}

// finalize is the renderer's default post-append pass. It refuses detached
// nodes: a live target is expected to have adopted them into its document.
func (r *GoldmarkRenderer) finalize(nodes []*html.Node) error {
	for _, n := range nodes {
		if !isAttached(n) {
			return ErrDetachedFragment
		}
	}
	return nil
}

// isAttached reports whether n's ancestry reaches a document node.
func isAttached(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.DocumentNode {
			return true
		}
	}
	return false
}

// convert runs goldmark with context cancellation via goroutine + select,
// since goldmark does not natively support context.
func (r *GoldmarkRenderer) convert(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := r.md.Convert([]byte(content), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrMarkdownConversion, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.html, res.err
	}
}

// PostProcess resolves wiki links and transclusions inside an attached
// container. Links become anchor elements immediately; each transclusion
// schedules a deferred unit of work on the context, so callers must Wait.
func (r *GoldmarkRenderer) PostProcess(ctx context.Context, pc *ProcessContext, container *html.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.processNode(pc, container, r.embedDepth)
	return nil
}

// processNode rewrites reference syntax inside text nodes. Code and pre
// subtrees are left untouched so examples keep their literal form.
func (r *GoldmarkRenderer) processNode(pc *ProcessContext, n *html.Node, depth int) {
	if n.Type == html.ElementNode && (n.Data == "code" || n.Data == "pre" || n.Data == "script" || n.Data == "style") {
		return
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.TextNode && strings.Contains(c.Data, "[[") {
			r.replaceRefs(pc, c, depth)
		} else {
			r.processNode(pc, c, depth)
		}
		c = next
	}
}

// replaceRefs splits a text node around its reference markers, substituting
// anchor elements for links and embed containers for transclusions.
func (r *GoldmarkRenderer) replaceRefs(pc *ProcessContext, textNode *html.Node, depth int) {
	matches := refPattern.FindAllStringSubmatchIndex(textNode.Data, -1)
	if matches == nil {
		return
	}

	parent := textNode.Parent
	data := textNode.Data
	last := 0
	var replacement []*html.Node

	for _, m := range matches {
		if m[0] > last {
			replacement = append(replacement, domutil.Text(data[last:m[0]]))
		}
		bang := data[m[2]:m[3]] == "!"
		target := data[m[4]:m[5]]
		display := target
		if m[6] != -1 {
			display = data[m[6]:m[7]]
		}
		if bang {
			replacement = append(replacement, r.newEmbed(pc, target, depth))
		} else {
			replacement = append(replacement, newInternalLink(target, display))
		}
		last = m[1]
	}
	if last < len(data) {
		replacement = append(replacement, domutil.Text(data[last:]))
	}

	for _, n := range replacement {
		parent.InsertBefore(n, textNode)
	}
	parent.RemoveChild(textNode)
}

// newInternalLink builds the anchor element for a wiki link.
func newInternalLink(target, display string) *html.Node {
	a := domutil.Element("a", "internal-link")
	domutil.SetAttr(a, "href", target)
	domutil.SetAttr(a, "data-href", target)
	a.AppendChild(domutil.Text(display))
	return a
}

// newEmbed builds the transclusion container and defers its resolution.
func (r *GoldmarkRenderer) newEmbed(pc *ProcessContext, target string, depth int) *html.Node {
	el := domutil.Element("span", "internal-embed")
	domutil.SetAttr(el, "data-embed-src", target)
	pc.Defer(func(ctx context.Context) error {
		r.resolveEmbed(ctx, pc, el, target, depth)
		return nil
	})
	return el
}

// resolveEmbed renders the embed target's content into el. Failures mark the
// element unresolved and are logged, never propagated: a broken embed must
// not fail the document.
func (r *GoldmarkRenderer) resolveEmbed(ctx context.Context, pc *ProcessContext, el *html.Node, target string, depth int) {
	markUnresolved := func(reason string) {
		domutil.AddClass(el, "embed-unresolved")
		domutil.RemoveChildren(el)
		el.AppendChild(domutil.Text(target))
		r.log.Warn("embed unresolved", "target", target, "reason", reason, "doc", pc.SourcePath)
	}

	if depth <= 0 {
		markUnresolved("max embed depth reached")
		return
	}
	if r.vault == nil {
		markUnresolved("no vault")
		return
	}

	ref, _, _ := strings.Cut(target, "#")
	doc, err := r.vault.Resolve(ref)
	if err != nil {
		markUnresolved(err.Error())
		return
	}
	text, err := r.vault.ReadText(doc)
	if err != nil {
		markUnresolved(err.Error())
		return
	}
	_, body := vault.SplitFrontMatter(text)

	fragment, err := r.convert(ctx, body)
	if err != nil {
		markUnresolved(err.Error())
		return
	}
	nodes, err := domutil.ParseFragment(fragment)
	if err != nil {
		markUnresolved(err.Error())
		return
	}

	content := domutil.Element("div", "embed-content")
	for _, n := range nodes {
		content.AppendChild(n)
	}
	el.AppendChild(content)

	// Nested transclusions resolve synchronously here; the deferred-work
	// collector has already been drained past this unit.
	nested := &ProcessContext{DocID: pc.DocID, SourcePath: doc.Path, Frontmatter: map[string]any{}}
	r.processNode(nested, content, depth-1)
	if err := nested.Wait(ctx); err != nil {
		r.log.Warn("nested embed work failed", "target", target, "error", err)
	}
}
