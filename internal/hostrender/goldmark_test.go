package hostrender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/docfold/docfold/internal/domutil"
	"github.com/docfold/docfold/internal/vault"
)

// mapVault resolves documents from an in-memory map keyed by title.
type mapVault map[string]string

func (v mapVault) Resolve(ref string) (*vault.Document, error) {
	ref = strings.TrimSuffix(ref, ".md")
	if _, ok := v[ref]; !ok {
		return nil, fmt.Errorf("%w: %q", vault.ErrDocumentNotFound, ref)
	}
	return &vault.Document{Path: ref + ".md", Title: ref}, nil
}

func (v mapVault) ReadText(doc *vault.Document) (string, error) {
	text, ok := v[doc.Title]
	if !ok {
		return "", fmt.Errorf("%w: %q", vault.ErrDocumentNotFound, doc.Title)
	}
	return text, nil
}

func (v mapVault) IsFolder(string) bool { return false }

func (v mapVault) ListFolder(string) ([]*vault.Document, error) {
	return nil, vault.ErrNotAFolder
}

var _ vault.Vault = mapVault(nil)

func testRenderer(v vault.Vault) *GoldmarkRenderer {
	return NewGoldmarkRenderer(v, slog.New(slog.DiscardHandler))
}

// renderAndAttach renders markdown and attaches the captured nodes to a
// container in a fresh document, the way the transformer does.
func renderAndAttach(t *testing.T, r *GoldmarkRenderer, markdown string) (*html.Node, *html.Node) {
	t.Helper()
	capture := &CaptureTarget{}
	rc := RenderContext{SourcePath: "test.md"}
	err := r.RenderFragment(context.Background(), rc, markdown, capture)
	if err != nil && !errors.Is(err, ErrCaptureComplete) {
		t.Fatalf("RenderFragment() error = %v", err)
	}

	doc := domutil.NewDocument("t")
	container := domutil.Element("div", "content")
	domutil.Body(doc).AppendChild(container)
	for _, n := range capture.Nodes() {
		container.AppendChild(n)
	}
	return doc, container
}

func TestRenderFragmentCapture(t *testing.T) {
	t.Parallel()

	r := testRenderer(nil)
	capture := &CaptureTarget{}
	err := r.RenderFragment(context.Background(), RenderContext{}, "# Hello\n\nworld", capture)
	if !errors.Is(err, ErrCaptureComplete) {
		t.Fatalf("RenderFragment() = %v, want ErrCaptureComplete", err)
	}
	if len(capture.Nodes()) == 0 {
		t.Fatal("no nodes captured")
	}
}

func TestRenderFragmentDetachedFinalize(t *testing.T) {
	t.Parallel()

	// A non-capturing target that never attaches the nodes must trip the
	// finalize pass.
	r := testRenderer(nil)
	err := r.RenderFragment(context.Background(), RenderContext{}, "text", acceptAllTarget{})
	if !errors.Is(err, ErrDetachedFragment) {
		t.Fatalf("RenderFragment() = %v, want ErrDetachedFragment", err)
	}
}

type acceptAllTarget struct{}

func (acceptAllTarget) Append([]*html.Node) error { return nil }

func TestRenderFragmentCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := testRenderer(nil)
	err := r.RenderFragment(ctx, RenderContext{}, "text", &CaptureTarget{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RenderFragment() = %v, want context.Canceled", err)
	}
}

func TestPostProcessLinks(t *testing.T) {
	t.Parallel()

	r := testRenderer(mapVault{})
	doc, container := renderAndAttach(t, r, "see [[Target Note|the target]] here")

	pc := &ProcessContext{DocID: "d1", SourcePath: "test.md", Frontmatter: map[string]any{}}
	if err := r.PostProcess(context.Background(), pc, container); err != nil {
		t.Fatalf("PostProcess() error = %v", err)
	}

	links := domutil.FindAll(doc, func(n *html.Node) bool {
		return n.Data == "a" && domutil.HasClass(n, "internal-link")
	})
	if len(links) != 1 {
		t.Fatalf("link count = %d, want 1", len(links))
	}
	a := links[0]
	if got := domutil.Attr(a, "href"); got != "Target Note" {
		t.Errorf("href = %q, want %q", got, "Target Note")
	}
	if got := domutil.Attr(a, "data-href"); got != "Target Note" {
		t.Errorf("data-href = %q, want %q", got, "Target Note")
	}
	if got := domutil.TextContent(a); got != "the target" {
		t.Errorf("display text = %q, want %q", got, "the target")
	}
}

func TestPostProcessSkipsCodeBlocks(t *testing.T) {
	t.Parallel()

	r := testRenderer(mapVault{})
	doc, container := renderAndAttach(t, r, "```\n[[Not A Link]]\n```")

	pc := &ProcessContext{DocID: "d1", Frontmatter: map[string]any{}}
	if err := r.PostProcess(context.Background(), pc, container); err != nil {
		t.Fatalf("PostProcess() error = %v", err)
	}

	links := domutil.FindAll(doc, func(n *html.Node) bool {
		return domutil.HasClass(n, "internal-link")
	})
	if len(links) != 0 {
		t.Errorf("link count in code block = %d, want 0", len(links))
	}
}

func TestPostProcessResolvesEmbeds(t *testing.T) {
	t.Parallel()

	v := mapVault{"Inner": "embedded **content**"}
	r := testRenderer(v)
	doc, container := renderAndAttach(t, r, "before ![[Inner]] after")

	pc := &ProcessContext{DocID: "d1", SourcePath: "test.md", Frontmatter: map[string]any{}}
	if err := r.PostProcess(context.Background(), pc, container); err != nil {
		t.Fatalf("PostProcess() error = %v", err)
	}
	if err := pc.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	embeds := domutil.FindAll(doc, func(n *html.Node) bool {
		return domutil.HasClass(n, "internal-embed")
	})
	if len(embeds) != 1 {
		t.Fatalf("embed count = %d, want 1", len(embeds))
	}
	if domutil.HasClass(embeds[0], "embed-unresolved") {
		t.Fatal("embed marked unresolved despite resolvable target")
	}

	rendered, err := domutil.Render(doc)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(rendered, "embedded <strong>content</strong>") {
		t.Errorf("embedded markdown not rendered: %q", rendered)
	}
}

func TestPostProcessMarksUnresolvableEmbeds(t *testing.T) {
	t.Parallel()

	r := testRenderer(mapVault{})
	doc, container := renderAndAttach(t, r, "![[Missing]]")

	pc := &ProcessContext{DocID: "d1", Frontmatter: map[string]any{}}
	if err := r.PostProcess(context.Background(), pc, container); err != nil {
		t.Fatalf("PostProcess() error = %v", err)
	}
	if err := pc.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v, embed failures must not propagate", err)
	}

	unresolved := domutil.FindAll(doc, func(n *html.Node) bool {
		return domutil.HasClass(n, "embed-unresolved")
	})
	if len(unresolved) != 1 {
		t.Fatalf("unresolved embed count = %d, want 1", len(unresolved))
	}
	if got := domutil.TextContent(unresolved[0]); got != "Missing" {
		t.Errorf("unresolved embed text = %q, want target name", got)
	}
}

func TestPostProcessEmbedDepthLimit(t *testing.T) {
	t.Parallel()

	// A and B embed each other; recursion must stop at the depth limit
	// instead of looping.
	v := mapVault{
		"A": "a ![[B]]",
		"B": "b ![[A]]",
	}
	r := testRenderer(v)
	doc, container := renderAndAttach(t, r, "![[A]]")

	pc := &ProcessContext{DocID: "d1", Frontmatter: map[string]any{}}
	if err := r.PostProcess(context.Background(), pc, container); err != nil {
		t.Fatalf("PostProcess() error = %v", err)
	}
	if err := pc.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	unresolved := domutil.FindAll(doc, func(n *html.Node) bool {
		return domutil.HasClass(n, "embed-unresolved")
	})
	if len(unresolved) != 1 {
		t.Errorf("unresolved count = %d, want 1 at the depth cutoff", len(unresolved))
	}
}
