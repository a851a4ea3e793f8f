package transform

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/docfold/docfold/internal/domutil"
)

// buildDoc parses fragment markup into a fresh document body.
func buildDoc(t *testing.T, fragment string) *html.Node {
	t.Helper()
	nodes, err := domutil.ParseFragment(fragment)
	if err != nil {
		t.Fatalf("ParseFragment() error = %v", err)
	}
	doc := domutil.NewDocument("t")
	body := domutil.Body(doc)
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return doc
}

func render(t *testing.T, doc *html.Node) string {
	t.Helper()
	s, err := domutil.Render(doc)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return s
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fragment string
	}{
		{
			name:     "single embed",
			fragment: `<p>before</p><span class="internal-embed"><div class="embed-content"><p>inner</p></div></span><p>after</p>`,
		},
		{
			name: "nested embeds",
			fragment: `<span class="internal-embed"><div class="embed-content">` +
				`<span class="internal-embed"><div class="embed-content"><em>deep</em></div></span>` +
				`</div></span>`,
		},
		{
			name: "triple nesting",
			fragment: `<span class="internal-embed"><div class="embed-content">` +
				`<span class="internal-embed"><div class="embed-content">` +
				`<span class="internal-embed"><div class="embed-content">core</div></span>` +
				`</div></span></div></span>`,
		},
		{
			name:     "no embeds",
			fragment: `<p>plain content</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := buildDoc(t, tt.fragment)
			before := render(t, doc)

			if err := EncodeEmbedded(doc); err != nil {
				t.Fatalf("EncodeEmbedded() error = %v", err)
			}
			if err := DecodeEmbedded(doc); err != nil {
				t.Fatalf("DecodeEmbedded() error = %v", err)
			}

			if after := render(t, doc); after != before {
				t.Errorf("round trip changed markup:\n before %q\n after  %q", before, after)
			}
		})
	}
}

func TestEncodeEmbeddedEmptiesElements(t *testing.T) {
	t.Parallel()

	doc := buildDoc(t, `<span class="internal-embed"><p>inner</p></span>`)
	if err := EncodeEmbedded(doc); err != nil {
		t.Fatalf("EncodeEmbedded() error = %v", err)
	}

	embeds := domutil.FindAll(doc, func(n *html.Node) bool {
		return domutil.HasClass(n, embedClass)
	})
	if len(embeds) != 1 {
		t.Fatalf("embed count = %d, want 1", len(embeds))
	}
	el := embeds[0]
	if el.FirstChild != nil {
		t.Error("encoded embed still has children")
	}
	if domutil.Attr(el, embedContentAttr) == "" {
		t.Error("encoded embed is missing the content attribute")
	}
	if s := render(t, doc); strings.Contains(s, "inner") {
		t.Error("embedded markup still appears in clear text after encoding")
	}
}

func TestEncodeEmbeddedSkipsEmpty(t *testing.T) {
	t.Parallel()

	// Unresolved embeds have no children and must stay untouched.
	doc := buildDoc(t, `<span class="internal-embed embed-unresolved"></span>`)
	if err := EncodeEmbedded(doc); err != nil {
		t.Fatalf("EncodeEmbedded() error = %v", err)
	}
	embeds := domutil.FindAll(doc, func(n *html.Node) bool {
		return domutil.HasClass(n, embedClass)
	})
	if got := domutil.Attr(embeds[0], embedContentAttr); got != "" {
		t.Errorf("empty embed gained content attribute %q", got)
	}
}

func TestDecodeEmbeddedBadEncoding(t *testing.T) {
	t.Parallel()

	doc := buildDoc(t, `<span class="internal-embed" data-embed-content="not base64!!"></span>`)
	if err := DecodeEmbedded(doc); err == nil {
		t.Error("DecodeEmbedded() with invalid base64 = nil error, want error")
	}
}
