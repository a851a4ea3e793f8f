package transform

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/docfold/docfold/internal/domutil"
	"github.com/docfold/docfold/internal/vault"
)

// renderedDoc builds a minimal rendered document whose content container
// holds the given fragment markup.
func renderedDoc(t *testing.T, title, fragment string) *RenderedDocument {
	t.Helper()
	doc := domutil.NewDocument(title)
	container := domutil.Element("div", printContainerClass)
	domutil.Body(doc).AppendChild(container)

	nodes, err := domutil.ParseFragment(fragment)
	if err != nil {
		t.Fatalf("ParseFragment() error = %v", err)
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return &RenderedDocument{
		Doc:         doc,
		FrontMatter: map[string]any{},
		Source:      &vault.Document{Path: title + ".md", Title: title},
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	docs := []*RenderedDocument{
		renderedDoc(t, "A", "<p>alpha</p>"),
		renderedDoc(t, "B", "<p>beta</p>"),
		renderedDoc(t, "C", "<p>gamma</p>"),
	}

	merged := Merge(docs)
	if merged != docs[0] {
		t.Fatal("Merge() did not return the first document")
	}
	if merged.Source.Title != "A" {
		t.Errorf("merged source = %q, want first document's", merged.Source.Title)
	}

	container := ContentContainer(merged.Doc)
	if container == nil {
		t.Fatal("merged document has no content container")
	}

	var sections []*html.Node
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		sections = append(sections, c)
	}
	if len(sections) != 3 {
		t.Fatalf("section count = %d, want 3", len(sections))
	}

	wantTexts := []string{"alpha", "beta", "gamma"}
	for i, section := range sections {
		if !domutil.HasClass(section, mergedSectionClass) {
			t.Errorf("section %d missing class %q", i, mergedSectionClass)
		}
		if got := strings.TrimSpace(domutil.TextContent(section)); got != wantTexts[i] {
			t.Errorf("section %d text = %q, want %q", i, got, wantTexts[i])
		}
	}
}

func TestMergeDeepCopies(t *testing.T) {
	t.Parallel()

	docs := []*RenderedDocument{
		renderedDoc(t, "A", "<p>alpha</p>"),
		renderedDoc(t, "B", "<p>beta</p>"),
	}
	merged := Merge(docs)

	// Mutating the source document must not leak into the merged one.
	srcContainer := ContentContainer(docs[1].Doc)
	domutil.RemoveChildren(srcContainer)

	rendered := render(t, merged.Doc)
	if !strings.Contains(rendered, "beta") {
		t.Error("merged content shares nodes with its source document")
	}
}

func TestMergeSingleDocument(t *testing.T) {
	t.Parallel()

	docs := []*RenderedDocument{renderedDoc(t, "Solo", "<p>only</p>")}
	merged := Merge(docs)

	rendered := render(t, merged.Doc)
	if !strings.Contains(rendered, "only") {
		t.Error("single-document merge lost content")
	}
	if got := strings.Count(rendered, mergedSectionClass); got != 1 {
		t.Errorf("section count = %d, want 1", got)
	}
}
