package surface

import (
	"context"
	"log/slog"
	"testing"

	"github.com/docfold/docfold/internal/domutil"
	"github.com/docfold/docfold/internal/styles"
	"github.com/docfold/docfold/internal/transform"
)

// attachTestSurface builds a minimal rendered document with one content
// block and attaches it to a real browser page.
func attachTestSurface(t *testing.T) *Surface {
	t.Helper()

	log := slog.New(slog.DiscardHandler)
	browser := NewBrowser(DefaultTimeout)
	t.Cleanup(func() { _ = browser.Close() })

	source := styles.SliceSource{
		styles.StaticSheet{SheetID: "test-base", SheetRules: []string{"body { margin: 0; }"}},
	}
	m := NewManager(browser, styles.NewCollector(source, log), log)
	t.Cleanup(m.Clear)

	doc := domutil.NewDocument("toggle")
	container := domutil.Element("div", "docfold-print")
	p := domutil.Element("p", "")
	p.AppendChild(domutil.Text("first block"))
	container.AppendChild(p)
	domutil.Body(doc).AppendChild(container)

	surf, err := m.Attach(context.Background(), &transform.RenderedDocument{Doc: doc}, nil)
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	return surf
}

func TestPageBreakToggle(t *testing.T) {
	if testing.Short() {
		t.Skip("requires a browser")
	}

	surf := attachTestSurface(t)

	click := `() => {
		document.querySelector(".docfold-print > p").click();
		return document.querySelectorAll(".docfold-page-break").length;
	}`

	res, err := surf.page.Eval(click)
	if err != nil {
		t.Fatalf("first click eval error = %v", err)
	}
	if got := res.Value.Int(); got != 1 {
		t.Fatalf("marker count after first click = %d, want 1", got)
	}

	// A second click on the same element removes the marker again.
	res, err = surf.page.Eval(click)
	if err != nil {
		t.Fatalf("second click eval error = %v", err)
	}
	if got := res.Value.Int(); got != 0 {
		t.Errorf("marker count after second click = %d, want 0", got)
	}
}

func TestSurfaceMeasure(t *testing.T) {
	if testing.Short() {
		t.Skip("requires a browser")
	}

	surf := attachTestSurface(t)

	dims, err := surf.Measure(context.Background())
	if err != nil {
		t.Fatalf("Measure() error = %v", err)
	}
	if dims.WidthPx <= 0 || dims.HeightPx <= 0 {
		t.Errorf("dimensions = %+v, want positive", dims)
	}
	if dims.WidthMM <= 0 {
		t.Errorf("WidthMM = %g, want positive", dims.WidthMM)
	}
}
