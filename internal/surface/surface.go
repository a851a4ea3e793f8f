package surface

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"golang.org/x/net/html"

	"github.com/docfold/docfold/internal/domutil"
	"github.com/docfold/docfold/internal/fileutil"
	"github.com/docfold/docfold/internal/pageunits"
	"github.com/docfold/docfold/internal/styles"
	"github.com/docfold/docfold/internal/transform"
)

// measureDelay lets layout catch up after injection before dimensions are
// read back.
const measureDelay = 500 * time.Millisecond

// pageBreakScript installs the click-to-toggle page break affordance: a
// click inserts a marker before the clicked element, or removes it when the
// preceding sibling already is one. Preview-only, never persisted.
const pageBreakScript = `() => {
	if (document.body.dataset.docfoldBreaks) return;
	document.body.dataset.docfoldBreaks = "1";
	document.body.addEventListener("click", (ev) => {
		let target = ev.target.closest(".docfold-print > *") || ev.target;
		const prev = target.previousElementSibling;
		if (prev && prev.classList.contains("docfold-page-break")) {
			prev.remove();
			return;
		}
		const marker = document.createElement("div");
		marker.className = "docfold-page-break";
		target.parentNode.insertBefore(marker, target);
	});
}`

// Dimensions are the measured content dimensions of a surface, reported in
// both pixels and physical units for the preview readout.
type Dimensions struct {
	WidthPx  float64
	HeightPx float64
	WidthMM  float64
	HeightMM float64
}

// Surface is one isolated rendering surface bound 1:1 to a rendered
// document.
type Surface struct {
	Doc   *transform.RenderedDocument
	Scale float64

	page    *rod.Page
	cleanup func()
	timeout time.Duration
}

// Manager creates and tracks the active preview surfaces. Surfaces are
// rebuilt wholesale on every refresh; there is no incremental update path.
type Manager struct {
	browser   *Browser
	collector *styles.Collector
	log       *slog.Logger

	mu       sync.Mutex
	surfaces []*Surface
}

// NewManager creates a surface manager over a shared browser and a style
// collector.
func NewManager(browser *Browser, collector *styles.Collector, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{browser: browser, collector: collector, log: log}
}

// Attach creates a new surface for a rendered document: collects and injects
// styles plus the optional snippet entries, swaps in the document content,
// decodes transclusions recursively, forces the light theme, and re-injects
// the print-only style subset last so the body replacement cannot shadow it.
func (m *Manager) Attach(ctx context.Context, doc *transform.RenderedDocument, snippet []styles.Entry) (*Surface, error) {
	collected, err := m.collector.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collecting styles: %w", err)
	}
	printOnly, err := m.collector.PrintStyle(ctx)
	if err != nil {
		return nil, fmt.Errorf("collecting print styles: %w", err)
	}

	// Work on a clone so the rendered document stays encoded for reuse.
	working := domutil.Clone(doc.Doc)
	if err := transform.DecodeEmbedded(working); err != nil {
		return nil, fmt.Errorf("decoding transclusions: %w", err)
	}
	forceLightTheme(working)
	title := "docfold"
	if doc.Source != nil {
		title = doc.Source.Title
	}
	domutil.SetTitle(working, title)

	serialized, err := domutil.Render(working)
	if err != nil {
		return nil, fmt.Errorf("serializing document: %w", err)
	}

	entries := append(append([]styles.Entry{}, collected...), snippet...)
	// Print subset goes in last: after the body swap its rules must win.
	entries = append(entries, printOnly...)
	serialized = styles.InjectEntries(serialized, entries)

	tmpPath, cleanup, err := fileutil.WriteTempFile(serialized, "html")
	if err != nil {
		return nil, err
	}

	page, err := m.browser.Page("file://" + tmpPath)
	if err != nil {
		cleanup()
		return nil, err
	}
	if err := page.Timeout(m.browser.Timeout()).WaitLoad(); err != nil {
		_ = page.Close()
		cleanup()
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if _, err := page.Context(ctx).Eval(pageBreakScript); err != nil {
		m.log.Warn("page break toggle unavailable", "error", err)
	}

	s := &Surface{
		Doc:     doc,
		Scale:   1,
		page:    page,
		cleanup: cleanup,
		timeout: m.browser.Timeout(),
	}

	m.mu.Lock()
	m.surfaces = append(m.surfaces, s)
	m.mu.Unlock()
	return s, nil
}

// Surfaces returns the active surfaces in attach order.
func (m *Manager) Surfaces() []*Surface {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Surface(nil), m.surfaces...)
}

// Clear destroys every active surface. Refreshes recreate them wholesale,
// which eliminates stale-surface bugs at the cost of redundant rework.
func (m *Manager) Clear() {
	m.mu.Lock()
	surfaces := m.surfaces
	m.surfaces = nil
	m.mu.Unlock()

	for _, s := range surfaces {
		s.close()
	}
}

// ResizeAll recomputes the preview scale for the configured page width and
// applies the inverse transform to every active surface.
func (m *Manager) ResizeAll(ctx context.Context, pageWidthMM, containerWidthPx float64) float64 {
	scale := pageunits.PreviewScale(pageunits.MMToPx(pageWidthMM), containerWidthPx)
	for _, s := range m.Surfaces() {
		if err := s.applyScale(ctx, scale); err != nil {
			m.log.Warn("applying preview scale failed", "error", err)
		}
	}
	return scale
}

// applyScale applies the inverse scale as a visual transform with
// compensating sizing, so the scaled content still occupies the full
// container without altering true layout.
func (s *Surface) applyScale(ctx context.Context, scale float64) error {
	s.Scale = scale
	if scale <= 0 {
		return nil
	}
	_, err := s.page.Context(ctx).Eval(`(scale) => {
		const el = document.body;
		el.style.transform = "scale(" + (1 / scale) + ")";
		el.style.transformOrigin = "top left";
		el.style.width = (scale * 100) + "%";
		el.style.height = (scale * 100) + "%";
	}`, scale)
	return err
}

// Measure reports the surface's rendered body dimensions after a settling
// delay, converted to millimeters for the custom-size readout.
func (s *Surface) Measure(ctx context.Context) (Dimensions, error) {
	select {
	case <-ctx.Done():
		return Dimensions{}, ctx.Err()
	case <-time.After(measureDelay):
	}

	res, err := s.page.Context(ctx).Eval(`() => [document.body.scrollWidth, document.body.scrollHeight]`)
	if err != nil {
		return Dimensions{}, fmt.Errorf("measuring surface: %w", err)
	}
	arr := res.Value.Arr()
	if len(arr) != 2 {
		return Dimensions{}, fmt.Errorf("measuring surface: unexpected result %v", res.Value)
	}
	d := Dimensions{WidthPx: arr[0].Num(), HeightPx: arr[1].Num()}
	d.WidthMM = pageunits.PxToMM(d.WidthPx)
	d.HeightMM = pageunits.PxToMM(d.HeightPx)
	return d, nil
}

func (s *Surface) close() {
	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
}

// forceLightTheme pins the standalone document to the light theme regardless
// of the host theme.
func forceLightTheme(doc *html.Node) {
	body := domutil.Body(doc)
	if body == nil {
		return
	}
	domutil.RemoveClass(body, "theme-dark")
	domutil.AddClass(body, "theme-light")
}
