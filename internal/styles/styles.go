// Package styles gathers the CSS that makes the standalone document render
// like the live view: every active stylesheet of the host environment, a
// patch stylesheet neutralizing print quirks, and the print-media rules
// unwrapped so they apply unconditionally.
package styles

import (
	"context"
	"log/slog"
	"strings"

	"github.com/docfold/docfold/internal/assets"
)

// InternalSheetPrefix identifies framework-owned style nodes that must not
// leak into the standalone document.
const InternalSheetPrefix = "docfold-internal"

// Entry is one ordered, opaque CSS text chunk. Order is significant: later
// entries override earlier ones, matching cascade order.
type Entry struct {
	Provenance string // sheet id or href, for diagnostics
	CSS        string
}

// Sheet is one active stylesheet of the style source. Reading its rules may
// fail (cross-origin or detached sheets).
type Sheet interface {
	ID() string
	Rules() ([]string, error)
}

// Source supplies the active stylesheets. It is injected explicitly so the
// collector never reaches for ambient global state and stays testable with
// a fixed synthetic style set.
type Source interface {
	Sheets(ctx context.Context) ([]Sheet, error)
}

// StaticSheet is a Sheet with fixed rules, or a fixed read error.
type StaticSheet struct {
	SheetID    string
	SheetRules []string
	Err        error
}

func (s StaticSheet) ID() string { return s.SheetID }

func (s StaticSheet) Rules() ([]string, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.SheetRules, nil
}

// SliceSource is a Source over a fixed slice of sheets.
type SliceSource []Sheet

func (s SliceSource) Sheets(ctx context.Context) ([]Sheet, error) { return s, nil }

// Compile-time interface checks.
var (
	_ Sheet  = StaticSheet{}
	_ Source = SliceSource(nil)
)

// Collector walks a style source and produces the flat ordered list of CSS
// text blocks for injection.
type Collector struct {
	source Source
	log    *slog.Logger
}

// NewCollector creates a collector over the given source.
func NewCollector(source Source, log *slog.Logger) *Collector {
	if log == nil {
		log = slog.Default()
	}
	return &Collector{source: source, log: log}
}

// Collect returns every rule of every active sheet (framework-internal
// sheets skipped, unreadable sheets logged and skipped), followed by the
// patch stylesheet and the unwrapped print-media rules of all sheets.
func (c *Collector) Collect(ctx context.Context) ([]Entry, error) {
	sheets, err := c.source.Sheets(ctx)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	var printRules []string

	for _, sheet := range sheets {
		if strings.HasPrefix(sheet.ID(), InternalSheetPrefix) {
			continue
		}
		rules, rulesErr := sheet.Rules()
		if rulesErr != nil {
			c.log.Warn("skipping unreadable stylesheet", "sheet", sheet.ID(), "error", rulesErr)
			continue
		}
		entries = append(entries, Entry{
			Provenance: sheet.ID(),
			CSS:        strings.Join(rules, "\n"),
		})
		for _, rule := range rules {
			printRules = append(printRules, ExtractPrintRules(rule)...)
		}
	}

	entries = append(entries, Entry{Provenance: "docfold-patch", CSS: assets.PatchCSS()})

	if len(printRules) > 0 {
		// Print-only rules, wrapper stripped, so they apply unconditionally
		// in the standalone document.
		entries = append(entries, Entry{
			Provenance: "docfold-print-media",
			CSS:        strings.Join(printRules, "\n"),
		})
	}
	return entries, nil
}

// PrintStyle isolates only the print-media rules, unwrapped, for
// re-application after the standalone document's body is swapped in. Some
// print-only rules are otherwise overridden by the replacement.
func (c *Collector) PrintStyle(ctx context.Context) ([]Entry, error) {
	sheets, err := c.source.Sheets(ctx)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, sheet := range sheets {
		if strings.HasPrefix(sheet.ID(), InternalSheetPrefix) {
			continue
		}
		rules, rulesErr := sheet.Rules()
		if rulesErr != nil {
			c.log.Warn("skipping unreadable stylesheet", "sheet", sheet.ID(), "error", rulesErr)
			continue
		}
		var printRules []string
		for _, rule := range rules {
			printRules = append(printRules, ExtractPrintRules(rule)...)
		}
		if len(printRules) > 0 {
			entries = append(entries, Entry{
				Provenance: sheet.ID() + " (print)",
				CSS:        strings.Join(printRules, "\n"),
			})
		}
	}
	return entries, nil
}

// SnippetEntries prepares a user CSS snippet for injection. The snippet is
// injected as-is, plus its print-media rules unwrapped, so print-specific
// overrides also apply in the unconditional preview.
func SnippetEntries(name, css string) []Entry {
	entries := []Entry{{Provenance: "snippet:" + name, CSS: css}}
	if printRules := ExtractPrintRules(css); len(printRules) > 0 {
		entries = append(entries, Entry{
			Provenance: "snippet:" + name + " (print)",
			CSS:        strings.Join(printRules, "\n"),
		})
	}
	return entries
}
