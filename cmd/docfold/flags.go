package main

import (
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/docfold/docfold"
	"github.com/docfold/docfold/internal/pageunits"
)

// cliFlags holds all parsed command-line flags.
type cliFlags struct {
	// page layout
	pageSize   string
	pageWidth  float64
	pageHeight float64
	landscape  bool
	scale      int

	// margins
	marginMode   string
	marginTop    float64
	marginRight  float64
	marginBottom float64
	marginLeft   float64

	// content
	showTitle bool
	header    bool
	footer    bool
	snippet   string

	// output
	output    string
	multi     bool
	timestamp bool
	open      bool

	// behavior
	watch      bool
	workers    int
	snippetDir string
	configPath string
	verbose    bool
	quiet      bool
}

// parseFlags parses args (including the program name) and returns the flags
// plus positional arguments: the vault directory followed by one or more
// document or folder references.
func parseFlags(args []string) (*cliFlags, []string, error) {
	f := &cliFlags{}
	fs := flag.NewFlagSet("docfold", flag.ContinueOnError)
	fs.SortFlags = false

	fs.StringVar(&f.pageSize, "page-size", "a4",
		"page size preset ("+strings.Join(pageunits.PresetNames(), ", ")+") or custom")
	fs.Float64Var(&f.pageWidth, "page-width", 0, "custom page width in mm")
	fs.Float64Var(&f.pageHeight, "page-height", 0, "custom page height in mm")
	fs.BoolVar(&f.landscape, "landscape", false, "landscape orientation")
	fs.IntVar(&f.scale, "scale", 100, "render scale percent (1-100)")

	fs.StringVar(&f.marginMode, "margin-mode", docfold.MarginDefault,
		"margin mode (none, default, small, custom)")
	fs.Float64Var(&f.marginTop, "margin-top", 0, "custom top margin in mm")
	fs.Float64Var(&f.marginRight, "margin-right", 0, "custom right margin in mm")
	fs.Float64Var(&f.marginBottom, "margin-bottom", 0, "custom bottom margin in mm")
	fs.Float64Var(&f.marginLeft, "margin-left", 0, "custom left margin in mm")

	fs.BoolVar(&f.showTitle, "title", true, "include the document title heading")
	fs.BoolVar(&f.header, "header", false, "show the title in a page header")
	fs.BoolVar(&f.footer, "footer", false, "show page numbers in a page footer")
	fs.StringVar(&f.snippet, "snippet", "", "named CSS snippet to apply")

	fs.StringVarP(&f.output, "output", "o", ".",
		"output file (.pdf) or directory")
	fs.BoolVar(&f.multi, "multi", false, "one PDF per document instead of a merged one")
	fs.BoolVar(&f.timestamp, "timestamp", false, "append a timestamp to output filenames")
	fs.BoolVar(&f.open, "open", false, "open the exported file(s) when done")

	fs.BoolVarP(&f.watch, "watch", "w", false, "re-export when vault files change")
	fs.IntVar(&f.workers, "workers", 1, "concurrent exporters for multiple inputs")
	fs.StringVar(&f.snippetDir, "snippet-dir", "", "directory holding CSS snippets")
	fs.StringVar(&f.configPath, "config", "", "path for persisted export configuration")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "verbose logging")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "errors only")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: docfold [flags] <vault-dir> <document-or-folder>...\n\nFlags:\n%s", fs.FlagUsages())
	}

	if err := fs.Parse(args[1:]); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// exportConfig maps the parsed flags onto an export configuration.
func (f *cliFlags) exportConfig() *docfold.ExportConfig {
	cfg := docfold.DefaultExportConfig()
	cfg.PageSize = f.pageSize
	cfg.PageWidthMM = f.pageWidth
	cfg.PageHeightMM = f.pageHeight
	cfg.Landscape = f.landscape
	cfg.Scale = f.scale
	cfg.MarginMode = f.marginMode
	if f.marginMode == docfold.MarginCustom {
		cfg.CustomMargins = &docfold.Margins{
			TopMM:    f.marginTop,
			RightMM:  f.marginRight,
			BottomMM: f.marginBottom,
			LeftMM:   f.marginLeft,
		}
	}
	cfg.ShowTitle = f.showTitle
	cfg.DisplayHeader = f.header
	cfg.DisplayFooter = f.footer
	cfg.CSSSnippet = f.snippet
	cfg.MultiOutput = f.multi
	cfg.TimestampSuffix = f.timestamp
	cfg.OpenAfterExport = f.open
	return cfg
}
