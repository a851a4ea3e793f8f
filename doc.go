// Package docfold exports linked markdown documents as paginated,
// print-ready PDF files using headless Chrome.
//
// # Quick Start
//
// Create an exporter over a vault directory, open a session, render and
// export:
//
//	exp, err := docfold.NewExporter("/path/to/vault")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exp.Close()
//
//	session, err := exp.NewSession(docfold.DefaultExportConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	if err := session.Render(ctx, "Notes/Weekly Report"); err != nil {
//	    log.Fatal(err)
//	}
//	artifacts, err := session.Export(ctx, docfold.FixedOutput("report.pdf"))
//
// # Pipeline
//
// Each export session runs these stages:
//
//  1. Source expansion (folder contents, or table-of-contents links)
//  2. Document transformation (anchors, links, transclusions, canvases)
//  3. Merging into one document, unless multi-output mode is on
//  4. Preview surfaces with collected styles and page-accurate scaling
//  5. PDF generation per surface via Chrome's printToPDF
//
// # Browser Requirements
//
// PDF generation requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run. Set ROD_BROWSER_BIN to
// use a pre-installed binary in containers and CI environments.
package docfold
