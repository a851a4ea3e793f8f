package surface

import (
	"fmt"
	"html"
	"io"

	"github.com/go-rod/rod/lib/proto"

	"github.com/docfold/docfold/internal/pageunits"
)

// PDFOptions is the effective page configuration handed to Chrome's
// printToPDF, in physical units. Dimensions arrive already oriented;
// landscape is expressed by swapped width and height, never by the
// print request's landscape flag.
type PDFOptions struct {
	WidthMM  float64
	HeightMM float64

	MarginTopMM    float64
	MarginRightMM  float64
	MarginBottomMM float64
	MarginLeftMM   float64

	ScalePercent int // 0-100, 0 means 100

	DisplayHeader bool
	DisplayFooter bool
	Title         string // shown in the header template when headers are on
}

// headerFontFamily matches the footer/header chrome Chrome renders natively.
const headerFontFamily = "sans-serif"

// ToPDF renders the surface to PDF bytes with the given options.
func (s *Surface) ToPDF(opts *PDFOptions) ([]byte, error) {
	req := buildPrintRequest(opts)
	reader, err := s.page.Timeout(s.timeout).PDF(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	pdf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return pdf, nil
}

// buildPrintRequest converts millimeter options into Chrome's inch-based
// print request.
func buildPrintRequest(opts *PDFOptions) *proto.PagePrintToPDF {
	scale := 1.0
	if opts.ScalePercent > 0 {
		scale = float64(opts.ScalePercent) / 100
	}

	req := &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(pageunits.MMToInch(opts.WidthMM)),
		PaperHeight:     floatPtr(pageunits.MMToInch(opts.HeightMM)),
		MarginTop:       floatPtr(pageunits.MMToInch(opts.MarginTopMM)),
		MarginRight:     floatPtr(pageunits.MMToInch(opts.MarginRightMM)),
		MarginBottom:    floatPtr(pageunits.MMToInch(opts.MarginBottomMM)),
		MarginLeft:      floatPtr(pageunits.MMToInch(opts.MarginLeftMM)),
		Scale:           floatPtr(scale),
		PrintBackground: true,
	}

	if opts.DisplayHeader || opts.DisplayFooter {
		req.DisplayHeaderFooter = true
		req.HeaderTemplate = buildHeaderTemplate(opts)
		req.FooterTemplate = buildFooterTemplate(opts)
	}
	return req
}

// buildHeaderTemplate shows the document title on every page, or nothing.
func buildHeaderTemplate(opts *PDFOptions) string {
	if !opts.DisplayHeader {
		return "<span></span>"
	}
	return fmt.Sprintf(
		`<div style="font-size: 9px; font-family: %s; color: #aaa; width: 100%%; text-align: left; padding: 0 0.5in;">%s</div>`,
		headerFontFamily, html.EscapeString(opts.Title))
}

// buildFooterTemplate shows page numbers via Chrome's native placeholders.
func buildFooterTemplate(opts *PDFOptions) string {
	if !opts.DisplayFooter {
		return "<span></span>"
	}
	return fmt.Sprintf(
		`<div style="font-size: 9px; font-family: %s; color: #aaa; width: 100%%; text-align: right; padding: 0 0.5in;"><span class="pageNumber"></span>/<span class="totalPages"></span></div>`,
		headerFontFamily)
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
