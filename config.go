package docfold

import (
	"fmt"

	"github.com/docfold/docfold/internal/pageunits"
	"github.com/docfold/docfold/internal/surface"
)

// Margin mode constants.
const (
	MarginNone    = "none"
	MarginDefault = "default"
	MarginSmall   = "small"
	MarginCustom  = "custom"
)

// Margin presets in millimeters. Default matches half an inch.
const (
	defaultMarginMM = 12.7
	smallMarginMM   = 5.0
)

// Margins holds four independent page margins in millimeters.
type Margins struct {
	TopMM    float64 `yaml:"topMM"`
	RightMM  float64 `yaml:"rightMM"`
	BottomMM float64 `yaml:"bottomMM"`
	LeftMM   float64 `yaml:"leftMM"`
}

// ExportConfig holds all configuration for one export session. It is built
// once per session by overlaying session edits on persisted defaults, and
// treated as immutable once export begins.
type ExportConfig struct {
	// PageSize is a named preset ("a4", "letter", ...) or "custom".
	PageSize     string  `yaml:"pageSize"`
	PageWidthMM  float64 `yaml:"pageWidthMM"`  // custom size only
	PageHeightMM float64 `yaml:"pageHeightMM"` // custom size only

	// MarginMode is none, default, small or custom.
	MarginMode    string   `yaml:"marginMode"`
	CustomMargins *Margins `yaml:"customMargins,omitempty"`

	Landscape bool `yaml:"landscape"`
	Scale     int  `yaml:"scale"` // percent, 0 means 100

	ShowTitle     bool `yaml:"showTitle"`
	DisplayHeader bool `yaml:"displayHeader"`
	DisplayFooter bool `yaml:"displayFooter"`

	OpenAfterExport bool   `yaml:"openAfterExport"`
	CSSSnippet      string `yaml:"cssSnippet,omitempty"`
	MultiOutput     bool   `yaml:"multiOutput"`
	TimestampSuffix bool   `yaml:"timestampSuffix"`
}

// DefaultExportConfig returns the configuration used before any persisted
// defaults exist: A4 portrait, default margins, full scale, title shown.
func DefaultExportConfig() *ExportConfig {
	return &ExportConfig{
		PageSize:   "a4",
		MarginMode: MarginDefault,
		Scale:      100,
		ShowTitle:  true,
	}
}

// Validate rejects invalid configurations eagerly: a custom page size
// without both dimensions, a custom margin mode without all four margins,
// an unknown preset, or an out-of-range scale.
func (c *ExportConfig) Validate() error {
	if c == nil {
		return nil
	}

	switch {
	case c.PageSize == pageunits.Custom:
		if c.PageWidthMM <= 0 || c.PageHeightMM <= 0 {
			return fmt.Errorf("%w: got %gx%gmm", ErrMissingCustomSize, c.PageWidthMM, c.PageHeightMM)
		}
	case pageunits.IsPreset(c.PageSize):
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, c.PageSize)
	}

	switch c.MarginMode {
	case MarginNone, MarginDefault, MarginSmall:
	case MarginCustom:
		if c.CustomMargins == nil {
			return ErrMissingCustomMargins
		}
		m := c.CustomMargins
		if m.TopMM < 0 || m.RightMM < 0 || m.BottomMM < 0 || m.LeftMM < 0 {
			return fmt.Errorf("%w: margins must not be negative", ErrMissingCustomMargins)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMarginMode, c.MarginMode)
	}

	if c.Scale < 0 || c.Scale > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidScale, c.Scale)
	}
	return nil
}

// pageSizeMM resolves the configured page dimensions in millimeters,
// swapping for landscape orientation.
func (c *ExportConfig) pageSizeMM() (width, height float64, err error) {
	if c.PageSize == pageunits.Custom {
		width, height = c.PageWidthMM, c.PageHeightMM
	} else {
		size, presetErr := pageunits.Preset(c.PageSize)
		if presetErr != nil {
			return 0, 0, presetErr
		}
		width, height = size.WidthMM, size.HeightMM
	}
	if c.Landscape {
		width, height = height, width
	}
	return width, height, nil
}

// margins resolves the effective margins in millimeters.
func (c *ExportConfig) margins() Margins {
	switch c.MarginMode {
	case MarginNone:
		return Margins{}
	case MarginSmall:
		return Margins{smallMarginMM, smallMarginMM, smallMarginMM, smallMarginMM}
	case MarginCustom:
		if c.CustomMargins != nil {
			return *c.CustomMargins
		}
		return Margins{}
	default:
		return Margins{defaultMarginMM, defaultMarginMM, defaultMarginMM, defaultMarginMM}
	}
}

// pdfOptions builds the per-surface print request options.
func (c *ExportConfig) pdfOptions(title string) (*surface.PDFOptions, error) {
	width, height, err := c.pageSizeMM()
	if err != nil {
		return nil, err
	}
	m := c.margins()
	return &surface.PDFOptions{
		WidthMM:        width,
		HeightMM:       height,
		MarginTopMM:    m.TopMM,
		MarginRightMM:  m.RightMM,
		MarginBottomMM: m.BottomMM,
		MarginLeftMM:   m.LeftMM,
		ScalePercent:   c.Scale,
		DisplayHeader:  c.DisplayHeader,
		DisplayFooter:  c.DisplayFooter,
		Title:          title,
	}, nil
}

// clone returns a copy so a session's configuration stays immutable once
// export begins.
func (c *ExportConfig) clone() *ExportConfig {
	cp := *c
	if c.CustomMargins != nil {
		m := *c.CustomMargins
		cp.CustomMargins = &m
	}
	return &cp
}
