// Package pageunits converts between physical page units and CSS pixels.
//
// Chrome's printToPDF speaks inches, stylesheets speak pixels, and page
// presets are defined in millimeters, so every component that sizes a page
// goes through this package.
package pageunits

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// CSS reference pixel: 96 px per inch, 25.4 mm per inch.
const (
	MMPerInch = 25.4
	PxPerInch = 96.0
)

// ErrUnknownPageSize indicates a page size name not in the preset table.
var ErrUnknownPageSize = errors.New("unknown page size")

// Size holds page dimensions in millimeters, portrait orientation.
type Size struct {
	WidthMM  float64
	HeightMM float64
}

// Preset page sizes in millimeters (portrait).
var presets = map[string]Size{
	"a3":      {297, 420},
	"a4":      {210, 297},
	"a5":      {148, 210},
	"legal":   {215.9, 355.6},
	"letter":  {215.9, 279.4},
	"tabloid": {279.4, 431.8},
}

// Custom is the page size name selecting caller-supplied dimensions.
const Custom = "custom"

// Preset looks up a named page size (case-insensitive).
func Preset(name string) (Size, error) {
	s, ok := presets[strings.ToLower(name)]
	if !ok {
		return Size{}, fmt.Errorf("%w: %q", ErrUnknownPageSize, name)
	}
	return s, nil
}

// IsPreset reports whether name is a known preset page size.
func IsPreset(name string) bool {
	_, ok := presets[strings.ToLower(name)]
	return ok
}

// PresetNames returns the sorted preset names for help text.
func PresetNames() []string {
	return []string{"a3", "a4", "a5", "legal", "letter", "tabloid"}
}

// MMToPx converts millimeters to CSS pixels.
func MMToPx(mm float64) float64 {
	return mm / MMPerInch * PxPerInch
}

// PxToMM converts CSS pixels to millimeters.
func PxToMM(px float64) float64 {
	return px / PxPerInch * MMPerInch
}

// MMToInch converts millimeters to inches.
func MMToInch(mm float64) float64 {
	return mm / MMPerInch
}

// PreviewScale computes the preview scale factor for rendering a page of
// pageWidthPx inside a container of containerWidthPx, truncated to two
// decimals. The inverse of this factor is applied as a visual transform so
// a full-size page fits the on-screen preview without altering layout.
func PreviewScale(pageWidthPx, containerWidthPx float64) float64 {
	if containerWidthPx <= 0 {
		return 1
	}
	return math.Floor(pageWidthPx/containerWidthPx*100) / 100
}
