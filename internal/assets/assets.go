// Package assets bundles the stylesheets shipped with the exporter and
// loads user CSS snippets from disk.
package assets

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed styles/*
var styleFS embed.FS

// Sentinel errors for asset operations.
var (
	ErrInvalidAssetName = errors.New("invalid asset name")
	ErrSnippetNotFound  = errors.New("css snippet not found")
)

// PatchCSS returns the fixed patch stylesheet: print-quirk neutralization
// and the page-break marker's visual treatment.
func PatchCSS() string {
	return mustStyle("patch")
}

// BaseCSS returns the host environment's base document stylesheet.
func BaseCSS() string {
	return mustStyle("base")
}

func mustStyle(name string) string {
	content, err := styleFS.ReadFile("styles/" + name + ".css")
	if err != nil {
		// Embedded files are part of the build; absence is a packaging bug.
		panic(fmt.Sprintf("assets: embedded style %q missing: %v", name, err))
	}
	return string(content)
}

// ValidateAssetName checks that an asset name is safe for use as a filename.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}

// SnippetStore lists and reads named CSS snippets from a directory.
type SnippetStore struct {
	dir string
}

// NewSnippetStore creates a store over dir. The directory may not exist yet;
// listing then returns no snippets.
func NewSnippetStore(dir string) *SnippetStore {
	return &SnippetStore{dir: dir}
}

// List returns the available snippet names (file base names without .css).
func (s *SnippetStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".css") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".css"))
	}
	return names, nil
}

// Read returns the raw text of a named snippet.
func (s *SnippetStore) Read(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	content, err := os.ReadFile(filepath.Join(s.dir, name+".css")) // #nosec G304 -- name validated above
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %q", ErrSnippetNotFound, name)
		}
		return "", fmt.Errorf("reading snippet %q: %w", name, err)
	}
	return string(content), nil
}
