package assets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedStyles(t *testing.T) {
	t.Parallel()

	patch := PatchCSS()
	if !strings.Contains(patch, "docfold-print") {
		t.Error("patch stylesheet missing the print container rules")
	}
	if !strings.Contains(patch, "docfold-page-break") {
		t.Error("patch stylesheet missing the page-break marker rules")
	}
	if BaseCSS() == "" {
		t.Error("base stylesheet is empty")
	}
}

func TestValidateAssetName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		assetName string
		wantErr   error
	}{
		{"simple name", "compact", nil},
		{"dashed name", "two-column", nil},
		{"empty", "", ErrInvalidAssetName},
		{"path separator", "a/b", ErrInvalidAssetName},
		{"backslash", `a\b`, ErrInvalidAssetName},
		{"dot traversal", "..", ErrInvalidAssetName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := ValidateAssetName(tt.assetName); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAssetName(%q) = %v, want %v", tt.assetName, err, tt.wantErr)
			}
		})
	}
}

func TestSnippetStore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	writeFile("compact.css", ".x { a: 1; }")
	writeFile("wide.css", ".y { b: 2; }")
	writeFile("notes.txt", "not css")

	store := NewSnippetStore(dir)

	names, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("List() = %v, want 2 css snippets", names)
	}

	css, err := store.Read("compact")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if css != ".x { a: 1; }" {
		t.Errorf("Read() = %q", css)
	}

	if _, err := store.Read("missing"); !errors.Is(err, ErrSnippetNotFound) {
		t.Errorf("Read(missing) = %v, want ErrSnippetNotFound", err)
	}
	if _, err := store.Read("../escape"); !errors.Is(err, ErrInvalidAssetName) {
		t.Errorf("Read(traversal) = %v, want ErrInvalidAssetName", err)
	}
}

func TestSnippetStoreMissingDir(t *testing.T) {
	t.Parallel()

	store := NewSnippetStore(filepath.Join(t.TempDir(), "does-not-exist"))
	names, err := store.List()
	if err != nil {
		t.Fatalf("List() on missing dir error = %v, want nil", err)
	}
	if len(names) != 0 {
		t.Errorf("List() = %v, want empty", names)
	}
}
