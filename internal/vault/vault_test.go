package vault

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// newTestVault builds a vault directory from a map of relative path to
// content and indexes it.
func newTestVault(t *testing.T, files map[string]string) *FSVault {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	v, err := NewFSVault(root)
	if err != nil {
		t.Fatalf("NewFSVault() error = %v", err)
	}
	return v
}

func TestResolve(t *testing.T) {
	t.Parallel()

	v := newTestVault(t, map[string]string{
		"Note.md":            "# Note",
		"sub/Other.md":       "# Other",
		"sub/deep/Other.md":  "# Shadowed",
		"assets/ignored.txt": "not markdown",
	})

	tests := []struct {
		name     string
		ref      string
		wantPath string
		wantErr  error
	}{
		{
			name:     "bare name",
			ref:      "Note",
			wantPath: "Note.md",
		},
		{
			name:     "name with extension",
			ref:      "Note.md",
			wantPath: "Note.md",
		},
		{
			name:     "relative path",
			ref:      "sub/Other",
			wantPath: "sub/Other.md",
		},
		{
			name:     "bare name first match wins",
			ref:      "Other",
			wantPath: "sub/Other.md",
		},
		{
			name:    "unknown document",
			ref:     "Missing",
			wantErr: ErrDocumentNotFound,
		},
		{
			name:    "non-markdown file",
			ref:     "ignored",
			wantErr: ErrDocumentNotFound,
		},
		{
			name:    "empty reference",
			ref:     "  ",
			wantErr: ErrDocumentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc, err := v.Resolve(tt.ref)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Resolve(%q) error = %v, want %v", tt.ref, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if doc.Path != tt.wantPath {
				t.Errorf("Resolve(%q).Path = %q, want %q", tt.ref, doc.Path, tt.wantPath)
			}
		})
	}
}

func TestReadText(t *testing.T) {
	t.Parallel()

	v := newTestVault(t, map[string]string{"Note.md": "# Hello\n"})
	doc, err := v.Resolve("Note")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	text, err := v.ReadText(doc)
	if err != nil {
		t.Fatalf("ReadText() error = %v", err)
	}
	if text != "# Hello\n" {
		t.Errorf("ReadText() = %q", text)
	}

	if _, err := v.ReadText(&Document{Path: "gone.md", Title: "gone"}); err == nil {
		t.Error("ReadText(missing) = nil error, want error")
	}
}

func TestListFolder(t *testing.T) {
	t.Parallel()

	v := newTestVault(t, map[string]string{
		"folder/A.md":        "a",
		"folder/B.md":        "b",
		"folder/nested/C.md": "c",
		"Outside.md":         "o",
	})

	if !v.IsFolder("folder") {
		t.Fatal("IsFolder(folder) = false, want true")
	}
	if v.IsFolder("Outside") {
		t.Error("IsFolder(Outside) = true, want false")
	}

	docs, err := v.ListFolder("folder")
	if err != nil {
		t.Fatalf("ListFolder() error = %v", err)
	}
	want := []string{"folder/A.md", "folder/B.md"}
	if len(docs) != len(want) {
		t.Fatalf("ListFolder() returned %d docs, want %d", len(docs), len(want))
	}
	for i, doc := range docs {
		if doc.Path != want[i] {
			t.Errorf("ListFolder()[%d].Path = %q, want %q", i, doc.Path, want[i])
		}
	}

	if _, err := v.ListFolder("Outside"); !errors.Is(err, ErrNotAFolder) {
		t.Errorf("ListFolder(Outside) error = %v, want %v", err, ErrNotAFolder)
	}
}
