// Package vault models the document store the exporter reads from: a
// directory tree of markdown documents addressed by name or relative path,
// plus the metadata index (front matter, block anchors, outbound links)
// derived from their text.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Sentinel errors for vault operations.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrNotAFolder       = errors.New("not a folder")
)

// Document identifies one source document in the vault.
type Document struct {
	Path  string // path relative to the vault root, including extension
	Title string // base name without extension
}

// Vault is the file-model capability: resolving references to documents,
// reading their raw text, and expanding folders.
type Vault interface {
	// Resolve maps a link target ("Note", "sub/Note", "Note.md") to a document.
	Resolve(ref string) (*Document, error)
	// ReadText returns the raw text content of a document.
	ReadText(doc *Document) (string, error)
	// IsFolder reports whether ref names a folder inside the vault.
	IsFolder(ref string) bool
	// ListFolder returns the documents directly inside a folder, sorted by path.
	ListFolder(ref string) ([]*Document, error)
}

// FSVault is a Vault backed by a directory of markdown files.
// The document index is built once at construction; re-create the vault to
// pick up files added afterwards.
type FSVault struct {
	root   string
	byPath map[string]*Document // relative path (without extension) -> doc
	byName map[string]*Document // base name -> doc (first wins on collision)
	docs   []*Document
}

// Compile-time interface checks.
var (
	_ Vault         = (*FSVault)(nil)
	_ MetadataIndex = (*FSVault)(nil)
)

// markdownExtensions are the file extensions indexed as documents.
var markdownExtensions = map[string]bool{".md": true, ".markdown": true}

// NewFSVault indexes the markdown files under root.
func NewFSVault(root string) (*FSVault, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving vault root: %w", err)
	}

	v := &FSVault{
		root:   absRoot,
		byPath: make(map[string]*Document),
		byName: make(map[string]*Document),
	}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !markdownExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		doc := &Document{
			Path:  rel,
			Title: strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel)),
		}
		v.docs = append(v.docs, doc)
		key := strings.TrimSuffix(rel, filepath.Ext(rel))
		v.byPath[key] = doc
		if _, exists := v.byName[doc.Title]; !exists {
			v.byName[doc.Title] = doc
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("indexing vault: %w", err)
	}

	sort.Slice(v.docs, func(i, j int) bool { return v.docs[i].Path < v.docs[j].Path })
	return v, nil
}

// Root returns the absolute vault root directory.
func (v *FSVault) Root() string { return v.root }

// Resolve maps a link target to a document. Targets may omit the extension
// and may be a bare name or a vault-relative path.
func (v *FSVault) Resolve(ref string) (*Document, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrDocumentNotFound)
	}
	ref = filepath.ToSlash(ref)
	if ext := filepath.Ext(ref); markdownExtensions[strings.ToLower(ext)] {
		ref = strings.TrimSuffix(ref, ext)
	}
	if doc, ok := v.byPath[ref]; ok {
		return doc, nil
	}
	if doc, ok := v.byName[ref]; ok {
		return doc, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrDocumentNotFound, ref)
}

// ReadText returns the raw text of a document.
func (v *FSVault) ReadText(doc *Document) (string, error) {
	data, err := os.ReadFile(filepath.Join(v.root, filepath.FromSlash(doc.Path))) // #nosec G304 -- path comes from the vault index
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", doc.Path, err)
	}
	return string(data), nil
}

// IsFolder reports whether ref names a directory inside the vault.
func (v *FSVault) IsFolder(ref string) bool {
	info, err := os.Stat(filepath.Join(v.root, filepath.FromSlash(ref)))
	return err == nil && info.IsDir()
}

// ListFolder returns the documents directly inside the given folder.
func (v *FSVault) ListFolder(ref string) ([]*Document, error) {
	if !v.IsFolder(ref) {
		return nil, fmt.Errorf("%w: %q", ErrNotAFolder, ref)
	}
	prefix := strings.TrimSuffix(filepath.ToSlash(ref), "/")
	if prefix != "" && prefix != "." {
		prefix += "/"
	} else {
		prefix = ""
	}

	var docs []*Document
	for _, doc := range v.docs {
		if !strings.HasPrefix(doc.Path, prefix) {
			continue
		}
		rest := strings.TrimPrefix(doc.Path, prefix)
		if strings.Contains(rest, "/") {
			continue // nested folder, not a direct child
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
