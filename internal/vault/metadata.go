package vault

import (
	"regexp"
	"strings"

	"github.com/docfold/docfold/internal/yamlutil"
)

// Position is a line range in source text (0-based, inclusive).
type Position struct {
	StartLine int
	EndLine   int
}

// BlockAnchor is a stable block identifier ("^id" in source) plus the line
// range of the block it belongs to. The range and the literal marker text
// may disagree when the marker sits on its own trailing line.
type BlockAnchor struct {
	ID       string // without the leading caret
	Position Position
}

// Link is one outbound internal link.
type Link struct {
	Link        string // target, possibly with #heading or #^block fragment
	DisplayText string
}

// MetadataIndex is the metadata capability: front matter, block anchors and
// outbound links per document.
type MetadataIndex interface {
	FrontMatter(doc *Document) (map[string]any, error)
	BlockAnchors(doc *Document) ([]BlockAnchor, error)
	Links(doc *Document) ([]Link, error)
}

var (
	// Block anchor marker: caret followed by an alphanumeric/dash id, at a
	// word boundary. Matches both inline ("text ^id") and trailing-line form.
	blockAnchorPattern = regexp.MustCompile(`(?:^|\s)\^([A-Za-z0-9-]+)\s*$`)

	// Wiki link: [[target]], [[target|display]], [[target#fragment|display]].
	wikiLinkPattern = regexp.MustCompile(`\[\[([^\[\]|]+)(?:\|([^\[\]]*))?\]\]`)
)

// FrontMatter parses the YAML front matter block at the head of the document.
// A document without front matter yields an empty map.
func (v *FSVault) FrontMatter(doc *Document) (map[string]any, error) {
	text, err := v.ReadText(doc)
	if err != nil {
		return nil, err
	}
	fm, _ := SplitFrontMatter(text)
	return fm, nil
}

// SplitFrontMatter separates the front matter block from the body. Returns
// an empty map when no block is present or it fails to parse.
func SplitFrontMatter(text string) (map[string]any, string) {
	fm := map[string]any{}
	if !strings.HasPrefix(text, "---\n") && text != "---" {
		return fm, text
	}
	rest := text[4:]
	end := strings.Index(rest, "\n---")
	if end == -1 {
		return fm, text
	}
	block := rest[:end]
	body := rest[end+4:]
	body = strings.TrimPrefix(body, "\n")
	parsed, err := yamlutil.UnmarshalMap([]byte(block))
	if err != nil {
		return map[string]any{}, text
	}
	return parsed, body
}

// BlockAnchors scans the document for block anchor markers and reports each
// with the line range of its block. A marker alone on its line anchors the
// preceding non-blank block, so the range starts there; an inline marker
// anchors its own line.
func (v *FSVault) BlockAnchors(doc *Document) ([]BlockAnchor, error) {
	text, err := v.ReadText(doc)
	if err != nil {
		return nil, err
	}
	_, body := SplitFrontMatter(text)
	offset := countLines(text) - countLines(body)

	var anchors []BlockAnchor
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		m := blockAnchorPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		start := i
		if strings.TrimSpace(line) == "^"+m[1] {
			// Trailing-line form: the anchor belongs to the block above.
			for start > 0 && strings.TrimSpace(lines[start-1]) != "" {
				start--
			}
			if start == i && i > 0 {
				start = i - 1
			}
		}
		anchors = append(anchors, BlockAnchor{
			ID:       m[1],
			Position: Position{StartLine: start + offset, EndLine: i + offset},
		})
	}
	return anchors, nil
}

// Links returns the outbound wiki links of the document, in source order.
// Embed markers ("![[...]]") are excluded; they are transclusions, not links.
func (v *FSVault) Links(doc *Document) ([]Link, error) {
	text, err := v.ReadText(doc)
	if err != nil {
		return nil, err
	}
	_, body := SplitFrontMatter(text)

	var links []Link
	for _, idx := range wikiLinkPattern.FindAllStringSubmatchIndex(body, -1) {
		if idx[0] > 0 && body[idx[0]-1] == '!' {
			continue
		}
		target := body[idx[2]:idx[3]]
		display := target
		if idx[4] != -1 {
			display = body[idx[4]:idx[5]]
		}
		links = append(links, Link{Link: target, DisplayText: display})
	}
	return links, nil
}

func countLines(s string) int {
	return strings.Count(s, "\n") + 1
}
