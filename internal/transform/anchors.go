package transform

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/docfold/docfold/internal/domutil"
	"github.com/docfold/docfold/internal/vault"
)

// Anchor placeholders use Unicode Private Use Area characters, so they pass
// through the markdown renderer unchanged and are converted to anchor spans
// afterwards. Literal anchor ids only contain [A-Za-z0-9-], so the markers
// cannot collide with document text.
const (
	anchorStartPlaceholder = "\uE000"
	anchorEndPlaceholder   = "\uE001"
)

var anchorPlaceholderPattern = regexp.MustCompile(anchorStartPlaceholder + `([A-Za-z0-9-]+)` + anchorEndPlaceholder)

// PlaceAnchors marks the source text with a placeholder for every block
// anchor, using two passes so each anchor is placed exactly once:
//
//	pass 1: literal placement — the anchor's marker text ("^id") found on a
//	        line within its own reported range wins; the placeholder takes the
//	        marker's place at the end of the line, so leading block syntax
//	        (list bullets, heading markers) stays intact.
//	pass 2: synthetic placement — anchors unresolved in pass 1 get a
//	        placeholder line inserted immediately before their range start.
//
// Line numbers in the anchor index refer to the full source text including
// front matter; lineOffset is subtracted to address lines of text.
func PlaceAnchors(text string, anchors []vault.BlockAnchor, lineOffset int) string {
	if len(anchors) == 0 {
		return text
	}
	lines := strings.Split(text, "\n")

	type synthetic struct {
		line int
		id   string
	}
	var unresolved []synthetic

	for _, anchor := range anchors {
		start := clamp(anchor.Position.StartLine-lineOffset, 0, len(lines)-1)
		end := clamp(anchor.Position.EndLine-lineOffset, 0, len(lines)-1)
		marker := "^" + anchor.ID

		placed := false
		for i := start; i <= end; i++ {
			trimmed := strings.TrimRight(lines[i], " \t")
			if !strings.HasSuffix(trimmed, marker) {
				continue
			}
			stripped := strings.TrimRight(strings.TrimSuffix(trimmed, marker), " \t")
			if stripped == "" {
				lines[i] = placeholder(anchor.ID)
			} else {
				lines[i] = stripped + " " + placeholder(anchor.ID)
			}
			placed = true
			break
		}
		if !placed {
			unresolved = append(unresolved, synthetic{line: start, id: anchor.ID})
		}
	}

	// Insert synthetic placeholders bottom-up so earlier insertions do not
	// shift the line numbers of later ones.
	for i := len(unresolved) - 1; i >= 0; i-- {
		s := unresolved[i]
		line := clamp(s.line, 0, len(lines))
		lines = append(lines[:line], append([]string{placeholder(s.id)}, lines[line:]...)...)
	}

	return strings.Join(lines, "\n")
}

func placeholder(id string) string {
	return anchorStartPlaceholder + id + anchorEndPlaceholder
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ConvertAnchorPlaceholders replaces every anchor placeholder inside text
// nodes under root with an anchor span. The span id keeps the caret prefix
// so "#^id" hrefs resolve against it.
func ConvertAnchorPlaceholders(root *html.Node) {
	textNodes := collectTextNodes(root, anchorStartPlaceholder)
	for _, textNode := range textNodes {
		parent := textNode.Parent
		data := textNode.Data
		matches := anchorPlaceholderPattern.FindAllStringSubmatchIndex(data, -1)
		if matches == nil {
			continue
		}

		last := 0
		var replacement []*html.Node
		for _, m := range matches {
			if m[0] > last {
				replacement = append(replacement, domutil.Text(data[last:m[0]]))
			}
			span := domutil.Element("span", "block-anchor")
			domutil.SetAttr(span, "id", "^"+data[m[2]:m[3]])
			replacement = append(replacement, span)
			last = m[1]
		}
		if last < len(data) {
			replacement = append(replacement, domutil.Text(data[last:]))
		}

		for _, n := range replacement {
			parent.InsertBefore(n, textNode)
		}
		parent.RemoveChild(textNode)
	}
}

func collectTextNodes(root *html.Node, substr string) []*html.Node {
	var nodes []*html.Node
	domutil.Walk(root, func(n *html.Node) bool {
		if n.Type == html.TextNode && strings.Contains(n.Data, substr) {
			nodes = append(nodes, n)
		}
		return true
	})
	return nodes
}
