package transform

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/docfold/docfold/internal/domutil"
)

// internalLinkClass marks anchors produced for wiki links.
const internalLinkClass = "internal-link"

// LinkResolver reports whether a link target resolves to a known document
// with a usable title.
type LinkResolver func(target string) bool

// RepairLinks downgrades dead internal links to plain text. A link survives
// when its fragment names a block anchor, when it points inside the current
// document, or when its target resolves. Stripped links keep their text and
// lose only the href, so nothing renders as a dead link.
func RepairLinks(root *html.Node, resolve LinkResolver) {
	links := domutil.FindAll(root, func(n *html.Node) bool {
		return n.Data == "a" && domutil.HasClass(n, internalLinkClass)
	})
	for _, a := range links {
		href := domutil.Attr(a, "href")
		if href == "" {
			continue
		}
		target, fragment, _ := strings.Cut(href, "#")
		if strings.HasPrefix(fragment, "^") {
			continue // block-anchor links are preserved
		}
		if target == "" {
			continue // same-document heading link
		}
		if resolve != nil && resolve(target) {
			continue
		}
		domutil.RemoveAttr(a, "href")
		domutil.RemoveAttr(a, "data-href")
	}
}

// RewriteLinks redirects internal links whose target matches a key of
// mapping to the generated in-page anchor id, used when linked documents are
// merged into one artifact behind a table of contents.
func RewriteLinks(root *html.Node, mapping map[string]string) {
	if len(mapping) == 0 {
		return
	}
	links := domutil.FindAll(root, func(n *html.Node) bool {
		return n.Data == "a" && domutil.HasClass(n, internalLinkClass)
	})
	for _, a := range links {
		href := domutil.Attr(a, "href")
		target, _, _ := strings.Cut(href, "#")
		if id, ok := mapping[target]; ok {
			domutil.SetAttr(a, "href", "#"+id)
			domutil.SetAttr(a, "data-href", "#"+id)
		}
	}
}
