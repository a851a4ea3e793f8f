package transform

import (
	"golang.org/x/net/html"

	"github.com/docfold/docfold/internal/domutil"
)

// mergedSectionClass tags the per-document sections of a merged document.
const mergedSectionClass = "merged-section"

// Merge combines rendered documents into one by concatenating their content
// containers as sections, in input order, inside the first document's
// emptied content container. The first document survives and keeps its front
// matter and source reference. Must not be called with an empty slice.
func Merge(docs []*RenderedDocument) *RenderedDocument {
	first := docs[0]
	target := ContentContainer(first.Doc)
	if target == nil {
		return first
	}

	sections := make([]*html.Node, 0, len(docs))
	for _, doc := range docs {
		section := domutil.Element("section", mergedSectionClass)
		src := ContentContainer(doc.Doc)
		if src != nil {
			// Deep-import: clone across document ownership so the source
			// trees stay intact and nothing is shared.
			for c := src.FirstChild; c != nil; c = c.NextSibling {
				section.AppendChild(domutil.Clone(c))
			}
		}
		sections = append(sections, section)
	}

	domutil.RemoveChildren(target)
	for _, section := range sections {
		target.AppendChild(section)
	}
	return first
}

// ContentContainer locates a rendered document's primary content container.
func ContentContainer(doc *html.Node) *html.Node {
	containers := domutil.FindAll(doc, func(n *html.Node) bool {
		return domutil.HasClass(n, printContainerClass)
	})
	if len(containers) == 0 {
		return nil
	}
	return containers[0]
}
