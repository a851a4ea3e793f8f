// Package domutil provides the HTML document plumbing shared by the
// transformation pipeline: fragment parsing, serialization, traversal and
// attribute access on golang.org/x/net/html node trees.
package domutil

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseFragment parses an HTML fragment in body context and returns its
// top-level nodes, detached from any document.
func ParseFragment(content string) ([]*html.Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	return html.ParseFragment(strings.NewReader(content), context)
}

// ParseDocument parses a complete HTML document.
func ParseDocument(content string) (*html.Node, error) {
	return html.Parse(strings.NewReader(content))
}

// Render serializes a node to HTML.
func Render(n *html.Node) (string, error) {
	var buf strings.Builder
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderChildren serializes the children of a node, in order.
func RenderChildren(n *html.Node) (string, error) {
	var buf strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// Walk visits n and every descendant in document order. Returning false from
// fn stops descent into that node's children.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, fn)
	}
}

// FindAll returns every descendant element (including n itself) accepted by
// the predicate.
func FindAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	Walk(n, func(node *html.Node) bool {
		if node.Type == html.ElementNode && pred(node) {
			out = append(out, node)
		}
		return true
	})
	return out
}

// Attr returns the value of the named attribute, or "".
func Attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// SetAttr sets or replaces the named attribute.
func SetAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes the named attribute if present.
func RemoveAttr(n *html.Node, name string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// HasClass reports whether the element's class attribute contains name.
func HasClass(n *html.Node, name string) bool {
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass appends name to the element's class attribute if absent.
func AddClass(n *html.Node, name string) {
	if HasClass(n, name) {
		return
	}
	existing := Attr(n, "class")
	if existing == "" {
		SetAttr(n, "class", name)
		return
	}
	SetAttr(n, "class", existing+" "+name)
}

// RemoveClass removes name from the element's class attribute.
func RemoveClass(n *html.Node, name string) {
	fields := strings.Fields(Attr(n, "class"))
	kept := fields[:0]
	for _, c := range fields {
		if c != name {
			kept = append(kept, c)
		}
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// Element creates a detached element node with optional class.
func Element(tag string, class string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	if class != "" {
		SetAttr(n, "class", class)
	}
	return n
}

// Text creates a detached text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Detach removes n from its parent, leaving it reusable.
func Detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// RemoveChildren detaches every child of n.
func RemoveChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// Clone deep-copies a node tree. The copy belongs to no document, so it can
// be appended anywhere.
func Clone(n *html.Node) *html.Node {
	cp := &html.Node{
		Type:     n.Type,
		DataAtom: n.DataAtom,
		Data:     n.Data,
		Attr:     append([]html.Attribute(nil), n.Attr...),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		cp.AppendChild(Clone(c))
	}
	return cp
}

// TextContent concatenates the text nodes under n.
func TextContent(n *html.Node) string {
	var buf strings.Builder
	Walk(n, func(node *html.Node) bool {
		if node.Type == html.TextNode {
			buf.WriteString(node.Data)
		}
		return true
	})
	return buf.String()
}

// Body returns the body element of a parsed document, or nil.
func Body(doc *html.Node) *html.Node {
	return findElement(doc, atom.Body)
}

// Head returns the head element of a parsed document, or nil.
func Head(doc *html.Node) *html.Node {
	return findElement(doc, atom.Head)
}

func findElement(doc *html.Node, a atom.Atom) *html.Node {
	var found *html.Node
	Walk(doc, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && n.DataAtom == a {
			found = n
			return false
		}
		return true
	})
	return found
}

// NewDocument builds a minimal empty HTML document with head and body.
func NewDocument(title string) *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	doctype := &html.Node{Type: html.DoctypeNode, Data: "html"}
	root := Element("html", "")
	head := Element("head", "")
	meta := Element("meta", "")
	SetAttr(meta, "charset", "utf-8")
	titleEl := Element("title", "")
	titleEl.AppendChild(Text(title))
	body := Element("body", "")

	head.AppendChild(meta)
	head.AppendChild(titleEl)
	root.AppendChild(head)
	root.AppendChild(body)
	doc.AppendChild(doctype)
	doc.AppendChild(root)
	return doc
}

// SetTitle replaces the text of the document's <title> element, creating it
// under <head> when missing.
func SetTitle(doc *html.Node, title string) {
	head := Head(doc)
	if head == nil {
		return
	}
	var titleEl *html.Node
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Title {
			titleEl = c
			break
		}
	}
	if titleEl == nil {
		titleEl = Element("title", "")
		head.AppendChild(titleEl)
	}
	RemoveChildren(titleEl)
	titleEl.AppendChild(Text(title))
}
