package transform

import (
	"encoding/base64"

	"golang.org/x/net/html"

	"github.com/docfold/docfold/internal/domutil"
)

// Transclusion content travels base64-encoded in an attribute so it survives
// inline-script transport into the rendering surface without escaping
// hazards. Encoding is applied innermost-first, so a nested transclusion is
// already a childless encoded element when its parent is serialized; decoding
// reverses the process recursively.

// embedClass marks a transclusion container element.
const embedClass = "internal-embed"

// embedContentAttr carries the encoded child markup of a transclusion.
const embedContentAttr = "data-embed-content"

// EncodeEmbedded encodes the content of every transclusion under root,
// deepest first. After encoding, each transclusion element has no children
// and carries its serialized content in data-embed-content.
func EncodeEmbedded(root *html.Node) error {
	return encodeNode(root)
}

func encodeNode(n *html.Node) error {
	// Children first: inner transclusions must be encoded before the outer
	// one serializes them.
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := encodeNode(c); err != nil {
			return err
		}
	}

	if n.Type != html.ElementNode || !domutil.HasClass(n, embedClass) {
		return nil
	}
	if n.FirstChild == nil {
		return nil // unresolved or already encoded
	}

	markup, err := domutil.RenderChildren(n)
	if err != nil {
		return err
	}
	domutil.SetAttr(n, embedContentAttr, base64.StdEncoding.EncodeToString([]byte(markup)))
	domutil.RemoveChildren(n)
	return nil
}

// DecodeEmbedded reverses EncodeEmbedded under root, recursing into decoded
// content so transclusions nested at any depth are restored.
func DecodeEmbedded(root *html.Node) error {
	embeds := domutil.FindAll(root, func(n *html.Node) bool {
		return domutil.HasClass(n, embedClass) && domutil.Attr(n, embedContentAttr) != ""
	})
	for _, el := range embeds {
		raw, err := base64.StdEncoding.DecodeString(domutil.Attr(el, embedContentAttr))
		if err != nil {
			return err
		}
		nodes, err := domutil.ParseFragment(string(raw))
		if err != nil {
			return err
		}
		domutil.RemoveChildren(el)
		for _, n := range nodes {
			el.AppendChild(n)
		}
		domutil.RemoveAttr(el, embedContentAttr)
		// Restored content may itself contain encoded transclusions.
		if err := DecodeEmbedded(el); err != nil {
			return err
		}
	}
	return nil
}
