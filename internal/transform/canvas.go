package transform

import (
	"golang.org/x/net/html"

	"github.com/docfold/docfold/internal/domutil"
)

// canvasSnapshotClass tags images that replaced canvas elements.
const canvasSnapshotClass = "canvas-snapshot"

// ReplaceCanvases swaps every canvas element under root for a static image,
// copying the canvas attributes onto it. Canvases are not portable into the
// downstream rendering surface. A live settle pass snapshots pixel content
// into data-snapshot; without one the image stays empty but keeps layout.
func ReplaceCanvases(root *html.Node) {
	canvases := domutil.FindAll(root, func(n *html.Node) bool {
		return n.Data == "canvas"
	})
	for _, canvas := range canvases {
		img := domutil.Element("img", "")
		for _, attr := range canvas.Attr {
			if attr.Key == "class" {
				continue
			}
			domutil.SetAttr(img, attr.Key, attr.Val)
		}
		if snapshot := domutil.Attr(canvas, "data-snapshot"); snapshot != "" {
			domutil.SetAttr(img, "src", snapshot)
			domutil.RemoveAttr(img, "data-snapshot")
		}
		if class := domutil.Attr(canvas, "class"); class != "" {
			domutil.SetAttr(img, "class", class)
		}
		domutil.AddClass(img, canvasSnapshotClass)

		canvas.Parent.InsertBefore(img, canvas)
		canvas.Parent.RemoveChild(canvas)
	}
}
