// Package hostrender is the markdown rendering capability the transformer
// drives. Rendering happens in two phases, mirroring how a live authoring
// environment renders a document: a synchronous phase that produces raw HTML
// nodes, and a post-process phase that resolves links, transclusions and
// other rich content against an explicit processing context.
package hostrender

import (
	"context"
	"errors"

	"golang.org/x/net/html"

	"github.com/docfold/docfold/internal/vault"
)

// ErrCaptureComplete is the short-circuit sentinel a capturing fragment
// target returns from Append once it has recorded the rendered nodes. It is
// a control-flow device, never a failure: callers match it with errors.Is
// and continue. Stopping at the append boundary hands back the synchronous
// output while skipping the renderer's integrated finalize pass, which
// assumes an attached tree.
var ErrCaptureComplete = errors.New("fragment capture complete")

// ErrDetachedFragment indicates the integrated finalize pass was run against
// nodes that were never attached to a document.
var ErrDetachedFragment = errors.New("finalize requires an attached fragment")

// RenderContext states which document is being rendered. It replaces the
// ambient "current active document" a live host would track as mutable
// focus state.
type RenderContext struct {
	Doc        *vault.Document
	SourcePath string
}

// FragmentTarget accepts the nodes produced by the synchronous render phase.
type FragmentTarget interface {
	Append(nodes []*html.Node) error
}

// Renderer is the host render capability.
type Renderer interface {
	// RenderFragment runs the synchronous phase and hands the resulting
	// nodes to target. When target short-circuits with ErrCaptureComplete
	// the integrated finalize pass is skipped and the sentinel is returned.
	RenderFragment(ctx context.Context, rc RenderContext, markdown string, target FragmentTarget) error

	// PostProcess runs the rich post-processing phase against an attached
	// container: link and transclusion resolution, deferred work scheduling.
	PostProcess(ctx context.Context, pc *ProcessContext, container *html.Node) error
}

// CaptureTarget records appended nodes and short-circuits the render.
type CaptureTarget struct {
	nodes []*html.Node
}

// Append records the nodes and returns ErrCaptureComplete.
func (t *CaptureTarget) Append(nodes []*html.Node) error {
	t.nodes = append(t.nodes, nodes...)
	return ErrCaptureComplete
}

// Nodes returns the captured nodes.
func (t *CaptureTarget) Nodes() []*html.Node { return t.nodes }

// Compile-time interface check.
var _ FragmentTarget = (*CaptureTarget)(nil)

// SectionInfo describes the source section an element was rendered from.
// The transformer passes no lookup hook, so implementations must tolerate a
// nil GetSectionInfo.
type SectionInfo struct {
	LineStart int
	LineEnd   int
}

// ProcessContext carries the state of one post-process invocation.
type ProcessContext struct {
	DocID          string
	SourcePath     string
	Frontmatter    map[string]any
	GetSectionInfo func(el *html.Node) *SectionInfo // may be nil

	deferred []func(context.Context) error
}

// Defer schedules a unit of work to run after the synchronous walk.
func (pc *ProcessContext) Defer(fn func(context.Context) error) {
	pc.deferred = append(pc.deferred, fn)
}

// Wait runs every deferred unit of work in order. Individual failures are
// joined, not short-circuited, so one broken embed does not abandon the rest.
func (pc *ProcessContext) Wait(ctx context.Context) error {
	var errs []error
	for _, fn := range pc.deferred {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	pc.deferred = nil
	return errors.Join(errs...)
}
