package surface

import (
	"context"
	"log/slog"
	"testing"

	"github.com/docfold/docfold/internal/domutil"
)

func testManager() *Manager {
	return NewManager(nil, nil, slog.New(slog.DiscardHandler))
}

func TestManagerSurfaceBookkeeping(t *testing.T) {
	t.Parallel()

	m := testManager()
	cleaned := 0
	a := &Surface{Scale: 1, cleanup: func() { cleaned++ }}
	b := &Surface{Scale: 1}
	m.surfaces = []*Surface{a, b}

	got := m.Surfaces()
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("Surfaces() = %v, want [a b] in attach order", got)
	}

	// The returned slice is a copy; callers cannot mutate manager state.
	got[0] = nil
	if again := m.Surfaces(); again[0] != a {
		t.Error("Surfaces() shares its backing array with callers")
	}

	m.Clear()
	if len(m.Surfaces()) != 0 {
		t.Error("Clear() left surfaces behind")
	}
	if cleaned != 1 {
		t.Errorf("cleanup ran %d times, want 1", cleaned)
	}

	// Clearing an empty manager is a no-op.
	m.Clear()
	if cleaned != 1 {
		t.Errorf("second Clear() reran cleanup, count = %d", cleaned)
	}
}

func TestResizeAllComputesScale(t *testing.T) {
	t.Parallel()

	m := testManager()

	// A4 width (210mm = 793.7px) in a 1000px container: floor to 0.79.
	if got := m.ResizeAll(context.Background(), 210, 1000); got != 0.79 {
		t.Errorf("ResizeAll(210, 1000) = %g, want 0.79", got)
	}
	// Unknown container width falls back to full scale.
	if got := m.ResizeAll(context.Background(), 210, 0); got != 1 {
		t.Errorf("ResizeAll(210, 0) = %g, want 1", got)
	}
}

func TestApplyScaleIgnoresNonPositive(t *testing.T) {
	t.Parallel()

	s := &Surface{Scale: 1}
	if err := s.applyScale(context.Background(), 0); err != nil {
		t.Errorf("applyScale(0) error = %v, want nil", err)
	}
}

func TestForceLightTheme(t *testing.T) {
	t.Parallel()

	doc := domutil.NewDocument("t")
	body := domutil.Body(doc)
	domutil.AddClass(body, "theme-dark")

	forceLightTheme(doc)
	if domutil.HasClass(body, "theme-dark") {
		t.Error("theme-dark class survived")
	}
	if !domutil.HasClass(body, "theme-light") {
		t.Error("theme-light class missing")
	}
}
