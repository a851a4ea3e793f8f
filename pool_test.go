package docfold

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func testFactory(t *testing.T) func() (*Exporter, error) {
	t.Helper()
	vaultRoot := t.TempDir()
	if err := os.WriteFile(filepath.Join(vaultRoot, "Note.md"), []byte("# Note"), 0o644); err != nil {
		t.Fatal(err)
	}
	return func() (*Exporter, error) {
		return NewExporter(vaultRoot, WithLogger(slog.New(slog.DiscardHandler)))
	}
}

func TestExporterPoolAcquireRelease(t *testing.T) {
	t.Parallel()

	pool := NewExporterPool(2, testFactory(t))
	defer func() { _ = pool.Close() }()

	a, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	b, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if a == b {
		t.Error("pool returned the same exporter twice while both held")
	}

	pool.Release(a)
	c, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	if c != a {
		t.Error("released exporter not reused")
	}
	pool.Release(b)
	pool.Release(c)
}

func TestExporterPoolLazyCreation(t *testing.T) {
	t.Parallel()

	created := 0
	pool := NewExporterPool(3, func() (*Exporter, error) {
		created++
		return testFactory(t)()
	})
	defer func() { _ = pool.Close() }()

	if created != 0 {
		t.Fatalf("created = %d at pool construction, want 0", created)
	}
	exp, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if created != 1 {
		t.Errorf("created = %d after one acquire, want 1", created)
	}
	pool.Release(exp)
}

func TestExporterPoolFactoryFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("launch failed")
	pool := NewExporterPool(1, func() (*Exporter, error) { return nil, boom })
	defer func() { _ = pool.Close() }()

	if _, err := pool.Acquire(); !errors.Is(err, boom) {
		t.Errorf("Acquire() = %v, want factory error", err)
	}

	// A failed creation releases the slot for a retry.
	if _, err := pool.Acquire(); !errors.Is(err, boom) {
		t.Errorf("second Acquire() = %v, want factory error again", err)
	}
}

func TestExporterPoolMinimumSize(t *testing.T) {
	t.Parallel()

	pool := NewExporterPool(0, testFactory(t))
	defer func() { _ = pool.Close() }()

	exp, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	pool.Release(exp)
}

func TestExporterPoolConcurrentAcquire(t *testing.T) {
	t.Parallel()

	pool := NewExporterPool(2, testFactory(t))
	defer func() { _ = pool.Close() }()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			exp, err := pool.Acquire()
			if err != nil {
				t.Error(err)
				return
			}
			pool.Release(exp)
		}()
	}
	wg.Wait()
}

func TestExporterPoolCloseIdempotent(t *testing.T) {
	t.Parallel()

	pool := NewExporterPool(1, testFactory(t))
	exp, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	pool.Release(exp)

	if err := pool.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
