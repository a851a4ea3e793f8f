package surface

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docfold/docfold/internal/fileutil"
	"github.com/docfold/docfold/internal/transform"
)

// Settle timing. Embedded content that renders asynchronously gets a fixed
// head start, then the DOM must stay mutation-free for the quiet interval,
// bounded by the overall timeout. Timeouts degrade to the fallback delay and
// continue; a slow embed never fails an export.
const (
	EmbedStartDelay = 2000 * time.Millisecond
	QuietInterval   = 500 * time.Millisecond
	SettleTimeout   = 10 * time.Second
	FallbackDelay   = 500 * time.Millisecond
)

// quiesceScript resolves "quiet" once no DOM mutations occur for quietMs, or
// "timeout" after timeoutMs.
const quiesceScript = `(quietMs, timeoutMs) => {
	return new Promise((resolve) => {
		let quietTimer = setTimeout(() => finish("quiet"), quietMs);
		const hardTimer = setTimeout(() => finish("timeout"), timeoutMs);
		const obs = new MutationObserver(() => {
			clearTimeout(quietTimer);
			quietTimer = setTimeout(() => finish("quiet"), quietMs);
		});
		function finish(result) {
			obs.disconnect();
			clearTimeout(quietTimer);
			clearTimeout(hardTimer);
			resolve(result);
		}
		obs.observe(document.documentElement, {
			childList: true, attributes: true, characterData: true,
			subtree: true
		});
	});
}`

// snapshotCanvasesScript records each canvas's pixel content as a data URL
// on the element, for the Go-side replacement with a static image.
const snapshotCanvasesScript = `() => {
	let count = 0;
	for (const canvas of document.querySelectorAll("canvas")) {
		try {
			canvas.dataset.snapshot = canvas.toDataURL("image/png");
			count++;
		} catch (e) {
			// Tainted canvases cannot be exported; leave them unannotated.
		}
	}
	return count;
}`

// SettleRunner loads a serialized document into a live page, waits for DOM
// mutation activity to quiesce, snapshots canvases, and returns the settled
// markup. It implements transform.Settler.
type SettleRunner struct {
	browser *Browser
	log     *slog.Logger
}

// Compile-time interface check.
var _ transform.Settler = (*SettleRunner)(nil)

// NewSettleRunner creates a settle runner over a shared browser.
func NewSettleRunner(browser *Browser, log *slog.Logger) *SettleRunner {
	if log == nil {
		log = slog.Default()
	}
	return &SettleRunner{browser: browser, log: log}
}

// Settle renders htmlDoc in a live page and returns its markup once mutation
// activity has quiesced. On quiescence timeout it waits the fallback delay
// and proceeds with whatever the page holds, logging a warning.
func (r *SettleRunner) Settle(ctx context.Context, htmlDoc string, waitForEmbeds bool) (string, error) {
	tmpPath, cleanup, err := fileutil.WriteTempFile(htmlDoc, "html")
	if err != nil {
		return "", err
	}
	defer cleanup()

	page, err := r.browser.Page("file://" + tmpPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = page.Close() }()

	if err := page.Timeout(r.browser.Timeout()).WaitLoad(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if waitForEmbeds {
		if err := sleepCtx(ctx, EmbedStartDelay); err != nil {
			return "", err
		}
	}

	res, err := page.Context(ctx).Eval(quiesceScript, QuietInterval.Milliseconds(), SettleTimeout.Milliseconds())
	if err != nil {
		return "", fmt.Errorf("waiting for DOM quiescence: %w", err)
	}
	if res.Value.Str() == "timeout" {
		r.log.Warn("DOM did not quiesce before timeout, continuing after fallback delay",
			"timeout", SettleTimeout, "fallback", FallbackDelay)
		if err := sleepCtx(ctx, FallbackDelay); err != nil {
			return "", err
		}
	}

	if _, err := page.Context(ctx).Eval(snapshotCanvasesScript); err != nil {
		r.log.Warn("canvas snapshot failed", "error", err)
	}

	html, err := page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("reading settled document: %w", err)
	}
	return "<!DOCTYPE html>\n" + html.Value.Str(), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
