package main

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay batches the bursts of events editors emit per save.
const debounceDelay = 500 * time.Millisecond

// watchAndRun exports once, then re-exports whenever a markdown file under
// the vault changes, until the context is canceled.
func watchAndRun(ctx context.Context, flags *cliFlags, args []string, log *slog.Logger) error {
	if err := run(ctx, flags, args, log); err != nil {
		log.Error("export failed", "error", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	vaultRoot := args[0]
	if err := addRecursive(watcher, vaultRoot); err != nil {
		return err
	}
	log.Info("watching for changes", "root", vaultRoot)

	var timer *time.Timer
	pending := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				// New directories must be watched as they appear.
				_ = addRecursive(watcher, event.Name)
			}
			if !isMarkdown(event.Name) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceDelay, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)

		case <-pending:
			log.Info("change detected, re-exporting")
			if err := run(ctx, flags, args, log); err != nil {
				log.Error("export failed", "error", err)
			}
		}
	}
}

// addRecursive watches path and every directory below it. Non-directories
// are ignored.
func addRecursive(watcher *fsnotify.Watcher, path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil //nolint:nilerr // unreadable entries are skipped, not fatal
		}
		if strings.HasPrefix(d.Name(), ".") && p != path {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
}

func isMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}
