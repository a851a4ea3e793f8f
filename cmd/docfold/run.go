package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/docfold/docfold"
)

var errUsage = errors.New("usage: docfold [flags] <vault-dir> <document-or-folder>...")

// buildLogger creates the CLI's structured logger at the level the verbosity
// flags request.
func buildLogger(verbose, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// outputResolver picks destinations from the --output flag: a path ending in
// .pdf is a fixed single-file destination, anything else is treated as a
// directory receiving suggested filenames.
type outputResolver struct {
	target string
}

func (r outputResolver) SingleFile(suggested string) (string, bool) {
	if strings.HasSuffix(strings.ToLower(r.target), ".pdf") {
		return r.target, true
	}
	return filepath.Join(r.target, suggested), true
}

func (r outputResolver) Directory() (string, bool) {
	if strings.HasSuffix(strings.ToLower(r.target), ".pdf") {
		return filepath.Dir(r.target), true
	}
	return r.target, true
}

// run performs one export per input reference, concurrently when --workers
// allows, and returns the first aggregated error.
func run(ctx context.Context, flags *cliFlags, args []string, log *slog.Logger) error {
	if len(args) < 2 {
		return errUsage
	}
	vaultRoot, refs := args[0], args[1:]

	cfg := flags.exportConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	pool := docfold.NewExporterPool(flags.workers, func() (*docfold.Exporter, error) {
		return docfold.NewExporter(vaultRoot,
			docfold.WithLogger(log),
			docfold.WithSnippetDir(flags.snippetDir),
			docfold.WithConfigPath(flags.configPath),
		)
	})
	defer func() {
		if err := pool.Close(); err != nil {
			log.Warn("closing exporters", "error", err)
		}
	}()

	resolver := outputResolver{target: flags.output}
	errs := make([]error, len(refs))
	var wg sync.WaitGroup
	for i, ref := range refs {
		wg.Add(1)
		go func(i int, ref string) {
			defer wg.Done()
			errs[i] = exportOne(ctx, pool, cfg, ref, resolver)
		}(i, ref)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// exportOne runs a full render-export session for one reference.
func exportOne(ctx context.Context, pool *docfold.ExporterPool, cfg *docfold.ExportConfig, ref string, resolver docfold.OutputResolver) error {
	exp, err := pool.Acquire()
	if err != nil {
		return err
	}
	defer pool.Release(exp)

	session, err := exp.NewSession(cfg)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Render(ctx, ref); err != nil {
		return fmt.Errorf("rendering %q: %w", ref, err)
	}
	if _, err := session.Export(ctx, resolver); err != nil {
		return fmt.Errorf("exporting %q: %w", ref, err)
	}
	return nil
}
