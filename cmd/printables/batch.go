package main

import (
	"context"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	printables "github.com/alnah/go-printables"
	"github.com/alnah/go-printables/batch"
	"github.com/alnah/go-printables/internal/config"
)

// defaultArchiveName is used when --output names no archive.
const defaultArchiveName = "printables.zip"

// resourceExtensions are the file types batch picks up from directories.
var resourceExtensions = []string{".yaml", ".yml", ".json"}

// runBatch renders many resource files into one zip archive.
func runBatch(ctx context.Context, args []string, deps *Dependencies) error {
	f, positional, err := parseBatchFlags(args, deps.Stderr)
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		return fmt.Errorf("%w: batch needs resource files or directories", ErrNoInput)
	}
	if f.workers < 0 {
		return fmt.Errorf("%w: --workers must be positive, got %d", ErrUsage, f.workers)
	}

	cfg, logger, err := setup(&f.common, deps, func(cfg *config.Config) error {
		if err := mergeRenderFlags(&f.render, cfg); err != nil {
			return err
		}
		mergeDocumentFlags(&f.document, cfg)
		if f.workers > 0 {
			cfg.Render.Workers = f.workers
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	files, err := discoverResources(positional)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no %s files in %s", ErrNoInput, strings.Join(resourceExtensions, "/"), strings.Join(positional, ", "))
	}

	overrides, err := parseKeyValues("asset", f.assets.assets)
	if err != nil {
		return err
	}
	items, err := loadItems(files, f.render.style, f.assets.styleID, cfg, overrides)
	if err != nil {
		return err
	}

	workers := printables.ResolvePoolSize(cfg.Render.Workers)
	opts, err := rendererOptions(cfg, logger, deps.Now)
	if err != nil {
		return err
	}
	pool := printables.NewRendererPool(workers, opts...)
	defer func() { _ = pool.Close() }()

	output := resolveArchivePath(f.output, cfg)
	status := statusWriter(deps, output)
	sessionOpts := []batch.Option{
		batch.WithWorkers(workers),
		batch.WithLogger(logger.Named("batch")),
		batch.WithProgressFunc(func(p batch.Progress) {
			if f.common.quiet {
				return
			}
			if p.Err != nil {
				fmt.Fprintf(status, "[%d/%d] %s: FAILED: %v\n", p.Current, p.Total, p.Name, p.Err)
				return
			}
			fmt.Fprintf(status, "[%d/%d] %s\n", p.Current, p.Total, p.Name)
		}),
	}
	if persistentRecords(cfg) {
		st, err := openStorage(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()
		sessionOpts = append(sessionOpts, batch.WithResolver(withOverrides(batch.RepositoryResolver(st.repo), overrides)))
	}

	session, err := batch.NewSession(items, pool, sessionOpts...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	defer session.Exit()

	if len(f.only) > 0 {
		err = session.Select(f.only...)
	} else {
		err = session.SelectAll()
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	task, err := session.StartExport(ctx, documentOptions(cfg))
	if err != nil {
		return err
	}
	logger.Debug("export started", zap.Int("items", len(session.Selected())), zap.Int("workers", workers))

	res := task.Wait()
	if res.State == batch.StateCancelled {
		return fmt.Errorf("%w: export stopped after %d of %d resources, nothing written", ErrCancelled, len(res.Items), len(session.Selected()))
	}
	if res.Exported() > 0 {
		if err := writeOutput(deps, output, res.Archive); err != nil {
			return err
		}
	}
	if !f.common.quiet {
		fmt.Fprintf(status, "%d exported, %d failed", res.Exported(), res.Failed())
		if res.Exported() > 0 && output != stdoutPath {
			fmt.Fprintf(status, " -> %s", output)
		}
		fmt.Fprintln(status)
	}

	return firstItemError(res)
}

// discoverResources expands directories into the resource files they
// contain, recursively and in lexical order. Files given directly are kept
// whatever their extension.
func discoverResources(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadResource, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("scanning %s: %w", path, err)
			}
			if d.IsDir() {
				return nil
			}
			if slices.Contains(resourceExtensions, strings.ToLower(filepath.Ext(path))) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// loadItems decodes every file into a batch item. Styles are loaded once
// per preset name.
func loadItems(files []string, flagStyle, flagStyleID string, cfg *config.Config, overrides printables.AssetMap) ([]batch.Item, error) {
	styles := map[string]*printables.Style{}
	items := make([]batch.Item, 0, len(files))
	for _, path := range files {
		res, err := readResource(path)
		if err != nil {
			return nil, err
		}

		styleKey := flagStyle + "\x00" + res.StyleID
		style, ok := styles[styleKey]
		if !ok {
			style, err = resolveStyle(flagStyle, res.StyleID, cfg)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			styles[styleKey] = style
		}

		stem := outputStem(res, path)
		id := res.ID
		if id == "" {
			id = stem
		}
		items = append(items, batch.Item{
			ID:      id,
			Name:    stem,
			Content: res.Content,
			Style:   style,
			Assets:  overrides,
			Owners:  ownersFor(res.ID, firstNonEmpty(flagStyleID, res.StyleID)),
		})
	}
	return items, nil
}

// withOverrides lays --asset sources over what inner resolves, matching
// the precedence of the render command.
func withOverrides(inner batch.AssetResolver, overrides printables.AssetMap) batch.AssetResolver {
	return batch.ResolverFunc(func(ctx context.Context, item batch.Item) (printables.AssetMap, error) {
		resolved, err := inner.ResolveAssets(ctx, item)
		if err != nil {
			return nil, err
		}
		out := maps.Clone(resolved)
		if out == nil {
			out = printables.AssetMap{}
		}
		maps.Copy(out, overrides)
		return out, nil
	})
}

// resolveArchivePath picks the zip path: a flag ending in .zip is the
// file, any other flag value a directory.
func resolveArchivePath(flagOutput string, cfg *config.Config) string {
	switch {
	case flagOutput == stdoutPath:
		return stdoutPath
	case strings.EqualFold(filepath.Ext(flagOutput), ".zip"):
		return flagOutput
	case flagOutput != "":
		return filepath.Join(flagOutput, defaultArchiveName)
	}
	return filepath.Join(cfg.Render.OutputDir, defaultArchiveName)
}

// firstItemError reports partial failure with the first item's error, so
// the exit code reflects what went wrong.
func firstItemError(res *batch.Result) error {
	for _, it := range res.Items {
		if it.Err != nil {
			return fmt.Errorf("%d of %d resources failed, first %s: %w", res.Failed(), len(res.Items), it.Name, it.Err)
		}
	}
	return nil
}
