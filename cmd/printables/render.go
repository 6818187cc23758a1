package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	printables "github.com/alnah/go-printables"
	"github.com/alnah/go-printables/assetstore"
	"github.com/alnah/go-printables/internal/config"
	"github.com/alnah/go-printables/internal/fileutil"
)

// stdoutPath writes the output to standard output.
const stdoutPath = "-"

// runRender renders one resource file to PDF.
func runRender(ctx context.Context, args []string, deps *Dependencies) error {
	return renderCommand(ctx, cmdRender, args, deps)
}

// runPreview renders one resource file to its HTML preview.
func runPreview(ctx context.Context, args []string, deps *Dependencies) error {
	return renderCommand(ctx, cmdPreview, args, deps)
}

func renderCommand(ctx context.Context, name string, args []string, deps *Dependencies) error {
	f, positional, err := parseRenderFlags(name, args, deps.Stderr)
	if err != nil {
		return err
	}
	switch len(positional) {
	case 0:
		return fmt.Errorf("%w: %s needs a resource file", ErrNoInput, name)
	case 1:
	default:
		return fmt.Errorf("%w: %s takes one resource file, got %d", ErrUsage, name, len(positional))
	}

	cfg, logger, err := setup(&f.common, deps, func(cfg *config.Config) error {
		if err := mergeRenderFlags(&f.render, cfg); err != nil {
			return err
		}
		mergeDocumentFlags(&f.document, cfg)
		return nil
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	inputPath := positional[0]
	res, err := readResource(inputPath)
	if err != nil {
		return err
	}
	style, err := resolveStyle(f.render.style, res.StyleID, cfg)
	if err != nil {
		return err
	}
	owners := ownersFor(res.ID, firstNonEmpty(f.assets.styleID, res.StyleID))
	assets, err := resolveAssets(ctx, cfg, logger, owners, f.assets.assets)
	if err != nil {
		return err
	}

	opts, err := rendererOptions(cfg, logger, deps.Now)
	if err != nil {
		return err
	}
	r, err := printables.NewRenderer(opts...)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	docOpts := documentOptions(cfg)
	stem := outputStem(res, inputPath)

	if name == cmdPreview {
		html, err := r.Preview(ctx, res.Content, assets, style, docOpts)
		if err != nil {
			return err
		}
		path := resolveOutputPath(f.output, cfg, stem, ".html")
		if err := writeOutput(deps, path, []byte(html)); err != nil {
			return err
		}
		if !f.common.quiet && path != stdoutPath {
			fmt.Fprintf(deps.Stdout, "%s\n", path)
		}
		return nil
	}

	result, err := r.Build(ctx, res.Content, assets, style, docOpts)
	if err != nil {
		return err
	}
	path := resolveOutputPath(f.output, cfg, stem, ".pdf")
	if err := writeOutput(deps, path, result.PDF); err != nil {
		return err
	}
	if f.common.quiet {
		return nil
	}
	status := statusWriter(deps, path)
	if len(result.MissingAssets) > 0 {
		fmt.Fprintf(status, "warning: placeholders drawn for %s\n", strings.Join(result.MissingAssets, ", "))
	}
	if path != stdoutPath {
		fmt.Fprintf(status, "%s (%d pages)\n", path, result.Pages)
	}
	return nil
}

// readResource decodes a resource file.
func readResource(path string) (*printables.Resource, error) {
	file, err := os.Open(path) // #nosec G304 -- path is user-provided
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadResource, err)
	}
	defer func() { _ = file.Close() }()

	res, err := printables.DecodeResource(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// resolveAssets merges stored images for owners with --asset overrides,
// overrides winning. In-memory records start empty on every run, so the
// repository is only consulted when records persist.
func resolveAssets(ctx context.Context, cfg *config.Config, logger *zap.Logger, owners []assetstore.Owner, overrides []string) (printables.AssetMap, error) {
	flagAssets, err := parseKeyValues("asset", overrides)
	if err != nil {
		return nil, err
	}

	assets := printables.AssetMap{}
	if len(owners) > 0 && persistentRecords(cfg) {
		st, err := openStorage(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		defer func() { _ = st.Close() }()

		resolved, err := st.repo.Resolve(ctx, owners...)
		if err != nil {
			return nil, fmt.Errorf("resolving assets: %w", err)
		}
		maps.Copy(assets, resolved)
	}
	maps.Copy(assets, flagAssets)
	return assets, nil
}

func persistentRecords(cfg *config.Config) bool {
	d := strings.ToLower(cfg.Storage.Records.Driver)
	return d != "" && d != "memory"
}

// outputStem names output files after the resource, falling back to the
// input file name.
func outputStem(res *printables.Resource, inputPath string) string {
	if res.Name == "" && res.ID == "" {
		base := filepath.Base(inputPath)
		return fileutil.SafeFilename(strings.TrimSuffix(base, filepath.Ext(base)))
	}
	return fileutil.SafeFilename(strings.TrimSuffix(res.Filename(), ".pdf"))
}

// resolveOutputPath picks the output file. A flag ending in ext is a file,
// any other flag value a directory; without a flag the configured output
// directory (or the current one) is used.
func resolveOutputPath(flagOutput string, cfg *config.Config, stem, ext string) string {
	switch {
	case flagOutput == stdoutPath:
		return stdoutPath
	case strings.EqualFold(filepath.Ext(flagOutput), ext):
		return flagOutput
	case flagOutput != "":
		return filepath.Join(flagOutput, stem+ext)
	}
	return filepath.Join(cfg.Render.OutputDir, stem+ext)
}

// writeOutput writes data to path, creating parent directories, or to
// stdout for "-".
func writeOutput(deps *Dependencies, path string, data []byte) error {
	if path == stdoutPath {
		if _, err := deps.Stdout.Write(data); err != nil {
			return fmt.Errorf("%w: stdout: %v", ErrWriteOutput, err)
		}
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
	}
	if err := os.WriteFile(path, data, filePermissions); err != nil { // #nosec G306 -- output is meant to be shared
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return nil
}

// statusWriter keeps stdout clean when it carries the document.
func statusWriter(deps *Dependencies, path string) io.Writer {
	if path == stdoutPath {
		return deps.Stderr
	}
	return deps.Stdout
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
