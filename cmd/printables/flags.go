package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// renderFlags select the backend and style.
type renderFlags struct {
	backend    string
	timeout    string
	style      string
	presetPath string
}

// documentFlags mirror printables.DocumentOptions.
type documentFlags struct {
	cardsPerPage   int
	noLabels       bool
	noDescriptions bool
	cutLines       bool
	cardBacks      bool
	booklet        bool
	orientation    string
	watermark      bool
}

// assetMapFlags supply or override image sources.
type assetMapFlags struct {
	assets  []string // key=source
	styleID string   // style owner for repository lookups
}

// renderCmdFlags holds all flags for render and preview.
type renderCmdFlags struct {
	common   commonFlags
	output   string
	render   renderFlags
	document documentFlags
	assets   assetMapFlags
}

// batchCmdFlags holds all flags for the batch command.
type batchCmdFlags struct {
	common   commonFlags
	output   string
	workers  int
	only     []string
	render   renderFlags
	document documentFlags
	assets   assetMapFlags
}

// assetCmdFlags holds flags for the asset subcommands.
type assetCmdFlags struct {
	common      commonFlags
	owner       string
	kind        string
	name        string
	prompt      string
	params      []string
	contentType string
	source      string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
}

// addRenderFlags adds backend and style flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVarP(&f.backend, "backend", "b", "", "output backend: native or chrome")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-document timeout (e.g., 30s, 2m)")
	fs.StringVarP(&f.style, "style", "s", "", "style preset name")
	fs.StringVar(&f.presetPath, "preset-path", "", "directory with custom style presets")
}

// addDocumentFlags adds document option flags to a FlagSet.
func addDocumentFlags(fs *flag.FlagSet, f *documentFlags) {
	fs.IntVar(&f.cardsPerPage, "cards-per-page", 0, "cards per page: 4, 6, or 9")
	fs.BoolVar(&f.noLabels, "no-labels", false, "hide card labels")
	fs.BoolVar(&f.noDescriptions, "no-descriptions", false, "hide card descriptions")
	fs.BoolVar(&f.cutLines, "cut-lines", false, "draw dashed cut lines between cards")
	fs.BoolVar(&f.cardBacks, "card-backs", false, "add mirrored back sheets for duplex printing")
	fs.BoolVar(&f.booklet, "booklet", false, "impose book pages as a folded booklet")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait or landscape")
	fs.BoolVar(&f.watermark, "watermark", false, "overlay a watermark on every page")
}

// addAssetMapFlags adds image source flags to a FlagSet.
func addAssetMapFlags(fs *flag.FlagSet, f *assetMapFlags) {
	fs.StringArrayVarP(&f.assets, "asset", "a", nil, "image source for an asset key (key=path|url), repeatable")
	fs.StringVar(&f.styleID, "style-id", "", "style id whose stored assets back the resource's")
}

// newFlagSet creates a FlagSet that reports errors instead of exiting.
func newFlagSet(name string, w io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() { usage(w) }
	return fs
}

// parseError keeps flag.ErrHelp intact and marks everything else as usage.
func parseError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUsage, err)
}

// renderFlagSet registers render and preview flags.
func renderFlagSet(name string, w io.Writer) (*flag.FlagSet, *renderCmdFlags) {
	usage := printRenderUsage
	if name == cmdPreview {
		usage = printPreviewUsage
	}
	fs := newFlagSet(name, w, usage)
	f := &renderCmdFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory (- for stdout)")
	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)
	addDocumentFlags(fs, &f.document)
	addAssetMapFlags(fs, &f.assets)
	return fs, f
}

// parseRenderFlags parses render and preview flags and returns positional args.
func parseRenderFlags(name string, args []string, w io.Writer) (*renderCmdFlags, []string, error) {
	fs, f := renderFlagSet(name, w)
	if err := fs.Parse(args); err != nil {
		return nil, nil, parseError(err)
	}
	return f, fs.Args(), nil
}

// batchFlagSet registers batch flags.
func batchFlagSet(w io.Writer) (*flag.FlagSet, *batchCmdFlags) {
	fs := newFlagSet(cmdBatch, w, printBatchUsage)
	f := &batchCmdFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "zip archive path")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringSliceVar(&f.only, "only", nil, "export only these resource ids")
	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)
	addDocumentFlags(fs, &f.document)
	addAssetMapFlags(fs, &f.assets)
	return fs, f
}

// parseBatchFlags parses batch command flags and returns positional args.
func parseBatchFlags(args []string, w io.Writer) (*batchCmdFlags, []string, error) {
	fs, f := batchFlagSet(w)
	if err := fs.Parse(args); err != nil {
		return nil, nil, parseError(err)
	}
	return f, fs.Args(), nil
}

// assetFlagSet registers the flags of one asset subcommand.
func assetFlagSet(sub string, w io.Writer) (*flag.FlagSet, *assetCmdFlags) {
	fs := newFlagSet("asset "+sub, w, func(w io.Writer) { printAssetUsage(w) })
	f := &assetCmdFlags{}

	addCommonFlags(fs, &f.common)
	switch sub {
	case "put", "generate", "edit", "history":
		fs.StringVar(&f.owner, "owner", "", "owner as resource:<uuid> or style:<uuid>")
		fs.StringVar(&f.kind, "kind", defaultAssetKind, "asset kind")
		fs.StringVar(&f.name, "name", "", "asset name referenced by content")
	case "list":
		fs.StringVar(&f.owner, "owner", "", "owner as resource:<uuid> or style:<uuid>")
	}
	switch sub {
	case "put", "edit":
		fs.StringVar(&f.contentType, "content-type", "", "image content type (detected when empty)")
	case "generate":
		fs.StringVarP(&f.prompt, "prompt", "p", "", "generation prompt")
		fs.StringArrayVar(&f.params, "param", nil, "generation parameter key=value, repeatable")
	}
	if sub == "edit" {
		fs.StringVar(&f.source, "source", "", "version id the edit derives from")
		fs.StringVarP(&f.prompt, "prompt", "p", "", "edit instruction")
	}
	return fs, f
}

// parseAssetFlags parses flags for one asset subcommand.
func parseAssetFlags(sub string, args []string, w io.Writer) (*assetCmdFlags, []string, error) {
	fs, f := assetFlagSet(sub, w)
	if err := fs.Parse(args); err != nil {
		return nil, nil, parseError(err)
	}
	return f, fs.Args(), nil
}

// parseKeyValues splits repeated key=value flags.
func parseKeyValues(flagName string, pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: --%s %q (want key=value)", ErrUsage, flagName, p)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}
