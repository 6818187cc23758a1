package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	printables "github.com/alnah/go-printables"
	"github.com/alnah/go-printables/assetstore"
	"github.com/alnah/go-printables/internal/config"
	"github.com/alnah/go-printables/internal/logging"
)

// loadConfig resolves configuration in order of precedence:
// CLI flags (applied by the caller) > env vars > config file > defaults.
func loadConfig(common *commonFlags, deps *Dependencies) (*config.Config, error) {
	env := loadEnvConfig(deps.Getenv)
	if !common.quiet {
		warnUnknownEnvVars(deps.Stderr, deps.Environ())
	}

	path := common.config
	if path == "" {
		path = env.ConfigPath
	}

	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	applyEnvConfig(env, cfg)
	return cfg, nil
}

// newLogger builds the CLI logger. --quiet keeps errors only, --verbose
// turns on debug output.
func newLogger(common *commonFlags, cfg *config.Config) (*zap.Logger, error) {
	level := cfg.Log.Level
	switch {
	case common.verbose:
		level = "debug"
	case common.quiet:
		level = "error"
	}
	return logging.New(cfg.Log.Mode, level)
}

// mergeRenderFlags applies render flags over cfg.
func mergeRenderFlags(f *renderFlags, cfg *config.Config) error {
	if f.backend != "" {
		cfg.Render.Backend = f.backend
	}
	if f.timeout != "" {
		d, err := time.ParseDuration(f.timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: --timeout %q (want a positive duration like 30s)", ErrUsage, f.timeout)
		}
		cfg.Render.Timeout = d
	}
	if f.style != "" {
		cfg.Render.StylePreset = f.style
	}
	if f.presetPath != "" {
		cfg.Render.PresetPath = f.presetPath
	}
	return nil
}

// mergeDocumentFlags applies document flags over cfg. Boolean flags only
// ever switch a feature on (or labels off), so an unset flag never undoes
// the config file.
func mergeDocumentFlags(f *documentFlags, cfg *config.Config) {
	d := &cfg.Document
	if f.cardsPerPage != 0 {
		d.CardsPerPage = f.cardsPerPage
	}
	if f.noLabels {
		off := false
		d.ShowLabels = &off
	}
	if f.noDescriptions {
		off := false
		d.ShowDescriptions = &off
	}
	d.ShowCutLines = d.ShowCutLines || f.cutLines
	d.IncludeCardBacks = d.IncludeCardBacks || f.cardBacks
	d.Booklet = d.Booklet || f.booklet
	d.Watermark = d.Watermark || f.watermark
	if f.orientation != "" {
		d.Orientation = f.orientation
	}
}

// documentOptions converts the document section to library options.
func documentOptions(cfg *config.Config) *printables.DocumentOptions {
	d := cfg.Document
	opts := printables.DefaultDocumentOptions()
	if d.CardsPerPage != 0 {
		opts.CardsPerPage = d.CardsPerPage
	}
	if d.ShowLabels != nil {
		opts.ShowLabels = *d.ShowLabels
	}
	if d.ShowDescriptions != nil {
		opts.ShowDescriptions = *d.ShowDescriptions
	}
	opts.ShowCutLines = d.ShowCutLines
	opts.IncludeCardBacks = d.IncludeCardBacks
	opts.Booklet = d.Booklet
	opts.Orientation = d.Orientation
	opts.Watermark = d.Watermark
	return opts
}

// rendererOptions builds the renderer options for cfg.
func rendererOptions(cfg *config.Config, logger *zap.Logger, now func() time.Time) ([]printables.Option, error) {
	backend, err := printables.ParseBackend(cfg.Render.Backend)
	if err != nil {
		return nil, err
	}
	opts := []printables.Option{
		printables.WithBackend(backend),
		printables.WithLogger(logger.Named("render")),
		printables.WithClock(now),
	}
	if cfg.Render.Timeout > 0 {
		opts = append(opts, printables.WithTimeout(cfg.Render.Timeout))
	}
	return opts, nil
}

// resolveStyle picks the style preset: the --style flag, then the
// resource's own style name, then the configured preset. A style field
// holding a UUID names a stored style, not a preset, and is skipped here.
// Returns nil (the built-in default) when nothing is named.
func resolveStyle(flagStyle, resourceStyle string, cfg *config.Config) (*printables.Style, error) {
	name := flagStyle
	if name == "" && !isUUID(resourceStyle) {
		name = resourceStyle
	}
	if name == "" {
		name = cfg.Render.StylePreset
	}
	if name == "" {
		return nil, nil
	}
	return printables.LoadStylePreset(name, cfg.Render.PresetPath)
}

// ownersFor lists the asset owners of a resource, resource first so its
// own images win over its style's. Ids that are not UUIDs have no stored
// assets.
func ownersFor(resourceID, styleID string) []assetstore.Owner {
	var owners []assetstore.Owner
	if id, err := uuid.Parse(resourceID); err == nil {
		owners = append(owners, assetstore.ResourceOwner(id))
	}
	if id, err := uuid.Parse(styleID); err == nil {
		owners = append(owners, assetstore.StyleOwner(id))
	}
	return owners
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// parseOwner parses "resource:<uuid>" or "style:<uuid>".
func parseOwner(s string) (assetstore.Owner, error) {
	typ, id, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return assetstore.Owner{}, fmt.Errorf("%w: --owner %q (want resource:<uuid> or style:<uuid>)", ErrUsage, s)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return assetstore.Owner{}, fmt.Errorf("%w: --owner %q: %v", ErrUsage, s, err)
	}
	owner := assetstore.Owner{Type: assetstore.OwnerType(strings.ToLower(typ)), ID: parsed}
	if err := owner.Validate(); err != nil {
		return assetstore.Owner{}, err
	}
	return owner, nil
}
