package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alnah/go-printables/assetstore"
)

// defaultAssetKind is the kind used when --kind is not given.
const defaultAssetKind = "image"

// maxUploadSize caps images read by put and edit.
const maxUploadSize = 20 << 20

// assetCommand is a single asset subcommand.
type assetCommand func(ctx context.Context, a *assetEnv, f *assetCmdFlags, args []string) error

// assetEnv is what every asset subcommand works with.
type assetEnv struct {
	deps   *Dependencies
	repo   *assetstore.Repository
	logger *zap.Logger
}

var assetCommands = map[string]assetCommand{
	"put":      assetPut,
	"generate": assetGenerate,
	"edit":     assetEdit,
	"list":     assetList,
	"history":  assetHistory,
	"pin":      assetPin,
	"unpin":    assetUnpin,
	"restore":  assetRestore,
	"prune":    assetPrune,
}

// mutating lists subcommands that write records.
var mutating = map[string]bool{
	"put": true, "generate": true, "edit": true,
	"pin": true, "unpin": true, "restore": true, "prune": true,
}

// runAsset manages stored images and their versions.
func runAsset(ctx context.Context, args []string, deps *Dependencies) error {
	if len(args) == 0 {
		printAssetUsage(deps.Stderr)
		return fmt.Errorf("%w: asset needs a subcommand", ErrUsage)
	}
	sub, rest := args[0], args[1:]
	cmd, ok := assetCommands[sub]
	if !ok {
		printAssetUsage(deps.Stderr)
		return fmt.Errorf("%w: unknown asset subcommand %q", ErrUsage, sub)
	}

	f, positional, err := parseAssetFlags(sub, rest, deps.Stderr)
	if err != nil {
		return err
	}
	cfg, logger, err := setup(&f.common, deps, nil)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if mutating[sub] && !persistentRecords(cfg) {
		logger.Warn("asset records are kept in memory and discarded on exit; set storage.records.driver to sqlite or postgres")
	}

	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	return cmd(ctx, &assetEnv{deps: deps, repo: st.repo, logger: logger}, f, positional)
}

// key builds the asset key from --owner, --kind, and --name.
func (f *assetCmdFlags) key() (assetstore.Key, error) {
	if f.owner == "" || f.name == "" {
		return assetstore.Key{}, fmt.Errorf("%w: --owner and --name are required", ErrUsage)
	}
	owner, err := parseOwner(f.owner)
	if err != nil {
		return assetstore.Key{}, err
	}
	key := assetstore.Key{Owner: owner, Kind: f.kind, Name: f.name}
	return key, key.Validate()
}

func assetPut(ctx context.Context, a *assetEnv, f *assetCmdFlags, args []string) error {
	key, err := f.key()
	if err != nil {
		return err
	}
	data, contentType, err := readImage(a.deps, args, f.contentType)
	if err != nil {
		return err
	}
	id, err := a.repo.UploadVersion(ctx, key, data, contentType)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.deps.Stdout, id)
	return nil
}

func assetGenerate(ctx context.Context, a *assetEnv, f *assetCmdFlags, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: generate takes no arguments, got %d", ErrUsage, len(args))
	}
	key, err := f.key()
	if err != nil {
		return err
	}
	if strings.TrimSpace(f.prompt) == "" {
		return fmt.Errorf("%w: --prompt is required", ErrUsage)
	}
	raw, err := parseKeyValues("param", f.params)
	if err != nil {
		return err
	}
	var params map[string]any
	if len(raw) > 0 {
		params = make(map[string]any, len(raw))
		for k, v := range raw {
			params[k] = typedParam(v)
		}
	}
	id, err := a.repo.GenerateVersion(ctx, key, f.prompt, params)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.deps.Stdout, id)
	return nil
}

func assetEdit(ctx context.Context, a *assetEnv, f *assetCmdFlags, args []string) error {
	key, err := f.key()
	if err != nil {
		return err
	}
	source, err := parseVersionID(f.source, "--source")
	if err != nil {
		return err
	}
	data, contentType, err := readImage(a.deps, args, f.contentType)
	if err != nil {
		return err
	}
	id, err := a.repo.EditVersion(ctx, key, source, data, contentType, f.prompt)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.deps.Stdout, id)
	return nil
}

func assetList(ctx context.Context, a *assetEnv, f *assetCmdFlags, _ []string) error {
	if f.owner == "" {
		return fmt.Errorf("%w: --owner is required", ErrUsage)
	}
	owner, err := parseOwner(f.owner)
	if err != nil {
		return err
	}
	assets, err := a.repo.Assets(ctx, owner)
	if err != nil {
		return err
	}
	w := a.deps.Stdout
	fmt.Fprintf(w, "%-36s  %-12s  %-24s  %-36s  %s\n", "ID", "KIND", "NAME", "CURRENT", "REVISION")
	for _, as := range assets {
		current := "-"
		if as.CurrentVersionID != nil {
			current = as.CurrentVersionID.String()
		}
		fmt.Fprintf(w, "%-36s  %-12s  %-24s  %-36s  %d\n", as.ID, as.Key.Kind, as.Key.Name, current, as.Revision)
	}
	return nil
}

func assetHistory(ctx context.Context, a *assetEnv, f *assetCmdFlags, _ []string) error {
	key, err := f.key()
	if err != nil {
		return err
	}
	asset, err := a.repo.Asset(ctx, key)
	if err != nil {
		return err
	}
	versions, err := a.repo.Versions(ctx, asset.ID)
	if err != nil {
		return err
	}
	w := a.deps.Stdout
	fmt.Fprintf(w, "%-36s  %-20s  %-10s  %-6s  %s\n", "VERSION", "CREATED", "SOURCE", "PINNED", "CURRENT")
	for _, v := range versions {
		current := ""
		if asset.CurrentVersionID != nil && *asset.CurrentVersionID == v.ID {
			current = "*"
		}
		fmt.Fprintf(w, "%-36s  %-20s  %-10s  %-6t  %s\n",
			v.ID, v.CreatedAt.UTC().Format(time.DateTime), v.Provenance, v.Pinned, current)
	}
	return nil
}

func assetPin(ctx context.Context, a *assetEnv, _ *assetCmdFlags, args []string) error {
	id, err := versionArg("pin", args)
	if err != nil {
		return err
	}
	return a.repo.PinVersion(ctx, id)
}

func assetUnpin(ctx context.Context, a *assetEnv, _ *assetCmdFlags, args []string) error {
	id, err := versionArg("unpin", args)
	if err != nil {
		return err
	}
	return a.repo.UnpinVersion(ctx, id)
}

func assetRestore(ctx context.Context, a *assetEnv, _ *assetCmdFlags, args []string) error {
	id, err := versionArg("restore", args)
	if err != nil {
		return err
	}
	asset, err := a.repo.RestoreVersion(ctx, id)
	if err != nil {
		return err
	}
	a.logger.Info("version restored", zap.String("asset", asset.Key.String()), zap.Int64("revision", asset.Revision))
	return nil
}

func assetPrune(ctx context.Context, a *assetEnv, _ *assetCmdFlags, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: prune takes one asset id", ErrUsage)
	}
	id, err := parseVersionID(args[0], "asset id")
	if err != nil {
		return err
	}
	return a.repo.PruneOldVersions(ctx, id)
}

// versionArg parses the single version id argument of cmd.
func versionArg(cmd string, args []string) (uuid.UUID, error) {
	if len(args) != 1 {
		return uuid.Nil, fmt.Errorf("%w: %s takes one version id", ErrUsage, cmd)
	}
	return parseVersionID(args[0], "version id")
}

func parseVersionID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", ErrUsage, what)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s %q: %v", ErrUsage, what, s, err)
	}
	return id, nil
}

// readImage reads the single file argument ("-" for stdin) and settles its
// content type.
func readImage(deps *Dependencies, args []string, contentType string) ([]byte, string, error) {
	if len(args) != 1 {
		return nil, "", fmt.Errorf("%w: expected one image file (- for stdin)", ErrNoInput)
	}

	var r io.Reader = deps.Stdin
	if args[0] != stdoutPath {
		file, err := os.Open(args[0]) // #nosec G304 -- path is user-provided
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrReadResource, err)
		}
		defer func() { _ = file.Close() }()
		r = file
	}
	data, err := io.ReadAll(io.LimitReader(r, maxUploadSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrReadResource, err)
	}
	if len(data) > maxUploadSize {
		return nil, "", fmt.Errorf("%w: image exceeds %d bytes", ErrUsage, maxUploadSize)
	}

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("%w: %s is %s, not an image", assetstore.ErrInvalidVersion, args[0], contentType)
	}
	return data, contentType, nil
}

// typedParam keeps numbers and booleans typed so they round-trip through
// the version's JSON params.
func typedParam(v string) any {
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}
