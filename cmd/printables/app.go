package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	printables "github.com/alnah/go-printables"
	"github.com/alnah/go-printables/internal/config"
	"github.com/alnah/go-printables/internal/hints"
)

// Command names.
const (
	cmdRender  = "render"
	cmdPreview = "preview"
	cmdBatch   = "batch"
	cmdAsset   = "asset"
	cmdDoctor  = "doctor"
	cmdVersion = "version"
	cmdHelp    = "help"

	cmdCompletion = "completion"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage        = errors.New("invalid usage")
	ErrNoInput      = errors.New("no input specified")
	ErrReadResource = errors.New("failed to read resource file")
	ErrWriteOutput  = errors.New("failed to write output")
	ErrStorage      = errors.New("storage unavailable")
	ErrCancelled    = errors.New("cancelled")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// runMain dispatches a command and returns the process exit code.
func runMain(ctx context.Context, args []string, deps *Dependencies) int {
	if len(args) == 0 {
		printUsage(deps.Stderr)
		return ExitUsage
	}

	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case cmdRender:
		err = runRender(ctx, rest, deps)
	case cmdPreview:
		err = runPreview(ctx, rest, deps)
	case cmdBatch:
		err = runBatch(ctx, rest, deps)
	case cmdAsset:
		err = runAsset(ctx, rest, deps)
	case cmdDoctor:
		err = runDoctor(ctx, rest, deps)
	case cmdCompletion:
		err = runCompletion(rest, deps)
	case cmdVersion, "--version":
		fmt.Fprintf(deps.Stdout, "printables %s\n", Version)
		return ExitSuccess
	case cmdHelp, "-h", "--help":
		runHelp(rest, deps)
		return ExitSuccess
	default:
		fmt.Fprintf(deps.Stderr, "Unknown command: %s\n", cmd)
		printUsage(deps.Stderr)
		return ExitUsage
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled) {
		err = fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	if err != nil {
		printError(deps.Stderr, err)
	}
	return exitCodeFor(err)
}

// printError writes err with an actionable hint when one applies.
func printError(w io.Writer, err error) {
	msg := "error: " + err.Error()
	switch {
	case errors.Is(err, printables.ErrBrowserConnect):
		msg += hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		msg += hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		msg += hints.ForConfigNotFound(nil)
	case errors.Is(err, printables.ErrPresetNotFound):
		msg += hints.ForPresetNotFound(printables.StylePresetNames())
	case errors.Is(err, printables.ErrMissingRequiredAsset):
		msg += hints.ForMissingAsset(nil)
	case errors.Is(err, ErrWriteOutput):
		msg += hints.ForOutputDirectory()
	}
	fmt.Fprintln(w, msg)
}

// setup loads configuration, lets merge apply command flags, validates the
// result, and builds the logger.
func setup(common *commonFlags, deps *Dependencies, merge func(*config.Config) error) (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(common, deps)
	if err != nil {
		return nil, nil, err
	}
	if merge != nil {
		if err := merge(cfg); err != nil {
			return nil, nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(common, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return cfg, logger, nil
}
