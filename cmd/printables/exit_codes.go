package main

import (
	"errors"
	"os"

	printables "github.com/alnah/go-printables"
	"github.com/alnah/go-printables/assetstore"
	"github.com/alnah/go-printables/blobstore"
	"github.com/alnah/go-printables/internal/config"
	"github.com/alnah/go-printables/internal/locks"
)

// Exit codes for the printables CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess      = 0   // Successful run
	ExitGeneral      = 1   // General/unexpected error
	ExitUsage        = 2   // Invalid flags, config, or validation
	ExitIO           = 3   // File not found, permission denied, storage unreachable
	ExitBrowser      = 4   // Browser/Chrome errors
	ExitMissingAsset = 5   // A required image has no current version
	ExitCancelled    = 130 // Interrupted by a signal
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, ErrCancelled) {
		return ExitCancelled
	}

	// Missing images (exit 5)
	if errors.Is(err, printables.ErrMissingRequiredAsset) {
		return ExitMissingAsset
	}

	// Browser errors (exit 4)
	if errors.Is(err, printables.ErrBrowserConnect) ||
		errors.Is(err, printables.ErrPageCreate) ||
		errors.Is(err, printables.ErrPageLoad) ||
		errors.Is(err, printables.ErrPDFGeneration) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadResource) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrStorage) ||
		errors.Is(err, assetstore.ErrNotFound) ||
		errors.Is(err, assetstore.ErrBlobNotFound) ||
		errors.Is(err, locks.ErrLockBackend) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, printables.ErrUnsupportedKind) ||
		errors.Is(err, printables.ErrEmptyContent) ||
		errors.Is(err, printables.ErrInvalidContent) ||
		errors.Is(err, printables.ErrInvalidCardsPerPage) ||
		errors.Is(err, printables.ErrInvalidOrientation) ||
		errors.Is(err, printables.ErrInvalidBackend) ||
		errors.Is(err, printables.ErrInvalidStyle) ||
		errors.Is(err, printables.ErrInvalidColor) ||
		errors.Is(err, printables.ErrInvalidTextPosition) ||
		errors.Is(err, printables.ErrPresetNotFound) ||
		errors.Is(err, printables.ErrInvalidAssetPath) ||
		errors.Is(err, assetstore.ErrInvalidKey) ||
		errors.Is(err, assetstore.ErrInvalidVersion) ||
		errors.Is(err, assetstore.ErrNoGenerator) ||
		errors.Is(err, blobstore.ErrInvalidKey) {
		return ExitUsage
	}

	return ExitGeneral
}
