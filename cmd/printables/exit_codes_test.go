package main

// Notes:
// - exitCodeFor: we test the sentinel errors of every package the CLI
//   touches, plus wrapped errors to verify errors.Is() chain works correctly.
// - Exit code constants: we verify Unix conventions (0=success, 1=general, 2=usage)
//   and custom codes are below 126, except the conventional 130 for SIGINT.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"errors"
	"fmt"
	"os"
	"testing"

	printables "github.com/alnah/go-printables"
	"github.com/alnah/go-printables/assetstore"
	"github.com/alnah/go-printables/blobstore"
	"github.com/alnah/go-printables/internal/config"
	"github.com/alnah/go-printables/internal/locks"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		// Success
		{"nil error", nil, ExitSuccess},

		// Cancelled
		{"cancelled", ErrCancelled, ExitCancelled},
		{"wrapped cancelled", fmt.Errorf("batch: %w", ErrCancelled), ExitCancelled},

		// Missing images (exit 5)
		{"missing required asset", printables.ErrMissingRequiredAsset, ExitMissingAsset},
		{"wrapped missing asset", fmt.Errorf("1 of 2 failed: %w", printables.ErrMissingRequiredAsset), ExitMissingAsset},

		// Browser errors (exit 4)
		{"browser connect", printables.ErrBrowserConnect, ExitBrowser},
		{"page create", printables.ErrPageCreate, ExitBrowser},
		{"page load", printables.ErrPageLoad, ExitBrowser},
		{"pdf generation", printables.ErrPDFGeneration, ExitBrowser},

		// I/O errors (exit 3)
		{"file not exist", os.ErrNotExist, ExitIO},
		{"permission denied", os.ErrPermission, ExitIO},
		{"read resource", ErrReadResource, ExitIO},
		{"write output", ErrWriteOutput, ExitIO},
		{"no input", ErrNoInput, ExitIO},
		{"storage", ErrStorage, ExitIO},
		{"record not found", assetstore.ErrNotFound, ExitIO},
		{"blob not found", assetstore.ErrBlobNotFound, ExitIO},
		{"lock backend", locks.ErrLockBackend, ExitIO},
		{"wrapped file not exist", fmt.Errorf("%w: %w", ErrReadResource, os.ErrNotExist), ExitIO},

		// Usage/config/validation errors (exit 2)
		{"usage", ErrUsage, ExitUsage},
		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"field too long", config.ErrFieldTooLong, ExitUsage},
		{"invalid config value", config.ErrInvalidValue, ExitUsage},
		{"unsupported kind", printables.ErrUnsupportedKind, ExitUsage},
		{"empty content", printables.ErrEmptyContent, ExitUsage},
		{"invalid content", printables.ErrInvalidContent, ExitUsage},
		{"invalid cards per page", printables.ErrInvalidCardsPerPage, ExitUsage},
		{"invalid orientation", printables.ErrInvalidOrientation, ExitUsage},
		{"invalid backend", printables.ErrInvalidBackend, ExitUsage},
		{"invalid style", printables.ErrInvalidStyle, ExitUsage},
		{"invalid color", printables.ErrInvalidColor, ExitUsage},
		{"invalid text position", printables.ErrInvalidTextPosition, ExitUsage},
		{"preset not found", printables.ErrPresetNotFound, ExitUsage},
		{"invalid asset path", printables.ErrInvalidAssetPath, ExitUsage},
		{"invalid asset key", assetstore.ErrInvalidKey, ExitUsage},
		{"invalid version", assetstore.ErrInvalidVersion, ExitUsage},
		{"no generator", assetstore.ErrNoGenerator, ExitUsage},
		{"invalid blob key", blobstore.ErrInvalidKey, ExitUsage},
		{"wrapped config not found", fmt.Errorf("loading: %w", config.ErrConfigNotFound), ExitUsage},

		// General errors (exit 1)
		{"unknown error", errors.New("something went wrong"), ExitGeneral},
		{"wrapped unknown error", fmt.Errorf("context: %w", errors.New("unknown")), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestExitCodeConstants - Unix conventions
// ---------------------------------------------------------------------------

func TestExitCodeConstants(t *testing.T) {
	t.Parallel()

	if ExitSuccess != 0 || ExitGeneral != 1 || ExitUsage != 2 {
		t.Errorf("standard codes = %d/%d/%d, want 0/1/2", ExitSuccess, ExitGeneral, ExitUsage)
	}
	for _, code := range []int{ExitIO, ExitBrowser, ExitMissingAsset} {
		if code >= 126 {
			t.Errorf("custom exit code %d should be below 126", code)
		}
	}
	if ExitCancelled != 128+2 {
		t.Errorf("ExitCancelled = %d, want 130 (128 + SIGINT)", ExitCancelled)
	}
}
