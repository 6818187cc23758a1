package assetstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors.
var (
	ErrNotFound       = errors.New("record not found")
	ErrConflict       = errors.New("record already exists")
	ErrStaleRevision  = errors.New("asset revision changed")
	ErrBlobNotFound   = errors.New("blob not found")
	ErrInvalidKey     = errors.New("invalid asset key")
	ErrInvalidVersion = errors.New("invalid version")
	ErrNoGenerator    = errors.New("no image generator configured")
	ErrGenerate       = errors.New("image generation failed")
	ErrPrune          = errors.New("pruning incomplete")
)

// RecordStore persists assets and versions. Implementations must enforce
// key uniqueness and the expected-revision check on UpdateCurrentVersion.
type RecordStore interface {
	// FindAsset returns ErrNotFound when no asset has key.
	FindAsset(ctx context.Context, key Key) (*Asset, error)
	GetAsset(ctx context.Context, id uuid.UUID) (*Asset, error)
	// InsertAsset returns ErrConflict when key is taken.
	InsertAsset(ctx context.Context, a *Asset) error
	ListAssets(ctx context.Context, owner Owner) ([]*Asset, error)
	// UpdateCurrentVersion moves the pointer if the stored revision equals
	// expectedRevision and returns the updated asset, else ErrStaleRevision.
	// UpdatedAt is set to at.
	UpdateCurrentVersion(ctx context.Context, assetID, versionID uuid.UUID, expectedRevision int64, at time.Time) (*Asset, error)

	InsertVersion(ctx context.Context, v *Version) error
	GetVersion(ctx context.Context, id uuid.UUID) (*Version, error)
	// ListVersions returns every version of the asset in no particular order.
	ListVersions(ctx context.Context, assetID uuid.UUID) ([]*Version, error)
	SetPinned(ctx context.Context, versionID uuid.UUID, pinned bool) error
	// DeleteVersion returns ErrNotFound when the record is already gone.
	DeleteVersion(ctx context.Context, versionID uuid.UUID) error
}

// BlobStore holds the image bytes versions point to.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (ref string, err error)
	Get(ctx context.Context, ref string) ([]byte, error)
	// URL returns a source the renderer can load (http(s), file:// or data URI).
	URL(ctx context.Context, ref string) (string, error)
	// Delete returns ErrBlobNotFound when the blob is already gone.
	Delete(ctx context.Context, ref string) error
}

// Locker serializes work on one asset key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Generator produces image bytes from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, params map[string]any) (data []byte, contentType string, err error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, params map[string]any) ([]byte, string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string, params map[string]any) ([]byte, string, error) {
	return f(ctx, prompt, params)
}
