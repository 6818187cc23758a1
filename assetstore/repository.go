// Package assetstore keeps versioned images for printable resources and
// styles. Each asset is a named slot (owner, kind, name) whose current
// version feeds the renderer; at most MaxUnpinnedVersions unpinned versions
// are retained per asset, pinned versions are kept until unpinned.
//
// Storage is pluggable: a RecordStore holds asset and version rows, a
// BlobStore holds the bytes, and a Locker serializes writes per asset.
package assetstore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	printables "github.com/alnah/go-printables"
	"github.com/alnah/go-printables/internal/locks"
)

// maxRevisionRetries bounds pointer updates that lose an optimistic race
// against a writer outside this repository's locker.
const maxRevisionRetries = 3

// Option configures a Repository.
type Option func(*Repository)

// WithLocker replaces the in-process per-key lock, e.g. with a Redis
// locker shared by several processes.
func WithLocker(l Locker) Option {
	return func(r *Repository) {
		if l != nil {
			r.locker = l
		}
	}
}

// WithGenerator sets the image generator used by GenerateVersion.
func WithGenerator(g Generator) Option {
	return func(r *Repository) { r.gen = g }
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock fixes the time source for version timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// Repository is the entry point for asset reads and writes. It is safe for
// concurrent use; writes to the same asset are serialized.
type Repository struct {
	records RecordStore
	blobs   BlobStore
	locker  Locker
	gen     Generator
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a Repository.
func New(records RecordStore, blobs BlobStore, opts ...Option) (*Repository, error) {
	if records == nil || blobs == nil {
		return nil, errors.New("assetstore: record store and blob store are required")
	}
	r := &Repository{
		records: records,
		blobs:   blobs,
		locker:  locks.NewKeyedMutex(),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// GetOrCreateAsset returns the asset for key, creating it without a current
// version if it does not exist. Repeated calls return the same asset.
func (r *Repository) GetOrCreateAsset(ctx context.Context, key Key) (*Asset, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	a, err := r.records.FindAsset(ctx, key)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := r.now().UTC()
	a = &Asset{ID: uuid.New(), Key: key, CreatedAt: now, UpdatedAt: now}
	switch err := r.records.InsertAsset(ctx, a); {
	case err == nil:
		r.logger.Debug("asset created", zap.String("key", key.String()), zap.String("asset_id", a.ID.String()))
		return a, nil
	case errors.Is(err, ErrConflict):
		// Lost the insert race: the winner's row is the answer.
		return r.records.FindAsset(ctx, key)
	default:
		return nil, err
	}
}

// CreateVersion stores a new version for key, makes it current and prunes
// old unpinned versions. The whole sequence holds the asset's lock.
//
// A prune failure does not fail the call: the version exists and is
// current, the failure is logged, and the next write or an explicit
// PruneOldVersions retries the leftovers.
func (r *Repository) CreateVersion(ctx context.Context, key Key, in VersionInput) (assetID, versionID uuid.UUID, err error) {
	if err := key.Validate(); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if err := in.Validate(); err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	unlock, err := r.locker.Lock(ctx, key.String())
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("locking %s: %w", key, err)
	}
	defer unlock()

	a, err := r.GetOrCreateAsset(ctx, key)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("resolving asset %s: %w", key, err)
	}
	if in.SourceVersionID != nil {
		src, err := r.records.GetVersion(ctx, *in.SourceVersionID)
		if err != nil {
			return uuid.Nil, uuid.Nil, fmt.Errorf("%w: source version: %w", ErrInvalidVersion, err)
		}
		if src.AssetID != a.ID {
			return uuid.Nil, uuid.Nil, fmt.Errorf("%w: source version %s belongs to another asset", ErrInvalidVersion, src.ID)
		}
	}

	v := &Version{
		ID:              uuid.New(),
		AssetID:         a.ID,
		BlobRef:         in.BlobRef,
		ContentType:     in.ContentType,
		Prompt:          in.Prompt,
		Params:          in.Params,
		Provenance:      in.Provenance,
		SourceVersionID: in.SourceVersionID,
		CreatedAt:       r.now().UTC(),
	}
	if v.Seq, err = r.nextSeq(ctx, a.ID); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if err := r.records.InsertVersion(ctx, v); err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("inserting version: %w", err)
	}
	if _, err := r.setCurrent(ctx, a, v.ID); err != nil {
		// The record must not outlive the blob the caller is about to drop.
		if derr := r.records.DeleteVersion(context.WithoutCancel(ctx), v.ID); derr != nil && !errors.Is(derr, ErrNotFound) {
			r.logger.Error("dangling version after failed pointer update",
				zap.String("version_id", v.ID.String()), zap.Error(derr))
		}
		return uuid.Nil, uuid.Nil, err
	}

	r.logger.Info("asset version created",
		zap.String("key", key.String()),
		zap.String("version_id", v.ID.String()),
		zap.String("provenance", string(v.Provenance)))

	if err := r.prune(ctx, a.ID); err != nil {
		r.logger.Warn("pruning after create left versions behind", zap.String("asset_id", a.ID.String()), zap.Error(err))
	}
	return a.ID, v.ID, nil
}

// nextSeq is one past the highest sequence among the asset's versions.
func (r *Repository) nextSeq(ctx context.Context, assetID uuid.UUID) (int64, error) {
	vs, err := r.records.ListVersions(ctx, assetID)
	if err != nil {
		return 0, fmt.Errorf("listing versions: %w", err)
	}
	var seq int64
	for _, v := range vs {
		seq = max(seq, v.Seq)
	}
	return seq + 1, nil
}

// setCurrent moves the pointer with an expected-revision check. A stale
// revision means a writer outside the locker moved it; the latest write
// wins, so the asset is re-read and the update retried.
func (r *Repository) setCurrent(ctx context.Context, a *Asset, versionID uuid.UUID) (*Asset, error) {
	expected := a.Revision
	for attempt := 0; ; attempt++ {
		updated, err := r.records.UpdateCurrentVersion(ctx, a.ID, versionID, expected, r.now())
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, ErrStaleRevision) || attempt >= maxRevisionRetries {
			return nil, fmt.Errorf("updating current version: %w", err)
		}
		fresh, err := r.records.GetAsset(ctx, a.ID)
		if err != nil {
			return nil, fmt.Errorf("updating current version: %w", err)
		}
		r.logger.Debug("current version moved concurrently, retrying",
			zap.String("asset_id", a.ID.String()), zap.Int64("revision", fresh.Revision))
		expected = fresh.Revision
	}
}

// PruneOldVersions deletes unpinned versions beyond the newest
// MaxUnpinnedVersions, blob first then record. Missing blobs and records
// count as deleted, so a failed run can simply be repeated.
func (r *Repository) PruneOldVersions(ctx context.Context, assetID uuid.UUID) error {
	a, err := r.records.GetAsset(ctx, assetID)
	if err != nil {
		return err
	}
	unlock, err := r.locker.Lock(ctx, a.Key.String())
	if err != nil {
		return fmt.Errorf("locking %s: %w", a.Key, err)
	}
	defer unlock()
	return r.prune(ctx, assetID)
}

func (r *Repository) prune(ctx context.Context, assetID uuid.UUID) error {
	a, err := r.records.GetAsset(ctx, assetID)
	if err != nil {
		return err
	}
	versions, err := r.records.ListVersions(ctx, assetID)
	if err != nil {
		return err
	}

	unpinned := slices.DeleteFunc(versions, func(v *Version) bool { return v.Pinned })
	if len(unpinned) <= MaxUnpinnedVersions {
		return nil
	}
	sortNewestFirst(unpinned)

	var errs []error
	removed := 0
	for _, v := range unpinned[MaxUnpinnedVersions:] {
		if a.CurrentVersionID != nil && *a.CurrentVersionID == v.ID {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := r.deleteVersion(ctx, v); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	r.logger.Debug("versions pruned", zap.String("asset_id", assetID.String()), zap.Int("removed", removed))
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrPrune, errors.Join(errs...))
	}
	return nil
}

// deleteVersion removes the blob, then the record. The record is kept when
// the blob delete fails so the reference survives for a retry.
func (r *Repository) deleteVersion(ctx context.Context, v *Version) error {
	if err := r.blobs.Delete(ctx, v.BlobRef); err != nil {
		if !errors.Is(err, ErrBlobNotFound) {
			return fmt.Errorf("deleting blob of version %s: %w", v.ID, err)
		}
		r.logger.Warn("blob already gone", zap.String("version_id", v.ID.String()), zap.String("blob", v.BlobRef))
	}
	if err := r.records.DeleteVersion(ctx, v.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("deleting version %s: %w", v.ID, err)
	}
	return nil
}

// sortNewestFirst orders by creation time, then insertion sequence, both
// descending, so equal timestamps still prune deterministically.
func sortNewestFirst(vs []*Version) {
	slices.SortFunc(vs, func(a, b *Version) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.Seq, a.Seq)
	})
}

// PinVersion exempts a version from pruning.
func (r *Repository) PinVersion(ctx context.Context, versionID uuid.UUID) error {
	return r.withVersionLock(ctx, versionID, func(v *Version) error {
		return r.records.SetPinned(ctx, v.ID, true)
	})
}

// UnpinVersion returns a version to the retention cap and prunes, so the
// asset never holds more than MaxUnpinnedVersions unpinned versions.
func (r *Repository) UnpinVersion(ctx context.Context, versionID uuid.UUID) error {
	return r.withVersionLock(ctx, versionID, func(v *Version) error {
		if err := r.records.SetPinned(ctx, v.ID, false); err != nil {
			return err
		}
		return r.prune(ctx, v.AssetID)
	})
}

// RestoreVersion makes an existing version current again. No new version
// is written; lineage is untouched.
func (r *Repository) RestoreVersion(ctx context.Context, versionID uuid.UUID) (*Asset, error) {
	var out *Asset
	err := r.withVersionLock(ctx, versionID, func(v *Version) error {
		a, err := r.records.GetAsset(ctx, v.AssetID)
		if err != nil {
			return err
		}
		out, err = r.setCurrent(ctx, a, v.ID)
		return err
	})
	return out, err
}

func (r *Repository) withVersionLock(ctx context.Context, versionID uuid.UUID, fn func(*Version) error) error {
	v, err := r.records.GetVersion(ctx, versionID)
	if err != nil {
		return err
	}
	a, err := r.records.GetAsset(ctx, v.AssetID)
	if err != nil {
		return err
	}
	unlock, err := r.locker.Lock(ctx, a.Key.String())
	if err != nil {
		return fmt.Errorf("locking %s: %w", a.Key, err)
	}
	defer unlock()
	return fn(v)
}

// Versions lists an asset's versions, newest first.
func (r *Repository) Versions(ctx context.Context, assetID uuid.UUID) ([]*Version, error) {
	vs, err := r.records.ListVersions(ctx, assetID)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(vs)
	return vs, nil
}

// Assets lists an owner's assets ordered by kind, then name.
func (r *Repository) Assets(ctx context.Context, owner Owner) ([]*Asset, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	as, err := r.records.ListAssets(ctx, owner)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(as, func(a, b *Asset) int {
		return cmp.Or(cmp.Compare(a.Key.Kind, b.Key.Kind), cmp.Compare(a.Key.Name, b.Key.Name))
	})
	return as, nil
}

// Asset looks up an asset by key without creating it.
func (r *Repository) Asset(ctx context.Context, key Key) (*Asset, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return r.records.FindAsset(ctx, key)
}

// CurrentVersion returns the version key currently points to.
func (r *Repository) CurrentVersion(ctx context.Context, key Key) (*Version, error) {
	a, err := r.records.FindAsset(ctx, key)
	if err != nil {
		return nil, err
	}
	if a.CurrentVersionID == nil {
		return nil, fmt.Errorf("%w: asset %s has no current version", ErrNotFound, key)
	}
	return r.records.GetVersion(ctx, *a.CurrentVersionID)
}

// Resolve builds the renderer's asset map for the given owners: each asset
// name maps to the URL of its current version. When two owners use the same
// name, the earlier owner wins, so pass the resource before its style.
// Assets without a current version, or whose URL cannot be produced, are
// left out and render as missing.
func (r *Repository) Resolve(ctx context.Context, owners ...Owner) (printables.AssetMap, error) {
	out := printables.AssetMap{}
	for _, owner := range owners {
		assets, err := r.Assets(ctx, owner)
		if err != nil {
			return nil, err
		}
		for _, a := range assets {
			if _, taken := out[a.Key.Name]; taken || a.CurrentVersionID == nil {
				continue
			}
			v, err := r.records.GetVersion(ctx, *a.CurrentVersionID)
			if err != nil {
				r.logger.Warn("current version unreadable", zap.String("key", a.Key.String()), zap.Error(err))
				continue
			}
			u, err := r.blobs.URL(ctx, v.BlobRef)
			if err != nil {
				r.logger.Warn("blob URL unavailable", zap.String("key", a.Key.String()), zap.Error(err))
				continue
			}
			out[a.Key.Name] = u
		}
	}
	return out, nil
}

// UploadVersion stores caller-supplied bytes as a new current version.
func (r *Repository) UploadVersion(ctx context.Context, key Key, data []byte, contentType string) (uuid.UUID, error) {
	return r.storeAndCreate(ctx, key, data, contentType, VersionInput{Provenance: ProvenanceUploaded})
}

// GenerateVersion asks the generator for an image and stores it as a new
// current version with its prompt and parameters.
func (r *Repository) GenerateVersion(ctx context.Context, key Key, prompt string, params map[string]any) (uuid.UUID, error) {
	if r.gen == nil {
		return uuid.Nil, ErrNoGenerator
	}
	if err := key.Validate(); err != nil {
		return uuid.Nil, err
	}
	data, contentType, err := r.gen.Generate(ctx, prompt, params)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrGenerate, err)
	}
	return r.storeAndCreate(ctx, key, data, contentType, VersionInput{
		Prompt:     prompt,
		Params:     params,
		Provenance: ProvenanceGenerated,
	})
}

// EditVersion stores edited bytes derived from source as a new current
// version. The source keeps its place in history.
func (r *Repository) EditVersion(ctx context.Context, key Key, source uuid.UUID, data []byte, contentType, prompt string) (uuid.UUID, error) {
	return r.storeAndCreate(ctx, key, data, contentType, VersionInput{
		Prompt:          prompt,
		Provenance:      ProvenanceEdited,
		SourceVersionID: &source,
	})
}

func (r *Repository) storeAndCreate(ctx context.Context, key Key, data []byte, contentType string, in VersionInput) (uuid.UUID, error) {
	if err := key.Validate(); err != nil {
		return uuid.Nil, err
	}
	if len(data) == 0 {
		return uuid.Nil, fmt.Errorf("%w: image data is empty", ErrInvalidVersion)
	}
	ref, err := r.blobs.Put(ctx, blobKey(key, contentType), data, contentType)
	if err != nil {
		return uuid.Nil, fmt.Errorf("storing blob: %w", err)
	}
	in.BlobRef = ref
	in.ContentType = contentType

	_, id, err := r.CreateVersion(ctx, key, in)
	if err != nil {
		if derr := r.blobs.Delete(context.WithoutCancel(ctx), ref); derr != nil && !errors.Is(derr, ErrBlobNotFound) {
			r.logger.Warn("orphaned blob after failed version create", zap.String("blob", ref), zap.Error(derr))
		}
		return uuid.Nil, err
	}
	return id, nil
}

var extensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/webp":    ".webp",
	"image/gif":     ".gif",
	"image/svg+xml": ".svg",
}

// blobKey builds a unique, path-safe object key under the asset's prefix.
func blobKey(key Key, contentType string) string {
	ext, ok := extensions[contentType]
	if !ok {
		ext = ".bin"
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s%s",
		key.Owner.Type, key.Owner.ID, url.PathEscape(key.Kind), url.PathEscape(key.Name), uuid.NewString(), ext)
}
