package main

// Notes:
// - openStorage: we test each driver family that runs without external
//   services (memory, sqlite, filesystem, miniredis). MinIO and GCS need
//   live endpoints and are covered in the blobstore package.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alnah/go-printables/assetstore"
	"github.com/alnah/go-printables/internal/config"
	"github.com/alnah/go-printables/internal/locks"
)

func testKey() assetstore.Key {
	return assetstore.Key{
		Owner: assetstore.ResourceOwner(uuid.MustParse(resourceUUID)),
		Kind:  "image",
		Name:  "happy",
	}
}

// ---------------------------------------------------------------------------
// TestOpenStorage - Drivers
// ---------------------------------------------------------------------------

func TestOpenStorage_Memory(t *testing.T) {
	t.Parallel()

	st, err := openStorage(context.Background(), config.DefaultConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("openStorage() error: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if _, err := st.repo.UploadVersion(context.Background(), testKey(), pngBytes(t), "image/png"); err != nil {
		t.Errorf("UploadVersion() error: %v", err)
	}
}

func TestOpenStorage_PersistsAcrossOpens(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Storage.Records = config.RecordStoreConfig{Driver: "sqlite", DSN: filepath.Join(dir, "assets.db")}
	cfg.Storage.Blobs = config.BlobStoreConfig{Driver: "filesystem", Path: filepath.Join(dir, "blobs")}
	ctx := context.Background()

	st, err := openStorage(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("openStorage() error: %v", err)
	}
	versionID, err := st.repo.UploadVersion(ctx, testKey(), pngBytes(t), "image/png")
	if err != nil {
		t.Fatalf("UploadVersion() error: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	st, err = openStorage(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	asset, err := st.repo.Asset(ctx, testKey())
	if err != nil {
		t.Fatalf("Asset() after reopen: %v", err)
	}
	if asset.CurrentVersionID == nil || *asset.CurrentVersionID != versionID {
		t.Errorf("current version after reopen = %v, want %s", asset.CurrentVersionID, versionID)
	}
}

func TestOpenStorage_RedisLock(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	cfg := config.DefaultConfig()
	cfg.Storage.Lock = config.LockConfig{Driver: "redis", Addr: mr.Addr()}

	st, err := openStorage(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("openStorage() error: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if _, err := st.repo.UploadVersion(context.Background(), testKey(), pngBytes(t), "image/png"); err != nil {
		t.Errorf("UploadVersion() under redis lock error: %v", err)
	}
}

func TestOpenStorage_Errors(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr error
	}{
		{"unreachable redis", func(c *config.Config) {
			c.Storage.Lock = config.LockConfig{Driver: "redis", Addr: addr}
		}, locks.ErrLockBackend},
		{"unknown records driver", func(c *config.Config) { c.Storage.Records.Driver = "mongo" }, config.ErrInvalidValue},
		{"unknown blobs driver", func(c *config.Config) { c.Storage.Blobs.Driver = "floppy" }, config.ErrInvalidValue},
		{"unknown lock driver", func(c *config.Config) { c.Storage.Lock.Driver = "etcd" }, config.ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			if _, err := openStorage(context.Background(), cfg, zap.NewNop()); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
