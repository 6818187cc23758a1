package gormstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alnah/go-printables/assetstore"
	"github.com/alnah/go-printables/assetstore/storetest"
)

// Notes:
// - Every test opens its own SQLite file under t.TempDir(); PostgreSQL
//   runs the same queries and is exercised in deployment, not here.

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "assets.db"))
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RecordStoreContract(t *testing.T) {
	t.Parallel()

	storetest.RecordStores(t, func(t *testing.T) assetstore.RecordStore {
		return openTestStore(t)
	})
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	if _, err := Open("mysql", "dsn"); !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("Open(mysql) = %v, want ErrUnknownDriver", err)
	}
}

func TestNew_NilDB(t *testing.T) {
	t.Parallel()

	if _, err := New(nil); err == nil {
		t.Error("New(nil) should fail")
	}
}

func TestStore_ListVersionsNewestFirst(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	a := storetest.NewAsset("order")
	if err := s.InsertAsset(ctx, a); err != nil {
		t.Fatal(err)
	}
	for seq := int64(1); seq <= 3; seq++ {
		if err := s.InsertVersion(ctx, storetest.NewVersion(a.ID, seq)); err != nil {
			t.Fatal(err)
		}
	}
	vs, err := s.ListVersions(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range vs {
		if want := int64(3 - i); v.Seq != want {
			t.Errorf("ListVersions()[%d].Seq = %d, want %d", i, v.Seq, want)
		}
	}
}

func TestStore_InsertVersionUnknownAsset(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	v := storetest.NewVersion(storetest.NewAsset("ghost").ID, 1)
	if err := s.InsertVersion(context.Background(), v); !errors.Is(err, assetstore.ErrNotFound) {
		t.Errorf("InsertVersion() = %v, want ErrNotFound", err)
	}
}

// The repository over SQLite keeps the retention cap end to end.
func TestStore_WithRepository(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	blobs := newMapBlobs()
	repo, err := assetstore.New(s, blobs)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	key := storetest.NewAsset("fox").Key
	for range assetstore.MaxUnpinnedVersions + 3 {
		if _, err := repo.UploadVersion(ctx, key, []byte("png"), "image/png"); err != nil {
			t.Fatal(err)
		}
	}
	a, err := s.FindAsset(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	vs, _ := s.ListVersions(ctx, a.ID)
	if len(vs) != assetstore.MaxUnpinnedVersions {
		t.Errorf("versions = %d, want %d", len(vs), assetstore.MaxUnpinnedVersions)
	}
	if len(blobs.data) != assetstore.MaxUnpinnedVersions {
		t.Errorf("blobs = %d, want %d", len(blobs.data), assetstore.MaxUnpinnedVersions)
	}
	if a.Revision != int64(assetstore.MaxUnpinnedVersions+3) {
		t.Errorf("Revision = %d", a.Revision)
	}
}

type mapBlobs struct{ data map[string][]byte }

func newMapBlobs() *mapBlobs { return &mapBlobs{data: map[string][]byte{}} }

func (b *mapBlobs) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	b.data[key] = data
	return key, nil
}

func (b *mapBlobs) Get(_ context.Context, ref string) ([]byte, error) {
	d, ok := b.data[ref]
	if !ok {
		return nil, assetstore.ErrBlobNotFound
	}
	return d, nil
}

func (b *mapBlobs) URL(_ context.Context, ref string) (string, error) { return "mem://" + ref, nil }

func (b *mapBlobs) Delete(_ context.Context, ref string) error {
	if _, ok := b.data[ref]; !ok {
		return assetstore.ErrBlobNotFound
	}
	delete(b.data, ref)
	return nil
}
