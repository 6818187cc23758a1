// Package storetest holds behavior suites shared by every RecordStore and
// BlobStore implementation. Each backend's tests call the suite with a
// constructor for a fresh, empty store.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/go-printables/assetstore"
)

// RecordStores runs the RecordStore contract against stores built by newStore.
func RecordStores(t *testing.T, newStore func(t *testing.T) assetstore.RecordStore) {
	t.Helper()

	t.Run("insert and find asset", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := NewAsset("cat")
		if err := s.InsertAsset(ctx, a); err != nil {
			t.Fatalf("InsertAsset() = %v", err)
		}
		got, err := s.FindAsset(ctx, a.Key)
		if err != nil {
			t.Fatalf("FindAsset() = %v", err)
		}
		if got.ID != a.ID || got.Key != a.Key || got.CurrentVersionID != nil || got.Revision != 0 {
			t.Errorf("FindAsset() = %+v, want %+v", got, a)
		}
		byID, err := s.GetAsset(ctx, a.ID)
		if err != nil || byID.Key != a.Key {
			t.Errorf("GetAsset() = %+v, %v", byID, err)
		}
	})

	t.Run("missing asset is ErrNotFound", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if _, err := s.FindAsset(ctx, NewAsset("ghost").Key); !errors.Is(err, assetstore.ErrNotFound) {
			t.Errorf("FindAsset() = %v, want ErrNotFound", err)
		}
		if _, err := s.GetAsset(ctx, uuid.New()); !errors.Is(err, assetstore.ErrNotFound) {
			t.Errorf("GetAsset() = %v, want ErrNotFound", err)
		}
	})

	t.Run("duplicate key is ErrConflict", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := NewAsset("dup")
		if err := s.InsertAsset(ctx, a); err != nil {
			t.Fatal(err)
		}
		b := NewAsset("dup")
		b.Key = a.Key
		if err := s.InsertAsset(ctx, b); !errors.Is(err, assetstore.ErrConflict) {
			t.Errorf("InsertAsset(duplicate) = %v, want ErrConflict", err)
		}
	})

	t.Run("concurrent inserts of one key admit one", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		key := NewAsset("race").Key
		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				a := NewAsset("race")
				a.Key = key
				err := s.InsertAsset(ctx, a)
				if err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
					return
				}
				if !errors.Is(err, assetstore.ErrConflict) {
					t.Errorf("InsertAsset() = %v, want nil or ErrConflict", err)
				}
			}()
		}
		wg.Wait()
		if wins != 1 {
			t.Errorf("%d inserts succeeded, want 1", wins)
		}
	})

	t.Run("list assets by owner", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a, b, other := NewAsset("a"), NewAsset("b"), NewAsset("c")
		b.Key.Owner = a.Key.Owner
		other.Key.Owner = assetstore.StyleOwner(a.Key.Owner.ID)
		for _, x := range []*assetstore.Asset{a, b, other} {
			if err := s.InsertAsset(ctx, x); err != nil {
				t.Fatal(err)
			}
		}
		got, err := s.ListAssets(ctx, a.Key.Owner)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Errorf("ListAssets() = %d assets, want 2", len(got))
		}
	})

	t.Run("versions round trip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := NewAsset("round")
		if err := s.InsertAsset(ctx, a); err != nil {
			t.Fatal(err)
		}
		src := NewVersion(a.ID, 1)
		if err := s.InsertVersion(ctx, src); err != nil {
			t.Fatal(err)
		}
		v := NewVersion(a.ID, 2)
		v.Provenance = assetstore.ProvenanceEdited
		v.SourceVersionID = &src.ID
		v.Prompt = "brighter"
		v.Params = map[string]any{"strength": 0.5, "style": "flat"}
		if err := s.InsertVersion(ctx, v); err != nil {
			t.Fatal(err)
		}

		got, err := s.GetVersion(ctx, v.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.AssetID != a.ID || got.BlobRef != v.BlobRef || got.ContentType != v.ContentType ||
			got.Prompt != "brighter" || got.Provenance != assetstore.ProvenanceEdited || got.Seq != 2 {
			t.Errorf("GetVersion() = %+v", got)
		}
		if got.SourceVersionID == nil || *got.SourceVersionID != src.ID {
			t.Errorf("SourceVersionID = %v, want %s", got.SourceVersionID, src.ID)
		}
		if got.Params["style"] != "flat" || got.Params["strength"] != 0.5 {
			t.Errorf("Params = %v", got.Params)
		}
		if !got.CreatedAt.Equal(v.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, v.CreatedAt)
		}

		list, err := s.ListVersions(ctx, a.ID)
		if err != nil || len(list) != 2 {
			t.Errorf("ListVersions() = %d, %v", len(list), err)
		}
	})

	t.Run("update current version checks revision", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := NewAsset("ptr")
		if err := s.InsertAsset(ctx, a); err != nil {
			t.Fatal(err)
		}
		v1, v2 := NewVersion(a.ID, 1), NewVersion(a.ID, 2)
		for _, v := range []*assetstore.Version{v1, v2} {
			if err := s.InsertVersion(ctx, v); err != nil {
				t.Fatal(err)
			}
		}

		at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
		got, err := s.UpdateCurrentVersion(ctx, a.ID, v1.ID, 0, at)
		if err != nil {
			t.Fatalf("UpdateCurrentVersion() = %v", err)
		}
		if got.Revision != 1 || got.CurrentVersionID == nil || *got.CurrentVersionID != v1.ID {
			t.Errorf("after first update = %+v", got)
		}
		if !got.UpdatedAt.Equal(at) {
			t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, at)
		}
		if _, err := s.UpdateCurrentVersion(ctx, a.ID, v2.ID, 0, at); !errors.Is(err, assetstore.ErrStaleRevision) {
			t.Errorf("stale update = %v, want ErrStaleRevision", err)
		}
		got, err = s.UpdateCurrentVersion(ctx, a.ID, v2.ID, 1, at)
		if err != nil || got.Revision != 2 || *got.CurrentVersionID != v2.ID {
			t.Errorf("second update = %+v, %v", got, err)
		}

		other := NewAsset("other")
		if err := s.InsertAsset(ctx, other); err != nil {
			t.Fatal(err)
		}
		if _, err := s.UpdateCurrentVersion(ctx, other.ID, v1.ID, 0, at); !errors.Is(err, assetstore.ErrNotFound) {
			t.Errorf("foreign version = %v, want ErrNotFound", err)
		}
	})

	t.Run("pin and delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := NewAsset("pin")
		if err := s.InsertAsset(ctx, a); err != nil {
			t.Fatal(err)
		}
		v := NewVersion(a.ID, 1)
		if err := s.InsertVersion(ctx, v); err != nil {
			t.Fatal(err)
		}
		if err := s.SetPinned(ctx, v.ID, true); err != nil {
			t.Fatal(err)
		}
		if got, _ := s.GetVersion(ctx, v.ID); !got.Pinned {
			t.Error("version not pinned")
		}
		if err := s.SetPinned(ctx, uuid.New(), true); !errors.Is(err, assetstore.ErrNotFound) {
			t.Errorf("SetPinned(unknown) = %v, want ErrNotFound", err)
		}
		if err := s.DeleteVersion(ctx, v.ID); err != nil {
			t.Fatal(err)
		}
		if err := s.DeleteVersion(ctx, v.ID); !errors.Is(err, assetstore.ErrNotFound) {
			t.Errorf("second DeleteVersion() = %v, want ErrNotFound", err)
		}
		if _, err := s.GetVersion(ctx, v.ID); !errors.Is(err, assetstore.ErrNotFound) {
			t.Errorf("GetVersion(deleted) = %v, want ErrNotFound", err)
		}
	})

	t.Run("returned rows are copies", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := NewAsset("copy")
		if err := s.InsertAsset(ctx, a); err != nil {
			t.Fatal(err)
		}
		v := NewVersion(a.ID, 1)
		v.Params = map[string]any{"k": "v"}
		if err := s.InsertVersion(ctx, v); err != nil {
			t.Fatal(err)
		}
		got, _ := s.GetVersion(ctx, v.ID)
		got.Params["k"] = "changed"
		got.Pinned = true
		again, _ := s.GetVersion(ctx, v.ID)
		if again.Params["k"] != "v" || again.Pinned {
			t.Errorf("store row mutated through returned value: %+v", again)
		}
	})
}

// NewAsset returns an unsaved asset with a fresh resource owner.
func NewAsset(name string) *assetstore.Asset {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &assetstore.Asset{
		ID:        uuid.New(),
		Key:       assetstore.Key{Owner: assetstore.ResourceOwner(uuid.New()), Kind: "image", Name: name},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewVersion returns an unsaved uploaded version of assetID.
func NewVersion(assetID uuid.UUID, seq int64) *assetstore.Version {
	return &assetstore.Version{
		ID:          uuid.New(),
		AssetID:     assetID,
		BlobRef:     "blobs/" + uuid.NewString() + ".png",
		ContentType: "image/png",
		Provenance:  assetstore.ProvenanceUploaded,
		Seq:         seq,
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, int(seq), 0, time.UTC),
	}
}
