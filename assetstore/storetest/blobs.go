package storetest

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alnah/go-printables/assetstore"
)

// BlobStores runs the BlobStore contract against stores built by newStore.
// URL schemes differ per backend, so only a non-empty URL is required.
func BlobStores(t *testing.T, newStore func(t *testing.T) assetstore.BlobStore) {
	t.Helper()

	t.Run("put get delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		data := []byte("\x89PNG fake")
		ref, err := s.Put(ctx, "resource/abc/image/cat/1.png", data, "image/png")
		if err != nil {
			t.Fatalf("Put() = %v", err)
		}
		if ref == "" {
			t.Fatal("Put() returned an empty ref")
		}
		got, err := s.Get(ctx, ref)
		if err != nil || !bytes.Equal(got, data) {
			t.Errorf("Get() = %q, %v", got, err)
		}
		u, err := s.URL(ctx, ref)
		if err != nil || strings.TrimSpace(u) == "" {
			t.Errorf("URL() = %q, %v", u, err)
		}
		if err := s.Delete(ctx, ref); err != nil {
			t.Fatalf("Delete() = %v", err)
		}
		if _, err := s.Get(ctx, ref); !errors.Is(err, assetstore.ErrBlobNotFound) {
			t.Errorf("Get(deleted) = %v, want ErrBlobNotFound", err)
		}
	})

	t.Run("delete missing is ErrBlobNotFound", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		ref, err := s.Put(ctx, "resource/abc/image/dog/1.png", []byte("x"), "image/png")
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Delete(ctx, ref); err != nil {
			t.Fatal(err)
		}
		if err := s.Delete(ctx, ref); !errors.Is(err, assetstore.ErrBlobNotFound) {
			t.Errorf("second Delete() = %v, want ErrBlobNotFound", err)
		}
	})

	t.Run("put overwrites", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		ref, _ := s.Put(ctx, "style/abc/frame/gold/1.png", []byte("one"), "image/png")
		ref2, err := s.Put(ctx, "style/abc/frame/gold/1.png", []byte("two"), "image/png")
		if err != nil {
			t.Fatal(err)
		}
		if ref != ref2 {
			t.Errorf("refs differ for the same key: %q vs %q", ref, ref2)
		}
		if got, _ := s.Get(ctx, ref); string(got) != "two" {
			t.Errorf("Get() = %q, want two", got)
		}
	})
}
