package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/alnah/go-printables/assetstore"
)

var _ assetstore.BlobStore = (*FSStore)(nil)

// FSStore keeps blobs as files under a root directory. Refs are the
// slash-separated keys; URLs are file:// URLs of the absolute path.
type FSStore struct {
	root string
}

// NewFSStore creates root if needed and returns a store writing under it.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: empty root", ErrInvalidKey)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving blob root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("creating blob root: %w", err)
	}
	return &FSStore{root: abs}, nil
}

// Root returns the absolute root directory.
func (s *FSStore) Root() string { return s.root }

func (s *FSStore) path(ref string) (string, error) {
	if err := validateKey(ref); err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(ref)), nil
}

// Put writes to a temporary file and renames it into place, so readers
// never observe a partial blob.
func (s *FSStore) Put(ctx context.Context, key string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return "", fmt.Errorf("creating blob directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".blob-*")
	if err != nil {
		return "", fmt.Errorf("creating temp blob: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("writing blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("writing blob: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("storing blob: %w", err)
	}
	return key, nil
}

func (s *FSStore) Get(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p) // #nosec G304 -- path is confined to the store root
	if err != nil {
		return nil, mapFSError(err, ref)
	}
	return data, nil
}

func (s *FSStore) URL(_ context.Context, ref string) (string, error) {
	p, err := s.path(ref)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); err != nil {
		return "", mapFSError(err, ref)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String(), nil
}

func (s *FSStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		return mapFSError(err, ref)
	}
	return nil
}

func mapFSError(err error, ref string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", assetstore.ErrBlobNotFound, ref)
	}
	return fmt.Errorf("blob %s: %w", ref, err)
}
