package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/alnah/go-printables/assetstore"
	"github.com/alnah/go-printables/internal/imageload"
)

var _ assetstore.BlobStore = (*MemoryStore)(nil)

type memBlob struct {
	data        []byte
	contentType string
}

// MemoryStore keeps blobs in process memory. URLs are data URIs, so the
// renderer needs no network or disk access.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]memBlob
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]memBlob)}
}

func (s *MemoryStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = memBlob{data: bytes.Clone(data), contentType: contentType}
	return key, nil
}

func (s *MemoryStore) Get(_ context.Context, ref string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", assetstore.ErrBlobNotFound, ref)
	}
	return bytes.Clone(b.data), nil
}

func (s *MemoryStore) URL(_ context.Context, ref string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[ref]
	if !ok {
		return "", fmt.Errorf("%w: %s", assetstore.ErrBlobNotFound, ref)
	}
	ct := b.contentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return imageload.DataURI(ct, b.data), nil
}

func (s *MemoryStore) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[ref]; !ok {
		return fmt.Errorf("%w: %s", assetstore.ErrBlobNotFound, ref)
	}
	delete(s.blobs, ref)
	return nil
}

// Len returns the number of stored blobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
