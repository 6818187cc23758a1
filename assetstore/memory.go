package assetstore

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ RecordStore = (*MemoryRecords)(nil)

// MemoryRecords is a RecordStore kept in process memory. It is safe for
// concurrent use and returns copies, so callers cannot mutate stored rows.
type MemoryRecords struct {
	mu       sync.RWMutex
	assets   map[uuid.UUID]*Asset
	byKey    map[Key]uuid.UUID
	versions map[uuid.UUID]*Version
	byAsset  map[uuid.UUID]map[uuid.UUID]struct{}
}

// NewMemoryRecords creates an empty store.
func NewMemoryRecords() *MemoryRecords {
	return &MemoryRecords{
		assets:   make(map[uuid.UUID]*Asset),
		byKey:    make(map[Key]uuid.UUID),
		versions: make(map[uuid.UUID]*Version),
		byAsset:  make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

func (s *MemoryRecords) FindAsset(_ context.Context, key Key) (*Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[key]
	if !ok {
		return nil, fmt.Errorf("%w: asset %s", ErrNotFound, key)
	}
	return copyAsset(s.assets[id]), nil
}

func (s *MemoryRecords) GetAsset(_ context.Context, id uuid.UUID) (*Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assets[id]
	if !ok {
		return nil, fmt.Errorf("%w: asset %s", ErrNotFound, id)
	}
	return copyAsset(a), nil
}

func (s *MemoryRecords) InsertAsset(_ context.Context, a *Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byKey[a.Key]; ok {
		return fmt.Errorf("%w: asset %s", ErrConflict, a.Key)
	}
	if _, ok := s.assets[a.ID]; ok {
		return fmt.Errorf("%w: asset id %s", ErrConflict, a.ID)
	}
	s.assets[a.ID] = copyAsset(a)
	s.byKey[a.Key] = a.ID
	return nil
}

func (s *MemoryRecords) ListAssets(_ context.Context, owner Owner) ([]*Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Asset
	for _, a := range s.assets {
		if a.Key.Owner == owner {
			out = append(out, copyAsset(a))
		}
	}
	return out, nil
}

func (s *MemoryRecords) UpdateCurrentVersion(_ context.Context, assetID, versionID uuid.UUID, expectedRevision int64, at time.Time) (*Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[assetID]
	if !ok {
		return nil, fmt.Errorf("%w: asset %s", ErrNotFound, assetID)
	}
	if v, ok := s.versions[versionID]; !ok || v.AssetID != assetID {
		return nil, fmt.Errorf("%w: version %s of asset %s", ErrNotFound, versionID, assetID)
	}
	if a.Revision != expectedRevision {
		return nil, fmt.Errorf("%w: have %d, expected %d", ErrStaleRevision, a.Revision, expectedRevision)
	}
	id := versionID
	a.CurrentVersionID = &id
	a.Revision++
	a.UpdatedAt = at.UTC()
	return copyAsset(a), nil
}

func (s *MemoryRecords) InsertVersion(_ context.Context, v *Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[v.AssetID]; !ok {
		return fmt.Errorf("%w: asset %s", ErrNotFound, v.AssetID)
	}
	if _, ok := s.versions[v.ID]; ok {
		return fmt.Errorf("%w: version %s", ErrConflict, v.ID)
	}
	s.versions[v.ID] = copyVersion(v)
	if s.byAsset[v.AssetID] == nil {
		s.byAsset[v.AssetID] = make(map[uuid.UUID]struct{})
	}
	s.byAsset[v.AssetID][v.ID] = struct{}{}
	return nil
}

func (s *MemoryRecords) GetVersion(_ context.Context, id uuid.UUID) (*Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.versions[id]
	if !ok {
		return nil, fmt.Errorf("%w: version %s", ErrNotFound, id)
	}
	return copyVersion(v), nil
}

func (s *MemoryRecords) ListVersions(_ context.Context, assetID uuid.UUID) ([]*Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Version, 0, len(s.byAsset[assetID]))
	for id := range s.byAsset[assetID] {
		out = append(out, copyVersion(s.versions[id]))
	}
	return out, nil
}

func (s *MemoryRecords) SetPinned(_ context.Context, versionID uuid.UUID, pinned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[versionID]
	if !ok {
		return fmt.Errorf("%w: version %s", ErrNotFound, versionID)
	}
	v.Pinned = pinned
	return nil
}

func (s *MemoryRecords) DeleteVersion(_ context.Context, versionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[versionID]
	if !ok {
		return fmt.Errorf("%w: version %s", ErrNotFound, versionID)
	}
	delete(s.versions, versionID)
	delete(s.byAsset[v.AssetID], versionID)
	return nil
}

func copyAsset(a *Asset) *Asset {
	c := *a
	if a.CurrentVersionID != nil {
		id := *a.CurrentVersionID
		c.CurrentVersionID = &id
	}
	return &c
}

func copyVersion(v *Version) *Version {
	c := *v
	c.Params = maps.Clone(v.Params)
	if v.SourceVersionID != nil {
		id := *v.SourceVersionID
		c.SourceVersionID = &id
	}
	return &c
}
