package gormstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/alnah/go-printables/assetstore"
)

// assetModel is one row per (owner, kind, name).
type assetModel struct {
	ID               string    `gorm:"primaryKey;size:36"`
	OwnerType        string    `gorm:"size:16;not null;uniqueIndex:idx_assets_key,priority:1"`
	OwnerID          string    `gorm:"size:36;not null;uniqueIndex:idx_assets_key,priority:2"`
	Kind             string    `gorm:"size:64;not null;uniqueIndex:idx_assets_key,priority:3"`
	Name             string    `gorm:"size:200;not null;uniqueIndex:idx_assets_key,priority:4"`
	CurrentVersionID *string   `gorm:"size:36"`
	Revision         int64     `gorm:"not null;default:0"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

func (assetModel) TableName() string { return "assets" }

type versionModel struct {
	ID              string         `gorm:"primaryKey;size:36"`
	AssetID         string         `gorm:"size:36;not null;index"`
	BlobRef         string         `gorm:"size:1024;not null"`
	ContentType     string         `gorm:"size:100"`
	Prompt          string         `gorm:"type:text"`
	Params          datatypes.JSON `gorm:"type:jsonb"`
	Provenance      string         `gorm:"size:16;not null"`
	SourceVersionID *string        `gorm:"size:36"`
	Pinned          bool           `gorm:"not null;default:false"`
	Seq             int64          `gorm:"not null"`
	CreatedAt       time.Time      `gorm:"not null;index"`
}

func (versionModel) TableName() string { return "asset_versions" }

func assetToModel(a *assetstore.Asset) *assetModel {
	return &assetModel{
		ID:               a.ID.String(),
		OwnerType:        string(a.Key.Owner.Type),
		OwnerID:          a.Key.Owner.ID.String(),
		Kind:             a.Key.Kind,
		Name:             a.Key.Name,
		CurrentVersionID: idString(a.CurrentVersionID),
		Revision:         a.Revision,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func (m *assetModel) toDomain() (*assetstore.Asset, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("asset id %q: %w", m.ID, err)
	}
	ownerID, err := uuid.Parse(m.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("owner id %q: %w", m.OwnerID, err)
	}
	current, err := parseID(m.CurrentVersionID)
	if err != nil {
		return nil, err
	}
	return &assetstore.Asset{
		ID: id,
		Key: assetstore.Key{
			Owner: assetstore.Owner{Type: assetstore.OwnerType(m.OwnerType), ID: ownerID},
			Kind:  m.Kind,
			Name:  m.Name,
		},
		CurrentVersionID: current,
		Revision:         m.Revision,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}, nil
}

func versionToModel(v *assetstore.Version) (*versionModel, error) {
	var params datatypes.JSON
	if len(v.Params) > 0 {
		raw, err := json.Marshal(v.Params)
		if err != nil {
			return nil, fmt.Errorf("%w: params: %v", assetstore.ErrInvalidVersion, err)
		}
		params = raw
	}
	return &versionModel{
		ID:              v.ID.String(),
		AssetID:         v.AssetID.String(),
		BlobRef:         v.BlobRef,
		ContentType:     v.ContentType,
		Prompt:          v.Prompt,
		Params:          params,
		Provenance:      string(v.Provenance),
		SourceVersionID: idString(v.SourceVersionID),
		Pinned:          v.Pinned,
		Seq:             v.Seq,
		CreatedAt:       v.CreatedAt,
	}, nil
}

func (m *versionModel) toDomain() (*assetstore.Version, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("version id %q: %w", m.ID, err)
	}
	assetID, err := uuid.Parse(m.AssetID)
	if err != nil {
		return nil, fmt.Errorf("asset id %q: %w", m.AssetID, err)
	}
	source, err := parseID(m.SourceVersionID)
	if err != nil {
		return nil, err
	}
	var params map[string]any
	if len(m.Params) > 0 {
		if err := json.Unmarshal(m.Params, &params); err != nil {
			return nil, fmt.Errorf("version %s params: %w", m.ID, err)
		}
	}
	return &assetstore.Version{
		ID:              id,
		AssetID:         assetID,
		BlobRef:         m.BlobRef,
		ContentType:     m.ContentType,
		Prompt:          m.Prompt,
		Params:          params,
		Provenance:      assetstore.Provenance(m.Provenance),
		SourceVersionID: source,
		Pinned:          m.Pinned,
		Seq:             m.Seq,
		CreatedAt:       m.CreatedAt.UTC(),
	}, nil
}

func idString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func parseID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, fmt.Errorf("version id %q: %w", *s, err)
	}
	return &id, nil
}
