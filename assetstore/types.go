package assetstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxUnpinnedVersions is the retention cap for unpinned versions of one asset.
const MaxUnpinnedVersions = 10

// Field limits.
const (
	MaxKindLength   = 64
	MaxNameLength   = 200
	MaxPromptLength = 4000
)

// OwnerType says what kind of record owns an asset.
type OwnerType string

// Owner types.
const (
	OwnerResource OwnerType = "resource"
	OwnerStyle    OwnerType = "style"
)

// Valid reports whether t is a known owner type.
func (t OwnerType) Valid() bool {
	return t == OwnerResource || t == OwnerStyle
}

// Owner identifies the record an asset belongs to. A resource and a style
// with the same id are different owners.
type Owner struct {
	Type OwnerType
	ID   uuid.UUID
}

// ResourceOwner returns the owner for a content resource.
func ResourceOwner(id uuid.UUID) Owner { return Owner{Type: OwnerResource, ID: id} }

// StyleOwner returns the owner for a style.
func StyleOwner(id uuid.UUID) Owner { return Owner{Type: OwnerStyle, ID: id} }

// Validate checks the owner type and id.
func (o Owner) Validate() error {
	if !o.Type.Valid() {
		return fmt.Errorf("%w: owner type %q (must be resource or style)", ErrInvalidKey, o.Type)
	}
	if o.ID == uuid.Nil {
		return fmt.Errorf("%w: owner id is empty", ErrInvalidKey)
	}
	return nil
}

func (o Owner) String() string { return string(o.Type) + "/" + o.ID.String() }

// Key is the unique identity of an asset: owner, asset kind, and name.
// Name is the key content records use to reference the image.
type Key struct {
	Owner Owner
	Kind  string
	Name  string
}

// Validate checks every part of the key.
func (k Key) Validate() error {
	if err := k.Owner.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(k.Kind) == "" || len(k.Kind) > MaxKindLength {
		return fmt.Errorf("%w: kind must be 1-%d characters", ErrInvalidKey, MaxKindLength)
	}
	if strings.TrimSpace(k.Name) == "" || len(k.Name) > MaxNameLength {
		return fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidKey, MaxNameLength)
	}
	if strings.ContainsAny(k.Kind, "/\x00") {
		return fmt.Errorf("%w: kind %q contains a reserved character", ErrInvalidKey, k.Kind)
	}
	if k.Kind == "." || k.Kind == ".." || k.Name == "." || k.Name == ".." {
		return fmt.Errorf("%w: kind and name cannot be relative path segments", ErrInvalidKey)
	}
	return nil
}

func (k Key) String() string { return k.Owner.String() + "/" + k.Kind + "/" + k.Name }

// Provenance records how a version's bytes came to be.
type Provenance string

// Provenance values.
const (
	ProvenanceGenerated Provenance = "generated"
	ProvenanceEdited    Provenance = "edited"
	ProvenanceUploaded  Provenance = "uploaded"
)

// Valid reports whether p is a known provenance.
func (p Provenance) Valid() bool {
	switch p {
	case ProvenanceGenerated, ProvenanceEdited, ProvenanceUploaded:
		return true
	}
	return false
}

// Asset is a named image slot with a pointer to its current version.
type Asset struct {
	ID               uuid.UUID
	Key              Key
	CurrentVersionID *uuid.UUID
	// Revision increases on every current-pointer change. Pointer updates
	// carry the revision they were based on.
	Revision  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Version is one stored rendition of an asset.
type Version struct {
	ID              uuid.UUID
	AssetID         uuid.UUID
	BlobRef         string
	ContentType     string
	Prompt          string
	Params          map[string]any
	Provenance      Provenance
	SourceVersionID *uuid.UUID
	Pinned          bool
	// Seq orders versions of one asset created within the same instant.
	Seq       int64
	CreatedAt time.Time
}

// VersionInput is what a caller supplies to CreateVersion.
type VersionInput struct {
	BlobRef         string
	ContentType     string
	Prompt          string
	Params          map[string]any
	Provenance      Provenance
	SourceVersionID *uuid.UUID
}

// Validate checks the input.
func (in *VersionInput) Validate() error {
	if in == nil {
		return fmt.Errorf("%w: missing input", ErrInvalidVersion)
	}
	if strings.TrimSpace(in.BlobRef) == "" {
		return fmt.Errorf("%w: blob reference is empty", ErrInvalidVersion)
	}
	if !in.Provenance.Valid() {
		return fmt.Errorf("%w: provenance %q (must be generated, edited, or uploaded)", ErrInvalidVersion, in.Provenance)
	}
	if in.Provenance == ProvenanceEdited && in.SourceVersionID == nil {
		return fmt.Errorf("%w: edited versions need a source version", ErrInvalidVersion)
	}
	if len(in.Prompt) > MaxPromptLength {
		return fmt.Errorf("%w: prompt exceeds %d characters", ErrInvalidVersion, MaxPromptLength)
	}
	return nil
}
