package printables

import (
	"fmt"
	"strings"
)

// Orientation constants. Empty means the kind's default.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// DocumentOptions are the per-build display flags. A nil *DocumentOptions
// means DefaultDocumentOptions.
type DocumentOptions struct {
	// CardsPerPage is 4, 6 or 9 for card kinds. Zero means 6.
	CardsPerPage     int
	ShowLabels       bool
	ShowDescriptions bool
	ShowCutLines     bool
	// IncludeCardBacks adds a mirrored back sheet after every front sheet
	// for flashcards and card games.
	IncludeCardBacks bool
	// Booklet imposes book pages two per landscape sheet in saddle-stitch
	// order. Ignored by other kinds.
	Booklet bool
	// Orientation overrides the kind's default. Card kinds are always portrait.
	Orientation string
	// Watermark overlays a mark on every page without moving anything.
	Watermark bool
}

// DefaultDocumentOptions returns labels and descriptions on, six cards per
// page and no extras.
func DefaultDocumentOptions() *DocumentOptions {
	return &DocumentOptions{
		CardsPerPage:     DefaultCardsPerPage,
		ShowLabels:       true,
		ShowDescriptions: true,
	}
}

// Validate checks option values. Returns nil if o is nil.
func (o *DocumentOptions) Validate() error {
	if o == nil {
		return nil
	}
	if o.CardsPerPage != 0 {
		if _, err := GridFor(o.CardsPerPage); err != nil {
			return err
		}
	}
	switch strings.ToLower(o.Orientation) {
	case "", OrientationPortrait, OrientationLandscape:
	default:
		return fmt.Errorf("%w: %q (must be portrait or landscape)", ErrInvalidOrientation, o.Orientation)
	}
	return nil
}

// normalized returns a copy with zero values replaced by defaults.
func (o *DocumentOptions) normalized() DocumentOptions {
	if o == nil {
		return *DefaultDocumentOptions()
	}
	out := *o
	if out.CardsPerPage == 0 {
		out.CardsPerPage = DefaultCardsPerPage
	}
	out.Orientation = strings.ToLower(out.Orientation)
	return out
}

// AssetMap maps asset keys to resolved image sources: http(s) or file://
// URLs, data URIs or local paths. An empty value counts as unresolved.
type AssetMap map[string]string

// Lookup returns the source for key.
func (m AssetMap) Lookup(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	src, ok := m[key]
	return src, ok && src != ""
}

// Missing returns the keys that do not resolve, in the order given.
func (m AssetMap) Missing(keys []string) []string {
	var out []string
	for _, k := range keys {
		if _, ok := m.Lookup(k); !ok {
			out = append(out, k)
		}
	}
	return out
}
