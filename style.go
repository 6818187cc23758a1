package printables

import (
	"errors"
	"fmt"

	"github.com/alnah/go-printables/internal/layout"
	"github.com/alnah/go-printables/internal/presets"
	"github.com/alnah/go-printables/internal/yamlutil"
)

// TextPosition places the text band of a card relative to its image.
type TextPosition string

const (
	// TextPositionBottom puts the text band under the image, overlapping it
	// by the configured image overlap.
	TextPositionBottom TextPosition = "bottom"
	// TextPositionOverlay draws the text band on top of a full-height image.
	TextPositionOverlay TextPosition = "overlay"
	// TextPositionIntegrated assumes the text is part of the artwork.
	TextPositionIntegrated TextPosition = "integrated"
)

// Valid reports whether p is a known position. Empty means the default.
func (p TextPosition) Valid() bool {
	switch p {
	case "", TextPositionBottom, TextPositionOverlay, TextPositionIntegrated:
		return true
	}
	return false
}

// Style is the visual identity applied to a document.
type Style struct {
	Name       string      `yaml:"name,omitempty" json:"name,omitempty"`
	Palette    Palette     `yaml:"palette" json:"palette"`
	Typography Typography  `yaml:"typography" json:"typography"`
	CardLayout *CardLayout `yaml:"cardLayout,omitempty" json:"cardLayout,omitempty"`
	Frames     *Frames     `yaml:"frames,omitempty" json:"frames,omitempty"`
}

// Palette holds the five color roles as hex strings.
type Palette struct {
	Primary    string `yaml:"primary" json:"primary"`
	Secondary  string `yaml:"secondary" json:"secondary"`
	Accent     string `yaml:"accent" json:"accent"`
	Background string `yaml:"background" json:"background"`
	Text       string `yaml:"text" json:"text"`
}

// Typography names the heading and body font families.
type Typography struct {
	Heading string `yaml:"heading" json:"heading"`
	Body    string `yaml:"body" json:"body"`
}

// CardLayout configures the image/text split of cards. Nil percentages
// mean the defaults (25% content height, 11% overlap).
type CardLayout struct {
	TextPosition  TextPosition `yaml:"textPosition,omitempty" json:"textPosition,omitempty"`
	ContentHeight *float64     `yaml:"contentHeight,omitempty" json:"contentHeight,omitempty"`
	ImageOverlap  *float64     `yaml:"imageOverlap,omitempty" json:"imageOverlap,omitempty"`
	BorderWidth   float64      `yaml:"borderWidth,omitempty" json:"borderWidth,omitempty"`
	BorderColor   string       `yaml:"borderColor,omitempty" json:"borderColor,omitempty"`
}

// Frames references decorative images drawn over pages and cards.
type Frames struct {
	// BorderAssetKey is drawn over the full page of single-page kinds.
	BorderAssetKey string `yaml:"borderAssetKey,omitempty" json:"borderAssetKey,omitempty"`
	// CardOverlayAssetKey is drawn over every card of card-grid kinds.
	CardOverlayAssetKey string `yaml:"cardOverlayAssetKey,omitempty" json:"cardOverlayAssetKey,omitempty"`
}

// DefaultStyle returns the built-in style.
func DefaultStyle() *Style {
	return &Style{
		Name: presets.DefaultName,
		Palette: Palette{
			Primary:    "#2F6FB2",
			Secondary:  "#F2A541",
			Accent:     "#E4572E",
			Background: "#FFFFFF",
			Text:       "#1F2933",
		},
		Typography: Typography{Heading: "Helvetica", Body: "Helvetica"},
	}
}

// Validate checks colors and the card layout. A nil style is valid.
func (s *Style) Validate() error {
	if s == nil {
		return nil
	}
	colors := map[string]string{
		"palette.primary":    s.Palette.Primary,
		"palette.secondary":  s.Palette.Secondary,
		"palette.accent":     s.Palette.Accent,
		"palette.background": s.Palette.Background,
		"palette.text":       s.Palette.Text,
	}
	if s.CardLayout != nil {
		colors["cardLayout.borderColor"] = s.CardLayout.BorderColor
	}
	for field, c := range colors {
		if c != "" && !layout.Color(c).Valid() {
			return fmt.Errorf("%w: %w: %s %q", ErrInvalidStyle, ErrInvalidColor, field, c)
		}
	}
	if s.CardLayout != nil && !s.CardLayout.TextPosition.Valid() {
		return fmt.Errorf("%w: %w: %q (must be bottom, overlay, or integrated)",
			ErrInvalidStyle, ErrInvalidTextPosition, s.CardLayout.TextPosition)
	}
	return nil
}

// resolved returns a copy with empty palette and typography entries filled
// from DefaultStyle. Card layout and frames are shared, not copied.
func (s *Style) resolved() *Style {
	def := DefaultStyle()
	if s == nil {
		return def
	}
	out := *s
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&out.Palette.Primary, def.Palette.Primary)
	fill(&out.Palette.Secondary, def.Palette.Secondary)
	fill(&out.Palette.Accent, def.Palette.Accent)
	fill(&out.Palette.Background, def.Palette.Background)
	fill(&out.Palette.Text, def.Palette.Text)
	fill(&out.Typography.Heading, def.Typography.Heading)
	fill(&out.Typography.Body, def.Typography.Body)
	return &out
}

func (s *Style) cardOverlayKey() string {
	if s.Frames == nil {
		return ""
	}
	return s.Frames.CardOverlayAssetKey
}

func (s *Style) borderKey() string {
	if s.Frames == nil {
		return ""
	}
	return s.Frames.BorderAssetKey
}

// LoadStylePreset loads a named preset. Presets in presetDir (as
// {presetDir}/styles/{name}.yaml) take precedence over the built-in ones;
// an empty presetDir means built-in presets only.
func LoadStylePreset(name, presetDir string) (*Style, error) {
	resolver, err := presets.NewResolver(presetDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}
	raw, err := resolver.Load(name)
	if err != nil {
		if errors.Is(err, presets.ErrPresetNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidStyle, err)
	}
	var style Style
	if err := yamlutil.UnmarshalStrict(raw, &style); err != nil {
		return nil, fmt.Errorf("%w: preset %q: %v", ErrInvalidStyle, name, err)
	}
	if err := style.Validate(); err != nil {
		return nil, err
	}
	return &style, nil
}

// StylePresetNames lists the built-in presets.
func StylePresetNames() []string {
	return presets.NewEmbeddedLoader().Names()
}
