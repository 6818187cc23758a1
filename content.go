package printables

import (
	"fmt"
	"io"
	"strings"

	"github.com/alnah/go-printables/internal/yamlutil"
)

// Kind discriminates content records.
type Kind string

// Supported content kinds.
const (
	KindEmotionCards   Kind = "emotion_cards"
	KindFlashcards     Kind = "flashcards"
	KindWorksheet      Kind = "worksheet"
	KindBoardGame      Kind = "board_game"
	KindCardGame       Kind = "card_game"
	KindBook           Kind = "book"
	KindBehaviorChart  Kind = "behavior_chart"
	KindVisualSchedule Kind = "visual_schedule"
	KindCertificate    Kind = "certificate"
	KindColoringPages  Kind = "coloring_pages"
	KindPoster         Kind = "poster"
	KindFreePrompt     Kind = "free_prompt"
)

var kindFactories = map[Kind]func() Content{
	KindEmotionCards:   func() Content { return &EmotionCards{} },
	KindFlashcards:     func() Content { return &Flashcards{} },
	KindWorksheet:      func() Content { return &Worksheet{} },
	KindBoardGame:      func() Content { return &BoardGame{} },
	KindCardGame:       func() Content { return &CardGame{} },
	KindBook:           func() Content { return &Book{} },
	KindBehaviorChart:  func() Content { return &BehaviorChart{} },
	KindVisualSchedule: func() Content { return &VisualSchedule{} },
	KindCertificate:    func() Content { return &Certificate{} },
	KindColoringPages:  func() Content { return &ColoringPages{} },
	KindPoster:         func() Content { return &Poster{} },
	KindFreePrompt:     func() Content { return &FreePrompt{} },
}

// Kinds returns every supported kind in catalog order.
func Kinds() []Kind {
	return []Kind{
		KindEmotionCards, KindFlashcards, KindWorksheet, KindBoardGame,
		KindCardGame, KindBook, KindBehaviorChart, KindVisualSchedule,
		KindCertificate, KindColoringPages, KindPoster, KindFreePrompt,
	}
}

// ParseKind maps a discriminator string to a Kind. Dashes are accepted in
// place of underscores.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if _, ok := kindFactories[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
	}
	return k, nil
}

// isCardKind reports whether the kind renders as a card grid.
func (k Kind) isCardKind() bool {
	return k == KindEmotionCards || k == KindFlashcards || k == KindCardGame
}

// Content is a typed content record. The set of implementations is closed:
// only the variants in this package satisfy it.
type Content interface {
	Kind() Kind
	// AssetKeys lists the asset keys the record references, deduplicated,
	// in first-use order.
	AssetKeys() []string
	Validate() error
	content()
}

// Resource pairs a content record with the resource it belongs to.
type Resource struct {
	ID      string
	Name    string
	StyleID string
	Content Content
}

// Filename returns the output file name for the resource.
func (r *Resource) Filename() string {
	name := r.Name
	if name == "" {
		name = r.ID
	}
	return name + ".pdf"
}

type resourceEnvelope struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind"`
	Style   string `yaml:"style,omitempty"`
	Content any    `yaml:"content"`
}

// DecodeResource reads a YAML (or JSON) resource document of the form
// {id, name, kind, style, content} and decodes content into the variant
// named by kind.
func DecodeResource(r io.Reader) (*Resource, error) {
	var env resourceEnvelope
	if err := yamlutil.Read(r, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	if env.Kind == "" {
		return nil, fmt.Errorf("%w: missing kind", ErrInvalidContent)
	}
	c, err := DecodeContent(env.Kind, env.Content)
	if err != nil {
		return nil, err
	}
	return &Resource{ID: env.ID, Name: env.Name, StyleID: env.Style, Content: c}, nil
}

// DecodeContent decodes a generic map (as produced by a YAML or JSON
// decoder) into the variant for kind and validates it.
func DecodeContent(kind string, raw any) (Content, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s has no content", ErrEmptyContent, k)
	}
	c := kindFactories[k]()
	if err := yamlutil.Remarshal(raw, c); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidContent, k, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// keySet collects asset keys in first-use order.
type keySet struct {
	seen map[string]bool
	keys []string
}

func (s *keySet) add(keys ...string) {
	for _, k := range keys {
		if k == "" || s.seen[k] {
			continue
		}
		if s.seen == nil {
			s.seen = make(map[string]bool)
		}
		s.seen[k] = true
		s.keys = append(s.keys, k)
	}
}

func invalid(k Kind, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidContent, k, fmt.Sprintf(format, args...))
}

func empty(k Kind, what string) error {
	return fmt.Errorf("%w: %s needs at least one %s", ErrEmptyContent, k, what)
}
