package printables

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-printables/internal/layout"
)

// Booklet page size: half of a landscape A4 sheet.
const (
	a5Width  = PageHeight / 2
	a5Height = PageWidth
)

// builder turns one content record into a layout.Document. It is created
// per build and never shared.
type builder struct {
	assets  AssetMap
	style   *Style
	opts    DocumentOptions
	now     time.Time
	logger  *zap.Logger
	missing keySet
}

func newBuilder(assets AssetMap, style *Style, opts DocumentOptions, now time.Time, logger *zap.Logger) *builder {
	return &builder{
		assets: assets,
		style:  style.resolved(),
		opts:   opts,
		now:    now,
		logger: logger,
	}
}

// build dispatches on the content variant.
func (b *builder) build(c Content) (*layout.Document, error) {
	switch c := c.(type) {
	case *EmotionCards:
		return b.emotionCards(c)
	case *Flashcards:
		return b.flashcards(c)
	case *CardGame:
		return b.cardGame(c)
	case *Poster:
		return b.poster(c)
	case *FreePrompt:
		return b.freePrompt(c)
	case *BoardGame:
		return b.boardGame(c)
	case *ColoringPages:
		return b.coloringPages(c)
	case *Certificate:
		return b.certificate(c)
	case *Worksheet:
		return b.worksheet(c)
	case *Book:
		return b.book(c)
	case *BehaviorChart:
		return b.behaviorChart(c)
	case *VisualSchedule:
		return b.visualSchedule(c)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKind, c)
	}
}

// ---------------------------------------------------------------------------
// Assets
// ---------------------------------------------------------------------------

// optionalImage returns an image element for key, or a placeholder when the
// key does not resolve. Unresolved non-empty keys are recorded as missing.
func (b *builder) optionalImage(r layout.Rect, key string, fit layout.Fit) layout.Element {
	if src, ok := b.assets.Lookup(key); ok {
		return &layout.Image{Rect: r, Src: src, Key: key, Fit: fit}
	}
	if key != "" {
		b.missing.add(key)
		b.logger.Warn("asset not resolved, using placeholder", zap.String("key", key))
	}
	return b.placeholder(r, key)
}

// requiredImage returns an image element for key or ErrMissingRequiredAsset.
func (b *builder) requiredImage(r layout.Rect, key string, fit layout.Fit) (layout.Element, error) {
	src, ok := b.assets.Lookup(key)
	if !ok {
		if key == "" {
			return nil, fmt.Errorf("%w: no asset key", ErrMissingRequiredAsset)
		}
		return nil, fmt.Errorf("%w: %q", ErrMissingRequiredAsset, key)
	}
	return &layout.Image{Rect: r, Src: src, Key: key, Fit: fit, Required: true}, nil
}

// decoration returns a frame image for key if it resolves. Frames are
// purely decorative, so an unresolved frame is skipped without a placeholder.
func (b *builder) decoration(r layout.Rect, key string) (layout.Element, bool) {
	src, ok := b.assets.Lookup(key)
	if !ok {
		if key != "" {
			b.missing.add(key)
		}
		return nil, false
	}
	return &layout.Image{Rect: r, Src: src, Key: key, Fit: layout.FitCover}, true
}

func (b *builder) placeholder(r layout.Rect, key string) *layout.Placeholder {
	return &layout.Placeholder{
		Rect:   r,
		Key:    key,
		Fill:   "#EEF0F3",
		Stroke: "#B0B7C3",
	}
}

// ---------------------------------------------------------------------------
// Pages and text
// ---------------------------------------------------------------------------

// pageSize returns the sheet size for non-card kinds.
func (b *builder) pageSize(landscapeByDefault bool) (w, h float64) {
	landscape := landscapeByDefault
	switch b.opts.Orientation {
	case OrientationPortrait:
		landscape = false
	case OrientationLandscape:
		landscape = true
	}
	if landscape {
		return PageHeight, PageWidth
	}
	return PageWidth, PageHeight
}

func (b *builder) newPage(w, h float64) *layout.Page {
	p := layout.NewPage(w, h)
	p.Background = layout.Color(b.style.Palette.Background)
	return p
}

// frame adds the style's page border frame over the full page, if any.
func (b *builder) frame(p *layout.Page) {
	if el, ok := b.decoration(layout.Rect{W: p.Width, H: p.Height}, b.style.borderKey()); ok {
		p.Add(el)
	}
}

func (b *builder) heading(r layout.Rect, text string, size float64) *layout.Text {
	return &layout.Text{
		Rect:    r,
		Content: text,
		Font:    layout.Font{Family: b.style.Typography.Heading, Size: size, Bold: true},
		Color:   layout.Color(b.style.Palette.Primary),
		Align:   layout.AlignCenter,
		VAlign:  layout.VAlignMiddle,
	}
}

func (b *builder) body(r layout.Rect, text string, size float64) *layout.Text {
	return &layout.Text{
		Rect:    r,
		Content: text,
		Font:    layout.Font{Family: b.style.Typography.Body, Size: size},
		Color:   layout.Color(b.style.Palette.Text),
		Align:   layout.AlignLeft,
		VAlign:  layout.VAlignTop,
	}
}

func (b *builder) markdown(r layout.Rect, text string, size float64) *layout.Text {
	t := b.body(r, text, size)
	t.Markdown = true
	return t
}

func (b *builder) document(title string, pages []*layout.Page) *layout.Document {
	return &layout.Document{Title: title, Pages: pages}
}
