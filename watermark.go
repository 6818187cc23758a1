package printables

import (
	"errors"
	"fmt"

	"github.com/alnah/go-printables/internal/layout"
)

// Watermark defaults.
const (
	DefaultWatermarkText    = "SAMPLE"
	DefaultWatermarkColor   = "#9AA5B1"
	DefaultWatermarkOpacity = 0.18
	DefaultWatermarkAngle   = 45.0
)

// ErrInvalidWatermark indicates watermark settings are out of range.
var ErrInvalidWatermark = errors.New("invalid watermark")

// Watermark is the mark overlaid on pages when DocumentOptions.Watermark is
// set. It is configured once per Renderer.
type Watermark struct {
	Text    string
	Color   string
	Opacity float64
	// Angle in degrees, counter-clockwise.
	Angle float64
}

// DefaultWatermark returns the built-in mark.
func DefaultWatermark() *Watermark {
	return &Watermark{
		Text:    DefaultWatermarkText,
		Color:   DefaultWatermarkColor,
		Opacity: DefaultWatermarkOpacity,
		Angle:   DefaultWatermarkAngle,
	}
}

// Validate checks the watermark. Returns nil if w is nil.
func (w *Watermark) Validate() error {
	if w == nil {
		return nil
	}
	if w.Text == "" {
		return fmt.Errorf("%w: text cannot be empty", ErrInvalidWatermark)
	}
	if !layout.Color(w.Color).Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidWatermark, ErrInvalidColor, w.Color)
	}
	if w.Opacity <= 0 || w.Opacity > 1 {
		return fmt.Errorf("%w: opacity %.2f (must be in (0, 1])", ErrInvalidWatermark, w.Opacity)
	}
	if w.Angle < -90 || w.Angle > 90 {
		return fmt.Errorf("%w: angle %.0f (must be between -90 and 90)", ErrInvalidWatermark, w.Angle)
	}
	return nil
}

// applyWatermark appends the mark to every page's overlay layer. Page
// elements are not touched.
func applyWatermark(doc *layout.Document, w *Watermark) {
	for _, p := range doc.Pages {
		size := min(p.Width, p.Height) * 0.16
		h := layout.LineHeight(size)
		p.Overlay = append(p.Overlay, &layout.Text{
			Rect:     layout.Rect{X: 0, Y: (p.Height - h) / 2, W: p.Width, H: h},
			Content:  w.Text,
			Font:     layout.Font{Family: "Helvetica", Size: size, Bold: true},
			Color:    layout.Color(w.Color),
			Align:    layout.AlignCenter,
			VAlign:   layout.VAlignMiddle,
			Rotation: w.Angle,
			Opacity:  w.Opacity,
		})
	}
}
