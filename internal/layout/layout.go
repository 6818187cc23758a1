// Package layout is the backend-neutral page model produced by document
// builders. Coordinates are points with the origin at the top-left corner
// of the page. Output backends (PDF, HTML) only draw what they are given.
package layout

import (
	"strconv"
	"strings"
)

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H float64
}

// Inset shrinks the rectangle by d on every side.
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X + d, Y: r.Y + d, W: max(r.W-2*d, 0), H: max(r.H-2*d, 0)}
}

// Offset moves the rectangle by (dx, dy).
func (r Rect) Offset(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// Color is a CSS-style hex color such as "#1F2933". Empty means none.
type Color string

// RGB parses the color. Malformed values fall back to black.
func (c Color) RGB() (r, g, b int) {
	s := strings.TrimPrefix(string(c), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF)
}

// Valid reports whether c is a #rgb or #rrggbb hex color.
func (c Color) Valid() bool {
	s, ok := strings.CutPrefix(string(c), "#")
	if !ok || (len(s) != 3 && len(s) != 6) {
		return false
	}
	_, err := strconv.ParseUint(s, 16, 32)
	return err == nil
}

// Document is an ordered list of pages.
type Document struct {
	Title string
	Pages []*Page
}

// Page is one printed sheet side. Elements are drawn in order, then the
// Overlay layer on top. Overlay never influences element geometry.
type Page struct {
	Width, Height float64
	Background    Color
	Elements      []Element
	Overlay       []Element
}

// NewPage creates an empty page of the given size.
func NewPage(w, h float64) *Page {
	return &Page{Width: w, Height: h}
}

// Add appends elements to the page.
func (p *Page) Add(els ...Element) {
	p.Elements = append(p.Elements, els...)
}

// Images returns the image elements of the page in drawing order.
func (p *Page) Images() []*Image {
	var out []*Image
	for _, el := range p.Elements {
		if img, ok := el.(*Image); ok {
			out = append(out, img)
		}
	}
	return out
}

// Placeholders returns the placeholder elements of the page.
func (p *Page) Placeholders() []*Placeholder {
	var out []*Placeholder
	for _, el := range p.Elements {
		if ph, ok := el.(*Placeholder); ok {
			out = append(out, ph)
		}
	}
	return out
}
