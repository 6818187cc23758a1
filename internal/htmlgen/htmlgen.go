// Package htmlgen renders a layout.Document as a standalone HTML page with
// every element absolutely positioned in points. The same markup serves as
// the interactive preview and as the input of the headless Chrome backend,
// so both show identical geometry.
package htmlgen

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/alnah/go-printables/internal/layout"
	"github.com/alnah/go-printables/internal/markup"
)

// ErrRender indicates the HTML template failed to execute.
var ErrRender = errors.New("HTML rendering failed")

//go:embed document.html
var documentTemplate string

var tmpl = template.Must(template.New("document").Parse(documentTemplate))

// Renderer converts layout documents to HTML. Safe for concurrent use.
type Renderer struct {
	md *markup.Converter
}

// New creates a Renderer.
func New() *Renderer {
	return &Renderer{md: markup.New()}
}

type pageData struct {
	Style template.CSS
	Items []itemData
}

type itemData struct {
	Kind  string
	Style template.CSS
	Src   template.URL
	Text  string
	HTML  template.HTML
	SVG   svgLine
	Label string
}

type svgLine struct {
	W, H           float64
	X1, Y1, X2, Y2 float64
	Stroke         string
	Width          float64
	Dash           string
}

type documentData struct {
	Title      string
	PageWidth  float64
	PageHeight float64
	Pages      []pageData
}

// Render returns the HTML document.
func (r *Renderer) Render(doc *layout.Document) (string, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return "", fmt.Errorf("%w: document has no pages", ErrRender)
	}

	data := documentData{
		Title:      doc.Title,
		PageWidth:  doc.Pages[0].Width,
		PageHeight: doc.Pages[0].Height,
	}
	for _, p := range doc.Pages {
		pd := pageData{Style: css(
			"width", pt(p.Width),
			"height", pt(p.Height),
			"background", color(p.Background, "#FFFFFF"),
		)}
		for _, el := range p.Elements {
			pd.Items = append(pd.Items, r.item(el))
		}
		for _, el := range p.Overlay {
			pd.Items = append(pd.Items, r.item(el))
		}
		data.Pages = append(data.Pages, pd)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.String(), nil
}

func (r *Renderer) item(el layout.Element) itemData {
	switch e := el.(type) {
	case *layout.Box:
		return boxItem(e)
	case *layout.Line:
		return lineItem(e)
	case *layout.Image:
		return imageItem(e)
	case *layout.Placeholder:
		return placeholderItem(e)
	case *layout.Text:
		return r.textItem(e)
	}
	return itemData{Kind: "none"}
}

func position(rc layout.Rect) []string {
	return []string{"left", pt(rc.X), "top", pt(rc.Y), "width", pt(rc.W), "height", pt(rc.H)}
}

func boxItem(b *layout.Box) itemData {
	decl := position(b.Rect)
	if b.Fill != "" {
		decl = append(decl, "background", color(b.Fill, "transparent"))
	}
	if b.Stroke != "" && b.StrokeWidth > 0 {
		kind := "solid"
		if b.Dashed {
			kind = "dashed"
		}
		decl = append(decl, "border", fmt.Sprintf("%s %s %s", pt(b.StrokeWidth), kind, color(b.Stroke, "#000000")))
	}
	if b.Shape == layout.ShapeEllipse {
		decl = append(decl, "border-radius", "50%")
	}
	if b.Opacity > 0 && b.Opacity < 1 {
		decl = append(decl, "opacity", fmt.Sprintf("%.3f", b.Opacity))
	}
	return itemData{Kind: "box", Style: css(decl...)}
}

func lineItem(l *layout.Line) itemData {
	bounds := l.Bounds()
	width := l.Width
	if width <= 0 {
		width = 0.75
	}
	pad := width
	svg := svgLine{
		W: bounds.W + 2*pad, H: bounds.H + 2*pad,
		X1: l.X1 - bounds.X + pad, Y1: l.Y1 - bounds.Y + pad,
		X2: l.X2 - bounds.X + pad, Y2: l.Y2 - bounds.Y + pad,
		Stroke: color(l.Color, "#000000"),
		Width:  width,
	}
	if l.Dashed {
		svg.Dash = "4 3"
	}
	return itemData{
		Kind:  "line",
		Style: css("left", pt(bounds.X-pad), "top", pt(bounds.Y-pad), "width", pt(svg.W), "height", pt(svg.H)),
		SVG:   svg,
	}
}

func imageItem(img *layout.Image) itemData {
	src, ok := safeURL(img.Src)
	if !ok {
		return placeholderItem(&layout.Placeholder{Rect: img.Rect, Key: img.Key})
	}
	fit := "cover"
	if img.Fit == layout.FitContain {
		fit = "contain"
	}
	decl := append(position(img.Rect), "object-fit", fit)
	return itemData{Kind: "image", Style: css(decl...), Src: src, Label: img.Key}
}

func placeholderItem(p *layout.Placeholder) itemData {
	label := p.Label
	if label == "" {
		label = "No image"
	}
	decl := append(position(p.Rect),
		"background", color(p.Fill, "#EEF0F3"),
		"border", "0.75pt dashed "+color(p.Stroke, "#B0B7C3"),
	)
	return itemData{Kind: "placeholder", Style: css(decl...), Text: label}
}

func (r *Renderer) textItem(t *layout.Text) itemData {
	size := t.Font.Size
	if size <= 0 {
		size = 11
	}
	decl := append(position(t.Rect),
		"font-family", fontFamily(t.Font.Family),
		"font-size", pt(size),
		"line-height", pt(layout.LineHeight(size)),
		"color", color(t.Color, "#000000"),
		"text-align", [...]string{"left", "center", "right"}[t.Align],
		"justify-content", [...]string{"flex-start", "center", "flex-end"}[t.VAlign],
	)
	if t.Font.Bold {
		decl = append(decl, "font-weight", "bold")
	}
	if t.Font.Italic {
		decl = append(decl, "font-style", "italic")
	}
	if t.Rotation != 0 {
		// CSS rotates clockwise; layout rotation is counter-clockwise.
		decl = append(decl, "transform", fmt.Sprintf("rotate(%.2fdeg)", -t.Rotation))
	}
	if t.Opacity > 0 && t.Opacity < 1 {
		decl = append(decl, "opacity", fmt.Sprintf("%.3f", t.Opacity))
	}

	item := itemData{Kind: "text", Style: css(decl...), Text: t.Content}
	if t.Markdown {
		if h, err := r.md.ToHTML(t.Content); err == nil {
			item.Kind = "markdown"
			item.HTML = template.HTML(h) // #nosec G203 -- goldmark output without unsafe raw HTML
		}
	}
	return item
}

func pt(v float64) string {
	return fmt.Sprintf("%.2fpt", v)
}

// color only lets validated hex colors into CSS.
func color(c layout.Color, fallback string) string {
	if c.Valid() {
		return string(c)
	}
	return fallback
}

// fontFamily keeps letters, digits, spaces and dashes so a family name
// cannot break out of the CSS declaration.
func fontFamily(family string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ', r == '-':
			return r
		}
		return -1
	}, family)
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return "Helvetica, Arial, sans-serif"
	}
	return fmt.Sprintf("'%s', Helvetica, Arial, sans-serif", clean)
}

// css joins property/value pairs. Values are produced by this package from
// numbers, validated colors and sanitized names only.
func css(pairs ...string) template.CSS {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(pairs[i])
		b.WriteString(":")
		b.WriteString(pairs[i+1])
		b.WriteString(";")
	}
	return template.CSS(b.String()) // #nosec G203 -- see function comment
}

// safeURL accepts the schemes blob stores hand out.
func safeURL(src string) (template.URL, bool) {
	s := strings.TrimSpace(src)
	switch {
	case strings.HasPrefix(s, "https://"), strings.HasPrefix(s, "http://"),
		strings.HasPrefix(s, "file://"), strings.HasPrefix(s, "data:image/"):
		return template.URL(s), true // #nosec G203 -- scheme allow-listed
	case strings.HasPrefix(s, "/"):
		return template.URL("file://" + s), true // #nosec G203 -- local path
	}
	return "", false
}
