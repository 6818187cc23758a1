// Package pdfgen draws a layout.Document with gofpdf. It is the native
// backend: pure Go, no browser, safe to run many writers concurrently.
package pdfgen

import (
	"bytes"
	"context"
	"crypto/sha1" // #nosec G505 -- used for image registration names only
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/alnah/go-printables/internal/imageload"
	"github.com/alnah/go-printables/internal/layout"
	"github.com/alnah/go-printables/internal/markup"
)

// Sentinel errors.
var (
	ErrRequiredImage = errors.New("required image unavailable")
	ErrWrite         = errors.New("PDF write failed")
)

// ImageSource loads normalized images.
type ImageSource interface {
	Load(ctx context.Context, src string) (*imageload.Image, error)
}

// Result is the output of one Render call.
type Result struct {
	PDF []byte
	// Degraded lists keys of optional images that failed to load and were
	// drawn as placeholders.
	Degraded []string
}

// Writer renders layout documents to PDF.
type Writer struct {
	images ImageSource
	md     *markup.Converter
	now    func() time.Time
}

// New creates a Writer. now fixes the document creation date; nil means time.Now.
func New(images ImageSource, now func() time.Time) *Writer {
	if now == nil {
		now = time.Now
	}
	return &Writer{images: images, md: markup.New(), now: now}
}

// Render draws every page of doc. Context cancellation is observed between
// pages and before each image fetch.
func (w *Writer) Render(ctx context.Context, doc *layout.Document) (*Result, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrWrite)
	}

	first := doc.Pages[0]
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		OrientationStr: "P",
		Size:           gofpdf.SizeType{Wd: first.Width, Ht: first.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCreationDate(w.now())
	pdf.SetCreator("go-printables", true)
	if doc.Title != "" {
		pdf.SetTitle(doc.Title, true)
	}

	d := &drawer{
		ctx:        ctx,
		pdf:        pdf,
		tr:         pdf.UnicodeTranslatorFromDescriptor(""),
		images:     w.images,
		md:         w.md,
		registered: make(map[string]*imageload.Image),
	}

	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: page.Width, Ht: page.Height})
		if page.Background != "" {
			d.fill(page.Background)
			pdf.Rect(0, 0, page.Width, page.Height, "F")
		}
		for _, el := range page.Elements {
			if err := d.draw(el); err != nil {
				return nil, err
			}
		}
		for _, el := range page.Overlay {
			if err := d.draw(el); err != nil {
				return nil, err
			}
		}
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWrite, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return &Result{PDF: buf.Bytes(), Degraded: d.degraded}, nil
}

// drawer holds per-document drawing state.
type drawer struct {
	ctx        context.Context
	pdf        *gofpdf.Fpdf
	tr         func(string) string
	images     ImageSource
	md         *markup.Converter
	registered map[string]*imageload.Image
	degraded   []string
}

func (d *drawer) draw(el layout.Element) error {
	switch e := el.(type) {
	case *layout.Box:
		d.drawBox(e)
	case *layout.Line:
		d.drawLine(e)
	case *layout.Text:
		d.drawText(e)
	case *layout.Placeholder:
		d.drawPlaceholder(e)
	case *layout.Image:
		return d.drawImage(e)
	default:
		return fmt.Errorf("%w: unknown element %T", ErrWrite, el)
	}
	return nil
}

func (d *drawer) fill(c layout.Color) {
	r, g, b := c.RGB()
	d.pdf.SetFillColor(r, g, b)
}

func (d *drawer) stroke(c layout.Color, width float64, dashed bool) {
	r, g, b := c.RGB()
	d.pdf.SetDrawColor(r, g, b)
	d.pdf.SetLineWidth(width)
	if dashed {
		d.pdf.SetDashPattern([]float64{4, 3}, 0)
	} else {
		d.pdf.SetDashPattern([]float64{}, 0)
	}
}

func (d *drawer) withAlpha(opacity float64, fn func()) {
	if opacity <= 0 || opacity >= 1 {
		fn()
		return
	}
	d.pdf.SetAlpha(opacity, "Normal")
	fn()
	d.pdf.SetAlpha(1, "Normal")
}

func styleFor(hasFill, hasStroke bool) string {
	switch {
	case hasFill && hasStroke:
		return "FD"
	case hasFill:
		return "F"
	default:
		return "D"
	}
}

func (d *drawer) drawBox(b *layout.Box) {
	hasFill := b.Fill != ""
	hasStroke := b.Stroke != "" && b.StrokeWidth > 0
	if !hasFill && !hasStroke {
		return
	}
	if hasFill {
		d.fill(b.Fill)
	}
	if hasStroke {
		d.stroke(b.Stroke, b.StrokeWidth, b.Dashed)
	}
	style := styleFor(hasFill, hasStroke)
	d.withAlpha(b.Opacity, func() {
		if b.Shape == layout.ShapeEllipse {
			d.pdf.Ellipse(b.X+b.W/2, b.Y+b.H/2, b.W/2, b.H/2, 0, style)
			return
		}
		d.pdf.Rect(b.X, b.Y, b.W, b.H, style)
	})
	d.pdf.SetDashPattern([]float64{}, 0)
}

func (d *drawer) drawLine(l *layout.Line) {
	width := l.Width
	if width <= 0 {
		width = 0.75
	}
	d.stroke(l.Color, width, l.Dashed)
	d.pdf.Line(l.X1, l.Y1, l.X2, l.Y2)
	d.pdf.SetDashPattern([]float64{}, 0)
}

func (d *drawer) drawPlaceholder(p *layout.Placeholder) {
	fill := p.Fill
	if fill == "" {
		fill = "#EEF0F3"
	}
	stroke := p.Stroke
	if stroke == "" {
		stroke = "#B0B7C3"
	}
	d.drawBox(&layout.Box{Rect: p.Rect, Fill: fill, Stroke: stroke, StrokeWidth: 0.75, Dashed: true})

	label := p.Label
	if label == "" {
		label = "No image"
	}
	size := min(max(p.H/8, 7), 12)
	d.drawText(&layout.Text{
		Rect:    p.Rect,
		Content: label,
		Font:    layout.Font{Family: "Helvetica", Size: size},
		Color:   "#6B7280",
		Align:   layout.AlignCenter,
		VAlign:  layout.VAlignMiddle,
	})
}

func (d *drawer) drawImage(img *layout.Image) error {
	if err := d.ctx.Err(); err != nil {
		return err
	}
	loaded, name, err := d.register(img.Src)
	if err != nil {
		if img.Required {
			return fmt.Errorf("%w: %s: %v", ErrRequiredImage, img.Key, err)
		}
		d.degraded = append(d.degraded, img.Key)
		d.drawPlaceholder(&layout.Placeholder{Rect: img.Rect, Key: img.Key})
		return nil
	}

	x, y, w, h := fitRect(img.Rect, loaded.AspectRatio(), img.Fit)
	opts := gofpdf.ImageOptions{ImageType: loaded.Format}
	if img.Fit == layout.FitCover {
		d.pdf.ClipRect(img.X, img.Y, img.W, img.H, false)
		d.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
		d.pdf.ClipEnd()
		return nil
	}
	d.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return nil
}

// register loads src once per document and registers it with gofpdf.
func (d *drawer) register(src string) (*imageload.Image, string, error) {
	sum := sha1.Sum([]byte(src)) // #nosec G401 -- not a security boundary
	name := hex.EncodeToString(sum[:])
	if img, ok := d.registered[name]; ok {
		return img, name, nil
	}
	if d.images == nil {
		return nil, "", errors.New("no image loader configured")
	}
	img, err := d.images.Load(d.ctx, src)
	if err != nil {
		return nil, "", err
	}
	d.pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: img.Format}, bytes.NewReader(img.Data))
	if err := d.pdf.Error(); err != nil {
		return nil, "", err
	}
	d.registered[name] = img
	return img, name, nil
}

// fitRect scales an image of the given aspect ratio into r.
func fitRect(r layout.Rect, aspect float64, fit layout.Fit) (x, y, w, h float64) {
	if r.H == 0 || aspect <= 0 {
		return r.X, r.Y, r.W, r.H
	}
	wider := aspect > r.W/r.H
	switch {
	case fit == layout.FitCover && wider, fit == layout.FitContain && !wider:
		h = r.H
		w = r.H * aspect
	default:
		w = r.W
		h = r.W / aspect
	}
	return r.X + (r.W-w)/2, r.Y + (r.H-h)/2, w, h
}

func (d *drawer) drawText(t *layout.Text) {
	content := t.Content
	if t.Markdown {
		content = d.md.ToPlain(content)
	}
	if strings.TrimSpace(content) == "" {
		return
	}

	size := t.Font.Size
	if size <= 0 {
		size = 11
	}
	d.pdf.SetFont(coreFont(t.Font.Family), fontStyle(t.Font), size)
	r, g, b := t.Color.RGB()
	d.pdf.SetTextColor(r, g, b)

	lineH := layout.LineHeight(size)
	lines := d.wrap(d.tr(content), t.W)
	if fit := int(t.H / lineH); len(lines) > fit && fit >= 1 {
		lines = lines[:fit]
	}

	top := t.Y
	blockH := float64(len(lines)) * lineH
	switch t.VAlign {
	case layout.VAlignMiddle:
		top = t.Y + (t.H-blockH)/2
	case layout.VAlignBottom:
		top = t.Y + t.H - blockH
	}

	align := map[layout.Align]string{layout.AlignLeft: "L", layout.AlignCenter: "C", layout.AlignRight: "R"}[t.Align]

	render := func() {
		for i, line := range lines {
			d.pdf.SetXY(t.X, top+float64(i)*lineH)
			d.pdf.CellFormat(t.W, lineH, line, "", 0, align+"M", false, 0, "")
		}
	}

	if t.Rotation == 0 {
		d.withAlpha(t.Opacity, render)
		return
	}
	d.pdf.TransformBegin()
	d.pdf.TransformRotate(t.Rotation, t.X+t.W/2, t.Y+t.H/2)
	d.withAlpha(t.Opacity, render)
	d.pdf.TransformEnd()
}

// wrap splits text on explicit newlines, then on width.
func (d *drawer) wrap(text string, width float64) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		if para == "" {
			out = append(out, "")
			continue
		}
		for _, l := range d.pdf.SplitLines([]byte(para), width) {
			out = append(out, string(l))
		}
	}
	return out
}

// coreFont maps a typography family onto one of the PDF core fonts.
func coreFont(family string) string {
	f := strings.ToLower(family)
	switch {
	case strings.Contains(f, "mono"), strings.Contains(f, "courier"):
		return "Courier"
	case strings.Contains(f, "sans"), strings.Contains(f, "helvetica"), strings.Contains(f, "arial"):
		return "Helvetica"
	case strings.Contains(f, "serif"), strings.Contains(f, "times"), strings.Contains(f, "georgia"):
		return "Times"
	default:
		return "Helvetica"
	}
}

func fontStyle(f layout.Font) string {
	s := ""
	if f.Bold {
		s += "B"
	}
	if f.Italic {
		s += "I"
	}
	return s
}
