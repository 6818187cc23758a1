package printables

import (
	"fmt"
	"strings"

	"github.com/alnah/go-printables/internal/dateutil"
	"github.com/alnah/go-printables/internal/layout"
)

const fullPageMargin = 36.0

func (b *builder) poster(c *Poster) (*layout.Document, error) {
	w, h := b.pageSize(false)
	p := b.newPage(w, h)
	area := layout.Rect{W: w, H: h}.Inset(fullPageMargin)

	top := area.Y
	if c.Title != "" {
		size := 34.0
		th := layout.EstimateHeight(c.Title, size, area.W) + 8
		p.Add(b.heading(layout.Rect{X: area.X, Y: top, W: area.W, H: th}, c.Title, size))
		top += th
	}
	if c.Subtitle != "" {
		size := 16.0
		sh := layout.EstimateHeight(c.Subtitle, size, area.W) + 6
		sub := b.body(layout.Rect{X: area.X, Y: top, W: area.W, H: sh}, c.Subtitle, size)
		sub.Align = layout.AlignCenter
		p.Add(sub)
		top += sh
	}
	bottom := area.Y + area.H
	var caption *layout.Text
	if c.Caption != "" {
		size := 13.0
		ch := layout.EstimateHeight(c.Caption, size, area.W) + 6
		bottom -= ch
		caption = b.markdown(layout.Rect{X: area.X, Y: bottom, W: area.W, H: ch}, c.Caption, size)
		caption.Align = layout.AlignCenter
	}

	img, err := b.requiredImage(layout.Rect{X: area.X, Y: top + 8, W: area.W, H: bottom - top - 16}, c.AssetKey, layout.FitContain)
	if err != nil {
		return nil, err
	}
	p.Add(img)
	if caption != nil {
		p.Add(caption)
	}
	b.frame(p)
	return b.document(c.Title, []*layout.Page{p}), nil
}

func (b *builder) freePrompt(c *FreePrompt) (*layout.Document, error) {
	w, h := b.pageSize(false)
	p := b.newPage(w, h)
	area := layout.Rect{W: w, H: h}.Inset(fullPageMargin)

	imgH := area.H
	var caption *layout.Text
	if c.Caption != "" {
		size := 14.0
		ch := layout.EstimateHeight(c.Caption, size, area.W) + 12
		imgH -= ch
		caption = b.markdown(layout.Rect{X: area.X, Y: area.Y + imgH + 12, W: area.W, H: ch - 12}, c.Caption, size)
		caption.Align = layout.AlignCenter
	}
	img, err := b.requiredImage(layout.Rect{X: area.X, Y: area.Y, W: area.W, H: imgH}, c.AssetKey, layout.FitContain)
	if err != nil {
		return nil, err
	}
	p.Add(img)
	if caption != nil {
		p.Add(caption)
	}
	b.frame(p)

	title := c.Caption
	if title == "" {
		title = c.Prompt
	}
	return b.document(title, []*layout.Page{p}), nil
}

func (b *builder) boardGame(c *BoardGame) (*layout.Document, error) {
	w, h := b.pageSize(true)
	board := b.newPage(w, h)
	area := layout.Rect{W: w, H: h}.Inset(fullPageMargin / 2)

	if c.Title != "" {
		size := 20.0
		th := layout.LineHeight(size) + 4
		board.Add(b.heading(layout.Rect{X: area.X, Y: area.Y, W: area.W, H: th}, c.Title, size))
		area.Y += th
		area.H -= th
	}
	img, err := b.requiredImage(area, c.BoardAssetKey, layout.FitContain)
	if err != nil {
		return nil, err
	}
	board.Add(img)
	pages := []*layout.Page{board}

	if len(c.Instructions) > 0 {
		rules := b.newPage(w, h)
		body := layout.Rect{W: w, H: h}.Inset(fullPageMargin * 1.5)
		size := 20.0
		rules.Add(b.heading(layout.Rect{X: body.X, Y: body.Y, W: body.W, H: 30}, "How to play", size))

		var sb strings.Builder
		for i, step := range c.Instructions {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, step)
		}
		rules.Add(b.body(layout.Rect{X: body.X, Y: body.Y + 44, W: body.W, H: body.H - 44}, strings.TrimSuffix(sb.String(), "\n"), 13))
		b.frame(rules)
		pages = append(pages, rules)
	}
	return b.document(c.Title, pages), nil
}

func (b *builder) coloringPages(c *ColoringPages) (*layout.Document, error) {
	w, h := b.pageSize(false)
	pages := make([]*layout.Page, 0, len(c.Pages))
	for _, cp := range c.Pages {
		// Coloring pages are printed on white regardless of the palette.
		p := layout.NewPage(w, h)
		area := layout.Rect{W: w, H: h}.Inset(fullPageMargin)
		if c.Title != "" {
			p.Add(b.heading(layout.Rect{X: area.X, Y: area.Y, W: area.W, H: 24}, c.Title, 16))
			area.Y += 30
			area.H -= 30
		}
		if cp.Caption != "" {
			area.H -= 30
			capt := b.body(layout.Rect{X: area.X, Y: area.Y + area.H + 8, W: area.W, H: 22}, cp.Caption, 14)
			capt.Align = layout.AlignCenter
			p.Add(capt)
		}
		img, err := b.requiredImage(area, cp.AssetKey, layout.FitContain)
		if err != nil {
			return nil, err
		}
		p.Add(img)
		pages = append(pages, p)
	}
	return b.document(c.Title, pages), nil
}

// Certificate text defaults.
const (
	defaultCertificateTitle = "Certificate of Achievement"
	certificatePresentedTo  = "This certificate is proudly presented to"
)

func (b *builder) certificate(c *Certificate) (*layout.Document, error) {
	w, h := b.pageSize(true)
	p := b.newPage(w, h)

	bg, err := b.requiredImage(layout.Rect{W: w, H: h}, c.BackgroundAssetKey, layout.FitCover)
	if err != nil {
		return nil, err
	}
	p.Add(bg)

	date, err := dateutil.Resolve(c.Date, b.now)
	if err != nil {
		return nil, fmt.Errorf("%w: certificate date: %v", ErrInvalidContent, err)
	}
	title := c.Title
	if title == "" {
		title = defaultCertificateTitle
	}

	area := layout.Rect{W: w, H: h}.Inset(w * 0.12)
	y := area.Y
	line := func(text string, size, height float64, heading bool) {
		var t *layout.Text
		if heading {
			t = b.heading(layout.Rect{X: area.X, Y: y, W: area.W, H: height}, text, size)
		} else {
			t = b.body(layout.Rect{X: area.X, Y: y, W: area.W, H: height}, text, size)
			t.Align = layout.AlignCenter
			t.VAlign = layout.VAlignMiddle
		}
		p.Add(t)
		y += height
	}
	line(title, 32, 56, true)
	line(certificatePresentedTo, 14, 36, false)
	line(c.Recipient, 36, 60, true)
	if c.Achievement != "" {
		line(c.Achievement, 15, layout.EstimateHeight(c.Achievement, 15, area.W)+16, false)
	}

	// Date and signer sit on signature lines at the bottom.
	footY := area.Y + area.H - 36
	colW := area.W * 0.35
	slots := []struct {
		x     float64
		label string
		value string
	}{
		{area.X, "Date", date},
		{area.X + area.W - colW, "Signed", c.Signer},
	}
	for _, s := range slots {
		if s.value == "" {
			continue
		}
		v := b.body(layout.Rect{X: s.x, Y: footY - 20, W: colW, H: 18}, s.value, 12)
		v.Align = layout.AlignCenter
		v.VAlign = layout.VAlignBottom
		p.Add(v,
			&layout.Line{X1: s.x, Y1: footY, X2: s.x + colW, Y2: footY, Color: layout.Color(b.style.Palette.Text), Width: 0.75},
		)
		l := b.body(layout.Rect{X: s.x, Y: footY + 4, W: colW, H: 14}, s.label, 9)
		l.Align = layout.AlignCenter
		p.Add(l)
	}
	b.frame(p)
	return b.document(title, []*layout.Page{p}), nil
}
