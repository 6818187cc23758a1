package printables

import "github.com/alnah/go-printables/internal/layout"

// cardFace is the kind-neutral front of one card.
type cardFace struct {
	Label       string
	Description string
	AssetKey    string
}

// cardBack is the reverse of one card: text, an image, or both.
type cardBack struct {
	Text     string
	AssetKey string
}

const (
	cardPadding  = 6.0
	cutLineColor = layout.Color("#9AA5B1")
)

func (b *builder) emotionCards(c *EmotionCards) (*layout.Document, error) {
	faces := make([]cardFace, len(c.Cards))
	for i, card := range c.Cards {
		faces[i] = cardFace{Label: card.Emotion, Description: card.Description, AssetKey: card.AssetKey}
	}
	pages, err := b.cardSheets(faces, nil)
	if err != nil {
		return nil, err
	}
	return b.document(c.Title, pages), nil
}

func (b *builder) flashcards(c *Flashcards) (*layout.Document, error) {
	faces := make([]cardFace, len(c.Cards))
	backs := make([]cardBack, len(c.Cards))
	for i, card := range c.Cards {
		faces[i] = cardFace{Label: card.Front, AssetKey: card.AssetKey}
		backs[i] = cardBack{Text: card.Back}
	}
	pages, err := b.cardSheets(faces, backs)
	if err != nil {
		return nil, err
	}
	return b.document(c.Title, pages), nil
}

func (b *builder) cardGame(c *CardGame) (*layout.Document, error) {
	deck := c.expanded()
	faces := make([]cardFace, len(deck))
	backs := make([]cardBack, len(deck))
	for i, card := range deck {
		faces[i] = cardFace{Label: card.Title, Description: card.Text, AssetKey: card.AssetKey}
		backs[i] = cardBack{Text: c.Title, AssetKey: c.BackAssetKey}
	}
	pages, err := b.cardSheets(faces, backs)
	if err != nil {
		return nil, err
	}
	return b.document(c.Title, pages), nil
}

// cardSheets lays faces out on portrait sheets using the fixed grid. When
// card backs are requested and backs is non-nil, each front sheet is
// followed by its mirrored back sheet.
func (b *builder) cardSheets(faces []cardFace, backs []cardBack) ([]*layout.Page, error) {
	grid, err := GridFor(b.opts.CardsPerPage)
	if err != nil {
		return nil, err
	}
	dims := ComputeCardLayout(b.style.CardLayout, b.opts.ShowLabels, b.opts.ShowDescriptions)
	withBacks := b.opts.IncludeCardBacks && backs != nil
	perPage := grid.PerPage()

	var pages []*layout.Page
	for start := 0; start < len(faces); start += perPage {
		end := min(start+perPage, len(faces))

		front := b.newPage(PageWidth, PageHeight)
		for i := start; i < end; i++ {
			b.drawCard(front, toLayoutRect(CardRect(grid, i-start)), faces[i], dims)
		}
		if b.opts.ShowCutLines {
			b.cutLines(front, grid)
		}
		pages = append(pages, front)

		if withBacks {
			back := b.newPage(PageWidth, PageHeight)
			for i := start; i < end; i++ {
				b.drawBack(back, toLayoutRect(MirroredCardRect(grid, i-start)), backs[i], dims)
			}
			if b.opts.ShowCutLines {
				b.cutLines(back, grid)
			}
			pages = append(pages, back)
		}
	}
	return pages, nil
}

func toLayoutRect(r Rect) layout.Rect {
	return layout.Rect{X: r.X, Y: r.Y, W: r.W, H: r.H}
}

// drawCard renders one front face. Element order is background, image,
// text band, text, frame overlay, border.
func (b *builder) drawCard(p *layout.Page, r layout.Rect, face cardFace, dims CardLayoutDimensions) {
	p.Add(&layout.Box{Rect: r, Fill: "#FFFFFF"})

	imgRect := layout.Rect{X: r.X, Y: r.Y, W: r.W, H: r.H * min(dims.ImageHeightPercent, 100) / 100}
	p.Add(b.optionalImage(imgRect, face.AssetKey, layout.FitCover))

	if dims.HasContent {
		band := layout.Rect{
			X: r.X,
			Y: r.Y + r.H*dims.ContentTopPercent/100,
			W: r.W,
			H: r.H * dims.ContentHeightPercent / 100,
		}
		bg := &layout.Box{Rect: band, Fill: layout.Color(b.style.Palette.Background)}
		if dims.Overlay {
			bg.Opacity = 0.85
		}
		p.Add(bg)
		b.cardText(p, band.Inset(cardPadding), face, min(r.W, r.H))
	}

	if el, ok := b.decoration(r, b.style.cardOverlayKey()); ok {
		p.Add(el)
	}
	b.cardBorder(p, r, dims)
}

// cardText fills the text band with the label and/or description.
func (b *builder) cardText(p *layout.Page, r layout.Rect, face cardFace, cardSide float64) {
	labelSize := clamp(cardSide*0.08, 9, 20)
	descSize := max(labelSize*0.7, 7)

	showLabel := b.opts.ShowLabels && face.Label != ""
	showDesc := b.opts.ShowDescriptions && face.Description != ""

	switch {
	case showLabel && showDesc:
		labelH := min(layout.LineHeight(labelSize)*1.2, r.H/2)
		p.Add(b.heading(layout.Rect{X: r.X, Y: r.Y, W: r.W, H: labelH}, face.Label, labelSize))
		desc := b.body(layout.Rect{X: r.X, Y: r.Y + labelH, W: r.W, H: r.H - labelH}, face.Description, descSize)
		desc.Align = layout.AlignCenter
		p.Add(desc)
	case showLabel:
		p.Add(b.heading(r, face.Label, labelSize))
	case showDesc:
		desc := b.body(r, face.Description, descSize)
		desc.Align = layout.AlignCenter
		desc.VAlign = layout.VAlignMiddle
		p.Add(desc)
	}
}

func (b *builder) cardBorder(p *layout.Page, r layout.Rect, dims CardLayoutDimensions) {
	if dims.BorderWidth <= 0 {
		return
	}
	color := layout.Color(dims.BorderColor)
	if !color.Valid() {
		color = layout.Color(b.style.Palette.Primary)
	}
	p.Add(&layout.Box{Rect: r, Stroke: color, StrokeWidth: dims.BorderWidth})
}

// drawBack renders the reverse of a card at its mirrored position.
func (b *builder) drawBack(p *layout.Page, r layout.Rect, back cardBack, dims CardLayoutDimensions) {
	p.Add(&layout.Box{Rect: r, Fill: layout.Color(b.style.Palette.Secondary)})
	if back.AssetKey != "" {
		p.Add(b.optionalImage(r, back.AssetKey, layout.FitCover))
	}
	if back.Text != "" && back.AssetKey == "" {
		size := clamp(min(r.W, r.H)*0.08, 9, 20)
		t := b.body(r.Inset(2*cardPadding), back.Text, size)
		t.Align = layout.AlignCenter
		t.VAlign = layout.VAlignMiddle
		p.Add(t)
	}
	b.cardBorder(p, r, dims)
}

// cutLines draws dashed guides through the middle of every gap and around
// the outer edge of the grid.
func (b *builder) cutLines(p *layout.Page, g Grid) {
	w, h := CardSize(g)
	half := CardGap / 2
	top, bottom := PageMargin-half, PageHeight-PageMargin+half
	left, right := PageMargin-half, PageWidth-PageMargin+half

	for c := 0; c <= g.Cols; c++ {
		x := PageMargin + float64(c)*(w+CardGap) - half
		p.Add(&layout.Line{X1: x, Y1: top, X2: x, Y2: bottom, Color: cutLineColor, Width: 0.5, Dashed: true})
	}
	for r := 0; r <= g.Rows; r++ {
		y := PageMargin + float64(r)*(h+CardGap) - half
		p.Add(&layout.Line{X1: left, Y1: y, X2: right, Y2: y, Color: cutLineColor, Width: 0.5, Dashed: true})
	}
}
