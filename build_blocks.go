package printables

import (
	"strconv"

	"github.com/alnah/go-printables/internal/layout"
)

// Block layout constants in points.
const (
	blockMargin      = 48.0
	blockSpacing     = 14.0
	ruledLineSpacing = 26.0
	headerImageH     = 110.0
	bodySize         = 11.5
	defaultLines     = 5
	defaultPromptLns = 3
	defaultLevels    = 5
	defaultBoxH      = 200.0
)

// flow stacks blocks top to bottom, starting a new page when the next block
// does not fit. A block taller than a whole page is placed anyway on a
// fresh page and clipped by the backend.
type flow struct {
	b      *builder
	w, h   float64
	pages  []*layout.Page
	page   *layout.Page
	y      float64
	inner  layout.Rect
	placed bool
}

func (b *builder) newFlow(w, h float64) *flow {
	f := &flow{b: b, w: w, h: h, inner: layout.Rect{W: w, H: h}.Inset(blockMargin)}
	f.addPage()
	return f
}

func (f *flow) addPage() {
	f.page = f.b.newPage(f.w, f.h)
	f.pages = append(f.pages, f.page)
	f.y = f.inner.Y
	f.placed = false
}

// reserve returns a rectangle of height h at the current position, moving
// to a new page first if needed.
func (f *flow) reserve(h float64) layout.Rect {
	if f.placed && f.y+h > f.inner.Y+f.inner.H {
		f.addPage()
	}
	r := layout.Rect{X: f.inner.X, Y: f.y, W: f.inner.W, H: h}
	f.y += h + blockSpacing
	f.placed = true
	return r
}

func (f *flow) add(els ...layout.Element) { f.page.Add(els...) }

// header places the optional header image and the title.
func (f *flow) header(title, imageKey string) {
	if imageKey != "" {
		f.add(f.b.optionalImage(f.reserve(headerImageH), imageKey, layout.FitContain))
	}
	if title != "" {
		size := 24.0
		r := f.reserve(layout.EstimateHeight(title, size, f.inner.W) + 4)
		f.add(f.b.heading(r, title, size))
	}
}

func (f *flow) text(content string, size float64, markdown bool) {
	if content == "" {
		return
	}
	r := f.reserve(layout.EstimateHeight(content, size, f.inner.W))
	if markdown {
		f.add(f.b.markdown(r, content, size))
		return
	}
	f.add(f.b.body(r, content, size))
}

func (f *flow) ruledLines(n int) {
	r := f.reserve(float64(n) * ruledLineSpacing)
	color := layout.Color(f.b.style.Palette.Secondary)
	for i := 1; i <= n; i++ {
		y := r.Y + float64(i)*ruledLineSpacing
		f.add(&layout.Line{X1: r.X, Y1: y, X2: r.X + r.W, Y2: y, Color: color, Width: 0.75})
	}
}

// ---------------------------------------------------------------------------
// Worksheet
// ---------------------------------------------------------------------------

func (b *builder) worksheet(c *Worksheet) (*layout.Document, error) {
	w, h := b.pageSize(false)
	f := b.newFlow(w, h)
	f.header(c.Title, c.HeaderAssetKey)
	f.text(c.Instructions, bodySize, true)

	for _, block := range c.Blocks {
		f.block(block)
	}
	for _, p := range f.pages {
		b.frame(p)
	}
	return b.document(c.Title, f.pages), nil
}

func (f *flow) block(blk WorksheetBlock) {
	b := f.b
	switch blk.Type {
	case BlockHeading:
		size := 16.0
		r := f.reserve(layout.EstimateHeight(blk.Text, size, f.inner.W))
		t := b.heading(r, blk.Text, size)
		t.Align = layout.AlignLeft
		f.add(t)
	case BlockText:
		f.text(blk.Text, bodySize, true)
	case BlockPrompt:
		f.text(blk.Text, bodySize+1, true)
		f.ruledLines(orDefault(blk.Lines, defaultPromptLns))
	case BlockLines:
		f.ruledLines(orDefault(blk.Lines, defaultLines))
	case BlockChecklist:
		f.checklist(blk.Items)
	case BlockRatingScale:
		f.ratingScale(blk)
	case BlockDrawingBox:
		f.text(blk.Text, bodySize, false)
		r := f.reserve(orDefaultF(blk.Height, defaultBoxH))
		f.add(&layout.Box{Rect: r, Stroke: layout.Color(b.style.Palette.Primary), StrokeWidth: 1.25})
	case BlockImage:
		r := f.reserve(orDefaultF(blk.Height, defaultBoxH))
		f.add(b.optionalImage(r, blk.AssetKey, layout.FitContain))
		if blk.Text != "" {
			capt := b.body(f.reserve(layout.LineHeight(bodySize)), blk.Text, bodySize-1)
			capt.Align = layout.AlignCenter
			f.add(capt)
		}
	}
}

func (f *flow) checklist(items []string) {
	const box = 12.0
	b := f.b
	for _, item := range items {
		textW := f.inner.W - box - 10
		h := max(layout.EstimateHeight(item, bodySize, textW), box+2)
		r := f.reserve(h)
		f.add(
			&layout.Box{
				Rect:        layout.Rect{X: r.X, Y: r.Y + 1, W: box, H: box},
				Stroke:      layout.Color(b.style.Palette.Primary),
				StrokeWidth: 1,
			},
			b.body(layout.Rect{X: r.X + box + 10, Y: r.Y, W: textW, H: h}, item, bodySize),
		)
	}
}

// ratingScale draws the question, a row of numbered circles and optional
// end labels under the first and last circle.
func (f *flow) ratingScale(blk WorksheetBlock) {
	b := f.b
	f.text(blk.Text, bodySize+1, false)
	levels := orDefault(blk.Levels, defaultLevels)

	const d = 30.0
	labelH := 0.0
	if len(blk.Labels) > 0 {
		labelH = 16
	}
	r := f.reserve(d + labelH)
	step := r.W / float64(levels)
	for i := range levels {
		cx := r.X + step*(float64(i)+0.5)
		circle := layout.Rect{X: cx - d/2, Y: r.Y, W: d, H: d}
		num := b.body(circle, strconv.Itoa(i+1), 11)
		num.Align = layout.AlignCenter
		num.VAlign = layout.VAlignMiddle
		f.add(
			&layout.Box{Rect: circle, Shape: layout.ShapeEllipse, Stroke: layout.Color(b.style.Palette.Primary), StrokeWidth: 1.25},
			num,
		)
	}
	if labelH == 0 {
		return
	}
	low := b.body(layout.Rect{X: r.X, Y: r.Y + d + 2, W: step * 2, H: labelH}, blk.Labels[0], 9)
	f.add(low)
	if len(blk.Labels) > 1 {
		high := b.body(layout.Rect{X: r.X + r.W - step*2, Y: r.Y + d + 2, W: step * 2, H: labelH}, blk.Labels[len(blk.Labels)-1], 9)
		high.Align = layout.AlignRight
		f.add(high)
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orDefaultF(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

// ---------------------------------------------------------------------------
// Book
// ---------------------------------------------------------------------------

func (b *builder) book(c *Book) (*layout.Document, error) {
	w, h := PageWidth, PageHeight
	if b.opts.Booklet {
		w, h = a5Width, a5Height
	}
	margin := w * 0.08

	cover := b.newPage(w, h)
	area := layout.Rect{W: w, H: h}.Inset(margin)
	titleSize := w * 0.06
	titleH := layout.EstimateHeight(c.Title, titleSize, area.W) + 8
	cover.Add(b.heading(layout.Rect{X: area.X, Y: area.Y, W: area.W, H: titleH}, c.Title, titleSize))
	imgTop := area.Y + titleH + 12
	imgBottom := area.Y + area.H
	if c.Author != "" {
		authorH := 24.0
		imgBottom -= authorH + 8
		author := b.body(layout.Rect{X: area.X, Y: imgBottom + 8, W: area.W, H: authorH}, c.Author, titleSize*0.45)
		author.Align = layout.AlignCenter
		cover.Add(author)
	}
	if c.CoverAssetKey != "" {
		cover.Add(b.optionalImage(layout.Rect{X: area.X, Y: imgTop, W: area.W, H: imgBottom - imgTop}, c.CoverAssetKey, layout.FitContain))
	}
	pages := []*layout.Page{cover}

	textSize := w * 0.028
	for i, bp := range c.Pages {
		p := b.newPage(w, h)
		textH := area.H * 0.35
		switch {
		case bp.AssetKey == "":
			textH = area.H
		case bp.Text == "":
			textH = 0
		}
		if imgH := area.H - textH; imgH > 0 {
			p.Add(b.optionalImage(layout.Rect{X: area.X, Y: area.Y, W: area.W, H: imgH - 8}, bp.AssetKey, layout.FitContain))
		}
		if textH > 0 {
			t := b.markdown(layout.Rect{X: area.X, Y: area.Y + area.H - textH, W: area.W, H: textH}, bp.Text, textSize)
			if bp.AssetKey == "" {
				t.VAlign = layout.VAlignMiddle
			}
			p.Add(t)
		}
		num := b.body(layout.Rect{X: area.X, Y: h - margin/2 - 10, W: area.W, H: 12}, strconv.Itoa(i+1), 9)
		num.Align = layout.AlignCenter
		p.Add(num)
		pages = append(pages, p)
	}

	if b.opts.Booklet {
		pages = layout.Impose(pages)
	}
	return b.document(c.Title, pages), nil
}

// ---------------------------------------------------------------------------
// Behavior chart
// ---------------------------------------------------------------------------

func (b *builder) behaviorChart(c *BehaviorChart) (*layout.Document, error) {
	w, h := b.pageSize(true)
	p := b.newPage(w, h)
	area := layout.Rect{W: w, H: h}.Inset(fullPageMargin)

	headH := 60.0
	titleX := area.X
	if c.HeaderAssetKey != "" {
		p.Add(b.optionalImage(layout.Rect{X: area.X, Y: area.Y, W: headH, H: headH}, c.HeaderAssetKey, layout.FitContain))
		titleX += headH + 12
	}
	p.Add(b.heading(layout.Rect{X: titleX, Y: area.Y, W: area.X + area.W - titleX, H: headH}, c.Title, 26))

	rewardH := 0.0
	if c.RewardText != "" {
		rewardH = 44
	}
	tableBottom := area.Y + area.H
	if rewardH > 0 {
		tableBottom -= rewardH + 12
	}
	table := layout.Rect{X: area.X, Y: area.Y + headH + 16, W: area.W}
	table.H = tableBottom - table.Y

	cols := c.columns()
	firstW := table.W * 0.3
	colW := (table.W - firstW) / float64(len(cols))
	rowH := table.H / float64(len(c.Behaviors)+1)

	primary := layout.Color(b.style.Palette.Primary)
	p.Add(&layout.Box{Rect: layout.Rect{X: table.X, Y: table.Y, W: table.W, H: rowH}, Fill: primary})
	for i, col := range cols {
		t := b.heading(layout.Rect{X: table.X + firstW + float64(i)*colW, Y: table.Y, W: colW, H: rowH}, col, 12)
		t.Color = layout.Color(b.style.Palette.Background)
		p.Add(t)
	}
	for r, behavior := range c.Behaviors {
		y := table.Y + float64(r+1)*rowH
		if r%2 == 1 {
			p.Add(&layout.Box{Rect: layout.Rect{X: table.X, Y: y, W: table.W, H: rowH}, Fill: layout.Color(b.style.Palette.Secondary), Opacity: 0.2})
		}
		t := b.body(layout.Rect{X: table.X + 6, Y: y, W: firstW - 12, H: rowH}, behavior, 12)
		t.VAlign = layout.VAlignMiddle
		p.Add(t)
	}

	// Grid lines.
	for r := 0; r <= len(c.Behaviors)+1; r++ {
		y := table.Y + float64(r)*rowH
		p.Add(&layout.Line{X1: table.X, Y1: y, X2: table.X + table.W, Y2: y, Color: primary, Width: 0.75})
	}
	xs := []float64{table.X}
	for i := 0; i <= len(cols); i++ {
		xs = append(xs, table.X+firstW+float64(i)*colW)
	}
	for _, x := range xs {
		p.Add(&layout.Line{X1: x, Y1: table.Y, X2: x, Y2: table.Y + table.H, Color: primary, Width: 0.75})
	}

	if rewardH > 0 {
		reward := layout.Rect{X: area.X, Y: area.Y + area.H - rewardH, W: area.W, H: rewardH}
		p.Add(&layout.Box{Rect: reward, Fill: layout.Color(b.style.Palette.Accent), Opacity: 0.15, Stroke: layout.Color(b.style.Palette.Accent), StrokeWidth: 1})
		t := b.body(reward.Inset(6), "Reward: "+c.RewardText, 13)
		t.Align = layout.AlignCenter
		t.VAlign = layout.VAlignMiddle
		p.Add(t)
	}
	b.frame(p)
	return b.document(c.Title, []*layout.Page{p}), nil
}

// ---------------------------------------------------------------------------
// Visual schedule
// ---------------------------------------------------------------------------

const scheduleRowH = 86.0

func (b *builder) visualSchedule(c *VisualSchedule) (*layout.Document, error) {
	w, h := b.pageSize(false)
	f := b.newFlow(w, h)
	f.header(c.Title, c.HeaderAssetKey)

	primary := layout.Color(b.style.Palette.Primary)
	for i, step := range c.Steps {
		r := f.reserve(scheduleRowH)
		badge := layout.Rect{X: r.X, Y: r.Y + (r.H-28)/2, W: 28, H: 28}
		num := b.heading(badge, strconv.Itoa(i+1), 13)
		num.Color = layout.Color(b.style.Palette.Background)
		imgRect := layout.Rect{X: r.X + 40, Y: r.Y, W: r.H, H: r.H}
		textX := imgRect.X + imgRect.W + 16
		check := layout.Rect{X: r.X + r.W - 26, Y: r.Y + (r.H-22)/2, W: 22, H: 22}

		f.add(
			&layout.Box{Rect: r, Stroke: primary, StrokeWidth: 0.75},
			&layout.Box{Rect: badge, Shape: layout.ShapeEllipse, Fill: primary},
			num,
			b.optionalImage(imgRect.Inset(4), step.AssetKey, layout.FitContain),
		)
		labelRect := layout.Rect{X: textX, Y: r.Y, W: check.X - textX - 12, H: r.H}
		if step.Time != "" {
			tm := b.body(layout.Rect{X: textX, Y: r.Y + 10, W: labelRect.W, H: 16}, step.Time, 11)
			tm.Color = layout.Color(b.style.Palette.Accent)
			f.add(tm)
			labelRect.Y += 22
			labelRect.H -= 22
		}
		label := b.heading(labelRect, step.Label, 16)
		label.Align = layout.AlignLeft
		label.Color = layout.Color(b.style.Palette.Text)
		f.add(label, &layout.Box{Rect: check, Stroke: primary, StrokeWidth: 1.25})
	}
	for _, p := range f.pages {
		b.frame(p)
	}
	return b.document(c.Title, f.pages), nil
}
