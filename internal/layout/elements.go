package layout

// Element is a positioned drawing instruction. The set of element types is
// closed; backends switch over it exhaustively.
type Element interface {
	Bounds() Rect
	// Translate returns a copy moved by (dx, dy).
	Translate(dx, dy float64) Element
	isElement()
}

// Shape selects how a Box is outlined.
type Shape int

const (
	ShapeRect Shape = iota
	ShapeEllipse
)

// Box is a filled and/or stroked rectangle or ellipse.
type Box struct {
	Rect
	Shape       Shape
	Fill        Color
	Stroke      Color
	StrokeWidth float64
	Dashed      bool
	// Opacity of the fill in (0,1]; zero means opaque.
	Opacity float64
}

// Line is a straight segment.
type Line struct {
	X1, Y1, X2, Y2 float64
	Color          Color
	Width          float64
	Dashed         bool
}

// Fit controls how an image is scaled into its rectangle.
type Fit int

const (
	// FitCover fills the rectangle and crops the overflow.
	FitCover Fit = iota
	// FitContain shows the whole image, letterboxed.
	FitContain
)

// Image draws a resolved image source (URL, data URI or file path).
type Image struct {
	Rect
	Src string
	Key string
	Fit Fit
	// Required images abort rendering when they cannot be loaded; optional
	// ones degrade to a placeholder.
	Required bool
}

// Placeholder marks a slot whose image is unavailable.
type Placeholder struct {
	Rect
	Key    string
	Label  string
	Fill   Color
	Stroke Color
}

// Align is horizontal text alignment.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// VAlign is vertical text alignment inside the text rectangle.
type VAlign int

const (
	VAlignTop VAlign = iota
	VAlignMiddle
	VAlignBottom
)

// Font is a family name, a size in points and a weight.
type Font struct {
	Family string
	Size   float64
	Bold   bool
	Italic bool
}

// Text is wrapped inside its rectangle; lines that do not fit are dropped.
type Text struct {
	Rect
	Content  string
	Markdown bool
	Font     Font
	Color    Color
	Align    Align
	VAlign   VAlign
	// Rotation in degrees, counter-clockwise around the rectangle center.
	Rotation float64
	// Opacity in (0,1]; zero means opaque.
	Opacity float64
}

func (b *Box) Bounds() Rect         { return b.Rect }
func (i *Image) Bounds() Rect       { return i.Rect }
func (p *Placeholder) Bounds() Rect { return p.Rect }
func (t *Text) Bounds() Rect        { return t.Rect }

func (l *Line) Bounds() Rect {
	return Rect{X: min(l.X1, l.X2), Y: min(l.Y1, l.Y2), W: abs(l.X2 - l.X1), H: abs(l.Y2 - l.Y1)}
}

func (b *Box) Translate(dx, dy float64) Element {
	c := *b
	c.Rect = b.Offset(dx, dy)
	return &c
}

func (l *Line) Translate(dx, dy float64) Element {
	c := *l
	c.X1, c.X2 = l.X1+dx, l.X2+dx
	c.Y1, c.Y2 = l.Y1+dy, l.Y2+dy
	return &c
}

func (i *Image) Translate(dx, dy float64) Element {
	c := *i
	c.Rect = i.Offset(dx, dy)
	return &c
}

func (p *Placeholder) Translate(dx, dy float64) Element {
	c := *p
	c.Rect = p.Offset(dx, dy)
	return &c
}

func (t *Text) Translate(dx, dy float64) Element {
	c := *t
	c.Rect = t.Offset(dx, dy)
	return &c
}

func (*Box) isElement()         {}
func (*Line) isElement()        {}
func (*Image) isElement()       {}
func (*Placeholder) isElement() {}
func (*Text) isElement()        {}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

var (
	_ Element = (*Box)(nil)
	_ Element = (*Line)(nil)
	_ Element = (*Image)(nil)
	_ Element = (*Placeholder)(nil)
	_ Element = (*Text)(nil)
)
