package printables

import "fmt"

// Card layout defaults, in percent of the card height.
const (
	DefaultContentHeight = 25.0
	DefaultImageOverlap  = 11.0
)

// Sheet geometry in points, shared by every card-grid kind.
const (
	PageWidth  = 595.28
	PageHeight = 841.89
	PageMargin = 36.0
	CardGap    = 12.0
)

// CardLayoutDimensions is the derived split between the image area and the
// text band of one card. Values are percentages of the card height. In
// bottom mode ImageHeightPercent may exceed 100 when the overlap is larger
// than the content height; drawing clips the image to the card.
type CardLayoutDimensions struct {
	ImageHeightPercent   float64
	ContentHeightPercent float64
	ContentTopPercent    float64
	HasContent           bool
	Overlay              bool
	BorderWidth          float64
	BorderColor          string
}

// ComputeCardLayout derives card dimensions from the style's card layout and
// the display flags. A nil cfg means defaults. The function is pure: preview
// and final rendering both call it and must agree exactly.
func ComputeCardLayout(cfg *CardLayout, showLabels, showDescriptions bool) CardLayoutDimensions {
	position := TextPositionBottom
	contentHeight := DefaultContentHeight
	overlap := DefaultImageOverlap
	dims := CardLayoutDimensions{}

	if cfg != nil {
		if cfg.TextPosition != "" {
			position = cfg.TextPosition
		}
		if cfg.ContentHeight != nil {
			contentHeight = *cfg.ContentHeight
		}
		if cfg.ImageOverlap != nil {
			overlap = *cfg.ImageOverlap
		}
		dims.BorderWidth = max(cfg.BorderWidth, 0)
		dims.BorderColor = cfg.BorderColor
	}

	contentHeight = clamp(contentHeight, 0, 100)
	overlap = clamp(overlap, 0, 100-contentHeight)
	wantsText := showLabels || showDescriptions

	switch position {
	case TextPositionIntegrated:
		dims.HasContent = false
	case TextPositionOverlay:
		dims.Overlay = true
		dims.HasContent = wantsText
		dims.ImageHeightPercent = 100
		dims.ContentHeightPercent = contentHeight
		dims.ContentTopPercent = 100 - contentHeight
	default:
		dims.HasContent = wantsText
		dims.ImageHeightPercent = 100 - contentHeight + overlap
		dims.ContentHeightPercent = contentHeight
		dims.ContentTopPercent = 100 - contentHeight - overlap
	}

	if !dims.HasContent {
		dims.ImageHeightPercent = 100
		dims.ContentHeightPercent = 0
		dims.ContentTopPercent = 100
	}
	return dims
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Grid is a fixed column/row arrangement of cards on one sheet.
type Grid struct {
	Cols int
	Rows int
}

// PerPage returns the number of card slots in the grid.
func (g Grid) PerPage() int { return g.Cols * g.Rows }

// gridTable is a lookup, not a factorization: 6 is 2x3, never 3x2.
var gridTable = map[int]Grid{
	4: {Cols: 2, Rows: 2},
	6: {Cols: 2, Rows: 3},
	9: {Cols: 3, Rows: 3},
}

// DefaultCardsPerPage is used when DocumentOptions leaves it unset.
const DefaultCardsPerPage = 6

// GridFor returns the grid for a supported cards-per-page value.
func GridFor(cardsPerPage int) (Grid, error) {
	g, ok := gridTable[cardsPerPage]
	if !ok {
		return Grid{}, fmt.Errorf("%w: %d (must be 4, 6, or 9)", ErrInvalidCardsPerPage, cardsPerPage)
	}
	return g, nil
}

// Rect is an axis-aligned rectangle in points, origin top-left.
type Rect struct {
	X, Y, W, H float64
}

// CardSize returns the width and height of one card in the grid: the
// usable area (sheet minus margins minus gaps) divided evenly.
func CardSize(g Grid) (w, h float64) {
	usableW := PageWidth - 2*PageMargin - float64(g.Cols-1)*CardGap
	usableH := PageHeight - 2*PageMargin - float64(g.Rows-1)*CardGap
	return usableW / float64(g.Cols), usableH / float64(g.Rows)
}

// CardRect places slot i of a sheet in row-major order.
func CardRect(g Grid, i int) Rect {
	w, h := CardSize(g)
	col := i % g.Cols
	row := i / g.Cols
	return Rect{
		X: PageMargin + float64(col)*(w+CardGap),
		Y: PageMargin + float64(row)*(h+CardGap),
		W: w,
		H: h,
	}
}

// MirroredCardRect places slot i as it must appear on the back of the sheet
// so that long-edge duplex printing lines fronts and backs up.
func MirroredCardRect(g Grid, i int) Rect {
	col := i % g.Cols
	row := i / g.Cols
	return CardRect(g, row*g.Cols+(g.Cols-1-col))
}
