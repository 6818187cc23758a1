package printables

// Notes:
// - ComputeCardLayout is pure; tests compare whole structs with ==.
// - Grid values are a lookup table; only 4, 6 and 9 are accepted.

import (
	"errors"
	"math"
	"testing"
)

func f64(v float64) *float64 { return &v }

// ---------------------------------------------------------------------------
// TestComputeCardLayout - image/text split per text position
// ---------------------------------------------------------------------------

func TestComputeCardLayout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cfg    *CardLayout
		labels bool
		descs  bool
		want   CardLayoutDimensions
	}{
		{
			name:   "nil config uses bottom defaults",
			cfg:    nil,
			labels: true,
			want:   CardLayoutDimensions{ImageHeightPercent: 86, ContentHeightPercent: 25, ContentTopPercent: 64, HasContent: true},
		},
		{
			name:  "explicit 25/11 bottom",
			cfg:   &CardLayout{TextPosition: TextPositionBottom, ContentHeight: f64(25), ImageOverlap: f64(11), BorderWidth: 2, BorderColor: "#000000"},
			descs: true,
			want:  CardLayoutDimensions{ImageHeightPercent: 86, ContentHeightPercent: 25, ContentTopPercent: 64, HasContent: true, BorderWidth: 2, BorderColor: "#000000"},
		},
		{
			name:   "bottom with zero overlap",
			cfg:    &CardLayout{ContentHeight: f64(30), ImageOverlap: f64(0)},
			labels: true,
			want:   CardLayoutDimensions{ImageHeightPercent: 70, ContentHeightPercent: 30, ContentTopPercent: 70, HasContent: true},
		},
		{
			name:   "overlay",
			cfg:    &CardLayout{TextPosition: TextPositionOverlay, ContentHeight: f64(20)},
			labels: true,
			want:   CardLayoutDimensions{ImageHeightPercent: 100, ContentHeightPercent: 20, ContentTopPercent: 80, HasContent: true, Overlay: true},
		},
		{
			name: "overlay without text collapses content",
			cfg:  &CardLayout{TextPosition: TextPositionOverlay},
			want: CardLayoutDimensions{ImageHeightPercent: 100, ContentHeightPercent: 0, ContentTopPercent: 100, Overlay: true},
		},
		{
			name:   "integrated ignores flags",
			cfg:    &CardLayout{TextPosition: TextPositionIntegrated, ContentHeight: f64(40)},
			labels: true,
			descs:  true,
			want:   CardLayoutDimensions{ImageHeightPercent: 100, ContentHeightPercent: 0, ContentTopPercent: 100},
		},
		{
			name: "bottom without labels or descriptions",
			cfg:  nil,
			want: CardLayoutDimensions{ImageHeightPercent: 100, ContentHeightPercent: 0, ContentTopPercent: 100},
		},
		{
			name:   "content height clamped to 100",
			cfg:    &CardLayout{ContentHeight: f64(150), ImageOverlap: f64(5)},
			labels: true,
			want:   CardLayoutDimensions{ImageHeightPercent: 0, ContentHeightPercent: 100, ContentTopPercent: 0, HasContent: true},
		},
		{
			name:   "overlap larger than content height keeps the formula",
			cfg:    &CardLayout{ContentHeight: f64(10), ImageOverlap: f64(11)},
			labels: true,
			want:   CardLayoutDimensions{ImageHeightPercent: 101, ContentHeightPercent: 10, ContentTopPercent: 79, HasContent: true},
		},
		{
			name:   "overlap clamped so the band stays on the card",
			cfg:    &CardLayout{ContentHeight: f64(80), ImageOverlap: f64(30)},
			labels: true,
			want:   CardLayoutDimensions{ImageHeightPercent: 40, ContentHeightPercent: 80, ContentTopPercent: 0, HasContent: true},
		},
		{
			name:   "negative border width clamped",
			cfg:    &CardLayout{BorderWidth: -3},
			labels: true,
			want:   CardLayoutDimensions{ImageHeightPercent: 86, ContentHeightPercent: 25, ContentTopPercent: 64, HasContent: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ComputeCardLayout(tt.cfg, tt.labels, tt.descs)
			if got != tt.want {
				t.Errorf("ComputeCardLayout() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComputeCardLayout_Invariants(t *testing.T) {
	t.Parallel()

	positions := []TextPosition{"", TextPositionBottom, TextPositionOverlay, TextPositionIntegrated}
	for _, pos := range positions {
		for ch := 0.0; ch <= 100; ch += 5 {
			for ov := 0.0; ov <= 50; ov += 5 {
				for _, flags := range [][2]bool{{false, false}, {true, false}, {false, true}, {true, true}} {
					cfg := &CardLayout{TextPosition: pos, ContentHeight: f64(ch), ImageOverlap: f64(ov)}
					got := ComputeCardLayout(cfg, flags[0], flags[1])

					if again := ComputeCardLayout(cfg, flags[0], flags[1]); again != got {
						t.Fatalf("not deterministic for %+v", cfg)
					}
					if !got.HasContent {
						if got.ImageHeightPercent != 100 || got.ContentHeightPercent != 0 {
							t.Errorf("%s ch=%v ov=%v: no content but image=%v content=%v", pos, ch, ov, got.ImageHeightPercent, got.ContentHeightPercent)
						}
						continue
					}
					switch pos {
					case TextPositionOverlay:
						if got.ContentTopPercent+got.ContentHeightPercent != 100 {
							t.Errorf("overlay ch=%v: top+height = %v, want 100", ch, got.ContentTopPercent+got.ContentHeightPercent)
						}
					default:
						clampedOv := math.Min(ov, 100-ch)
						if got.ContentTopPercent != got.ImageHeightPercent-2*clampedOv {
							t.Errorf("bottom ch=%v ov=%v: top=%v image=%v", ch, ov, got.ContentTopPercent, got.ImageHeightPercent)
						}
						if got.ContentTopPercent < 0 || got.ContentTopPercent+got.ContentHeightPercent > 100 {
							t.Errorf("bottom ch=%v ov=%v: out of range %+v", ch, ov, got)
						}
					}
				}
			}
		}
	}
}

// ---------------------------------------------------------------------------
// TestGridFor - cards per page lookup
// ---------------------------------------------------------------------------

func TestGridFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n       int
		want    Grid
		wantErr bool
	}{
		{4, Grid{Cols: 2, Rows: 2}, false},
		{6, Grid{Cols: 2, Rows: 3}, false},
		{9, Grid{Cols: 3, Rows: 3}, false},
		{0, Grid{}, true},
		{1, Grid{}, true},
		{2, Grid{}, true},
		{3, Grid{}, true},
		{8, Grid{}, true},
		{12, Grid{}, true},
		{16, Grid{}, true},
		{-6, Grid{}, true},
	}

	for _, tt := range tests {
		got, err := GridFor(tt.n)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidCardsPerPage) {
				t.Errorf("GridFor(%d) error = %v, want ErrInvalidCardsPerPage", tt.n, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("GridFor(%d) unexpected error: %v", tt.n, err)
		}
		if got != tt.want {
			t.Errorf("GridFor(%d) = %+v, want %+v", tt.n, got, tt.want)
		}
		if got.PerPage() != tt.n {
			t.Errorf("GridFor(%d).PerPage() = %d", tt.n, got.PerPage())
		}
	}
}

// ---------------------------------------------------------------------------
// TestCardRect - placement on the sheet
// ---------------------------------------------------------------------------

func TestCardRect(t *testing.T) {
	t.Parallel()

	const eps = 1e-9
	for _, n := range []int{4, 6, 9} {
		g, _ := GridFor(n)
		w, h := CardSize(g)

		wantW := (PageWidth - 2*PageMargin - float64(g.Cols-1)*CardGap) / float64(g.Cols)
		wantH := (PageHeight - 2*PageMargin - float64(g.Rows-1)*CardGap) / float64(g.Rows)
		if math.Abs(w-wantW) > eps || math.Abs(h-wantH) > eps {
			t.Errorf("CardSize(%d) = %v x %v, want %v x %v", n, w, h, wantW, wantH)
		}

		first := CardRect(g, 0)
		if first.X != PageMargin || first.Y != PageMargin {
			t.Errorf("CardRect(%d, 0) origin = (%v, %v), want margin", n, first.X, first.Y)
		}
		last := CardRect(g, n-1)
		if math.Abs(last.X+last.W-(PageWidth-PageMargin)) > eps {
			t.Errorf("CardRect(%d, last) right edge = %v, want %v", n, last.X+last.W, PageWidth-PageMargin)
		}
		if math.Abs(last.Y+last.H-(PageHeight-PageMargin)) > eps {
			t.Errorf("CardRect(%d, last) bottom edge = %v, want %v", n, last.Y+last.H, PageHeight-PageMargin)
		}

		// Row-major: slot 1 is to the right of slot 0.
		second := CardRect(g, 1)
		if second.Y != first.Y || math.Abs(second.X-(first.X+w+CardGap)) > eps {
			t.Errorf("CardRect(%d, 1) = %+v, want next column", n, second)
		}
	}
}

func TestMirroredCardRect(t *testing.T) {
	t.Parallel()

	g, _ := GridFor(6)
	for i := 0; i < g.PerPage(); i++ {
		front := CardRect(g, i)
		back := MirroredCardRect(g, i)
		if back.Y != front.Y {
			t.Errorf("slot %d: mirrored row changed (%v -> %v)", i, front.Y, back.Y)
		}
		// Front and back are symmetric about the vertical center line.
		if got := front.X + back.X + front.W; math.Abs(got-PageWidth) > 1e-9 {
			t.Errorf("slot %d: not mirrored, front.X=%v back.X=%v", i, front.X, back.X)
		}
	}
}
