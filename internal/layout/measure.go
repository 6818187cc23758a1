package layout

import (
	"math"
	"strings"
)

// avgGlyphWidth is the mean advance of Latin text in em, close enough for
// Helvetica and Times to size text blocks before a backend wraps them.
const avgGlyphWidth = 0.5

// LineHeight is the baseline-to-baseline distance for a font size.
func LineHeight(size float64) float64 {
	return size * 1.25
}

// EstimateLines approximates how many lines text wraps to at width w.
// Explicit newlines always start a new line.
func EstimateLines(text string, size, w float64) int {
	if text == "" || w <= 0 || size <= 0 {
		return 0
	}
	perLine := max(int(w/(size*avgGlyphWidth)), 1)
	lines := 0
	for _, para := range strings.Split(text, "\n") {
		n := len([]rune(para))
		lines += max(int(math.Ceil(float64(n)/float64(perLine))), 1)
	}
	return lines
}

// EstimateHeight is EstimateLines expressed in points.
func EstimateHeight(text string, size, w float64) float64 {
	return float64(EstimateLines(text, size, w)) * LineHeight(size)
}
