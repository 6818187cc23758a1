package layout

// BookletOrder returns, for n logical pages padded to a multiple of four,
// the page indexes to place on each physical sheet side as (left, right)
// pairs in saddle-stitch order. Indexes >= n denote blank pages.
func BookletOrder(n int) [][2]int {
	if n <= 0 {
		return nil
	}
	total := (n + 3) / 4 * 4
	sides := make([][2]int, 0, total/2)
	for s := 0; s < total/4; s++ {
		sides = append(sides,
			[2]int{total - 1 - 2*s, 2 * s},
			[2]int{2*s + 1, total - 2 - 2*s},
		)
	}
	return sides
}

// Impose places two logical pages side by side on landscape sheets in
// booklet order. Each logical page keeps its own geometry; it is only
// translated onto the left or right half of the sheet.
func Impose(pages []*Page) []*Page {
	if len(pages) == 0 {
		return nil
	}
	halfW, h := pages[0].Width, pages[0].Height
	var sheets []*Page
	for _, side := range BookletOrder(len(pages)) {
		sheet := NewPage(2*halfW, h)
		for slot, idx := range side {
			if idx >= len(pages) {
				continue
			}
			src := pages[idx]
			if sheet.Background == "" {
				sheet.Background = src.Background
			}
			dx := float64(slot) * halfW
			for _, el := range src.Elements {
				sheet.Elements = append(sheet.Elements, el.Translate(dx, 0))
			}
			for _, el := range src.Overlay {
				sheet.Overlay = append(sheet.Overlay, el.Translate(dx, 0))
			}
		}
		sheets = append(sheets, sheet)
	}
	return sheets
}
