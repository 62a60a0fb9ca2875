package ingestion_engine

import (
	"image"

	"github.com/fogleman/gg"
)

const (
	cellPadX    = 6.0
	rowHeight   = 22.0
	charWidth   = 7.0 // gg's default bitmap face is 7x13
	minColWidth = 40.0
	maxColWidth = 420.0
	maxCellRune = 56
)

// RenderTable rasterizes a cell grid into an image: white background, black
// grid lines, one row per grid row. Long cell values are truncated so the
// bitmap stays readable.
func RenderTable(cells [][]string) image.Image {
	cols := 0
	for _, row := range cells {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 || len(cells) == 0 {
		cells = [][]string{{""}}
		cols = 1
	}

	widths := make([]float64, cols)
	for i := range widths {
		widths[i] = minColWidth
	}
	for _, row := range cells {
		for j, cell := range row {
			w := cellPadX*2 + charWidth*float64(len([]rune(cell)))
			if w > maxColWidth {
				w = maxColWidth
			}
			if w > widths[j] {
				widths[j] = w
			}
		}
	}

	totalW := 1.0
	for _, w := range widths {
		totalW += w
	}
	totalH := rowHeight*float64(len(cells)) + 1

	dc := gg.NewContext(int(totalW), int(totalH))
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)

	// grid
	x := 0.5
	for j := 0; j <= cols; j++ {
		dc.DrawLine(x, 0, x, totalH)
		if j < cols {
			x += widths[j]
		}
	}
	for i := 0; i <= len(cells); i++ {
		y := 0.5 + rowHeight*float64(i)
		dc.DrawLine(0, y, totalW, y)
	}
	dc.Stroke()

	for i, row := range cells {
		x := 0.5
		for j := 0; j < cols; j++ {
			if j < len(row) && row[j] != "" {
				dc.DrawString(truncateRunes(row[j], maxCellRune), x+cellPadX, rowHeight*float64(i)+15)
			}
			x += widths[j]
		}
	}

	return dc.Image()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
