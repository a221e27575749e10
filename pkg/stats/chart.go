package stats

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	chartWidth  = 640
	barHeight   = 18
	barGap      = 6
	labelWidth  = 160
	chartMargin = 12
)

var (
	background = color.RGBA{R: 0x31, G: 0x33, B: 0x38, A: 0xff}
	barColor   = color.RGBA{R: 0x58, G: 0x65, B: 0xf2, A: 0xff}
	textColor  = color.RGBA{R: 0xf2, G: 0xf3, B: 0xf5, A: 0xff}
)

// Chart draws a horizontal bar chart of the counts as a PNG.
func Chart(w io.Writer, title string, counts []Count) error {
	rows := len(counts)
	height := chartMargin*3 + barHeight + rows*(barHeight+barGap)

	img := image.NewRGBA(image.Rect(0, 0, chartWidth, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
	}
	label := func(x, y int, s string) {
		d.Dot = fixed.P(x, y)
		d.DrawString(s)
	}

	label(chartMargin, chartMargin+barHeight-4, title)

	max := 1
	for _, c := range counts {
		if c.Count > max {
			max = c.Count
		}
	}

	barSpace := chartWidth - labelWidth - chartMargin*2 - 48
	for i, c := range counts {
		y := chartMargin*2 + barHeight + i*(barHeight+barGap)

		name := c.Key
		if len([]rune(name)) > 20 {
			name = string([]rune(name)[:19]) + "~"
		}
		label(chartMargin, y+barHeight-5, name)

		width := c.Count * barSpace / max
		if width < 1 {
			width = 1
		}
		bar := image.Rect(labelWidth, y, labelWidth+width, y+barHeight)
		draw.Draw(img, bar, &image.Uniform{C: barColor}, image.Point{}, draw.Src)

		label(labelWidth+width+6, y+barHeight-5, fmt.Sprintf("%d", c.Count))
	}

	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("error encoding chart: %w", err)
	}
	return nil
}
