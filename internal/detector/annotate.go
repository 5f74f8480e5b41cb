package detector

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/kozaktomas/omrscanner/internal/template"
)

var (
	colorMarkedGreen = color.RGBA{R: 0, G: 170, B: 60, A: 255}
	colorUnmarkedGray = color.RGBA{R: 150, G: 150, B: 150, A: 255}
)

// annotateBubble draws a rectangle over one bubble: a thick green inset
// rectangle (1/12 inset) for marked bubbles, a thin grey inset rectangle
// (1/10 inset) for unmarked ones, per spec section 4.C's annotation rule.
func annotateBubble(dst draw.Image, bub template.Bubble, boxW, boxH int, marked bool) {
	if marked {
		inset := maxInt(1, boxW/12)
		drawRect(dst, bub.X+inset, bub.Y+inset, boxW-2*inset, boxH-2*inset, colorMarkedGreen, 2)
		drawChoiceLabel(dst, bub, boxW, boxH)
		return
	}
	inset := maxInt(1, boxW/10)
	drawRect(dst, bub.X+inset, bub.Y+inset, boxW-2*inset, boxH-2*inset, colorUnmarkedGray, 1)
}

// drawChoiceLabel prints the bubble's choice letter centered below it,
// using the golang.org/x/image basicfont.Face7x13 bitmap font.
func drawChoiceLabel(dst draw.Image, bub template.Bubble, boxW, boxH int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(colorMarkedGreen),
		Face: basicfont.Face7x13,
	}
	x := bub.X + boxW/2 - 3
	y := bub.Y + boxH + 12
	d.Dot = fixed.P(x, y)
	d.DrawString(asciifyLabel(bub.FieldValue))
}

func drawRect(dst draw.Image, x, y, w, h int, c color.Color, thickness int) {
	if w <= 0 || h <= 0 {
		return
	}
	for t := 0; t < thickness; t++ {
		drawHLine(dst, x, x+w, y+t, c)
		drawHLine(dst, x, x+w, y+h-1-t, c)
		drawVLine(dst, x+t, y, y+h, c)
		drawVLine(dst, x+w-1-t, y, y+h, c)
	}
}

func drawHLine(dst draw.Image, x0, x1, y int, c color.Color) {
	for x := x0; x < x1; x++ {
		dst.Set(x, y, c)
	}
}

func drawVLine(dst draw.Image, x, y0, y1 int, c color.Color) {
	for y := y0; y < y1; y++ {
		dst.Set(x, y, c)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ensureRGBA upgrades a grayscale source into an RGBA canvas suitable for
// color annotation.
func ensureRGBA(src *image.Gray) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}
