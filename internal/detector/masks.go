package detector

import (
	"image"
	"math"
)

// bubbleMasks holds the two fixed per-block masks spec section 4.C phase 1
// step 3 describes: a central "core disc" and a surrounding "ring"
// (outer disc minus core disc). Both are sized once per FieldBlock and
// reused for every bubble in that block.
type bubbleMasks struct {
	Core     *image.Gray
	Ring     *image.Gray
	CoreArea int
}

func newBubbleMasks(boxW, boxH int) bubbleMasks {
	minSide := boxW
	if boxH < minSide {
		minSide = boxH
	}
	coreRadius := math.Max(4, 0.28*float64(minSide))
	outerRadius := math.Max(coreRadius+2, 0.42*float64(minSide))

	core := discMask(boxW, boxH, coreRadius)
	outer := discMask(boxW, boxH, outerRadius)
	ring := image.NewGray(core.Bounds())
	coreArea := 0
	for i := range ring.Pix {
		if outer.Pix[i] != 0 && core.Pix[i] == 0 {
			ring.Pix[i] = 255
		}
		if core.Pix[i] != 0 {
			coreArea++
		}
	}
	return bubbleMasks{Core: core, Ring: ring, CoreArea: coreArea}
}

func discMask(w, h int, radius float64) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, w, h))
	cx, cy := float64(w-1)/2, float64(h-1)/2
	r2 := radius * radius
	for y := 0; y < h; y++ {
		row := mask.Pix[y*mask.Stride:]
		for x := 0; x < w; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			if dx*dx+dy*dy <= r2 {
				row[x] = 255
			}
		}
	}
	return mask
}
