// Package preprocess implements the OMR Image Preprocessor (spec section
// 4.B): perspective rectification against four corner markers, with two
// matching-based fallback strategies and a final contour-based page crop,
// followed by illumination flattening and a resize to the template's page
// dimensions.
package preprocess

import (
	"image"

	"github.com/kozaktomas/omrscanner/internal/vision"
)

// Result is the outcome of preprocessing one sheet image.
type Result struct {
	Image    *image.Gray
	Degraded bool // true if all three marker passes failed
}

// Process runs the three marker-detection passes in order, falling back to
// contour-based page crop and finally to the unrectified input, then
// normalizes and resizes to pageDimensions.
func Process(img *image.Gray, marker *image.Gray, sheetToMarkerWidthRatio int, pageDimensions [2]int) Result {
	if pts, ok := contourSquarePass(img, sheetToMarkerWidthRatio); ok {
		if warped, ok := rectifyAndValidate(img, pts); ok {
			return Result{Image: finalize(warped, pageDimensions)}
		}
	}
	if pts, ok := matchPass(img, marker, sheetToMarkerWidthRatio, false); ok {
		if warped, ok := rectifyAndValidate(img, pts); ok {
			return Result{Image: finalize(warped, pageDimensions)}
		}
	}
	if pts, ok := matchPass(img, marker, sheetToMarkerWidthRatio, true); ok {
		if warped, ok := rectifyAndValidate(img, pts); ok {
			return Result{Image: finalize(warped, pageDimensions)}
		}
	}

	if tl, tr, br, bl, ok := fallbackPageCrop(img); ok {
		tlP := vision.Point{X: float64(tl.X), Y: float64(tl.Y)}
		trP := vision.Point{X: float64(tr.X), Y: float64(tr.Y)}
		brP := vision.Point{X: float64(br.X), Y: float64(br.Y)}
		blP := vision.Point{X: float64(bl.X), Y: float64(bl.Y)}
		otl, otr, obr, obl := vision.OrderQuadPoints([4]vision.Point{tlP, trP, brP, blP})
		warped, _, _, err := vision.RectifyQuad(img, otl, otr, obr, obl)
		if err == nil {
			return Result{Image: finalize(warped, pageDimensions), Degraded: true}
		}
	}

	return Result{Image: finalize(img, pageDimensions), Degraded: true}
}

func rectifyAndValidate(img *image.Gray, pts cornerPoints) (*image.Gray, bool) {
	tl, tr, br, bl := pts.ordered()
	warped, w, h, err := vision.RectifyQuad(img, tl, tr, br, bl)
	if err != nil {
		return nil, false
	}
	b := img.Bounds()
	if float64(w) < minWarpedSizeRatio*float64(b.Dx()) || float64(h) < minWarpedSizeRatio*float64(b.Dy()) {
		return nil, false
	}
	return warped, true
}

func finalize(img *image.Gray, pageDimensions [2]int) *image.Gray {
	normalized := vision.Normalize(img)
	return vision.Resize(normalized, pageDimensions[0], pageDimensions[1])
}
