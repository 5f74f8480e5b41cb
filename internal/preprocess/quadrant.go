package preprocess

import (
	"image"

	"github.com/kozaktomas/omrscanner/internal/vision"
)

// corner identifies which of the sheet's four corners a quadrant covers.
type corner int

const (
	cornerTL corner = iota
	cornerTR
	cornerBL
	cornerBR
)

// quadrant is one of the four regions a sheet is split into for
// per-corner marker search, per spec section 4.B pass 1 step 2.
type quadrant struct {
	Corner corner
	Rect   image.Rectangle
}

// splitQuadrants partitions an image into four quadrants using the fixed
// cut ratios (width/2, height*2/3): the top band is taller because markers
// sit within the upper two-thirds of the page's corners.
func splitQuadrants(bounds image.Rectangle) [4]quadrant {
	w, h := bounds.Dx(), bounds.Dy()
	cutX := int(float64(w) * quadrantXCutRatio)
	cutY := int(float64(h) * quadrantYCutRatio)

	return [4]quadrant{
		{Corner: cornerTL, Rect: image.Rect(0, 0, cutX, cutY)},
		{Corner: cornerTR, Rect: image.Rect(cutX, 0, w, cutY)},
		{Corner: cornerBL, Rect: image.Rect(0, cutY, cutX, h)},
		{Corner: cornerBR, Rect: image.Rect(cutX, cutY, w, h)},
	}
}

// outerCorner returns the quadrant-local coordinates of the sheet corner
// this quadrant covers, used to score candidate markers by proximity.
func (q quadrant) outerCorner() vision.Point {
	w, h := float64(q.Rect.Dx()-1), float64(q.Rect.Dy()-1)
	switch q.Corner {
	case cornerTL:
		return vision.Point{X: 0, Y: 0}
	case cornerTR:
		return vision.Point{X: w, Y: 0}
	case cornerBL:
		return vision.Point{X: 0, Y: h}
	default:
		return vision.Point{X: w, Y: h}
	}
}

// nominalCorner returns the full-image coordinates of the sheet corner this
// quadrant covers, used by the match-centre drift check in passes 2/3.
func (q quadrant) nominalCorner(imgWidth, imgHeight int) vision.Point {
	switch q.Corner {
	case cornerTL:
		return vision.Point{X: 0, Y: 0}
	case cornerTR:
		return vision.Point{X: float64(imgWidth), Y: 0}
	case cornerBL:
		return vision.Point{X: 0, Y: float64(imgHeight)}
	default:
		return vision.Point{X: float64(imgWidth), Y: float64(imgHeight)}
	}
}

// cornerPoints collects the four per-corner centre points located by a
// marker pass and exposes them as an ordered quad.
type cornerPoints struct {
	TL, TR, BL, BR vision.Point
	filled         [4]bool
}

func (cp *cornerPoints) set(c corner, p vision.Point) {
	switch c {
	case cornerTL:
		cp.TL = p
	case cornerTR:
		cp.TR = p
	case cornerBL:
		cp.BL = p
	case cornerBR:
		cp.BR = p
	}
	cp.filled[c] = true
}

func (cp *cornerPoints) complete() bool {
	return cp.filled[cornerTL] && cp.filled[cornerTR] && cp.filled[cornerBL] && cp.filled[cornerBR]
}

// ordered re-sorts the four collected points by the sum/diff heuristic
// instead of trusting quadrant identity blindly, matching spec section
// 4.B's "common post-match step".
func (cp *cornerPoints) ordered() (tl, tr, br, bl vision.Point) {
	return vision.OrderQuadPoints([4]vision.Point{cp.TL, cp.TR, cp.BR, cp.BL})
}
