package preprocess

import (
	"image"
	"math"

	"github.com/kozaktomas/omrscanner/internal/vision"
)

// contourSquarePass implements spec section 4.B pass 1: shadow-robust
// corner-marker detection via contour-square search within each quadrant.
func contourSquarePass(img *image.Gray, sheetToMarkerWidthRatio int) (cornerPoints, bool) {
	flattened := vision.ShadowFlatten(img, strongShadowBlurSigma)
	quads := splitQuadrants(flattened.Bounds())
	expected := expectedMarkerSide(img.Bounds().Dx(), sheetToMarkerWidthRatio)
	minArea := contourAreaMinFactor * expected * expected
	maxArea := contourAreaMaxFactor * expected * expected

	var pts cornerPoints
	for _, q := range quads {
		sub := vision.Crop(flattened, q.Rect)
		bin := vision.AdaptiveThresholdGaussianInv(sub, adaptiveThreshBlockSize, adaptiveThreshC)
		opened := vision.Open(bin, quadrantOpenKernel)
		contours := vision.FindExternalContours(opened)

		center, ok := bestMarkerContour(contours, q, expected, minArea, maxArea)
		if !ok {
			return cornerPoints{}, false
		}
		global := vision.Point{X: center.X + float64(q.Rect.Min.X), Y: center.Y + float64(q.Rect.Min.Y)}
		pts.set(q.Corner, global)
	}
	if !pts.complete() {
		return cornerPoints{}, false
	}
	return pts, true
}

func bestMarkerContour(contours []vision.Contour, q quadrant, expected, minArea, maxArea float64) (vision.Point, bool) {
	diag := math.Hypot(float64(q.Rect.Dx()), float64(q.Rect.Dy()))
	if diag == 0 {
		return vision.Point{}, false
	}
	outer := q.outerCorner()

	bestScore := math.Inf(-1)
	var best vision.Point
	found := false

	for _, c := range contours {
		area := c.Area()
		if area < minArea || area > maxArea {
			continue
		}
		perimeter := c.Perimeter()
		approx := vision.ApproxPolyDP(c, polyApproxEpsilonRatio*perimeter)
		if len(approx) < minPolyVertices || len(approx) > maxPolyVertices {
			continue
		}
		rect := approx.BoundingRect()
		w, h := float64(rect.Dx()), float64(rect.Dy())
		if w < minContourSide || h < minContourSide {
			continue
		}
		aspect := w / h
		if aspect < minAspectRatio || aspect > maxAspectRatio {
			continue
		}
		if vision.Solidity(approx) < minSolidity {
			continue
		}

		cx := float64(rect.Min.X+rect.Max.X) / 2
		cy := float64(rect.Min.Y+rect.Max.Y) / 2
		cornerDist := math.Hypot(cx-outer.X, cy-outer.Y) / diag
		score := area - cornerDist*expected*expected
		if score > bestScore {
			bestScore = score
			best = vision.Point{X: cx, Y: cy}
			found = true
		}
	}
	return best, found
}
