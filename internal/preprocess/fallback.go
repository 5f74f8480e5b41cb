package preprocess

import (
	"image"
	"math"
	"sort"

	"github.com/kozaktomas/omrscanner/internal/vision"
)

// fallbackPageCrop implements spec section 4.B's fallback: threshold and
// close the shadow-flattened image, then pick the best-scoring rectangular
// contour among the 25 largest that resembles the template's page ratio.
func fallbackPageCrop(img *image.Gray) (image.Point, image.Point, image.Point, image.Point, bool) {
	flattened := vision.ShadowFlatten(img, normalShadowBlurSigma)
	thresh := vision.OtsuThreshold(flattened)
	bin := vision.ThresholdBinary(flattened, thresh)
	closed := vision.Close(bin, fallbackCloseKernel)

	contours := vision.FindExternalContours(closed)
	sort.Slice(contours, func(i, j int) bool { return contours[i].Area() > contours[j].Area() })
	if len(contours) > fallbackTopContours {
		contours = contours[:fallbackTopContours]
	}

	imgArea := float64(img.Bounds().Dx() * img.Bounds().Dy())
	var best vision.Contour
	bestArea := -1.0
	for _, c := range contours {
		area := c.Area()
		if area < fallbackMinAreaFraction*imgArea {
			continue
		}
		perimeter := c.Perimeter()
		approx := vision.ApproxPolyDP(c, polyApproxEpsilonRatio*perimeter)
		if len(approx) != 4 {
			continue
		}
		rect := approx.BoundingRect()
		if rect.Dy() == 0 {
			continue
		}
		sideRatio := float64(rect.Dx()) / float64(rect.Dy())
		if math.Abs(sideRatio-fallbackTargetPageRatio) > fallbackSideRatioSlack {
			continue
		}
		if area > bestArea {
			bestArea = area
			best = approx
		}
	}
	if best == nil {
		return image.Point{}, image.Point{}, image.Point{}, image.Point{}, false
	}

	quad := quadFromContour(best)
	return quad[0], quad[1], quad[2], quad[3], true
}

// quadFromContour reduces an arbitrary (but roughly 4-vertex) contour to
// exactly four integer points for RectifyQuad.
func quadFromContour(c vision.Contour) [4]image.Point {
	var out [4]image.Point
	for i := 0; i < 4 && i < len(c); i++ {
		out[i] = image.Point{X: int(math.Round(c[i].X)), Y: int(math.Round(c[i].Y))}
	}
	return out
}
