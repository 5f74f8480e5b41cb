package preprocess

import (
	"image"
	"math"

	"github.com/kozaktomas/omrscanner/internal/vision"
)

// matchPass implements spec section 4.B passes 2 and 3: template matching
// against the shipped marker image, with an optional erode-subtract edge
// enhancement (pass 3) applied to both the marker and the search image.
func matchPass(img, marker *image.Gray, sheetToMarkerWidthRatio int, edgeEnhanced bool) (cornerPoints, bool) {
	processed := vision.ShadowFlatten(img, normalShadowBlurSigma)
	quads := splitQuadrants(processed.Bounds())
	paintQuadrantStripes(processed, quads)

	workingMarker := marker
	if edgeEnhanced {
		workingMarker = vision.SubtractGray(marker, vision.Erode(marker, erodeSubtractKernel, erodeSubtractIterations))
		processed = vision.Normalize(vision.SubtractGray(processed, vision.Erode(processed, erodeSubtractKernel, erodeSubtractIterations)))
	}

	processingWidth := processed.Bounds().Dx()
	baseMarkerWidth := processingWidth / max(sheetToMarkerWidthRatio, 1)
	if baseMarkerWidth < 4 {
		return cornerPoints{}, false
	}
	baseMarker := resizeKeepAspect(workingMarker, baseMarkerWidth)
	baseMarker = vision.GaussianBlur(baseMarker, 1.0)
	baseMarker = vision.Normalize(baseMarker)

	scale, bestGlobal, ok := bestMarkerScale(processed, baseMarker)
	if !ok || bestGlobal < minMatchingThreshold {
		return cornerPoints{}, false
	}
	scaledMarker := resizeKeepAspect(baseMarker, int(math.Round(float64(baseMarkerWidth)*scale)))

	var pts cornerPoints
	imgW, imgH := img.Bounds().Dx(), img.Bounds().Dy()
	for _, q := range quads {
		sub := vision.Crop(processed, q.Rect)
		result := vision.MatchTemplate(sub, scaledMarker)
		if result.Score < minMatchingThreshold {
			return cornerPoints{}, false
		}
		if math.Abs(result.Score-bestGlobal) >= maxMatchingVariation {
			return cornerPoints{}, false
		}

		mb := scaledMarker.Bounds()
		center := vision.Point{
			X: float64(q.Rect.Min.X + result.Location.X + mb.Dx()/2),
			Y: float64(q.Rect.Min.Y + result.Location.Y + mb.Dy()/2),
		}
		nominal := q.nominalCorner(imgW, imgH)
		if math.Abs(center.X-nominal.X) > maxCenterDriftRatio*float64(imgW) {
			return cornerPoints{}, false
		}
		if math.Abs(center.Y-nominal.Y) > maxCenterDriftRatio*float64(imgH) {
			return cornerPoints{}, false
		}
		pts.set(q.Corner, center)
	}
	if !pts.complete() {
		return cornerPoints{}, false
	}
	return pts, true
}

// bestMarkerScale sweeps marker heights from 100% down to minMarkerScale in
// scaleSteps descending steps, scoring each against the full processed
// image, and returns the scale with the largest max-response.
func bestMarkerScale(processed, baseMarker *image.Gray) (scale, score float64, ok bool) {
	bestScale, bestScore := 1.0, math.Inf(-1)
	for i := 0; i < scaleSteps; i++ {
		t := float64(i) / float64(scaleSteps-1)
		s := 1.0 - t*(1.0-minMarkerScale)
		width := int(math.Round(float64(baseMarker.Bounds().Dx()) * s))
		if width < 4 || width > processed.Bounds().Dx() {
			continue
		}
		scaled := resizeKeepAspect(baseMarker, width)
		if scaled.Bounds().Dy() > processed.Bounds().Dy() {
			continue
		}
		result := vision.MatchTemplate(processed, scaled)
		if result.Score > bestScore {
			bestScore = result.Score
			bestScale = s
		}
	}
	if math.IsInf(bestScore, -1) {
		return 0, 0, false
	}
	return bestScale, bestScore, true
}

func resizeKeepAspect(src *image.Gray, width int) *image.Gray {
	b := src.Bounds()
	if b.Dx() == 0 {
		return src
	}
	aspect := float64(b.Dy()) / float64(b.Dx())
	height := int(math.Round(float64(width) * aspect))
	if height < 1 {
		height = 1
	}
	if width < 1 {
		width = 1
	}
	return vision.Resize(src, width, height)
}

// paintQuadrantStripes draws white stripes along the quadrant boundaries so
// template matching cannot false-lock onto the seam between quadrants.
func paintQuadrantStripes(img *image.Gray, quads [4]quadrant) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	cutX := quads[0].Rect.Max.X
	cutY := quads[0].Rect.Max.Y

	halfW := int(float64(w) * stripeHalfWidthFraction)
	halfH := int(float64(h) * stripeHalfWidthFraction)

	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := clampInt0(cutX-halfW, 0); x < clampInt0(cutX+halfW, w); x++ {
			row[x] = 255
		}
	}
	for x := 0; x < w; x++ {
		for y := clampInt0(cutY-halfH, 0); y < clampInt0(cutY+halfH, h); y++ {
			img.Pix[y*img.Stride+x] = 255
		}
	}
}

func clampInt0(v, lo int) int {
	if v < lo {
		return lo
	}
	return v
}
