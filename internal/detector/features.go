package detector

import (
	"image"

	"github.com/kozaktomas/omrscanner/internal/vision"
)

// bubbleFeature is the phase-1 per-bubble output of spec section 4.C: the
// core-region mean intensity (reported as intensity_values), the fill
// ratio and the combined score the per-strip decision (phase 3) consumes.
type bubbleFeature struct {
	Mean      float64
	FillRatio float64
	Score     float64
}

// extractFeature crops the ROI at (x,y) sized boxW x boxH from img and
// computes its bubble feature, per spec section 4.C phase 1.
func extractFeature(img *image.Gray, x, y, boxW, boxH int, masks bubbleMasks) bubbleFeature {
	roi := vision.Crop(img, image.Rect(x, y, x+boxW, y+boxH))
	if roi.Bounds().Dx() != boxW || roi.Bounds().Dy() != boxH {
		return bubbleFeature{Mean: 255, FillRatio: 0}
	}

	// Sigma 0.6: GaussianBlur sizes its kernel to ±ceil(3σ), so this is a
	// 5x5 kernel, not 3x3; each outermost tap carries about 0.3% of the weight.
	blurred := vision.GaussianBlur(roi, 0.6)
	coreMean := vision.MeanGrayMasked(blurred, masks.Core)
	ringMean := vision.MeanGrayMasked(blurred, masks.Ring)
	contrast := ringMean - coreMean
	if contrast < 0 {
		contrast = 0
	}

	localThresh := vision.OtsuThreshold(blurred)
	bin := vision.ThresholdBinaryInv(blurred, localThresh)
	filled := vision.AndMask(bin, masks.Core)
	fillRatio := 0.0
	if masks.CoreArea > 0 {
		fillRatio = float64(vision.CountNonZero(filled)) / float64(masks.CoreArea)
	}

	return bubbleFeature{
		Mean:      coreMean,
		FillRatio: fillRatio,
		Score:     contrast + fillRatio*85,
	}
}
