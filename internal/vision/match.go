package vision

import (
	"image"
	"math"
)

// MatchResult is the best location and score of a template match within a
// search image.
type MatchResult struct {
	Location image.Point
	Score    float64
}

// MatchTemplate slides tmpl over img and scores every position with the
// normalized correlation coefficient (OpenCV's TM_CCOEFF_NORMED), returning
// the best-scoring location. It is O(W*H*w*h) brute force, acceptable at
// the small marker-template sizes this package is used for.
func MatchTemplate(img, tmpl *image.Gray) MatchResult {
	ib := img.Bounds()
	tb := tmpl.Bounds()
	iw, ih := ib.Dx(), ib.Dy()
	tw, th := tb.Dx(), tb.Dy()
	if tw > iw || th > ih || tw == 0 || th == 0 {
		return MatchResult{Score: -1}
	}

	tmplMean := MeanGray(tmpl)
	var tmplNorm float64
	for _, v := range tmpl.Pix {
		d := float64(v) - tmplMean
		tmplNorm += d * d
	}

	best := MatchResult{Score: math.Inf(-1)}
	for y := 0; y <= ih-th; y++ {
		for x := 0; x <= iw-tw; x++ {
			score := ccoeffNormed(img, tmpl, x, y, tmplMean, tmplNorm)
			if score > best.Score {
				best = MatchResult{Location: image.Point{X: x, Y: y}, Score: score}
			}
		}
	}
	return best
}

func ccoeffNormed(img, tmpl *image.Gray, x0, y0 int, tmplMean, tmplNorm float64) float64 {
	tb := tmpl.Bounds()
	tw, th := tb.Dx(), tb.Dy()

	windowSum := 0.0
	for y := 0; y < th; y++ {
		row := img.Pix[(y0+y)*img.Stride+x0:]
		for x := 0; x < tw; x++ {
			windowSum += float64(row[x])
		}
	}
	windowMean := windowSum / float64(tw*th)

	var num, windowNorm float64
	for y := 0; y < th; y++ {
		irow := img.Pix[(y0+y)*img.Stride+x0:]
		trow := tmpl.Pix[y*tmpl.Stride:]
		for x := 0; x < tw; x++ {
			di := float64(irow[x]) - windowMean
			dt := float64(trow[x]) - tmplMean
			num += di * dt
			windowNorm += di * di
		}
	}

	denom := math.Sqrt(tmplNorm * windowNorm)
	if denom < 1e-10 {
		return 0
	}
	return num / denom
}

// MatchAtScales resizes tmpl to each of the given widths (preserving its
// aspect ratio) and runs MatchTemplate at every scale, returning the
// per-scale results in the same order as widths. Nothing in this module
// calls it; the preprocessing marker-scale sweep resizes and matches itself.
func MatchAtScales(img, tmpl *image.Gray, widths []int) []MatchResult {
	tb := tmpl.Bounds()
	aspect := float64(tb.Dy()) / float64(tb.Dx())
	results := make([]MatchResult, len(widths))
	for i, w := range widths {
		if w < 1 {
			results[i] = MatchResult{Score: -1}
			continue
		}
		h := int(math.Round(float64(w) * aspect))
		if h < 1 {
			h = 1
		}
		scaled := Resize(tmpl, w, h)
		results[i] = MatchTemplate(img, scaled)
	}
	return results
}
