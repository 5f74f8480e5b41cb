package vision

import "image"

// OtsuThreshold computes Otsu's global threshold over src's 256-bin
// histogram, maximizing inter-class variance between the two classes the
// threshold splits the histogram into.
func OtsuThreshold(src *image.Gray) uint8 {
	var hist [256]int
	total := 0
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := src.Pix[(y-b.Min.Y)*src.Stride:]
		for x := 0; x < b.Dx(); x++ {
			hist[row[x]]++
			total++
		}
	}
	if total == 0 {
		return 128
	}

	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i * c)
	}

	var sumB, wB float64
	var best float64
	threshold := 0
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / wB
		mF := (sumAll - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = t
		}
	}
	return uint8(threshold)
}

// ThresholdBinaryInv returns a 0/255 image where pixels at or below
// thresh become 255 (foreground) and all others become 0, the "inverted
// binary" convention used throughout the detector on dark-ink-on-light-page
// sheets.
func ThresholdBinaryInv(src *image.Gray, thresh uint8) *image.Gray {
	dst := image.NewGray(src.Bounds())
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		srow := src.Pix[(y-b.Min.Y)*src.Stride:]
		drow := dst.Pix[(y-b.Min.Y)*dst.Stride:]
		for x := 0; x < b.Dx(); x++ {
			if srow[x] <= thresh {
				drow[x] = 255
			}
		}
	}
	return dst
}

// AdaptiveThresholdGaussianInv mirrors OpenCV's
// ADAPTIVE_THRESH_GAUSSIAN_C | THRESH_BINARY_INV: each pixel is compared to
// the local mean (approximated here, as in OpenCV's common usage, by a box
// mean over blockSize) minus C.
func AdaptiveThresholdGaussianInv(src *image.Gray, blockSize int, c float64) *image.Gray {
	if blockSize%2 == 0 {
		blockSize++
	}
	local := BoxBlurMean(src, blockSize)
	dst := image.NewGray(src.Bounds())
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		srow := src.Pix[(y-b.Min.Y)*src.Stride:]
		drow := dst.Pix[(y-b.Min.Y)*dst.Stride:]
		lrow := local[y-b.Min.Y]
		for x := 0; x < b.Dx(); x++ {
			if float64(srow[x]) < lrow[x]-c {
				drow[x] = 255
			}
		}
	}
	return dst
}

// ThresholdBinary returns a 0/255 image where pixels at or above thresh
// become 255 (foreground) and all others become 0.
func ThresholdBinary(src *image.Gray, thresh uint8) *image.Gray {
	dst := image.NewGray(src.Bounds())
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		srow := src.Pix[(y-b.Min.Y)*src.Stride:]
		drow := dst.Pix[(y-b.Min.Y)*dst.Stride:]
		for x := 0; x < b.Dx(); x++ {
			if srow[x] >= thresh {
				drow[x] = 255
			}
		}
	}
	return dst
}

// CountNonZero counts pixels with a nonzero value in a binary mask.
func CountNonZero(mask *image.Gray) int {
	n := 0
	for _, v := range mask.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// MeanGray returns the arithmetic mean pixel value of src.
func MeanGray(src *image.Gray) float64 {
	if len(src.Pix) == 0 {
		return 0
	}
	sum := 0
	for _, v := range src.Pix {
		sum += int(v)
	}
	return float64(sum) / float64(len(src.Pix))
}

// MeanGrayMasked returns the mean pixel value of src restricted to pixels
// where mask is nonzero. Returns 0 if the mask selects nothing.
func MeanGrayMasked(src, mask *image.Gray) float64 {
	sum, n := 0, 0
	for i, mv := range mask.Pix {
		if mv != 0 {
			sum += int(src.Pix[i])
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// AndMask returns the pixel-wise logical AND of two binary masks of equal
// size.
func AndMask(a, b *image.Gray) *image.Gray {
	dst := image.NewGray(a.Bounds())
	for i := range dst.Pix {
		if a.Pix[i] != 0 && b.Pix[i] != 0 {
			dst.Pix[i] = 255
		}
	}
	return dst
}
