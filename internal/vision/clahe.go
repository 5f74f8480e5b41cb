package vision

import (
	"image"
	"math"
)

// CLAHE applies contrast-limited adaptive histogram equalization: the image
// is divided into tilesX x tilesY tiles, each tile's histogram is clipped at
// clipLimit (expressed as a multiple of the tile's uniform per-bin count)
// and equalized independently, then neighboring tiles' mappings are
// bilinearly blended per pixel to avoid tile-boundary artifacts.
func CLAHE(src *image.Gray, clipLimit float64, tilesX, tilesY int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 || tilesX < 1 || tilesY < 1 {
		return CloneGray(src)
	}

	tileW := (w + tilesX - 1) / tilesX
	tileH := (h + tilesY - 1) / tilesY

	mappings := make([][][256]uint8, tilesY)
	for ty := 0; ty < tilesY; ty++ {
		mappings[ty] = make([][256]uint8, tilesX)
		for tx := 0; tx < tilesX; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1 := min(x0+tileW, w)
			y1 := min(y0+tileH, h)
			mappings[ty][tx] = clippedEqualizeMap(src, x0, y0, x1, y1, clipLimit)
		}
	}

	dst := image.NewGray(b)
	for y := 0; y < h; y++ {
		// tile centers in the y direction, used for bilinear blending
		fy := float64(y)/float64(tileH) - 0.5
		ty0 := clampInt(int(math.Floor(fy)), 0, tilesY-1)
		ty1 := clampInt(ty0+1, 0, tilesY-1)
		wy := fy - math.Floor(fy)
		if fy < 0 {
			wy = 0
		}

		srow := src.Pix[y*src.Stride:]
		drow := dst.Pix[y*dst.Stride:]
		for x := 0; x < w; x++ {
			fx := float64(x)/float64(tileW) - 0.5
			tx0 := clampInt(int(math.Floor(fx)), 0, tilesX-1)
			tx1 := clampInt(tx0+1, 0, tilesX-1)
			wx := fx - math.Floor(fx)
			if fx < 0 {
				wx = 0
			}

			v := srow[x]
			v00 := float64(mappings[ty0][tx0][v])
			v01 := float64(mappings[ty0][tx1][v])
			v10 := float64(mappings[ty1][tx0][v])
			v11 := float64(mappings[ty1][tx1][v])

			top := v00*(1-wx) + v01*wx
			bottom := v10*(1-wx) + v11*wx
			drow[x] = clampUint8(top*(1-wy) + bottom*wy)
		}
	}
	return dst
}

func clippedEqualizeMap(src *image.Gray, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	var hist [256]int
	n := 0
	for y := y0; y < y1; y++ {
		row := src.Pix[y*src.Stride:]
		for x := x0; x < x1; x++ {
			hist[row[x]]++
			n++
		}
	}

	var mapping [256]uint8
	if n == 0 {
		for i := range mapping {
			mapping[i] = uint8(i)
		}
		return mapping
	}

	clip := int(clipLimit * float64(n) / 256.0)
	if clip < 1 {
		clip = 1
	}
	excess := 0
	for i, c := range hist {
		if c > clip {
			excess += c - clip
			hist[i] = clip
		}
	}
	redistribute := excess / 256
	for i := range hist {
		hist[i] += redistribute
	}

	cdf := 0
	for i, c := range hist {
		cdf += c
		mapping[i] = clampUint8(float64(cdf) * 255.0 / float64(n))
	}
	return mapping
}

// ShadowFlatten implements the spec's shadow-flatten preprocessing step:
// estimate the background by heavy Gaussian blur, divide the original
// image by it to cancel slow illumination gradients, apply CLAHE, then
// normalize back to [0,255].
func ShadowFlatten(src *image.Gray, blurSigma float64) *image.Gray {
	bg := GaussianBlur(src, blurSigma)
	b := src.Bounds()
	flat := make([][]float64, b.Dy())
	for y := 0; y < b.Dy(); y++ {
		srow := src.Pix[y*src.Stride:]
		brow := bg.Pix[y*bg.Stride:]
		row := make([]float64, b.Dx())
		for x := 0; x < b.Dx(); x++ {
			denom := float64(brow[x])
			if denom < 1 {
				denom = 1
			}
			row[x] = float64(srow[x]) / denom * 255.0
		}
		flat[y] = row
	}
	flattened := FromFloatMatrix(flat)
	equalized := CLAHE(flattened, 2.0, 8, 8)
	return Normalize(equalized)
}
