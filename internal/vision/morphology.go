package vision

import "image"

// Erode shrinks foreground (nonzero) regions of a binary mask using a
// size x size rectangular structuring element, iterated n times.
func Erode(src *image.Gray, size, iterations int) *image.Gray {
	out := src
	for i := 0; i < iterations; i++ {
		out = erodeOnce(out, size)
	}
	return out
}

// Dilate grows foreground regions of a binary mask using a size x size
// rectangular structuring element, iterated n times.
func Dilate(src *image.Gray, size, iterations int) *image.Gray {
	out := src
	for i := 0; i < iterations; i++ {
		out = dilateOnce(out, size)
	}
	return out
}

// Open is erosion followed by dilation: removes small foreground specks
// without shrinking larger regions.
func Open(src *image.Gray, size int) *image.Gray {
	return Dilate(Erode(src, size, 1), size, 1)
}

// Close is dilation followed by erosion: fills small background gaps
// without growing larger regions.
func Close(src *image.Gray, size int) *image.Gray {
	return Erode(Dilate(src, size, 1), size, 1)
}

func erodeOnce(src *image.Gray, size int) *image.Gray {
	radius := size / 2
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			min := uint8(255)
			for dy := -radius; dy <= radius; dy++ {
				yy := clampInt(y+dy, 0, h-1)
				row := src.Pix[yy*src.Stride:]
				for dx := -radius; dx <= radius; dx++ {
					xx := clampInt(x+dx, 0, w-1)
					if row[xx] < min {
						min = row[xx]
					}
				}
			}
			dst.Pix[y*dst.Stride+x] = min
		}
	}
	return dst
}

func dilateOnce(src *image.Gray, size int) *image.Gray {
	radius := size / 2
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			max := uint8(0)
			for dy := -radius; dy <= radius; dy++ {
				yy := clampInt(y+dy, 0, h-1)
				row := src.Pix[yy*src.Stride:]
				for dx := -radius; dx <= radius; dx++ {
					xx := clampInt(x+dx, 0, w-1)
					if row[xx] > max {
						max = row[xx]
					}
				}
			}
			dst.Pix[y*dst.Stride+x] = max
		}
	}
	return dst
}

// SubtractGray computes a-b per pixel, clamping to [0,255], mirroring
// OpenCV's cv2.subtract saturation semantics used by the erode-subtract
// edge enhancement pass.
func SubtractGray(a, b *image.Gray) *image.Gray {
	dst := image.NewGray(a.Bounds())
	for i := range dst.Pix {
		av, bv := int(a.Pix[i]), int(b.Pix[i])
		d := av - bv
		if d < 0 {
			d = 0
		}
		dst.Pix[i] = uint8(d)
	}
	return dst
}
