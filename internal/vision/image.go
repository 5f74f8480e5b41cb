// Package vision implements the pure-Go image primitives the OMR
// preprocessing and bubble-detection stages need: grayscale decode,
// resizing, blur, thresholding, morphology, contour extraction and
// template matching. None of it depends on a native CV binding; every
// algorithm here is a direct, small-scale reimplementation of the
// corresponding OpenCV primitive sized for bubble-sheet images.
package vision

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
)

// DecodeError reports that image_data could not be turned into a decodable
// image, per spec section 7's InvalidImage error kind.
type DecodeError struct {
	Msg string
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vision: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("vision: %s", e.Msg)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// LoadGray decodes image_data, which may be raw encoded-image bytes or a
// string optionally prefixed "data:<mime>;base64," (split at the first
// comma), into a single-channel 8-bit grayscale image.
func LoadGray(data []byte) (*image.Gray, error) {
	raw := data
	if idx := bytes.IndexByte(data, ','); idx >= 0 && looksLikeDataURI(data[:idx]) {
		decoded, err := decodeBase64Loose(data[idx+1:])
		if err != nil {
			return nil, &DecodeError{Msg: "invalid base64 payload", Err: err}
		}
		raw = decoded
	} else if decoded, err := decodeBase64Loose(data); err == nil && looksLikeImage(decoded) {
		raw = decoded
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, &DecodeError{Msg: "cannot decode image", Err: err}
	}
	return ToGray(img), nil
}

func looksLikeDataURI(prefix []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(prefix), []byte("data:"))
}

func looksLikeImage(b []byte) bool {
	if len(b) < 4 {
		return false
	}
	switch {
	case bytes.HasPrefix(b, []byte("\x89PNG")):
		return true
	case bytes.HasPrefix(b, []byte{0xFF, 0xD8, 0xFF}):
		return true
	case bytes.HasPrefix(b, []byte("GIF8")):
		return true
	case bytes.HasPrefix(b, []byte("BM")):
		return true
	}
	return false
}

func decodeBase64Loose(b []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(b)
	if out, err := base64.StdEncoding.DecodeString(string(trimmed)); err == nil {
		return out, nil
	}
	return base64.RawStdEncoding.DecodeString(string(trimmed))
}

// ToGray converts any image.Image to an 8-bit grayscale image using the
// standard library's luma conversion.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}

// EncodeJPEGBase64 JPEG-encodes img at the given quality and returns the
// result as a base64 string, for the annotated_image_base64 output field.
func EncodeJPEGBase64(img image.Image, quality int) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("vision: encoding annotated image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Resize scales src to exactly width x height using bilinear interpolation.
func Resize(src *image.Gray, width, height int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, width, height))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

// ToRGBA upgrades a grayscale image to RGBA so that annotation drawing can
// use color.
func ToRGBA(src *image.Gray) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}

// Normalize rescales pixel intensities linearly so the darkest pixel maps to
// 0 and the brightest to 255. A flat image (max == min) is returned
// unchanged.
func Normalize(src *image.Gray) *image.Gray {
	lo, hi := uint8(255), uint8(0)
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := src.Pix[(y-b.Min.Y)*src.Stride:]
		for x := 0; x < b.Dx(); x++ {
			v := row[x]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if hi <= lo {
		return CloneGray(src)
	}
	scale := 255.0 / float64(hi-lo)
	dst := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		srow := src.Pix[(y-b.Min.Y)*src.Stride:]
		drow := dst.Pix[(y-b.Min.Y)*dst.Stride:]
		for x := 0; x < b.Dx(); x++ {
			v := (float64(srow[x]) - float64(lo)) * scale
			drow[x] = clampUint8(v)
		}
	}
	return dst
}

// CloneGray returns an independent copy of src.
func CloneGray(src *image.Gray) *image.Gray {
	dst := image.NewGray(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

func clampUint8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// ToFloatMatrix converts a grayscale image to a row-major [][]float64 for
// numeric processing. Outer index is y, inner index is x.
func ToFloatMatrix(src *image.Gray) [][]float64 {
	b := src.Bounds()
	out := make([][]float64, b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := make([]float64, b.Dx())
		srcRow := src.Pix[y*src.Stride:]
		for x := 0; x < b.Dx(); x++ {
			row[x] = float64(srcRow[x])
		}
		out[y] = row
	}
	return out
}

// FromFloatMatrix converts a row-major [y][x]float64 matrix back into a
// grayscale image, clamping to [0,255].
func FromFloatMatrix(m [][]float64) *image.Gray {
	h := len(m)
	if h == 0 {
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}
	w := len(m[0])
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < w; x++ {
			row[x] = clampUint8(m[y][x])
		}
	}
	return dst
}

// Crop returns a new grayscale image containing the pixels of src within r,
// clipped to src's bounds.
func Crop(src *image.Gray, r image.Rectangle) *image.Gray {
	r = r.Intersect(src.Bounds())
	if r.Empty() {
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}
	dst := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	return dst
}
