package vision

import (
	"fmt"
	"image"
	"math"
)

// Homography is a 3x3 projective transform matrix in row-major order.
type Homography [9]float64

// Apply maps a point through the homography.
func (h Homography) Apply(p Point) Point {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if w == 0 {
		w = 1e-12
	}
	return Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}
}

// Invert returns the inverse homography via adjugate/cofactor expansion of
// the 3x3 matrix.
func (h Homography) Invert() (Homography, error) {
	a, b, c := h[0], h[1], h[2]
	d, e, f := h[3], h[4], h[5]
	g, i, j := h[6], h[7], h[8]

	det := a*(e*j-f*i) - b*(d*j-f*g) + c*(d*i-e*g)
	if math.Abs(det) < 1e-12 {
		return Homography{}, fmt.Errorf("vision: homography is singular")
	}
	inv := 1 / det
	return Homography{
		(e*j - f*i) * inv, (c*i - b*j) * inv, (b*f - c*e) * inv,
		(f*g - d*j) * inv, (a*j - c*g) * inv, (c*d - a*f) * inv,
		(d*i - e*g) * inv, (b*g - a*i) * inv, (a*e - b*d) * inv,
	}, nil
}

// FourPointHomography solves for the homography mapping src[i] -> dst[i]
// for four point correspondences, the same four-point-transform problem
// cv2.getPerspectiveTransform solves.
func FourPointHomography(src, dst [4]Point) (Homography, error) {
	// Build the 8x8 linear system A*h = b for unknowns h0..h7 (h8 fixed to 1).
	var a [8][8]float64
	var b [8]float64
	for i := 0; i < 4; i++ {
		sx, sy := src[i].X, src[i].Y
		dx, dy := dst[i].X, dst[i].Y

		a[2*i] = [8]float64{sx, sy, 1, 0, 0, 0, -sx * dx, -sy * dx}
		b[2*i] = dx

		a[2*i+1] = [8]float64{0, 0, 0, sx, sy, 1, -sx * dy, -sy * dy}
		b[2*i+1] = dy
	}

	sol, err := solveLinearSystem(a, b)
	if err != nil {
		return Homography{}, fmt.Errorf("vision: computing perspective transform: %w", err)
	}
	return Homography{sol[0], sol[1], sol[2], sol[3], sol[4], sol[5], sol[6], sol[7], 1}, nil
}

// solveLinearSystem solves A*x = b for an 8x8 system via Gaussian
// elimination with partial pivoting.
func solveLinearSystem(a [8][8]float64, b [8]float64) ([8]float64, error) {
	const n = 8
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return [8]float64{}, fmt.Errorf("singular matrix")
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < n; r++ {
			factor := a[r][col] / a[col][col]
			for c := col; c < n; c++ {
				a[r][c] -= factor * a[col][c]
			}
			b[r] -= factor * b[col]
		}
	}

	var x [8]float64
	for r := n - 1; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, nil
}

// WarpPerspective renders a maxWidth x maxHeight output by inverse-mapping
// every destination pixel through h into src and bilinearly sampling.
func WarpPerspective(src *image.Gray, h Homography, maxWidth, maxHeight int) (*image.Gray, error) {
	inv, err := h.Invert()
	if err != nil {
		return nil, err
	}
	dst := image.NewGray(image.Rect(0, 0, maxWidth, maxHeight))
	sb := src.Bounds()
	for y := 0; y < maxHeight; y++ {
		for x := 0; x < maxWidth; x++ {
			sp := inv.Apply(Point{X: float64(x), Y: float64(y)})
			dst.Pix[y*dst.Stride+x] = bilinearSample(src, sb, sp.X, sp.Y)
		}
	}
	return dst, nil
}

func bilinearSample(src *image.Gray, b image.Rectangle, x, y float64) uint8 {
	if x < float64(b.Min.X) || y < float64(b.Min.Y) || x > float64(b.Max.X-1) || y > float64(b.Max.Y-1) {
		return 0
	}
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x1 := clampInt(x0+1, b.Min.X, b.Max.X-1)
	y1 := clampInt(y0+1, b.Min.Y, b.Max.Y-1)
	x0 = clampInt(x0, b.Min.X, b.Max.X-1)
	y0 = clampInt(y0, b.Min.Y, b.Max.Y-1)

	fx := x - float64(x0)
	fy := y - float64(y0)

	v00 := float64(src.Pix[y0*src.Stride+x0])
	v10 := float64(src.Pix[y0*src.Stride+x1])
	v01 := float64(src.Pix[y1*src.Stride+x0])
	v11 := float64(src.Pix[y1*src.Stride+x1])

	top := v00*(1-fx) + v10*fx
	bottom := v01*(1-fx) + v11*fx
	return clampUint8(top*(1-fy) + bottom*fy)
}

// RectifyQuad computes the destination rectangle size from four ordered
// corners (TL, TR, BR, BL) using the longest pair of opposing edges, builds
// the homography, and warps src into it. This is the "common post-match
// step" shared by all three marker-detection passes.
func RectifyQuad(src *image.Gray, tl, tr, br, bl Point) (*image.Gray, int, int, error) {
	widthTop := dist(tl, tr)
	widthBottom := dist(bl, br)
	maxWidth := int(math.Round(math.Max(widthTop, widthBottom)))

	heightLeft := dist(tl, bl)
	heightRight := dist(tr, br)
	maxHeight := int(math.Round(math.Max(heightLeft, heightRight)))

	if maxWidth < 1 || maxHeight < 1 {
		return nil, 0, 0, fmt.Errorf("vision: degenerate quad")
	}

	dst := [4]Point{
		{X: 0, Y: 0},
		{X: float64(maxWidth - 1), Y: 0},
		{X: float64(maxWidth - 1), Y: float64(maxHeight - 1)},
		{X: 0, Y: float64(maxHeight - 1)},
	}
	homography, err := FourPointHomography([4]Point{tl, tr, br, bl}, dst)
	if err != nil {
		return nil, 0, 0, err
	}
	warped, err := WarpPerspective(src, homography, maxWidth, maxHeight)
	if err != nil {
		return nil, 0, 0, err
	}
	return warped, maxWidth, maxHeight, nil
}

func dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
