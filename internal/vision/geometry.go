package vision

import (
	"image"
	"math"
	"sort"
)

// Point is a 2D floating-point coordinate used throughout contour and
// perspective math, where sub-pixel precision matters even though the
// source pixels are integer.
type Point struct {
	X, Y float64
}

// Contour is an ordered polygon boundary, either a raw traced outline or
// the result of polygon approximation.
type Contour []Point

// BoundingRect returns the axis-aligned integer bounding box of c.
func (c Contour) BoundingRect() image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}
	minX, minY := c[0].X, c[0].Y
	maxX, maxY := c[0].X, c[0].Y
	for _, p := range c[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}

// Area returns the contour's unsigned area via the shoelace formula.
func (c Contour) Area() float64 {
	if len(c) < 3 {
		return 0
	}
	sum := 0.0
	for i := range c {
		j := (i + 1) % len(c)
		sum += c[i].X*c[j].Y - c[j].X*c[i].Y
	}
	return math.Abs(sum) / 2
}

// Perimeter returns the closed-polygon perimeter length.
func (c Contour) Perimeter() float64 {
	if len(c) < 2 {
		return 0
	}
	total := 0.0
	for i := range c {
		j := (i + 1) % len(c)
		dx := c[j].X - c[i].X
		dy := c[j].Y - c[i].Y
		total += math.Hypot(dx, dy)
	}
	return total
}

// Center returns the arithmetic centroid of the contour's vertices.
func (c Contour) Center() Point {
	if len(c) == 0 {
		return Point{}
	}
	var sx, sy float64
	for _, p := range c {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(c))
	return Point{sx / n, sy / n}
}

// ConvexHull computes the convex hull of a point set using Andrew's
// monotone chain algorithm, returning vertices in counter-clockwise order.
func ConvexHull(points []Point) Contour {
	pts := append([]Point(nil), points...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	pts = dedupPoints(pts)
	n := len(pts)
	if n < 3 {
		return pts
	}

	cross := func(o, a, b Point) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	lower := make(Contour, 0, n)
	for _, p := range pts {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	upper := make(Contour, 0, n)
	for i := n - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

func dedupPoints(pts []Point) []Point {
	out := pts[:0]
	for i, p := range pts {
		if i == 0 || p != pts[i-1] {
			out = append(out, p)
		}
	}
	return out
}

// Solidity returns contour area divided by its convex hull's area, a
// measure of how "filled in" versus concave/ragged the shape is.
func Solidity(c Contour) float64 {
	hull := ConvexHull(c)
	hullArea := hull.Area()
	if hullArea == 0 {
		return 0
	}
	return c.Area() / hullArea
}

// ApproxPolyDP simplifies a closed contour using the Douglas-Peucker
// algorithm with tolerance epsilon, matching cv2.approxPolyDP(closed=true).
func ApproxPolyDP(c Contour, epsilon float64) Contour {
	if len(c) < 3 {
		return c
	}
	// Seed the recursion from the two points farthest apart, the standard
	// way to approximate a closed curve with an open Douglas-Peucker core.
	i0, i1 := farthestPair(c)
	segA := ringSlice(c, i0, i1)
	segB := ringSlice(c, i1, i0)

	a := douglasPeucker(segA, epsilon)
	b := douglasPeucker(segB, epsilon)

	out := make(Contour, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b[1:len(b)-1]...)
	return out
}

func farthestPair(c Contour) (int, int) {
	best := 0.0
	bi, bj := 0, 1
	for i := 0; i < len(c); i++ {
		for j := i + 1; j < len(c); j++ {
			d := math.Hypot(c[i].X-c[j].X, c[i].Y-c[j].Y)
			if d > best {
				best = d
				bi, bj = i, j
			}
		}
	}
	return bi, bj
}

func ringSlice(c Contour, from, to int) Contour {
	n := len(c)
	out := Contour{c[from]}
	for i := (from + 1) % n; ; i = (i + 1) % n {
		out = append(out, c[i])
		if i == to {
			break
		}
	}
	return out
}

func douglasPeucker(pts Contour, epsilon float64) Contour {
	if len(pts) < 3 {
		return pts
	}
	first, last := pts[0], pts[len(pts)-1]
	maxDist := -1.0
	maxIdx := 0
	for i := 1; i < len(pts)-1; i++ {
		d := pointLineDistance(pts[i], first, last)
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}
	if maxDist <= epsilon {
		return Contour{first, last}
	}
	left := douglasPeucker(pts[:maxIdx+1], epsilon)
	right := douglasPeucker(pts[maxIdx:], epsilon)
	return append(left[:len(left)-1], right...)
}

func pointLineDistance(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	return math.Abs(dy*p.X-dx*p.Y+b.X*a.Y-b.Y*a.X) / length
}

// OrderQuadPoints orders four points as (TL, TR, BR, BL) using the
// classic sum/diff heuristic: top-left has the smallest x+y, bottom-right
// the largest x+y, top-right the smallest y-x, bottom-left the largest y-x.
func OrderQuadPoints(pts [4]Point) (tl, tr, br, bl Point) {
	sums := make([]float64, 4)
	diffs := make([]float64, 4)
	for i, p := range pts {
		sums[i] = p.X + p.Y
		diffs[i] = p.Y - p.X
	}
	tl = pts[argmin(sums)]
	br = pts[argmax(sums)]
	tr = pts[argmin(diffs)]
	bl = pts[argmax(diffs)]
	return
}

func argmin(v []float64) int {
	idx := 0
	for i, x := range v {
		if x < v[idx] {
			idx = i
		}
	}
	return idx
}

func argmax(v []float64) int {
	idx := 0
	for i, x := range v {
		if x > v[idx] {
			idx = i
		}
	}
	return idx
}
