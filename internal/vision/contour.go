package vision

import "image"

// FindExternalContours labels 8-connected foreground (nonzero) regions of a
// binary mask and traces each region's outer boundary with Moore-neighbor
// tracing, returning one Contour per connected component. This mirrors
// cv2.findContours(..., RETR_EXTERNAL, CHAIN_APPROX_SIMPLE) closely enough
// for the marker- and page-detection heuristics, which only need area,
// bounding box, and hull shape of the outer boundary.
func FindExternalContours(mask *image.Gray) []Contour {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	visited := make([]bool, w*h)
	at := func(x, y int) bool { return mask.Pix[y*mask.Stride+x] != 0 }

	var contours []Contour
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if visited[y*w+x] || !at(x, y) {
				continue
			}
			comp := floodFillComponent(at, visited, w, h, x, y)
			start := topLeftMost(comp)
			contour := traceMooreBoundary(at, w, h, start)
			if len(contour) >= 3 {
				contours = append(contours, contour)
			}
		}
	}
	return contours
}

func floodFillComponent(at func(x, y int) bool, visited []bool, w, h, sx, sy int) []image.Point {
	stack := []image.Point{{X: sx, Y: sy}}
	visited[sy*w+sx] = true
	var comp []image.Point
	dirs := [8][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		comp = append(comp, p)
		for _, d := range dirs {
			nx, ny := p.X+d[0], p.Y+d[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			idx := ny*w + nx
			if visited[idx] || !at(nx, ny) {
				continue
			}
			visited[idx] = true
			stack = append(stack, image.Point{X: nx, Y: ny})
		}
	}
	return comp
}

func topLeftMost(comp []image.Point) image.Point {
	best := comp[0]
	for _, p := range comp[1:] {
		if p.Y < best.Y || (p.Y == best.Y && p.X < best.X) {
			best = p
		}
	}
	return best
}

// traceMooreBoundary walks the outer boundary of the foreground component
// containing start using the Moore-neighbor tracing algorithm (a
// square-tracing variant), returning the boundary as a simplified point
// sequence (collinear run points collapsed).
func traceMooreBoundary(at func(x, y int) bool, w, h int, start image.Point) Contour {
	dirs := [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	inBounds := func(x, y int) bool { return x >= 0 && y >= 0 && x < w && y < h }
	fg := func(x, y int) bool { return inBounds(x, y) && at(x, y) }

	var raw []image.Point
	current := start
	backtrack := 4 // came from the left, so start search from direction index 4 ("-1,0")'s neighbor ring
	raw = append(raw, current)

	for iter := 0; iter < w*h*8+8; iter++ {
		found := false
		for k := 0; k < 8; k++ {
			dirIdx := (backtrack + 1 + k) % 8
			nx, ny := current.X+dirs[dirIdx][0], current.Y+dirs[dirIdx][1]
			if fg(nx, ny) {
				current = image.Point{X: nx, Y: ny}
				backtrack = (dirIdx + 4) % 8
				raw = append(raw, current)
				found = true
				break
			}
		}
		if !found {
			break // isolated pixel
		}
		if current == start && len(raw) > 1 {
			raw = raw[:len(raw)-1]
			break
		}
	}

	return simplifyCollinear(raw)
}

func simplifyCollinear(pts []image.Point) Contour {
	if len(pts) < 3 {
		out := make(Contour, len(pts))
		for i, p := range pts {
			out[i] = Point{float64(p.X), float64(p.Y)}
		}
		return out
	}
	var out Contour
	n := len(pts)
	for i := 0; i < n; i++ {
		prev := pts[(i-1+n)%n]
		cur := pts[i]
		next := pts[(i+1)%n]
		if !collinear(prev, cur, next) {
			out = append(out, Point{float64(cur.X), float64(cur.Y)})
		}
	}
	if len(out) < 3 {
		out = make(Contour, len(pts))
		for i, p := range pts {
			out[i] = Point{float64(p.X), float64(p.Y)}
		}
	}
	return out
}

func collinear(a, b, c image.Point) bool {
	cross := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	return cross == 0
}
