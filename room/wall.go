package room

import (
	"math"

	"github.com/fogleman/pt/pt"
)

// Tolerances for wall construction, relative to the wall's size
const (
	planarityTolerance = 1e-6
	containsTolerance  = 1e-7
)

// Wall is a planar simple polygon with a material.
//
// Corners are ordered counter-clockwise when seen from the side the normal points to.
// Inside a Room the normal points out of the room.
type Wall struct {
	Name     string
	Corners  []pt.Vector
	Material Material

	plane Plane
	poly  Path2D
	area  float64
	size  float64

	// material coefficients resampled onto the room's bands
	absorption []float64
	scattering []float64
}

// NewWall validates the corners and builds a wall. Degenerate polygons return ErrGeometry.
func NewWall(name string, corners []pt.Vector, material Material) (*Wall, error) {
	if len(corners) < 3 {
		return nil, geometryErrorf("wall %q has %d corners, need at least 3", name, len(corners))
	}
	for i, c := range corners {
		if !isFinite(c) {
			return nil, geometryErrorf("wall %q: corner %d is not finite: %v", name, i, c)
		}
	}

	// Newell's method gives twice the area vector for any planar polygon
	var sum, centroid pt.Vector
	for i, c := range corners {
		sum = sum.Add(c.Cross(corners[(i+1)%len(corners)]))
		centroid = centroid.Add(c)
	}
	centroid = centroid.DivScalar(float64(len(corners)))
	area := sum.Length() / 2

	size := 0.0
	for _, c := range corners {
		size = math.Max(size, c.Sub(centroid).Length())
	}
	if size == 0 || area <= planarityTolerance*size*size {
		return nil, geometryErrorf("wall %q has zero area", name)
	}

	w := &Wall{
		Name:     name,
		Corners:  append([]pt.Vector(nil), corners...),
		Material: material,
		plane:    MakePlane(centroid, sum),
		area:     area,
		size:     size,
	}
	for i, c := range corners {
		if d := math.Abs(w.plane.Distance(c)); d > planarityTolerance*size {
			return nil, geometryErrorf("wall %q: corner %d is %g off the wall plane", name, i, d)
		}
	}
	w.poly = make(Path2D, len(corners))
	for i, c := range corners {
		w.poly[i] = To2D(w.plane.Project(c))
	}
	if err := w.checkSimple(); err != nil {
		return nil, err
	}
	if err := material.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Wall) checkSimple() error {
	n := len(w.poly)
	tol := planarityTolerance * w.size
	for i := 0; i < n; i++ {
		a1, a2 := w.poly[i], w.poly[(i+1)%n]
		if math.Hypot(a2.X-a1.X, a2.Y-a1.Y) <= tol {
			return geometryErrorf("wall %q: corners %d and %d coincide", w.Name, i, (i+1)%n)
		}
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			b1, b2 := w.poly[j], w.poly[(j+1)%n]
			if segmentsCross(a1, a2, b1, b2, tol*tol) {
				return geometryErrorf("wall %q is self-intersecting: edges %d and %d cross", w.Name, i, j)
			}
		}
	}
	return nil
}

func (w *Wall) Area() float64 {
	return w.area
}

func (w *Wall) Normal() pt.Vector {
	return w.plane.Normal
}

func (w *Wall) Plane() Plane {
	return w.plane
}

// Side returns the signed distance of p from the wall plane, positive on the normal side
func (w *Wall) Side(p pt.Vector) float64 {
	return w.plane.Distance(p)
}

// Reflect mirrors p across the wall plane
func (w *Wall) Reflect(p pt.Vector) pt.Vector {
	return w.plane.Reflect(p)
}

// Contains reports whether the projection of p onto the wall plane lies inside the polygon
func (w *Wall) Contains(p pt.Vector) bool {
	return w.poly.Contains(To2D(w.plane.Project(p)), containsTolerance*w.size)
}

// IntersectSegment returns the point where the segment a-b crosses the wall polygon
func (w *Wall) IntersectSegment(a, b pt.Vector) (pt.Vector, bool) {
	da := w.plane.Distance(a)
	db := w.plane.Distance(b)
	if (da > 0 && db > 0) || (da < 0 && db < 0) || da == db {
		return pt.Vector{}, false
	}
	q := a.Add(b.Sub(a).MulScalar(da / (da - db)))
	if !w.Contains(q) {
		return pt.Vector{}, false
	}
	return q, true
}

// clone returns a copy that shares no slices with w
func (w *Wall) clone() *Wall {
	c := *w
	c.Corners = append([]pt.Vector(nil), w.Corners...)
	c.poly = append(Path2D(nil), w.poly...)
	c.absorption = append([]float64(nil), w.absorption...)
	c.scattering = append([]float64(nil), w.scattering...)
	return &c
}

// flip reverses the corner order and the normal
func (w *Wall) flip() {
	for i, j := 0, len(w.Corners)-1; i < j; i, j = i+1, j-1 {
		w.Corners[i], w.Corners[j] = w.Corners[j], w.Corners[i]
	}
	w.plane = MakePlane(w.plane.Point, w.plane.Normal.Negate())
	w.poly = make(Path2D, len(w.Corners))
	for i, c := range w.Corners {
		w.poly[i] = To2D(w.plane.Project(c))
	}
}

// Triangles splits the wall into triangles by ear clipping.
// Every triangle keeps the winding of the wall.
func (w *Wall) Triangles() [][3]pt.Vector {
	idx := make([]int, len(w.poly))
	for i := range idx {
		idx[i] = i
	}
	var tris [][3]pt.Vector
	for len(idx) > 3 {
		ear := -1
		for k := range idx {
			if w.isEar(idx, k) {
				ear = k
				break
			}
		}
		if ear < 0 {
			// numerically degenerate remainder, fan it
			for k := 1; k < len(idx)-1; k++ {
				tris = append(tris, [3]pt.Vector{w.Corners[idx[0]], w.Corners[idx[k]], w.Corners[idx[k+1]]})
			}
			return tris
		}
		n := len(idx)
		a, b, c := idx[(ear+n-1)%n], idx[ear], idx[(ear+1)%n]
		tris = append(tris, [3]pt.Vector{w.Corners[a], w.Corners[b], w.Corners[c]})
		idx = append(idx[:ear], idx[ear+1:]...)
	}
	return append(tris, [3]pt.Vector{w.Corners[idx[0]], w.Corners[idx[1]], w.Corners[idx[2]]})
}

func (w *Wall) isEar(idx []int, k int) bool {
	n := len(idx)
	a := w.poly[idx[(k+n-1)%n]]
	b := w.poly[idx[k]]
	c := w.poly[idx[(k+1)%n]]
	if b.Sub(a).Cross(c.Sub(b)) <= 0 {
		return false
	}
	tri := Path2D{a, b, c}
	for j, i := range idx {
		if j == k || j == (k+n-1)%n || j == (k+1)%n {
			continue
		}
		p := w.poly[i]
		if p == a || p == b || p == c {
			continue
		}
		if tri.Contains(p, 0) {
			return false
		}
	}
	return true
}

// meanScattering is the probability that a ray leaves the wall diffusely
func (w *Wall) meanScattering() float64 {
	if len(w.scattering) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range w.scattering {
		sum += s
	}
	return sum / float64(len(w.scattering))
}
