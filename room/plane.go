package room

import (
	"math"

	"github.com/fogleman/pt/pt"
)

// Slicing code is adapted from https://github.com/fogleman/choppy/tree/master

type Point2D struct {
	X, Y float64
}

// To2D converts a 3D vector to a 2D point
func To2D(v pt.Vector) Point2D {
	return Point2D{v.X, v.Y}
}

func (p Point2D) Translate(x, y float64) Point2D {
	return Point2D{p.X + x, p.Y + y}
}

func (p Point2D) Scale(s float64) Point2D {
	return Point2D{p.X * s, p.Y * s}
}

func (p Point2D) Sub(q Point2D) Point2D {
	return Point2D{p.X - q.X, p.Y - q.Y}
}

// Cross returns the z component of the 3D cross product of p and q
func (p Point2D) Cross(q Point2D) float64 {
	return p.X*q.Y - p.Y*q.X
}

type Path2D []Point2D

func (p Path2D) Translate(x, y float64) Path2D {
	translated := make(Path2D, len(p))
	for i, p := range p {
		translated[i] = p.Translate(x, y)
	}
	return translated
}

func (p Path2D) BoundingBox() (XMin, XMax, YMin, YMax float64) {
	if len(p) == 0 {
		return
	}
	XMin, XMax = p[0].X, p[0].X
	YMin, YMax = p[0].Y, p[0].Y
	for _, p := range p[1:] {
		XMin = math.Min(XMin, p.X)
		XMax = math.Max(XMax, p.X)
		YMin = math.Min(YMin, p.Y)
		YMax = math.Max(YMax, p.Y)
	}
	return
}

// SignedArea is positive for counter-clockwise polygons
func (p Path2D) SignedArea() float64 {
	area := 0.0
	for i := range p {
		j := (i + 1) % len(p)
		area += p[i].Cross(p[j])
	}
	return area / 2
}

// Contains reports whether q lies inside the polygon or on its boundary, within tol.
func (p Path2D) Contains(q Point2D, tol float64) bool {
	inside := false
	for i := range p {
		a, b := p[i], p[(i+1)%len(p)]
		if onSegment2D(q, a, b, tol) {
			return true
		}
		if (a.Y > q.Y) != (b.Y > q.Y) {
			x := a.X + (q.Y-a.Y)/(b.Y-a.Y)*(b.X-a.X)
			if q.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

func onSegment2D(q, a, b Point2D, tol float64) bool {
	ab := b.Sub(a)
	length := math.Hypot(ab.X, ab.Y)
	if length == 0 {
		return math.Hypot(q.X-a.X, q.Y-a.Y) <= tol
	}
	if math.Abs(ab.Cross(q.Sub(a)))/length > tol {
		return false
	}
	t := (q.Sub(a).X*ab.X + q.Sub(a).Y*ab.Y) / (length * length)
	return t >= -tol/length && t <= 1+tol/length
}

// segmentsCross reports whether the open segments a1-a2 and b1-b2 properly intersect
func segmentsCross(a1, a2, b1, b2 Point2D, tol float64) bool {
	d1 := a2.Sub(a1).Cross(b1.Sub(a1))
	d2 := a2.Sub(a1).Cross(b2.Sub(a1))
	d3 := b2.Sub(b1).Cross(a1.Sub(b1))
	d4 := b2.Sub(b1).Cross(a2.Sub(b1))
	return ((d1 > tol && d2 < -tol) || (d1 < -tol && d2 > tol)) &&
		((d3 > tol && d4 < -tol) || (d3 < -tol && d4 > tol))
}

// Plane is a point and a unit normal with an orthonormal in-plane basis U, V.
type Plane struct {
	Point  pt.Vector
	Normal pt.Vector
	U, V   pt.Vector
}

func MakePlane(point, normal pt.Vector) Plane {
	normal = normal.Normalize()
	u := perpendicular(normal).Normalize()
	v := normal.Cross(u).Normalize()
	return Plane{point, normal, u, v}
}

// Project returns the in-plane coordinates of point in the Z=0 plane
func (p Plane) Project(point pt.Vector) pt.Vector {
	d := point.Sub(p.Point)
	x := d.Dot(p.U)
	y := d.Dot(p.V)
	return V(x, y, 0)
}

// Distance returns the signed distance from the plane, positive on the normal side
func (p Plane) Distance(point pt.Vector) float64 {
	return point.Sub(p.Point).Dot(p.Normal)
}

// Reflect mirrors point across the plane
func (p Plane) Reflect(point pt.Vector) pt.Vector {
	return point.Sub(p.Normal.MulScalar(2 * p.Distance(point)))
}

func perpendicular(a pt.Vector) pt.Vector {
	if a.X == 0 && a.Y == 0 {
		if a.Z == 0 {
			return pt.Vector{}
		}
		return V(0, 1, 0)
	}
	return V(-a.Y, a.X, 0).Normalize()
}

type Path []pt.Vector

func joinPaths(paths []Path) []Path {
	frontLookup := make(map[pt.Vector]Path, len(paths))
	for _, path := range paths {
		frontLookup[path[0]] = path
	}
	var result []Path
	for len(frontLookup) > 0 {
		var v pt.Vector
		for v = range frontLookup {
			break
		}
		var path Path
	outer:
		for {
			path = append(path, v)
			if p, ok := frontLookup[v]; ok {
				delete(frontLookup, v)
				v = p[len(p)-1]
			} else {
				for k, thisPath := range frontLookup {
					if thisPath[len(thisPath)-1] == v {
						delete(frontLookup, k)
						v = k
						continue outer
					}
				}
				break
			}
		}
		result = append(result, path)
	}
	return result
}

// SliceMesh returns the outlines where the plane cuts through m
func (p Plane) SliceMesh(m *pt.Mesh) []Path {
	var paths []Path
	for _, t := range m.Triangles {
		if v1, v2, ok := p.IntersectTriangle(t); ok {
			paths = append(paths, Path{v1, v2})
		}
	}
	paths = joinPaths(paths)
	return paths
}

func (p Plane) MeshToPath(m *pt.Mesh) []Path2D {
	result := []Path2D{}
	for _, path := range p.SliceMesh(m) {
		thisPath := Path2D{}
		for _, v := range path {
			proj := p.Project(v)
			thisPath = append(thisPath, To2D(proj))
		}
		result = append(result, thisPath)
	}
	return result
}

func (p Plane) pointInFront(v pt.Vector) bool {
	return v.Sub(p.Point).Dot(p.Normal) > 0
}

func (p Plane) intersectSegment(v0, v1 pt.Vector) (pt.Vector, bool) {
	u := v1.Sub(v0)
	w := v0.Sub(p.Point)
	d := p.Normal.Dot(u)
	if d > -1e-9 && d < 1e-9 {
		return pt.Vector{}, false
	}
	n := -p.Normal.Dot(w)
	t := n / d
	if t < 0 || t > 1 {
		return pt.Vector{}, false
	}
	return v0.Add(u.MulScalar(t)), true
}

func (p Plane) IntersectTriangle(t *pt.Triangle) (pt.Vector, pt.Vector, bool) {
	v1, ok1 := p.intersectSegment(t.V1, t.V2)
	v2, ok2 := p.intersectSegment(t.V2, t.V3)
	v3, ok3 := p.intersectSegment(t.V3, t.V1)
	var p1, p2 pt.Vector
	if ok1 && ok2 {
		p1, p2 = v1, v2
	} else if ok1 && ok3 {
		p1, p2 = v1, v3
	} else if ok2 && ok3 {
		p1, p2 = v2, v3
	} else {
		return pt.Vector{}, pt.Vector{}, false
	}
	if p1 == p2 {
		return pt.Vector{}, pt.Vector{}, false
	}
	n := p2.Sub(p1).Cross(p.Normal)
	if n.Dot(t.Normal()) < 0 {
		return p1, p2, true
	} else {
		return p2, p1, true
	}
}
