package room

import (
	"fmt"
	"math"
	"testing"

	"github.com/fogleman/pt/pt"
	"github.com/stretchr/testify/assert"
)

func buildTri(v1, v2, v3 pt.Vector) *pt.Triangle {
	return pt.NewTriangle(v1, v2, v3, pt.Vector{}, pt.Vector{}, pt.Vector{}, pt.Material{})
}

func TestIntersectSetment(t *testing.T) {
	assert := assert.New(t)
	intersects := func(plane Plane, want, v1, v2 pt.Vector) {
		v, ok := plane.intersectSegment(v1, v2)
		assert.True(ok)
		assert.Less(math.Abs(want.Sub(v).Length()), 0.01)
	}
	doesNotIntersect := func(plane Plane, v1, v2 pt.Vector) {
		_, ok := plane.intersectSegment(v1, v2)
		assert.False(ok)
	}

	p := Plane{
		Point:  V(0, 0, 0),
		Normal: V(0, 1, 0),
	}

	intersects(p, V(0, 0, 0), V(0, 2, 0), V(0, -1, 0))
	doesNotIntersect(p, V(0, 2, 0), V(1, 2, 0))
}

func TestIntersectTriangle(t *testing.T) {
	assert := assert.New(t)
	intersects := func(plane Plane, want1 pt.Vector, want2 pt.Vector, tri *pt.Triangle) {
		v1, v2, ok := plane.IntersectTriangle(tri)
		msg := fmt.Sprintf(`
			Expected vertices {%f, %f, %f}, {%f, %f, %f}
			Got vertices      {%f, %f, %f}, {%f, %f, %f}`, want1.X, want1.Y, want1.Z, want2.X, want2.Y, want2.Z, v1.X, v1.Y, v1.Z, v2.X, v2.Y, v2.Z)
		assert.True(ok)
		assert.Less(math.Abs(want1.Sub(v1).Length()), 0.01, msg)
		assert.Less(math.Abs(want2.Sub(v2).Length()), 0.01, msg)
	}
	doesNotIntersect := func(plane Plane, tri *pt.Triangle) {
		_, _, ok := plane.IntersectTriangle(tri)
		assert.False(ok)
	}

	p := Plane{
		Point:  V(0, 1, 0),
		Normal: V(0, 1, 0),
	}

	doesNotIntersect(p, buildTri(V(0, 2, 0), V(15, 2, 0), V(-10, 5, 7)))
	intersects(p, V(1, 1, 0), V(-1, 1, 0), buildTri(V(0.0, 0, 0), V(2, 2, 0), V(-2, 2, 0)))
	intersects(p, V(1, 1, 0), V(0, 1, 0), buildTri(V(0, 0, 0), V(2, 0, 0), V(0, 2, 0)))
}

func TestSliceMesh(t *testing.T) {
	r, err := NewShoeBox(V(6, 4, 3), map[string]Material{"default": NewMaterial(0.3, 0)}, DefaultConfig())
	assert.NoError(t, err)

	p := MakePlane(V(0, 0, 1.5), V(0, 0, 1))
	paths := p.SliceMesh(r.Mesh())
	assert.NotEmpty(t, paths)
	onBoundary := func(v pt.Vector) bool {
		return math.Abs(v.X) < 1e-9 || math.Abs(v.X-6) < 1e-9 || math.Abs(v.Y) < 1e-9 || math.Abs(v.Y-4) < 1e-9
	}
	points := 0
	for _, path := range paths {
		for _, v := range path {
			assert.InDelta(t, 1.5, v.Z, 1e-9)
			assert.True(t, onBoundary(v), "%v is not on a side wall", v)
			points++
		}
	}
	assert.GreaterOrEqual(t, points, 4)

	// the floor plan fits the room
	for _, path := range p.MeshToPath(r.Mesh()) {
		xmin, xmax, ymin, ymax := path.BoundingBox()
		assert.LessOrEqual(t, xmax-xmin, 7.3)
		assert.LessOrEqual(t, ymax-ymin, 7.3)
	}
}

func TestPath2D(t *testing.T) {
	square := Path2D{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	assert.InDelta(t, 4, square.SignedArea(), 1e-12)
	assert.True(t, square.Contains(Point2D{1, 1}, 0))
	assert.True(t, square.Contains(Point2D{2, 1}, 1e-9))
	assert.False(t, square.Contains(Point2D{3, 1}, 1e-9))

	xmin, xmax, ymin, ymax := square.Translate(1, -1).BoundingBox()
	assert.Equal(t, []float64{1, 3, -1, 1}, []float64{xmin, xmax, ymin, ymax})
	assert.True(t, segmentsCross(Point2D{0, 0}, Point2D{2, 2}, Point2D{0, 2}, Point2D{2, 0}, 0))
	assert.False(t, segmentsCross(Point2D{0, 0}, Point2D{1, 0}, Point2D{0, 1}, Point2D{1, 1}, 0))
}
