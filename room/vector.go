package room

import (
	"math"

	"github.com/fogleman/pt/pt"
)

// V is a shorthand constructor for pt.Vector
func V(X, Y, Z float64) pt.Vector {
	return pt.Vector{X: X, Y: Y, Z: Z}
}

func isFinite(v pt.Vector) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// distanceToSegment returns the distance from p to the segment a-b and the
// distance along the segment of the closest point.
func distanceToSegment(p, a, b pt.Vector) (dist, along float64) {
	ab := b.Sub(a)
	length := ab.Length()
	if length == 0 {
		return p.Sub(a).Length(), 0
	}
	dir := ab.DivScalar(length)
	along = p.Sub(a).Dot(dir)
	if along < 0 {
		along = 0
	} else if along > length {
		along = length
	}
	return p.Sub(a.Add(dir.MulScalar(along))).Length(), along
}
