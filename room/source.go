package room

import (
	"math"
	"sort"

	"github.com/fogleman/pt/pt"
	lin "github.com/sgreben/piecewiselinear"
)

// Directivity computes the gain of a source in a given direction from a
// horizontal and a vertical polar curve.
type Directivity struct {
	// Direction of the main axis
	Orientation pt.Vector

	horizFunc, vertFunc lin.Function
}

func curve(points map[float64]float64) lin.Function {
	x := make([]float64, 0, len(points))
	for k := range points {
		x = append(x, k)
	}
	sort.Float64s(x)
	y := make([]float64, len(x))
	for i, k := range x {
		y[i] = points[k]
	}
	return lin.Function{X: x, Y: y}
}

// NewDirectivity returns a Directivity
//
// horiz and vert are maps of angle in degrees off the main axis to gain in dB. Gain should always be negative.
// A curve with no negative angles is taken to be symmetric.
func NewDirectivity(horiz, vert map[float64]float64, orientation pt.Vector) (*Directivity, error) {
	if len(horiz) == 0 || len(vert) == 0 {
		return nil, configErrorf("directivity needs at least one point in each curve")
	}
	if !isFinite(orientation) || orientation.Length() == 0 {
		return nil, configErrorf("directivity orientation must be a non-zero vector, got %v", orientation)
	}
	for _, m := range []map[float64]float64{horiz, vert} {
		for angle, gain := range m {
			if math.IsNaN(angle) || math.IsNaN(gain) || gain > 0 {
				return nil, configErrorf("invalid directivity point %v°: %v dB", angle, gain)
			}
		}
	}
	return &Directivity{
		Orientation: orientation.Normalize(),
		horizFunc:   curve(horiz),
		vertFunc:    curve(vert),
	}, nil
}

func evalCurve(f lin.Function, x float64) float64 {
	if f.X[0] >= 0 {
		x = math.Abs(x)
	}
	switch {
	case x <= f.X[0]:
		return f.Y[0]
	case x >= f.X[len(f.X)-1]:
		return f.Y[len(f.Y)-1]
	}
	return f.At(x)
}

// GainDB returns the gain in dB of a ray leaving in direction dir
func (d *Directivity) GainDB(dir pt.Vector) float64 {
	dir = dir.Normalize()
	o := d.Orientation
	horiz := math.Atan2(o.X*dir.Y-o.Y*dir.X, o.X*dir.X+o.Y*dir.Y) * 180 / math.Pi
	vert := (math.Asin(clamp(dir.Z, -1, 1)) - math.Asin(clamp(o.Z, -1, 1))) * 180 / math.Pi
	return evalCurve(d.horizFunc, horiz) + evalCurve(d.vertFunc, vert)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// Source is a point source with an optional signal to play into the room.
type Source struct {
	Position pt.Vector
	// Signal sampled at the room's sampling rate
	Signal []float64
	// Delay before the signal starts, in seconds
	Delay float64
	// Omnidirectional when nil
	Directivity *Directivity
}

// gain is the energy gain of the source in direction dir
func (s *Source) gain(dir pt.Vector) float64 {
	if s.Directivity == nil {
		return 1
	}
	return fromDB(s.Directivity.GainDB(dir))
}

// Microphone is an omnidirectional receiver.
type Microphone struct {
	Name     string
	Position pt.Vector
}

// MicrophoneArray is a group of microphones added to the room together.
type MicrophoneArray struct {
	Positions []pt.Vector
}

// LinearArray places n microphones spaced along direction, centred on center
func LinearArray(center, direction pt.Vector, n int, spacing float64) MicrophoneArray {
	dir := direction.Normalize()
	a := MicrophoneArray{}
	for i := 0; i < n; i++ {
		offset := (float64(i) - float64(n-1)/2) * spacing
		a.Positions = append(a.Positions, center.Add(dir.MulScalar(offset)))
	}
	return a
}

// CircularArray places n microphones on a horizontal circle of the given radius
func CircularArray(center pt.Vector, n int, radius float64) MicrophoneArray {
	a := MicrophoneArray{}
	for i := 0; i < n; i++ {
		phi := 2 * math.Pi * float64(i) / float64(n)
		a.Positions = append(a.Positions, center.Add(V(radius*math.Cos(phi), radius*math.Sin(phi), 0)))
	}
	return a
}
