package room

import (
	"math"

	"github.com/fogleman/pt/pt"
)

// Value from Rod Gervais' book Home Recording Studio: Build It Like The Pros
const LISTEN_DIST_INTO_TRIANGLE = 0.38

// ListeningTriangle places a stereo pair of sources and a listening position
// on an equilateral triangle in front of a wall.
type ListeningTriangle struct {
	// A point on the front wall, on the center line of the triangle
	ReferencePosition pt.Vector
	// Horizontal direction from the front wall into the room; zero means +X
	ReferenceNormal pt.Vector
	// Distance of the sources from the front wall
	DistFromFront float64
	// Distance of the sources from the horizontal center of the triangle
	DistFromCenter float64
	// Height of the sources
	SourceHeight float64
	// Height of the listen position
	ListenHeight float64
}

// axes returns the unit vectors pointing into the room and to the right of the listener's view
func (t ListeningTriangle) axes() (forward, right pt.Vector) {
	forward = V(t.ReferenceNormal.X, t.ReferenceNormal.Y, 0)
	if forward.Length() == 0 {
		forward = V(1, 0, 0)
	}
	forward = forward.Normalize()
	right = V(0, 0, 1).Cross(forward)
	return forward, right
}

func (t ListeningTriangle) sourcePosition(side float64) pt.Vector {
	forward, right := t.axes()
	p := t.ReferencePosition.Add(forward.MulScalar(t.DistFromFront)).Add(right.MulScalar(side * t.DistFromCenter))
	p.Z = t.SourceHeight
	return p
}

func (t ListeningTriangle) LeftSourcePosition() pt.Vector {
	return t.sourcePosition(-1)
}

func (t ListeningTriangle) LeftSourceNormal() pt.Vector {
	return t.ListenPosition().Sub(t.LeftSourcePosition()).Normalize()
}

func (t ListeningTriangle) RightSourcePosition() pt.Vector {
	return t.sourcePosition(1)
}

func (t ListeningTriangle) RightSourceNormal() pt.Vector {
	return t.ListenPosition().Sub(t.RightSourcePosition()).Normalize()
}

func (t ListeningTriangle) ListenPosition() pt.Vector {
	forward, _ := t.axes()
	dist := t.DistFromFront + t.DistFromCenter*math.Sqrt(3) + LISTEN_DIST_INTO_TRIANGLE
	p := t.ReferencePosition.Add(forward.MulScalar(dist))
	p.Z = t.ListenHeight
	return p
}

func (t ListeningTriangle) ListenDistance() float64 {
	return t.ListenPosition().Sub(t.LeftSourcePosition()).Length()
}

func (t ListeningTriangle) Deviation(listenPos pt.Vector) float64 {
	return listenPos.Sub(t.ListenPosition()).Length()
}

// Place adds both sources, aimed at the listening position, and a microphone at it.
// directivity may be nil for omnidirectional sources.
func (t ListeningTriangle) Place(r *Room, directivity *Directivity) (left, right, mic int, err error) {
	aim := func(normal pt.Vector) *Directivity {
		if directivity == nil {
			return nil
		}
		d := *directivity
		d.Orientation = normal
		return &d
	}
	if left, err = r.AddSource(Source{Position: t.LeftSourcePosition(), Directivity: aim(t.LeftSourceNormal())}); err != nil {
		return
	}
	if right, err = r.AddSource(Source{Position: t.RightSourcePosition(), Directivity: aim(t.RightSourceNormal())}); err != nil {
		return
	}
	mic, err = r.AddMicrophone(Microphone{Name: "listening position", Position: t.ListenPosition()})
	return
}
