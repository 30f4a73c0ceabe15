//go:build verify_reflections

package room

import (
	"fmt"
	"math"

	"github.com/fogleman/pt/pt"
)

const (
	lengthEpsilon      = 1e-7
	angleEpsilon       = 1e-7
	coplanarityEpsilon = 1e-6
)

// verifyReflectionLaw panics when a specular reflection breaks the law of reflection.
// normal must face the incoming ray.
func verifyReflectionLaw(incident pt.Ray, normal pt.Vector, reflected pt.Ray) {
	if math.Abs(reflected.Direction.Length()-1) > lengthEpsilon {
		panic(fmt.Sprintf("reflected direction %v is not a unit vector", reflected.Direction))
	}
	if incident.Direction.Dot(normal) > 0 {
		panic(fmt.Sprintf("normal %v does not face the incident ray %v", normal, incident.Direction))
	}
	incidentAngle := math.Acos(clamp(-incident.Direction.Dot(normal), -1, 1))
	reflectedAngle := math.Acos(clamp(reflected.Direction.Dot(normal), -1, 1))
	if math.Abs(incidentAngle-reflectedAngle) > angleEpsilon {
		panic(fmt.Sprintf("angle of incidence %g differs from angle of reflection %g", incidentAngle, reflectedAngle))
	}
	if d := incident.Direction.Cross(reflected.Direction).Dot(normal); math.Abs(d) > coplanarityEpsilon {
		panic(fmt.Sprintf("incident, normal and reflected directions are not coplanar: %g", d))
	}
}
