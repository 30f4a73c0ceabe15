//go:build !verify_reflections

package room

import "github.com/fogleman/pt/pt"

// Checks are compiled in with -tags verify_reflections
func verifyReflectionLaw(incident pt.Ray, normal pt.Vector, reflected pt.Ray) {}
