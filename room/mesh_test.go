package room

import (
	"path/filepath"
	"testing"

	"github.com/fogleman/pt/pt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// saveSTL writes tris, scaled by scale, to an STL file
func saveSTL(t *testing.T, path string, tris [][3]pt.Vector, scale float64) {
	t.Helper()
	var triangles []*pt.Triangle
	for _, tri := range tris {
		triangles = append(triangles, pt.NewTriangle(
			tri[0].MulScalar(scale), tri[1].MulScalar(scale), tri[2].MulScalar(scale),
			pt.Vector{}, pt.Vector{}, pt.Vector{}, pt.Material{}))
	}
	require.NoError(t, pt.NewMesh(triangles).SaveSTL(path))
}

func TestLoadSTL(t *testing.T) {
	box := testShoeBox(t, V(4, 3, 2.5), testConfig())
	tris := Triangles(box.Mesh())
	require.Len(t, tris, 12)

	// the file is in centimeters
	path := filepath.Join(t.TempDir(), "room.stl")
	saveSTL(t, path, tris, 100)

	r, err := LoadSTL(path, 0.01, NewMaterial(0.3, 0), testConfig())
	require.NoError(t, err)
	assert.False(t, r.IsShoeBox())
	assert.Len(t, r.Walls(), 12)
	assert.InDelta(t, 30, r.Volume(), 1e-6)
	assert.InDelta(t, box.SurfaceArea(), r.SurfaceArea(), 1e-6)
	assert.True(t, r.Inside(V(2, 1.5, 1.25)))

	_, err = LoadSTL(path, 0, NewMaterial(0.3, 0), testConfig())
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = LoadSTL(filepath.Join(t.TempDir(), "missing.stl"), 1, NewMaterial(0.3, 0), testConfig())
	assert.Error(t, err)
}

func TestLoad3MFErrors(t *testing.T) {
	materials := map[string]Material{"default": NewMaterial(0.3, 0)}
	_, err := Load3MF("room.3mf", 0, materials, testConfig())
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = Load3MF(filepath.Join(t.TempDir(), "missing.3mf"), 1, materials, testConfig())
	assert.Error(t, err)
}
