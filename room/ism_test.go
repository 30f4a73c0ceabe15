package room

import (
	"context"
	"math"
	"sort"
	"testing"

	"github.com/fogleman/pt/pt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ismRoom builds a room with one source and one microphone and runs the image source model only.
// general builds the same box from its walls so that images are mirrored and traced back.
func ismRoom(t *testing.T, dims pt.Vector, m Material, order int, general bool) *Room {
	t.Helper()
	cfg := testConfig()
	cfg.MaxOrder = order
	cfg.UseRayTracing = false
	r, err := NewShoeBox(dims, map[string]Material{"default": m}, cfg)
	require.NoError(t, err)
	if general {
		r, err = New(r.Walls(), cfg)
		require.NoError(t, err)
	}
	_, err = r.AddSource(Source{Position: V(1.1, 1.3, 1.7)})
	require.NoError(t, err)
	_, err = r.AddMicrophone(Microphone{Position: V(4.2, 2.9, 1.1)})
	require.NoError(t, err)
	require.NoError(t, r.ImageSourceModel())
	return r
}

func TestOrderZero(t *testing.T) {
	for _, general := range []bool{false, true} {
		r := ismRoom(t, V(6, 4, 3), NewMaterial(0.3, 0), 0, general)
		set := r.ImageSources(0)
		require.Len(t, set.Images, 1)
		assert.Equal(t, []float64{1}, set.Images[0].Attenuation)

		arrivals, err := r.Arrivals(0, 0)
		require.NoError(t, err)
		require.Len(t, arrivals, 1)
		d := V(4.2, 2.9, 1.1).Sub(V(1.1, 1.3, 1.7)).Length()
		assert.InDelta(t, d, arrivals[0].Distance, 1e-12)
		assert.InDelta(t, d/SPEED_OF_SOUND, arrivals[0].Time, 1e-12)
		assert.InDelta(t, 1/(4*math.Pi*d), arrivals[0].Amplitude(0), 1e-12)
	}
}

func arrivalEnergy(arrivals []Arrival) float64 {
	e := 0.0
	for _, a := range arrivals {
		for _, v := range a.Energy {
			e += v
		}
	}
	return e
}

func TestOrderIsMonotonic(t *testing.T) {
	for _, general := range []bool{false, true} {
		lastCount, lastEnergy := 0, 0.0
		for order := 0; order <= 4; order++ {
			r := ismRoom(t, V(6, 4, 3), NewMaterial(0.3, 0), order, general)
			arrivals, err := r.Arrivals(0, 0)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, len(arrivals), lastCount)
			assert.GreaterOrEqual(t, arrivalEnergy(arrivals), lastEnergy)
			assert.LessOrEqual(t, r.ImageSources(0).MaxOrder, order)
			lastCount, lastEnergy = len(arrivals), arrivalEnergy(arrivals)
		}
	}
}

func TestShoeBoxMatchesGeneralRoom(t *testing.T) {
	m := NewMaterial(0.25, 0)
	lattice := ismRoom(t, V(6, 4, 3), m, 2, false)
	general := ismRoom(t, V(6, 4, 3), m, 2, true)

	la, err := lattice.Arrivals(0, 0)
	require.NoError(t, err)
	ga, err := general.Arrivals(0, 0)
	require.NoError(t, err)
	// 1 direct, 6 first order and 18 second order images in a box
	require.Len(t, la, 25)
	require.Len(t, ga, 25)

	byDistance := func(a []Arrival) {
		sort.Slice(a, func(i, j int) bool { return a[i].Distance < a[j].Distance })
	}
	byDistance(la)
	byDistance(ga)
	for i := range la {
		assert.Equal(t, la[i].Order, ga[i].Order)
		assert.InDelta(t, la[i].Distance, ga[i].Distance, 1e-9)
		assert.InDelta(t, la[i].Energy[0], ga[i].Energy[0], 1e-12)
	}

	// second order images of the general room are mirrored from their parents
	set := general.ImageSources(0)
	for _, img := range set.Images {
		if img.Order == 2 {
			parent := set.Images[img.Parent]
			assert.Equal(t, 1, parent.Order)
			assert.InDelta(t, 0, general.walls[img.Wall].Reflect(parent.Position).Sub(img.Position).Length(), 1e-12)
		}
	}
}

func TestTriangulatedBoxMatchesShoeBox(t *testing.T) {
	m := NewMaterial(0.25, 0)
	cfg := testConfig()
	cfg.MaxOrder = 1
	cfg.UseRayTracing = false
	box, err := NewShoeBox(V(4, 4, 3), map[string]Material{"default": m}, cfg)
	require.NoError(t, err)
	mesh, err := FromTriangles(Triangles(box.Mesh()), 1, m, cfg)
	require.NoError(t, err)
	require.Len(t, mesh.Walls(), 12)

	// every reflection point falls on the diagonal shared by the two triangles of a face
	for _, r := range []*Room{box, mesh} {
		_, err = r.AddSource(Source{Position: V(2, 2, 1)})
		require.NoError(t, err)
		_, err = r.AddMicrophone(Microphone{Position: V(2, 2, 2)})
		require.NoError(t, err)
		require.NoError(t, r.ImageSourceModel())
	}

	ba, err := box.Arrivals(0, 0)
	require.NoError(t, err)
	ma, err := mesh.Arrivals(0, 0)
	require.NoError(t, err)
	require.Len(t, ba, 7)
	require.Len(t, ma, 7)

	byDistance := func(a []Arrival) {
		sort.Slice(a, func(i, j int) bool { return a[i].Distance < a[j].Distance })
	}
	byDistance(ba)
	byDistance(ma)
	for i := range ba {
		assert.Equal(t, ba[i].Order, ma[i].Order)
		assert.InDelta(t, ba[i].Distance, ma[i].Distance, 1e-9)
		assert.InDelta(t, ba[i].Energy[0], ma[i].Energy[0], 1e-12)
	}
}

func TestAnechoicRoom(t *testing.T) {
	for _, general := range []bool{false, true} {
		r := ismRoom(t, V(6, 4, 3), NewMaterial(1, 0), 3, general)
		assert.Len(t, r.ImageSources(0).Images, 1)
		arrivals, err := r.Arrivals(0, 0)
		require.NoError(t, err)
		assert.Len(t, arrivals, 1)
	}
}

func TestAutomaticOrder(t *testing.T) {
	cfg := testConfig()
	cfg.MaxOrder = -1
	cfg.UseRayTracing = false
	r, err := NewShoeBox(V(6, 4, 3), map[string]Material{"default": NewMaterial(0.5, 0)}, cfg)
	require.NoError(t, err)
	_, err = r.AddSource(Source{Position: V(1, 1, 1)})
	require.NoError(t, err)
	_, err = r.AddMicrophone(Microphone{Position: V(4, 3, 2)})
	require.NoError(t, err)
	require.NoError(t, r.ImageSourceModel())

	// 0.5^19 is the last power of 0.5 above -60 dB
	set := r.ImageSources(0)
	assert.Equal(t, 19, set.MaxOrder)
	assert.False(t, set.Truncated)
	for _, img := range set.Images {
		assert.GreaterOrEqual(t, img.Attenuation[0], 1e-6)
	}

	cfg.MaxAutoOrder = 5
	r, err = NewShoeBox(V(6, 4, 3), map[string]Material{"default": NewMaterial(0.5, 0)}, cfg)
	require.NoError(t, err)
	_, err = r.AddSource(Source{Position: V(1, 1, 1)})
	require.NoError(t, err)
	_, err = r.AddMicrophone(Microphone{Position: V(4, 3, 2)})
	require.NoError(t, err)
	require.NoError(t, r.ImageSourceModel())
	assert.Equal(t, 5, r.ImageSources(0).MaxOrder)
}

func TestImageSourceLimit(t *testing.T) {
	for _, general := range []bool{false, true} {
		cfg := testConfig()
		cfg.MaxImageSources = 10
		cfg.UseRayTracing = false
		r, err := NewShoeBox(V(6, 4, 3), map[string]Material{"default": NewMaterial(0.3, 0)}, cfg)
		require.NoError(t, err)
		if general {
			r, err = New(r.Walls(), cfg)
			require.NoError(t, err)
		}
		_, err = r.AddSource(Source{Position: V(1, 1, 1)})
		require.NoError(t, err)
		_, err = r.AddMicrophone(Microphone{Position: V(4, 3, 2)})
		require.NoError(t, err)

		err = r.ImageSourceModel()
		assert.ErrorIs(t, err, ErrResourceLimit)
		set := r.ImageSources(0)
		assert.True(t, set.Truncated)
		assert.Len(t, set.Images, 10)
		// the pair still gets the images that were generated
		arrivals, _ := r.Arrivals(0, 0)
		assert.NotEmpty(t, arrivals)
		require.NoError(t, r.RayTracing(context.Background()))
		assert.Equal(t, StateSimulated, r.State())
	}
}

func TestOcclusionInLShapedRoom(t *testing.T) {
	// L-shaped floor plan: the 4x4 square without its top-right 2x2 corner
	plan := []pt.Vector{V(0, 0, 0), V(4, 0, 0), V(4, 2, 0), V(2, 2, 0), V(2, 4, 0), V(0, 4, 0)}
	r := extrudedRoom(t, plan, 3, NewMaterial(0.2, 0))
	assert.InDelta(t, 12*3, r.Volume(), 1e-9)

	_, err := r.AddSource(Source{Position: V(3.5, 0.5, 1.5)})
	require.NoError(t, err)
	_, err = r.AddMicrophone(Microphone{Position: V(0.5, 3.8, 1.5)})
	require.NoError(t, err)
	_, err = r.AddMicrophone(Microphone{Position: V(1, 1, 1.5)})
	require.NoError(t, err)
	require.NoError(t, r.ImageSourceModel())

	hidden, err := r.Arrivals(0, 0)
	require.NoError(t, err)
	for _, a := range hidden {
		assert.NotZero(t, a.Order, "the direct path runs through the corner")
	}
	visible, err := r.Arrivals(1, 0)
	require.NoError(t, err)
	require.NotEmpty(t, visible)
	assert.Equal(t, 0, visible[0].Order)
}

// extrudedRoom builds a prism from a counter-clockwise floor polygon
func extrudedRoom(t *testing.T, plan []pt.Vector, height float64, m Material) *Room {
	t.Helper()
	n := len(plan)
	var walls []*Wall
	floor := make([]pt.Vector, n)
	ceiling := make([]pt.Vector, n)
	for i, p := range plan {
		floor[n-1-i] = p
		ceiling[i] = p.Add(V(0, 0, height))
	}
	for _, c := range [][]pt.Vector{floor, ceiling} {
		w, err := NewWall("", c, m)
		require.NoError(t, err)
		walls = append(walls, w)
	}
	for i := range plan {
		a, b := plan[i], plan[(i+1)%n]
		w, err := NewWall("", []pt.Vector{a, b, b.Add(V(0, 0, height)), a.Add(V(0, 0, height))}, m)
		require.NoError(t, err)
		walls = append(walls, w)
	}
	cfg := testConfig()
	cfg.MaxOrder = 2
	cfg.UseRayTracing = false
	r, err := New(walls, cfg)
	require.NoError(t, err)
	return r
}

func TestLatticeHelpers(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(1.0, latticeCoord(0, 5, 1))
	assert.Equal(9.0, latticeCoord(1, 5, 1))
	assert.Equal(-1.0, latticeCoord(-1, 5, 1))
	assert.Equal(11.0, latticeCoord(2, 5, 1))

	for _, m := range []int{-3, -2, -1, 0, 1, 2, 3} {
		low, high := latticeReflections(m)
		assert.Equal(abs(m), low+high)
	}

	assert.InDelta(1.0, fold(9, 5), 1e-12)
	assert.InDelta(1.0, fold(-1, 5), 1e-12)
	assert.InDelta(1.0, fold(11, 5), 1e-12)
}

func TestRaysAndImagesCooperate(t *testing.T) {
	// In hybrid mode the rays skip the specular paths the image sources cover
	cfg := testConfig()
	cfg.MaxOrder = 2
	r, err := NewShoeBox(V(6, 4, 3), map[string]Material{"default": NewMaterial(0.3, 0)}, cfg)
	require.NoError(t, err)
	_, err = r.AddSource(Source{Position: V(1, 1, 1)})
	require.NoError(t, err)
	_, err = r.AddMicrophone(Microphone{Position: V(4, 3, 2)})
	require.NoError(t, err)
	require.NoError(t, r.Simulate(context.Background()))
	hybrid := r.Histogram(0, 0)

	cfg.UseISM = false
	r, err = NewShoeBox(V(6, 4, 3), map[string]Material{"default": NewMaterial(0.3, 0)}, cfg)
	require.NoError(t, err)
	_, err = r.AddSource(Source{Position: V(1, 1, 1)})
	require.NoError(t, err)
	_, err = r.AddMicrophone(Microphone{Position: V(4, 3, 2)})
	require.NoError(t, err)
	require.NoError(t, r.Simulate(context.Background()))
	rays := r.Histogram(0, 0)

	assert.Less(t, hybrid.Total(), rays.Total())
}
