package room

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rayRoom(t *testing.T, m Material, cfg Config) *Room {
	t.Helper()
	cfg.UseISM = false
	r, err := NewShoeBox(V(6, 4, 3), map[string]Material{"default": m}, cfg)
	require.NoError(t, err)
	_, err = r.AddSource(Source{Position: V(1, 1, 1)})
	require.NoError(t, err)
	_, err = r.AddMicrophone(Microphone{Position: V(4, 3, 2)})
	require.NoError(t, err)
	_, err = r.AddMicrophone(Microphone{Position: V(2, 3, 1)})
	require.NoError(t, err)
	return r
}

func TestEnergyLedgerBalances(t *testing.T) {
	cfg := testConfig()
	cfg.AirAbsorption = true
	carpet, err := LookupMaterial("carpet_cotton", "rough_surface")
	require.NoError(t, err)
	r := rayRoom(t, carpet, cfg)
	require.NoError(t, r.RayTracing(context.Background()))

	led := r.Ledger(0)
	require.NotNil(t, led)
	assert.Equal(t, cfg.NumRays, led.Rays)
	assert.Less(t, led.Imbalance(), 1e-9)
	assert.Equal(t, led.Rays, led.StoppedByEnergy+led.StoppedByTime+led.StoppedByBounces+led.EscapedRays)
	for b := range led.Emitted {
		assert.InDelta(t, 1, led.Emitted[b], 1e-9)
		assert.Positive(t, led.Absorbed[b])
		assert.Positive(t, led.Captured[b])
	}
}

func TestFullyReflectiveRoomEndsByCaps(t *testing.T) {
	cfg := testConfig()
	r := rayRoom(t, NewMaterial(0, 0.5), cfg)
	require.NoError(t, r.RayTracing(context.Background()))

	led := r.Ledger(0)
	assert.Zero(t, led.StoppedByEnergy)
	assert.Zero(t, led.StoppedByBounces)
	assert.Equal(t, led.Rays, led.StoppedByTime+led.EscapedRays)
	for b := range led.Emitted {
		assert.Zero(t, led.Absorbed[b])
		assert.InDelta(t, led.Emitted[b], led.Residual[b]+led.Escaped[b], 1e-9)
	}
}

func TestRayTracingIsDeterministic(t *testing.T) {
	trace := func(workers int) *Room {
		cfg := testConfig()
		cfg.Workers = workers
		r := rayRoom(t, NewMaterial(0.2, 0.3), cfg)
		require.NoError(t, r.RayTracing(context.Background()))
		return r
	}
	one := trace(1)
	four := trace(4)
	for m := 0; m < 2; m++ {
		assert.Equal(t, one.Histogram(m, 0).Energy, four.Histogram(m, 0).Energy)
	}
	assert.Equal(t, one.Ledger(0), four.Ledger(0))

	cfg := testConfig()
	cfg.Seed = 2
	other := rayRoom(t, NewMaterial(0.2, 0.3), cfg)
	require.NoError(t, other.RayTracing(context.Background()))
	assert.NotEqual(t, one.Histogram(0, 0).Energy, other.Histogram(0, 0).Energy)
}

func TestHistogramDecays(t *testing.T) {
	cfg := testConfig()
	cfg.NumRays = 5000
	r := rayRoom(t, NewMaterial(0.3, 0.2), cfg)
	require.NoError(t, r.RayTracing(context.Background()))

	h := r.Histogram(0, 0)
	require.NotNil(t, h)
	assert.Equal(t, cfg.HistBinSize, h.BinSize)
	// compare the energy of the first and the last 100 ms
	bins := int(0.1 / h.BinSize)
	early, late := 0.0, 0.0
	for i := 0; i < bins; i++ {
		early += h.Energy[0][i]
		late += h.Energy[0][len(h.Energy[0])-1-i]
	}
	assert.Greater(t, early, 100*late)
	assert.GreaterOrEqual(t, h.lastBin(), 0)
}

func TestRandomDirections(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	var sum = V(0, 0, 0)
	normal := V(0, 0, 1)
	cosSum := 0.0
	const n = 20000
	for i := 0; i < n; i++ {
		d := randomDirection(rng)
		assert.InDelta(t, 1, d.Length(), 1e-12)
		sum = sum.Add(d)

		c := randomCosineDirection(rng, normal)
		assert.InDelta(t, 1, c.Length(), 1e-12)
		assert.GreaterOrEqual(t, c.Dot(normal), 0.0)
		cosSum += c.Dot(normal)
	}
	// uniform directions average to zero, Lambert directions have a mean cosine of 2/3
	assert.Less(t, sum.Length()/n, 0.02)
	assert.InDelta(t, 2.0/3, cosSum/n, 0.01)
}

func TestCapture(t *testing.T) {
	cfg := testConfig()
	r := rayRoom(t, NewMaterial(0.2, 0), cfg)
	tr, err := r.newTracer(0, []int{0})
	require.NoError(t, err)
	hists := []*Histogram{newHistogram(1, tr.bins, cfg.HistBinSize)}
	led := newLedger(1)

	// a segment through the microphone at 4 m from the source
	mic := V(4, 3, 2)
	a := mic.Sub(V(1, 0, 0))
	b := mic.Add(V(1, 0, 0))
	tr.capture(hists, led, []float64{0.5}, a, b, 3)

	bin := int(4 / cfg.SpeedOfSound / cfg.HistBinSize)
	assert.InDelta(t, 0.5*tr.norm, hists[0].Energy[0][bin], 1e-12)
	assert.InDelta(t, 0.5*tr.norm, led.Captured[0], 1e-12)
	assert.InDelta(t, 1/(4*math.Pi*math.Pi*0.25), tr.norm, 1e-12)

	// a segment passing 0.6 m from the microphone misses it
	tr.capture(hists, led, []float64{0.5}, a.Add(V(0, 0.6, 0)), b.Add(V(0, 0.6, 0)), 3)
	assert.InDelta(t, 0.5*tr.norm, led.Captured[0], 1e-12)
}
