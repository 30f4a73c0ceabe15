package room

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/fogleman/pt/pt"
	"golang.org/x/sync/errgroup"
)

// Rays traced by one task. Fixed so that results do not depend on the worker count.
const rayChunkSize = 256

// Histogram holds the ray energy captured by one microphone from one source.
type Histogram struct {
	// Bin width in seconds
	BinSize float64
	// Energy per band and bin
	Energy [][]float64
}

func newHistogram(bands, bins int, binSize float64) *Histogram {
	h := &Histogram{BinSize: binSize, Energy: make([][]float64, bands)}
	for b := range h.Energy {
		h.Energy[b] = make([]float64, bins)
	}
	return h
}

// Total returns the energy summed over all bands and bins
func (h *Histogram) Total() float64 {
	total := 0.0
	for _, band := range h.Energy {
		for _, e := range band {
			total += e
		}
	}
	return total
}

// lastBin returns the index of the last non-empty bin, or -1
func (h *Histogram) lastBin() int {
	last := -1
	for _, band := range h.Energy {
		for i := len(band) - 1; i > last; i-- {
			if band[i] != 0 {
				last = i
				break
			}
		}
	}
	return last
}

func (h *Histogram) add(o *Histogram) {
	for b := range h.Energy {
		for i, e := range o.Energy[b] {
			h.Energy[b][i] += e
		}
	}
}

// Ledger accounts for the energy of every ray of one source, per band.
//
// Emitted = Absorbed + Residual + Escaped holds up to rounding. Captured is
// what microphones detected and is not removed from the rays.
type Ledger struct {
	Emitted  []float64
	Absorbed []float64
	Residual []float64
	Escaped  []float64
	Captured []float64

	Rays             int
	StoppedByEnergy  int
	StoppedByTime    int
	StoppedByBounces int
	EscapedRays      int
}

func newLedger(bands int) *Ledger {
	return &Ledger{
		Emitted:  make([]float64, bands),
		Absorbed: make([]float64, bands),
		Residual: make([]float64, bands),
		Escaped:  make([]float64, bands),
		Captured: make([]float64, bands),
	}
}

func (l *Ledger) add(o *Ledger) {
	for b := range l.Emitted {
		l.Emitted[b] += o.Emitted[b]
		l.Absorbed[b] += o.Absorbed[b]
		l.Residual[b] += o.Residual[b]
		l.Escaped[b] += o.Escaped[b]
		l.Captured[b] += o.Captured[b]
	}
	l.Rays += o.Rays
	l.StoppedByEnergy += o.StoppedByEnergy
	l.StoppedByTime += o.StoppedByTime
	l.StoppedByBounces += o.StoppedByBounces
	l.EscapedRays += o.EscapedRays
}

// Imbalance returns the largest relative difference between emitted and accounted energy over all bands
func (l *Ledger) Imbalance() float64 {
	worst := 0.0
	for b, e := range l.Emitted {
		if e == 0 {
			continue
		}
		accounted := l.Absorbed[b] + l.Residual[b] + l.Escaped[b]
		worst = math.Max(worst, math.Abs(e-accounted)/e)
	}
	return worst
}

// chunkResult is what one chunk of rays produced
type chunkResult struct {
	hists  []*Histogram
	ledger *Ledger
}

// tracer holds what every chunk of one source needs
type tracer struct {
	room     *Room
	source   *Source
	mics     []pt.Vector
	ismOrder int // specular paths up to this order are skipped, -1 to keep all
	bins     int
	norm     float64
}

func (r *Room) newTracer(src int, mics []int) (*tracer, error) {
	t := &tracer{
		room:     r,
		source:   r.sources[src],
		ismOrder: -1,
		bins:     int(math.Ceil(math.Min(r.cfg.TimeThreshold, r.cfg.MaxRIRLength)/r.cfg.HistBinSize)) + 1,
		norm:     1 / (4 * math.Pi * math.Pi * r.cfg.ReceiverRadius * r.cfg.ReceiverRadius),
	}
	for _, m := range mics {
		t.mics = append(t.mics, r.mics[m].Position)
	}
	if r.cfg.UseISM {
		order, auto := r.orderBounds()
		if auto {
			set, err := r.imageSet(src)
			if set == nil {
				return nil, err
			}
			order = set.MaxOrder
		}
		t.ismOrder = order
	}
	return t, nil
}

// randomDirection is uniform on the unit sphere
func randomDirection(rng *rand.Rand) pt.Vector {
	z := 2*rng.Float64() - 1
	phi := 2 * math.Pi * rng.Float64()
	s := math.Sqrt(1 - z*z)
	return V(s*math.Cos(phi), s*math.Sin(phi), z)
}

// randomCosineDirection is Lambert distributed around normal
func randomCosineDirection(rng *rand.Rand, normal pt.Vector) pt.Vector {
	r1 := rng.Float64()
	r2 := rng.Float64()
	phi := 2 * math.Pi * r1
	cosTheta := math.Sqrt(r2)
	sinTheta := math.Sqrt(1 - r2)

	var a pt.Vector
	if math.Abs(normal.X) > 0.9 {
		a = V(0, 1, 0)
	} else {
		a = V(1, 0, 0)
	}
	v := normal.Cross(a).Normalize()
	u := v.Cross(normal)
	return u.MulScalar(sinTheta * math.Cos(phi)).
		Add(v.MulScalar(sinTheta * math.Sin(phi))).
		Add(normal.MulScalar(cosTheta)).
		Normalize()
}

// traceChunk traces n rays of the source with the chunk's own generator
func (t *tracer) traceChunk(rng *rand.Rand, n int) chunkResult {
	r := t.room
	nb := r.bands.Len()
	res := chunkResult{ledger: newLedger(nb)}
	for range t.mics {
		res.hists = append(res.hists, newHistogram(nb, t.bins, r.cfg.HistBinSize))
	}
	energy := make([]float64, nb)
	c := r.cfg.SpeedOfSound
	maxDist := r.cfg.TimeThreshold * c
	perRay := 1 / float64(r.cfg.NumRays)
	led := res.ledger

	for range n {
		dir := randomDirection(rng)
		e0 := t.source.gain(dir) * perRay
		for b := range energy {
			energy[b] = e0
			led.Emitted[b] += e0
		}
		led.Rays++
		if e0 <= 0 {
			led.StoppedByEnergy++
			continue
		}
		threshold := e0 * fromDB(r.cfg.EnergyThresholdDB)

		origin := t.source.Position
		dist := 0.0
		order := 0
		specular := true
		for {
			hit := r.mesh.Intersect(pt.Ray{Origin: origin, Direction: dir})
			seg := maxDist - dist
			if hit.Ok() {
				seg = math.Min(seg, hit.T)
			}
			end := origin.Add(dir.MulScalar(seg))

			if !(specular && order <= t.ismOrder) {
				t.capture(res.hists, led, energy, origin, end, dist)
			}

			if !hit.Ok() {
				for b, e := range energy {
					led.Escaped[b] += e
				}
				led.EscapedRays++
				break
			}
			for b := range energy {
				lost := energy[b] * (1 - math.Exp(-r.air[b]*seg))
				led.Absorbed[b] += lost
				energy[b] -= lost
			}
			dist += seg
			if seg < hit.T {
				for b, e := range energy {
					led.Residual[b] += e
				}
				led.StoppedByTime++
				break
			}

			wall := r.walls[r.wallOf(hit)]
			for b := range energy {
				lost := energy[b] * wall.absorption[b]
				led.Absorbed[b] += lost
				energy[b] -= lost
			}
			order++

			normal := wall.Normal()
			if dir.Dot(normal) > 0 {
				normal = normal.Negate()
			}
			incident := pt.Ray{Origin: origin, Direction: dir}
			if rng.Float64() < wall.meanScattering() {
				dir = randomCosineDirection(rng, normal)
				specular = false
			} else {
				dir = dir.Sub(normal.MulScalar(2 * dir.Dot(normal))).Normalize()
				verifyReflectionLaw(incident, normal, pt.Ray{Origin: end, Direction: dir})
			}
			// pt ignores hits closer than pt.EPS, so the next ray may start on the wall
			origin = end

			if maxOf(energy) < threshold {
				for b, e := range energy {
					led.Residual[b] += e
				}
				led.StoppedByEnergy++
				break
			}
			if order >= r.cfg.MaxBounces {
				for b, e := range energy {
					led.Residual[b] += e
				}
				led.StoppedByBounces++
				break
			}
		}
	}
	return res
}

// capture deposits the energy of the segment a-b into every microphone it passes within the receiver radius
func (t *tracer) capture(hists []*Histogram, led *Ledger, energy []float64, a, b pt.Vector, dist float64) {
	r := t.room
	for m, mic := range t.mics {
		d, along := distanceToSegment(mic, a, b)
		if d >= r.cfg.ReceiverRadius {
			continue
		}
		bin := int((dist + along) / r.cfg.SpeedOfSound / r.cfg.HistBinSize)
		if bin >= t.bins {
			continue
		}
		for band, e := range energy {
			deposit := e * math.Exp(-r.air[band]*along) * t.norm
			hists[m].Energy[band][bin] += deposit
			led.Captured[band] += deposit
		}
	}
}

// traceSource traces every ray of src and returns one histogram per entry of mics.
// Chunks run concurrently and are reduced in chunk order.
func (r *Room) traceSource(ctx context.Context, src int, mics []int) ([]*Histogram, *Ledger, error) {
	t, err := r.newTracer(src, mics)
	if err != nil {
		return nil, nil, err
	}
	numChunks := (r.cfg.NumRays + rayChunkSize - 1) / rayChunkSize
	results := make([]chunkResult, numChunks)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.workers())
	for chunk := range numChunks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n := min(rayChunkSize, r.cfg.NumRays-chunk*rayChunkSize)
			rng := rand.New(rand.NewPCG(r.cfg.Seed, uint64(src)<<32|uint64(chunk)))
			results[chunk] = t.traceChunk(rng, n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("tracing source %d: %w", src, err)
	}

	nb := r.bands.Len()
	hists := make([]*Histogram, len(mics))
	for m := range hists {
		hists[m] = newHistogram(nb, t.bins, r.cfg.HistBinSize)
	}
	ledger := newLedger(nb)
	for _, res := range results {
		for m, h := range res.hists {
			hists[m].add(h)
		}
		ledger.add(res.ledger)
	}
	return hists, ledger, nil
}
