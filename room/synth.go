package room

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Window used to measure the energy envelope at the end of a truncated RIR
const decayWindow = 10 * MS

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// addFractionalDelay adds an impulse of amplitude amp at fractional sample pos,
// interpolated with a Hann windowed sinc of length taps.
func addFractionalDelay(out []float64, pos, amp float64, taps int) {
	half := taps / 2
	n0 := int(math.Floor(pos))
	for n := n0 - half; n <= n0+half+1; n++ {
		if n < 0 || n >= len(out) {
			continue
		}
		x := float64(n) - pos
		if math.Abs(x) > float64(taps)/2 {
			continue
		}
		w := 0.5 + 0.5*math.Cos(2*math.Pi*x/float64(taps))
		out[n] += amp * w * sinc(x)
	}
}

// rirLength returns the sample count needed to hold every arrival and histogram bin
func (r *Room) rirLength(arrivals []Arrival, hist *Histogram) int {
	fs := r.cfg.Fs
	taps := r.cfg.FractionalDelayLength
	n := taps
	for _, a := range arrivals {
		n = max(n, int(math.Ceil(a.Time*fs))+taps+1)
	}
	if hist != nil {
		if last := hist.lastBin(); last >= 0 {
			n = max(n, int(math.Round(float64(last+1)*hist.BinSize*fs))+taps/2)
		}
	}
	return n
}

// synthesize builds the RIR of one pair from its image source arrivals and ray histogram.
//
// It reads nothing but its arguments and the configuration, and seeds the tail
// noise from the pair, so the same input always gives the same RIR. All content is
// delayed by half the fractional delay kernel.
func (r *Room) synthesize(mic, src int, arrivals []Arrival, hist *Histogram) ([]float64, error) {
	fs := r.cfg.Fs
	taps := r.cfg.FractionalDelayLength
	delay := taps / 2

	n := r.rirLength(arrivals, hist)
	limit := int(r.cfg.MaxRIRLength * fs)
	truncated := n > limit
	n = min(n, limit)

	var fb *filterBank
	if r.bands.Len() > 1 {
		var err error
		if fb, err = newFilterBank(r.bands, n); err != nil {
			return nil, err
		}
	}

	rir := make([]float64, n)
	band := make([]float64, n)
	for b := 0; b < r.bands.Len(); b++ {
		clear(band)
		for _, a := range arrivals {
			addFractionalDelay(band, a.Time*fs+float64(delay), a.Amplitude(b), taps)
		}
		if hist != nil {
			rng := rand.New(rand.NewPCG(r.cfg.Seed, uint64(src)<<40|uint64(mic)<<8|uint64(b)))
			addNoiseTail(band, hist.Energy[b], hist.BinSize*fs, delay, rng)
		}
		out := band
		if fb != nil {
			filtered, err := fb.Filter(b, band)
			if err != nil {
				return nil, err
			}
			out = filtered
		}
		for i, v := range out {
			rir[i] += v
		}
	}

	for i, v := range rir {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: sample %d of the RIR is %v", ErrNumerical, i, v)
		}
	}
	if truncated && decayIncomplete(rir, fs, r.cfg.DecayThresholdDB) {
		return rir, fmt.Errorf("%w: RIR cut at %.2f s", ErrIncompleteDecay, r.cfg.MaxRIRLength)
	}
	return rir, nil
}

// addNoiseTail turns every histogram bin into Rademacher noise whose energy equals the bin's
func addNoiseTail(out, energy []float64, binSamples float64, delay int, rng *rand.Rand) {
	for k, e := range energy {
		start := delay + int(math.Round(float64(k)*binSamples))
		end := min(delay+int(math.Round(float64(k+1)*binSamples)), len(out))
		if start >= len(out) {
			return
		}
		count := end - start
		if e <= 0 || count <= 0 {
			continue
		}
		amp := math.Sqrt(e / float64(count))
		for i := start; i < end; i++ {
			if rng.IntN(2) == 0 {
				out[i] -= amp
			} else {
				out[i] += amp
			}
		}
	}
}

// decayIncomplete reports whether the energy of the last window of rir is
// above thresholdDB relative to its loudest window.
func decayIncomplete(rir []float64, fs, thresholdDB float64) bool {
	w := max(1, int(decayWindow*fs))
	if len(rir) < 2*w {
		return false
	}
	peak := 0.0
	for start := 0; start+w <= len(rir); start += w {
		peak = math.Max(peak, windowEnergy(rir[start:start+w]))
	}
	if peak == 0 {
		return false
	}
	return toDB(windowEnergy(rir[len(rir)-w:])/peak) > thresholdDB
}

func windowEnergy(x []float64) float64 {
	e := 0.0
	for _, v := range x {
		e += v * v
	}
	return e
}
