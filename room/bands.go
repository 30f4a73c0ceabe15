package room

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// Width of the raised-cosine crossover between neighbouring bands, in octaves.
// Must stay below one octave so that only two bands overlap at any frequency.
const crossoverOctaves = 0.5

// Bands is the octave band layout used for absorption, scattering and air absorption.
type Bands struct {
	Centers []float64
	Fs      float64
}

// NewOctaveBands returns up to n octave bands starting at base Hz, keeping only
// the bands whose centre lies below the Nyquist frequency.
func NewOctaveBands(base, fs float64, n int) (Bands, error) {
	if base <= 0 {
		return Bands{}, configErrorf("band base frequency must be positive, got %v", base)
	}
	if fs <= 0 {
		return Bands{}, configErrorf("sample rate must be positive, got %v", fs)
	}
	if n <= 0 {
		return Bands{}, configErrorf("band count must be positive, got %d", n)
	}
	b := Bands{Fs: fs}
	for i := 0; i < n; i++ {
		fc := base * math.Pow(2, float64(i))
		if fc >= fs/2 {
			break
		}
		b.Centers = append(b.Centers, fc)
	}
	if len(b.Centers) == 0 {
		return Bands{}, configErrorf("no octave band fits below %v Hz", fs/2)
	}
	return b, nil
}

func (b Bands) Len() int {
	return len(b.Centers)
}

// edge is the crossover frequency between band k-1 and band k
func (b Bands) edge(k int) float64 {
	return math.Sqrt(b.Centers[k-1] * b.Centers[k])
}

// rise goes from 0 below the crossover at e to 1 above it, with cos²/sin²
// shape so that the two overlapping bands always sum to one.
func rise(f, e float64) float64 {
	if f <= 0 {
		return 0
	}
	x := math.Log2(f/e) / (crossoverOctaves / 2)
	switch {
	case x <= -1:
		return 0
	case x >= 1:
		return 1
	}
	s := math.Sin(math.Pi / 4 * (x + 1))
	return s * s
}

// Weight is the magnitude response of band at frequency f.
// The weights of all bands sum to one at every frequency.
func (b Bands) Weight(band int, f float64) float64 {
	w := 1.0
	if band > 0 {
		w *= rise(f, b.edge(band))
	}
	if band < b.Len()-1 {
		w *= 1 - rise(f, b.edge(band+1))
	}
	return w
}

// filterBank applies zero-phase octave band filters in the frequency domain.
type filterBank struct {
	bands Bands
	size  int
	plan  *algofft.Plan[complex128]
	masks [][]float64
}

func newFilterBank(bands Bands, signalLen int) (*filterBank, error) {
	size := nextPowerOf2(2 * signalLen)
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("creating FFT plan: %w", err)
	}
	fb := &filterBank{
		bands: bands,
		size:  size,
		plan:  plan,
		masks: make([][]float64, bands.Len()),
	}
	for band := range fb.masks {
		mask := make([]float64, size)
		for k := 0; k <= size/2; k++ {
			w := bands.Weight(band, float64(k)*bands.Fs/float64(size))
			mask[k] = w
			if k > 0 && k < size/2 {
				mask[size-k] = w
			}
		}
		fb.masks[band] = mask
	}
	return fb, nil
}

// Filter returns x filtered by the given band, with the same length as x.
func (fb *filterBank) Filter(band int, x []float64) ([]float64, error) {
	if len(x) > fb.size {
		return nil, fmt.Errorf("signal of %d samples exceeds filter bank size %d", len(x), fb.size)
	}
	buf := make([]complex128, fb.size)
	for i, v := range x {
		buf[i] = complex(v, 0)
	}
	if err := fb.plan.Forward(buf, buf); err != nil {
		return nil, fmt.Errorf("forward FFT: %w", err)
	}

	re := make([]float64, fb.size)
	im := make([]float64, fb.size)
	for i, c := range buf {
		re[i] = real(c)
		im[i] = imag(c)
	}
	vecmath.MulBlockInPlace(re, fb.masks[band])
	vecmath.MulBlockInPlace(im, fb.masks[band])
	for i := range buf {
		buf[i] = complex(re[i], im[i])
	}

	if err := fb.plan.Inverse(buf, buf); err != nil {
		return nil, fmt.Errorf("inverse FFT: %w", err)
	}
	out := make([]float64, len(x))
	for i := range out {
		out[i] = real(buf[i])
	}
	return out, nil
}

// Air absorption energy coefficients in 1/m at 20°C and 50% relative humidity,
// from the ISO 9613-1 attenuation in dB/km divided by 10·log10(e)·1000.
var airAbsorption = []struct {
	Freq  float64
	Coeff float64
}{
	{125, 0.09e-3},
	{250, 0.25e-3},
	{500, 0.44e-3},
	{1000, 0.85e-3},
	{2000, 2.2e-3},
	{4000, 7.6e-3},
	{8000, 27.0e-3},
}

// AirAbsorption returns the air absorption energy coefficient (1/m) for each band
func (b Bands) AirAbsorption() []float64 {
	x := make([]float64, len(airAbsorption))
	y := make([]float64, len(airAbsorption))
	for i, a := range airAbsorption {
		x[i] = a.Freq
		y[i] = a.Coeff
	}
	return resample(x, y, b.Centers)
}
