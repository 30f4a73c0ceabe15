package room

import (
	"fmt"
	"math"
	"sort"

	lin "github.com/sgreben/piecewiselinear"
)

// Material holds energy absorption and scattering coefficients of a surface.
//
// Coefficients are given per octave band at CenterFreqs. A single coefficient is
// broadband. When CenterFreqs is empty the coefficients are taken to be at the
// octave bands 125 Hz, 250 Hz, ...
type Material struct {
	Name        string
	Absorption  []float64
	Scattering  []float64
	CenterFreqs []float64
}

// NewMaterial returns a broadband material
func NewMaterial(absorption, scattering float64) Material {
	return Material{
		Absorption: []float64{absorption},
		Scattering: []float64{scattering},
	}
}

func (m Material) Validate() error {
	if len(m.Absorption) == 0 {
		return configErrorf("material %q has no absorption coefficients", m.Name)
	}
	check := func(kind string, coeffs []float64) error {
		for i, c := range coeffs {
			if math.IsNaN(c) || c < 0 || c > 1 {
				return configErrorf("material %q: %s coefficient %d must be between 0.0 and 1.0, got %v", m.Name, kind, i, c)
			}
		}
		return nil
	}
	if err := check("absorption", m.Absorption); err != nil {
		return err
	}
	if err := check("scattering", m.Scattering); err != nil {
		return err
	}
	if len(m.CenterFreqs) > 0 {
		if len(m.CenterFreqs) != len(m.Absorption) {
			return configErrorf("material %q: %d centre frequencies for %d absorption coefficients", m.Name, len(m.CenterFreqs), len(m.Absorption))
		}
		if len(m.Scattering) > 1 && len(m.Scattering) != len(m.CenterFreqs) {
			return configErrorf("material %q: %d centre frequencies for %d scattering coefficients", m.Name, len(m.CenterFreqs), len(m.Scattering))
		}
	}
	return nil
}

// IsBroadband reports whether the material has the same coefficients in every band
func (m Material) IsBroadband() bool {
	return len(m.Absorption) <= 1 && len(m.Scattering) <= 1
}

func (m Material) freqs(n int) []float64 {
	if len(m.CenterFreqs) == n {
		return m.CenterFreqs
	}
	f := make([]float64, n)
	for i := range f {
		f[i] = 125 * math.Pow(2, float64(i))
	}
	return f
}

// resampleCoeffs interpolates coefficients specified at their own frequencies onto the bands
func (m Material) resampleCoeffs(coeffs []float64, bands Bands) []float64 {
	out := make([]float64, bands.Len())
	switch len(coeffs) {
	case 0:
		return out
	case 1:
		for i := range out {
			out[i] = coeffs[0]
		}
		return out
	}
	return resample(m.freqs(len(coeffs)), coeffs, bands.Centers)
}

// Resample returns the absorption and scattering coefficients on the given bands
func (m Material) Resample(bands Bands) (absorption, scattering []float64) {
	return m.resampleCoeffs(m.Absorption, bands), m.resampleCoeffs(m.Scattering, bands)
}

// resample evaluates the piecewise-linear function through (x, y) at each of at.
// Values outside the range of x are clamped to the nearest end point.
func resample(x, y, at []float64) []float64 {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })
	f := lin.Function{
		X: make([]float64, len(x)),
		Y: make([]float64, len(y)),
	}
	for i, j := range idx {
		f.X[i] = x[j]
		f.Y[i] = y[j]
	}
	out := make([]float64, len(at))
	for i, a := range at {
		switch {
		case a <= f.X[0]:
			out[i] = f.Y[0]
		case a >= f.X[len(f.X)-1]:
			out[i] = f.Y[len(f.Y)-1]
		default:
			out[i] = f.At(a)
		}
	}
	return out
}

// Typical absorption coefficients for the octave bands 125 Hz to 8 kHz.
var absorptionDB = map[string][]float64{
	"anechoic":              {1, 1, 1, 1, 1, 1, 1},
	"hard_surface":          {0.02, 0.02, 0.03, 0.03, 0.04, 0.05, 0.05},
	"brickwork":             {0.02, 0.02, 0.03, 0.04, 0.05, 0.07, 0.07},
	"rough_concrete":        {0.02, 0.03, 0.03, 0.03, 0.04, 0.07, 0.07},
	"smooth_concrete":       {0.01, 0.01, 0.02, 0.02, 0.02, 0.05, 0.05},
	"plasterboard":          {0.15, 0.10, 0.06, 0.04, 0.04, 0.05, 0.05},
	"wooden_lining":         {0.27, 0.23, 0.22, 0.15, 0.10, 0.07, 0.06},
	"wood_floor":            {0.15, 0.11, 0.10, 0.07, 0.06, 0.07, 0.07},
	"glass_3mm":             {0.08, 0.04, 0.03, 0.03, 0.02, 0.02, 0.02},
	"carpet_cotton":         {0.07, 0.31, 0.49, 0.81, 0.66, 0.54, 0.48},
	"curtains_velvet":       {0.05, 0.12, 0.35, 0.45, 0.38, 0.36, 0.36},
	"rockwool_50mm":         {0.22, 0.60, 0.92, 0.90, 0.88, 0.88, 0.88},
	"rockwool_100mm":        {0.50, 0.95, 1.00, 1.00, 1.00, 1.00, 1.00},
	"audience_upholstered":  {0.60, 0.74, 0.88, 0.96, 0.93, 0.85, 0.85},
	"mat_CR2_concrete":      {0.02, 0.03, 0.03, 0.03, 0.04, 0.07, 0.07},
	"perforated_panel_40mm": {0.40, 0.90, 0.80, 0.50, 0.40, 0.30, 0.30},
}

// Typical scattering coefficients for the octave bands 125 Hz to 8 kHz.
var scatteringDB = map[string][]float64{
	"no_scattering":    {0, 0, 0, 0, 0, 0, 0},
	"rough_surface":    {0.10, 0.15, 0.20, 0.30, 0.40, 0.50, 0.50},
	"rpg_skyline":      {0.01, 0.08, 0.45, 0.82, 1.00, 1.00, 1.00},
	"classroom_tables": {0.20, 0.30, 0.40, 0.50, 0.50, 0.60, 0.60},
	"audience":         {0.30, 0.40, 0.50, 0.60, 0.60, 0.70, 0.70},
	"mat_CR2_concrete": {0.10, 0.10, 0.10, 0.10, 0.10, 0.10, 0.10},
}

// LookupMaterial builds a Material from named absorption and scattering sets.
// An empty scattering name means no scattering.
func LookupMaterial(absorption, scattering string) (Material, error) {
	a, ok := absorptionDB[absorption]
	if !ok {
		return Material{}, configErrorf("unknown absorption set %q", absorption)
	}
	m := Material{
		Name:       absorption,
		Absorption: append([]float64(nil), a...),
		Scattering: []float64{0},
	}
	if scattering != "" {
		s, ok := scatteringDB[scattering]
		if !ok {
			return Material{}, configErrorf("unknown scattering set %q", scattering)
		}
		m.Scattering = append([]float64(nil), s...)
	}
	return m, nil
}

// MaterialNames returns the names of the built-in absorption and scattering sets
func MaterialNames() (absorption, scattering []string) {
	for name := range absorptionDB {
		absorption = append(absorption, name)
	}
	for name := range scatteringDB {
		scattering = append(scattering, name)
	}
	sort.Strings(absorption)
	sort.Strings(scattering)
	return
}

func (m Material) String() string {
	return fmt.Sprintf("%s(α=%v, s=%v)", m.Name, m.Absorption, m.Scattering)
}
