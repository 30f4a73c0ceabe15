package room

import (
	"math"

	"github.com/fogleman/pt/pt"
)

// InverseSabine returns the uniform energy absorption and the image source
// order that give a shoebox of the given dimensions a reverberation time of
// rt60 seconds according to Sabine's formula.
func InverseSabine(rt60 float64, dims pt.Vector, c float64) (absorption float64, order int, err error) {
	if rt60 <= 0 || c <= 0 {
		return 0, 0, configErrorf("rt60 %g and speed of sound %g must be positive", rt60, c)
	}
	if dims.X <= 0 || dims.Y <= 0 || dims.Z <= 0 || !isFinite(dims) {
		return 0, 0, geometryErrorf("invalid shoebox dimensions %v", dims)
	}
	volume := dims.X * dims.Y * dims.Z
	surface := 2 * (dims.X*dims.Y + dims.X*dims.Z + dims.Y*dims.Z)
	absorption = 24 * math.Ln10 * volume / (c * surface * rt60)
	if absorption > 1 {
		return 0, 0, configErrorf("rt60 %g s is too short for a %v room", rt60, dims)
	}

	// distance from the center of each face to its nearest corner
	l := []float64{dims.X, dims.Y, dims.Z}
	shortest := math.Inf(1)
	for i := range l {
		for j := i + 1; j < len(l); j++ {
			shortest = math.Min(shortest, l[i]*l[j]/math.Hypot(l[i], l[j]))
		}
	}
	order = int(math.Ceil(c*rt60/shortest - 1))
	return absorption, order, nil
}

// equivalentArea returns the absorption area per band and the mean absorption
func (r *Room) equivalentArea() (area, mean []float64) {
	nb := r.bands.Len()
	area = make([]float64, nb)
	mean = make([]float64, nb)
	surface := r.SurfaceArea()
	for _, w := range r.walls {
		for b, a := range w.absorption {
			area[b] += w.Area() * a
		}
	}
	for b := range area {
		mean[b] = area[b] / surface
	}
	return area, mean
}

// SabineRT60 predicts the reverberation time of every band with Sabine's formula, including air absorption
func (r *Room) SabineRT60() []float64 {
	area, _ := r.equivalentArea()
	out := make([]float64, len(area))
	for b, a := range area {
		out[b] = r.reverbTime(a, b)
	}
	return out
}

// EyringRT60 predicts the reverberation time of every band with Eyring's formula, including air absorption
func (r *Room) EyringRT60() []float64 {
	_, mean := r.equivalentArea()
	surface := r.SurfaceArea()
	out := make([]float64, len(mean))
	for b, a := range mean {
		if a >= 1 {
			out[b] = 0
			continue
		}
		out[b] = r.reverbTime(-surface*math.Log(1-a), b)
	}
	return out
}

func (r *Room) reverbTime(area float64, band int) float64 {
	total := area + 4*r.air[band]*r.volume
	if total <= 0 {
		return math.Inf(1)
	}
	return 24 * math.Ln10 * r.volume / (r.cfg.SpeedOfSound * total)
}
