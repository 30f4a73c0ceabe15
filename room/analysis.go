package room

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrEmptyRIR = errors.New("room: impulse response is empty")
	ErrNoDecay  = errors.New("room: insufficient decay for reverberation time")
)

// Metrics are room acoustic parameters measured on an impulse response.
// Everything except RT60 is measured from the peak of the response.
type Metrics struct {
	RT60       float64 // T30, or T20 when the response does not decay 35 dB
	EDT        float64 // early decay time, 0 to -10 dB
	T20        float64 // -5 to -25 dB
	T30        float64 // -5 to -35 dB
	C50        float64 // clarity at 50 ms in dB
	C80        float64 // clarity at 80 ms in dB
	D50        float64 // definition at 50 ms, 0 to 1
	D80        float64
	CenterTime float64 // energy centroid in seconds
	PeakIndex  int
}

// SchroederDB returns the backward integrated energy of rir in dB relative to its total, floored at -200 dB
func SchroederDB(rir []float64) []float64 {
	out := make([]float64, len(rir))
	acc := 0.0
	for i := len(rir) - 1; i >= 0; i-- {
		acc += rir[i] * rir[i]
		out[i] = acc
	}
	if len(out) == 0 || out[0] <= 0 {
		return out
	}
	total := out[0]
	for i, e := range out {
		if e <= 0 {
			out[i] = -200
		} else {
			out[i] = toDB(e / total)
		}
	}
	return out
}

// decayTime fits a line to the Schroeder curve between startDB and endDB and
// extrapolates it to a 60 dB decay.
func decayTime(schroeder []float64, fs, startDB, endDB float64) (float64, error) {
	start, end := -1, -1
	for i, v := range schroeder {
		if start < 0 && v <= startDB {
			start = i
		}
		if start >= 0 && v <= endDB {
			end = i
			break
		}
	}
	if start < 0 || end <= start {
		return 0, fmt.Errorf("%w: the response never falls from %g to %g dB", ErrNoDecay, startDB, endDB)
	}
	xs := make([]float64, end-start+1)
	for i := range xs {
		xs[i] = float64(start+i) / fs
	}
	_, slope := stat.LinearRegression(xs, schroeder[start:end+1], nil, false)
	if slope >= 0 || math.IsNaN(slope) {
		return 0, fmt.Errorf("%w: slope %g dB/s", ErrNoDecay, slope)
	}
	return -60 / slope, nil
}

// MeasureRT60 estimates the reverberation time of rir from the decay between
// -5 dB and -5-decayDB dB of its Schroeder curve.
func MeasureRT60(rir []float64, fs, decayDB float64) (float64, error) {
	if len(rir) == 0 {
		return 0, ErrEmptyRIR
	}
	if fs <= 0 || decayDB <= 0 {
		return 0, configErrorf("fs %g and decay %g dB must be positive", fs, decayDB)
	}
	return decayTime(SchroederDB(rir), fs, -5, -5-decayDB)
}

// AnalyzeRIR measures rir sampled at fs. Decay times the response does not reach are left at 0.
func AnalyzeRIR(rir []float64, fs float64) (Metrics, error) {
	if len(rir) == 0 {
		return Metrics{}, ErrEmptyRIR
	}
	if fs <= 0 {
		return Metrics{}, configErrorf("sample rate %g must be positive", fs)
	}

	peak := 0
	for i, v := range rir {
		if math.Abs(v) > math.Abs(rir[peak]) {
			peak = i
		}
	}
	h := rir[peak:]
	sq := make([]float64, len(h))
	for i, v := range h {
		sq[i] = v * v
	}

	m := Metrics{PeakIndex: peak}
	m.D50, m.C50 = earlyLate(sq, int(math.Round(50*MS*fs)))
	m.D80, m.C80 = earlyLate(sq, int(math.Round(80*MS*fs)))

	if total := floats.Sum(sq); total > 0 {
		weighted := 0.0
		for i, e := range sq {
			weighted += float64(i) / fs * e
		}
		m.CenterTime = weighted / total
	}

	schroeder := SchroederDB(h)
	m.EDT, _ = decayTime(schroeder, fs, 0, -10)
	m.T20, _ = decayTime(schroeder, fs, -5, -25)
	m.T30, _ = decayTime(schroeder, fs, -5, -35)
	m.RT60 = m.T30
	if m.RT60 == 0 {
		m.RT60 = m.T20
	}
	if m.RT60 == 0 {
		return m, ErrNoDecay
	}
	return m, nil
}

// earlyLate returns definition and clarity for the boundary at sample n
func earlyLate(sq []float64, n int) (definition, clarity float64) {
	if n <= 0 {
		return 0, math.Inf(-1)
	}
	if n >= len(sq) {
		return 1, math.Inf(1)
	}
	early := floats.Sum(sq[:n])
	late := floats.Sum(sq[n:])
	if early+late > 0 {
		definition = early / (early + late)
	}
	switch {
	case late <= 0:
		clarity = math.Inf(1)
	case early <= 0:
		clarity = math.Inf(-1)
	default:
		clarity = toDB(early / late)
	}
	return definition, clarity
}

// ITDG returns the initial time delay gap: the time between the direct sound
// and the first reflection. It is 0 with fewer than two arrivals.
func ITDG(arrivals []Arrival) float64 {
	direct := math.Inf(1)
	for _, a := range arrivals {
		if a.Order == 0 {
			direct = math.Min(direct, a.Time)
		}
	}
	first := math.Inf(1)
	for _, a := range arrivals {
		if a.Order > 0 {
			first = math.Min(first, a.Time)
		}
	}
	if math.IsInf(direct, 1) || math.IsInf(first, 1) {
		return 0
	}
	return first - direct
}

// EnergyOverWindow sums the energy of every reflection arriving within window
// seconds of the direct sound, relative to the direct sound, in dB.
func EnergyOverWindow(arrivals []Arrival, window float64) (float64, error) {
	var direct *Arrival
	for i := range arrivals {
		if arrivals[i].Order == 0 {
			direct = &arrivals[i]
		}
	}
	if direct == nil {
		return 0, fmt.Errorf("%w: no direct sound", ErrState)
	}
	reflected := 0.0
	for _, a := range arrivals {
		if a.Order > 0 && a.Time-direct.Time < window {
			reflected += floats.Sum(a.Energy)
		}
	}
	return toDB(reflected / floats.Sum(direct.Energy)), nil
}

// MeasureRT60 measures the reverberation time of every computed RIR, indexed [mic][src].
// Pairs that fail are left at 0 and their errors joined.
func (r *Room) MeasureRT60(decayDB float64) ([][]float64, error) {
	if r.state != StateRIRAvailable {
		return nil, fmt.Errorf("%w: MeasureRT60 needs computed RIRs, room is %s", ErrState, r.state)
	}
	out := make([][]float64, len(r.pairs))
	var errs []error
	for m, row := range r.pairs {
		out[m] = make([]float64, len(row))
		for s, p := range row {
			if len(p.rir) == 0 {
				continue
			}
			rt, err := MeasureRT60(p.rir, r.cfg.Fs, decayDB)
			if err != nil {
				errs = append(errs, &PairError{Mic: m, Source: s, Err: err})
				continue
			}
			out[m][s] = rt
		}
	}
	return out, errors.Join(errs...)
}
