package room

import (
	"io"
	"log/slog"
	"math"
	"runtime"
)

// Config holds every simulation parameter of a Room.
type Config struct {
	// Sampling rate of the RIRs, in Hz
	Fs float64
	// Speed of sound in m/s
	SpeedOfSound float64

	// Maximum image source order. A negative value picks the order automatically:
	// a branch stops when its strongest band falls below ISMEnergyThresholdDB.
	MaxOrder int
	// Hard cap on the automatic order
	MaxAutoOrder int
	// Energy threshold for the automatic order, in dB relative to the direct path
	ISMEnergyThresholdDB float64
	// Maximum number of image sources per source
	MaxImageSources int

	UseISM        bool
	UseRayTracing bool

	// Rays emitted per source
	NumRays int
	// Radius of the capture sphere around each microphone, in meters
	ReceiverRadius float64
	// A ray stops when its energy falls this many dB below its initial energy
	EnergyThresholdDB float64
	// A ray stops after travelling for this many seconds
	TimeThreshold float64
	// A ray stops after this many reflections. Reaching it is reported as ErrResourceLimit.
	MaxBounces int
	// Width of the energy histogram bins, in seconds
	HistBinSize float64

	// Apply frequency dependent air absorption
	AirAbsorption bool
	// Centre frequency of the lowest octave band, in Hz
	BandBase float64
	// Maximum number of octave bands
	NumBands int

	// Length of the fractional delay kernel, in samples. Must be odd.
	FractionalDelayLength int
	// Length cap of every RIR, in seconds
	MaxRIRLength float64
	// Energy level at the end of a truncated RIR above which its decay is reported incomplete
	DecayThresholdDB float64

	// Number of ray tracing goroutines
	Workers int
	// Seed of every random number generator used by the simulation
	Seed uint64

	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		Fs:                    16000,
		SpeedOfSound:          SPEED_OF_SOUND,
		MaxOrder:              -1,
		MaxAutoOrder:          50,
		ISMEnergyThresholdDB:  -60,
		MaxImageSources:       500_000,
		UseISM:                true,
		UseRayTracing:         true,
		NumRays:               10_000,
		ReceiverRadius:        0.5,
		EnergyThresholdDB:     -70,
		TimeThreshold:         2.0,
		MaxBounces:            5000,
		HistBinSize:           0.004,
		AirAbsorption:         false,
		BandBase:              125,
		NumBands:              7,
		FractionalDelayLength: 81,
		MaxRIRLength:          3.0,
		DecayThresholdDB:      -60,
		Workers:               runtime.NumCPU(),
		Seed:                  1,
	}
}

// Validate checks every parameter and returns ErrConfiguration on the first invalid one
func (c Config) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"sample rate", c.Fs},
		{"speed of sound", c.SpeedOfSound},
		{"histogram bin size", c.HistBinSize},
		{"time threshold", c.TimeThreshold},
		{"maximum RIR length", c.MaxRIRLength},
		{"band base frequency", c.BandBase},
	}
	for _, p := range positive {
		if !(p.value > 0) || math.IsInf(p.value, 0) {
			return configErrorf("%s must be positive and finite, got %v", p.name, p.value)
		}
	}
	if !c.UseISM && !c.UseRayTracing {
		return configErrorf("at least one of the image source model and ray tracing must be enabled")
	}
	if c.MaxOrder < 0 && c.MaxAutoOrder <= 0 {
		return configErrorf("automatic order needs a positive maximum, got %d", c.MaxAutoOrder)
	}
	if c.MaxOrder < 0 && !(c.ISMEnergyThresholdDB < 0) {
		return configErrorf("image source energy threshold must be negative, got %v dB", c.ISMEnergyThresholdDB)
	}
	if c.MaxImageSources <= 0 {
		return configErrorf("maximum image source count must be positive, got %d", c.MaxImageSources)
	}
	if c.UseRayTracing {
		if c.NumRays <= 0 {
			return configErrorf("ray count must be positive, got %d", c.NumRays)
		}
		if !(c.ReceiverRadius > 0) {
			return configErrorf("receiver radius must be positive, got %v", c.ReceiverRadius)
		}
		if !(c.EnergyThresholdDB < 0) {
			return configErrorf("ray energy threshold must be negative, got %v dB", c.EnergyThresholdDB)
		}
		if c.MaxBounces <= 0 {
			return configErrorf("maximum bounce count must be positive, got %d", c.MaxBounces)
		}
	}
	if c.NumBands <= 0 {
		return configErrorf("band count must be positive, got %d", c.NumBands)
	}
	if c.FractionalDelayLength < 1 || c.FractionalDelayLength%2 == 0 {
		return configErrorf("fractional delay length must be a positive odd number, got %d", c.FractionalDelayLength)
	}
	if !(c.DecayThresholdDB < 0) {
		return configErrorf("decay threshold must be negative, got %v dB", c.DecayThresholdDB)
	}
	if c.Workers < 0 {
		return configErrorf("worker count must not be negative, got %d", c.Workers)
	}
	return nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
