package room

import (
	"errors"
	"fmt"
)

// Errors returned by room construction and simulation.
var (
	// ErrGeometry marks degenerate walls, open boundaries, or sources and
	// microphones placed outside the room.
	ErrGeometry = errors.New("room: geometry error")
	// ErrConfiguration marks invalid simulation parameters.
	ErrConfiguration = errors.New("room: configuration error")
	// ErrNumerical marks non-finite values produced during simulation.
	ErrNumerical = errors.New("room: numerical error")
	// ErrResourceLimit marks a computation stopped by one of the hard bounds
	// (bounce count, image count) rather than by its natural termination.
	ErrResourceLimit = errors.New("room: resource limit exceeded")
	// ErrIncompleteDecay marks an RIR truncated by MaxRIRLength before its
	// energy decayed below DecayThresholdDB.
	ErrIncompleteDecay = errors.New("room: energy decay incomplete")
	// ErrState marks an operation called before its prerequisites ran.
	ErrState = errors.New("room: invalid state")
)

// PairError reports a failure affecting a single (microphone, source) pair.
// Simulation keeps going for the other pairs.
type PairError struct {
	Mic    int
	Source int
	Err    error
}

func (e *PairError) Error() string {
	return fmt.Sprintf("mic %d, source %d: %v", e.Mic, e.Source, e.Err)
}

func (e *PairError) Unwrap() error {
	return e.Err
}

func geometryErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrGeometry, fmt.Sprintf(format, args...))
}

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
