package room

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Kernels up to this length are convolved in the time domain
const directConvolutionMax = 64

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// convolveDirect adds the full linear convolution of x and h into out
func convolveDirect(out, x, h []float64) {
	for i, xv := range x {
		if xv == 0 {
			continue
		}
		for j, hv := range h {
			out[i+j] += xv * hv
		}
	}
}

// overlapAdd is a block FFT convolver for a fixed kernel.
type overlapAdd struct {
	kernelFFT []complex128
	kernelLen int
	blockSize int
	fftSize   int
	plan      *algofft.Plan[complex128]
	buf       []complex128
}

func newOverlapAdd(kernel []float64) (*overlapAdd, error) {
	blockSize := nextPowerOf2(len(kernel))
	if blockSize < 256 {
		blockSize = 256
	}
	fftSize := nextPowerOf2(blockSize + len(kernel) - 1)
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("creating FFT plan: %w", err)
	}
	oa := &overlapAdd{
		kernelFFT: make([]complex128, fftSize),
		kernelLen: len(kernel),
		blockSize: blockSize,
		fftSize:   fftSize,
		plan:      plan,
		buf:       make([]complex128, fftSize),
	}
	padded := make([]complex128, fftSize)
	for i, v := range kernel {
		padded[i] = complex(v, 0)
	}
	if err := plan.Forward(oa.kernelFFT, padded); err != nil {
		return nil, fmt.Errorf("kernel FFT: %w", err)
	}
	return oa, nil
}

// processInto adds the convolution of input with the kernel into out, starting at offset
func (oa *overlapAdd) processInto(out []float64, offset int, input []float64) error {
	for start := 0; start < len(input); start += oa.blockSize {
		end := min(start+oa.blockSize, len(input))
		for i := range oa.buf {
			oa.buf[i] = 0
		}
		for i := start; i < end; i++ {
			oa.buf[i-start] = complex(input[i], 0)
		}
		if err := oa.plan.Forward(oa.buf, oa.buf); err != nil {
			return fmt.Errorf("forward FFT: %w", err)
		}
		for i := range oa.buf {
			oa.buf[i] *= oa.kernelFFT[i]
		}
		if err := oa.plan.Inverse(oa.buf, oa.buf); err != nil {
			return fmt.Errorf("inverse FFT: %w", err)
		}
		n := end - start + oa.kernelLen - 1
		for i := 0; i < n && offset+start+i < len(out); i++ {
			out[offset+start+i] += real(oa.buf[i])
		}
	}
	return nil
}

// Convolve returns the full linear convolution of x and h, of length len(x)+len(h)-1.
func Convolve(x, h []float64) ([]float64, error) {
	if len(x) == 0 || len(h) == 0 {
		return nil, nil
	}
	out := make([]float64, len(x)+len(h)-1)
	if err := convolveAt(out, 0, x, h); err != nil {
		return nil, err
	}
	return out, nil
}

// convolveAt adds x*h into out starting at sample offset.
// out must hold offset+len(x)+len(h)-1 samples.
func convolveAt(out []float64, offset int, x, h []float64) error {
	if len(x) == 0 || len(h) == 0 {
		return nil
	}
	if len(h) <= directConvolutionMax || len(x) <= directConvolutionMax {
		convolveDirect(out[offset:], x, h)
		return nil
	}
	// The shorter of the two becomes the kernel
	if len(h) > len(x) {
		x, h = h, x
	}
	oa, err := newOverlapAdd(h)
	if err != nil {
		return err
	}
	return oa.processInto(out, offset, x)
}
