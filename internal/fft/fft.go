// SPDX-License-Identifier: MIT
package fft

import (
	"errors"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// ErrEmptyInput is returned when a spectrum is requested over zero samples.
var ErrEmptyInput = errors.New("fft: empty input")

// Point is one bin of a magnitude spectrum.
type Point struct {
	FrequencyHz float32
	Magnitude   float32
}

// Pre-allocated buffers for one transform length.
type workspace struct {
	input  []float64    // Windowed input signal.
	coeffs []complex128 // Transform output, n/2+1 values.
	window []float64    // Window coefficients, nil for Rectangular.
	points []Point      // Result buffer handed back to callers.
}

// Engine computes magnitude spectra with a real-input FFT. The transform is
// gonum's mixed-radix FFTPACK port, so any input length is accepted; the plan
// and buffers are rebuilt only when the length changes.
//
// The only thing an Engine remembers between calls is that cache: results
// depend on the arguments alone. An Engine must not be shared between
// goroutines.
type Engine struct {
	windowType WindowFunc
	size       int
	plan       *fourier.FFT
	ws         workspace
}

// NewEngine returns an Engine that applies windowType before transforming.
// Rectangular reproduces a plain, unwindowed transform.
func NewEngine(windowType WindowFunc) *Engine {
	return &Engine{windowType: windowType}
}

// Analyze returns (frequency, magnitude) pairs for bins 0 through Nyquist.
// Bin i sits at i*sampleRateHz/len(samples) Hz and its magnitude is the
// modulus of the unnormalised DFT coefficient.
//
// The returned slice is owned by the Engine and is overwritten by the next
// call; callers that need to keep it must copy it.
func (e *Engine) Analyze(samples []float32, sampleRateHz uint32) ([]Point, error) {
	n := len(samples)
	if n == 0 {
		return nil, ErrEmptyInput
	}
	if n != e.size {
		e.reset(n)
	}

	// --- 1. Prepare Input & Windowing ---
	if e.ws.window != nil {
		for i, s := range samples {
			e.ws.input[i] = float64(s) * e.ws.window[i]
		}
	} else {
		for i, s := range samples {
			e.ws.input[i] = float64(s)
		}
	}

	// --- 2. Perform FFT ---
	e.plan.Coefficients(e.ws.coeffs, e.ws.input)

	// --- 3. Calculate Magnitudes ---
	resolution := float64(sampleRateHz) / float64(n)
	for i, c := range e.ws.coeffs {
		e.ws.points[i] = Point{
			FrequencyHz: float32(float64(i) * resolution),
			Magnitude:   float32(cmplx.Abs(c)),
		}
	}
	return e.ws.points, nil
}

// reset plans a transform of length n and resizes the workspace.
func (e *Engine) reset(n int) {
	bins := n/2 + 1
	e.size = n
	e.plan = fourier.NewFFT(n)
	e.ws = workspace{
		input:  make([]float64, n),
		coeffs: make([]complex128, bins),
		window: windowCoefficients(n, e.windowType),
		points: make([]Point, bins),
	}
}
