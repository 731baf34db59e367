// SPDX-License-Identifier: MIT
package fft

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the window applied before the transform.
type WindowFunc int

// Enum for available window functions.
const (
	Rectangular WindowFunc = iota
	BartlettHann
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

var windowNames = [...]string{
	Rectangular:     "none",
	BartlettHann:    "bartletthann",
	Blackman:        "blackman",
	BlackmanNuttall: "blackmannuttall",
	Hann:            "hann",
	Hamming:         "hamming",
	Lanczos:         "lanczos",
	Nuttall:         "nuttall",
}

func (w WindowFunc) String() string {
	if w < 0 || int(w) >= len(windowNames) {
		return fmt.Sprintf("WindowFunc(%d)", int(w))
	}
	return windowNames[w]
}

// WindowNames lists the names accepted by ParseWindowFunc.
func WindowNames() []string {
	return append([]string(nil), windowNames[:]...)
}

// ParseWindowFunc converts a name (case-insensitive) to a WindowFunc. Unknown
// names return Rectangular and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "", "none", "rectangular":
		return Rectangular, nil
	case "hanning":
		return Hann, nil
	}
	for i, n := range windowNames {
		if strings.EqualFold(name, n) {
			return WindowFunc(i), nil
		}
	}
	return Rectangular, fmt.Errorf("unknown FFT window function name: '%s'", name)
}

// windowCoefficients returns n coefficients for windowType, or nil when no
// window should be applied.
func windowCoefficients(n int, windowType WindowFunc) []float64 {
	if windowType == Rectangular || n < 2 {
		return nil
	}

	// gonum windows scale the slice in place, so start from all ones.
	coeffs := make([]float64, n)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		return nil
	}
	return coeffs
}
