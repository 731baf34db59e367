// SPDX-License-Identifier: MIT

/*
Package bitint holds the power-of-two sizing used wherever a sample window
has to be sized: the rolling analysis window rounds its capacity with it,
and the frame driver uses the same rounding to decide how many samples must
arrive before the first frame is emitted.

	capacity := bitint.NextPowerOfTwo(1000) // 1024
	warmup := bitint.WarmupLength(1024, len(samples))

NextPowerOfTwo subtracts one before taking the bit length so exact powers of
two map onto themselves:

	size=8: bits.Len(7) = 3, 1<<3 = 8
	size=9: bits.Len(8) = 4, 1<<4 = 16
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size. Sizes below one
// round up to 1, so every window has at least one slot.
//
//	Input  Output
//	0      1
//	1      1
//	5      8
//	8      8
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// WarmupLength returns the number of samples the frame driver waits for
// before emitting frames: the window size, capped by the stream length,
// rounded up to a power of two.
func WarmupLength(windowSize, total int) int {
	return NextPowerOfTwo(min(windowSize, total))
}
