// SPDX-License-Identifier: MIT

/*
Package bitint holds the small power-of-two helpers the analyser needs to
size its FFT workspace and the playback tap. Every FFT size accepted from
config passes through here before a single buffer is allocated.

Design Principles:
- Zero Allocations: every helper works on its arguments alone
- Constant Time: a bit-length lookup and a shift, no loops
- Callback Safe: no locks or syscalls, so the audio callback may use them

Usage:

	// Round a requested analysis window up to a usable size
	bins := bitint.NextPowerOfTwo(1500) // 2048

	// Reject FFT sizes the analyser cannot run
	ok := bitint.IsPowerOfTwo(cfg.FFTSize) && bitint.InRange(cfg.FFTSize, 32, 32768)

----------------------------------------------------------------------

How NextPowerOfTwo rounds:

	The result is 1 shifted left by the bit length of size-1. Taking
	one off first is what keeps an exact power of two unchanged.

	For size 8:
	  size-1 = 7 (binary 0111)
	  bits.Len(7) = 3
	  1 << 3 = 8, the input itself

	Skipping the subtraction would give:
	  bits.Len(8) = 4 (binary 1000)
	  1 << 4 = 16, double the input

	For size 9 the same rule gives bits.Len(8) = 4 and 1 << 4 = 16,
	the next power up, which is the behaviour wanted for every
	size that is not already a power of two.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size. Sizes <= 0 map to 1.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// InRange reports whether n is a power of two within [lo, hi].
func InRange(n, lo, hi int) bool {
	return IsPowerOfTwo(n) && n >= lo && n <= hi
}

// Log2 returns the exponent of a power of two, or -1 if n is not one.
func Log2(n int) int {
	if !IsPowerOfTwo(n) {
		return -1
	}
	return bits.TrailingZeros(uint(n))
}
