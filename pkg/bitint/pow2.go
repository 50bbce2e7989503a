/*
Package bitint provides the bit manipulation helpers used by the transform
engine and by configuration validation. Everything here is allocation free
and constant time, so it is safe to call from the audio hot path.

Usage:

	// Reject block sizes the radix-2 transform cannot handle
	if !bitint.IsPowerOfTwo(blockSize) { ... }

	// Suggest the closest usable block size
	size := bitint.NextPowerOfTwo(3000) // Returns 4096

	// Number of butterfly stages for a 4096-point transform
	stages := bitint.Log2(4096) // Returns 12

----------------------------------------------------------------------

What NextPowerOfTwo does:

	The subtraction (size-1) is critical, without the subtraction,
	powers of 2 would be incorrectly doubled.

	- For input 8 (already a power of 2):
	  size-1 = 7 (binary 0111)
	  bits.Len(7) = 3
	  1 << 3 = 8

	- For input 9:
	  size-1 = 8 (binary 1000)
	  bits.Len(8) = 4
	  1 << 4 = 16
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo checks if n is a power of 2. Powers of 2 have exactly one
// bit set, so n&(n-1) clears it and leaves zero.
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns the base-2 logarithm of n, which must be a power of two.
// For any other value the result is the index of the highest set bit.
func Log2(n int) int {
	if n <= 0 {
		return 0
	}
	return bits.Len(uint(n)) - 1
}

// ReverseBits reverses the lowest width bits of i. It is the index
// permutation applied before an in-place decimation-in-time transform.
//
//	i=1 (001), width=3 -> 4 (100)
//	i=6 (110), width=3 -> 3 (011)
func ReverseBits(i, width int) int {
	if width <= 0 {
		return 0
	}
	return int(bits.Reverse(uint(i)) >> (bits.UintSize - width))
}
