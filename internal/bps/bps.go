// Package bps holds the integer basis-point arithmetic shared by the payout
// engine and the casino ledger. Nothing in here panics or wraps silently.
package bps

import (
	"math"
	"math/bits"
)

// Denominator is 100% expressed in basis points.
const Denominator uint64 = 10000

// MulDiv returns (a*b)/d using a 128-bit intermediate product.
// ok is false when d is zero or the quotient does not fit in 64 bits.
func MulDiv(a, b, d uint64) (q uint64, ok bool) {
	if d == 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return 0, false
	}
	q, _ = bits.Div64(hi, lo, d)
	return q, true
}

// Apply returns amount*rate/Denominator.
func Apply(amount, rate uint64) (uint64, bool) {
	return MulDiv(amount, rate, Denominator)
}

// ApplySaturating is Apply clamped to math.MaxUint64 on overflow.
func ApplySaturating(amount, rate uint64) uint64 {
	q, ok := Apply(amount, rate)
	if !ok {
		return math.MaxUint64
	}
	return q
}

func SatAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

func SatSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

func SatAdd32(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}

// SatAddInt64 adds two signed values, clamping at the int64 bounds.
func SatAddInt64(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	if b < 0 && a < math.MinInt64-b {
		return math.MinInt64
	}
	return a + b
}

// SignedDiff returns a-b as an int64, clamped at the int64 bounds.
func SignedDiff(a, b uint64) int64 {
	if a >= b {
		d := a - b
		if d > math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(d)
	}
	d := b - a
	if d > math.MaxInt64 {
		return math.MinInt64
	}
	return -int64(d)
}
