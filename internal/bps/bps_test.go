package bps

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulDiv(t *testing.T) {
	cases := []struct {
		name    string
		a, b, d uint64
		want    uint64
		ok      bool
	}{
		{name: "simple", a: 1000, b: 200, d: Denominator, want: 20, ok: true},
		{name: "floors", a: 999, b: 1, d: Denominator, want: 0, ok: true},
		{name: "wide intermediate", a: math.MaxUint64, b: 5000, d: Denominator, want: math.MaxUint64 / 2, ok: true},
		{name: "quotient overflow", a: math.MaxUint64, b: 350000, d: Denominator, ok: false},
		{name: "zero divisor", a: 1, b: 1, d: 0, ok: false},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := MulDiv(tc.a, tc.b, tc.d)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestSaturating(t *testing.T) {
	assert.Equal(t, uint64(math.MaxUint64), SatAdd(math.MaxUint64, 1))
	assert.Equal(t, uint64(3), SatAdd(1, 2))
	assert.Equal(t, uint64(0), SatSub(1, 2))
	assert.Equal(t, uint32(math.MaxUint32), SatAdd32(math.MaxUint32, 7))
	assert.Equal(t, int64(math.MaxInt64), SatAddInt64(math.MaxInt64, 1))
	assert.Equal(t, int64(math.MinInt64), SatAddInt64(math.MinInt64, -1))
	assert.Equal(t, uint64(math.MaxUint64), ApplySaturating(math.MaxUint64, 350000))
}

func TestSignedDiff(t *testing.T) {
	assert.Equal(t, int64(-1910), SignedDiff(20, 1930))
	assert.Equal(t, int64(20), SignedDiff(20, 0))
	assert.Equal(t, int64(math.MaxInt64), SignedDiff(math.MaxUint64, 0))
	assert.Equal(t, int64(math.MinInt64), SignedDiff(0, math.MaxUint64))
}
