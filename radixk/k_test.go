package radixk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func productOf(ks []int) int {
	p := 1
	for _, k := range ks {
		p *= k
	}
	return p
}

func TestGetKProductAndBounds(t *testing.T) {
	for _, w := range []int{1, 2, 4, 6, 8, 12, 17, 32, 100, 257} {
		ks := GetK(w, DefaultMagicK)
		if w == 1 {
			require.Empty(t, ks)
			continue
		}
		require.Equal(t, w, productOf(ks))
		for _, k := range ks {
			require.GreaterOrEqual(t, k, 2)
		}
		require.LessOrEqual(t, len(ks), int(math.Log2(float64(w)))+1)
	}
}

func TestGetKDeterministic(t *testing.T) {
	a := GetK(48, 8)
	b := GetK(48, 8)
	require.Equal(t, a, b)
}

func TestGetKPrefersMagicK(t *testing.T) {
	ks := GetK(64, 8)
	require.Equal(t, []int{8, 8}, ks)
}

func TestGetKSixProcesses(t *testing.T) {
	// 6 % 8 != 0; pivot search within [2,16) finds 6 itself (distance 2
	// from pivot 8), so one round of k=6.
	ks := GetK(6, 8)
	require.Equal(t, []int{6}, ks)
}

func TestPivotForOrderAndRange(t *testing.T) {
	got := pivotFor(3, 0, 6)
	require.Equal(t, []int{3, 2, 4, 1, 5, 0}, got)
}

func TestPivotForClipsOutOfRange(t *testing.T) {
	got := pivotFor(0, 0, 3)
	require.Equal(t, []int{0, 1, 2}, got)
}
