// Package radixk implements the Radix-k swap-composite scheduler: given
// an ordered group of process ranks each holding a partial sparse image,
// it runs a sequence of exchange-and-composite rounds that leaves every
// process holding a disjoint, evenly sized partition of the fully
// composited image.
package radixk

import "math"

// DefaultMagicK is the target round factor used when a session leaves
// MAGIC_K unset.
const DefaultMagicK = 8

// GetK factorizes the group size w into a sequence of round factors
// k_1..k_r such that every k_r is >= 2, their product is exactly w, and
// the number of rounds is at most floor(log2(w)). It is a pure function
// of (w, magicK): same inputs always produce the same factor sequence.
//
// The search for each round's factor prefers magicK itself, then probes
// outward from magicK via pivotFor within [2, 2*magicK), then scans
// upward to sqrt(remaining) for the smallest divisor, and finally — if
// remaining is a large prime — uses it whole as the last factor.
func GetK(w, magicK int) []int {
	if w <= 1 {
		return nil
	}
	if magicK < 2 {
		magicK = DefaultMagicK
	}

	var ks []int
	remaining := w
	for remaining > 1 {
		k := chooseFactor(remaining, magicK)
		ks = append(ks, k)
		remaining /= k
	}
	return ks
}

// chooseFactor picks the next round's factor for the given remaining
// group size per spec §4.2.2.
func chooseFactor(remaining, magicK int) int {
	if remaining%magicK == 0 {
		return magicK
	}

	lo, hi := 2, 2*magicK
	for _, cand := range pivotFor(magicK, lo, hi) {
		if cand >= 2 && remaining%cand == 0 {
			return cand
		}
	}

	limit := int(math.Sqrt(float64(remaining)))
	for cand := 2 * magicK; cand <= limit; cand++ {
		if remaining%cand == 0 {
			return cand
		}
	}

	return remaining
}

// pivotFor produces indices outward from pivot — pivot, pivot-1,
// pivot+1, pivot-2, pivot+2, … — restricted to [low, high), ordered by
// distance to pivot. It is the reusable index generator spec §9 calls
// for; both the k-search above and Radix-k's round-r send ordering use
// it.
func pivotFor(pivot, low, high int) []int {
	var out []int
	if pivot >= low && pivot < high {
		out = append(out, pivot)
	}
	for d := 1; ; d++ {
		below := pivot - d
		above := pivot + d
		if below < low && above >= high {
			break
		}
		if below >= low {
			out = append(out, below)
		}
		if above < high {
			out = append(out, above)
		}
	}
	return out
}
