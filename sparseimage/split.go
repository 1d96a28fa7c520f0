package sparseimage

import "fmt"

// Split partitions sparseIn into k contiguous pixel ranges covering its
// full pixel count. remainingPartitions is the total number of leaf
// partitions this piece will eventually be divided into across this and
// all later Radix-k rounds (spec §4.1); it is what lets split boundaries
// stay aligned to the stride grouping Interlace assumed when
// interlacing is enabled and a group size factors into R > 1 rounds.
//
// Each of the remainingPartitions leaves has the same size it would get
// from a single one-shot balancedSizes(S, remainingPartitions) division
// (the evenly-spread-remainder rule), and this call's k output pieces
// are exactly consecutive groups of remainingPartitions/k leaves each,
// sized by summing their member leaves. When remainingPartitions == k
// (the last round, or a single-round factorization) every piece is
// exactly one leaf and this reduces to balancedSizes(S, k) directly.
// remainingPartitions must be divisible by k — true of every call
// Radix-k's round loop makes, since it tracks the exact product of
// yet-unprocessed round factors.
//
// startOffset is the caller's offset of sparseIn within the final
// composited image's pixel space; out_offsets are absolute in that same
// space.
func Split(sparseIn *SparseImage, startOffset, k, remainingPartitions int) (pieces []*SparseImage, offsets []int, err error) {
	if k <= 0 {
		return nil, nil, fmt.Errorf("sparseimage: split: k must be positive, got %d", k)
	}
	if remainingPartitions < k {
		return nil, nil, fmt.Errorf("sparseimage: split: remaining_partitions %d smaller than k %d", remainingPartitions, k)
	}
	if remainingPartitions%k != 0 {
		return nil, nil, fmt.Errorf("sparseimage: split: remaining_partitions %d not divisible by k %d", remainingPartitions, k)
	}
	S := sparseIn.PixelCount
	sizes := strideSizes(S, k, remainingPartitions)

	format := sparseIn.Format
	pieces = make([]*SparseImage, k)
	offsets = make([]int, k)

	cursor := newPixelCursor(sparseIn)
	pos := startOffset
	for i := 0; i < k; i++ {
		size := sizes[i]
		offsets[i] = pos
		builder := newRunBuilder(format, size)
		acc := builder.newAccumulator()
		for p := 0; p < size; p++ {
			active, pixel := cursor.next()
			if active {
				acc.addActive(pixel)
			} else {
				acc.addInactive()
			}
		}
		acc.finish()
		pieces[i] = finalize(format, sparseIn.Width, sparseIn.Height, size, builder)
		pos += size
	}
	return pieces, offsets, nil
}

// balancedSizes divides S into k non-negative integers differing by at
// most one, largest-first. It has the property Split and
// SplitPartitionNumPixels both rely on: balancedSizes is
// prefix-consistent under further sub-ranging — for any contiguous run
// of indices within its output, balancedSizes(sum-of-that-run, len) of
// that run reproduces the same sizes — which is what lets the result of
// nested, independently-computed calls at each Radix-k round agree with
// a single one-shot top-level division.
func balancedSizes(S, k int) []int {
	sizes := make([]int, k)
	base := S / k
	extra := S % k
	for i := 0; i < k; i++ {
		sizes[i] = base
		if i < extra {
			sizes[i]++
		}
	}
	return sizes
}

// strideSizes returns Split's k output piece sizes, summing the sizes
// of the remainingPartitions/k leaves (per the one-shot
// balancedSizes(S, remainingPartitions) division of S into
// remainingPartitions leaves) that fall within each of the k output
// pieces.
func strideSizes(S, k, remainingPartitions int) []int {
	if remainingPartitions == k {
		return balancedSizes(S, k)
	}
	leaves := balancedSizes(S, remainingPartitions)
	step := remainingPartitions / k
	sizes := make([]int, k)
	for i := 0; i < k; i++ {
		sum := 0
		for _, sz := range leaves[i*step : (i+1)*step] {
			sum += sz
		}
		sizes[i] = sum
	}
	return sizes
}

// SplitPartitionNumPixels returns the maximum single-piece size that
// Split can produce given a starting size, k and remainingPartitions,
// used to size receive buffers before Split is actually invoked (spec
// §4.1). The worst case is always the first output piece: the leading
// leaves of balancedSizes carry the size remainder (spec's "first S%k
// pieces get one extra" rule), so grouping from the front concentrates
// the most oversized leaves into piece 0.
func SplitPartitionNumPixels(startSize, k, remainingPartitions int) int {
	if k <= 0 {
		return startSize
	}
	if remainingPartitions < k {
		remainingPartitions = k
	}
	step := remainingPartitions / k
	if step <= 0 {
		step = 1
	}
	base := startSize / remainingPartitions
	extra := startSize % remainingPartitions
	if extra > step {
		extra = step
	}
	return step*base + extra
}
