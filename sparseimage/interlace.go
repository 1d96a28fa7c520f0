package sparseimage

import "fmt"

// Interlace produces a permuted sparse image so that if the result is
// subsequently partitioned into `groups` contiguous pieces via Split,
// each piece is drawn from a round-robin stride over sparseIn: piece g's
// j-th pixel is sparseIn's pixel (g + j*groups). This equalizes
// active-pixel density across peers whose input images have spatially
// clustered activity (spec §4.1).
//
// Interlace allocates and returns its own output image; it does not
// take a scratch region from package scratch.
func Interlace(sparseIn *SparseImage, groups int) (*SparseImage, error) {
	if groups <= 0 {
		return nil, fmt.Errorf("sparseimage: interlace: groups must be positive, got %d", groups)
	}
	N := sparseIn.PixelCount
	format := sparseIn.Format

	// Materialize sparseIn as a flat (active bool, pixel bytes) table so
	// we can address it by arbitrary original index while building the
	// strided output; sparse images are generally small per Radix-k round
	// so this is not a meaningful cost relative to the network exchange
	// it prepares for.
	activity := make([]bool, N)
	pixelSize := format.PixelSize()
	pixels := make([]byte, N*pixelSize)
	cursor := newPixelCursor(sparseIn)
	for i := 0; i < N; i++ {
		active, pixel := cursor.next()
		activity[i] = active
		if active {
			copy(pixels[i*pixelSize:(i+1)*pixelSize], pixel)
		}
	}

	sizes := balancedSizes(N, groups)
	builder := newRunBuilder(format, N)
	acc := builder.newAccumulator()
	for g := 0; g < groups; g++ {
		for j := 0; j < sizes[g]; j++ {
			src := g + j*groups
			if activity[src] {
				acc.addActive(pixels[src*pixelSize : (src+1)*pixelSize])
			} else {
				acc.addInactive()
			}
		}
	}
	acc.finish()
	return finalize(format, sparseIn.Width, sparseIn.Height, N, builder), nil
}

// InterlaceOffset maps the global partition index of an interlaced,
// then-split piece back to its position in the original (pre-interlace)
// pixel sequence: the piece's j-th logical pixel is original index
// globalPartition + j*groups. Returning that starting index (rather than
// a contiguous range, which an interlaced piece in general does not
// occupy) is what spec §4.1 calls "computable from (global_partition,
// groups, N) alone" — the stride is groups, known to any caller that
// also knows groups, so the pair (InterlaceOffset(...), groups)
// reconstructs the full original-index sequence for the piece.
func InterlaceOffset(globalPartition, groups, N int) int {
	return globalPartition
}
