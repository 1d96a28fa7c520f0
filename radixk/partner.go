package radixk

import "github.com/deepteams/sortlast/sparseimage"

// partnership is the per-round, per-peer bookkeeping record spec §3
// names: which peer, where its piece starts in the final image, what we
// sent it, and what (if anything) it sent back.
type partnership struct {
	peer   int
	offset int
	sent   *sparseimage.SparseImage
	recv   []byte // pre-sized receive slot; decoded into a SparseImage on arrival
}
