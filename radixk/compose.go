package radixk

import (
	"context"

	"github.com/deepteams/sortlast/diag"
	"github.com/deepteams/sortlast/scratch"
	"github.com/deepteams/sortlast/sparseimage"
	"github.com/deepteams/sortlast/transport"
)

// Base is the message tag base spec §5 names: tag = Base + round, so a
// late delivery from a prior round's tag space can never be mistaken
// for the current round's.
const Base = 0x5241

// Config carries the two session options Compose consumes directly
// (spec §6): the magic-k target and whether pre-composition interlacing
// is enabled.
type Config struct {
	MagicK    int
	Interlace bool
}

// Compose runs the Radix-k swap-composite schedule for the caller
// identified by rank within group. group's index order is taken as
// front-to-back order when the session's composite operator is
// order-sensitive (blend); callers that need a specific composite order
// must pre-sort group accordingly (the Reduce delegator does this).
// input is the caller's partial image; imageDest is advisory only for
// this strategy. state backs each round's receive buffers (spec §5);
// it must not be shared with a concurrently in-flight compose. Compose
// returns the caller's disjoint partition of the fully composited image
// together with that partition's offset in the final image's pixel
// space.
func Compose(ctx context.Context, tr transport.Transport, state *scratch.State, cfg Config, group []int, rank int, imageDest int, input *sparseimage.SparseImage, diagSession *diag.Session) (*sparseimage.SparseImage, int, error) {
	_ = imageDest

	g := len(group)
	rankInGroup := -1
	for idx, r := range group {
		if r == rank {
			rankInGroup = idx
			break
		}
	}
	if rankInGroup < 0 {
		return nil, 0, diagSession.RaiseError(diag.TopologyError, "caller rank not in compose group", "rank", rank)
	}
	if g == 1 {
		return input, 0, nil
	}

	magicK := cfg.MagicK
	if magicK < 2 {
		magicK = DefaultMagicK
	}
	ks := GetK(g, magicK)
	if len(ks) == 0 {
		return nil, 0, diagSession.RaiseError(diag.SanityCheckFailure, "radixk: empty factorization for group size", "group_size", g)
	}
	product := 1
	for _, k := range ks {
		product *= k
	}
	if product != g {
		return nil, 0, diagSession.RaiseError(diag.SanityCheckFailure, "radixk: factorization product mismatch", "product", product, "group_size", g)
	}

	working := input
	if cfg.Interlace && len(ks) > 1 {
		il, err := sparseimage.Interlace(working, g)
		if err != nil {
			return nil, 0, diagSession.RaiseError(diag.SanityCheckFailure, "radixk: interlace failed", "err", err.Error())
		}
		working = il
	}

	offset := 0
	stride := 1    // Π(k_1..k_{r-1})
	remaining := g // this round's remaining_partitions
	globalPartition := 0

	for round, k := range ks {
		p := (rankInGroup / stride) % k

		pieces, pieceOffsets, err := sparseimage.Split(working, offset, k, remaining)
		if err != nil {
			return nil, 0, diagSession.RaiseError(diag.SanityCheckFailure, "radixk: split failed", "round", round, "err", err.Error())
		}

		partners := make([]partnership, k)
		for i := 0; i < k; i++ {
			peerRankInGroup := rankInGroup - p*stride + i*stride
			partners[i] = partnership{peer: group[peerRankInGroup], offset: pieceOffsets[i], sent: pieces[i]}
		}

		maxLen := 0
		maxPiece := sparseimage.SplitPartitionNumPixels(working.PixelCount, k, remaining)
		for i := range pieces {
			l := sparseimage.BufferSize(pieces[i].Format, maxPiece)
			if l > maxLen {
				maxLen = l
			}
		}

		tag := Base + round
		tree := newCompositeTree(k)

		// One scratch acquisition backs every concurrent receive this
		// round; each partner sub-slices its own region within it rather
		// than acquiring the name k-1 times (which would each invalidate
		// the last under this allocator's one-region-per-name contract).
		recvRegion := state.GetStateBuffer(scratch.RecvSlot, k*maxLen)

		recvReqs := make([]transport.Request, 0, k-1)
		recvSlot := make([]int, 0, k-1)
		for i := 0; i < k; i++ {
			if i == p {
				continue
			}
			partners[i].recv = recvRegion[i*maxLen : (i+1)*maxLen]
			req, err := tr.Irecv(ctx, partners[i].recv, partners[i].peer, tag)
			if err != nil {
				return nil, 0, diagSession.RaiseError(diag.TransportFailure, "radixk: irecv failed", "err", err.Error())
			}
			recvReqs = append(recvReqs, req)
			recvSlot = append(recvSlot, i)
		}

		sendReqs := make([]transport.Request, 0, k-1)
		for _, i := range pivotFor(p, 0, k) {
			if i == p {
				continue
			}
			blob := sparseimage.PackageForSend(partners[i].sent)
			req, err := tr.Isend(ctx, blob, partners[i].peer, tag)
			if err != nil {
				return nil, 0, diagSession.RaiseError(diag.TransportFailure, "radixk: isend failed", "err", err.Error())
			}
			sendReqs = append(sendReqs, req)
		}

		var final *sparseimage.SparseImage
		if f, doneTree, err := tree.arrive(p, pieces[p]); err != nil {
			return nil, 0, diagSession.RaiseError(diag.SanityCheckFailure, "radixk: composite failed", "err", err.Error())
		} else if doneTree {
			final = f
		}

		pending := append([]transport.Request(nil), recvReqs...)
		pendingSlot := append([]int(nil), recvSlot...)
		for final == nil && len(pending) > 0 {
			won, err := tr.WaitAny(ctx, pending)
			if err != nil {
				return nil, 0, diagSession.RaiseError(diag.TransportFailure, "radixk: wait_any failed", "err", err.Error())
			}
			i := pendingSlot[won]
			got, err := sparseimage.UnpackageFromReceive(partners[i].recv)
			if err != nil {
				return nil, 0, diagSession.RaiseError(diag.FormatMismatch, "radixk: unpackage failed", "err", err.Error())
			}
			if got.PixelCount != pieces[i].PixelCount {
				return nil, 0, diagSession.RaiseError(diag.FormatMismatch, "radixk: received piece pixel count mismatch", "want", pieces[i].PixelCount, "got", got.PixelCount)
			}

			f, doneTree, err := tree.arrive(i, got)
			if err != nil {
				return nil, 0, diagSession.RaiseError(diag.SanityCheckFailure, "radixk: composite failed", "err", err.Error())
			}
			if doneTree {
				final = f
			}

			pending = append(pending[:won], pending[won+1:]...)
			pendingSlot = append(pendingSlot[:won], pendingSlot[won+1:]...)
		}

		if final == nil {
			return nil, 0, diagSession.RaiseError(diag.SanityCheckFailure, "radixk: tree did not complete after all arrivals", "round", round)
		}

		if err := tr.WaitAll(ctx, sendReqs); err != nil {
			return nil, 0, diagSession.RaiseError(diag.TransportFailure, "radixk: wait_all on sends failed", "err", err.Error())
		}

		working = final
		offset = pieceOffsets[p]
		// Round 0 picks the coarsest (largest) block grouping, so its
		// digit must be the most significant one: accumulate
		// most-significant-first (Horner's rule) rather than weighting
		// the earliest round's choice least, which would reconstruct the
		// wrong leaf index whenever R > 1.
		globalPartition = globalPartition*k + p
		stride *= k
		remaining /= k
	}

	pieceOffset := offset
	if cfg.Interlace && len(ks) > 1 {
		pieceOffset = sparseimage.InterlaceOffset(globalPartition, g, input.PixelCount)
	}
	return working, pieceOffset, nil
}
