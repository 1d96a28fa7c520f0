package sortlast

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/deepteams/sortlast/diag"
	"github.com/deepteams/sortlast/radixk"
	"github.com/deepteams/sortlast/reduce"
	"github.com/deepteams/sortlast/scratch"
	"github.com/deepteams/sortlast/session"
	"github.com/deepteams/sortlast/sparseimage"
	"github.com/deepteams/sortlast/transport"
)

func toSparseFormat(o *session.Options) sparseimage.Format {
	f := sparseimage.Format{}
	switch o.ColorFormat {
	case session.ColorRGBAUByte:
		f.Color = sparseimage.ColorRGBAUByte
	case session.ColorRGBAFloat:
		f.Color = sparseimage.ColorRGBAFloat
	default:
		f.Color = sparseimage.ColorNone
	}
	switch o.DepthFormat {
	case session.DepthFloat32:
		f.Depth = sparseimage.DepthFloat32
	default:
		f.Depth = sparseimage.DepthNone
	}
	switch o.CompositeMode {
	case session.CompositeBlend:
		f.Composite = sparseimage.CompositeBlend
	default:
		f.Composite = sparseimage.CompositeZLess
	}
	return f
}

func sequence(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

func toTopology(o *session.Options) reduce.Topology {
	return reduce.Topology{
		NumProcesses:   o.NumProcesses,
		NumTiles:       o.NumTiles,
		DisplayNode:    o.DisplayNodes,
		ContribCount:   o.TileContribCounts,
		ContainsTile:   o.AllContainedTilesMasks,
		Ordered:        o.OrderedComposite,
		CompositeOrder: o.CompositeOrder,
	}
}

// Compose drives a single-tile compose: the whole process group
// composites dense directly via radixk, with no delegation step. It
// returns the caller's disjoint sparse partition of the composited
// image and that partition's offset.
func Compose(ctx context.Context, tr transport.Transport, state *scratch.State, opts *session.Options, dense *sparseimage.DenseImage) (*sparseimage.SparseImage, int, error) {
	if err := opts.Validate(); err != nil {
		return nil, 0, err
	}
	if err := state.Begin(); err != nil {
		return nil, 0, err
	}
	defer state.End()

	diagSession := diag.NewSession()
	input, err := sparseimage.Compress(dense)
	if err != nil {
		return nil, 0, diagSession.RaiseError(diag.SanityCheckFailure, "compress failed", "err", err.Error())
	}

	cfg := radixk.Config{MagicK: opts.MagicK, Interlace: opts.InterlaceImages}
	group := sequence(opts.NumProcesses)
	imageDest := 0
	if len(opts.DisplayNodes) > 0 {
		imageDest = opts.DisplayNodes[0]
	}
	return radixk.Compose(ctx, tr, state, cfg, group, opts.Rank, imageDest, input, diagSession)
}

// TileResult is ComposeTile's output: the assembled dense tile image
// (populated for every member of the tile's compose-group, since
// collection is an allgather) and whether the caller is that tile's
// designated display process.
type TileResult struct {
	Dense     *sparseimage.DenseImage
	IsDisplay bool
}

// ComposeTile drives one tile's worth of the Reduce strategy for the
// caller: delegate to find this process's role, forward this process's
// contribution if it was seated outside the tile's compose-group, fold
// in contributions forwarded to it otherwise, run radixk across the
// tile's compose-group, and collect the composited pieces into a dense
// tile image. dense must cover the tile's full pixel range with the
// same width/height at every process that calls ComposeTile for this
// tile (processes with nothing to contribute pass an all-background
// dense image so every participant's input has the same pixel count).
//
// ComposeTile returns ErrNotParticipating if the caller neither
// contributes to tile nor was seated in its compose-group — callers
// should simply not invoke it for such tiles.
func ComposeTile(ctx context.Context, tr transport.Transport, state *scratch.State, opts *session.Options, tile int, dense *sparseimage.DenseImage) (*TileResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if tile < 0 || tile >= opts.NumTiles {
		return nil, fmt.Errorf("sortlast: tile %d out of range [0, %d)", tile, opts.NumTiles)
	}
	if err := state.Begin(); err != nil {
		return nil, err
	}
	defer state.End()

	diagSession := diag.NewSession()
	top := toTopology(opts)

	plan, err := reduce.Delegate(top, opts.Rank)
	if err != nil {
		return nil, diagSession.RaiseError(diag.SanityCheckFailure, "delegation failed", "err", err.Error())
	}

	dest, contributes := plan.SendDest[tile]
	if plan.ComposeTile != tile {
		if !contributes {
			return nil, ErrNotParticipating
		}
		input, err := sparseimage.Compress(dense)
		if err != nil {
			return nil, diagSession.RaiseError(diag.SanityCheckFailure, "compress failed", "err", err.Error())
		}
		blob := sparseimage.PackageForSend(input)
		if err := tr.Send(ctx, blob, dest, tileContribTag(tile)); err != nil {
			return nil, diagSession.RaiseError(diag.TransportFailure, "contribution send failed", "err", err.Error())
		}
		return nil, nil
	}

	merged, err := sparseimage.Compress(dense)
	if err != nil {
		return nil, diagSession.RaiseError(diag.SanityCheckFailure, "compress failed", "err", err.Error())
	}

	incoming, err := reduce.IncomingFor(top, tile, opts.Rank)
	if err != nil {
		return nil, diagSession.RaiseError(diag.SanityCheckFailure, "incoming-for failed", "err", err.Error())
	}

	n := dense.NumPixels()
	recvLen := sparseimage.MaxBufferSize(n)
	for _, peer := range incoming {
		// Sequential: each peer's receive is waited on before the next
		// is issued, so one reused RecvSlot region is safe here unlike
		// radixk.Compose's round loop, which needs k-1 live at once.
		buf := state.GetStateBuffer(scratch.RecvSlot, recvLen)
		req, err := tr.Irecv(ctx, buf, peer, tileContribTag(tile))
		if err != nil {
			return nil, diagSession.RaiseError(diag.TransportFailure, "irecv failed", "err", err.Error())
		}
		if err := tr.WaitAll(ctx, []transport.Request{req}); err != nil {
			return nil, diagSession.RaiseError(diag.TransportFailure, "wait failed", "err", err.Error())
		}
		got, err := sparseimage.UnpackageFromReceive(buf)
		if err != nil {
			return nil, diagSession.RaiseError(diag.FormatMismatch, "unpackage failed", "err", err.Error())
		}
		if got.PixelCount != merged.PixelCount {
			return nil, diagSession.RaiseError(diag.FormatMismatch, "contribution pixel count mismatch", "want", merged.PixelCount, "got", got.PixelCount)
		}
		merged, err = sparseimage.Composite(merged, got)
		if err != nil {
			return nil, diagSession.RaiseError(diag.SanityCheckFailure, "composite failed", "err", err.Error())
		}
	}

	cfg := radixk.Config{MagicK: opts.MagicK, Interlace: opts.InterlaceImages}
	piece, pieceOffset, err := radixk.Compose(ctx, tr, state, cfg, plan.ComposeGroup, opts.Rank, plan.GroupImageDest, merged, diagSession)
	if err != nil {
		return nil, err
	}

	collected, err := gatherPieces(ctx, tr, plan.ComposeGroup, piece, pieceOffset)
	if err != nil {
		return nil, diagSession.RaiseError(diag.TransportFailure, "gather failed", "err", err.Error())
	}

	out := assembleDense(dense.Format, n, dense.Width, dense.Height, collected)
	return &TileResult{Dense: out, IsDisplay: opts.DisplayNodes[tile] == opts.Rank}, nil
}

func tileContribTag(tile int) int {
	return 0x5245 + tile
}

type collectedPiece struct {
	offset int
	image  *sparseimage.SparseImage
}

// gatherPieces exchanges every group member's (offset, piece) pair with
// every other group member via an allgather, so any member (in
// practice, the tile's display process) can assemble the full dense
// tile image.
func gatherPieces(ctx context.Context, tr transport.Transport, group []int, piece *sparseimage.SparseImage, offset int) ([]collectedPiece, error) {
	blob := sparseimage.PackageForSend(piece)
	payload := make([]byte, 4+len(blob))
	binary.LittleEndian.PutUint32(payload[:4], uint32(offset))
	copy(payload[4:], blob)

	raw, err := tr.Gather(ctx, group, payload)
	if err != nil {
		return nil, err
	}
	out := make([]collectedPiece, len(raw))
	for i, r := range raw {
		off := int(binary.LittleEndian.Uint32(r[:4]))
		img, err := sparseimage.UnpackageFromReceive(r[4:])
		if err != nil {
			return nil, err
		}
		out[i] = collectedPiece{offset: off, image: img}
	}
	return out, nil
}

func assembleDense(format sparseimage.Format, n, width, height int, pieces []collectedPiece) *sparseimage.DenseImage {
	out := &sparseimage.DenseImage{Width: width, Height: height, Format: format}
	if format.Color != sparseimage.ColorNone {
		out.Color = make([]byte, n*format.Color.BytesPerPixel())
	}
	if format.Depth != sparseimage.DepthNone {
		out.Depth = make([]byte, n*format.Depth.BytesPerPixel())
	}
	for _, p := range pieces {
		d := sparseimage.ToDense(p.image)
		if len(d.Color) > 0 {
			copy(out.Color[p.offset*format.Color.BytesPerPixel():], d.Color)
		}
		if len(d.Depth) > 0 {
			copy(out.Depth[p.offset*format.Depth.BytesPerPixel():], d.Depth)
		}
	}
	return out
}
