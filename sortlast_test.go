package sortlast

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/deepteams/sortlast/scratch"
	"github.com/deepteams/sortlast/session"
	"github.com/deepteams/sortlast/sparseimage"
	"github.com/deepteams/sortlast/transport/memtransport"
)

func denseFor(width int, color byte, depth float32) *sparseimage.DenseImage {
	format := sparseimage.Format{Color: sparseimage.ColorRGBAUByte, Depth: sparseimage.DepthFloat32, Composite: sparseimage.CompositeZLess}
	d := &sparseimage.DenseImage{Width: width, Height: 1, Format: format, Color: make([]byte, width*4), Depth: make([]byte, width*4)}
	for i := 0; i < width; i++ {
		d.Color[i*4] = color
		d.Color[i*4+3] = 255
		binary.LittleEndian.PutUint32(d.Depth[i*4:i*4+4], math.Float32bits(depth))
	}
	return d
}

func TestComposeSingleTileTwoProcesses(t *testing.T) {
	const n = 8
	opts := session.DefaultOptions()
	opts.NumProcesses = 2
	opts.DisplayNodes = []int{0}
	opts.TileContribCounts = []int{2}

	hub := memtransport.NewHub(2)

	denses := []*sparseimage.DenseImage{denseFor(n, 10, 0), denseFor(n, 20, 0)}

	results := make([]*sparseimage.SparseImage, 2)
	offsets := make([]int, 2)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 2; i++ {
		i := i
		g.Go(func() error {
			o := *opts
			o.Rank = i
			r, off, err := Compose(ctx, hub.Rank(i), scratch.NewState(), &o, denses[i])
			results[i] = r
			offsets[i] = off
			return err
		})
	}
	require.NoError(t, g.Wait())

	total := 0
	for _, r := range results {
		total += r.PixelCount
	}
	require.Equal(t, n, total)
}
