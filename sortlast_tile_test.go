package sortlast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/deepteams/sortlast/scratch"
	"github.com/deepteams/sortlast/session"
	"github.com/deepteams/sortlast/sparseimage"
	"github.com/deepteams/sortlast/transport/memtransport"
)

func TestComposeTileTwoTilesFourProcesses(t *testing.T) {
	const n = 8
	opts := session.DefaultOptions()
	opts.NumProcesses = 4
	opts.NumTiles = 2
	opts.DisplayNodes = []int{0, 2}
	opts.TileContribCounts = []int{2, 2}
	opts.AllContainedTilesMasks = [][]bool{
		{true, false},
		{true, false},
		{false, true},
		{false, true},
	}

	hub := memtransport.NewHub(opts.NumProcesses)
	tileOf := []int{0, 0, 1, 1}
	denses := []*sparseimage.DenseImage{
		denseFor(n, 10, 0),
		denseFor(n, 20, 0),
		denseFor(n, 30, 0),
		denseFor(n, 40, 0),
	}

	results := make([]*TileResult, opts.NumProcesses)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < opts.NumProcesses; i++ {
		i := i
		g.Go(func() error {
			o := *opts
			o.Rank = i
			r, err := ComposeTile(ctx, hub.Rank(i), scratch.NewState(), &o, tileOf[i], denses[i])
			results[i] = r
			return err
		})
	}
	require.NoError(t, g.Wait())

	require.True(t, results[0].IsDisplay)
	require.False(t, results[1].IsDisplay)
	require.True(t, results[2].IsDisplay)
	require.False(t, results[3].IsDisplay)

	for i := 0; i < 2; i++ {
		require.Equal(t, n, results[i].Dense.NumPixels())
	}
	for i := 2; i < 4; i++ {
		require.Equal(t, n, results[i].Dense.NumPixels())
	}
}
