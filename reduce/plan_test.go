package reduce

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func maskFor(p, numTiles int, tiles ...int) []bool {
	m := make([]bool, numTiles)
	for _, t := range tiles {
		m[t] = true
	}
	_ = p
	return m
}

func TestQuotaSumsToProcessCount(t *testing.T) {
	top := Topology{
		NumProcesses: 8,
		NumTiles:     3,
		DisplayNode:  []int{0, 1, 2},
		ContribCount: []int{6, 2, 8},
	}
	q := ComputeQuota(top)
	q = Rebalance(top, q)

	sum := 0
	for _, v := range q {
		sum += v
	}
	require.Equal(t, top.NumProcesses, sum)
	require.GreaterOrEqual(t, q[2], 3)
}

func eightProcThreeTileTopology() Topology {
	// contributors: tile0 <- {0,1,2,3,4,5}; tile1 <- {6,7}; tile2 <- all 8
	contains := make([][]bool, 8)
	for p := 0; p < 8; p++ {
		var tiles []int
		if p < 6 {
			tiles = append(tiles, 0)
		}
		if p >= 6 {
			tiles = append(tiles, 1)
		}
		tiles = append(tiles, 2)
		contains[p] = maskFor(p, 3, tiles...)
	}
	return Topology{
		NumProcesses: 8,
		NumTiles:     3,
		DisplayNode:  []int{0, 6, 1},
		ContribCount: []int{6, 2, 8},
		ContainsTile: contains,
	}
}

func TestDelegationStressUnordered(t *testing.T) {
	top := eightProcThreeTileTopology()

	plans := make([]Plan, top.NumProcesses)
	for p := 0; p < top.NumProcesses; p++ {
		plan, err := Delegate(top, p)
		require.NoError(t, err)
		plans[p] = plan
	}

	seatedTile := make([]int, top.NumProcesses)
	for p, pl := range plans {
		seatedTile[p] = pl.ComposeTile
		require.NotEqual(t, -1, pl.ComposeTile, "process %d must be seated", p)
	}

	// every contributor's send destination is a process seated in that
	// same tile's compose-group (spec §4.3 invariant).
	for _, pl := range plans {
		for tile, dest := range pl.SendDest {
			require.Equal(t, tile, plans[dest].ComposeTile)
		}
	}
}

// SeatProcesses does not consult CompositeOrder, so the contributors
// seated in a tile are not necessarily contiguous in composite order.
// This checks that every process is seated and that GroupImageDest
// indexes into its compose-group.
func TestDelegationOrderedModeSeatsEveryProcess(t *testing.T) {
	top := eightProcThreeTileTopology()
	top.Ordered = true
	top.CompositeOrder = []int{7, 6, 5, 4, 3, 2, 1, 0}

	for p := 0; p < top.NumProcesses; p++ {
		plan, err := Delegate(top, p)
		require.NoError(t, err)
		require.NotEqual(t, -1, plan.ComposeTile)
		require.GreaterOrEqual(t, plan.GroupImageDest, 0)
		require.Less(t, plan.GroupImageDest, len(plan.ComposeGroup))
	}
}

func TestDisplayNodeSeatedInItsTileGroup(t *testing.T) {
	top := eightProcThreeTileTopology()
	for t := 0; t < top.NumTiles; t++ {
		plan, err := Delegate(top, top.DisplayNode[t])
		require.NoError(t, err)
		require.Contains(t, plan.ComposeGroup, top.DisplayNode[t])
	}
}
