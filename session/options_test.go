package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultOptionsValidates(t *testing.T) {
	o := DefaultOptions()
	o.DisplayNodes = []int{0}
	o.TileContribCounts = []int{1}
	require.NoError(t, o.Validate())
}

func TestValidateRejectsZBufferWithoutDepth(t *testing.T) {
	o := DefaultOptions()
	o.DepthFormat = DepthNone
	o.DisplayNodes = []int{0}
	o.TileContribCounts = []int{1}
	require.Error(t, o.Validate())
}

func TestValidateRejectsBlendWithoutColor(t *testing.T) {
	o := DefaultOptions()
	o.CompositeMode = CompositeBlend
	o.ColorFormat = ColorNone
	o.DisplayNodes = []int{0}
	o.TileContribCounts = []int{1}
	require.Error(t, o.Validate())
}

func TestValidateRejectsBadRank(t *testing.T) {
	o := DefaultOptions()
	o.DisplayNodes = []int{0}
	o.TileContribCounts = []int{1}
	o.Rank = 5
	require.Error(t, o.Validate())
}

func TestValidateRejectsMismatchedTopologyLengths(t *testing.T) {
	o := DefaultOptions()
	o.NumTiles = 2
	o.DisplayNodes = []int{0}
	o.TileContribCounts = []int{1}
	require.Error(t, o.Validate())
}

func TestValidateOrderedRequiresPermutation(t *testing.T) {
	o := DefaultOptions()
	o.NumProcesses = 3
	o.DisplayNodes = []int{0}
	o.TileContribCounts = []int{1}
	o.OrderedComposite = true
	o.CompositeOrder = []int{0, 1}
	require.Error(t, o.Validate())

	o.CompositeOrder = []int{2, 0, 1}
	require.NoError(t, o.Validate())
}
