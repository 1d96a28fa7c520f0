package radixk

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepteams/sortlast/sparseimage"
)

func pieceWithDepth(t *testing.T, depth float32) *sparseimage.SparseImage {
	t.Helper()
	format := sparseimage.Format{Color: sparseimage.ColorRGBAUByte, Depth: sparseimage.DepthFloat32, Composite: sparseimage.CompositeZLess}
	d := &sparseimage.DenseImage{Width: 1, Height: 1, Format: format, Color: make([]byte, 4), Depth: make([]byte, 4)}
	d.Color[0] = byte(depth * 255)
	d.Color[3] = 255
	binary.LittleEndian.PutUint32(d.Depth, math.Float32bits(depth))
	s, err := sparseimage.Compress(d)
	require.NoError(t, err)
	return s
}

func TestCompositeTreeFourArrivalsOutOfOrder(t *testing.T) {
	tr := newCompositeTree(4)

	p0 := pieceWithDepth(t, 0.9)
	p1 := pieceWithDepth(t, 0.1)
	p2 := pieceWithDepth(t, 0.5)
	p3 := pieceWithDepth(t, 0.7)

	_, done, err := tr.arrive(2, p2)
	require.NoError(t, err)
	require.False(t, done)

	_, done, err = tr.arrive(0, p0)
	require.NoError(t, err)
	require.False(t, done)

	_, done, err = tr.arrive(3, p3)
	require.NoError(t, err)
	require.False(t, done)

	final, done, err := tr.arrive(1, p1)
	require.NoError(t, err)
	require.True(t, done)
	require.NotNil(t, final)

	got := sparseimage.ToDense(final)
	require.Equal(t, sparseimage.ToDense(p1).Color[0], got.Color[0])
}

func TestCompositeTreeTwoArrivals(t *testing.T) {
	tr := newCompositeTree(2)
	p0 := pieceWithDepth(t, 0.5)
	p1 := pieceWithDepth(t, 0.2)

	_, done, err := tr.arrive(1, p1)
	require.NoError(t, err)
	require.False(t, done)

	final, done, err := tr.arrive(0, p0)
	require.NoError(t, err)
	require.True(t, done)
	got := sparseimage.ToDense(final)
	require.Equal(t, byte(0.2*255), got.Color[0])
}
