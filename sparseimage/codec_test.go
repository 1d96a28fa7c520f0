package sparseimage

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeDense(t *testing.T, n int, composite CompositeMode, activeEvery int) *DenseImage {
	t.Helper()
	format := Format{Color: ColorRGBAUByte, Depth: DepthFloat32, Composite: composite}
	d := &DenseImage{
		Width: n, Height: 1, Format: format,
		Color: make([]byte, n*4),
		Depth: make([]byte, n*4),
	}
	for i := 0; i < n; i++ {
		active := activeEvery <= 0 || i%activeEvery == 0
		if active {
			d.Color[i*4+0] = byte(i)
			d.Color[i*4+1] = byte(i * 2)
			d.Color[i*4+2] = byte(i * 3)
			d.Color[i*4+3] = 255
			encodeFloat32(d.Depth[i*4:i*4+4], float32(i)/float32(n))
		} else {
			switch composite {
			case CompositeZLess:
				encodeFloat32(d.Depth[i*4:i*4+4], maxDepth)
			case CompositeBlend:
				d.Color[i*4+3] = 0
			}
		}
	}
	return d
}

func TestCompressRoundTrip(t *testing.T) {
	d := makeDense(t, 37, CompositeZLess, 3)
	s, err := Compress(d)
	require.NoError(t, err)
	require.Equal(t, 37, s.PixelCount)

	got := ToDense(s)
	require.Equal(t, d.Color, got.Color)
	require.Equal(t, d.Depth, got.Depth)
}

func TestCompressFullyActive(t *testing.T) {
	d := makeDense(t, 16, CompositeZLess, 1)
	s, err := Compress(d)
	require.NoError(t, err)
	require.Equal(t, 16, s.ActiveCount)
}

func TestBufferSizeBounds(t *testing.T) {
	format := Format{Color: ColorRGBAUByte, Depth: DepthFloat32, Composite: CompositeZLess}
	for n := 0; n < 200; n += 7 {
		require.LessOrEqual(t, BufferSize(format, n), MaxBufferSize(n))
	}
}

func TestCompressSizeWorstCases(t *testing.T) {
	format := Format{Color: ColorRGBAUByte, Depth: DepthFloat32, Composite: CompositeZLess}
	pixelSize := format.PixelSize()

	// Every other pixel active: encoded size >= pixelSize * N/2.
	n := 100
	d := makeDense(t, n, CompositeZLess, 2)
	s, err := Compress(d)
	require.NoError(t, err)
	require.GreaterOrEqual(t, s.ByteLen(), pixelSize*(n/2))
	require.LessOrEqual(t, s.ByteLen(), BufferSize(format, n))

	// Fully active.
	dFull := makeDense(t, n, CompositeZLess, 1)
	sFull, err := Compress(dFull)
	require.NoError(t, err)
	require.GreaterOrEqual(t, sFull.ByteLen(), pixelSize*n)
	require.Equal(t, BufferSize(format, n), sFull.ByteLen())

	// N=0.
	dEmpty := &DenseImage{Width: 0, Height: 1, Format: format}
	sEmpty, err := Compress(dEmpty)
	require.NoError(t, err)
	require.LessOrEqual(t, sEmpty.ByteLen(), BufferSize(format, 0))
}

func TestCompressSub(t *testing.T) {
	d := makeDense(t, 20, CompositeZLess, 4)
	sub, err := CompressSub(d, 5, 10)
	require.NoError(t, err)
	require.Equal(t, 10, sub.PixelCount)
	got := ToDense(sub)
	require.Equal(t, d.Color[5*4:15*4], got.Color)
}

func TestWireRoundTrip(t *testing.T) {
	d := makeDense(t, 12, CompositeBlend, 3)
	s, err := Compress(d)
	require.NoError(t, err)
	blob := PackageForSend(s)
	got, err := UnpackageFromReceive(blob)
	require.NoError(t, err)
	require.Equal(t, s.Format, got.Format)
	require.Equal(t, s.PixelCount, got.PixelCount)
	require.Equal(t, s.ActiveCount, got.ActiveCount)
	require.Equal(t, ToDense(s).Color, ToDense(got).Color)
}

func TestUnpackageBadMagic(t *testing.T) {
	_, err := UnpackageFromReceive(make([]byte, 24))
	require.Error(t, err)
}

func TestCompositeZLessAssociative(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	n := 50
	format := Format{Color: ColorRGBAUByte, Depth: DepthFloat32, Composite: CompositeZLess}
	mk := func() *DenseImage {
		d := &DenseImage{Width: n, Height: 1, Format: format, Color: make([]byte, n*4), Depth: make([]byte, n*4)}
		for i := 0; i < n; i++ {
			if r.Intn(3) == 0 {
				encodeFloat32(d.Depth[i*4:i*4+4], maxDepth)
				continue
			}
			d.Color[i*4] = byte(r.Intn(256))
			encodeFloat32(d.Depth[i*4:i*4+4], r.Float32())
		}
		return d
	}
	a, b, c := mk(), mk(), mk()
	sa, _ := Compress(a)
	sb, _ := Compress(b)
	sc, _ := Compress(c)

	ab, err := Composite(sa, sb)
	require.NoError(t, err)
	abThenC, err := Composite(ab, sc)
	require.NoError(t, err)

	bc, err := Composite(sb, sc)
	require.NoError(t, err)
	aThenBC, err := Composite(sa, bc)
	require.NoError(t, err)

	require.Equal(t, ToDense(abThenC).Depth, ToDense(aThenBC).Depth)
	require.Equal(t, ToDense(abThenC).Color, ToDense(aThenBC).Color)
}

func TestSplitCoverageAndReconstruct(t *testing.T) {
	d := makeDense(t, 23, CompositeZLess, 3)
	s, err := Compress(d)
	require.NoError(t, err)

	pieces, offsets, err := Split(s, 0, 5, 5)
	require.NoError(t, err)
	require.Len(t, pieces, 5)

	total := 0
	for i, p := range pieces {
		require.Equal(t, offsets[i], total)
		total += p.PixelCount
	}
	require.Equal(t, 23, total)

	// sizes differ by at most 1
	min, max := pieces[0].PixelCount, pieces[0].PixelCount
	for _, p := range pieces {
		if p.PixelCount < min {
			min = p.PixelCount
		}
		if p.PixelCount > max {
			max = p.PixelCount
		}
	}
	require.LessOrEqual(t, max-min, 1)

	// reconstruct by concatenating decoded dense color bytes
	var gotColor []byte
	for _, p := range pieces {
		gotColor = append(gotColor, ToDense(p).Color...)
	}
	require.Equal(t, d.Color, gotColor)
}

func TestInterlaceInvertibility(t *testing.T) {
	groups := 4
	n := 17
	for g := 0; g < groups; g++ {
		off := InterlaceOffset(g, groups, n)
		require.Equal(t, g, off)
	}
}

func TestCompositeSub(t *testing.T) {
	base := makeDense(t, 10, CompositeZLess, 0)
	overlay := makeDense(t, 4, CompositeZLess, 2)
	sOverlay, err := Compress(overlay)
	require.NoError(t, err)

	err = CompositeSub(base, 3, sOverlay, SourceOnTop)
	require.NoError(t, err)

	// overlay pixel 0 (active) should have overwritten base pixel 3.
	require.Equal(t, overlay.Color[0:4], base.Color[3*4:4*4])
	// overlay pixel 1 (inactive) should leave base pixel 4 untouched.
	require.NotEqual(t, overlay.Color[4:8], base.Color[4*4:5*4])
}

func TestInterlaceThenSplitRoundRobin(t *testing.T) {
	n := 16
	groups := 4
	d := makeDense(t, n, CompositeZLess, 1)
	s, err := Compress(d)
	require.NoError(t, err)

	il, err := Interlace(s, groups)
	require.NoError(t, err)
	pieces, _, err := Split(il, 0, groups, groups)
	require.NoError(t, err)

	for g, p := range pieces {
		gd := ToDense(p)
		for j := 0; j < p.PixelCount; j++ {
			srcIdx := InterlaceOffset(g, groups, n) + j*groups
			require.Equal(t, d.Color[srcIdx*4:srcIdx*4+4], gd.Color[j*4:j*4+4])
		}
	}
}
