package sparseimage

import "fmt"

// Composite produces out such that for every pixel i,
// out[i] = C(a[i], b[i]) under a's declared composite operator (spec
// §3/§4.1). a and b must cover the same pixel range with equal pixel
// count and identical format. Inactive in both inputs is inactive in
// out. out is a newly allocated image; a and b are not modified.
//
// For CompositeZLess the argument order is immaterial beyond tie
// resolution (a wins exact ties). For CompositeBlend, a is the operand
// nearer the viewer: out = a "over" b. Callers that need a specific
// front-to-back order (ORDERED_COMPOSITE) are responsible for calling
// Composite with operands in that order; see radixk's composite tree,
// which threads "front" (lower partner index) in as a.
func Composite(a, b *SparseImage) (*SparseImage, error) {
	if a.Format != b.Format {
		return nil, fmt.Errorf("sparseimage: composite: format mismatch (%+v vs %+v)", a.Format, b.Format)
	}
	if a.PixelCount != b.PixelCount {
		return nil, fmt.Errorf("sparseimage: composite: pixel count mismatch (%d vs %d)", a.PixelCount, b.PixelCount)
	}
	format := a.Format
	pixelSize := format.PixelSize()
	builder := newRunBuilder(format, a.PixelCount)
	acc := builder.newAccumulator()

	ca := newPixelCursor(a)
	cb := newPixelCursor(b)
	out := make([]byte, pixelSize)
	for i := 0; i < a.PixelCount; i++ {
		activeA, pixA := ca.next()
		activeB, pixB := cb.next()
		switch {
		case !activeA && !activeB:
			acc.addInactive()
		case activeA && !activeB:
			acc.addActive(pixA)
		case !activeA && activeB:
			acc.addActive(pixB)
		default:
			combine(format, pixA, pixB, out)
			acc.addActive(out)
		}
	}
	acc.finish()
	return finalize(format, a.Width, a.Height, a.PixelCount, builder), nil
}

// combine implements C(a,b) over two raw pixel records of the same
// format, writing the result into dst (which may alias neither a nor b).
func combine(format Format, a, b, dst []byte) {
	switch format.Composite {
	case CompositeZLess:
		combineZLess(format, a, b, dst)
	case CompositeBlend:
		combineBlend(format, a, b, dst)
	default:
		copy(dst, a)
	}
}

func combineZLess(format Format, a, b, dst []byte) {
	colorBytes := format.Color.BytesPerPixel()
	da := decodeFloat32(a[colorBytes : colorBytes+4])
	db := decodeFloat32(b[colorBytes : colorBytes+4])
	// Ties favor the first operand (spec §4.1: strict < with ties
	// resolved stably in favor of a), so the equal case must stay on
	// the copy(dst, a) branch rather than falling through to b.
	if da <= db {
		copy(dst, a)
	} else {
		copy(dst, b)
	}
}

// combineBlend performs source-over alpha blending with a as the source
// (drawn on top) and b as the destination, using straight (non-
// premultiplied) alpha, as documented for the session-wide blend mode
// (spec §4.1 Numerics: "the implementation must document which and apply
// it consistently").
func combineBlend(format Format, a, b, dst []byte) {
	ra, ga, ba, aa := unpackColor(format.Color, a)
	rb, gb, bb, ab := unpackColor(format.Color, b)
	outA := aa + ab*(1-aa)
	var r, g, bch float64
	if outA > 0 {
		r = (ra*aa + rb*ab*(1-aa)) / outA
		g = (ga*aa + gb*ab*(1-aa)) / outA
		bch = (ba*aa + bb*ab*(1-aa)) / outA
	}
	packColor(format.Color, dst, r, g, bch, outA)
	if format.Depth != DepthNone {
		colorBytes := format.Color.BytesPerPixel()
		// Blend mode has no z-test; keep the nearer (source) depth so a
		// later z-less pass over already-blended data stays meaningful.
		copy(dst[colorBytes:colorBytes+4], a[colorBytes:colorBytes+4])
	}
}

// unpackColor decodes r,g,b,a each scaled to [0,1].
func unpackColor(cf ColorFormat, rec []byte) (r, g, b, a float64) {
	switch cf {
	case ColorRGBAUByte:
		return float64(rec[0]) / 255, float64(rec[1]) / 255, float64(rec[2]) / 255, float64(rec[3]) / 255
	case ColorRGBAFloat:
		return float64(decodeFloat32(rec[0:4])), float64(decodeFloat32(rec[4:8])), float64(decodeFloat32(rec[8:12])), float64(decodeFloat32(rec[12:16]))
	default:
		return 0, 0, 0, 1
	}
}

func packColor(cf ColorFormat, dst []byte, r, g, b, a float64) {
	switch cf {
	case ColorRGBAUByte:
		dst[0] = clampByte(r * 255)
		dst[1] = clampByte(g * 255)
		dst[2] = clampByte(b * 255)
		dst[3] = clampByte(a * 255)
	case ColorRGBAFloat:
		encodeFloat32(dst[0:4], float32(r))
		encodeFloat32(dst[4:8], float32(g))
		encodeFloat32(dst[8:12], float32(b))
		encodeFloat32(dst[12:16], float32(a))
	}
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v + 0.5)
}
