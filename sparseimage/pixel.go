package sparseimage

// encodePixel writes dense's pixel i into dst (which must be exactly
// format.PixelSize() bytes) as color bytes followed by depth bytes,
// per the "Active pixel records are (color? ++ depth?) packed
// contiguously" rule in spec §3.
func encodePixel(dense *DenseImage, i int, dst []byte) {
	format := dense.Format
	n := 0
	if cn := format.Color.BytesPerPixel(); cn > 0 {
		copy(dst[n:n+cn], dense.Color[i*cn:i*cn+cn])
		n += cn
	}
	if dn := format.Depth.BytesPerPixel(); dn > 0 {
		copy(dst[n:n+dn], dense.Depth[i*4:i*4+4])
		n += dn
	}
}

// decodePixelInto writes one active pixel record from src into dense at
// pixel index i, the inverse of encodePixel.
func decodePixelInto(dense *DenseImage, i int, src []byte) {
	format := dense.Format
	n := 0
	if cn := format.Color.BytesPerPixel(); cn > 0 {
		copy(dense.Color[i*cn:i*cn+cn], src[n:n+cn])
		n += cn
	}
	if dn := format.Depth.BytesPerPixel(); dn > 0 {
		copy(dense.Depth[i*4:i*4+4], src[n:n+dn])
		n += dn
	}
}

// isInactive implements the activity rule from spec §4.1 Compress: a
// pixel is inactive if depth-test compositing is in use and depth equals
// the far plane (maxDepth, 1.0), or if blend compositing is in use and
// alpha is zero; otherwise it is active.
func isInactive(dense *DenseImage, i int) bool {
	switch dense.Format.Composite {
	case CompositeZLess:
		return dense.depthAt(i) == maxDepth
	case CompositeBlend:
		return dense.alphaAt(i) == 0
	default:
		return false
	}
}

// maxDepth is the far-plane sentinel depth value (spec §4.1: "depth ==
// max"). 1.0 is the conventional normalized far plane.
const maxDepth = float32(1.0)
