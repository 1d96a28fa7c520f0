package sparseimage

import "fmt"

// Compress emits the run-length form of dense, per spec §4.1: pixels are
// "inactive" under the rule in isInactive, else active. Color and depth
// values are preserved bit-exactly for active pixels.
func Compress(dense *DenseImage) (*SparseImage, error) {
	if err := dense.Validate(); err != nil {
		return nil, fmt.Errorf("sparseimage: compress: %w", err)
	}
	return compressRange(dense, 0, dense.NumPixels())
}

// CompressSub compresses the pixel range [offset, offset+n) of dense.
func CompressSub(dense *DenseImage, offset, n int) (*SparseImage, error) {
	if err := dense.Validate(); err != nil {
		return nil, fmt.Errorf("sparseimage: compress_sub: %w", err)
	}
	if offset < 0 || n < 0 || offset+n > dense.NumPixels() {
		return nil, fmt.Errorf("sparseimage: compress_sub: range [%d,%d) out of bounds for %d pixels", offset, offset+n, dense.NumPixels())
	}
	return compressRange(dense, offset, n)
}

func compressRange(dense *DenseImage, offset, n int) (*SparseImage, error) {
	format := dense.Format
	pixelSize := format.PixelSize()
	b := newRunBuilder(format, n)
	acc := b.newAccumulator()
	pixel := make([]byte, pixelSize)
	for i := offset; i < offset+n; i++ {
		if isInactive(dense, i) {
			acc.addInactive()
			continue
		}
		encodePixel(dense, i, pixel)
		acc.addActive(pixel)
	}
	acc.finish()
	return finalize(format, dense.Width, dense.Height, n, b), nil
}

// ToDense decodes a SparseImage into a dense raster of the same pixel
// count, one row tall (width=pixelcount, height=1). Inactive pixels get
// zero color; under z-less composite their depth is the far plane
// (maxDepth), otherwise zero. This is primarily a test and debugging
// aid: production paths stay in sparse form end to end.
func ToDense(s *SparseImage) *DenseImage {
	dense := &DenseImage{
		Width:  s.PixelCount,
		Height: 1,
		Format: s.Format,
		Color:  make([]byte, s.PixelCount*s.Format.Color.BytesPerPixel()),
		Depth:  make([]byte, s.PixelCount*s.Format.Depth.BytesPerPixel()),
	}
	if s.Format.Composite == CompositeZLess && s.Format.Depth == DepthFloat32 {
		for i := 0; i < s.PixelCount; i++ {
			encodeFloat32(dense.Depth[i*4:i*4+4], maxDepth)
		}
	}
	idx := 0
	it := s.Runs()
	for {
		run, ok := it.Next()
		if !ok {
			break
		}
		idx += run.Inactive
		pixelSize := s.Format.PixelSize()
		for p := 0; p < run.Active; p++ {
			decodePixelInto(dense, idx, run.Pixels[p*pixelSize:(p+1)*pixelSize])
			idx++
		}
	}
	return dense
}

// CompositeSub composites sparseIn into the pixel subrange of dense
// starting at offset, using either source-on-top (sparseIn wins on
// active pixels) or dest-on-top (dense wins) orientation. This is the
// older non-tree composite path named in spec §4.1 / §9 Open Question 3;
// it exists for interface completeness. Production callers use the
// Radix-k composite tree (package radixk) via Composite instead.
type Orientation uint8

const (
	SourceOnTop Orientation = iota
	DestOnTop
)

func CompositeSub(dense *DenseImage, offset int, sparseIn *SparseImage, orientation Orientation) error {
	if sparseIn.Format != dense.Format {
		return fmt.Errorf("sparseimage: composite_sub: format mismatch")
	}
	if offset < 0 || offset+sparseIn.PixelCount > dense.NumPixels() {
		return fmt.Errorf("sparseimage: composite_sub: range [%d,%d) out of bounds for %d pixels", offset, offset+sparseIn.PixelCount, dense.NumPixels())
	}
	idx := offset
	it := sparseIn.Runs()
	pixelSize := sparseIn.Format.PixelSize()
	for {
		run, ok := it.Next()
		if !ok {
			break
		}
		idx += run.Inactive
		for p := 0; p < run.Active; p++ {
			rec := run.Pixels[p*pixelSize : (p+1)*pixelSize]
			if orientation == SourceOnTop || isInactive(dense, idx) {
				decodePixelInto(dense, idx, rec)
			}
			idx++
		}
	}
	return nil
}
