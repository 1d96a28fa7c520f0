package sparseimage

import (
	"encoding/binary"
	"fmt"
)

// Wire header layout (all fields little-endian), resolving spec §9's open
// question about a concrete, bit-exact on-the-wire representation:
//
//	offset  size  field
//	0       4     magic (wireMagic)
//	4       1     color format id
//	5       1     depth format id
//	6       1     composite mode id
//	7       1     reserved (zero)
//	8       4     width
//	12      4     height
//	16      4     pixel count (N)
//	20      4     active pixel count
//
// wireHeaderSize bytes total, followed immediately by the run-length body
// (see runs.go). The body alone is what buffer_size/max_buffer_size size
// beyond the header.
const wireHeaderSize = 24

// wireMagic identifies a buffer as a sparse-image payload, the way the
// teacher's container package uses FourCC values to tag RIFF chunks.
const wireMagic = 0x53504931 // "SPI1"

// SparseImage is a non-owning view over a byte buffer holding a
// self-describing, run-length-encoded partial image (spec §3). The buffer
// is exactly the byte sequence PackageForSend would hand to a transport
// and UnpackageFromReceive would parse back.
type SparseImage struct {
	Format      Format
	Width       int
	Height      int
	PixelCount  int
	ActiveCount int

	buf []byte
}

// Runs returns an iterator over the image's run-length body.
func (s *SparseImage) Runs() *RunIterator {
	return newRunIterator(s.buf[wireHeaderSize:], s.Format.PixelSize(), s.PixelCount)
}

// ByteLen returns the total wire size of the image, header included.
func (s *SparseImage) ByteLen() int {
	return len(s.buf)
}

func newSparseImage(format Format, width, height, pixelCount int, buf []byte, activeCount int) *SparseImage {
	return &SparseImage{
		Format:      format,
		Width:       width,
		Height:      height,
		PixelCount:  pixelCount,
		ActiveCount: activeCount,
		buf:         buf,
	}
}

// finalize writes the wire header in front of a runBuilder's accumulated
// body and wraps the result as a SparseImage view.
func finalize(format Format, width, height, pixelCount int, b *runBuilder) *SparseImage {
	out := make([]byte, wireHeaderSize+len(b.buf))
	writeHeader(out, format, width, height, pixelCount, b.activeCount)
	copy(out[wireHeaderSize:], b.buf)
	return newSparseImage(format, width, height, pixelCount, out, b.activeCount)
}

func writeHeader(dst []byte, format Format, width, height, pixelCount, activeCount int) {
	binary.LittleEndian.PutUint32(dst[0:4], wireMagic)
	dst[4] = byte(format.Color)
	dst[5] = byte(format.Depth)
	dst[6] = byte(format.Composite)
	dst[7] = 0
	binary.LittleEndian.PutUint32(dst[8:12], uint32(width))
	binary.LittleEndian.PutUint32(dst[12:16], uint32(height))
	binary.LittleEndian.PutUint32(dst[16:20], uint32(pixelCount))
	binary.LittleEndian.PutUint32(dst[20:24], uint32(activeCount))
}

// PackageForSend returns the on-the-wire byte slice for s, suitable for a
// transport's isend/send. The wire form is the in-memory form; no
// translation occurs at send time because the in-memory form is already
// the little-endian layout described at the top of wire.go.
func PackageForSend(s *SparseImage) []byte {
	return s.buf
}

// UnpackageFromReceive parses a byte blob received from a transport back
// into a SparseImage, validating the header's self-description.
func UnpackageFromReceive(data []byte) (*SparseImage, error) {
	if len(data) < wireHeaderSize {
		return nil, fmt.Errorf("sparseimage: buffer too short for header: %d bytes", len(data))
	}
	magic := binary.LittleEndian.Uint32(data[0:4])
	if magic != wireMagic {
		return nil, fmt.Errorf("sparseimage: bad magic %#x, want %#x", magic, wireMagic)
	}
	format := Format{
		Color:     ColorFormat(data[4]),
		Depth:     DepthFormat(data[5]),
		Composite: CompositeMode(data[6]),
	}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("sparseimage: unpackage: %w", err)
	}
	width := int(binary.LittleEndian.Uint32(data[8:12]))
	height := int(binary.LittleEndian.Uint32(data[12:16]))
	pixelCount := int(binary.LittleEndian.Uint32(data[16:20]))
	activeCount := int(binary.LittleEndian.Uint32(data[20:24]))
	return newSparseImage(format, width, height, pixelCount, data, activeCount), nil
}
