package sparseimage

import (
	"encoding/binary"
	"math"
)

// runHeaderSize is the byte size of one (inactiveCount, activeCount) pair
// that precedes each run's active pixel records.
const runHeaderSize = 8

func encodeFloat32(dst []byte, v float32) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
}

func decodeFloat32(src []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(src))
}

// BufferSize returns the exact byte size of a fully-active sparse image of
// n pixels under fmt: the wire header, one run header, and n pixel
// records. It bounds every encoding of n pixels only when a pixel record
// is at least runHeaderSize bytes; with smaller records an image that
// alternates active and inactive pixels encodes larger than this.
func BufferSize(format Format, n int) int {
	return wireHeaderSize + runHeaderSize + n*format.PixelSize()
}

// maxPixelSize is the largest possible PixelSize across all format
// combinations (RGBA_FLOAT color plus FLOAT depth).
const maxPixelSize = 16 + 4

// MaxBufferSize returns an upper bound on BufferSize across every format,
// for sizing buffers before a format is known or fixed.
func MaxBufferSize(n int) int {
	return wireHeaderSize + runHeaderSize + n*maxPixelSize
}

// runBuilder accumulates runs into a growing byte buffer in wire order:
// repeating (inactiveCount uint32 LE, activeCount uint32 LE, activeCount
// pixel records). Used by Compress, Composite, Split and Interlace to
// produce new SparseImage payloads without per-run allocation.
type runBuilder struct {
	buf         []byte
	activeCount int
	pixelSize   int
}

func newRunBuilder(format Format, capacityHint int) *runBuilder {
	b := &runBuilder{pixelSize: format.PixelSize()}
	b.buf = make([]byte, 0, BufferSize(format, capacityHint))
	return b
}

// pendingInactive accumulates consecutive inactive pixels not yet flushed
// as a run header; activePixels accumulates pixel bytes for the run
// currently being built.
type runAccumulator struct {
	b               *runBuilder
	pendingInactive int
	activePixels    []byte
	activeInRun     int
}

func (b *runBuilder) newAccumulator() *runAccumulator {
	return &runAccumulator{b: b}
}

func (a *runAccumulator) addInactive() {
	if a.activeInRun > 0 {
		a.flush()
	}
	a.pendingInactive++
}

func (a *runAccumulator) addActive(pixel []byte) {
	a.activePixels = append(a.activePixels, pixel...)
	a.activeInRun++
}

// flush closes out the current run (pendingInactive + activeInRun) by
// writing its header and pixel payload to the builder, then resets for
// the next run.
func (a *runAccumulator) flush() {
	if a.pendingInactive == 0 && a.activeInRun == 0 {
		return
	}
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(a.pendingInactive))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(a.activeInRun))
	a.b.buf = append(a.b.buf, hdr[:]...)
	a.b.buf = append(a.b.buf, a.activePixels...)
	a.b.activeCount += a.activeInRun
	a.pendingInactive = 0
	a.activeInRun = 0
	a.activePixels = a.activePixels[:0]
}

// finish flushes any pending run. An all-inactive image thus ends as a
// single (n, 0) run; a zero-pixel image has an empty body.
func (a *runAccumulator) finish() {
	a.flush()
}

// Run is one decoded (inactiveCount, activeCount, pixel-bytes) triple, as
// produced while iterating a SparseImage's payload.
type Run struct {
	Inactive int
	Active   int
	Pixels   []byte // Active * format.PixelSize() bytes
}

// RunIterator walks the run-length payload of a SparseImage's body
// (everything after the wire header) in order. It stops once it has
// produced runs covering declared pixels, regardless of how much body
// remains — callers may legitimately hold a buffer padded beyond the
// actual encoded content (a receive slot pre-sized to an upper bound,
// since the transport abstraction reports no actual-bytes-received
// count), and that padding must never be parsed as more runs.
type RunIterator struct {
	body      []byte
	pos       int
	pixelSize int

	declared int
	seen     int
}

func newRunIterator(body []byte, pixelSize, declared int) *RunIterator {
	return &RunIterator{body: body, pixelSize: pixelSize, declared: declared}
}

// Next returns the next run, or ok=false when declared pixels have all
// been produced or the payload is exhausted.
func (it *RunIterator) Next() (run Run, ok bool) {
	if it.seen >= it.declared || it.pos >= len(it.body) {
		return Run{}, false
	}
	inactive := int(binary.LittleEndian.Uint32(it.body[it.pos : it.pos+4]))
	active := int(binary.LittleEndian.Uint32(it.body[it.pos+4 : it.pos+8]))
	it.pos += 8
	pixelBytes := active * it.pixelSize
	pixels := it.body[it.pos : it.pos+pixelBytes]
	it.pos += pixelBytes
	it.seen += inactive + active
	return Run{Inactive: inactive, Active: active, Pixels: pixels}, true
}

// pixelCursor steps through a SparseImage's logical pixel sequence one
// position at a time, reporting whether each position is active and, if
// so, a pointer to its packed pixel bytes. It is the shared primitive
// behind Composite, Split and Interlace, all of which need to walk a
// run-length stream at single-pixel granularity without decoding it into
// a dense raster first.
type pixelCursor struct {
	it        *RunIterator
	pixelSize int

	inactiveLeft int
	activeLeft   int
	activeBuf    []byte
	activeIdx    int
}

func newPixelCursor(s *SparseImage) *pixelCursor {
	return &pixelCursor{it: s.Runs(), pixelSize: s.Format.PixelSize()}
}

// next reports whether the current position is active and, if so, its
// pixel bytes, then advances by one position.
func (c *pixelCursor) next() (active bool, pixel []byte) {
	for c.inactiveLeft == 0 && c.activeLeft == 0 {
		run, ok := c.it.Next()
		if !ok {
			return false, nil
		}
		c.inactiveLeft = run.Inactive
		c.activeLeft = run.Active
		c.activeBuf = run.Pixels
		c.activeIdx = 0
	}
	if c.inactiveLeft > 0 {
		c.inactiveLeft--
		return false, nil
	}
	pixel = c.activeBuf[c.activeIdx*c.pixelSize : (c.activeIdx+1)*c.pixelSize]
	c.activeIdx++
	c.activeLeft--
	return true, pixel
}
