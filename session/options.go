// Package session is the typed state/config reader the core consumes
// (spec §6): a single read-only snapshot of the session options that
// govern one compose, resolved and validated up front the way the
// teacher package resolves and validates its EncoderOptions.
package session

import (
	"fmt"

	"github.com/pkg/errors"
)

// CompositeMode selects the associative pixel-wise combine operator.
type CompositeMode int

const (
	CompositeZBuffer CompositeMode = iota
	CompositeBlend
)

// ColorFormat mirrors sparseimage.ColorFormat at the config-reader
// boundary so this package does not need to import sparseimage just to
// describe an option.
type ColorFormat int

const (
	ColorNone ColorFormat = iota
	ColorRGBAUByte
	ColorRGBAFloat
)

// DepthFormat mirrors sparseimage.DepthFormat.
type DepthFormat int

const (
	DepthNone DepthFormat = iota
	DepthFloat32
)

// Options is the full set of session state the core reads (spec §6's
// table). A zero Options is not valid; start from DefaultOptions.
type Options struct {
	CompositeMode    CompositeMode
	ColorFormat      ColorFormat
	DepthFormat      DepthFormat
	OrderedComposite bool
	// CompositeOrder is a permutation of process ranks giving
	// front-to-back order; only consulted when OrderedComposite is true.
	CompositeOrder []int
	InterlaceImages bool
	// MagicK is the target round factor for Radix-k's k-search (default
	// 8; spec §4.2.2).
	MagicK int

	NumProcesses int
	Rank         int
	NumTiles     int
	// DisplayNodes[t] is the process rank that owns tile t's output.
	DisplayNodes []int
	// TileContribCounts[t] is the number of processes contributing to
	// tile t.
	TileContribCounts []int
	// AllContainedTilesMasks[p][t] reports whether process p contributes
	// to tile t.
	AllContainedTilesMasks [][]bool
}

// DefaultOptions returns the option set a session starts from: z-buffer
// compositing over RGBA_UBYTE color and float depth, no ordering, no
// interlacing, magic k 8, and single-process/single-tile topology.
// Callers overwrite the topology fields before calling Validate.
func DefaultOptions() *Options {
	return &Options{
		CompositeMode: CompositeZBuffer,
		ColorFormat:   ColorRGBAUByte,
		DepthFormat:   DepthFloat32,
		MagicK:        8,
		NumProcesses:  1,
		NumTiles:      1,
	}
}

// Validate checks that opts is internally consistent: formats satisfy
// the chosen composite mode, the topology fields agree in length, the
// caller's rank is in range, and ordered mode carries a full
// composite-order permutation.
func (o *Options) Validate() error {
	if o.ColorFormat == ColorNone && o.DepthFormat == DepthNone {
		return errors.New("session: at least one of color or depth format must be set")
	}
	if o.CompositeMode == CompositeZBuffer && o.DepthFormat == DepthNone {
		return errors.New("session: z-buffer composite mode requires a depth plane")
	}
	if o.CompositeMode == CompositeBlend && o.ColorFormat == ColorNone {
		return errors.New("session: blend composite mode requires a color plane")
	}
	if o.MagicK < 2 {
		return fmt.Errorf("session: invalid MagicK %d (must be >= 2)", o.MagicK)
	}
	if o.NumProcesses < 1 {
		return fmt.Errorf("session: invalid NumProcesses %d (must be >= 1)", o.NumProcesses)
	}
	if o.Rank < 0 || o.Rank >= o.NumProcesses {
		return fmt.Errorf("session: rank %d out of range [0, %d)", o.Rank, o.NumProcesses)
	}
	if o.NumTiles < 1 {
		return fmt.Errorf("session: invalid NumTiles %d (must be >= 1)", o.NumTiles)
	}
	if len(o.DisplayNodes) != o.NumTiles {
		return fmt.Errorf("session: DisplayNodes has %d entries, want %d (NumTiles)", len(o.DisplayNodes), o.NumTiles)
	}
	if len(o.TileContribCounts) != o.NumTiles {
		return fmt.Errorf("session: TileContribCounts has %d entries, want %d (NumTiles)", len(o.TileContribCounts), o.NumTiles)
	}
	for _, dn := range o.DisplayNodes {
		if dn < 0 || dn >= o.NumProcesses {
			return fmt.Errorf("session: display node rank %d out of range [0, %d)", dn, o.NumProcesses)
		}
	}
	if o.AllContainedTilesMasks != nil && len(o.AllContainedTilesMasks) != o.NumProcesses {
		return fmt.Errorf("session: AllContainedTilesMasks has %d rows, want %d (NumProcesses)", len(o.AllContainedTilesMasks), o.NumProcesses)
	}
	if o.OrderedComposite {
		if len(o.CompositeOrder) != o.NumProcesses {
			return fmt.Errorf("session: ordered composite requires CompositeOrder of length %d (NumProcesses), got %d", o.NumProcesses, len(o.CompositeOrder))
		}
		seen := make([]bool, o.NumProcesses)
		for _, r := range o.CompositeOrder {
			if r < 0 || r >= o.NumProcesses || seen[r] {
				return fmt.Errorf("session: CompositeOrder is not a permutation of [0, %d)", o.NumProcesses)
			}
			seen[r] = true
		}
	}
	return nil
}
