package reduce

import (
	"fmt"
	"sort"
)

// Plan is the Reduce delegator's output for one process (spec §4.3
// Public contract): where to send each tile it contributes to, which
// compose-group and tile it was seated into, and its index within that
// group for the collect step.
type Plan struct {
	// SendDest[t] is where this process sends its contribution to tile
	// t, for every tile it contributes to.
	SendDest map[int]int
	// ComposeGroup is the ordered list of process ranks this process
	// composites alongside (its seated tile's group, possibly reordered
	// by ordered-mode seating).
	ComposeGroup []int
	// ComposeTile is the tile this process was seated into, or -1 if it
	// was not seated (only possible if ΣQ(t) < P, which Rebalance
	// prevents under normal input).
	ComposeTile int
	// GroupImageDest is the index within ComposeGroup of the tile's
	// display process (ordered mode only; 0 otherwise, since unordered
	// compositing ends at any seated member and the display node sends
	// to itself like everyone else).
	GroupImageDest int
}

// groups is the full per-tile delegation state Delegate computes once
// and then slices into a Plan per caller.
type groups struct {
	quota       []int
	seating     Seating
	procGroup   [][]int
	sendDestAll []map[int]int
}

// delegate runs spec §4.3 steps 1-7 for the whole topology.
func delegate(top Topology) (groups, error) {
	if len(top.ContribCount) != top.NumTiles || len(top.DisplayNode) != top.NumTiles {
		return groups{}, fmt.Errorf("reduce: topology tile-indexed slices must have length NumTiles")
	}

	q := ComputeQuota(top)
	q = Rebalance(top, q)

	sum := 0
	for _, v := range q {
		sum += v
	}
	if sum != top.NumProcesses {
		return groups{}, fmt.Errorf("reduce: quota sum %d does not equal process count %d", sum, top.NumProcesses)
	}

	seating := SeatProcesses(top, q)

	procGroup := make([][]int, top.NumTiles)
	sendDestAll := make([]map[int]int, top.NumTiles)
	for t := 0; t < top.NumTiles; t++ {
		if top.ContribCount[t] == 0 {
			procGroup[t] = seating.Group[t]
			sendDestAll[t] = map[int]int{}
			continue
		}
		if top.Ordered {
			ng, dest := assignOrdered(top, t, seating.Group[t], seating.TileOf)
			procGroup[t] = ng
			sendDestAll[t] = dest
		} else {
			procGroup[t] = seating.Group[t]
			sendDestAll[t] = assignUnordered(top, t, seating.Group[t], seating.TileOf)
		}
	}

	return groups{quota: q, seating: seating, procGroup: procGroup, sendDestAll: sendDestAll}, nil
}

// Delegate computes the full per-tile plan for the topology and returns
// the Plan for the given caller rank, per spec §4.3's public contract.
func Delegate(top Topology, rank int) (Plan, error) {
	g, err := delegate(top)
	if err != nil {
		return Plan{}, err
	}

	tile := -1
	if rank < len(g.seating.TileOf) {
		tile = g.seating.TileOf[rank]
	}

	sendDest := map[int]int{}
	for t := 0; t < top.NumTiles; t++ {
		if d, ok := g.sendDestAll[t][rank]; ok {
			sendDest[t] = d
		}
	}

	plan := Plan{SendDest: sendDest, ComposeTile: tile}
	if tile >= 0 {
		plan.ComposeGroup = g.procGroup[tile]
		plan.GroupImageDest = groupImageDest(top, tile, g.procGroup[tile])
	}
	return plan, nil
}

// IncomingFor returns, in ascending rank order, the contributor ranks
// whose tile-t send destination is rank — the set of peers a compose-
// group member must receive a forwarded contribution from before it
// folds its own input into the tile's Radix-k round. rank need not be
// seated in tile t's group, but the result is only meaningful when it
// is.
func IncomingFor(top Topology, tile, rank int) ([]int, error) {
	g, err := delegate(top)
	if err != nil {
		return nil, err
	}
	if tile < 0 || tile >= len(g.sendDestAll) {
		return nil, fmt.Errorf("reduce: tile %d out of range", tile)
	}
	var incoming []int
	for contributor, dest := range g.sendDestAll[tile] {
		if dest == rank && contributor != rank {
			incoming = append(incoming, contributor)
		}
	}
	sort.Ints(incoming)
	return incoming, nil
}

// groupImageDest locates the tile's display process within its
// (possibly ordered-mode-shuffled) compose-group, per spec §4.3 step 7.
// In unordered mode every seated member can serve as the collect target
// so the index is always 0.
func groupImageDest(top Topology, tile int, group []int) int {
	if !top.Ordered {
		return 0
	}
	dn := top.DisplayNode[tile]
	for i, p := range group {
		if p == dn {
			return i
		}
	}
	return 0
}
