package radixk

import "github.com/deepteams/sortlast/sparseimage"

// slotState is the tagged-variant state spec §9 calls for: a partner
// slot is Pending until its piece arrives, Arrived at some tree level
// once it (or a composite it took part in) is ready to be promoted, or
// Done once it has been folded into another slot.
type slotState int

const (
	pending slotState = iota
	arrived
	done
)

type treeSlot struct {
	state slotState
	level int
	image *sparseimage.SparseImage
}

// compositeTree runs the pairwise-merge promotion loop of spec §4.2.1
// across k partner slots (0..k-1, indexed by round-local partner
// index). Arrivals are fed in one at a time via arrive; once the tree
// is complete, arrive returns the final composited image.
type compositeTree struct {
	k     int
	slots []treeSlot
}

func newCompositeTree(k int) *compositeTree {
	return &compositeTree{k: k, slots: make([]treeSlot, k)}
}

// arrive records that piece i has become available (either the
// caller's own piece, seeded at the start, or a piece received over
// the transport) and runs the promotion loop from i. It returns the
// final composited image and true once the tree completes; otherwise
// it returns (nil, false).
func (tr *compositeTree) arrive(i int, img *sparseimage.SparseImage) (*sparseimage.SparseImage, bool, error) {
	tr.slots[i] = treeSlot{state: arrived, level: 0, image: img}

	v := i
	for {
		L := tr.slots[v].level
		sibling := v ^ (1 << uint(L))

		if sibling >= tr.k {
			if v == 0 {
				return tr.slots[v].image, true, nil
			}
			tr.slots[v].level = L + 1
			continue
		}

		sib := tr.slots[sibling]
		if sib.state != arrived || sib.level != L {
			return nil, false, nil
		}

		front, back := v, sibling
		if front > back {
			front, back = back, front
		}
		merged, err := sparseimage.Composite(tr.slots[front].image, tr.slots[back].image)
		if err != nil {
			return nil, false, err
		}
		tr.slots[front] = treeSlot{state: arrived, level: L + 1, image: merged}
		tr.slots[back] = treeSlot{state: done}
		v = front
	}
}
