package mp4source

import (
	"slices"
)

// tracker decides when frames are output and released. Frame ids are
// decode indices. A frame is output once every frame before it in
// presentation order has been decoded, and released once it is output and no
// longer a reference.
type tracker struct {
	// order lists frame ids by presentation rank.
	order   []uint64
	next    int
	decoded map[uint64]bool
	output  map[uint64]bool
	// held are frames decoded but not yet released.
	held       map[uint64]bool
	referenced map[uint64]bool
}

func newTracker(order []int) *tracker {
	t := &tracker{
		order:      make([]uint64, len(order)),
		decoded:    make(map[uint64]bool),
		output:     make(map[uint64]bool),
		held:       make(map[uint64]bool),
		referenced: make(map[uint64]bool),
	}
	for i, idx := range order {
		t.order[i] = uint64(idx)
	}
	return t
}

// decode records frame id as decoded, referenced or not, with unref listing
// the references it ends. It returns the ids to output and release after it.
func (t *tracker) decode(id uint64, reference bool, unref []uint64) (output, release []uint64) {
	t.decoded[id] = true
	t.held[id] = true
	if reference {
		t.referenced[id] = true
	}
	for _, r := range unref {
		delete(t.referenced, r)
	}

	for t.next < len(t.order) && t.decoded[t.order[t.next]] {
		out := t.order[t.next]
		output = append(output, out)
		t.output[out] = true
		t.next++
	}

	heldIDs := make([]uint64, 0, len(t.held))
	for id := range t.held {
		heldIDs = append(heldIDs, id)
	}
	slices.Sort(heldIDs)
	for _, held := range heldIDs {
		if t.output[held] && !t.referenced[held] {
			release = append(release, held)
			delete(t.held, held)
		}
	}
	return output, release
}
