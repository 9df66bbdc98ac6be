package layout

import (
	"container/heap"

	"github.com/gocfg/bbreorder/internal/cfg"
)

// seedHeap is a min-heap of (key, block) pairs implementing
// container/heap.Interface, with decrease-key support via Func's
// heap-handle side-band (the "(heap, node)" pair of spec §3). This is the
// same shape as the Go compiler's instruction scheduler heap: a slice plus
// an out-of-band key array, kept in sync through Swap so that update can
// find a block's current slot in O(1) instead of a linear scan.
type seedHeap struct {
	f    *cfg.Func
	id   int
	blks []*cfg.BasicBlock
	keys []int64
}

// newSeedHeap returns an empty heap identified by id, a small integer the
// caller uses to tell its two heaps (current-round and next-round) apart in
// Func's heap-handle bookkeeping.
func newSeedHeap(f *cfg.Func, id int) *seedHeap {
	return &seedHeap{f: f, id: id}
}

func (h *seedHeap) Len() int { return len(h.blks) }

func (h *seedHeap) Less(i, j int) bool { return h.keys[i] < h.keys[j] }

func (h *seedHeap) Swap(i, j int) {
	h.blks[i], h.blks[j] = h.blks[j], h.blks[i]
	h.keys[i], h.keys[j] = h.keys[j], h.keys[i]
	h.f.SetHeapHandle(h.blks[i], h.id, i)
	h.f.SetHeapHandle(h.blks[j], h.id, j)
}

// Push and Pop satisfy container/heap.Interface; callers use the package
// helpers below, not these directly.
func (h *seedHeap) Push(x any) {
	b := x.(*cfg.BasicBlock)
	h.blks = append(h.blks, b)
	h.keys = append(h.keys, 0)
	h.f.SetHeapHandle(b, h.id, len(h.blks)-1)
}

func (h *seedHeap) Pop() any {
	n := len(h.blks)
	b := h.blks[n-1]
	h.blks = h.blks[:n-1]
	h.keys = h.keys[:n-1]
	h.f.ClearHeapHandle(b)
	return b
}

// insert adds b to the heap with the given key. b must not already be
// present in this heap or any other, preserving the heap-exclusivity
// invariant.
func (h *seedHeap) insert(b *cfg.BasicBlock, key int64) {
	heap.Push(h, b)
	h.keys[len(h.keys)-1] = key
	heap.Fix(h, len(h.keys)-1)
}

// contains reports whether b is currently resident in this heap, and its
// slot if so.
func (h *seedHeap) contains(b *cfg.BasicBlock) (index int, ok bool) {
	id, idx, present := h.f.HeapHandle(b)
	if !present || id != h.id {
		return 0, false
	}
	return idx, true
}

// update changes the key of a block already resident in this heap and
// restores the heap invariant (the decrease-key operation spec §9 calls
// for, via a stable handle rather than a linear search).
func (h *seedHeap) update(b *cfg.BasicBlock, key int64) {
	idx, ok := h.contains(b)
	if !ok {
		panic("BUG: update on block not resident in this heap: " + b.String())
	}
	h.keys[idx] = key
	heap.Fix(h, idx)
}

// extractMin removes and returns the lowest-key block, or nil if empty.
func (h *seedHeap) extractMin() *cfg.BasicBlock {
	if h.Len() == 0 {
		return nil
	}
	return heap.Pop(h).(*cfg.BasicBlock)
}
