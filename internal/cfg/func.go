package cfg

// seedHeapHandle implements the "(heap, node)" pair of spec §3: which heap
// (if any) currently holds a block as a seed, and that heap's current slot
// for it, kept live by the heap's own Swap so a decrease-key lookup is O(1).
// The identity behind heapID is opaque to this package; the layout package
// assigns distinct ids to its current-round and next-round heaps.
type seedHeapHandle struct {
	heapID    int
	heapIndex int
	present   bool
}

// bbd is the per-block trace-building scratch named bbd[i] in spec §3.
type bbd struct {
	startOfTrace, endOfTrace       TraceID
	hasStartOfTrace, hasEndOfTrace bool
	heap                           seedHeapHandle
}

// Func is the arena that owns a function's basic blocks for the duration of
// one pass invocation, plus the bbd scratch grown alongside it. Blocks are
// addressed by integer index rather than owning pointers between them, per
// the "arena of blocks/edges" design note: duplication and surgery append
// new blocks and never invalidate existing indices.
type Func struct {
	blocks []*BasicBlock
	bbds   []bbd
	arena  blockPool

	entry, exit *BasicBlock
}

// NewFunc wraps an existing set of blocks (already built and wired by the
// host compiler) for one pass invocation. blocks must be indexed by
// BasicBlock.Index starting at 0, contiguous, with entry/exit as the
// function's synthetic entry and exit blocks (either may be nil if the host
// compiler doesn't model them as real blocks).
func NewFunc(blocks []*BasicBlock, entry, exit *BasicBlock) *Func {
	if entry != nil {
		entry.entry = true
	}
	if exit != nil {
		exit.exit = true
	}
	f := &Func{blocks: blocks, entry: entry, exit: exit}
	f.growBBD(len(blocks))
	return f
}

// Entry and Exit return the function's synthetic boundary blocks, which may
// be nil.
func (f *Func) Entry() *BasicBlock { return f.entry }
func (f *Func) Exit() *BasicBlock  { return f.exit }

// NumBlocks returns the number of blocks currently in the arena, counting
// the entry/exit blocks too when they were passed among NewFunc's blocks.
func (f *Func) NumBlocks() int { return len(f.blocks) }

// Blocks returns the arena's blocks in index order. Callers must not retain
// the slice across a call to NewBlock, which may reallocate it.
func (f *Func) Blocks() []*BasicBlock { return f.blocks }

// Block returns the block at index i.
func (f *Func) Block(i int) *BasicBlock { return f.blocks[i] }

// NewBlock appends a freshly allocated block to the arena (used by
// duplication and by surgery's synthesized thunks/intermediate blocks) and
// returns it, growing the bbd scratch array if needed.
func (f *Func) NewBlock(partition PartitionKind) *BasicBlock {
	b := f.arena.allocate()
	b.Index, b.Partition = len(f.blocks), partition
	f.blocks = append(f.blocks, b)
	f.growBBD(len(f.blocks))
	return b
}

// growBBD grows the bbd scratch array to cover at least n blocks, with a
// growth factor of 1.25 rounded up: ceil(n*5/4), computed as (n*5+3)/4. This
// is an integer formula, not a floating-point 1.25 multiply, so growth is
// deterministic across implementations.
func (f *Func) growBBD(n int) {
	if n <= len(f.bbds) {
		return
	}
	size := (n*5 + 3) / 4
	if size < n {
		size = n
	}
	grown := make([]bbd, size)
	copy(grown, f.bbds)
	f.bbds = grown
}

func (f *Func) scratch(b *BasicBlock) *bbd {
	if b.Index >= len(f.bbds) {
		f.growBBD(b.Index + 1)
	}
	return &f.bbds[b.Index]
}

// StartOfTrace returns the id of the trace for which b is the first block,
// and whether one has been recorded yet.
func (f *Func) StartOfTrace(b *BasicBlock) (TraceID, bool) {
	s := f.scratch(b)
	return s.startOfTrace, s.hasStartOfTrace
}

// SetStartOfTrace records that b is the first block of trace id.
func (f *Func) SetStartOfTrace(b *BasicBlock, id TraceID) {
	s := f.scratch(b)
	s.startOfTrace, s.hasStartOfTrace = id, true
}

// EndOfTrace returns the id of the trace for which b is the last block, and
// whether one has been recorded yet.
func (f *Func) EndOfTrace(b *BasicBlock) (TraceID, bool) {
	s := f.scratch(b)
	return s.endOfTrace, s.hasEndOfTrace
}

// SetEndOfTrace records that b is the last block of trace id.
func (f *Func) SetEndOfTrace(b *BasicBlock, id TraceID) {
	s := f.scratch(b)
	s.endOfTrace, s.hasEndOfTrace = id, true
}

// HeapHandle reports which heap (by id) currently holds b as a seed, its
// slot in that heap, and whether it's present in any heap at all.
func (f *Func) HeapHandle(b *BasicBlock) (heapID, heapIndex int, present bool) {
	s := f.scratch(b)
	return s.heap.heapID, s.heap.heapIndex, s.heap.present
}

// SetHeapHandle records that b occupies slot heapIndex of heap heapID.
func (f *Func) SetHeapHandle(b *BasicBlock, heapID, heapIndex int) {
	f.scratch(b).heap = seedHeapHandle{heapID: heapID, heapIndex: heapIndex, present: true}
}

// ClearHeapHandle records that b no longer occupies any heap, enforcing the
// heap-exclusivity invariant: a block is never live in two heaps at once.
func (f *Func) ClearHeapHandle(b *BasicBlock) {
	f.scratch(b).heap = seedHeapHandle{}
}
