package cfg

import "strconv"

// LiveSet is an opaque liveness set attached to a block's boundary. The
// passes in this module never inspect its contents; they only copy it from
// one block to another when surgery splices in a new block, so a LiveSet is
// modeled as whatever the host compiler's register allocator hands back.
type LiveSet interface {
	// Clone returns an independent copy, so that mutating the original
	// after a copy doesn't retroactively change the synthesized block.
	Clone() LiveSet
}

// rbi is the layout side-band described in spec §3: a mutable, per-block
// record of where this block sits in the final chain. The name mirrors the
// original's reg_basic_block_info.
type rbi struct {
	// Next is the block that follows this one in the final layout, or
	// nil at the tail of the chain.
	Next *BasicBlock
	// Visited is the id of the trace this block was appended to, or 0
	// if this block hasn't been claimed by any trace yet.
	Visited TraceID
	// Footer is a detached instruction chain (e.g. a barrier synthesized
	// by surgery) that must be emitted immediately after this block.
	Footer Instr
}

// BasicBlock is a node of the CFG the core consumes and mutates. The host
// compiler owns construction and destruction; index stability across a
// single pass invocation is the only lifetime guarantee this package
// assumes.
type BasicBlock struct {
	// Index is a stable integer identifying this block for the lifetime
	// of one pass invocation. Synthesized blocks (duplicates, thunks)
	// receive indices assigned by Func.NewBlock, and index the bbd
	// scratch array Func owns alongside the block arena.
	Index int

	Frequency int32
	Count     int64

	Partition PartitionKind

	Preds, Succs []*Edge

	// Head and Tail bound the block's instruction list; Head.Prev() and
	// Tail.Next() reach outside the block. A block with no instructions
	// has Head == Tail == nil.
	Head, Tail Instr

	LiveAtStart, LiveAtEnd LiveSet

	// ProbablyNeverExecuted mirrors probably_never_executed_bb_p: a
	// static (not profile-derived) signal that this block should be
	// treated as cold regardless of its Frequency/Count.
	ProbablyNeverExecuted bool

	// LayoutNext is b's successor in the function's layout as received
	// from the host compiler, before this pass reorders anything. It is
	// never written by this package; better_edge_p's stability tie-break
	// is the only reader.
	LayoutNext *BasicBlock

	RBI rbi

	entry, exit bool
}

// IsEntry reports whether b is the function's synthetic entry block.
func (b *BasicBlock) IsEntry() bool { return b.entry }

// IsExit reports whether b is the function's synthetic exit block.
func (b *BasicBlock) IsExit() bool { return b.exit }

// Visited reports the trace b has already been appended to, or 0 if none.
func (b *BasicBlock) Visited() TraceID { return b.RBI.Visited }

// MarkVisited records that b has been appended to trace id.
func (b *BasicBlock) MarkVisited(id TraceID) { b.RBI.Visited = id }

// String implements fmt.Stringer for debugging and log output.
func (b *BasicBlock) String() string {
	if b == nil {
		return "blk<nil>"
	}
	if b.entry {
		return "blk_entry"
	}
	if b.exit {
		return "blk_exit"
	}
	return "blk" + strconv.Itoa(b.Index)
}
