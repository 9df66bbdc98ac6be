package cfg

// Target is the single abstraction point through which the core reaches
// its host compiler's instruction-level primitives: branch encoding,
// duplication, and the handful of emit/redirect operations the trace
// builder and the partition surgery need but must not implement
// themselves. Every implementation is expected to be safe to call
// repeatedly for the duration of one pass invocation; past the call that
// received it, the core retains a Target only as a key of the pass
// driver's UncondJumpLength memo.
//
// This mirrors backend.Machine's role as "the one target-specific
// interface the target-independent code depends on", generalized from
// machine-code generation to CFG layout.
type Target interface {
	// CannotModifyJumps reports whether the current function forbids any
	// jump rewriting (e.g. mid-inlining). ReorderBasicBlocks early-returns
	// when this is true; PartitionHotColdBasicBlocks does not consult it.
	CannotModifyJumps() bool

	// HasLongCondBranch and HasLongUncondBranch report whether the
	// target's conditional/unconditional branch encodings can already
	// span an arbitrary distance, making the corresponding surgery phase
	// unnecessary.
	HasLongCondBranch() bool
	HasLongUncondBranch() bool

	// HasReturnInsn reports whether the target can emit a direct return
	// instruction, needed when a crossing conditional branch's target
	// was the function's return rather than a label.
	HasReturnInsn() bool

	// CanDuplicateBlock reports whether b is structurally eligible for
	// duplication at all (independent of the frequency/size gates in
	// copy_bb_p).
	CanDuplicateBlock(b *BasicBlock) bool
	// DuplicateBlock clones b's instructions into a freshly created
	// block reachable along e, and returns it. The caller is
	// responsible for relinking e and any other edges.
	DuplicateBlock(b *BasicBlock, e *Edge) *BasicBlock

	// AnyCondJump reports whether insn is some form of conditional jump.
	AnyCondJump(insn Instr) bool
	// ComputedJump reports whether insn is a computed (indirect) jump.
	ComputedJump(insn Instr) bool
	// TableJump reports whether insn is a jump-table dispatch, and if
	// so returns the label of the default case and an opaque handle to
	// the table itself (for fixCrossingUnconditionalBranches to consult
	// if it ever needs to rewrite table entries).
	TableJump(insn Instr) (isTableJump bool, defaultLabel Label, table any)

	// BlockLabel returns (creating if necessary) the Label other blocks
	// must jump to in order to reach b.
	BlockLabel(b *BasicBlock) Label

	// EmitLabelBefore and EmitLabelAfter splice a bound label immediately
	// before/after insn.
	EmitLabelBefore(insn Instr, l Label) Instr
	EmitLabelAfter(insn Instr, l Label) Instr
	// EmitJumpAfter splices an unconditional jump to l immediately after
	// insn (or at the end of b if insn is nil).
	EmitJumpAfter(b *BasicBlock, insn Instr, l Label) Instr
	// EmitReturnAfter splices a direct return instruction immediately
	// after insn; only called when HasReturnInsn is true.
	EmitReturnAfter(b *BasicBlock, insn Instr) Instr
	// EmitBarrierAfter splices a barrier immediately after insn.
	EmitBarrierAfter(insn Instr) Instr
	// EmitNoteAfter attaches an opaque annotation (e.g. a crossing-jump
	// note) to insn; the note itself carries no control flow.
	EmitNoteAfter(insn Instr, kind string) Instr
	// EmitNoteBefore attaches an opaque annotation immediately before
	// insn, used to place the unlikely-executed marker at the first
	// non-note/non-label instruction of a cold block.
	EmitNoteBefore(insn Instr, kind string) Instr

	// UnlinkInsn detaches insn from its block's instruction chain
	// without deleting it; the caller is expected to relink it
	// elsewhere (e.g. into a Footer).
	UnlinkInsn(insn Instr)
	// DeleteInsn detaches and discards insn.
	DeleteInsn(insn Instr)

	// InvertJump flips insn's sense in place (swapping which successor
	// is the "taken" branch) and reports whether the target could do so.
	// Not all conditional encodings are invertible.
	InvertJump(insn Instr) bool
	// RedirectJump retargets insn to l and reports success.
	RedirectJump(insn Instr, l Label) bool
	// RedirectEdgeSucc repoints e's destination to dst, updating both
	// blocks' edge lists.
	RedirectEdgeSucc(e *Edge, dst *BasicBlock)
	// MakeEdge creates a new edge from src to dst with the given flags
	// and probability, and appends it to both blocks' edge lists.
	MakeEdge(src, dst *BasicBlock, flags EdgeFlags, probability int32) *Edge
	// ForceNonFallthru materializes a new block on e's fall-through
	// edge so that e no longer falls through, and returns it.
	ForceNonFallthru(e *Edge) *BasicBlock
	// CreateBasicBlock allocates a new, initially edge-less block in the
	// given partition.
	CreateBasicBlock(partition PartitionKind) *BasicBlock

	// AllocPseudoReg allocates a fresh pseudo-register, needed by
	// fixCrossingUnconditionalBranches to materialize `reg <- &label`.
	AllocPseudoReg() VReg
	// EmitLoadLabelAddr emits `reg <- &l` immediately after insn.
	EmitLoadLabelAddr(insn Instr, reg VReg, l Label) Instr
	// EmitIndirectJumpAfter emits an indirect jump through reg
	// immediately after insn.
	EmitIndirectJumpAfter(insn Instr, reg VReg) Instr

	// AttrLength returns insn's size in the units UncondJumpLength is
	// expressed in.
	AttrLength(insn Instr) int
	// MaybeHot reports whether b might be hot, used to decide whether
	// the larger hot-duplication size bound applies.
	MaybeHot(b *BasicBlock) bool
	// ProbablyNeverExecuted is the static (non-profile) cold predicate;
	// most callers should prefer BasicBlock.ProbablyNeverExecuted, which
	// this is expected to agree with.
	ProbablyNeverExecuted(b *BasicBlock) bool

	// UncondJumpLength returns the size, in AttrLength's units, of an
	// unconditional jump on this target. Measured once per Target value
	// and memoized by the pass driver (see ReorderBasicBlocks).
	UncondJumpLength() int

	// OptimizeSize reports whether the function is being compiled for
	// size rather than speed, gating the hot-duplication size bound when
	// traces are connected and when the header of a loop with few
	// iterations is duplicated during trace formation.
	OptimizeSize() bool
}

// VReg is a fresh pseudo-register handle allocated by Target.AllocPseudoReg,
// opaque to this package beyond equality comparison. Bit-packed the way a
// real register allocator's virtual register id would be: the low bits are
// an index, the high bit distinguishes "never yet assigned" from a valid
// allocation.
type VReg uint32

const vRegValidBit VReg = 1 << 31

// ValidVReg packs index into a VReg marked as allocated.
func ValidVReg(index uint32) VReg { return VReg(index) | vRegValidBit }

// Valid reports whether r was produced by ValidVReg.
func (r VReg) Valid() bool { return r&vRegValidBit != 0 }

// Index returns the allocator index packed into r.
func (r VReg) Index() uint32 { return uint32(r &^ vRegValidBit) }
