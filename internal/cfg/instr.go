package cfg

// InstrKind enumerates the shapes of instruction this package's passes
// need to distinguish. A host compiler's richer instruction representation
// is behind the Instr interface; this is the minimal surface the surgery
// and trace builder actually branch on.
type InstrKind uint8

const (
	InstrKindOther InstrKind = iota
	// InstrKindJump is an unconditional direct jump to a Label.
	InstrKindJump
	// InstrKindCondJump is a two-way conditional branch.
	InstrKindCondJump
	// InstrKindIndirectJump jumps through a register, not a Label.
	InstrKindIndirectJump
	// InstrKindTableJump is a computed jump through a jump table.
	InstrKindTableJump
	// InstrKindReturn directly returns from the function without going
	// through a labeled block.
	InstrKindReturn
	// InstrKindLabel carries no control flow; it only binds a Label.
	InstrKindLabel
	// InstrKindBarrier marks a point execution cannot fall through,
	// without itself transferring control (e.g. after an unconditional
	// jump). Used to anchor footer chains.
	InstrKindBarrier
	// InstrKindNote is a non-executable annotation (e.g. a crossing-jump
	// note) attached to another instruction.
	InstrKindNote
)

// Label is an opaque handle to a jump target, synthesized by the Target on
// request and compared for identity only. Modeled on the arm64 backend's
// branchTarget: a label is either bound to a block or still pending.
type Label uint32

// NoLabel is the zero Label, used where a Jump's Target has not been
// synthesized yet.
const NoLabel Label = 0

// Instr is the minimal instruction-level surface the core needs to inspect
// and splice. A real instruction carries far more (operands, encoding,
// position); the host compiler is expected to satisfy this interface with
// whatever its own instruction type is.
type Instr interface {
	// Kind reports which of the shapes above this instruction is.
	Kind() InstrKind
	// JumpLabel returns the Label this instruction jumps to, valid when
	// Kind is InstrKindJump, InstrKindCondJump, or InstrKindLabel (where
	// it's the label bound by this instruction).
	JumpLabel() Label
	// Len returns the instruction's size in the units UncondJumpLength
	// and the duplication-size gate are expressed in.
	Len() int
	// Next and Prev walk the instruction chain within a block (and into
	// a block's Footer, which is just more chain past Tail).
	Next() Instr
	Prev() Instr
}
