package layout

import "github.com/gocfg/bbreorder/internal/cfg"

// fakeTarget is a minimal cfg.Target for the layout package's tests. The
// method set covers the whole interface; only the handful the trace
// builder and connector actually touch do anything beyond a fixed default,
// and those are overridable per test via the function fields below.
type fakeTarget struct {
	f *cfg.Func

	canDuplicate func(b *cfg.BasicBlock) bool
	maybeHot     func(b *cfg.BasicBlock) bool
	attrLength   func(insn cfg.Instr) int
	uncondLen    int
	optimizeSize bool
	never        func(b *cfg.BasicBlock) bool
}

func newFakeTarget(f *cfg.Func) *fakeTarget {
	return &fakeTarget{f: f, uncondLen: 1}
}

func (t *fakeTarget) CannotModifyJumps() bool    { return false }
func (t *fakeTarget) HasLongCondBranch() bool    { return true }
func (t *fakeTarget) HasLongUncondBranch() bool  { return true }
func (t *fakeTarget) HasReturnInsn() bool        { return false }

func (t *fakeTarget) CanDuplicateBlock(b *cfg.BasicBlock) bool {
	if t.canDuplicate != nil {
		return t.canDuplicate(b)
	}
	return true
}

func (t *fakeTarget) DuplicateBlock(b *cfg.BasicBlock, e *cfg.Edge) *cfg.BasicBlock {
	dup := t.f.NewBlock(b.Partition)
	dup.Frequency = b.Frequency
	dup.Count = b.Count
	for _, se := range b.Succs {
		ne := t.MakeEdge(dup, se.Dst, se.Flags, se.Probability)
		ne.Count = se.Count
	}
	return dup
}

func (t *fakeTarget) AnyCondJump(insn cfg.Instr) bool     { return false }
func (t *fakeTarget) ComputedJump(insn cfg.Instr) bool    { return false }
func (t *fakeTarget) TableJump(insn cfg.Instr) (bool, cfg.Label, any) {
	return false, cfg.NoLabel, nil
}

func (t *fakeTarget) BlockLabel(b *cfg.BasicBlock) cfg.Label { return cfg.Label(b.Index + 1) }

func (t *fakeTarget) EmitLabelBefore(insn cfg.Instr, l cfg.Label) cfg.Instr { return insn }
func (t *fakeTarget) EmitLabelAfter(insn cfg.Instr, l cfg.Label) cfg.Instr  { return insn }
func (t *fakeTarget) EmitJumpAfter(b *cfg.BasicBlock, insn cfg.Instr, l cfg.Label) cfg.Instr {
	return nil
}
func (t *fakeTarget) EmitReturnAfter(b *cfg.BasicBlock, insn cfg.Instr) cfg.Instr { return nil }
func (t *fakeTarget) EmitBarrierAfter(insn cfg.Instr) cfg.Instr                   { return nil }
func (t *fakeTarget) EmitNoteAfter(insn cfg.Instr, kind string) cfg.Instr         { return nil }
func (t *fakeTarget) EmitNoteBefore(insn cfg.Instr, kind string) cfg.Instr        { return nil }

func (t *fakeTarget) UnlinkInsn(insn cfg.Instr) {}
func (t *fakeTarget) DeleteInsn(insn cfg.Instr) {}

func (t *fakeTarget) InvertJump(insn cfg.Instr) bool { return false }
func (t *fakeTarget) RedirectJump(insn cfg.Instr, l cfg.Label) bool { return true }

func (t *fakeTarget) RedirectEdgeSucc(e *cfg.Edge, dst *cfg.BasicBlock) {
	old := e.Dst
	e.Dst = dst
	if old != nil {
		for i, pe := range old.Preds {
			if pe == e {
				old.Preds = append(old.Preds[:i], old.Preds[i+1:]...)
				break
			}
		}
	}
	dst.Preds = append(dst.Preds, e)
}

func (t *fakeTarget) MakeEdge(src, dst *cfg.BasicBlock, flags cfg.EdgeFlags, probability int32) *cfg.Edge {
	e := &cfg.Edge{Src: src, Dst: dst, Flags: flags, Probability: probability}
	src.Succs = append(src.Succs, e)
	dst.Preds = append(dst.Preds, e)
	return e
}

func (t *fakeTarget) ForceNonFallthru(e *cfg.Edge) *cfg.BasicBlock {
	orig := e.Dst
	nb := t.f.NewBlock(e.Src.Partition)
	t.RedirectEdgeSucc(e, nb)
	t.MakeEdge(nb, orig, e.Flags, e.Probability)
	return nb
}

func (t *fakeTarget) CreateBasicBlock(partition cfg.PartitionKind) *cfg.BasicBlock {
	return t.f.NewBlock(partition)
}

func (t *fakeTarget) AllocPseudoReg() cfg.VReg                                  { return cfg.ValidVReg(0) }
func (t *fakeTarget) EmitLoadLabelAddr(insn cfg.Instr, reg cfg.VReg, l cfg.Label) cfg.Instr {
	return nil
}
func (t *fakeTarget) EmitIndirectJumpAfter(insn cfg.Instr, reg cfg.VReg) cfg.Instr { return nil }

func (t *fakeTarget) AttrLength(insn cfg.Instr) int {
	if t.attrLength != nil {
		return t.attrLength(insn)
	}
	return 1
}

func (t *fakeTarget) MaybeHot(b *cfg.BasicBlock) bool {
	if t.maybeHot != nil {
		return t.maybeHot(b)
	}
	return false
}

func (t *fakeTarget) ProbablyNeverExecuted(b *cfg.BasicBlock) bool {
	if t.never != nil {
		return t.never(b)
	}
	return b.ProbablyNeverExecuted
}

func (t *fakeTarget) UncondJumpLength() int { return t.uncondLen }
func (t *fakeTarget) OptimizeSize() bool    { return t.optimizeSize }
