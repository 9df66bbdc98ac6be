package partition

import "github.com/gocfg/bbreorder/internal/cfg"

// fakeInstr is a real doubly-linked cfg.Instr, needed here (unlike layout's
// tests) because the surgery phases actually splice and unlink nodes and
// later phases walk the resulting chain.
type fakeInstr struct {
	kind     cfg.InstrKind
	label    cfg.Label
	inverted bool
	prev     *fakeInstr
	next     *fakeInstr
}

func (i *fakeInstr) Kind() cfg.InstrKind  { return i.kind }
func (i *fakeInstr) JumpLabel() cfg.Label { return i.label }
func (i *fakeInstr) Len() int             { return 1 }

func (i *fakeInstr) Next() cfg.Instr {
	if i.next == nil {
		return nil
	}
	return i.next
}

func (i *fakeInstr) Prev() cfg.Instr {
	if i.prev == nil {
		return nil
	}
	return i.prev
}

func spliceAfter(after *fakeInstr, ni *fakeInstr) {
	ni.prev, ni.next = after, after.next
	if after.next != nil {
		after.next.prev = ni
	}
	after.next = ni
}

func spliceBefore(before *fakeInstr, ni *fakeInstr) {
	ni.next, ni.prev = before, before.prev
	if before.prev != nil {
		before.prev.next = ni
	}
	before.prev = ni
}

// fakeTarget is a cfg.Target whose emit/splice/redirect operations are real
// (mutate an actual fakeInstr chain and the block edge lists) rather than
// no-ops, since the partition package's tests exercise the surgery
// pipeline's structural rewrites directly.
type fakeTarget struct {
	f                  *cfg.Func
	hasLongCondBranch  bool
	hasLongUncondBranch bool
	hasReturnInsn      bool
	anyCondJump        func(insn cfg.Instr) bool
	never              func(b *cfg.BasicBlock) bool
	nextReg            uint32
}

func newFakeTarget(f *cfg.Func) *fakeTarget { return &fakeTarget{f: f} }

func (t *fakeTarget) CannotModifyJumps() bool   { return false }
func (t *fakeTarget) HasLongCondBranch() bool   { return t.hasLongCondBranch }
func (t *fakeTarget) HasLongUncondBranch() bool { return t.hasLongUncondBranch }
func (t *fakeTarget) HasReturnInsn() bool       { return t.hasReturnInsn }

func (t *fakeTarget) CanDuplicateBlock(b *cfg.BasicBlock) bool { return true }

func (t *fakeTarget) DuplicateBlock(b *cfg.BasicBlock, e *cfg.Edge) *cfg.BasicBlock {
	return t.f.NewBlock(b.Partition)
}

func (t *fakeTarget) AnyCondJump(insn cfg.Instr) bool {
	if t.anyCondJump != nil {
		return t.anyCondJump(insn)
	}
	return insn != nil && insn.Kind() == cfg.InstrKindCondJump
}

func (t *fakeTarget) ComputedJump(insn cfg.Instr) bool { return false }
func (t *fakeTarget) TableJump(insn cfg.Instr) (bool, cfg.Label, any) {
	return false, cfg.NoLabel, nil
}

func (t *fakeTarget) BlockLabel(b *cfg.BasicBlock) cfg.Label { return cfg.Label(b.Index + 1) }

func (t *fakeTarget) EmitLabelBefore(insn cfg.Instr, l cfg.Label) cfg.Instr {
	ni := &fakeInstr{kind: cfg.InstrKindLabel, label: l}
	if insn == nil {
		return ni
	}
	spliceBefore(insn.(*fakeInstr), ni)
	return ni
}

func (t *fakeTarget) EmitLabelAfter(insn cfg.Instr, l cfg.Label) cfg.Instr {
	ni := &fakeInstr{kind: cfg.InstrKindLabel, label: l}
	if insn == nil {
		return ni
	}
	spliceAfter(insn.(*fakeInstr), ni)
	return ni
}

func (t *fakeTarget) EmitJumpAfter(b *cfg.BasicBlock, insn cfg.Instr, l cfg.Label) cfg.Instr {
	ni := &fakeInstr{kind: cfg.InstrKindJump, label: l}
	after := insn
	if after == nil {
		after = b.Tail
	}
	if after == nil {
		b.Head = ni
	} else {
		spliceAfter(after.(*fakeInstr), ni)
	}
	return ni
}

func (t *fakeTarget) EmitReturnAfter(b *cfg.BasicBlock, insn cfg.Instr) cfg.Instr {
	ni := &fakeInstr{kind: cfg.InstrKindReturn}
	after := insn
	if after == nil {
		after = b.Tail
	}
	if after == nil {
		b.Head = ni
	} else {
		spliceAfter(after.(*fakeInstr), ni)
	}
	return ni
}

func (t *fakeTarget) EmitBarrierAfter(insn cfg.Instr) cfg.Instr {
	ni := &fakeInstr{kind: cfg.InstrKindBarrier}
	spliceAfter(insn.(*fakeInstr), ni)
	return ni
}

func (t *fakeTarget) EmitNoteAfter(insn cfg.Instr, kind string) cfg.Instr {
	ni := &fakeInstr{kind: cfg.InstrKindNote}
	spliceAfter(insn.(*fakeInstr), ni)
	return ni
}

func (t *fakeTarget) EmitNoteBefore(insn cfg.Instr, kind string) cfg.Instr {
	ni := &fakeInstr{kind: cfg.InstrKindNote}
	spliceBefore(insn.(*fakeInstr), ni)
	return ni
}

func (t *fakeTarget) UnlinkInsn(insn cfg.Instr) {
	i := insn.(*fakeInstr)
	if i.prev != nil {
		i.prev.next = i.next
	}
	if i.next != nil {
		i.next.prev = i.prev
	}
	i.prev, i.next = nil, nil
}

func (t *fakeTarget) DeleteInsn(insn cfg.Instr) { t.UnlinkInsn(insn) }

func (t *fakeTarget) InvertJump(insn cfg.Instr) bool {
	insn.(*fakeInstr).inverted = !insn.(*fakeInstr).inverted
	return true
}

func (t *fakeTarget) RedirectJump(insn cfg.Instr, l cfg.Label) bool {
	insn.(*fakeInstr).label = l
	return true
}

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

func (t *fakeTarget) AllocPseudoReg() cfg.VReg {
	r := cfg.ValidVReg(t.nextReg)
	t.nextReg++
	return r
}

func (t *fakeTarget) EmitLoadLabelAddr(insn cfg.Instr, reg cfg.VReg, l cfg.Label) cfg.Instr {
	ni := &fakeInstr{kind: cfg.InstrKindOther, label: l}
	spliceAfter(insn.(*fakeInstr), ni)
	return ni
}

func (t *fakeTarget) EmitIndirectJumpAfter(insn cfg.Instr, reg cfg.VReg) cfg.Instr {
	ni := &fakeInstr{kind: cfg.InstrKindIndirectJump}
	spliceAfter(insn.(*fakeInstr), ni)
	return ni
}

func (t *fakeTarget) AttrLength(insn cfg.Instr) int { return 1 }
func (t *fakeTarget) MaybeHot(b *cfg.BasicBlock) bool { return false }

func (t *fakeTarget) ProbablyNeverExecuted(b *cfg.BasicBlock) bool {
	if t.never != nil {
		return t.never(b)
	}
	return b.ProbablyNeverExecuted
}

func (t *fakeTarget) UncondJumpLength() int { return 1 }
func (t *fakeTarget) OptimizeSize() bool    { return false }
