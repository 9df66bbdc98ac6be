package partition

import (
	"github.com/pkg/errors"

	"github.com/gocfg/bbreorder/internal/cfg"
)

// endsInControlTransfer reports whether b's last instruction already
// transfers control (jump, conditional jump, indirect jump, table jump, or
// return), as opposed to relying on a physical fall-through.
func endsInControlTransfer(b *cfg.BasicBlock) bool {
	if b.Tail == nil {
		return false
	}
	switch b.Tail.Kind() {
	case cfg.InstrKindJump, cfg.InstrKindCondJump, cfg.InstrKindIndirectJump, cfg.InstrKindTableJump, cfg.InstrKindReturn:
		return true
	default:
		return false
	}
}

// appendFooter detaches insn from b's instruction chain and attaches it to
// b's footer, per the barrier-as-footer convention (SPEC_FULL item 7): the
// barrier, not the jump that precedes it, is what moves to the footer.
func appendFooter(target cfg.Target, b *cfg.BasicBlock, insn cfg.Instr) {
	target.UnlinkInsn(insn)
	if b.RBI.Footer != nil {
		panic("BUG: block " + b.String() + " already has a footer")
	}
	b.RBI.Footer = insn
}

// AddLabelsAndMissingJumps is phase 1 of the surgery pipeline: every
// crossing edge's destination gets a label, and every source that reached
// its crossing destination by pure fall-through gets an explicit jump
// synthesized in its place.
func AddLabelsAndMissingJumps(target cfg.Target, crossing []*cfg.Edge) error {
	for _, e := range crossing {
		label := target.BlockLabel(e.Dst)

		src := e.Src
		if endsInControlTransfer(src) {
			continue
		}

		switch len(src.Succs) {
		case 1:
			jmp := target.EmitJumpAfter(src, src.Tail, label)
			src.Tail = jmp
			barrier := target.EmitBarrierAfter(jmp)
			appendFooter(target, src, barrier)
			e.Flags &^= cfg.EdgeFallthru
		default:
			return errors.Errorf("bbreorder: block %s has %d successors but no terminating jump", src, len(src.Succs))
		}
	}
	return nil
}

// FixUpFallThruEdges is phase 2: every block whose fall-through edge
// crosses the partition boundary either has its conditional jump inverted
// (if the other edge is already non-crossing and lands on the block's
// layout-next), or gets a new intermediate block forced onto the
// fall-through edge.
func FixUpFallThruEdges(target cfg.Target, f *cfg.Func) {
	for _, b := range f.Blocks() {
		fe := fallthruEdge(b)
		if fe == nil || !fe.Crossing {
			continue
		}

		if ce := invertibleCondEdge(b, fe); ce != nil && target.InvertJump(b.Tail) {
			fe.Flags &^= cfg.EdgeFallthru
			ce.Flags |= cfg.EdgeFallthru
			continue
		}

		newBlk := target.ForceNonFallthru(fe)
		newBlk.Partition = b.Partition
		fe.Crossing = false
		for _, e := range newBlk.Succs {
			if e.Dst != nil && e.Dst.Partition != newBlk.Partition {
				e.Crossing = true
			}
		}
		if newBlk.Tail != nil {
			barrier := target.EmitBarrierAfter(newBlk.Tail)
			appendFooter(target, newBlk, barrier)
		}
	}
}

// crossingEdges re-enumerates every edge currently flagged Crossing, walking
// f's live block/edge lists rather than a snapshot taken before surgery
// ran. Phases 3-5 need this: FixUpFallThruEdges's forced-non-fallthru
// blocks and phase 3's own thunks introduce new crossing edges that a
// pre-surgery snapshot would never see.
func crossingEdges(f *cfg.Func) []*cfg.Edge {
	var out []*cfg.Edge
	for _, b := range f.Blocks() {
		for _, e := range b.Succs {
			if e.Crossing {
				out = append(out, e)
			}
		}
	}
	return out
}

func fallthruEdge(b *cfg.BasicBlock) *cfg.Edge {
	for _, e := range b.Succs {
		if e.Flags.Has(cfg.EdgeFallthru) {
			return e
		}
	}
	return nil
}

// invertibleCondEdge returns the non-crossing conditional-jump edge out of
// b whose destination is already b's layout-next, i.e. the edge that could
// become the new fall-through if the branch sense is flipped.
func invertibleCondEdge(b *cfg.BasicBlock, fe *cfg.Edge) *cfg.Edge {
	if b.Tail == nil || b.RBI.Next == nil {
		return nil
	}
	for _, e := range b.Succs {
		if e == fe || e.Crossing {
			continue
		}
		if e.Dst == b.RBI.Next {
			return e
		}
	}
	return nil
}

// findJumpBlock implements the thunk-reuse rule (SPEC_FULL item 4): a
// crossing predecessor of dst that begins with a label and whose only real
// instruction is a non-conditional jump can be reused as the thunk for a
// new crossing conditional branch, instead of creating a fresh block.
func findJumpBlock(dst *cfg.BasicBlock) *cfg.BasicBlock {
	for _, e := range dst.Preds {
		p := e.Src
		if p == nil || !e.Crossing {
			continue
		}
		if p.Head == nil || p.Head.Kind() != cfg.InstrKindLabel {
			continue
		}
		real := p.Head.Next()
		if real == nil || real.Kind() != cfg.InstrKindJump || real != p.Tail {
			continue
		}
		return p
	}
	return nil
}

// FixCrossingConditionalBranches is phase 3, run only when the target lacks
// long-range conditional branches: every crossing conditional branch is
// retargeted to a same-partition thunk that then jumps (or returns) to the
// real destination.
func FixCrossingConditionalBranches(target cfg.Target, f *cfg.Func) {
	if target.HasLongCondBranch() {
		return
	}

	for _, e := range crossingEdges(f) {
		src := e.Src
		if src.Tail == nil || !target.AnyCondJump(src.Tail) {
			continue
		}

		thunk := findJumpBlock(e.Dst)
		reused := thunk != nil
		if !reused {
			thunk = target.CreateBasicBlock(src.Partition)
			if e.Dst.IsExit() && target.HasReturnInsn() {
				thunk.Tail = target.EmitReturnAfter(thunk, nil)
				thunk.Head = thunk.Tail
			} else {
				label := target.BlockLabel(e.Dst)
				thunk.Tail = target.EmitJumpAfter(thunk, nil, label)
				thunk.Head = thunk.Tail
			}
			if blocks := f.Blocks(); len(blocks) > 1 {
				prevLast := blocks[len(blocks)-2]
				if prevLast.LiveAtStart != nil {
					thunk.LiveAtStart = prevLast.LiveAtStart.Clone()
				}
				if prevLast.LiveAtEnd != nil {
					thunk.LiveAtEnd = prevLast.LiveAtEnd.Clone()
				}
			}
		}

		dst := e.Dst
		target.RedirectJump(src.Tail, target.BlockLabel(thunk))
		target.RedirectEdgeSucc(e, thunk)
		e.Crossing = false

		if !reused {
			newEdge := target.MakeEdge(thunk, dst, e.Flags, e.Probability)
			newEdge.Crossing = true
		}
	}
}

// FixCrossingUnconditionalBranches is phase 4, run only when the target
// lacks long-range unconditional branches: every crossing direct
// unconditional jump is replaced by `reg <- &label; indirect_jump(reg)`.
func FixCrossingUnconditionalBranches(target cfg.Target, f *cfg.Func) {
	if target.HasLongUncondBranch() {
		return
	}

	for _, e := range crossingEdges(f) {
		src := e.Src
		if src.Tail == nil || src.Tail.Kind() != cfg.InstrKindJump {
			continue
		}

		label := target.BlockLabel(e.Dst)
		reg := target.AllocPseudoReg()
		before := src.Tail.Prev()
		load := target.EmitLoadLabelAddr(before, reg, label)
		indirect := target.EmitIndirectJumpAfter(load, reg)
		target.DeleteInsn(src.Tail)
		src.Tail = indirect
	}
}

// AddRegCrossingJumpNotes is phase 5: attach a crossing-jump annotation to
// every jump instruction whose outgoing edge crosses the partition.
func AddRegCrossingJumpNotes(target cfg.Target, f *cfg.Func) {
	for _, e := range crossingEdges(f) {
		if e.Src == nil || e.Src.Tail == nil {
			continue
		}
		switch e.Src.Tail.Kind() {
		case cfg.InstrKindJump, cfg.InstrKindCondJump, cfg.InstrKindIndirectJump, cfg.InstrKindTableJump:
			target.EmitNoteAfter(e.Src.Tail, "crossing_jump")
		}
	}
}
