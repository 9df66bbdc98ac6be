package layout

import "github.com/gocfg/bbreorder/internal/cfg"

// maxSuccessorsForDuplication is the successor-count gate named in the
// tuning-constants table (spec §6): a block with more out-edges than this
// is never duplicated, regardless of size.
const maxSuccessorsForDuplication = 8

// hotDuplicationSizeMultiplier scales the size bound when codeMayGrow holds
// and the candidate block might be hot.
const hotDuplicationSizeMultiplier = 8

// copyBBP implements copy_bb_p: whether b is cheap enough, and has a shape
// that makes duplicating it (onto some edge) worthwhile.
func copyBBP(target cfg.Target, b *cfg.BasicBlock, codeMayGrow bool) bool {
	if b.Frequency == 0 {
		return false
	}
	if len(b.Preds) < 2 {
		return false
	}
	if !target.CanDuplicateBlock(b) {
		return false
	}
	if len(b.Succs) > maxSuccessorsForDuplication {
		return false
	}

	bound := target.UncondJumpLength()
	if codeMayGrow && target.MaybeHot(b) {
		bound *= hotDuplicationSizeMultiplier
	}
	return instrLenSum(target, b) <= bound
}

// instrLenSum sums a block's instruction lengths in the units
// Target.UncondJumpLength is expressed in.
func instrLenSum(target cfg.Target, b *cfg.BasicBlock) int {
	var total int
	for insn := b.Head; insn != nil; insn = insn.Next() {
		total += target.AttrLength(insn)
		if insn == b.Tail {
			break
		}
	}
	return total
}
