package partition

import (
	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/gocfg/bbreorder/internal/cfg"
)

// PartitionHotColdBasicBlocks implements partition_hot_cold_basic_blocks:
// classifies every block, runs the fixed-order surgery pipeline so the
// partition boundary is physically realizable, and marks every cold block
// with an unlikely-executed note. It early-returns when f has at most one
// block.
func PartitionHotColdBasicBlocks(f *cfg.Func, target cfg.Target, log logr.Logger) error {
	if f.NumBlocks() <= 1 {
		return nil
	}

	crossing := Classify(f, target)
	log.V(1).Info("classified blocks", "crossingEdges", len(crossing))

	if err := AddLabelsAndMissingJumps(target, crossing); err != nil {
		return errors.Wrap(err, "add labels and missing jumps")
	}
	FixUpFallThruEdges(target, f)
	FixCrossingConditionalBranches(target, f)
	FixCrossingUnconditionalBranches(target, f)
	AddRegCrossingJumpNotes(target, f)

	for _, b := range f.Blocks() {
		if b.Partition == cfg.PartitionCold {
			markUnlikelyExecuted(target, b)
		}
	}
	log.V(1).Info("partition surgery complete", "blocks", f.NumBlocks())
	return nil
}

// markUnlikelyExecuted places the unlikely-executed marker immediately
// before the first non-note/non-label instruction of b, or after b's last
// instruction if it contains only notes/labels (SPEC_FULL item 8).
func markUnlikelyExecuted(target cfg.Target, b *cfg.BasicBlock) {
	for insn := b.Head; insn != nil; insn = insn.Next() {
		if insn.Kind() != cfg.InstrKindNote && insn.Kind() != cfg.InstrKindLabel {
			target.EmitNoteBefore(insn, "unlikely_executed")
			return
		}
		if insn == b.Tail {
			break
		}
	}
	if b.Tail != nil {
		target.EmitNoteAfter(b.Tail, "unlikely_executed")
	}
}
