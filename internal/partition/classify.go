// Package partition implements hot/cold partitioning: classifying each
// block, enumerating the edges that cross the resulting boundary, and the
// CFG surgery required to make that boundary physically realizable.
package partition

import "github.com/gocfg/bbreorder/internal/cfg"

// Classify sets Partition on every real block of f and marks every edge
// whose endpoints land in different partitions as Crossing, returning the
// crossing edges in discovery order. A block is Cold iff the target or the
// block itself reports it as probably never executed; Hot otherwise.
//
// The crossing-edge slice grows the way append always does (geometric
// doubling on overflow) rather than being pre-sized, which is what the
// original's "doubling-sized buffer" amounts to in a language with a
// growable slice builtin.
func Classify(f *cfg.Func, target cfg.Target) []*cfg.Edge {
	for _, b := range f.Blocks() {
		if b.ProbablyNeverExecuted || target.ProbablyNeverExecuted(b) {
			b.Partition = cfg.PartitionCold
		} else {
			b.Partition = cfg.PartitionHot
		}
	}

	var crossing []*cfg.Edge
	for _, b := range f.Blocks() {
		for _, e := range b.Succs {
			if e.Src == nil || e.Dst == nil || e.Src.IsEntry() || e.Src.IsExit() || e.Dst.IsEntry() || e.Dst.IsExit() {
				continue
			}
			e.Crossing = e.Src.Partition != e.Dst.Partition
			if e.Crossing {
				crossing = append(crossing, e)
			}
		}
	}
	return crossing
}
