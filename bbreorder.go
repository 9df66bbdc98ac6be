// Package bbreorder implements the basic-block reordering and hot/cold
// partitioning core of a compiler back-end: trace formation along the
// hottest fall-through paths ("Software Trace Cache"), trace connection
// with guarded block duplication, and the CFG surgery that makes a
// hot/cold partition physically realizable on targets with limited branch
// range.
//
// The package only consumes a CFG already built by the host compiler,
// through the cfg.Target interface; it never constructs one itself.
package bbreorder

import (
	"github.com/go-logr/logr"

	"github.com/gocfg/bbreorder/internal/cfg"
	"github.com/gocfg/bbreorder/internal/layout"
	"github.com/gocfg/bbreorder/internal/partition"
)

// Options configures one pass invocation. The zero value is valid:
// partitioning is off and logging is discarded.
type Options struct {
	// PartitioningEnabled threads the hot/cold partition into trace
	// formation and connection: cold blocks are deferred to a final
	// round, connected only after every hot trace, and
	// better_edge_p prefers any non-crossing edge over any crossing one.
	PartitioningEnabled bool
	// Log receives V(1) records at the end of each trace-formation round
	// and when reordering completes. The zero logr.Logger discards
	// everything. PartitionHotColdBasicBlocks takes its own logger.
	Log logr.Logger
}

// uncondJumpLengthCache memoizes Target.UncondJumpLength per Target, since
// SPEC_FULL pins this down as "computed once, reused across calls on the
// same Target until Target changes" rather than re-measured every call.
var uncondJumpLengthCache = map[cfg.Target]int{}

func uncondJumpLength(t cfg.Target) int {
	if v, ok := uncondJumpLengthCache[t]; ok {
		return v
	}
	v := t.UncondJumpLength()
	uncondJumpLengthCache[t] = v
	return v
}

// cachingTarget wraps a Target so every UncondJumpLength call within (and
// across) a pass invocation hits the memoized value above, without
// requiring Target implementations to do their own caching.
type cachingTarget struct{ cfg.Target }

func (c cachingTarget) UncondJumpLength() int { return uncondJumpLength(c.Target) }

// entryMaxima computes max_entry_frequency and max_entry_count from the
// successors of f's synthetic entry block, matching the "computed once
// from the successors of the synthetic entry block" global state.
func entryMaxima(f *cfg.Func) (maxFrequency int32, maxCount int64) {
	entry := f.Entry()
	if entry == nil {
		return 0, 0
	}
	for _, e := range entry.Succs {
		if e.Dst == nil {
			continue
		}
		if e.Dst.Frequency > maxFrequency {
			maxFrequency = e.Dst.Frequency
		}
		if e.Dst.Count > maxCount {
			maxCount = e.Dst.Count
		}
	}
	return maxFrequency, maxCount
}

// ReorderBasicBlocks implements reorder_basic_blocks: it forms traces along
// the hottest fall-through paths, then connects them into a single linear
// chain recoverable by walking BasicBlock.RBI.Next from the first trace's
// first block. It early-returns, leaving f untouched, when f has at most
// one block or target forbids jump modification.
func ReorderBasicBlocks(f *cfg.Func, target cfg.Target, opts Options) error {
	if f.NumBlocks() <= 1 {
		return nil
	}
	if target.CannotModifyJumps() {
		return nil
	}

	ct := cachingTarget{target}
	cfg.MarkDFSBackEdges(f)
	maxFrequency, maxCount := entryMaxima(f)

	traces := layout.FindTraces(f, ct, maxFrequency, maxCount, opts.PartitioningEnabled, opts.Log)
	if len(traces) == 0 {
		panic("BUG: find_traces produced no traces for a function with more than one block")
	}
	layout.ConnectTraces(f, ct, traces, maxFrequency, maxCount, opts.PartitioningEnabled)

	opts.Log.V(1).Info("reorder complete", "traces", len(traces), "blocks", f.NumBlocks())
	return nil
}

// PartitionHotColdBasicBlocks implements partition_hot_cold_basic_blocks:
// it classifies every block as hot or cold, rewrites the CFG so no
// fall-through and (on targets with limited branch range) no conditional
// or unconditional jump crosses the partition boundary, and marks every
// cold block with an unlikely-executed note. It early-returns, leaving f
// untouched, when f has at most one block.
func PartitionHotColdBasicBlocks(f *cfg.Func, target cfg.Target, log logr.Logger) error {
	ct := cachingTarget{target}
	return partition.PartitionHotColdBasicBlocks(f, ct, log)
}
