// Package layout implements the trace-formation half of the core: the
// priority-keyed greedy round structure that groups basic blocks into
// linear traces, and the connector that stitches those traces into one
// final chain.
package layout

import "github.com/gocfg/bbreorder/internal/cfg"

// BBToKey produces the heap key for a candidate seed b, following bb_to_key.
// Lower keys sort first; the min-heap always extracts the highest-priority
// seed.
func BBToKey(f *cfg.Func, b *cfg.BasicBlock) int64 {
	if b.Partition == cfg.PartitionCold || b.ProbablyNeverExecuted {
		return cfg.BBFreqMax
	}

	var priority int64
	for _, e := range b.Preds {
		p := e.Src
		if p == nil || p.IsEntry() {
			continue
		}
		_, hasEnd := f.EndOfTrace(p)
		if !hasEnd && !e.Flags.Has(cfg.EdgeDFSBack) {
			continue
		}
		if fr := e.Frequency(); fr > priority {
			priority = fr
		}
	}

	if priority > 0 {
		// Blocks reachable from already-finished traces dominate all
		// others: ordered first by the incoming already-placed edge's
		// frequency, then by the block's own frequency. The 100x
		// multipliers keep the priority term from ever being swamped by
		// the frequency tie-break.
		return -(100*int64(cfg.BBFreqMax) + 100*priority + int64(b.Frequency))
	}
	return -int64(b.Frequency)
}
