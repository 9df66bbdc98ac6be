package layout

import (
	"github.com/go-logr/logr"

	"github.com/gocfg/bbreorder/internal/cfg"
)

// Trace is a linear sequence of blocks intended to be placed contiguously,
// recovered by walking first.RBI.Next until last.
type Trace struct {
	ID          cfg.TraceID
	First, Last *cfg.BasicBlock
	Round       int
	Length      int
}

// thresholds holds one round's scaled probability/frequency/count floors.
type thresholds struct {
	branch int32
	exec   int64
	count  int64
}

func scaleThresholds(r int, maxEntryFrequency int32, maxEntryCount int64) thresholds {
	i := r
	if i >= nRounds {
		i = nRounds - 1
	}
	return thresholds{
		branch: int32(int64(cfg.ProbBase) * int64(branchThresholdPerMille[i]) / 1000),
		exec:   int64(maxEntryFrequency) * int64(execThresholdPerMille[i]) / 1000,
		count:  maxEntryCount * int64(execThresholdPerMille[i]) / 1000,
	}
}

// FindTraces implements find_traces: the outer round driver. It seeds a
// heap with every real block, then repeatedly runs findTraces1Round,
// handing the deferred (next-round) heap back in as the input to the
// following round, until every block has joined a trace. When
// partitioningEnabled, one extra round is appended and deferral is kept
// active through what would otherwise be the last normal round, so cold
// blocks are pushed into that final, cold-only round.
func FindTraces(f *cfg.Func, target cfg.Target, maxEntryFrequency int32, maxEntryCount int64, partitioningEnabled bool, log logr.Logger) []*Trace {
	n := f.NumBlocks()
	traces := make([]*Trace, 0, n)
	var nextID cfg.TraceID = 1

	lastRound := nRounds - 1
	if partitioningEnabled {
		lastRound = nRounds
	}

	h := newSeedHeap(f, 0)
	for _, b := range f.Blocks() {
		if b.IsEntry() || b.IsExit() {
			continue
		}
		h.insert(b, BBToKey(f, b))
	}

	for r := 0; r <= lastRound; r++ {
		th := scaleThresholds(r, maxEntryFrequency, maxEntryCount)
		next := newSeedHeap(f, (r+1)%2)
		roundIsNotLast := r < lastRound
		before := len(traces)
		traces, nextID = findTraces1Round(f, target, h, next, th, r, roundIsNotLast, traces, nextID, partitioningEnabled)
		log.V(1).Info("trace round complete", "round", r, "tracesOpened", len(traces)-before)
		h = next
	}

	return traces
}

// findTraces1Round drains h, opening and growing traces from its seeds,
// and returns the updated traces slice and next trace id. Blocks deferred
// past this round are pushed into next.
func findTraces1Round(f *cfg.Func, target cfg.Target, h, next *seedHeap, th thresholds, round int, roundIsNotLast bool, traces []*Trace, nextID cfg.TraceID, partitioningEnabled bool) ([]*Trace, cfg.TraceID) {
	for {
		bb := h.extractMin()
		if bb == nil {
			break
		}
		if bb.Visited() != 0 {
			continue
		}

		if roundIsNotLast && deferrable(bb, th) {
			next.insert(bb, BBToKey(f, bb))
			continue
		}

		id := nextID
		nextID++
		bb.MarkVisited(id)
		trace := &Trace{ID: id, First: bb, Round: round, Length: 1}
		traces = append(traces, trace)

		tail := bb
		for {
			best := selectBestEdge(tail, th, roundIsNotLast, partitioningEnabled)

			if best != nil && best.Dst.Visited() == 0 && len(best.Dst.Preds) >= 2 && copyBBP(target, best.Dst, false) {
				// Leave duplication of a shared, cheap successor to the
				// connector rather than claiming it for this trace.
				best = nil
			}

			deferLosers(f, h, next, tail, best, th, roundIsNotLast)

			if best != nil && best.Dst != nil && best.Dst.Visited() == 0 {
				best = tryTriangleRewrite(tail, best)
			}

			if best == nil {
				break
			}

			d := best.Dst
			if d.Visited() == id {
				tail = closeLoop(f, target, trace, tail, d, id)
				break
			}

			tail.RBI.Next = d
			d.MarkVisited(id)
			tail = d
			trace.Length++
		}

		trace.Last = tail
		f.SetStartOfTrace(trace.First, id)
		f.SetEndOfTrace(trace.Last, id)
		rekeySuccessors(f, h, next, tail)
	}
	return traces, nextID
}

// deferrable reports whether bb qualifies for push_to_next_round_p's
// deferral condition.
func deferrable(bb *cfg.BasicBlock, th thresholds) bool {
	return bb.Partition == cfg.PartitionCold ||
		int64(bb.Frequency) < th.exec ||
		bb.Count < th.count ||
		bb.ProbablyNeverExecuted
}

// selectBestEdge scans tail's out-edges and returns the best candidate per
// better_edge_p, after applying the exclusion and threshold filters of
// §4.2 step 3. Returns nil if nothing survives.
func selectBestEdge(tail *cfg.BasicBlock, th thresholds, roundIsNotLast bool, partitioningEnabled bool) *cfg.Edge {
	var best *cfg.Edge
	for _, e := range tail.Succs {
		if e.Dst == nil || e.Dst.IsExit() {
			continue
		}
		if e.Dst.Visited() != 0 && e.Dst.Visited() != tail.Visited() {
			continue
		}
		if e.Flags.Has(cfg.EdgeFake) {
			panic("BUG: fake edge reachable as a trace candidate from " + tail.String())
		}
		if !e.Flags.Has(cfg.EdgeCanFallthru) || e.Flags.Has(cfg.EdgeComplex) {
			continue
		}
		if roundIsNotLast && e.Dst.Partition == cfg.PartitionCold {
			continue
		}
		if e.Probability < th.branch || e.Frequency() < th.exec || e.Count < th.count {
			continue
		}
		if betterEdgeP(tail, best, e, partitioningEnabled) {
			best = e
		}
	}
	return best
}

// tryTriangleRewrite implements §4.2 step 6: if some other out-edge of tail
// reaches an unvisited single-pred block m that itself falls straight
// through to best.Dst at comparable benefit, prefer tail->m over the
// original best so the triangle collapses into one trace.
func tryTriangleRewrite(tail *cfg.BasicBlock, best *cfg.Edge) *cfg.Edge {
	for _, e := range tail.Succs {
		m := e.Dst
		if e == best || m == nil || m == best.Dst || m.Visited() != 0 {
			continue
		}
		if len(m.Preds) != 1 || e.Crossing {
			continue
		}
		if len(m.Succs) != 1 {
			continue
		}
		fallthru := m.Succs[0]
		if fallthru.Dst != best.Dst || !fallthru.Flags.Has(cfg.EdgeCanFallthru) || fallthru.Flags.Has(cfg.EdgeComplex) {
			continue
		}
		if 2*int64(m.Frequency) >= best.Frequency() {
			return e
		}
	}
	return best
}

// closeLoop implements §4.2 step 5: best's destination d closes a cycle
// back to an earlier member of the open trace. It returns the trace's new
// tail.
func closeLoop(f *cfg.Func, target cfg.Target, trace *Trace, tail, d *cfg.BasicBlock, id cfg.TraceID) *cfg.BasicBlock {
	if d == tail {
		// Self-loop: nothing special, the trace simply ends here.
		return tail
	}

	isEntryAdjacent := false
	for _, e := range d.Preds {
		if e.Src != nil && e.Src.IsEntry() {
			isEntryAdjacent = true
			break
		}
	}

	var backEdge *cfg.Edge
	for _, e := range tail.Succs {
		if e.Dst == d {
			backEdge = e
			break
		}
	}

	if backEdge != nil && !isEntryAdjacent &&
		backEdge.Frequency()*loopRotationDenominator > int64(d.Frequency)*loopRotationNumerator {
		tail.RBI.Next = d
		return rotateLoop(f, target, trace, d, tail, id)
	}

	if len(tail.Succs) == 1 && copyBBP(target, d, !target.OptimizeSize()) {
		dup := target.DuplicateBlock(d, tail.Succs[0])
		target.RedirectEdgeSucc(tail.Succs[0], dup)
		tail.RBI.Next = dup
		dup.MarkVisited(id)
		return dup
	}

	return tail
}

// deferLosers implements §4.2 step 4: every unvisited, non-EXIT successor
// of tail that isn't best gets (re-)keyed into whichever heap it belongs
// in.
func deferLosers(f *cfg.Func, h, next *seedHeap, tail *cfg.BasicBlock, best *cfg.Edge, th thresholds, roundIsNotLast bool) {
	for _, e := range tail.Succs {
		d := e.Dst
		if d == nil || d.IsExit() || d.Visited() != 0 || e == best {
			continue
		}
		key := BBToKey(f, d)
		if _, ok := h.contains(d); ok {
			h.update(d, key)
			continue
		}
		if _, ok := next.contains(d); ok {
			next.update(d, key)
			continue
		}
		failsThresholds := e.Probability < th.branch || e.Frequency() < th.exec || e.Count < th.count
		if roundIsNotLast && failsThresholds && deferrable(d, th) {
			next.insert(d, key)
		} else {
			h.insert(d, key)
		}
	}
}

// rekeySuccessors implements the post-termination re-key step: every
// unvisited successor of the final tail that's resident in a heap gets a
// fresh key, because its priority may have risen now that end_of_trace is
// visible for tail.
func rekeySuccessors(f *cfg.Func, h, next *seedHeap, tail *cfg.BasicBlock) {
	for _, e := range tail.Succs {
		d := e.Dst
		if d == nil || d.IsExit() || d.Visited() != 0 {
			continue
		}
		key := BBToKey(f, d)
		if _, ok := h.contains(d); ok {
			h.update(d, key)
		} else if _, ok := next.contains(d); ok {
			next.update(d, key)
		}
	}
}
