package layout

import "github.com/gocfg/bbreorder/internal/cfg"

// ConnectTraces implements connect_traces: it links traces[0..n) end to end
// by following natural fall-throughs wherever possible, duplicating a small
// connector block where that's cheaper than an extra jump, and returns the
// head of the resulting chain (traces[0].First once every trace has been
// folded into place).
func ConnectTraces(f *cfg.Func, target cfg.Target, traces []*Trace, maxEntryFrequency int32, maxEntryCount int64, partitioningEnabled bool) *cfg.BasicBlock {
	if len(traces) == 0 {
		return nil
	}

	freqTh := int64(maxEntryFrequency) * duplicationThresholdPerMille / 1000
	countTh := maxEntryCount * duplicationThresholdPerMille / 1000

	firstOf := make(map[*cfg.BasicBlock]int, len(traces))
	lastOf := make(map[*cfg.BasicBlock]int, len(traces))
	for i, t := range traces {
		firstOf[t.First] = i
		lastOf[t.Last] = i
	}

	connected := make([]bool, len(traces))
	if partitioningEnabled {
		for i, t := range traces {
			if t.First.Partition == cfg.PartitionCold {
				connected[i] = true
			}
		}
	}

	var chainHead, chainTail *cfg.BasicBlock
	appendToChain := func(segFirst, segLast *cfg.BasicBlock) {
		if chainTail == nil {
			chainHead = segFirst
		} else {
			chainTail.RBI.Next = segFirst
		}
		chainTail = segLast
	}

	connectPhase := func(coldPhase bool) {
		for i, t := range traces {
			if connected[i] {
				continue
			}
			if partitioningEnabled {
				isCold := t.First.Partition == cfg.PartitionCold
				if isCold != coldPhase {
					continue
				}
			}
			connected[i] = true

			// The backward walk never runs for trace 0, and stops as soon
			// as it reaches trace 0, matching the original's `for (t2 = t;
			// t2 > 0;)` bound: traces[0].First must stay the chain head,
			// never itself get prepended onto, and never extend the search
			// past it once reached.
			front := t.First
			for frontIdx := i; frontIdx > 0; {
				predIdx, ok := findBackwardPredecessor(front, traces, connected, firstOf, lastOf)
				if !ok {
					break
				}
				connected[predIdx] = true
				traces[predIdx].Last.RBI.Next = front
				front = traces[predIdx].First
				frontIdx = predIdx
			}

			tail := t.Last
			for {
				if succIdx, ok := findForwardSuccessor(tail, traces, connected, firstOf); ok {
					connected[succIdx] = true
					tail.RBI.Next = traces[succIdx].First
					tail = traces[succIdx].Last
					continue
				}
				if partitioningEnabled {
					break
				}
				m, n, e, e2, ok := findDuplicationPair(tail, traces, connected, firstOf, freqTh, countTh)
				if !ok {
					break
				}
				codeMayGrow := !target.OptimizeSize() && e.Frequency() >= freqTh && e.Count >= countTh
				if !copyBBP(target, m, codeMayGrow) {
					break
				}
				dup := target.DuplicateBlock(m, e)
				tail.RBI.Next = dup
				target.RedirectEdgeSucc(e, dup)
				if n != nil {
					target.MakeEdge(dup, n, e2.Flags, e2.Probability)
				}
				tail = dup
				if n == nil {
					break
				}
				succIdx, ok := firstOf[n]
				if !ok || connected[succIdx] {
					break
				}
				connected[succIdx] = true
				tail.RBI.Next = traces[succIdx].First
				tail = traces[succIdx].Last
			}

			appendToChain(front, tail)
		}
	}

	connectPhase(false)
	if partitioningEnabled {
		for i, t := range traces {
			if t.First.Partition == cfg.PartitionCold {
				connected[i] = false
			}
		}
		connectPhase(true)
	}

	if chainTail != nil {
		chainTail.RBI.Next = nil
	}
	return chainHead
}

// findBackwardPredecessor returns the index of the unconnected trace whose
// last block has the highest-probability qualifying fall-through edge into
// front, tie-broken on trace length.
func findBackwardPredecessor(front *cfg.BasicBlock, traces []*Trace, connected []bool, firstOf, lastOf map[*cfg.BasicBlock]int) (int, bool) {
	best := -1
	var bestProb int32
	for _, e := range front.Preds {
		if e.Src == nil || !e.Flags.Has(cfg.EdgeCanFallthru) || e.Flags.Has(cfg.EdgeComplex) {
			continue
		}
		idx, ok := lastOf[e.Src]
		if !ok || connected[idx] {
			continue
		}
		if best < 0 || e.Probability > bestProb ||
			(e.Probability == bestProb && traces[idx].Length > traces[best].Length) {
			best, bestProb = idx, e.Probability
		}
	}
	return best, best >= 0
}

// findForwardSuccessor returns the index of the unconnected trace whose
// first block is reached by the highest-probability qualifying
// fall-through edge out of tail, tie-broken on trace length.
func findForwardSuccessor(tail *cfg.BasicBlock, traces []*Trace, connected []bool, firstOf map[*cfg.BasicBlock]int) (int, bool) {
	best := -1
	var bestProb int32
	for _, e := range tail.Succs {
		if e.Dst == nil || !e.Flags.Has(cfg.EdgeCanFallthru) || e.Flags.Has(cfg.EdgeComplex) {
			continue
		}
		idx, ok := firstOf[e.Dst]
		if !ok || connected[idx] {
			continue
		}
		if best < 0 || e.Probability > bestProb ||
			(e.Probability == bestProb && traces[idx].Length > traces[best].Length) {
			best, bestProb = idx, e.Probability
		}
	}
	return best, best >= 0
}

// findDuplicationPair implements connect_traces step 3: search (e, e2)
// pairs with e: tail -> m and e2: m -> n where n is nil (modeling EXIT) or
// starts an unconnected trace, picking by best e.Probability, then
// e2.Probability, then the longer target trace (nil/EXIT treated as
// infinite length).
func findDuplicationPair(tail *cfg.BasicBlock, traces []*Trace, connected []bool, firstOf map[*cfg.BasicBlock]int, freqTh int64, countTh int64) (m, n *cfg.BasicBlock, e, e2 *cfg.Edge, ok bool) {
	var bestEProb, bestE2Prob int32
	bestLen := -1
	for _, cand := range tail.Succs {
		if cand.Dst == nil {
			continue
		}
		mm := cand.Dst
		for _, cand2 := range mm.Succs {
			if !cand2.Flags.Has(cfg.EdgeCanFallthru) || cand2.Flags.Has(cfg.EdgeComplex) {
				continue
			}
			if cand2.Frequency() < freqTh || cand2.Count < countTh {
				continue
			}
			var nn *cfg.BasicBlock
			length := 1 << 30 // EXIT treated as infinite length
			if cand2.Dst != nil && !cand2.Dst.IsExit() {
				idx, isStart := firstOf[cand2.Dst]
				if !isStart || connected[idx] {
					continue
				}
				nn = cand2.Dst
				length = traces[idx].Length
			}

			better := !ok ||
				cand.Probability > bestEProb ||
				(cand.Probability == bestEProb && cand2.Probability > bestE2Prob) ||
				(cand.Probability == bestEProb && cand2.Probability == bestE2Prob && length > bestLen)
			if better {
				m, n, e, e2, ok = mm, nn, cand, cand2, true
				bestEProb, bestE2Prob, bestLen = cand.Probability, cand2.Probability, length
			}
		}
	}
	return
}
