package layout

import "github.com/gocfg/bbreorder/internal/cfg"

// rotateLoop implements rotate_loop. head is the destination of a back-edge
// discovered while growing trace from its current tail; by the time this is
// called, the caller has already set tail.RBI.Next = head so the loop's
// full membership (head..tail) can be walked as one chain. It returns the
// trace's new tail (which may be the original tail, unchanged, if no
// rotation candidate was found).
func rotateLoop(f *cfg.Func, target cfg.Target, trace *Trace, head, tail *cfg.BasicBlock, traceID cfg.TraceID) *cfg.BasicBlock {
	chain := walkChain(head, tail)

	bestIdx := -1
	var bestFreq int64
	var bestCount int64
	bestPreferred := false

	for i, b := range chain {
		for _, e := range b.Succs {
			if e.Dst == nil || inChain(chain, e.Dst) {
				continue
			}
			if !e.Flags.Has(cfg.EdgeCanFallthru) || e.Flags.Has(cfg.EdgeComplex) {
				continue
			}
			dstStart, hasStart := f.StartOfTrace(e.Dst)
			preferred := e.Dst.Visited() == 0 || (hasStart && dstStart == e.Dst.Visited())

			freq := e.Frequency()
			better := false
			switch {
			case bestIdx < 0:
				better = true
			case preferred && !bestPreferred:
				better = true
			case preferred == bestPreferred:
				if freq > bestFreq {
					better = true
				} else if freq == bestFreq && e.Count > bestCount {
					better = true
				}
			}
			if better {
				bestIdx, bestFreq, bestCount, bestPreferred = i, freq, e.Count, preferred
			}
		}
	}

	if bestIdx < 0 {
		tail.RBI.Next = nil
		return tail
	}

	bestBB := chain[bestIdx]
	newOrder := append(append([]*cfg.BasicBlock{}, chain[bestIdx+1:]...), chain[:bestIdx+1]...)

	if head == trace.First {
		trace.First = newOrder[0]
	} else {
		prefixTail := findPredecessorInTrace(trace.First, head)
		if prefixTail == nil {
			panic("BUG: rotate_loop head not reachable from trace.First")
		}
		prefixTail.RBI.Next = newOrder[0]
		maybeDuplicateSplicedHeader(f, target, prefixTail, head)
	}

	for i, b := range newOrder {
		if i == len(newOrder)-1 {
			b.RBI.Next = nil
		} else {
			b.RBI.Next = newOrder[i+1]
		}
	}

	trace.Last = bestBB
	return bestBB
}

// walkChain returns the blocks from first to last, inclusive, following
// RBI.Next.
func walkChain(first, last *cfg.BasicBlock) []*cfg.BasicBlock {
	var chain []*cfg.BasicBlock
	for b := first; b != nil; b = b.RBI.Next {
		chain = append(chain, b)
		if b == last {
			break
		}
	}
	return chain
}

func inChain(chain []*cfg.BasicBlock, b *cfg.BasicBlock) bool {
	for _, c := range chain {
		if c == b {
			return true
		}
	}
	return false
}

// findPredecessorInTrace returns the block in the chain rooted at first
// whose RBI.Next is target, or nil if target is unreachable from first.
func findPredecessorInTrace(first, target *cfg.BasicBlock) *cfg.BasicBlock {
	for b := first; b != nil; b = b.RBI.Next {
		if b.RBI.Next == target {
			return b
		}
	}
	return nil
}

// maybeDuplicateSplicedHeader implements the header-duplication heuristic
// from §4.4's last sentence: when the block now preceding the rotated
// segment has a single successor that is itself a short conditional-jump
// block, duplicate that block inline rather than leave an
// unconditional-jump-to-conditional-jump chain in the final layout.
func maybeDuplicateSplicedHeader(f *cfg.Func, target cfg.Target, pred, header *cfg.BasicBlock) {
	if len(pred.Succs) != 1 || pred.Succs[0].Dst != header {
		return
	}
	if header.Tail == nil || !target.AnyCondJump(header.Tail) {
		return
	}
	if !copyBBP(target, header, false) {
		return
	}
	dup := target.DuplicateBlock(header, pred.Succs[0])
	target.RedirectEdgeSucc(pred.Succs[0], dup)
	dup.MarkVisited(pred.Visited())
	dup.RBI.Next = pred.RBI.Next
	pred.RBI.Next = dup
}
