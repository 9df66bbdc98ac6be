package layout

import "github.com/gocfg/bbreorder/internal/cfg"

// equivalenceBandPerMille is the ±10% window within which two edges'
// probabilities are treated as a tie by better_edge_p, expressed in
// per-mille of the candidate's own probability.
const equivalenceBandPerMille = 100

// probabilitiesEquivalent reports whether cur and cand are within ±10% of
// each other.
func probabilitiesEquivalent(cur, cand int32) bool {
	if cand == 0 {
		return cur == 0
	}
	band := int32(int64(cand) * equivalenceBandPerMille / 1000)
	diff := cur - cand
	if diff < 0 {
		diff = -diff
	}
	return diff <= band
}

// betterEdgeP reports whether cand is a better successor choice than cur
// (the current best, which may be nil) when extending a trace from bb,
// following better_edge_p. partitioningEnabled gates the final crossing-edge
// override.
func betterEdgeP(bb *cfg.BasicBlock, cur, cand *cfg.Edge, partitioningEnabled bool) bool {
	if cur == nil {
		return true
	}

	if partitioningEnabled && cur.Crossing != cand.Crossing {
		// Any non-crossing edge beats any crossing edge, regardless of
		// everything else.
		return !cand.Crossing
	}

	if !probabilitiesEquivalent(cur.Probability, cand.Probability) {
		return cand.Probability > cur.Probability
	}

	// Equivalent probability: lower successor frequency wins, reading a
	// near-equal-probability edge into a high-frequency block as
	// evidence of another hot predecessor competing for it.
	curFreq, candFreq := cur.Dst.Frequency, cand.Dst.Frequency
	if curFreq != candFreq {
		return candFreq < curFreq
	}

	// Final stability tie-break: prefer whichever destination was bb's
	// neighbour in the layout this pass started from.
	if bb.LayoutNext != nil {
		if cand.Dst == bb.LayoutNext {
			return true
		}
		if cur.Dst == bb.LayoutNext {
			return false
		}
	}

	return false
}
