package cfg

// EdgeFlags is a bit-set of the edge properties the trace builder and the
// partition surgery inspect. Named after the flags bb-reorder.c reads off
// the RTL edge struct.
type EdgeFlags uint16

const (
	// EdgeCanFallthru marks an edge whose destination may be laid out
	// immediately after the source, eliminating an explicit branch.
	EdgeCanFallthru EdgeFlags = 1 << iota
	// EdgeComplex marks an edge with control-flow side effects beyond a
	// plain jump (e.g. an EH edge); such edges are never used for traces.
	EdgeComplex
	// EdgeFallthru marks an edge that is *currently* laid out as a
	// fall-through. Cleared by surgery when a jump is synthesized.
	EdgeFallthru
	// EdgeFake marks an edge inserted only to keep the graph connected
	// (e.g. to a synthetic exit); never a candidate for a best edge.
	EdgeFake
	// EdgeDFSBack marks an edge discovered as a back-edge by a
	// depth-first traversal from the entry block. See MarkDFSBackEdges.
	EdgeDFSBack
)

func (f EdgeFlags) Has(bit EdgeFlags) bool { return f&bit != 0 }

// Edge is a directed control-flow edge between two blocks, consumed by the
// reordering and partitioning passes. The host compiler owns the edge's
// identity and lifetime; this package only reads and mutates the fields
// named here.
type Edge struct {
	Src, Dst *BasicBlock

	// Probability is e's share of Src's outgoing control flow, expressed
	// as a fixed-point fraction of ProbBase.
	Probability int32
	// Count is an absolute profile count, possibly saturating.
	Count int64

	Flags EdgeFlags

	// Crossing is set by the partition classifier and consumed by the
	// surgery pipeline and by better_edge_p's tie-break.
	Crossing bool
}

// Frequency estimates the execution frequency of traffic along e, scaled by
// the source block's frequency and e's probability. This mirrors
// EDGE_FREQUENCY(e) in the original: the edge doesn't carry its own
// frequency, it's derived from the probability of leaving Src.
func (e *Edge) Frequency() int64 {
	if e == nil || e.Src == nil {
		return 0
	}
	return int64(e.Src.Frequency) * int64(e.Probability) / ProbBase
}
