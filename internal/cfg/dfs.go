package cfg

// MarkDFSBackEdges walks f from its entry block and sets EdgeDFSBack on
// every edge discovered to be a back-edge: an edge whose destination is
// still on the current exploration stack when the edge is followed. This
// mirrors mark_dfs_back_edges, and reuses the explicit-stack, three-state
// traversal shape a dominance computation would use, without computing
// dominators at all — bb_to_key only needs to know whether an edge closes
// a cycle, not the full dominator tree.
func MarkDFSBackEdges(f *Func) {
	const (
		visitStateUnseen  = 0
		visitStateOnStack = 1
		visitStateDone    = 2
	)

	entry := f.Entry()
	if entry == nil && len(f.Blocks()) > 0 {
		entry = f.Block(0)
	}
	if entry == nil {
		return
	}

	state := make(map[*BasicBlock]int, f.NumBlocks())

	type frame struct {
		blk  *BasicBlock
		next int // index into blk.Succs of the next edge to explore
	}
	stack := []frame{{blk: entry}}
	state[entry] = visitStateOnStack

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.blk.Succs) {
			state[top.blk] = visitStateDone
			stack = stack[:len(stack)-1]
			continue
		}
		e := top.blk.Succs[top.next]
		top.next++
		dst := e.Dst
		if dst == nil {
			continue
		}
		switch state[dst] {
		case visitStateUnseen:
			state[dst] = visitStateOnStack
			stack = append(stack, frame{blk: dst})
		case visitStateOnStack:
			e.Flags |= EdgeDFSBack
		case visitStateDone:
			// Forward or cross edge; not a back-edge.
		}
	}
}
