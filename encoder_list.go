package gosl

// splitListCall returns the source, destination and data predicates of a
// list call.
func (e *Encoder) splitListCall(t TermID) (TermID, TermID, []TermID, error) {
	e.tb.checkAtomArgs(t)
	args := e.tb.Children(t)
	locs, err := e.encodeLocations(args[:2])
	if err != nil {
		return NoTerm, NoTerm, nil, err
	}
	dpreds := args[2:]
	for _, dp := range dpreds {
		if e.tb.Kind(dp) != TY_DPRED {
			return NoTerm, NoTerm, nil, encodingErrorf(t, "list call argument %s is not a data predicate", e.tb.String(dp))
		}
		if name := e.tb.Name(dp); name != DPRED_UNARY && name != DPRED_NEXT {
			return NoTerm, NoTerm, nil, encodingErrorf(t, "data predicate %s cannot constrain a list", name)
		}
	}
	return locs[0], locs[1], dpreds, nil
}

// encodeListCall unfolds list(x, y) along the path x, next(x), ... up to the
// pool size. L_k holds when y is first met after k steps; the segment is then
// made of the first k path nodes, which must be allocated list slots.
func (e *Encoder) encodeListCall(t TermID) (precise, error) {
	src, dst, dpreds, err := e.splitListCall(t)
	if err != nil {
		return precise{}, err
	}
	n := len(e.listSlots)

	path := make([]TermID, n+1)
	path[0] = src
	for j := 1; j <= n; j++ {
		path[j] = e.apply(e.next, path[j-1])
	}

	// pre[k] is the data predicate instance on the first k path nodes
	pre := make([]TermID, n+1)
	pre[0] = e.tb.BoolVal(true)
	for k := 1; k <= n; k++ {
		parts := []TermID{pre[k-1]}
		for _, dp := range dpreds {
			switch e.tb.Name(dp) {
			case DPRED_UNARY:
				c, err := e.instantiate(dp, path[k-1], NoTerm)
				if err != nil {
					return precise{}, err
				}
				parts = append(parts, c)
			case DPRED_NEXT:
				if k < 2 {
					continue
				}
				c, err := e.instantiate(dp, path[k-2], path[k-1])
				if err != nil {
					return precise{}, err
				}
				parts = append(parts, c)
			}
		}
		pre[k] = e.and(parts...)
	}

	conds := make([]TermID, 0, n+1)
	fp := e.emptyRegion()
	notHit := e.tb.BoolVal(true)
	nodesOk := e.tb.BoolVal(true)
	for k := 0; k <= n; k++ {
		hit := e.and(notHit, e.eq(path[k], dst))
		conds = append(conds, e.and(hit, nodesOk, pre[k]))
		for j := 0; j < k; j++ {
			for i := 0; i < n; i++ {
				fp[i] = e.or(fp[i], e.and(hit, e.eq(path[j], e.listSlots[i])))
			}
		}

		notHit = e.and(notHit, e.not(e.eq(path[k], dst)))
		nodesOk = e.and(nodesOk, e.inListPool(path[k]))
	}
	return precise{cond: e.or(conds...), fp: fp}, nil
}

// abstractListCall replaces the call by a fresh truth symbol and footprint,
// with the lemmas that hold for every list segment: an empty segment when
// x = y, a segment starting with x otherwise.
func (e *Encoder) abstractListCall(t TermID) (precise, error) {
	src, dst, _, err := e.splitListCall(t)
	if err != nil {
		return precise{}, err
	}
	truth := e.tb.FreshBoolSym("sl.ucall")
	fp := e.freshRegion("sl.ufp", 0, len(e.listSlots))

	empty := make([]TermID, 0, len(e.listSlots))
	first := make([]TermID, 0, len(e.listSlots))
	for i, s := range e.listSlots {
		empty = append(empty, e.not(fp[i]))
		first = append(first, e.and(e.eq(src, s), fp[i]))
	}

	same := e.eq(src, dst)
	e.pending = append(e.pending,
		e.implies(same, e.and(truth, e.and(empty...))),
		e.implies(e.and(e.not(same), truth), e.or(first...)))
	return precise{cond: truth, fp: fp}, nil
}
