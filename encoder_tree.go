package gosl

// splitTreeCall returns the pool of a tree call (root and stops encoded) and
// its data predicates. Trailing arguments are data predicates followed by
// stop locations.
func (e *Encoder) splitTreeCall(t TermID) (*TreeLocationPool, []TermID, error) {
	e.tb.checkAtomArgs(t)
	args := e.tb.Children(t)
	root, err := e.EncodeLocation(args[0])
	if err != nil {
		return nil, nil, err
	}

	dpreds := make([]TermID, 0)
	stops := make([]TermID, 0)
	for _, a := range args[1:] {
		if e.tb.Kind(a) == TY_DPRED {
			if len(stops) > 0 {
				return nil, nil, encodingErrorf(t, "data predicate %s after a stop location", e.tb.String(a))
			}
			if e.tb.Name(a) == DPRED_NEXT {
				return nil, nil, encodingErrorf(t, "data predicate next cannot constrain a tree")
			}
			dpreds = append(dpreds, a)
			continue
		}
		s, err := e.EncodeLocation(a)
		if err != nil {
			return nil, nil, err
		}
		stops = append(stops, s)
	}

	pool := &TreeLocationPool{
		Locations: e.treeSlots,
		Stops:     stops,
		Root:      root,
		Nil:       e.nilLoc,
	}
	return pool, dpreds, nil
}

// encodeTreeCall builds the bounded tree encoding: the owned set Z is what
// the root reaches without crossing a stop, and the call holds when the tree
// is empty or Z is closed, every owned node but the root has one parent, no
// stop is owned and the data predicates hold.
func (e *Encoder) encodeTreeCall(t TermID) (precise, error) {
	pool, dpreds, err := e.splitTreeCall(t)
	if err != nil {
		return precise{}, err
	}
	b := NewTreeAxiomBuilder(e.tb, e.left, e.right, pool)

	z := b.Ordered()
	y := b.DefineY(z)

	conds := []TermID{
		b.RootInPool(),
		b.Closure(z),
		b.OneParent(z),
		b.SuccessorsDifferent(z),
		b.StopLeaves(z),
	}
	for _, dp := range dpreds {
		c, err := e.treeDataConstraint(dp, pool, z)
		if err != nil {
			return precise{}, err
		}
		conds = append(conds, c)
	}
	e.pending = append(e.pending, b.Axioms()...)

	fp := e.emptyRegion()
	copy(fp[len(e.listSlots):], y)
	return precise{
		cond: e.or(b.IsLeafRoot(), e.and(conds...)),
		fp:   fp,
	}, nil
}

func (e *Encoder) treeDataConstraint(dp TermID, pool *TreeLocationPool, z []TermID) (TermID, error) {
	locs := pool.Locations
	res := make([]TermID, 0)
	switch e.tb.Name(dp) {
	case DPRED_UNARY:
		for i, li := range locs {
			c, err := e.instantiate(dp, li, NoTerm)
			if err != nil {
				return NoTerm, err
			}
			res = append(res, e.implies(z[i], c))
		}
	case DPRED_LEFT, DPRED_RIGHT:
		dir := e.left
		if e.tb.Name(dp) == DPRED_RIGHT {
			dir = e.right
		}
		for i, li := range locs {
			for j, lj := range locs {
				c, err := e.instantiate(dp, li, lj)
				if err != nil {
					return NoTerm, err
				}
				edge := e.and(z[i], z[j], e.eq(e.apply(dir, li), lj))
				res = append(res, e.implies(edge, c))
			}
		}
	}
	return e.and(res...), nil
}

// abstractTreeCall replaces the call by a fresh truth symbol and footprint,
// with the lemmas that hold for every tree: an empty tree when the root is
// nil or a stop, a tree owning its root otherwise.
func (e *Encoder) abstractTreeCall(t TermID) (precise, error) {
	pool, _, err := e.splitTreeCall(t)
	if err != nil {
		return precise{}, err
	}
	b := NewTreeAxiomBuilder(e.tb, e.left, e.right, pool)

	truth := e.tb.FreshBoolSym("sl.ucall")
	fp := e.freshRegion("sl.ufp", len(e.listSlots), e.numSlots())

	empty := make([]TermID, 0, len(e.treeSlots))
	owned := make([]TermID, 0, len(e.treeSlots))
	for i, s := range e.treeSlots {
		y := fp[len(e.listSlots)+i]
		empty = append(empty, e.not(y))
		owned = append(owned, e.and(e.eq(pool.Root, s), y))
	}

	leaf := b.IsLeafRoot()
	e.pending = append(e.pending,
		e.implies(leaf, e.and(truth, e.and(empty...))),
		e.implies(e.and(e.not(leaf), truth), e.or(owned...)))
	return precise{cond: truth, fp: fp}, nil
}
