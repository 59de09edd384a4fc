package gosl

// SpatialAtom is a points-to or predicate-call occurrence together with its
// polarity.
type SpatialAtom struct {
	Term TermID
	// Negated is set when the atom occurs under an odd number of negations.
	Negated bool
}

// SpatialAtoms collects the distinct (atom, polarity) pairs of e. Both sides
// of an iff are visited with both polarities.
func (tb *TermBuilder) SpatialAtoms(e TermID) []SpatialAtom {
	queue := []SpatialAtom{{Term: e}}
	visited := make(map[SpatialAtom]bool)
	atoms := make([]SpatialAtom, 0)

	for len(queue) > 0 {
		el := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if visited[el] {
			continue
		}
		visited[el] = true

		kind := tb.Kind(el.Term)
		switch {
		case isSpatialAtomKind(kind):
			atoms = append(atoms, el)
		case kind == TY_BOOL_NOT:
			queue = append(queue, SpatialAtom{Term: tb.Child(el.Term, 0), Negated: !el.Negated})
		case kind == TY_BOOL_IFF:
			for _, c := range tb.Children(el.Term) {
				queue = append(queue,
					SpatialAtom{Term: c, Negated: el.Negated},
					SpatialAtom{Term: c, Negated: !el.Negated})
			}
		case kind == TY_BOOL_AND || kind == TY_BOOL_OR || kind == TY_SEP:
			cs := tb.Children(el.Term)
			for i := len(cs) - 1; i >= 0; i-- {
				queue = append(queue, SpatialAtom{Term: cs[i], Negated: el.Negated})
			}
		}
	}
	return atoms
}

// IsSpatial reports whether e mentions the heap, i.e. contains emp or a
// spatial atom outside of data predicate bodies.
func (tb *TermBuilder) IsSpatial(e TermID) bool {
	queue := []TermID{e}
	visited := make(map[TermID]bool)
	for len(queue) > 0 {
		el := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if visited[el] {
			continue
		}
		visited[el] = true

		kind := tb.Kind(el)
		if kind == TY_EMP || kind == TY_SEP || isSpatialAtomKind(kind) {
			return true
		}
		if kind == TY_DPRED {
			continue
		}
		queue = append(queue, tb.Children(el)...)
	}
	return false
}

// ContainsCalls reports whether e contains a list or tree predicate call at
// any depth.
func (tb *TermBuilder) ContainsCalls(e TermID) bool {
	for _, a := range tb.SpatialAtoms(e) {
		if isCallKind(tb.Kind(a.Term)) {
			return true
		}
	}
	return false
}

// LocationConstants returns the distinct list and tree location constants
// occurring anywhere in e. null is not a constant.
func (tb *TermBuilder) LocationConstants(e TermID) (lists []TermID, trees []TermID) {
	lists = make([]TermID, 0)
	trees = make([]TermID, 0)
	for _, s := range tb.Symbols(e) {
		if tb.Kind(s) != TY_LOC_SYM {
			continue
		}
		switch tb.Sort(s).Kind {
		case SORT_LIST_LOC:
			lists = append(lists, s)
		case SORT_TREE_LOC:
			trees = append(trees, s)
		}
	}
	return
}

// checkAtomArgs panics if an argument of a spatial atom is not an
// application.
func (tb *TermBuilder) checkAtomArgs(atom TermID) {
	for i, a := range tb.Children(atom) {
		if tb.Class(a) != CLASS_APP {
			violation("argument %d of %s is not an application", i, tb.String(atom))
		}
	}
}

// ContainsKind reports whether a node of one of the given kinds occurs in e.
func (tb *TermBuilder) ContainsKind(e TermID, kinds ...int) bool {
	queue := []TermID{e}
	visited := make(map[TermID]bool)
	for len(queue) > 0 {
		el := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if visited[el] {
			continue
		}
		visited[el] = true

		k := tb.Kind(el)
		for _, kind := range kinds {
			if k == kind {
				return true
			}
		}
		queue = append(queue, tb.Children(el)...)
	}
	return false
}
