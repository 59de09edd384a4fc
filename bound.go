package gosl

import "fmt"

// StructuralBound is the number of list and tree locations a bounded model
// of a formula has to consider.
type StructuralBound struct {
	NList         uint
	NTree         uint
	ContainsCalls bool
	Defined       bool

	// Direct is set when the bound was read off a call-free conjunct.
	Direct bool
}

func (b StructuralBound) String() string {
	if !b.Defined {
		return "<bound undefined>"
	}
	return fmt.Sprintf("<bound list=%d tree=%d calls=%v direct=%v>", b.NList, b.NTree, b.ContainsCalls, b.Direct)
}

func (b StructuralBound) max(o StructuralBound) StructuralBound {
	res := b
	if o.NList > res.NList {
		res.NList = o.NList
	}
	if o.NTree > res.NTree {
		res.NTree = o.NTree
	}
	res.ContainsCalls = res.ContainsCalls || o.ContainsCalls
	return res
}

// ComputeBound derives the structural bound of f from its syntax.
//
// The first spatial conjunct without predicate calls (searched depth-first
// through nested conjunctions, never below or/not) fixes the heap, so the
// bound is the number of distinct points-to sources per sort. Other call-free
// conjuncts are not checked for agreement. Pure conjuncts are not candidates.
//
// Otherwise every top-level conjunct gets a local bound and the result is
// their pointwise maximum, since all conjuncts talk about the same heap.
func ComputeBound(f *Formula) StructuralBound {
	tb := f.Builder()

	stack := make([]TermID, 0, f.Size())
	for i := f.Size() - 1; i >= 0; i-- {
		stack = append(stack, f.Form(i))
	}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch tb.Kind(e) {
		case TY_BOOL_AND:
			cs := tb.Children(e)
			for i := len(cs) - 1; i >= 0; i-- {
				stack = append(stack, cs[i])
			}
			continue
		case TY_BOOL_NOT, TY_BOOL_OR:
			continue
		}
		if tb.IsSpatial(e) && !tb.ContainsCalls(e) {
			return directBound(tb, e)
		}
	}

	res := StructuralBound{Defined: true}
	for _, e := range f.conjuncts {
		res = res.max(localBound(tb, e))
	}
	return res
}

func directBound(tb *TermBuilder, e TermID) StructuralBound {
	lists := make(map[TermID]bool)
	trees := make(map[TermID]bool)
	for _, a := range tb.SpatialAtoms(e) {
		tb.checkAtomArgs(a.Term)

		src := tb.Child(a.Term, 0)
		switch tb.Sort(src).Kind {
		case SORT_NULL:
		case SORT_LIST_LOC:
			lists[src] = true
		case SORT_TREE_LOC:
			trees[src] = true
		default:
			violation("unsupported points-to source %s", tb.String(src))
		}
	}
	return StructuralBound{
		NList:   uint(len(lists)),
		NTree:   uint(len(trees)),
		Defined: true,
		Direct:  true,
	}
}

func localBound(tb *TermBuilder, e TermID) StructuralBound {
	lists, trees := tb.LocationConstants(e)
	res := StructuralBound{
		NList:   uint(len(lists)),
		NTree:   uint(len(trees)),
		Defined: true,
	}

	for _, a := range tb.SpatialAtoms(e) {
		tb.checkAtomArgs(a.Term)

		switch tb.Kind(a.Term) {
		case TY_CALL_LIST:
			res.ContainsCalls = true
			res.NList += 1 + listTrailingBound(tb, tb.Children(a.Term)[2:], a.Negated)
		case TY_CALL_TREE:
			res.ContainsCalls = true
			res.NTree += 1 + treeTrailingBound(tb, tb.Children(a.Term)[1:], a.Negated)
		}
	}
	return res
}

// listTrailingBound is the extra bound of a list call. Data predicates only
// count under negation: unary needs one witness node, next a pair of them.
// Scanning stops at the first argument that is not a data predicate.
func listTrailingBound(tb *TermBuilder, trailing []TermID, negated bool) uint {
	var extra uint
	for _, a := range trailing {
		if tb.Kind(a) != TY_DPRED {
			break
		}
		if !negated {
			continue
		}
		switch tb.Name(a) {
		case DPRED_UNARY:
			extra = 1
		case DPRED_NEXT:
			return 2
		}
	}
	return extra
}

// treeTrailingBound is like listTrailingBound with left/right playing the role
// of next, except that hitting a non data predicate argument at position j
// adds one per remaining trailing argument.
func treeTrailingBound(tb *TermBuilder, trailing []TermID, negated bool) uint {
	var extra uint
	for j, a := range trailing {
		if tb.Kind(a) != TY_DPRED {
			return extra + uint(len(trailing)-j)
		}
		if !negated {
			continue
		}
		switch tb.Name(a) {
		case DPRED_UNARY:
			extra = 1
		case DPRED_LEFT, DPRED_RIGHT:
			return 2
		}
	}
	return extra
}
