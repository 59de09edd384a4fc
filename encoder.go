package gosl

import (
	"fmt"
)

type EncodingLevel int

const (
	// LEVEL_UF abstracts predicate calls; only an unsat answer on its output
	// carries over to the input.
	LEVEL_UF EncodingLevel = iota
	// LEVEL_FULL is the precise bounded encoding.
	LEVEL_FULL
)

func (l EncodingLevel) String() string {
	switch l {
	case LEVEL_UF:
		return "UF"
	case LEVEL_FULL:
		return "FULL"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// region is a set of pool slots, one Boolean term per slot. List slots come
// first, tree slots after them.
type region []TermID

// precise is the encoding of a formula that holds on at most one subheap:
// it holds on R iff cond holds and fp equals R.
type precise struct {
	cond TermID
	fp   region
}

// Encoder translates SL* terms into terms over the uninterpreted location
// sort. A heap is a set of allocated pool slots plus the functions next,
// left, right and data; spatial formulas are evaluated against regions.
type Encoder struct {
	tb        *TermBuilder
	dataWidth uint
	level     EncodingLevel
	bound     StructuralBound

	nilLoc    TermID
	listSlots []TermID
	treeSlots []TermID
	alloc     region

	next  *FuncDecl
	left  *FuncDecl
	right *FuncDecl
	data  *FuncDecl

	vars map[TermID]TermID
	dict map[TermID]precise

	pending      []TermID
	poolAsserted bool
}

func NewEncoder(tb *TermBuilder, dataWidth uint) *Encoder {
	e := &Encoder{
		tb:        tb,
		dataWidth: dataWidth,
		nilLoc:    tb.Loc("sl.nil"),
	}
	loc := LocSort()
	e.next = must2(tb.DeclareFun("sl.next", []Sort{loc}, loc))
	e.left = must2(tb.DeclareFun("sl.left", []Sort{loc}, loc))
	e.right = must2(tb.DeclareFun("sl.right", []Sort{loc}, loc))
	e.data = must2(tb.DeclareFun(fmt.Sprintf("sl.data%d", dataWidth), []Sort{loc}, BVSort(dataWidth)))
	e.Prepare(StructuralBound{Defined: true}, LEVEL_UF)
	return e
}

func must2(d *FuncDecl, err error) *FuncDecl {
	if err != nil {
		violation("%s", err)
	}
	return d
}

// Prepare sets up the pools of a new pass. State retained for model
// reconstruction from an earlier pass is discarded.
func (e *Encoder) Prepare(bound StructuralBound, level EncodingLevel) {
	if !bound.Defined {
		violation("encoder prepared with an undefined bound")
	}
	e.bound = bound
	e.level = level

	e.listSlots = make([]TermID, bound.NList)
	for i := range e.listSlots {
		e.listSlots[i] = e.tb.Loc(fmt.Sprintf("sl.l%d", i))
	}
	e.treeSlots = make([]TermID, bound.NTree)
	for i := range e.treeSlots {
		e.treeSlots[i] = e.tb.Loc(fmt.Sprintf("sl.t%d", i))
	}
	e.alloc = make(region, e.numSlots())
	for i := range e.alloc {
		e.alloc[i] = e.tb.BoolSym(fmt.Sprintf("sl.alloc%d", i))
	}

	e.vars = map[TermID]TermID{}
	e.dict = map[TermID]precise{}
	e.pending = make([]TermID, 0)
	e.poolAsserted = false
}

// ClearDictionary drops the per-pass caches. Pools, heap functions and the
// variable map are kept.
func (e *Encoder) ClearDictionary() {
	e.dict = map[TermID]precise{}
	e.pending = make([]TermID, 0)
}

func (e *Encoder) Level() EncodingLevel   { return e.level }
func (e *Encoder) Bound() StructuralBound { return e.bound }
func (e *Encoder) DataWidth() uint        { return e.dataWidth }

func (e *Encoder) numSlots() int {
	return len(e.listSlots) + len(e.treeSlots)
}

func (e *Encoder) slot(i int) TermID {
	if i < len(e.listSlots) {
		return e.listSlots[i]
	}
	return e.treeSlots[i-len(e.listSlots)]
}

// *** small helpers over the builder ***

func (e *Encoder) eq(x, y TermID) TermID      { return must(e.tb.Eq(x, y)) }
func (e *Encoder) and(xs ...TermID) TermID    { return must(e.tb.BoolAnd(xs...)) }
func (e *Encoder) or(xs ...TermID) TermID     { return must(e.tb.BoolOr(xs...)) }
func (e *Encoder) not(x TermID) TermID        { return must(e.tb.BoolNot(x)) }
func (e *Encoder) iff(x, y TermID) TermID     { return must(e.tb.BoolIff(x, y)) }
func (e *Encoder) implies(x, y TermID) TermID { return must(e.tb.BoolImplies(x, y)) }

func (e *Encoder) apply(d *FuncDecl, x TermID) TermID {
	return must(e.tb.App(d, x))
}

func (e *Encoder) emptyRegion() region {
	r := make(region, e.numSlots())
	for i := range r {
		r[i] = e.tb.BoolVal(false)
	}
	return r
}

func (e *Encoder) regionEq(a, b region) TermID {
	res := make([]TermID, len(a))
	for i := range a {
		res[i] = e.iff(a[i], b[i])
	}
	return e.and(res...)
}

func (e *Encoder) disjoint(a, b region) TermID {
	res := make([]TermID, len(a))
	for i := range a {
		res[i] = e.not(e.and(a[i], b[i]))
	}
	return e.and(res...)
}

func (e *Encoder) union(a, b region) region {
	r := make(region, len(a))
	for i := range a {
		r[i] = e.or(a[i], b[i])
	}
	return r
}

// singleton is the region holding exactly the slot equal to x among the
// slots [from, to).
func (e *Encoder) singleton(x TermID, from, to int) region {
	r := e.emptyRegion()
	for i := from; i < to; i++ {
		r[i] = e.eq(x, e.slot(i))
	}
	return r
}

func (e *Encoder) inListPool(x TermID) TermID {
	args := make([]TermID, len(e.listSlots))
	for i, s := range e.listSlots {
		args[i] = e.eq(x, s)
	}
	return e.or(args...)
}

func (e *Encoder) inTreePool(x TermID) TermID {
	args := make([]TermID, len(e.treeSlots))
	for i, s := range e.treeSlots {
		args[i] = e.eq(x, s)
	}
	return e.or(args...)
}

// *** generic encoder interface ***

// EncodeLocation maps a list or tree location term to the location sort.
func (e *Encoder) EncodeLocation(t TermID) (TermID, error) {
	switch e.tb.Kind(t) {
	case TY_NULL:
		return e.nilLoc, nil
	case TY_LOC_SYM:
		if r, ok := e.vars[t]; ok {
			return r, nil
		}
		s := e.tb.Sort(t)
		if !s.IsListLoc() && !s.IsTreeLoc() {
			return NoTerm, encodingErrorf(t, "%s is already an encoded location", e.tb.String(t))
		}
		r := e.tb.Loc(e.tb.Name(t))
		e.vars[t] = r
		return r, nil
	case TY_ITE:
		return e.encodePure(t, false)
	}
	return NoTerm, encodingErrorf(t, "%s is not a location", e.tb.String(t))
}

// EncodeTop translates a top-level conjunct. Spatial conjuncts are evaluated
// against the allocated slots. Definitional axioms produced on the way are
// conjoined, and so are the pool axioms on the first spatial conjunct of the
// pass.
func (e *Encoder) EncodeTop(t TermID) (TermID, error) {
	var res TermID
	var err error

	spatial := e.tb.IsSpatial(t)
	if spatial {
		res, err = e.encode(t, e.alloc)
	} else {
		res, err = e.encodePure(t, false)
	}
	if err != nil {
		return NoTerm, err
	}

	parts := []TermID{res}
	parts = append(parts, e.pending...)
	e.pending = make([]TermID, 0)
	if spatial && !e.poolAsserted {
		parts = append(parts, e.poolAxioms())
		e.poolAsserted = true
	}
	return e.and(parts...), nil
}

// GlobalConstraints holds the pool axioms and pins the fields of unallocated
// slots to nil.
func (e *Encoder) GlobalConstraints() TermID {
	parts := []TermID{e.poolAxioms()}
	for i, s := range e.listSlots {
		parts = append(parts, e.implies(e.not(e.alloc[i]), e.eq(e.apply(e.next, s), e.nilLoc)))
	}
	for i, s := range e.treeSlots {
		unalloc := e.not(e.alloc[len(e.listSlots)+i])
		parts = append(parts,
			e.implies(unalloc, e.eq(e.apply(e.left, s), e.nilLoc)),
			e.implies(unalloc, e.eq(e.apply(e.right, s), e.nilLoc)))
	}
	return e.and(parts...)
}

// poolAxioms makes the slots pairwise distinct and different from nil.
func (e *Encoder) poolAxioms() TermID {
	locs := append([]TermID{e.nilLoc}, e.listSlots...)
	locs = append(locs, e.treeSlots...)

	parts := make([]TermID, 0)
	for i := 0; i < len(locs); i++ {
		for j := i + 1; j < len(locs); j++ {
			parts = append(parts, e.not(e.eq(locs[i], locs[j])))
		}
	}
	return e.and(parts...)
}

// *** translation ***

// encodePure rewrites a heap independent term, replacing list and tree
// locations by their encoding. Bound variables are rejected unless
// allowVars is set.
func (e *Encoder) encodePure(t TermID, allowVars bool) (TermID, error) {
	tb := e.tb
	if tb.ContainsKind(t, TY_EMP, TY_SEP, TY_PTO_LIST, TY_PTO_TREE, TY_CALL_LIST, TY_CALL_TREE, TY_DPRED) {
		return NoTerm, encodingErrorf(t, "%s is not heap independent", tb.String(t))
	}
	if !allowVars && tb.ContainsKind(t, TY_VAR) {
		return NoTerm, encodingErrorf(t, "free variable in %s", tb.String(t))
	}

	subst := map[TermID]TermID{tb.Null(): e.nilLoc}
	for _, s := range tb.Symbols(t) {
		if tb.Kind(s) != TY_LOC_SYM {
			continue
		}
		r, err := e.EncodeLocation(s)
		if err != nil {
			return NoTerm, err
		}
		subst[s] = r
	}
	res, err := tb.Substitute(t, subst)
	if err != nil {
		return NoTerm, encodingErrorf(t, "%s", err)
	}
	return res, nil
}

func (e *Encoder) encodeData(d TermID) (TermID, error) {
	s := e.tb.Sort(d)
	if !s.IsBV() || s.Width != e.dataWidth {
		return NoTerm, encodingErrorf(d, "data %s has sort %s, expected %s", e.tb.String(d), s, BVSort(e.dataWidth))
	}
	return e.encodePure(d, false)
}

// instantiate applies the body of a data predicate to the data of cur and,
// for binary predicates, of succ.
func (e *Encoder) instantiate(dp, cur, succ TermID) (TermID, error) {
	body, err := e.encodePure(e.tb.Child(dp, 0), true)
	if err != nil {
		return NoTerm, err
	}
	ds := BVSort(e.dataWidth)
	subst := map[TermID]TermID{e.tb.Var(0, ds): e.apply(e.data, cur)}
	if succ != NoTerm {
		subst[e.tb.Var(1, ds)] = e.apply(e.data, succ)
	}
	res, err := e.tb.Substitute(body, subst)
	if err != nil {
		return NoTerm, encodingErrorf(dp, "%s", err)
	}
	if e.tb.ContainsKind(res, TY_VAR) {
		return NoTerm, encodingErrorf(dp, "data predicate %s refers to an unbound variable", e.tb.String(dp))
	}
	return res, nil
}

// encode translates a spatial formula evaluated on region r.
func (e *Encoder) encode(t TermID, r region) (TermID, error) {
	tb := e.tb
	if !tb.IsSpatial(t) {
		return e.encodePure(t, false)
	}

	switch tb.Kind(t) {
	case TY_BOOL_NOT:
		c, err := e.encode(tb.Child(t, 0), r)
		if err != nil {
			return NoTerm, err
		}
		return e.not(c), nil
	case TY_BOOL_AND, TY_BOOL_OR:
		children := make([]TermID, 0, tb.NumChildren(t))
		for _, c := range tb.Children(t) {
			ec, err := e.encode(c, r)
			if err != nil {
				return NoTerm, err
			}
			children = append(children, ec)
		}
		if tb.Kind(t) == TY_BOOL_AND {
			return e.and(children...), nil
		}
		return e.or(children...), nil
	case TY_BOOL_IFF:
		lhs, err := e.encode(tb.Child(t, 0), r)
		if err != nil {
			return NoTerm, err
		}
		rhs, err := e.encode(tb.Child(t, 1), r)
		if err != nil {
			return NoTerm, err
		}
		return e.iff(lhs, rhs), nil
	case TY_EMP, TY_SEP, TY_PTO_LIST, TY_PTO_TREE, TY_CALL_LIST, TY_CALL_TREE:
		p, err := e.encodePrecise(t)
		if err != nil {
			return NoTerm, err
		}
		return e.and(p.cond, e.regionEq(p.fp, r)), nil
	}
	return NoTerm, encodingErrorf(t, "unsupported spatial formula %s", tb.String(t))
}

func (e *Encoder) encodePrecise(t TermID) (precise, error) {
	if p, ok := e.dict[t]; ok {
		return p, nil
	}

	var p precise
	var err error
	switch e.tb.Kind(t) {
	case TY_EMP:
		p = precise{cond: e.tb.BoolVal(true), fp: e.emptyRegion()}
	case TY_SEP:
		p, err = e.encodeSep(t)
	case TY_PTO_LIST:
		p, err = e.encodeListPto(t)
	case TY_PTO_TREE:
		p, err = e.encodeTreePto(t)
	case TY_CALL_LIST:
		if e.level == LEVEL_UF {
			p, err = e.abstractListCall(t)
		} else {
			p, err = e.encodeListCall(t)
		}
	case TY_CALL_TREE:
		if e.level == LEVEL_UF {
			p, err = e.abstractTreeCall(t)
		} else {
			p, err = e.encodeTreeCall(t)
		}
	default:
		err = encodingErrorf(t, "%s is not precise, it cannot occur under sep", e.tb.String(t))
	}
	if err != nil {
		return precise{}, err
	}
	e.dict[t] = p
	return p, nil
}

// encodeSep conjoins the truth conditions of the operands and requires their
// footprints to be pairwise disjoint. Heap independent operands hold on the
// empty heap and are simply conjoined.
func (e *Encoder) encodeSep(t TermID) (precise, error) {
	conds := make([]TermID, 0)
	fps := make([]region, 0)
	for _, c := range e.tb.Children(t) {
		if !e.tb.IsSpatial(c) {
			pc, err := e.encodePure(c, false)
			if err != nil {
				return precise{}, err
			}
			conds = append(conds, pc)
			continue
		}
		p, err := e.encodePrecise(c)
		if err != nil {
			return precise{}, err
		}
		conds = append(conds, p.cond)
		fps = append(fps, p.fp)
	}

	fp := e.emptyRegion()
	for i := range fps {
		for j := i + 1; j < len(fps); j++ {
			conds = append(conds, e.disjoint(fps[i], fps[j]))
		}
		fp = e.union(fp, fps[i])
	}
	return precise{cond: e.and(conds...), fp: fp}, nil
}

func (e *Encoder) encodeLocations(args []TermID) ([]TermID, error) {
	res := make([]TermID, len(args))
	for i, a := range args {
		r, err := e.EncodeLocation(a)
		if err != nil {
			return nil, err
		}
		res[i] = r
	}
	return res, nil
}

func (e *Encoder) encodeListPto(t TermID) (precise, error) {
	e.tb.checkAtomArgs(t)
	args := e.tb.Children(t)
	locs, err := e.encodeLocations(args[:2])
	if err != nil {
		return precise{}, err
	}
	src, next := locs[0], locs[1]

	conds := []TermID{e.inListPool(src), e.eq(e.apply(e.next, src), next)}
	if len(args) == 3 {
		d, err := e.encodeData(args[2])
		if err != nil {
			return precise{}, err
		}
		conds = append(conds, e.eq(e.apply(e.data, src), d))
	}
	return precise{
		cond: e.and(conds...),
		fp:   e.singleton(src, 0, len(e.listSlots)),
	}, nil
}

func (e *Encoder) encodeTreePto(t TermID) (precise, error) {
	e.tb.checkAtomArgs(t)
	args := e.tb.Children(t)
	locs, err := e.encodeLocations(args[:3])
	if err != nil {
		return precise{}, err
	}
	src, left, right := locs[0], locs[1], locs[2]

	conds := []TermID{
		e.inTreePool(src),
		e.eq(e.apply(e.left, src), left),
		e.eq(e.apply(e.right, src), right),
	}
	if len(args) == 4 {
		d, err := e.encodeData(args[3])
		if err != nil {
			return precise{}, err
		}
		conds = append(conds, e.eq(e.apply(e.data, src), d))
	}
	return precise{
		cond: e.and(conds...),
		fp:   e.singleton(src, len(e.listSlots), e.numSlots()),
	}, nil
}

// freshRegion returns fresh footprint symbols over the slots [from, to); the
// other slots are empty.
func (e *Encoder) freshRegion(prefix string, from, to int) region {
	r := e.emptyRegion()
	for i := from; i < to; i++ {
		r[i] = e.tb.FreshBoolSym(prefix)
	}
	return r
}
