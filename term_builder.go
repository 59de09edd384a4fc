package gosl

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type TermBuilderStats struct {
	CacheHits    uint
	CacheLookups uint
	CachedTerms  uint
}

// TermBuilder owns every term node. Nodes are hash-consed: building the same
// term twice returns the same TermID. Each node carries a reference count
// that is bumped on every construction and by IncRef, and lowered by DecRef.
// A node whose count drops to zero stays readable but is no longer shared by
// later constructions.
type TermBuilder struct {
	nodes []termNode
	cache map[uint64][]TermID
	decls map[string]*FuncDecl
	fresh map[string]uint

	Stats TermBuilderStats
}

func NewTermBuilder() *TermBuilder {
	return &TermBuilder{
		nodes: make([]termNode, 1),
		cache: map[uint64][]TermID{},
		decls: map[string]*FuncDecl{},
		fresh: map[string]uint{},
		Stats: TermBuilderStats{},
	}
}

func (tb *TermBuilder) PrintStats() {
	fmt.Println("=====================")
	fmt.Println("  TermBuilder Stats")
	fmt.Println("=====================")
	fmt.Printf("hits:       %d\n", tb.Stats.CacheHits)
	fmt.Printf("hit ratio:  %.03f %%\n", float64(tb.Stats.CacheHits)/float64(tb.Stats.CacheLookups)*100)
	fmt.Printf("num cached: %d\n", tb.Stats.CachedTerms)
	fmt.Printf("arena size: %d\n", len(tb.nodes)-1)
	fmt.Println("=====================")
}

func (tb *TermBuilder) node(id TermID) *termNode {
	if id == NoTerm || int(id) >= len(tb.nodes) {
		violation("invalid term id %d", id)
	}
	return &tb.nodes[id]
}

func (tb *TermBuilder) getOrCreate(n termNode) TermID {
	tb.Stats.CacheLookups += 1

	h := n.hash()
	for _, id := range tb.cache[h] {
		if tb.nodes[id].shallowEq(&n) {
			tb.Stats.CacheHits += 1
			tb.nodes[id].refs += 1
			return id
		}
	}
	tb.Stats.CachedTerms += 1

	n.h = h
	n.refs = 1
	tb.nodes = append(tb.nodes, n)
	id := TermID(len(tb.nodes) - 1)
	tb.cache[h] = append(tb.cache[h], id)
	return id
}

func (tb *TermBuilder) IncRef(id TermID) {
	tb.node(id).refs += 1
}

func (tb *TermBuilder) DecRef(id TermID) {
	n := tb.node(id)
	if n.refs <= 0 {
		return
	}
	n.refs -= 1
	if n.refs > 0 {
		return
	}

	bucket := tb.cache[n.h]
	newBucket := make([]TermID, 0, len(bucket))
	for _, other := range bucket {
		if other != id {
			newBucket = append(newBucket, other)
		}
	}
	if len(newBucket) == 0 {
		delete(tb.cache, n.h)
	} else {
		tb.cache[n.h] = newBucket
	}
	tb.Stats.CachedTerms -= 1
}

func (tb *TermBuilder) RefCount(id TermID) int {
	return tb.node(id).refs
}

// *** Accessors ***

func (tb *TermBuilder) Kind(id TermID) int    { return tb.node(id).kind }
func (tb *TermBuilder) Sort(id TermID) Sort   { return tb.node(id).sort }
func (tb *TermBuilder) Name(id TermID) string { return tb.node(id).name }
func (tb *TermBuilder) Class(id TermID) int   { return termClass(tb.node(id).kind) }

// Children returns the argument ids of id. The slice must not be modified.
func (tb *TermBuilder) Children(id TermID) []TermID {
	return tb.node(id).children
}

func (tb *TermBuilder) NumChildren(id TermID) int {
	return len(tb.node(id).children)
}

func (tb *TermBuilder) Child(id TermID, i int) TermID {
	return tb.node(id).children[i]
}

func (tb *TermBuilder) IsLeaf(id TermID) bool {
	return isLeafKind(tb.node(id).kind)
}

func (tb *TermBuilder) IsConst(id TermID) bool {
	k := tb.node(id).kind
	return k == TY_CONST || k == TY_BOOL_CONST
}

func (tb *TermBuilder) GetBVConst(id TermID) (*BVConst, error) {
	n := tb.node(id)
	if n.kind != TY_CONST {
		return nil, errors.Errorf("not a constant")
	}
	return n.value.Copy(), nil
}

func (tb *TermBuilder) GetBoolConst(id TermID) (bool, error) {
	n := tb.node(id)
	if n.kind != TY_BOOL_CONST {
		return false, errors.Errorf("not a constant")
	}
	return n.bval, nil
}

func (tb *TermBuilder) IsTrue(id TermID) bool {
	n := tb.node(id)
	return n.kind == TY_BOOL_CONST && n.bval
}

func (tb *TermBuilder) IsFalse(id TermID) bool {
	n := tb.node(id)
	return n.kind == TY_BOOL_CONST && !n.bval
}

func (tb *TermBuilder) Decl(id TermID) *FuncDecl {
	return tb.node(id).decl
}

func (tb *TermBuilder) VarIndex(id TermID) uint {
	return tb.node(id).lo
}

func (tb *TermBuilder) ExtractBounds(id TermID) (uint, uint) {
	n := tb.node(id)
	return n.hi, n.lo
}

func (tb *TermBuilder) ZExtWidth(id TermID) uint {
	return tb.node(id).hi
}

func (tb *TermBuilder) String(id TermID) string {
	b := strings.Builder{}
	tb.writeTerm(&b, id)
	return b.String()
}

// *** Leaves ***

func (tb *TermBuilder) BVV(val int64, size uint) TermID {
	return tb.BVVFromConst(MakeBVConst(val, size))
}

func (tb *TermBuilder) BVVFromConst(c *BVConst) TermID {
	return tb.getOrCreate(termNode{kind: TY_CONST, sort: BVSort(c.Size), value: c.Copy()})
}

func (tb *TermBuilder) BVS(name string, size uint) TermID {
	return tb.getOrCreate(termNode{kind: TY_SYM, sort: BVSort(size), name: name})
}

func (tb *TermBuilder) BoolVal(v bool) TermID {
	return tb.getOrCreate(termNode{kind: TY_BOOL_CONST, sort: BoolSort(), bval: v})
}

func (tb *TermBuilder) BoolSym(name string) TermID {
	return tb.getOrCreate(termNode{kind: TY_BOOL_SYM, sort: BoolSort(), name: name})
}

func (tb *TermBuilder) ListLoc(name string) TermID {
	return tb.getOrCreate(termNode{kind: TY_LOC_SYM, sort: ListLocSort(), name: name})
}

func (tb *TermBuilder) TreeLoc(name string) TermID {
	return tb.getOrCreate(termNode{kind: TY_LOC_SYM, sort: TreeLocSort(), name: name})
}

// Loc returns a constant of the uninterpreted location sort.
func (tb *TermBuilder) Loc(name string) TermID {
	return tb.getOrCreate(termNode{kind: TY_LOC_SYM, sort: LocSort(), name: name})
}

func (tb *TermBuilder) Null() TermID {
	return tb.getOrCreate(termNode{kind: TY_NULL, sort: NullSort()})
}

func (tb *TermBuilder) Emp() TermID {
	return tb.getOrCreate(termNode{kind: TY_EMP, sort: BoolSort()})
}

// Var is a bound variable; index 0 stands for the data of the current node and
// index 1 for the data of its successor inside a data predicate body.
func (tb *TermBuilder) Var(idx uint, s Sort) TermID {
	return tb.getOrCreate(termNode{kind: TY_VAR, sort: s, lo: idx})
}

func (tb *TermBuilder) freshName(prefix string) string {
	n := tb.fresh[prefix]
	tb.fresh[prefix] = n + 1
	return fmt.Sprintf("%s!%d", prefix, n)
}

func (tb *TermBuilder) FreshBoolSym(prefix string) TermID {
	return tb.BoolSym(tb.freshName(prefix))
}

func (tb *TermBuilder) FreshLoc(prefix string) TermID {
	return tb.Loc(tb.freshName(prefix))
}

func (tb *TermBuilder) DeclareFun(name string, domain []Sort, rng Sort) (*FuncDecl, error) {
	if d, ok := tb.decls[name]; ok {
		if len(d.Domain) != len(domain) || d.Range != rng {
			return nil, errors.Errorf("DeclareFun(): %s redeclared with a different signature", name)
		}
		for i := range domain {
			if d.Domain[i] != domain[i] {
				return nil, errors.Errorf("DeclareFun(): %s redeclared with a different signature", name)
			}
		}
		return d, nil
	}
	d := &FuncDecl{Name: name, Domain: append([]Sort{}, domain...), Range: rng}
	tb.decls[name] = d
	return d, nil
}

func (tb *TermBuilder) App(decl *FuncDecl, args ...TermID) (TermID, error) {
	if len(args) != len(decl.Domain) {
		return NoTerm, errors.Errorf("App(): %s expects %d arguments", decl.Name, len(decl.Domain))
	}
	for i, a := range args {
		if tb.Sort(a) != decl.Domain[i] {
			return NoTerm, errors.Errorf("App(): argument %d of %s has sort %s", i, decl.Name, tb.Sort(a))
		}
	}
	return tb.getOrCreate(termNode{
		kind:     TY_APP,
		sort:     decl.Range,
		children: append([]TermID{}, args...),
		decl:     decl,
	}), nil
}

// *** Bit-vector constructors ***

func (tb *TermBuilder) checkBV(op string, args ...TermID) error {
	for _, a := range args {
		s := tb.Sort(a)
		if !s.IsBV() {
			return errors.Errorf("%s(): expected a bit-vector, got %s", op, s)
		}
		if s.Width != tb.Sort(args[0]).Width {
			return errors.Errorf("%s(): invalid sizes", op)
		}
	}
	return nil
}

func (tb *TermBuilder) Not(e TermID) (TermID, error) {
	if err := tb.checkBV("Not", e); err != nil {
		return NoTerm, err
	}
	if c, err := tb.GetBVConst(e); err == nil {
		c.Not()
		return tb.BVVFromConst(c), nil
	}
	if tb.Kind(e) == TY_NOT {
		return tb.Child(e, 0), nil
	}
	return tb.getOrCreate(termNode{kind: TY_NOT, sort: tb.Sort(e), children: []TermID{e}}), nil
}

func (tb *TermBuilder) Neg(e TermID) (TermID, error) {
	if err := tb.checkBV("Neg", e); err != nil {
		return NoTerm, err
	}
	if c, err := tb.GetBVConst(e); err == nil {
		c.Neg()
		return tb.BVVFromConst(c), nil
	}
	if tb.Kind(e) == TY_NEG {
		return tb.Child(e, 0), nil
	}
	return tb.getOrCreate(termNode{kind: TY_NEG, sort: tb.Sort(e), children: []TermID{e}}), nil
}

func foldBV(kind int, acc, o *BVConst) error {
	switch kind {
	case TY_AND:
		return acc.And(o)
	case TY_OR:
		return acc.Or(o)
	case TY_XOR:
		return acc.Xor(o)
	case TY_ADD:
		return acc.Add(o)
	case TY_MUL:
		return acc.Mul(o)
	}
	return errors.Errorf("foldBV(): unexpected kind %d", kind)
}

// arith builds an associative bit-vector operation, flattening nested
// applications of the same kind and folding the constant operands into one.
func (tb *TermBuilder) arith(kind int, op string, lhs, rhs TermID) (TermID, error) {
	if err := tb.checkBV(op, lhs, rhs); err != nil {
		return NoTerm, err
	}
	sort := tb.Sort(lhs)

	args := make([]TermID, 0)
	for _, e := range []TermID{lhs, rhs} {
		if tb.Kind(e) == kind {
			args = append(args, tb.Children(e)...)
		} else {
			args = append(args, e)
		}
	}

	var acc *BVConst
	children := make([]TermID, 0, len(args))
	for _, a := range args {
		c, err := tb.GetBVConst(a)
		if err != nil {
			children = append(children, a)
			continue
		}
		if acc == nil {
			acc = c
		} else if err := foldBV(kind, acc, c); err != nil {
			return NoTerm, err
		}
	}

	if acc != nil {
		switch {
		case kind == TY_MUL && acc.IsZero(), kind == TY_AND && acc.IsZero():
			return tb.BVVFromConst(acc), nil
		case kind == TY_MUL && acc.BigInt().Cmp(one) == 0,
			kind == TY_ADD && acc.IsZero(),
			kind == TY_OR && acc.IsZero(),
			kind == TY_XOR && acc.IsZero():
			acc = nil
		}
	}
	if acc != nil {
		children = append(children, tb.BVVFromConst(acc))
	}
	if len(children) == 0 {
		// every operand was a neutral constant
		return tb.BVVFromConst(MakeBVConst(neutralOf(kind), sort.Width)), nil
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return tb.getOrCreate(termNode{kind: kind, sort: sort, children: children}), nil
}

func neutralOf(kind int) int64 {
	if kind == TY_MUL {
		return 1
	}
	return 0
}

func (tb *TermBuilder) Add(lhs, rhs TermID) (TermID, error) { return tb.arith(TY_ADD, "Add", lhs, rhs) }
func (tb *TermBuilder) Mul(lhs, rhs TermID) (TermID, error) { return tb.arith(TY_MUL, "Mul", lhs, rhs) }
func (tb *TermBuilder) And(lhs, rhs TermID) (TermID, error) { return tb.arith(TY_AND, "And", lhs, rhs) }
func (tb *TermBuilder) Or(lhs, rhs TermID) (TermID, error)  { return tb.arith(TY_OR, "Or", lhs, rhs) }
func (tb *TermBuilder) Xor(lhs, rhs TermID) (TermID, error) { return tb.arith(TY_XOR, "Xor", lhs, rhs) }

func (tb *TermBuilder) Extract(e TermID, high, low uint) (TermID, error) {
	if err := tb.checkBV("Extract", e); err != nil {
		return NoTerm, err
	}
	size := tb.Sort(e).Width
	if high < low {
		return NoTerm, errors.Errorf("Extract(): high < low")
	}
	if high >= size {
		return NoTerm, errors.Errorf("Extract(): high >= size")
	}
	if high == size-1 && low == 0 {
		return e, nil
	}
	if c, err := tb.GetBVConst(e); err == nil {
		return tb.BVVFromConst(c.Slice(high, low)), nil
	}
	return tb.getOrCreate(termNode{
		kind:     TY_EXTRACT,
		sort:     BVSort(high - low + 1),
		children: []TermID{e},
		hi:       high,
		lo:       low,
	}), nil
}

func (tb *TermBuilder) Concat(lhs, rhs TermID) (TermID, error) {
	for _, e := range []TermID{lhs, rhs} {
		if !tb.Sort(e).IsBV() {
			return NoTerm, errors.Errorf("Concat(): expected a bit-vector, got %s", tb.Sort(e))
		}
	}
	lc, lerr := tb.GetBVConst(lhs)
	rc, rerr := tb.GetBVConst(rhs)
	if lerr == nil && rerr == nil {
		lc.Concat(rc)
		return tb.BVVFromConst(lc), nil
	}

	children := make([]TermID, 0)
	for _, e := range []TermID{lhs, rhs} {
		if tb.Kind(e) == TY_CONCAT {
			children = append(children, tb.Children(e)...)
		} else {
			children = append(children, e)
		}
	}
	size := tb.Sort(lhs).Width + tb.Sort(rhs).Width
	return tb.getOrCreate(termNode{kind: TY_CONCAT, sort: BVSort(size), children: children}), nil
}

func (tb *TermBuilder) ZExt(e TermID, n uint) (TermID, error) {
	if err := tb.checkBV("ZExt", e); err != nil {
		return NoTerm, err
	}
	if n == 0 {
		return e, nil
	}
	if c, err := tb.GetBVConst(e); err == nil {
		c.ZExt(n)
		return tb.BVVFromConst(c), nil
	}
	size := tb.Sort(e).Width + n
	return tb.getOrCreate(termNode{kind: TY_ZEXT, sort: BVSort(size), children: []TermID{e}, hi: n}), nil
}

// ITE builds an if-then-else over bit-vectors or locations.
func (tb *TermBuilder) ITE(guard, iftrue, iffalse TermID) (TermID, error) {
	if !tb.Sort(guard).IsBool() {
		return NoTerm, errors.Errorf("ITE(): guard is not Boolean")
	}
	ts, fs := tb.Sort(iftrue), tb.Sort(iffalse)
	var sort Sort
	switch {
	case ts.IsBV() && ts == fs:
		sort = ts
	case compatibleLocations(ts, fs):
		sort = joinLocations(ts, fs)
	default:
		return NoTerm, errors.Errorf("ITE(): incompatible branches %s and %s", ts, fs)
	}

	if v, err := tb.GetBoolConst(guard); err == nil {
		if v {
			return iftrue, nil
		}
		return iffalse, nil
	}
	if iftrue == iffalse {
		return iftrue, nil
	}
	return tb.getOrCreate(termNode{kind: TY_ITE, sort: sort, children: []TermID{guard, iftrue, iffalse}}), nil
}

func (tb *TermBuilder) cmp(kind int, op string, lhs, rhs TermID) (TermID, error) {
	if err := tb.checkBV(op, lhs, rhs); err != nil {
		return NoTerm, err
	}
	lc, lerr := tb.GetBVConst(lhs)
	rc, rerr := tb.GetBVConst(rhs)
	if lerr == nil && rerr == nil {
		var v BoolConst
		var err error
		switch kind {
		case TY_ULT:
			v, err = lc.Ult(rc)
		case TY_ULE:
			v, err = lc.Ule(rc)
		case TY_UGT:
			v, err = lc.UGt(rc)
		case TY_UGE:
			v, err = lc.UGe(rc)
		case TY_SLT:
			v, err = lc.SLt(rc)
		case TY_SLE:
			v, err = lc.SLe(rc)
		case TY_SGT:
			v, err = lc.SGt(rc)
		case TY_SGE:
			v, err = lc.SGe(rc)
		}
		if err != nil {
			return NoTerm, err
		}
		return tb.BoolVal(v.Value), nil
	}
	return tb.getOrCreate(termNode{kind: kind, sort: BoolSort(), children: []TermID{lhs, rhs}}), nil
}

func (tb *TermBuilder) Ult(lhs, rhs TermID) (TermID, error) { return tb.cmp(TY_ULT, "Ult", lhs, rhs) }
func (tb *TermBuilder) Ule(lhs, rhs TermID) (TermID, error) { return tb.cmp(TY_ULE, "Ule", lhs, rhs) }
func (tb *TermBuilder) UGt(lhs, rhs TermID) (TermID, error) { return tb.cmp(TY_UGT, "UGt", lhs, rhs) }
func (tb *TermBuilder) UGe(lhs, rhs TermID) (TermID, error) { return tb.cmp(TY_UGE, "UGe", lhs, rhs) }
func (tb *TermBuilder) SLt(lhs, rhs TermID) (TermID, error) { return tb.cmp(TY_SLT, "SLt", lhs, rhs) }
func (tb *TermBuilder) SLe(lhs, rhs TermID) (TermID, error) { return tb.cmp(TY_SLE, "SLe", lhs, rhs) }
func (tb *TermBuilder) SGt(lhs, rhs TermID) (TermID, error) { return tb.cmp(TY_SGT, "SGt", lhs, rhs) }
func (tb *TermBuilder) SGe(lhs, rhs TermID) (TermID, error) { return tb.cmp(TY_SGE, "SGe", lhs, rhs) }

// Eq builds an equality between bit-vectors or compatible locations. Boolean
// operands are turned into BoolIff.
func (tb *TermBuilder) Eq(lhs, rhs TermID) (TermID, error) {
	ls, rs := tb.Sort(lhs), tb.Sort(rhs)
	switch {
	case ls.IsBool() && rs.IsBool():
		return tb.BoolIff(lhs, rhs)
	case ls.IsBV() && ls == rs:
	case compatibleLocations(ls, rs):
	default:
		return NoTerm, errors.Errorf("Eq(): incompatible sorts %s and %s", ls, rs)
	}

	if lhs == rhs {
		return tb.BoolVal(true), nil
	}
	lc, lerr := tb.GetBVConst(lhs)
	rc, rerr := tb.GetBVConst(rhs)
	if lerr == nil && rerr == nil {
		v, err := lc.Eq(rc)
		if err != nil {
			return NoTerm, err
		}
		return tb.BoolVal(v.Value), nil
	}
	if rhs < lhs {
		lhs, rhs = rhs, lhs
	}
	return tb.getOrCreate(termNode{kind: TY_EQ, sort: BoolSort(), children: []TermID{lhs, rhs}}), nil
}

// *** Boolean constructors ***

func (tb *TermBuilder) checkBool(op string, args ...TermID) error {
	for _, a := range args {
		if !tb.Sort(a).IsBool() {
			return errors.Errorf("%s(): expected a Boolean, got %s", op, tb.Sort(a))
		}
	}
	return nil
}

func (tb *TermBuilder) BoolNot(e TermID) (TermID, error) {
	if err := tb.checkBool("BoolNot", e); err != nil {
		return NoTerm, err
	}
	if v, err := tb.GetBoolConst(e); err == nil {
		return tb.BoolVal(!v), nil
	}
	if tb.Kind(e) == TY_BOOL_NOT {
		return tb.Child(e, 0), nil
	}
	return tb.getOrCreate(termNode{kind: TY_BOOL_NOT, sort: BoolSort(), children: []TermID{e}}), nil
}

// naryBool builds a conjunction or disjunction. Nested applications of the
// same kind are flattened and duplicates dropped; argument order is kept,
// since the bound analysis depends on it.
func (tb *TermBuilder) naryBool(kind int, op string, absorbing bool, args []TermID) (TermID, error) {
	if err := tb.checkBool(op, args...); err != nil {
		return NoTerm, err
	}

	seen := make(map[TermID]bool)
	children := make([]TermID, 0, len(args))
	stack := make([]TermID, 0, len(args))
	for i := len(args) - 1; i >= 0; i-- {
		stack = append(stack, args[i])
	}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if tb.Kind(e) == kind {
			cs := tb.Children(e)
			for i := len(cs) - 1; i >= 0; i-- {
				stack = append(stack, cs[i])
			}
			continue
		}
		if v, err := tb.GetBoolConst(e); err == nil {
			if v == absorbing {
				return tb.BoolVal(absorbing), nil
			}
			continue
		}
		if seen[e] {
			continue
		}
		seen[e] = true
		children = append(children, e)
	}

	switch len(children) {
	case 0:
		return tb.BoolVal(!absorbing), nil
	case 1:
		return children[0], nil
	}
	return tb.getOrCreate(termNode{kind: kind, sort: BoolSort(), children: children}), nil
}

func (tb *TermBuilder) BoolAnd(args ...TermID) (TermID, error) {
	return tb.naryBool(TY_BOOL_AND, "BoolAnd", false, args)
}

func (tb *TermBuilder) BoolOr(args ...TermID) (TermID, error) {
	return tb.naryBool(TY_BOOL_OR, "BoolOr", true, args)
}

func (tb *TermBuilder) BoolIff(lhs, rhs TermID) (TermID, error) {
	if err := tb.checkBool("BoolIff", lhs, rhs); err != nil {
		return NoTerm, err
	}
	if lhs == rhs {
		return tb.BoolVal(true), nil
	}
	if v, err := tb.GetBoolConst(lhs); err == nil {
		if v {
			return rhs, nil
		}
		return tb.BoolNot(rhs)
	}
	if v, err := tb.GetBoolConst(rhs); err == nil {
		if v {
			return lhs, nil
		}
		return tb.BoolNot(lhs)
	}
	if rhs < lhs {
		lhs, rhs = rhs, lhs
	}
	return tb.getOrCreate(termNode{kind: TY_BOOL_IFF, sort: BoolSort(), children: []TermID{lhs, rhs}}), nil
}

func (tb *TermBuilder) BoolImplies(lhs, rhs TermID) (TermID, error) {
	nl, err := tb.BoolNot(lhs)
	if err != nil {
		return NoTerm, err
	}
	return tb.BoolOr(nl, rhs)
}

// *** Spatial constructors ***

func (tb *TermBuilder) checkLocation(op string, e TermID, kinds ...SortKind) error {
	s := tb.Sort(e)
	for _, k := range kinds {
		if s.Kind == k {
			return nil
		}
	}
	return errors.Errorf("%s(): unexpected argument sort %s", op, s)
}

// Sep builds a separating conjunction. Nested separating conjunctions are
// flattened and emp operands dropped.
func (tb *TermBuilder) Sep(args ...TermID) (TermID, error) {
	if err := tb.checkBool("Sep", args...); err != nil {
		return NoTerm, err
	}
	emp := tb.Emp()
	children := make([]TermID, 0, len(args))
	for _, a := range args {
		switch {
		case a == emp:
		case tb.Kind(a) == TY_SEP:
			children = append(children, tb.Children(a)...)
		default:
			children = append(children, a)
		}
	}
	switch len(children) {
	case 0:
		return emp, nil
	case 1:
		return children[0], nil
	}
	return tb.getOrCreate(termNode{kind: TY_SEP, sort: BoolSort(), children: children}), nil
}

func (tb *TermBuilder) PtoList(src, next TermID) (TermID, error) {
	for _, e := range []TermID{src, next} {
		if err := tb.checkLocation("PtoList", e, SORT_LIST_LOC, SORT_NULL); err != nil {
			return NoTerm, err
		}
	}
	return tb.getOrCreate(termNode{kind: TY_PTO_LIST, sort: BoolSort(), children: []TermID{src, next}}), nil
}

func (tb *TermBuilder) PtoListData(src, next, data TermID) (TermID, error) {
	if _, err := tb.PtoList(src, next); err != nil {
		return NoTerm, err
	}
	if err := tb.checkBV("PtoListData", data); err != nil {
		return NoTerm, err
	}
	return tb.getOrCreate(termNode{kind: TY_PTO_LIST, sort: BoolSort(), children: []TermID{src, next, data}}), nil
}

func (tb *TermBuilder) PtoTree(src, left, right TermID) (TermID, error) {
	for _, e := range []TermID{src, left, right} {
		if err := tb.checkLocation("PtoTree", e, SORT_TREE_LOC, SORT_NULL); err != nil {
			return NoTerm, err
		}
	}
	return tb.getOrCreate(termNode{kind: TY_PTO_TREE, sort: BoolSort(), children: []TermID{src, left, right}}), nil
}

func (tb *TermBuilder) PtoTreeData(src, left, right, data TermID) (TermID, error) {
	if _, err := tb.PtoTree(src, left, right); err != nil {
		return NoTerm, err
	}
	if err := tb.checkBV("PtoTreeData", data); err != nil {
		return NoTerm, err
	}
	return tb.getOrCreate(termNode{kind: TY_PTO_TREE, sort: BoolSort(), children: []TermID{src, left, right, data}}), nil
}

// ListCall builds list(src, dst, trailing...). The trailing arguments are
// expected to be data predicates; they are not checked here.
func (tb *TermBuilder) ListCall(src, dst TermID, trailing ...TermID) (TermID, error) {
	for _, e := range []TermID{src, dst} {
		if err := tb.checkLocation("ListCall", e, SORT_LIST_LOC, SORT_NULL); err != nil {
			return NoTerm, err
		}
	}
	children := append([]TermID{src, dst}, trailing...)
	return tb.getOrCreate(termNode{kind: TY_CALL_LIST, sort: BoolSort(), children: children}), nil
}

// TreeCall builds tree(root, trailing...). The trailing arguments are data
// predicates followed by stop locations.
func (tb *TermBuilder) TreeCall(root TermID, trailing ...TermID) (TermID, error) {
	if err := tb.checkLocation("TreeCall", root, SORT_TREE_LOC, SORT_NULL); err != nil {
		return NoTerm, err
	}
	children := append([]TermID{root}, trailing...)
	return tb.getOrCreate(termNode{kind: TY_CALL_TREE, sort: BoolSort(), children: children}), nil
}

func (tb *TermBuilder) DPred(name string, body TermID) (TermID, error) {
	switch name {
	case DPRED_UNARY, DPRED_NEXT, DPRED_LEFT, DPRED_RIGHT:
	default:
		return NoTerm, errors.Errorf("DPred(): unknown data predicate %q", name)
	}
	if err := tb.checkBool("DPred", body); err != nil {
		return NoTerm, err
	}
	return tb.getOrCreate(termNode{kind: TY_DPRED, sort: DataPredSort(), name: name, children: []TermID{body}}), nil
}

// *** Traversals ***

// Symbols returns the distinct symbols (bit-vector, Boolean and location
// constants) occurring in e.
func (tb *TermBuilder) Symbols(e TermID) []TermID {
	queue := []TermID{e}
	visited := make(map[TermID]bool)
	symbols := make([]TermID, 0)

	for len(queue) > 0 {
		el := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if visited[el] {
			continue
		}
		visited[el] = true

		switch tb.Kind(el) {
		case TY_SYM, TY_BOOL_SYM, TY_LOC_SYM:
			symbols = append(symbols, el)
			continue
		}
		queue = append(queue, tb.Children(el)...)
	}
	return symbols
}

// rebuild constructs a term of the same kind as proto over new children,
// through the public constructors so that sorts are recomputed and local
// simplifications apply.
func (tb *TermBuilder) rebuild(proto TermID, children []TermID) (TermID, error) {
	n := tb.node(proto)
	kind, name, hi, lo, decl := n.kind, n.name, n.hi, n.lo, n.decl

	foldl := func(f func(TermID, TermID) (TermID, error)) (TermID, error) {
		acc := children[0]
		for _, c := range children[1:] {
			var err error
			if acc, err = f(acc, c); err != nil {
				return NoTerm, err
			}
		}
		return acc, nil
	}

	switch kind {
	case TY_EXTRACT:
		return tb.Extract(children[0], hi, lo)
	case TY_ZEXT:
		return tb.ZExt(children[0], hi)
	case TY_CONCAT:
		return foldl(tb.Concat)
	case TY_ITE:
		return tb.ITE(children[0], children[1], children[2])
	case TY_NOT:
		return tb.Not(children[0])
	case TY_NEG:
		return tb.Neg(children[0])
	case TY_AND:
		return foldl(tb.And)
	case TY_OR:
		return foldl(tb.Or)
	case TY_XOR:
		return foldl(tb.Xor)
	case TY_ADD:
		return foldl(tb.Add)
	case TY_MUL:
		return foldl(tb.Mul)
	case TY_ULT, TY_ULE, TY_UGT, TY_UGE, TY_SLT, TY_SLE, TY_SGT, TY_SGE:
		return tb.cmp(kind, kindSymbols[kind], children[0], children[1])
	case TY_EQ:
		return tb.Eq(children[0], children[1])
	case TY_BOOL_NOT:
		return tb.BoolNot(children[0])
	case TY_BOOL_AND:
		return tb.BoolAnd(children...)
	case TY_BOOL_OR:
		return tb.BoolOr(children...)
	case TY_BOOL_IFF:
		return tb.BoolIff(children[0], children[1])
	case TY_APP:
		return tb.App(decl, children...)
	case TY_SEP:
		return tb.Sep(children...)
	case TY_PTO_LIST:
		if len(children) == 3 {
			return tb.PtoListData(children[0], children[1], children[2])
		}
		return tb.PtoList(children[0], children[1])
	case TY_PTO_TREE:
		if len(children) == 4 {
			return tb.PtoTreeData(children[0], children[1], children[2], children[3])
		}
		return tb.PtoTree(children[0], children[1], children[2])
	case TY_CALL_LIST:
		return tb.ListCall(children[0], children[1], children[2:]...)
	case TY_CALL_TREE:
		return tb.TreeCall(children[0], children[1:]...)
	case TY_DPRED:
		return tb.DPred(name, children[0])
	}
	return proto, nil
}

// Substitute replaces every occurrence of the keys of subst in e. The
// traversal is iterative and shares work between common subterms.
func (tb *TermBuilder) Substitute(e TermID, subst map[TermID]TermID) (TermID, error) {
	type frame struct {
		id       TermID
		expanded bool
	}

	done := make(map[TermID]TermID)
	stack := []frame{{id: e}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		if _, ok := done[f.id]; ok {
			stack = stack[:len(stack)-1]
			continue
		}
		if r, ok := subst[f.id]; ok {
			done[f.id] = r
			stack = stack[:len(stack)-1]
			continue
		}
		children := tb.Children(f.id)
		if len(children) == 0 {
			done[f.id] = f.id
			stack = stack[:len(stack)-1]
			continue
		}
		if !f.expanded {
			stack[len(stack)-1].expanded = true
			for _, c := range children {
				if _, ok := done[c]; !ok {
					stack = append(stack, frame{id: c})
				}
			}
			continue
		}

		stack = stack[:len(stack)-1]
		changed := false
		newChildren := make([]TermID, len(children))
		for i, c := range children {
			newChildren[i] = done[c]
			changed = changed || newChildren[i] != c
		}
		if !changed {
			done[f.id] = f.id
			continue
		}
		r, err := tb.rebuild(f.id, newChildren)
		if err != nil {
			return NoTerm, err
		}
		done[f.id] = r
	}
	return done[e], nil
}
