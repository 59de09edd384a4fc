package gosl

import (
	"strings"

	"github.com/aclements/go-z3/z3"
	"github.com/pkg/errors"
)

// Z3Oracle decides reduced formulas with Z3. Every call runs in a fresh
// context.
type Z3Oracle struct {
	// ProduceModels requests a model on sat answers.
	ProduceModels bool
}

func NewZ3Oracle() *Z3Oracle {
	return &Z3Oracle{ProduceModels: true}
}

type z3converter struct {
	ctx     *z3.Context
	tb      *TermBuilder
	locSort z3.Sort

	cache map[TermID]z3.Value
	decls map[string]z3.FuncDecl

	symbols []TermID
	apps    []TermID
}

func checkReduced(tb *TermBuilder, e TermID) error {
	if tb.ContainsKind(e, TY_EMP, TY_SEP, TY_PTO_LIST, TY_PTO_TREE, TY_CALL_LIST, TY_CALL_TREE, TY_DPRED, TY_VAR, TY_NULL) {
		return errors.Errorf("%s is not a reduced formula", tb.String(e))
	}
	for _, s := range tb.Symbols(e) {
		if k := tb.Sort(s).Kind; k == SORT_LIST_LOC || k == SORT_TREE_LOC {
			return errors.Errorf("%s is not a reduced formula", tb.String(e))
		}
	}
	return nil
}

func (o *Z3Oracle) Decide(f *Formula) (Decision, error) {
	tb := f.Builder()
	for _, e := range f.conjuncts {
		if err := checkReduced(tb, e); err != nil {
			return Decision{Result: RESULT_ERROR}, err
		}
	}

	cfg := z3.NewContextConfig()
	ctx := z3.NewContext(cfg)
	solver := z3.NewSolver(ctx)

	conv := &z3converter{
		ctx:     ctx,
		tb:      tb,
		locSort: ctx.UninterpretedSort("Loc"),
		cache:   make(map[TermID]z3.Value),
		decls:   make(map[string]z3.FuncDecl),
		symbols: make([]TermID, 0),
		apps:    make([]TermID, 0),
	}
	for _, e := range f.conjuncts {
		solver.Assert(conv.convert(e).(z3.Bool))
	}

	r, err := solver.Check()
	if err != nil {
		return Decision{Result: RESULT_UNKNOWN}, nil
	}
	if !r {
		return Decision{Result: RESULT_UNSAT}, nil
	}
	if !o.ProduceModels {
		return Decision{Result: RESULT_SAT}, nil
	}

	m, err := conv.model(solver.Model())
	if err != nil {
		return Decision{Result: RESULT_ERROR}, err
	}
	return Decision{Result: RESULT_SAT, Model: m}, nil
}

func (c *z3converter) sort(s Sort) z3.Sort {
	switch s.Kind {
	case SORT_BOOL:
		return c.ctx.BoolSort()
	case SORT_BV:
		return c.ctx.BVSort(int(s.Width))
	case SORT_LOC:
		return c.locSort
	}
	violation("sort %s has no Z3 counterpart", s)
	return z3.Sort{}
}

func (c *z3converter) funcDecl(d *FuncDecl) z3.FuncDecl {
	if fd, ok := c.decls[d.Name]; ok {
		return fd
	}
	domain := make([]z3.Sort, len(d.Domain))
	for i, s := range d.Domain {
		domain[i] = c.sort(s)
	}
	fd := c.ctx.FuncDecl(d.Name, domain, c.sort(d.Range))
	c.decls[d.Name] = fd
	return fd
}

func convertZ3Const(v z3.BV) (*BVConst, error) {
	s := v.String()
	size := uint(v.Sort().BVSize())

	var c *BVConst
	switch {
	case strings.HasPrefix(s, "#x"):
		c = MakeBVConstFromString(s[2:], 16, size)
	case strings.HasPrefix(s, "#b"):
		c = MakeBVConstFromString(s[2:], 2, size)
	}
	if c == nil {
		return nil, errors.Errorf("not a constant: %s", s)
	}
	return c, nil
}

func (c *z3converter) value(s Sort, v z3.Value) (Value, error) {
	switch s.Kind {
	case SORT_BOOL:
		b, ok := v.(z3.Bool).AsBool()
		if !ok {
			return Value{}, errors.Errorf("not a Boolean literal: %s", v)
		}
		return BoolValue(b), nil
	case SORT_BV:
		bv, err := convertZ3Const(v.(z3.BV))
		if err != nil {
			return Value{}, err
		}
		return BVValue(bv), nil
	}
	return LocValue(s, v.String()), nil
}

// model reads the value of every symbol and of every ground application
// present in the converted formula.
func (c *z3converter) model(m *z3.Model) (*Assignment, error) {
	if m == nil {
		return nil, errors.Errorf("no model")
	}

	res := NewAssignment()
	for _, s := range c.symbols {
		sort := c.tb.Sort(s)
		v, err := c.value(sort, m.Eval(c.cache[s], true))
		if err != nil {
			return nil, err
		}
		name := c.tb.Name(s)
		switch sort.Kind {
		case SORT_BOOL:
			res.Bools[name] = v.Bool
		case SORT_BV:
			res.BVs[name] = v.BV
		default:
			res.Locs[name] = v.Loc
		}
	}

	for _, a := range c.apps {
		args := make([]Value, 0)
		for _, ch := range c.tb.Children(a) {
			v, err := c.value(c.tb.Sort(ch), m.Eval(c.cache[ch], true))
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		v, err := c.value(c.tb.Sort(a), m.Eval(c.cache[a], true))
		if err != nil {
			return nil, err
		}
		res.SetFunc(c.tb.Decl(a).Name, args, v)
	}
	return res, nil
}

func (c *z3converter) convert(e TermID) z3.Value {
	if v, ok := c.cache[e]; ok {
		return v
	}

	tb := c.tb
	var result z3.Value
	switch tb.Kind(e) {
	case TY_SYM:
		result = c.ctx.BVConst(tb.Name(e), int(tb.Sort(e).Width))
		c.symbols = append(c.symbols, e)
	case TY_BOOL_SYM:
		result = c.ctx.BoolConst(tb.Name(e))
		c.symbols = append(c.symbols, e)
	case TY_LOC_SYM:
		result = c.ctx.Const(tb.Name(e), c.locSort)
		c.symbols = append(c.symbols, e)
	case TY_CONST:
		bv, _ := tb.GetBVConst(e)
		result = c.ctx.FromBigInt(bv.BigInt(), c.ctx.BVSort(int(bv.Size)))
	case TY_BOOL_CONST:
		v, _ := tb.GetBoolConst(e)
		result = c.ctx.FromBool(v)
	case TY_APP:
		args := make([]z3.Value, 0, tb.NumChildren(e))
		for _, ch := range tb.Children(e) {
			args = append(args, c.convert(ch))
		}
		result = c.funcDecl(tb.Decl(e)).Apply(args...)
		c.apps = append(c.apps, e)
	case TY_EXTRACT:
		high, low := tb.ExtractBounds(e)
		result = c.convert(tb.Child(e, 0)).(z3.BV).Extract(int(high), int(low))
	case TY_ZEXT:
		result = c.convert(tb.Child(e, 0)).(z3.BV).ZeroExtend(int(tb.ZExtWidth(e)))
	case TY_CONCAT:
		res := c.convert(tb.Child(e, 0)).(z3.BV)
		for _, ch := range tb.Children(e)[1:] {
			res = res.Concat(c.convert(ch).(z3.BV))
		}
		result = res
	case TY_ITE:
		guard := c.convert(tb.Child(e, 0)).(z3.Bool)
		result = guard.IfThenElse(c.convert(tb.Child(e, 1)), c.convert(tb.Child(e, 2)))
	case TY_NOT:
		result = c.convert(tb.Child(e, 0)).(z3.BV).Not()
	case TY_NEG:
		result = c.convert(tb.Child(e, 0)).(z3.BV).Neg()
	case TY_AND, TY_OR, TY_XOR, TY_ADD, TY_MUL:
		res := c.convert(tb.Child(e, 0)).(z3.BV)
		for _, ch := range tb.Children(e)[1:] {
			child := c.convert(ch).(z3.BV)
			switch tb.Kind(e) {
			case TY_AND:
				res = res.And(child)
			case TY_OR:
				res = res.Or(child)
			case TY_XOR:
				res = res.Xor(child)
			case TY_ADD:
				res = res.Add(child)
			case TY_MUL:
				res = res.Mul(child)
			}
		}
		result = res
	case TY_ULT, TY_ULE, TY_UGT, TY_UGE, TY_SLT, TY_SLE, TY_SGT, TY_SGE:
		lhs := c.convert(tb.Child(e, 0)).(z3.BV)
		rhs := c.convert(tb.Child(e, 1)).(z3.BV)
		switch tb.Kind(e) {
		case TY_ULT:
			result = lhs.ULT(rhs)
		case TY_ULE:
			result = lhs.ULE(rhs)
		case TY_UGT:
			result = lhs.UGT(rhs)
		case TY_UGE:
			result = lhs.UGE(rhs)
		case TY_SLT:
			result = lhs.SLT(rhs)
		case TY_SLE:
			result = lhs.SLE(rhs)
		case TY_SGT:
			result = lhs.SGT(rhs)
		case TY_SGE:
			result = lhs.SGE(rhs)
		}
	case TY_EQ:
		lhs := c.convert(tb.Child(e, 0))
		rhs := c.convert(tb.Child(e, 1))
		if tb.Sort(tb.Child(e, 0)).IsBV() {
			result = lhs.(z3.BV).Eq(rhs.(z3.BV))
		} else {
			result = lhs.(z3.Uninterpreted).Eq(rhs.(z3.Uninterpreted))
		}
	case TY_BOOL_NOT:
		result = c.convert(tb.Child(e, 0)).(z3.Bool).Not()
	case TY_BOOL_AND, TY_BOOL_OR:
		children := make([]z3.Bool, 0, tb.NumChildren(e))
		for _, ch := range tb.Children(e)[1:] {
			children = append(children, c.convert(ch).(z3.Bool))
		}
		first := c.convert(tb.Child(e, 0)).(z3.Bool)
		if tb.Kind(e) == TY_BOOL_AND {
			result = first.And(children...)
		} else {
			result = first.Or(children...)
		}
	case TY_BOOL_IFF:
		lhs := c.convert(tb.Child(e, 0)).(z3.Bool)
		rhs := c.convert(tb.Child(e, 1)).(z3.Bool)
		result = lhs.Iff(rhs)
	default:
		violation("invalid term kind %d", tb.Kind(e))
	}

	c.cache[e] = result
	return result
}
