package gosl

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Value is the concrete value of a term: a Boolean, a bit-vector or a
// location (identified by the name a model gives it).
type Value struct {
	Sort Sort
	Bool bool
	BV   *BVConst
	Loc  string
}

func BoolValue(v bool) Value {
	return Value{Sort: BoolSort(), Bool: v}
}

func BVValue(c *BVConst) Value {
	return Value{Sort: BVSort(c.Size), BV: c}
}

func LocValue(s Sort, name string) Value {
	return Value{Sort: s, Loc: name}
}

// Key identifies a value inside function tables.
func (v Value) Key() string {
	switch {
	case v.Sort.IsBool():
		return boolOf(v).String()
	case v.Sort.IsBV():
		return v.BV.Key()
	}
	return "@" + v.Loc
}

func (v Value) String() string {
	switch {
	case v.Sort.IsBool():
		return fmt.Sprintf("%v", v.Bool)
	case v.Sort.IsBV():
		return v.BV.String()
	}
	return v.Loc
}

func boolOf(v Value) BoolConst {
	return BoolConst{v.Bool}
}

func argsKey(args []Value) string {
	keys := make([]string, len(args))
	for i, a := range args {
		keys[i] = a.Key()
	}
	return strings.Join(keys, ",")
}

// Assignment interprets the symbols and uninterpreted functions of a
// reduced formula.
type Assignment struct {
	Bools map[string]bool
	BVs   map[string]*BVConst
	Locs  map[string]string
	// Funcs maps a function name to its table, keyed by the argument keys.
	Funcs map[string]map[string]Value
}

func NewAssignment() *Assignment {
	return &Assignment{
		Bools: map[string]bool{},
		BVs:   map[string]*BVConst{},
		Locs:  map[string]string{},
		Funcs: map[string]map[string]Value{},
	}
}

func (a *Assignment) SetFunc(name string, args []Value, v Value) {
	table, ok := a.Funcs[name]
	if !ok {
		table = map[string]Value{}
		a.Funcs[name] = table
	}
	table[argsKey(args)] = v
}

func (a *Assignment) LookupFunc(name string, args []Value) (Value, bool) {
	table, ok := a.Funcs[name]
	if !ok {
		return Value{}, false
	}
	v, ok := table[argsKey(args)]
	return v, ok
}

// Eval computes the value of e under a. Spatial terms have no value without
// a heap and are rejected, so are symbols a leaves uninterpreted.
func (tb *TermBuilder) Eval(e TermID, a *Assignment) (Value, error) {
	cache := make(map[TermID]Value)
	return tb.evalInternal(e, a, cache)
}

func (tb *TermBuilder) evalChildren(e TermID, a *Assignment, cache map[TermID]Value) ([]Value, error) {
	children := tb.Children(e)
	res := make([]Value, len(children))
	for i, c := range children {
		v, err := tb.evalInternal(c, a, cache)
		if err != nil {
			return nil, err
		}
		res[i] = v
	}
	return res, nil
}

func (tb *TermBuilder) evalInternal(e TermID, a *Assignment, cache map[TermID]Value) (Value, error) {
	if r, ok := cache[e]; ok {
		return r, nil
	}
	n := tb.node(e)
	kind, sort, name := n.kind, n.sort, n.name

	var result Value
	switch kind {
	case TY_SYM:
		c, ok := a.BVs[name]
		if !ok {
			return Value{}, errors.Errorf("no value for %s", name)
		}
		result = BVValue(c.Copy())
	case TY_CONST:
		result = BVValue(n.value.Copy())
	case TY_BOOL_CONST:
		result = BoolValue(n.bval)
	case TY_BOOL_SYM:
		v, ok := a.Bools[name]
		if !ok {
			return Value{}, errors.Errorf("no value for %s", name)
		}
		result = BoolValue(v)
	case TY_LOC_SYM:
		v, ok := a.Locs[name]
		if !ok {
			return Value{}, errors.Errorf("no value for %s", name)
		}
		result = LocValue(sort, v)
	case TY_NULL:
		result = LocValue(sort, "nil")
	case TY_EMP, TY_SEP, TY_PTO_LIST, TY_PTO_TREE, TY_CALL_LIST, TY_CALL_TREE, TY_DPRED, TY_VAR:
		return Value{}, errors.Errorf("%s cannot be evaluated", tb.String(e))
	default:
		args, err := tb.evalChildren(e, a, cache)
		if err != nil {
			return Value{}, err
		}
		if result, err = tb.evalApp(e, args, a); err != nil {
			return Value{}, err
		}
	}

	cache[e] = result
	return result, nil
}

func (tb *TermBuilder) evalApp(e TermID, args []Value, a *Assignment) (Value, error) {
	n := tb.node(e)
	switch n.kind {
	case TY_APP:
		v, ok := a.LookupFunc(n.decl.Name, args)
		if !ok {
			return Value{}, errors.Errorf("no value for %s", tb.String(e))
		}
		return v, nil
	case TY_ITE:
		if args[0].Bool {
			return args[1], nil
		}
		return args[2], nil
	case TY_EQ:
		if args[0].Sort.IsBV() {
			v, err := args[0].BV.Eq(args[1].BV)
			return BoolValue(v.Value), err
		}
		return BoolValue(args[0].Loc == args[1].Loc), nil
	case TY_BOOL_NOT:
		return BoolValue(boolOf(args[0]).Not().Value), nil
	case TY_BOOL_AND:
		res := BoolTrue()
		for _, v := range args {
			res = res.And(boolOf(v))
		}
		return BoolValue(res.Value), nil
	case TY_BOOL_OR:
		res := BoolFalse()
		for _, v := range args {
			res = res.Or(boolOf(v))
		}
		return BoolValue(res.Value), nil
	case TY_BOOL_IFF:
		return BoolValue(boolOf(args[0]).Iff(boolOf(args[1])).Value), nil
	case TY_EXTRACT:
		return BVValue(args[0].BV.Slice(n.hi, n.lo)), nil
	case TY_ZEXT:
		c := args[0].BV.Copy()
		c.ZExt(n.hi)
		return BVValue(c), nil
	case TY_CONCAT:
		c := args[0].BV.Copy()
		for _, v := range args[1:] {
			c.Concat(v.BV)
		}
		return BVValue(c), nil
	case TY_NOT:
		c := args[0].BV.Copy()
		c.Not()
		return BVValue(c), nil
	case TY_NEG:
		c := args[0].BV.Copy()
		c.Neg()
		return BVValue(c), nil
	case TY_AND, TY_OR, TY_XOR, TY_ADD, TY_MUL:
		c := args[0].BV.Copy()
		for _, v := range args[1:] {
			if err := foldBV(n.kind, c, v.BV); err != nil {
				return Value{}, err
			}
		}
		return BVValue(c), nil
	}

	var v BoolConst
	var err error
	lhs, rhs := args[0].BV, args[1].BV
	switch n.kind {
	case TY_ULT:
		v, err = lhs.Ult(rhs)
	case TY_ULE:
		v, err = lhs.Ule(rhs)
	case TY_UGT:
		v, err = lhs.UGt(rhs)
	case TY_UGE:
		v, err = lhs.UGe(rhs)
	case TY_SLT:
		v, err = lhs.SLt(rhs)
	case TY_SLE:
		v, err = lhs.SLe(rhs)
	case TY_SGT:
		v, err = lhs.SGt(rhs)
	case TY_SGE:
		v, err = lhs.SGe(rhs)
	default:
		return Value{}, errors.Errorf("unexpected term kind %d", n.kind)
	}
	return BoolValue(v.Value), err
}
