package gosl

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	TY_SYM     = 1
	TY_CONST   = 2
	TY_EXTRACT = 3
	TY_CONCAT  = 4
	TY_ZEXT    = 5
	TY_ITE     = 6

	TY_NOT = 7
	TY_NEG = 8
	TY_AND = 9
	TY_OR  = 10
	TY_XOR = 11
	TY_ADD = 12
	TY_MUL = 13

	TY_ULT = 14
	TY_ULE = 15
	TY_UGT = 16
	TY_UGE = 17
	TY_SLT = 18
	TY_SLE = 19
	TY_SGT = 20
	TY_SGE = 21
	TY_EQ  = 22

	TY_BOOL_CONST = 23
	TY_BOOL_SYM   = 24
	TY_BOOL_NOT   = 25
	TY_BOOL_AND   = 26
	TY_BOOL_OR    = 27
	TY_BOOL_IFF   = 28

	TY_LOC_SYM = 29
	TY_NULL    = 30
	TY_APP     = 31

	TY_EMP       = 32
	TY_SEP       = 33
	TY_PTO_LIST  = 34
	TY_PTO_TREE  = 35
	TY_CALL_LIST = 36
	TY_CALL_TREE = 37
	TY_DPRED     = 38
	TY_VAR       = 39
)

// Term classes. Every kind belongs to exactly one of them; quantifiers are not
// part of the language.
const (
	CLASS_APP = 1
	CLASS_VAR = 2
)

// Names of the data predicates accepted as trailing call arguments.
const (
	DPRED_UNARY = "unary"
	DPRED_NEXT  = "next"
	DPRED_LEFT  = "left"
	DPRED_RIGHT = "right"
)

var kindSymbols = map[int]string{
	TY_ITE:       "ite",
	TY_NOT:       "bvnot",
	TY_NEG:       "bvneg",
	TY_AND:       "bvand",
	TY_OR:        "bvor",
	TY_XOR:       "bvxor",
	TY_ADD:       "bvadd",
	TY_MUL:       "bvmul",
	TY_CONCAT:    "concat",
	TY_ULT:       "bvult",
	TY_ULE:       "bvule",
	TY_UGT:       "bvugt",
	TY_UGE:       "bvuge",
	TY_SLT:       "bvslt",
	TY_SLE:       "bvsle",
	TY_SGT:       "bvsgt",
	TY_SGE:       "bvsge",
	TY_EQ:        "=",
	TY_BOOL_NOT:  "not",
	TY_BOOL_AND:  "and",
	TY_BOOL_OR:   "or",
	TY_BOOL_IFF:  "iff",
	TY_SEP:       "sep",
	TY_PTO_LIST:  "pton",
	TY_PTO_TREE:  "ptlr",
	TY_CALL_LIST: "list",
	TY_CALL_TREE: "tree",
}

// TermID addresses a node of a TermBuilder arena. The zero value is never a
// valid term.
type TermID uint32

const NoTerm TermID = 0

// FuncDecl is an uninterpreted function symbol of the reduced problem.
type FuncDecl struct {
	Name   string
	Domain []Sort
	Range  Sort
}

func (d *FuncDecl) String() string {
	b := strings.Builder{}
	b.WriteString("(declare-fun ")
	b.WriteString(d.Name)
	b.WriteString(" (")
	for i, s := range d.Domain {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(s.String())
	}
	b.WriteString(") ")
	b.WriteString(d.Range.String())
	b.WriteString(")")
	return b.String()
}

// termNode is the tagged union of all term kinds. Which payload fields are
// meaningful depends on kind:
//
//	TY_SYM, TY_BOOL_SYM, TY_LOC_SYM, TY_DPRED: name
//	TY_CONST: value
//	TY_BOOL_CONST: bval
//	TY_EXTRACT: hi, lo; TY_ZEXT: hi (extension width); TY_VAR: lo (index)
//	TY_APP: decl
type termNode struct {
	kind     int
	sort     Sort
	name     string
	children []TermID
	value    *BVConst
	bval     bool
	hi, lo   uint
	decl     *FuncDecl

	refs int
	h    uint64
}

func termClass(kind int) int {
	if kind == TY_VAR {
		return CLASS_VAR
	}
	return CLASS_APP
}

func isLeafKind(kind int) bool {
	switch kind {
	case TY_SYM, TY_CONST, TY_BOOL_CONST, TY_BOOL_SYM, TY_LOC_SYM, TY_NULL, TY_EMP, TY_VAR:
		return true
	}
	return false
}

func isSpatialAtomKind(kind int) bool {
	switch kind {
	case TY_PTO_LIST, TY_PTO_TREE, TY_CALL_LIST, TY_CALL_TREE:
		return true
	}
	return false
}

func isCallKind(kind int) bool {
	return kind == TY_CALL_LIST || kind == TY_CALL_TREE
}

func (n *termNode) hash() uint64 {
	h := xxhash.New()
	raw := make([]byte, 8)

	binary.BigEndian.PutUint64(raw, uint64(n.kind)<<16|uint64(n.sort.Kind)<<8)
	h.Write(raw)
	binary.BigEndian.PutUint64(raw, uint64(n.sort.Width))
	h.Write(raw)
	h.Write([]byte(n.name))
	for _, c := range n.children {
		binary.BigEndian.PutUint64(raw, uint64(c))
		h.Write(raw)
	}
	if n.value != nil {
		h.Write(n.value.value.Bytes())
	}
	if n.bval {
		h.Write([]byte{1})
	}
	binary.BigEndian.PutUint64(raw, uint64(n.hi)<<32|uint64(n.lo))
	h.Write(raw)
	if n.decl != nil {
		h.Write([]byte(n.decl.Name))
	}
	return h.Sum64()
}

// shallowEq compares two nodes whose children are already hash-consed, so
// children are compared by id.
func (n *termNode) shallowEq(o *termNode) bool {
	if n.kind != o.kind || n.sort != o.sort || n.name != o.name ||
		n.bval != o.bval || n.hi != o.hi || n.lo != o.lo || n.decl != o.decl {
		return false
	}
	if len(n.children) != len(o.children) {
		return false
	}
	for i := range n.children {
		if n.children[i] != o.children[i] {
			return false
		}
	}
	if (n.value == nil) != (o.value == nil) {
		return false
	}
	if n.value != nil {
		eq, err := n.value.Eq(o.value)
		if err != nil || !eq.Value {
			return false
		}
	}
	return true
}

func (tb *TermBuilder) writeTerm(b *strings.Builder, id TermID) {
	n := tb.node(id)
	switch n.kind {
	case TY_SYM, TY_BOOL_SYM, TY_LOC_SYM:
		b.WriteString(n.name)
		return
	case TY_CONST:
		b.WriteString(fmt.Sprintf("(_ bv%s %d)", n.value.value.String(), n.value.Size))
		return
	case TY_BOOL_CONST:
		if n.bval {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
		return
	case TY_NULL:
		b.WriteString("null")
		return
	case TY_EMP:
		b.WriteString("emp")
		return
	case TY_VAR:
		b.WriteString(fmt.Sprintf("?%d", n.lo))
		return
	case TY_EXTRACT:
		b.WriteString(fmt.Sprintf("((_ extract %d %d) ", n.hi, n.lo))
		tb.writeTerm(b, n.children[0])
		b.WriteString(")")
		return
	case TY_ZEXT:
		b.WriteString(fmt.Sprintf("((_ zero_extend %d) ", n.hi))
		tb.writeTerm(b, n.children[0])
		b.WriteString(")")
		return
	}

	b.WriteString("(")
	switch n.kind {
	case TY_APP:
		b.WriteString(n.decl.Name)
	case TY_DPRED:
		b.WriteString(n.name)
	default:
		b.WriteString(kindSymbols[n.kind])
	}
	for _, c := range n.children {
		b.WriteString(" ")
		tb.writeTerm(b, c)
	}
	b.WriteString(")")
}
