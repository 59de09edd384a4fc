package gosl

import (
	"fmt"
	"sort"
	"strings"
)

// Cell is an allocated heap location of a reconstructed model.
type Cell struct {
	Tree  bool
	Next  string
	Left  string
	Right string
	Data  *BVConst
}

// Heap is a heap model: the allocated cells keyed by location and the value
// of the location constants of the original formula.
type Heap struct {
	Cells map[string]*Cell
	Vars  map[string]string
}

func (h *Heap) String() string {
	b := strings.Builder{}
	names := make([]string, 0, len(h.Vars))
	for n := range h.Vars {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		b.WriteString(fmt.Sprintf("%s = %s\n", n, h.Vars[n]))
	}

	locs := make([]string, 0, len(h.Cells))
	for l := range h.Cells {
		locs = append(locs, l)
	}
	sort.Strings(locs)
	for _, l := range locs {
		c := h.Cells[l]
		if c.Tree {
			b.WriteString(fmt.Sprintf("%s -> (%s, %s)", l, c.Left, c.Right))
		} else {
			b.WriteString(fmt.Sprintf("%s -> %s", l, c.Next))
		}
		if c.Data != nil {
			b.WriteString(fmt.Sprintf(" [%s]", c.Data))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ModelConverter turns a model of a FULL reduction into a heap model of the
// original formula.
type ModelConverter struct {
	tb        *TermBuilder
	original  *Formula
	nilLoc    TermID
	listSlots []TermID
	treeSlots []TermID
	alloc     []TermID
	next      *FuncDecl
	left      *FuncDecl
	right     *FuncDecl
	data      *FuncDecl
	vars      map[TermID]TermID
}

func newModelConverter(e *Encoder, original *Formula) *ModelConverter {
	vars := make(map[TermID]TermID, len(e.vars))
	for k, v := range e.vars {
		vars[k] = v
	}
	return &ModelConverter{
		tb:        e.tb,
		original:  original,
		nilLoc:    e.nilLoc,
		listSlots: append([]TermID{}, e.listSlots...),
		treeSlots: append([]TermID{}, e.treeSlots...),
		alloc:     append([]TermID{}, e.alloc...),
		next:      e.next,
		left:      e.left,
		right:     e.right,
		data:      e.data,
		vars:      vars,
	}
}

func (mc *ModelConverter) locName(v Value, nilValue string) string {
	if v.Loc == nilValue {
		return "nil"
	}
	return v.Loc
}

// field evaluates d on slot; missing entries of the function table leave
// the field unset.
func (mc *ModelConverter) field(d *FuncDecl, slot TermID, a *Assignment) (Value, bool) {
	v, err := mc.tb.Eval(must(mc.tb.App(d, slot)), a)
	if err != nil {
		return Value{}, false
	}
	return v, true
}

func (mc *ModelConverter) Convert(a *Assignment) (*Heap, error) {
	nilValue, err := mc.tb.Eval(mc.nilLoc, a)
	if err != nil {
		return nil, err
	}

	h := &Heap{Cells: map[string]*Cell{}, Vars: map[string]string{}}
	for orig, enc := range mc.vars {
		v, err := mc.tb.Eval(enc, a)
		if err != nil {
			return nil, err
		}
		h.Vars[mc.tb.Name(orig)] = mc.locName(v, nilValue.Loc)
	}

	slots := append(append([]TermID{}, mc.listSlots...), mc.treeSlots...)
	for i, s := range slots {
		allocated, err := mc.tb.Eval(mc.alloc[i], a)
		if err != nil {
			return nil, err
		}
		if !allocated.Bool {
			continue
		}
		sv, err := mc.tb.Eval(s, a)
		if err != nil {
			return nil, err
		}

		cell := &Cell{Tree: i >= len(mc.listSlots)}
		if cell.Tree {
			if v, ok := mc.field(mc.left, s, a); ok {
				cell.Left = mc.locName(v, nilValue.Loc)
			}
			if v, ok := mc.field(mc.right, s, a); ok {
				cell.Right = mc.locName(v, nilValue.Loc)
			}
		} else if v, ok := mc.field(mc.next, s, a); ok {
			cell.Next = mc.locName(v, nilValue.Loc)
		}
		if v, ok := mc.field(mc.data, s, a); ok {
			cell.Data = v.BV
		}
		h.Cells[sv.Loc] = cell
	}
	return h, nil
}

func (mc *ModelConverter) String() string {
	b := strings.Builder{}
	b.WriteString("(slstar-model-converter")
	b.WriteString(fmt.Sprintf(" :conjuncts %d :list-slots %d :tree-slots %d",
		mc.original.Size(), len(mc.listSlots), len(mc.treeSlots)))
	names := make([]string, 0, len(mc.vars))
	for orig := range mc.vars {
		names = append(names, mc.tb.Name(orig))
	}
	sort.Strings(names)
	b.WriteString(" :vars (")
	b.WriteString(strings.Join(names, " "))
	b.WriteString("))")
	return b.String()
}
