package gosl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZ3OracleBV(t *testing.T) {
	tb := NewTermBuilder()
	a := tb.BVS("a", 8)

	f := NewFormula(tb)
	f.Assert(must(tb.UGt(a, tb.BVV(200, 8))))
	f.Assert(must(tb.Ult(a, tb.BVV(202, 8))))

	d, err := NewZ3Oracle().Decide(f)
	require.NoError(t, err)
	require.Equal(t, RESULT_SAT, d.Result)
	require.NotNil(t, d.Model)
	assert.Equal(t, uint64(201), d.Model.BVs["a"].AsULong())
}

func TestZ3OracleUnsat(t *testing.T) {
	tb := NewTermBuilder()
	x, y := tb.Loc("x"), tb.Loc("y")
	next, err := tb.DeclareFun("next", []Sort{LocSort()}, LocSort())
	require.NoError(t, err)

	f := NewFormula(tb)
	f.Assert(must(tb.Eq(x, y)))
	f.Assert(must(tb.BoolNot(must(tb.Eq(must(tb.App(next, x)), must(tb.App(next, y)))))))

	o := NewZ3Oracle()
	o.ProduceModels = false
	d, err := o.Decide(f)
	require.NoError(t, err)
	assert.Equal(t, RESULT_UNSAT, d.Result)
}

func TestZ3OracleFunctionModel(t *testing.T) {
	tb := NewTermBuilder()
	x := tb.Loc("x")
	data, err := tb.DeclareFun("data", []Sort{LocSort()}, BVSort(8))
	require.NoError(t, err)
	dx := must(tb.App(data, x))

	f := NewFormula(tb)
	f.Assert(must(tb.Eq(dx, tb.BVV(7, 8))))

	d, err := NewZ3Oracle().Decide(f)
	require.NoError(t, err)
	require.Equal(t, RESULT_SAT, d.Result)

	v, err := tb.Eval(dx, d.Model)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), v.BV.AsULong())
}

func TestZ3OracleRejectsSpatial(t *testing.T) {
	tb := NewTermBuilder()
	f := NewFormula(tb)
	f.Assert(must(tb.PtoList(tb.ListLoc("x"), tb.Null())))

	d, err := NewZ3Oracle().Decide(f)
	assert.Error(t, err)
	assert.Equal(t, RESULT_ERROR, d.Result)
}

func decideReduced(t *testing.T, f *Formula) (int, *Heap) {
	tb := f.Builder()
	f.ModelsEnabled = true
	r := NewReducer(tb, NewSession(tb), NewZ3Oracle())
	res, mc, err := r.Reduce(f)
	require.NoError(t, err)
	require.Len(t, res, 1)

	d, err := NewZ3Oracle().Decide(res[0])
	require.NoError(t, err)
	if d.Result != RESULT_SAT {
		return d.Result, nil
	}
	require.NotNil(t, mc)
	h, err := mc.Convert(d.Model)
	require.NoError(t, err)
	return d.Result, h
}

func TestReduceListSat(t *testing.T) {
	tb := NewTermBuilder()
	x, y := tb.ListLoc("x"), tb.ListLoc("y")

	f := NewFormula(tb)
	f.Assert(must(tb.Sep(must(tb.PtoList(x, y)), must(tb.PtoList(y, tb.Null())))))
	f.Assert(must(tb.ListCall(x, tb.Null())))

	res, h := decideReduced(t, f)
	require.Equal(t, RESULT_SAT, res)
	assert.Len(t, h.Cells, 2)

	cx := h.Cells[h.Vars["x"]]
	require.NotNil(t, cx)
	assert.False(t, cx.Tree)
	assert.Equal(t, h.Vars["y"], cx.Next)
	assert.Equal(t, "nil", h.Cells[h.Vars["y"]].Next)
}

func TestReduceListUnsat(t *testing.T) {
	tb := NewTermBuilder()
	x, y, z := tb.ListLoc("x"), tb.ListLoc("y"), tb.ListLoc("z")

	// x cannot be allocated twice
	f := NewFormula(tb)
	f.Assert(must(tb.Sep(must(tb.PtoList(x, y)), must(tb.PtoList(x, z)))))
	res, _ := decideReduced(t, f)
	assert.Equal(t, RESULT_UNSAT, res)

	// a cycle is not a list segment to null
	f = NewFormula(tb)
	f.Assert(must(tb.Sep(must(tb.PtoList(x, y)), must(tb.PtoList(y, x)))))
	f.Assert(must(tb.ListCall(x, tb.Null())))
	res, _ = decideReduced(t, f)
	assert.Equal(t, RESULT_UNSAT, res)
}

func TestReduceListData(t *testing.T) {
	tb := NewTermBuilder()
	x, y := tb.ListLoc("x"), tb.ListLoc("y")
	sorted := must(tb.DPred(DPRED_NEXT, must(tb.Ule(tb.Var(0, BVSort(32)), tb.Var(1, BVSort(32))))))

	heap := must(tb.Sep(
		must(tb.PtoListData(x, y, tb.BVV(5, 32))),
		must(tb.PtoListData(y, tb.Null(), tb.BVV(3, 32)))))

	f := NewFormula(tb)
	f.Assert(heap)
	f.Assert(must(tb.ListCall(x, tb.Null(), sorted)))
	res, _ := decideReduced(t, f)
	assert.Equal(t, RESULT_UNSAT, res)

	f = NewFormula(tb)
	f.Assert(heap)
	f.Assert(must(tb.BoolNot(must(tb.ListCall(x, tb.Null(), sorted)))))
	res, h := decideReduced(t, f)
	require.Equal(t, RESULT_SAT, res)
	assert.Equal(t, uint64(5), h.Cells[h.Vars["x"]].Data.AsULong())
}

func TestReduceTreeSat(t *testing.T) {
	tb := NewTermBuilder()
	r, a, b := tb.TreeLoc("r"), tb.TreeLoc("a"), tb.TreeLoc("b")

	f := NewFormula(tb)
	f.Assert(must(tb.Sep(
		must(tb.PtoTree(r, a, b)),
		must(tb.PtoTree(a, tb.Null(), tb.Null())),
		must(tb.PtoTree(b, tb.Null(), tb.Null())))))
	f.Assert(must(tb.TreeCall(r)))

	res, h := decideReduced(t, f)
	require.Equal(t, RESULT_SAT, res)
	assert.Len(t, h.Cells, 3)

	root := h.Cells[h.Vars["r"]]
	require.NotNil(t, root)
	assert.True(t, root.Tree)
	assert.Equal(t, h.Vars["a"], root.Left)
	assert.Equal(t, h.Vars["b"], root.Right)
	assert.Equal(t, "nil", h.Cells[h.Vars["a"]].Left)
}

func TestReduceTreeUnsat(t *testing.T) {
	tb := NewTermBuilder()
	r, a := tb.TreeLoc("r"), tb.TreeLoc("a")

	f := NewFormula(tb)
	f.Assert(must(tb.Sep(
		must(tb.PtoTree(r, a, tb.Null())),
		must(tb.PtoTree(a, r, tb.Null())))))
	f.Assert(must(tb.TreeCall(r)))

	res, _ := decideReduced(t, f)
	assert.Equal(t, RESULT_UNSAT, res)
}

func TestReduceTreeStop(t *testing.T) {
	tb := NewTermBuilder()
	r, a := tb.TreeLoc("r"), tb.TreeLoc("a")

	// the stop location a is not part of the tree rooted at r
	f := NewFormula(tb)
	f.Assert(must(tb.PtoTree(r, a, tb.Null())))
	f.Assert(must(tb.TreeCall(r, a)))

	res, _ := decideReduced(t, f)
	assert.Equal(t, RESULT_SAT, res)
}

func TestReduceNegatedHeapWithCall(t *testing.T) {
	tb := NewTermBuilder()
	x, z := tb.ListLoc("x"), tb.ListLoc("z")

	// x -> w -> z is a model
	f := NewFormula(tb)
	f.Assert(must(tb.ListCall(x, z)))
	f.Assert(must(tb.BoolNot(must(tb.Eq(x, z)))))
	f.Assert(must(tb.BoolNot(must(tb.PtoList(x, z)))))

	res, _ := decideReduced(t, f)
	assert.Equal(t, RESULT_SAT, res)
}

func translateAt(t *testing.T, f *Formula, level EncodingLevel) *Formula {
	tb := f.Builder()
	r := NewReducer(tb, NewSession(tb), NewZ3Oracle())
	r.bound = ComputeBound(f)
	r.encoder = NewEncoder(tb, r.params.DataWidth)
	defer r.encoder.ClearDictionary()

	r.encoder.Prepare(r.bound, level)
	g, err := r.translate(f)
	require.NoError(t, err)
	return g
}

func TestAbstractionRefutesOnlyUnsatFormulas(t *testing.T) {
	tb := NewTermBuilder()
	x, y, z := tb.ListLoc("x"), tb.ListLoc("y"), tb.ListLoc("z")
	r, a, b := tb.TreeLoc("r"), tb.TreeLoc("a"), tb.TreeLoc("b")
	null := tb.Null()
	not := func(e TermID) TermID { return must(tb.BoolNot(e)) }
	sorted := must(tb.DPred(DPRED_NEXT, must(tb.Ule(tb.Var(0, BVSort(32)), tb.Var(1, BVSort(32))))))

	cycle := must(tb.Sep(must(tb.PtoList(x, y)), must(tb.PtoList(y, x))))
	tree := must(tb.Sep(
		must(tb.PtoTree(r, a, b)),
		must(tb.PtoTree(a, null, null)),
		must(tb.PtoTree(b, null, null))))

	tests := []struct {
		name      string
		conjuncts []TermID
		want      int
	}{
		{"list cycle", []TermID{cycle, must(tb.ListCall(x, null))}, RESULT_UNSAT},
		{"negated segment", []TermID{must(tb.PtoList(x, y)), not(must(tb.ListCall(x, y)))}, 0},
		{"negated heap", []TermID{must(tb.ListCall(x, z)), not(must(tb.Eq(x, z))), not(must(tb.PtoList(x, z)))}, RESULT_SAT},
		{"or over calls", []TermID{cycle, must(tb.BoolOr(must(tb.ListCall(x, null)), must(tb.ListCall(y, null))))}, 0},
		{"composed segments", []TermID{
			must(tb.Sep(must(tb.ListCall(x, y)), must(tb.ListCall(y, null)))),
			not(must(tb.ListCall(x, null))),
		}, 0},
		{"negated data", []TermID{
			must(tb.Sep(
				must(tb.PtoListData(x, y, tb.BVV(5, 32))),
				must(tb.PtoListData(y, null, tb.BVV(3, 32))))),
			not(must(tb.ListCall(x, null, sorted))),
		}, 0},
		{"negated tree", []TermID{tree, not(must(tb.TreeCall(r)))}, 0},
		{"tree cycle", []TermID{
			must(tb.Sep(must(tb.PtoTree(r, a, null)), must(tb.PtoTree(a, r, null)))),
			must(tb.TreeCall(r)),
		}, RESULT_UNSAT},
		{"tree stop", []TermID{must(tb.PtoTree(r, a, null)), must(tb.TreeCall(r, a))}, RESULT_SAT},
		{"negated tree stop", []TermID{must(tb.PtoTree(r, a, null)), not(must(tb.TreeCall(r, a)))}, 0},
	}

	o := NewZ3Oracle()
	o.ProduceModels = false
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFormula(tb)
			for _, c := range tt.conjuncts {
				f.Assert(c)
			}

			uf, err := o.Decide(translateAt(t, f, LEVEL_UF))
			require.NoError(t, err)
			full, err := o.Decide(translateAt(t, f, LEVEL_FULL))
			require.NoError(t, err)

			require.NotEqual(t, RESULT_ERROR, uf.Result)
			require.NotEqual(t, RESULT_ERROR, full.Result)
			if uf.Result == RESULT_UNSAT {
				assert.Equal(t, RESULT_UNSAT, full.Result)
			}
			if tt.want != 0 {
				assert.Equal(t, tt.want, full.Result)
			}
		})
	}
}
