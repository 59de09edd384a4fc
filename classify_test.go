package gosl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classifyOne(tb *TermBuilder, e TermID) Classification {
	f := NewFormula(tb)
	f.Assert(e)
	return Classify(f)
}

func TestClassifyInFragment(t *testing.T) {
	tb := NewTermBuilder()
	x, y := tb.ListLoc("x"), tb.ListLoc("y")
	tr := tb.TreeLoc("t")
	body := dataBody(t, tb)

	unary := must(tb.DPred(DPRED_UNARY, body))
	next := must(tb.DPred(DPRED_NEXT, body))
	left := must(tb.DPred(DPRED_LEFT, body))

	f := NewFormula(tb)
	f.Assert(must(tb.ListCall(x, y, unary, next)))
	f.Assert(must(tb.TreeCall(tr, left, tb.TreeLoc("s"))))
	f.Assert(must(tb.BoolNot(must(tb.Eq(x, y)))))
	f.Assert(must(tb.Sep(must(tb.PtoListData(x, y, tb.BVS("d", 32))), tb.Emp())))

	c := Classify(f)
	assert.Equal(t, InFragment, c.Class)
	assert.True(t, IsSLStar(f))
}

func TestClassifyOutOfFragment(t *testing.T) {
	tb := NewTermBuilder()
	x, y := tb.ListLoc("x"), tb.ListLoc("y")
	tr := tb.TreeLoc("t")
	body := dataBody(t, tb)
	unary := must(tb.DPred(DPRED_UNARY, body))

	f, err := tb.DeclareFun("f", []Sort{BVSort(32)}, BVSort(32))
	require.NoError(t, err)
	app := must(tb.App(f, tb.BVS("a", 32)))

	cases := []struct {
		name string
		e    TermID
		bad  TermID
	}{
		{"free variable", must(tb.Ult(tb.Var(0, BVSort(32)), tb.BVS("a", 32))), tb.Var(0, BVSort(32))},
		{"uninterpreted function", must(tb.Eq(app, tb.BVS("b", 32))), app},
		{"encoded location", must(tb.Eq(tb.Loc("l"), tb.Loc("m"))), NoTerm},
		{"next on a tree", must(tb.TreeCall(tr, must(tb.DPred(DPRED_NEXT, body)))), NoTerm},
		{"left on a list", must(tb.ListCall(x, y, must(tb.DPred(DPRED_LEFT, body)))), NoTerm},
		{"location in list trailing", must(tb.ListCall(x, y, y)), y},
		{"data predicate after stop", must(tb.TreeCall(tr, tb.TreeLoc("s"), unary)), unary},
		{"third variable", must(tb.ListCall(x, y, must(tb.DPred(DPRED_UNARY,
			must(tb.Ult(tb.Var(2, BVSort(32)), tb.BVV(1, 32))))))), tb.Var(2, BVSort(32))},
		{"spatial body", must(tb.ListCall(x, y, must(tb.DPred(DPRED_UNARY, must(tb.PtoList(x, y)))))), NoTerm},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := classifyOne(tb, c.e)
			assert.Equal(t, OutOfFragment, res.Class)
			assert.NotEmpty(t, res.Reason)
			if c.bad != NoTerm {
				assert.Equal(t, c.bad, res.Term)
			}
		})
	}
}

func TestClassifyBareDataPredicate(t *testing.T) {
	tb := NewTermBuilder()
	f := NewFormula(tb)
	f.Assert(tb.BoolSym("a"))
	f.conjuncts = append(f.conjuncts, must(tb.DPred(DPRED_UNARY, tb.BoolVal(true))))

	c := Classify(f)
	assert.Equal(t, OutOfFragment, c.Class)
	assert.False(t, IsSLStar(f))
}
