package gosl

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dataBody(t *testing.T, tb *TermBuilder) TermID {
	body, err := tb.Ult(tb.Var(0, BVSort(32)), tb.BVV(10, 32))
	require.NoError(t, err)
	return body
}

func TestBoundDirectPath(t *testing.T) {
	tb := NewTermBuilder()
	x, y, z, w := tb.ListLoc("x"), tb.ListLoc("y"), tb.ListLoc("z"), tb.ListLoc("w")
	tr := tb.TreeLoc("t")

	call := must(tb.ListCall(w, tb.Null()))
	spatial := must(tb.Sep(
		must(tb.PtoList(x, y)),
		must(tb.PtoList(z, tb.Null())),
		must(tb.PtoList(tb.Null(), x)),
		must(tb.PtoTree(tr, tb.Null(), tb.Null())),
	))

	f := NewFormula(tb)
	f.Assert(call)
	f.Assert(spatial)

	b := ComputeBound(f)
	assert.True(t, b.Defined)
	assert.True(t, b.Direct)
	assert.Equal(t, uint(2), b.NList)
	assert.Equal(t, uint(1), b.NTree)
	assert.False(t, b.ContainsCalls)
}

func TestBoundDirectPathDescendsIntoAnd(t *testing.T) {
	tb := NewTermBuilder()
	x, y := tb.ListLoc("x"), tb.ListLoc("y")

	call := must(tb.ListCall(x, y))
	pto := must(tb.PtoList(x, y))
	notPto := must(tb.BoolNot(must(tb.PtoList(y, x))))

	f := NewFormula(tb)
	f.Assert(must(tb.BoolAnd(call, pto)))
	f.Assert(notPto)

	b := ComputeBound(f)
	assert.True(t, b.Direct)
	assert.Equal(t, uint(1), b.NList)
}

func TestBoundFoldByMax(t *testing.T) {
	tb := NewTermBuilder()
	t1, t2, t3 := tb.TreeLoc("t1"), tb.TreeLoc("t2"), tb.TreeLoc("t3")

	// one constant and one call
	c1 := must(tb.TreeCall(t1))
	// two constants and one call
	c2 := must(tb.Sep(must(tb.PtoTree(t2, tb.Null(), tb.Null())), must(tb.TreeCall(t3))))

	f := NewFormula(tb)
	f.Assert(c1)
	f.Assert(c2)

	b := ComputeBound(f)
	assert.False(t, b.Direct)
	assert.True(t, b.ContainsCalls)
	assert.Equal(t, uint(3), b.NTree)
	assert.Equal(t, uint(0), b.NList)
}

func TestBoundPureConjunctIsNotDirect(t *testing.T) {
	tb := NewTermBuilder()
	x, y := tb.ListLoc("x"), tb.ListLoc("y")

	f := NewFormula(tb)
	f.Assert(must(tb.Eq(x, y)))
	f.Assert(must(tb.ListCall(x, y)))

	b := ComputeBound(f)
	assert.False(t, b.Direct)
	assert.Equal(t, uint(3), b.NList)
}

func TestBoundAsymmetricTrailingArguments(t *testing.T) {
	tb := NewTermBuilder()
	sel := must(tb.DPred(DPRED_UNARY, dataBody(t, tb)))

	tr, v := tb.TreeLoc("t"), tb.TreeLoc("v")
	f := NewFormula(tb)
	f.Assert(must(tb.TreeCall(tr, sel, v)))
	b := ComputeBound(f)
	// constants t and v, the call, and the untyped trailing argument
	assert.Equal(t, uint(2+1+1), b.NTree)

	x, y, w := tb.ListLoc("x"), tb.ListLoc("y"), tb.ListLoc("w")
	f = NewFormula(tb)
	f.Assert(must(tb.ListCall(x, y, sel, w)))
	b = ComputeBound(f)
	// constants x, y and w, and the call alone
	assert.Equal(t, uint(3+1), b.NList)
}

func TestBoundDataPredicatesUnderNegation(t *testing.T) {
	tb := NewTermBuilder()
	x := tb.ListLoc("x")
	body := dataBody(t, tb)
	next := must(tb.DPred(DPRED_NEXT, body))
	unary := must(tb.DPred(DPRED_UNARY, body))

	bound := func(e TermID) StructuralBound {
		f := NewFormula(tb)
		f.Assert(e)
		return ComputeBound(f)
	}

	call := must(tb.ListCall(x, tb.Null(), unary, next))
	assert.Equal(t, uint(1+1), bound(call).NList)
	assert.Equal(t, uint(1+1+2), bound(must(tb.BoolNot(call))).NList)

	call = must(tb.ListCall(x, tb.Null(), unary))
	assert.Equal(t, uint(1+1+1), bound(must(tb.BoolNot(call))).NList)

	tr := tb.TreeLoc("t")
	left := must(tb.DPred(DPRED_LEFT, body))
	tcall := must(tb.TreeCall(tr, left, unary))
	assert.Equal(t, uint(1+1+2), bound(must(tb.BoolNot(tcall))).NTree)
}

func TestBoundMalformedAtomPanics(t *testing.T) {
	tb := NewTermBuilder()
	pto := must(tb.PtoList(tb.Var(0, ListLocSort()), tb.Null()))

	f := NewFormula(tb)
	f.Assert(pto)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, ErrInternalConsistency))
	}()
	ComputeBound(f)
}

func TestBoundSkipsNegatedAndDisjunctiveConjuncts(t *testing.T) {
	tb := NewTermBuilder()
	x, y, z := tb.ListLoc("x"), tb.ListLoc("y"), tb.ListLoc("z")
	call := must(tb.ListCall(x, z))

	f := NewFormula(tb)
	f.Assert(must(tb.BoolNot(must(tb.PtoList(x, y)))))
	f.Assert(call)
	b := ComputeBound(f)
	assert.False(t, b.Direct)
	assert.True(t, b.ContainsCalls)
	assert.Equal(t, uint(3), b.NList)

	f = NewFormula(tb)
	f.Assert(must(tb.BoolOr(must(tb.PtoList(x, y)), must(tb.PtoList(y, x)))))
	f.Assert(call)
	b = ComputeBound(f)
	assert.False(t, b.Direct)
	assert.True(t, b.ContainsCalls)
	assert.Equal(t, uint(3), b.NList)

	// x, y and z, plus the call
	f = NewFormula(tb)
	f.Assert(must(tb.BoolAnd(must(tb.BoolNot(must(tb.PtoList(x, y)))), call)))
	b = ComputeBound(f)
	assert.False(t, b.Direct)
	assert.True(t, b.ContainsCalls)
	assert.Equal(t, uint(4), b.NList)

	// a negation does not hide a later candidate
	f = NewFormula(tb)
	f.Assert(must(tb.BoolAnd(must(tb.BoolNot(must(tb.PtoList(x, y)))), must(tb.PtoList(z, tb.Null())))))
	b = ComputeBound(f)
	assert.True(t, b.Direct)
	assert.Equal(t, uint(1), b.NList)
}
