package gosl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isErr(t *testing.T, err error) bool {
	if err != nil {
		t.Error(err)
		return true
	}
	return false
}

func TestCache(t *testing.T) {
	tb := NewTermBuilder()

	s1 := tb.BVS("s1", 32)
	s2 := tb.BVS("s2", 32)
	e, err := tb.Add(s1, s2)
	if isErr(t, err) {
		return
	}

	ss1 := tb.BVS("s1", 32)
	if s1 != ss1 {
		t.Error("should be the same term")
		return
	}
	ee, _ := tb.Add(ss1, s2)
	if e != ee {
		t.Error("should be the same term")
		return
	}
	if tb.Stats.CacheHits < 2 {
		t.Errorf("expected cache hits, got %d", tb.Stats.CacheHits)
	}
}

func TestRefCountRelease(t *testing.T) {
	tb := NewTermBuilder()

	x := tb.ListLoc("x")
	assert.Equal(t, 1, tb.RefCount(x))
	tb.IncRef(x)
	assert.Equal(t, 2, tb.RefCount(x))

	tb.DecRef(x)
	tb.DecRef(x)
	assert.Equal(t, 0, tb.RefCount(x))
	tb.DecRef(x)
	assert.Equal(t, 0, tb.RefCount(x))

	// a dead node is not shared anymore
	xx := tb.ListLoc("x")
	assert.NotEqual(t, x, xx)
	assert.Equal(t, "x", tb.Name(x))
}

func TestConstantFolding(t *testing.T) {
	tb := NewTermBuilder()
	x := tb.BVS("x", 8)
	a := tb.BoolSym("a")

	e, err := tb.Add(tb.BVV(1, 8), tb.BVV(2, 8))
	require.NoError(t, err)
	assert.Equal(t, tb.BVV(3, 8), e)

	e, err = tb.Add(x, tb.BVV(0, 8))
	require.NoError(t, err)
	assert.Equal(t, x, e)

	e, err = tb.Mul(x, tb.BVV(0, 8))
	require.NoError(t, err)
	assert.Equal(t, tb.BVV(0, 8), e)

	e, err = tb.Eq(x, x)
	require.NoError(t, err)
	assert.True(t, tb.IsTrue(e))

	e, err = tb.Ult(tb.BVV(1, 8), tb.BVV(2, 8))
	require.NoError(t, err)
	assert.True(t, tb.IsTrue(e))

	e, err = tb.BoolAnd(a, tb.BoolVal(true))
	require.NoError(t, err)
	assert.Equal(t, a, e)

	e, err = tb.BoolAnd(a, tb.BoolVal(false))
	require.NoError(t, err)
	assert.True(t, tb.IsFalse(e))

	na, _ := tb.BoolNot(a)
	e, err = tb.BoolNot(na)
	require.NoError(t, err)
	assert.Equal(t, a, e)

	e, err = tb.BoolOr()
	require.NoError(t, err)
	assert.True(t, tb.IsFalse(e))

	e, err = tb.ITE(tb.BoolVal(true), x, tb.BVV(1, 8))
	require.NoError(t, err)
	assert.Equal(t, x, e)
}

func TestBoolFlattenKeepsOrder(t *testing.T) {
	tb := NewTermBuilder()
	a, b, c := tb.BoolSym("a"), tb.BoolSym("b"), tb.BoolSym("c")

	bc, err := tb.BoolAnd(b, c)
	require.NoError(t, err)
	e, err := tb.BoolAnd(a, bc, a)
	require.NoError(t, err)
	assert.Equal(t, []TermID{a, b, c}, tb.Children(e))
}

func TestSortErrors(t *testing.T) {
	tb := NewTermBuilder()
	x := tb.ListLoc("x")
	y := tb.TreeLoc("y")

	_, err := tb.Add(tb.BVS("a", 32), tb.BVS("b", 8))
	assert.Error(t, err)

	_, err = tb.Eq(x, y)
	assert.Error(t, err)

	_, err = tb.Eq(x, tb.Null())
	assert.NoError(t, err)

	_, err = tb.PtoList(y, tb.Null())
	assert.Error(t, err)

	_, err = tb.PtoListData(x, tb.Null(), tb.BoolSym("a"))
	assert.Error(t, err)

	_, err = tb.DPred("foo", tb.BoolVal(true))
	assert.Error(t, err)

	_, err = tb.Eq(x, tb.Loc("l"))
	assert.Error(t, err)

	_, err = tb.DeclareFun("f", []Sort{LocSort()}, LocSort())
	require.NoError(t, err)
	_, err = tb.DeclareFun("f", []Sort{LocSort()}, BoolSort())
	assert.Error(t, err)
}

func TestSepFlatten(t *testing.T) {
	tb := NewTermBuilder()
	x, y := tb.ListLoc("x"), tb.ListLoc("y")

	p, err := tb.PtoList(x, y)
	require.NoError(t, err)
	q, err := tb.PtoList(y, tb.Null())
	require.NoError(t, err)

	e, err := tb.Sep(tb.Emp(), p)
	require.NoError(t, err)
	assert.Equal(t, p, e)

	e, err = tb.Sep()
	require.NoError(t, err)
	assert.Equal(t, tb.Emp(), e)

	pq, _ := tb.Sep(p, q)
	e, err = tb.Sep(pq, tb.Emp(), p)
	require.NoError(t, err)
	assert.Equal(t, []TermID{p, q, p}, tb.Children(e))
}

func TestString(t *testing.T) {
	tb := NewTermBuilder()
	x := tb.ListLoc("x")
	s1 := tb.BVS("s1", 32)
	s2 := tb.BVS("s2", 32)

	p, _ := tb.PtoList(x, tb.Null())
	assert.Equal(t, "(pton x null)", tb.String(p))

	e, _ := tb.Add(s1, s2)
	assert.Equal(t, "(bvadd s1 s2)", tb.String(e))

	ex, _ := tb.Extract(s1, 7, 0)
	assert.Equal(t, "((_ extract 7 0) s1)", tb.String(ex))

	body, _ := tb.Ult(tb.Var(0, BVSort(32)), tb.BVV(10, 32))
	dp, _ := tb.DPred(DPRED_UNARY, body)
	call, _ := tb.ListCall(x, tb.Null(), dp)
	assert.Equal(t, "(list x null (unary (bvult ?0 (_ bv10 32))))", tb.String(call))
}

func TestSubstitute(t *testing.T) {
	tb := NewTermBuilder()
	x, y := tb.ListLoc("x"), tb.ListLoc("y")

	e, err := tb.Eq(x, y)
	require.NoError(t, err)
	r, err := tb.Substitute(e, map[TermID]TermID{y: x})
	require.NoError(t, err)
	assert.True(t, tb.IsTrue(r))

	a, b := tb.BVS("a", 16), tb.BVS("b", 16)
	sum, err := tb.Add(a, b)
	require.NoError(t, err)
	r, err = tb.Substitute(sum, map[TermID]TermID{a: tb.BVV(1, 16), b: tb.BVV(2, 16)})
	require.NoError(t, err)
	assert.Equal(t, tb.BVV(3, 16), r)

	// relocating a list equality into the encoded sort
	r, err = tb.Substitute(e, map[TermID]TermID{x: tb.Loc("x"), y: tb.Loc("y")})
	require.NoError(t, err)
	assert.Equal(t, LocSort(), tb.Sort(tb.Child(r, 0)))
}

func TestSymbols(t *testing.T) {
	tb := NewTermBuilder()
	x, y := tb.ListLoc("x"), tb.ListLoc("y")
	a := tb.BoolSym("a")

	eq, _ := tb.Eq(x, y)
	e, _ := tb.BoolAnd(eq, a, eq)
	assert.ElementsMatch(t, []TermID{x, y, a}, tb.Symbols(e))
}
