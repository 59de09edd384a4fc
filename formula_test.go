package gosl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormulaAssert(t *testing.T) {
	tb := NewTermBuilder()
	a, b := tb.BoolSym("a"), tb.BoolSym("b")

	f := NewFormula(tb)
	f.Assert(tb.BoolVal(true))
	f.Assert(a)
	f.Assert(b)
	f.Assert(a)
	assert.Equal(t, 2, f.Size())
	assert.Equal(t, []TermID{a, b}, f.Conjuncts())
	assert.False(t, f.Inconsistent)
	assert.True(t, f.IsWellSorted())

	f.Assert(tb.BoolVal(false))
	assert.True(t, f.Inconsistent)
	assert.Equal(t, "(goal\n  a\n  b\n  false\n  :inconsistent)", f.String())
}

func TestFormulaCopy(t *testing.T) {
	tb := NewTermBuilder()
	a := tb.BoolSym("a")

	f := NewFormula(tb)
	f.ModelsEnabled = true
	f.Depth = 3
	f.DecidedSat = true
	f.Assert(a)

	g := f.Copy(false)
	assert.Equal(t, 0, g.Size())
	assert.True(t, g.ModelsEnabled)
	assert.Equal(t, uint(3), g.Depth)
	assert.False(t, g.DecidedSat)

	g = f.Copy(true)
	assert.Equal(t, []TermID{a}, g.Conjuncts())
	assert.True(t, g.DecidedSat)
}

func TestFormulaAsTerm(t *testing.T) {
	tb := NewTermBuilder()
	a, b := tb.BoolSym("a"), tb.BoolSym("b")

	f := NewFormula(tb)
	assert.True(t, tb.IsTrue(f.AsTerm()))

	f.Assert(a)
	assert.Equal(t, a, f.AsTerm())

	f.Assert(b)
	assert.Equal(t, "(and a b)", tb.String(f.AsTerm()))
}

func TestFormulaIllSorted(t *testing.T) {
	tb := NewTermBuilder()
	f := NewFormula(tb)
	f.Assert(tb.BVS("x", 8))
	assert.False(t, f.IsWellSorted())
}
