package gosl

// must unwraps a constructor result whose arguments are known to be well
// sorted.
func must(t TermID, err error) TermID {
	if err != nil {
		violation("%s", err)
	}
	return t
}

// TreeLocationPool is the bounded set of locations one tree call may own,
// with the encoded root and stop locations of the call.
type TreeLocationPool struct {
	Locations []TermID
	Stops     []TermID
	Root      TermID
	Nil       TermID
}

// TreeAxiomBuilder produces the constraints that make the locations of a pool
// form a binary tree rooted at the pool root under the left/right functions.
//
// Fresh symbols (reachability levels, owned sets) are introduced together
// with a definitional axiom; Axioms returns them and they hold in every model
// once asserted, whatever the polarity of the call they belong to.
type TreeAxiomBuilder struct {
	tb          *TermBuilder
	left, right *FuncDecl
	pool        *TreeLocationPool

	reach  [][]TermID
	axioms []TermID
}

func NewTreeAxiomBuilder(tb *TermBuilder, left, right *FuncDecl, pool *TreeLocationPool) *TreeAxiomBuilder {
	return &TreeAxiomBuilder{
		tb:     tb,
		left:   left,
		right:  right,
		pool:   pool,
		reach:  make([][]TermID, 0),
		axioms: make([]TermID, 0),
	}
}

func (b *TreeAxiomBuilder) Axioms() []TermID {
	return append([]TermID{}, b.axioms...)
}

// ReachabilityDecls returns the symbols of every reachability level built so
// far, level 0 first.
func (b *TreeAxiomBuilder) ReachabilityDecls() [][]TermID {
	return b.reach
}

func (b *TreeAxiomBuilder) Left(p TermID) TermID {
	return must(b.tb.App(b.left, p))
}

func (b *TreeAxiomBuilder) Right(p TermID) TermID {
	return must(b.tb.App(b.right, p))
}

func (b *TreeAxiomBuilder) eq(x, y TermID) TermID {
	return must(b.tb.Eq(x, y))
}

func (b *TreeAxiomBuilder) and(args ...TermID) TermID {
	return must(b.tb.BoolAnd(args...))
}

func (b *TreeAxiomBuilder) or(args ...TermID) TermID {
	return must(b.tb.BoolOr(args...))
}

func (b *TreeAxiomBuilder) not(x TermID) TermID {
	return must(b.tb.BoolNot(x))
}

func (b *TreeAxiomBuilder) implies(x, y TermID) TermID {
	return must(b.tb.BoolImplies(x, y))
}

func (b *TreeAxiomBuilder) define(prefix string, def TermID) TermID {
	sym := b.tb.FreshBoolSym(prefix)
	b.axioms = append(b.axioms, must(b.tb.BoolIff(sym, def)))
	return sym
}

// IsStop holds when t is one of the stop locations.
func (b *TreeAxiomBuilder) IsStop(t TermID) TermID {
	args := make([]TermID, 0, len(b.pool.Stops))
	for _, s := range b.pool.Stops {
		args = append(args, b.eq(t, s))
	}
	return b.or(args...)
}

// IsLeafRoot holds when the tree is empty: its root is nil or a stop.
func (b *TreeAxiomBuilder) IsLeafRoot() TermID {
	return b.or(b.eq(b.pool.Root, b.pool.Nil), b.IsStop(b.pool.Root))
}

func (b *TreeAxiomBuilder) RootInPool() TermID {
	args := make([]TermID, 0, len(b.pool.Locations))
	for _, l := range b.pool.Locations {
		args = append(args, b.eq(b.pool.Root, l))
	}
	return b.or(args...)
}

// IsSuccessor holds when child is the left or right child of parent.
func (b *TreeAxiomBuilder) IsSuccessor(parent, child TermID) TermID {
	return b.or(b.eq(b.Left(parent), child), b.eq(b.Right(parent), child))
}

// AllSuccessorsDifferent forbids two child slots from pointing to the same
// non-nil location.
func (b *TreeAxiomBuilder) AllSuccessorsDifferent(x, y TermID) TermID {
	return b.or(b.not(b.eq(x, y)), b.eq(x, b.pool.Nil))
}

// Ordered builds the reachability levels of the pool and returns the owned
// set Z. Level 0 holds the root alone, level k adds the non-stop children of
// level k-1; Z is the last level. Each level only refers to the previous one.
func (b *TreeAxiomBuilder) Ordered() []TermID {
	locs := b.pool.Locations
	n := len(locs)
	if n == 0 {
		return []TermID{}
	}

	notLeaf := b.not(b.IsLeafRoot())
	level := make([]TermID, n)
	for i, l := range locs {
		level[i] = b.define("sl.reach0", b.and(notLeaf, b.eq(b.pool.Root, l)))
	}
	b.reach = append(b.reach, level)

	for k := 1; k < n; k++ {
		prev := b.reach[len(b.reach)-1]
		level := make([]TermID, n)
		for i, li := range locs {
			parents := make([]TermID, 0, n)
			for j, lj := range locs {
				parents = append(parents, b.and(prev[j], b.IsSuccessor(lj, li)))
			}
			def := b.or(prev[i], b.and(b.not(b.IsStop(li)), b.or(parents...)))
			level[i] = b.define("sl.reach", def)
		}
		b.reach = append(b.reach, level)
	}

	last := b.reach[len(b.reach)-1]
	z := make([]TermID, n)
	for i := range locs {
		z[i] = b.define("sl.z", last[i])
	}
	return z
}

// DefineY returns fresh footprint symbols of the call, equal to Z.
func (b *TreeAxiomBuilder) DefineY(z []TermID) []TermID {
	y := make([]TermID, len(z))
	for i := range z {
		y[i] = b.define("sl.y", z[i])
	}
	return y
}

// Closure requires both children of an owned location to be nil, a stop or
// owned themselves.
func (b *TreeAxiomBuilder) Closure(z []TermID) TermID {
	childOk := func(c TermID) TermID {
		args := []TermID{b.eq(c, b.pool.Nil), b.IsStop(c)}
		for j, lj := range b.pool.Locations {
			args = append(args, b.and(b.eq(c, lj), z[j]))
		}
		return b.or(args...)
	}

	res := make([]TermID, 0, len(z))
	for i, li := range b.pool.Locations {
		res = append(res, b.implies(z[i], b.and(childOk(b.Left(li)), childOk(b.Right(li)))))
	}
	return b.and(res...)
}

// OneParent requires the root to have no parent and every other owned
// location to have exactly one parent edge among the owned locations.
func (b *TreeAxiomBuilder) OneParent(z []TermID) TermID {
	locs := b.pool.Locations
	res := make([]TermID, 0)
	for j, lj := range locs {
		res = append(res, b.implies(z[j], b.not(b.IsSuccessor(lj, b.pool.Root))))
	}

	for i, li := range locs {
		edges := make([]TermID, 0, 2*len(locs))
		for j, lj := range locs {
			edges = append(edges,
				b.and(z[j], b.eq(b.Left(lj), li)),
				b.and(z[j], b.eq(b.Right(lj), li)))
		}

		atLeast := b.or(edges...)
		atMost := make([]TermID, 0)
		for p := 0; p < len(edges); p++ {
			for q := p + 1; q < len(edges); q++ {
				atMost = append(atMost, b.not(b.and(edges[p], edges[q])))
			}
		}
		isRoot := b.eq(li, b.pool.Root)
		res = append(res, b.implies(b.and(z[i], b.not(isRoot)), b.and(atLeast, b.and(atMost...))))
	}
	return b.and(res...)
}

// SuccessorsDifferent applies AllSuccessorsDifferent to every pair of child
// slots of owned locations.
func (b *TreeAxiomBuilder) SuccessorsDifferent(z []TermID) TermID {
	type slot struct {
		owner TermID
		child TermID
	}
	slots := make([]slot, 0, 2*len(z))
	for i, li := range b.pool.Locations {
		slots = append(slots, slot{z[i], b.Left(li)}, slot{z[i], b.Right(li)})
	}

	res := make([]TermID, 0)
	for p := 0; p < len(slots); p++ {
		for q := p + 1; q < len(slots); q++ {
			owned := b.and(slots[p].owner, slots[q].owner)
			res = append(res, b.implies(owned, b.AllSuccessorsDifferent(slots[p].child, slots[q].child)))
		}
	}
	return b.and(res...)
}

// StopLeaves forbids stop locations from being owned; their children are
// never part of the tree.
func (b *TreeAxiomBuilder) StopLeaves(z []TermID) TermID {
	res := make([]TermID, 0, len(z))
	for i, li := range b.pool.Locations {
		res = append(res, b.implies(z[i], b.not(b.IsStop(li))))
	}
	return b.and(res...)
}
