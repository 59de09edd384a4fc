package gosl

import "fmt"

type FragmentClass int

const (
	InFragment FragmentClass = iota
	OutOfFragment
)

func (c FragmentClass) String() string {
	if c == InFragment {
		return "in-fragment"
	}
	return "out-of-fragment"
}

// Classification is the verdict of Classify. Term and Reason point at the
// first offending subterm of an OutOfFragment formula.
type Classification struct {
	Class  FragmentClass
	Term   TermID
	Reason string
}

func outOfFragment(t TermID, format string, args ...interface{}) Classification {
	return Classification{Class: OutOfFragment, Term: t, Reason: fmt.Sprintf(format, args...)}
}

// Classify tells whether f belongs to the SL* fragment the reducer accepts.
// It never panics: every term kind is handled.
func Classify(f *Formula) Classification {
	tb := f.Builder()

	type item struct {
		id     TermID
		inBody bool
	}
	visited := make(map[item]bool)
	queue := make([]item, 0, f.Size())
	for _, c := range f.conjuncts {
		if !tb.Sort(c).IsBool() {
			return outOfFragment(c, "conjunct of sort %s", tb.Sort(c))
		}
		queue = append(queue, item{id: c})
	}

	for len(queue) > 0 {
		el := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if visited[el] {
			continue
		}
		visited[el] = true

		id := el.id
		push := func(children ...TermID) {
			for _, c := range children {
				queue = append(queue, item{id: c, inBody: el.inBody})
			}
		}

		switch tb.Kind(id) {
		case TY_VAR:
			if !el.inBody {
				return outOfFragment(id, "free variable")
			}
			if tb.VarIndex(id) > 1 {
				return outOfFragment(id, "data predicates bind two variables only")
			}
		case TY_APP:
			return outOfFragment(id, "uninterpreted function %s", tb.Decl(id).Name)
		case TY_LOC_SYM:
			if tb.Sort(id).IsLoc() {
				return outOfFragment(id, "location %s is already encoded", tb.Name(id))
			}
		case TY_DPRED:
			return outOfFragment(id, "data predicate outside of a call")
		case TY_EMP, TY_SEP, TY_PTO_LIST, TY_PTO_TREE:
			if el.inBody {
				return outOfFragment(id, "spatial formula inside a data predicate")
			}
			push(tb.Children(id)...)
		case TY_CALL_LIST:
			if el.inBody {
				return outOfFragment(id, "spatial formula inside a data predicate")
			}
			args := tb.Children(id)
			push(args[:2]...)
			for _, a := range args[2:] {
				if tb.Kind(a) != TY_DPRED {
					return outOfFragment(a, "list call argument is not a data predicate")
				}
				if n := tb.Name(a); n != DPRED_UNARY && n != DPRED_NEXT {
					return outOfFragment(a, "data predicate %s on a list", n)
				}
				queue = append(queue, item{id: tb.Child(a, 0), inBody: true})
			}
		case TY_CALL_TREE:
			if el.inBody {
				return outOfFragment(id, "spatial formula inside a data predicate")
			}
			args := tb.Children(id)
			push(args[0])
			stops := false
			for _, a := range args[1:] {
				if tb.Kind(a) != TY_DPRED {
					stops = true
					push(a)
					continue
				}
				if stops {
					return outOfFragment(a, "data predicate after a stop location")
				}
				if tb.Name(a) == DPRED_NEXT {
					return outOfFragment(a, "data predicate next on a tree")
				}
				queue = append(queue, item{id: tb.Child(a, 0), inBody: true})
			}
		case TY_SYM, TY_CONST, TY_BOOL_CONST, TY_BOOL_SYM, TY_NULL:
		case TY_EXTRACT, TY_CONCAT, TY_ZEXT, TY_ITE, TY_NOT, TY_NEG, TY_AND, TY_OR, TY_XOR, TY_ADD, TY_MUL,
			TY_ULT, TY_ULE, TY_UGT, TY_UGE, TY_SLT, TY_SLE, TY_SGT, TY_SGE, TY_EQ,
			TY_BOOL_NOT, TY_BOOL_AND, TY_BOOL_OR, TY_BOOL_IFF:
			push(tb.Children(id)...)
		default:
			return outOfFragment(id, "unknown term kind %d", tb.Kind(id))
		}
	}
	return Classification{Class: InFragment}
}

// IsSLStar is the probe built on Classify.
func IsSLStar(f *Formula) bool {
	return Classify(f).Class == InFragment
}
