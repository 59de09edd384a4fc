package gosl

import "fmt"

type SortKind uint8

const (
	SORT_BOOL SortKind = iota + 1
	SORT_BV
	SORT_LIST_LOC
	SORT_TREE_LOC
	SORT_NULL
	SORT_DPRED
	SORT_LOC
)

// Sort is the declared sort of a term. Width is only meaningful for SORT_BV.
type Sort struct {
	Kind  SortKind
	Width uint
}

func BoolSort() Sort     { return Sort{Kind: SORT_BOOL} }
func BVSort(w uint) Sort { return Sort{Kind: SORT_BV, Width: w} }
func ListLocSort() Sort  { return Sort{Kind: SORT_LIST_LOC} }
func TreeLocSort() Sort  { return Sort{Kind: SORT_TREE_LOC} }
func NullSort() Sort     { return Sort{Kind: SORT_NULL} }
func DataPredSort() Sort { return Sort{Kind: SORT_DPRED} }

// LocSort is the uninterpreted location sort of the reduced problem.
func LocSort() Sort { return Sort{Kind: SORT_LOC} }

func (s Sort) IsBool() bool     { return s.Kind == SORT_BOOL }
func (s Sort) IsBV() bool       { return s.Kind == SORT_BV }
func (s Sort) IsListLoc() bool  { return s.Kind == SORT_LIST_LOC }
func (s Sort) IsTreeLoc() bool  { return s.Kind == SORT_TREE_LOC }
func (s Sort) IsNull() bool     { return s.Kind == SORT_NULL }
func (s Sort) IsDataPred() bool { return s.Kind == SORT_DPRED }
func (s Sort) IsLoc() bool      { return s.Kind == SORT_LOC }

// IsLocation reports whether s is one of the heap location sorts of the input
// language (including the sort of null) or the encoded location sort.
func (s Sort) IsLocation() bool {
	switch s.Kind {
	case SORT_LIST_LOC, SORT_TREE_LOC, SORT_NULL, SORT_LOC:
		return true
	}
	return false
}

// compatibleLocations tells whether two location sorts may be compared or
// joined. null is compatible with both input location sorts.
func compatibleLocations(a, b Sort) bool {
	if !a.IsLocation() || !b.IsLocation() {
		return false
	}
	if a == b {
		return true
	}
	if a.IsLoc() || b.IsLoc() {
		return false
	}
	return a.IsNull() || b.IsNull()
}

// joinLocations returns the most specific sort of two compatible location sorts.
func joinLocations(a, b Sort) Sort {
	if a.IsNull() {
		return b
	}
	return a
}

func (s Sort) String() string {
	switch s.Kind {
	case SORT_BOOL:
		return "Bool"
	case SORT_BV:
		return fmt.Sprintf("(_ BitVec %d)", s.Width)
	case SORT_LIST_LOC:
		return "ListLoc"
	case SORT_TREE_LOC:
		return "TreeLoc"
	case SORT_NULL:
		return "Null"
	case SORT_DPRED:
		return "DPred"
	case SORT_LOC:
		return "Loc"
	}
	return "<invalid sort>"
}
