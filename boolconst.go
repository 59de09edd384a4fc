package gosl

// BoolConst is a concrete truth value, the result of comparing two BVConst
// and the value of Boolean terms under an Assignment.
type BoolConst struct {
	Value bool
}

func (b BoolConst) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

func BoolTrue() BoolConst  { return BoolConst{true} }
func BoolFalse() BoolConst { return BoolConst{false} }

func (b BoolConst) Not() BoolConst            { return BoolConst{!b.Value} }
func (b BoolConst) And(o BoolConst) BoolConst { return BoolConst{b.Value && o.Value} }
func (b BoolConst) Or(o BoolConst) BoolConst  { return BoolConst{b.Value || o.Value} }
func (b BoolConst) Iff(o BoolConst) BoolConst { return BoolConst{b.Value == o.Value} }
