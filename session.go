package gosl

// Session is the state shared by the reductions of one pipeline run. The
// equality bins are filled by an upstream pass and drained by Reduce.
type Session struct {
	Registry *EqualityBinRegistry
}

func NewSession(tb *TermBuilder) *Session {
	return &Session{Registry: NewEqualityBinRegistry(tb)}
}
