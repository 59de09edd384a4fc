package gosl

const (
	RESULT_ERROR   = 0
	RESULT_SAT     = 1
	RESULT_UNSAT   = 2
	RESULT_UNKNOWN = 3
)

func ResultString(r int) string {
	switch r {
	case RESULT_SAT:
		return "sat"
	case RESULT_UNSAT:
		return "unsat"
	case RESULT_UNKNOWN:
		return "unknown"
	}
	return "error"
}

// Decision is the answer of an oracle. Model is set on sat answers when the
// oracle can produce one.
type Decision struct {
	Result int
	Model  *Assignment
}

// Oracle is a decision procedure for reduced formulas. Decide blocks until
// an answer is found; any resource it allocates is released on return.
type Oracle interface {
	Decide(f *Formula) (Decision, error)
}

// OracleChain asks each oracle in turn and returns the first sat or unsat
// answer.
type OracleChain []Oracle

func (c OracleChain) Decide(f *Formula) (Decision, error) {
	for _, o := range c {
		d, err := o.Decide(f)
		if err != nil {
			return Decision{Result: RESULT_ERROR}, err
		}
		if d.Result == RESULT_SAT || d.Result == RESULT_UNSAT {
			return d, nil
		}
	}
	return Decision{Result: RESULT_UNKNOWN}, nil
}
