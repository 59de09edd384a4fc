package gosl

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Reducer turns SL* formulas into equisatisfiable formulas over the
// uninterpreted location sort.
//
// The formula is first encoded at LEVEL_UF, where predicate calls are
// abstracted, and handed to the oracle: an unsat answer there is final.
// Otherwise the FULL encoding is the result.
type Reducer struct {
	tb      *TermBuilder
	session *Session
	oracle  Oracle
	params  Params
	log     logrus.FieldLogger

	encoder *Encoder
	bound   StructuralBound
}

type Option func(*Reducer)

func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Reducer) {
		r.log = l.WithField("tactic", "slstar_reduce")
	}
}

func WithParams(p Params) Option {
	return func(r *Reducer) {
		r.params = p
	}
}

func NewReducer(tb *TermBuilder, session *Session, oracle Oracle, opts ...Option) *Reducer {
	r := &Reducer{
		tb:      tb,
		session: session,
		oracle:  oracle,
		params:  DefaultParams(),
		log:     logrus.StandardLogger().WithField("tactic", "slstar_reduce"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reducer) Session() *Session {
	return r.session
}

// Bound returns the bound computed by the last reduction.
func (r *Reducer) Bound() StructuralBound {
	return r.bound
}

func (r *Reducer) UpdateParams(p Params) {
	r.params = p
}

func (r *Reducer) ForwardedParams() ForwardedParams {
	return ForwardedParams{ArithLHS: r.params.ArithLHS, ElimAnd: r.params.ElimAnd}
}

// Clone returns a reducer with the same configuration and a fresh, empty
// session.
func (r *Reducer) Clone() *Reducer {
	return &Reducer{
		tb:      r.tb,
		session: NewSession(r.tb),
		oracle:  r.oracle,
		params:  r.params,
		log:     r.log,
	}
}

// Cleanup drops the state of the last reduction. The session is kept.
func (r *Reducer) Cleanup() {
	if r.encoder != nil {
		r.encoder.ClearDictionary()
	}
	r.encoder = nil
	r.bound = StructuralBound{}
}

// Reduce returns the reduced formula and, when f requests models, the
// converter mapping models of the result back to heaps. When the UF pass is
// refuted the result is a single decided-unsat formula and no converter.
//
// Errors raised while encoding or by the oracle are returned as a
// *TranslationError. Equality bins are left in place on error.
func (r *Reducer) Reduce(f *Formula) ([]*Formula, *ModelConverter, error) {
	r.log.WithField("formula", f.String()).Debug("before reduction")

	if f.Inconsistent {
		return []*Formula{f}, nil, nil
	}
	if !f.IsWellSorted() {
		violation("ill-sorted input formula")
	}
	if c := Classify(f); c.Class == OutOfFragment {
		return nil, nil, newTranslationError(encodingErrorf(c.Term, "%s", c.Reason))
	}

	r.bound = ComputeBound(f)
	r.log.WithFields(logrus.Fields{
		"nList":         r.bound.NList,
		"nTree":         r.bound.NTree,
		"containsCalls": r.bound.ContainsCalls,
		"direct":        r.bound.Direct,
	}).Debug("structural bound")

	r.encoder = NewEncoder(r.tb, r.params.DataWidth)
	defer r.encoder.ClearDictionary()

	levels := []EncodingLevel{LEVEL_UF, LEVEL_FULL}
	if r.params.SkipUF {
		levels = levels[1:]
	}

	var result *Formula
	for _, level := range levels {
		r.encoder.Prepare(r.bound, level)
		g, err := r.translate(f)
		if err != nil {
			return nil, nil, newTranslationError(err)
		}
		r.log.WithFields(logrus.Fields{
			"level": level.String(),
			"size":  g.Size(),
		}).Debug("translated")

		if level == LEVEL_FULL {
			result = g
			break
		}

		d, err := r.oracle.Decide(g)
		if err != nil {
			return nil, nil, newTranslationError(errors.Wrap(err, "oracle failed"))
		}
		if d.Result == RESULT_ERROR {
			return nil, nil, newTranslationError(errors.New("oracle failed"))
		}
		if d.Result == RESULT_UNSAT {
			r.log.WithField("level", level.String()).Info("refuted before the precise encoding")
			r.session.Registry.Release()

			res := f.Copy(false)
			res.Assert(r.tb.BoolVal(false))
			res.DecidedUnsat = true
			res.Depth = f.Depth + 1
			return []*Formula{res}, nil, nil
		}
	}

	r.session.Registry.Release()
	r.log.WithField("formula", result.String()).Debug("after reduction")

	var mc *ModelConverter
	if f.ModelsEnabled {
		mc = newModelConverter(r.encoder, f)
	}
	return []*Formula{result}, mc, nil
}

// translate encodes every conjunct of f with the current encoder, then
// asserts the equality bins and, when f has predicate calls, the global
// constraints.
func (r *Reducer) translate(f *Formula) (*Formula, error) {
	g := f.Copy(false)
	for _, c := range f.conjuncts {
		t, err := r.encoder.EncodeTop(c)
		if err != nil {
			return nil, err
		}
		g.Assert(t)
	}

	for _, bin := range r.session.Registry.Bins() {
		if bin.Size() < 2 {
			continue
		}
		members := make([]TermID, 0, bin.Size())
		for _, m := range bin.members {
			em, err := r.encodeMember(m)
			if err != nil {
				return nil, err
			}
			members = append(members, em)
		}
		eqs := make([]TermID, 0, len(members))
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				eq, err := r.tb.Eq(members[i], members[j])
				if err != nil {
					return nil, encodingErrorf(bin.members[i], "%s", err)
				}
				eqs = append(eqs, eq)
			}
		}
		g.Assert(must(r.tb.BoolAnd(eqs...)))
	}

	if r.bound.ContainsCalls {
		g.Assert(r.encoder.GlobalConstraints())
	}
	g.Depth = f.Depth + 1
	return g, nil
}

func (r *Reducer) encodeMember(m TermID) (TermID, error) {
	if r.tb.Sort(m).IsLocation() {
		return r.encoder.EncodeLocation(m)
	}
	return r.encoder.encodePure(m, false)
}
