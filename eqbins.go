package gosl

import (
	"github.com/pkg/errors"
)

// EqualityBin is a set of terms known to be equal. The registry holds one
// reference on every member.
type EqualityBin struct {
	members []TermID
	present map[TermID]bool
}

func newEqualityBin() *EqualityBin {
	return &EqualityBin{
		members: make([]TermID, 0),
		present: map[TermID]bool{},
	}
}

func (b *EqualityBin) Size() int {
	return len(b.members)
}

func (b *EqualityBin) Members() []TermID {
	return append([]TermID{}, b.members...)
}

func (b *EqualityBin) Contains(e TermID) bool {
	return b.present[e]
}

// EqualityBinRegistry maps terms to the bin of terms they are known equal
// to. Several keys may reach the same bin.
type EqualityBinRegistry struct {
	tb   *TermBuilder
	bins map[TermID]*EqualityBin
	keys []TermID
}

func NewEqualityBinRegistry(tb *TermBuilder) *EqualityBinRegistry {
	return &EqualityBinRegistry{
		tb:   tb,
		bins: map[TermID]*EqualityBin{},
		keys: make([]TermID, 0),
	}
}

func (r *EqualityBinRegistry) Len() int {
	return len(r.keys)
}

func (r *EqualityBinRegistry) Lookup(key TermID) (*EqualityBin, bool) {
	b, ok := r.bins[key]
	return b, ok
}

// Add extends the bin of key with members, creating it when needed. A
// reference is taken on every member new to the bin.
func (r *EqualityBinRegistry) Add(key TermID, members ...TermID) *EqualityBin {
	b, ok := r.bins[key]
	if !ok {
		b = newEqualityBin()
		r.bins[key] = b
		r.keys = append(r.keys, key)
	}
	for _, m := range members {
		if b.present[m] {
			continue
		}
		r.tb.IncRef(m)
		b.present[m] = true
		b.members = append(b.members, m)
	}
	return b
}

// Alias makes key reach the bin of other.
func (r *EqualityBinRegistry) Alias(key, other TermID) error {
	b, ok := r.bins[other]
	if !ok {
		return errors.Errorf("no equality bin for %s", r.tb.String(other))
	}
	if cur, ok := r.bins[key]; ok {
		if cur == b {
			return nil
		}
		return errors.Errorf("%s already has an equality bin", r.tb.String(key))
	}
	r.bins[key] = b
	r.keys = append(r.keys, key)
	return nil
}

// Union merges the bin of b into the bin of a; every key reaching either of
// them reaches the merged bin afterwards.
func (r *EqualityBinRegistry) Union(a, b TermID) error {
	ba, ok := r.bins[a]
	if !ok {
		return errors.Errorf("no equality bin for %s", r.tb.String(a))
	}
	bb, ok := r.bins[b]
	if !ok {
		return errors.Errorf("no equality bin for %s", r.tb.String(b))
	}
	if ba == bb {
		return nil
	}

	for _, m := range bb.members {
		if ba.present[m] {
			// both bins held a reference, keep one
			r.tb.DecRef(m)
			continue
		}
		ba.present[m] = true
		ba.members = append(ba.members, m)
	}
	for k, v := range r.bins {
		if v == bb {
			r.bins[k] = ba
		}
	}
	return nil
}

// Bins returns every distinct bin once, in the order of the first key that
// reaches it.
func (r *EqualityBinRegistry) Bins() []*EqualityBin {
	seen := make(map[*EqualityBin]bool)
	res := make([]*EqualityBin, 0)
	for _, k := range r.keys {
		b := r.bins[k]
		if seen[b] {
			continue
		}
		seen[b] = true
		res = append(res, b)
	}
	return res
}

// Release drops the reference held on every member, once per distinct bin,
// and empties the registry.
func (r *EqualityBinRegistry) Release() {
	for _, b := range r.Bins() {
		for _, m := range b.members {
			r.tb.DecRef(m)
		}
	}
	r.bins = map[TermID]*EqualityBin{}
	r.keys = make([]TermID, 0)
}
