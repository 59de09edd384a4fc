package gosl

import (
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Params configures a Reducer. ArithLHS and ElimAnd are simplification hints
// for the surrounding pipeline; the reduction forwards them untouched.
type Params struct {
	ArithLHS  bool `mapstructure:"arith_lhs"`
	ElimAnd   bool `mapstructure:"elim_and"`
	DataWidth uint `mapstructure:"data_width"`
	// SkipUF disables the UF pre-check.
	SkipUF bool `mapstructure:"skip_uf"`
}

func DefaultParams() Params {
	return Params{
		ArithLHS:  true,
		ElimAnd:   true,
		DataWidth: 32,
	}
}

// ParamsFromMap decodes a loose parameter map on top of the defaults.
// Values are weakly typed ("true", 1, ...); unknown keys are an error.
func ParamsFromMap(m map[string]interface{}) (Params, error) {
	p := DefaultParams()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:         nil,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &p,
	})
	if err != nil {
		return Params{}, err
	}
	if err := decoder.Decode(m); err != nil {
		return Params{}, errors.Wrap(err, "invalid reducer parameters")
	}
	if p.DataWidth == 0 {
		return Params{}, errors.New("invalid reducer parameters: data_width must be positive")
	}
	return p, nil
}

// ForwardedParams are the hints handed to the upstream simplifier.
type ForwardedParams struct {
	ArithLHS bool
	ElimAnd  bool
}
