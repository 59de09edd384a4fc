package gosl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsFromMap(t *testing.T) {
	p, err := ParamsFromMap(map[string]interface{}{
		"data_width": "8",
		"skip_uf":    "true",
		"elim_and":   0,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(8), p.DataWidth)
	assert.True(t, p.SkipUF)
	assert.False(t, p.ElimAnd)
	assert.True(t, p.ArithLHS)

	p, err = ParamsFromMap(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultParams(), p)
}

func TestParamsFromMapErrors(t *testing.T) {
	_, err := ParamsFromMap(map[string]interface{}{"bound": 3})
	assert.Error(t, err)

	_, err = ParamsFromMap(map[string]interface{}{"data_width": 0})
	assert.Error(t, err)

	_, err = ParamsFromMap(map[string]interface{}{"data_width": "wide"})
	assert.Error(t, err)
}

func TestForwardedParams(t *testing.T) {
	tb := NewTermBuilder()
	p := DefaultParams()
	p.ElimAnd = false

	r := NewReducer(tb, NewSession(tb), nil, WithParams(p))
	assert.Equal(t, ForwardedParams{ArithLHS: true, ElimAnd: false}, r.ForwardedParams())

	p.ArithLHS = false
	r.UpdateParams(p)
	assert.False(t, r.ForwardedParams().ArithLHS)
}
