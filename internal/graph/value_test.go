package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceScalarWidths(t *testing.T) {
	cases := []struct {
		raw  interface{}
		want float64
	}{
		{float64(1.5), 1.5},
		{float32(2.5), 2.5},
		{int32(-7), -7},
		{int64(9), 9},
		{uint16(3), 3},
		{uint8(255), 255},
		{int(42), 42},
	}
	for _, tc := range cases {
		v, err := Coerce(tc.raw)
		require.NoError(t, err)
		assert.Equal(t, KindScalar, v.Kind())
		assert.Equal(t, tc.want, v.Scalar())
	}
}

func TestCoerceNumericSlices(t *testing.T) {
	for _, raw := range []interface{}{
		[]float64{1, 2, 3},
		[]float32{1, 2, 3},
		[]int32{1, 2, 3},
		[]uint16{1, 2, 3},
		[]interface{}{int32(1), float64(2), uint8(3)},
	} {
		v, err := Coerce(raw)
		require.NoError(t, err)
		assert.Equal(t, KindArray, v.Kind())
		assert.Equal(t, []float64{1, 2, 3}, v.Array())
	}
}

func TestCoerceRejectsNonNumeric(t *testing.T) {
	for _, raw := range []interface{}{
		nil,
		"hello",
		true,
		[]string{"a"},
		[]interface{}{int32(1), "b"},
		struct{}{},
	} {
		_, err := Coerce(raw)
		assert.Error(t, err, "raw %T", raw)
	}
}

func TestCoerceCopiesArrayData(t *testing.T) {
	in := []float64{1, 2}
	v, err := Coerce(in)
	require.NoError(t, err)
	in[0] = 99
	assert.Equal(t, []float64{1, 2}, v.Array())
}
