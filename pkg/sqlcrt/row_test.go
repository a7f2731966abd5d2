package sqlcrt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRow_CopiesInput(t *testing.T) {
	cols := []string{"id", "name"}
	vals := []any{int64(1), "ann"}

	r := NewRow(cols, vals)

	cols[0] = "changed"
	vals[0] = "changed"

	assert.Equal(t, []string{"id", "name"}, r.Columns())
	assert.Equal(t, []any{int64(1), "ann"}, r.Values())

	r.Columns()[0] = "mutated"
	assert.Equal(t, "id", r.Columns()[0])
}

func TestNewRow_Truncates(t *testing.T) {
	r := NewRow([]string{"a", "b", "c"}, []any{1})

	assert.Equal(t, 1, r.Len())
	assert.Equal(t, []string{"a"}, r.Columns())
}

func TestRow_GetAndMap(t *testing.T) {
	r := NewRow([]string{"id", "name", "id"}, []any{int64(1), "ann", int64(2)})

	v, ok := r.Get("id")
	assert.True(t, ok)
	assert.Equal(t, int64(1), v)

	_, ok = r.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, map[string]any{"id": int64(1), "name": "ann"}, r.Map())
	assert.Equal(t, int64(2), r.Index(2))
}

func TestFirstColumn(t *testing.T) {
	v, err := FirstColumn(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	r := NewRow([]string{"n"}, []any{nil})
	v, err = FirstColumn(&r)
	require.NoError(t, err)
	assert.Nil(t, v)

	r = NewRow([]string{"a", "b"}, []any{"x", "y"})
	v, err = FirstColumn(&r)
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	empty := NewRow(nil, nil)
	_, err = FirstColumn(&empty)
	require.ErrorIs(t, err, ErrNoColumns)
}
