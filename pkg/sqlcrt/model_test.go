package sqlcrt

import (
	"context"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn answers every query with the same rows. Only the row returning
// operations are meaningful.
type fakeConn struct {
	rows    []Row
	err     error
	queries []string
	ctxs    []context.Context
}

func (f *fakeConn) first() *Row {
	if len(f.rows) == 0 {
		return nil
	}

	r := f.rows[0]

	return &r
}

func (f *fakeConn) seq() iter.Seq2[Row, error] {
	return Once(func(yield func(Row, error) bool) {
		if f.err != nil {
			yield(Row{}, f.err)
			return
		}

		for _, r := range f.rows {
			if !yield(r, nil) {
				return
			}
		}
	})
}

func (f *fakeConn) Execute(string, ...any) (Cursor, error) { return nil, nil }
func (f *fakeConn) ExecuteNone(string, ...any) error       { return f.err }
func (f *fakeConn) ExecuteRowcount(string, ...any) (int64, error) {
	return int64(len(f.rows)), f.err
}

func (f *fakeConn) ExecuteOne(q string, p ...any) (any, error) {
	row, err := f.ExecuteOneRow(q, p...)
	if err != nil {
		return nil, err
	}

	return FirstColumn(row)
}

func (f *fakeConn) ExecuteOneRow(q string, _ ...any) (*Row, error) {
	f.queries = append(f.queries, q)

	if f.err != nil {
		return nil, f.err
	}

	return f.first(), nil
}

func (f *fakeConn) ExecuteMany(q string, _ ...any) iter.Seq2[any, error] {
	f.queries = append(f.queries, q)

	return Scalars(f.seq())
}

func (f *fakeConn) ExecuteManyRows(q string, _ ...any) iter.Seq2[Row, error] {
	f.queries = append(f.queries, q)

	return f.seq()
}

// fakeAsyncConn adapts fakeConn to AsyncConnection and records contexts.
type fakeAsyncConn struct {
	*fakeConn
}

func (f fakeAsyncConn) Execute(context.Context, string, ...any) (AsyncCursor, error) { return nil, nil }
func (f fakeAsyncConn) ExecuteNone(_ context.Context, q string, p ...any) error {
	return f.fakeConn.ExecuteNone(q, p...)
}

func (f fakeAsyncConn) ExecuteRowcount(_ context.Context, q string, p ...any) (int64, error) {
	return f.fakeConn.ExecuteRowcount(q, p...)
}

func (f fakeAsyncConn) ExecuteOne(ctx context.Context, q string, p ...any) (any, error) {
	f.ctxs = append(f.ctxs, ctx)
	return f.fakeConn.ExecuteOne(q, p...)
}

func (f fakeAsyncConn) ExecuteOneRow(ctx context.Context, q string, p ...any) (*Row, error) {
	f.ctxs = append(f.ctxs, ctx)
	return f.fakeConn.ExecuteOneRow(q, p...)
}

func (f fakeAsyncConn) ExecuteMany(ctx context.Context, q string, p ...any) iter.Seq2[any, error] {
	f.ctxs = append(f.ctxs, ctx)
	return f.fakeConn.ExecuteMany(q, p...)
}

func (f fakeAsyncConn) ExecuteManyRows(ctx context.Context, q string, p ...any) iter.Seq2[Row, error] {
	f.ctxs = append(f.ctxs, ctx)
	return f.fakeConn.ExecuteManyRows(q, p...)
}

var (
	_ Connection      = (*fakeConn)(nil)
	_ AsyncConnection = fakeAsyncConn{}
)

func TestOneModel(t *testing.T) {
	c := &fakeConn{rows: idRows(5, 6)}

	it, err := OneModel[item](c, "SELECT id, name FROM items LIMIT 1")
	require.NoError(t, err)

	assert.Equal(t, &item{ID: 5, Name: "n"}, it)
	assert.Equal(t, []string{"SELECT id, name FROM items LIMIT 1"}, c.queries)
}

func TestOneModel_NoRow(t *testing.T) {
	it, err := OneModel[item](&fakeConn{}, "SELECT id, name FROM items WHERE false")
	require.NoError(t, err)
	assert.Nil(t, it)
}

func TestOneModel_NoColumns(t *testing.T) {
	_, err := OneModel[item](&fakeConn{rows: []Row{NewRow(nil, nil)}}, "SELECT")
	require.ErrorIs(t, err, ErrNoColumns)
}

func TestOneModel_QueryError(t *testing.T) {
	_, err := OneModel[item](&fakeConn{err: errTest}, "SELECT")
	require.ErrorIs(t, err, errTest)
}

func TestManyModel(t *testing.T) {
	c := &fakeConn{rows: idRows(1, 2, 3)}

	var ids []int64

	for it, err := range ManyModel[item](c, "SELECT id, name FROM items") {
		require.NoError(t, err)

		ids = append(ids, it.ID)
	}

	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestManyModel_Empty(t *testing.T) {
	count := 0

	for range ManyModel[item](&fakeConn{}, "SELECT id, name FROM items") {
		count++
	}

	assert.Zero(t, count)
}

type ctxKey struct{}

func TestModelContext(t *testing.T) {
	inner := &fakeConn{rows: idRows(9)}
	c := fakeAsyncConn{fakeConn: inner}
	ctx := context.WithValue(context.Background(), ctxKey{}, "v")

	it, err := OneModelContext[item](ctx, c, "SELECT id, name FROM items")
	require.NoError(t, err)
	assert.Equal(t, int64(9), it.ID)

	for it, err := range ManyModelContext[item](ctx, c, "SELECT id, name FROM items") {
		require.NoError(t, err)
		assert.Equal(t, "n", it.Name)
	}

	require.Len(t, inner.ctxs, 2)
	assert.Equal(t, "v", inner.ctxs[1].Value(ctxKey{}))
}

func TestOneModelContext_NoRow(t *testing.T) {
	it, err := OneModelContext[item](context.Background(), fakeAsyncConn{fakeConn: &fakeConn{}}, "SELECT")
	require.NoError(t, err)
	assert.Nil(t, it)
}
