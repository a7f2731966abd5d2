package postgres

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var errFakeRow = errors.New("row decode failed")

// events records the driver calls a test cares about, in order.
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.log = append(e.log, s)
}

func (e *events) list() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, len(e.log))
	copy(out, e.log)

	return out
}

type fakeRows struct {
	ctx     context.Context
	columns []string
	data    [][]any
	pos     int
	err     error
	delay   time.Duration
	failAt  int
	closed  bool
	events  *events
}

func newFakeRows(ev *events, columns []string, data ...[]any) *fakeRows {
	return &fakeRows{columns: columns, data: data, pos: -1, failAt: -1, events: ev}
}

func (r *fakeRows) Close() {
	if r.closed {
		return
	}

	r.closed = true

	if r.events != nil {
		r.events.add("rows.close")
	}
}

func (r *fakeRows) Err() error { return r.err }

func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.NewCommandTag("SELECT 0") }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	out := make([]pgconn.FieldDescription, len(r.columns))
	for i, c := range r.columns {
		out[i] = pgconn.FieldDescription{Name: c}
	}

	return out
}

func (r *fakeRows) Next() bool {
	if r.closed || r.err != nil {
		return false
	}

	if r.delay > 0 && r.pos >= 0 {
		select {
		case <-time.After(r.delay):
		case <-r.ctx.Done():
		}
	}

	if r.ctx != nil && r.ctx.Err() != nil {
		r.err = r.ctx.Err()
		return false
	}

	r.pos++

	if r.pos == r.failAt {
		r.err = errFakeRow
		return false
	}

	if r.pos >= len(r.data) {
		r.Close()
		return false
	}

	return true
}

func (*fakeRows) Scan(...any) error { return nil }

func (r *fakeRows) Values() ([]any, error) {
	out := make([]any, len(r.data[r.pos]))
	copy(out, r.data[r.pos])

	return out, nil
}

func (*fakeRows) RawValues() [][]byte { return nil }

func (*fakeRows) Conn() *pgx.Conn { return nil }

// fakeTx embeds pgx.Tx so only the methods the adapter calls need bodies.
type fakeTx struct {
	pgx.Tx

	events *events
	query  func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	exec   func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	commitErr error
}

func newFakeTx(ev *events) *fakeTx {
	return &fakeTx{events: ev}
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	t.events.add("query: " + sql)

	return t.query(ctx, sql, args...)
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.events.add("exec: " + sql)

	if t.exec == nil {
		return pgconn.NewCommandTag(""), nil
	}

	return t.exec(ctx, sql, args...)
}

func (t *fakeTx) Commit(context.Context) error {
	t.events.add("commit")

	return t.commitErr
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if ctx.Err() != nil {
		t.events.add("rollback on done context")
		return ctx.Err()
	}

	t.events.add("rollback")

	return nil
}
