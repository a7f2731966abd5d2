package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sllt/sqlcrt/pkg/sqlcrt"
)

var _ sqlcrt.AsyncCursor = (*cursor)(nil)

// Execute declares a server-side cursor for query inside a new transaction.
// The transaction stays open until the cursor is closed, so the caller must
// Close it.
func (c *Conn) Execute(ctx context.Context, query string, params ...any) (sqlcrt.AsyncCursor, error) {
	const op = "Execute"

	opCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	tx, err := c.conn.Begin(opCtx)
	if err != nil {
		return nil, classify(opCtx, op, err)
	}

	cur := &cursor{conn: c, tx: tx, name: cursorName()}

	declare := fmt.Sprintf("DECLARE %s NO SCROLL CURSOR FOR %s", cur.name, query)

	if _, err := cur.exec(opCtx, op, declare, params...); err != nil {
		rollback(ctx, tx)
		return nil, err
	}

	return cur, nil
}

func cursorName() string {
	return "sqlcrt_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// cursor is a named portal on an open transaction. Once a command fails the
// transaction is aborted and Close rolls it back instead of committing.
type cursor struct {
	conn   *Conn
	tx     pgx.Tx
	name   string
	failed bool
	closed bool
}

// Fetch returns up to n rows. Values of n below 1 fetch one row.
func (c *cursor) Fetch(ctx context.Context, n int) ([]sqlcrt.Row, error) {
	if c.closed {
		return nil, sqlcrt.ErrCursorClosed
	}

	if n < 1 {
		n = 1
	}

	return c.fetch(ctx, "Fetch", fmt.Sprintf("FETCH FORWARD %d FROM %s", n, c.name))
}

func (c *cursor) FetchRow(ctx context.Context) (*sqlcrt.Row, error) {
	if c.closed {
		return nil, sqlcrt.ErrCursorClosed
	}

	rows, err := c.fetch(ctx, "FetchRow", "FETCH NEXT FROM "+c.name)
	if err != nil || len(rows) == 0 {
		return nil, err
	}

	return &rows[0], nil
}

// Forward skips up to n rows and returns how many the server moved past.
func (c *cursor) Forward(ctx context.Context, n int) (int64, error) {
	if c.closed {
		return 0, sqlcrt.ErrCursorClosed
	}

	if n < 0 {
		return 0, fmt.Errorf("cannot move cursor forward by %d rows", n)
	}

	ctx, cancel := c.conn.withTimeout(ctx)
	defer cancel()

	tag, err := c.exec(ctx, "Forward", fmt.Sprintf("MOVE FORWARD %d FROM %s", n, c.name))
	if err != nil {
		return 0, err
	}

	return sqlcrt.ParseRowCount(tag.String())
}

// Close releases the cursor and ends its transaction. Closing twice is a
// no-op.
func (c *cursor) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}

	c.closed = true

	if c.failed {
		rollback(ctx, c.tx)
		return nil
	}

	opCtx, cancel := c.conn.withTimeout(ctx)
	defer cancel()

	if _, err := c.exec(opCtx, "Close", "CLOSE "+c.name); err != nil {
		rollback(ctx, c.tx)
		return err
	}

	start := time.Now()
	spanCtx, span := c.conn.observer.Start(opCtx, "Commit", "COMMIT")

	err := classify(opCtx, "Close", c.tx.Commit(spanCtx))
	c.conn.observer.Finish(spanCtx, span, start, "Commit", "COMMIT", err)

	if err != nil {
		rollback(ctx, c.tx)
	}

	return err
}

func (c *cursor) fetch(ctx context.Context, op, query string) ([]sqlcrt.Row, error) {
	ctx, cancel := c.conn.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	ctx, span := c.conn.observer.Start(ctx, op, query)

	out, err := collect(ctx, c.tx, query)
	err = classify(ctx, op, err)

	c.conn.observer.Finish(ctx, span, start, op, query, err)

	if err != nil {
		c.failed = true
		return nil, err
	}

	return out, nil
}

func (c *cursor) exec(ctx context.Context, op, query string, params ...any) (pgconn.CommandTag, error) {
	start := time.Now()
	ctx, span := c.conn.observer.Start(ctx, op, query)

	tag, err := c.tx.Exec(ctx, query, params...)
	err = classify(ctx, op, err)

	c.conn.observer.Finish(ctx, span, start, op, query, err, params...)

	if err != nil {
		c.failed = true
	}

	return tag, err
}

func collect(ctx context.Context, tx pgx.Tx, query string) ([]sqlcrt.Row, error) {
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var out []sqlcrt.Row

	for rows.Next() {
		row, err := rowFrom(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, row)
	}

	rows.Close()

	return out, rows.Err()
}
