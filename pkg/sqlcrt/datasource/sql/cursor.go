package sql

import (
	"database/sql"
	"iter"

	"github.com/sllt/sqlcrt/pkg/sqlcrt"
)

var _ sqlcrt.Cursor = (*cursor)(nil)

type cursor struct {
	rows    *sql.Rows
	columns []string
	count   int
	done    bool
	closed  bool
}

func newCursor(rows *sql.Rows) (*cursor, error) {
	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, err
	}

	return &cursor{rows: rows, columns: columns}, nil
}

func (c *cursor) Columns() []string {
	out := make([]string, len(c.columns))
	copy(out, c.columns)

	return out
}

func (c *cursor) FetchOne() (*sqlcrt.Row, error) {
	if c.closed {
		return nil, sqlcrt.ErrCursorClosed
	}

	if c.done {
		return nil, nil
	}

	if !c.rows.Next() {
		c.done = true
		return nil, c.rows.Err()
	}

	row, err := scanRow(c.rows, c.columns)
	if err != nil {
		return nil, err
	}

	c.count++

	return &row, nil
}

func (c *cursor) FetchMany(size int) ([]sqlcrt.Row, error) {
	if size < 1 {
		size = 1
	}

	out := make([]sqlcrt.Row, 0, size)

	for len(out) < size {
		row, err := c.FetchOne()
		if err != nil {
			return out, err
		}

		if row == nil {
			break
		}

		out = append(out, *row)
	}

	return out, nil
}

func (c *cursor) FetchAll() ([]sqlcrt.Row, error) {
	var out []sqlcrt.Row

	for row, err := range c.All() {
		if err != nil {
			return out, err
		}

		out = append(out, row)
	}

	return out, nil
}

func (c *cursor) All() iter.Seq2[sqlcrt.Row, error] {
	return func(yield func(sqlcrt.Row, error) bool) {
		for {
			row, err := c.FetchOne()
			if err != nil {
				yield(sqlcrt.Row{}, err)
				return
			}

			if row == nil || !yield(*row, nil) {
				return
			}
		}
	}
}

func (c *cursor) Len() int {
	return c.count
}

// Close releases the rows. Closing twice is a no-op.
func (c *cursor) Close() error {
	if c.closed {
		return nil
	}

	c.closed = true

	return c.rows.Close()
}
