package sqlcrt

import (
	"context"
	"iter"
)

// Cursor is a single-use handle over the rows of one blocking query.
// The caller owns it and must Close it.
type Cursor interface {
	// Columns returns the result column names.
	Columns() []string

	// FetchOne returns the next row, or nil once the rows are exhausted.
	FetchOne() (*Row, error)

	// FetchMany returns up to size rows. A size below 1 fetches one row.
	FetchMany(size int) ([]Row, error)

	// FetchAll returns every remaining row.
	FetchAll() ([]Row, error)

	// All iterates over the remaining rows. It does not close the cursor.
	All() iter.Seq2[Row, error]

	// Len returns the number of rows read from the cursor so far.
	Len() int

	Close() error
}

// Connection is the blocking family. Every call runs on the caller's
// goroutine and returns once the driver does. Implementations are not safe
// for concurrent use.
type Connection interface {
	// Execute runs query and returns a cursor over its rows.
	Execute(query string, params ...any) (Cursor, error)

	// ExecuteNone runs query and discards any result.
	ExecuteNone(query string, params ...any) error

	// ExecuteRowcount runs query and returns the number of affected rows.
	ExecuteRowcount(query string, params ...any) (int64, error)

	// ExecuteOne returns column 0 of the first row, or nil if there is none.
	ExecuteOne(query string, params ...any) (any, error)

	// ExecuteOneRow returns the first row, or nil if there is none.
	ExecuteOneRow(query string, params ...any) (*Row, error)

	// ExecuteMany yields column 0 of every row.
	ExecuteMany(query string, params ...any) iter.Seq2[any, error]

	// ExecuteManyRows yields every row.
	ExecuteManyRows(query string, params ...any) iter.Seq2[Row, error]
}

// AsyncCursor is a server-side cursor. Each call may wait on the database and
// honours ctx.
type AsyncCursor interface {
	// Fetch returns up to n rows.
	Fetch(ctx context.Context, n int) ([]Row, error)

	// FetchRow returns the next row, or nil once the rows are exhausted.
	FetchRow(ctx context.Context) (*Row, error)

	// Forward skips n rows and returns how many were actually skipped.
	Forward(ctx context.Context, n int) (int64, error)

	Close(ctx context.Context) error
}

// AsyncConnection is the context driven family. Operations give up when ctx
// is done; a deadline surfaces as ErrTimeout. Implementations are not safe
// for concurrent use.
type AsyncConnection interface {
	Execute(ctx context.Context, query string, params ...any) (AsyncCursor, error)
	ExecuteNone(ctx context.Context, query string, params ...any) error
	ExecuteRowcount(ctx context.Context, query string, params ...any) (int64, error)
	ExecuteOne(ctx context.Context, query string, params ...any) (any, error)
	ExecuteOneRow(ctx context.Context, query string, params ...any) (*Row, error)
	ExecuteMany(ctx context.Context, query string, params ...any) iter.Seq2[any, error]
	ExecuteManyRows(ctx context.Context, query string, params ...any) iter.Seq2[Row, error]
}
