// Package sql adapts a database/sql connection to sqlcrt.Connection.
//
// Calls block the calling goroutine for the duration of the driver round trip.
// Query text uses $N placeholders and is rebound for the configured dialect
// before it reaches the driver.
package sql

import (
	"context"
	"database/sql"
	"iter"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/sllt/sqlcrt/pkg/sqlcrt"
	"github.com/sllt/sqlcrt/pkg/sqlcrt/datasource"
)

// Executor is what Conn runs queries on. *sql.Conn, *sql.DB and *sql.Tx all
// satisfy it.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var (
	_ Executor = (*sql.Conn)(nil)
	_ Executor = (*sql.DB)(nil)
	_ Executor = (*sql.Tx)(nil)

	_ sqlcrt.Connection = (*Conn)(nil)
)

// Conn runs sqlcrt operations on one Executor. It never opens, closes or
// reconfigures the executor and must not be used from two goroutines at once.
type Conn struct {
	exec     Executor
	dialect  Dialect
	config   Config
	observer datasource.Observer
}

// New wraps exec. It fails only when cfg names an unknown dialect.
func New(exec Executor, cfg Config) (*Conn, error) {
	d, err := ParseDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	return &Conn{
		exec:    exec,
		dialect: d,
		config:  cfg,
		observer: datasource.Observer{
			System:   string(d),
			HostName: cfg.HostName,
			Database: cfg.Database,
		},
	}, nil
}

func (c *Conn) UseLogger(logger datasource.Logger) {
	c.observer.Logger = logger
}

func (c *Conn) UseMetrics(metrics datasource.Metrics) {
	c.observer.UseMetrics(metrics)
}

func (c *Conn) UseTracer(tracer trace.Tracer) {
	c.observer.Tracer = tracer
}

// Dialect returns the placeholder dialect in use.
func (c *Conn) Dialect() Dialect {
	return c.dialect
}

func (c *Conn) Execute(query string, params ...any) (sqlcrt.Cursor, error) {
	rows, err := c.query(context.Background(), "Execute", query, params)
	if err != nil {
		return nil, err
	}

	cur, err := newCursor(rows)
	if err != nil {
		return nil, err
	}

	return cur, nil
}

func (c *Conn) ExecuteNone(query string, params ...any) error {
	_, err := c.execContext(context.Background(), "ExecuteNone", query, params)

	return err
}

func (c *Conn) ExecuteRowcount(query string, params ...any) (int64, error) {
	res, err := c.execContext(context.Background(), "ExecuteRowcount", query, params)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (c *Conn) ExecuteOne(query string, params ...any) (any, error) {
	row, err := c.oneRow(context.Background(), "ExecuteOne", query, params)
	if err != nil {
		return nil, err
	}

	return sqlcrt.FirstColumn(row)
}

func (c *Conn) ExecuteOneRow(query string, params ...any) (*sqlcrt.Row, error) {
	return c.oneRow(context.Background(), "ExecuteOneRow", query, params)
}

func (c *Conn) ExecuteMany(query string, params ...any) iter.Seq2[any, error] {
	return sqlcrt.Scalars(c.manyRows(context.Background(), "ExecuteMany", query, params))
}

func (c *Conn) ExecuteManyRows(query string, params ...any) iter.Seq2[sqlcrt.Row, error] {
	return c.manyRows(context.Background(), "ExecuteManyRows", query, params)
}

func (c *Conn) oneRow(ctx context.Context, op, query string, params []any) (*sqlcrt.Row, error) {
	rows, err := c.query(ctx, op, query, params)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, rows.Err()
	}

	row, err := scanRow(rows, columns)
	if err != nil {
		return nil, err
	}

	return &row, nil
}

// manyRows defers the query until the sequence is ranged over. rows.Close is
// deferred inside the sequence, so a consumer that stops early or hits an
// error still releases the cursor.
func (c *Conn) manyRows(ctx context.Context, op, query string, params []any) iter.Seq2[sqlcrt.Row, error] {
	return sqlcrt.Once(func(yield func(sqlcrt.Row, error) bool) {
		rows, err := c.query(ctx, op, query, params)
		if err != nil {
			yield(sqlcrt.Row{}, err)
			return
		}

		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			yield(sqlcrt.Row{}, err)
			return
		}

		for rows.Next() {
			row, err := scanRow(rows, columns)
			if err != nil {
				yield(sqlcrt.Row{}, err)
				return
			}

			if !yield(row, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(sqlcrt.Row{}, err)
		}
	})
}

func (c *Conn) query(ctx context.Context, op, query string, params []any) (*sql.Rows, error) {
	q, args, err := c.dialect.Rebind(query, params)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, span := c.observer.Start(ctx, op, q)

	rows, err := c.exec.QueryContext(ctx, q, args...)
	c.observer.Finish(ctx, span, start, op, q, err, args...)

	return rows, err
}

func (c *Conn) execContext(ctx context.Context, op, query string, params []any) (sql.Result, error) {
	q, args, err := c.dialect.Rebind(query, params)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, span := c.observer.Start(ctx, op, q)

	res, err := c.exec.ExecContext(ctx, q, args...)
	c.observer.Finish(ctx, span, start, op, q, err, args...)

	return res, err
}

func scanRow(rows *sql.Rows, columns []string) (sqlcrt.Row, error) {
	values := make([]any, len(columns))
	dest := make([]any, len(columns))

	for i := range values {
		dest[i] = &values[i]
	}

	if err := rows.Scan(dest...); err != nil {
		return sqlcrt.Row{}, err
	}

	return sqlcrt.NewRow(columns, values), nil
}
