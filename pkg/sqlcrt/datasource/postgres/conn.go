// Package postgres adapts a pgx connection to sqlcrt.AsyncConnection.
//
// Every operation takes a context and gives up when it is done. Result
// sequences and cursors run inside a transaction so the server keeps the
// portal open between fetches; the transaction commits once the rows are
// exhausted and rolls back when iteration stops early or fails.
package postgres

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"

	"github.com/sllt/sqlcrt/pkg/sqlcrt"
	"github.com/sllt/sqlcrt/pkg/sqlcrt/datasource"
)

// rollbackTimeout bounds the rollback issued after the operation context is
// already done.
const rollbackTimeout = 5 * time.Second

//go:generate mockgen -source=conn.go -destination=mock_querier.go -package=postgres

// Querier is the part of pgx the adapter uses. *pgx.Conn and pgx.Tx satisfy
// it.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

var (
	_ Querier = (*pgx.Conn)(nil)
	_ Querier = (pgx.Tx)(nil)

	_ sqlcrt.AsyncConnection = (*Conn)(nil)
)

// Conn runs sqlcrt operations on one Querier. It never opens or closes the
// underlying connection and must not be used from two goroutines at once.
type Conn struct {
	conn     Querier
	config   Config
	observer datasource.Observer
}

func New(conn Querier, cfg Config) *Conn {
	return &Conn{
		conn:   conn,
		config: cfg,
		observer: datasource.Observer{
			System:   "postgresql",
			HostName: cfg.HostName,
			Database: cfg.Database,
		},
	}
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

func (c *Conn) ExecuteNone(ctx context.Context, query string, params ...any) error {
	_, err := c.exec(ctx, "ExecuteNone", query, params)

	return err
}

// ExecuteRowcount returns the count the server reports in the command status,
// e.g. 7 for "UPDATE 7".
func (c *Conn) ExecuteRowcount(ctx context.Context, query string, params ...any) (int64, error) {
	tag, err := c.exec(ctx, "ExecuteRowcount", query, params)
	if err != nil {
		return 0, err
	}

	return sqlcrt.ParseRowCount(tag.String())
}

func (c *Conn) ExecuteOne(ctx context.Context, query string, params ...any) (any, error) {
	row, err := c.oneRow(ctx, "ExecuteOne", query, params)
	if err != nil {
		return nil, err
	}

	return sqlcrt.FirstColumn(row)
}

func (c *Conn) ExecuteOneRow(ctx context.Context, query string, params ...any) (*sqlcrt.Row, error) {
	return c.oneRow(ctx, "ExecuteOneRow", query, params)
}

func (c *Conn) ExecuteMany(ctx context.Context, query string, params ...any) iter.Seq2[any, error] {
	return sqlcrt.Scalars(c.manyRows(ctx, "ExecuteMany", query, params))
}

func (c *Conn) ExecuteManyRows(ctx context.Context, query string, params ...any) iter.Seq2[sqlcrt.Row, error] {
	return c.manyRows(ctx, "ExecuteManyRows", query, params)
}

func (c *Conn) exec(ctx context.Context, op, query string, params []any) (pgconn.CommandTag, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	ctx, span := c.observer.Start(ctx, op, query)

	tag, err := c.conn.Exec(ctx, query, params...)
	err = classify(ctx, op, err)

	c.observer.Finish(ctx, span, start, op, query, err, params...)

	return tag, err
}

func (c *Conn) oneRow(ctx context.Context, op, query string, params []any) (*sqlcrt.Row, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	ctx, span := c.observer.Start(ctx, op, query)

	row, err := queryOne(ctx, c.conn, query, params)
	err = classify(ctx, op, err)

	c.observer.Finish(ctx, span, start, op, query, err, params...)

	return row, err
}

func queryOne(ctx context.Context, q Querier, query string, params []any) (*sqlcrt.Row, error) {
	rows, err := q.Query(ctx, query, params...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	if !rows.Next() {
		rows.Close()
		return nil, rows.Err()
	}

	row, err := rowFrom(rows)
	if err != nil {
		return nil, err
	}

	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &row, nil
}

// manyRows streams query inside a transaction. Nothing reaches the server
// until the sequence is ranged over.
func (c *Conn) manyRows(ctx context.Context, op, query string, params []any) iter.Seq2[sqlcrt.Row, error] {
	return sqlcrt.Once(func(yield func(sqlcrt.Row, error) bool) {
		ctx, cancel := c.withTimeout(ctx)
		defer cancel()

		start := time.Now()
		ctx, span := c.observer.Start(ctx, op, query)

		err := classify(ctx, op, c.stream(ctx, query, params, yield))
		if errors.Is(err, errStopped) {
			err = nil
		}

		c.observer.Finish(ctx, span, start, op, query, err, params...)

		if err != nil {
			yield(sqlcrt.Row{}, err)
		}
	})
}

// errStopped marks a stream the consumer abandoned. It is never yielded.
var errStopped = errors.New("iteration stopped by consumer")

func (c *Conn) stream(ctx context.Context, query string, params []any, yield func(sqlcrt.Row, error) bool) error {
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return err
	}

	committed := false

	defer func() {
		if !committed {
			rollback(ctx, tx)
		}
	}()

	rows, err := tx.Query(ctx, query, params...)
	if err != nil {
		return err
	}

	// runs before the rollback above; pgx keeps the connection busy until
	// the rows are closed
	defer rows.Close()

	for rows.Next() {
		row, err := rowFrom(rows)
		if err != nil {
			return err
		}

		if !yield(row, nil) {
			return errStopped
		}
	}

	rows.Close()

	if err := rows.Err(); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	committed = true

	return nil
}

func (c *Conn) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.Timeout > 0 {
		return context.WithTimeout(ctx, c.config.Timeout)
	}

	return context.WithCancel(ctx)
}

// classify reports err as a *sqlcrt.TimeoutError when ctx ran out of time.
func classify(ctx context.Context, op string, err error) error {
	if err == nil || errors.Is(err, errStopped) {
		return err
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &sqlcrt.TimeoutError{Op: op, Err: err}
	}

	return err
}

// rollback runs detached from ctx, which may already be done.
func rollback(ctx context.Context, tx pgx.Tx) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	_ = tx.Rollback(ctx)
}

func rowFrom(rows pgx.Rows) (sqlcrt.Row, error) {
	values, err := rows.Values()
	if err != nil {
		return sqlcrt.Row{}, err
	}

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))

	for i, f := range fields {
		columns[i] = f.Name
	}

	return sqlcrt.NewRow(columns, values), nil
}
