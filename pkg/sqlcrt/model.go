package sqlcrt

import (
	"context"
	"iter"
)

// OneModel decodes the first row of query into a T. It returns nil, nil when
// the query produced no rows.
func OneModel[T any](c Connection, query string, params ...any) (*T, error) {
	row, err := c.ExecuteOneRow(query, params...)
	if err != nil {
		return nil, err
	}

	return decodeOne[T](row)
}

// ManyModel yields one decoded T per row of query, in result order.
func ManyModel[T any](c Connection, query string, params ...any) iter.Seq2[T, error] {
	return Models[T](c.ExecuteManyRows(query, params...))
}

// OneModelContext is OneModel for an AsyncConnection.
func OneModelContext[T any](ctx context.Context, c AsyncConnection, query string, params ...any) (*T, error) {
	row, err := c.ExecuteOneRow(ctx, query, params...)
	if err != nil {
		return nil, err
	}

	return decodeOne[T](row)
}

// ManyModelContext is ManyModel for an AsyncConnection.
func ManyModelContext[T any](ctx context.Context, c AsyncConnection, query string, params ...any) iter.Seq2[T, error] {
	return Models[T](c.ExecuteManyRows(ctx, query, params...))
}

func decodeOne[T any](row *Row) (*T, error) {
	if row == nil {
		return nil, nil
	}

	if row.Len() == 0 {
		return nil, ErrNoColumns
	}

	return Decode[T](*row)
}
