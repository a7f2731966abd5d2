package sqlcrt

import (
	"iter"
	"sync/atomic"
)

// Once returns a sequence that runs seq the first time it is ranged over.
// Later ranges yield ErrStreamConsumed instead of running seq again.
func Once[T any](seq iter.Seq2[T, error]) iter.Seq2[T, error] {
	var used atomic.Bool

	return func(yield func(T, error) bool) {
		if !used.CompareAndSwap(false, true) {
			var zero T

			yield(zero, ErrStreamConsumed)

			return
		}

		seq(yield)
	}
}

// Scalars maps a row sequence to column 0 of each row.
func Scalars(rows iter.Seq2[Row, error]) iter.Seq2[any, error] {
	return mapSeq(rows, func(r Row) (any, error) {
		return FirstColumn(&r)
	})
}

// Models maps a row sequence to decoded T values. Iteration stops at the
// first row that fails to decode.
func Models[T any](rows iter.Seq2[Row, error]) iter.Seq2[T, error] {
	return mapSeq(rows, func(r Row) (T, error) {
		v, err := Decode[T](r)
		if err != nil {
			var zero T

			return zero, err
		}

		return *v, nil
	})
}

// mapSeq stops after yielding the first error so the source sequence releases
// its resources.
func mapSeq[T, U any](seq iter.Seq2[T, error], fn func(T) (U, error)) iter.Seq2[U, error] {
	return func(yield func(U, error) bool) {
		var zero U

		for v, err := range seq {
			if err != nil {
				yield(zero, err)
				return
			}

			u, err := fn(v)
			if err != nil {
				yield(zero, err)
				return
			}

			if !yield(u, nil) {
				return
			}
		}
	}
}
