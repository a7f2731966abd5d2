package sqlcrt

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("record validation failed")

	// ErrStatusParse is matched by every *StatusParseError.
	ErrStatusParse = errors.New("cannot parse row count from command status")

	// ErrNoColumns is returned when a single-row operation gets a row without columns.
	ErrNoColumns = errors.New("row has no columns")

	// ErrTimeout is matched by every *TimeoutError.
	ErrTimeout = errors.New("operation timed out")

	// ErrStreamConsumed is yielded when a sequence is ranged over a second time.
	ErrStreamConsumed = errors.New("result sequence already consumed")

	// ErrCursorClosed is returned by cursor methods called after Close.
	ErrCursorClosed = errors.New("cursor is closed")

	// ErrPlaceholderIndex is returned when $N refers to a missing parameter.
	ErrPlaceholderIndex = errors.New("placeholder index out of range")
)

// StatusParseError reports a command status without a trailing row count.
type StatusParseError struct {
	Status string
	Err    error
}

func (e *StatusParseError) Error() string {
	return fmt.Sprintf("%v: %q", ErrStatusParse, e.Status)
}

func (e *StatusParseError) Is(target error) bool {
	return target == ErrStatusParse
}

func (e *StatusParseError) Unwrap() error {
	return e.Err
}

// TimeoutError reports an operation abandoned because its deadline passed.
// Err is the error the driver returned when it gave up.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrTimeout, e.Err)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}
