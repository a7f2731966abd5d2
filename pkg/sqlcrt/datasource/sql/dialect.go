package sql

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sllt/sqlcrt/pkg/sqlcrt"
)

// Dialect selects the placeholder token the driver expects.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
	DialectOracle   Dialect = "oracle"
)

var errUnsupportedDialect = errors.New("unsupported dialect")

// placeholderRegexp matches $N at a word boundary, so identifiers such as
// price$1 are left alone.
var placeholderRegexp = regexp.MustCompile(`\B\$\d+\b`)

// ParseDialect normalizes a dialect name.
//
// Supported values include:
//   - mysql, mariadb (the default for an empty name)
//   - postgres, postgresql, supabase, cockroachdb
//   - sqlite, sqlite3
//   - oracle
func ParseDialect(dialect string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "", string(DialectMySQL), "mariadb":
		return DialectMySQL, nil
	case string(DialectPostgres), "postgresql", "supabase", "cockroachdb":
		return DialectPostgres, nil
	case string(DialectSQLite), "sqlite3":
		return DialectSQLite, nil
	case string(DialectOracle):
		return DialectOracle, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedDialect, dialect)
	}
}

// Rebind rewrites $N placeholders in query to the dialect's native token.
//
// Postgres keeps $N. Oracle gets :N. MySQL and SQLite get ?, and because ?
// is positional the returned params follow the order the placeholders appear
// in the text, so "$2 ... $1" or a repeated "$1" still bind the right values.
func (d Dialect) Rebind(query string, params []any) (string, []any, error) {
	switch d {
	case DialectPostgres:
		return query, params, nil
	case DialectOracle:
		return placeholderRegexp.ReplaceAllStringFunc(query, func(m string) string {
			return ":" + m[1:]
		}), params, nil
	case DialectMySQL, DialectSQLite:
		return rebindQuestion(query, params)
	default:
		return "", nil, fmt.Errorf("%w: %q", errUnsupportedDialect, string(d))
	}
}

func rebindQuestion(query string, params []any) (string, []any, error) {
	var (
		order []int
		err   error
	)

	out := placeholderRegexp.ReplaceAllStringFunc(query, func(m string) string {
		n, convErr := strconv.Atoi(m[1:])
		if convErr != nil || n < 1 || n > len(params) {
			if err == nil {
				err = fmt.Errorf("%w: %s with %d parameters", sqlcrt.ErrPlaceholderIndex, m, len(params))
			}

			return m
		}

		order = append(order, n)

		return "?"
	})

	if err != nil {
		return "", nil, err
	}

	if len(order) == 0 || inOrder(order, len(params)) {
		return out, params, nil
	}

	args := make([]any, len(order))
	for i, n := range order {
		args[i] = params[n-1]
	}

	return out, args, nil
}

// inOrder reports whether order is exactly 1..n, in which case params can be
// passed through as they are.
func inOrder(order []int, n int) bool {
	if len(order) != n {
		return false
	}

	for i, v := range order {
		if v != i+1 {
			return false
		}
	}

	return true
}
