package sqlcrt

import (
	"strconv"
	"strings"
)

// ParseRowCount extracts the row count from a command status such as
// "UPDATE 7", "INSERT 0 5" or "MOVE 3": the last whitespace separated token
// parsed as a non-negative integer.
//
// This depends on the driver's status text keeping that layout. A status
// without such a token is an error, never zero.
func ParseRowCount(status string) (int64, error) {
	fields := strings.Fields(status)
	if len(fields) == 0 {
		return 0, &StatusParseError{Status: status}
	}

	n, err := strconv.ParseInt(fields[len(fields)-1], 10, 64)
	if err != nil {
		return 0, &StatusParseError{Status: status, Err: err}
	}

	if n < 0 {
		return 0, &StatusParseError{Status: status}
	}

	return n, nil
}
