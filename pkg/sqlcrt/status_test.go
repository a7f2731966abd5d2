package sqlcrt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRowCount(t *testing.T) {
	tests := []struct {
		status string
		want   int64
	}{
		{"UPDATE 7", 7},
		{"DELETE 0", 0},
		{"INSERT 0 5", 5},
		{"MOVE 3", 3},
		{"SELECT 12", 12},
		{"  COPY   42  ", 42},
	}

	for i, tc := range tests {
		got, err := ParseRowCount(tc.status)

		require.NoError(t, err, "TEST[%d], Failed.\n%s", i, tc.status)
		assert.Equal(t, tc.want, got, "TEST[%d], Failed.\n%s", i, tc.status)
	}
}

func TestParseRowCount_Malformed(t *testing.T) {
	for _, status := range []string{"", "   ", "CREATE TABLE", "UPDATE x", "UPDATE -1", "UPDATE 99999999999999999999"} {
		n, err := ParseRowCount(status)

		require.ErrorIs(t, err, ErrStatusParse, status)
		assert.Zero(t, n)

		var se *StatusParseError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, status, se.Status)
	}
}

func TestStatusParseError_Message(t *testing.T) {
	_, err := ParseRowCount("CREATE TABLE")

	assert.Equal(t, `cannot parse row count from command status: "CREATE TABLE"`, err.Error())
}

func TestTimeoutError(t *testing.T) {
	err := &TimeoutError{Op: "ExecuteOne", Err: errTest}

	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, errTest)
	assert.Equal(t, "ExecuteOne: operation timed out: test error", err.Error())
}
