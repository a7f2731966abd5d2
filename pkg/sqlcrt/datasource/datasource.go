/*
Package datasource holds what the sqlcrt adapters share: the logger and metrics
interfaces they accept, the per-call query log and the observer that emits logs,
metrics and spans for every driver round trip.
*/
package datasource

import (
	"context"
)

// Logger is the logging surface the adapters need.
type Logger interface {
	Debug(args ...any)
	Debugf(format string, args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
}

// Metrics is the metrics surface the adapters need.
type Metrics interface {
	NewHistogram(name, desc string, buckets ...float64)
	RecordHistogram(ctx context.Context, name string, value float64, labels ...string)
}

const sqlStatsHistogram = "app_sql_stats"
