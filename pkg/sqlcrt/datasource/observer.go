package datasource

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// QueryLog is logged at debug level once per driver call.
type QueryLog struct {
	Type     string `json:"type"`
	Query    string `json:"query"`
	Duration int64  `json:"duration"`
	Args     []any  `json:"args,omitempty"`
}

func (l *QueryLog) PrettyPrint(writer io.Writer) {
	fmt.Fprintf(writer, "\u001B[38;5;8m%-32s \u001B[38;5;24m%-6s\u001B[0m %8d\u001B[38;5;8mµs\u001B[0m %s\n",
		l.Type, "SQL", l.Duration, clean(l.Query))
}

var whitespace = regexp.MustCompile(`\s+`)

func clean(query string) string {
	query = whitespace.ReplaceAllString(query, " ")
	query = strings.TrimSpace(query)

	return query
}

// Observer reports driver calls. The zero value reports nothing.
type Observer struct {
	Logger  Logger
	Metrics Metrics
	Tracer  trace.Tracer

	// System names the database family in span attributes, e.g. "mysql".
	System   string
	HostName string
	Database string
}

// UseMetrics sets m and registers the histogram the observer records into.
func (o *Observer) UseMetrics(m Metrics) {
	if m == nil {
		return
	}

	m.NewHistogram(sqlStatsHistogram, "Response time of SQL queries in milliseconds.",
		.05, .075, .1, .125, .15, .2, .3, .5, .75, 1, 2, 3, 4, 5, 7.5, 10)

	o.Metrics = m
}

// Start opens a span for op when a tracer is configured.
func (o *Observer) Start(ctx context.Context, op, query string) (context.Context, trace.Span) {
	if o.Tracer == nil {
		return ctx, noop.Span{}
	}

	return o.Tracer.Start(ctx, "sqlcrt-"+op, trace.WithAttributes(
		attribute.String("db.system", o.System),
		attribute.String("db.statement", query),
	))
}

// Finish ends span and emits the query log and duration metric for op.
func (o *Observer) Finish(ctx context.Context, span trace.Span, start time.Time, op, query string, err error, args ...any) {
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()

	if o.Logger != nil {
		o.Logger.Debug(&QueryLog{
			Type:     op,
			Query:    query,
			Duration: duration.Microseconds(),
			Args:     args,
		})
	}

	if o.Metrics != nil {
		o.Metrics.RecordHistogram(ctx, sqlStatsHistogram, float64(duration.Milliseconds()),
			"hostname", o.HostName, "database", o.Database, "type", OperationType(query))
	}
}

// OperationType returns the leading SQL keyword of query in upper case.
func OperationType(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}

	return strings.ToUpper(fields[0])
}
