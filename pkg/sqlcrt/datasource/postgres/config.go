package postgres

import (
	"fmt"
	"time"

	"github.com/sllt/sqlcrt/pkg/sqlcrt/config"
)

// Config describes the connection handed to New. HostName and Database only
// label logs, spans and metrics.
type Config struct {
	HostName string
	Database string

	// Timeout bounds every operation. For a result sequence it covers the
	// whole iteration. Zero means no limit beyond the caller's context.
	Timeout time.Duration
}

// NewConfig reads DB_HOST, DB_NAME and DB_QUERY_TIMEOUT. The timeout uses
// time.ParseDuration syntax such as "1500ms" or "3s".
func NewConfig(c config.Config) (Config, error) {
	cfg := Config{
		HostName: c.Get("DB_HOST"),
		Database: c.Get("DB_NAME"),
	}

	if raw := c.Get("DB_QUERY_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DB_QUERY_TIMEOUT %q: %w", raw, err)
		}

		if d < 0 {
			return Config{}, fmt.Errorf("invalid DB_QUERY_TIMEOUT %q: must not be negative", raw)
		}

		cfg.Timeout = d
	}

	return cfg, nil
}
