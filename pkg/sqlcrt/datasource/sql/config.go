package sql

import (
	"github.com/sllt/sqlcrt/pkg/sqlcrt/config"
)

// Config describes the connection handed to New. HostName and Database only
// label logs, spans and metrics.
type Config struct {
	Dialect  string
	HostName string
	Database string
}

// NewConfig reads DB_DIALECT, DB_HOST and DB_NAME.
func NewConfig(c config.Config) Config {
	return Config{
		Dialect:  c.GetOrDefault("DB_DIALECT", string(DialectMySQL)),
		HostName: c.Get("DB_HOST"),
		Database: c.Get("DB_NAME"),
	}
}
