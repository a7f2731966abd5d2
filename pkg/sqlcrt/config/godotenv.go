package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultFileName         = "/.env"
	defaultOverrideFileName = "/.local.env"
)

// Logger receives notices about which files were loaded.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// EnvLoader answers lookups from the environment after seeding it from files.
type EnvLoader struct {
	logger Logger
}

// NewEnvFile loads <folder>/.env and then an override file. The override is
// .<APP_ENV>.env when APP_ENV is set and .local.env otherwise. Variables
// already present in the process environment are never replaced.
func NewEnvFile(folder string, logger Logger) Config {
	conf := &EnvLoader{logger: logger}
	conf.read(folder)

	return conf
}

func (e *EnvLoader) read(folder string) {
	var (
		defaultFile  = filepath.Clean(folder + defaultFileName)
		overrideFile = filepath.Clean(folder + defaultOverrideFileName)
		env          = e.Get("APP_ENV")
	)

	initial := make(map[string]bool)

	for _, kv := range os.Environ() {
		if k, _, ok := strings.Cut(kv, "="); ok {
			initial[k] = true
		}
	}

	e.load(defaultFile, initial)

	if env != "" {
		overrideFile = filepath.Clean(folder + "/." + env + ".env")
	}

	e.load(overrideFile, initial)
}

// load applies file on top of what is already set, skipping keys that came
// from the process environment.
func (e *EnvLoader) load(file string, initial map[string]bool) {
	values, err := godotenv.Read(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			e.logger.Debugf("config file %s not found, skipping", file)
		} else {
			e.logger.Warnf("failed to load config from file: %v, Err: %v", file, err)
		}

		return
	}

	for k, v := range values {
		if initial[k] {
			continue
		}

		_ = os.Setenv(k, v)
	}

	e.logger.Infof("Loaded config from file: %v", file)
}

func (*EnvLoader) Get(key string) string {
	return os.Getenv(key)
}

func (*EnvLoader) GetOrDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}

	return defaultValue
}
