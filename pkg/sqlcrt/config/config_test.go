package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLogger struct {
	lines []string
}

func (l *testLogger) Debugf(format string, _ ...any) { l.lines = append(l.lines, "DEBUG "+format) }
func (l *testLogger) Infof(format string, _ ...any)  { l.lines = append(l.lines, "INFO "+format) }
func (l *testLogger) Warnf(format string, _ ...any)  { l.lines = append(l.lines, "WARN "+format) }

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestEnvFile_LoadsDefaultAndOverride(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, ".env", "SQLCRT_TEST_HOST=localhost\nSQLCRT_TEST_NAME=app\n")
	writeFile(t, dir, ".local.env", "SQLCRT_TEST_NAME=app_local\n")

	t.Cleanup(func() {
		os.Unsetenv("SQLCRT_TEST_HOST")
		os.Unsetenv("SQLCRT_TEST_NAME")
	})

	c := NewEnvFile(dir, &testLogger{})

	assert.Equal(t, "localhost", c.Get("SQLCRT_TEST_HOST"))
	assert.Equal(t, "app_local", c.Get("SQLCRT_TEST_NAME"))
}

func TestEnvFile_AppEnvOverride(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, ".env", "SQLCRT_TEST_DIALECT=mysql\n")
	writeFile(t, dir, ".staging.env", "SQLCRT_TEST_DIALECT=postgres\n")

	t.Setenv("APP_ENV", "staging")
	t.Cleanup(func() { os.Unsetenv("SQLCRT_TEST_DIALECT") })

	c := NewEnvFile(dir, &testLogger{})

	assert.Equal(t, "postgres", c.Get("SQLCRT_TEST_DIALECT"))
}

func TestEnvFile_ProcessEnvWins(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, ".env", "SQLCRT_TEST_TIMEOUT=1s\n")
	writeFile(t, dir, ".local.env", "SQLCRT_TEST_TIMEOUT=2s\n")

	t.Setenv("SQLCRT_TEST_TIMEOUT", "5s")

	c := NewEnvFile(dir, &testLogger{})

	assert.Equal(t, "5s", c.Get("SQLCRT_TEST_TIMEOUT"))
}

func TestEnvFile_MissingFiles(t *testing.T) {
	logger := &testLogger{}

	c := NewEnvFile(t.TempDir(), logger)

	assert.Equal(t, "fallback", c.GetOrDefault("SQLCRT_TEST_UNSET", "fallback"))
	assert.Equal(t, []string{
		"DEBUG config file %s not found, skipping",
		"DEBUG config file %s not found, skipping",
	}, logger.lines)
}

func TestParseYAML_Flattens(t *testing.T) {
	y, err := ParseYAML([]byte(`
db:
  dialect: postgres
  host: db.internal
  query_timeout: 3s
  port: 5432
tags: [a, b]
empty:
`))
	require.NoError(t, err)

	assert.Equal(t, "postgres", y.Get("DB_DIALECT"))
	assert.Equal(t, "db.internal", y.Get("DB_HOST"))
	assert.Equal(t, "3s", y.Get("DB_QUERY_TIMEOUT"))
	assert.Equal(t, "5432", y.Get("DB_PORT"))
	assert.Equal(t, "a,b", y.Get("TAGS"))
	assert.Equal(t, "dflt", y.GetOrDefault("EMPTY", "dflt"))
	assert.Equal(t, []string{"DB_DIALECT", "DB_HOST", "DB_PORT", "DB_QUERY_TIMEOUT", "EMPTY", "TAGS"}, y.Keys())
}

func TestYAMLFile_EnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db:\n  name: from_file\n"), 0o600))

	t.Setenv("DB_NAME", "from_env")

	y, err := NewYAMLFile(path)
	require.NoError(t, err)

	assert.Equal(t, "from_env", y.Get("DB_NAME"))
}

func TestParseYAML_Invalid(t *testing.T) {
	_, err := ParseYAML([]byte("db: [unclosed"))
	require.Error(t, err)
}

func TestNewYAMLFile_Missing(t *testing.T) {
	_, err := NewYAMLFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
