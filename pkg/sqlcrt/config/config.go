// Package config reads runtime settings from env files, YAML files and the
// process environment.
package config

type Config interface {
	Get(string) string
	GetOrDefault(string, string) string
}
