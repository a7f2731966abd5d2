package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLFile holds settings read from a YAML document. Nested keys are joined
// with underscores and upper-cased, so db.query_timeout is DB_QUERY_TIMEOUT.
type YAMLFile struct {
	values map[string]string
}

// NewYAMLFile reads path. The process environment wins over file values.
func NewYAMLFile(path string) (*YAMLFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParseYAML(data)
}

// ParseYAML flattens a YAML mapping document.
func ParseYAML(data []byte) (*YAMLFile, error) {
	var doc map[string]any

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	values := make(map[string]string)
	flatten("", doc, values)

	return &YAMLFile{values: values}, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := strings.ToUpper(k)
		if prefix != "" {
			key = prefix + "_" + key
		}

		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case []any:
			parts := make([]string, len(val))
			for i, item := range val {
				parts[i] = fmt.Sprint(item)
			}

			out[key] = strings.Join(parts, ",")
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

func (y *YAMLFile) Get(key string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return y.values[key]
}

func (y *YAMLFile) GetOrDefault(key, defaultValue string) string {
	if value := y.Get(key); value != "" {
		return value
	}

	return defaultValue
}

// Keys lists the flattened keys in sorted order.
func (y *YAMLFile) Keys() []string {
	keys := make([]string, 0, len(y.values))
	for k := range y.values {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
