package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// resolve is a [kong.ConfigurationLoader] that parses YAML config files.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve, "/path/to/config.yaml")
//
// The document is a mapping from flag names to values:
//   - Flag names with hyphens (e.g., "log-level") may also use underscores
//     (e.g., "log_level")
//   - Sequences become comma-separated lists
//   - Mappings become NAME=VALUE pairs separated by semicolons
//   - Numbers and booleans are unquoted
//
// Example config file:
//
//	log-level: debug
//	log-format: text
//	log_pretty: true
//	path:
//	  - ~/templates
//
// Command-line flags override config file values.
func resolve(r io.Reader) (kong.Resolver, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var values map[string]any

	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, err
	}

	return config(values), nil
}

// config implements [kong.Resolver] for YAML configs.
type config map[string]any

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error {
	return nil
}

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	name := flag.Name

	value, ok := r[name]
	if !ok {
		value, ok = r[strings.ReplaceAll(name, "-", "_")]
	}

	if !ok || value == nil {
		// Not found - return nil to let Kong use defaults
		return nil, nil
	}

	return flatten(value), nil
}

// flatten converts a decoded YAML value to the form kong parses.
func flatten(value any) any {
	switch v := value.(type) {
	case bool, string:
		return v

	case []any:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = fmt.Sprint(flatten(item))
		}

		return strings.Join(items, ",")

	case map[string]any:
		pairs := make([]string, 0, len(v))
		for _, k := range slices.Sorted(maps.Keys(v)) {
			pairs = append(pairs, k+"="+fmt.Sprint(flatten(v[k])))
		}

		return strings.Join(pairs, ";")

	case int:
		return strconv.Itoa(v)

	case int64:
		return strconv.FormatInt(v, 10)

	case uint64:
		return strconv.FormatUint(v, 10)

	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)

	default:
		return fmt.Sprint(v)
	}
}
