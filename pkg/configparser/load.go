package configparser

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

var ErrNoFilePath = errors.New("no file path provided")

var substRX = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*))?\}$`)

// LoadAndParse exports the YAML file at path into the environment and then
// parses the environment into target. A missing file is not an error: the
// environment alone is enough to configure the application.
func LoadAndParse(path string, target any) error {
	if path != "" {
		if err := LoadYamlFile(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadYamlFile flattens a YAML document into environment variables. Nested
// keys are joined with "_" and upper-cased, so
//
//	database:
//	  host: db
//
// becomes DATABASE_HOST=db. Lists are joined with commas. Values of the form
// ${VAR:-default} are resolved against the environment. Variables that are
// already set win over the file.
func LoadYamlFile(path string) error {
	if path == "" {
		return ErrNoFilePath
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read YAML file: %w", err)
	}

	vars, err := Flatten(raw)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, vars[key]); err != nil {
			return fmt.Errorf("could not set env var %s: %w", key, err)
		}
	}
	return nil
}

// Flatten decodes a YAML document into env-style key/value pairs.
func Flatten(raw []byte) (map[string]string, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("could not decode YAML: %w", err)
	}

	out := make(map[string]string)
	flatten("", doc, out)
	return out, nil
}

func flatten(prefix string, node any, out map[string]string) {
	switch v := node.(type) {
	case map[string]any:
		for k, child := range v {
			flatten(joinKey(prefix, k), child, out)
		}
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, resolve(fmt.Sprint(item)))
		}
		out[prefix] = strings.Join(parts, ",")
	case nil:
	default:
		out[prefix] = resolve(fmt.Sprint(v))
	}
}

func joinKey(prefix, key string) string {
	key = strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
	if prefix == "" {
		return key
	}
	return prefix + "_" + key
}

func resolve(value string) string {
	m := substRX.FindStringSubmatch(value)
	if m == nil {
		return value
	}
	if v := os.Getenv(m[1]); v != "" {
		return v
	}
	return m[2]
}
