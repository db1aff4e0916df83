package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// loadDotEnv populates the process environment from ./.env without
// overriding variables that are already set.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// LoadFile parses a YAML mapping of configuration keys to values, e.g.
//
//	DATABASE_URL: sqlite:///./sample.db
//	TEXT2SQL_LLM_TEMPERATURE: 0
func LoadFile(path string) (LookupFunc, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}

	values := make(map[string]string, len(doc))
	for key, value := range doc {
		switch typed := value.(type) {
		case nil:
			continue
		case string:
			values[strings.TrimSpace(key)] = typed
		case bool:
			values[strings.TrimSpace(key)] = strconv.FormatBool(typed)
		case int:
			values[strings.TrimSpace(key)] = strconv.Itoa(typed)
		case float64:
			values[strings.TrimSpace(key)] = strconv.FormatFloat(typed, 'f', -1, 64)
		default:
			return nil, fmt.Errorf("config file %q: key %s must be a scalar", path, key)
		}
	}
	return MapLookup(values), nil
}

func MapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
