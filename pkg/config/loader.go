package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading/saving.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidJSON      = errors.New("invalid JSON syntax")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("configuration file is empty")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// Format is a configuration file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath detects the format from the file extension
// (.yaml and .yml for YAML, otherwise JSON).
func FormatFromPath(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		return FormatYAML
	}
	return FormatJSON
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars replaces ${VAR} and ${VAR:-default} with values from the
// environment. Unset variables without a default expand to "".
func ExpandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if v, ok := os.LookupEnv(parts[1]); ok && v != "" {
			return v
		}
		return parts[2]
	})
}

// LoadFromFile reads a Config from a JSON or YAML file, applies defaults and
// validates it. A relative SchemaFile is resolved against the file's
// directory.
func LoadFromFile(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	cfg, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if cfg.SchemaFile != "" && !filepath.IsAbs(cfg.SchemaFile) {
		cfg.SchemaFile = filepath.Join(filepath.Dir(path), cfg.SchemaFile)
	}
	return cfg, nil
}

// Parse decodes, validates and defaults a configuration document.
// Environment references are expanded first.
func Parse(data []byte, format Format) (*Config, error) {
	expanded := []byte(ExpandEnvVars(string(data)))

	var doc interface{}
	switch format {
	case FormatYAML:
		var raw interface{}
		if err := yaml.Unmarshal(expanded, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
		// Round-trip through JSON so the schema sees JSON value types.
		normalized, err := json.Marshal(normalizeYAML(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
		expanded = normalized
		if err := json.Unmarshal(normalized, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
	default:
		if !json.Valid(expanded) {
			return nil, ErrInvalidJSON
		}
		if err := json.Unmarshal(expanded, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
	}

	if doc == nil {
		return nil, ErrEmptyFile
	}
	if err := ValidateDocument(doc).Err(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate().Err(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalizeYAML converts map[interface{}]interface{} nodes, which yaml.v3
// can produce for non-string keys, into map[string]interface{}.
func normalizeYAML(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, item := range val {
			val[k] = normalizeYAML(item)
		}
		return val
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case []interface{}:
		for i, item := range val {
			val[i] = normalizeYAML(item)
		}
		return val
	default:
		return v
	}
}

// SaveToFile writes a Config to a file using atomic rename.
// The format is determined by file extension.
// Creates parent directories if they don't exist.
func SaveToFile(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}

	var data []byte
	var err error
	if FormatFromPath(path) == FormatYAML {
		data, err = ToYAML(cfg)
	} else {
		data, err = ToJSON(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// ToJSON marshals a Config to formatted JSON bytes.
func ToJSON(cfg *Config) ([]byte, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ToYAML marshals a Config to YAML bytes.
func ToYAML(cfg *Config) ([]byte, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal to YAML: %w", err)
	}
	return data, nil
}

// Example returns a small working configuration, used by "mockstore init".
func Example() *Config {
	cfg := Default()
	cfg.Schema = `type User {
  id: ID!
  name: String
  email: String
}

input UpdateUserInput {
  name: String
  email: String
}

type UpdateUserPayload {
  user: User
}

type Query {
  user(id: ID!): User
}

type Mutation {
  updateUser(id: ID!, input: UpdateUserInput!): UpdateUserPayload
}
`
	cfg.Mocks = map[string]MockConfig{
		"User": {
			Fields: map[string]interface{}{"name": "New User", "email": nil},
		},
	}
	cfg.Resolvers = map[string]ResolverConfig{
		"Query.user":          {Action: "get", Type: "User", ID: "$.id"},
		"Mutation.updateUser": {Action: "set", Type: "User", ID: "$.id", Input: "$.input", Wrap: "user"},
	}
	return cfg
}
