package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed config.schema.json
var configSchemaJSON []byte

const configSchemaURL = "config.schema.json"

var (
	configSchema     *jsonschema.Schema
	configSchemaErr  error
	configSchemaOnce sync.Once
)

// compiledSchema compiles the embedded JSON Schema on first use.
func compiledSchema() (*jsonschema.Schema, error) {
	configSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(configSchemaURL, bytes.NewReader(configSchemaJSON)); err != nil {
			configSchemaErr = fmt.Errorf("failed to add config schema: %w", err)
			return
		}
		configSchema, configSchemaErr = compiler.Compile(configSchemaURL)
	})
	return configSchema, configSchemaErr
}

// SchemaJSON returns the embedded JSON Schema for configuration files.
func SchemaJSON() []byte {
	out := make([]byte, len(configSchemaJSON))
	copy(out, configSchemaJSON)
	return out
}

// ValidateDocument checks a decoded JSON document against the embedded JSON
// Schema. doc must hold JSON-compatible values (maps, slices, float64,
// strings, bools, nil).
func ValidateDocument(doc interface{}) *ValidationResult {
	result := &ValidationResult{}

	schema, err := compiledSchema()
	if err != nil {
		result.AddError("", err.Error())
		return result
	}

	if err := schema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			collectSchemaErrors(verr, result)
		} else {
			result.AddError("", err.Error())
		}
	}
	result.sort()
	return result
}

// collectSchemaErrors flattens a validation error tree into leaf errors.
func collectSchemaErrors(err *jsonschema.ValidationError, result *ValidationResult) {
	if len(err.Causes) == 0 {
		result.AddError(pointerToPath(err.InstanceLocation), err.Message)
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, result)
	}
}

// pointerToPath converts a JSON Pointer ("/store/keyField") to dot notation.
func pointerToPath(pointer string) string {
	if pointer == "" || pointer == "/" {
		return ""
	}
	parts := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return strings.Join(parts, ".")
}

// ValidationError is a single configuration problem.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationResult collects configuration problems.
type ValidationResult struct {
	Errors []*ValidationError
}

// IsValid returns true if there are no validation errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// AddError adds a validation error.
func (r *ValidationResult) AddError(field, message string) {
	r.Errors = append(r.Errors, &ValidationError{Field: field, Message: message})
}

// Err returns nil when valid, otherwise an error wrapping ErrInvalidConfig.
func (r *ValidationResult) Err() error {
	if r.IsValid() {
		return nil
	}
	return fmt.Errorf("%w:\n%s", ErrInvalidConfig, r.Error())
}

// Error returns a combined error message.
func (r *ValidationResult) Error() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, "  - "+e.Error())
	}
	return strings.Join(msgs, "\n")
}

func (r *ValidationResult) sort() {
	sort.SliceStable(r.Errors, func(i, j int) bool {
		return r.Errors[i].Field < r.Errors[j].Field
	})
}
