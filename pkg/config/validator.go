package config

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

var fieldPathPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\.[A-Za-z_][A-Za-z0-9_]*$`)

var validActions = map[string]bool{
	"get":    true,
	"lookup": true,
	"set":    true,
	"create": true,
	"delete": true,
}

var validFieldPolicies = map[string]bool{
	"":        true,
	"null":    true,
	"default": true,
	"error":   true,
}

// Validate performs the semantic checks the JSON Schema cannot express.
// It assumes ApplyDefaults has run.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}

	if c.Version != "1" && c.Version != "1.0" {
		result.AddError("version", fmt.Sprintf("unsupported version %q, expected \"1.0\"", c.Version))
	}

	switch {
	case c.Schema == "" && c.SchemaFile == "":
		result.AddError("schema", "either schema or schemaFile is required")
	case c.Schema != "" && c.SchemaFile != "":
		result.AddError("schema", "schema and schemaFile are mutually exclusive")
	}

	if !strings.HasPrefix(c.Server.Path, "/") {
		result.AddError("server.path", "must start with /")
	}
	if c.Server.ShutdownTimeout != "" {
		if d, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil || d <= 0 {
			result.AddError("server.shutdownTimeout", fmt.Sprintf("invalid duration %q", c.Server.ShutdownTimeout))
		}
	}

	if !validFieldPolicies[c.Store.FieldPolicy] {
		result.AddError("store.fieldPolicy", fmt.Sprintf("unknown policy %q (want null, default or error)", c.Store.FieldPolicy))
	}

	for _, name := range sortedKeys(c.Mocks) {
		if strings.TrimSpace(name) == "" {
			result.AddError("mocks", "type name cannot be empty")
		}
	}

	for _, path := range sortedKeys(c.Resolvers) {
		r := c.Resolvers[path]
		field := "resolvers." + path
		if !fieldPathPattern.MatchString(path) {
			result.AddError(field, "must be of the form Type.field")
		}
		if !validActions[r.Action] {
			result.AddError(field+".action", fmt.Sprintf("unknown action %q", r.Action))
		}
		if r.Type == "" {
			result.AddError(field+".type", "required")
		}
		if (r.Action == "set" || r.Action == "create") && strings.HasPrefix(path, "Query.") {
			result.AddError(field+".action", fmt.Sprintf("%s is a write action and cannot be bound to a query field", r.Action))
		}
	}

	return result
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
