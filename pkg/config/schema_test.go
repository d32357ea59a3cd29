package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func fields(r *ValidationResult) []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Field)
	}
	return out
}

func TestValidateDocument_Valid(t *testing.T) {
	doc := decode(t, `{
		"version": "1.0",
		"schema": "type Query { ok: Boolean }",
		"server": {"addr": ":4280", "path": "/graphql", "introspection": true, "shutdownTimeout": "3s"},
		"store": {"keyField": "id", "fieldPolicy": "error", "autoMock": true, "lookup": false},
		"logging": {"level": "debug", "format": "json"},
		"mocks": {"User": {"fields": {"name": "x"}, "computed": {"slug": "lower(id)"}}},
		"resolvers": {"Query.user": {"action": "lookup", "type": "User", "id": "$.id"}}
	}`)

	result := ValidateDocument(doc)
	assert.True(t, result.IsValid(), result.Error())
	assert.NoError(t, result.Err())
}

func TestValidateDocument_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{"missing version", `{"schema": "x"}`, ""},
		{"unknown top-level key", `{"version": "1.0", "extra": 1}`, ""},
		{"bad field policy", `{"version": "1.0", "store": {"fieldPolicy": "zero"}}`, "store.fieldPolicy"},
		{"bad log level", `{"version": "1.0", "logging": {"level": "trace"}}`, "logging.level"},
		{"bad path", `{"version": "1.0", "server": {"path": "graphql"}}`, "server.path"},
		{"bad action", `{"version": "1.0", "resolvers": {"Query.user": {"action": "fetch", "type": "User"}}}`, "resolvers.Query.user.action"},
		{"missing type", `{"version": "1.0", "resolvers": {"Query.user": {"action": "get"}}}`, "resolvers.Query.user"},
		{"bad id path", `{"version": "1.0", "resolvers": {"Query.user": {"action": "get", "type": "User", "id": "id"}}}`, "resolvers.Query.user.id"},
		{"empty computed", `{"version": "1.0", "mocks": {"User": {"computed": {"a": ""}}}}`, "mocks.User.computed.a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateDocument(decode(t, tt.doc))
			require.False(t, result.IsValid())
			assert.Contains(t, fields(result), tt.field)
			assert.ErrorIs(t, result.Err(), ErrInvalidConfig)
		})
	}
}

func TestValidateDocument_BadResolverKey(t *testing.T) {
	result := ValidateDocument(decode(t, `{"version": "1.0", "resolvers": {"user": {"action": "get", "type": "User"}}}`))
	assert.False(t, result.IsValid())
}

func TestPointerToPath(t *testing.T) {
	assert.Equal(t, "", pointerToPath(""))
	assert.Equal(t, "store.keyField", pointerToPath("/store/keyField"))
	assert.Equal(t, "a/b.c~d", pointerToPath("/a~1b/c~0d"))
}

func TestSchemaJSON_IsCopy(t *testing.T) {
	a := SchemaJSON()
	a[0] = 'x'
	assert.NotEqual(t, a[0], SchemaJSON()[0])
	assert.True(t, json.Valid(SchemaJSON()))
}

func TestValidationResult(t *testing.T) {
	r := &ValidationResult{}
	assert.True(t, r.IsValid())
	assert.NoError(t, r.Err())

	r.AddError("b", "second")
	r.AddError("", "root problem")

	assert.Len(t, r.Errors, 2)
	assert.Equal(t, "  - b: second\n  - root problem", r.Error())
	r.sort()
	assert.Equal(t, "", r.Errors[0].Field)
}
