package graphql

import "context"

// GraphQLConfig represents a GraphQL endpoint configuration.
type GraphQLConfig struct {
	// ID is the unique identifier for this GraphQL endpoint.
	ID string `json:"id" yaml:"id"`
	// Name is a human-readable name for this endpoint.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Path is the URL path where this GraphQL endpoint is served.
	Path string `json:"path" yaml:"path"`
	// Schema is the inline GraphQL SDL schema definition.
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
	// SchemaFile is the path to a file containing the GraphQL SDL schema.
	SchemaFile string `json:"schemaFile,omitempty" yaml:"schemaFile,omitempty"`
	// Introspection enables the __schema and __type fields.
	Introspection bool `json:"introspection" yaml:"introspection"`
}

// GraphQLError represents a GraphQL error in the response format.
type GraphQLError struct {
	// Message is the error message.
	Message string `json:"message"`
	// Locations indicates where in the query the error occurred.
	Locations []GraphQLErrorLocation `json:"locations,omitempty"`
	// Path is the response field path where the error occurred.
	Path []interface{} `json:"path,omitempty"`
	// Extensions contains additional error metadata.
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// GraphQLErrorLocation represents a location in the GraphQL query where an error occurred.
type GraphQLErrorLocation struct {
	// Line is the line number (1-indexed).
	Line int `json:"line"`
	// Column is the column number (1-indexed).
	Column int `json:"column"`
}

// GraphQLRequest represents an incoming GraphQL request.
type GraphQLRequest struct {
	// Query is the GraphQL query string.
	Query string `json:"query"`
	// OperationName is the name of the operation to execute (for multi-operation documents).
	OperationName string `json:"operationName,omitempty"`
	// Variables are the variable values for the query.
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// GraphQLResponse represents a GraphQL response.
type GraphQLResponse struct {
	// Data contains the result of the query execution.
	Data interface{} `json:"data,omitempty"`
	// Errors contains any errors that occurred during execution.
	Errors []GraphQLError `json:"errors,omitempty"`
	// Extensions contains additional response metadata.
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// FieldPath represents a path to a field in the schema (e.g., "Query.user" or "Mutation.createUser").
type FieldPath struct {
	// TypeName is the parent type name (e.g., "Query", "Mutation", "User").
	TypeName string
	// FieldName is the field name.
	FieldName string
}

// String returns the string representation of the field path.
func (fp FieldPath) String() string {
	return fp.TypeName + "." + fp.FieldName
}

// ParseFieldPath parses a field path string (e.g., "Query.user") into a FieldPath.
func ParseFieldPath(path string) FieldPath {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			return FieldPath{
				TypeName:  path[:i],
				FieldName: path[i+1:],
			}
		}
	}
	// No dot found, treat the whole string as a field name
	return FieldPath{FieldName: path}
}

// ResolveParams is passed to a ResolverFunc.
type ResolveParams struct {
	// Source is the parent value (nil for root fields).
	Source interface{}
	// Args holds coerced field arguments, with defaults applied.
	Args map[string]interface{}
	// Field identifies the field being resolved.
	Field FieldPath
	// Path is the response path of the field.
	Path []interface{}
}

// ResolverFunc resolves one field.
type ResolverFunc func(ctx context.Context, p ResolveParams) (interface{}, error)

// ValueHook transforms every resolved value before it is completed against
// the field's type. Hooks let callers substitute lazy references.
type ValueHook func(ctx context.Context, v interface{}) (interface{}, error)
