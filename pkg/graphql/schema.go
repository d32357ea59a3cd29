package graphql

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// Schema is a parsed GraphQL schema with read-only accessors for the
// types, root fields and field shapes that mock generation needs.
type Schema struct {
	ast       *ast.Schema
	queries   map[string]*ast.FieldDefinition
	mutations map[string]*ast.FieldDefinition
}

// ParseSchema parses a GraphQL SDL string and returns a Schema.
func ParseSchema(sdl string) (*Schema, error) {
	return loadSchema(&ast.Source{Name: "schema", Input: sdl})
}

// ParseSchemaFile parses a GraphQL schema from a file and returns a Schema.
func ParseSchemaFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	return loadSchema(&ast.Source{Name: path, Input: string(data)})
}

func loadSchema(source *ast.Source) (*Schema, error) {
	schema, err := gqlparser.LoadSchema(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GraphQL schema %s: %w", source.Name, err)
	}

	s := &Schema{
		ast:       schema,
		queries:   make(map[string]*ast.FieldDefinition),
		mutations: make(map[string]*ast.FieldDefinition),
	}
	if schema.Query != nil {
		for _, field := range schema.Query.Fields {
			if !isIntrospectionField(field.Name) {
				s.queries[field.Name] = field
			}
		}
	}
	if schema.Mutation != nil {
		for _, field := range schema.Mutation.Fields {
			s.mutations[field.Name] = field
		}
	}
	return s, nil
}

// isIntrospectionField returns true if the field name is a built-in introspection field.
func isIntrospectionField(name string) bool {
	return strings.HasPrefix(name, "__")
}

// AST returns the underlying gqlparser AST schema.
func (s *Schema) AST() *ast.Schema {
	return s.ast
}

// GetType returns a type definition by name, or nil if not found.
func (s *Schema) GetType(name string) *ast.Definition {
	return s.ast.Types[name]
}

// GetField returns a field definition by type and field name.
func (s *Schema) GetField(typeName, fieldName string) *ast.FieldDefinition {
	def := s.GetType(typeName)
	if def == nil {
		return nil
	}
	return def.Fields.ForName(fieldName)
}

// ListQueries returns all query field names in sorted order.
func (s *Schema) ListQueries() []string {
	return sortedKeys(s.queries)
}

// ListMutations returns all mutation field names in sorted order.
func (s *Schema) ListMutations() []string {
	return sortedKeys(s.mutations)
}

func sortedKeys(m map[string]*ast.FieldDefinition) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasQuery returns true if the schema has a query type with fields.
func (s *Schema) HasQuery() bool {
	return len(s.queries) > 0
}

// Validate performs semantic checks beyond what gqlparser enforces while parsing.
func (s *Schema) Validate() error {
	if !s.HasQuery() {
		return errors.New("schema must define a Query type with at least one field")
	}
	return nil
}

// IsEnumType returns true if the given type name is an enum type.
func (s *Schema) IsEnumType(name string) bool {
	def := s.GetType(name)
	return def != nil && def.Kind == ast.Enum
}

// IsObjectType returns true if the given type name is an object type.
func (s *Schema) IsObjectType(name string) bool {
	def := s.GetType(name)
	return def != nil && def.Kind == ast.Object
}

// IsAbstractType returns true for interfaces and unions.
func (s *Schema) IsAbstractType(name string) bool {
	def := s.GetType(name)
	return def != nil && (def.Kind == ast.Interface || def.Kind == ast.Union)
}

// GetEnumValues returns the enum values for an enum type, or nil if not an enum.
func (s *Schema) GetEnumValues(name string) []string {
	def := s.GetType(name)
	if def == nil || def.Kind != ast.Enum {
		return nil
	}

	values := make([]string, 0, len(def.EnumValues))
	for _, v := range def.EnumValues {
		values = append(values, v.Name)
	}
	return values
}

// GetPossibleTypes returns the sorted concrete type names for an abstract type.
func (s *Schema) GetPossibleTypes(name string) []string {
	def := s.GetType(name)
	if def == nil {
		return nil
	}
	var names []string
	for _, t := range s.ast.GetPossibleTypes(def) {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// NamedType unwraps list and non-null wrappers. list reports whether any
// list wrapper was present.
func NamedType(t *ast.Type) (name string, list bool) {
	for t != nil && t.Elem != nil {
		list = true
		t = t.Elem
	}
	if t == nil {
		return "", list
	}
	return t.NamedType, list
}
