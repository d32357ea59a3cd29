package bridge

import (
	"strings"

	"github.com/getmockd/mockstore/pkg/graphql"
	"github.com/getmockd/mockstore/pkg/mockstore"
	"github.com/vektah/gqlparser/v2/ast"
)

// SchemaDescriptor exposes a parsed GraphQL schema to the store.
type SchemaDescriptor struct {
	schema *graphql.Schema
}

var _ mockstore.SchemaDescriptor = (*SchemaDescriptor)(nil)

// Describe wraps schema as a mockstore.SchemaDescriptor.
func Describe(schema *graphql.Schema) *SchemaDescriptor {
	return &SchemaDescriptor{schema: schema}
}

// ObjectFields returns the fields of an object type. Introspection fields
// are omitted.
func (d *SchemaDescriptor) ObjectFields(typeName string) ([]mockstore.FieldInfo, bool) {
	if d == nil || d.schema == nil {
		return nil, false
	}
	def := d.schema.GetType(typeName)
	if def == nil || def.Kind != ast.Object {
		return nil, false
	}

	fields := make([]mockstore.FieldInfo, 0, len(def.Fields))
	for _, f := range def.Fields {
		if strings.HasPrefix(f.Name, "__") {
			continue
		}
		name, list := graphql.NamedType(f.Type)
		info := mockstore.FieldInfo{
			Name:     f.Name,
			TypeName: name,
			List:     list,
			NonNull:  f.Type.NonNull,
		}
		switch {
		case d.schema.IsEnumType(name):
			info.Kind = mockstore.KindEnum
			info.EnumValues = d.schema.GetEnumValues(name)
		case d.schema.IsObjectType(name):
			info.Kind = mockstore.KindObject
		case d.schema.IsAbstractType(name):
			info.Kind = mockstore.KindAbstract
		default:
			info.Kind = mockstore.KindScalar
		}
		fields = append(fields, info)
	}
	return fields, true
}
