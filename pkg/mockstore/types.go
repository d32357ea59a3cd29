package mockstore

import "fmt"

// DefaultKeyField is the record field that carries the entity id.
const DefaultKeyField = "id"

// Key identifies one record in the store.
type Key struct {
	TypeName string `json:"typeName"`
	ID       string `json:"id"`
}

// String returns the key as "TypeName:ID".
func (k Key) String() string {
	return k.TypeName + ":" + k.ID
}

// Record maps field names to values: scalars, nil, lists, nested maps or Refs.
type Record map[string]interface{}

// Clone returns a deep copy of the record's maps and slices.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case Record:
		return val.Clone()
	case map[string]interface{}:
		return map[string]interface{}(Record(val).Clone())
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []Ref:
		out := make([]Ref, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}

// Ref points at another entity. Resolvers dereference it with Store.Get so
// nested objects stay consistent with the entity's own record.
type Ref struct {
	TypeName string `json:"typeName"`
	ID       string `json:"id"`
}

// Key returns the store key for the referenced entity.
func (r Ref) Key() Key {
	return Key(r)
}

func (r Ref) String() string {
	return fmt.Sprintf("ref(%s:%s)", r.TypeName, r.ID)
}

// GenerateContext is passed to a Generator when a new record is created.
type GenerateContext struct {
	// TypeName is the type being generated.
	TypeName string
	// ID is the requested entity id. Generators should echo it in the key field.
	ID string
}

// Generator produces the initial field values for a new entity.
// Generators receive no store access and must not depend on other records.
type Generator func(ctx GenerateContext) Record

// FieldKind classifies a schema field's named type.
type FieldKind int

// Field kinds.
const (
	KindScalar FieldKind = iota
	KindEnum
	KindObject
	KindAbstract
)

// FieldInfo describes one field of an object type.
type FieldInfo struct {
	Name       string
	TypeName   string
	Kind       FieldKind
	List       bool
	NonNull    bool
	EnumValues []string
}

// SchemaDescriptor gives the store read access to object type fields.
// ObjectFields returns false for names that are not object types.
type SchemaDescriptor interface {
	ObjectFields(typeName string) ([]FieldInfo, bool)
}

// Overview summarizes store contents.
type Overview struct {
	// Records is the total number of stored records
	Records int `json:"records"`
	// Types maps type names to their record counts
	Types map[string]int `json:"types"`
	// TypeList contains the registered generator type names
	TypeList []string `json:"typeList"`
}
