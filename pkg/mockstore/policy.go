package mockstore

import (
	"fmt"
	"strings"

	"github.com/getmockd/mockstore/internal/id"
)

// FieldPolicy decides what happens to schema fields a generator leaves unset.
type FieldPolicy int

// Field policies.
const (
	// FieldPolicyNull stores nil for unset fields.
	FieldPolicyNull FieldPolicy = iota
	// FieldPolicyDefault stores a schema-derived default value.
	FieldPolicyDefault
	// FieldPolicyError fails generation with a *MissingFieldError.
	FieldPolicyError
)

func (p FieldPolicy) String() string {
	switch p {
	case FieldPolicyDefault:
		return "default"
	case FieldPolicyError:
		return "error"
	default:
		return "null"
	}
}

// ParseFieldPolicy parses "null", "default" or "error". Empty means null.
func ParseFieldPolicy(s string) (FieldPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "null":
		return FieldPolicyNull, nil
	case "default":
		return FieldPolicyDefault, nil
	case "error":
		return FieldPolicyError, nil
	default:
		return FieldPolicyNull, &ValidationError{
			Field:   "fieldPolicy",
			Message: fmt.Sprintf("unknown field policy %q (want null, default or error)", s),
		}
	}
}

// Default scalar values, matching the conventional GraphQL mock defaults.
const (
	DefaultString = "Hello World"
	DefaultInt    = 42
	DefaultFloat  = 4.2
)

// scalarDefault returns the default for a built-in scalar, or nil for
// custom scalars whose shape is unknown.
func scalarDefault(typeName string) interface{} {
	switch typeName {
	case "String":
		return DefaultString
	case "Int":
		return DefaultInt
	case "Float":
		return DefaultFloat
	case "Boolean":
		return true
	case "ID":
		return id.UUID()
	default:
		return nil
	}
}

// defaultValue builds a value for an unset field under FieldPolicyDefault.
// Object fields become Refs when the store can generate the target type.
func (s *Store) defaultValue(f FieldInfo) interface{} {
	single := func() interface{} {
		switch f.Kind {
		case KindScalar:
			return scalarDefault(f.TypeName)
		case KindEnum:
			if len(f.EnumValues) > 0 {
				return f.EnumValues[0]
			}
			return nil
		case KindObject:
			if s.canGenerate(f.TypeName) {
				return Ref{TypeName: f.TypeName, ID: id.UUID()}
			}
			return nil
		default:
			return nil
		}
	}

	if !f.List {
		return single()
	}

	first := single()
	if first == nil {
		return []interface{}{}
	}
	return []interface{}{first, single()}
}

// complete applies policy to every schema field missing from rec.
func (s *Store) complete(key Key, rec Record, policy FieldPolicy) error {
	if s.schema == nil {
		return nil
	}
	fields, ok := s.schema.ObjectFields(key.TypeName)
	if !ok {
		return nil
	}

	for _, f := range fields {
		if strings.HasPrefix(f.Name, "__") {
			continue
		}
		if _, present := rec[f.Name]; present {
			continue
		}
		switch policy {
		case FieldPolicyError:
			return &MissingFieldError{TypeName: key.TypeName, ID: key.ID, Field: f.Name}
		case FieldPolicyDefault:
			rec[f.Name] = s.defaultValue(f)
		default:
			rec[f.Name] = nil
		}
	}
	return nil
}
