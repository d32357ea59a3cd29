package graphql

import (
	"context"
	"errors"
	"sort"

	"github.com/vektah/gqlparser/v2/ast"
)

// introspection holds the schema rendered as plain maps shaped like the
// __Schema and __Type introspection types. Named type references share the
// same map, so the graph may be cyclic; the executor only walks what the
// query selects.
type introspection struct {
	schema map[string]interface{}
	types  map[string]map[string]interface{}
}

var errIntrospectionDisabled = errors.New("introspection is disabled")

func (e *Executor) introspectionEnabled() bool {
	return e.config == nil || e.config.Introspection
}

func (e *Executor) introspectionResolver(fieldName string) ResolverFunc {
	switch fieldName {
	case "__schema":
		return func(ctx context.Context, p ResolveParams) (interface{}, error) {
			if !e.introspectionEnabled() {
				return nil, errIntrospectionDisabled
			}
			return e.introspection().schema, nil
		}
	case "__type":
		return func(ctx context.Context, p ResolveParams) (interface{}, error) {
			if !e.introspectionEnabled() {
				return nil, errIntrospectionDisabled
			}
			name, _ := p.Args["name"].(string)
			t, ok := e.introspection().types[name]
			if !ok {
				return nil, nil
			}
			return t, nil
		}
	}
	return nil
}

func (e *Executor) introspection() *introspection {
	e.introOnce.Do(func() {
		e.intro = buildIntrospection(e.schema.AST())
	})
	return e.intro
}

func buildIntrospection(s *ast.Schema) *introspection {
	in := &introspection{types: make(map[string]map[string]interface{}, len(s.Types))}

	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
		in.types[name] = make(map[string]interface{})
	}
	sort.Strings(names)

	for _, name := range names {
		in.fillType(s, s.Types[name])
	}

	typeList := make([]interface{}, 0, len(names))
	for _, name := range names {
		typeList = append(typeList, in.types[name])
	}

	dirNames := make([]string, 0, len(s.Directives))
	for name := range s.Directives {
		dirNames = append(dirNames, name)
	}
	sort.Strings(dirNames)
	directives := make([]interface{}, 0, len(dirNames))
	for _, name := range dirNames {
		d := s.Directives[name]
		locs := make([]interface{}, 0, len(d.Locations))
		for _, l := range d.Locations {
			locs = append(locs, string(l))
		}
		directives = append(directives, map[string]interface{}{
			"name":         d.Name,
			"description":  optional(d.Description),
			"locations":    locs,
			"args":         in.inputValues(d.Arguments),
			"isRepeatable": d.IsRepeatable,
		})
	}

	in.schema = map[string]interface{}{
		"description":      optional(s.Description),
		"types":            typeList,
		"queryType":        in.named(s.Query),
		"mutationType":     in.named(s.Mutation),
		"subscriptionType": in.named(s.Subscription),
		"directives":       directives,
	}
	return in
}

func (in *introspection) named(def *ast.Definition) interface{} {
	if def == nil {
		return nil
	}
	return in.types[def.Name]
}

func (in *introspection) fillType(s *ast.Schema, def *ast.Definition) {
	t := in.types[def.Name]
	t["kind"] = string(def.Kind)
	t["name"] = def.Name
	t["description"] = optional(def.Description)
	t["specifiedByURL"] = nil
	t["ofType"] = nil
	t["fields"] = nil
	t["interfaces"] = nil
	t["possibleTypes"] = nil
	t["enumValues"] = nil
	t["inputFields"] = nil

	switch def.Kind {
	case ast.Object, ast.Interface:
		fields := make([]interface{}, 0, len(def.Fields))
		for _, f := range def.Fields {
			if isIntrospectionField(f.Name) {
				continue
			}
			deprecated, reason := deprecation(f.Directives)
			fields = append(fields, map[string]interface{}{
				"name":              f.Name,
				"description":       optional(f.Description),
				"args":              in.inputValues(f.Arguments),
				"type":              in.typeRef(f.Type),
				"isDeprecated":      deprecated,
				"deprecationReason": reason,
			})
		}
		t["fields"] = fields

		ifaces := make([]interface{}, 0, len(def.Interfaces))
		for _, name := range def.Interfaces {
			if it, ok := in.types[name]; ok {
				ifaces = append(ifaces, it)
			}
		}
		t["interfaces"] = ifaces

		if def.Kind == ast.Interface {
			t["possibleTypes"] = in.possibleTypes(s, def)
		}

	case ast.Union:
		t["possibleTypes"] = in.possibleTypes(s, def)

	case ast.Enum:
		values := make([]interface{}, 0, len(def.EnumValues))
		for _, v := range def.EnumValues {
			deprecated, reason := deprecation(v.Directives)
			values = append(values, map[string]interface{}{
				"name":              v.Name,
				"description":       optional(v.Description),
				"isDeprecated":      deprecated,
				"deprecationReason": reason,
			})
		}
		t["enumValues"] = values

	case ast.InputObject:
		inputs := make([]interface{}, 0, len(def.Fields))
		for _, f := range def.Fields {
			inputs = append(inputs, in.inputValue(f.Name, f.Description, f.Type, f.DefaultValue))
		}
		t["inputFields"] = inputs
	}
}

func (in *introspection) possibleTypes(s *ast.Schema, def *ast.Definition) []interface{} {
	possible := s.GetPossibleTypes(def)
	names := make([]string, 0, len(possible))
	for _, p := range possible {
		names = append(names, p.Name)
	}
	sort.Strings(names)

	out := make([]interface{}, 0, len(names))
	for _, name := range names {
		out = append(out, in.types[name])
	}
	return out
}

func (in *introspection) inputValues(args ast.ArgumentDefinitionList) []interface{} {
	out := make([]interface{}, 0, len(args))
	for _, a := range args {
		out = append(out, in.inputValue(a.Name, a.Description, a.Type, a.DefaultValue))
	}
	return out
}

func (in *introspection) inputValue(name, description string, typ *ast.Type, def *ast.Value) map[string]interface{} {
	var defaultValue interface{}
	if def != nil {
		defaultValue = def.String()
	}
	return map[string]interface{}{
		"name":         name,
		"description":  optional(description),
		"type":         in.typeRef(typ),
		"defaultValue": defaultValue,
	}
}

// typeRef renders a possibly wrapped type as nested NON_NULL/LIST refs
// ending in the shared named type map.
func (in *introspection) typeRef(t *ast.Type) interface{} {
	if t == nil {
		return nil
	}
	if t.NonNull {
		inner := *t
		inner.NonNull = false
		return wrapperRef("NON_NULL", in.typeRef(&inner))
	}
	if t.Elem != nil {
		return wrapperRef("LIST", in.typeRef(t.Elem))
	}
	if named, ok := in.types[t.NamedType]; ok {
		return named
	}
	return nil
}

func wrapperRef(kind string, ofType interface{}) map[string]interface{} {
	return map[string]interface{}{
		"kind":           kind,
		"name":           nil,
		"description":    nil,
		"specifiedByURL": nil,
		"fields":         nil,
		"interfaces":     nil,
		"possibleTypes":  nil,
		"enumValues":     nil,
		"inputFields":    nil,
		"ofType":         ofType,
	}
}

func deprecation(directives ast.DirectiveList) (bool, interface{}) {
	d := directives.ForName("deprecated")
	if d == nil {
		return false, nil
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return true, arg.Value.Raw
	}
	return true, "No longer supported"
}

func optional(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
