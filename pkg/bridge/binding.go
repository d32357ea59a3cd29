package bridge

import (
	"context"
	"fmt"

	"github.com/getmockd/mockstore/pkg/graphql"
	"github.com/getmockd/mockstore/pkg/mockstore"
	"github.com/ohler55/ojg/jp"
)

// Action is a store operation a Binding performs.
type Action string

// Binding actions.
const (
	ActionGet    Action = "get"
	ActionLookup Action = "lookup"
	ActionSet    Action = "set"
	ActionCreate Action = "create"
	ActionDelete Action = "delete"
)

// Default JSONPath expressions evaluated against field arguments.
const (
	DefaultIDPath    = "$.id"
	DefaultInputPath = "$.input"
)

// Binding describes a resolver declaratively. ID and Input are JSONPath
// expressions evaluated against the field's arguments.
type Binding struct {
	Action Action `json:"action" yaml:"action"`
	Type   string `json:"type" yaml:"type"`
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	Input  string `json:"input,omitempty" yaml:"input,omitempty"`
	Wrap   string `json:"wrap,omitempty" yaml:"wrap,omitempty"`
}

// Validate checks the binding without building a resolver.
func (bd Binding) Validate() error {
	if bd.Type == "" {
		return &mockstore.ValidationError{Field: "type", Message: "type is required"}
	}
	switch bd.Action {
	case ActionGet, ActionLookup, ActionSet, ActionCreate, ActionDelete:
	default:
		return &mockstore.ValidationError{
			Field:   "action",
			Message: fmt.Sprintf("unknown action %q (want get, lookup, set, create or delete)", bd.Action),
		}
	}
	for field, path := range map[string]string{"id": bd.ID, "input": bd.Input} {
		if path == "" {
			continue
		}
		if _, err := jp.ParseString(path); err != nil {
			return &mockstore.ValidationError{Field: field, Message: fmt.Sprintf("invalid JSONPath %q: %v", path, err)}
		}
	}
	return nil
}

// Bind builds a resolver for a binding.
func (b *Bridge) Bind(bd Binding) (graphql.ResolverFunc, error) {
	if err := bd.Validate(); err != nil {
		return nil, err
	}

	idPath, err := jp.ParseString(orDefault(bd.ID, DefaultIDPath))
	if err != nil {
		return nil, fmt.Errorf("parse id path: %w", err)
	}
	inputPath, err := jp.ParseString(orDefault(bd.Input, DefaultInputPath))
	if err != nil {
		return nil, fmt.Errorf("parse input path: %w", err)
	}

	extractID := func(args map[string]interface{}) (string, bool) {
		return idValue(first(idPath.Get(args)))
	}
	extractInput := func(args map[string]interface{}) (mockstore.Record, error) {
		return inputValue(first(inputPath.Get(args)), bd.Input)
	}

	switch bd.Action {
	case ActionGet, ActionLookup:
		lookup := bd.Action == ActionLookup || b.lookup
		return func(ctx context.Context, p graphql.ResolveParams) (interface{}, error) {
			id, ok := extractID(p.Args)
			if !ok {
				return nil, nil
			}
			rec, err := b.read(bd.Type, id, lookup)
			if err != nil || rec == nil {
				return nil, err
			}
			return wrap(bd.Wrap, rec), nil
		}, nil

	case ActionSet:
		return func(ctx context.Context, p graphql.ResolveParams) (interface{}, error) {
			id, ok := extractID(p.Args)
			if !ok {
				return nil, &mockstore.ValidationError{Field: "id", Message: "id argument is required"}
			}
			input, err := extractInput(p.Args)
			if err != nil {
				return nil, err
			}
			rec, err := b.write(bd.Type, id, input)
			if err != nil {
				return nil, err
			}
			return wrap(bd.Wrap, rec), nil
		}, nil

	case ActionCreate:
		return func(ctx context.Context, p graphql.ResolveParams) (interface{}, error) {
			input, err := extractInput(p.Args)
			if err != nil {
				return nil, err
			}
			rec, err := b.store.Create(bd.Type, input)
			if err != nil {
				return nil, err
			}
			return wrap(bd.Wrap, withTypename(rec, bd.Type)), nil
		}, nil

	default: // ActionDelete
		return func(ctx context.Context, p graphql.ResolveParams) (interface{}, error) {
			id, ok := extractID(p.Args)
			if !ok {
				return nil, &mockstore.ValidationError{Field: "id", Message: "id argument is required"}
			}
			if err := b.store.Delete(bd.Type, id); err != nil {
				return nil, err
			}
			return wrap(bd.Wrap, true), nil
		}, nil
	}
}

// BindAll builds resolvers for bindings keyed by field path ("Query.user").
func (b *Bridge) BindAll(bindings map[string]Binding) (map[string]graphql.ResolverFunc, error) {
	out := make(map[string]graphql.ResolverFunc, len(bindings))
	for path, bd := range bindings {
		fn, err := b.Bind(bd)
		if err != nil {
			return nil, fmt.Errorf("resolver %s: %w", path, err)
		}
		out[path] = fn
	}
	return out, nil
}

func first(results []interface{}) interface{} {
	if len(results) == 0 {
		return nil
	}
	return results[0]
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
