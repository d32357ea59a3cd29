package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/getmockd/mockstore/pkg/graphql"
	"github.com/getmockd/mockstore/pkg/logging"
	"github.com/getmockd/mockstore/pkg/mockstore"
)

// Bridge maps GraphQL resolvers onto a mock store.
type Bridge struct {
	store  *mockstore.Store
	lookup bool
	logger *slog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLookup makes query resolvers return null for ids that have never been
// generated or set, instead of generating them.
func WithLookup(enabled bool) Option {
	return func(b *Bridge) {
		b.lookup = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a Bridge over store.
func New(store *mockstore.Store, opts ...Option) *Bridge {
	b := &Bridge{
		store:  store,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Store returns the underlying store.
func (b *Bridge) Store() *mockstore.Store {
	return b.store
}

// Query returns a resolver that reads typeName by the id found in argument
// idArg. A missing or null id resolves to null.
func (b *Bridge) Query(typeName, idArg string) graphql.ResolverFunc {
	return func(ctx context.Context, p graphql.ResolveParams) (interface{}, error) {
		id, ok := idValue(p.Args[idArg])
		if !ok {
			return nil, nil
		}
		return b.read(typeName, id, b.lookup)
	}
}

// Lookup is Query that never generates: absent ids resolve to null.
func (b *Bridge) Lookup(typeName, idArg string) graphql.ResolverFunc {
	return func(ctx context.Context, p graphql.ResolveParams) (interface{}, error) {
		id, ok := idValue(p.Args[idArg])
		if !ok {
			return nil, nil
		}
		return b.read(typeName, id, true)
	}
}

// Mutation returns a resolver that merges argument inputArg into the record
// named by idArg and returns the post-write record. When payloadField is set
// the record is wrapped as {payloadField: record}.
func (b *Bridge) Mutation(typeName, idArg, inputArg, payloadField string) graphql.ResolverFunc {
	return func(ctx context.Context, p graphql.ResolveParams) (interface{}, error) {
		id, ok := idValue(p.Args[idArg])
		if !ok {
			return nil, &mockstore.ValidationError{Field: idArg, Message: "id argument is required"}
		}
		input, err := inputValue(p.Args[inputArg], inputArg)
		if err != nil {
			return nil, err
		}

		rec, err := b.write(typeName, id, input)
		if err != nil {
			return nil, err
		}
		return wrap(payloadField, rec), nil
	}
}

// ResolveValue dereferences mockstore.Ref values through the store. Other
// values pass through unchanged. It is meant to be installed with
// graphql.WithValueHook.
func (b *Bridge) ResolveValue(ctx context.Context, v interface{}) (interface{}, error) {
	var ref mockstore.Ref
	switch val := v.(type) {
	case mockstore.Ref:
		ref = val
	case *mockstore.Ref:
		if val == nil {
			return nil, nil
		}
		ref = *val
	default:
		return v, nil
	}
	return b.read(ref.TypeName, ref.ID, false)
}

func (b *Bridge) read(typeName, id string, lookup bool) (interface{}, error) {
	if lookup && !b.store.Has(typeName, id) {
		b.logger.Debug("lookup miss", "type", typeName, "id", id)
		return nil, nil
	}
	rec, err := b.store.Get(typeName, id)
	if err != nil {
		return nil, err
	}
	return withTypename(rec, typeName), nil
}

func (b *Bridge) write(typeName, id string, input mockstore.Record) (mockstore.Record, error) {
	if err := b.store.Set(typeName, id, input); err != nil {
		return nil, err
	}
	rec, err := b.store.Get(typeName, id)
	if err != nil {
		return nil, err
	}
	return withTypename(rec, typeName), nil
}

// withTypename tags a record with its type so interface and union fields
// can resolve their concrete type.
func withTypename(rec mockstore.Record, typeName string) mockstore.Record {
	if rec == nil {
		return nil
	}
	if _, ok := rec["__typename"]; !ok {
		rec["__typename"] = typeName
	}
	return rec
}

func wrap(field string, v interface{}) interface{} {
	if field == "" {
		return v
	}
	return map[string]interface{}{field: v}
}

// idValue converts an id argument to its string form.
func idValue(v interface{}) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val)), true
		}
		return fmt.Sprint(val), true
	default:
		return fmt.Sprint(val), true
	}
}

// inputValue converts an input argument to a record. A missing input is an
// empty record.
func inputValue(v interface{}, name string) (mockstore.Record, error) {
	switch val := v.(type) {
	case nil:
		return mockstore.Record{}, nil
	case map[string]interface{}:
		return mockstore.Record(val), nil
	case mockstore.Record:
		return val, nil
	default:
		return nil, &mockstore.ValidationError{
			Field:   name,
			Message: fmt.Sprintf("input must be an object, got %T", v),
		}
	}
}
