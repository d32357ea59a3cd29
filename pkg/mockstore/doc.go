// Package mockstore provides a deterministic, schema-aware mock value store
// for backing GraphQL resolvers.
//
// Records are keyed by (type name, entity id). The first read of a key runs
// the generator registered for its type and persists the result; later reads
// return the same values until a Set merges new fields into the record.
//
// Core Types:
//
//   - Registry: per-type Generator lookup table
//   - Store: keyed record storage with get/set/has/reset semantics
//   - Record: field name to value mapping for one entity
//   - Ref: a lazy reference to another entity, resolved through the store
//
// Usage:
//
//	registry := mockstore.NewRegistry()
//	registry.MustRegister("User", func(ctx mockstore.GenerateContext) mockstore.Record {
//	    return mockstore.Record{"id": ctx.ID, "name": "New User", "email": nil}
//	})
//
//	store := mockstore.New(mockstore.WithRegistry(registry))
//	user, err := store.Get("User", "1")
//	err = store.Set("User", "1", mockstore.Record{"email": "x@y.com"})
//
// Thread Safety:
//
// Store and Registry are safe for concurrent use. Concurrent writers to the
// same key are serialized and the last write wins; there is no isolation
// between requests sharing one store. Use one Store per test or session when
// isolation matters.
package mockstore
