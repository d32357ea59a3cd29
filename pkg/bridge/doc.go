// Package bridge turns GraphQL field resolution into mock store operations.
//
// A Bridge owns no state of its own; it is constructed around a
// *mockstore.Store and hands out graphql.ResolverFunc values that read and
// write that store:
//
//	store := mockstore.New(mockstore.WithRegistry(reg))
//	b := bridge.New(store)
//
//	exec := graphql.NewExecutor(schema, cfg,
//	    graphql.WithResolvers(map[string]graphql.ResolverFunc{
//	        "Query.user":          b.Query("User", "id"),
//	        "Mutation.updateUser": b.Mutation("User", "id", "input", "user"),
//	    }),
//	    graphql.WithValueHook(b.ResolveValue))
//
// ResolveValue dereferences mockstore.Ref values so nested entities are read
// through the same store as root fields.
package bridge
