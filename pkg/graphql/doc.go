// Package graphql is the request gateway for mockstore: it parses GraphQL SDL
// schemas, executes operations against resolver functions, and serves them
// over HTTP.
//
// Fields with no registered resolver read the same-named key from their
// parent value, so resolvers only need to be registered for root fields that
// load data. Nested objects are walked according to the schema, including
// lists, fragments, aliases, and interfaces or unions (via "__typename").
//
// Basic usage:
//
//	schema, err := graphql.ParseSchema(`
//	    type Query {
//	        user(id: ID!): User
//	    }
//	    type User {
//	        id: ID!
//	        name: String!
//	    }
//	`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	exec := graphql.NewExecutor(schema, &graphql.GraphQLConfig{Introspection: true},
//	    graphql.WithResolvers(map[string]graphql.ResolverFunc{
//	        "Query.user": func(ctx context.Context, p graphql.ResolveParams) (interface{}, error) {
//	            return map[string]interface{}{"id": p.Args["id"], "name": "Ada"}, nil
//	        },
//	    }))
//
//	http.Handle("/graphql", graphql.NewHandler(exec, nil))
//
// A Plugin passed to NewHandler is told about every schema the handler
// installs and may swap in a different executor with SchemaChange.ReplaceSchema.
package graphql
