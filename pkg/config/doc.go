// Package config loads mockstore configuration files.
//
// A configuration names the GraphQL schema to serve, how the mock store
// behaves, which types get config-defined generators, and which root fields
// are bound to store operations:
//
//	version: "1.0"
//	schemaFile: schema.graphql
//	server:
//	  addr: ":4280"
//	  path: /graphql
//	store:
//	  keyField: id
//	  fieldPolicy: "null"   # null, default or error
//	mocks:
//	  User:
//	    fields: {name: New User, email: null}
//	    computed: {handle: "'@user' + id"}
//	resolvers:
//	  Query.user: {action: get, type: User, id: $.id}
//	  Mutation.updateUser: {action: set, type: User, id: $.id, input: $.input, wrap: user}
//
// Files may be YAML or JSON. ${VAR} and ${VAR:-default} references are
// expanded from the environment before parsing. Every file is checked against
// an embedded JSON Schema and then by Validate.
package config
