// Package server assembles a mockstore instance from a configuration file:
// the GraphQL schema, the mock store with its config-defined generators, the
// resolver bindings and the HTTP gateway that serves them.
//
// Besides the GraphQL endpoint the server exposes a small control surface:
//
//	GET  /healthz             liveness probe
//	GET  /__mockstore/state   store overview and operation counters
//	POST /__mockstore/reset   drop every stored record
package server
