package graphql

// Plugin observes the schema a Handler serves and may replace the executor
// used for subsequent requests.
type Plugin interface {
	OnSchemaChange(change *SchemaChange)
}

// PluginFunc adapts a function to the Plugin interface.
type PluginFunc func(change *SchemaChange)

// OnSchemaChange calls f(change).
func (f PluginFunc) OnSchemaChange(change *SchemaChange) {
	f(change)
}

// SchemaChange describes the schema a Handler is about to serve.
type SchemaChange struct {
	// Schema is the schema being installed.
	Schema *Schema
	// Executor is the executor being installed.
	Executor *Executor

	replace func(*Executor)
}

// ReplaceSchema swaps the executor the handler serves requests with.
// Later plugins observe the replacement through Schema and Executor.
func (c *SchemaChange) ReplaceSchema(exec *Executor) {
	if exec == nil {
		return
	}
	c.Schema = exec.Schema()
	c.Executor = exec
	if c.replace != nil {
		c.replace(exec)
	}
}
