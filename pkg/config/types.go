package config

import "time"

// Defaults applied by ApplyDefaults.
const (
	DefaultVersion         = "1.0"
	DefaultAddr            = ":4280"
	DefaultPath            = "/graphql"
	DefaultKeyField        = "id"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultShutdownTimeout = 5 * time.Second
)

// Config is the root of a mockstore configuration file.
type Config struct {
	// Version is the config format version ("1.0").
	Version string `json:"version" yaml:"version"`
	// Schema is an inline GraphQL SDL schema.
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
	// SchemaFile is a path to a GraphQL SDL file, relative to the config file.
	SchemaFile string `json:"schemaFile,omitempty" yaml:"schemaFile,omitempty"`

	Server  ServerConfig  `json:"server" yaml:"server"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Mocks maps type names to config-defined generators.
	Mocks map[string]MockConfig `json:"mocks,omitempty" yaml:"mocks,omitempty"`
	// Resolvers maps field paths ("Query.user") to store bindings.
	Resolvers map[string]ResolverConfig `json:"resolvers,omitempty" yaml:"resolvers,omitempty"`
}

// ServerConfig configures the HTTP gateway.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
	// Path is the GraphQL endpoint path.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// Introspection enables __schema and __type. Defaults to true.
	Introspection *bool `json:"introspection,omitempty" yaml:"introspection,omitempty"`
	// ShutdownTimeout bounds graceful shutdown, as a Go duration string.
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`
}

// IntrospectionEnabled reports whether introspection is on.
func (s ServerConfig) IntrospectionEnabled() bool {
	return s.Introspection == nil || *s.Introspection
}

// ShutdownTimeoutDuration returns the parsed shutdown timeout, falling back
// to DefaultShutdownTimeout.
func (s ServerConfig) ShutdownTimeoutDuration() time.Duration {
	if s.ShutdownTimeout == "" {
		return DefaultShutdownTimeout
	}
	d, err := time.ParseDuration(s.ShutdownTimeout)
	if err != nil || d <= 0 {
		return DefaultShutdownTimeout
	}
	return d
}

// StoreConfig configures the mock store.
type StoreConfig struct {
	// KeyField is the record field carrying the entity id.
	KeyField string `json:"keyField,omitempty" yaml:"keyField,omitempty"`
	// FieldPolicy is "null", "default" or "error".
	FieldPolicy string `json:"fieldPolicy,omitempty" yaml:"fieldPolicy,omitempty"`
	// AutoMock generates schema types that have no configured mock.
	AutoMock bool `json:"autoMock,omitempty" yaml:"autoMock,omitempty"`
	// Lookup makes "get" resolvers return null for unseen ids.
	Lookup bool `json:"lookup,omitempty" yaml:"lookup,omitempty"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// MockConfig defines a generator for one type.
type MockConfig struct {
	// Fields are copied into every generated record.
	Fields map[string]interface{} `json:"fields,omitempty" yaml:"fields,omitempty"`
	// Computed maps field names to expressions evaluated per record.
	Computed map[string]string `json:"computed,omitempty" yaml:"computed,omitempty"`
}

// ResolverConfig binds a schema field to a store operation.
type ResolverConfig struct {
	// Action is get, lookup, set, create or delete.
	Action string `json:"action" yaml:"action"`
	// Type is the store type name.
	Type string `json:"type" yaml:"type"`
	// ID is a JSONPath into the field arguments. Defaults to $.id.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`
	// Input is a JSONPath into the field arguments. Defaults to $.input.
	Input string `json:"input,omitempty" yaml:"input,omitempty"`
	// Wrap nests the result under this field name.
	Wrap string `json:"wrap,omitempty" yaml:"wrap,omitempty"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.Path == "" {
		c.Server.Path = DefaultPath
	}
	if c.Store.KeyField == "" {
		c.Store.KeyField = DefaultKeyField
	}
	if c.Store.FieldPolicy == "" {
		c.Store.FieldPolicy = "null"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}
