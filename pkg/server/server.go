package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/getmockd/mockstore/pkg/bridge"
	"github.com/getmockd/mockstore/pkg/config"
	"github.com/getmockd/mockstore/pkg/graphql"
	"github.com/getmockd/mockstore/pkg/logging"
	"github.com/getmockd/mockstore/pkg/mockstore"
	"golang.org/x/sync/errgroup"
)

// PluginFactory builds a gateway plugin once the bridge exists, so plugins
// can bind resolvers to the store.
type PluginFactory func(b *bridge.Bridge) graphql.Plugin

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to a logger built from the config's
// logging section.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPlugins registers gateway plugins.
func WithPlugins(factories ...PluginFactory) Option {
	return func(s *Server) {
		s.plugins = append(s.plugins, factories...)
	}
}

// WithGenerators registers generators in addition to the config-defined
// mocks. They take precedence over mocks of the same type.
func WithGenerators(gens map[string]mockstore.Generator) Option {
	return func(s *Server) {
		if s.extraGens == nil {
			s.extraGens = make(map[string]mockstore.Generator, len(gens))
		}
		for name, gen := range gens {
			s.extraGens[name] = gen
		}
	}
}

// Server is a configured mockstore instance.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	plugins   []PluginFactory
	extraGens map[string]mockstore.Generator

	schema  *graphql.Schema
	store   *mockstore.Store
	metrics *mockstore.MetricsObserver
	bridge  *bridge.Bridge
	gateway *graphql.Handler
	mux     *http.ServeMux

	startedAt time.Time
}

// New builds a Server from a validated configuration.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	cfg.ApplyDefaults()

	s := &Server{cfg: cfg, startedAt: time.Now()}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.FromStrings(cfg.Logging.Level, cfg.Logging.Format, nil)
	}

	if err := s.loadSchema(); err != nil {
		return nil, err
	}
	registry, err := s.buildRegistry()
	if err != nil {
		return nil, err
	}
	policy, err := mockstore.ParseFieldPolicy(cfg.Store.FieldPolicy)
	if err != nil {
		return nil, err
	}

	s.metrics = mockstore.NewMetricsObserver()
	s.store = mockstore.New(
		mockstore.WithRegistry(registry),
		mockstore.WithSchema(bridge.Describe(s.schema)),
		mockstore.WithFieldPolicy(policy),
		mockstore.WithKeyField(cfg.Store.KeyField),
		mockstore.WithAutoMock(cfg.Store.AutoMock),
		mockstore.WithObserver(s.metrics),
		mockstore.WithLogger(s.logger.With("component", "store")),
	)
	s.bridge = bridge.New(s.store,
		bridge.WithLookup(cfg.Store.Lookup),
		bridge.WithLogger(s.logger.With("component", "bridge")),
	)

	resolvers, err := s.bindResolvers()
	if err != nil {
		return nil, err
	}

	gqlCfg := &graphql.GraphQLConfig{
		ID:            "mockstore",
		Name:          "mockstore",
		Path:          cfg.Server.Path,
		SchemaFile:    cfg.SchemaFile,
		Introspection: cfg.Server.IntrospectionEnabled(),
	}
	exec := graphql.NewExecutor(s.schema, gqlCfg,
		graphql.WithResolvers(resolvers),
		graphql.WithValueHook(s.bridge.ResolveValue),
		graphql.WithExecutorLogger(s.logger.With("component", "executor")),
	)

	plugins := make([]graphql.Plugin, 0, len(s.plugins))
	for _, factory := range s.plugins {
		if p := factory(s.bridge); p != nil {
			plugins = append(plugins, p)
		}
	}
	s.gateway = graphql.NewHandler(exec, gqlCfg, plugins...)
	s.gateway.SetLogger(s.logger.With("component", "gateway"))

	s.mux = s.routes()

	s.logger.Info("mockstore configured",
		"path", s.gateway.Pattern(),
		"generators", len(registry.Types()),
		"resolvers", len(resolvers),
		"fieldPolicy", policy.String(),
		"autoMock", cfg.Store.AutoMock)
	return s, nil
}

func (s *Server) loadSchema() error {
	var err error
	switch {
	case s.cfg.Schema != "":
		s.schema, err = graphql.ParseSchema(s.cfg.Schema)
	case s.cfg.SchemaFile != "":
		s.schema, err = graphql.ParseSchemaFile(s.cfg.SchemaFile)
	default:
		return errors.New("either schema or schemaFile must be provided")
	}
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}
	return s.schema.Validate()
}

func (s *Server) buildRegistry() (*mockstore.Registry, error) {
	registry := mockstore.NewRegistry()
	for _, name := range sortedNames(s.cfg.Mocks) {
		if s.extraGens[name] != nil {
			continue
		}
		if !s.schema.IsObjectType(name) {
			return nil, fmt.Errorf("mocks.%s: %q is not an object type in the schema", name, name)
		}
		mc := s.cfg.Mocks[name]
		gen, err := bridge.TemplateGenerator(mc.Fields, mc.Computed)
		if err != nil {
			return nil, fmt.Errorf("mocks.%s: %w", name, err)
		}
		if err := registry.Register(name, gen); err != nil {
			return nil, fmt.Errorf("mocks.%s: %w", name, err)
		}
	}
	for _, name := range sortedNames(s.extraGens) {
		if err := registry.Register(name, s.extraGens[name]); err != nil {
			return nil, fmt.Errorf("generator %s: %w", name, err)
		}
	}
	return registry, nil
}

// bindResolvers checks every binding against the schema before building
// resolvers for them.
func (s *Server) bindResolvers() (map[string]graphql.ResolverFunc, error) {
	bindings := make(map[string]bridge.Binding, len(s.cfg.Resolvers))
	for _, path := range sortedNames(s.cfg.Resolvers) {
		rc := s.cfg.Resolvers[path]
		fp := graphql.ParseFieldPath(path)
		if s.schema.GetField(fp.TypeName, fp.FieldName) == nil {
			return nil, fmt.Errorf("resolvers.%s: field not found in schema", path)
		}
		if !s.schema.IsObjectType(rc.Type) {
			return nil, fmt.Errorf("resolvers.%s: %q is not an object type in the schema", path, rc.Type)
		}
		bindings[path] = bridge.Binding{
			Action: bridge.Action(rc.Action),
			Type:   rc.Type,
			ID:     rc.ID,
			Input:  rc.Input,
			Wrap:   rc.Wrap,
		}
	}
	return s.bridge.BindAll(bindings)
}

// Config returns the configuration the server was built from.
func (s *Server) Config() *config.Config { return s.cfg }

// Schema returns the parsed GraphQL schema.
func (s *Server) Schema() *graphql.Schema { return s.schema }

// Store returns the mock store.
func (s *Server) Store() *mockstore.Store { return s.store }

// Bridge returns the resolver bridge.
func (s *Server) Bridge() *bridge.Bridge { return s.bridge }

// Gateway returns the GraphQL handler.
func (s *Server) Gateway() *graphql.Handler { return s.gateway }

// Metrics returns a snapshot of the store counters.
func (s *Server) Metrics() mockstore.MetricsSnapshot { return s.metrics.Snapshot() }

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler { return s.mux }

// Execute runs a single GraphQL request in-process.
func (s *Server) Execute(ctx context.Context, req *graphql.GraphQLRequest) *graphql.GraphQLResponse {
	return s.gateway.Executor().Execute(ctx, req)
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully
// within the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("mockstore listening", "addr", ln.Addr().String(), "path", s.gateway.Pattern())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeoutDuration())
		defer cancel()
		s.logger.Info("shutting down", "timeout", s.cfg.Server.ShutdownTimeoutDuration())
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
