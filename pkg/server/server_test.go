package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/getmockd/mockstore/pkg/bridge"
	"github.com/getmockd/mockstore/pkg/config"
	"github.com/getmockd/mockstore/pkg/graphql"
	"github.com/getmockd/mockstore/pkg/logging"
	"github.com/getmockd/mockstore/pkg/mockstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	userQuery = `query ($id: ID!) { user(id: $id) { id name email } }`

	updateMutation = `mutation ($id: ID!, $input: UpdateUserInput!) {
		updateUser(id: $id, input: $input) { user { id name email } }
	}`
)

func newTestServer(t *testing.T, cfg *config.Config, opts ...Option) *Server {
	t.Helper()
	opts = append([]Option{WithLogger(logging.Nop())}, opts...)
	srv, err := New(cfg, opts...)
	require.NoError(t, err)
	return srv
}

func postGraphQL(t *testing.T, h http.Handler, query string, vars map[string]interface{}) map[string]interface{} {
	t.Helper()
	body, err := json.Marshal(graphql.GraphQLRequest{Query: query, Variables: vars})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func userFrom(t *testing.T, resp map[string]interface{}) map[string]interface{} {
	t.Helper()
	require.Nil(t, resp["errors"])
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "missing data: %v", resp)
	user, ok := data["user"].(map[string]interface{})
	require.True(t, ok, "missing user: %v", data)
	return user
}

// ============================================================================
// End-to-end flows
// ============================================================================

func TestServer_QueryMutateQuery(t *testing.T) {
	srv := newTestServer(t, config.Example())
	h := srv.Handler()
	vars := map[string]interface{}{"id": "1"}
	initial := map[string]interface{}{"id": "1", "name": "New User", "email": nil}

	assert.Equal(t, initial, userFrom(t, postGraphQL(t, h, userQuery, vars)))
	assert.Equal(t, initial, userFrom(t, postGraphQL(t, h, userQuery, vars)))

	resp := postGraphQL(t, h, updateMutation, map[string]interface{}{
		"id":    "1",
		"input": map[string]interface{}{"name": "Updated User", "email": "updated@user.com"},
	})
	require.Nil(t, resp["errors"])
	payload := resp["data"].(map[string]interface{})["updateUser"].(map[string]interface{})
	updated := map[string]interface{}{"id": "1", "name": "Updated User", "email": "updated@user.com"}
	assert.Equal(t, updated, payload["user"])

	assert.Equal(t, updated, userFrom(t, postGraphQL(t, h, userQuery, vars)))

	snap := srv.Metrics()
	assert.Equal(t, int64(1), snap.GenerateCount)
	assert.Equal(t, int64(1), snap.SetCount)
}

func TestServer_MergeKeepsUntouchedFields(t *testing.T) {
	srv := newTestServer(t, config.Example())
	h := srv.Handler()

	resp := postGraphQL(t, h, updateMutation, map[string]interface{}{
		"id":    "7",
		"input": map[string]interface{}{"email": "x@y.com"},
	})
	require.Nil(t, resp["errors"])

	user := userFrom(t, postGraphQL(t, h, userQuery, map[string]interface{}{"id": "7"}))
	assert.Equal(t, "7", user["id"])
	assert.Equal(t, "New User", user["name"])
	assert.Equal(t, "x@y.com", user["email"])
}

func TestServer_PluginBindsResolvers(t *testing.T) {
	cfg := config.Example()
	cfg.Resolvers = nil

	plugin := func(b *bridge.Bridge) graphql.Plugin {
		return graphql.PluginFunc(func(change *graphql.SchemaChange) {
			exec := graphql.NewExecutor(change.Schema, nil,
				graphql.WithResolvers(map[string]graphql.ResolverFunc{
					"Query.user":          b.Query("User", "id"),
					"Mutation.updateUser": b.Mutation("User", "id", "input", "user"),
				}),
				graphql.WithValueHook(b.ResolveValue),
			)
			change.ReplaceSchema(exec)
		})
	}
	srv := newTestServer(t, cfg, WithPlugins(plugin))
	h := srv.Handler()

	user := userFrom(t, postGraphQL(t, h, userQuery, map[string]interface{}{"id": "1"}))
	assert.Equal(t, "New User", user["name"])

	resp := postGraphQL(t, h, updateMutation, map[string]interface{}{
		"id":    "1",
		"input": map[string]interface{}{"name": "Updated User", "email": "updated@user.com"},
	})
	require.Nil(t, resp["errors"])

	user = userFrom(t, postGraphQL(t, h, userQuery, map[string]interface{}{"id": "1"}))
	assert.Equal(t, "Updated User", user["name"])
	assert.Equal(t, "updated@user.com", user["email"])
}

func TestServer_UnknownTypeSurfacesAsFieldError(t *testing.T) {
	cfg := config.Example()
	cfg.Mocks = nil
	srv := newTestServer(t, cfg)

	resp := postGraphQL(t, srv.Handler(), userQuery, map[string]interface{}{"id": "1"})
	errs, ok := resp["errors"].([]interface{})
	require.True(t, ok, "expected errors: %v", resp)
	require.Len(t, errs, 1)

	gqlErr := errs[0].(map[string]interface{})
	assert.Equal(t, []interface{}{"user"}, gqlErr["path"])
	ext := gqlErr["extensions"].(map[string]interface{})
	assert.Equal(t, mockstore.CodeUnknownType, ext["code"])
	assert.Nil(t, resp["data"].(map[string]interface{})["user"])
}

func TestServer_AutoMock(t *testing.T) {
	cfg := config.Example()
	cfg.Mocks = nil
	cfg.Store.AutoMock = true
	srv := newTestServer(t, cfg)

	user := userFrom(t, postGraphQL(t, srv.Handler(), userQuery, map[string]interface{}{"id": "3"}))
	assert.Equal(t, "3", user["id"])
	assert.Equal(t, mockstore.DefaultString, user["name"])
	assert.Equal(t, mockstore.DefaultString, user["email"])
}

func TestServer_LookupReturnsNullForUnseenIDs(t *testing.T) {
	cfg := config.Example()
	cfg.Store.Lookup = true
	srv := newTestServer(t, cfg)

	resp := postGraphQL(t, srv.Handler(), userQuery, map[string]interface{}{"id": "404"})
	require.Nil(t, resp["errors"])
	assert.Nil(t, resp["data"].(map[string]interface{})["user"])
	assert.Equal(t, 0, srv.Store().Len())
}

func TestServer_WithGeneratorsOverridesMocks(t *testing.T) {
	srv := newTestServer(t, config.Example(), WithGenerators(map[string]mockstore.Generator{
		"User": mockstore.Static(mockstore.Record{"name": "Custom", "email": "c@example.com"}),
	}))

	user := userFrom(t, postGraphQL(t, srv.Handler(), userQuery, map[string]interface{}{"id": "1"}))
	assert.Equal(t, "Custom", user["name"])
}

func TestServer_ComputedFields(t *testing.T) {
	cfg := config.Example()
	cfg.Mocks["User"] = config.MockConfig{
		Fields:   map[string]interface{}{"name": "New User"},
		Computed: map[string]string{"email": "'user' + id + '@example.com'"},
	}
	srv := newTestServer(t, cfg)

	user := userFrom(t, postGraphQL(t, srv.Handler(), userQuery, map[string]interface{}{"id": "9"}))
	assert.Equal(t, "user9@example.com", user["email"])
}

// ============================================================================
// Construction errors
// ============================================================================

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"no schema", func(c *config.Config) { c.Schema = "" }, "schema"},
		{"bad schema", func(c *config.Config) { c.Schema = "type {" }, "failed to load schema"},
		{"schema without query", func(c *config.Config) {
			c.Schema = "type User { id: ID! name: String email: String }"
		}, "Query type"},
		{"mock for unknown type", func(c *config.Config) {
			c.Mocks["Ghost"] = config.MockConfig{}
		}, "mocks.Ghost"},
		{"bad computed expression", func(c *config.Config) {
			c.Mocks["User"] = config.MockConfig{Computed: map[string]string{"name": "id +"}}
		}, "mocks.User"},
		{"resolver for unknown field", func(c *config.Config) {
			c.Resolvers["Query.ghost"] = config.ResolverConfig{Action: "get", Type: "User"}
		}, "resolvers.Query.ghost"},
		{"resolver for unknown type", func(c *config.Config) {
			c.Resolvers["Query.user"] = config.ResolverConfig{Action: "get", Type: "Ghost"}
		}, "resolvers.Query.user"},
		{"bad field policy", func(c *config.Config) { c.Store.FieldPolicy = "zero" }, "fieldPolicy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Example()
			tt.mutate(cfg)
			_, err := New(cfg, WithLogger(logging.Nop()))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := New(nil)
	assert.Error(t, err)
}

func TestNew_SchemaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.graphql")
	require.NoError(t, os.WriteFile(path, []byte(config.Example().Schema), 0644))

	cfg := config.Example()
	cfg.Schema = ""
	cfg.SchemaFile = path
	srv := newTestServer(t, cfg)
	assert.Equal(t, []string{"updateUser"}, srv.Schema().ListMutations())
}

// ============================================================================
// In-process execution and serving
// ============================================================================

func TestServer_Execute(t *testing.T) {
	srv := newTestServer(t, config.Example())
	resp := srv.Execute(context.Background(), &graphql.GraphQLRequest{
		Query:     userQuery,
		Variables: map[string]interface{}{"id": "1"},
	})
	require.Empty(t, resp.Errors)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "New User", data["user"].(map[string]interface{})["name"])
}

func TestServer_Serve(t *testing.T) {
	cfg := config.Example()
	cfg.Server.ShutdownTimeout = "1s"
	srv := newTestServer(t, cfg)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + HealthPath
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_ExampleConfigFile(t *testing.T) {
	cfg, err := config.LoadFromFile(filepath.Join("..", "..", "examples", "with-config-file", "mockstore.yaml"))
	require.NoError(t, err)
	srv := newTestServer(t, cfg)
	h := srv.Handler()

	resp := postGraphQL(t, h, `{ user(id: "5") { id handle } }`, nil)
	user := userFrom(t, resp)
	assert.Equal(t, "@user5", user["handle"])

	resp = postGraphQL(t, h, `mutation { createUser(input: {name: "Grace"}) { user { id name } } }`, nil)
	require.Nil(t, resp["errors"])
	created := resp["data"].(map[string]interface{})["createUser"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "Grace", created["name"])
	assert.NotEmpty(t, created["id"])

	resp = postGraphQL(t, h, `mutation { deleteUser(id: "5") }`, nil)
	require.Nil(t, resp["errors"])
	assert.Equal(t, true, resp["data"].(map[string]interface{})["deleteUser"])
	assert.False(t, srv.Store().Has("User", "5"))
}
