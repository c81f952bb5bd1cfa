package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinity/internal/config"
)

func env(vars map[string]string) config.LookupFunc {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestResolvePrecedence(t *testing.T) {
	cfg := config.Default()
	none := env(nil)

	ep := cfg.Resolve(config.Overrides{}, none)
	assert.Equal(t, "/graphql", ep.GraphQLURL)
	assert.Empty(t, ep.APIToken)
	assert.Equal(t, "http://localhost:3000", ep.BaseURL)

	vars := env(map[string]string{
		"DAGSTER_GRAPHQL_URL": "http://fallback/graphql",
		"DAGSTER_API_TOKEN":   "tok-b",
	})
	ep = cfg.Resolve(config.Overrides{}, vars)
	assert.Equal(t, "http://fallback/graphql", ep.GraphQLURL)
	assert.Equal(t, "tok-b", ep.APIToken)

	vars = env(map[string]string{
		"REACT_APP_DAGSTER_GRAPHQL_URL": "http://first/graphql",
		"DAGSTER_GRAPHQL_URL":           "http://fallback/graphql",
		"REACT_APP_DAGSTER_API_TOKEN":   "tok-a",
	})
	ep = cfg.Resolve(config.Overrides{}, vars)
	assert.Equal(t, "http://first/graphql", ep.GraphQLURL)
	assert.Equal(t, "tok-a", ep.APIToken)

	cfg.Dagster.GraphQLURL = "http://file/graphql"
	ep = cfg.Resolve(config.Overrides{}, vars)
	assert.Equal(t, "http://file/graphql", ep.GraphQLURL)
	assert.Equal(t, "tok-a", ep.APIToken)

	ep = cfg.Resolve(config.Overrides{GraphQLURL: "http://flag/graphql", APIToken: "tok-flag"}, vars)
	assert.Equal(t, "http://flag/graphql", ep.GraphQLURL)
	assert.Equal(t, "tok-flag", ep.APIToken)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`server:
  addr: 127.0.0.1:9999
dagster:
  graphql_url: https://dagster.example.com/graphql
  run_limit: 25
  disable_fallback: true
  poll_interval: 500ms
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), data, 0o644))

	cfg, err := config.LoadWorkspace(dir)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	assert.Equal(t, "/v0", cfg.Server.BasePath)
	assert.Equal(t, "https://dagster.example.com/graphql", cfg.Dagster.GraphQLURL)
	assert.Equal(t, 25, cfg.Dagster.RunLimit)
	assert.False(t, cfg.Dagster.UseMockIfFailed())
	assert.Equal(t, 500*time.Millisecond, cfg.Dagster.PollInterval)
	assert.Equal(t, 15*time.Second, cfg.Dagster.Timeout)
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: loud\n"), 0o644))
	_, err := config.Load(path)
	assert.ErrorContains(t, err, "log.level")

	require.NoError(t, os.WriteFile(path, []byte("server:\n  base_path: v0\n"), 0o644))
	_, err = config.Load(path)
	assert.ErrorContains(t, err, "base_path")
}

func TestWriteDefault(t *testing.T) {
	dir := t.TempDir()
	path, err := config.Write(dir, false)
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultRunLimit, cfg.Dagster.RunLimit)
	assert.True(t, cfg.Dagster.UseMockIfFailed())

	_, err = config.Write(dir, false)
	assert.Error(t, err)
	_, err = config.Write(dir, true)
	assert.NoError(t, err)
}

func TestAbsoluteGraphQLURL(t *testing.T) {
	u, err := config.Endpoint{GraphQLURL: "/graphql", BaseURL: "http://localhost:3000"}.AbsoluteGraphQLURL()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/graphql", u)

	u, err = config.Endpoint{GraphQLURL: "https://dagster.example.com/graphql"}.AbsoluteGraphQLURL()
	require.NoError(t, err)
	assert.Equal(t, "https://dagster.example.com/graphql", u)

	_, err = config.Endpoint{GraphQLURL: "/graphql"}.AbsoluteGraphQLURL()
	assert.Error(t, err)
}
