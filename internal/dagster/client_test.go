package dagster_test

import (
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/h2non/gock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinity/internal/dagster"
	"infinity/internal/domain"
)

const endpoint = "https://dagster.example.com"

func newClient(t *testing.T) (*dagster.Client, *dagster.Metrics) {
	t.Helper()
	c := dagster.NewClient(endpoint+"/graphql", "secret")
	m := dagster.NewMetrics(prometheus.NewRegistry())
	c.Metrics = m
	return c, m
}

func TestClientPipelinesSendsBearerToken(t *testing.T) {
	defer gock.Off()
	gock.New(endpoint).
		Post("/graphql").
		MatchHeader("Authorization", "Bearer secret").
		MatchHeader("Content-Type", "application/json").
		Reply(http.StatusOK).
		JSON(map[string]any{"data": map[string]any{"pipelinesOrError": map[string]any{
			"__typename": "PipelineConnection",
			"nodes": []map[string]any{
				{"id": "p1", "name": "daily_ingest", "modes": []any{}},
				{"id": "p2", "name": "transform_users"},
			},
		}}})

	c, _ := newClient(t)
	got, err := c.Pipelines(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []domain.Pipeline{{ID: "p1", Name: "daily_ingest"}, {ID: "p2", Name: "transform_users"}}, got)
	assert.True(t, gock.IsDone())
}

func TestClientRunsDecodesFloatTimes(t *testing.T) {
	defer gock.Off()
	gock.New(endpoint).
		Post("/graphql").
		Reply(http.StatusOK).
		JSON(`{"data":{"runsOrError":{"__typename":"Runs","results":[
			{"id":"abc","status":"STARTED","startTime":1700000000000.5,"endTime":null,"pipelineName":"train_model"}]}}}`)

	c, _ := newClient(t)
	runs, err := c.Runs(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunStarted, runs[0].Status)
	assert.Nil(t, runs[0].EndTime)
	assert.InDelta(t, 1700000000000.5, runs[0].StartTime, 0.01)
}

func TestClientErrorsArray(t *testing.T) {
	defer gock.Off()
	gock.New(endpoint).
		Post("/graphql").
		Reply(http.StatusOK).
		JSON(`{"errors":[{"message":"boom"},{"message":"bang"}]}`)

	c, m := newClient(t)
	_, err := c.Schedules(t.Context())
	require.Error(t, err)
	assert.True(t, errors.Is(err, dagster.ErrGraphQL))
	var gqlErr *dagster.GraphQLError
	require.True(t, errors.As(err, &gqlErr))
	assert.Equal(t, []string{"boom", "bang"}, gqlErr.Messages)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCounter("schedules", "graphql_error")))
}

func TestClientUndecodableBodyIsTransport(t *testing.T) {
	defer gock.Off()
	gock.New(endpoint).
		Post("/graphql").
		Reply(http.StatusBadGateway).
		BodyString("<html>bad gateway</html>")

	c, _ := newClient(t)
	_, err := c.Pipelines(t.Context())
	assert.True(t, errors.Is(err, dagster.ErrTransport))
}

func TestClientLaunchRun(t *testing.T) {
	defer gock.Off()
	gock.New(endpoint).
		Post("/graphql").
		BodyString(`"retryRunId":"r2"`).
		Reply(http.StatusOK).
		JSON(`{"data":{"launchPipelineExecution":{"__typename":"LaunchRunSuccess","run":{"id":"new-run"}}}}`)
	gock.New(endpoint).
		Post("/graphql").
		Reply(http.StatusOK).
		JSON(`{"data":{"launchPipelineExecution":{"__typename":"PythonError","message":"no such pipeline"}}}`)

	c, _ := newClient(t)
	id, err := c.LaunchRun(t.Context(), "transform_users", "r2")
	require.NoError(t, err)
	assert.Equal(t, "new-run", id)

	_, err = c.LaunchRun(t.Context(), "missing", "")
	assert.True(t, errors.Is(err, dagster.ErrUnexpectedResult))
	assert.Contains(t, err.Error(), "no such pipeline")
}

func TestClientToggleSchedule(t *testing.T) {
	defer gock.Off()
	gock.New(endpoint).
		Post("/graphql").
		Reply(http.StatusOK).
		JSON(`{"data":{"toggleScheduleExecution":{"__typename":"ScheduleToggleSuccess","schedule":{"name":"nightly","isStopped":true}}}}`)

	c, _ := newClient(t)
	stopped, err := c.ToggleSchedule(t.Context(), "nightly", true)
	require.NoError(t, err)
	assert.True(t, stopped)
}
