package dagster_test

import (
	"context"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinity/internal/dagster"
	"infinity/internal/domain"
)

var errDown = errors.New("endpoint down")

type fakeAPI struct {
	mu           sync.Mutex
	pipelines    []domain.Pipeline
	runs         []domain.Run
	schedules    []domain.Schedule
	pipelinesErr error
	runsErr      error
	schedulesErr error
	launchErr    error
	toggleErr    error
	createErr    error
	block        chan struct{}

	launched   [][2]string
	runQueries int
	created    int
}

func (f *fakeAPI) Pipelines(ctx context.Context) ([]domain.Pipeline, error) {
	if f.block != nil {
		<-f.block
	}
	return f.pipelines, f.pipelinesErr
}

func (f *fakeAPI) Runs(ctx context.Context, limit int) ([]domain.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runQueries++
	return f.runs, f.runsErr
}

func (f *fakeAPI) Schedules(ctx context.Context) ([]domain.Schedule, error) {
	return f.schedules, f.schedulesErr
}

func (f *fakeAPI) LaunchRun(ctx context.Context, pipelineName, parentRunID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.launchErr != nil {
		return "", f.launchErr
	}
	f.launched = append(f.launched, [2]string{pipelineName, parentRunID})
	return "launched-1", nil
}

func (f *fakeAPI) ToggleSchedule(ctx context.Context, name string, shouldStop bool) (bool, error) {
	return shouldStop, f.toggleErr
}

func (f *fakeAPI) CreateSchedule(ctx context.Context, name, pipelineName, cron string) error {
	f.created++
	return f.createErr
}

var mockData = dagster.Fallback{
	Pipelines: []domain.Pipeline{{ID: "p1", Name: "daily_ingest"}},
	Runs:      []domain.Run{{ID: "r1", Status: domain.RunSuccess, PipelineName: "daily_ingest"}},
}

func TestLoadAdvisoryMessages(t *testing.T) {
	cases := []struct {
		name         string
		pipelinesErr error
		runsErr      error
		mock         bool
		want         string
	}{
		{name: "all ok", mock: true, want: ""},
		{name: "pipelines fail", pipelinesErr: errDown, mock: true, want: "Using mock data for pipelines."},
		{name: "runs fail", runsErr: errDown, mock: true, want: "Using mock data for runs."},
		{name: "both fail", pipelinesErr: errDown, runsErr: errDown, mock: true, want: "Using mock data for pipelines. Runs use mock."},
		{name: "both fail without fallback", pipelinesErr: errDown, runsErr: errDown, mock: false, want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{
				pipelines:    []domain.Pipeline{{ID: "x", Name: "real"}},
				pipelinesErr: tc.pipelinesErr,
				runsErr:      tc.runsErr,
			}
			d := dagster.NewDashboard(api, mockData, dagster.Options{UseMockIfFailed: tc.mock})
			res := d.Load(t.Context())
			assert.True(t, res.Applied)
			assert.Equal(t, tc.want, d.State().Message)
		})
	}
}

func TestLoadFallsBackPerList(t *testing.T) {
	api := &fakeAPI{
		pipelinesErr: errDown,
		runs:         []domain.Run{{ID: "live", Status: domain.RunStarted}},
		schedulesErr: errDown,
	}
	m := dagster.NewMetrics(prometheus.NewRegistry())
	d := dagster.NewDashboard(api, mockData, dagster.Options{UseMockIfFailed: true, Metrics: m})
	res := d.Load(t.Context())

	st := d.State()
	assert.True(t, res.UsedPipelines)
	assert.False(t, res.UsedRuns)
	assert.Equal(t, mockData.Pipelines, st.Pipelines)
	assert.Equal(t, "live", st.Runs[0].ID)
	assert.Empty(t, st.Schedules, "schedules are never mocked")
	assert.NotNil(t, st.Schedules)
	assert.True(t, st.Loaded)
	assert.False(t, st.Loading)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackCounter("pipelines")))
}

func TestLoadWithoutFallbackIsEmpty(t *testing.T) {
	api := &fakeAPI{pipelinesErr: errDown, runsErr: errDown}
	d := dagster.NewDashboard(api, mockData, dagster.Options{})
	d.Load(t.Context())
	st := d.State()
	assert.Empty(t, st.Pipelines)
	assert.Empty(t, st.Runs)
}

func TestLoadAfterCloseIsDiscarded(t *testing.T) {
	api := &fakeAPI{pipelines: []domain.Pipeline{{ID: "p9", Name: "late"}}, block: make(chan struct{})}
	d := dagster.NewDashboard(api, mockData, dagster.Options{UseMockIfFailed: true})

	done := make(chan dagster.LoadResult)
	go func() { done <- d.Load(context.Background()) }()
	d.Close()
	close(api.block)

	res := <-done
	assert.False(t, res.Applied)
	assert.Empty(t, d.State().Pipelines)
	assert.False(t, d.State().Loaded)
}

func TestLaunchAndRetry(t *testing.T) {
	api := &fakeAPI{runs: []domain.Run{{ID: "r2", Status: domain.RunFailed, PipelineName: "transform_users"}}}
	d := dagster.NewDashboard(api, mockData, dagster.Options{})
	d.Load(t.Context())
	before := api.runQueries

	id, err := d.Retry(t.Context(), "r2")
	require.NoError(t, err)
	assert.Equal(t, "launched-1", id)
	assert.Equal(t, [][2]string{{"transform_users", "r2"}}, api.launched)
	assert.Equal(t, before+1, api.runQueries, "runs are refetched after a launch")

	_, err = d.Retry(t.Context(), "missing")
	assert.ErrorIs(t, err, dagster.ErrRunNotFound)

	api.launchErr = errDown
	_, err = d.Launch(t.Context(), "daily_ingest")
	var mutErr *dagster.MutationError
	require.ErrorAs(t, err, &mutErr)
	assert.Equal(t, "Failed to launch or retry run.", mutErr.Message)
	assert.Equal(t, "Failed to launch or retry run.", d.Message())
	assert.Len(t, d.Runs(), 1)
}

func TestToggleSchedule(t *testing.T) {
	api := &fakeAPI{schedules: []domain.Schedule{{Name: "nightly", CronSchedule: "0 0 * * *", PipelineName: "daily_ingest"}}}
	d := dagster.NewDashboard(api, mockData, dagster.Options{})
	d.Load(t.Context())

	s, err := d.ToggleSchedule(t.Context(), "nightly", true)
	require.NoError(t, err)
	assert.True(t, s.IsStopped)
	assert.True(t, d.State().Schedules[0].IsStopped)

	api.toggleErr = errDown
	_, err = d.ToggleSchedule(t.Context(), "nightly", false)
	require.Error(t, err)
	assert.Equal(t, "Failed to toggle schedule.", d.Message())
	assert.True(t, d.State().Schedules[0].IsStopped)
}

func TestCreateScheduleValidatesCronLocally(t *testing.T) {
	api := &fakeAPI{}
	d := dagster.NewDashboard(api, mockData, dagster.Options{})
	d.Load(t.Context())

	_, err := d.CreateSchedule(t.Context(), "bad", "daily_ingest", "every tuesday")
	assert.ErrorIs(t, err, dagster.ErrInvalidCron)
	assert.Equal(t, 0, api.created, "no request for an invalid cron")
	assert.Equal(t, "Failed to create schedule.", d.Message())

	s, err := d.CreateSchedule(t.Context(), "hourly", "daily_ingest", "0 * * * *")
	require.NoError(t, err)
	assert.Equal(t, domain.Schedule{Name: "hourly", CronSchedule: "0 * * * *", PipelineName: "daily_ingest"}, s)
	assert.Equal(t, []domain.Schedule{s}, d.State().Schedules)
}
