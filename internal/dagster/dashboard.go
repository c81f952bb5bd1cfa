package dagster

import (
	"context"
	"sync"

	"github.com/adhocore/gronx"
	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"infinity/internal/domain"
)

// User-facing messages.
const (
	MsgMockPipelines        = "Using mock data for pipelines."
	MsgMockRuns             = "Using mock data for runs."
	MsgMockRunsSuffix       = " Runs use mock."
	MsgLaunchFailed         = "Failed to launch or retry run."
	MsgToggleScheduleFailed = "Failed to toggle schedule."
	MsgCreateScheduleFailed = "Failed to create schedule."
)

var (
	ErrRunNotFound = errors.New("run not found")
	ErrInvalidCron = errors.New("invalid cron expression")
)

// MutationError is returned by failed mutations. Message is the line shown
// to the user.
type MutationError struct {
	Message string
	Cause   error
}

func (e *MutationError) Error() string { return e.Message + ": " + e.Cause.Error() }
func (e *MutationError) Unwrap() error { return e.Cause }

// API is the subset of the GraphQL endpoint the dashboard uses.
type API interface {
	Pipelines(ctx context.Context) ([]domain.Pipeline, error)
	Runs(ctx context.Context, limit int) ([]domain.Run, error)
	Schedules(ctx context.Context) ([]domain.Schedule, error)
	LaunchRun(ctx context.Context, pipelineName, parentRunID string) (string, error)
	ToggleSchedule(ctx context.Context, name string, shouldStop bool) (bool, error)
	CreateSchedule(ctx context.Context, name, pipelineName, cron string) error
}

// Fallback is the data used when the initial load of a list fails.
type Fallback struct {
	Pipelines []domain.Pipeline
	Runs      []domain.Run
}

type Options struct {
	RunLimit        int
	UseMockIfFailed bool
	Logger          hclog.Logger
	Metrics         *Metrics
}

// Dashboard holds the pipeline, run and schedule lists and applies
// mutations against the endpoint.
type Dashboard struct {
	mu        sync.Mutex
	api       API
	fallback  Fallback
	opts      Options
	logger    hclog.Logger
	pipelines []domain.Pipeline
	runs      []domain.Run
	schedules []domain.Schedule
	loading   bool
	loaded    bool
	message   string
	gen       uint64
	closed    bool
}

// State is a copy of the dashboard lists.
type State struct {
	Pipelines []domain.Pipeline `json:"pipelines"`
	Runs      []domain.Run      `json:"runs"`
	Schedules []domain.Schedule `json:"schedules"`
	Loading   bool              `json:"loading"`
	Loaded    bool              `json:"loaded"`
	Message   string            `json:"message,omitempty"`
}

func NewDashboard(api API, fallback Fallback, opts Options) *Dashboard {
	if opts.RunLimit <= 0 {
		opts.RunLimit = 10
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.Default().Named("dashboard")
	}
	return &Dashboard{api: api, fallback: fallback, opts: opts, logger: logger}
}

func (d *Dashboard) RunLimit() int { return d.opts.RunLimit }

// LoadResult reports how the initial load went.
type LoadResult struct {
	Applied       bool  `json:"applied"`
	PipelinesErr  error `json:"-"`
	RunsErr       error `json:"-"`
	SchedulesErr  error `json:"-"`
	UsedPipelines bool  `json:"usedMockPipelines"`
	UsedRuns      bool  `json:"usedMockRuns"`
}

// Load fetches pipelines, runs and schedules concurrently, waits for all
// three, and applies each result on its own. A failed list falls back to
// the mock data when UseMockIfFailed is set and to an empty list otherwise;
// schedules always fall back to empty. Results that arrive after Close or
// after a newer Load started are discarded.
func (d *Dashboard) Load(ctx context.Context) LoadResult {
	d.mu.Lock()
	d.gen++
	gen := d.gen
	d.loading = true
	d.mu.Unlock()

	var (
		pipelines []domain.Pipeline
		runs      []domain.Run
		schedules []domain.Schedule
		res       LoadResult
		g         errgroup.Group
	)
	g.Go(func() error {
		pipelines, res.PipelinesErr = d.api.Pipelines(ctx)
		return nil
	})
	g.Go(func() error {
		runs, res.RunsErr = d.api.Runs(ctx, d.opts.RunLimit)
		return nil
	})
	g.Go(func() error {
		schedules, res.SchedulesErr = d.api.Schedules(ctx)
		return nil
	})
	_ = g.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || gen != d.gen {
		d.logger.Debug("discarding stale load", "generation", gen)
		return res
	}
	res.Applied = true
	mock := d.opts.UseMockIfFailed

	if res.PipelinesErr == nil {
		d.pipelines = nonNil(pipelines)
	} else {
		d.logger.Warn("pipelines query failed", "error", res.PipelinesErr, "fallback", mock)
		d.pipelines = []domain.Pipeline{}
		if mock {
			d.pipelines = append(d.pipelines, d.fallback.Pipelines...)
			res.UsedPipelines = true
			d.opts.Metrics.observeFallback("pipelines")
		}
	}
	if res.RunsErr == nil {
		d.runs = nonNil(runs)
	} else {
		d.logger.Warn("runs query failed", "error", res.RunsErr, "fallback", mock)
		d.runs = []domain.Run{}
		if mock {
			d.runs = append(d.runs, d.fallback.Runs...)
			res.UsedRuns = true
			d.opts.Metrics.observeFallback("runs")
		}
	}
	if res.SchedulesErr == nil {
		d.schedules = nonNil(schedules)
	} else {
		d.logger.Warn("schedules query failed", "error", res.SchedulesErr)
		d.schedules = []domain.Schedule{}
	}

	msg := ""
	if res.PipelinesErr != nil && mock {
		msg = MsgMockPipelines
	}
	if res.RunsErr != nil && mock {
		if msg != "" {
			msg += MsgMockRunsSuffix
		} else {
			msg = MsgMockRuns
		}
	}
	d.message = msg
	d.loading = false
	d.loaded = true
	return res
}

// Close stops the dashboard from applying any in-flight load.
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

func (d *Dashboard) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return State{
		Pipelines: append([]domain.Pipeline{}, d.pipelines...),
		Runs:      append([]domain.Run{}, d.runs...),
		Schedules: append([]domain.Schedule{}, d.schedules...),
		Loading:   d.loading,
		Loaded:    d.loaded,
		Message:   d.message,
	}
}

func (d *Dashboard) Runs() []domain.Run {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.Run{}, d.runs...)
}

func (d *Dashboard) Run(id string) (domain.Run, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Run{}, errors.Wrapf(ErrRunNotFound, "%s", id)
}

// UpdateRun applies fn to the run with the given id.
func (d *Dashboard) UpdateRun(id string, fn func(*domain.Run) error) (domain.Run, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.runs {
		if d.runs[i].ID == id {
			updated := d.runs[i]
			if err := fn(&updated); err != nil {
				return domain.Run{}, err
			}
			d.runs[i] = updated
			return updated, nil
		}
	}
	return domain.Run{}, errors.Wrapf(ErrRunNotFound, "%s", id)
}

func (d *Dashboard) Message() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.message
}

func (d *Dashboard) SetMessage(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.message = msg
}

// Launch starts a new run of pipelineName.
func (d *Dashboard) Launch(ctx context.Context, pipelineName string) (string, error) {
	return d.launch(ctx, pipelineName, "")
}

// Retry relaunches the pipeline of runID with runID as parent.
func (d *Dashboard) Retry(ctx context.Context, runID string) (string, error) {
	run, err := d.Run(runID)
	if err != nil {
		return "", err
	}
	return d.launch(ctx, run.PipelineName, run.ID)
}

func (d *Dashboard) launch(ctx context.Context, pipelineName, parentRunID string) (string, error) {
	id, err := d.api.LaunchRun(ctx, pipelineName, parentRunID)
	if err != nil {
		return "", d.fail(MsgLaunchFailed, err)
	}
	runs, err := d.api.Runs(ctx, d.opts.RunLimit)
	if err != nil {
		d.logger.Warn("refetch runs after launch failed", "error", err)
		return id, nil
	}
	d.mu.Lock()
	d.runs = nonNil(runs)
	d.mu.Unlock()
	return id, nil
}

// ToggleSchedule patches the schedule with the stopped state the server
// reports.
func (d *Dashboard) ToggleSchedule(ctx context.Context, name string, shouldStop bool) (domain.Schedule, error) {
	stopped, err := d.api.ToggleSchedule(ctx, name, shouldStop)
	if err != nil {
		return domain.Schedule{}, d.fail(MsgToggleScheduleFailed, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	out := domain.Schedule{Name: name, IsStopped: stopped}
	for i := range d.schedules {
		if d.schedules[i].Name == name {
			d.schedules[i].IsStopped = stopped
			out = d.schedules[i]
		}
	}
	return out, nil
}

// CreateSchedule validates cron locally, creates the schedule and appends
// it to the list.
func (d *Dashboard) CreateSchedule(ctx context.Context, name, pipelineName, cron string) (domain.Schedule, error) {
	if !gronx.New().IsValid(cron) {
		return domain.Schedule{}, d.fail(MsgCreateScheduleFailed, errors.Wrapf(ErrInvalidCron, "%q", cron))
	}
	if err := d.api.CreateSchedule(ctx, name, pipelineName, cron); err != nil {
		return domain.Schedule{}, d.fail(MsgCreateScheduleFailed, err)
	}
	s := domain.Schedule{Name: name, CronSchedule: cron, PipelineName: pipelineName}
	d.mu.Lock()
	d.schedules = append(d.schedules, s)
	d.mu.Unlock()
	return s, nil
}

// PollRuns re-issues the recent-runs query. It stands in for log delivery
// when no stream can be opened; the result is not applied.
func (d *Dashboard) PollRuns(ctx context.Context) error {
	_, err := d.api.Runs(ctx, d.opts.RunLimit)
	return err
}

func (d *Dashboard) fail(msg string, cause error) error {
	d.logger.Warn("mutation failed", "message", msg, "error", cause)
	d.SetMessage(msg)
	return &MutationError{Message: msg, Cause: cause}
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
