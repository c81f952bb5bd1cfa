// Package engine owns every stateful component of the workbench and applies
// the effects that span more than one of them.
package engine

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"

	"infinity/internal/config"
	"infinity/internal/copilot"
	"infinity/internal/dagster"
	"infinity/internal/decisiontable"
	"infinity/internal/dmn"
	"infinity/internal/domain"
	"infinity/internal/events"
	"infinity/internal/fixtures"
	"infinity/internal/gitbrowser"
	"infinity/internal/logstream"
	"infinity/internal/repo"
	"infinity/internal/reporting"
	"infinity/internal/review"
	"infinity/internal/shell"
)

// Options configure New. Only Config is required.
type Options struct {
	Config    config.Config
	Overrides config.Overrides
	// Lookup reads environment variables; nil uses os.LookupEnv.
	Lookup config.LookupFunc
	// Fixtures replaces the data built by fixtures.New.
	Fixtures *fixtures.Set
	// API replaces the GraphQL client built from the resolved endpoint.
	API        dagster.API
	Now        func() time.Time
	Logger     hclog.Logger
	Registerer prometheus.Registerer
	Pick       copilot.Picker
}

type Engine struct {
	DB       *sql.DB
	Repo     repo.Repo
	Events   events.Writer
	Config   config.Config
	Endpoint config.Endpoint
	Now      func() time.Time
	Logger   hclog.Logger

	Dashboard *dagster.Dashboard
	Logs      *logstream.Stream
	Reviews   *review.Panel
	Table     *decisiontable.Table
	Graph     *dmn.Graph
	Shell     *shell.Shell
	Browser   *gitbrowser.Browser
	Copilot   *copilot.Assistant
}

func New(db *sql.DB, opts Options) (*Engine, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.Default()
	}
	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	set := opts.Fixtures
	if set == nil {
		s := fixtures.New(now())
		set = &s
	}
	endpoint := opts.Config.Resolve(opts.Overrides, lookup)

	api := opts.API
	var dagMetrics *dagster.Metrics
	var logMetrics *logstream.Metrics
	if opts.Registerer != nil {
		dagMetrics = dagster.NewMetrics(opts.Registerer)
		logMetrics = logstream.NewMetrics(opts.Registerer)
	}
	if api == nil {
		url, err := endpoint.AbsoluteGraphQLURL()
		if err != nil {
			return nil, err
		}
		client := dagster.NewClient(url, endpoint.APIToken)
		client.Timeout = opts.Config.Dagster.Timeout
		client.Logger = logger.Named("dagster")
		client.Metrics = dagMetrics
		api = client
	}

	e := &Engine{
		DB:       db,
		Repo:     repo.Repo{DB: db},
		Events:   events.Writer{Now: now},
		Config:   opts.Config,
		Endpoint: endpoint,
		Now:      now,
		Logger:   logger.Named("engine"),
		Dashboard: dagster.NewDashboard(api, set.Dashboard, dagster.Options{
			RunLimit:        opts.Config.Dagster.RunLimit,
			UseMockIfFailed: opts.Config.Dagster.UseMockIfFailed(),
			Logger:          logger.Named("dashboard"),
			Metrics:         dagMetrics,
		}),
		Reviews: review.NewPanel(set.PullRequests, set.Reviewers, now),
		Table:   decisiontable.New(set.Table.ID, set.Table.Title, shell.DefaultRepo, set.Table.Columns, set.Table.Rows),
		Graph:   dmn.NewGraph(),
		Shell:   shell.New(set.ChangedFiles, set.Commits),
		Browser: gitbrowser.New(set.Repositories),
		Copilot: copilot.New(opts.Pick),
	}
	e.Logs = logstream.New(logstream.Options{
		GraphQLURL:   endpoint.GraphQLURL,
		BaseURL:      endpoint.BaseURL,
		Token:        endpoint.APIToken,
		PollInterval: opts.Config.Dagster.PollInterval,
		Poll:         e.Dashboard.PollRuns,
		Logger:       logger.Named("logstream"),
		Metrics:      logMetrics,
	})
	return e, nil
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Restore loads persisted workspace state into the components: the saved
// decision table, its change log, decided reviews and shell commits.
func (e *Engine) Restore(ctx context.Context) error {
	if err := e.Table.Restore(ctx, e.Repo); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return errors.Wrap(err, "restore decision table")
	}
	entries, err := e.Repo.ListChangeLog(ctx, e.Table.View().ID)
	if err != nil {
		return err
	}
	e.Table.SetChangeLog(entries)

	records, err := e.Repo.ListReviews(ctx, 0)
	if err != nil {
		return err
	}
	e.Reviews.Restore(records)

	commits, err := e.Repo.ListCommits(ctx)
	if err != nil {
		return err
	}
	if len(commits) > 0 {
		e.Shell.Restore(commits)
	}
	return nil
}

// Close discards in-flight loads and ends any log subscription.
func (e *Engine) Close() {
	e.Dashboard.Close()
	e.Logs.Stop()
}

func (e *Engine) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit")
}

func (e *Engine) appendEvent(ctx context.Context, evtType, entityKind, entityID, actorID string, payload events.EventPayload) {
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		return e.Events.Append(ctx, tx, evtType, entityKind, entityID, actorID, payload)
	})
	if err != nil {
		e.Logger.Warn("event not recorded", "type", evtType, "error", err)
	}
}

// Reload runs the initial dashboard load and rebuilds the review queue from
// the runs it produced.
func (e *Engine) Reload(ctx context.Context) (dagster.LoadResult, error) {
	res := e.Dashboard.Load(ctx)
	if !res.Applied {
		return res, nil
	}
	for _, item := range []struct {
		list string
		err  error
	}{{"pipelines", res.PipelinesErr}, {"runs", res.RunsErr}, {"schedules", res.SchedulesErr}} {
		if item.err != nil {
			e.Logger.Warn("initial load failed", "list", item.list, "error", item.err)
		}
	}
	return res, e.reconcileReviews(ctx)
}

// reconcileReviews copies persisted decisions onto the dashboard runs and
// resyncs the pending queue.
func (e *Engine) reconcileReviews(ctx context.Context) error {
	records, err := e.Repo.ListReviews(ctx, 0)
	if err != nil {
		return err
	}
	for _, rec := range records {
		_, err := e.Dashboard.UpdateRun(rec.RunID, func(r *domain.Run) error {
			if r.ReviewStatus == domain.ReviewNone {
				applyRecord(r, rec)
			}
			return nil
		})
		if err != nil && !errors.Is(err, dagster.ErrRunNotFound) {
			return err
		}
	}
	e.Reviews.Sync(e.Dashboard.Runs())
	return nil
}

func applyRecord(r *domain.Run, rec domain.ReviewRecord) {
	r.ReviewStatus = rec.Decision
	r.Reviewer = rec.Reviewer
	r.ReviewFeedback = rec.Feedback
	if at, err := time.Parse(time.RFC3339, rec.ReviewedAt); err == nil {
		r.ReviewedAt = at.UnixMilli()
	}
}

func (e *Engine) LaunchRun(ctx context.Context, pipelineName, actorID string) (string, error) {
	id, err := e.Dashboard.Launch(ctx, pipelineName)
	if err != nil {
		return "", err
	}
	e.appendEvent(ctx, events.RunLaunched, "run", id, actorID, events.EventPayload{"pipelineName": pipelineName})
	return id, e.reconcileReviews(ctx)
}

func (e *Engine) RetryRun(ctx context.Context, runID, actorID string) (string, error) {
	id, err := e.Dashboard.Retry(ctx, runID)
	if err != nil {
		return "", err
	}
	e.appendEvent(ctx, events.RunRetried, "run", id, actorID, events.EventPayload{"parentRunId": runID})
	return id, e.reconcileReviews(ctx)
}

func (e *Engine) ToggleSchedule(ctx context.Context, name string, shouldStop bool, actorID string) (domain.Schedule, error) {
	s, err := e.Dashboard.ToggleSchedule(ctx, name, shouldStop)
	if err != nil {
		return domain.Schedule{}, err
	}
	e.appendEvent(ctx, events.ScheduleToggled, "schedule", name, actorID, events.EventPayload{"isStopped": s.IsStopped})
	return s, nil
}

func (e *Engine) CreateSchedule(ctx context.Context, name, pipelineName, cron, actorID string) (domain.Schedule, error) {
	s, err := e.Dashboard.CreateSchedule(ctx, name, pipelineName, cron)
	if err != nil {
		return domain.Schedule{}, err
	}
	e.appendEvent(ctx, events.ScheduleCreated, "schedule", name, actorID, events.EventPayload{
		"pipelineName": pipelineName,
		"cronSchedule": cron,
	})
	return s, nil
}

// Decide resolves a pending run, patches the dashboard copy of the run and
// records the decision.
func (e *Engine) Decide(ctx context.Context, runID string, decision domain.ReviewStatus, reviewer, feedback string) (review.Outcome, error) {
	out, err := e.Reviews.DecideWith(runID, decision, reviewer, feedback, func(out review.Outcome) error {
		return e.withTx(ctx, func(tx *sql.Tx) error {
			if err := e.Repo.InsertReview(ctx, tx, out.Record); err != nil {
				return err
			}
			return e.Events.Append(ctx, tx, events.RunReviewed, "run", runID, out.Record.Reviewer, events.EventPayload{
				"decision": string(decision),
				"feedback": feedback,
			})
		})
	})
	if err != nil {
		return review.Outcome{}, err
	}
	if _, err := e.Dashboard.UpdateRun(runID, func(r *domain.Run) error {
		applyRecord(r, out.Record)
		return nil
	}); err != nil && !errors.Is(err, dagster.ErrRunNotFound) {
		return review.Outcome{}, err
	}
	return out, nil
}

// ReviewHistory is the decided runs of this process next to the persisted
// records, both newest first.
type ReviewHistory struct {
	Runs    []domain.Run          `json:"runs"`
	Records []domain.ReviewRecord `json:"records"`
}

func (e *Engine) ReviewHistory(ctx context.Context, n int) (ReviewHistory, error) {
	if n <= 0 {
		n = review.DefaultHistoryLimit
	}
	records, err := e.Repo.ListReviews(ctx, n)
	if err != nil {
		return ReviewHistory{}, err
	}
	if records == nil {
		records = []domain.ReviewRecord{}
	}
	return ReviewHistory{Runs: e.Reviews.History(n), Records: records}, nil
}

func (e *Engine) SaveTable(ctx context.Context, actorID string) (domain.ChangeLogEntry, error) {
	entry, err := e.Table.Save(ctx, e.Repo, e.Repo, actorID, e.now())
	if err != nil {
		return domain.ChangeLogEntry{}, err
	}
	e.appendEvent(ctx, events.TableSaved, "table", entry.TableID, actorID, events.EventPayload{"summary": entry.Summary})
	return entry, nil
}

// LoadTable replaces the table with data when given, or with the saved
// snapshot otherwise.
func (e *Engine) LoadTable(ctx context.Context, data []byte, actorID string) (decisiontable.View, error) {
	source := "saved"
	if len(data) == 0 {
		if err := e.Table.Restore(ctx, e.Repo); err != nil {
			return decisiontable.View{}, err
		}
	} else {
		snap, err := decisiontable.DecodeSnapshot(data)
		if err != nil {
			return decisiontable.View{}, err
		}
		e.Table.Apply(snap)
		source = "import"
	}
	v := e.Table.View()
	e.appendEvent(ctx, events.TableLoaded, "table", v.ID, actorID, events.EventPayload{"source": source})
	return v, nil
}

func (e *Engine) ChangeLog(ctx context.Context) ([]domain.ChangeLogEntry, error) {
	entries, err := e.Repo.ListChangeLog(ctx, e.Table.View().ID)
	if entries == nil && err == nil {
		entries = []domain.ChangeLogEntry{}
	}
	return entries, err
}

func (e *Engine) Commit(ctx context.Context, message, description, author string) (domain.Commit, error) {
	c, err := e.Shell.Commit(message, description, author)
	if err != nil {
		return domain.Commit{}, err
	}
	err = e.withTx(ctx, func(tx *sql.Tx) error {
		if err := e.Repo.InsertCommit(ctx, tx, c, e.now().UTC().Format(time.RFC3339)); err != nil {
			return err
		}
		return e.Events.Append(ctx, tx, events.CommitCreated, "commit", c.Hash, c.Author, events.EventPayload{
			"message": c.Message,
			"branch":  c.Branch,
		})
	})
	if err != nil {
		return domain.Commit{}, err
	}
	return c, nil
}

func (e *Engine) Insights(rangeSel, team string) (reporting.Insights, error) {
	return reporting.Generate(rangeSel, team, e.Config.Reporting.Seed)
}

func (e *Engine) RecentEvents(ctx context.Context, n int, f repo.EventFilter) ([]domain.Event, error) {
	evts, err := e.Repo.LatestEvents(ctx, n, f)
	if evts == nil && err == nil {
		evts = []domain.Event{}
	}
	return evts, err
}
