package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"infinity/internal/dagster"
	"infinity/internal/domain"
	"infinity/internal/engine"
	"infinity/internal/logstream"
	"infinity/internal/repo"
	"infinity/internal/review"
)

func registerDashboard(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-dashboard",
		Method:      http.MethodGet,
		Path:        "/dashboard",
		Summary:     "Pipelines, runs and schedules",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body dagster.State `json:"body"`
	}, error) {
		return &struct {
			Body dagster.State `json:"body"`
		}{Body: e.Dashboard.State()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reload-dashboard",
		Method:      http.MethodPost,
		Path:        "/dashboard/reload",
		Summary:     "Run the initial load again",
		Description: "Failed lists fall back to mock data when the fallback is enabled; failures never surface as errors.",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body ReloadResponse `json:"body"`
	}, error) {
		res, err := e.Reload(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		out := ReloadResponse{
			State:             e.Dashboard.State(),
			UsedMockPipelines: res.UsedPipelines,
			UsedMockRuns:      res.UsedRuns,
		}
		for name, lerr := range map[string]error{"pipelines": res.PipelinesErr, "runs": res.RunsErr, "schedules": res.SchedulesErr} {
			if lerr == nil {
				continue
			}
			if out.Errors == nil {
				out.Errors = map[string]string{}
			}
			out.Errors[name] = lerr.Error()
		}
		return &struct {
			Body ReloadResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-pipelines",
		Method:      http.MethodGet,
		Path:        "/pipelines",
		Summary:     "List pipelines",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Pipeline `json:"body"`
	}, error) {
		return &struct {
			Body []domain.Pipeline `json:"body"`
		}{Body: e.Dashboard.State().Pipelines}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-runs",
		Method:      http.MethodGet,
		Path:        "/runs",
		Summary:     "List runs",
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" enum:"SUCCESS,FAILED,STARTED,STARTING"`
		Query  string `query:"q"`
	}) (*struct {
		Body RunsResponse `json:"body"`
	}, error) {
		runs := e.Dashboard.Runs()
		items := dagster.FilterRuns(runs, input.Status, input.Query)
		return &struct {
			Body RunsResponse `json:"body"`
		}{Body: RunsResponse{Items: items, Total: len(runs)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "runs-chart",
		Method:      http.MethodGet,
		Path:        "/runs/chart",
		Summary:     "Run durations in seconds",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []dagster.ChartPoint `json:"body"`
	}, error) {
		now := float64(e.Now().UnixMilli())
		return &struct {
			Body []dagster.ChartPoint `json:"body"`
		}{Body: dagster.ChartData(e.Dashboard.Runs(), now)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "launch-run",
		Method:      http.MethodPost,
		Path:        "/runs/launch",
		Summary:     "Launch a pipeline run",
		Errors:      []int{http.StatusBadRequest, http.StatusBadGateway},
	}, func(ctx context.Context, input *struct {
		Body LaunchRunRequest `json:"body"`
	}) (*struct {
		Body LaunchRunResponse `json:"body"`
	}, error) {
		id, err := e.LaunchRun(ctx, strings.TrimSpace(input.Body.PipelineName), actorID(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body LaunchRunResponse `json:"body"`
		}{Body: LaunchRunResponse{RunID: id, Runs: e.Dashboard.Runs()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "retry-run",
		Method:      http.MethodPost,
		Path:        "/runs/{run_id}/retry",
		Summary:     "Relaunch the pipeline of a run",
		Errors:      []int{http.StatusNotFound, http.StatusBadGateway},
	}, func(ctx context.Context, input *struct {
		RunID string `path:"run_id"`
	}) (*struct {
		Body LaunchRunResponse `json:"body"`
	}, error) {
		id, err := e.RetryRun(ctx, input.RunID, actorID(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body LaunchRunResponse `json:"body"`
		}{Body: LaunchRunResponse{RunID: id, Runs: e.Dashboard.Runs()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-schedules",
		Method:      http.MethodGet,
		Path:        "/schedules",
		Summary:     "List schedules",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Schedule `json:"body"`
	}, error) {
		return &struct {
			Body []domain.Schedule `json:"body"`
		}{Body: e.Dashboard.State().Schedules}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-schedule",
		Method:        http.MethodPost,
		Path:          "/schedules",
		Summary:       "Create a schedule",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusBadGateway},
	}, func(ctx context.Context, input *struct {
		Body CreateScheduleRequest `json:"body"`
	}) (*struct {
		Body domain.Schedule `json:"body"`
	}, error) {
		s, err := e.CreateSchedule(ctx, input.Body.Name, input.Body.PipelineName, input.Body.CronSchedule, actorID(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Schedule `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "toggle-schedule",
		Method:      http.MethodPost,
		Path:        "/schedules/{name}/toggle",
		Summary:     "Start or stop a schedule",
		Errors:      []int{http.StatusBadGateway},
	}, func(ctx context.Context, input *struct {
		Name string                `path:"name"`
		Body ToggleScheduleRequest `json:"body"`
	}) (*struct {
		Body domain.Schedule `json:"body"`
	}, error) {
		s, err := e.ToggleSchedule(ctx, input.Name, input.Body.ShouldStop, actorID(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Schedule `json:"body"`
		}{Body: s}, nil
	})
}

func registerLogs(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "subscribe-logs",
		Method:      http.MethodPost,
		Path:        "/runs/{run_id}/logs/subscribe",
		Summary:     "Stream the logs of a run",
		Description: "Replaces any current subscription. Falls back to polling when no socket can be opened.",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		RunID string `path:"run_id"`
	}) (*struct {
		Body logstream.Status `json:"body"`
	}, error) {
		// The subscription outlives the request.
		st, err := e.Logs.Start(context.WithoutCancel(ctx), input.RunID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body logstream.Status `json:"body"`
		}{Body: st}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/logs",
		Summary:     "Current subscription and buffered logs",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body logstream.Status `json:"body"`
	}, error) {
		return &struct {
			Body logstream.Status `json:"body"`
		}{Body: e.Logs.Status()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "stop-logs",
		Method:      http.MethodDelete,
		Path:        "/logs/subscription",
		Summary:     "Close the log subscription",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body logstream.Status `json:"body"`
	}, error) {
		return &struct {
			Body logstream.Status `json:"body"`
		}{Body: e.Logs.Stop()}, nil
	})
}

func registerReviews(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "pending-reviews",
		Method:      http.MethodGet,
		Path:        "/reviews/pending",
		Summary:     "Runs awaiting a review decision",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Run `json:"body"`
	}, error) {
		return &struct {
			Body []domain.Run `json:"body"`
		}{Body: e.Reviews.Pending()}, nil
	})

	decide := func(decision domain.ReviewStatus) func(context.Context, *struct {
		RunID string                 `path:"run_id"`
		Body  *ReviewDecisionRequest `json:"body"`
	}) (*struct {
		Body review.Outcome `json:"body"`
	}, error) {
		return func(ctx context.Context, input *struct {
			RunID string                 `path:"run_id"`
			Body  *ReviewDecisionRequest `json:"body"`
		}) (*struct {
			Body review.Outcome `json:"body"`
		}, error) {
			var req ReviewDecisionRequest
			if input.Body != nil {
				req = *input.Body
			}
			reviewer := req.Reviewer
			if p, ok := principalFromContext(ctx); ok {
				reviewer = p.ActorID
			}
			out, err := e.Decide(ctx, input.RunID, decision, reviewer, req.Feedback)
			if err != nil {
				return nil, handleError(err)
			}
			return &struct {
				Body review.Outcome `json:"body"`
			}{Body: out}, nil
		}
	}

	huma.Register(api, huma.Operation{
		OperationID: "approve-run",
		Method:      http.MethodPost,
		Path:        "/reviews/{run_id}/approve",
		Summary:     "Approve a pending run",
		Errors:      []int{http.StatusConflict},
	}, decide(domain.ReviewApproved))

	huma.Register(api, huma.Operation{
		OperationID: "deny-run",
		Method:      http.MethodPost,
		Path:        "/reviews/{run_id}/deny",
		Summary:     "Deny a pending run",
		Errors:      []int{http.StatusConflict},
	}, decide(domain.ReviewDenied))

	huma.Register(api, huma.Operation{
		OperationID: "review-history",
		Method:      http.MethodGet,
		Path:        "/reviews/history",
		Summary:     "Latest review decisions",
	}, func(ctx context.Context, input *struct {
		N int `query:"n" default:"5" minimum:"1" maximum:"100"`
	}) (*struct {
		Body engine.ReviewHistory `json:"body"`
	}, error) {
		h, err := e.ReviewHistory(ctx, input.N)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.ReviewHistory `json:"body"`
		}{Body: h}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-pull-requests",
		Method:      http.MethodGet,
		Path:        "/pull-requests",
		Summary:     "Pull requests by tab and search text",
	}, func(ctx context.Context, input *struct {
		Tab   string `query:"tab" enum:"Open,Closed"`
		Query string `query:"q"`
	}) (*struct {
		Body []domain.PullRequest `json:"body"`
	}, error) {
		return &struct {
			Body []domain.PullRequest `json:"body"`
		}{Body: e.Reviews.PullRequests(domain.PRStatus(input.Tab), input.Query)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-reviewers",
		Method:      http.MethodGet,
		Path:        "/reviewers",
		Summary:     "Reviewer activity",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.ReviewerStat `json:"body"`
	}, error) {
		return &struct {
			Body []domain.ReviewerStat `json:"body"`
		}{Body: e.Reviews.Reviewers()}, nil
	})
}

func registerEvents(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List recent events",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind" enum:"run,schedule,table,commit"`
		EntityID   string `query:"entity_id"`
		N          int    `query:"n" default:"50" minimum:"1" maximum:"500"`
		Cursor     string `query:"cursor"`
	}) (*struct {
		Body EventsResponse `json:"body"`
	}, error) {
		f := repo.EventFilter{Type: input.Type, EntityKind: input.EntityKind, EntityID: input.EntityID}
		if input.Cursor != "" {
			parsed, err := strconv.ParseInt(input.Cursor, 10, 64)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", map[string]any{"cursor": input.Cursor})
			}
			f.Before = parsed
		}
		items, err := e.RecentEvents(ctx, input.N+1, f)
		if err != nil {
			return nil, handleError(err)
		}
		resp := EventsResponse{Items: items}
		if len(items) > input.N {
			resp.NextCursor = strconv.FormatInt(items[input.N-1].ID, 10)
			resp.Items = items[:input.N]
		}
		return &struct {
			Body EventsResponse `json:"body"`
		}{Body: resp}, nil
	})
}
