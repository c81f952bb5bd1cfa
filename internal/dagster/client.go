package dagster

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-hclog"
	"github.com/tidwall/gjson"

	"infinity/internal/domain"
)

var (
	// ErrTransport marks failures to reach the endpoint or read its reply.
	ErrTransport = errors.New("graphql transport error")
	// ErrGraphQL marks replies carrying an errors array.
	ErrGraphQL = errors.New("graphql error")
	// ErrUnexpectedResult marks replies whose __typename is not the success type.
	ErrUnexpectedResult = errors.New("unexpected graphql result")
)

// GraphQLError holds the messages of a server-reported errors array.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "graphql: " + strings.Join(e.Messages, "; ")
}

func (e *GraphQLError) Is(target error) bool { return target == ErrGraphQL }

// Client posts GraphQL documents to a Dagster endpoint.
type Client struct {
	URL        string
	Token      string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     hclog.Logger
	Metrics    *Metrics
}

func NewClient(url, token string) *Client {
	return &Client{
		URL:     url,
		Token:   token,
		Timeout: 15 * time.Second,
		Logger:  hclog.Default().Named("dagster"),
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	return c.HTTPClient
}

func (c *Client) logger() hclog.Logger {
	if c.Logger == nil {
		return hclog.NewNullLogger()
	}
	return c.Logger
}

// Query sends {query, variables} and returns the data member of the reply,
// or the whole reply when it has no data member.
func (c *Client) Query(ctx context.Context, op, query string, variables map[string]any) (gjson.Result, error) {
	res, err := c.query(ctx, query, variables)
	c.Metrics.observeRequest(op, err)
	if err != nil {
		c.logger().Debug("graphql request failed", "operation", op, "error", err)
	}
	return res, err
}

func (c *Client) query(ctx context.Context, query string, variables map[string]any) (gjson.Result, error) {
	if variables == nil {
		variables = map[string]any{}
	}
	body, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return gjson.Result{}, errors.Wrap(err, "marshal graphql request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, errors.Mark(errors.Wrap(err, "build graphql request"), ErrTransport)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return gjson.Result{}, errors.Mark(errors.Wrap(err, "graphql request"), ErrTransport)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, errors.Mark(errors.Wrap(err, "read graphql response"), ErrTransport)
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, errors.Wrapf(ErrTransport, "undecodable response (status %d)", resp.StatusCode)
	}
	doc := gjson.ParseBytes(raw)
	if errs := doc.Get("errors"); errs.Exists() && errs.Type != gjson.Null {
		gqlErr := &GraphQLError{}
		for _, m := range errs.Get("#.message").Array() {
			gqlErr.Messages = append(gqlErr.Messages, m.String())
		}
		if len(gqlErr.Messages) == 0 {
			gqlErr.Messages = []string{errs.Raw}
		}
		return gjson.Result{}, gqlErr
	}
	if data := doc.Get("data"); data.Exists() && data.Type != gjson.Null {
		return data, nil
	}
	return doc, nil
}

func decodeList(res gjson.Result, path string, out any) error {
	list := res.Get(path)
	if !list.IsArray() {
		root := strings.SplitN(path, ".", 2)[0]
		return unexpected(res.Get(root))
	}
	if err := json.Unmarshal([]byte(list.Raw), out); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}

func unexpected(union gjson.Result) error {
	typename := union.Get("__typename").String()
	if msg := union.Get("message").String(); msg != "" {
		return errors.Wrapf(ErrUnexpectedResult, "%s: %s", typename, msg)
	}
	if typename == "" {
		typename = "missing result"
	}
	return errors.Wrap(ErrUnexpectedResult, typename)
}

func (c *Client) Pipelines(ctx context.Context) ([]domain.Pipeline, error) {
	res, err := c.Query(ctx, "pipelines", queryPipelines, nil)
	if err != nil {
		return nil, err
	}
	var out []domain.Pipeline
	if err := decodeList(res, "pipelinesOrError.nodes", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Runs(ctx context.Context, limit int) ([]domain.Run, error) {
	res, err := c.Query(ctx, "runs", queryRecentRuns, map[string]any{"limit": limit})
	if err != nil {
		return nil, err
	}
	var out []domain.Run
	if err := decodeList(res, "runsOrError.results", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Schedules(ctx context.Context) ([]domain.Schedule, error) {
	res, err := c.Query(ctx, "schedules", querySchedules, nil)
	if err != nil {
		return nil, err
	}
	var out []domain.Schedule
	if err := decodeList(res, "schedulesOrError.results", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LaunchRun launches pipelineName, as a retry of parentRunID when it is
// set, and returns the new run id.
func (c *Client) LaunchRun(ctx context.Context, pipelineName, parentRunID string) (string, error) {
	vars := map[string]any{"pipelineName": pipelineName, "retryRunId": nil}
	if parentRunID != "" {
		vars["retryRunId"] = parentRunID
	}
	res, err := c.Query(ctx, "launch", mutationLaunch, vars)
	if err != nil {
		return "", err
	}
	union := res.Get("launchPipelineExecution")
	if union.Get("__typename").String() != "LaunchRunSuccess" {
		return "", unexpected(union)
	}
	return union.Get("run.id").String(), nil
}

// ToggleSchedule starts or stops a schedule and returns the stopped state
// the server reports.
func (c *Client) ToggleSchedule(ctx context.Context, name string, shouldStop bool) (bool, error) {
	res, err := c.Query(ctx, "toggle_schedule", mutationToggleSchedule, map[string]any{"name": name, "shouldStop": shouldStop})
	if err != nil {
		return false, err
	}
	union := res.Get("toggleScheduleExecution")
	if union.Get("__typename").String() != "ScheduleToggleSuccess" {
		return false, unexpected(union)
	}
	return union.Get("schedule.isStopped").Bool(), nil
}

func (c *Client) CreateSchedule(ctx context.Context, name, pipelineName, cron string) error {
	res, err := c.Query(ctx, "create_schedule", mutationCreateSchedule, map[string]any{"name": name, "pipelineName": pipelineName, "cron": cron})
	if err != nil {
		return err
	}
	union := res.Get("createSchedule")
	if union.Get("__typename").String() != "ScheduleCreationSuccess" {
		return unexpected(union)
	}
	return nil
}
