package infinitysdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Client is a minimal Infinity HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/v0",
		Timeout:  10 * time.Second,
	}
}

// Run represents the API run model (partial).
type Run struct {
	ID             string   `json:"id"`
	Status         string   `json:"status"`
	StartTime      float64  `json:"startTime"`
	EndTime        *float64 `json:"endTime"`
	PipelineName   string   `json:"pipelineName"`
	NeedsReview    bool     `json:"needsReview"`
	ReviewStatus   string   `json:"reviewStatus,omitempty"`
	Reviewer       string   `json:"reviewer,omitempty"`
	ReviewFeedback string   `json:"reviewFeedback,omitempty"`
}

type Schedule struct {
	Name         string `json:"name"`
	CronSchedule string `json:"cronSchedule"`
	PipelineName string `json:"pipelineName"`
	IsStopped    bool   `json:"isStopped"`
}

// ReviewRecord is a persisted review decision.
type ReviewRecord struct {
	RunID      string `json:"runId"`
	Decision   string `json:"decision"`
	Reviewer   string `json:"reviewer"`
	Feedback   string `json:"feedback,omitempty"`
	ReviewedAt string `json:"reviewedAt"`
}

type ReviewOutcome struct {
	Run     Run          `json:"run"`
	Record  ReviewRecord `json:"record"`
	Message string       `json:"message"`
}

type Evaluation struct {
	Matched      bool   `json:"matched"`
	Row          int    `json:"row"`
	Output       string `json:"output"`
	OutputColumn string `json:"outputColumn"`
}

type Commit struct {
	Hash        string `json:"hash"`
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author"`
	Branch      string `json:"branch"`
}

// Event represents a log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entityKind"`
	EntityID   string         `json:"entityId"`
	ActorID    string         `json:"actorId"`
	Payload    map[string]any `json:"payload"`
}

// PaginatedEvents wraps list responses with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"nextCursor"`
}

// APIError wraps non-2xx responses. Code and Message come from the error
// envelope when the body carries one.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Runs lists runs, optionally filtered by status and search text.
func (c *Client) Runs(ctx context.Context, status, query string) ([]Run, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if query != "" {
		q.Set("q", query)
	}
	var resp struct {
		Items []Run `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, withQuery("runs", q), nil, &resp)
	return resp.Items, err
}

// LaunchRun launches a pipeline and returns the new run id.
func (c *Client) LaunchRun(ctx context.Context, pipelineName string) (string, error) {
	var resp struct {
		RunID string `json:"runId"`
	}
	err := c.do(ctx, http.MethodPost, "runs/launch", map[string]any{"pipelineName": pipelineName}, &resp)
	return resp.RunID, err
}

func (c *Client) CreateSchedule(ctx context.Context, name, pipelineName, cron string) (Schedule, error) {
	body := map[string]any{
		"name":         name,
		"pipelineName": pipelineName,
		"cronSchedule": cron,
	}
	var resp Schedule
	err := c.do(ctx, http.MethodPost, "schedules", body, &resp)
	return resp, err
}

// PendingReviews returns the runs awaiting a decision.
func (c *Client) PendingReviews(ctx context.Context) ([]Run, error) {
	var resp []Run
	err := c.do(ctx, http.MethodGet, "reviews/pending", nil, &resp)
	return resp, err
}

// Approve approves a pending run. The reviewer is taken from the bearer
// token when one is set.
func (c *Client) Approve(ctx context.Context, runID, feedback string) (ReviewOutcome, error) {
	return c.decide(ctx, runID, "approve", feedback)
}

func (c *Client) Deny(ctx context.Context, runID, feedback string) (ReviewOutcome, error) {
	return c.decide(ctx, runID, "deny", feedback)
}

func (c *Client) decide(ctx context.Context, runID, action, feedback string) (ReviewOutcome, error) {
	var resp ReviewOutcome
	endpoint := fmt.Sprintf("reviews/%s/%s", url.PathEscape(runID), action)
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"feedback": feedback}, &resp)
	return resp, err
}

// Evaluate runs the decision table against one set of inputs.
func (c *Client) Evaluate(ctx context.Context, inputs []string) (Evaluation, error) {
	var resp Evaluation
	err := c.do(ctx, http.MethodPost, "table/evaluate", map[string]any{"inputs": inputs}, &resp)
	return resp, err
}

// SaveTable stores the current table snapshot and returns the change-log
// summary.
func (c *Client) SaveTable(ctx context.Context) (string, error) {
	var resp struct {
		Summary string `json:"summary"`
	}
	err := c.do(ctx, http.MethodPost, "table/save", nil, &resp)
	return resp.Summary, err
}

// ExportDMN returns the decision model as DMN XML.
func (c *Client) ExportDMN(ctx context.Context, name string) ([]byte, error) {
	q := url.Values{}
	if name != "" {
		q.Set("name", name)
	}
	var raw rawBody
	err := c.do(ctx, http.MethodGet, withQuery("dmn/export", q), nil, &raw)
	return raw, err
}

func (c *Client) Commit(ctx context.Context, message, description string) (Commit, error) {
	var resp Commit
	err := c.do(ctx, http.MethodPost, "shell/commits", map[string]any{"message": message, "description": description}, &resp)
	return resp, err
}

// Ask sends a message to the rule assistant and returns its reply.
func (c *Client) Ask(ctx context.Context, message string) (string, error) {
	var raw rawBody
	if err := c.do(ctx, http.MethodPost, "copilot/messages", map[string]any{"message": message}, &raw); err != nil {
		return "", err
	}
	return gjson.GetBytes(raw, "reply.content").String(), nil
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	page, err := c.EventsPage(ctx, limit, "")
	return page.Items, err
}

// EventsPage returns a paginated event listing.
func (c *Client) EventsPage(ctx context.Context, limit int, cursor string) (PaginatedEvents, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("n", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, withQuery("events", q), nil, &resp)
	return resp, err
}

// rawBody receives the response bytes undecoded.
type rawBody []byte

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(endpoint), &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       gjson.GetBytes(b, "error.code").String(),
			Message:    gjson.GetBytes(b, "error.message").String(),
			Body:       string(b),
		}
	}
	switch o := out.(type) {
	case nil:
		return nil
	case *rawBody:
		*o = b
		return nil
	default:
		return json.Unmarshal(b, out)
	}
}

func (c *Client) url(endpoint string) string {
	base := strings.TrimRight(c.BaseURL, "/")
	if bp := strings.Trim(c.BasePath, "/"); bp != "" {
		base += "/" + bp
	}
	return base + "/" + strings.TrimLeft(endpoint, "/")
}

func withQuery(endpoint string, q url.Values) string {
	if len(q) == 0 {
		return endpoint
	}
	return endpoint + "?" + q.Encode()
}
