package server

import (
	"encoding/json"

	"infinity/internal/dagster"
	"infinity/internal/decisiontable"
	"infinity/internal/domain"
	"infinity/internal/gitbrowser"
)

// Request payloads

type LaunchRunRequest struct {
	PipelineName string `json:"pipelineName" minLength:"1"`
}

type CreateScheduleRequest struct {
	Name         string `json:"name" minLength:"1"`
	PipelineName string `json:"pipelineName" minLength:"1"`
	CronSchedule string `json:"cronSchedule" minLength:"1" example:"0 6 * * *"`
}

type ToggleScheduleRequest struct {
	ShouldStop bool `json:"shouldStop"`
}

type ReviewDecisionRequest struct {
	// Reviewer is used when the request carries no token.
	Reviewer string `json:"reviewer,omitempty"`
	Feedback string `json:"feedback,omitempty"`
}

type TitleRequest struct {
	Title string `json:"title"`
}

type ColumnPatchRequest struct {
	Field string `json:"field" enum:"name,type,condition"`
	Value string `json:"value"`
}

type CellRequest struct {
	Row   int    `json:"row" minimum:"0"`
	Col   int    `json:"col" minimum:"0"`
	Value string `json:"value"`
}

// CursorRequest moves by Key when set, otherwise selects Row and Col.
type CursorRequest struct {
	Key string `json:"key,omitempty" enum:"ArrowRight,ArrowLeft,ArrowDown,ArrowUp,Tab,Shift+Tab"`
	Row *int   `json:"row,omitempty"`
	Col *int   `json:"col,omitempty"`
}

type TestInputPatch struct {
	Index int    `json:"index" minimum:"0"`
	Value string `json:"value"`
}

type TestCasePatchRequest struct {
	Input    *TestInputPatch `json:"input,omitempty"`
	Expected *string         `json:"expected,omitempty"`
}

type LoadTableRequest struct {
	// Snapshot is imported when present; the saved snapshot is restored
	// otherwise.
	Snapshot json.RawMessage `json:"snapshot,omitempty"`
}

type EvaluateRequest struct {
	Inputs []string `json:"inputs"`
}

type CreateNodeRequest struct {
	Type  string  `json:"type" enum:"input,decision,knowledge,output"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type UpdateNodeRequest struct {
	Label       *string `json:"label,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type PointerRequest struct {
	Action string  `json:"action" enum:"drag,connect,move,up"`
	NodeID string  `json:"nodeId,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type CommitRequest struct {
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
}

type CopilotRequest struct {
	Message string `json:"message"`
}

// Response payloads

type ReloadResponse struct {
	State             dagster.State     `json:"state"`
	UsedMockPipelines bool              `json:"usedMockPipelines"`
	UsedMockRuns      bool              `json:"usedMockRuns"`
	Errors            map[string]string `json:"errors,omitempty"`
}

type LaunchRunResponse struct {
	RunID string       `json:"runId"`
	Runs  []domain.Run `json:"runs"`
}

type RunsResponse struct {
	Items []domain.Run `json:"items"`
	Total int          `json:"total"`
}

type EvaluateResponse struct {
	decisiontable.Evaluation
	OutputColumn string `json:"outputColumn"`
}

type ReposResponse struct {
	Names   []string        `json:"names"`
	Current gitbrowser.View `json:"current"`
}

type EventsResponse struct {
	Items      []domain.Event `json:"items"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
