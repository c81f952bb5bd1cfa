package domain

import "encoding/json"

type Pipeline struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RunStatus string

const (
	RunSuccess  RunStatus = "SUCCESS"
	RunFailed   RunStatus = "FAILED"
	RunStarted  RunStatus = "STARTED"
	RunStarting RunStatus = "STARTING"
)

type ReviewStatus string

const (
	ReviewNone     ReviewStatus = ""
	ReviewApproved ReviewStatus = "approved"
	ReviewDenied   ReviewStatus = "denied"
)

// Run times are epoch milliseconds. EndTime is nil while the run is in flight.
type Run struct {
	ID             string       `json:"id"`
	Status         RunStatus    `json:"status"`
	StartTime      float64      `json:"startTime"`
	EndTime        *float64     `json:"endTime"`
	PipelineName   string       `json:"pipelineName"`
	NeedsReview    bool         `json:"needsReview"`
	ReviewStatus   ReviewStatus `json:"reviewStatus,omitempty" enum:"approved,denied"`
	Reviewer       string       `json:"reviewer,omitempty"`
	ReviewFeedback string       `json:"reviewFeedback,omitempty"`
	ReviewedAt     int64        `json:"reviewedAt,omitempty"`
}

// AwaitingReview reports whether the run still needs a reviewer decision.
func (r Run) AwaitingReview() bool {
	return r.NeedsReview && r.ReviewStatus == ReviewNone
}

type Schedule struct {
	Name         string `json:"name"`
	CronSchedule string `json:"cronSchedule"`
	PipelineName string `json:"pipelineName"`
	IsStopped    bool   `json:"isStopped"`
}

type LogMessage struct {
	Level     string `json:"level"`
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

type ColumnType string

const (
	TypeString  ColumnType = "String"
	TypeNumber  ColumnType = "Number"
	TypeBoolean ColumnType = "Boolean"
	TypeDate    ColumnType = "Date"
)

var ColumnTypes = []ColumnType{TypeString, TypeNumber, TypeBoolean, TypeDate}

type Condition string

const (
	CondEquals      Condition = "Equals"
	CondGreaterThan Condition = "Greater Than"
	CondLessThan    Condition = "Less Than"
	CondContains    Condition = "Contains"
)

var Conditions = []Condition{CondEquals, CondGreaterThan, CondLessThan, CondContains}

type Column struct {
	Name      string     `json:"name"`
	Type      ColumnType `json:"type" enum:"String,Number,Boolean,Date"`
	Condition Condition  `json:"condition" enum:"Equals,Greater Than,Less Than,Contains"`
}

// TestStatus is empty until a test case with an expected value has been run.
type TestStatus string

const (
	TestPending TestStatus = ""
	TestPass    TestStatus = "pass"
	TestFail    TestStatus = "fail"
)

func (s TestStatus) MarshalJSON() ([]byte, error) {
	if s == TestPending {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

func (s *TestStatus) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = TestPending
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = TestStatus(v)
	return nil
}

type TestCase struct {
	Inputs   []string   `json:"inputs"`
	Expected string     `json:"expected"`
	Result   *string    `json:"result"`
	Status   TestStatus `json:"status"`
}

type ChangeLogEntry struct {
	ID      string `json:"id"`
	TableID string `json:"tableId"`
	TS      string `json:"ts" format:"date-time"`
	ActorID string `json:"actorId"`
	Summary string `json:"summary"`
}

// Snapshot is the persisted work-in-progress form of a decision table.
type Snapshot struct {
	Title     string     `json:"title"`
	Columns   []Column   `json:"columns"`
	Rows      [][]string `json:"rows"`
	TestCases []TestCase `json:"testCases"`
}

type NodeType string

const (
	NodeInput     NodeType = "input"
	NodeDecision  NodeType = "decision"
	NodeKnowledge NodeType = "knowledge"
	NodeOutput    NodeType = "output"
)

type NodeProperties struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Node struct {
	ID         string         `json:"id"`
	Type       NodeType       `json:"type" enum:"input,decision,knowledge,output"`
	Label      string         `json:"label"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	Properties NodeProperties `json:"properties"`
}

type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type PRStatus string

const (
	PROpen   PRStatus = "Open"
	PRClosed PRStatus = "Closed"
)

type PullRequest struct {
	Title   string   `json:"title"`
	Status  PRStatus `json:"status" enum:"Open,Closed"`
	Author  string   `json:"author"`
	Repo    string   `json:"repo"`
	Updated string   `json:"updated"`
	Labels  []string `json:"labels"`
}

type ReviewerStat struct {
	Reviewer      string `json:"reviewer"`
	PRsReviewed   int    `json:"prsReviewed"`
	AvgReviewTime string `json:"avgReviewTime"`
	LastReview    string `json:"lastReview"`
}

type ReviewRecord struct {
	RunID      string       `json:"runId"`
	Decision   ReviewStatus `json:"decision" enum:"approved,denied"`
	Reviewer   string       `json:"reviewer"`
	Feedback   string       `json:"feedback,omitempty"`
	ReviewedAt string       `json:"reviewedAt" format:"date-time"`
}

type FileStatus string

const (
	FileModified FileStatus = "modified"
	FileAdded    FileStatus = "added"
	FileDeleted  FileStatus = "deleted"
)

type ChangedFile struct {
	Name      string     `json:"name"`
	Status    FileStatus `json:"status" enum:"modified,added,deleted"`
	Additions int        `json:"additions"`
	Deletions int        `json:"deletions"`
}

type Commit struct {
	Hash        string `json:"hash"`
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author"`
	Time        string `json:"time"`
	Branch      string `json:"branch"`
	Repo        string `json:"repo,omitempty"`
}

type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entityKind"`
	EntityID   string         `json:"entityId,omitempty"`
	ActorID    string         `json:"actorId"`
	Payload    map[string]any `json:"payload"`
}
