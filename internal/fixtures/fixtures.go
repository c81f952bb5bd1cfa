// Package fixtures builds the mock data the workbench starts with. Nothing
// here is global: New constructs a fresh set relative to now, and the engine
// receives it explicitly.
package fixtures

import (
	"time"

	"infinity/internal/dagster"
	"infinity/internal/domain"
	"infinity/internal/gitbrowser"
)

const (
	DefaultTableID    = "healthcare-claims"
	DefaultTableTitle = "Healthcare Claims Workflow"
)

// Table is the initial decision table.
type Table struct {
	ID      string
	Title   string
	Columns []domain.Column
	Rows    [][]string
}

type Set struct {
	Dashboard    dagster.Fallback
	Table        Table
	PullRequests []domain.PullRequest
	Reviewers    []domain.ReviewerStat
	ChangedFiles []domain.ChangedFile
	Commits      []domain.Commit
	Repositories []gitbrowser.Repository
}

func New(now time.Time) Set {
	return Set{
		Dashboard:    Dashboard(now),
		Table:        DecisionTable(),
		PullRequests: PullRequests(),
		Reviewers:    Reviewers(),
		ChangedFiles: ChangedFiles(),
		Commits:      Commits(),
		Repositories: Repositories(),
	}
}

// Dashboard returns the fallback pipelines and runs with run times relative
// to now.
func Dashboard(now time.Time) dagster.Fallback {
	ago := func(min int) float64 {
		return float64(now.Add(-time.Duration(min) * time.Minute).UnixMilli())
	}
	end := func(min int) *float64 {
		v := ago(min)
		return &v
	}
	return dagster.Fallback{
		Pipelines: []domain.Pipeline{
			{ID: "p1", Name: "daily_ingest"},
			{ID: "p2", Name: "transform_users"},
			{ID: "p3", Name: "train_model"},
		},
		Runs: []domain.Run{
			{
				ID: "r1", Status: domain.RunSuccess, StartTime: ago(60), EndTime: end(30),
				PipelineName: "daily_ingest", ReviewStatus: domain.ReviewApproved, Reviewer: "alice@company.com",
			},
			{
				ID: "r2", Status: domain.RunFailed, StartTime: ago(120), EndTime: end(110),
				PipelineName: "transform_users",
			},
			{
				ID: "r3", Status: domain.RunStarted, StartTime: ago(5),
				PipelineName: "train_model", NeedsReview: true,
			},
		},
	}
}

func DecisionTable() Table {
	return Table{
		ID:    DefaultTableID,
		Title: DefaultTableTitle,
		Columns: []domain.Column{
			{Name: "Patient Age", Type: domain.TypeNumber, Condition: domain.CondGreaterThan},
			{Name: "Claim Amount", Type: domain.TypeNumber, Condition: domain.CondGreaterThan},
			{Name: "Diagnosis Code", Type: domain.TypeString, Condition: domain.CondEquals},
			{Name: "Provider Type", Type: domain.TypeString, Condition: domain.CondEquals},
			{Name: "Approval Status", Type: domain.TypeString, Condition: domain.CondEquals},
		},
		Rows: [][]string{
			{"65", "1200", "E11.9", "Hospital", "Approved"},
			{"34", "350", "J45.909", "Clinic", "Denied"},
			{"50", "800", "I10", "Hospital", "Pending"},
			{"72", "2200", "E78.5", "Specialist", "Approved"},
			{"29", "150", "M54.5", "Clinic", "Denied"},
		},
	}
}

func PullRequests() []domain.PullRequest {
	return []domain.PullRequest{
		{Title: "Add authentication system", Status: domain.PROpen, Author: "Tom Tran", Repo: "Likely-To-Pay-Model", Updated: "2 hours ago", Labels: []string{"feature"}},
		{Title: "Update header styling and responsive design", Status: domain.PRClosed, Author: "Jane Smith", Repo: "Value-Based Reimbursement Model", Updated: "5 hours ago", Labels: []string{"ui", "design"}},
		{Title: "Fix API endpoint URLs", Status: domain.PROpen, Author: "John Doe", Repo: "FWA Detection Model", Updated: "1 day ago", Labels: []string{"bug"}},
	}
}

func Reviewers() []domain.ReviewerStat {
	return []domain.ReviewerStat{
		{Reviewer: "alice", PRsReviewed: 12, AvgReviewTime: "6h", LastReview: "2h ago"},
		{Reviewer: "bob", PRsReviewed: 9, AvgReviewTime: "8h", LastReview: "5h ago"},
		{Reviewer: "carol", PRsReviewed: 15, AvgReviewTime: "5h", LastReview: "1d ago"},
		{Reviewer: "dave", PRsReviewed: 7, AvgReviewTime: "10h", LastReview: "2d ago"},
		{Reviewer: "eve", PRsReviewed: 11, AvgReviewTime: "7h", LastReview: "3d ago"},
	}
}

func ChangedFiles() []domain.ChangedFile {
	return []domain.ChangedFile{
		{Name: "Claims Processing Automation Model", Status: domain.FileModified, Additions: 12, Deletions: 3},
		{Name: "Value-Based Reimbursement Model", Status: domain.FileModified, Additions: 8, Deletions: 2},
		{Name: "FWA Detection Model", Status: domain.FileModified, Additions: 1, Deletions: 0},
		{Name: "Provider Markets Optimizer Model", Status: domain.FileAdded, Additions: 45, Deletions: 0},
	}
}

func Commits() []domain.Commit {
	return []domain.Commit{
		{Hash: "a1b2c3d", Message: "Add authentication system", Author: "Tom Tran", Time: "2 hours ago", Branch: "main"},
		{Hash: "e4f5g6h", Message: "Update header styling and responsive design", Author: "Jane Smith", Time: "5 hours ago", Branch: "main"},
		{Hash: "i7j8k9l", Message: "Fix API endpoint URLs", Author: "John Doe", Time: "1 day ago", Branch: "main"},
		{Hash: "m0n1o2p", Message: "Initial project setup", Author: "Jane Smith", Time: "3 days ago", Branch: "main"},
	}
}
