// Package review keeps the queue of runs awaiting a human decision and the
// static pull-request and reviewer listings shown next to it.
package review

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"infinity/internal/domain"
)

const (
	DefaultReviewer     = "current-user@company.com"
	DefaultHistoryLimit = 5
)

var (
	ErrNotPending      = errors.New("run is not pending review")
	ErrInvalidDecision = errors.New("invalid review decision")
)

// Panel is safe for concurrent use.
type Panel struct {
	mu        sync.Mutex
	pending   []domain.Run
	resolved  map[string]struct{}
	history   []domain.Run
	prs       []domain.PullRequest
	reviewers []domain.ReviewerStat
	now       func() time.Time
}

func NewPanel(prs []domain.PullRequest, reviewers []domain.ReviewerStat, now func() time.Time) *Panel {
	if now == nil {
		now = time.Now
	}
	return &Panel{
		pending:   []domain.Run{},
		resolved:  map[string]struct{}{},
		prs:       prs,
		reviewers: reviewers,
		now:       now,
	}
}

// Restore marks previously decided runs as resolved so that they stay out
// of the pending queue.
func (p *Panel) Restore(records []domain.ReviewRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, rec := range records {
		p.resolved[rec.RunID] = struct{}{}
	}
}

// Sync rebuilds the pending queue from runs.
func (p *Panel) Sync(runs []domain.Run) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = []domain.Run{}
	for _, r := range runs {
		if !r.AwaitingReview() {
			continue
		}
		if _, done := p.resolved[r.ID]; done {
			continue
		}
		p.pending = append(p.pending, r)
	}
}

func (p *Panel) Pending() []domain.Run {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Run{}, p.pending...)
}

// Outcome is the result of a decision.
type Outcome struct {
	Run     domain.Run          `json:"run"`
	Record  domain.ReviewRecord `json:"record"`
	Message string              `json:"message"`
}

func (p *Panel) Approve(runID, reviewer, feedback string) (Outcome, error) {
	return p.Decide(runID, domain.ReviewApproved, reviewer, feedback)
}

func (p *Panel) Deny(runID, reviewer, feedback string) (Outcome, error) {
	return p.Decide(runID, domain.ReviewDenied, reviewer, feedback)
}

// Decide resolves a pending run. The transition is one-way: a resolved run
// never returns to the queue.
func (p *Panel) Decide(runID string, decision domain.ReviewStatus, reviewer, feedback string) (Outcome, error) {
	return p.DecideWith(runID, decision, reviewer, feedback, nil)
}

// DecideWith is Decide with a commit step that runs under the panel lock
// before the run leaves the queue. If commit fails the run stays pending.
func (p *Panel) DecideWith(runID string, decision domain.ReviewStatus, reviewer, feedback string, commit func(Outcome) error) (Outcome, error) {
	if decision != domain.ReviewApproved && decision != domain.ReviewDenied {
		return Outcome{}, errors.Wrapf(ErrInvalidDecision, "%q", decision)
	}
	if strings.TrimSpace(reviewer) == "" {
		reviewer = DefaultReviewer
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	idx := -1
	for i, r := range p.pending {
		if r.ID == runID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Outcome{}, errors.Wrapf(ErrNotPending, "run %s", runID)
	}

	at := p.now().UTC()
	run := p.pending[idx]
	run.ReviewStatus = decision
	run.Reviewer = reviewer
	run.ReviewFeedback = feedback
	run.ReviewedAt = at.UnixMilli()
	out := Outcome{
		Run: run,
		Record: domain.ReviewRecord{
			RunID:      runID,
			Decision:   decision,
			Reviewer:   reviewer,
			Feedback:   feedback,
			ReviewedAt: at.Format(time.RFC3339),
		},
		Message: fmt.Sprintf("Run %s %s successfully", runID, decision),
	}
	if commit != nil {
		if err := commit(out); err != nil {
			return Outcome{}, err
		}
	}

	p.pending = append(p.pending[:idx], p.pending[idx+1:]...)
	p.resolved[runID] = struct{}{}
	p.history = append(p.history, run)
	return out, nil
}

// History returns the latest n resolved runs, newest first.
func (p *Panel) History(n int) []domain.Run {
	if n <= 0 {
		n = DefaultHistoryLimit
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := []domain.Run{}
	for i := len(p.history) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, p.history[i])
	}
	return out
}

// PullRequests filters by tab (Open or Closed, empty for all) and a
// case-insensitive query over title, author and repo.
func (p *Panel) PullRequests(tab domain.PRStatus, query string) []domain.PullRequest {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []domain.PullRequest{}
	for _, pr := range p.prs {
		if tab != "" && pr.Status != tab {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(pr.Title), q) &&
			!strings.Contains(strings.ToLower(pr.Author), q) &&
			!strings.Contains(strings.ToLower(pr.Repo), q) {
			continue
		}
		out = append(out, pr)
	}
	return out
}

func (p *Panel) Reviewers() []domain.ReviewerStat {
	return append([]domain.ReviewerStat{}, p.reviewers...)
}
