package dagster

import (
	"math"
	"strings"

	"infinity/internal/domain"
)

// ChartPoint is one bar of the run-duration chart.
type ChartPoint struct {
	Name     string  `json:"name"`
	Duration float64 `json:"duration"`
	Status   string  `json:"status"`
}

// FilterRuns keeps runs whose status equals status (when set) and whose id
// or pipeline name contains text, case-insensitively.
func FilterRuns(runs []domain.Run, status, text string) []domain.Run {
	q := strings.ToLower(strings.TrimSpace(text))
	out := []domain.Run{}
	for _, r := range runs {
		if status != "" && string(r.Status) != status {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(r.ID), q) &&
			!strings.Contains(strings.ToLower(r.PipelineName), q) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ChartData computes durations in seconds. Running runs are measured up to
// nowMs.
func ChartData(runs []domain.Run, nowMs float64) []ChartPoint {
	out := make([]ChartPoint, 0, len(runs))
	for _, r := range runs {
		end := nowMs
		if r.EndTime != nil {
			end = *r.EndTime
		}
		out = append(out, ChartPoint{
			Name:     shortID(r.ID),
			Duration: math.Max(0, end-r.StartTime) / 1000,
			Status:   string(r.Status),
		})
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func StatusBadge(s domain.RunStatus) string {
	switch s {
	case domain.RunSuccess:
		return "Success"
	case domain.RunFailed:
		return "Failed"
	case domain.RunStarted, domain.RunStarting:
		return "Running"
	default:
		return string(s)
	}
}

// ReviewBadge is empty for runs that need no review.
func ReviewBadge(r domain.Run) string {
	if !r.NeedsReview {
		return ""
	}
	switch r.ReviewStatus {
	case domain.ReviewApproved:
		return "Approved"
	case domain.ReviewDenied:
		return "Denied"
	default:
		return "Pending Review"
	}
}
