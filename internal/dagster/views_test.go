package dagster_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"infinity/internal/dagster"
	"infinity/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func TestFilterRuns(t *testing.T) {
	runs := []domain.Run{
		{ID: "abc123", Status: domain.RunSuccess, PipelineName: "daily_ingest"},
		{ID: "def456", Status: domain.RunFailed, PipelineName: "transform_users"},
		{ID: "ghi789", Status: domain.RunSuccess, PipelineName: "Train_Model"},
	}
	assert.Len(t, dagster.FilterRuns(runs, "", ""), 3)
	assert.Len(t, dagster.FilterRuns(runs, "SUCCESS", ""), 2)
	got := dagster.FilterRuns(runs, "", "  train ")
	assert.Equal(t, "ghi789", got[0].ID)
	assert.Equal(t, "def456", dagster.FilterRuns(runs, "FAILED", "DEF")[0].ID)
	assert.Empty(t, dagster.FilterRuns(runs, "FAILED", "abc"))
}

func TestChartData(t *testing.T) {
	runs := []domain.Run{
		{ID: "finished-run", Status: domain.RunSuccess, StartTime: 1000, EndTime: ptr(31000)},
		{ID: "running", Status: domain.RunStarted, StartTime: 50000},
		{ID: "skewed", Status: domain.RunFailed, StartTime: 9000, EndTime: ptr(1000)},
	}
	pts := dagster.ChartData(runs, 110000)
	assert.Equal(t, "finished", pts[0].Name)
	assert.Equal(t, 30.0, pts[0].Duration)
	assert.Equal(t, 60.0, pts[1].Duration)
	assert.Equal(t, 0.0, pts[2].Duration)
}

func TestBadges(t *testing.T) {
	assert.Equal(t, "Success", dagster.StatusBadge(domain.RunSuccess))
	assert.Equal(t, "Failed", dagster.StatusBadge(domain.RunFailed))
	assert.Equal(t, "Running", dagster.StatusBadge(domain.RunStarting))
	assert.Equal(t, "QUEUED", dagster.StatusBadge("QUEUED"))

	assert.Empty(t, dagster.ReviewBadge(domain.Run{}))
	assert.Equal(t, "Pending Review", dagster.ReviewBadge(domain.Run{NeedsReview: true}))
	assert.Equal(t, "Approved", dagster.ReviewBadge(domain.Run{NeedsReview: true, ReviewStatus: domain.ReviewApproved}))
	assert.Equal(t, "Denied", dagster.ReviewBadge(domain.Run{NeedsReview: true, ReviewStatus: domain.ReviewDenied}))
}
