package fixtures_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinity/internal/fixtures"
)

func TestRunTimesAreRelativeToNow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	set := fixtures.New(now)
	runs := set.Dashboard.Runs
	require.Len(t, runs, 3)

	nowMs := float64(now.UnixMilli())
	assert.Equal(t, nowMs-60*60*1000, runs[0].StartTime)
	require.NotNil(t, runs[0].EndTime)
	assert.Equal(t, nowMs-30*60*1000, *runs[0].EndTime)
	assert.Nil(t, runs[2].EndTime)
	assert.True(t, runs[2].AwaitingReview())
	assert.False(t, runs[0].AwaitingReview())
}

func TestSetsAreIndependent(t *testing.T) {
	a := fixtures.New(time.Now())
	b := fixtures.New(time.Now())
	a.Table.Rows[0][0] = "99"
	a.Commits[0].Message = "changed"
	assert.Equal(t, "65", b.Table.Rows[0][0])
	assert.Equal(t, "Add authentication system", b.Commits[0].Message)
}

func TestDecisionTableIsRectangular(t *testing.T) {
	tbl := fixtures.DecisionTable()
	for _, row := range tbl.Rows {
		assert.Len(t, row, len(tbl.Columns))
	}
	assert.Len(t, fixtures.Repositories(), 4)
	assert.Len(t, fixtures.Reviewers(), 5)
}
