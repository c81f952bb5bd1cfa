package reporting_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinity/internal/reporting"
)

func TestGenerateDefaultsAndSeed(t *testing.T) {
	a, err := reporting.Generate("", "", 7)
	require.NoError(t, err)
	b, err := reporting.Generate("90d", "All teams", 7)
	require.NoError(t, err)
	assert.Equal(t, a, b, "same seed, same report")
	assert.Equal(t, "90d", a.Range)
	assert.Equal(t, "All teams", a.Team)

	require.Len(t, a.Series, 12)
	assert.Equal(t, "W-11", a.Series[0].Week)
	assert.Equal(t, "W-0", a.Series[11].Week)
	assert.Equal(t, "W-0", a.ModelThroughput[11].Week)
	assert.Equal(t, 190, a.ModelThroughput[11].ModelA)
	assert.Equal(t, "96.2%", a.Cards[4].Value)
	assert.Equal(t, "52 hrs", a.Cards[1].Value)
}

func TestGenerateRejectsUnknownSelections(t *testing.T) {
	_, err := reporting.Generate("5y", "", 1)
	assert.ErrorIs(t, err, reporting.ErrInvalidRange)
	_, err = reporting.Generate("7d", "Finance", 1)
	assert.ErrorIs(t, err, reporting.ErrInvalidTeam)
}

func TestSeriesBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i, p := range reporting.WeeklySeries(rng) {
		assert.GreaterOrEqual(t, p.Merges, 5+i*3, p.Week)
		assert.LessOrEqual(t, p.Merges, 11+i*3, p.Week)
		assert.GreaterOrEqual(t, p.TestsFailed, 3)
		assert.LessOrEqual(t, p.TestsFailed, 7)
		assert.GreaterOrEqual(t, p.ErrorRate, 1.0)
		assert.LessOrEqual(t, p.ErrorRate, 2.5)
	}
}

func TestHeatmapIntensity(t *testing.T) {
	m := reporting.Heatmap(rand.New(rand.NewPCG(3, 4)))
	require.Len(t, m, 12)
	for _, row := range m {
		require.Len(t, row, 7)
		for _, c := range row {
			assert.GreaterOrEqual(t, c.Value, 0)
			want := float64(c.Value) / 5
			if want > 1 {
				want = 1
			}
			assert.InDelta(t, want, c.Intensity, 1e-9)
		}
	}
}

func TestTotalAdopters(t *testing.T) {
	series := []reporting.WeekPoint{{Merges: 8}, {Merges: 9}, {Merges: 3}, {Merges: 2}}
	// 1.33→1, 1.5→2, 0.5→1, 0.33→0
	assert.Equal(t, 4, reporting.TotalAdopters(series))
}
