package decisiontable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinity/internal/decisiontable"
	"infinity/internal/domain"
)

func TestEvaluateUsesColumnConditions(t *testing.T) {
	cols := []domain.Column{
		{Name: "Patient Age", Type: domain.TypeNumber, Condition: domain.CondGreaterThan},
		{Name: "Provider Type", Type: domain.TypeString, Condition: domain.CondEquals},
		{Name: "Approval Status", Type: domain.TypeString, Condition: domain.CondEquals},
	}
	tbl := decisiontable.New("t", "Claims", "repo", cols, [][]string{
		{"65", "Hospital", "Approved"},
		{"18", "", "Review"},
	})

	res, err := tbl.Evaluate([]string{"70", "Hospital"})
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, 0, res.Row)
	assert.Equal(t, "Approved", res.Output)

	res, err = tbl.Evaluate([]string{"30", "Clinic"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Row)
	assert.Equal(t, "Review", res.Output)

	res, err = tbl.Evaluate([]string{"10", "Clinic"})
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Equal(t, decisiontable.NoMatch, res.Output)
}

func TestEvaluateRejectsNonNumericInput(t *testing.T) {
	cols := []domain.Column{
		{Name: "Amount", Type: domain.TypeNumber, Condition: domain.CondLessThan},
		{Name: "Out", Type: domain.TypeString, Condition: domain.CondEquals},
	}
	tbl := decisiontable.New("t", "Amounts", "repo", cols, [][]string{{"100", "small"}})
	_, err := tbl.Evaluate([]string{"lots"})
	assert.ErrorIs(t, err, decisiontable.ErrInvalidInput)
}
