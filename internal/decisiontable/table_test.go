package decisiontable_test

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinity/internal/decisiontable"
	"infinity/internal/domain"
)

func ageTable() *decisiontable.Table {
	cols := []domain.Column{
		{Name: "Age>18", Type: domain.TypeNumber, Condition: domain.CondGreaterThan},
		{Name: "Result", Type: domain.TypeString, Condition: domain.CondEquals},
	}
	return decisiontable.New("t1", "Age check", "repo", cols, [][]string{{"20", "Yes"}, {"10", "No"}})
}

func assertRectangular(t *testing.T, v decisiontable.View) {
	t.Helper()
	for i, r := range v.Rows {
		assert.Len(t, r, len(v.Columns), "row %d", i)
	}
}

func TestColumnMutationsKeepRowsRectangular(t *testing.T) {
	tbl := ageTable()
	col := tbl.AddColumn()
	assert.Equal(t, "Condition 3", col.Name)
	assert.Equal(t, domain.TypeString, col.Type)
	assert.Equal(t, domain.CondEquals, col.Condition)
	v := tbl.View()
	assertRectangular(t, v)
	assert.Equal(t, []string{"20", "Yes", ""}, v.Rows[0])

	require.NoError(t, tbl.RemoveColumn(0))
	v = tbl.View()
	assertRectangular(t, v)
	assert.Equal(t, []string{"Yes", ""}, v.Rows[0])

	tbl.AddRow()
	v = tbl.View()
	assertRectangular(t, v)
	assert.Len(t, v.Rows, 3)

	err := tbl.RemoveColumn(5)
	assert.True(t, errors.Is(err, decisiontable.ErrOutOfRange))
	assertRectangular(t, tbl.View())
}

func TestRowIDsSurviveRemovals(t *testing.T) {
	tbl := ageTable()
	tbl.AddRow()
	ids := tbl.View().RowIDs
	require.Len(t, ids, 3)
	assert.NotEqual(t, ids[0], ids[1])

	require.NoError(t, tbl.RemoveRow(0))
	tbl.AddColumn()
	v := tbl.View()
	assert.Equal(t, ids[1:], v.RowIDs)

	tbl.AddRow()
	v = tbl.View()
	require.Len(t, v.RowIDs, 3)
	assert.NotContains(t, ids, v.RowIDs[2])
}

func TestSummaryReflectsLastRun(t *testing.T) {
	tbl := ageTable()
	require.NoError(t, tbl.UpdateTestInput(0, 0, "20"))
	require.NoError(t, tbl.UpdateTestExpected(0, "Yes"))
	assert.Equal(t, decisiontable.Summary{Total: 1}, tbl.Summary())

	tbl.RunAll()
	assert.Equal(t, decisiontable.Summary{Passed: 1, Total: 1}, tbl.Summary())
}

func TestUpdateColumnValidatesEnums(t *testing.T) {
	tbl := ageTable()
	require.NoError(t, tbl.UpdateColumn(0, "condition", "Less Than"))
	require.NoError(t, tbl.UpdateColumn(0, "name", "Age"))
	assert.Equal(t, domain.CondLessThan, tbl.View().Columns[0].Condition)
	assert.Equal(t, "Age", tbl.View().Columns[0].Name)

	err := tbl.UpdateColumn(0, "type", "Money")
	assert.True(t, errors.Is(err, decisiontable.ErrInvalidField))
	err = tbl.UpdateColumn(0, "colour", "red")
	assert.True(t, errors.Is(err, decisiontable.ErrInvalidField))
}

func TestCursorClampsToGrid(t *testing.T) {
	tbl := ageTable()
	assert.Equal(t, decisiontable.Cursor{Row: 0, Col: 0}, tbl.Navigate(decisiontable.KeyArrowUp))
	assert.Equal(t, decisiontable.Cursor{Row: 0, Col: 0}, tbl.Navigate(decisiontable.KeyShiftTab))
	assert.Equal(t, decisiontable.Cursor{Row: 0, Col: 1}, tbl.Navigate(decisiontable.KeyTab))
	assert.Equal(t, decisiontable.Cursor{Row: 0, Col: 1}, tbl.Navigate(decisiontable.KeyArrowRight))
	assert.Equal(t, decisiontable.Cursor{Row: 1, Col: 1}, tbl.Navigate(decisiontable.KeyArrowDown))
	assert.Equal(t, decisiontable.Cursor{Row: 1, Col: 1}, tbl.Navigate(decisiontable.KeyArrowDown))
	assert.Equal(t, decisiontable.Cursor{Row: 1, Col: 0}, tbl.Navigate(decisiontable.KeyArrowLeft))
	assert.Equal(t, decisiontable.Cursor{Row: 1, Col: 0}, tbl.Navigate(decisiontable.Key("Enter")))

	require.NoError(t, tbl.RemoveRow(1))
	assert.Equal(t, decisiontable.Cursor{Row: 0, Col: 0}, tbl.View().Cursor)
	assert.Equal(t, decisiontable.Cursor{Row: 0, Col: 1}, tbl.Select(9, 9))
}

func TestRunAllMatchesFirstRow(t *testing.T) {
	tbl := ageTable()
	require.NoError(t, tbl.UpdateTestInput(0, 0, "20"))
	require.NoError(t, tbl.UpdateTestExpected(0, "Yes"))
	idx := tbl.AddTestCase()
	require.NoError(t, tbl.UpdateTestInput(idx, 0, "99"))

	sum := tbl.RunAll()
	v := tbl.View()
	require.Len(t, v.TestCases, 2)
	assert.Equal(t, "Yes", *v.TestCases[0].Result)
	assert.Equal(t, domain.TestPass, v.TestCases[0].Status)
	assert.Equal(t, decisiontable.NoMatch, *v.TestCases[1].Result)
	assert.Equal(t, domain.TestPending, v.TestCases[1].Status)
	assert.Equal(t, decisiontable.Summary{Passed: 1, Failed: 0, Total: 2}, sum)
	assert.True(t, v.SuiteRun)
	require.NotNil(t, v.Summary)
}

func TestRunAllNoMatchFailsWhenExpected(t *testing.T) {
	tbl := ageTable()
	require.NoError(t, tbl.UpdateTestInput(0, 0, "42"))
	require.NoError(t, tbl.UpdateTestExpected(0, "Yes"))
	tbl.RunAll()
	tc := tbl.View().TestCases[0]
	assert.Equal(t, decisiontable.NoMatch, *tc.Result)
	assert.Equal(t, domain.TestFail, tc.Status)
}

func TestRunAllIsIdempotent(t *testing.T) {
	tbl := ageTable()
	require.NoError(t, tbl.UpdateTestInput(0, 0, "10"))
	require.NoError(t, tbl.UpdateTestExpected(0, "Yes"))
	tbl.AddTestCase()
	first := tbl.RunAll()
	v1 := tbl.View().TestCases
	second := tbl.RunAll()
	v2 := tbl.View().TestCases
	assert.Equal(t, first, second)
	assert.Equal(t, v1, v2)
	assert.Equal(t, "No", *v1[0].Result)
	assert.Equal(t, domain.TestFail, v1[0].Status)
}

func TestRemoveTestCase(t *testing.T) {
	tbl := ageTable()
	tbl.AddTestCase()
	require.NoError(t, tbl.RemoveTestCase(0))
	assert.Len(t, tbl.View().TestCases, 1)
	assert.Error(t, tbl.RemoveTestCase(3))
}

type memStore struct {
	data    map[string][]byte
	entries []domain.ChangeLogEntry
}

func (m *memStore) PutSnapshot(_ context.Context, key string, data []byte, _ string) error {
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = data
	return nil
}

func (m *memStore) GetSnapshot(_ context.Context, key string) ([]byte, error) {
	d, ok := m.data[key]
	if !ok {
		return nil, errors.New("missing")
	}
	return d, nil
}

func (m *memStore) AppendChange(_ context.Context, e domain.ChangeLogEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func TestSaveAndRestore(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	tbl := ageTable()
	tbl.SetTitle("Saved")
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entry, err := tbl.Save(ctx, store, store, "tester", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T00:00:00Z", entry.TS)
	assert.Len(t, store.entries, 1)
	assert.Contains(t, string(store.data[decisiontable.SnapshotKey]), `"title":"Saved"`)

	other := decisiontable.New("t2", "Other", "repo", nil, nil)
	require.NoError(t, other.Restore(ctx, store))
	v := other.View()
	assert.Equal(t, "Saved", v.Title)
	assert.Equal(t, [][]string{{"20", "Yes"}, {"10", "No"}}, v.Rows)
	assert.Len(t, v.TestCases, 1)
}

func TestDecodeSnapshotAcceptsNumbers(t *testing.T) {
	snap, err := decisiontable.DecodeSnapshot([]byte(`{
		"title": "Claims",
		"columns": [{"name":"Age","type":"Number","condition":"Greater Than"},{"name":"Out","type":"String","condition":"Equals"}],
		"rows": [[65, "Approved"], [1.5, true]],
		"testCases": [{"inputs":["65"],"expected":"Approved","result":null,"status":null}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"65", "Approved"}, {"1.5", "true"}}, snap.Rows)
	require.Len(t, snap.TestCases, 1)
	assert.Nil(t, snap.TestCases[0].Result)
	assert.Equal(t, domain.TestPending, snap.TestCases[0].Status)

	_, err = decisiontable.DecodeSnapshot([]byte(`{"title":`))
	assert.True(t, errors.Is(err, decisiontable.ErrInvalidSnapshot))
}
