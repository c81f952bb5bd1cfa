package decisiontable

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"infinity/internal/domain"
)

// SnapshotKey is the storage key of the work-in-progress table.
const SnapshotKey = "decisionTableWIP"

// Store persists snapshots by key.
type Store interface {
	PutSnapshot(ctx context.Context, key string, data []byte, updatedAt string) error
	GetSnapshot(ctx context.Context, key string) ([]byte, error)
}

// ChangeLog receives one entry per save.
type ChangeLog interface {
	AppendChange(ctx context.Context, entry domain.ChangeLogEntry) error
}

// Table is a decision table model: the grid, the focus cursor and the
// attached test suite. It is safe for concurrent use.
type Table struct {
	mu        sync.Mutex
	id        string
	title     string
	repo      string
	grid      *Grid
	cursor    Cursor
	tests     []domain.TestCase
	suiteRun  bool
	changeLog []domain.ChangeLogEntry
}

// View is a point-in-time copy of a table.
type View struct {
	ID           string                  `json:"id"`
	Title        string                  `json:"title"`
	Repo         string                  `json:"repo"`
	Columns      []domain.Column         `json:"columns"`
	Rows         [][]string              `json:"rows"`
	RowIDs       []uint64                `json:"rowIds"`
	Cursor       Cursor                  `json:"cursor"`
	OutputColumn string                  `json:"outputColumn"`
	TestCases    []domain.TestCase       `json:"testCases"`
	SuiteRun     bool                    `json:"suiteRun"`
	Summary      *Summary                `json:"summary,omitempty"`
	ChangeLog    []domain.ChangeLogEntry `json:"changeLog"`
}

func New(id, title, repo string, columns []domain.Column, rows [][]string) *Table {
	t := &Table{id: id, title: title, repo: repo, grid: NewGrid(columns)}
	for _, r := range rows {
		t.grid.AppendRow(r)
	}
	t.tests = []domain.TestCase{newTestCase(t.grid)}
	return t
}

func (t *Table) View() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.viewLocked()
}

func (t *Table) viewLocked() View {
	v := View{
		ID:        t.id,
		Title:     t.title,
		Repo:      t.repo,
		Columns:   t.grid.Columns(),
		Rows:      t.grid.Rows(),
		RowIDs:    t.grid.RowIDs(),
		Cursor:    t.cursor,
		TestCases: cloneCases(t.tests),
		SuiteRun:  t.suiteRun,
		ChangeLog: append([]domain.ChangeLogEntry{}, t.changeLog...),
	}
	if n := t.grid.NumColumns(); n > 0 {
		v.OutputColumn = t.grid.columns[n-1].Name
	}
	if t.suiteRun {
		s := summarize(t.tests)
		v.Summary = &s
	}
	return v
}

func (t *Table) SetTitle(title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.title = title
}

// AddColumn appends a String/Equals column named after its position.
func (t *Table) AddColumn() domain.Column {
	t.mu.Lock()
	defer t.mu.Unlock()
	col := domain.Column{
		Name:      fmt.Sprintf("Condition %d", t.grid.NumColumns()+1),
		Type:      domain.TypeString,
		Condition: domain.CondEquals,
	}
	t.grid.AddColumn(col)
	return col
}

func (t *Table) RemoveColumn(c int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.grid.RemoveColumn(c); err != nil {
		return err
	}
	t.cursor = t.cursor.Clamp(t.grid.NumRows(), t.grid.NumColumns())
	return nil
}

func (t *Table) UpdateColumn(c int, field, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.grid.UpdateColumn(c, field, value)
}

func (t *Table) AddRow() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.grid.AddRow()
}

func (t *Table) RemoveRow(r int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.grid.RemoveRow(r); err != nil {
		return err
	}
	t.cursor = t.cursor.Clamp(t.grid.NumRows(), t.grid.NumColumns())
	return nil
}

func (t *Table) UpdateCell(r, c int, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.grid.UpdateCell(r, c, value)
}

// Navigate moves the focus cursor with a key press.
func (t *Table) Navigate(key Key) Cursor {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cursor = t.cursor.Move(key, t.grid.NumRows(), t.grid.NumColumns())
	return t.cursor
}

// Select focuses a cell directly, clamped to the grid.
func (t *Table) Select(r, c int) Cursor {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cursor = Cursor{Row: r, Col: c}.Clamp(t.grid.NumRows(), t.grid.NumColumns())
	return t.cursor
}

func (t *Table) AddTestCase() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tests = append(t.tests, newTestCase(t.grid))
	return len(t.tests) - 1
}

func (t *Table) UpdateTestInput(i, inputIdx int, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.tests) {
		return errors.Wrapf(ErrOutOfRange, "test case %d", i)
	}
	tc := &t.tests[i]
	if inputIdx < 0 {
		return errors.Wrapf(ErrOutOfRange, "input %d", inputIdx)
	}
	for len(tc.Inputs) <= inputIdx {
		tc.Inputs = append(tc.Inputs, "")
	}
	tc.Inputs[inputIdx] = value
	return nil
}

func (t *Table) UpdateTestExpected(i int, expected string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.tests) {
		return errors.Wrapf(ErrOutOfRange, "test case %d", i)
	}
	t.tests[i].Expected = expected
	return nil
}

func (t *Table) RemoveTestCase(i int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.tests) {
		return errors.Wrapf(ErrOutOfRange, "test case %d", i)
	}
	t.tests = append(t.tests[:i], t.tests[i+1:]...)
	return nil
}

// RunAll recomputes every test case against the current rows.
func (t *Table) RunAll() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.tests {
		t.tests[i] = runCase(t.grid, t.tests[i])
	}
	t.suiteRun = true
	return summarize(t.tests)
}

// Summary counts the stored test statuses without running the suite.
func (t *Table) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return summarize(t.tests)
}

func (t *Table) Snapshot() domain.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Table) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		Title:     t.title,
		Columns:   t.grid.Columns(),
		Rows:      t.grid.Rows(),
		TestCases: cloneCases(t.tests),
	}
}

// Save writes the snapshot under SnapshotKey and records a change-log
// entry. log may be nil.
func (t *Table) Save(ctx context.Context, store Store, log ChangeLog, actorID string, now time.Time) (domain.ChangeLogEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := t.snapshotLocked()
	data, err := json.Marshal(snap)
	if err != nil {
		return domain.ChangeLogEntry{}, errors.Wrap(err, "marshal snapshot")
	}
	ts := now.UTC().Format(time.RFC3339)
	if err := store.PutSnapshot(ctx, SnapshotKey, data, ts); err != nil {
		return domain.ChangeLogEntry{}, errors.Wrap(err, "save snapshot")
	}
	entry := domain.ChangeLogEntry{
		ID:      uuid.NewString(),
		TableID: t.id,
		TS:      ts,
		ActorID: actorID,
		Summary: fmt.Sprintf("Saved %q: %d columns, %d rows, %d test cases", snap.Title, len(snap.Columns), len(snap.Rows), len(snap.TestCases)),
	}
	if log != nil {
		if err := log.AppendChange(ctx, entry); err != nil {
			return domain.ChangeLogEntry{}, errors.Wrap(err, "append change log")
		}
	}
	t.changeLog = append(t.changeLog, entry)
	return entry, nil
}

// Restore replaces the table contents with the snapshot stored under
// SnapshotKey.
func (t *Table) Restore(ctx context.Context, store Store) error {
	data, err := store.GetSnapshot(ctx, SnapshotKey)
	if err != nil {
		return err
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return err
	}
	t.Apply(snap)
	return nil
}

// Apply replaces the grid, title and test cases. The cursor returns to the
// first cell and the suite summary is cleared.
func (t *Table) Apply(snap domain.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.title = snap.Title
	t.grid = NewGrid(snap.Columns)
	for _, r := range snap.Rows {
		t.grid.AppendRow(r)
	}
	t.tests = cloneCases(snap.TestCases)
	t.cursor = Cursor{}
	t.suiteRun = false
}

// SetChangeLog replaces the in-memory change log, e.g. after loading
// persisted entries.
func (t *Table) SetChangeLog(entries []domain.ChangeLogEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.changeLog = append([]domain.ChangeLogEntry{}, entries...)
}

func cloneCases(in []domain.TestCase) []domain.TestCase {
	out := make([]domain.TestCase, len(in))
	for i, tc := range in {
		tc.Inputs = append([]string{}, tc.Inputs...)
		if tc.Result != nil {
			r := *tc.Result
			tc.Result = &r
		}
		out[i] = tc
	}
	return out
}
