package decisiontable

import (
	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"

	"infinity/internal/domain"
)

var ErrInvalidSnapshot = errors.New("invalid snapshot")

// DecodeSnapshot parses a stored snapshot. Cells may be JSON strings,
// numbers or booleans; all are kept in their string form so that
// test-case matching compares the same text the editor displays.
func DecodeSnapshot(data []byte) (domain.Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return domain.Snapshot{}, errors.Wrap(ErrInvalidSnapshot, "malformed json")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return domain.Snapshot{}, errors.Wrap(ErrInvalidSnapshot, "expected object")
	}
	snap := domain.Snapshot{Title: doc.Get("title").String()}
	for _, c := range doc.Get("columns").Array() {
		col := domain.Column{
			Name:      c.Get("name").String(),
			Type:      domain.ColumnType(c.Get("type").String()),
			Condition: domain.Condition(c.Get("condition").String()),
		}
		if col.Type == "" {
			col.Type = domain.TypeString
		}
		if col.Condition == "" {
			col.Condition = domain.CondEquals
		}
		snap.Columns = append(snap.Columns, col)
	}
	for _, r := range doc.Get("rows").Array() {
		cells := make([]string, 0, len(snap.Columns))
		for _, cell := range r.Array() {
			cells = append(cells, cell.String())
		}
		snap.Rows = append(snap.Rows, cells)
	}
	for _, tc := range doc.Get("testCases").Array() {
		c := domain.TestCase{Expected: tc.Get("expected").String()}
		for _, in := range tc.Get("inputs").Array() {
			c.Inputs = append(c.Inputs, in.String())
		}
		if res := tc.Get("result"); res.Exists() && res.Type != gjson.Null {
			s := res.String()
			c.Result = &s
		}
		c.Status = domain.TestStatus(tc.Get("status").String())
		snap.TestCases = append(snap.TestCases, c)
	}
	return snap, nil
}
