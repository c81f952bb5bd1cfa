package decisiontable

import (
	"github.com/cockroachdb/errors"

	"infinity/internal/domain"
)

var (
	ErrOutOfRange   = errors.New("index out of range")
	ErrInvalidField = errors.New("invalid column field")
)

// row is one rule record. cells always has one entry per grid column.
type row struct {
	id    uint64
	cells []string
}

// Grid owns the column list and the row records of a decision table.
// Column changes resize every row record in place so that each row keeps
// exactly len(columns) cells.
type Grid struct {
	columns []domain.Column
	rows    []*row
	nextID  uint64
}

func NewGrid(columns []domain.Column) *Grid {
	g := &Grid{columns: append([]domain.Column(nil), columns...)}
	return g
}

func (g *Grid) NumColumns() int { return len(g.columns) }
func (g *Grid) NumRows() int    { return len(g.rows) }

func (g *Grid) Columns() []domain.Column {
	return append([]domain.Column{}, g.columns...)
}

// Rows returns a copy of the cell matrix.
func (g *Grid) Rows() [][]string {
	out := make([][]string, len(g.rows))
	for i, r := range g.rows {
		out[i] = append([]string{}, r.cells...)
	}
	return out
}

// RowIDs returns the stable row identifiers in position order. An id stays
// with its row across column changes and the removal of other rows.
func (g *Grid) RowIDs() []uint64 {
	ids := make([]uint64, len(g.rows))
	for i, r := range g.rows {
		ids[i] = r.id
	}
	return ids
}

func (g *Grid) AddColumn(col domain.Column) int {
	g.columns = append(g.columns, col)
	for _, r := range g.rows {
		r.cells = append(r.cells, "")
	}
	return len(g.columns) - 1
}

func (g *Grid) RemoveColumn(c int) error {
	if c < 0 || c >= len(g.columns) {
		return errors.Wrapf(ErrOutOfRange, "column %d", c)
	}
	g.columns = append(g.columns[:c], g.columns[c+1:]...)
	for _, r := range g.rows {
		r.cells = append(r.cells[:c], r.cells[c+1:]...)
	}
	return nil
}

// AddRow appends a row of empty cells and returns its position.
func (g *Grid) AddRow() int {
	return g.appendRow(make([]string, len(g.columns)))
}

// AppendRow appends the given cells, padding or truncating to the column count.
func (g *Grid) AppendRow(cells []string) int {
	fitted := make([]string, len(g.columns))
	copy(fitted, cells)
	return g.appendRow(fitted)
}

func (g *Grid) appendRow(cells []string) int {
	g.nextID++
	g.rows = append(g.rows, &row{id: g.nextID, cells: cells})
	return len(g.rows) - 1
}

func (g *Grid) RemoveRow(r int) error {
	if r < 0 || r >= len(g.rows) {
		return errors.Wrapf(ErrOutOfRange, "row %d", r)
	}
	copy(g.rows[r:], g.rows[r+1:])
	g.rows[len(g.rows)-1] = nil
	g.rows = g.rows[:len(g.rows)-1]
	return nil
}

func (g *Grid) UpdateCell(r, c int, value string) error {
	if err := g.checkCell(r, c); err != nil {
		return err
	}
	g.rows[r].cells[c] = value
	return nil
}

// UpdateColumn sets one field of a column header. field is one of
// name, type or condition.
func (g *Grid) UpdateColumn(c int, field, value string) error {
	if c < 0 || c >= len(g.columns) {
		return errors.Wrapf(ErrOutOfRange, "column %d", c)
	}
	col := &g.columns[c]
	switch field {
	case "name":
		col.Name = value
	case "type":
		t, err := ParseColumnType(value)
		if err != nil {
			return err
		}
		col.Type = t
	case "condition":
		cond, err := ParseCondition(value)
		if err != nil {
			return err
		}
		col.Condition = cond
	default:
		return errors.Wrapf(ErrInvalidField, "%q", field)
	}
	return nil
}

func (g *Grid) checkCell(r, c int) error {
	if r < 0 || r >= len(g.rows) {
		return errors.Wrapf(ErrOutOfRange, "row %d", r)
	}
	if c < 0 || c >= len(g.columns) {
		return errors.Wrapf(ErrOutOfRange, "column %d", c)
	}
	return nil
}

func ParseColumnType(v string) (domain.ColumnType, error) {
	for _, t := range domain.ColumnTypes {
		if string(t) == v {
			return t, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidField, "invalid column type %q", v)
}

func ParseCondition(v string) (domain.Condition, error) {
	for _, c := range domain.Conditions {
		if string(c) == v {
			return c, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidField, "invalid condition %q", v)
}
