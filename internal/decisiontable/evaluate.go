package decisiontable

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pbinitiative/feel"

	"infinity/internal/domain"
)

var ErrInvalidInput = errors.New("invalid input")

// Evaluation is the outcome of evaluating the table as rules.
type Evaluation struct {
	Matched bool   `json:"matched"`
	Row     int    `json:"row"`
	Output  string `json:"output"`
}

// Evaluate treats each row as a rule: the input cell of every column is
// compared to the matching input with the column's condition, typed by the
// column type, through FEEL. The first row whose cells all match wins.
// Empty cells match any input.
func (t *Table) Evaluate(inputs []string) (Evaluation, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.grid.NumColumns()
	if n == 0 {
		return Evaluation{Row: -1, Output: NoMatch}, nil
	}
	for ri, r := range t.grid.rows {
		ok, err := ruleMatches(t.grid.columns[:n-1], r.cells[:n-1], inputs)
		if err != nil {
			return Evaluation{}, errors.Wrapf(err, "row %d", ri)
		}
		if ok {
			return Evaluation{Matched: true, Row: ri, Output: r.cells[n-1]}, nil
		}
	}
	return Evaluation{Row: -1, Output: NoMatch}, nil
}

func ruleMatches(cols []domain.Column, cells, inputs []string) (bool, error) {
	for i, col := range cols {
		input := ""
		if i < len(inputs) {
			input = inputs[i]
		}
		ok, err := cellMatches(col, cells[i], input)
		if err != nil {
			return false, errors.Wrapf(err, "column %q", col.Name)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func cellMatches(col domain.Column, cell, input string) (bool, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return true, nil
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return false, nil
	}
	value, err := scopeValue(col.Type, input)
	if err != nil {
		return false, err
	}
	expr, err := conditionExpression(col, cell)
	if err != nil {
		return false, err
	}
	result, err := feel.EvalStringWithScope(expr, map[string]interface{}{"input": value})
	if err != nil {
		return false, errors.Wrapf(err, "evaluate %q", expr)
	}
	b, ok := result.(bool)
	if !ok {
		return false, nil
	}
	return b, nil
}

func scopeValue(t domain.ColumnType, input string) (interface{}, error) {
	switch t {
	case domain.TypeNumber:
		if _, err := strconv.ParseFloat(input, 64); err != nil {
			return nil, errors.Wrapf(ErrInvalidInput, "%q is not a number", input)
		}
		return feel.EvalString(input)
	case domain.TypeBoolean:
		b, err := strconv.ParseBool(input)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidInput, "%q is not a boolean", input)
		}
		return b, nil
	default:
		return input, nil
	}
}

func literal(t domain.ColumnType, cell string) (string, error) {
	switch t {
	case domain.TypeNumber:
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return "", errors.Wrapf(ErrInvalidInput, "cell %q is not a number", cell)
		}
		return cell, nil
	case domain.TypeBoolean:
		b, err := strconv.ParseBool(cell)
		if err != nil {
			return "", errors.Wrapf(ErrInvalidInput, "cell %q is not a boolean", cell)
		}
		return strconv.FormatBool(b), nil
	case domain.TypeDate:
		return "date(" + strconv.Quote(cell) + ")", nil
	default:
		return strconv.Quote(cell), nil
	}
}

func conditionExpression(col domain.Column, cell string) (string, error) {
	subject := "input"
	if col.Type == domain.TypeDate {
		subject = "date(input)"
	}
	if col.Condition == domain.CondContains {
		return "contains(string(input), " + strconv.Quote(cell) + ")", nil
	}
	lit, err := literal(col.Type, cell)
	if err != nil {
		return "", err
	}
	switch col.Condition {
	case domain.CondGreaterThan:
		return subject + " > " + lit, nil
	case domain.CondLessThan:
		return subject + " < " + lit, nil
	default:
		return subject + " = " + lit, nil
	}
}
