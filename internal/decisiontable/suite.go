package decisiontable

import "infinity/internal/domain"

// NoMatch is the result of a test case whose inputs match no row.
const NoMatch = "No match found"

type Summary struct {
	Passed int `json:"passed"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// newTestCase returns an empty case sized to the grid's input columns.
func newTestCase(g *Grid) domain.TestCase {
	return domain.TestCase{Inputs: make([]string, inputColumns(g))}
}

func inputColumns(g *Grid) int {
	if g.NumColumns() == 0 {
		return 0
	}
	return g.NumColumns() - 1
}

// lookup finds the output of the first row whose input cells equal inputs.
func lookup(g *Grid, inputs []string) (string, bool) {
	n := g.NumColumns()
	if n == 0 {
		return "", false
	}
	for _, r := range g.rows {
		if rowMatches(r.cells[:n-1], inputs) {
			return r.cells[n-1], true
		}
	}
	return "", false
}

func rowMatches(cells, inputs []string) bool {
	for i, cell := range cells {
		if i >= len(inputs) || cell != inputs[i] {
			return false
		}
	}
	return true
}

func runCase(g *Grid, tc domain.TestCase) domain.TestCase {
	actual, ok := lookup(g, tc.Inputs)
	if !ok {
		actual = NoMatch
	}
	tc.Result = &actual
	switch {
	case tc.Expected == "":
		tc.Status = domain.TestPending
	case actual == tc.Expected:
		tc.Status = domain.TestPass
	default:
		tc.Status = domain.TestFail
	}
	return tc
}

func summarize(cases []domain.TestCase) Summary {
	s := Summary{Total: len(cases)}
	for _, tc := range cases {
		switch tc.Status {
		case domain.TestPass:
			s.Passed++
		case domain.TestFail:
			s.Failed++
		}
	}
	return s
}
