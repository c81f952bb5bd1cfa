package decisiontable

// Key names a navigation key as the browser reports it.
type Key string

const (
	KeyArrowRight Key = "ArrowRight"
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowDown  Key = "ArrowDown"
	KeyArrowUp    Key = "ArrowUp"
	KeyTab        Key = "Tab"
	KeyShiftTab   Key = "Shift+Tab"
)

// Cursor is the focused cell.
type Cursor struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Move returns the cursor after pressing key on a rows x cols grid.
// Motion past an edge and unknown keys leave the cursor where it is.
func (c Cursor) Move(key Key, rows, cols int) Cursor {
	next := c
	switch key {
	case KeyArrowRight, KeyTab:
		if c.Col+1 < cols {
			next.Col = c.Col + 1
		}
	case KeyArrowLeft, KeyShiftTab:
		if c.Col-1 >= 0 {
			next.Col = c.Col - 1
		}
	case KeyArrowDown:
		if c.Row+1 < rows {
			next.Row = c.Row + 1
		}
	case KeyArrowUp:
		if c.Row-1 >= 0 {
			next.Row = c.Row - 1
		}
	}
	return next
}

// Clamp pulls the cursor back inside a rows x cols grid.
func (c Cursor) Clamp(rows, cols int) Cursor {
	c.Row = clamp(c.Row, rows)
	c.Col = clamp(c.Col, cols)
	return c
}

func clamp(v, n int) int {
	if v >= n {
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	return v
}
