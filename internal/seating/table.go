package seating

import "fmt"

// Shape is the outline of a table on the plan.
type Shape string

const (
	ShapeRound Shape = "round"
	ShapeRect  Shape = "rect"
)

// Valid reports whether s is a known shape.
func (s Shape) Valid() bool {
	return s == ShapeRound || s == ShapeRect
}

// Table is one table of the layout.  Number is the join key to
// Guest.TableNumber; ID is local and stable for the table's lifetime.
// The JSON names match the layout files exported by the planner.
type Table struct {
	ID       string  `json:"id"`
	Number   int     `json:"number"`
	Name     string  `json:"name"`
	Shape    Shape   `json:"type"`
	Capacity int     `json:"seats"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation int     `json:"rotation"`
}

// Position returns the table centre on the canvas.
func (t Table) Position() Point {
	return Point{X: t.X, Y: t.Y}
}

// TableDraft carries the caller-supplied fields of a new table.  Zero
// values are replaced with the defaults of the "new table" dialog.
type TableDraft struct {
	Number   int     `json:"number"`
	Name     string  `json:"name"`
	Shape    Shape   `json:"type"`
	Capacity int     `json:"seats"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation int     `json:"rotation"`
}

const (
	DefaultCapacity = 8
	DefaultX        = 220
	DefaultY        = 160
)

// DefaultTableName is the label given to a table created without a name.
func DefaultTableName(number int) string {
	return fmt.Sprintf("Mesa %d", number)
}
