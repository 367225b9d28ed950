package seating

import "math"

// Point is a position on the plan canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Drawing and hit-test dimensions of the plan, in canvas units.
const (
	DefaultSeatRadius = 86.0
	RoundTableRadius  = 70.0
	RectTableWidth    = 160.0
	RectTableHeight   = 100.0
)

// SeatPositions places capacity seats on a circle of radius around the
// table origin.  Seat 1 sits at the top (-90 degrees) shifted by the
// table rotation and the rest follow clockwise.  Rectangular tables use
// the same ring.
func SeatPositions(capacity, rotation int, radius float64) []Point {
	if capacity < 1 {
		return nil
	}
	out := make([]Point, capacity)
	step := 360.0 / float64(capacity)
	for i := range out {
		a := degToRad(float64(rotation) + float64(i)*step - 90)
		out[i] = Point{X: radius * math.Cos(a), Y: radius * math.Sin(a)}
	}
	return out
}

// Contains reports whether p falls on the table.  The test runs in the
// table's unrotated frame; with rotationAware the point is first rotated
// back by the table's rotation around its centre.
func (t Table) Contains(p Point, rotationAware bool) bool {
	dx, dy := p.X-t.X, p.Y-t.Y
	if rotationAware && t.Rotation != 0 {
		a := degToRad(float64(-t.Rotation))
		dx, dy = dx*math.Cos(a)-dy*math.Sin(a), dx*math.Sin(a)+dy*math.Cos(a)
	}
	switch t.Shape {
	case ShapeRect:
		return math.Abs(dx) <= RectTableWidth/2 && math.Abs(dy) <= RectTableHeight/2
	default:
		return dx*dx+dy*dy <= RoundTableRadius*RoundTableRadius
	}
}

// HitTest returns the first table, in collection order, under p.
func HitTest(tables []Table, p Point, rotationAware bool) (Table, bool) {
	for _, t := range tables {
		if t.Contains(p, rotationAware) {
			return t, true
		}
	}
	return Table{}, false
}

func degToRad(deg float64) float64 { return deg * math.Pi / 180 }
