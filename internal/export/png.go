package export

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/iliyamo/wedding-seating/internal/seating"
)

const (
	planMargin     = 40.0
	seatDotRadius  = 14.0
	minPlanWidth   = 400
	minPlanHeight  = 300
	planLabelSize  = 11.0
	planInitialSz  = 8.0
	planEmptyLabel = "Sin mesas"
)

var (
	planBackground = drawing.ColorWhite
	tableFill      = drawing.Color{R: 0xE4, G: 0xC3, B: 0xA1, A: 0xFF}
	tableStroke    = drawing.Color{R: 0x65, G: 0x1D, B: 0x28, A: 0xFF}
	seatFree       = drawing.Color{R: 0xF5, G: 0xF5, B: 0xF5, A: 0xFF}
	seatTaken      = drawing.Color{R: 0x65, G: 0x1D, B: 0x28, A: 0xFF}
	seatStroke     = drawing.Color{R: 0x99, G: 0x99, B: 0x99, A: 0xFF}
	labelColor     = drawing.Color{R: 0x33, G: 0x33, B: 0x33, A: 0xFF}
)

// RenderPNG draws the floor plan: every table with its seat ring, the
// table name with assigned/capacity, and occupant initials on taken seats.
// The canvas is fitted to the tables' extent.
func RenderPNG(w io.Writer, tables []seating.Table, seats seating.Seating) error {
	minX, minY, maxX, maxY := planBounds(tables)
	width := int(math.Max(float64(minPlanWidth), maxX-minX+2*planMargin))
	height := int(math.Max(float64(minPlanHeight), maxY-minY+2*planMargin))
	offX := planMargin - minX
	offY := planMargin - minY

	r, err := chart.PNG(width, height)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("load font: %w", err)
	}
	r.SetFont(font)

	r.SetFillColor(planBackground)
	r.SetStrokeColor(planBackground)
	polygon(r, []seating.Point{{X: 0, Y: 0}, {X: float64(width), Y: 0}, {X: float64(width), Y: float64(height)}, {X: 0, Y: float64(height)}})
	r.Fill()

	if len(tables) == 0 {
		r.SetFontColor(labelColor)
		r.SetFontSize(planLabelSize)
		box := r.MeasureText(planEmptyLabel)
		r.Text(planEmptyLabel, (width-box.Width())/2, (height+box.Height())/2)
		return r.Save(w)
	}

	for _, t := range tables {
		cx, cy := t.X+offX, t.Y+offY
		drawTable(r, t, cx, cy)

		bucket := seats[t.Number]
		for i, p := range seating.SeatPositions(t.Capacity, t.Rotation, seating.DefaultSeatRadius) {
			sx, sy := int(cx+p.X), int(cy+p.Y)
			var occ seating.Occupant
			if i < len(bucket) {
				occ = bucket[i].Occupant
			}
			r.SetStrokeColor(seatStroke)
			r.SetStrokeWidth(1)
			if occ == nil {
				r.SetFillColor(seatFree)
			} else {
				r.SetFillColor(seatTaken)
			}
			r.Circle(seatDotRadius, sx, sy)
			r.FillStroke()

			if occ != nil {
				label := Initials(occ.DisplayName())
				r.SetFontColor(drawing.ColorWhite)
				r.SetFontSize(planInitialSz)
				box := r.MeasureText(label)
				r.Text(label, sx-box.Width()/2, sy+box.Height()/2)
			}
		}

		r.SetFontColor(tableStroke)
		r.SetFontSize(planLabelSize)
		name := t.Name
		box := r.MeasureText(name)
		r.Text(name, int(cx)-box.Width()/2, int(cy)-2)
		count := fmt.Sprintf("%d/%d", seats.Occupied(t.Number), t.Capacity)
		box = r.MeasureText(count)
		r.Text(count, int(cx)-box.Width()/2, int(cy)+box.Height()+2)
	}
	return r.Save(w)
}

func drawTable(r chart.Renderer, t seating.Table, cx, cy float64) {
	r.SetFillColor(tableFill)
	r.SetStrokeColor(tableStroke)
	r.SetStrokeWidth(2)
	if t.Shape == seating.ShapeRect {
		hw, hh := seating.RectTableWidth/2, seating.RectTableHeight/2
		a := float64(t.Rotation) * math.Pi / 180
		corners := make([]seating.Point, 0, 4)
		for _, c := range []seating.Point{{X: -hw, Y: -hh}, {X: hw, Y: -hh}, {X: hw, Y: hh}, {X: -hw, Y: hh}} {
			corners = append(corners, seating.Point{
				X: cx + c.X*math.Cos(a) - c.Y*math.Sin(a),
				Y: cy + c.X*math.Sin(a) + c.Y*math.Cos(a),
			})
		}
		polygon(r, corners)
	} else {
		r.Circle(seating.RoundTableRadius, int(cx), int(cy))
	}
	r.FillStroke()
}

func polygon(r chart.Renderer, pts []seating.Point) {
	for i, p := range pts {
		if i == 0 {
			r.MoveTo(int(p.X), int(p.Y))
			continue
		}
		r.LineTo(int(p.X), int(p.Y))
	}
	r.Close()
}

// planBounds returns the extent of all tables including their seat rings.
func planBounds(tables []seating.Table) (minX, minY, maxX, maxY float64) {
	if len(tables) == 0 {
		return 0, 0, 0, 0
	}
	reach := seating.DefaultSeatRadius + seatDotRadius
	if half := math.Hypot(seating.RectTableWidth/2, seating.RectTableHeight/2); half > reach {
		reach = half
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, t := range tables {
		minX = math.Min(minX, t.X-reach)
		minY = math.Min(minY, t.Y-reach)
		maxX = math.Max(maxX, t.X+reach)
		maxY = math.Max(maxY, t.Y+reach)
	}
	return minX, minY, maxX, maxY
}

// Initials abbreviates a display name to at most two letters.  Names that
// do not start with a letter, such as "+1", are kept as they are.
func Initials(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	first := []rune(fields[0])
	if !unicode.IsLetter(first[0]) {
		return fields[0]
	}
	out := []rune{unicode.ToUpper(first[0])}
	if len(fields) > 1 {
		if last := []rune(fields[len(fields)-1]); unicode.IsLetter(last[0]) {
			out = append(out, unicode.ToUpper(last[0]))
		}
	}
	return string(out)
}
