package sim

import "fmt"

// Geometry is the static layout derived from a Config: grid bounds,
// intersection borders, lane center lines and stop lines.
type Geometry struct {
	Width  int
	Height int

	CenterX int
	CenterY int

	LeftBorder   int
	RightBorder  int
	TopBorder    int
	BottomBorder int

	NorthboundX int
	SouthboundX int
	EastboundY  int
	WestboundY  int
}

func newGeometry(c Config) Geometry {
	halfNS := c.NSLaneWidth / 2
	halfEW := c.EWLaneWidth / 2

	g := Geometry{
		Width:   c.GridWidth,
		Height:  c.GridHeight,
		CenterX: c.IntersectionX,
		CenterY: c.IntersectionY,

		LeftBorder:   c.IntersectionX - halfNS,
		RightBorder:  c.IntersectionX + halfNS - 1,
		TopBorder:    c.IntersectionY - halfEW,
		BottomBorder: c.IntersectionY + halfEW - 1,
	}
	g.NorthboundX = g.LeftBorder + 2
	g.SouthboundX = g.RightBorder - 2
	g.WestboundY = g.TopBorder + 2
	g.EastboundY = g.BottomBorder - 2
	return g
}

func (g Geometry) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

func (g Geometry) IsInIntersection(x, y int) bool {
	return x >= g.LeftBorder && x <= g.RightBorder &&
		y >= g.TopBorder && y <= g.BottomBorder
}

// StopLine is the coordinate along the direction of travel of the cell
// just outside the intersection on the approach side. It is a y value
// for North/South and an x value for East/West.
func (g Geometry) StopLine(d Direction) int {
	switch d {
	case North:
		return g.BottomBorder + 1
	case South:
		return g.TopBorder - 1
	case East:
		return g.LeftBorder - 1
	case West:
		return g.RightBorder + 1
	default:
		panic(fmt.Sprintf("invalid direction: %d", d))
	}
}

func (g Geometry) IsAtStopLine(d Direction, x, y int) bool {
	switch d.Axis() {
	case AxisNS:
		return y == g.StopLine(d)
	default:
		return x == g.StopLine(d)
	}
}

// HasCrossed reports whether (x, y) lies beyond the far border of the
// intersection for a car travelling in d.
func (g Geometry) HasCrossed(d Direction, x, y int) bool {
	switch d {
	case North:
		return y < g.TopBorder
	case South:
		return y > g.BottomBorder
	case East:
		return x > g.RightBorder
	case West:
		return x < g.LeftBorder
	default:
		panic(fmt.Sprintf("invalid direction: %d", d))
	}
}

func (g Geometry) IsOnBorder(x, y int) bool {
	return x == g.LeftBorder || x == g.RightBorder ||
		y == g.TopBorder || y == g.BottomBorder
}

// CharAt is the background glyph at (x, y), used to restore a cell a
// car has left.
func (g Geometry) CharAt(x, y int) rune {
	vertical := x == g.LeftBorder || x == g.RightBorder
	horizontal := y == g.TopBorder || y == g.BottomBorder
	switch {
	case vertical && horizontal:
		return '+'
	case vertical:
		return '|'
	case horizontal:
		return '-'
	default:
		return ' '
	}
}

// EntryPoint is the cell a newly spawned car travelling in d starts on.
func (g Geometry) EntryPoint(d Direction) (x, y int) {
	switch d {
	case North:
		return g.NorthboundX, g.Height - 3
	case South:
		return g.SouthboundX, 2
	case East:
		return 2, g.EastboundY
	case West:
		return g.Width - 3, g.WestboundY
	default:
		panic(fmt.Sprintf("invalid direction: %d", d))
	}
}

// Zone classifies where a car currently is relative to the
// intersection. The display colors cars by zone.
func (g Geometry) Zone(c Car) ColorClass {
	switch {
	case g.IsAtStopLine(c.Direction, c.X, c.Y):
		return AtStopLine
	case g.IsInIntersection(c.X, c.Y):
		return InIntersection
	case c.HasCrossed:
		return Crossed
	default:
		return Approaching
	}
}
