package sim

import "fmt"

// ColorClass tells the display how to paint a cell.
type ColorClass uint8

const (
	Background ColorClass = iota
	Approaching
	AtStopLine
	InIntersection
	Crossed
)

func (c ColorClass) String() string {
	switch c {
	case Background:
		return "background-restore"
	case Approaching:
		return "approaching"
	case AtStopLine:
		return "at-stop-line"
	case InIntersection:
		return "in-intersection"
	case Crossed:
		return "crossed"
	default:
		panic(fmt.Sprintf("invalid color class: %d", c))
	}
}

func (c ColorClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ColorClass) UnmarshalText(text []byte) error {
	for _, class := range []ColorClass{Background, Approaching, AtStopLine, InIntersection, Crossed} {
		if class.String() == string(text) {
			*c = class
			return nil
		}
	}
	return fmt.Errorf("unknown color class %q", text)
}

// Event is a single cell update for the display.
type Event struct {
	X     int
	Y     int
	Glyph rune
	Class ColorClass
}

// Frame is everything one tick produced.
type Frame struct {
	// Index of the tick that produced this frame, starting at 0.
	Tick   int
	Events []Event
	Lights []LightSnapshot
	Stats  Stats

	SpawnAttempted bool
	Spawned        bool
}

type Stats struct {
	TotalSpawned int `json:"totalSpawned"`
	ActiveCount  int `json:"activeCount"`
	// Number of ticks executed so far.
	TickIndex int `json:"tickIndex"`
}

// diffCars turns the before and after state of every slot into render
// events, in slot order. A car that moved erases its old cell before
// drawing the new one; a car that stayed is redrawn in place so its
// color tracks its zone.
func diffCars(g Geometry, before, after []Car) []Event {
	events := make([]Event, 0, len(after)*2)
	for i := range after {
		prev, cur := before[i], after[i]
		switch {
		case prev.Active && !cur.Active:
			events = append(events, eraseEvent(g, prev.X, prev.Y))
		case !prev.Active && cur.Active:
			events = append(events, drawEvent(g, cur))
		case prev.Active && cur.Active:
			if prev.X != cur.X || prev.Y != cur.Y {
				events = append(events, eraseEvent(g, prev.X, prev.Y))
			}
			events = append(events, drawEvent(g, cur))
		}
	}
	return events
}

func eraseEvent(g Geometry, x, y int) Event {
	return Event{
		X:     x,
		Y:     y,
		Glyph: g.CharAt(x, y),
		Class: Background,
	}
}

func drawEvent(g Geometry, c Car) Event {
	return Event{
		X:     c.X,
		Y:     c.Y,
		Glyph: c.Direction.Glyph(),
		Class: g.Zone(c),
	}
}
