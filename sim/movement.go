package sim

// lightFor returns the light controlling cars travelling in d.
type lightFor func(d Direction) LightState

// canMove applies the light gate for c. Cars that have crossed, are
// inside the intersection, or are not yet at the stop line are never
// held by the light. At the stop line only RED holds a car.
func canMove(g Geometry, c Car, light lightFor) bool {
	if c.HasCrossed {
		return true
	}
	if g.IsInIntersection(c.X, c.Y) {
		return true
	}
	if !g.IsAtStopLine(c.Direction, c.X, c.Y) {
		return true
	}
	return light(c.Direction) != Red
}

// outcome is what happened to one car in one tick.
type outcome uint8

const (
	outcomeHeld outcome = iota
	outcomeMoved
	outcomeRetired
)

// advanceAll moves every active car one step in slot order and returns
// the per-slot outcomes. It only mutates the registry; render events
// are derived afterwards by diffing.
func advanceAll(g Geometry, r *Registry, light lightFor) []outcome {
	outcomes := make([]outcome, len(r.cars))
	for i := range r.cars {
		c := r.cars[i]
		if !c.Active {
			continue
		}

		dx, dy := c.Direction.Delta()
		nx, ny := c.X+dx, c.Y+dy

		if !g.InBounds(nx, ny) {
			r.Retire(i)
			outcomes[i] = outcomeRetired
			continue
		}

		if !canMove(g, c, light) || r.IsOccupied(nx, ny, i) {
			outcomes[i] = outcomeHeld
			continue
		}

		r.move(g, i, nx, ny)
		outcomes[i] = outcomeMoved
	}
	return outcomes
}
