package sim

import (
	"github.com/tifye/crossroads/assert"
)

type Car struct {
	// ID is the slot index and is reused once the car retires.
	ID         int       `json:"id"`
	X          int       `json:"x"`
	Y          int       `json:"y"`
	Direction  Direction `json:"direction"`
	Active     bool      `json:"active"`
	HasCrossed bool      `json:"hasCrossed"`
}

func (c Car) Glyph() rune {
	return c.Direction.Glyph()
}

// Registry is a fixed pool of car slots. Slots are never freed, only
// deactivated, and are handed out first-fit by ascending index.
type Registry struct {
	cars         []Car
	totalSpawned int
	activeCount  int
}

func NewRegistry(capacity int) *Registry {
	assert.AssertPositive(capacity, "registry capacity")

	cars := make([]Car, capacity)
	for i := range cars {
		cars[i].ID = i
	}
	return &Registry{
		cars: cars,
	}
}

func (r *Registry) Cap() int {
	return len(r.cars)
}

func (r *Registry) TotalSpawned() int {
	return r.totalSpawned
}

func (r *Registry) ActiveCount() int {
	return r.activeCount
}

// Car returns the car in slot id, active or not.
func (r *Registry) Car(id int) Car {
	assert.AssertInRange(id, 0, len(r.cars))
	return r.cars[id]
}

// Active returns a copy of every active car in slot order.
func (r *Registry) Active() []Car {
	active := make([]Car, 0, r.activeCount)
	for _, c := range r.cars {
		if c.Active {
			active = append(active, c)
		}
	}
	return active
}

func (r *Registry) snapshot() []Car {
	cars := make([]Car, len(r.cars))
	copy(cars, r.cars)
	return cars
}

func (r *Registry) freeSlot() (int, bool) {
	for i := range r.cars {
		if !r.cars[i].Active {
			return i, true
		}
	}
	return 0, false
}

// Spawn activates the first free slot with a car entering from the
// canonical entry point for d. It returns false and leaves the
// registry untouched if no slot is free or the entry cell is blocked.
func (r *Registry) Spawn(g Geometry, d Direction) (int, bool) {
	slot, ok := r.freeSlot()
	if !ok {
		return 0, false
	}

	x, y := g.EntryPoint(d)
	candidate := Car{
		ID:        slot,
		X:         x,
		Y:         y,
		Direction: d,
		Active:    true,
	}
	if r.blocked(candidate, x, y) {
		return 0, false
	}

	r.cars[slot] = candidate
	r.totalSpawned++
	r.activeCount++
	return slot, true
}

// IsOccupied reports whether a car other than excludingID is on
// (x, y). When excludingID is an active car, a car in the same lane
// heading the other way that the target cell would reach or pass also
// counts as occupying it.
func (r *Registry) IsOccupied(x, y, excludingID int) bool {
	if excludingID >= 0 && excludingID < len(r.cars) && r.cars[excludingID].Active {
		return r.blocked(r.cars[excludingID], x, y)
	}

	for _, other := range r.cars {
		if other.Active && other.ID != excludingID && other.X == x && other.Y == y {
			return true
		}
	}
	return false
}

func (r *Registry) blocked(mover Car, x, y int) bool {
	for _, other := range r.cars {
		if !other.Active || other.ID == mover.ID {
			continue
		}
		if other.X == x && other.Y == y {
			return true
		}
		if headOn(mover, other, x, y) {
			return true
		}
	}
	return false
}

// headOn reports whether mover stepping to (x, y) would reach or pass
// other, which shares its lane but travels the opposite way.
func headOn(mover, other Car, x, y int) bool {
	if other.Direction != mover.Direction.Opposite() {
		return false
	}

	switch mover.Direction {
	case North:
		return mover.X == other.X && mover.Y > other.Y && y <= other.Y
	case South:
		return mover.X == other.X && mover.Y < other.Y && y >= other.Y
	case East:
		return mover.Y == other.Y && mover.X < other.X && x >= other.X
	case West:
		return mover.Y == other.Y && mover.X > other.X && x <= other.X
	default:
		return false
	}
}

// Retire deactivates the car in slot id. Retiring an inactive slot is
// a no-op.
func (r *Registry) Retire(id int) {
	assert.AssertInRange(id, 0, len(r.cars))
	if !r.cars[id].Active {
		return
	}
	r.cars[id].Active = false
	r.activeCount--
}

// move places car id on (x, y) and latches its crossed flag.
func (r *Registry) move(g Geometry, id, x, y int) {
	c := &r.cars[id]
	c.X, c.Y = x, y
	if g.HasCrossed(c.Direction, x, y) {
		c.HasCrossed = true
	}
}
