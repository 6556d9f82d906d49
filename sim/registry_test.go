package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// place puts an active car directly into slot id.
func place(t *testing.T, r *Registry, id int, d Direction, x, y int) {
	t.Helper()
	require.False(t, r.cars[id].Active, "slot %d already active", id)
	r.cars[id] = Car{ID: id, X: x, Y: y, Direction: d, Active: true}
	r.activeCount++
	r.totalSpawned++
}

func TestRegistrySpawnFirstFit(t *testing.T) {
	g := newGeometry(DefaultConfig())
	r := NewRegistry(3)

	id, ok := r.Spawn(g, North)
	require.True(t, ok)
	assert.Equal(t, 0, id)

	id, ok = r.Spawn(g, South)
	require.True(t, ok)
	assert.Equal(t, 1, id)

	r.Retire(0)
	id, ok = r.Spawn(g, East)
	require.True(t, ok)
	assert.Equal(t, 0, id, "expected retired slot to be reused first")

	c := r.Car(0)
	assert.Equal(t, East, c.Direction)
	x, y := g.EntryPoint(East)
	assert.Equal(t, x, c.X)
	assert.Equal(t, y, c.Y)

	assert.Equal(t, 3, r.TotalSpawned())
	assert.Equal(t, 2, r.ActiveCount())
}

func TestRegistrySpawnFull(t *testing.T) {
	g := newGeometry(DefaultConfig())
	r := NewRegistry(1)

	_, ok := r.Spawn(g, North)
	require.True(t, ok)

	_, ok = r.Spawn(g, South)
	assert.False(t, ok)
	assert.Equal(t, 1, r.TotalSpawned())
	assert.Equal(t, 1, r.ActiveCount())
}

func TestRegistrySpawnOnOccupiedEntry(t *testing.T) {
	g := newGeometry(DefaultConfig())
	r := NewRegistry(4)

	_, ok := r.Spawn(g, West)
	require.True(t, ok)

	before := r.snapshot()
	_, ok = r.Spawn(g, West)
	assert.False(t, ok)
	assert.Equal(t, before, r.snapshot(), "rejected spawn must leave no partial state")
	assert.False(t, r.Car(1).Active)
	assert.Equal(t, 1, r.TotalSpawned())
	assert.Equal(t, 1, r.ActiveCount())
}

func TestRegistryRespawnResetsCrossed(t *testing.T) {
	g := newGeometry(DefaultConfig())
	r := NewRegistry(1)

	place(t, r, 0, North, g.NorthboundX, 2)
	r.cars[0].HasCrossed = true
	r.Retire(0)

	id, ok := r.Spawn(g, South)
	require.True(t, ok)
	c := r.Car(id)
	assert.Equal(t, 0, id)
	assert.False(t, c.HasCrossed)
	assert.Equal(t, South, c.Direction)
	x, y := g.EntryPoint(South)
	assert.Equal(t, x, c.X)
	assert.Equal(t, y, c.Y)
}

func TestRegistryRetireInactiveIsNoop(t *testing.T) {
	r := NewRegistry(2)
	r.Retire(1)
	assert.Equal(t, 0, r.ActiveCount())
}

func TestRegistryIsOccupied(t *testing.T) {
	r := NewRegistry(4)
	place(t, r, 0, North, 10, 10)

	assert.True(t, r.IsOccupied(10, 10, 1))
	assert.False(t, r.IsOccupied(10, 10, 0), "a car never blocks itself")
	assert.False(t, r.IsOccupied(10, 9, 1))

	r.Retire(0)
	assert.False(t, r.IsOccupied(10, 10, 1))
}

func TestRegistryIsOccupiedHeadOn(t *testing.T) {
	tests := []struct {
		name    string
		mover   Car
		other   Car
		target  [2]int
		blocked bool
	}{
		{
			name:    "northbound reaching southbound",
			mover:   Car{Direction: North, X: 5, Y: 10},
			other:   Car{Direction: South, X: 5, Y: 9},
			target:  [2]int{5, 9},
			blocked: true,
		},
		{
			name:    "northbound jumping past southbound",
			mover:   Car{Direction: North, X: 5, Y: 10},
			other:   Car{Direction: South, X: 5, Y: 8},
			target:  [2]int{5, 7},
			blocked: true,
		},
		{
			name:    "southbound already behind",
			mover:   Car{Direction: North, X: 5, Y: 10},
			other:   Car{Direction: South, X: 5, Y: 11},
			target:  [2]int{5, 9},
			blocked: false,
		},
		{
			name:    "northbound with southbound far ahead",
			mover:   Car{Direction: North, X: 5, Y: 10},
			other:   Car{Direction: South, X: 5, Y: 3},
			target:  [2]int{5, 9},
			blocked: false,
		},
		{
			name:    "southbound reaching northbound",
			mover:   Car{Direction: South, X: 5, Y: 3},
			other:   Car{Direction: North, X: 5, Y: 4},
			target:  [2]int{5, 4},
			blocked: true,
		},
		{
			name:    "eastbound reaching westbound",
			mover:   Car{Direction: East, X: 3, Y: 7},
			other:   Car{Direction: West, X: 4, Y: 7},
			target:  [2]int{4, 7},
			blocked: true,
		},
		{
			name:    "westbound reaching eastbound",
			mover:   Car{Direction: West, X: 9, Y: 7},
			other:   Car{Direction: East, X: 8, Y: 7},
			target:  [2]int{8, 7},
			blocked: true,
		},
		{
			name:    "different lanes",
			mover:   Car{Direction: North, X: 5, Y: 10},
			other:   Car{Direction: South, X: 6, Y: 9},
			target:  [2]int{5, 9},
			blocked: false,
		},
		{
			name:    "same direction is not head-on",
			mover:   Car{Direction: North, X: 5, Y: 10},
			other:   Car{Direction: North, X: 5, Y: 8},
			target:  [2]int{5, 9},
			blocked: false,
		},
		{
			name:    "crossing axes are not a matching pair",
			mover:   Car{Direction: North, X: 5, Y: 10},
			other:   Car{Direction: West, X: 5, Y: 8},
			target:  [2]int{5, 9},
			blocked: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(2)
			place(t, r, 0, tt.mover.Direction, tt.mover.X, tt.mover.Y)
			place(t, r, 1, tt.other.Direction, tt.other.X, tt.other.Y)

			assert.Equal(t, tt.blocked, r.IsOccupied(tt.target[0], tt.target[1], 0))
		})
	}
}
