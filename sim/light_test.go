package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrafficLightInitialTimer(t *testing.T) {
	l := NewTrafficLight(AxisEW, Red, DefaultLightDurations())
	assert.Equal(t, Red, l.State())
	assert.Equal(t, 50, l.Timer())
}

func TestTrafficLightCycleOrder(t *testing.T) {
	d := LightDurations{Green: 3, Yellow: 2, Red: 4}
	l := NewTrafficLight(AxisNS, Green, d)

	var seen []LightState
	for range d.Cycle() * 3 {
		if l.Tick() {
			seen = append(seen, l.State())
		}
	}

	require.Len(t, seen, 9)
	prev := Green
	for _, s := range seen {
		assert.Equal(t, prev.Next(), s, "light skipped or reversed a state")
		prev = s
	}
}

func TestTrafficLightFullCycle(t *testing.T) {
	d := DefaultLightDurations()
	l := NewTrafficLight(AxisNS, Green, d)

	for i := range d.Cycle() {
		l.Tick()
		if i < d.Cycle()-1 {
			assert.False(t, l.State() == Green && l.Timer() == d.Green, "returned to a fresh green early at tick %d", i)
		}
	}

	assert.Equal(t, Green, l.State())
	assert.Equal(t, d.Green, l.Timer())
}

func TestTrafficLightTransitionsResetTimer(t *testing.T) {
	d := LightDurations{Green: 2, Yellow: 1, Red: 3}
	l := NewTrafficLight(AxisNS, Green, d)

	assert.False(t, l.Tick())
	assert.Equal(t, 1, l.Timer())

	assert.True(t, l.Tick())
	assert.Equal(t, Yellow, l.State())
	assert.Equal(t, d.Yellow, l.Timer())

	assert.True(t, l.Tick())
	assert.Equal(t, Red, l.State())
	assert.Equal(t, d.Red, l.Timer())
}

func TestLightStateNext(t *testing.T) {
	assert.Equal(t, Yellow, Green.Next())
	assert.Equal(t, Red, Yellow.Next())
	assert.Equal(t, Green, Red.Next())
}

func TestNewTrafficLightRejectsZeroDuration(t *testing.T) {
	assert.Panics(t, func() {
		NewTrafficLight(AxisNS, Green, LightDurations{Green: 0, Yellow: 1, Red: 1})
	})
}
