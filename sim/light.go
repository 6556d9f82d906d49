package sim

import (
	"fmt"

	"github.com/tifye/crossroads/assert"
)

type LightState uint8

const (
	Red LightState = iota
	Yellow
	Green
)

func (s LightState) String() string {
	switch s {
	case Red:
		return "RED"
	case Yellow:
		return "YELLOW"
	case Green:
		return "GREEN"
	default:
		panic(fmt.Sprintf("invalid light state: %d", s))
	}
}

func (s LightState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *LightState) UnmarshalText(text []byte) error {
	for _, state := range []LightState{Red, Yellow, Green} {
		if state.String() == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown light state %q", text)
}

// Next is the state that follows s in the GREEN -> YELLOW -> RED cycle.
func (s LightState) Next() LightState {
	switch s {
	case Green:
		return Yellow
	case Yellow:
		return Red
	case Red:
		return Green
	default:
		panic(fmt.Sprintf("invalid light state: %d", s))
	}
}

// TrafficLight is a countdown state machine for one axis.
type TrafficLight struct {
	axis      Axis
	state     LightState
	timer     int
	durations LightDurations
}

func NewTrafficLight(axis Axis, initial LightState, durations LightDurations) *TrafficLight {
	assert.AssertPositive(durations.Green, "green duration")
	assert.AssertPositive(durations.Yellow, "yellow duration")
	assert.AssertPositive(durations.Red, "red duration")

	l := &TrafficLight{
		axis:      axis,
		state:     initial,
		durations: durations,
	}
	l.timer = l.duration(initial)
	return l
}

func (l *TrafficLight) duration(s LightState) int {
	switch s {
	case Green:
		return l.durations.Green
	case Yellow:
		return l.durations.Yellow
	case Red:
		return l.durations.Red
	default:
		panic(fmt.Sprintf("invalid light state: %d", s))
	}
}

// Tick decrements the timer and, once it runs out, moves to the next
// state with a fresh timer. It reports whether the state changed.
func (l *TrafficLight) Tick() bool {
	l.timer--
	if l.timer > 0 {
		return false
	}

	l.state = l.state.Next()
	l.timer = l.duration(l.state)
	return true
}

func (l *TrafficLight) Axis() Axis {
	return l.axis
}

func (l *TrafficLight) State() LightState {
	return l.state
}

func (l *TrafficLight) Timer() int {
	return l.timer
}

// LightSnapshot is the status line view of a light.
type LightSnapshot struct {
	Axis           Axis       `json:"axis"`
	State          LightState `json:"state"`
	TimerRemaining int        `json:"timerRemaining"`
}

func (l *TrafficLight) Snapshot() LightSnapshot {
	return LightSnapshot{
		Axis:           l.axis,
		State:          l.state,
		TimerRemaining: l.timer,
	}
}
