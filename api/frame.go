package api

import "github.com/tifye/crossroads/sim"

// EventMessage is a render event as sent to spectators.
type EventMessage struct {
	X     int            `json:"x"`
	Y     int            `json:"y"`
	Glyph string         `json:"glyph"`
	Class sim.ColorClass `json:"class"`
}

type FrameMessage struct {
	Tick           int                 `json:"tick"`
	Events         []EventMessage      `json:"events"`
	Lights         []sim.LightSnapshot `json:"lights"`
	Stats          sim.Stats           `json:"stats"`
	SpawnAttempted bool                `json:"spawnAttempted"`
	Spawned        bool                `json:"spawned"`
}

func newFrameMessage(f sim.Frame) FrameMessage {
	events := make([]EventMessage, len(f.Events))
	for i, e := range f.Events {
		events[i] = EventMessage{
			X:     e.X,
			Y:     e.Y,
			Glyph: string(e.Glyph),
			Class: e.Class,
		}
	}

	return FrameMessage{
		Tick:           f.Tick,
		Events:         events,
		Lights:         f.Lights,
		Stats:          f.Stats,
		SpawnAttempted: f.SpawnAttempted,
		Spawned:        f.Spawned,
	}
}
