package sim

import (
	"fmt"
	"strings"
)

type Direction uint8

const (
	North Direction = iota
	South
	East
	West
)

// Directions lists every direction in spawn-roll order.
var Directions = [...]Direction{North, South, East, West}

func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case South:
		return "S"
	case East:
		return "E"
	case West:
		return "W"
	default:
		panic(fmt.Sprintf("invalid direction: %d", d))
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDirection accepts a direction's short form ("N") or its full
// name ("north"), in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "n", "north":
		return North, nil
	case "s", "south":
		return South, nil
	case "e", "east":
		return East, nil
	case "w", "west":
		return West, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}

// Delta is the unit step taken by a car travelling in d. Screen
// coordinates grow downwards, so North decrements y.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	case West:
		return -1, 0
	default:
		panic(fmt.Sprintf("invalid direction: %d", d))
	}
}

func (d Direction) Axis() Axis {
	switch d {
	case North, South:
		return AxisNS
	case East, West:
		return AxisEW
	default:
		panic(fmt.Sprintf("invalid direction: %d", d))
	}
}

func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	default:
		panic(fmt.Sprintf("invalid direction: %d", d))
	}
}

func (d Direction) Glyph() rune {
	switch d {
	case North:
		return '^'
	case South:
		return 'v'
	case East:
		return '>'
	case West:
		return '<'
	default:
		panic(fmt.Sprintf("invalid direction: %d", d))
	}
}

type Axis uint8

const (
	AxisNS Axis = iota
	AxisEW
)

func (a Axis) String() string {
	switch a {
	case AxisNS:
		return "N-S"
	case AxisEW:
		return "E-W"
	default:
		panic(fmt.Sprintf("invalid axis: %d", a))
	}
}

func (a Axis) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Axis) UnmarshalText(text []byte) error {
	switch string(text) {
	case "N-S":
		*a = AxisNS
	case "E-W":
		*a = AxisEW
	default:
		return fmt.Errorf("unknown axis %q", text)
	}
	return nil
}
