package display

import (
	"fmt"
	"strings"

	"github.com/tifye/crossroads/assert"
	"github.com/tifye/crossroads/sim"
)

const lightNameWidth = len("YELLOW") + 1

type cell struct {
	glyph rune
	class sim.ColorClass
}

// Canvas keeps the full grid in memory so it can be rendered as one
// string. It is what the TUI and the /frame endpoint show.
type Canvas struct {
	geometry sim.Geometry
	palette  Palette
	cells    [][]cell
}

func NewCanvas(g sim.Geometry, p Palette) *Canvas {
	c := &Canvas{
		geometry: g,
		palette:  p,
	}
	c.Reset()
	return c
}

// Reset paints the background over every cell.
func (c *Canvas) Reset() {
	c.cells = make([][]cell, c.geometry.Height)
	for y := range c.cells {
		row := make([]cell, c.geometry.Width)
		for x := range row {
			row[x] = cell{glyph: c.geometry.CharAt(x, y), class: sim.Background}
		}
		c.cells[y] = row
	}
}

// Apply paints events in order, later events win.
func (c *Canvas) Apply(events []sim.Event) {
	for _, e := range events {
		assert.Assert(c.geometry.InBounds(e.X, e.Y), fmt.Sprintf("event out of bounds: (%d,%d)", e.X, e.Y))
		c.cells[e.Y][e.X] = cell{glyph: e.Glyph, class: e.Class}
	}
}

func (c *Canvas) At(x, y int) (rune, sim.ColorClass) {
	cl := c.cells[y][x]
	return cl.glyph, cl.class
}

// View renders the grid with zone colors. Adjacent cells of the same
// class share one styled run.
func (c *Canvas) View() string {
	var b strings.Builder
	var run strings.Builder
	for y, row := range c.cells {
		if y > 0 {
			b.WriteByte('\n')
		}

		class := row[0].class
		for _, cl := range row {
			if cl.class != class {
				b.WriteString(c.palette.Cell(class, run.String()))
				run.Reset()
				class = cl.class
			}
			run.WriteRune(cl.glyph)
		}
		b.WriteString(c.palette.Cell(class, run.String()))
		run.Reset()
	}
	return b.String()
}

func (c *Canvas) PlainView() string {
	var b strings.Builder
	b.Grow((c.geometry.Width + 1) * c.geometry.Height)
	for y, row := range c.cells {
		if y > 0 {
			b.WriteByte('\n')
		}
		for _, cl := range row {
			b.WriteRune(cl.glyph)
		}
	}
	return b.String()
}

func (c *Canvas) Status(lights []sim.LightSnapshot, stats sim.Stats) string {
	return strings.Join(StatusLines(c.palette, lights, stats), "\n")
}

// StatusLines is the light and car summary printed under the grid.
func StatusLines(p Palette, lights []sim.LightSnapshot, stats sim.Stats) []string {
	lines := make([]string, 0, len(lights)+4)
	lines = append(lines, p.Header("=== TRAFFIC LIGHTS ==="))
	for _, l := range lights {
		pad := strings.Repeat(" ", lightNameWidth-len(l.State.String()))
		lines = append(lines, fmt.Sprintf("%s Light: %s%s (Timer: %2d)", l.Axis, p.Light(l.State), pad, l.TimerRemaining))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("Cars: %d active / %d total", stats.ActiveCount, stats.TotalSpawned),
		fmt.Sprintf("Frame: %d", stats.TickIndex),
	)
	return lines
}
