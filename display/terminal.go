package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/tifye/crossroads/assert"
	"github.com/tifye/crossroads/sim"
)

// Terminal draws frames incrementally: the background is written once
// and afterwards only the cells named by render events are rewritten
// through absolute cursor positioning.
type Terminal struct {
	w        io.Writer
	geometry sim.Geometry
	palette  Palette
	buf      strings.Builder
}

func NewTerminal(w io.Writer, g sim.Geometry, p Palette) *Terminal {
	assert.AssertNotNil(w)
	return &Terminal{
		w:        w,
		geometry: g,
		palette:  p,
	}
}

// Begin clears the screen and draws the background grid.
func (t *Terminal) Begin() error {
	t.buf.Reset()
	t.buf.WriteString(ansi.HideCursor)
	t.buf.WriteString(ansi.EraseEntireScreen)
	t.buf.WriteString(ansi.CursorHomePosition)
	t.buf.WriteString(NewCanvas(t.geometry, t.palette).PlainView())
	t.buf.WriteByte('\n')

	if err := t.flush(); err != nil {
		return fmt.Errorf("draw background: %s", err)
	}
	return nil
}

// Draw applies the frame's events in order, then rewrites the status
// lines below the grid.
func (t *Terminal) Draw(f sim.Frame) error {
	t.buf.Reset()
	for _, e := range f.Events {
		// Terminal coordinates are 1-based.
		t.buf.WriteString(ansi.CursorPosition(e.X+1, e.Y+1))
		t.buf.WriteString(t.palette.Cell(e.Class, string(e.Glyph)))
	}

	t.buf.WriteString(ansi.CursorPosition(1, t.geometry.Height+1))
	for _, line := range StatusLines(t.palette, f.Lights, f.Stats) {
		t.buf.WriteString(ansi.EraseLineRight)
		t.buf.WriteString(line)
		t.buf.WriteByte('\n')
	}

	if err := t.flush(); err != nil {
		return fmt.Errorf("draw frame %d: %s", f.Tick, err)
	}
	return nil
}

// Finish restores the cursor and leaves it below the status lines.
func (t *Terminal) Finish() error {
	t.buf.Reset()
	t.buf.WriteString(ansi.ShowCursor)
	t.buf.WriteString("\nSimulation completed!\n")

	if err := t.flush(); err != nil {
		return fmt.Errorf("finish: %s", err)
	}
	return nil
}

func (t *Terminal) flush() error {
	_, err := io.WriteString(t.w, t.buf.String())
	return err
}
