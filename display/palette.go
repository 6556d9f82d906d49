package display

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/tifye/crossroads/assert"
	"github.com/tifye/crossroads/sim"
)

// Palette holds the styles for car zones and light states. Styles are
// bound to a renderer so an SSH session gets its own color profile.
type Palette struct {
	zones  map[sim.ColorClass]lipgloss.Style
	lights map[sim.LightState]lipgloss.Style
	header lipgloss.Style
}

func NewPalette(r *lipgloss.Renderer) Palette {
	assert.AssertNotNil(r)

	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return Palette{
		zones: map[sim.ColorClass]lipgloss.Style{
			sim.Background:     r.NewStyle(),
			sim.Approaching:    fg("4"),
			sim.AtStopLine:     fg("3"),
			sim.InIntersection: fg("2"),
			sim.Crossed:        fg("5"),
		},
		lights: map[sim.LightState]lipgloss.Style{
			sim.Red:    fg("1"),
			sim.Yellow: fg("3"),
			sim.Green:  fg("2"),
		},
		header: fg("6"),
	}
}

// PlainPalette renders without any escape sequences.
func PlainPalette() Palette {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return NewPalette(r)
}

// Cell renders a run of glyphs sharing one color class.
func (p Palette) Cell(class sim.ColorClass, glyphs string) string {
	style, ok := p.zones[class]
	assert.Assert(ok, fmt.Sprintf("no style for color class %s", class))
	return style.Render(glyphs)
}

func (p Palette) Light(state sim.LightState) string {
	style, ok := p.lights[state]
	assert.Assert(ok, fmt.Sprintf("no style for light state %s", state))
	return style.Render(state.String())
}

func (p Palette) Header(s string) string {
	return p.header.Render(s)
}
