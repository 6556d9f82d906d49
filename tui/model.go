package tui

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/tifye/crossroads/assert"
	"github.com/tifye/crossroads/display"
	"github.com/tifye/crossroads/driver"
	"github.com/tifye/crossroads/sim"
)

type screen int

const (
	screenMenu screen = iota
	screenPrompt
	screenRunning
	screenDone
)

const rule = "=============================================================="

var spawnKeys = map[string]sim.Direction{
	"n": sim.North,
	"s": sim.South,
	"e": sim.East,
	"w": sim.West,
}

type Options struct {
	Config   sim.Config
	Settings driver.RunSettings
	// CanSpawn lets the user inject cars with the n, s, e and w keys.
	CanSpawn bool
	// Renderer colors the grid. Nil renders without color.
	Renderer *lipgloss.Renderer
	Logger   *log.Logger
}

type tickMsg struct {
	run int
}

type run struct {
	id        int
	sim       *sim.Simulation
	canvas    *display.Canvas
	seconds   int
	ticks     int
	lights    []sim.LightSnapshot
	stats     sim.Stats
	extraCars int
	stopped   bool
}

// elapsed is the simulated time in whole seconds.
func (r *run) elapsed(ticksPerSecond int) int {
	return r.stats.TickIndex / ticksPerSecond
}

// Model is the interactive front end: a menu, a duration prompt, the
// running grid and a summary once the run is over.
type Model struct {
	opts    Options
	logger  *log.Logger
	palette display.Palette
	screen  screen
	menu    menu
	prompt  textinput.Model
	// promptErr is shown under the prompt after a rejected entry.
	promptErr string
	run       *run
	runs      int
}

func NewModel(opts Options) Model {
	assert.Assert(opts.Settings.TicksPerSecond > 0, "ticks per second must be positive")
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	palette := display.PlainPalette()
	if opts.Renderer != nil {
		palette = display.NewPalette(opts.Renderer)
	}

	prompt := textinput.New()
	prompt.Prompt = fmt.Sprintf("Enter simulation duration in seconds (%d-%d): ", driver.MinDurationSeconds, driver.MaxDurationSeconds)
	prompt.CharLimit = 6
	prompt.Width = 8

	return Model{
		opts:    opts,
		logger:  opts.Logger.WithPrefix("tui"),
		palette: palette,
		screen:  screenMenu,
		menu:    newMenu(menuItems()),
		prompt:  prompt,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.screen {
	case screenMenu:
		return m.updateMenu(msg)
	case screenPrompt:
		return m.updatePrompt(msg)
	case screenRunning:
		return m.updateRunning(msg)
	case screenDone:
		return m.updateDone(msg)
	default:
		panic(fmt.Sprintf("invalid screen: %d", m.screen))
	}
}

func (m Model) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case choiceMsg:
		switch msg.choice {
		case choiceCustom:
			m.screen = screenPrompt
			m.promptErr = ""
			m.prompt.Reset()
			cmd := m.prompt.Focus()
			return m, cmd
		case choiceStandard:
			return m.start(driver.StandardDurationSeconds)
		case choiceExit:
			return m, tea.Quit
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "q" {
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.menu, cmd = m.menu.Update(msg)
	return m, cmd
}

func (m Model) updatePrompt(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			m.prompt.Blur()
			m.screen = screenMenu
			return m, nil
		case "enter":
			seconds, err := driver.ParseDuration(m.prompt.Value())
			if err != nil {
				m.promptErr = durationError(err)
				m.prompt.Reset()
				return m, nil
			}
			m.prompt.Blur()
			return m.start(seconds)
		}
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func durationError(err error) string {
	if errors.Is(err, driver.ErrNotANumber) {
		return fmt.Sprintf("Invalid input. Please enter a number between %d and %d.", driver.MinDurationSeconds, driver.MaxDurationSeconds)
	}
	return fmt.Sprintf("Please enter a number between %d and %d.", driver.MinDurationSeconds, driver.MaxDurationSeconds)
}

// start begins a fresh run. Each run of a session gets its own seed so
// two runs in a row do not replay the same traffic.
func (m Model) start(seconds int) (tea.Model, tea.Cmd) {
	m.runs++
	settings := m.opts.Settings
	settings.Seed2 += uint64(m.runs - 1)

	s, err := sim.New(m.opts.Config, settings.Rand(), sim.WithLogger(m.logger))
	assert.Assert(err == nil, "config was validated before the model was built")

	m.run = &run{
		id:      m.runs,
		sim:     s,
		canvas:  display.NewCanvas(s.Geometry(), m.palette),
		seconds: seconds,
		ticks:   settings.Ticks(seconds),
		lights:  s.Lights(),
		stats:   s.Stats(),
	}
	m.screen = screenRunning
	m.logger.Info("run started", "run", m.runs, "seconds", seconds, "seed1", settings.Seed1, "seed2", settings.Seed2)
	return m, m.nextTick()
}

func (m Model) nextTick() tea.Cmd {
	id := m.run.id
	return tea.Tick(time.Second/time.Duration(m.opts.Settings.TicksPerSecond), func(time.Time) tea.Msg {
		return tickMsg{run: id}
	})
}

func (m Model) updateRunning(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if msg.run != m.run.id {
			return m, nil
		}

		f := m.run.sim.Tick()
		m.run.canvas.Apply(f.Events)
		m.run.lights = f.Lights
		m.run.stats = f.Stats
		if f.Stats.TickIndex >= m.run.ticks {
			return m.finish()
		}
		return m, m.nextTick()
	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "q", "esc":
			m.run.stopped = true
			return m.finish()
		}

		if d, ok := spawnKeys[key]; ok && m.opts.CanSpawn {
			if m.run.sim.SpawnDirection(d) {
				m.run.extraCars++
			}
		}
	}
	return m, nil
}

func (m Model) finish() (tea.Model, tea.Cmd) {
	m.screen = screenDone
	m.run.stats = m.run.sim.Stats()
	m.logger.Info("run finished", "run", m.run.id,
		"frames", m.run.stats.TickIndex, "stopped", m.run.stopped, "spawned", m.run.stats.TotalSpawned, "active", m.run.stats.ActiveCount)
	return m, nil
}

func (m Model) updateDone(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		m.screen = screenMenu
		m.run = nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.screen {
	case screenMenu:
		return m.menuView()
	case screenPrompt:
		return m.promptView()
	case screenRunning:
		return m.runningView()
	case screenDone:
		return m.doneView()
	default:
		panic(fmt.Sprintf("invalid screen: %d", m.screen))
	}
}

func (m Model) banner(title string) string {
	return strings.Join([]string{
		m.palette.Header(rule),
		title,
		m.palette.Header(rule),
	}, "\n")
}

func (m Model) menuView() string {
	var b strings.Builder
	b.WriteString(m.banner("           TRAFFIC INTERSECTION SIMULATION SYSTEM            "))
	b.WriteString("\n\nMAIN MENU\n")
	b.WriteString(rule)
	b.WriteString("\n\n")
	b.WriteString(m.menu.View())
	b.WriteString("\n\n")
	b.WriteString(rule)
	b.WriteString("\n\nEnter your choice (1-3) or use the arrows and enter.")
	return b.String()
}

func (m Model) promptView() string {
	var b strings.Builder
	b.WriteString(m.prompt.View())
	if m.promptErr != "" {
		b.WriteString("\n")
		b.WriteString(m.promptErr)
	}
	b.WriteString("\n\n(esc to go back)")
	return b.String()
}

func (m Model) runningView() string {
	var b strings.Builder
	b.WriteString(m.run.canvas.View())
	b.WriteString("\n")
	b.WriteString(m.run.canvas.Status(m.run.lights, m.run.stats))
	b.WriteString("\n\n")
	if m.opts.CanSpawn {
		b.WriteString("n/s/e/w: add a car  ")
	}
	b.WriteString("q: stop")
	return b.String()
}

func (m Model) doneView() string {
	var b strings.Builder
	b.WriteString(m.banner("                    SIMULATION COMPLETE                      "))
	b.WriteString("\n\n")
	if m.run.stopped {
		fmt.Fprintf(&b, "Duration: %d of %d seconds (stopped early)\n", m.run.elapsed(m.opts.Settings.TicksPerSecond), m.run.seconds)
	} else {
		fmt.Fprintf(&b, "Duration: %d seconds\n", m.run.seconds)
	}
	fmt.Fprintf(&b, "Total cars spawned: %d\n", m.run.stats.TotalSpawned)
	fmt.Fprintf(&b, "Active cars at end: %d\n", m.run.stats.ActiveCount)
	if m.run.extraCars > 0 {
		fmt.Fprintf(&b, "Cars added by hand: %d\n", m.run.extraCars)
	}
	b.WriteString("\nPress Enter to return to menu...")
	return b.String()
}
