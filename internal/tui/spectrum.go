// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"spectrum/internal/spectrum"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultRefresh is how often the spectrum screen picks up the latest frame.
const DefaultRefresh = 33 * time.Millisecond

const (
	defaultWidth  = 64
	minBarHeight  = 4
	chromeHeight  = 7 // Title, blank, axis, extents, blank, help, spare
	fallbackTitle = "Spectrum"
)

// Surface keeps the most recent frame for the spectrum screen. Render never
// blocks on the terminal: the screen polls Latest at its own refresh rate.
type Surface struct {
	mu      sync.Mutex
	frame   spectrum.Frame
	version uint64
}

// NewSurface returns an empty surface.
func NewSurface() *Surface {
	return &Surface{}
}

// Render retains a copy of frame.
func (s *Surface) Render(frame spectrum.Frame) {
	clone := frame.Clone()

	s.mu.Lock()
	s.frame = clone
	s.version++
	s.mu.Unlock()
}

// Latest returns the last rendered frame and a counter that changes on
// every Render.
func (s *Surface) Latest() (spectrum.Frame, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame, s.version
}

var _ spectrum.Surface = (*Surface)(nil)

// Toggler is anything that can be switched on and off from the keyboard,
// such as the capture noise gate.
type Toggler interface {
	Enabled() bool
	Enable()
	Disable()
}

// ErrMsg asks the spectrum screen to show a pipeline error.
type ErrMsg struct{ Err error }

type tickMsg time.Time

type spectrumKeys struct {
	Pause key.Binding
	Gate  key.Binding
	Help  key.Binding
	Quit  key.Binding
}

func (k spectrumKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Help, k.Quit}
}

func (k spectrumKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Pause, k.Gate}, {k.Help, k.Quit}}
}

func newSpectrumKeys(gate bool) spectrumKeys {
	k := spectrumKeys{
		Pause: key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space/p", "freeze")),
		Gate:  key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "toggle gate")),
		Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:  key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
	k.Gate.SetEnabled(gate)
	return k
}

// SpectrumOption configures a SpectrumModel.
type SpectrumOption func(*SpectrumModel)

// WithTitle sets the heading shown above the bars.
func WithTitle(title string) SpectrumOption {
	return func(m *SpectrumModel) { m.title = title }
}

// WithRefresh sets the polling interval.
func WithRefresh(d time.Duration) SpectrumOption {
	return func(m *SpectrumModel) {
		if d > 0 {
			m.refresh = d
		}
	}
}

// WithBars fixes the number of bars. Zero fits the terminal width.
func WithBars(n int) SpectrumOption {
	return func(m *SpectrumModel) { m.bars = max(n, 0) }
}

// WithGate lets the g key open and close the gate.
func WithGate(g Toggler) SpectrumOption {
	return func(m *SpectrumModel) {
		m.gate = g
		m.keys.Gate.SetEnabled(g != nil)
	}
}

// SpectrumModel is the live spectrum screen: frequency bars, the waveform
// extent and the current vertical scale.
type SpectrumModel struct {
	surface *Surface
	title   string
	refresh time.Duration
	bars    int
	gate    Toggler

	frame   spectrum.Frame
	version uint64
	frames  uint64
	paused  bool
	err     error

	width  int
	height int

	keys spectrumKeys
	help help.Model
}

// NewSpectrumModel returns a screen that draws whatever surface last received.
func NewSpectrumModel(surface *Surface, opts ...SpectrumOption) SpectrumModel {
	m := SpectrumModel{
		surface: surface,
		title:   fallbackTitle,
		refresh: DefaultRefresh,
		keys:    newSpectrumKeys(false),
		help:    help.New(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m SpectrumModel) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init starts polling the surface.
func (m SpectrumModel) Init() tea.Cmd {
	return m.tick()
}

// Update handles resizes, polling ticks and key presses.
func (m SpectrumModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		frame, version := m.surface.Latest()
		if version != m.version {
			m.version = version
			m.frames++
			if !m.paused {
				m.frame = frame
			}
		}
		return m, m.tick()

	case ErrMsg:
		m.err = msg.Err

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Gate):
			if m.gate.Enabled() {
				m.gate.Disable()
			} else {
				m.gate.Enable()
			}
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}
	return m, nil
}

// Frame returns the frame currently on screen.
func (m SpectrumModel) Frame() spectrum.Frame { return m.frame }

// Paused reports whether the display is frozen.
func (m SpectrumModel) Paused() bool { return m.paused }

// View renders the screen.
func (m SpectrumModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(m.title))
	if m.paused {
		sb.WriteString(" " + pausedStyle.Render("FROZEN"))
	}
	if m.gate != nil && m.gate.Enabled() {
		sb.WriteString(" " + infoStyle.Render("gate on"))
	}
	sb.WriteString("\n\n")

	if m.err != nil {
		sb.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		sb.WriteString("\n\n")
	}

	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	if m.bars > 0 {
		width = min(width, m.bars)
	}
	height := max(m.height-chromeHeight, minBarHeight)

	if m.frame.Empty() {
		sb.WriteString(infoStyle.Render("Waiting for audio..."))
		sb.WriteString(strings.Repeat("\n", height))
	} else {
		rows := Bars(m.frame.Spectrum, m.frame.VerticalExtent, width, height)
		sb.WriteString(barStyle.Render(strings.Join(rows, "\n")))
		sb.WriteString("\n")
		sb.WriteString(axisStyle.Render(axis(m.frame.FrequencyExtent, width)))
	}
	sb.WriteString("\n")
	sb.WriteString(axisStyle.Render(extents(m.frame, m.frames)))
	sb.WriteString("\n\n")
	sb.WriteString(m.help.View(m.keys))

	return sb.String()
}

// axis labels both ends of the frequency axis.
func axis(extent float64, width int) string {
	left := "0 Hz"
	right := fmt.Sprintf("%.0f Hz", extent)
	gap := width - len(left) - len(right)
	if gap < 1 {
		return left + " " + right
	}
	return left + strings.Repeat(" ", gap) + right
}

func extents(f spectrum.Frame, frames uint64) string {
	return fmt.Sprintf("waveform 0-%.2f ms  spectrum 0-%.0f Hz  scale %.2f  rate %.0f Hz  frames %d",
		f.TimeExtent, f.FrequencyExtent, f.VerticalExtent, f.SampleRate, frames)
}
