// SPDX-License-Identifier: MIT
package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"spectrum/internal/spectrum"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeGate struct{ on bool }

func (g *fakeGate) Enabled() bool { return g.on }
func (g *fakeGate) Enable()       { g.on = true }
func (g *fakeGate) Disable()      { g.on = false }

func testFrame() spectrum.Frame {
	return spectrum.Frame{
		Waveform:        points(0.1, -0.1),
		Spectrum:        points(0, 2, 1),
		TimeExtent:      5.8,
		FrequencyExtent: 20000,
		VerticalExtent:  2,
		SampleRate:      44100,
	}
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m SpectrumModel, msg tea.Msg) (SpectrumModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	sm, ok := next.(SpectrumModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return sm, cmd
}

func TestSurface_RenderClones(t *testing.T) {
	s := NewSurface()
	f := testFrame()
	s.Render(f)
	f.Spectrum[1].Y = 99

	got, version := s.Latest()
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}
	if got.Spectrum[1].Y != 2 {
		t.Errorf("retained frame aliased caller slice: %v", got.Spectrum[1].Y)
	}
}

func TestSpectrumModel_Tick(t *testing.T) {
	s := NewSurface()
	m := NewSpectrumModel(s, WithRefresh(time.Millisecond))

	m, cmd := update(t, m, tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick should schedule the next tick")
	}
	if !m.Frame().Empty() {
		t.Error("frame should be empty before any render")
	}

	s.Render(testFrame())
	m, _ = update(t, m, tickMsg(time.Now()))
	if got := len(m.Frame().Spectrum); got != 3 {
		t.Errorf("spectrum points = %d, want 3", got)
	}
	if m.frames != 1 {
		t.Errorf("frames = %d, want 1", m.frames)
	}

	// Same version, no new frame counted.
	m, _ = update(t, m, tickMsg(time.Now()))
	if m.frames != 1 {
		t.Errorf("frames = %d after idle tick, want 1", m.frames)
	}
}

func TestSpectrumModel_Pause(t *testing.T) {
	s := NewSurface()
	m := NewSpectrumModel(s)

	s.Render(testFrame())
	m, _ = update(t, m, tickMsg(time.Now()))
	m, _ = update(t, m, keyPress("p"))
	if !m.Paused() {
		t.Fatal("p should freeze the display")
	}

	s.Render(spectrum.Frame{})
	m, _ = update(t, m, tickMsg(time.Now()))
	if m.Frame().Empty() {
		t.Error("frozen display should keep the previous frame")
	}

	m, _ = update(t, m, keyPress("p"))
	m, _ = update(t, m, tickMsg(time.Now()))
	if m.Paused() {
		t.Error("p should unfreeze the display")
	}
}

func TestSpectrumModel_Quit(t *testing.T) {
	m := NewSpectrumModel(NewSurface())
	_, cmd := update(t, m, keyPress("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestSpectrumModel_Gate(t *testing.T) {
	g := &fakeGate{}
	m := NewSpectrumModel(NewSurface(), WithGate(g))

	m, _ = update(t, m, keyPress("g"))
	if !g.on {
		t.Error("g should enable the gate")
	}
	if !strings.Contains(m.View(), "gate on") {
		t.Error("view should show the gate state")
	}
	update(t, m, keyPress("g"))
	if g.on {
		t.Error("g should disable the gate")
	}
}

func TestSpectrumModel_GateWithoutToggler(t *testing.T) {
	m := NewSpectrumModel(NewSurface())
	// Must not panic on a nil gate.
	update(t, m, keyPress("g"))
}

func TestSpectrumModel_View(t *testing.T) {
	s := NewSurface()
	m := NewSpectrumModel(s, WithTitle("Mic"))
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 20})

	view := m.View()
	if !strings.Contains(view, "Mic") {
		t.Error("view should contain the title")
	}
	if !strings.Contains(view, "Waiting for audio") {
		t.Error("empty frame should show the waiting message")
	}

	s.Render(testFrame())
	m, _ = update(t, m, tickMsg(time.Now()))
	view = m.View()
	for _, want := range []string{"20000 Hz", "0-5.80 ms", "scale 2.00", "rate 44100 Hz", "█"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m, _ = update(t, m, ErrMsg{Err: errors.New("device lost")})
	if !strings.Contains(m.View(), "device lost") {
		t.Error("view should show the error")
	}
}

func TestAxis(t *testing.T) {
	if got := axis(20000, 20); got != "0 Hz        20000 Hz" {
		t.Errorf("axis() = %q", got)
	}
	if got := axis(20000, 4); got != "0 Hz 20000 Hz" {
		t.Errorf("axis() narrow = %q", got)
	}
}

func TestSpectrumModel_Bars(t *testing.T) {
	s := NewSurface()
	m := NewSpectrumModel(s, WithBars(2))
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 11})
	s.Render(testFrame())
	m, _ = update(t, m, tickMsg(time.Now()))

	// Four bar rows, each two columns wide.
	for _, line := range strings.Split(m.View(), "\n")[2:6] {
		if n := len([]rune(line)); n != 2 {
			t.Errorf("bar row %q has %d columns, want 2", line, n)
		}
	}
}
