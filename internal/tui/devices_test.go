// SPDX-License-Identifier: MIT
package tui

import (
	"errors"
	"strings"
	"testing"

	"spectrum/internal/audio"

	tea "github.com/charmbracelet/bubbletea"
)

var testDevices = []audio.Device{
	{ID: 0, Name: "Built-in Microphone", MaxInputChannels: 2, DefaultSampleRate: 48000},
	{ID: 1, Name: "Built-in Output", MaxOutputChannels: 2, DefaultSampleRate: 44100},
	{ID: 2, Name: "USB Interface", MaxInputChannels: 4, MaxOutputChannels: 4, DefaultSampleRate: 96000},
}

func step(t *testing.T, m DeviceListModel, msg tea.Msg) (DeviceListModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	dm, ok := next.(DeviceListModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return dm, cmd
}

func loadedPicker(t *testing.T) DeviceListModel {
	t.Helper()
	m := NewDeviceListModel(func() ([]audio.Device, error) { return testDevices, nil })
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	m, _ = step(t, m, m.Init()())
	return m
}

func TestDeviceList_InputsOnly(t *testing.T) {
	m := loadedPicker(t)
	if len(m.devices) != 2 {
		t.Fatalf("devices = %d, want 2 input devices", len(m.devices))
	}
	view := m.View()
	if strings.Contains(view, "Built-in Output") {
		t.Error("output-only device should not be listed")
	}
	if !strings.Contains(view, "USB Interface") {
		t.Error("input device missing from view")
	}
}

func TestDeviceList_Select(t *testing.T) {
	m := loadedPicker(t)

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.activeScreen != ConfigScreen {
		t.Fatal("enter should open the configuration screen")
	}
	if got := SampleRates[m.sampleRateIndex]; got != 96000 {
		t.Errorf("preselected rate = %v, want device default 96000", got)
	}

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("confirming should quit the picker")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("confirming should quit the picker")
	}

	sel, ok := m.Selection()
	if !ok {
		t.Fatal("Selection() not set")
	}
	want := Selection{DeviceID: 2, Name: "USB Interface", SampleRate: 88200}
	if sel != want {
		t.Errorf("Selection() = %+v, want %+v", sel, want)
	}
}

func TestDeviceList_Back(t *testing.T) {
	m := loadedPicker(t)
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.activeScreen != ListScreen {
		t.Error("esc should return to the list")
	}
	if _, ok := m.Selection(); ok {
		t.Error("no selection expected after backing out")
	}
}

func TestDeviceList_Bounds(t *testing.T) {
	m := loadedPicker(t)
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.selectedIndex != 0 {
		t.Errorf("selectedIndex = %d, want 0", m.selectedIndex)
	}
	for range 5 {
		m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.selectedIndex != 1 {
		t.Errorf("selectedIndex = %d, want 1", m.selectedIndex)
	}
}

func TestDeviceList_FetchError(t *testing.T) {
	m := NewDeviceListModel(func() ([]audio.Device, error) { return nil, errors.New("no host") })
	m, _ = step(t, m, m.Init()())
	if !strings.Contains(m.View(), "no host") {
		t.Errorf("View() = %q, want error", m.View())
	}
}

func TestDeviceList_Empty(t *testing.T) {
	m := NewDeviceListModel(func() ([]audio.Device, error) { return nil, nil })
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	m, _ = step(t, m, m.Init()())
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.activeScreen != ListScreen {
		t.Error("enter with no devices should stay on the list")
	}
	if !strings.Contains(m.View(), "No input devices") {
		t.Error("empty list message missing")
	}
}
