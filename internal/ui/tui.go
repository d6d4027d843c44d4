// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the channels carrying key presses to the player
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// ControlKind identifies what a control message changes
type ControlKind int

const (
	ControlVolume ControlKind = iota
	ControlMute
	ControlSpeed
	ControlFilter
)

// ControlMsg carries a new setting chosen from the keyboard
type ControlMsg struct {
	Kind  ControlKind
	Value int
	Muted bool
}

// Controls holds channels from the TUI to the player
type Controls struct {
	Changes chan ControlMsg
	Quit    chan struct{}
}

// NewControls creates a new control handler
func NewControls() *Controls {
	return &Controls{
		Changes: make(chan ControlMsg, 10),
		Quit:    make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(ctrl *Controls) Model {
	return Model{
		volume:    100,
		speed:     100,
		intensity: 1,
		state:     "idle",
		controls:  ctrl,
	}
}

// Run creates the TUI program; the caller runs it
func Run(ctrl *Controls) *tea.Program {
	return tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
}
