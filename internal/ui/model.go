// ABOUTME: Bubbletea model for the player TUI
// ABOUTME: Shows the loaded track and stream settings and maps keys to setting changes
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	volumeStep = 5
	speedStep  = 10
	filterStep = 5

	minSpeed     = 10
	maxSpeed     = 400
	minIntensity = 1
	maxIntensity = 99
)

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

// Model represents the TUI state
type Model struct {
	// Connection
	connected  bool
	serverName string

	// Track
	title      string
	duration   string
	sampleRate int
	channels   int
	bitDepth   int

	// Playback
	state     string
	volume    int
	muted     bool
	speed     int
	intensity int

	// Stats
	chunks int64
	frames int64

	controls *Controls

	// Dimensions
	width  int
	height int
}

// StatusMsg updates TUI state. Zero fields are left unchanged.
type StatusMsg struct {
	Connected  *bool
	ServerName string
	Title      string
	Duration   string
	SampleRate int
	Channels   int
	BitDepth   int
	State      string
	Speed      int
	Intensity  int
	Chunks     int64
	Frames     int64
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("filterstream player"))
	b.WriteString("\n\n")
	b.WriteString(m.renderConnection())
	b.WriteString(m.renderTrack())
	b.WriteString(m.renderSettings())
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderConnection() string {
	if !m.connected {
		return "Status: Disconnected\n\n"
	}
	return fmt.Sprintf("Status: Connected to %s (%s)\n\n", m.serverName, m.state)
}

func (m Model) renderTrack() string {
	if m.title == "" {
		return "No track loaded\n\n"
	}

	s := fmt.Sprintf("Track:    %s\n", truncate(m.title, 48))
	s += fmt.Sprintf("Length:   %s\n", m.duration)
	if m.sampleRate > 0 {
		s += fmt.Sprintf("Format:   %dHz %s %d-bit\n", m.sampleRate, channelName(m.channels), m.bitDepth)
	}
	s += fmt.Sprintf("Received: %d chunks, %d frames\n\n", m.chunks, m.frames)
	return s
}

func (m Model) renderSettings() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " (muted)"
	}

	return fmt.Sprintf("Volume: [%s] %d%%%s\n", renderBar(m.volume, 100, 10), m.volume, muteIcon) +
		fmt.Sprintf("Speed:  %d%%\n", m.speed) +
		fmt.Sprintf("Filter: %d\n\n", m.intensity)
}

func (m Model) renderHelp() string {
	return "↑/↓:Volume  m:Mute  +/-:Speed  ]/[:Filter  q:Quit\n"
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.controls != nil {
			select {
			case m.controls.Quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		m.volume = min(m.volume+volumeStep, 100)
		m.send(ControlMsg{Kind: ControlVolume, Value: m.volume})
	case "down":
		m.volume = max(m.volume-volumeStep, 0)
		m.send(ControlMsg{Kind: ControlVolume, Value: m.volume})
	case "m":
		m.muted = !m.muted
		m.send(ControlMsg{Kind: ControlMute, Muted: m.muted})
	case "+", "=":
		m.speed = min(m.speed+speedStep, maxSpeed)
		m.send(ControlMsg{Kind: ControlSpeed, Value: m.speed})
	case "-":
		m.speed = max(m.speed-speedStep, minSpeed)
		m.send(ControlMsg{Kind: ControlSpeed, Value: m.speed})
	case "]":
		m.intensity = min(m.intensity+filterStep, maxIntensity)
		m.send(ControlMsg{Kind: ControlFilter, Value: m.intensity})
	case "[":
		m.intensity = max(m.intensity-filterStep, minIntensity)
		m.send(ControlMsg{Kind: ControlFilter, Value: m.intensity})
	}

	return m, nil
}

// send never blocks the UI; a full queue drops the change
func (m Model) send(msg ControlMsg) {
	if m.controls == nil {
		return
	}
	select {
	case m.controls.Changes <- msg:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Connected != nil {
		m.connected = *msg.Connected
	}
	if msg.ServerName != "" {
		m.serverName = msg.ServerName
	}
	if msg.Title != "" {
		m.title = msg.Title
		m.duration = msg.Duration
	}
	if msg.SampleRate != 0 {
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
		m.bitDepth = msg.BitDepth
	}
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.Speed != 0 {
		m.speed = msg.Speed
	}
	if msg.Intensity != 0 {
		m.intensity = msg.Intensity
	}
	if msg.Chunks != 0 {
		m.chunks = msg.Chunks
		m.frames = msg.Frames
	}
}

func renderBar(value, limit, width int) string {
	filled := (value * width) / limit
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}
