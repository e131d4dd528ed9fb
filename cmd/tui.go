// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/DpunktS/seplos-v3-sniffer/pkg/seplos"
)

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for notices
}

// Latest decoded values for one pack
type packState struct {
	lastSeen     time.Time
	voltage      float64
	current      float64
	soc          float64
	minCellV     float64
	maxCellV     float64
	systemStatus string
	alarms       string
	protections  string
	hasTelemetry bool
	hasStatus    bool
}

// TUI model
type model struct {
	connInfo  string
	cfg       *Config
	stats     *seplos.Statistics
	packs     [seplos.MaxPacks]*packState
	linkAlive bool

	events        viewport.Model
	eventLog      []eventLogEntry
	maxLogEntries int
	eventsReady   bool

	width    int
	height   int
	quitting bool
}

// Messages
type tickMsg time.Time
type frameMsg struct {
	frame *seplos.Frame
}
type framerErrMsg struct {
	crcErrors uint64 // cumulative count from the synchronizer
}
type readErrMsg struct {
	err error
}

func initialModel(connInfo string, cfg *Config) model {
	return model{
		connInfo:      connInfo,
		cfg:           cfg,
		stats:         seplos.NewStatistics(),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		// Remaining keys scroll the event log
		var cmd tea.Cmd
		m.events, cmd = m.events.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		logHeight := m.height - 14 - seplos.MaxPacks/2
		if logHeight < 5 {
			logHeight = 5
		}
		if !m.eventsReady {
			m.events = viewport.New(m.width-4, logHeight)
			m.eventsReady = true
		} else {
			m.events.Width = m.width - 4
			m.events.Height = logHeight
		}
		m.refreshEvents()

	case tickMsg:
		// Update statistics rates and link-alive state
		m.stats.CalculateRates()
		if m.linkAlive && !m.stats.LastMasterTime.IsZero() &&
			time.Since(m.stats.LastMasterTime) > m.cfg.LinkTimeout() {
			m.linkAlive = false
			m.addLogEntry("Bus master silent, link dead", true)
		}
		return m, tickCmd()

	case frameMsg:
		m.stats.RecordFrame(msg.frame)
		if msg.frame.IsMaster() && !m.linkAlive {
			m.linkAlive = true
			m.addLogEntry("Bus master detected, link alive", false)
		}
		m.applyFrame(msg.frame)

	case framerErrMsg:
		if msg.crcErrors > m.stats.CRCErrors {
			m.stats.CRCErrors = msg.crcErrors
			m.addLogEntry("Frame discarded: CRC mismatch", true)
		}

	case readErrMsg:
		m.addLogEntry(fmt.Sprintf("Read error: %v", msg.err), true)
	}

	return m, nil
}

func (m *model) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
	m.refreshEvents()
}

// applyFrame folds a decoded frame into the per-pack dashboard state
func (m *model) applyFrame(f *seplos.Frame) {
	idx := f.DeviceIndex()
	if idx < 0 || idx >= seplos.MaxPacks {
		return
	}
	st := m.packs[idx]
	if st == nil {
		st = &packState{}
		m.packs[idx] = st
	}
	st.lastSeen = f.Timestamp()

	for _, metric := range seplos.Decode(f) {
		switch metric.Name {
		case "packVoltage":
			st.voltage = metric.Value
			st.hasTelemetry = true
		case "current":
			st.current = metric.Value
		case "soc":
			st.soc = metric.Value
		case "minCellVoltage":
			st.minCellV = metric.Value
		case "maxCellVoltage":
			st.maxCellV = metric.Value
		case "systemStatus":
			st.systemStatus = metric.Text
			st.hasStatus = true
		case "alarms":
			if st.alarms != metric.Text && metric.Text != "" {
				m.addLogEntry(fmt.Sprintf("%s alarms: %s", m.cfg.PackName(idx), metric.Text), true)
			}
			st.alarms = metric.Text
		case "protections":
			if st.protections != metric.Text && metric.Text != "" {
				m.addLogEntry(fmt.Sprintf("%s protections: %s", m.cfg.PackName(idx), metric.Text), true)
			}
			st.protections = metric.Text
		}
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// refreshEvents re-renders the event log into the viewport
func (m *model) refreshEvents() {
	if !m.eventsReady {
		return
	}
	content := strings.Builder{}
	if len(m.eventLog) == 0 {
		content.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for _, entry := range m.eventLog {
			timestamp := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				content.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				content.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}
	m.events.SetContent(content.String())
	m.events.GotoBottom()
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("SEPLOS SNIFFER - BUS DASHBOARD"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Connection: %s | Press 'q' to quit", m.connInfo)))
	s.WriteString("\n\n")

	// Link status
	if m.linkAlive {
		s.WriteString(valueStyle.Render("✓ Link alive"))
	} else {
		s.WriteString(warningStyle.Render("⏳ Waiting for bus master..."))
	}
	s.WriteString("\n\n")

	// Statistics
	m.stats.CalculateRates()
	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s   %s %s",
		labelStyle.Render("Frames:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.ValidFrames)),
		labelStyle.Render("CRC Errors:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.CRCErrors)),
		labelStyle.Render("Packs:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.ActivePacks())),
		labelStyle.Render("Rate:"), valueStyle.Render(fmt.Sprintf("%.1f frames/s", m.stats.FrameRate)),
	))
	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Pack table
	packContent := strings.Builder{}
	any := false
	for idx, st := range m.packs {
		if st == nil {
			continue
		}
		any = true
		line := fmt.Sprintf("%-10s", m.cfg.PackName(idx))
		if st.hasTelemetry {
			line += fmt.Sprintf("  %6.2f V  %7.2f A  %5.1f %%  cells %.3f-%.3f V",
				st.voltage, st.current, st.soc, st.minCellV, st.maxCellV)
		} else {
			line += "  (no telemetry yet)"
		}
		packContent.WriteString(labelStyle.Render(line))
		packContent.WriteString("\n")
		if st.hasStatus {
			status := st.systemStatus
			if status == "" {
				status = "-"
			}
			packContent.WriteString(headerStyle.Render(fmt.Sprintf("           status: %s", status)))
			if st.alarms != "" {
				packContent.WriteString(errorStyle.Render(fmt.Sprintf("  alarms: %s", st.alarms)))
			}
			if st.protections != "" {
				packContent.WriteString(errorStyle.Render(fmt.Sprintf("  protections: %s", st.protections)))
			}
			packContent.WriteString("\n")
		}
	}
	if !any {
		packContent.WriteString(headerStyle.Render("(no packs seen yet)"))
	}
	s.WriteString(labelStyle.Render("Packs:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Width(m.width - 4).Render(strings.TrimRight(packContent.String(), "\n")))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")
	if m.eventsReady {
		s.WriteString(boxStyle.Width(m.width - 4).Render(m.events.View()))
	} else {
		s.WriteString(headerStyle.Render("  (initializing...)"))
	}

	return s.String()
}
