// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/irrigator/pkg/irrlink"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles shared by the terminal UIs
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
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

	focusedBoxStyle = boxStyle.
			BorderForeground(lipgloss.Color("12"))
)

// Event log entry
type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for info
}

// eventLog keeps the most recent entries
type eventLog struct {
	entries []logEntry
	max     int
}

func newEventLog(size int) eventLog {
	return eventLog{entries: make([]logEntry, 0, size), max: size}
}

func (l *eventLog) add(message string, isError bool) {
	l.entries = append(l.entries, logEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})

	// Keep only last N entries
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
}

// render draws the last height entries inside a box of the given width
func (l eventLog) render(title string, height, width int) string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render(title))
	s.WriteString("\n")

	var content strings.Builder
	if len(l.entries) == 0 {
		content.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		start := len(l.entries) - height
		if start < 0 {
			start = 0
		}
		for _, entry := range l.entries[start:] {
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

	s.WriteString(boxStyle.Width(width).Render(content.String()))
	return s.String()
}

// renderReading formats a sensor reading on one line
func renderReading(r irrlink.SensorReading) string {
	pump := headerStyle.Render("OFF")
	if r.PumpOn {
		pump = statsValueStyle.Render("ON")
	}
	return fmt.Sprintf("%s %s   %s %s   %s %s   %s %s   %s %s",
		statsLabelStyle.Render("Humidity:"), statsValueStyle.Render(fmt.Sprintf("%d", r.Humidity)),
		statsLabelStyle.Render("Light:"), statsValueStyle.Render(fmt.Sprintf("%d", r.Light)),
		statsLabelStyle.Render("Pump:"), pump,
		statsLabelStyle.Render("Day:"), statsValueStyle.Render(fmt.Sprintf("%d", r.DayIndex)),
		statsLabelStyle.Render("Rain:"), statsValueStyle.Render(fmt.Sprintf("%d%%", r.RainProbability)),
	)
}

// Error detection TUI model
type model struct {
	connInfo      string
	statsInterval int
	showAll       bool
	stats         *irrlink.Statistics
	anomalies     uint64
	log           eventLog
	lastReading   *irrlink.SensorReading
	readErr       error
	width         int
	height        int
	quitting      bool
}

type tickMsg time.Time

func initialModel(connInfo string, statsInterval int, showAll bool) model {
	return model{
		connInfo:      connInfo,
		statsInterval: statsInterval,
		showAll:       showAll,
		stats:         irrlink.NewStatistics(),
		log:           newEventLog(100),
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

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.stats.CalculateRates()
		return m, tickCmd()

	case lineBatchMsg:
		m.stats.BytesReceived += uint64(msg.bytes)
		for _, ev := range msg.events {
			m.record(ev)
		}

	case readErrMsg:
		m.readErr = msg.err
		m.log.add(fmt.Sprintf("Read failed: %v", msg.err), true)
	}

	return m, nil
}

func (m *model) record(ev lineEvent) {
	m.stats.Update(ev.frame, ev.parseErr)

	switch {
	case ev.parseErr != nil:
		m.log.add(fmt.Sprintf("MALFORMED %q: %v", ev.line, ev.parseErr), true)
		return
	case len(ev.anomalies) > 0:
		m.anomalies++
		for _, a := range ev.anomalies {
			m.log.add(fmt.Sprintf("%q: %s", ev.line, a.Message), true)
		}
	case m.showAll:
		m.log.add(fmt.Sprintf("%s %q", ev.frame.Kind(), ev.line), false)
	}

	if status, ok := ev.frame.(irrlink.StatusFrame); ok {
		r := status.Reading
		m.lastReading = &r
	}
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	mode := "Errors only"
	if m.showAll {
		mode = "All lines"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("IRRIGATOR - ERROR DETECTION"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Mode: %s | Press 'q' to quit", m.connInfo, mode)))
	s.WriteString("\n\n")

	if m.readErr != nil {
		s.WriteString(errorStyle.Render("✗ Connection lost"))
	} else if m.stats.TotalLines == 0 {
		s.WriteString(warningStyle.Render("⏳ Waiting for the first line..."))
	} else {
		s.WriteString(statsValueStyle.Render("✓ Receiving"))
	}
	s.WriteString("\n\n")

	// Statistics
	m.stats.CalculateRates()
	var statusPercent, errorPercent float64
	if m.stats.TotalLines > 0 {
		statusPercent = float64(m.stats.StatusFrames) * 100.0 / float64(m.stats.TotalLines)
		errorPercent = float64(m.stats.MalformedFrames+m.anomalies) * 100.0 / float64(m.stats.TotalLines)
	}

	var stats strings.Builder
	stats.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Lines:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalLines)),
		statsLabelStyle.Render("Status:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.StatusFrames, statusPercent)),
		statsLabelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.MalformedFrames+m.anomalies, errorPercent)),
	))
	if m.stats.MalformedFrames > 0 || m.anomalies > 0 {
		stats.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			statsLabelStyle.Render("Malformed:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.MalformedFrames)),
			statsLabelStyle.Render("Anomalous:"), warningStyle.Render(fmt.Sprintf("%d", m.anomalies)),
		))
	}
	if m.stats.UnknownFrames > 0 {
		stats.WriteString(fmt.Sprintf("%s %s\n",
			statsLabelStyle.Render("Unknown:"), headerStyle.Render(fmt.Sprintf("%d", m.stats.UnknownFrames)),
		))
	}
	errRate := statsValueStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
	if m.stats.ErrorRate > 0 {
		errRate = errorStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
	}
	stats.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		statsLabelStyle.Render("Line Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f lines/s", m.stats.LineRate)),
		statsLabelStyle.Render("Error Rate:"), errRate,
		statsLabelStyle.Render("Bytes:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.BytesReceived)),
	))

	s.WriteString(boxStyle.Render(stats.String()))
	s.WriteString("\n\n")

	if m.lastReading != nil {
		s.WriteString(statsLabelStyle.Render("Latest Reading:"))
		s.WriteString("\n")
		s.WriteString(boxStyle.Render(renderReading(*m.lastReading)))
		s.WriteString("\n\n")
	}

	// Reserve space for header and stats
	logHeight := m.height - 15
	if logHeight < 5 {
		logHeight = 5
	}
	s.WriteString(m.log.render("Recent Events:", logHeight, m.width-4))

	return s.String()
}
