// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/irrigator/pkg/controller"
	"github.com/Thermoquad/irrigator/pkg/irrigation"
	"github.com/Thermoquad/irrigator/pkg/irrlink"
	"github.com/Thermoquad/irrigator/pkg/link"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

// Focus states
const (
	focusMain = iota
	focusCropInput
	focusDeviceList
)

const devicePanelWidth = 30

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// device is a scanned serial port
type device struct {
	path   string
	access string
}

// Implement list.Item interface
func (d device) Title() string       { return d.path }
func (d device) Description() string { return d.access }
func (d device) FilterValue() string { return d.path }

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	s        *session
	connInfo string

	state      link.State
	reading    irrlink.SensorReading
	hasReading bool
	lastSeen   time.Time
	view       snapshot

	cropInput  textinput.Model
	deviceList list.Model
	showList   bool
	focus      int

	pending      map[string]bool
	reconnecting bool
	log          eventLog

	width    int
	height   int
	quitting bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type controlTickMsg time.Time

type stateMsg link.State

type readingMsg irrlink.SensorReading

type planMsg []irrigation.DayDecision

// resultMsg reports the outcome of one user action
type resultMsg struct {
	action string
	text   string
	err    error
}

type scanMsg struct {
	devices []string
	err     error
}

type reconnectMsg struct {
	attempt int
	wait    time.Duration
	err     error
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialControlModel(s *session) controlModel {
	ti := textinput.New()
	ti.Placeholder = "crop name, e.g. tomato"
	ti.CharLimit = 40
	ti.Width = 30

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	deviceList := list.New([]list.Item{}, delegate, devicePanelWidth, 10)
	deviceList.Title = "Devices"
	deviceList.SetShowStatusBar(false)
	deviceList.SetShowHelp(false)
	deviceList.SetFilteringEnabled(false)

	_, connInfo := s.target()
	return controlModel{
		s:          s,
		connInfo:   connInfo,
		state:      s.mgr.State(),
		view:       s.snapshot(),
		cropInput:  ti,
		deviceList: deviceList,
		focus:      focusMain,
		pending:    make(map[string]bool),
		log:        newEventLog(100),
		width:      80,
		height:     24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m controlModel) Init() tea.Cmd {
	cmds := []tea.Cmd{controlTickCmd()}
	if deviceID, _ := m.s.target(); deviceID != "" {
		cmds = append(cmds, m.s.connectCmd())
	}
	if len(m.view.plan) == 0 {
		cmds = append(cmds, m.s.refreshCmd())
	}
	return tea.Batch(cmds...)
}

func controlTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return controlTickMsg(t)
	})
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		if m.focus == focusDeviceList {
			var cmd tea.Cmd
			m.deviceList, cmd = m.deviceList.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.deviceList.SetSize(devicePanelWidth, max(5, m.height/3))

	case controlTickMsg:
		return m, controlTickCmd()

	case stateMsg:
		st := link.State(msg)
		if st != m.state {
			m.log.add(fmt.Sprintf("Link %s", st), st == link.Failed)
		}
		m.state = st
		if st == link.Connected {
			m.reconnecting = false
		}

	case readingMsg:
		m.reading = irrlink.SensorReading(msg)
		m.hasReading = true
		m.lastSeen = time.Now()

	case planMsg:
		m.view = m.s.snapshot()

	case reconnectMsg:
		m.reconnecting = true
		m.log.add(fmt.Sprintf("Reconnect attempt %d failed: %s (next in %v)",
			msg.attempt, controller.UserMessage(msg.err), msg.wait.Round(time.Second)), true)

	case scanMsg:
		delete(m.pending, "scan")
		return m.handleScan(msg)

	case resultMsg:
		return m.handleResult(msg)
	}

	return m, nil
}

func (m controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.focus {
	case focusCropInput:
		switch msg.String() {
		case "esc", "tab":
			m.focus = focusMain
			m.cropInput.Blur()
			return m, nil
		case "enter":
			name := strings.TrimSpace(m.cropInput.Value())
			m.focus = focusMain
			m.cropInput.Blur()
			if name == "" {
				return m, nil
			}
			return m.start("crop", m.s.cropCmd(name))
		}
		var cmd tea.Cmd
		m.cropInput, cmd = m.cropInput.Update(msg)
		return m, cmd

	case focusDeviceList:
		switch msg.String() {
		case "esc", "tab":
			m.focus = focusMain
			m.showList = false
			return m, nil
		case "enter":
			item, ok := m.deviceList.SelectedItem().(device)
			m.focus = focusMain
			m.showList = false
			if !ok {
				return m, nil
			}
			m.connInfo = m.s.selectDevice(item.path)
			m.log.add("Selected "+item.path, false)
			return m.start("connect", m.s.connectCmd())
		}
		var cmd tea.Cmd
		m.deviceList, cmd = m.deviceList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "tab", "/":
		m.focus = focusCropInput
		return m, m.cropInput.Focus()
	case "c":
		return m.start("connect", m.s.connectCmd())
	case "d":
		m.reconnecting = false
		return m.start("disconnect", m.s.disconnectCmd())
	case "l":
		return m.start("scan", m.s.scanCmd())
	case "t":
		return m.start("status", m.s.statusCmd())
	case "r":
		return m.start("refresh", m.s.refreshCmd())
	case "a":
		return m.start("advisory", m.s.advisoryCmd())
	case "x":
		return m.start("clear", m.s.clearAdvisoryCmd())
	case "s":
		return m.start("sync", m.s.syncCmd())
	}
	return m, nil
}

// start runs cmd unless the same action is still in flight
func (m controlModel) start(action string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if m.pending[action] {
		m.log.add(action+" already running", false)
		return m, nil
	}
	m.pending[action] = true
	return m, cmd
}

func (m controlModel) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	delete(m.pending, msg.action)

	if msg.err != nil {
		m.log.add(fmt.Sprintf("%s: %s", actionTitle(msg.action), controller.UserMessage(msg.err)), true)
		if msg.action == "connect" && errors.Is(msg.err, errNoDevice) {
			m.log.add("Press 'l' to scan for devices", false)
		}
		m.view = m.s.snapshot()
		return m, nil
	}

	switch msg.action {
	case "connect":
		m.connInfo = msg.text
		m.log.add("Connected to "+msg.text, false)
	case "disconnect":
		m.log.add("Disconnected", false)
	case "reconnect":
		m.reconnecting = false
		m.log.add("Reconnected", false)
	case "status":
		m.log.add("Status: "+msg.text, false)
	case "refresh":
		m.log.add("Forecast refreshed ("+msg.text+")", false)
	case "advisory":
		text := "Advisory plan applied"
		if msg.text != "" {
			text += ": " + msg.text
		}
		m.log.add(text, false)
	case "clear":
		m.log.add("Advisory plan cleared", false)
	case "sync":
		m.log.add("Controller synced", false)
	case "crop":
		m.log.add("Crop: "+msg.text, false)
		m.cropInput.SetValue("")
	}
	m.view = m.s.snapshot()
	return m, nil
}

func (m controlModel) handleScan(msg scanMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.log.add("Scan: "+controller.UserMessage(msg.err), true)
		return m, nil
	}
	if len(msg.devices) == 0 {
		m.log.add("Scan: no devices found", false)
		return m, nil
	}

	items := make([]list.Item, 0, len(msg.devices))
	for _, path := range msg.devices {
		access := "ready"
		if err := link.DevicePermission(path); err != nil {
			access = "no access"
		}
		items = append(items, device{path: path, access: access})
	}
	cmd := m.deviceList.SetItems(items)
	m.showList = true
	m.focus = focusDeviceList
	m.log.add(fmt.Sprintf("Scan: %d device(s) found", len(items)), false)
	return m, cmd
}

func actionTitle(action string) string {
	if action == "" {
		return action
	}
	return strings.ToUpper(action[:1]) + action[1:]
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	// Header
	s.WriteString(titleStyle.Render("IRRIGATOR CONTROL"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.reconnecting {
		connStatus = warningStyle.Render("RECONNECTING...")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit tab=crop l=scan", connStatus)))
	s.WriteString("\n\n")

	// Link + reading | settings
	linkPanel := boxStyle.Width(m.width/2 - 3).Render(m.renderLink())
	settingsPanel := boxStyle.Width(m.width/2 - 3).Render(m.renderSettings())
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, linkPanel, " ", settingsPanel))
	s.WriteString("\n")

	if m.showList {
		listStyle := boxStyle.Width(devicePanelWidth)
		if m.focus == focusDeviceList {
			listStyle = focusedBoxStyle.Width(devicePanelWidth)
		}
		s.WriteString(listStyle.Render(m.deviceList.View()))
		s.WriteString("\n")
	}

	// Plan
	if len(m.view.plan) > 0 {
		s.WriteString(planTable(m.view.plan, m.view.advisable))
		s.WriteString("\n")
		if m.view.advisory != nil && m.view.advisory.Summary != "" {
			s.WriteString(headerStyle.Render("Advisory: " + m.view.advisory.Summary))
			s.WriteString("\n")
		}
	} else {
		s.WriteString(headerStyle.Render("No forecast yet (press 'r')"))
		s.WriteString("\n")
	}

	// Crop input
	cropStyle := boxStyle
	if m.focus == focusCropInput {
		cropStyle = focusedBoxStyle
	}
	s.WriteString(cropStyle.Width(m.width - 4).Render(statsLabelStyle.Render("Crop: ") + m.cropInput.View()))
	s.WriteString("\n")

	// Keys
	s.WriteString(headerStyle.Render("c connect  d disconnect  t status  r refresh  a advisory  x clear  s sync"))
	s.WriteString("\n")

	// Event log
	logHeight := m.height - lipgloss.Height(s.String()) - 3
	if logHeight < 3 {
		logHeight = 3
	}
	s.WriteString(m.log.render("EVENTS", logHeight, m.width-4))

	return s.String()
}

func (m controlModel) renderLink() string {
	var s strings.Builder

	stateStyle := statsValueStyle
	switch m.state {
	case link.Failed:
		stateStyle = errorStyle
	case link.Connecting, link.Scanning:
		stateStyle = warningStyle
	case link.Disconnected:
		stateStyle = headerStyle
	}
	s.WriteString(fmt.Sprintf("%s %s", statsLabelStyle.Render("Link:"), stateStyle.Render(m.state.String())))
	if len(m.pending) > 0 {
		actions := make([]string, 0, len(m.pending))
		for a := range m.pending {
			actions = append(actions, a)
		}
		s.WriteString(headerStyle.Render(fmt.Sprintf("  (%s...)", strings.Join(actions, ", "))))
	}
	s.WriteString("\n")

	if !m.hasReading {
		s.WriteString(headerStyle.Render("No reading yet"))
		return s.String()
	}

	r := m.reading
	pump := headerStyle.Render("OFF")
	if r.PumpOn {
		pump = statsValueStyle.Render("ON")
	}
	s.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		statsLabelStyle.Render("Humidity:"), statsValueStyle.Render(fmt.Sprintf("%d", r.Humidity)),
		statsLabelStyle.Render("Light:"), statsValueStyle.Render(fmt.Sprintf("%d", r.Light))))
	s.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Pump:"), pump,
		statsLabelStyle.Render("Day:"), statsValueStyle.Render(fmt.Sprintf("%d", r.DayIndex)),
		statsLabelStyle.Render("Rain:"), statsValueStyle.Render(fmt.Sprintf("%d%%", r.RainProbability))))
	s.WriteString(headerStyle.Render(fmt.Sprintf("updated %s ago", time.Since(m.lastSeen).Round(time.Second))))
	return s.String()
}

func (m controlModel) renderSettings() string {
	st := m.view.settings
	crop := st.CropName
	if crop == "" {
		crop = "(none)"
	}
	source := "crop profile"
	if st.UserOverridden {
		source = "edited"
	}

	var s strings.Builder
	s.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		statsLabelStyle.Render("Crop:"), statsValueStyle.Render(crop),
		statsLabelStyle.Render("Season:"), statsValueStyle.Render(m.view.season.String())))
	s.WriteString(fmt.Sprintf("%s every %d day(s) at %s for %ds\n",
		statsLabelStyle.Render("Water:"), st.FrequencyDays, st.WateringTime, st.DurationSeconds))
	s.WriteString(fmt.Sprintf("%s %d   %s",
		statsLabelStyle.Render("Threshold:"), st.HumidityThreshold,
		headerStyle.Render(source)))
	return s.String()
}
