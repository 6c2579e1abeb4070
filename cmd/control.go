// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Thermoquad/irrigator/pkg/controller"
	"github.com/Thermoquad/irrigator/pkg/irrigation"
	"github.com/Thermoquad/irrigator/pkg/irrlink"
	"github.com/Thermoquad/irrigator/pkg/link"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const (
	queryTimeout  = 5 * time.Second
	actionTimeout = 30 * time.Second
)

var noReconnect bool

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for the irrigation controller",
	Long: `Monitor and drive the irrigation controller from an interactive terminal UI.

The controller is reached over WebSocket (through a bridge) or UART (direct
connection). Without --port or --url, press 'l' to scan for serial devices and
pick one from the list.

Features:
  - Live sensor reading (humidity, light, pump, day, rain)
  - 7-day forecast with the weekly watering plan and advisability
  - Crop lookup that updates the irrigation settings
  - Advisory plan request and reset
  - Sending the forecast, season and threshold to the controller
  - Event logging
  - Automatic reconnection on connection loss

Keys:
  c connect      d disconnect   l scan devices   t query status
  r refresh      a advisory     x clear advisory s sync to device
  tab crop input (enter looks the crop up)       q quit

Supports both serial and WebSocket connections.`,
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
	controlCmd.Flags().BoolVar(&noReconnect, "no-reconnect", false, "Do not reconnect after the link fails")
}

// session owns the link and controller behind the TUI.
// Every blocking operation runs as a tea.Cmd off the UI goroutine.
type session struct {
	ctx  context.Context
	mgr  *link.Manager
	ctrl *controller.Controller
	p    *tea.Program

	reconnect bool

	mu              sync.Mutex
	deviceID        string
	connInfo        string
	cancelReconnect context.CancelFunc
}

func runControl(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	s := &session{ctx: ctx, reconnect: !noReconnect}

	mgr, deviceID, connInfo, err := newManager(nil)
	if errors.Is(err, errNoDevice) {
		mgr, connInfo = newSerialManager(), "no device"
	} else if err != nil {
		return err
	}
	s.mgr, s.deviceID, s.connInfo = mgr, deviceID, connInfo
	defer mgr.Close()

	ctrl, cleanup, err := openController(ctx, appOptions{link: mgr})
	if err != nil {
		return err
	}
	defer cleanup()
	s.ctrl = ctrl

	m := initialControlModel(s)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	s.p = p

	go s.watch(ctx)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// watch forwards link and plan changes to the program until ctx is done
func (s *session) watch(ctx context.Context) {
	states, cancelStates := s.mgr.WatchState(8)
	defer cancelStates()
	readings, cancelReadings := s.mgr.WatchReadings(8)
	defer cancelReadings()
	plans, cancelPlans := s.ctrl.WatchPlan(4)
	defer cancelPlans()

	for {
		select {
		case <-ctx.Done():
			return

		case st, ok := <-states:
			if !ok {
				return
			}
			s.p.Send(stateMsg(st))
			if st == link.Failed && s.reconnect {
				go s.reconnectLoop()
			}

		case r, ok := <-readings:
			if !ok {
				return
			}
			if r != (irrlink.SensorReading{}) {
				s.p.Send(readingMsg(r))
			}

		case plan, ok := <-plans:
			if !ok {
				return
			}
			s.p.Send(planMsg(plan))
		}
	}
}

// target returns the device to connect to and its description
func (s *session) target() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deviceID, s.connInfo
}

// selectDevice switches the target to a scanned serial device
func (s *session) selectDevice(deviceID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deviceID = deviceID
	s.connInfo = link.NewSerialTransport(cfg.Link.Baud).Describe(deviceID)
	return s.connInfo
}

// reconnectLoop retries Connect with exponential backoff until it succeeds,
// the user disconnects or the session ends. Only one loop runs at a time.
func (s *session) reconnectLoop() {
	s.mu.Lock()
	if s.cancelReconnect != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancelReconnect = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.cancelReconnect = nil
		s.mu.Unlock()
		cancel()
	}()

	err := reconnect(ctx, s.mgr, func() string {
		deviceID, _ := s.target()
		return deviceID
	}, func(attempt int, err error, wait time.Duration) {
		s.p.Send(reconnectMsg{attempt: attempt, wait: wait, err: err})
	})
	if ctx.Err() != nil {
		return
	}
	s.p.Send(resultMsg{action: "reconnect", err: err})
}

// stopReconnect cancels a running reconnect loop
func (s *session) stopReconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelReconnect != nil {
		s.cancelReconnect()
	}
}

func (s *session) connectCmd() tea.Cmd {
	return func() tea.Msg {
		deviceID, connInfo := s.target()
		if deviceID == "" {
			return resultMsg{action: "connect", err: errNoDevice}
		}
		err := connect(s.ctx, s.mgr, deviceID)
		return resultMsg{action: "connect", text: connInfo, err: err}
	}
}

func (s *session) disconnectCmd() tea.Cmd {
	return func() tea.Msg {
		s.stopReconnect()
		return resultMsg{action: "disconnect", err: s.mgr.Disconnect()}
	}
}

func (s *session) scanCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(s.ctx, queryTimeout)
		defer cancel()
		devices, err := s.mgr.Scan(ctx)
		return scanMsg{devices: devices, err: err}
	}
}

func (s *session) statusCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(s.ctx, queryTimeout)
		defer cancel()
		r, err := s.ctrl.QueryStatus(ctx)
		if err != nil {
			return resultMsg{action: "status", err: err}
		}
		return resultMsg{action: "status", text: fmt.Sprintf("humidity %d, rain %d%%", r.Humidity, r.RainProbability)}
	}
}

func (s *session) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(s.ctx, actionTimeout)
		defer cancel()
		days, err := s.ctrl.RefreshForecast(ctx)
		return resultMsg{action: "refresh", text: fmt.Sprintf("%d days", len(days)), err: err}
	}
}

func (s *session) advisoryCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(s.ctx, actionTimeout)
		defer cancel()
		plan, err := s.ctrl.RequestAdvisoryPlan(ctx)
		if err != nil {
			return resultMsg{action: "advisory", err: err}
		}
		return resultMsg{action: "advisory", text: plan.Summary}
	}
}

func (s *session) clearAdvisoryCmd() tea.Cmd {
	return func() tea.Msg {
		s.ctrl.ClearAdvisoryPlan()
		return resultMsg{action: "clear"}
	}
}

func (s *session) syncCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(s.ctx, actionTimeout)
		defer cancel()
		return resultMsg{action: "sync", err: s.ctrl.SyncDevice(ctx)}
	}
}

func (s *session) cropCmd(name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(s.ctx, actionTimeout)
		defer cancel()
		res, err := s.ctrl.ResolveCrop(ctx, name)
		if err != nil {
			return resultMsg{action: "crop", err: err}
		}
		return resultMsg{
			action: "crop",
			text:   fmt.Sprintf("%s (%s, %s)", res.Profile.CropName, res.Profile.WaterNeed, res.Source),
		}
	}
}

// snapshot is the controller view the TUI renders from
type snapshot struct {
	settings  irrigation.Settings
	season    irrigation.Season
	plan      []irrigation.DayDecision
	advisable []bool
	advisory  *irrigation.AdvisoryPlan
}

func (s *session) snapshot() snapshot {
	return snapshot{
		settings:  s.ctrl.Settings(),
		season:    s.ctrl.Season(),
		plan:      s.ctrl.Plan(),
		advisable: s.ctrl.Advisability(),
		advisory:  s.ctrl.AdvisoryPlan(),
	}
}
