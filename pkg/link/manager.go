// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/Thermoquad/irrigator/pkg/irrlink"
	"github.com/Thermoquad/irrigator/pkg/logger"
)

const defaultReadBufferSize = 128

// Options configures a Manager
type Options struct {
	Transport Transport

	// Permission guards Connect. Nil allows everything.
	Permission PermissionFunc

	Logger *logger.Logger

	// ReadBufferSize is the size of each transport read. Zero uses a default.
	ReadBufferSize int

	// OnFrame, when set, is called from the read loop for every decoded frame
	// while the connection is live. It must not block.
	OnFrame func(irrlink.Frame)
}

// Manager drives the connection lifecycle to one controller.
//
// At most one transport handle is live at a time. A single background read loop
// per connection feeds the decoder and publishes readings; it is cancelled by
// Disconnect before the handle is closed. Sends use their own lock and never
// contend with the read loop.
type Manager struct {
	transport  Transport
	permission PermissionFunc
	log        *logger.Logger
	bufSize    int
	onFrame    func(irrlink.Frame)

	// connectMu admits one Connect or Scan at a time (TryLock)
	connectMu sync.Mutex
	// lifecycleMu serializes Disconnect calls
	lifecycleMu sync.Mutex

	// mu guards the live handle and every state publication
	mu     sync.Mutex
	conn   io.ReadWriteCloser
	cancel context.CancelFunc
	done   chan struct{}

	writeMu sync.Mutex

	statsMu sync.Mutex
	decoder *irrlink.Decoder

	state   *Cell[State]
	reading *Cell[irrlink.SensorReading]
}

// NewManager creates a disconnected manager
func NewManager(opts Options) *Manager {
	permission := opts.Permission
	if permission == nil {
		permission = AllowAll
	}
	bufSize := opts.ReadBufferSize
	if bufSize <= 0 {
		bufSize = defaultReadBufferSize
	}

	return &Manager{
		transport:  opts.Transport,
		permission: permission,
		log:        logger.OrNop(opts.Logger),
		bufSize:    bufSize,
		onFrame:    opts.OnFrame,
		decoder:    irrlink.NewDecoder(),
		state:      NewCell(Disconnected),
		reading:    NewCell(irrlink.SensorReading{}),
	}
}

// State returns the current connection state
func (m *Manager) State() State {
	return m.state.Get()
}

// Reading returns the last sensor reading, or the zero value before the first one
func (m *Manager) Reading() irrlink.SensorReading {
	return m.reading.Get()
}

// WatchState subscribes to state changes; the current state is delivered first
func (m *Manager) WatchState(buffer int) (<-chan State, func()) {
	return m.state.Watch(buffer)
}

// WatchReadings subscribes to sensor readings; the current reading is delivered first
func (m *Manager) WatchReadings(buffer int) (<-chan irrlink.SensorReading, func()) {
	return m.reading.Watch(buffer)
}

// Stats returns a snapshot of the decoder statistics for the current connection
func (m *Manager) Stats() irrlink.Statistics {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	stats := m.decoder.Statistics()
	stats.CalculateRates()
	return *stats
}

// Connect opens deviceID and starts the read loop.
//
// A missing permission returns ErrCapabilityDenied without a state change. A
// concurrent Connect or Scan returns ErrConnectInProgress. An existing
// connection is disconnected first. A handshake failure leaves the state at
// Failed and returns a *TransportError.
func (m *Manager) Connect(ctx context.Context, deviceID string) error {
	if !m.connectMu.TryLock() {
		return ErrConnectInProgress
	}
	defer m.connectMu.Unlock()

	if err := m.permission(deviceID); err != nil {
		m.log.Warnw("link_permission_denied", "device", deviceID, "err", err)
		return fmt.Errorf("%w: %v", ErrCapabilityDenied, err)
	}

	if m.State() == Connected {
		if err := m.Disconnect(); err != nil {
			m.log.Warnw("link_close_failed", "err", err)
		}
	}

	m.mu.Lock()
	if err := m.transition(Connecting); err != nil {
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()

	conn, err := m.transport.Open(ctx, deviceID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		_ = m.transition(Failed)
		return &TransportError{Op: "open", Err: err}
	}

	m.statsMu.Lock()
	m.decoder.Reset()
	m.decoder.Statistics().Reset()
	m.statsMu.Unlock()

	loopCtx, cancel := context.WithCancel(context.Background())
	m.conn = conn
	m.cancel = cancel
	m.done = make(chan struct{})
	_ = m.transition(Connected)

	go m.readLoop(loopCtx, conn, m.done)

	m.log.Infow("link_connected", "device", deviceID)
	return nil
}

// Disconnect stops the read loop, closes the handle and publishes Disconnected.
// It is a no-op outside the Connected state.
func (m *Manager) Disconnect() error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	m.mu.Lock()
	if m.state.Get() != Connected || m.conn == nil {
		m.mu.Unlock()
		return nil
	}
	conn, done := m.conn, m.done
	m.cancel()
	m.conn, m.cancel, m.done = nil, nil, nil
	closeErr := conn.Close()
	m.mu.Unlock()

	// The read loop must be gone before the state is published
	<-done

	m.mu.Lock()
	_ = m.transition(Disconnected)
	m.mu.Unlock()

	m.log.Infow("link_disconnected")

	if closeErr != nil {
		return &TransportError{Op: "close", Err: closeErr}
	}
	return nil
}

// Send encodes and writes commands in order. It fails with ErrNotConnected
// unless the state is exactly Connected. A write error moves the state to Failed.
func (m *Manager) Send(ctx context.Context, cmds ...irrlink.Command) error {
	m.mu.Lock()
	if m.state.Get() != Connected || m.conn == nil {
		m.mu.Unlock()
		return ErrNotConnected
	}
	conn := m.conn
	m.mu.Unlock()

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	for _, c := range cmds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := conn.Write(irrlink.EncodeLine(c)); err != nil {
			m.fail(conn, err)
			return &TransportError{Op: "write", Err: err}
		}
		m.log.Debugw("link_sent", "command", irrlink.FormatCommand(c))
	}
	return nil
}

// Scan lists candidate devices through the transport.
// The state passes through Scanning and returns to Disconnected.
func (m *Manager) Scan(ctx context.Context) ([]string, error) {
	lister, ok := m.transport.(Lister)
	if !ok {
		return nil, ErrScanUnsupported
	}
	if !m.connectMu.TryLock() {
		return nil, ErrConnectInProgress
	}
	defer m.connectMu.Unlock()

	m.mu.Lock()
	if err := m.transition(Scanning); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.mu.Unlock()

	devices, err := lister.List(ctx)

	m.mu.Lock()
	_ = m.transition(Disconnected)
	m.mu.Unlock()

	return devices, err
}

// Close disconnects and releases all watchers
func (m *Manager) Close() error {
	err := m.Disconnect()
	m.state.Close()
	m.reading.Close()
	return err
}

// transition publishes a new state. Caller holds mu.
func (m *Manager) transition(to State) error {
	from := m.state.Get()
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	m.state.Set(to)
	m.log.Debugw("link_state_changed", "from", from.String(), "to", to.String())
	return nil
}

// readLoop runs once per connection until the handle fails or is closed
func (m *Manager) readLoop(ctx context.Context, conn io.ReadWriteCloser, done chan struct{}) {
	defer close(done)

	buf := make([]byte, m.bufSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			m.statsMu.Lock()
			frames := m.decoder.Feed(buf[:n])
			m.statsMu.Unlock()

			if !m.publish(ctx, frames) {
				return
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				// Disconnect closed the handle
				return
			}
			if errors.Is(err, io.EOF) {
				m.log.Warnw("link_closed_by_peer")
			} else {
				m.log.Errorw("link_read_failed", "err", err)
			}
			m.fail(conn, err)
			return
		}
	}
}

// publish updates the reading from status frames. It returns false once the
// connection has been cancelled; nothing is published after that point.
func (m *Manager) publish(ctx context.Context, frames []irrlink.Frame) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ctx.Err() != nil {
		return false
	}
	for _, f := range frames {
		if status, ok := f.(irrlink.StatusFrame); ok {
			m.reading.Set(status.Reading)
		}
		if m.onFrame != nil {
			m.onFrame(f)
		}
	}
	return true
}

// fail releases conn and publishes Failed if conn is still the live handle
func (m *Manager) fail(conn io.ReadWriteCloser, cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != conn {
		return
	}
	m.cancel()
	m.conn, m.cancel, m.done = nil, nil, nil
	if err := conn.Close(); err != nil {
		m.log.Debugw("link_close_failed", "err", err)
	}
	_ = m.transition(Failed)
	m.log.Warnw("link_failed", "err", cause)
}
