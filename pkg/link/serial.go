// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"context"
	"fmt"
	"io"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the controller firmware's UART setting
const DefaultBaudRate = 9600

// SerialTransport opens serial ports. The device ID is the port name.
type SerialTransport struct {
	BaudRate int
}

// NewSerialTransport creates a serial transport, falling back to DefaultBaudRate
func NewSerialTransport(baudRate int) *SerialTransport {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	return &SerialTransport{BaudRate: baudRate}
}

// Open opens the serial port in 8N1 mode
func (t *SerialTransport) Open(ctx context.Context, portName string) (io.ReadWriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: t.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	return port, nil
}

// List returns the serial ports present on the system
func (t *SerialTransport) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

// Describe returns a human-readable description of the transport for deviceID
func (t *SerialTransport) Describe(portName string) string {
	return fmt.Sprintf("Serial: %s @ %d baud", portName, t.BaudRate)
}
