// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irrlink

// SensorReading is the controller state reported by a status frame.
// The zero value is the reading before any status frame was received.
type SensorReading struct {
	Humidity        int  `json:"humidity"`
	Light           int  `json:"light"`
	PumpOn          bool `json:"pump_on"`
	DayIndex        int  `json:"day_index"`
	RainProbability int  `json:"rain_probability"`
}

// FrameKind identifies the variant of a decoded frame
type FrameKind int

const (
	KindUnknown FrameKind = iota
	KindStatus
)

// String returns the frame kind name
func (k FrameKind) String() string {
	switch k {
	case KindStatus:
		return "STATUS"
	default:
		return "UNKNOWN"
	}
}

// Frame is one decoded inbound line. It is either a StatusFrame or an UnknownFrame.
type Frame interface {
	Kind() FrameKind
	Line() string
}

// StatusFrame carries a sensor reading
type StatusFrame struct {
	Reading SensorReading
	Raw     string
}

// Kind implements Frame
func (f StatusFrame) Kind() FrameKind { return KindStatus }

// Line implements Frame
func (f StatusFrame) Line() string { return f.Raw }

// UnknownFrame is any non-empty line the host does not interpret.
// Reserved for future firmware messages.
type UnknownFrame struct {
	Raw string
}

// Kind implements Frame
func (f UnknownFrame) Kind() FrameKind { return KindUnknown }

// Line implements Frame
func (f UnknownFrame) Line() string { return f.Raw }
