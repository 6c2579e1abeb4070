// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package logger provides the structured logger shared by irrigator packages.
package logger

import (
	"sync"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var (
	// globalLogger holds the singleton logger instance.
	globalLogger *Logger
	once         sync.Once
)

// Get returns a singleton logger configured with the provided level.
// The first call initializes the logger; subsequent calls ignore the level
// and return the already initialized instance.
func Get(level string) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(level)
	})
	return globalLogger
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}
