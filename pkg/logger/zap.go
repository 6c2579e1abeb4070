// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

// defaultZapLevel defines the fallback log level when an unknown level string is provided.
const defaultZapLevel = zapcore.DebugLevel

// toZapLevel converts a textual level to zapcore.Level using known level constants.
func toZapLevel(levelStr string) zapcore.Level {
	switch levelStr {
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return defaultZapLevel
	}
}

// newConsoleCore builds a zapcore.Core with a console encoder.
// Logs go to stderr so they never interleave with command output on stdout.
func newConsoleCore(level zapcore.Level, w io.Writer) zapcore.Core {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder

	encoder := zapcore.NewConsoleEncoder(cfg)
	ws := zapcore.Lock(zapcore.AddSync(w))
	return zapcore.NewCore(encoder, ws, zap.NewAtomicLevelAt(level))
}

// newZapLogger constructs a sugared zap logger with the provided level string.
func newZapLogger(levelStr string) *Logger {
	return New(levelStr, os.Stderr)
}

// New constructs a non-singleton logger writing to w.
func New(levelStr string, w io.Writer) *Logger {
	core := newConsoleCore(toZapLevel(levelStr), w)
	return &Logger{
		SugaredLogger: zap.New(core).Sugar(),
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// Named returns a child logger with the given name segment.
func (l *Logger) Named(name string) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.Named(name)}
}
