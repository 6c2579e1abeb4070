// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package api

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	maxHeaderBytes    = 1 << 20
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

// Server wraps an *http.Server with a start/shutdown lifecycle
type Server struct {
	httpServer *http.Server
}

// NewServer creates a server for handler on addr ("8080" or ":8080").
// There is no write timeout since /ws streams are long lived.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{httpServer: &http.Server{
		Addr:              NormalizeAddr(addr),
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}}
}

// NormalizeAddr turns a bare port into a listen address
func NormalizeAddr(addr string) string {
	if addr == "" || strings.Contains(addr, ":") {
		return addr
	}
	return ":" + addr
}

// Run serves until Shutdown. It returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, letting in-flight requests complete
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
