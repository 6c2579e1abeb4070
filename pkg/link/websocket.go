// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = errors.New("websocket connection closed")

// WebSocketTransport dials a WebSocket bridge in front of the controller.
// The device ID is the ws:// or wss:// URL.
type WebSocketTransport struct {
	Username         string
	Password         string
	SkipSSLVerify    bool
	HandshakeTimeout time.Duration
}

// Open dials the URL with optional HTTP Basic auth
func (t *WebSocketTransport) Open(ctx context.Context, wsURL string) (io.ReadWriteCloser, error) {
	// Parse and validate URL
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	timeout := t.HandshakeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: timeout,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: t.SkipSSLVerify,
		}
	}

	headers := http.Header{}
	if t.Username != "" && t.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(t.Username + ":" + t.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return &WebSocketConn{conn: conn}, nil
}

// Describe returns a human-readable description of the transport for deviceID
func (t *WebSocketTransport) Describe(wsURL string) string {
	return fmt.Sprintf("WebSocket: %s", wsURL)
}

// WebSocketConn adapts a WebSocket to a byte stream.
// Text and binary messages are both read as stream bytes; writes are text messages.
type WebSocketConn struct {
	conn      *websocket.Conn
	buf       []byte
	bufOffset int
	closed    bool
}

// NewWebSocketConn wraps an established WebSocket
func NewWebSocketConn(conn *websocket.Conn) *WebSocketConn {
	return &WebSocketConn{conn: conn}
}

func (w *WebSocketConn) Read(p []byte) (int, error) {
	if w.closed {
		return 0, ErrConnectionClosed
	}

	// Buffered data first
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed = true
			return 0, err
		}

		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		if len(data) == 0 {
			continue
		}

		w.buf = data
		w.bufOffset = 0
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

func (w *WebSocketConn) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketConn) Close() error {
	return w.conn.Close()
}
