// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12
)

// wsEnvelope wraps every message on the reading stream
type wsEnvelope struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsReadings streams the current reading and every new one
func (h *Handler) wsReadings(c *gin.Context) {
	if h.link == nil {
		h.jsonError(c, http.StatusServiceUnavailable, "no device link", "", nil)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorw("ws_upgrade_failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.startReader(conn, done)

	readings, cancel := h.link.WatchReadings(8)
	defer cancel()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.log.Infow("ws_ping_failed", "err", err)
				return
			}
		case r, ok := <-readings:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteJSON(wsEnvelope{Type: "closed"})
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(wsEnvelope{Type: "reading", Data: r}); err != nil {
				h.log.Infow("ws_write_failed", "err", err)
				return
			}
		}
	}
}

// startReader drains incoming messages to handle control frames and detect closure
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.log.Debugw("ws_read_closed", "err", err)
			return
		}
	}
}
