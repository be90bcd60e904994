// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tejzpr/sweety-vault/internal/auth"
	"github.com/tejzpr/sweety-vault/internal/controller"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// The stream is one-way; clients only send control frames.
	maxMessageSize = 4 * 1024
)

// handleEvents streams workspace events over a WebSocket. The first message
// is always the current state.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.workspace(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	logger := s.logger.With(
		zap.String("user_id", userID),
		zap.String("connection_id", uuid.NewString()),
	)
	logger.Debug("event stream opened")

	events, cancel := ctrl.Subscribe()
	defer cancel()
	defer conn.Close()

	done := make(chan struct{})
	go readPump(conn, done, logger)
	writePump(conn, ctrl.View(), events, done, logger)

	logger.Debug("event stream closed")
}

// readPump discards client frames and closes done when the peer goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}, logger *zap.Logger) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func writePump(conn *websocket.Conn, initial controller.View, events <-chan controller.Event, done <-chan struct{}, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(controller.Event{Type: controller.EventState, View: &initial}); err != nil {
		logger.Debug("failed to write initial state", zap.Error(err))
		return
	}

	for {
		select {
		case ev, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Workspace dropped, usually by sign-out.
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "workspace closed"))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				logger.Debug("failed to write event", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
