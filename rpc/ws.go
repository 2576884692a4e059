package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nhooyr.io/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPollInterval = 500 * time.Millisecond
	wsBatchLimit   = 256
)

// handleEventStream upgrades to a websocket, replays the journal from the
// requested cursor and then follows the head as new entries land. Entries
// use the same shape as events_after results.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	if s == nil || s.node == nil {
		http.Error(w, "node unavailable", http.StatusServiceUnavailable)
		return
	}
	cursor := uint64(0)
	if raw := strings.TrimSpace(r.URL.Query().Get("cursor")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid cursor", http.StatusBadRequest)
			return
		}
		cursor = parsed
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")

	// The stream never reads; CloseRead surfaces peer disconnects as
	// context cancellation.
	ctx := conn.CloseRead(r.Context())
	if err := s.streamEvents(ctx, conn, cursor); err != nil {
		if status := websocket.CloseStatus(err); status == -1 && !errors.Is(err, context.Canceled) {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (s *Server) streamEvents(ctx context.Context, conn *websocket.Conn, cursor uint64) error {
	ticker := time.NewTicker(wsPollInterval)
	defer ticker.Stop()
	for {
		entries, err := s.node.EventsAfter(cursor, wsBatchLimit)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := writeEventEntry(ctx, conn, eventResultFrom(entry)); err != nil {
				return err
			}
			cursor = entry.Seq
		}
		if len(entries) == wsBatchLimit {
			// A full batch means more backlog; drain before sleeping.
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func writeEventEntry(ctx context.Context, conn *websocket.Conn, payload eventResult) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
