package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"nhooyr.io/websocket"

	"curiochain/observability/metrics"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPollInterval = 500 * time.Millisecond
	wsBatchLimit   = 256
)

// handleEventStream upgrades to a websocket and replays the journal from
// the requested cursor, then follows the head. A client that cannot keep
// up with the write timeout is disconnected rather than buffered.
func (g *Gateway) handleEventStream(w http.ResponseWriter, r *http.Request) {
	cursor := uint64(0)
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid cursor")
			return
		}
		cursor = parsed
	}
	patterns := g.cfg.AllowedOrigins
	if len(patterns) == 0 {
		patterns = []string{"*"}
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: patterns})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")

	metrics.Gateway().SessionOpened()
	defer metrics.Gateway().SessionClosed()

	// The stream never reads; CloseRead surfaces peer disconnects as
	// context cancellation.
	ctx := conn.CloseRead(r.Context())
	if err := g.streamEvents(ctx, conn, cursor); err != nil {
		if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (g *Gateway) streamEvents(ctx context.Context, conn *websocket.Conn, cursor uint64) error {
	ticker := time.NewTicker(wsPollInterval)
	defer ticker.Stop()
	for {
		entries, err := g.node.EventsAfter(cursor, wsBatchLimit)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := writeEvent(ctx, conn, eventJSON(entry)); err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					metrics.Gateway().SessionDroppedSlow()
					_ = conn.Close(websocket.StatusPolicyViolation, "client too slow")
				}
				return err
			}
			cursor = entry.Seq
			metrics.Gateway().EventDelivered()
		}
		// A full batch means there is backlog left; drain it before
		// going back to sleep.
		if len(entries) == wsBatchLimit {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
