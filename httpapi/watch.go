package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	watchBuffer       = 8
	watchWriteTimeout = 5 * time.Second
)

// handleWatch streams a JSON snapshot on every session change until the peer
// disconnects or the Manager closes.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.origins,
	})
	if err != nil {
		s.logger.DebugContext(r.Context(), "watch upgrade failed", slog.String("err", err.Error()))
		return
	}
	defer func() { _ = conn.CloseNow() }()

	// The client never sends; CloseRead handles control frames and cancels
	// ctx once the peer goes away.
	ctx := conn.CloseRead(r.Context())

	snapshots, cancel := s.manager.Watch(watchBuffer)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "session closed")
				return
			}
			wctx, done := context.WithTimeout(ctx, watchWriteTimeout)
			err := wsjson.Write(wctx, conn, snap)
			done()
			if err != nil {
				s.logger.DebugContext(ctx, "watch write failed",
					slog.String("err", err.Error()),
					slog.Int("close_status", int(websocket.CloseStatus(err))))
				return
			}
		}
	}
}
