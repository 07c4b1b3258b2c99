package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"dex-markets/internal/domain"
)

const streamWriteTimeout = 10 * time.Second

// streamMessage is one push on /ws/markets.
type streamMessage struct {
	Markets []domain.Market `json:"markets,omitempty"`
	Error   string          `json:"error,omitempty"`
	At      int64           `json:"at"`
}

// handleStream pushes a freshly built market list on connect and then every
// stream interval until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	s.metrics.StreamOpened()
	defer s.metrics.StreamClosed()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The reader only watches for the close frame.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	for {
		if err := s.push(ctx, conn); err != nil {
			s.logger.Debug("stream closed", zap.Error(err))
			return
		}
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) push(ctx context.Context, conn *websocket.Conn) error {
	msg := streamMessage{At: time.Now().Unix()}
	markets, err := s.svc.MarketsList(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("stream market list", zap.Error(err))
		msg.Error = err.Error()
	} else {
		msg.Markets = markets
	}

	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		return err
	}
	s.metrics.StreamPushed()
	return nil
}
