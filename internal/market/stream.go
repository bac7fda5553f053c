package market

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/betbot/tradedesk/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Streamer pushes the full ticker list to websocket clients on a fixed interval.
type Streamer struct {
	svc      *Service
	interval time.Duration
	upgrader websocket.Upgrader
}

func NewStreamer(svc *Service, interval time.Duration) *Streamer {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Streamer{
		svc:      svc,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (s *Streamer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debugf("market stream: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// 读循环只用于感知断开和处理 pong
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	push := time.NewTicker(s.interval)
	defer push.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if !s.pushOnce(ctx, conn) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case <-push.C:
			if !s.pushOnce(ctx, conn) {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (s *Streamer) pushOnce(ctx context.Context, conn *websocket.Conn) bool {
	tickers, err := s.svc.All(ctx)
	if err != nil {
		logger.Warnf("market stream: quote failed: %v", err)
		// 行情源暂时不可用时保持连接，下个周期重试
		return true
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(tickers); err != nil {
		logger.Debugf("market stream: client gone: %v", err)
		return false
	}
	return true
}
