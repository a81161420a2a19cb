package service

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"reversion_bot/internal/modules/config"
	"reversion_bot/pkg/logger"
)

const (
	streamsPerConn = 200
	pingEvery      = 20 * time.Second
	readTimeout    = 3 * time.Minute
	redialDelay    = time.Second
)

// Stream keeps the Store current from the combined kline websocket.
type Stream struct {
	baseURL string
	dialer  *websocket.Dialer
	store   *Store
}

func NewStream(cfg *config.Config, store *Store) *Stream {
	return &Stream{
		baseURL: cfg.Binance.StreamURL,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		store:   store,
	}
}

// Run opens one connection per group of streams and blocks until ctx is done.
func (s *Stream) Run(ctx context.Context, symbols []string, interval string) {
	var wg sync.WaitGroup
	for i, group := range streamNames(symbols, interval, streamsPerConn) {
		wg.Add(1)
		go func(id int, names []string) {
			defer wg.Done()
			s.runConn(ctx, id, names)
		}(i, group)
	}
	wg.Wait()
}

func (s *Stream) endpoint(names []string) string {
	return s.baseURL + "?streams=" + url.PathEscape(strings.Join(names, "/"))
}

func (s *Stream) runConn(ctx context.Context, id int, names []string) {
	for {
		logger.Info("[WS] conn=%d connect %d streams", id, len(names))
		conn, _, err := s.dialer.DialContext(ctx, s.endpoint(names), nil)
		if err != nil {
			logger.Warn("[WS] conn=%d dial: %v", id, err)
			if !sleepCtx(ctx, redialDelay) {
				return
			}
			continue
		}

		s.readLoop(ctx, id, conn)

		if !sleepCtx(ctx, redialDelay) {
			return
		}
	}
}

func (s *Stream) readLoop(ctx context.Context, id int, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)

	go func() {
		t := time.NewTicker(pingEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-done:
				_ = conn.Close()
				return
			case <-t.C:
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			}
		}
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("[WS] conn=%d read: %v", id, err)
			}
			return
		}
		ev, err := ParseKline(msg)
		if err != nil {
			logger.Debug("[WS] conn=%d skip frame: %v", id, err)
			continue
		}
		s.store.Upsert(ev.Symbol, ev.Interval, ev.Candle)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
