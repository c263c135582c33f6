package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"mt5-guard/internal/errors"
	"mt5-guard/internal/models"
)

// Stream delivers live quotes from the bridge's websocket endpoint. It is
// optional; the guard works fine polling the REST quote endpoint.
type Stream struct {
	url    string
	logger zerolog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	onQuote   func(models.Quote)
	onError   func(error)
	connected bool
	closing   bool
}

// NewStream creates a quote stream against the given websocket URL.
func NewStream(url string, logger zerolog.Logger) *Stream {
	return &Stream{url: url, logger: logger}
}

type streamMessage struct {
	Op      string   `json:"op"`
	Symbols []string `json:"symbols,omitempty"`
}

type tickMessage struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	TimeMS int64   `json:"time_msc"`
}

// Connect dials the bridge and starts the read loop.
func (s *Stream) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return errors.Wrap(errors.ErrConnectionFailed, "dialing quote stream")
	}
	s.conn = conn
	s.connected = true
	s.closing = false

	go s.readLoop(conn)
	s.logger.Debug().Str("url", s.url).Msg("Quote stream connected")
	return nil
}

// Disconnect closes the stream.
func (s *Stream) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil
	}
	s.closing = true
	s.connected = false
	return s.conn.Close()
}

// Subscribe requests ticks for the given symbols.
func (s *Stream) Subscribe(symbols []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return errors.ErrConnectionFailed
	}
	return s.conn.WriteJSON(streamMessage{Op: "subscribe", Symbols: symbols})
}

// OnQuote registers the tick handler.
func (s *Stream) OnQuote(handler func(models.Quote)) {
	s.mu.Lock()
	s.onQuote = handler
	s.mu.Unlock()
}

// OnError registers the error handler.
func (s *Stream) OnError(handler func(error)) {
	s.mu.Lock()
	s.onError = handler
	s.mu.Unlock()
}

func (s *Stream) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			closing := s.closing
			s.connected = false
			handler := s.onError
			s.mu.Unlock()
			if !closing && handler != nil {
				handler(errors.Wrap(errors.ErrConnectionFailed, "quote stream read"))
			}
			return
		}

		var tick tickMessage
		if err := json.Unmarshal(data, &tick); err != nil || tick.Symbol == "" {
			continue
		}

		s.mu.Lock()
		handler := s.onQuote
		s.mu.Unlock()
		if handler != nil {
			handler(models.Quote{
				Symbol: tick.Symbol,
				Bid:    tick.Bid,
				Ask:    tick.Ask,
				Time:   time.UnixMilli(tick.TimeMS),
			})
		}
	}
}
