package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"sui-aptos-lab/internal/domain"
)

// DefaultBinanceStreamURL is the Binance combined-stream WebSocket endpoint.
const DefaultBinanceStreamURL = "wss://stream.binance.com:9443/stream"

// binanceSymbols maps ecosystems to Binance spot symbols.
var binanceSymbols = map[domain.Ecosystem]string{
	domain.EcosystemSui:   "SUIUSDT",
	domain.EcosystemAptos: "APTUSDT",
}

// Tick is one live price update for an ecosystem's native token.
type Tick struct {
	Ecosystem domain.Ecosystem
	Price     float64 // USD (USDT)
	Volume24h float64 // quote asset volume, USD
	Time      time.Time
}

// TickerConfig configures TickerSource connection behavior.
type TickerConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultTickerConfig returns default ticker connection configuration.
func DefaultTickerConfig() TickerConfig {
	return TickerConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       90 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// TickerSource streams live SUI/APT prices from Binance miniTicker
// WebSocket streams. It reconnects with exponential backoff on read
// errors until closed.
type TickerSource struct {
	endpoint string
	config   TickerConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	ticks chan Tick
	done  chan struct{}
	wg    sync.WaitGroup
}

// NewTickerSource connects to the combined miniTicker stream for both
// ecosystems and starts the read and ping loops.
func NewTickerSource(ctx context.Context, endpoint string, config *TickerConfig) (*TickerSource, error) {
	cfg := DefaultTickerConfig()
	if config != nil {
		cfg = *config
	}
	if endpoint == "" {
		endpoint = DefaultBinanceStreamURL
	}

	s := &TickerSource{
		endpoint: streamURL(endpoint),
		config:   cfg,
		ticks:    make(chan Tick, 100),
		done:     make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()

	s.wg.Add(1)
	go s.pingLoop()

	return s, nil
}

// streamURL appends the combined stream query for both symbols.
func streamURL(endpoint string) string {
	streams := make([]string, 0, len(binanceSymbols))
	for _, eco := range domain.Ecosystems() {
		streams = append(streams, strings.ToLower(binanceSymbols[eco])+"@miniTicker")
	}
	return endpoint + "?streams=" + strings.Join(streams, "/")
}

// Ticks returns the channel of live price updates. The channel is
// closed when the source is closed.
func (s *TickerSource) Ticks() <-chan Tick {
	return s.ticks
}

// connect establishes the WebSocket connection.
func (s *TickerSource) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	s.conn = conn
	return nil
}

// Close closes the connection and the tick channel.
func (s *TickerSource) Close() error {
	if s.closed.Swap(true) {
		return nil // Already closed
	}

	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	close(s.ticks)
	return nil
}

// readLoop reads stream messages and dispatches ticks, reconnecting
// with exponential backoff on errors.
func (s *TickerSource) readLoop() {
	defer s.wg.Done()

	reconnectDelay := s.config.ReconnectDelay

	for !s.closed.Load() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			if !s.reconnect(reconnectDelay) {
				return
			}
			reconnectDelay = nextDelay(reconnectDelay, s.config.MaxReconnectDelay)
			continue
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}

			s.connMu.Lock()
			if s.conn != nil {
				s.conn.Close()
				s.conn = nil
			}
			s.connMu.Unlock()

			if !s.reconnect(reconnectDelay) {
				return
			}
			reconnectDelay = nextDelay(reconnectDelay, s.config.MaxReconnectDelay)
			continue
		}

		// Reset delay on successful read
		reconnectDelay = s.config.ReconnectDelay

		s.handleMessage(message)
	}
}

func nextDelay(d, max time.Duration) time.Duration {
	d *= 2
	if d > max {
		return max
	}
	return d
}

// reconnect waits and redials. Returns false when the source is closed.
func (s *TickerSource) reconnect(delay time.Duration) bool {
	select {
	case <-s.done:
		return false
	case <-time.After(delay):
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Failure leaves conn nil; the read loop retries with a longer delay.
	s.connect(ctx)
	return true
}

// streamMessage is one combined-stream envelope.
type streamMessage struct {
	Stream string         `json:"stream"`
	Data   miniTickerData `json:"data"`
}

// miniTickerData is the Binance 24hr miniTicker payload.
type miniTickerData struct {
	EventType   string `json:"e"`
	EventTimeMS int64  `json:"E"`
	Symbol      string `json:"s"`
	ClosePrice  string `json:"c"`
	QuoteVolume string `json:"q"`
}

// handleMessage parses a stream message and emits a tick.
func (s *TickerSource) handleMessage(message []byte) {
	var msg streamMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}
	if msg.Data.EventType != "24hrMiniTicker" {
		return
	}

	eco, ok := ecosystemForSymbol(msg.Data.Symbol)
	if !ok {
		return
	}

	price, err := strconv.ParseFloat(msg.Data.ClosePrice, 64)
	if err != nil || price <= 0 {
		return
	}
	volume, _ := strconv.ParseFloat(msg.Data.QuoteVolume, 64)

	tick := Tick{
		Ecosystem: eco,
		Price:     price,
		Volume24h: volume,
		Time:      time.UnixMilli(msg.Data.EventTimeMS).UTC(),
	}

	select {
	case s.ticks <- tick:
	case <-s.done:
	}
}

func ecosystemForSymbol(symbol string) (domain.Ecosystem, bool) {
	for eco, sym := range binanceSymbols {
		if sym == symbol {
			return eco, true
		}
	}
	return "", false
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (s *TickerSource) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				s.conn.WriteMessage(websocket.PingMessage, nil)
			}
			s.connMu.Unlock()
		}
	}
}
