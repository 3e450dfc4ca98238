// Package feed connects to the brokerage bridge's quote websocket and
// normalizes raw tick messages into domain.Quote values, one at a time and
// in arrival order.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jaydog12322/Anatta/internal/domain"
	"github.com/jaydog12322/Anatta/internal/registry"
)

const (
	handshakeTimeout = 15 * time.Second
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	reconnectDelay   = 2 * time.Second
)

// tickMessage is the JSON shape the bridge pushes for each real-time quote.
// Prices arrive as strings because the upstream API reports them with a
// leading direction sign.
type tickMessage struct {
	Type string `json:"type"`
	Code string `json:"code"`
	Bid  string `json:"bid"`
	Ask  string `json:"ask"`
}

// subscribeCommand asks the bridge to register real-time quotes for a set of
// venue-native codes.
type subscribeCommand struct {
	Type  string   `json:"type"`
	Codes []string `json:"codes"`
}

// WSFeed subscribes both venue codes of every registered instrument and
// emits normalized quotes on a channel. It reconnects with a fixed delay on
// disconnect and resubscribes.
type WSFeed struct {
	wsURL  string
	reg    *registry.Registry
	quotes chan domain.Quote
	logger *slog.Logger
}

// NewWSFeed creates a feed for every instrument in reg.
func NewWSFeed(wsURL string, reg *registry.Registry, logger *slog.Logger) *WSFeed {
	return &WSFeed{
		wsURL:  wsURL,
		reg:    reg,
		quotes: make(chan domain.Quote, 256),
		logger: logger.With(slog.String("component", "quote_feed")),
	}
}

// Quotes returns the normalized quote stream. The channel is closed when Run
// returns.
func (f *WSFeed) Quotes() <-chan domain.Quote { return f.quotes }

// Run connects, subscribes, and pumps quotes until ctx is cancelled.
func (f *WSFeed) Run(ctx context.Context) error {
	defer close(f.quotes)

	if f.reg.Len() == 0 {
		f.logger.Info("no instruments to subscribe, feed exiting")
		return nil
	}
	for {
		err := f.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Warn("quote feed disconnected, reconnecting",
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (f *WSFeed) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("feed: connect %s: %w", f.wsURL, err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	if err := f.subscribe(conn); err != nil {
		return err
	}
	f.logger.Info("quote feed subscribed", slog.Int("instruments", f.reg.Len()))

	// Close the connection when ctx is cancelled so ReadJSON unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				conn.Close()
				return
			case <-done:
				return
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("feed: read: %w", domain.ErrWSDisconnect)
		}
		f.handleMessage(ctx, data)
	}
}

func (f *WSFeed) subscribe(conn *websocket.Conn) error {
	codes := make([]string, 0, 2*f.reg.Len())
	for _, inst := range f.reg.All() {
		codes = append(codes, inst.KRXCode, inst.NXTCode)
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(subscribeCommand{Type: "subscribe", Codes: codes}); err != nil {
		return fmt.Errorf("feed: subscribe: %w", err)
	}
	return nil
}

func (f *WSFeed) handleMessage(ctx context.Context, data []byte) {
	var msg tickMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		f.logger.Debug("dropping unparseable feed message",
			slog.Int("payload_len", len(data)),
			slog.String("error", err.Error()),
		)
		return
	}
	if msg.Type != "" && msg.Type != "tick" {
		return
	}
	inst, venue, ok := f.reg.ByCode(strings.TrimSpace(msg.Code))
	if !ok {
		return
	}
	q := domain.Quote{
		Instrument: inst,
		Venue:      venue,
		Bid:        parsePrice(msg.Bid),
		Ask:        parsePrice(msg.Ask),
		Timestamp:  time.Now(),
	}
	select {
	case f.quotes <- q:
	case <-ctx.Done():
	}
}

// parsePrice normalizes an upstream price string. The bridge prefixes a
// direction sign, so the magnitude is taken; malformed values become 0.0
// rather than an error.
func parsePrice(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0.0
	}
	return math.Abs(v)
}
