// Package broker implements the order-submission transport against the
// brokerage bridge: market-order submission over a websocket session and the
// asynchronous fill/rejection event stream the executor confirms against.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jaydog12322/Anatta/internal/domain"
)

const (
	handshakeTimeout = 15 * time.Second
	writeWait        = 10 * time.Second
	reconnectDelay   = 2 * time.Second
)

// orderMessage is the JSON order request the bridge accepts.
type orderMessage struct {
	Type      string `json:"type"`
	Code      string `json:"code"`
	Side      string `json:"side"`
	Qty       int    `json:"qty"`
	OrderType string `json:"order_type"`
}

// eventMessage is the JSON fill/rejection report the bridge pushes back,
// correlated by venue-native instrument code.
type eventMessage struct {
	Type   string `json:"type"`
	Code   string `json:"code"`
	Status string `json:"status"`
	Err    string `json:"error"`
}

// WSBroker is the live domain.OrderTransport. Run maintains the session and
// pumps bridge reports into the event channel; Submit writes one market
// order on the current connection and fails when no session is up.
type WSBroker struct {
	wsURL  string
	logger *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn

	events chan domain.OrderEvent
}

// NewWSBroker creates a broker for the given bridge endpoint.
func NewWSBroker(wsURL string, logger *slog.Logger) *WSBroker {
	return &WSBroker{
		wsURL:  wsURL,
		logger: logger.With(slog.String("component", "order_broker")),
		events: make(chan domain.OrderEvent, 64),
	}
}

// Events returns the fill/rejection event stream.
func (b *WSBroker) Events() <-chan domain.OrderEvent { return b.events }

// Submit sends one market order. A write failure or missing session is a
// submission rejection; fills arrive later on Events.
func (b *WSBroker) Submit(ctx context.Context, code string, side domain.Side, qty int) error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("broker: no active session: %w", domain.ErrWSDisconnect)
	}

	msg := orderMessage{
		Type:      "order",
		Code:      code,
		Side:      string(side),
		Qty:       qty,
		OrderType: "MARKET",
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("broker: submit %s %s: %w", side, code, err)
	}
	b.logger.Info("order submitted",
		slog.String("code", code),
		slog.String("side", string(side)),
		slog.Int("qty", qty),
	)
	return nil
}

// Run maintains the bridge session until ctx is cancelled, reconnecting with
// a fixed delay. The event channel stays open across reconnects; in-flight
// confirmations during an outage surface as executor timeouts.
func (b *WSBroker) Run(ctx context.Context) error {
	defer close(b.events)
	for {
		err := b.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.logger.Warn("broker session lost, reconnecting",
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (b *WSBroker) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, b.wsURL, nil)
	if err != nil {
		return fmt.Errorf("broker: connect %s: %w", b.wsURL, err)
	}

	b.mu.Lock()
	b.conn = conn
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.conn = nil
		b.mu.Unlock()
		conn.Close()
	}()
	b.logger.Info("broker session established")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("broker: read: %w", domain.ErrWSDisconnect)
		}
		b.handleMessage(ctx, data)
	}
}

func (b *WSBroker) handleMessage(ctx context.Context, data []byte) {
	var msg eventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		b.logger.Debug("dropping unparseable broker message",
			slog.Int("payload_len", len(data)),
			slog.String("error", err.Error()),
		)
		return
	}
	if msg.Type != "" && msg.Type != "execution" {
		return
	}
	status := domain.OrderStatusFilled
	if msg.Status == string(domain.OrderStatusRejected) || msg.Err != "" {
		status = domain.OrderStatusRejected
	}
	ev := domain.OrderEvent{Code: msg.Code, Status: status, Err: msg.Err}
	select {
	case b.events <- ev:
	case <-ctx.Done():
	}
}

var _ domain.OrderTransport = (*WSBroker)(nil)
