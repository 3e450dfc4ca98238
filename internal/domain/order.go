package domain

import "context"

// Side is the direction of an order leg.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderStatus is the terminal state reported by the transport for a
// submitted order.
type OrderStatus string

const (
	OrderStatusFilled   OrderStatus = "filled"
	OrderStatusRejected OrderStatus = "rejected"
)

// OrderEvent is the transport's asynchronous fill/rejection report,
// correlated to an outbound order by venue-native instrument code. Events are
// transient; the executor consumes them only inside its confirmation window.
type OrderEvent struct {
	Code   string
	Status OrderStatus
	Err    string
}

// OrderTransport is the order-submission boundary. Submit sends a market
// order and returns an error when the venue rejects it outright; fills and
// asynchronous rejections arrive on Events, correlated by instrument code.
type OrderTransport interface {
	Submit(ctx context.Context, code string, side Side, qty int) error
	Events() <-chan OrderEvent
}
