package broker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jaydog12322/Anatta/internal/domain"
)

// Submission is one order accepted by the paper broker.
type Submission struct {
	Code string
	Side domain.Side
	Qty  int
}

// PaperBroker is an in-process domain.OrderTransport that confirms every
// submission immediately. It backs paper mode, where the live quote feed
// drives the pipeline without touching the brokerage session.
type PaperBroker struct {
	mu        sync.Mutex
	submitted []Submission
	events    chan domain.OrderEvent
	logger    *slog.Logger
}

// NewPaperBroker creates a paper broker.
func NewPaperBroker(logger *slog.Logger) *PaperBroker {
	return &PaperBroker{
		events: make(chan domain.OrderEvent, 64),
		logger: logger.With(slog.String("component", "paper_broker")),
	}
}

// Submit accepts every order and queues an immediate fill event.
func (b *PaperBroker) Submit(ctx context.Context, code string, side domain.Side, qty int) error {
	b.mu.Lock()
	b.submitted = append(b.submitted, Submission{Code: code, Side: side, Qty: qty})
	b.mu.Unlock()

	b.logger.Info("paper order filled",
		slog.String("code", code),
		slog.String("side", string(side)),
		slog.Int("qty", qty),
	)
	select {
	case b.events <- domain.OrderEvent{Code: code, Status: domain.OrderStatusFilled}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns the fill event stream.
func (b *PaperBroker) Events() <-chan domain.OrderEvent { return b.events }

// Submissions returns a copy of every accepted order in submission order.
func (b *PaperBroker) Submissions() []Submission {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Submission, len(b.submitted))
	copy(out, b.submitted)
	return out
}

var _ domain.OrderTransport = (*PaperBroker)(nil)
