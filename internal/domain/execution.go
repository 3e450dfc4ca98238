package domain

import (
	"context"
	"time"
)

// ExecStatus is the outcome of one proposal's two-leg protocol.
type ExecStatus string

const (
	ExecFilled    ExecStatus = "filled"
	ExecFailed    ExecStatus = "failed"
	ExecFlattened ExecStatus = "flattened"
	// ExecUnknown marks executions whose failing leg timed out waiting for
	// confirmation; the position may or may not exist on the venue.
	ExecUnknown ExecStatus = "unknown"
)

// ExecutionRecord is the append-only journal entry for one trade proposal's
// outcome. It is observability output, not position state.
type ExecutionRecord struct {
	ID          string
	ProposalID  string
	KRXCode     string
	NXTCode     string
	BuyVenue    Venue
	SellVenue   Venue
	Qty         int
	Status      ExecStatus
	FailedLeg   Side
	Error       string
	StartedAt   time.Time
	CompletedAt time.Time
}

// ExecutionJournal persists execution records. Implementations must not
// block the trading pipeline on persistence failures beyond returning an
// error the caller is free to log and drop.
type ExecutionJournal interface {
	Record(ctx context.Context, rec ExecutionRecord) error
}

// EventBus publishes best-effort JSON events for external consumers.
// Publish failures are logged at the call site and never propagate into the
// pipeline.
type EventBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}
