// Package risk bounds per-instrument trade frequency within a session.
package risk

import (
	"log/slog"
	"sync"

	"github.com/jaydog12322/Anatta/internal/domain"
)

// DefaultMaxTrips is the per-instrument cap applied when no explicit cap is
// configured.
const DefaultMaxTrips = 20

// Gate is a stateful per-instrument trip counter. Every Approve call counts
// against the cap, approved or not, so repeated rejected attempts keep
// consuming budget until the next session reset. Safe for concurrent use.
type Gate struct {
	mu       sync.Mutex
	counts   map[string]int
	maxTrips int
	logger   *slog.Logger
}

// NewGate creates a Gate with the given per-instrument cap. A non-positive
// cap falls back to DefaultMaxTrips.
func NewGate(maxTrips int, logger *slog.Logger) *Gate {
	if maxTrips <= 0 {
		maxTrips = DefaultMaxTrips
	}
	return &Gate{
		counts:   make(map[string]int),
		maxTrips: maxTrips,
		logger:   logger.With(slog.String("component", "risk_gate")),
	}
}

// Approve increments the counter keyed by the proposal's KRX code and
// approves while the post-increment count stays within the cap. The
// read-increment-compare sequence is serialized under the gate's lock.
func (g *Gate) Approve(p domain.TradeProposal) bool {
	key := p.Instrument.KRXCode

	g.mu.Lock()
	g.counts[key]++
	count := g.counts[key]
	g.mu.Unlock()

	approved := count <= g.maxTrips
	if !approved {
		g.logger.Warn("proposal rejected, trip cap exceeded",
			slog.String("krx_code", key),
			slog.Int("count", count),
			slog.Int("max_trips", g.maxTrips),
		)
	}
	return approved
}

// Count returns the current trip count for a KRX code.
func (g *Gate) Count(krxCode string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counts[krxCode]
}

// ResetCounts clears all counters. Idempotent; called by the session
// scheduler at the start of each trading day.
func (g *Gate) ResetCounts() {
	g.mu.Lock()
	g.counts = make(map[string]int)
	g.mu.Unlock()
	g.logger.Info("risk counters reset")
}
