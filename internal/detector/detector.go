// Package detector maintains the per-instrument quote book and emits trade
// proposals when a cross-venue spread clears fees plus a safety buffer.
package detector

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/jaydog12322/Anatta/internal/domain"
)

// Config holds the detector's spread threshold parameters. Both are
// non-negative fractions of price; the effective threshold is their sum.
type Config struct {
	Fees   float64
	Buffer float64
}

// DefaultConfig returns the production threshold parameters.
func DefaultConfig() Config {
	return Config{Fees: 0.00035, Buffer: 0.0001}
}

// Detector consumes quote events, updates the quote book, and evaluates both
// cross-venue spread directions. It never blocks and never raises for
// business conditions; no signal is simply an empty proposal list.
type Detector struct {
	cfg    Config
	book   *QuoteBook
	logger *slog.Logger
}

// New creates a Detector with an empty quote book. Thresholds are immutable
// for the detector's lifetime.
func New(cfg Config, logger *slog.Logger) *Detector {
	return &Detector{
		cfg:    cfg,
		book:   NewQuoteBook(),
		logger: logger.With(slog.String("component", "spread_detector")),
	}
}

// Book exposes the quote book for read-only inspection.
func (d *Detector) Book() *QuoteBook { return d.book }

// Threshold returns the configured fees+buffer threshold.
func (d *Detector) Threshold() float64 { return d.cfg.Fees + d.cfg.Buffer }

// OnQuote stores q and returns zero, one, or two trade proposals, the
// KRX-buy direction first. An instrument becomes tradeable only once both of
// its venues have reported at least one quote.
func (d *Detector) OnQuote(q domain.Quote) []domain.TradeProposal {
	d.book.Put(q)

	krx, ok := d.book.Get(q.Instrument, domain.VenueKRX)
	if !ok {
		return nil
	}
	nxt, ok := d.book.Get(q.Instrument, domain.VenueNXT)
	if !ok {
		return nil
	}

	threshold := d.Threshold()
	var proposals []domain.TradeProposal

	// Buy on KRX at its ask, sell on NXT at its bid.
	if spread, ok := spread(nxt.Bid, krx.Ask); ok && spread > threshold {
		proposals = append(proposals, d.propose(q.Instrument, domain.VenueKRX, spread))
	}
	// Buy on NXT at its ask, sell on KRX at its bid.
	if spread, ok := spread(krx.Bid, nxt.Ask); ok && spread > threshold {
		proposals = append(proposals, d.propose(q.Instrument, domain.VenueNXT, spread))
	}
	return proposals
}

// spread computes (sellBid - buyAsk) / buyAsk. A zero buy ask is degenerate
// input, reported as no signal rather than an infinite spread.
func spread(sellBid, buyAsk float64) (float64, bool) {
	if buyAsk <= 0 {
		return 0, false
	}
	return (sellBid - buyAsk) / buyAsk, true
}

func (d *Detector) propose(inst domain.Instrument, buy domain.Venue, spread float64) domain.TradeProposal {
	p := domain.TradeProposal{
		ID:         uuid.New().String(),
		Instrument: inst,
		BuyVenue:   buy,
		SellVenue:  buy.Other(),
		Qty:        1,
	}
	d.logger.Debug("spread crossed threshold",
		slog.String("krx_code", inst.KRXCode),
		slog.String("buy_venue", string(buy)),
		slog.Float64("spread", spread),
		slog.Float64("threshold", d.Threshold()),
	)
	return p
}
