package domain

import "time"

// Quote is a normalized best bid/ask update for one venue of an instrument.
// Quotes are immutable values; a newer quote for the same (instrument, venue)
// key supersedes the previous one. Upstream feeds substitute 0.0 for
// malformed numeric fields rather than surfacing an error.
type Quote struct {
	Instrument Instrument
	Venue      Venue
	Bid        float64
	Ask        float64
	Timestamp  time.Time
}

// TradeProposal is a candidate arbitrage action emitted by the spread
// detector: buy on BuyVenue, sell on SellVenue, both venues of the same
// instrument. Consumed exactly once by the risk gate and, if approved,
// exactly once by the executor.
type TradeProposal struct {
	ID         string
	Instrument Instrument
	BuyVenue   Venue
	SellVenue  Venue
	Qty        int
}

// BuyCode returns the venue-native code for the buy leg.
func (p TradeProposal) BuyCode() string { return p.Instrument.Code(p.BuyVenue) }

// SellCode returns the venue-native code for the sell leg.
func (p TradeProposal) SellCode() string { return p.Instrument.Code(p.SellVenue) }
