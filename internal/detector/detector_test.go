package detector

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaydog12322/Anatta/internal/domain"
)

var testInst = domain.Instrument{KRXCode: "X1", NXTCode: "X2", Name: "Test Corp"}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func quote(v domain.Venue, bid, ask float64) domain.Quote {
	return domain.Quote{Instrument: testInst, Venue: v, Bid: bid, Ask: ask}
}

func TestOneSidedBookNoProposals(t *testing.T) {
	d := New(DefaultConfig(), testLogger())

	got := d.OnQuote(quote(domain.VenueKRX, 99.5, 100.0))
	assert.Empty(t, got, "single venue must never produce a proposal")

	// Same venue again still leaves the book one-sided.
	got = d.OnQuote(quote(domain.VenueKRX, 99.6, 100.1))
	assert.Empty(t, got)
}

func TestKRXBuyDirection(t *testing.T) {
	// spread = (101.0 - 100.0) / 100.0 = 0.01 > 0.00045
	d := New(DefaultConfig(), testLogger())
	d.OnQuote(quote(domain.VenueKRX, 99.5, 100.0))
	got := d.OnQuote(quote(domain.VenueNXT, 101.0, 101.5))

	require.Len(t, got, 1)
	p := got[0]
	assert.Equal(t, domain.VenueKRX, p.BuyVenue)
	assert.Equal(t, domain.VenueNXT, p.SellVenue)
	assert.Equal(t, 1, p.Qty)
	assert.Equal(t, "X1", p.BuyCode())
	assert.Equal(t, "X2", p.SellCode())
	assert.NotEmpty(t, p.ID)
}

func TestNXTBuyDirection(t *testing.T) {
	// spread = (101.0 - 100.0) / 100.0 = 0.01 buying NXT.
	d := New(DefaultConfig(), testLogger())
	d.OnQuote(quote(domain.VenueNXT, 99.5, 100.0))
	got := d.OnQuote(quote(domain.VenueKRX, 101.0, 101.5))

	require.Len(t, got, 1)
	assert.Equal(t, domain.VenueNXT, got[0].BuyVenue)
	assert.Equal(t, domain.VenueKRX, got[0].SellVenue)
}

func TestBothDirectionsFire(t *testing.T) {
	// Crossed books on both venues: each venue's bid clears the other's ask.
	d := New(DefaultConfig(), testLogger())
	d.OnQuote(quote(domain.VenueKRX, 102.0, 100.0))
	got := d.OnQuote(quote(domain.VenueNXT, 102.0, 100.0))

	require.Len(t, got, 2)
	// KRX-buy direction is evaluated first.
	assert.Equal(t, domain.VenueKRX, got[0].BuyVenue)
	assert.Equal(t, domain.VenueNXT, got[1].BuyVenue)
}

func TestThresholdIsStrict(t *testing.T) {
	cfg := Config{Fees: 0.00035, Buffer: 0.0001}
	d := New(cfg, testLogger())
	d.OnQuote(quote(domain.VenueKRX, 0, 100000))
	// Spread exactly at threshold: (100045 - 100000) / 100000 = 0.00045.
	got := d.OnQuote(quote(domain.VenueNXT, 100045, 200000))
	assert.Empty(t, got, "spread equal to threshold must not fire")

	got = d.OnQuote(quote(domain.VenueNXT, 100046, 200000))
	require.Len(t, got, 1)
}

func TestZeroAskGuard(t *testing.T) {
	d := New(DefaultConfig(), testLogger())
	// KRX ask is zero (malformed upstream normalized to 0): the KRX-buy
	// direction must be skipped, not divided through.
	d.OnQuote(quote(domain.VenueKRX, 99.5, 0))
	got := d.OnQuote(quote(domain.VenueNXT, 101.0, 101.5))
	assert.Empty(t, got)

	// Both asks zero: nothing fires in either direction.
	d2 := New(DefaultConfig(), testLogger())
	d2.OnQuote(quote(domain.VenueKRX, 99.5, 0))
	got = d2.OnQuote(quote(domain.VenueNXT, 101.0, 0))
	assert.Empty(t, got)
}

func TestLatestQuoteWins(t *testing.T) {
	d := New(DefaultConfig(), testLogger())
	d.OnQuote(quote(domain.VenueNXT, 101.0, 101.5))

	// First KRX quote fires; a worse replacement stops it.
	got := d.OnQuote(quote(domain.VenueKRX, 99.5, 100.0))
	require.Len(t, got, 1)

	got = d.OnQuote(quote(domain.VenueKRX, 99.5, 101.2))
	assert.Empty(t, got, "superseded quote must not be used")
	assert.Equal(t, 2, d.Book().Len())
}

func TestBookKeyedPerInstrument(t *testing.T) {
	other := domain.Instrument{KRXCode: "Y1", NXTCode: "Y2", Name: "Other Corp"}
	d := New(DefaultConfig(), testLogger())

	d.OnQuote(domain.Quote{Instrument: testInst, Venue: domain.VenueKRX, Bid: 99.5, Ask: 100.0})
	// The other instrument's NXT quote must not complete testInst's book.
	got := d.OnQuote(domain.Quote{Instrument: other, Venue: domain.VenueNXT, Bid: 101.0, Ask: 101.5})
	assert.Empty(t, got)
}
