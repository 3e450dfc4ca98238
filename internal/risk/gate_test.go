package risk

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaydog12322/Anatta/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func proposal(krxCode string) domain.TradeProposal {
	return domain.TradeProposal{
		Instrument: domain.Instrument{KRXCode: krxCode, NXTCode: krxCode + "N"},
		BuyVenue:   domain.VenueKRX,
		SellVenue:  domain.VenueNXT,
		Qty:        1,
	}
}

func TestApproveUpToCap(t *testing.T) {
	const maxTrips = 5
	g := NewGate(maxTrips, testLogger())
	p := proposal("005930")

	for i := 0; i < maxTrips; i++ {
		assert.True(t, g.Approve(p), "call %d should be approved", i+1)
	}
	assert.False(t, g.Approve(p), "call cap+1 must be rejected")
	assert.False(t, g.Approve(p), "further calls stay rejected")
}

func TestRejectionsStillCount(t *testing.T) {
	g := NewGate(3, testLogger())
	p := proposal("000660")

	for i := 0; i < 6; i++ {
		g.Approve(p)
	}
	// Rejected calls keep incrementing; the count reflects every attempt.
	assert.Equal(t, 6, g.Count("000660"))
}

func TestCountersPerInstrument(t *testing.T) {
	g := NewGate(1, testLogger())

	assert.True(t, g.Approve(proposal("A")))
	assert.False(t, g.Approve(proposal("A")))
	assert.True(t, g.Approve(proposal("B")), "another instrument has its own budget")
}

func TestResetCounts(t *testing.T) {
	g := NewGate(2, testLogger())
	p := proposal("005930")

	for i := 0; i < 4; i++ {
		g.Approve(p)
	}
	require.False(t, g.Approve(p))

	g.ResetCounts()
	assert.True(t, g.Approve(p), "reset restores the full budget")
	assert.Equal(t, 1, g.Count("005930"))

	// Idempotent.
	g.ResetCounts()
	g.ResetCounts()
	assert.Equal(t, 0, g.Count("005930"))
}

func TestConcurrentApprovesNoLostUpdates(t *testing.T) {
	const (
		maxTrips = 50
		attempts = 200
	)
	g := NewGate(maxTrips, testLogger())
	p := proposal("005930")

	var wg sync.WaitGroup
	var mu sync.Mutex
	approved := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Approve(p) {
				mu.Lock()
				approved++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, maxTrips, approved, "exactly maxTrips approvals regardless of interleaving")
	assert.Equal(t, attempts, g.Count("005930"))
}
