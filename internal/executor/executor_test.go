package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaydog12322/Anatta/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type submission struct {
	Code string
	Side domain.Side
	Qty  int
}

// fakeTransport scripts per-code submission errors and confirmation events.
// Each Submit pops and emits the next queued events for its code, so a code
// with an empty queue produces a confirmation timeout.
type fakeTransport struct {
	mu        sync.Mutex
	submitted []submission
	events    chan domain.OrderEvent
	submitErr map[string]error
	responses map[string][]domain.OrderEvent
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		events:    make(chan domain.OrderEvent, 16),
		submitErr: make(map[string]error),
		responses: make(map[string][]domain.OrderEvent),
	}
}

func (f *fakeTransport) Submit(ctx context.Context, code string, side domain.Side, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, submission{Code: code, Side: side, Qty: qty})
	if err := f.submitErr[code]; err != nil {
		return err
	}
	if evs := f.responses[code]; len(evs) > 0 {
		f.events <- evs[0]
		f.responses[code] = evs[1:]
	}
	return nil
}

func (f *fakeTransport) Events() <-chan domain.OrderEvent { return f.events }

func (f *fakeTransport) submissions() []submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]submission, len(f.submitted))
	copy(out, f.submitted)
	return out
}

func fill(code string) domain.OrderEvent {
	return domain.OrderEvent{Code: code, Status: domain.OrderStatusFilled}
}

var testProposal = domain.TradeProposal{
	ID:         "prop-1",
	Instrument: domain.Instrument{KRXCode: "X1", NXTCode: "X2", Name: "Test Corp"},
	BuyVenue:   domain.VenueKRX,
	SellVenue:  domain.VenueNXT,
	Qty:        1,
}

func testConfig() Config {
	return Config{
		MaxSubmitsPerWindow: 5,
		SubmitWindow:        time.Second,
		ConfirmTimeout:      100 * time.Millisecond,
	}
}

func TestBothLegsConfirm(t *testing.T) {
	ft := newFakeTransport()
	ft.responses["X1"] = []domain.OrderEvent{fill("X1")}
	ft.responses["X2"] = []domain.OrderEvent{fill("X2")}
	e := New(ft, testConfig(), testLogger())

	err := e.ExecuteOne(context.Background(), testProposal)
	require.NoError(t, err)

	subs := ft.submissions()
	require.Len(t, subs, 2)
	assert.Equal(t, submission{Code: "X1", Side: domain.SideBuy, Qty: 1}, subs[0])
	assert.Equal(t, submission{Code: "X2", Side: domain.SideSell, Qty: 1}, subs[1])
}

func TestBuyLegSubmitRejected(t *testing.T) {
	ft := newFakeTransport()
	ft.submitErr["X1"] = errors.New("session down")
	e := New(ft, testConfig(), testLogger())

	err := e.ExecuteOne(context.Background(), testProposal)
	var oerr *domain.OrderError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, domain.OrderErrSubmitRejected, oerr.Kind)
	assert.Equal(t, domain.SideBuy, oerr.Side)
	assert.Equal(t, "X1", oerr.Code)

	// No position was taken, so nothing may be flattened.
	require.Len(t, ft.submissions(), 1)
}

func TestSellLegRejectedTriggersOneFlatten(t *testing.T) {
	ft := newFakeTransport()
	ft.responses["X1"] = []domain.OrderEvent{fill("X1"), fill("X1")} // buy leg + flatten
	ft.responses["X2"] = []domain.OrderEvent{{Code: "X2", Status: domain.OrderStatusRejected, Err: "insufficient balance"}}
	e := New(ft, testConfig(), testLogger())

	err := e.ExecuteOne(context.Background(), testProposal)
	var oerr *domain.OrderError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, domain.OrderErrConfirmRejected, oerr.Kind)
	assert.Equal(t, domain.SideSell, oerr.Side)
	assert.Equal(t, "X2", oerr.Code)
	assert.Contains(t, oerr.Reason, "insufficient balance")

	// Exactly one flattening SELL on the buy venue, after buy and sell.
	subs := ft.submissions()
	require.Len(t, subs, 3)
	assert.Equal(t, submission{Code: "X1", Side: domain.SideBuy, Qty: 1}, subs[0])
	assert.Equal(t, submission{Code: "X2", Side: domain.SideSell, Qty: 1}, subs[1])
	assert.Equal(t, submission{Code: "X1", Side: domain.SideSell, Qty: 1}, subs[2])
}

func TestSellLegTimeoutFlagsUnknownOutcome(t *testing.T) {
	ft := newFakeTransport()
	ft.responses["X1"] = []domain.OrderEvent{fill("X1"), fill("X1")}
	// No scripted response for X2: the confirmation wait must expire.
	e := New(ft, testConfig(), testLogger())

	err := e.ExecuteOne(context.Background(), testProposal)
	var oerr *domain.OrderError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, domain.OrderErrConfirmTimeout, oerr.Kind)
	assert.True(t, oerr.OutcomeUnknown, "a timed-out leg's true state is unknown")
	assert.Equal(t, "X2", oerr.Code)

	subs := ft.submissions()
	require.Len(t, subs, 3, "flatten still attempted after timeout")
	assert.Equal(t, submission{Code: "X1", Side: domain.SideSell, Qty: 1}, subs[2])
}

func TestFlattenFailureDoesNotMaskOriginalError(t *testing.T) {
	ft := newFakeTransport()
	// Buy leg confirms; sell leg rejects; flatten gets no confirmation.
	ft.responses["X1"] = []domain.OrderEvent{fill("X1")}
	ft.responses["X2"] = []domain.OrderEvent{{Code: "X2", Err: "rejected upstream"}}
	e := New(ft, testConfig(), testLogger())

	err := e.ExecuteOne(context.Background(), testProposal)
	var oerr *domain.OrderError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, domain.OrderErrConfirmRejected, oerr.Kind, "sell leg's error survives the failed flatten")
	assert.Equal(t, "X2", oerr.Code)
}

func TestUncorrelatedEventsDiscarded(t *testing.T) {
	ft := newFakeTransport()
	// A stale event for another code precedes the real confirmation.
	ft.responses["X1"] = []domain.OrderEvent{fill("X1")}
	ft.responses["X2"] = []domain.OrderEvent{fill("X2")}
	ft.events <- domain.OrderEvent{Code: "ZZ", Status: domain.OrderStatusFilled}
	e := New(ft, testConfig(), testLogger())

	err := e.ExecuteOne(context.Background(), testProposal)
	require.NoError(t, err)
}

func TestExecuteContinuesPastFailures(t *testing.T) {
	other := domain.TradeProposal{
		ID:         "prop-2",
		Instrument: domain.Instrument{KRXCode: "Y1", NXTCode: "Y2"},
		BuyVenue:   domain.VenueNXT,
		SellVenue:  domain.VenueKRX,
		Qty:        1,
	}
	ft := newFakeTransport()
	ft.submitErr["X1"] = errors.New("session down")
	ft.responses["Y2"] = []domain.OrderEvent{fill("Y2")}
	ft.responses["Y1"] = []domain.OrderEvent{fill("Y1")}
	e := New(ft, testConfig(), testLogger())

	e.Execute(context.Background(), []domain.TradeProposal{testProposal, other})

	subs := ft.submissions()
	require.Len(t, subs, 3, "second proposal runs despite the first failing")
	assert.Equal(t, "Y2", subs[1].Code, "buy leg of the second proposal uses its buy venue code")
}
