// Package executor drives the two-leg submission protocol against the order
// transport: rate-limited submit, fill-confirmation wait, and a one-shot
// flatten when the second leg fails after the first has filled.
package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/jaydog12322/Anatta/internal/domain"
)

// Config holds the executor's protocol parameters.
type Config struct {
	// MaxSubmitsPerWindow bounds outbound submissions across the whole
	// executor within one SubmitWindow.
	MaxSubmitsPerWindow int
	SubmitWindow        time.Duration
	// ConfirmTimeout bounds each leg's wait for a correlated fill event.
	ConfirmTimeout time.Duration
}

// DefaultConfig returns the venue's production limits: 5 submissions per
// rolling second, 5 second confirmation window.
func DefaultConfig() Config {
	return Config{
		MaxSubmitsPerWindow: 5,
		SubmitWindow:        time.Second,
		ConfirmTimeout:      5 * time.Second,
	}
}

// Executor consumes approved trade proposals sequentially: one proposal's
// full two-leg protocol, including any flatten, completes before the next
// proposal's submission begins. Legs within a proposal are strictly
// buy-then-sell.
type Executor struct {
	transport domain.OrderTransport
	limiter   *windowLimiter
	cfg       Config
	logger    *slog.Logger
}

// New creates an Executor submitting through transport.
func New(transport domain.OrderTransport, cfg Config, logger *slog.Logger) *Executor {
	if cfg.MaxSubmitsPerWindow <= 0 {
		cfg.MaxSubmitsPerWindow = 5
	}
	if cfg.SubmitWindow <= 0 {
		cfg.SubmitWindow = time.Second
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 5 * time.Second
	}
	return &Executor{
		transport: transport,
		limiter:   newWindowLimiter(cfg.MaxSubmitsPerWindow, cfg.SubmitWindow),
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "order_executor")),
	}
}

// Execute runs each proposal in order. A proposal's failure is logged and
// does not abort the remaining proposals.
func (e *Executor) Execute(ctx context.Context, proposals []domain.TradeProposal) {
	for _, p := range proposals {
		if err := e.ExecuteOne(ctx, p); err != nil {
			e.logger.Error("proposal execution failed",
				slog.String("proposal_id", p.ID),
				slog.String("krx_code", p.Instrument.KRXCode),
				slog.String("error", err.Error()),
			)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// ExecuteOne runs the full two-leg protocol for one proposal. The returned
// error, when non-nil, is a *domain.OrderError for the leg that failed. When
// the sell leg fails after a confirmed buy, exactly one flattening sell of
// the bought quantity is attempted on the buy venue before the sell leg's
// original error is returned; the flatten outcome never replaces it.
func (e *Executor) ExecuteOne(ctx context.Context, p domain.TradeProposal) error {
	log := e.logger.With(
		slog.String("proposal_id", p.ID),
		slog.String("krx_code", p.Instrument.KRXCode),
		slog.String("buy_venue", string(p.BuyVenue)),
	)

	buyCode := p.BuyCode()
	sellCode := p.SellCode()

	if err := e.submitAndConfirm(ctx, buyCode, domain.SideBuy, p.Qty); err != nil {
		// No position was taken; nothing to flatten.
		return err
	}
	log.Info("buy leg confirmed", slog.String("code", buyCode))

	if err := e.submitAndConfirm(ctx, sellCode, domain.SideSell, p.Qty); err != nil {
		log.Warn("sell leg failed, flattening buy leg",
			slog.String("code", sellCode),
			slog.String("error", err.Error()),
		)
		if flatErr := e.submitAndConfirm(ctx, buyCode, domain.SideSell, p.Qty); flatErr != nil {
			log.Error("flatten attempt failed, position may remain open",
				slog.String("code", buyCode),
				slog.String("error", flatErr.Error()),
			)
		} else {
			log.Info("flatten confirmed", slog.String("code", buyCode))
		}
		return err
	}
	log.Info("sell leg confirmed", slog.String("code", sellCode))
	return nil
}

// submitAndConfirm claims a rate-limit slot, submits one market order, and
// waits for its correlated confirmation event.
func (e *Executor) submitAndConfirm(ctx context.Context, code string, side domain.Side, qty int) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return &domain.OrderError{
			Kind: domain.OrderErrSubmitRejected,
			Code: code,
			Side: side,
			Err:  err,
		}
	}
	if err := e.transport.Submit(ctx, code, side, qty); err != nil {
		return domain.NewSubmitError(code, side, err)
	}
	return e.awaitConfirmation(ctx, code, side)
}

// awaitConfirmation consumes transport events until one matches code or the
// confirmation window expires. Events for other codes are discarded with a
// log line; once sent, a submission cannot be cancelled, so a timeout leaves
// the leg's true status unknown.
func (e *Executor) awaitConfirmation(ctx context.Context, code string, side domain.Side) error {
	timer := time.NewTimer(e.cfg.ConfirmTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			oerr := domain.NewConfirmTimeout(code, side)
			oerr.Err = ctx.Err()
			return oerr
		case <-timer.C:
			return domain.NewConfirmTimeout(code, side)
		case ev, ok := <-e.transport.Events():
			if !ok {
				return domain.NewConfirmError(code, side, "event channel closed")
			}
			if ev.Code != code {
				e.logger.Debug("discarding uncorrelated order event",
					slog.String("awaited", code),
					slog.String("received", ev.Code),
				)
				continue
			}
			if ev.Err != "" {
				return domain.NewConfirmError(code, side, ev.Err)
			}
			if ev.Status == domain.OrderStatusRejected {
				return domain.NewConfirmError(code, side, "rejected by venue")
			}
			return nil
		}
	}
}
