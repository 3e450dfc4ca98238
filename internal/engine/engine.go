// Package engine runs the decision-and-execution pipeline: quote events in,
// spread detection, risk gating, and two-leg order execution, one quote at a
// time in arrival order.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jaydog12322/Anatta/internal/detector"
	"github.com/jaydog12322/Anatta/internal/domain"
	"github.com/jaydog12322/Anatta/internal/executor"
	"github.com/jaydog12322/Anatta/internal/notify"
	"github.com/jaydog12322/Anatta/internal/risk"
)

// executionsChannel is the event bus channel execution outcomes are
// published on.
const executionsChannel = "executions"

// Engine consumes the quote stream and drives detector, risk gate, and
// executor synchronously per quote. Journal, bus, and notifier are optional
// observability boundaries; their failures never stop the pipeline.
type Engine struct {
	quotes   <-chan domain.Quote
	detector *detector.Detector
	gate     *risk.Gate
	exec     *executor.Executor
	journal  domain.ExecutionJournal
	bus      domain.EventBus
	notifier *notify.Notifier
	logger   *slog.Logger
}

// Config bundles the engine's collaborators. Journal, Bus, and Notifier may
// be nil.
type Config struct {
	Quotes   <-chan domain.Quote
	Detector *detector.Detector
	Gate     *risk.Gate
	Executor *executor.Executor
	Journal  domain.ExecutionJournal
	Bus      domain.EventBus
	Notifier *notify.Notifier
	Logger   *slog.Logger
}

// New creates an Engine.
func New(cfg Config) *Engine {
	return &Engine{
		quotes:   cfg.Quotes,
		detector: cfg.Detector,
		gate:     cfg.Gate,
		exec:     cfg.Executor,
		journal:  cfg.Journal,
		bus:      cfg.Bus,
		notifier: cfg.Notifier,
		logger:   cfg.Logger.With(slog.String("component", "engine")),
	}
}

// Run processes quotes until ctx is cancelled or the quote channel closes.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine started")
	defer e.logger.Info("engine stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case q, ok := <-e.quotes:
			if !ok {
				return nil
			}
			e.handleQuote(ctx, q)
		}
	}
}

// handleQuote runs one quote through the full pipeline. Proposals are gated
// and executed in the order the detector produced them; one proposal's
// failure never aborts the rest.
func (e *Engine) handleQuote(ctx context.Context, q domain.Quote) {
	for _, p := range e.detector.OnQuote(q) {
		if !e.gate.Approve(p) {
			e.logger.Info("proposal rejected by risk gate",
				slog.String("proposal_id", p.ID),
				slog.String("krx_code", p.Instrument.KRXCode),
			)
			e.notify(ctx, "proposal_rejected", "Proposal rejected",
				fmt.Sprintf("%s (%s): trip cap reached", p.Instrument.Name, p.Instrument.KRXCode))
			continue
		}
		e.logger.Info("proposal approved",
			slog.String("proposal_id", p.ID),
			slog.String("krx_code", p.Instrument.KRXCode),
			slog.String("buy_venue", string(p.BuyVenue)),
			slog.Int("qty", p.Qty),
		)
		e.execute(ctx, p)
	}
}

func (e *Engine) execute(ctx context.Context, p domain.TradeProposal) {
	started := time.Now().UTC()
	err := e.exec.ExecuteOne(ctx, p)
	completed := time.Now().UTC()

	rec := domain.ExecutionRecord{
		ID:          uuid.New().String(),
		ProposalID:  p.ID,
		KRXCode:     p.Instrument.KRXCode,
		NXTCode:     p.Instrument.NXTCode,
		BuyVenue:    p.BuyVenue,
		SellVenue:   p.SellVenue,
		Qty:         p.Qty,
		Status:      domain.ExecFilled,
		StartedAt:   started,
		CompletedAt: completed,
	}

	if err != nil {
		rec.Status = classify(p, err)
		rec.Error = err.Error()
		var oerr *domain.OrderError
		if errors.As(err, &oerr) {
			rec.FailedLeg = oerr.Side
		}
		e.notify(ctx, "execution_failed", "Execution failed",
			fmt.Sprintf("%s (%s): %s", p.Instrument.Name, p.Instrument.KRXCode, err.Error()))
	} else {
		e.notify(ctx, "execution_filled", "Arbitrage executed",
			fmt.Sprintf("%s (%s): buy %s / sell %s, qty %d",
				p.Instrument.Name, p.Instrument.KRXCode, p.BuyVenue, p.SellVenue, p.Qty))
	}

	e.record(ctx, rec)
	e.publish(ctx, rec)
}

// classify maps an execution error to journal status. A sell-leg failure
// after the confirmed buy means a flatten was attempted; a confirmation
// timeout means the leg's true state is unknown.
func classify(p domain.TradeProposal, err error) domain.ExecStatus {
	var oerr *domain.OrderError
	if !errors.As(err, &oerr) {
		return domain.ExecFailed
	}
	if oerr.OutcomeUnknown {
		return domain.ExecUnknown
	}
	if oerr.Side == domain.SideSell && oerr.Code == p.SellCode() {
		return domain.ExecFlattened
	}
	return domain.ExecFailed
}

func (e *Engine) record(ctx context.Context, rec domain.ExecutionRecord) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Record(ctx, rec); err != nil {
		e.logger.Warn("journal record failed",
			slog.String("proposal_id", rec.ProposalID),
			slog.String("error", err.Error()),
		)
	}
}

func (e *Engine) publish(ctx context.Context, rec domain.ExecutionRecord) {
	if e.bus == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"event":       "execution",
		"proposal_id": rec.ProposalID,
		"krx_code":    rec.KRXCode,
		"buy_venue":   rec.BuyVenue,
		"sell_venue":  rec.SellVenue,
		"qty":         rec.Qty,
		"status":      rec.Status,
		"error":       rec.Error,
	})
	if err != nil {
		return
	}
	if err := e.bus.Publish(ctx, executionsChannel, payload); err != nil {
		e.logger.Warn("event publish failed", slog.String("error", err.Error()))
	}
}

func (e *Engine) notify(ctx context.Context, event, title, message string) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(ctx, event, title, message)
}
