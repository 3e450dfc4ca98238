package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jaydog12322/Anatta/internal/broker"
	"github.com/jaydog12322/Anatta/internal/detector"
	"github.com/jaydog12322/Anatta/internal/domain"
	"github.com/jaydog12322/Anatta/internal/engine"
	"github.com/jaydog12322/Anatta/internal/executor"
	"github.com/jaydog12322/Anatta/internal/feed"
	"github.com/jaydog12322/Anatta/internal/risk"
	"github.com/jaydog12322/Anatta/internal/session"
)

// TradeMode runs the full pipeline against the live brokerage bridge: quote
// feed, detector, risk gate, executor, and session scheduler.
func (a *App) TradeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting trade mode")

	b := broker.NewWSBroker(a.cfg.Broker.WsURL, a.logger)
	return a.runPipeline(ctx, deps, b, func(g *errgroup.Group, ctx context.Context) {
		g.Go(func() error { return b.Run(ctx) })
	})
}

// PaperMode runs the live quote feed through the pipeline but fills orders
// in-process, leaving the brokerage session untouched.
func (a *App) PaperMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting paper mode")

	b := broker.NewPaperBroker(a.logger)
	return a.runPipeline(ctx, deps, b, nil)
}

// runPipeline assembles and runs the quote → detect → approve → execute
// pipeline around the given transport. startTransport, when non-nil, adds
// the transport's own goroutines to the group.
func (a *App) runPipeline(
	ctx context.Context,
	deps *Dependencies,
	transport domain.OrderTransport,
	startTransport func(g *errgroup.Group, ctx context.Context),
) error {
	det := detector.New(detector.Config{
		Fees:   a.cfg.Detector.Fees,
		Buffer: a.cfg.Detector.Buffer,
	}, a.logger)
	gate := risk.NewGate(a.cfg.Risk.MaxTrips, a.logger)
	exec := executor.New(transport, executor.Config{
		MaxSubmitsPerWindow: a.cfg.Executor.MaxSubmitsPerWindow,
		SubmitWindow:        a.cfg.Executor.SubmitWindow.Duration,
		ConfirmTimeout:      a.cfg.Executor.ConfirmTimeout.Duration,
	}, a.logger)
	scheduler := session.NewScheduler(session.Config{
		OpenTime: a.cfg.Session.OpenTime,
		Timezone: a.cfg.Session.Timezone,
	}, a.logger, gate)
	quoteFeed := feed.NewWSFeed(a.cfg.Feed.WsURL, deps.Registry, a.logger)

	eng := engine.New(engine.Config{
		Quotes:   quoteFeed.Quotes(),
		Detector: det,
		Gate:     gate,
		Executor: exec,
		Journal:  deps.Journal,
		Bus:      deps.Bus,
		Notifier: deps.Notifier,
		Logger:   a.logger,
	})

	// Session state starts clean before the first quote is processed;
	// subsequent trading days are handled by the scheduler loop.
	scheduler.StartSession()

	g, ctx := errgroup.WithContext(ctx)
	if startTransport != nil {
		startTransport(g, ctx)
		// Give the broker session a head start before quotes flow.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	g.Go(func() error { return scheduler.Run(ctx) })
	g.Go(func() error { return quoteFeed.Run(ctx) })
	g.Go(func() error { return eng.Run(ctx) })

	a.logger.InfoContext(ctx, "pipeline running",
		slog.Int("instruments", deps.Registry.Len()),
		slog.Float64("threshold", det.Threshold()),
	)
	return g.Wait()
}
