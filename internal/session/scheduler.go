// Package session resets per-session trading state at the start of each
// trading day.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Resetter is any per-session state that must be cleared at session open.
// The risk gate is the one resetter today; more can be registered as the
// system grows.
type Resetter interface {
	ResetCounts()
}

// Config holds the session boundary parameters.
type Config struct {
	// OpenTime is the local wall-clock session open, formatted "15:04".
	OpenTime string
	// Timezone is the IANA zone the open time is interpreted in.
	Timezone string
}

// DefaultConfig returns the KRX cash session open.
func DefaultConfig() Config {
	return Config{OpenTime: "08:30", Timezone: "Asia/Seoul"}
}

// Scheduler triggers start-of-day resets. It holds no state of its own
// beyond the resetters it drives.
type Scheduler struct {
	resetters []Resetter
	cfg       Config
	logger    *slog.Logger
}

// NewScheduler creates a Scheduler driving the given resetters.
func NewScheduler(cfg Config, logger *slog.Logger, resetters ...Resetter) *Scheduler {
	return &Scheduler{
		resetters: resetters,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "session_scheduler")),
	}
}

// StartSession resets all registered per-session state. It is called once
// per trading day before any quotes are processed, either by Run or by an
// operator.
func (s *Scheduler) StartSession() {
	s.logger.Info("session started, resetting per-session state")
	for _, r := range s.resetters {
		r.ResetCounts()
	}
}

// Run blocks until ctx is cancelled, calling StartSession at the configured
// open time each day. The first trigger is the next occurrence of the open
// time; callers that need state reset immediately call StartSession before
// Run.
func (s *Scheduler) Run(ctx context.Context) error {
	loc, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		return fmt.Errorf("session: load timezone %q: %w", s.cfg.Timezone, err)
	}
	open, err := time.ParseInLocation("15:04", s.cfg.OpenTime, loc)
	if err != nil {
		return fmt.Errorf("session: parse open time %q: %w", s.cfg.OpenTime, err)
	}

	for {
		wait := untilNext(time.Now().In(loc), open.Hour(), open.Minute())
		s.logger.Info("next session open scheduled",
			slog.Duration("in", wait),
			slog.String("open_time", s.cfg.OpenTime),
		)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			s.StartSession()
		}
	}
}

// untilNext returns the duration from now to the next daily occurrence of
// hh:mm in now's location.
func untilNext(now time.Time, hh, mm int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
