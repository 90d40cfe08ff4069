// Package sweeper implements the expiry sweep worker: periodic jobs that
// enumerate expired rule name prefixes and tear each rule down fully.
//
// Two passes run on fixed UTC cron schedules. The daily pass collects rules
// dated yesterday; the monthly pass collects the whole previous month as a
// safety net for anything the daily pass missed (e.g. during an outage).
// Both are idempotent and safe to re-run: teardown of an already-removed
// rule reports a non-fatal not-found.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/garyfan1/timegate/internal/config"
	"github.com/garyfan1/timegate/internal/observability"
	"github.com/garyfan1/timegate/internal/substrate"
)

// Pass names used in logs and metrics.
const (
	PassDaily   = "daily"
	PassMonthly = "monthly"
)

// Service runs the sweep passes.
type Service struct {
	logger *slog.Logger
	cfg    config.SweeperConfig
	rules  substrate.Client
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock used to derive sweep prefixes.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a sweep service.
func New(logger *slog.Logger, cfg config.SweeperConfig, rules substrate.Client, opts ...Option) *Service {
	if rules == nil {
		panic("sweeper: substrate client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		logger: logger,
		cfg:    cfg,
		rules:  rules,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run registers both passes on their cron schedules and blocks until the
// context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))

	if _, err := c.AddFunc(s.cfg.DailySpec, func() { s.SweepDaily(context.Background()) }); err != nil {
		return fmt.Errorf("invalid daily sweep spec %q: %w", s.cfg.DailySpec, err)
	}
	if _, err := c.AddFunc(s.cfg.MonthlySpec, func() { s.SweepMonthly(context.Background()) }); err != nil {
		return fmt.Errorf("invalid monthly sweep spec %q: %w", s.cfg.MonthlySpec, err)
	}

	s.logger.Info("starting sweeper",
		slog.String("daily_spec", s.cfg.DailySpec),
		slog.String("monthly_spec", s.cfg.MonthlySpec),
	)
	c.Start()

	<-ctx.Done()
	s.logger.Info("sweeper stopping...")

	// Let an in-flight pass finish before returning.
	stopCtx := c.Stop()
	<-stopCtx.Done()
	return nil
}

// SweepDaily tears down all rules dated yesterday (UTC).
func (s *Service) SweepDaily(ctx context.Context) {
	s.sweepPrefix(ctx, PassDaily, yesterdayPrefix(s.now()))
}

// SweepMonthly tears down all rules dated in the previous calendar month.
// The shorter prefix matches every day of that month.
func (s *Service) SweepMonthly(ctx context.Context) {
	s.sweepPrefix(ctx, PassMonthly, lastMonthPrefix(s.now()))
}

// sweepPrefix drains the paginated rule listing for the prefix and tears
// each rule down independently. A failure on one rule never aborts the rest
// of the batch; it is logged, counted, and the sweep continues.
func (s *Service) sweepPrefix(ctx context.Context, pass, prefix string) {
	log := s.logger.With(slog.String("pass", pass), slog.String("prefix", prefix))
	start := time.Now()

	removed := 0
	failed := 0
	token := ""

	for {
		page, err := s.rules.ListRules(ctx, prefix, token)
		if err != nil {
			// Without the listing there is nothing to tear down; the next
			// scheduled pass (or the monthly net) will retry.
			log.Error("sweep listing failed", slog.String("error", err.Error()))
			return
		}

		for _, rule := range page.Rules {
			// Only rule names with a fully numeric date prefix belong to
			// this system; anything else shares the namespace by accident
			// and must not be touched.
			if !hasNumericDatePrefix(rule.Name) {
				log.Warn("skipping rule without numeric date prefix", slog.String("rule", rule.Name))
				continue
			}

			if err := substrate.Teardown(ctx, s.rules, rule.Name); err != nil {
				failed++
				observability.SweepRuleFailures.WithLabelValues(pass).Inc()
				if errors.Is(err, substrate.ErrRuleNotFound) {
					// Already gone: an overlapping pass or explicit
					// cancellation got here first.
					log.Info("rule already removed", slog.String("rule", rule.Name))
				} else {
					log.Error("rule teardown failed",
						slog.String("rule", rule.Name),
						slog.String("error", err.Error()),
					)
				}
				continue
			}

			removed++
			observability.SweepRulesRemoved.WithLabelValues(pass).Inc()
		}

		if page.NextToken == "" {
			break
		}
		token = page.NextToken
	}

	log.Info("sweep pass completed",
		slog.Int("removed", removed),
		slog.Int("failed", failed),
		slog.String("duration", time.Since(start).String()),
	)
}

// hasNumericDatePrefix reports whether the first 12 characters of the rule
// name are all digits (the YYYYMMDDHHMM stamp).
func hasNumericDatePrefix(name string) bool {
	if len(name) < 12 {
		return false
	}
	for _, c := range name[:12] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// yesterdayPrefix renders yesterday's date (UTC) as YYYYMMDD.
func yesterdayPrefix(now time.Time) string {
	return now.UTC().AddDate(0, 0, -1).Format("20060102")
}

// lastMonthPrefix renders the previous calendar month (UTC) as YYYYMM.
func lastMonthPrefix(now time.Time) string {
	t := now.UTC()
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, 0, -1).Format("200601")
}
