// Package scheduler implements the scheduling engine: it validates a
// scheduling request, derives the rule name and one-shot trigger
// expression, registers the rule with the substrate, and records ownership.
// It also serves ownership-gated lookup, listing, and cancellation.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/garyfan1/timegate/internal/cache"
	"github.com/garyfan1/timegate/internal/ident"
	"github.com/garyfan1/timegate/internal/observability"
	"github.com/garyfan1/timegate/internal/store"
	"github.com/garyfan1/timegate/internal/substrate"
)

// stampLayout is the caller-facing trigger time representation: a full
// minute in UTC, zero-padded, e.g. "202601010930".
const stampLayout = "200601021504"

// Request is a scheduling request after JSON decoding. Data and Raw stay
// opaque: the engine requires their presence but never inspects structure.
type Request struct {
	// Stamp is target_info.date_time, "YYYYMMDDHHMM" in UTC.
	Stamp string

	// Callback is the URL invoked at trigger time.
	Callback string

	// Method is the HTTP method of the callback.
	Method string

	// Data is the opaque application payload.
	Data json.RawMessage

	// Raw is the full original request document. It is stored verbatim as
	// the target input, so the dispatch target has everything it needs
	// without re-reading any store.
	Raw json.RawMessage
}

// Scheduled describes a successfully registered rule.
type Scheduled struct {
	RuleName   string
	Expression string
}

// Engine wires the substrate, the ownership index, and the payload cache.
// Each request is handled independently and statelessly; the only shared
// mutable state lives behind those dependencies.
type Engine struct {
	rules      substrate.Client
	ownerships store.OwnershipRepository
	cache      cache.Service
	targetARN  string
	logger     *slog.Logger
	now        func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the wall clock used for past-trigger validation.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a scheduling engine. The cache is optional (nil skips
// payload caching); everything else is mandatory.
func NewEngine(rules substrate.Client, ownerships store.OwnershipRepository, cacheSvc cache.Service, targetARN string, logger *slog.Logger, opts ...EngineOption) *Engine {
	if rules == nil {
		panic("scheduler: substrate client cannot be nil")
	}
	if ownerships == nil {
		panic("scheduler: ownership repository cannot be nil")
	}
	if targetARN == "" {
		panic("scheduler: target ARN cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		rules:      rules,
		ownerships: ownerships,
		cache:      cacheSvc,
		targetARN:  targetARN,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Schedule validates the request and runs the creation sequence:
// put_rule, grant_invoke, attach_target, record_ownership, strictly in that
// order. All validation happens before the first external mutation. If any
// step after put_rule fails, the rule stays registered and the request
// reports failure; the orphan is collected later by the date-prefix sweep.
func (e *Engine) Schedule(ctx context.Context, accountID string, req Request) (*Scheduled, error) {
	triggerAt, err := e.validate(req)
	if err != nil {
		return nil, err
	}

	suffix, err := ident.Generate(ident.SuffixLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate rule suffix: %w", err)
	}

	// The stamp prefix makes the trigger date recoverable from the name
	// alone, which is what the sweep's prefix enumeration relies on.
	ruleName := req.Stamp + suffix
	expression := substrate.OneShotExpression(triggerAt)

	ruleARN, err := e.rules.PutRule(ctx, ruleName, expression)
	if err != nil {
		return nil, e.stepFailed("put_rule", ruleName, err)
	}

	if err := e.rules.GrantInvoke(ctx, e.targetARN, ruleName, ruleARN); err != nil {
		return nil, e.stepFailed("grant_invoke", ruleName, err)
	}

	target := substrate.Target{
		ID:    ruleName + "-target",
		ARN:   e.targetARN,
		Input: string(req.Raw),
	}
	if err := e.rules.AttachTarget(ctx, ruleName, target); err != nil {
		return nil, e.stepFailed("attach_target", ruleName, err)
	}

	if err := e.ownerships.Record(ctx, accountID, ruleName); err != nil {
		return nil, e.stepFailed("record_ownership", ruleName, err)
	}

	// Cache failures must not fail a request that already committed.
	if e.cache != nil {
		if err := e.cache.SetPayload(ctx, ruleName, req.Raw); err != nil {
			e.logger.Warn("failed to cache payload",
				slog.String("rule", ruleName),
				slog.String("error", err.Error()),
			)
		}
	}

	observability.SchedulesTotal.Inc()
	e.logger.Info("rule scheduled",
		slog.String("account", accountID),
		slog.String("rule", ruleName),
		slog.String("expression", expression),
	)

	return &Scheduled{RuleName: ruleName, Expression: expression}, nil
}

// Cancel tears the rule down and removes the ownership record. Access is
// gated on the ownership index: an account can only cancel rules it owns,
// and cannot tell an unowned rule from a nonexistent one.
func (e *Engine) Cancel(ctx context.Context, accountID, ruleName string) error {
	if err := e.ownerships.Owns(ctx, accountID, ruleName); err != nil {
		return err
	}

	if err := substrate.Teardown(ctx, e.rules, ruleName); err != nil {
		return err
	}

	if err := e.ownerships.Delete(ctx, accountID, ruleName); err != nil {
		return err
	}

	e.dropCachedPayload(ctx, ruleName)

	e.logger.Info("rule cancelled",
		slog.String("account", accountID),
		slog.String("rule", ruleName),
	)
	return nil
}

// Get returns the stored target input verbatim, gated on ownership. The
// cache is consulted first; a miss reads back from the substrate. A cached
// payload for a rule whose trigger minute is already behind the clock is
// not served directly: the sweep removes such rules without touching the
// cache, so the read must confirm the rule still exists.
func (e *Engine) Get(ctx context.Context, accountID, ruleName string) ([]byte, error) {
	if err := e.ownerships.Owns(ctx, accountID, ruleName); err != nil {
		return nil, err
	}

	if e.cache != nil {
		payload, ok, err := e.cache.GetPayload(ctx, ruleName)
		if err != nil {
			e.logger.Warn("payload cache read failed",
				slog.String("rule", ruleName),
				slog.String("error", err.Error()),
			)
		}
		if err == nil && ok && !e.triggerPassed(ruleName) {
			return payload, nil
		}
	}

	targets, err := e.rules.ListTargets(ctx, ruleName)
	if err != nil {
		if errors.Is(err, substrate.ErrRuleNotFound) {
			e.dropCachedPayload(ctx, ruleName)
		}
		return nil, err
	}
	if len(targets) == 0 {
		e.dropCachedPayload(ctx, ruleName)
		return nil, &substrate.OpError{Op: "list_targets", Rule: ruleName, Err: substrate.ErrRuleNotFound}
	}

	payload := []byte(targets[0].Input)
	if e.cache != nil {
		if err := e.cache.SetPayload(ctx, ruleName, payload); err != nil {
			e.logger.Warn("failed to backfill payload cache",
				slog.String("rule", ruleName),
				slog.String("error", err.Error()),
			)
		}
	}
	return payload, nil
}

// triggerPassed reports whether the rule name's stamp prefix refers to a
// minute behind the wall clock. Rules past their trigger are candidates
// for the date-prefix sweep.
func (e *Engine) triggerPassed(ruleName string) bool {
	if len(ruleName) < len(stampLayout) {
		return false
	}
	triggerAt, err := time.ParseInLocation(stampLayout, ruleName[:len(stampLayout)], time.UTC)
	if err != nil {
		return false
	}
	return triggerAt.Before(e.now().UTC())
}

func (e *Engine) dropCachedPayload(ctx context.Context, ruleName string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Invalidate(ctx, ruleName); err != nil {
		e.logger.Warn("failed to invalidate cached payload",
			slog.String("rule", ruleName),
			slog.String("error", err.Error()),
		)
	}
}

// List enumerates the rule identifiers owned by the account.
func (e *Engine) List(ctx context.Context, accountID string) ([]string, error) {
	return e.ownerships.ListByAccount(ctx, accountID)
}

// validate checks the request in a fixed order, each failure a distinct
// rejected-request outcome, and resolves the trigger minute.
func (e *Engine) validate(req Request) (time.Time, error) {
	if req.Stamp == "" {
		return time.Time{}, &ValidationError{Msg: "date_time not provided"}
	}
	if len(req.Stamp) != len(stampLayout) {
		return time.Time{}, &ValidationError{Msg: "incorrect date time format"}
	}

	triggerAt, err := time.ParseInLocation(stampLayout, req.Stamp, time.UTC)
	if err != nil {
		return time.Time{}, &ValidationError{Msg: "incorrect date time format"}
	}

	if triggerAt.Before(e.now().UTC()) {
		// "pass" is the published contract string, typo included.
		return time.Time{}, &ValidationError{Msg: "scheduling a pass event"}
	}

	if req.Callback == "" {
		return time.Time{}, &ValidationError{Msg: "callback api not provided"}
	}
	if req.Method == "" {
		return time.Time{}, &ValidationError{Msg: "callback method not provided"}
	}
	if len(req.Data) == 0 {
		return time.Time{}, &ValidationError{Msg: "data passing to target not provided"}
	}

	return triggerAt, nil
}

// stepFailed records a named-step failure in logs and metrics and wraps it.
func (e *Engine) stepFailed(step, ruleName string, err error) error {
	observability.ScheduleStepFailures.WithLabelValues(step).Inc()

	attrs := []any{
		slog.String("step", step),
		slog.String("rule", ruleName),
		slog.String("error", err.Error()),
	}
	if step != "put_rule" {
		// The rule is registered but the sequence did not finish; operators
		// reconcile via the step_failures metric, the sweep collects the
		// orphan once its date passes.
		attrs = append(attrs, slog.Bool("orphaned_rule", true))
	}
	e.logger.Error("schedule sequence failed", attrs...)

	return &StepError{Step: step, Rule: ruleName, Err: err}
}
