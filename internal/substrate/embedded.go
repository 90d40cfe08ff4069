package substrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Compile-time check to verify that Embedded implements Client.
var _ Client = (*Embedded)(nil)

// Dispatcher is the dispatch target as seen by the embedded substrate. At
// trigger time the substrate hands over the stored input verbatim.
type Dispatcher interface {
	Dispatch(ctx context.Context, payload []byte) error
}

// Embedded is an in-process substrate used in dev and tests. Rules are held
// in memory and fired by one-shot timers; the lifecycle constraints of the
// external substrate are enforced so code exercised against Embedded behaves
// identically against EventBridge:
//
//   - a duplicate rule name is rejected,
//   - a target cannot be attached before the invoke grant exists,
//   - a rule cannot be removed while targets remain attached.
type Embedded struct {
	dispatcher Dispatcher
	logger     *slog.Logger
	pageSize   int
	now        func() time.Time

	mu     sync.Mutex
	rules  map[string]*embeddedRule
	grants map[string]string // statement ID -> target ARN
	closed bool
}

type embeddedRule struct {
	arn        string
	expression string
	fireAt     time.Time
	targets    []Target
	timer      *time.Timer
}

// Option configures an Embedded substrate.
type Option func(*Embedded)

// WithPageSize overrides the ListRules page size. Small sizes force
// continuation-token handling in tests.
func WithPageSize(n int) Option {
	return func(e *Embedded) { e.pageSize = n }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(e *Embedded) { e.now = now }
}

// NewEmbedded creates an in-process substrate. A nil dispatcher is valid:
// rules are stored and swept normally but trigger firings are dropped,
// which is what the sweeper binary wants.
func NewEmbedded(dispatcher Dispatcher, logger *slog.Logger, opts ...Option) *Embedded {
	if logger == nil {
		logger = slog.Default()
	}

	e := &Embedded{
		dispatcher: dispatcher,
		logger:     logger,
		pageSize:   100,
		now:        time.Now,
		rules:      make(map[string]*embeddedRule),
		grants:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PutRule registers a one-shot trigger and arms its timer.
func (e *Embedded) PutRule(_ context.Context, name, expression string) (string, error) {
	fireAt, err := ParseOneShotExpression(expression)
	if err != nil {
		return "", &OpError{Op: "put_rule", Rule: name, Err: err}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.rules[name]; ok {
		return "", &OpError{Op: "put_rule", Rule: name, Err: ErrRuleExists}
	}

	r := &embeddedRule{
		arn:        "substrate:rule/" + name,
		expression: expression,
		fireAt:     fireAt,
	}
	e.rules[name] = r

	// A trigger minute already in the past never fires, matching the
	// external substrate. Such rules only exist to be swept.
	if wait := fireAt.Sub(e.now()); wait > 0 && !e.closed {
		r.timer = time.AfterFunc(wait, func() { e.fire(name) })
	}

	return r.arn, nil
}

// GrantInvoke records the invoke permission statement.
func (e *Embedded) GrantInvoke(_ context.Context, targetARN, statementID, _ string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.grants[statementID] = targetARN
	return nil
}

// AttachTarget binds the dispatch target to the rule. The invoke grant for
// the rule must already exist.
func (e *Embedded) AttachTarget(_ context.Context, ruleName string, target Target) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.rules[ruleName]
	if !ok {
		return &OpError{Op: "attach_target", Rule: ruleName, Err: ErrRuleNotFound}
	}
	if _, ok := e.grants[ruleName]; !ok {
		return &OpError{Op: "attach_target", Rule: ruleName,
			Err: errors.New("invoke permission not granted")}
	}

	for _, existing := range r.targets {
		if existing.ID == target.ID {
			return &OpError{Op: "attach_target", Rule: ruleName,
				Err: fmt.Errorf("target %q already attached", target.ID)}
		}
	}
	r.targets = append(r.targets, target)
	return nil
}

// ListRules returns one page of rules matching the name prefix, ordered by
// name. The continuation token is the last name of the previous page.
func (e *Embedded) ListRules(_ context.Context, prefix, nextToken string) (RulePage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	names := make([]string, 0, len(e.rules))
	for name := range e.rules {
		if prefix == "" || (len(name) >= len(prefix) && name[:len(prefix)] == prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	start := 0
	if nextToken != "" {
		start = sort.SearchStrings(names, nextToken)
		if start < len(names) && names[start] == nextToken {
			start++
		}
	}

	end := start + e.pageSize
	if end > len(names) {
		end = len(names)
	}

	page := RulePage{Rules: make([]Rule, 0, end-start)}
	for _, name := range names[start:end] {
		page.Rules = append(page.Rules, Rule{Name: name, ARN: e.rules[name].arn})
	}
	if end < len(names) {
		page.NextToken = names[end-1]
	}
	return page, nil
}

// ListTargets returns the targets attached to a rule.
func (e *Embedded) ListTargets(_ context.Context, ruleName string) ([]Target, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.rules[ruleName]
	if !ok {
		return nil, &OpError{Op: "list_targets", Rule: ruleName, Err: ErrRuleNotFound}
	}

	targets := make([]Target, len(r.targets))
	copy(targets, r.targets)
	return targets, nil
}

// RemoveTargets detaches the listed targets from a rule.
func (e *Embedded) RemoveTargets(_ context.Context, ruleName string, targetIDs []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.rules[ruleName]
	if !ok {
		return &OpError{Op: "remove_targets", Rule: ruleName, Err: ErrRuleNotFound}
	}

	remove := make(map[string]bool, len(targetIDs))
	for _, id := range targetIDs {
		remove[id] = true
	}

	kept := r.targets[:0]
	for _, t := range r.targets {
		if !remove[t.ID] {
			kept = append(kept, t)
		}
	}
	r.targets = kept
	return nil
}

// RemoveRule deletes the rule and disarms its timer. Fails while targets
// remain attached, matching the external substrate.
func (e *Embedded) RemoveRule(_ context.Context, ruleName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.rules[ruleName]
	if !ok {
		return &OpError{Op: "remove_rule", Rule: ruleName, Err: ErrRuleNotFound}
	}
	if len(r.targets) > 0 {
		return &OpError{Op: "remove_rule", Rule: ruleName,
			Err: fmt.Errorf("%d targets still attached", len(r.targets))}
	}

	if r.timer != nil {
		r.timer.Stop()
	}
	delete(e.rules, ruleName)
	return nil
}

// RevokeInvoke removes the invoke permission statement.
func (e *Embedded) RevokeInvoke(_ context.Context, _, statementID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.grants[statementID]; !ok {
		return &OpError{Op: "revoke_invoke", Rule: statementID, Err: ErrPermissionNotFound}
	}
	delete(e.grants, statementID)
	return nil
}

// Close disarms all timers. Pending firings are dropped.
func (e *Embedded) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	for _, r := range e.rules {
		if r.timer != nil {
			r.timer.Stop()
		}
	}
}

// fire invokes the dispatch target for every attached target. Runs on the
// timer goroutine.
func (e *Embedded) fire(ruleName string) {
	e.mu.Lock()
	r, ok := e.rules[ruleName]
	if !ok || e.closed {
		e.mu.Unlock()
		return
	}
	_, granted := e.grants[ruleName]
	targets := make([]Target, len(r.targets))
	copy(targets, r.targets)
	e.mu.Unlock()

	// Mirrors the external substrate rejecting unauthorized invocations.
	if !granted {
		e.logger.Warn("dropping trigger without invoke grant", slog.String("rule", ruleName))
		return
	}

	for _, t := range targets {
		if e.dispatcher == nil {
			continue
		}
		if err := e.dispatcher.Dispatch(context.Background(), []byte(t.Input)); err != nil {
			// Delivery is fire-and-forget; the failure is only logged.
			e.logger.Error("dispatch failed",
				slog.String("rule", ruleName),
				slog.String("target", t.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}
