// Package substrate abstracts the external time-triggered rule store: the
// system that holds named one-shot rules and wakes up at the trigger minute
// to invoke the dispatch target.
//
// Two implementations exist: EventBridge (AWS EventBridge rules targeting a
// Lambda dispatch function) and Embedded (in-process timers for dev and
// tests). Both enforce the same lifecycle ordering: a target may only be
// attached after the invoke permission is granted, and a rule may only be
// removed after its targets are detached.
package substrate

import (
	"context"
	"errors"
	"fmt"
)

// Rule is a named, time-triggered registration in the substrate.
type Rule struct {
	// Name is the globally unique rule identifier. Rules created by the
	// scheduling engine carry a YYYYMMDDHHMM prefix plus a random suffix.
	Name string

	// ARN is the substrate-assigned address of the rule.
	ARN string
}

// Target binds the dispatch target and its static input payload to a rule.
type Target struct {
	// ID identifies the target within the rule (rule name + "-target").
	ID string

	// ARN is the addressable identifier of the dispatch target.
	ARN string

	// Input is the opaque JSON document handed to the dispatch target
	// verbatim at trigger time.
	Input string
}

// RulePage is one page of a paginated rule listing. An empty NextToken
// means the listing is complete; otherwise the caller must loop until the
// token is absent to see the full result set.
type RulePage struct {
	Rules     []Rule
	NextToken string
}

// Client is the rule store adapter. Every operation delegates to the
// substrate and is independently retryable.
type Client interface {
	// PutRule registers a one-shot trigger and returns the rule ARN.
	// Registering a name that already exists is a fatal error for that
	// request; the caller must retry with a new identifier.
	PutRule(ctx context.Context, name, expression string) (string, error)

	// GrantInvoke authorizes the substrate to call the dispatch target on
	// behalf of one rule. The statement ID equals the rule name, giving a
	// 1:1 permission-to-rule mapping that teardown can cleanly revoke.
	GrantInvoke(ctx context.Context, targetARN, statementID, sourceARN string) error

	// AttachTarget binds the dispatch target and its static input to the
	// rule. Must only be called after GrantInvoke; the inverse ordering
	// would let the substrate attempt an unauthorized invocation.
	AttachTarget(ctx context.Context, ruleName string, target Target) error

	// ListRules returns one page of rules whose names start with prefix.
	// An empty prefix matches everything.
	ListRules(ctx context.Context, prefix, nextToken string) (RulePage, error)

	// ListTargets returns the targets attached to a rule. Used both for
	// reading back the stored payload and for discovering what to detach
	// during teardown.
	ListTargets(ctx context.Context, ruleName string) ([]Target, error)

	// RemoveTargets detaches targets from a rule. Detaching is a
	// precondition for RemoveRule.
	RemoveTargets(ctx context.Context, ruleName string, targetIDs []string) error

	// RemoveRule deletes the rule. Fails while targets remain attached.
	RemoveRule(ctx context.Context, ruleName string) error

	// RevokeInvoke removes the invoke permission statement.
	RevokeInvoke(ctx context.Context, targetARN, statementID string) error
}

// Sentinel errors shared by all implementations.
var (
	// ErrRuleNotFound reports an operation against a rule the substrate no
	// longer knows. Teardown treats it as non-fatal.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrRuleExists reports a rule-name collision on PutRule.
	ErrRuleExists = errors.New("rule already exists")

	// ErrPermissionNotFound reports a revoke for a statement that is
	// already gone.
	ErrPermissionNotFound = errors.New("permission statement not found")
)

// OpError wraps a failed substrate call with the operation and rule name,
// so callers and logs can tell which step of a multi-step sequence broke.
type OpError struct {
	Op   string
	Rule string
	Err  error
}

func (e *OpError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("substrate: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("substrate: %s %q: %v", e.Op, e.Rule, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }
