package substrate

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

// Compile-time check to verify that EventBridge implements Client.
var _ Client = (*EventBridge)(nil)

// invokePrincipal is the service principal EventBridge uses when it calls
// the Lambda dispatch target.
const invokePrincipal = "events.amazonaws.com"

// EventBridge implements Client against AWS EventBridge rules with a Lambda
// dispatch target. Rules live in the default event bus; invoke permissions
// are managed as per-rule statements on the target function policy.
type EventBridge struct {
	events    *eventbridge.Client
	functions *lambda.Client
}

// NewEventBridge creates a substrate client from an AWS SDK configuration.
func NewEventBridge(cfg aws.Config) *EventBridge {
	return &EventBridge{
		events:    eventbridge.NewFromConfig(cfg),
		functions: lambda.NewFromConfig(cfg),
	}
}

// PutRule registers a one-shot trigger and returns the rule ARN.
func (e *EventBridge) PutRule(ctx context.Context, name, expression string) (string, error) {
	out, err := e.events.PutRule(ctx, &eventbridge.PutRuleInput{
		Name:               aws.String(name),
		ScheduleExpression: aws.String(expression),
	})
	if err != nil {
		return "", &OpError{Op: "put_rule", Rule: name, Err: err}
	}
	return aws.ToString(out.RuleArn), nil
}

// GrantInvoke adds a per-rule invoke statement to the target function policy.
func (e *EventBridge) GrantInvoke(ctx context.Context, targetARN, statementID, sourceARN string) error {
	_, err := e.functions.AddPermission(ctx, &lambda.AddPermissionInput{
		Action:       aws.String("lambda:InvokeFunction"),
		FunctionName: aws.String(targetARN),
		Principal:    aws.String(invokePrincipal),
		StatementId:  aws.String(statementID),
		SourceArn:    aws.String(sourceARN),
	})
	if err != nil {
		return &OpError{Op: "grant_invoke", Rule: statementID, Err: err}
	}
	return nil
}

// AttachTarget binds the dispatch function and its static input to the rule.
func (e *EventBridge) AttachTarget(ctx context.Context, ruleName string, target Target) error {
	out, err := e.events.PutTargets(ctx, &eventbridge.PutTargetsInput{
		Rule: aws.String(ruleName),
		Targets: []ebtypes.Target{
			{
				Id:    aws.String(target.ID),
				Arn:   aws.String(target.ARN),
				Input: aws.String(target.Input),
			},
		},
	})
	if err != nil {
		return &OpError{Op: "attach_target", Rule: ruleName, Err: mapEventsError(err)}
	}
	if out.FailedEntryCount > 0 {
		return &OpError{Op: "attach_target", Rule: ruleName,
			Err: errors.New(aws.ToString(out.FailedEntries[0].ErrorMessage))}
	}
	return nil
}

// ListRules returns one page of rules matching the name prefix.
func (e *EventBridge) ListRules(ctx context.Context, prefix, nextToken string) (RulePage, error) {
	in := &eventbridge.ListRulesInput{}
	if prefix != "" {
		in.NamePrefix = aws.String(prefix)
	}
	if nextToken != "" {
		in.NextToken = aws.String(nextToken)
	}

	out, err := e.events.ListRules(ctx, in)
	if err != nil {
		return RulePage{}, &OpError{Op: "list_rules", Err: err}
	}

	page := RulePage{
		Rules:     make([]Rule, 0, len(out.Rules)),
		NextToken: aws.ToString(out.NextToken),
	}
	for _, r := range out.Rules {
		page.Rules = append(page.Rules, Rule{
			Name: aws.ToString(r.Name),
			ARN:  aws.ToString(r.Arn),
		})
	}
	return page, nil
}

// ListTargets returns the targets attached to a rule.
func (e *EventBridge) ListTargets(ctx context.Context, ruleName string) ([]Target, error) {
	out, err := e.events.ListTargetsByRule(ctx, &eventbridge.ListTargetsByRuleInput{
		Rule: aws.String(ruleName),
	})
	if err != nil {
		return nil, &OpError{Op: "list_targets", Rule: ruleName, Err: mapEventsError(err)}
	}

	targets := make([]Target, 0, len(out.Targets))
	for _, t := range out.Targets {
		targets = append(targets, Target{
			ID:    aws.ToString(t.Id),
			ARN:   aws.ToString(t.Arn),
			Input: aws.ToString(t.Input),
		})
	}
	return targets, nil
}

// RemoveTargets detaches targets from a rule.
func (e *EventBridge) RemoveTargets(ctx context.Context, ruleName string, targetIDs []string) error {
	out, err := e.events.RemoveTargets(ctx, &eventbridge.RemoveTargetsInput{
		Rule: aws.String(ruleName),
		Ids:  targetIDs,
	})
	if err != nil {
		return &OpError{Op: "remove_targets", Rule: ruleName, Err: mapEventsError(err)}
	}
	if out.FailedEntryCount > 0 {
		return &OpError{Op: "remove_targets", Rule: ruleName,
			Err: errors.New(aws.ToString(out.FailedEntries[0].ErrorMessage))}
	}
	return nil
}

// RemoveRule deletes the rule itself. EventBridge refuses while targets
// remain attached.
func (e *EventBridge) RemoveRule(ctx context.Context, ruleName string) error {
	_, err := e.events.DeleteRule(ctx, &eventbridge.DeleteRuleInput{
		Name: aws.String(ruleName),
	})
	if err != nil {
		return &OpError{Op: "remove_rule", Rule: ruleName, Err: mapEventsError(err)}
	}
	return nil
}

// RevokeInvoke removes the per-rule invoke statement from the target policy.
func (e *EventBridge) RevokeInvoke(ctx context.Context, targetARN, statementID string) error {
	_, err := e.functions.RemovePermission(ctx, &lambda.RemovePermissionInput{
		FunctionName: aws.String(targetARN),
		StatementId:  aws.String(statementID),
	})
	if err != nil {
		var rnf *lambdatypes.ResourceNotFoundException
		if errors.As(err, &rnf) {
			err = ErrPermissionNotFound
		}
		return &OpError{Op: "revoke_invoke", Rule: statementID, Err: err}
	}
	return nil
}

// mapEventsError converts the EventBridge not-found exception to the shared
// sentinel so callers can branch without importing AWS types.
func mapEventsError(err error) error {
	var rnf *ebtypes.ResourceNotFoundException
	if errors.As(err, &rnf) {
		return ErrRuleNotFound
	}
	return err
}
