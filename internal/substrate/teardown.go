package substrate

import "context"

// Teardown removes one rule from the substrate in the mandatory order:
// detach targets, delete the rule, revoke the invoke permission (the exact
// reverse of creation). Detaching first is required because the substrate
// refuses to delete a rule with targets still attached.
//
// Teardown is safely repeatable: running it against an already-removed rule
// returns ErrRuleNotFound (wrapped), which callers treat as non-fatal.
func Teardown(ctx context.Context, c Client, ruleName string) error {
	targets, err := c.ListTargets(ctx, ruleName)
	if err != nil {
		return err
	}

	if len(targets) > 0 {
		ids := make([]string, 0, len(targets))
		for _, t := range targets {
			ids = append(ids, t.ID)
		}
		if err := c.RemoveTargets(ctx, ruleName, ids); err != nil {
			return err
		}
	}

	if err := c.RemoveRule(ctx, ruleName); err != nil {
		return err
	}

	// The statement ID equals the rule name, so each target ARN carries at
	// most one statement for this rule.
	for _, t := range targets {
		if err := c.RevokeInvoke(ctx, t.ARN, ruleName); err != nil {
			return err
		}
	}

	return nil
}
