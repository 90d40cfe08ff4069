package scheduler

import "fmt"

// ValidationError rejects a scheduling request before any external mutation
// happens. Msg is safe to return to the caller verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// StepError reports a failure inside the rule creation sequence. The
// sequence has no automatic compensation: when Step is anything after
// "put_rule" the rule is already registered in the substrate but the
// request still fails, leaving an orphan for the date-prefix sweep to
// collect. The step name makes that state visible in logs and metrics.
type StepError struct {
	Step string
	Rule string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("schedule step %s failed for rule %q: %v", e.Step, e.Rule, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
