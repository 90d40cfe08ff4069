package substrate

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// One-shot trigger expressions pin a rule to an exact wall-clock minute.
// The format is the EventBridge cron form with a fixed year, which makes the
// schedule fire at most once: "cron(minute hour day month ? year)".

var oneShotExprRe = regexp.MustCompile(`^cron\((\d{1,2}) (\d{1,2}) (\d{1,2}) (\d{1,2}) \? (\d{4})\)$`)

// OneShotExpression renders the trigger expression for the given UTC minute.
func OneShotExpression(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("cron(%02d %02d %02d %02d ? %04d)",
		t.Minute(), t.Hour(), t.Day(), int(t.Month()), t.Year())
}

// ParseOneShotExpression recovers the trigger minute from an expression
// produced by OneShotExpression. The embedded substrate uses it to arm its
// timers; malformed expressions are rejected the way the external substrate
// rejects them.
func ParseOneShotExpression(expr string) (time.Time, error) {
	m := oneShotExprRe.FindStringSubmatch(expr)
	if m == nil {
		return time.Time{}, fmt.Errorf("malformed one-shot expression %q", expr)
	}

	minute, _ := strconv.Atoi(m[1])
	hour, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	month, _ := strconv.Atoi(m[4])
	year, _ := strconv.Atoi(m[5])

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	// time.Date normalizes out-of-range fields (month 13 becomes January);
	// reject anything that did not round-trip.
	if t.Minute() != minute || t.Hour() != hour || t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, fmt.Errorf("invalid calendar fields in expression %q", expr)
	}

	return t, nil
}
