package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	wferrors "github.com/vnykmshr/wakeflow/pkg/common/errors"
)

// CronDescription provides human-readable information about a cron expression.
type CronDescription struct {
	Expression  string
	Description string
	NextRuns    []time.Time
	TimeZone    string
}

// newCronParser accepts six-field expressions (seconds first) and descriptors.
func newCronParser() cron.Parser {
	return cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// ValidateCronExpression reports whether expr can be used with ScheduleCron.
func ValidateCronExpression(expr string) error {
	if _, err := newCronParser().Parse(expr); err != nil {
		return wferrors.NewOperationError("scheduler", "ValidateCronExpression", err)
	}
	return nil
}

// DescribeCron parses expr and lists its next n run times after from, in
// from's location.
func DescribeCron(expr string, from time.Time, n int) (CronDescription, error) {
	schedule, err := newCronParser().Parse(expr)
	if err != nil {
		return CronDescription{}, wferrors.NewOperationError("scheduler", "DescribeCron", err)
	}

	next := make([]time.Time, 0, n)
	current := from
	for i := 0; i < n; i++ {
		current = schedule.Next(current)
		if current.IsZero() {
			break
		}
		next = append(next, current)
	}

	return CronDescription{
		Expression:  expr,
		Description: describe(expr),
		NextRuns:    next,
		TimeZone:    from.Location().String(),
	}, nil
}

func describe(expr string) string {
	switch expr {
	case "@yearly", "@annually":
		return "Once a year (January 1st at midnight)"
	case "@monthly":
		return "Once a month (1st day at midnight)"
	case "@weekly":
		return "Once a week (Sunday at midnight)"
	case "@daily", "@midnight":
		return "Once a day (at midnight)"
	case "@hourly":
		return "Once an hour (at minute 0)"
	}
	return fmt.Sprintf("Custom schedule: %s", expr)
}
