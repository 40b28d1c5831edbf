// Package cron parses the restricted five-field cron subset the scheduler
// supports: a numeric minute and hour fire once per day; the day, month,
// and weekday fields are accepted but never evaluated.
package cron

import (
	"strconv"
	"strings"
	"time"

	"github.com/Playtag-Media/boxfleet/internal/apperr"
)

// Expr is a parsed daily hour:minute trigger.
type Expr struct {
	Minute int
	Hour   int
	raw    string
}

// Parse validates a "minute hour * * *"-style expression. Minute and hour
// must be plain integers; wildcards there would mean sub-daily firing,
// which the scheduler does not support, so they are rejected outright.
func Parse(expr string) (Expr, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return Expr{}, apperr.Invalid("cron_expr", "expected 5 fields, got %d", len(fields))
	}

	minute, err := strconv.Atoi(fields[0])
	if err != nil {
		return Expr{}, apperr.Invalid("cron_expr", "minute %q is not a number", fields[0])
	}
	if minute < 0 || minute > 59 {
		return Expr{}, apperr.Invalid("cron_expr", "minute %d out of range", minute)
	}

	hour, err := strconv.Atoi(fields[1])
	if err != nil {
		return Expr{}, apperr.Invalid("cron_expr", "hour %q is not a number", fields[1])
	}
	if hour < 0 || hour > 23 {
		return Expr{}, apperr.Invalid("cron_expr", "hour %d out of range", hour)
	}

	return Expr{Minute: minute, Hour: hour, raw: expr}, nil
}

// Next returns the first hour:minute firing strictly after the given time.
func (e Expr) Next(after time.Time) time.Time {
	next := time.Date(after.Year(), after.Month(), after.Day(), e.Hour, e.Minute, 0, 0, after.Location())
	if !next.After(after) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// String returns the original expression text.
func (e Expr) String() string { return e.raw }
