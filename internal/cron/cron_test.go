package cron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Playtag-Media/boxfleet/internal/apperr"
)

func TestParseValid(t *testing.T) {
	e, err := Parse("0 8 * * *")
	assert.NoError(t, err)
	assert.Equal(t, 0, e.Minute)
	assert.Equal(t, 8, e.Hour)

	e, err = Parse("30 23 * * 1")
	assert.NoError(t, err)
	assert.Equal(t, 30, e.Minute)
	assert.Equal(t, 23, e.Hour)
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"",
		"0 8",
		"0 8 * *",
		"0 8 * * * *",
		"* 8 * * *",
		"0 * * * *",
		"60 8 * * *",
		"-1 8 * * *",
		"0 24 * * *",
		"abc 8 * * *",
	}
	for _, expr := range cases {
		_, err := Parse(expr)
		assert.True(t, apperr.IsValidation(err), "expected validation error for %q, got %v", expr, err)
	}
}

func TestNextRollsForwardOneDay(t *testing.T) {
	e, err := Parse("0 8 * * *")
	assert.NoError(t, err)

	// created at 09:00, the 08:00 slot is past: fire tomorrow
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	next := e.Next(now)
	assert.Equal(t, time.Date(2026, 3, 11, 8, 0, 0, 0, time.Local), next)

	// run exactly at the slot advances by one day
	assert.Equal(t, time.Date(2026, 3, 12, 8, 0, 0, 0, time.Local), e.Next(next))
}

func TestNextSameDay(t *testing.T) {
	e, err := Parse("30 17 * * *")
	assert.NoError(t, err)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2026, 3, 10, 17, 30, 0, 0, time.Local), e.Next(now))
}

func TestNextIsStrictlyFuture(t *testing.T) {
	e, err := Parse("15 6 * * *")
	assert.NoError(t, err)

	now := time.Date(2026, 3, 10, 6, 15, 0, 0, time.Local)
	assert.True(t, e.Next(now).After(now))
}
