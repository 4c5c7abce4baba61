package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronExpression(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{name: "every minute", expr: "* * * * *"},
		{name: "every minute step", expr: "*/1 * * * *"},
		{name: "daily digest", expr: "0 5 * * *"},
		{name: "every 5 minutes", expr: "*/5 * * * *"},
		{name: "range", expr: "0 8-17 * * *"},
		{name: "list", expr: "0 5,17 * * *"},
		{name: "weekday", expr: "0 5 * * 1"},
		{name: "too few fields", expr: "0 5 * *", wantErr: true},
		{name: "too many fields", expr: "0 5 * * * *", wantErr: true},
		{name: "minute out of range", expr: "61 * * * *", wantErr: true},
		{name: "bad step", expr: "*/0 * * * *", wantErr: true},
		{name: "garbage", expr: "x * * * *", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce, err := ParseCronExpression(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expr, ce.String())
		})
	}
}

func TestCronExpression_Next(t *testing.T) {
	loc := time.FixedZone("WIB", 7*60*60)

	t.Run("every minute advances exactly one minute", func(t *testing.T) {
		ce, err := ParseCronExpression("*/1 * * * *")
		require.NoError(t, err)

		after := time.Date(2025, 3, 10, 4, 58, 30, 0, loc)
		next := ce.Next(after)
		assert.Equal(t, time.Date(2025, 3, 10, 4, 59, 0, 0, loc), next)

		// One fire per minute: Next from the fire time is the next minute.
		assert.Equal(t, time.Date(2025, 3, 10, 5, 0, 0, 0, loc), ce.Next(next))
	})

	t.Run("daily digest fires at 05:00", func(t *testing.T) {
		ce, err := ParseCronExpression("0 5 * * *")
		require.NoError(t, err)

		after := time.Date(2025, 3, 10, 4, 30, 0, 0, loc)
		assert.Equal(t, time.Date(2025, 3, 10, 5, 0, 0, 0, loc), ce.Next(after))

		// After 05:00 has passed, the next fire is tomorrow.
		after = time.Date(2025, 3, 10, 5, 0, 0, 0, loc)
		assert.Equal(t, time.Date(2025, 3, 11, 5, 0, 0, 0, loc), ce.Next(after))
	})

	t.Run("next is always strictly after input", func(t *testing.T) {
		ce, err := ParseCronExpression("* * * * *")
		require.NoError(t, err)

		after := time.Date(2025, 3, 10, 5, 0, 0, 0, loc)
		assert.True(t, ce.Next(after).After(after))
	})

	t.Run("weekday constraint", func(t *testing.T) {
		// 2025-03-10 is a Monday.
		ce, err := ParseCronExpression("0 5 * * 0")
		require.NoError(t, err)

		after := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
		next := ce.Next(after)
		assert.Equal(t, time.Sunday, next.Weekday())
		assert.Equal(t, time.Date(2025, 3, 16, 5, 0, 0, 0, loc), next)
	})
}

func TestParseField(t *testing.T) {
	t.Run("wildcard covers full range", func(t *testing.T) {
		vals, err := parseField("*", 0, 59)
		require.NoError(t, err)
		assert.Len(t, vals, 60)
	})

	t.Run("step from wildcard", func(t *testing.T) {
		vals, err := parseField("*/15", 0, 59)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 15, 30, 45}, vals)
	})

	t.Run("range", func(t *testing.T) {
		vals, err := parseField("8-11", 0, 23)
		require.NoError(t, err)
		assert.Equal(t, []int{8, 9, 10, 11}, vals)
	})

	t.Run("list", func(t *testing.T) {
		vals, err := parseField("17,5", 0, 23)
		require.NoError(t, err)
		assert.Equal(t, []int{5, 17}, vals)
	})

	t.Run("single out of range", func(t *testing.T) {
		_, err := parseField("24", 0, 23)
		assert.Error(t, err)
	})
}

func TestCronScheduler_AddAndToggleJobs(t *testing.T) {
	cs := NewCronScheduler()

	err := cs.AddJob("digest", EveryDay5AM, nopJob{})
	require.NoError(t, err)

	err = cs.AddJob("broken", "nope", nopJob{})
	assert.Error(t, err)

	status, ok := cs.GetJobStatus("digest")
	require.True(t, ok)
	assert.True(t, status.Enabled)
	assert.False(t, status.NextRun.IsZero())

	require.NoError(t, cs.DisableJob("digest"))
	status, _ = cs.GetJobStatus("digest")
	assert.False(t, status.Enabled)

	require.NoError(t, cs.EnableJob("digest"))

	err = cs.DisableJob("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	jobs := cs.ListJobs()
	assert.Len(t, jobs, 1)
}

type nopJob struct{}

func (nopJob) Name() string                { return "nop" }
func (nopJob) Run(_ context.Context) error { return nil }
func (nopJob) Description() string         { return "does nothing" }
