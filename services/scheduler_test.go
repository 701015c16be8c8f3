package services

import (
	"errors"
	"testing"
	"time"

	"github.com/Churchly/initializers"
	"github.com/Churchly/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerAddJobRejectsBadSpec(t *testing.T) {
	s := NewScheduler()

	err := s.AddJob("broken", "not a schedule", func(time.Time) error { return nil })
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestSchedulerRunRecordsOutcome(t *testing.T) {
	s := NewScheduler()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	var seen time.Time
	before := testutil.ToFloat64(metrics.ScheduledJobRuns.WithLabelValues("test_ok", "success"))
	s.run("test_ok", func(now time.Time) error {
		seen = now
		return nil
	})
	assert.Equal(t, fixed, seen)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ScheduledJobRuns.WithLabelValues("test_ok", "success")))

	before = testutil.ToFloat64(metrics.ScheduledJobRuns.WithLabelValues("test_fail", "error"))
	s.run("test_fail", func(time.Time) error { return errors.New("boom") })
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ScheduledJobRuns.WithLabelValues("test_fail", "error")))
}

func TestSchedulerRegisterDefaultJobs(t *testing.T) {
	s := NewScheduler()
	cfg := initializers.DefaultConfig()

	require.NoError(t, s.RegisterDefaultJobs(cfg))
	assert.Len(t, s.cron.Entries(), 2)

	cfg.EventReminderSchedule = "every now and then"
	assert.Error(t, NewScheduler().RegisterDefaultJobs(cfg))
}
