package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Churchly/initializers"
	"github.com/Churchly/metrics"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const eventReminderWindow = 24 * time.Hour

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cron *cron.Cron
	now  func() time.Time
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cronLogger{}))),
		now:  time.Now,
	}
}

// AddJob registers fn under name. Failures are logged and counted; they
// never stop the schedule.
func (s *Scheduler) AddJob(name, spec string, fn func(now time.Time) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.run(name, fn)
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	return nil
}

func (s *Scheduler) run(name string, fn func(now time.Time) error) {
	start := s.now()
	err := fn(start)
	metrics.ScheduledJobRuns.WithLabelValues(name, metrics.Outcome(err)).Inc()

	entry := initializers.Log.WithFields(logrus.Fields{
		"job":      name,
		"duration": time.Since(start).String(),
	})
	if err != nil {
		entry.WithError(err).Error("scheduled job failed")
		return
	}
	entry.Debug("scheduled job finished")
}

// RegisterDefaultJobs adds the event reminder and reset code purge jobs
// using the schedules from config.
func (s *Scheduler) RegisterDefaultJobs(cfg *initializers.Config) error {
	err := s.AddJob("event_reminders", cfg.EventReminderSchedule, func(now time.Time) error {
		reminded, err := SendEventReminders(now, eventReminderWindow)
		if reminded > 0 {
			initializers.Log.WithField("events", reminded).Info("sent event reminders")
		}
		return err
	})
	if err != nil {
		return err
	}

	return s.AddJob("reset_code_purge", cfg.ResetCleanupSchedule, func(now time.Time) error {
		purged, err := PurgeResetCodes(now)
		if purged > 0 {
			initializers.Log.WithField("codes", purged).Info("purged password reset codes")
		}
		return err
	})
}

func (s *Scheduler) Start() {
	s.cron.Start()
	initializers.Log.WithField("jobs", len(s.cron.Entries())).Info("scheduler started")
}

// Stop waits for running jobs or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		initializers.Log.Warn("scheduler stop timed out with jobs still running")
	}
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	initializers.Log.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	initializers.Log.WithFields(kvFields(keysAndValues)).WithError(err).Error(msg)
}

func kvFields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
