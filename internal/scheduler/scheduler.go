// Package scheduler runs the bot's recurring jobs: the evening preview,
// the morning report and the per-minute reminder sweep, all pinned to
// the operating time zone.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"cyclone-bot/internal/pkg/logger"
	"cyclone-bot/internal/service"
)

const (
	eveningPreviewSpec = "0 21 * * *"
	morningReportSpec  = "0 8 * * *"
	reminderSweepSpec  = "* * * * *"
)

type Scheduler struct {
	cron     *cron.Cron
	reports  service.IReportService
	reminder service.IReminderService
	logger   logger.ILogger
}

func New(reports service.IReportService, reminder service.IReminderService, zone string, log logger.ILogger) *Scheduler {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.UTC
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	return &Scheduler{
		cron:     c,
		reports:  reports,
		reminder: reminder,
		logger:   log,
	}
}

// Start registers the jobs and starts the cron loop. Jobs run with a
// fresh background context each tick.
func (s *Scheduler) Start() error {
	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}{
		{"evening_preview", eveningPreviewSpec, s.reports.SendEveningPreview},
		{"morning_report", morningReportSpec, s.reports.SendMorningReport},
		{"reminder_sweep", reminderSweepSpec, s.reminder.Sweep},
	}

	for _, job := range jobs {
		job := job
		_, err := s.cron.AddFunc(job.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := job.run(ctx); err != nil {
				s.logger.Error("Scheduler", "Job failed", map[string]interface{}{
					"job":   job.name,
					"error": err.Error(),
				})
			}
		})
		if err != nil {
			return err
		}
		s.logger.Info("Scheduler", "Job registered", map[string]interface{}{
			"job":      job.name,
			"schedule": job.spec,
		})
	}

	s.cron.Start()
	return nil
}

// Stop waits for running jobs before returning.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
