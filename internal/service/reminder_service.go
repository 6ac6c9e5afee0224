package service

import (
	"context"
	"fmt"
	"time"

	"cyclone-bot/internal/pkg/logger"
	"cyclone-bot/pkg/clock"
	"cyclone-bot/pkg/events"
	"cyclone-bot/pkg/notion"
)

// ReminderSource is the slice of the Notion service the sweep uses.
type ReminderSource interface {
	QueryDueReminders(ctx context.Context, now time.Time) ([]notion.ReminderItem, error)
	MarkReminderSent(ctx context.Context, pageID string) error
}

type IReminderService interface {
	// Sweep delivers every due reminder exactly once.
	Sweep(ctx context.Context) error
}

type reminderService struct {
	notion          ReminderSource
	publisher       IPublisherService
	clock           clock.Clock
	notifyChannelID string
	logger          logger.ILogger
}

func NewReminderService(
	source ReminderSource,
	publisher IPublisherService,
	c clock.Clock,
	notifyChannelID string,
	log logger.ILogger,
) IReminderService {
	return &reminderService{
		notion:          source,
		publisher:       publisher,
		clock:           c,
		notifyChannelID: notifyChannelID,
		logger:          log,
	}
}

func (rs *reminderService) Sweep(ctx context.Context) error {
	if rs.notifyChannelID == "" {
		return nil
	}
	due, err := rs.notion.QueryDueReminders(ctx, rs.clock.Now())
	if err != nil {
		return fmt.Errorf("query due reminders: %w", err)
	}

	for _, item := range due {
		// Mark before delivering so the per-minute sweep never sends
		// the same reminder twice.
		if err := rs.notion.MarkReminderSent(ctx, item.PageID); err != nil {
			rs.logger.Error("ReminderService", "Failed to mark reminder sent", map[string]interface{}{
				"page":  item.PageID,
				"error": err.Error(),
			})
			continue
		}

		content := formatReminder(item)
		if err := rs.publisher.Publish(ctx, events.NewChannelMessage(events.TypeReminderDue, rs.notifyChannelID, content)); err != nil {
			rs.logger.Error("ReminderService", "Failed to publish reminder", map[string]interface{}{
				"page":  item.PageID,
				"error": err.Error(),
			})
		}
	}
	return nil
}

func formatReminder(item notion.ReminderItem) string {
	label := "任務"
	if item.Kind == "活動" {
		label = "活動"
	}
	content := fmt.Sprintf("⏰ **%s提醒**\n%s", label, item.Title)
	if !item.Start.IsZero() {
		content += fmt.Sprintf("\n🕐 %s", item.Start.Format("2006/01/02 15:04"))
	}
	if item.URL != "" {
		content += fmt.Sprintf("\n🔗 %s", item.URL)
	}
	return content
}
