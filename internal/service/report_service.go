package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cyclone-bot/internal/pkg/logger"
	"cyclone-bot/pkg/clock"
	"cyclone-bot/pkg/events"
	"cyclone-bot/pkg/notion"
)

// taskHorizonDays bounds how far ahead the morning report looks for
// pending tasks.
const taskHorizonDays = 7

// NotionQuerier is the read side of the Notion service the reports use.
type NotionQuerier interface {
	QueryEventsOn(ctx context.Context, day time.Time) ([]notion.EventItem, error)
	QueryOpenTasks(ctx context.Context, until time.Time) ([]notion.TaskItem, error)
	QueryInfoStats(ctx context.Context) (*notion.InfoStats, error)
}

type IReportService interface {
	// SendEveningPreview posts tomorrow's schedule to the notify channel.
	SendEveningPreview(ctx context.Context) error

	// SendMorningReport posts today's schedule and pending tasks.
	SendMorningReport(ctx context.Context) error

	// BuildDaySummary renders the schedule for one day, used by /today.
	BuildDaySummary(ctx context.Context, day time.Time) (string, error)

	// BuildStatus renders the info database statistics, used by /status.
	BuildStatus(ctx context.Context) (string, error)
}

type reportService struct {
	notion          NotionQuerier
	publisher       IPublisherService
	clock           clock.Clock
	notifyChannelID string
	notifyUserID    string
	logger          logger.ILogger
}

func NewReportService(
	querier NotionQuerier,
	publisher IPublisherService,
	c clock.Clock,
	notifyChannelID, notifyUserID string,
	log logger.ILogger,
) IReportService {
	return &reportService{
		notion:          querier,
		publisher:       publisher,
		clock:           c,
		notifyChannelID: notifyChannelID,
		notifyUserID:    notifyUserID,
		logger:          log,
	}
}

func (rs *reportService) SendEveningPreview(ctx context.Context) error {
	if rs.notifyChannelID == "" {
		return nil
	}
	tomorrow := rs.clock.Now().AddDate(0, 0, 1)
	items, err := rs.notion.QueryEventsOn(ctx, tomorrow)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🌙 **明日行程預告** (%s)\n\n", tomorrow.Format("01/02"))
	if len(items) == 0 {
		b.WriteString("明天沒有排定的行程，好好休息！")
	} else {
		writeEventLines(&b, items)
	}
	return rs.publish(ctx, events.TypeDailyReport, b.String())
}

func (rs *reportService) SendMorningReport(ctx context.Context) error {
	if rs.notifyChannelID == "" {
		return nil
	}
	summary, err := rs.BuildDaySummary(ctx, rs.clock.Now())
	if err != nil {
		return err
	}
	return rs.publish(ctx, events.TypeDailyReport, "☀️ **今日行程提醒**\n\n"+summary)
}

func (rs *reportService) BuildDaySummary(ctx context.Context, day time.Time) (string, error) {
	dayEvents, err := rs.notion.QueryEventsOn(ctx, day)
	if err != nil {
		return "", err
	}
	tasks, err := rs.notion.QueryOpenTasks(ctx, day.AddDate(0, 0, taskHorizonDays))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 **%s**\n\n", day.Format("2006/01/02"))

	if len(dayEvents) == 0 {
		b.WriteString("今天沒有排定的活動。\n")
	} else {
		writeEventLines(&b, dayEvents)
	}

	if len(tasks) > 0 {
		fmt.Fprintf(&b, "\n✅ **待辦任務** (%d 天內)\n", taskHorizonDays)
		for _, task := range tasks {
			fmt.Fprintf(&b, "%s %s（%s）\n", priorityEmoji(task.Priority), task.Title, task.Due.Format("01/02"))
		}
	}
	return b.String(), nil
}

func (rs *reportService) BuildStatus(ctx context.Context) (string, error) {
	stats, err := rs.notion.QueryInfoStats(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 **資訊庫統計**\n\n總共收藏 %d 筆\n", stats.Total)

	kinds := make([]string, 0, len(stats.ByType))
	for kind := range stats.ByType {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(&b, "・%s：%d\n", kind, stats.ByType[kind])
	}
	return b.String(), nil
}

func (rs *reportService) publish(ctx context.Context, eventType, content string) error {
	if rs.notifyUserID != "" {
		content = fmt.Sprintf("<@%s>\n%s", rs.notifyUserID, content)
	}
	err := rs.publisher.Publish(ctx, events.NewChannelMessage(eventType, rs.notifyChannelID, content))
	if err != nil {
		rs.logger.Error("ReportService", "Failed to publish report", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
	return err
}

func writeEventLines(b *strings.Builder, items []notion.EventItem) {
	for _, item := range items {
		when := "全天"
		if item.HasTime {
			when = item.Start.Format("15:04")
		}
		fmt.Fprintf(b, "🕐 %s %s", when, item.Title)
		if item.Location != "" {
			fmt.Fprintf(b, "（%s）", item.Location)
		}
		b.WriteString("\n")
	}
}

func priorityEmoji(priority string) string {
	switch priority {
	case "高":
		return "🔴"
	case "低":
		return "🟢"
	default:
		return "🟡"
	}
}
