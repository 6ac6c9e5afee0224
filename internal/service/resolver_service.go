package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cyclone-bot/internal/pkg/logger"
	"cyclone-bot/pkg/googlecal"
	"cyclone-bot/pkg/notion"
	"cyclone-bot/pkg/store"
)

// ErrExpired means the pending analysis aged out of the cache and no
// record of a resolution exists. The user has to resend the message.
var ErrExpired = errors.New("操作已過期，請重新傳送訊息")

// ErrInFlight means another click is holding the claim right now.
var ErrInFlight = errors.New("正在處理中，請稍候")

// AlreadyResolvedError reports a click on a message whose action has
// already completed, carrying the earlier outcome.
type AlreadyResolvedError struct {
	Record *store.Record
}

func (e *AlreadyResolvedError) Error() string {
	return fmt.Sprintf("已於 %s 處理完成", e.Record.ResolvedAt.Format("15:04"))
}

// Outcome is what a resolved action produced, rendered by the handler.
type Outcome struct {
	Action     string
	Title      string
	GoogleLink string
	NotionURL  string
	Warning    string
}

// NotionWriter is the slice of the Notion service the resolver needs.
type NotionWriter interface {
	HasCalendarDB() bool
	CreateTaskPage(ctx context.Context, page notion.TaskPage) (*notion.PageRef, error)
}

type IResolverService interface {
	// Resolve runs the button state machine for one click.
	Resolve(ctx context.Context, messageID, action string) (*Outcome, error)

	// Execute performs an action directly, outside the claim protocol.
	// Slash commands use it with an analysis they built themselves.
	Execute(ctx context.Context, a *store.Analysis, action string) (*Outcome, error)
}

type resolverService struct {
	repo   AnalysisCache
	google googlecal.IService
	notion NotionWriter
	logger logger.ILogger
	loc    *time.Location
}

func NewResolverService(repo AnalysisCache, google googlecal.IService, notionSvc NotionWriter, log logger.ILogger) IResolverService {
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		loc = time.UTC
	}
	return &resolverService{
		repo:   repo,
		google: google,
		notion: notionSvc,
		logger: log,
		loc:    loc,
	}
}

func (rs *resolverService) Resolve(ctx context.Context, messageID, action string) (*Outcome, error) {
	// 1. Claim the message. Exactly one click wins a pending analysis.
	if !rs.repo.ClaimResolution(messageID) {
		if rec, ok := rs.repo.GetRecord(messageID); ok {
			return nil, &AlreadyResolvedError{Record: rec}
		}
		return nil, ErrInFlight
	}

	// 2. Load the pending analysis
	analysis, ok := rs.repo.GetAnalysis(messageID)
	if !ok {
		rs.repo.ReleaseClaim(messageID)
		if rec, recOk := rs.repo.GetRecord(messageID); recOk {
			return nil, &AlreadyResolvedError{Record: rec}
		}
		return nil, ErrExpired
	}

	// 3. Cancel needs no external calls
	if action == store.ActionCancel {
		rs.finish(messageID, &Outcome{Action: action, Title: analysis.Title})
		return &Outcome{Action: action, Title: analysis.Title}, nil
	}

	// 4. Execute. Failure releases the claim and keeps the cache so the
	// user can simply click again.
	outcome, err := rs.Execute(ctx, analysis, action)
	if err != nil {
		rs.repo.ReleaseClaim(messageID)
		rs.logger.Error("ResolverService", "Action failed, cache preserved", map[string]interface{}{
			"message": messageID,
			"action":  action,
			"error":   err.Error(),
		})
		return nil, err
	}

	rs.finish(messageID, outcome)
	return outcome, nil
}

// finish consumes the pending analysis and leaves a record behind for
// late clicks. The claim is intentionally not released.
func (rs *resolverService) finish(messageID string, outcome *Outcome) {
	rs.repo.DeleteAnalysis(messageID)
	rs.repo.SaveRecord(messageID, &store.Record{
		Action:     outcome.Action,
		Title:      outcome.Title,
		Link:       firstNonEmpty(outcome.GoogleLink, outcome.NotionURL),
		ResolvedAt: time.Now(),
	})
	rs.logger.Info("ResolverService", "Action resolved", map[string]interface{}{
		"message": messageID,
		"action":  outcome.Action,
		"title":   outcome.Title,
	})
}

func (rs *resolverService) Execute(ctx context.Context, a *store.Analysis, action string) (*Outcome, error) {
	switch action {
	case store.ActionEvent:
		return rs.executeEvent(ctx, a)
	case store.ActionTask:
		return rs.executeTask(ctx, a)
	case store.ActionNotion:
		return rs.executeNotion(ctx, a)
	case store.ActionCancel:
		return &Outcome{Action: action, Title: a.Title}, nil
	default:
		return nil, fmt.Errorf("未知的操作: %s", action)
	}
}

func (rs *resolverService) executeEvent(ctx context.Context, a *store.Analysis) (*Outcome, error) {
	link, err := rs.google.CreateEvent(ctx, a)
	if err != nil {
		if errors.Is(err, googlecal.ErrNotConfigured) {
			return nil, err
		}
		return nil, fmt.Errorf("建立 Google 日曆活動失敗: %w", err)
	}

	outcome := &Outcome{Action: store.ActionEvent, Title: a.Title, GoogleLink: link}
	rs.mirrorToNotion(ctx, a, outcome)
	return outcome, nil
}

func (rs *resolverService) executeTask(ctx context.Context, a *store.Analysis) (*Outcome, error) {
	link, err := rs.google.CreateTask(ctx, a)
	if err != nil {
		if errors.Is(err, googlecal.ErrNotConfigured) {
			return nil, err
		}
		return nil, fmt.Errorf("建立 Google 任務失敗: %w", err)
	}

	outcome := &Outcome{Action: store.ActionTask, Title: a.Title, GoogleLink: link}
	rs.mirrorToNotion(ctx, a, outcome)
	return outcome, nil
}

func (rs *resolverService) executeNotion(ctx context.Context, a *store.Analysis) (*Outcome, error) {
	ref, err := rs.notion.CreateTaskPage(ctx, notion.TaskPage{
		Analysis: a,
		RemindAt: rs.remindAt(a),
	})
	if err != nil {
		return nil, fmt.Errorf("儲存到 Notion 失敗: %w", err)
	}
	return &Outcome{Action: store.ActionNotion, Title: a.Title, NotionURL: ref.URL}, nil
}

// mirrorToNotion keeps the Notion calendar database in sync after a
// Google-side action. Mirror failures only degrade to a warning.
func (rs *resolverService) mirrorToNotion(ctx context.Context, a *store.Analysis, outcome *Outcome) {
	if !rs.notion.HasCalendarDB() {
		return
	}
	ref, err := rs.notion.CreateTaskPage(ctx, notion.TaskPage{
		Analysis:   a,
		GoogleLink: outcome.GoogleLink,
		RemindAt:   rs.remindAt(a),
	})
	if err != nil {
		outcome.Warning = "Notion 同步失敗"
		rs.logger.Warn("ResolverService", "Notion mirror failed", map[string]interface{}{
			"title": a.Title,
			"error": err.Error(),
		})
		return
	}
	outcome.NotionURL = ref.URL
}

// remindAt turns the extracted reminder into an absolute "date time"
// string, empty when no reminder applies.
func (rs *resolverService) remindAt(a *store.Analysis) string {
	if !a.Reminder.Enabled {
		return ""
	}
	switch a.Reminder.Mode {
	case store.ReminderModeExact:
		return a.Reminder.ExactTime
	case store.ReminderModeBefore:
		startTime := a.StartTime
		if startTime == "" {
			startTime = "09:00"
		}
		start, err := time.ParseInLocation("2006-01-02 15:04", a.EffectiveStartDate()+" "+startTime, rs.loc)
		if err != nil {
			return ""
		}
		return start.Add(-time.Duration(a.Reminder.BeforeMinutes) * time.Minute).Format("2006-01-02 15:04")
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
