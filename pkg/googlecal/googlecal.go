package googlecal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/tasks/v1"

	"cyclone-bot/pkg/store"
)

// ErrNotConfigured distinguishes a missing OAuth setup from an actual
// request failure, so callers can degrade instead of retrying.
var ErrNotConfigured = errors.New("google calendar 未設定")

const defaultEventDuration = time.Hour

var popupReminderMinutes = []int64{60, 1440}

// IService creates calendar events and tasks from extracted analyses.
type IService interface {
	Available() bool
	CreateEvent(ctx context.Context, a *store.Analysis) (string, error)
	CreateTask(ctx context.Context, a *store.Analysis) (string, error)
}

type service struct {
	calendarID string
	tokenSrc   oauth2.TokenSource
	loc        *time.Location
}

// Config carries the OAuth2 installed-app credentials and target
// calendar.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	CalendarID   string
}

func NewService(cfg Config) IService {
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		loc = time.UTC
	}
	s := &service{calendarID: cfg.CalendarID, loc: loc}
	if s.calendarID == "" {
		s.calendarID = "primary"
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return s
	}
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			calendar.CalendarEventsScope,
			tasks.TasksScope,
		},
	}
	s.tokenSrc = conf.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken})
	return s
}

func (s *service) Available() bool {
	return s.tokenSrc != nil
}

// CreateEvent inserts a calendar event and returns its htmlLink.
func (s *service) CreateEvent(ctx context.Context, a *store.Analysis) (string, error) {
	if !s.Available() {
		return "", ErrNotConfigured
	}
	svc, err := calendar.NewService(ctx, option.WithTokenSource(s.tokenSrc))
	if err != nil {
		return "", fmt.Errorf("calendar service: %w", err)
	}

	start, end, err := s.eventWindow(a)
	if err != nil {
		return "", err
	}
	event := &calendar.Event{
		Summary:     a.Title,
		Location:    a.Location,
		Description: a.Summary,
		Start:       start,
		End:         end,
		Reminders: &calendar.EventReminders{
			UseDefault:      false,
			ForceSendFields: []string{"UseDefault"},
			Overrides:       popupOverrides(),
		},
	}

	created, err := svc.Events.Insert(s.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return created.HtmlLink, nil
}

// CreateTask inserts the task into the account's first task list and
// returns a link to Google Tasks.
func (s *service) CreateTask(ctx context.Context, a *store.Analysis) (string, error) {
	if !s.Available() {
		return "", ErrNotConfigured
	}
	svc, err := tasks.NewService(ctx, option.WithTokenSource(s.tokenSrc))
	if err != nil {
		return "", fmt.Errorf("tasks service: %w", err)
	}

	lists, err := svc.Tasklists.List().MaxResults(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("list tasklists: %w", err)
	}
	if len(lists.Items) == 0 {
		return "", errors.New("帳號沒有任何任務清單")
	}

	task := &tasks.Task{
		Title: a.Title,
		Notes: a.Summary,
	}
	if due := a.EffectiveStartDate(); due != "" {
		parsed, parseErr := time.ParseInLocation("2006-01-02", due, s.loc)
		if parseErr != nil {
			return "", fmt.Errorf("parse due date %q: %w", due, parseErr)
		}
		// Google Tasks only keeps the date part of due.
		task.Due = parsed.UTC().Format(time.RFC3339)
	}

	if _, err := svc.Tasks.Insert(lists.Items[0].Id, task).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("insert task: %w", err)
	}
	return "https://tasks.google.com/", nil
}

// eventWindow builds the start and end times, all-day when no time was
// extracted, and defaults the end to one hour after the start.
func (s *service) eventWindow(a *store.Analysis) (*calendar.EventDateTime, *calendar.EventDateTime, error) {
	startDate := a.EffectiveStartDate()
	if startDate == "" {
		return nil, nil, errors.New("分析結果缺少日期")
	}

	if a.StartTime == "" {
		endDate := a.EndDate
		if endDate == "" {
			endDate = startDate
		}
		// All-day events use exclusive end dates.
		parsedEnd, err := time.ParseInLocation("2006-01-02", endDate, s.loc)
		if err != nil {
			return nil, nil, fmt.Errorf("parse end date %q: %w", endDate, err)
		}
		return &calendar.EventDateTime{Date: startDate},
			&calendar.EventDateTime{Date: parsedEnd.AddDate(0, 0, 1).Format("2006-01-02")},
			nil
	}

	start, err := time.ParseInLocation("2006-01-02 15:04", startDate+" "+a.StartTime, s.loc)
	if err != nil {
		return nil, nil, fmt.Errorf("parse start %q %q: %w", startDate, a.StartTime, err)
	}
	end := start.Add(defaultEventDuration)
	if a.EndTime != "" {
		endDate := a.EndDate
		if endDate == "" {
			endDate = startDate
		}
		if parsed, endErr := time.ParseInLocation("2006-01-02 15:04", endDate+" "+a.EndTime, s.loc); endErr == nil && parsed.After(start) {
			end = parsed
		}
	}
	return &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: s.loc.String()},
		&calendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: s.loc.String()},
		nil
}

func popupOverrides() []*calendar.EventReminder {
	overrides := make([]*calendar.EventReminder, 0, len(popupReminderMinutes))
	for _, minutes := range popupReminderMinutes {
		overrides = append(overrides, &calendar.EventReminder{Method: "popup", Minutes: minutes})
	}
	return overrides
}
