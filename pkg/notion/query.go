package notion

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"
)

// EventItem is one calendar row rendered into reports.
type EventItem struct {
	Title    string
	Start    time.Time
	HasTime  bool
	Location string
	URL      string
}

// TaskItem is one pending task rendered into reports.
type TaskItem struct {
	Title    string
	Due      time.Time
	Priority string
	URL      string
}

// ReminderItem is a page whose reminder time has come due.
type ReminderItem struct {
	PageID string
	Title  string
	Kind   string
	Start  time.Time
	URL    string
}

// InfoStats counts archived posts per source type.
type InfoStats struct {
	Total  int
	ByType map[string]int
}

// QueryEventsOn returns the 活動 rows whose 日期 falls on the given day.
func (s *Service) QueryEventsOn(ctx context.Context, day time.Time) ([]EventItem, error) {
	if !s.HasCalendarDB() {
		return nil, nil
	}
	start, end := dayBounds(day, s.loc)
	resp, err := s.client.Database.Query(ctx, s.calendarDBID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.AndCompoundFilter{
			notionapi.PropertyFilter{Property: "類型", Select: &notionapi.SelectFilterCondition{Equals: "活動"}},
			notionapi.PropertyFilter{Property: "日期", Date: &notionapi.DateFilterCondition{OnOrAfter: &start}},
			notionapi.PropertyFilter{Property: "日期", Date: &notionapi.DateFilterCondition{Before: &end}},
		},
		Sorts:    []notionapi.SortObject{{Property: "日期", Direction: notionapi.SortOrderASC}},
		PageSize: 100,
	})
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	items := make([]EventItem, 0, len(resp.Results))
	for _, page := range resp.Results {
		when, ok := dateStart(page, "日期")
		if !ok {
			continue
		}
		items = append(items, EventItem{
			Title:    plainTitle(page),
			Start:    when,
			HasTime:  !isMidnight(when),
			Location: richTextPlain(page, "地點"),
			URL:      pageURL(string(page.ID)),
		})
	}
	return items, nil
}

// QueryOpenTasks returns 待處理 tasks due up to and including the given
// horizon, overdue ones included, earliest first.
func (s *Service) QueryOpenTasks(ctx context.Context, until time.Time) ([]TaskItem, error) {
	if !s.HasCalendarDB() {
		return nil, nil
	}
	limit := notionapi.Date(until)
	resp, err := s.client.Database.Query(ctx, s.calendarDBID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.AndCompoundFilter{
			notionapi.PropertyFilter{Property: "類型", Select: &notionapi.SelectFilterCondition{Equals: "任務"}},
			notionapi.PropertyFilter{Property: "狀態", Select: &notionapi.SelectFilterCondition{Equals: "待處理"}},
			notionapi.PropertyFilter{Property: "日期", Date: &notionapi.DateFilterCondition{OnOrBefore: &limit}},
		},
		Sorts:    []notionapi.SortObject{{Property: "日期", Direction: notionapi.SortOrderASC}},
		PageSize: 100,
	})
	if err != nil {
		return nil, fmt.Errorf("query open tasks: %w", err)
	}

	items := make([]TaskItem, 0, len(resp.Results))
	for _, page := range resp.Results {
		due, ok := dateStart(page, "日期")
		if !ok {
			continue
		}
		items = append(items, TaskItem{
			Title:    plainTitle(page),
			Due:      due,
			Priority: selectName(page, "優先級"),
			URL:      pageURL(string(page.ID)),
		})
	}
	return items, nil
}

// QueryDueReminders returns pages whose 提醒時間 has passed and whose
// 已提醒 flag is still unset.
func (s *Service) QueryDueReminders(ctx context.Context, now time.Time) ([]ReminderItem, error) {
	if !s.HasCalendarDB() {
		return nil, nil
	}
	cutoff := notionapi.Date(now)
	resp, err := s.client.Database.Query(ctx, s.calendarDBID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.AndCompoundFilter{
			notionapi.PropertyFilter{Property: "提醒時間", Date: &notionapi.DateFilterCondition{OnOrBefore: &cutoff}},
			notionapi.PropertyFilter{Property: "已提醒", Checkbox: &notionapi.CheckboxFilterCondition{Equals: false}},
		},
		PageSize: 100,
	})
	if err != nil {
		return nil, fmt.Errorf("query due reminders: %w", err)
	}

	items := make([]ReminderItem, 0, len(resp.Results))
	for _, page := range resp.Results {
		item := ReminderItem{
			PageID: string(page.ID),
			Title:  plainTitle(page),
			Kind:   selectName(page, "類型"),
			URL:    pageURL(string(page.ID)),
		}
		if when, ok := dateStart(page, "日期"); ok {
			item.Start = when
		}
		items = append(items, item)
	}
	return items, nil
}

// MarkReminderSent flips 已提醒 so the sweep never fires twice for one
// page.
func (s *Service) MarkReminderSent(ctx context.Context, pageID string) error {
	_, err := s.client.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			"已提醒": notionapi.CheckboxProperty{Checkbox: true},
		},
	})
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}

// QueryInfoStats walks the info database and counts pages per 類型.
func (s *Service) QueryInfoStats(ctx context.Context) (*InfoStats, error) {
	stats := &InfoStats{ByType: map[string]int{}}
	var cursor notionapi.Cursor
	for {
		resp, err := s.client.Database.Query(ctx, s.infoDBID, &notionapi.DatabaseQueryRequest{
			StartCursor: cursor,
			PageSize:    100,
		})
		if err != nil {
			return nil, fmt.Errorf("query info stats: %w", err)
		}
		for _, page := range resp.Results {
			stats.Total++
			kind := selectName(page, "類型")
			if kind == "" {
				kind = "其他"
			}
			stats.ByType[kind]++
		}
		if !resp.HasMore {
			return stats, nil
		}
		cursor = resp.NextCursor
	}
}

func dayBounds(day time.Time, loc *time.Location) (notionapi.Date, notionapi.Date) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	return notionapi.Date(start), notionapi.Date(start.AddDate(0, 0, 1))
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0
}

func plainTitle(page notionapi.Page) string {
	prop, ok := page.Properties["Name"].(*notionapi.TitleProperty)
	if !ok {
		return "未命名"
	}
	out := ""
	for _, rt := range prop.Title {
		out += rt.PlainText
	}
	if out == "" {
		return "未命名"
	}
	return out
}

func selectName(page notionapi.Page, name string) string {
	prop, ok := page.Properties[name].(*notionapi.SelectProperty)
	if !ok {
		return ""
	}
	return prop.Select.Name
}

func richTextPlain(page notionapi.Page, name string) string {
	prop, ok := page.Properties[name].(*notionapi.RichTextProperty)
	if !ok {
		return ""
	}
	out := ""
	for _, rt := range prop.RichText {
		out += rt.PlainText
	}
	return out
}

func dateStart(page notionapi.Page, name string) (time.Time, bool) {
	prop, ok := page.Properties[name].(*notionapi.DateProperty)
	if !ok || prop.Date == nil || prop.Date.Start == nil {
		return time.Time{}, false
	}
	return time.Time(*prop.Date.Start), true
}
