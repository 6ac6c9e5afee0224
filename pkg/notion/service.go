package notion

import (
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"cyclone-bot/pkg/clock"
)

// PageRef identifies a created page and its browser URL.
type PageRef struct {
	ID  string
	URL string
}

type Service struct {
	client       *notionapi.Client
	infoDBID     notionapi.DatabaseID
	calendarDBID notionapi.DatabaseID
	clock        clock.Clock
	loc          *time.Location
}

func NewService(apiKey, infoDBID, calendarDBID string, c clock.Clock) *Service {
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		loc = time.UTC
	}
	return &Service{
		client:       notionapi.NewClient(notionapi.Token(apiKey)),
		infoDBID:     notionapi.DatabaseID(infoDBID),
		calendarDBID: notionapi.DatabaseID(calendarDBID),
		clock:        c,
		loc:          loc,
	}
}

// HasCalendarDB reports whether calendar/task pages can be created.
func (s *Service) HasCalendarDB() bool {
	return s.calendarDBID != ""
}

// pageURL builds the desktop-friendly notion.so URL from a page id.
func pageURL(id string) string {
	return "https://www.notion.so/" + strings.ReplaceAll(id, "-", "")
}

// attribution is the footer stamped onto every created page.
func (s *Service) attribution() string {
	return fmt.Sprintf("由 Cyclone Discord Bot 建立 [%s]", s.clock.Now().Format("2006-01-02 15:04"))
}

// parseDate turns "YYYY-MM-DD" plus an optional "HH:MM" into a notion
// date pinned to the operating zone.
func (s *Service) parseDate(date, timeOfDay string) (*notionapi.Date, error) {
	layout := "2006-01-02"
	value := date
	if timeOfDay != "" {
		layout = "2006-01-02 15:04"
		value = date + " " + timeOfDay
	}
	parsed, err := time.ParseInLocation(layout, value, s.loc)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", value, err)
	}
	d := notionapi.Date(parsed)
	return &d, nil
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: content}},
	}
}

func boldText(content string) notionapi.RichText {
	return notionapi.RichText{
		Type:        notionapi.ObjectTypeText,
		Text:        &notionapi.Text{Content: content},
		Annotations: &notionapi.Annotations{Bold: true},
	}
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
