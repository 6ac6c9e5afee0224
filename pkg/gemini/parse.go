package gemini

import (
	"encoding/json"
	"errors"
	"strings"

	"cyclone-bot/pkg/store"
)

// ErrMalformedResponse means the model reply held no parseable JSON
// object. Fatal for the request, never retried.
var ErrMalformedResponse = errors.New("AI 回應格式錯誤")

const defaultTitle = "未知標題"

// rawAnalysis mirrors the JSON shape the prompt asks for. Every field is a
// pointer or interface so an arbitrary response never fails to decode into
// something normalizeAnalysis can default.
type rawAnalysis struct {
	Title               *string      `json:"title"`
	Type                *string      `json:"type"`
	StartDate           *string      `json:"startDate"`
	StartTime           *string      `json:"startTime"`
	EndDate             *string      `json:"endDate"`
	EndTime             *string      `json:"endTime"`
	Location            *string      `json:"location"`
	Deadline            *string      `json:"deadline"`
	DeadlineDescription *string      `json:"deadlineDescription"`
	Contact             *rawContact  `json:"contact"`
	Priority            *string      `json:"priority"`
	Summary             *string      `json:"summary"`
	Confidence          *float64     `json:"confidence"`
	Reminder            *rawReminder `json:"reminder"`
}

type rawContact struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
}

type rawReminder struct {
	Enabled       *bool    `json:"enabled"`
	Mode          *string  `json:"mode"`
	ExactTime     *string  `json:"exactTime"`
	BeforeMinutes *float64 `json:"beforeMinutes"`
	Description   *string  `json:"description"`
}

// parseAnalysisResponse turns raw model output into a fully-defaulted
// Analysis. Locating and decoding the JSON is the only step allowed to
// fail; normalization is total.
func parseAnalysisResponse(responseText string) (*store.Analysis, error) {
	jsonStr := stripCodeFences(responseText)
	jsonStr = firstJSONObject(jsonStr)
	if jsonStr == "" {
		return nil, ErrMalformedResponse
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, ErrMalformedResponse
	}

	return normalizeAnalysis(&raw), nil
}

func stripCodeFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// firstJSONObject returns the first balanced {...} substring, skipping
// braces inside string literals.
func firstJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// normalizeAnalysis applies the field defaults: missing title becomes a
// placeholder, anything that is not a task is an event, invalid priority
// is medium, missing confidence is 0.5.
func normalizeAnalysis(raw *rawAnalysis) *store.Analysis {
	analysis := &store.Analysis{
		Title:               strOr(raw.Title, defaultTitle),
		Kind:                store.KindEvent,
		StartDate:           strOr(raw.StartDate, ""),
		StartTime:           strOr(raw.StartTime, ""),
		EndDate:             strOr(raw.EndDate, ""),
		EndTime:             strOr(raw.EndTime, ""),
		Location:            strOr(raw.Location, ""),
		Deadline:            strOr(raw.Deadline, ""),
		DeadlineDescription: strOr(raw.DeadlineDescription, ""),
		Priority:            store.PriorityMedium,
		Summary:             strOr(raw.Summary, ""),
		Confidence:          0.5,
	}

	if raw.Type != nil && *raw.Type == store.KindTask {
		analysis.Kind = store.KindTask
	}

	if raw.Priority != nil {
		analysis.Priority = normalizePriority(*raw.Priority)
	}

	if raw.Confidence != nil {
		analysis.Confidence = *raw.Confidence
	}

	if raw.Contact != nil {
		analysis.Contact = store.Contact{
			Name:  strOr(raw.Contact.Name, ""),
			Phone: strOr(raw.Contact.Phone, ""),
			Email: strOr(raw.Contact.Email, ""),
		}
	}

	reminder := store.Reminder{Mode: store.ReminderModeBefore}
	if raw.Reminder != nil {
		reminder.Enabled = raw.Reminder.Enabled != nil && *raw.Reminder.Enabled
		if raw.Reminder.Mode != nil && *raw.Reminder.Mode == store.ReminderModeExact {
			reminder.Mode = store.ReminderModeExact
		}
		reminder.ExactTime = strOr(raw.Reminder.ExactTime, "")
		if raw.Reminder.BeforeMinutes != nil {
			reminder.BeforeMinutes = int(*raw.Reminder.BeforeMinutes)
		}
		reminder.Description = strOr(raw.Reminder.Description, "")
	}
	analysis.Reminder = reminder

	return analysis
}

// normalizePriority accepts both the Chinese values the prompt requests
// and the english ones; anything unrecognized is medium.
func normalizePriority(value string) string {
	switch value {
	case "高", store.PriorityHigh:
		return store.PriorityHigh
	case "低", store.PriorityLow:
		return store.PriorityLow
	default:
		return store.PriorityMedium
	}
}

func strOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return *value
}
