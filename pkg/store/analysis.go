package store

// Analysis is the structured calendar/task data the AI extractor produces
// from a message, image or PDF. It lives in the in-memory interaction
// cache between the preview render and the user's button choice.
type Analysis struct {
	Title               string   `json:"title"`
	Kind                string   `json:"type"` // KindEvent | KindTask
	StartDate           string   `json:"start_date,omitempty"`
	StartTime           string   `json:"start_time,omitempty"`
	EndDate             string   `json:"end_date,omitempty"`
	EndTime             string   `json:"end_time,omitempty"`
	Location            string   `json:"location,omitempty"`
	Deadline            string   `json:"deadline,omitempty"`
	DeadlineDescription string   `json:"deadline_description,omitempty"`
	Contact             Contact  `json:"contact"`
	Priority            string   `json:"priority"`
	Summary             string   `json:"summary,omitempty"`
	Confidence          float64  `json:"confidence"`
	Reminder            Reminder `json:"reminder"`

	// Source records which input path produced the analysis.
	Source string `json:"source,omitempty"`

	// OriginalMessageID / ChannelID tie the analysis back to the Discord
	// message it was extracted from.
	OriginalMessageID string `json:"original_message_id,omitempty"`
	ChannelID         string `json:"channel_id,omitempty"`
}

type Contact struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type Reminder struct {
	Enabled       bool   `json:"enabled"`
	Mode          string `json:"mode"` // ReminderModeExact | ReminderModeBefore
	ExactTime     string `json:"exact_time,omitempty"`
	BeforeMinutes int    `json:"before_minutes,omitempty"`
	Description   string `json:"description,omitempty"`
}

const (
	KindEvent = "event"
	KindTask  = "task"

	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"

	ReminderModeExact  = "exact"
	ReminderModeBefore = "before"

	// Input paths.
	SourceText      = "text"
	SourceImage     = "image"
	SourcePDF       = "pdf"
	SourceAICommand = "ai-command"
)

// Usable reports whether downstream actions can consume the analysis:
// a title plus at least one of start date / deadline. Confidence 0 means
// the model found no date information at all.
func (a *Analysis) Usable() bool {
	if a == nil || a.Title == "" || a.Confidence == 0 {
		return false
	}
	return a.StartDate != "" || a.Deadline != ""
}

// EffectiveStartDate falls back to the deadline when the model produced a
// due date but no start date.
func (a *Analysis) EffectiveStartDate() string {
	if a.StartDate != "" {
		return a.StartDate
	}
	return a.Deadline
}
