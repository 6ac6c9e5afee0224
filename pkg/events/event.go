package events

import "time"

// Event type codes carried on the in-process notify bus.
const (
	TypeReminderDue = "REMINDER_DUE"
	TypeDailyReport = "DAILY_REPORT"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "REMINDER_DUE").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewChannelMessage builds the event every bus consumer understands: a
// piece of content bound for a Discord channel.
func NewChannelMessage(eventType, channelID, content string) BaseEvent {
	return BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"channel_id": channelID,
			"content":    content,
		},
		OccurredAt: time.Now(),
	}
}
