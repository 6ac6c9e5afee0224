package store

import "time"

// Resolved action identifiers, mirroring the button custom ids.
const (
	ActionEvent  = "calendar_event"
	ActionTask   = "calendar_task"
	ActionNotion = "calendar_notion"
	ActionCancel = "calendar_cancel"
)

// Record remembers how a pending analysis was resolved, so a second
// click after the buttons are gone can report the earlier outcome
// instead of failing with an expiry message.
type Record struct {
	Action     string
	Title      string
	Link       string
	ResolvedAt time.Time
}
