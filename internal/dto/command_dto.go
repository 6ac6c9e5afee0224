package dto

// Slash command inputs. Discord enforces required-ness client side,
// but the gateway payload is still untrusted.

type AddEventRequest struct {
	Title    string `validate:"required,max=100"`
	Date     string `validate:"required,datetime=2006-01-02"`
	Time     string `validate:"omitempty,datetime=15:04"`
	EndTime  string `validate:"omitempty,datetime=15:04"`
	Location string `validate:"omitempty,max=100"`
	Note     string `validate:"omitempty,max=500"`
}

type AddTaskRequest struct {
	Title    string `validate:"required,max=100"`
	Deadline string `validate:"required,datetime=2006-01-02"`
	Priority string `validate:"omitempty,oneof=high medium low"`
	Note     string `validate:"omitempty,max=500"`
}

type AICommandRequest struct {
	Content string `validate:"required,min=10,max=2000"`
}
