package model

import (
	"time"
)

// ScheduledEvent is what the calendar service reports back after a commit.
type ScheduledEvent struct {
	EventID  string    `json:"event_id"`
	Summary  string    `json:"summary"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Timezone string    `json:"timezone"`
	HTMLLink string    `json:"html_link,omitempty"`
}

// MeetingRecord is the denormalized row kept for audit and history.
type MeetingRecord struct {
	EventID     string    `json:"event_id"`
	Title       string    `json:"title"`
	StartTime   string    `json:"start_time"`
	Description string    `json:"description"`
	Attendees   []string  `json:"attendees"`
	Agenda      string    `json:"agenda"`
	CreatedAt   time.Time `json:"created_at"`
}
