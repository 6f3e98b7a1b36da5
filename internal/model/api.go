package model

// ProposeRequest mirrors the proposal form: date, time and timezone arrive as
// separate strings and attendees as a comma-separated list.
type ProposeRequest struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	Timezone    string `json:"timezone"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Agenda      string `json:"agenda"`
	Attendees   string `json:"attendees"`
}

// SendMessageRequest is the request to send a chat message.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// TurnResponse is returned after every propose or message action.
type TurnResponse struct {
	SessionID string          `json:"session_id"`
	State     SessionState    `json:"state"`
	Entries   []ChatEntry     `json:"entries"`
	Scheduled *ScheduledEvent `json:"scheduled,omitempty"`
	Warnings  []string        `json:"warnings,omitempty"`
}

// SessionResponse describes a session and its full transcript.
type SessionResponse struct {
	Session *Session     `json:"session"`
	State   SessionState `json:"state"`
}

// ListMeetingsResponse is the response for listing recorded meetings.
type ListMeetingsResponse struct {
	Meetings []MeetingRecord `json:"meetings"`
	Total    int             `json:"total"`
}
