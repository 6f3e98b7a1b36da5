// Package model defines data structures for the meeting scheduler.
package model

import (
	"strings"
	"time"
)

const (
	// DefaultTitle is used when a proposal arrives without a title.
	DefaultTitle = "Meeting"

	// DefaultTimezone is used when a proposal arrives without a timezone.
	DefaultTimezone = "Asia/Kolkata"
)

// MeetingProposal is the pending, not yet committed meeting held by a session.
// The zero value is the empty proposal.
type MeetingProposal struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Agenda      string    `json:"agenda,omitempty"`
	StartTime   time.Time `json:"start_time"`
	Attendees   []string  `json:"attendees"`
	Timezone    string    `json:"timezone"`
}

// IsEmpty reports whether no proposal is pending.
func (p *MeetingProposal) IsEmpty() bool {
	return p == nil || p.StartTime.IsZero()
}

// Clone returns a deep copy of the proposal.
func (p *MeetingProposal) Clone() *MeetingProposal {
	if p == nil {
		return nil
	}
	c := *p
	c.Attendees = append([]string(nil), p.Attendees...)
	return &c
}

// ProposeInput carries the structured fields of a propose action.
type ProposeInput struct {
	Title       string
	Description string
	Agenda      string
	StartTime   time.Time
	Attendees   []string
	Timezone    string
}

// SplitAttendees turns a comma-separated address list into a slice,
// dropping blanks.
func SplitAttendees(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if email := strings.TrimSpace(part); email != "" {
			out = append(out, email)
		}
	}
	return out
}
