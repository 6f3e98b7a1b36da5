package model

import (
	"time"
)

// Role represents the author of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatEntry is one immutable line of the transcript.
type ChatEntry struct {
	Role      Role      `json:"role"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionState is the position of a session in the proposal state machine.
type SessionState string

const (
	StateEmpty    SessionState = "empty"
	StateProposed SessionState = "proposed"
)

// Session owns one user's pending proposal and transcript.
type Session struct {
	ID         string           `json:"id"`
	Owner      string           `json:"owner"`
	Proposal   *MeetingProposal `json:"proposal,omitempty"`
	Transcript []ChatEntry      `json:"transcript"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// State derives the state machine position from the pending proposal.
func (s *Session) State() SessionState {
	if s.Proposal.IsEmpty() {
		return StateEmpty
	}
	return StateProposed
}

// Append adds an entry to the transcript and returns it.
func (s *Session) Append(role Role, message string) ChatEntry {
	now := time.Now()
	entry := ChatEntry{Role: role, Message: message, CreatedAt: now}
	s.Transcript = append(s.Transcript, entry)
	s.UpdatedAt = now
	return entry
}

// ClearProposal resets the pending proposal to empty.
func (s *Session) ClearProposal() {
	s.Proposal = nil
	s.UpdatedAt = time.Now()
}

// Snapshot returns a copy safe to hand out while the session keeps changing.
func (s *Session) Snapshot() *Session {
	c := *s
	c.Proposal = s.Proposal.Clone()
	c.Transcript = append([]ChatEntry(nil), s.Transcript...)
	return &c
}
