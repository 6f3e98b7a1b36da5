package model

import (
	"testing"
	"time"
)

func TestSessionState(t *testing.T) {
	s := &Session{ID: "s1"}
	if s.State() != StateEmpty {
		t.Fatalf("new session state = %q, want %q", s.State(), StateEmpty)
	}

	s.Proposal = &MeetingProposal{Title: "Sync", StartTime: time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)}
	if s.State() != StateProposed {
		t.Fatalf("state = %q, want %q", s.State(), StateProposed)
	}

	s.ClearProposal()
	if s.State() != StateEmpty {
		t.Fatalf("state after clear = %q, want %q", s.State(), StateEmpty)
	}
}

func TestProposalWithoutStartIsEmpty(t *testing.T) {
	p := &MeetingProposal{Title: "Draft"}
	if !p.IsEmpty() {
		t.Error("proposal without start time should be empty")
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := &Session{
		ID: "s1",
		Proposal: &MeetingProposal{
			Title:     "Sync",
			StartTime: time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC),
			Attendees: []string{"a@x.com"},
		},
	}
	s.Append(RoleUser, "hello")

	snap := s.Snapshot()
	s.Append(RoleAssistant, "hi")
	s.Proposal.Attendees[0] = "changed@x.com"

	if len(snap.Transcript) != 1 {
		t.Errorf("snapshot transcript len = %d, want 1", len(snap.Transcript))
	}
	if snap.Proposal.Attendees[0] != "a@x.com" {
		t.Errorf("snapshot attendee = %q, want a@x.com", snap.Proposal.Attendees[0])
	}
}

func TestSplitAttendees(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a@x.com", []string{"a@x.com"}},
		{" a@x.com , b@y.org ,, ", []string{"a@x.com", "b@y.org"}},
	}
	for _, tt := range tests {
		got := SplitAttendees(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("SplitAttendees(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("SplitAttendees(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}
