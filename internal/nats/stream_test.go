package nats

import (
	"testing"

	"github.com/Mr-Amresh/meeting-scheduler/internal/model"
)

func TestSubjects(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"user entry", EntrySubject("s1", model.RoleUser), "sched.s1.entry.user"},
		{"assistant entry", EntrySubject("s1", model.RoleAssistant), "sched.s1.entry.assistant"},
		{"scheduled", ScheduledSubject("s1"), "sched.s1.event.scheduled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
