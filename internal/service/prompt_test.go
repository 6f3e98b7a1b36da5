package service

import (
	"strings"
	"testing"
	"time"

	"github.com/Mr-Amresh/meeting-scheduler/internal/model"
)

func TestChatPromptKeepsRawText(t *testing.T) {
	text := "Move it to 4pm?\nAlso add \"Budget\" to the agenda."
	prompt := chatPrompt(nil, text)

	if !strings.Contains(prompt, "The user's latest message is: \""+text+"\"\n") {
		t.Errorf("prompt does not carry the raw message:\n%s", prompt)
	}
	if strings.Contains(prompt, `\n`) || strings.Contains(prompt, `\"`) {
		t.Errorf("prompt contains escaped text:\n%s", prompt)
	}
}

func TestChatPromptEmbedsProposal(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+30*60)
	p := &model.MeetingProposal{
		Title:     "Sync",
		StartTime: time.Date(2025, 5, 20, 10, 0, 0, 0, loc),
		Timezone:  "Asia/Kolkata",
		Attendees: []string{"a@x.com", "b@y.org"},
	}

	prompt := chatPrompt(p, "confirm")
	for _, want := range []string{
		"Title: Sync\n",
		"Date and Time: 2025-05-20 10:00:00+05:30\n",
		"Attendees: a@x.com, b@y.org\n",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestProposalPromptKeepsRawTitle(t *testing.T) {
	p := &model.MeetingProposal{
		Title:     `Q3 "kickoff"`,
		StartTime: time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC),
		Timezone:  "UTC",
	}
	if prompt := proposalPrompt(p); !strings.Contains(prompt, `titled "Q3 "kickoff"" on`) {
		t.Errorf("title was escaped:\n%s", prompt)
	}
}
