package service

import (
	"fmt"
	"strings"

	"github.com/Mr-Amresh/meeting-scheduler/internal/model"
)

const (
	summaryTimeLayout = "2006-01-02 15:04"
	promptTimeLayout  = "2006-01-02 15:04:05-07:00"
	placeholder       = "N/A"
)

// proposalSummary is the user-facing line recorded when a proposal is made.
func proposalSummary(p *model.MeetingProposal) string {
	return fmt.Sprintf("Proposed meeting: %s on %s %s with %s",
		p.Title,
		p.StartTime.Format(summaryTimeLayout),
		p.Timezone,
		strings.Join(p.Attendees, ", "),
	)
}

// proposalPrompt asks the assistant to restate the proposal and ask whether
// to proceed.
func proposalPrompt(p *model.MeetingProposal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A user has proposed a meeting titled \"%s\" on %s %s with attendees %s.\n",
		p.Title,
		p.StartTime.Format(summaryTimeLayout),
		p.Timezone,
		strings.Join(p.Attendees, ", "),
	)
	fmt.Fprintf(&b, "Description: %s\n", p.Description)
	fmt.Fprintf(&b, "Agenda: %s\n", p.Agenda)
	b.WriteString("Confirm the details and ask if they want to proceed with scheduling or make changes.\n")
	b.WriteString("Keep the tone professional and concise.")
	return b.String()
}

// chatPrompt embeds the current proposal, or placeholders when there is
// none, together with the user's raw message.
func chatPrompt(p *model.MeetingProposal, text string) string {
	title, start, zone, description, agenda, attendees :=
		placeholder, placeholder, placeholder, placeholder, placeholder, placeholder
	if !p.IsEmpty() {
		title = p.Title
		start = p.StartTime.Format(promptTimeLayout)
		zone = p.Timezone
		description = p.Description
		agenda = p.Agenda
		attendees = strings.Join(p.Attendees, ", ")
	}

	var b strings.Builder
	b.WriteString("You are a professional meeting scheduler assistant. The user has proposed a meeting with the following details:\n")
	fmt.Fprintf(&b, "Title: %s\n", title)
	fmt.Fprintf(&b, "Date and Time: %s\n", start)
	fmt.Fprintf(&b, "Timezone: %s\n", zone)
	fmt.Fprintf(&b, "Description: %s\n", description)
	fmt.Fprintf(&b, "Agenda: %s\n", agenda)
	fmt.Fprintf(&b, "Attendees: %s\n\n", attendees)
	fmt.Fprintf(&b, "The user's latest message is: \"%s\"\n\n", text)
	b.WriteString("Respond appropriately:\n")
	b.WriteString("- If the user confirms, schedule the meeting and confirm completion.\n")
	b.WriteString("- If the user requests changes, suggest how to update the meeting using the proposal form.\n")
	b.WriteString("- If unclear, ask for clarification.\n")
	b.WriteString("Keep the tone professional and concise.")
	return b.String()
}
