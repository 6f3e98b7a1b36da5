package service

import (
	"errors"
	"fmt"

	"github.com/Mr-Amresh/meeting-scheduler/internal/calendar"
	"github.com/Mr-Amresh/meeting-scheduler/internal/model"
)

const (
	scheduledFormat = "Meeting scheduled successfully! Event ID: %s. Check your Google Calendar and email for confirmation."

	unavailableMessage = "Failed to schedule meeting. Please check your Google Calendar credentials and try again."

	writeFailedMessage = "Failed to schedule meeting. The calendar did not accept the event; send a confirming message to try again."

	recordFailedWarning = "Meeting scheduled, but failed to store the meeting record."
)

// commitMessage renders the outcome of a commit as transcript text.
func commitMessage(ev *model.ScheduledEvent, err error) string {
	switch {
	case err == nil && ev != nil:
		return fmt.Sprintf(scheduledFormat, ev.EventID)
	case errors.Is(err, calendar.ErrWriteFailed):
		return writeFailedMessage
	default:
		return unavailableMessage
	}
}

// commitOutcome labels a commit result for metrics.
func commitOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, calendar.ErrWriteFailed):
		return "write_failed"
	default:
		return "unavailable"
	}
}
