// Package ics renders recorded meetings as iCalendar data.
package ics

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"github.com/Mr-Amresh/meeting-scheduler/internal/calendar"
	"github.com/Mr-Amresh/meeting-scheduler/internal/model"
)

const productID = "-//meeting-scheduler//EN"

// ContentType is the media type of the encoded output.
const ContentType = "text/calendar; charset=utf-8"

// Encode writes records as one VCALENDAR with a VEVENT per record. Each
// event lasts duration.
func Encode(w io.Writer, records []model.MeetingRecord, duration time.Duration) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropMethod, "PUBLISH")

	for _, rec := range records {
		event, err := buildEvent(rec, duration)
		if err != nil {
			return fmt.Errorf("event %s: %w", rec.EventID, err)
		}
		cal.Children = append(cal.Children, event.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

func buildEvent(rec model.MeetingRecord, duration time.Duration) (*ical.Event, error) {
	start, err := time.Parse(time.RFC3339, rec.StartTime)
	if err != nil {
		return nil, fmt.Errorf("parse start time: %w", err)
	}
	stamp := rec.CreatedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, rec.EventID)
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(duration).UTC())
	event.Props.SetText(ical.PropSummary, rec.Title)
	event.Props.SetText(ical.PropStatus, "CONFIRMED")

	if desc := calendar.BuildDescription(rec.Description, rec.Agenda); desc != "" {
		event.Props.SetText(ical.PropDescription, desc)
	}

	for _, email := range rec.Attendees {
		prop := ical.NewProp(ical.PropAttendee)
		prop.Value = "mailto:" + email
		event.Props.Add(prop)
	}

	return event, nil
}
