// Package calendar writes committed meeting proposals to Google Calendar.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	calendarapi "google.golang.org/api/calendar/v3"

	"github.com/Mr-Amresh/meeting-scheduler/internal/model"
	"github.com/Mr-Amresh/meeting-scheduler/pkg/logger"
	"github.com/Mr-Amresh/meeting-scheduler/pkg/tracing"
)

// DefaultDuration is the meeting length used when none is configured.
const DefaultDuration = 60 * time.Minute

var (
	// ErrUnavailable means no authenticated service handle could be obtained.
	ErrUnavailable = errors.New("calendar service unavailable")

	// ErrWriteFailed means the create-event call itself failed.
	ErrWriteFailed = errors.New("calendar event creation failed")
)

// ServiceProvider supplies a ready-to-use calendar service. It may fail or
// return nil when credentials are absent or invalid.
type ServiceProvider interface {
	Service(ctx context.Context) (*calendarapi.Service, error)
}

// Gateway creates calendar events from meeting proposals.
type Gateway struct {
	provider   ServiceProvider
	calendarID string
	duration   time.Duration
	logger     *logger.Logger

	mu      sync.Mutex
	service *calendarapi.Service
}

// NewGateway creates a gateway writing to calendarID. A non-positive
// duration falls back to DefaultDuration.
func NewGateway(provider ServiceProvider, calendarID string, duration time.Duration, log *logger.Logger) *Gateway {
	if calendarID == "" {
		calendarID = "primary"
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Gateway{
		provider:   provider,
		calendarID: calendarID,
		duration:   duration,
		logger:     log,
	}
}

// Duration returns the fixed length given to every created event.
func (g *Gateway) Duration() time.Duration {
	return g.duration
}

// BuildDescription joins description and agenda, agenda last, separated by a
// blank line. With no description the agenda block stands alone.
func BuildDescription(description, agenda string) string {
	if agenda == "" {
		return description
	}
	if description == "" {
		return "Agenda: " + agenda
	}
	return description + "\n\nAgenda: " + agenda
}

// BuildEvent maps a proposal onto a calendar event payload.
func (g *Gateway) BuildEvent(p *model.MeetingProposal) *calendarapi.Event {
	title := p.Title
	if title == "" {
		title = model.DefaultTitle
	}
	zone := p.Timezone
	if zone == "" {
		zone = model.DefaultTimezone
	}

	attendees := make([]*calendarapi.EventAttendee, 0, len(p.Attendees))
	for _, email := range p.Attendees {
		attendees = append(attendees, &calendarapi.EventAttendee{Email: email})
	}

	end := p.StartTime.Add(g.duration)

	return &calendarapi.Event{
		Summary:     title,
		Description: BuildDescription(p.Description, p.Agenda),
		Start: &calendarapi.EventDateTime{
			DateTime: p.StartTime.Format(time.RFC3339),
			TimeZone: zone,
		},
		End: &calendarapi.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: zone,
		},
		Attendees:  attendees,
		Visibility: "default",
		Status:     "confirmed",
		Reminders: &calendarapi.EventReminders{
			UseDefault: true,
		},
	}
}

// CreateEvent inserts the proposal into the calendar and notifies attendees.
// Failures are logged and returned wrapping ErrUnavailable or ErrWriteFailed.
func (g *Gateway) CreateEvent(ctx context.Context, p *model.MeetingProposal) (*model.ScheduledEvent, error) {
	if p.IsEmpty() {
		return nil, fmt.Errorf("%w: proposal has no start time", ErrWriteFailed)
	}

	svc, err := g.getService(ctx)
	if err != nil {
		g.logger.Error("calendar service unavailable", zap.Error(err))
		return nil, err
	}

	event := g.BuildEvent(p)

	ctx, span := tracing.Start(ctx, "calendar.insert",
		attribute.String("calendar_id", g.calendarID),
		attribute.Int("attendees", len(event.Attendees)),
	)
	created, err := svc.Events.Insert(g.calendarID, event).
		SendUpdates("all").
		Context(ctx).
		Do()
	tracing.End(span, err)
	if err != nil {
		g.logger.Error("meeting scheduling failed",
			zap.String("summary", event.Summary),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	g.logger.Info("event created",
		zap.String("event_id", created.Id),
		zap.String("summary", created.Summary),
		zap.String("start", event.Start.DateTime),
	)

	return &model.ScheduledEvent{
		EventID:  created.Id,
		Summary:  event.Summary,
		Start:    p.StartTime,
		End:      p.StartTime.Add(g.duration),
		Timezone: event.Start.TimeZone,
		HTMLLink: created.HtmlLink,
	}, nil
}

// getService returns the cached handle or asks the provider for one.
func (g *Gateway) getService(ctx context.Context) (*calendarapi.Service, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.service != nil {
		return g.service, nil
	}
	if g.provider == nil {
		return nil, fmt.Errorf("%w: no authenticator", ErrUnavailable)
	}

	svc, err := g.provider.Service(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if svc == nil {
		return nil, fmt.Errorf("%w: authenticator returned no service", ErrUnavailable)
	}

	g.service = svc
	return svc, nil
}
