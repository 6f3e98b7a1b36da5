package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/Mr-Amresh/meeting-scheduler/internal/model"
	"github.com/Mr-Amresh/meeting-scheduler/pkg/logger"
	"github.com/Mr-Amresh/meeting-scheduler/pkg/metrics"
)

const (
	// StreamName is the name of the scheduler activity stream.
	StreamName = "SCHEDULER"

	// SubjectPrefix is the prefix for all scheduler subjects.
	SubjectPrefix = "sched"
)

// EntryEnvelope is the payload published for each transcript entry.
type EntryEnvelope struct {
	SessionID string          `json:"session_id"`
	Entry     model.ChatEntry `json:"entry"`
}

// ScheduledEnvelope is the payload published when a meeting is committed.
type ScheduledEnvelope struct {
	SessionID string               `json:"session_id"`
	Event     model.ScheduledEvent `json:"event"`
}

// Publisher writes scheduler activity to JetStream. Publishing is best
// effort: failures are logged and counted but never returned to callers.
type Publisher struct {
	js     jetstream.JetStream
	logger *logger.Logger
}

// NewPublisher creates a publisher over js.
func NewPublisher(js jetstream.JetStream, log *logger.Logger) *Publisher {
	return &Publisher{js: js, logger: log}
}

// EnsureStream creates the scheduler stream if it does not exist.
func (p *Publisher) EnsureStream(ctx context.Context) error {
	if _, err := p.js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		MaxBytes:    1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Meeting scheduler transcript entries and scheduled events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// EntrySubject returns the subject for a transcript entry.
func EntrySubject(sessionID string, role model.Role) string {
	return fmt.Sprintf("%s.%s.entry.%s", SubjectPrefix, sessionID, role)
}

// ScheduledSubject returns the subject for a committed meeting.
func ScheduledSubject(sessionID string) string {
	return fmt.Sprintf("%s.%s.event.scheduled", SubjectPrefix, sessionID)
}

// PublishEntry publishes one transcript entry.
func (p *Publisher) PublishEntry(ctx context.Context, sessionID string, entry model.ChatEntry) {
	p.publish(ctx, "entry", EntrySubject(sessionID, entry.Role), EntryEnvelope{
		SessionID: sessionID,
		Entry:     entry,
	})
}

// PublishScheduled publishes a committed calendar event.
func (p *Publisher) PublishScheduled(ctx context.Context, sessionID string, ev model.ScheduledEvent) {
	p.publish(ctx, "scheduled", ScheduledSubject(sessionID), ScheduledEnvelope{
		SessionID: sessionID,
		Event:     ev,
	})
}

func (p *Publisher) publish(ctx context.Context, kind, subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		metrics.PublishFailuresTotal.WithLabelValues(kind).Inc()
		p.logger.Error("failed to marshal payload", zap.String("subject", subject), zap.Error(err))
		return
	}

	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		metrics.PublishFailuresTotal.WithLabelValues(kind).Inc()
		p.logger.Warn("failed to publish", zap.String("subject", subject), zap.Error(err))
		return
	}
	p.logger.Debug("published", zap.String("subject", subject))
}
