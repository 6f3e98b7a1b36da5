package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Mr-Amresh/meeting-scheduler/internal/calendar"
	"github.com/Mr-Amresh/meeting-scheduler/internal/llm"
	"github.com/Mr-Amresh/meeting-scheduler/internal/model"
	"github.com/Mr-Amresh/meeting-scheduler/pkg/logger"
	"github.com/Mr-Amresh/meeting-scheduler/pkg/metrics"
)

// Generator produces assistant replies.
type Generator interface {
	Generate(ctx context.Context, prompt string) llm.Reply
}

// EventCreator writes a proposal to the calendar.
type EventCreator interface {
	CreateEvent(ctx context.Context, p *model.MeetingProposal) (*model.ScheduledEvent, error)
}

// RecordSaver persists a record of a scheduled meeting.
type RecordSaver interface {
	Save(ctx context.Context, eventID string, p *model.MeetingProposal) error
}

// Publisher fans out transcript activity. Implementations must not block
// the turn on delivery failures.
type Publisher interface {
	PublishEntry(ctx context.Context, sessionID string, entry model.ChatEntry)
	PublishScheduled(ctx context.Context, sessionID string, ev model.ScheduledEvent)
}

// Deps are the collaborators of a Controller. Records and Publisher are
// optional.
type Deps struct {
	Assistant       Generator
	Calendar        EventCreator
	Records         RecordSaver
	Publisher       Publisher
	DefaultTimezone string
}

// Turn is what one controller operation appended to a session.
type Turn struct {
	Entries   []model.ChatEntry
	State     model.SessionState
	Scheduled *model.ScheduledEvent
	Warnings  []string
}

// Controller drives the propose / chat / commit cycle of a session.
type Controller struct {
	deps   Deps
	logger *logger.Logger
}

// NewController creates a controller.
func NewController(deps Deps, log *logger.Logger) *Controller {
	if deps.DefaultTimezone == "" {
		deps.DefaultTimezone = model.DefaultTimezone
	}
	return &Controller{deps: deps, logger: log}
}

// IsConfirmation reports whether text asks to commit the proposal. It is a
// plain case-insensitive substring match on "confirm".
func IsConfirmation(text string) bool {
	return strings.Contains(strings.ToLower(text), "confirm")
}

// Propose replaces the session's proposal and asks the assistant to confirm
// it back to the user.
func (c *Controller) Propose(ctx context.Context, sess *model.Session, in model.ProposeInput) Turn {
	p := &model.MeetingProposal{
		Title:       in.Title,
		Description: in.Description,
		Agenda:      in.Agenda,
		StartTime:   in.StartTime,
		Attendees:   append([]string{}, in.Attendees...),
		Timezone:    in.Timezone,
	}
	if p.Title == "" {
		p.Title = model.DefaultTitle
	}
	if p.Timezone == "" {
		p.Timezone = c.deps.DefaultTimezone
	}

	sess.Proposal = p
	metrics.ProposalsTotal.Inc()

	log := c.logger.With(zap.String("session_id", sess.ID))
	log.Info("meeting proposed",
		zap.String("title", p.Title),
		zap.Time("start", p.StartTime),
		zap.Int("attendees", len(p.Attendees)),
	)

	var turn Turn
	turn.Entries = append(turn.Entries, c.append(ctx, sess, model.RoleUser, proposalSummary(p)))

	reply := c.deps.Assistant.Generate(ctx, proposalPrompt(p))
	if !reply.OK() {
		log.Warn("assistant unavailable for proposal", zap.Error(reply.Err))
	}
	turn.Entries = append(turn.Entries, c.append(ctx, sess, model.RoleAssistant, reply.Message()))
	turn.State = sess.State()
	return turn
}

// HandleMessage records a chat message, asks the assistant for a reply and,
// when the message is a confirmation and a proposal is pending, commits it.
func (c *Controller) HandleMessage(ctx context.Context, sess *model.Session, text string) Turn {
	var turn Turn
	turn.Entries = append(turn.Entries, c.append(ctx, sess, model.RoleUser, text))

	log := c.logger.With(zap.String("session_id", sess.ID))

	reply := c.deps.Assistant.Generate(ctx, chatPrompt(sess.Proposal, text))
	if !reply.OK() {
		log.Warn("assistant unavailable for chat", zap.Error(reply.Err))
	}
	message := reply.Message()

	if IsConfirmation(text) && !sess.Proposal.IsEmpty() {
		ev, warnings, err := c.commit(ctx, sess)
		turn.Scheduled = ev
		turn.Warnings = warnings
		message += "\n\n" + commitMessage(ev, err)
	}

	turn.Entries = append(turn.Entries, c.append(ctx, sess, model.RoleAssistant, message))
	turn.State = sess.State()
	return turn
}

// commit writes the pending proposal to the calendar. On success the
// proposal is recorded and cleared; on failure it is kept for a retry.
// Record store failures come back as warnings, never as err.
func (c *Controller) commit(ctx context.Context, sess *model.Session) (*model.ScheduledEvent, []string, error) {
	log := c.logger.With(zap.String("session_id", sess.ID))
	p := sess.Proposal

	ev, err := c.deps.Calendar.CreateEvent(ctx, p)
	if err == nil && (ev == nil || ev.EventID == "") {
		err = fmt.Errorf("%w: no event id returned", calendar.ErrWriteFailed)
	}
	metrics.RecordCommit(commitOutcome(err))
	if err != nil {
		log.Error("commit failed", zap.Error(err))
		return nil, nil, err
	}

	var warnings []string
	if c.deps.Records != nil {
		if err := c.deps.Records.Save(ctx, ev.EventID, p); err != nil {
			metrics.RecordStoreFailuresTotal.Inc()
			log.Error("failed to store meeting record",
				zap.String("event_id", ev.EventID),
				zap.Error(err),
			)
			warnings = append(warnings, recordFailedWarning)
		}
	}

	if c.deps.Publisher != nil {
		c.deps.Publisher.PublishScheduled(ctx, sess.ID, *ev)
	}

	sess.ClearProposal()
	log.Info("meeting scheduled", zap.String("event_id", ev.EventID))
	return ev, warnings, nil
}

func (c *Controller) append(ctx context.Context, sess *model.Session, role model.Role, message string) model.ChatEntry {
	entry := sess.Append(role, message)
	metrics.ChatEntriesTotal.WithLabelValues(string(role)).Inc()
	if c.deps.Publisher != nil {
		c.deps.Publisher.PublishEntry(ctx, sess.ID, entry)
	}
	return entry
}
