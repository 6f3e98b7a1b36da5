// Package handler provides HTTP handlers for the API.
package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Mr-Amresh/meeting-scheduler/internal/middleware"
	"github.com/Mr-Amresh/meeting-scheduler/internal/model"
	"github.com/Mr-Amresh/meeting-scheduler/internal/service"
	"github.com/Mr-Amresh/meeting-scheduler/internal/timezone"
	"github.com/Mr-Amresh/meeting-scheduler/pkg/logger"
)

// SessionHandler serves session, proposal and chat endpoints.
type SessionHandler struct {
	sessions   *service.SessionStore
	controller *service.Controller
	normalizer *timezone.Normalizer
	logger     *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(
	sessions *service.SessionStore,
	controller *service.Controller,
	normalizer *timezone.Normalizer,
	log *logger.Logger,
) *SessionHandler {
	return &SessionHandler{
		sessions:   sessions,
		controller: controller,
		normalizer: normalizer,
		logger:     log,
	}
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Create(middleware.GetUserID(r.Context()))
	writeJSON(w, http.StatusCreated, model.SessionResponse{
		Session: sess,
		State:   sess.State(),
	})
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	sess, err := h.sessions.Get(middleware.GetUserID(r.Context()), id)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.SessionResponse{
		Session: sess,
		State:   sess.State(),
	})
}

// Delete handles DELETE /api/v1/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.sessions.Delete(middleware.GetUserID(r.Context()), id); err != nil {
		h.writeSessionError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Propose handles POST /api/v1/sessions/{id}/proposal. It accepts either a
// JSON body or form fields.
func (h *SessionHandler) Propose(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	req, err := h.decodeProposal(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in, err := ParseProposal(h.normalizer, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.runTurn(w, r, id, func(sess *model.Session) service.Turn {
		return h.controller.Propose(r.Context(), sess, in)
	})
}

// SendMessage handles POST /api/v1/sessions/{id}/messages
func (h *SessionHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req model.SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.runTurn(w, r, id, func(sess *model.Session) service.Turn {
		return h.controller.HandleMessage(r.Context(), sess, req.Content)
	})
}

func (h *SessionHandler) runTurn(w http.ResponseWriter, r *http.Request, id string, fn func(*model.Session) service.Turn) {
	var turn service.Turn
	err := h.sessions.With(middleware.GetUserID(r.Context()), id, func(sess *model.Session) error {
		turn = fn(sess)
		return nil
	})
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	log := h.logger.WithSession(middleware.GetCorrelationID(r.Context()), id, middleware.GetUserID(r.Context()))
	log.Debug("turn completed",
		zap.String("state", string(turn.State)),
		zap.Int("entries", len(turn.Entries)),
		zap.Bool("scheduled", turn.Scheduled != nil),
	)
	for _, warning := range turn.Warnings {
		log.Warn("turn warning", zap.String("warning", warning))
	}

	writeJSON(w, http.StatusOK, model.TurnResponse{
		SessionID: id,
		State:     turn.State,
		Entries:   turn.Entries,
		Scheduled: turn.Scheduled,
		Warnings:  turn.Warnings,
	})
}

func (h *SessionHandler) decodeProposal(w http.ResponseWriter, r *http.Request) (model.ProposeRequest, error) {
	var req model.ProposeRequest
	if isJSON(r) {
		err := decodeJSON(w, r, &req)
		return req, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req = model.ProposeRequest{
		Date:        r.PostForm.Get("date"),
		Time:        r.PostForm.Get("time"),
		Timezone:    r.PostForm.Get("timezone"),
		Title:       r.PostForm.Get("title"),
		Description: r.PostForm.Get("description"),
		Agenda:      r.PostForm.Get("agenda"),
		Attendees:   r.PostForm.Get("attendees"),
	}
	return req, nil
}

// ParseProposal validates the raw proposal fields and resolves the start
// instant in the requested zone, or n's default zone when none is given.
func ParseProposal(n *timezone.Normalizer, req model.ProposeRequest) (model.ProposeInput, error) {
	if err := middleware.ValidateTitle(req.Title); err != nil {
		return model.ProposeInput{}, err
	}
	if err := middleware.ValidateText("description", req.Description); err != nil {
		return model.ProposeInput{}, err
	}
	if err := middleware.ValidateText("agenda", req.Agenda); err != nil {
		return model.ProposeInput{}, err
	}

	attendees := model.SplitAttendees(req.Attendees)
	if err := middleware.ValidateAttendees(attendees); err != nil {
		return model.ProposeInput{}, err
	}

	zone := req.Timezone
	if zone == "" {
		zone = n.DefaultZone()
	}
	start, err := n.Combine(req.Date, req.Time, zone)
	if err != nil {
		return model.ProposeInput{}, err
	}

	return model.ProposeInput{
		Title:       req.Title,
		Description: req.Description,
		Agenda:      req.Agenda,
		StartTime:   start,
		Attendees:   attendees,
		Timezone:    start.Location().String(),
	}, nil
}

func (h *SessionHandler) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}

func (h *SessionHandler) writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	h.logger.Error("session operation failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
