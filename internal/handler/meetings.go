package handler

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Mr-Amresh/meeting-scheduler/internal/ics"
	"github.com/Mr-Amresh/meeting-scheduler/internal/model"
	"github.com/Mr-Amresh/meeting-scheduler/pkg/logger"
)

// MeetingReader reads recorded meetings.
type MeetingReader interface {
	List(ctx context.Context, limit, offset int) ([]model.MeetingRecord, error)
	Get(ctx context.Context, eventID string) (*model.MeetingRecord, error)
	Count(ctx context.Context) (int, error)
}

// MeetingHandler serves the recorded meeting history.
type MeetingHandler struct {
	records  MeetingReader
	duration time.Duration
	logger   *logger.Logger
}

// NewMeetingHandler creates a meeting handler. records may be nil when no
// record store is configured.
func NewMeetingHandler(records MeetingReader, duration time.Duration, log *logger.Logger) *MeetingHandler {
	return &MeetingHandler{
		records:  records,
		duration: duration,
		logger:   log,
	}
}

// List handles GET /api/v1/meetings
func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	ctx := r.Context()
	limit, offset := pageParams(r, 20, 100)

	meetings, err := h.records.List(ctx, limit, offset)
	if err != nil {
		h.logger.Error("failed to list meetings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list meetings")
		return
	}
	total, err := h.records.Count(ctx)
	if err != nil {
		h.logger.Error("failed to count meetings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list meetings")
		return
	}
	if meetings == nil {
		meetings = []model.MeetingRecord{}
	}

	writeJSON(w, http.StatusOK, model.ListMeetingsResponse{
		Meetings: meetings,
		Total:    total,
	})
}

// Get handles GET /api/v1/meetings/{eventID}
func (h *MeetingHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ICS handles GET /api/v1/meetings/{eventID}.ics
func (h *MeetingHandler) ICS(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.writeCalendar(w, []model.MeetingRecord{*rec})
}

// Feed handles GET /api/v1/meetings.ics with every recorded meeting.
func (h *MeetingHandler) Feed(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	limit, offset := pageParams(r, 100, 1000)

	meetings, err := h.records.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list meetings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list meetings")
		return
	}
	h.writeCalendar(w, meetings)
}

func (h *MeetingHandler) lookup(w http.ResponseWriter, r *http.Request) (*model.MeetingRecord, bool) {
	if !h.available(w) {
		return nil, false
	}
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" || len(eventID) > 1024 {
		writeError(w, http.StatusBadRequest, "invalid event ID")
		return nil, false
	}

	rec, err := h.records.Get(r.Context(), eventID)
	if err != nil {
		h.logger.Error("failed to get meeting", zap.String("event_id", eventID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get meeting")
		return nil, false
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "meeting not found")
		return nil, false
	}
	return rec, true
}

func (h *MeetingHandler) writeCalendar(w http.ResponseWriter, records []model.MeetingRecord) {
	var buf bytes.Buffer
	if err := ics.Encode(&buf, records, h.duration); err != nil {
		h.logger.Error("failed to encode calendar", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to encode calendar")
		return
	}
	w.Header().Set("Content-Type", ics.ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *MeetingHandler) available(w http.ResponseWriter) bool {
	if h.records == nil {
		writeError(w, http.StatusServiceUnavailable, "meeting record store not configured")
		return false
	}
	return true
}
