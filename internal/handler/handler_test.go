package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Mr-Amresh/meeting-scheduler/internal/llm"
	"github.com/Mr-Amresh/meeting-scheduler/internal/middleware"
	"github.com/Mr-Amresh/meeting-scheduler/internal/model"
	"github.com/Mr-Amresh/meeting-scheduler/internal/service"
	"github.com/Mr-Amresh/meeting-scheduler/internal/timezone"
	"github.com/Mr-Amresh/meeting-scheduler/pkg/logger"
)

type stubAssistant struct{}

func (stubAssistant) Generate(ctx context.Context, prompt string) llm.Reply {
	return llm.Reply{Text: "Would you like to proceed?"}
}

type stubCalendar struct {
	calls int
}

func (c *stubCalendar) CreateEvent(ctx context.Context, p *model.MeetingProposal) (*model.ScheduledEvent, error) {
	c.calls++
	return &model.ScheduledEvent{EventID: "evt_123", Summary: p.Title, Start: p.StartTime}, nil
}

type memRecords struct {
	records map[string]model.MeetingRecord
	order   []string
	err     error
}

func (m *memRecords) Save(ctx context.Context, eventID string, p *model.MeetingProposal) error {
	if m.records == nil {
		m.records = make(map[string]model.MeetingRecord)
	}
	m.records[eventID] = model.MeetingRecord{
		EventID:   eventID,
		Title:     p.Title,
		StartTime: p.StartTime.Format(time.RFC3339),
		Attendees: p.Attendees,
	}
	m.order = append(m.order, eventID)
	return nil
}

func (m *memRecords) List(ctx context.Context, limit, offset int) ([]model.MeetingRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []model.MeetingRecord
	for _, id := range m.order {
		out = append(out, m.records[id])
	}
	return out, nil
}

func (m *memRecords) Get(ctx context.Context, eventID string) (*model.MeetingRecord, error) {
	if rec, ok := m.records[eventID]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (m *memRecords) Count(ctx context.Context) (int, error) {
	return len(m.records), nil
}

type testServer struct {
	*httptest.Server
	calendar *stubCalendar
	records  *memRecords
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.NewNop()
	cal := &stubCalendar{}
	records := &memRecords{}

	ctrl := service.NewController(service.Deps{
		Assistant: stubAssistant{},
		Calendar:  cal,
		Records:   records,
	}, log)
	sessions := NewSessionHandler(service.NewSessionStore(log), ctrl, timezone.NewNormalizer("Asia/Kolkata"), log)
	meetings := NewMeetingHandler(records, time.Hour, log)

	r := chi.NewRouter()
	r.Use(middleware.Anonymous())
	r.Post("/sessions", sessions.Create)
	r.Get("/sessions/{id}", sessions.Get)
	r.Delete("/sessions/{id}", sessions.Delete)
	r.Post("/sessions/{id}/proposal", sessions.Propose)
	r.Post("/sessions/{id}/messages", sessions.SendMessage)
	r.Get("/meetings", meetings.List)
	r.Get("/meetings.ics", meetings.Feed)
	r.Get("/meetings/{eventID}", meetings.Get)
	r.Get("/meetings/{eventID}/event.ics", meetings.ICS)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, calendar: cal, records: records}
}

func (s *testServer) createSession(t *testing.T) string {
	t.Helper()
	resp, err := http.Post(s.URL+"/sessions", "application/json", nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var body model.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.State != model.StateEmpty {
		t.Errorf("state = %s", body.State)
	}
	return body.Session.ID
}

func decodeTurn(t *testing.T, resp *http.Response) model.TurnResponse {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var turn model.TurnResponse
	if err := json.NewDecoder(resp.Body).Decode(&turn); err != nil {
		t.Fatalf("decode turn: %v", err)
	}
	return turn
}

func TestProposeThenConfirm(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t)

	form := url.Values{
		"date":      {"2025-05-20"},
		"time":      {"10:00"},
		"title":     {"Sync"},
		"attendees": {"a@x.com, b@y.org"},
	}
	resp, err := http.PostForm(s.URL+"/sessions/"+id+"/proposal", form)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	turn := decodeTurn(t, resp)
	if turn.State != model.StateProposed || len(turn.Entries) != 2 {
		t.Fatalf("turn = %+v", turn)
	}
	want := "Proposed meeting: Sync on 2025-05-20 10:00 Asia/Kolkata with a@x.com, b@y.org"
	if turn.Entries[0].Message != want {
		t.Errorf("summary = %q", turn.Entries[0].Message)
	}

	resp, err = http.Post(s.URL+"/sessions/"+id+"/messages", "application/json",
		strings.NewReader(`{"content":"yes, confirm"}`))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	turn = decodeTurn(t, resp)
	if turn.State != model.StateEmpty || turn.Scheduled == nil || turn.Scheduled.EventID != "evt_123" {
		t.Fatalf("turn = %+v", turn)
	}
	if !strings.Contains(turn.Entries[1].Message, "evt_123") {
		t.Errorf("assistant entry = %q", turn.Entries[1].Message)
	}

	resp, err = http.Get(s.URL + "/sessions/" + id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var got model.SessionResponse
	json.NewDecoder(resp.Body).Decode(&got)
	if len(got.Session.Transcript) != 4 || got.Session.Proposal != nil {
		t.Errorf("session = %+v", got.Session)
	}
}

func TestProposeJSON(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t)

	body := `{"date":"2025-05-20","time":"3:30 PM","timezone":"America/New_York","title":"Retro"}`
	resp, err := http.Post(s.URL+"/sessions/"+id+"/proposal", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	turn := decodeTurn(t, resp)
	if !strings.Contains(turn.Entries[0].Message, "2025-05-20 15:30 America/New_York") {
		t.Errorf("summary = %q", turn.Entries[0].Message)
	}
}

func TestProposeValidation(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t)

	tests := []struct {
		name string
		form url.Values
	}{
		{"bad date", url.Values{"date": {"20-05-2025"}, "time": {"10:00"}}},
		{"bad time", url.Values{"date": {"2025-05-20"}, "time": {"25:00"}}},
		{"bad zone", url.Values{"date": {"2025-05-20"}, "time": {"10:00"}, "timezone": {"Mars/Olympus"}}},
		{"bad attendee", url.Values{"date": {"2025-05-20"}, "time": {"10:00"}, "attendees": {"nobody"}}},
		{"long title", url.Values{"date": {"2025-05-20"}, "time": {"10:00"}, "title": {strings.Repeat("x", 300)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.PostForm(s.URL+"/sessions/"+id+"/proposal", tt.form)
			if err != nil {
				t.Fatalf("propose: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestSessionErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"bad id", http.MethodGet, "/sessions/not-a-uuid", "", http.StatusBadRequest},
		{"unknown id", http.MethodGet, "/sessions/0190b7a2-7c1e-7a9e-8f00-1234567890ab", "", http.StatusNotFound},
		{"empty content", http.MethodPost, "/sessions/0190b7a2-7c1e-7a9e-8f00-1234567890ab/messages", `{"content":""}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/sessions/0190b7a2-7c1e-7a9e-8f00-1234567890ab/messages", `{`, http.StatusBadRequest},
		{"unknown delete", http.MethodDelete, "/sessions/0190b7a2-7c1e-7a9e-8f00-1234567890ab", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, s.URL+tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t)

	req, _ := http.NewRequest(http.MethodDelete, s.URL+"/sessions/"+id, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	resp, _ = http.Get(s.URL + "/sessions/" + id)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status after delete = %d", resp.StatusCode)
	}
}

func TestMeetingsEndpoints(t *testing.T) {
	s := newTestServer(t)
	loc, _ := time.LoadLocation("Asia/Kolkata")
	s.records.Save(context.Background(), "evt_1", &model.MeetingProposal{
		Title:     "Sync",
		StartTime: time.Date(2025, 5, 20, 10, 0, 0, 0, loc),
		Attendees: []string{"a@x.com"},
	})

	resp, err := http.Get(s.URL + "/meetings")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var list model.ListMeetingsResponse
	json.NewDecoder(resp.Body).Decode(&list)
	resp.Body.Close()
	if list.Total != 1 || len(list.Meetings) != 1 || list.Meetings[0].EventID != "evt_1" {
		t.Errorf("list = %+v", list)
	}

	resp, err = http.Get(s.URL + "/meetings/evt_1/event.ics")
	if err != nil {
		t.Fatalf("ics: %v", err)
	}
	defer resp.Body.Close()
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/calendar") {
		t.Errorf("content type = %q", resp.Header.Get("Content-Type"))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "UID:evt_1") {
		t.Errorf("ics body missing UID:\n%s", data)
	}

	resp, _ = http.Get(s.URL + "/meetings/missing")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing meeting status = %d", resp.StatusCode)
	}
}

func TestMeetingsListFailure(t *testing.T) {
	s := newTestServer(t)
	s.records.err = errors.New("db down")

	resp, _ := http.Get(s.URL + "/meetings")
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestMeetingsWithoutStore(t *testing.T) {
	h := NewMeetingHandler(nil, time.Hour, logger.NewNop())
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/meetings", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

type stubConn bool

func (c stubConn) IsConnected() bool { return bool(c) }

func TestReady(t *testing.T) {
	tests := []struct {
		name   string
		db     Pinger
		nats   ConnChecker
		status int
	}{
		{"nothing configured", nil, nil, http.StatusOK},
		{"all up", stubPinger{}, stubConn(true), http.StatusOK},
		{"db down", stubPinger{err: errors.New("down")}, nil, http.StatusServiceUnavailable},
		{"nats down", stubPinger{}, stubConn(false), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(tt.db, tt.nats).Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestParseProposal(t *testing.T) {
	n := timezone.NewNormalizer("Asia/Kolkata")

	tests := []struct {
		name    string
		req     model.ProposeRequest
		wantErr bool
		zone    string
	}{
		{"default zone", model.ProposeRequest{Date: "2030-05-01", Time: "09:30"}, false, "Asia/Kolkata"},
		{"explicit zone", model.ProposeRequest{Date: "2030-05-01", Time: "3:30 PM", Timezone: "America/New_York"}, false, "America/New_York"},
		{"display name attendee", model.ProposeRequest{Date: "2030-05-01", Time: "09:30", Attendees: "Bob <bob@example.com>"}, true, ""},
		{"unknown zone", model.ProposeRequest{Date: "2030-05-01", Time: "09:30", Timezone: "Mars/Base"}, true, ""},
		{"bad time", model.ProposeRequest{Date: "2030-05-01", Time: "25:00"}, true, ""},
		{"long agenda", model.ProposeRequest{Date: "2030-05-01", Time: "09:30", Agenda: strings.Repeat("a", 10001)}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := ParseProposal(n, tt.req)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if in.Timezone != tt.zone {
				t.Errorf("timezone = %q, want %q", in.Timezone, tt.zone)
			}
			if in.StartTime.Location().String() != tt.zone {
				t.Errorf("start location = %s", in.StartTime.Location())
			}
		})
	}
}
