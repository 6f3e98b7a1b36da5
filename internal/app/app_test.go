package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Mr-Amresh/meeting-scheduler/internal/config"
	"github.com/Mr-Amresh/meeting-scheduler/internal/middleware"
	"github.com/Mr-Amresh/meeting-scheduler/internal/model"
	"github.com/Mr-Amresh/meeting-scheduler/pkg/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.AuthEnabled = false
	cfg.DatabaseURL = ":memory:"
	cfg.GoogleCredentialsFile = filepath.Join(t.TempDir(), "missing-credentials.json")
	cfg.GoogleTokenFile = filepath.Join(t.TempDir(), "token.json")
	cfg.RateLimitRequests = 1000
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) (*App, *httptest.Server) {
	t.Helper()
	a, err := New(context.Background(), cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(a.Close)

	srv := httptest.NewServer(a.Router())
	t.Cleanup(srv.Close)
	return a, srv
}

func TestNewRejectsBadTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.DefaultTimezone = "Nowhere/Special"

	if _, err := New(context.Background(), cfg, logger.NewNop()); err == nil {
		t.Fatal("expected error for unknown default timezone")
	}
}

func TestNewWithoutAPIKey(t *testing.T) {
	a, _ := newTestApp(t, testConfig(t))
	if a.Assistant.Configured() {
		t.Error("assistant should not be configured without an API key")
	}
	if a.Records == nil {
		t.Error("record store should be open")
	}
	if a.NATS != nil || a.Publisher != nil {
		t.Error("NATS should be disabled without a URL")
	}
}

func TestEndToEndWithoutCredentials(t *testing.T) {
	_, srv := newTestApp(t, testConfig(t))

	resp, err := http.Get(srv.URL + "/ready")
	if err != nil {
		t.Fatalf("ready: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ready status = %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/api/v1/sessions", "application/json", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var created model.SessionResponse
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	id := created.Session.ID

	body := `{"date":"2025-05-20","time":"10:00","title":"Sync","attendees":"a@x.com"}`
	resp, err = http.Post(srv.URL+"/api/v1/sessions/"+id+"/proposal", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	var turn model.TurnResponse
	json.NewDecoder(resp.Body).Decode(&turn)
	resp.Body.Close()
	if turn.State != model.StateProposed {
		t.Fatalf("state = %s", turn.State)
	}
	if turn.Entries[1].Message != "Assistant is not configured." {
		t.Errorf("assistant entry = %q", turn.Entries[1].Message)
	}

	// No credentials file: commit fails and the proposal is kept.
	resp, err = http.Post(srv.URL+"/api/v1/sessions/"+id+"/messages", "application/json",
		strings.NewReader(`{"content":"confirm"}`))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	turn = model.TurnResponse{}
	json.NewDecoder(resp.Body).Decode(&turn)
	resp.Body.Close()
	if turn.State != model.StateProposed || turn.Scheduled != nil {
		t.Errorf("turn = %+v", turn)
	}
	if !strings.Contains(turn.Entries[1].Message, "Failed to schedule meeting") {
		t.Errorf("assistant entry = %q", turn.Entries[1].Message)
	}

	resp, err = http.Get(srv.URL + "/api/v1/meetings")
	if err != nil {
		t.Fatalf("meetings: %v", err)
	}
	var list model.ListMeetingsResponse
	json.NewDecoder(resp.Body).Decode(&list)
	resp.Body.Close()
	if list.Total != 0 || list.Meetings == nil {
		t.Errorf("list = %+v", list)
	}
}

func TestAuthEnabledRoutes(t *testing.T) {
	cfg := testConfig(t)
	cfg.AuthEnabled = true
	cfg.JWTSecret = "secret"
	_, srv := newTestApp(t, cfg)

	sign := func(scopes ...string) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Scopes: scopes,
		}).SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return tok
	}

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"no token", http.MethodPost, "/api/v1/sessions", "", http.StatusUnauthorized},
		{"read scope cannot schedule", http.MethodPost, "/api/v1/sessions", sign(middleware.ScopeRead), http.StatusForbidden},
		{"schedule scope", http.MethodPost, "/api/v1/sessions", sign(middleware.ScopeSchedule), http.StatusCreated},
		{"read scope lists meetings", http.MethodGet, "/api/v1/meetings", sign(middleware.ScopeRead), http.StatusOK},
		{"health is public", http.MethodGet, "/health", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, srv.URL+tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
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
