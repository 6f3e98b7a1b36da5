// Package auth supplies authenticated Google Calendar service handles,
// persisting the OAuth token between runs.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/Mr-Amresh/meeting-scheduler/pkg/logger"
)

var (
	// ErrCredentialsMissing means the OAuth client credentials file does not exist.
	ErrCredentialsMissing = errors.New("calendar credentials file missing")

	// ErrNoToken means consent has not been granted yet; run the auth command.
	ErrNoToken = errors.New("calendar token missing or invalid")
)

// Authenticator builds calendar service handles from an OAuth client
// credentials file and a cached token file.
type Authenticator struct {
	credentialsFile string
	tokenFile       string
	logger          *logger.Logger

	mu sync.Mutex
}

// NewAuthenticator creates an authenticator for the given files.
func NewAuthenticator(credentialsFile, tokenFile string, log *logger.Logger) *Authenticator {
	return &Authenticator{
		credentialsFile: credentialsFile,
		tokenFile:       tokenFile,
		logger:          log,
	}
}

// OAuthConfig loads the client credentials with the calendar scope.
func (a *Authenticator) OAuthConfig() (*oauth2.Config, error) {
	data, err := os.ReadFile(a.credentialsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCredentialsMissing, a.credentialsFile)
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	cfg, err := google.ConfigFromJSON(data, calendarapi.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return cfg, nil
}

// Service returns a calendar service using the cached token. Refreshed
// tokens are written back to the token file.
func (a *Authenticator) Service(ctx context.Context) (*calendarapi.Service, error) {
	cfg, err := a.OAuthConfig()
	if err != nil {
		return nil, err
	}

	tok, err := a.LoadToken()
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" && !tok.Valid() {
		return nil, fmt.Errorf("%w: token expired and cannot be refreshed", ErrNoToken)
	}

	ts := &persistingTokenSource{
		base: cfg.TokenSource(context.Background(), tok),
		last: tok.AccessToken,
		save: a.SaveToken,
		log:  a.logger,
	}

	svc, err := calendarapi.NewService(ctx, option.WithTokenSource(oauth2.ReuseTokenSource(tok, ts)))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return svc, nil
}

// AuthCodeURL returns the consent page URL for redirectURL.
func (a *Authenticator) AuthCodeURL(redirectURL, state string) (string, error) {
	cfg, err := a.OAuthConfig()
	if err != nil {
		return "", err
	}
	cfg.RedirectURL = redirectURL
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// Exchange trades an authorization code for a token and stores it.
func (a *Authenticator) Exchange(ctx context.Context, redirectURL, code string) error {
	cfg, err := a.OAuthConfig()
	if err != nil {
		return err
	}
	cfg.RedirectURL = redirectURL

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange code: %w", err)
	}
	return a.SaveToken(tok)
}

// LoadToken reads the cached token.
func (a *Authenticator) LoadToken() (*oauth2.Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, err := os.ReadFile(a.tokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("read token: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoToken, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, ErrNoToken
	}
	return &tok, nil
}

// SaveToken writes the token atomically with owner-only permissions.
func (a *Authenticator) SaveToken(tok *oauth2.Token) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	if dir := filepath.Dir(a.tokenFile); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token dir: %w", err)
		}
	}

	tmp := a.tokenFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if err := os.Rename(tmp, a.tokenFile); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename token: %w", err)
	}
	return nil
}

// persistingTokenSource saves each newly minted token.
type persistingTokenSource struct {
	base oauth2.TokenSource
	save func(*oauth2.Token) error
	log  *logger.Logger

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.save(tok); err != nil {
			s.log.Warn("failed to persist refreshed token", zap.Error(err))
		}
	}
	return tok, nil
}
