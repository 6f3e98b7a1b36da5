// Package app assembles the scheduler's components from configuration.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/Mr-Amresh/meeting-scheduler/internal/auth"
	"github.com/Mr-Amresh/meeting-scheduler/internal/calendar"
	"github.com/Mr-Amresh/meeting-scheduler/internal/config"
	"github.com/Mr-Amresh/meeting-scheduler/internal/database"
	"github.com/Mr-Amresh/meeting-scheduler/internal/llm"
	natsclient "github.com/Mr-Amresh/meeting-scheduler/internal/nats"
	"github.com/Mr-Amresh/meeting-scheduler/internal/service"
	"github.com/Mr-Amresh/meeting-scheduler/internal/store"
	"github.com/Mr-Amresh/meeting-scheduler/internal/timezone"
	"github.com/Mr-Amresh/meeting-scheduler/pkg/logger"
)

// App holds the wired components. DB, Records, NATS and Publisher are nil
// when their backing service is not configured.
type App struct {
	Config *config.Config
	Logger *logger.Logger

	DB        *sql.DB
	Records   *store.MeetingStore
	NATS      *natsclient.Client
	Publisher *natsclient.Publisher

	Authenticator *auth.Authenticator
	Calendar      *calendar.Gateway
	Assistant     *llm.Assistant
	Normalizer    *timezone.Normalizer
	Sessions      *service.SessionStore
	Controller    *service.Controller
}

// New builds every component named by cfg.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: log}

	normalizer := timezone.NewNormalizer(cfg.DefaultTimezone)
	if _, err := normalizer.Location(""); err != nil {
		return nil, fmt.Errorf("default timezone: %w", err)
	}
	a.Normalizer = normalizer

	if cfg.DatabaseURL != "" {
		db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open record store: %w", err)
		}
		a.DB = db
		a.Records = store.NewMeetingStore(db, cfg.DatabaseDriver)
		log.Info("record store ready", zap.String("driver", cfg.DatabaseDriver))
	} else {
		log.Warn("no database configured, meeting records will not be stored")
	}

	if cfg.NATSURL != "" {
		nc, err := natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log.Named("nats"))
		if err != nil {
			a.Close()
			return nil, err
		}
		a.NATS = nc

		pub := natsclient.NewPublisher(nc.JetStream(), log.Named("nats"))
		if err := pub.EnsureStream(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("ensure stream: %w", err)
		}
		a.Publisher = pub
	}

	assistant, err := newAssistant(cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Assistant = assistant

	a.Authenticator = auth.NewAuthenticator(cfg.GoogleCredentialsFile, cfg.GoogleTokenFile, log.Named("auth"))
	a.Calendar = calendar.NewGateway(a.Authenticator, cfg.CalendarID, cfg.MeetingDuration, log.Named("calendar"))
	a.Sessions = service.NewSessionStore(log.Named("sessions"))

	deps := service.Deps{
		Assistant:       a.Assistant,
		Calendar:        a.Calendar,
		DefaultTimezone: cfg.DefaultTimezone,
	}
	if a.Records != nil {
		deps.Records = a.Records
	}
	if a.Publisher != nil {
		deps.Publisher = a.Publisher
	}
	a.Controller = service.NewController(deps, log.Named("controller"))

	return a, nil
}

// newAssistant builds the assistant for the configured provider. A missing
// API key yields an assistant that reports itself as not configured.
func newAssistant(cfg *config.Config, log *logger.Logger) (*llm.Assistant, error) {
	opts := llm.AssistantOptions{Model: cfg.LLMModel, MaxTokens: cfg.LLMMaxTokens}

	key := cfg.APIKey()
	if key == "" {
		log.Warn("no LLM API key configured, assistant replies disabled",
			zap.String("provider", cfg.LLMProvider),
		)
		return llm.NewAssistant(nil, opts, log.Named("assistant")), nil
	}

	client, err := llm.NewClient(llm.Provider(cfg.LLMProvider), key)
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}
	return llm.NewAssistant(client, opts, log.Named("assistant")), nil
}

// Close releases the database and NATS connections.
func (a *App) Close() {
	if a.NATS != nil {
		a.NATS.Close()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn("failed to close database", zap.Error(err))
		}
	}
}
