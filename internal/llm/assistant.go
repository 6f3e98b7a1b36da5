package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Mr-Amresh/meeting-scheduler/pkg/logger"
	"github.com/Mr-Amresh/meeting-scheduler/pkg/metrics"
	"github.com/Mr-Amresh/meeting-scheduler/pkg/tracing"
)

var (
	// ErrNotConfigured means no provider client could be built.
	ErrNotConfigured = errors.New("assistant not configured")

	// ErrEmptyResponse means the provider answered without any text.
	ErrEmptyResponse = errors.New("assistant returned an empty response")
)

// Reply is the outcome of a single assistant call: either Text or Err is set.
type Reply struct {
	Text string
	Err  error
}

// OK reports whether the call produced text.
func (r Reply) OK() bool {
	return r.Err == nil
}

// Message returns the text to show the user, substituting a description of
// the failure when the call did not succeed.
func (r Reply) Message() string {
	switch {
	case r.Err == nil:
		return r.Text
	case errors.Is(r.Err, ErrNotConfigured):
		return "Assistant is not configured."
	case errors.Is(r.Err, ErrEmptyResponse):
		return "Failed to generate response."
	default:
		return fmt.Sprintf("Error: %v", r.Err)
	}
}

// AssistantOptions tunes completion requests.
type AssistantOptions struct {
	Model     string
	MaxTokens int
}

// Assistant turns a prompt into a single best-effort reply.
type Assistant struct {
	client Client
	opts   AssistantOptions
	logger *logger.Logger
}

// NewAssistant wraps client. A nil client yields an assistant whose every
// reply reports ErrNotConfigured.
func NewAssistant(client Client, opts AssistantOptions, log *logger.Logger) *Assistant {
	return &Assistant{
		client: client,
		opts:   opts,
		logger: log,
	}
}

// Configured reports whether a provider client is present.
func (a *Assistant) Configured() bool {
	return a.client != nil
}

// Generate sends prompt as a single user message. It makes one attempt and
// never returns an error directly; failures are carried in the Reply.
func (a *Assistant) Generate(ctx context.Context, prompt string) Reply {
	if a.client == nil {
		return Reply{Err: ErrNotConfigured}
	}

	ctx, span := tracing.Start(ctx, "assistant.generate",
		attribute.String("provider", a.client.Name()),
	)
	start := time.Now()

	resp, err := a.client.Complete(ctx, &CompletionRequest{
		Model:     a.opts.Model,
		MaxTokens: a.opts.MaxTokens,
		Messages:  []ChatMessage{{Role: "user", Content: prompt}},
	})
	if err == nil && strings.TrimSpace(resp.Content) == "" {
		err = ErrEmptyResponse
	}
	tracing.End(span, err)

	if err != nil {
		metrics.RecordAssistant(a.client.Name(), "", "error", time.Since(start).Seconds(), 0, 0)
		a.logger.Error("assistant call failed",
			zap.String("provider", a.client.Name()),
			zap.Error(err),
		)
		return Reply{Err: err}
	}

	metrics.RecordAssistant(a.client.Name(), resp.Model, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	a.logger.Debug("assistant replied",
		zap.String("model", resp.Model),
		zap.Int("tokens_in", resp.TokensIn),
		zap.Int("tokens_out", resp.TokensOut),
		zap.Int64("latency_ms", resp.LatencyMs),
	)

	return Reply{Text: strings.TrimSpace(resp.Content)}
}
