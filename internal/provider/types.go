// Package provider wraps the language-model completion collaborator. Every
// implementation takes a prompt and returns raw completion text.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/brianndofor/trialrev/internal/config"
)

type Operation string

const (
	OpReview   Operation = "review"
	OpRisk     Operation = "risk"
	OpGenerate Operation = "generate"
)

type Request struct {
	Operation   Operation
	Role        string
	Prompt      string
	Model       string
	Temperature float64
}

type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type CompleterFunc func(ctx context.Context, req Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// HealthChecker is implemented by completers that can verify their backend
// without spending a completion.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Middleware func(Completer) Completer

// Chain wraps c so that the first middleware is the outermost.
func Chain(c Completer, mws ...Middleware) Completer {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}

var (
	ErrUnknownProvider = errors.New("unknown model provider")
	ErrMissingAPIKey   = errors.New("model api key is not set")
	ErrRateLimited     = errors.New("model provider rate limited the request")
	ErrEmptyCompletion = errors.New("model returned no completion")
	ErrNoFixture       = errors.New("no provider fixture")
)

// APIError is a non-success HTTP response from a model endpoint.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("model api error %d (%s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("model api error %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == 429 {
		return ErrRateLimited
	}
	return nil
}

// New builds the completer selected by cfg.Provider, without middleware.
func New(cfg config.ModelConfig) (Completer, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		if cfg.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		return NewOpenAIClient(cfg), nil
	case config.ProviderClaude:
		return NewClaudeRunner(cfg), nil
	case config.ProviderFake:
		return NewFakeCompleter(cfg.FixtureDir), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}
