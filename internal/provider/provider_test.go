package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/brianndofor/trialrev/internal/config"
)

func TestOpenAIClientComplete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"looks fine"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(config.ModelConfig{Endpoint: srv.URL + "/v1/", APIKey: "sk-test"})
	out, err := c.Complete(context.Background(), Request{Prompt: "review this", Model: "gpt-4o", Temperature: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "looks fine", out)
	assert.Equal(t, "gpt-4o", got.Model)
	assert.InDelta(t, 0.5, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "review this", got.Messages[0].Content)
}

func TestOpenAIClientErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantRate  bool
		wantEmpty bool
		contains  string
	}{
		{name: "rate limited", status: 429, body: `{"error":{"message":"slow down","type":"rate_limit"}}`, wantRate: true, contains: "slow down"},
		{name: "server error plain body", status: 500, body: "boom", contains: "boom"},
		{name: "no choices", status: 200, body: `{"choices":[]}`, wantEmpty: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewOpenAIClient(config.ModelConfig{Endpoint: srv.URL, APIKey: "k"})
			_, err := c.Complete(context.Background(), Request{Prompt: "p"})
			require.Error(t, err)
			assert.Equal(t, tt.wantRate, errors.Is(err, ErrRateLimited))
			assert.Equal(t, tt.wantEmpty, errors.Is(err, ErrEmptyCompletion))
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
			var apiErr *APIError
			if tt.status != 200 {
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.status, apiErr.StatusCode)
			}
		})
	}
}

func TestFakeCompleterFixtures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "review.txt"), []byte("generic"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "review_pi.txt"), []byte("pi feedback"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "risks.json"), []byte("[]"), 0o644))

	f := NewFakeCompleter(dir)
	ctx := context.Background()

	out, err := f.Complete(ctx, Request{Operation: OpReview, Role: "pi"})
	require.NoError(t, err)
	assert.Equal(t, "pi feedback", out)

	out, err = f.Complete(ctx, Request{Operation: OpReview, Role: "site_physician"})
	require.NoError(t, err)
	assert.Equal(t, "generic", out)

	out, err = f.Complete(ctx, Request{Operation: OpRisk})
	require.NoError(t, err)
	assert.Equal(t, "[]", out)

	_, err = f.Complete(ctx, Request{Operation: OpGenerate})
	assert.ErrorIs(t, err, ErrNoFixture)
	assert.NoError(t, f.HealthCheck(ctx))
}

func TestClaudeRunnerPipesPromptOnStdin(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires cat")
	}
	r := NewClaudeRunner(config.ModelConfig{Command: "cat"})
	out, err := r.Complete(context.Background(), Request{Prompt: "echo me"})
	require.NoError(t, err)
	assert.Equal(t, "echo me", out)
}

func TestClaudeRunnerRenderArgs(t *testing.T) {
	r := NewClaudeRunner(config.Defaults().Model)
	assert.Equal(t, []string{"-p", "--output-format", "text", "--model", "sonnet"}, r.renderArgs("sonnet"))
	assert.Equal(t, []string{"-p", "--output-format", "text"}, r.renderArgs(""))
}

func TestNewSelectsProvider(t *testing.T) {
	_, err := New(config.ModelConfig{Provider: config.ProviderOpenAI})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = New(config.ModelConfig{Provider: "bard"})
	assert.ErrorIs(t, err, ErrUnknownProvider)

	c, err := New(config.ModelConfig{Provider: config.ProviderFake, FixtureDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FakeCompleter{}, c)

	c, err = New(config.ModelConfig{Provider: config.ProviderOpenAI, APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next Completer) Completer {
			return CompleterFunc(func(ctx context.Context, req Request) (string, error) {
				order = append(order, name)
				return next.Complete(ctx, req)
			})
		}
	}
	base := CompleterFunc(func(ctx context.Context, req Request) (string, error) {
		order = append(order, "base")
		return "ok", nil
	})
	_, err := Chain(base, mark("outer"), mark("inner")).Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner", "base"}, order)
}

func TestWithLoggingDoesNotLogPrompt(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	base := CompleterFunc(func(ctx context.Context, req Request) (string, error) {
		return "", errors.New("upstream down")
	})
	_, err := WithLogging(logger)(base).Complete(context.Background(), Request{Operation: OpReview, Role: "pi", Prompt: "SECRET PROTOCOL"})
	require.Error(t, err)
	assert.Contains(t, buf.String(), "completion failed")
	assert.Contains(t, buf.String(), "upstream down")
	assert.NotContains(t, buf.String(), "SECRET PROTOCOL")
}

func TestWithRateLimitHonoursContext(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	base := CompleterFunc(func(ctx context.Context, req Request) (string, error) { return "ok", nil })
	c := WithRateLimit(limiter)(base)

	_, err := c.Complete(context.Background(), Request{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.Complete(ctx, Request{})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "rate limit wait"))
}

func TestWithTimeout(t *testing.T) {
	base := CompleterFunc(func(ctx context.Context, req Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	_, err := WithTimeout(5*time.Millisecond)(base).Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Nil(t, NewLimiter(0))
	assert.NotNil(t, NewLimiter(0.5))
}
