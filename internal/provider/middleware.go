package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/brianndofor/trialrev/internal/config"
)

// WithLogging records the start, duration and outcome of every completion.
// Prompt text is never logged, only its length.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Completer) Completer {
		return CompleterFunc(func(ctx context.Context, req Request) (string, error) {
			requestID := uuid.NewString()
			fields := []any{
				"request_id", requestID,
				"operation", req.Operation,
				"role", req.Role,
				"model", req.Model,
				"temperature", req.Temperature,
			}
			logger.Debug("completion started", append(fields, "prompt_length", len(req.Prompt))...)

			start := time.Now()
			out, err := next.Complete(ctx, req)
			fields = append(fields, "duration_ms", time.Since(start).Milliseconds())
			if err != nil {
				logger.Error("completion failed", append(fields, "error", err.Error())...)
				return "", err
			}
			logger.Info("completion finished", append(fields, "completion_length", len(out))...)
			return out, nil
		})
	}
}

// WithRateLimit blocks each call until the limiter grants a token.
func WithRateLimit(limiter *rate.Limiter) Middleware {
	return func(next Completer) Completer {
		if limiter == nil {
			return next
		}
		return CompleterFunc(func(ctx context.Context, req Request) (string, error) {
			if err := limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("rate limit wait: %w", err)
			}
			return next.Complete(ctx, req)
		})
	}
}

// NewLimiter returns nil when rps is zero, which disables limiting.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// WithTimeout bounds each call. A zero duration leaves calls unbounded.
func WithTimeout(d time.Duration) Middleware {
	return func(next Completer) Completer {
		if d <= 0 {
			return next
		}
		return CompleterFunc(func(ctx context.Context, req Request) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next.Complete(ctx, req)
		})
	}
}

// Wrap applies the standard middleware stack: logging outermost, then rate
// limiting, then the per-call timeout.
func Wrap(c Completer, cfg config.ModelConfig, logger *slog.Logger) Completer {
	return Chain(c,
		WithLogging(logger),
		WithRateLimit(NewLimiter(cfg.RequestsPerSecond)),
		WithTimeout(cfg.Timeout),
	)
}
