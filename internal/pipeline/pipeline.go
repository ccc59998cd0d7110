// Package pipeline is the surface callers use: segment a protocol, run the
// reviewer panel, extract risks and score them.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brianndofor/trialrev/internal/config"
	"github.com/brianndofor/trialrev/internal/protocol"
	"github.com/brianndofor/trialrev/internal/provider"
	"github.com/brianndofor/trialrev/internal/review"
	"github.com/brianndofor/trialrev/internal/reviewer"
	"github.com/brianndofor/trialrev/internal/risk"
	"github.com/brianndofor/trialrev/internal/score"
)

type Pipeline struct {
	completer    provider.Completer
	model        config.ModelConfig
	registry     *reviewer.Registry
	orchestrator *review.Orchestrator
	risks        *risk.Extractor
	redact       bool
	logger       *slog.Logger
}

type Option func(*options)

type options struct {
	registry        *reviewer.Registry
	concurrency     int
	riskTemperature float64
	riskTemplate    string
	redact          bool
	logger          *slog.Logger
}

func WithRegistry(r *reviewer.Registry) Option {
	return func(o *options) { o.registry = r }
}

func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

func WithRiskTemperature(t float64) Option {
	return func(o *options) { o.riskTemperature = t }
}

func WithRiskTemplate(t string) Option {
	return func(o *options) { o.riskTemplate = t }
}

func WithRedaction(enabled bool) Option {
	return func(o *options) { o.redact = enabled }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New builds a pipeline over a single completer. Defaults: built-in roles,
// unbounded concurrency, risk temperature 0.3, no redaction.
func New(c provider.Completer, model config.ModelConfig, opts ...Option) *Pipeline {
	o := options{riskTemperature: 0.3}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = reviewer.DefaultRegistry()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	riskOpts := []risk.Option{risk.WithLogger(o.logger), risk.WithRedaction(o.redact)}
	if o.riskTemplate != "" {
		riskOpts = append(riskOpts, risk.WithTemplate(o.riskTemplate))
	}
	return &Pipeline{
		completer:    c,
		model:        model,
		registry:     o.registry,
		orchestrator: review.New(o.concurrency, o.logger),
		risks:        risk.NewExtractor(c, model, o.riskTemperature, riskOpts...),
		redact:       o.redact,
		logger:       o.logger,
	}
}

// FromConfig wires registry, concurrency, risk temperature and redaction
// from cfg.
func FromConfig(c provider.Completer, cfg config.Config, logger *slog.Logger) (*Pipeline, error) {
	reg, err := reviewer.RegistryFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return New(c, cfg.Model,
		WithRegistry(reg),
		WithConcurrency(cfg.Review.Concurrency),
		WithRiskTemperature(cfg.Review.RiskTemperature),
		WithRedaction(cfg.Redaction.Enabled),
		WithLogger(logger),
	), nil
}

func (p *Pipeline) Registry() *reviewer.Registry {
	return p.registry
}

func (p *Pipeline) Segment(text string) *protocol.Store {
	return protocol.NewWithLogger(text, p.logger)
}

func (p *Pipeline) reviewers(roles []string) ([]review.Reviewer, error) {
	agents, err := p.registry.Agents(roles, p.completer, p.model, reviewer.WithRedaction(p.redact))
	if err != nil {
		return nil, err
	}
	out := make([]review.Reviewer, len(agents))
	for i, a := range agents {
		out[i] = a
	}
	return out, nil
}

// RunReviews fails as a unit: any reviewer error cancels the rest.
func (p *Pipeline) RunReviews(ctx context.Context, doc *protocol.Store, roles []string) (review.Feedback, error) {
	rs, err := p.reviewers(roles)
	if err != nil {
		return nil, err
	}
	return p.orchestrator.Run(ctx, doc, rs)
}

// RunReviewsIsolated records per-role failures instead of aborting.
func (p *Pipeline) RunReviewsIsolated(ctx context.Context, doc *protocol.Store, roles []string) (review.Results, error) {
	rs, err := p.reviewers(roles)
	if err != nil {
		return nil, err
	}
	return p.orchestrator.RunIsolated(ctx, doc, rs)
}

func (p *Pipeline) ExtractRisks(ctx context.Context, feedback review.Feedback) risk.Result {
	return p.risks.Extract(ctx, feedback)
}

func (p *Pipeline) ComputeScore(risks []risk.Item) int {
	return score.Compute(risks)
}

type Assessment struct {
	Feedback   review.Feedback
	Failed     []review.Result
	Risks      []risk.Item
	RiskResult risk.Result
	Score      int
}

// Assess runs reviews, risk extraction and scoring. With isolate set, a
// failed reviewer is reported in Failed and the remaining feedback is still
// assessed; otherwise the first reviewer failure aborts the run. A cancelled
// ctx discards the whole assessment, including the score.
func (p *Pipeline) Assess(ctx context.Context, doc *protocol.Store, roles []string, isolate bool) (Assessment, error) {
	var a Assessment
	if isolate {
		results, err := p.RunReviewsIsolated(ctx, doc, roles)
		if err != nil {
			return Assessment{}, err
		}
		a.Feedback = results.Feedback()
		a.Failed = results.Failed()
		if len(roles) > 0 && len(a.Feedback) == 0 {
			return Assessment{}, fmt.Errorf("all %d reviewers failed: %w", len(roles), a.Failed[0].Err)
		}
	} else {
		fb, err := p.RunReviews(ctx, doc, roles)
		if err != nil {
			return Assessment{}, err
		}
		a.Feedback = fb
	}
	a.RiskResult = p.ExtractRisks(ctx, a.Feedback)
	if err := ctx.Err(); err != nil {
		return Assessment{}, err
	}
	a.Risks = a.RiskResult.Risks
	a.Score = p.ComputeScore(a.Risks)
	return a, nil
}
