// Package risk turns consolidated reviewer feedback into a list of
// amendment risks using one structured model completion.
package risk

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/brianndofor/trialrev/internal/config"
	"github.com/brianndofor/trialrev/internal/prompt"
	"github.com/brianndofor/trialrev/internal/provider"
	"github.com/brianndofor/trialrev/internal/redact"
)

type Severity string

const (
	Low    Severity = "Low"
	Medium Severity = "Medium"
	High   Severity = "High"
)

// NormalizeSeverity maps any casing of Low/Medium/High to the canonical
// value. Anything else is returned unchanged.
func NormalizeSeverity(s string) Severity {
	for _, known := range []Severity{Low, Medium, High} {
		if strings.EqualFold(strings.TrimSpace(s), string(known)) {
			return known
		}
	}
	return Severity(s)
}

type Item struct {
	Description    string   `json:"description"`
	Severity       Severity `json:"severity"`
	Rationale      string   `json:"rationale"`
	Recommendation string   `json:"recommendation"`
}

// Result is the outcome of one extraction. When OK is false, Risks holds
// a single synthetic High item describing the failure and Err carries the
// underlying message.
type Result struct {
	OK    bool
	Risks []Item
	Err   string
}

const (
	MalformedDescription    = "risk-assessment output malformed"
	MalformedRecommendation = "Check the risk extraction prompt and model output."
	FailedDescription       = "risk-assessment failed"
	FailedRecommendation    = "Review logs."
)

//go:embed risks.schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("risks.schema.json", schemaJSON)

func malformed(err error) Result {
	return Result{
		Err: err.Error(),
		Risks: []Item{{
			Description:    MalformedDescription,
			Severity:       High,
			Rationale:      "model output was not a valid risk list: " + err.Error(),
			Recommendation: MalformedRecommendation,
		}},
	}
}

func failed(err error) Result {
	return Result{
		Err: err.Error(),
		Risks: []Item{{
			Description:    FailedDescription,
			Severity:       High,
			Rationale:      err.Error(),
			Recommendation: FailedRecommendation,
		}},
	}
}

type Option func(*Extractor)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTemplate replaces the built-in risk prompt. A template without exactly
// one {AGENT_FEEDBACK_JSON} is rejected by NewExtractor in favour of the
// built-in one.
func WithTemplate(template string) Option {
	return func(e *Extractor) { e.template = template }
}

func WithRedaction(enabled bool) Option {
	return func(e *Extractor) { e.redact = enabled }
}

type Extractor struct {
	completer   provider.Completer
	model       string
	temperature float64
	template    string
	redact      bool
	logger      *slog.Logger
}

// NewExtractor uses model.ID with the given temperature, which is usually
// lower than the review temperature.
func NewExtractor(c provider.Completer, model config.ModelConfig, temperature float64, opts ...Option) *Extractor {
	e := &Extractor{
		completer:   c,
		model:       model.ID,
		temperature: temperature,
		template:    prompt.MustBuiltin("risk"),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := CheckTemplate(e.template); err != nil {
		e.logger.Error("risk template rejected, using built-in", "error", err)
		e.template = prompt.MustBuiltin("risk")
	}
	return e
}

// CheckTemplate reports whether template has a single feedback slot.
func CheckTemplate(template string) error {
	if err := prompt.CheckPlaceholder(template, prompt.AgentFeedbackJSON); err != nil {
		return fmt.Errorf("risk template: %w", err)
	}
	return nil
}

// CanonicalFeedback serializes feedback as a JSON object with sorted keys
// and two-space indentation.
func CanonicalFeedback(feedback map[string]string) (string, error) {
	if feedback == nil {
		feedback = map[string]string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(feedback); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Extract never returns an error: every failure is folded into the Result.
func (e *Extractor) Extract(ctx context.Context, feedback map[string]string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("risk extraction panicked", "panic", r)
			res = failed(fmt.Errorf("panic: %v", r))
		}
	}()

	payload, err := CanonicalFeedback(redact.RedactFeedback(feedback, e.redact))
	if err != nil {
		return failed(fmt.Errorf("failed to encode feedback: %w", err))
	}
	out, err := e.completer.Complete(ctx, provider.Request{
		Operation:   provider.OpRisk,
		Prompt:      prompt.Render(e.template, map[string]string{prompt.AgentFeedbackJSON: payload}),
		Model:       e.model,
		Temperature: e.temperature,
	})
	if err != nil {
		e.logger.Error("risk extraction failed", "error", err)
		return failed(err)
	}
	items, err := Parse(out)
	if err != nil {
		e.logger.Warn("risk extraction output malformed", "error", err, "output_bytes", len(out))
		return malformed(err)
	}
	return Result{OK: true, Risks: items}
}

// Parse accepts a JSON array of risk objects, optionally wrapped in a
// markdown code fence. Fields may be absent; a missing severity decodes as
// the empty severity, which scores nothing.
func Parse(raw string) ([]Item, error) {
	body := stripFence(raw)
	var v interface{}
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}
	var items []Item
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		return nil, fmt.Errorf("failed to decode risks: %w", err)
	}
	for i := range items {
		items[i].Severity = NormalizeSeverity(string(items[i].Severity))
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
