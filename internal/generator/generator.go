// Package generator drafts a new protocol from a study title, indication
// and objectives.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/brianndofor/trialrev/internal/config"
	"github.com/brianndofor/trialrev/internal/prompt"
	"github.com/brianndofor/trialrev/internal/provider"
)

var ErrInvalidParams = errors.New("invalid generation parameters")

type Params struct {
	StudyTitle string `validate:"required"`
	Indication string `validate:"required"`
	Objectives string `validate:"required"`
}

func (p Params) trimmed() Params {
	return Params{
		StudyTitle: strings.TrimSpace(p.StudyTitle),
		Indication: strings.TrimSpace(p.Indication),
		Objectives: strings.TrimSpace(p.Objectives),
	}
}

type Generator struct {
	completer   provider.Completer
	model       string
	temperature float64
	template    string
	logger      *slog.Logger
	validate    *validator.Validate
}

// New loads the template from cfg.TemplatePath. A missing file falls back
// to the built-in template with a warning; an unreadable one is an error.
func New(c provider.Completer, model config.ModelConfig, cfg config.GeneratorConfig, logger *slog.Logger) (*Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tmpl, usedFallback, err := prompt.LoadTemplate(cfg.TemplatePath, prompt.MustBuiltin("generator"))
	if err != nil {
		return nil, err
	}
	if usedFallback {
		logger.Warn("generator template not found, using built-in template", "path", cfg.TemplatePath)
	}
	return &Generator{
		completer:   c,
		model:       model.ID,
		temperature: cfg.Temperature,
		template:    tmpl,
		logger:      logger,
		validate:    validator.New(),
	}, nil
}

// Draft returns the generated protocol text as the model wrote it.
func (g *Generator) Draft(ctx context.Context, p Params) (string, error) {
	p = p.trimmed()
	if err := g.validate.Struct(p); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	out, err := g.completer.Complete(ctx, provider.Request{
		Operation: provider.OpGenerate,
		Prompt: prompt.Render(g.template, map[string]string{
			prompt.StudyTitle: p.StudyTitle,
			prompt.Indication: p.Indication,
			prompt.Objectives: p.Objectives,
		}),
		Model:       g.model,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate protocol: %w", err)
	}
	g.logger.Info("protocol drafted", "title", p.StudyTitle, "bytes", len(out))
	return out, nil
}
