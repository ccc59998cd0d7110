package generator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brianndofor/trialrev/internal/config"
	"github.com/brianndofor/trialrev/internal/provider"
)

var model = config.ModelConfig{ID: "gpt-4o", Temperature: 0.5}

var params = Params{
	StudyTitle: "A Phase II Study of Drug X",
	Indication: "Moderate plaque psoriasis",
	Objectives: "Assess PASI-75 response at week 16",
}

func capture(reqs *[]provider.Request, out string) provider.Completer {
	return provider.CompleterFunc(func(ctx context.Context, req provider.Request) (string, error) {
		*reqs = append(*reqs, req)
		return out, nil
	})
}

func TestDraftBuiltinTemplate(t *testing.T) {
	var reqs []provider.Request
	g, err := New(capture(&reqs, "**1. Introduction**\n..."), model, config.GeneratorConfig{Temperature: 0.7}, nil)
	require.NoError(t, err)

	out, err := g.Draft(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, "**1. Introduction**\n...", out)

	require.Len(t, reqs, 1)
	assert.Equal(t, provider.OpGenerate, reqs[0].Operation)
	assert.InDelta(t, 0.7, reqs[0].Temperature, 1e-9)
	assert.Contains(t, reqs[0].Prompt, params.StudyTitle)
	assert.Contains(t, reqs[0].Prompt, params.Indication)
	assert.Contains(t, reqs[0].Prompt, params.Objectives)
	assert.NotContains(t, reqs[0].Prompt, "{STUDY_TITLE}")
}

func TestDraftCustomTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen.txt")
	require.NoError(t, os.WriteFile(path, []byte("T={STUDY_TITLE} I={INDICATION} O={OBJECTIVES}"), 0o644))

	var reqs []provider.Request
	g, err := New(capture(&reqs, "ok"), model, config.GeneratorConfig{TemplatePath: path, Temperature: 0.7}, nil)
	require.NoError(t, err)
	_, err = g.Draft(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, "T=A Phase II Study of Drug X I=Moderate plaque psoriasis O=Assess PASI-75 response at week 16", reqs[0].Prompt)
}

func TestMissingTemplateFallsBack(t *testing.T) {
	var reqs []provider.Request
	g, err := New(capture(&reqs, "ok"), model, config.GeneratorConfig{TemplatePath: filepath.Join(t.TempDir(), "absent.txt")}, nil)
	require.NoError(t, err)
	_, err = g.Draft(context.Background(), params)
	require.NoError(t, err)
	assert.Contains(t, reqs[0].Prompt, "Study Title: "+params.StudyTitle)
}

func TestDraftRequiresParams(t *testing.T) {
	var reqs []provider.Request
	g, err := New(capture(&reqs, "ok"), model, config.GeneratorConfig{}, nil)
	require.NoError(t, err)
	_, err = g.Draft(context.Background(), Params{StudyTitle: "  ", Indication: "x", Objectives: "y"})
	assert.ErrorIs(t, err, ErrInvalidParams)
	assert.Empty(t, reqs)
}

func TestDraftPropagatesModelError(t *testing.T) {
	upstream := errors.New("quota exceeded")
	c := provider.CompleterFunc(func(ctx context.Context, req provider.Request) (string, error) {
		return "", upstream
	})
	g, err := New(c, model, config.GeneratorConfig{}, nil)
	require.NoError(t, err)
	_, err = g.Draft(context.Background(), params)
	assert.ErrorIs(t, err, upstream)
}
