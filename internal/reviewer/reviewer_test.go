package reviewer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brianndofor/trialrev/internal/config"
	"github.com/brianndofor/trialrev/internal/protocol"
	"github.com/brianndofor/trialrev/internal/provider"
)

var model = config.ModelConfig{ID: "gpt-4o", Temperature: 0.5}

func recordingCompleter(reqs *[]provider.Request, reply string) provider.Completer {
	return provider.CompleterFunc(func(ctx context.Context, req provider.Request) (string, error) {
		*reqs = append(*reqs, req)
		return reply, nil
	})
}

func TestAgentReviewSubstitutesFullProtocol(t *testing.T) {
	var reqs []provider.Request
	raw := "1. Introduction\nBackground\n2. Study Design\nRandomized"
	p := protocol.New(raw)
	p.UpdateSection("2. Study Design", "ignored by reviewers")

	agents, err := DefaultRegistry().Agents([]string{RolePI}, recordingCompleter(&reqs, "  raw feedback\n"), model)
	require.NoError(t, err)
	out, err := agents[0].Review(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, "  raw feedback\n", out)
	require.Len(t, reqs, 1)
	assert.Equal(t, provider.OpReview, reqs[0].Operation)
	assert.Equal(t, RolePI, reqs[0].Role)
	assert.Equal(t, "gpt-4o", reqs[0].Model)
	assert.InDelta(t, 0.5, reqs[0].Temperature, 1e-9)
	assert.Contains(t, reqs[0].Prompt, raw)
	assert.NotContains(t, reqs[0].Prompt, "{PROTOCOL_CONTENT}")
	assert.NotContains(t, reqs[0].Prompt, "ignored by reviewers")
}

func TestAgentReviewCallsModelEveryTime(t *testing.T) {
	var calls atomic.Int32
	c := provider.CompleterFunc(func(ctx context.Context, req provider.Request) (string, error) {
		calls.Add(1)
		return "ok", nil
	})
	role, _ := DefaultRegistry().Get(RoleSitePhysician)
	a := NewAgent(role, c, model)
	p := protocol.New("same text")
	for i := 0; i < 3; i++ {
		_, err := a.Review(context.Background(), p)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestAgentReviewPropagatesError(t *testing.T) {
	upstream := errors.New("503 from model")
	c := provider.CompleterFunc(func(ctx context.Context, req provider.Request) (string, error) {
		return "", upstream
	})
	role, _ := DefaultRegistry().Get(RoleHealthAuthority)
	_, err := NewAgent(role, c, model).Review(context.Background(), protocol.New("x"))
	require.ErrorIs(t, err, upstream)
	assert.Contains(t, err.Error(), RoleHealthAuthority)
}

func TestAgentRedactionAndRoleTemperature(t *testing.T) {
	var reqs []provider.Request
	temp := 0.1
	role := Role{Name: "privacy", Template: "Check: {PROTOCOL_CONTENT}", Temperature: &temp}
	a := NewAgent(role, recordingCompleter(&reqs, "ok"), model, WithRedaction(true))
	_, err := a.Review(context.Background(), protocol.New("contact jane.doe@site.org"))
	require.NoError(t, err)
	assert.NotContains(t, reqs[0].Prompt, "jane.doe@site.org")
	assert.InDelta(t, 0.1, reqs[0].Temperature, 1e-9)
}

func TestRegistryAgentsUnknownRole(t *testing.T) {
	_, err := DefaultRegistry().Agents([]string{RolePI, "statistician"}, nil, model)
	require.ErrorIs(t, err, ErrUnknownRole)
	assert.Contains(t, err.Error(), "statistician")
}

func TestRegistryRejectsInvalidRoles(t *testing.T) {
	reg := NewRegistry()
	assert.ErrorIs(t, reg.Register(Role{Name: "", Template: "{PROTOCOL_CONTENT}"}), ErrInvalidRole)
	assert.ErrorIs(t, reg.Register(Role{Name: "x", Template: "no slot"}), ErrInvalidRole)
	assert.ErrorIs(t, reg.Register(Role{Name: "x", Template: "{PROTOCOL_CONTENT}{PROTOCOL_CONTENT}"}), ErrInvalidRole)
	assert.Empty(t, reg.Names())
}

func TestDefaultRegistryNames(t *testing.T) {
	assert.Equal(t, []string{RoleHealthAuthority, RolePI, RoleSitePhysician}, DefaultRegistry().Names())
	role, ok := DefaultRegistry().Get(RolePI)
	require.True(t, ok)
	assert.Equal(t, "Principal Investigator", role.DisplayName())
}

func TestLoadRolesDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("b_biostat.yaml", "name: biostatistician\nlabel: Biostatistician\ntemperature: 0.2\ntemplate: |\n  Statistics review.\n  {PROTOCOL_CONTENT}\n")
	write("a_patient.yml", "name: patient_advocate\ntemplate: \"Patient view: {PROTOCOL_CONTENT}\"\n")
	write("notes.txt", "ignored")

	roles, err := LoadRolesDir(dir)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "patient_advocate", roles[0].Name)
	assert.Equal(t, "biostatistician", roles[1].Name)
	require.NotNil(t, roles[1].Temperature)
	assert.True(t, strings.HasPrefix(roles[1].Template, "Statistics review."))

	missing, err := LoadRolesDir(filepath.Join(dir, "absent"))
	require.NoError(t, err)
	assert.Nil(t, missing)

	write("c_bad.yaml", "name: broken\ntemplate: no placeholder\n")
	_, err = LoadRolesDir(dir)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestRegistryFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Roles = []config.RoleConfig{{Name: "ethicist", Template: "Ethics: {PROTOCOL_CONTENT}"}}
	reg, err := RegistryFromConfig(cfg)
	require.NoError(t, err)
	_, ok := reg.Get("ethicist")
	assert.True(t, ok)
	_, ok = reg.Get(RolePI)
	assert.True(t, ok)
}
