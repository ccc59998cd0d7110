package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	def := Defaults()
	assert.Equal(t, def.Model.ID, cfg.Model.ID)
	assert.Equal(t, def.Review.Roles, cfg.Review.Roles)
	assert.InDelta(t, 0.3, cfg.Review.RiskTemperature, 1e-9)
	assert.True(t, cfg.Redaction.Enabled)
}

func TestLoadUserFile(t *testing.T) {
	path := writeConfig(t, `
model:
  provider: fake
  id: gpt-4o-mini
  temperature: 0.2
  timeout: 45s
  requests_per_second: 2
  fixture_dir: /tmp/fixtures
review:
  roles: [pi, biostatistician]
  concurrency: 2
  isolate: true
roles:
  - name: biostatistician
    label: Biostatistician
    template: "Review the statistics: {PROTOCOL_CONTENT}"
    temperature: 0.1
redaction:
  enabled: false
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderFake, cfg.Model.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model.ID)
	assert.Equal(t, 45*time.Second, cfg.Model.Timeout)
	assert.InDelta(t, 2.0, cfg.Model.RequestsPerSecond, 1e-9)
	assert.Equal(t, []string{"pi", "biostatistician"}, cfg.Review.Roles)
	assert.Equal(t, 2, cfg.Review.Concurrency)
	assert.True(t, cfg.Review.Isolate)
	assert.False(t, cfg.Redaction.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)

	require.Len(t, cfg.Roles, 1)
	assert.Equal(t, "biostatistician", cfg.Roles[0].Name)
	require.NotNil(t, cfg.Roles[0].Temperature)
	assert.InDelta(t, 0.1, *cfg.Roles[0].Temperature, 1e-9)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TRIALREV_API_KEY", "sk-test")
	t.Setenv("TRIALREV_MODEL", "gpt-4.1")
	t.Setenv("TRIALREV_DB_PATH", "/tmp/trialrev-test.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Model.APIKey)
	assert.Equal(t, "gpt-4.1", cfg.Model.ID)
	assert.Equal(t, "/tmp/trialrev-test.db", cfg.Store.Path)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "temperature", body: "model:\n  temperature: 3\n", want: "Temperature"},
		{name: "provider", body: "model:\n  provider: bard\n", want: "Provider"},
		{name: "role without template", body: "roles:\n  - name: x\n", want: "Template"},
		{name: "log level", body: "log:\n  level: loud\n", want: "Level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "model: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load user config")
}

func TestSources(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	sources := Sources(path)
	require.Len(t, sources, 2)
	assert.Equal(t, Source{Path: path, Exists: true}, sources[0])
	assert.Equal(t, filepath.Join(".", ProjectFile), sources[1].Path)

	t.Setenv("HOME", "/nonexistent-home")
	assert.Equal(t, filepath.Join("/nonexistent-home", ".trialrev", "config.yaml"), UserConfigPath(""))
}
