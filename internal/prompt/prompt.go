package prompt

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

const (
	ProtocolContent   = "{PROTOCOL_CONTENT}"
	AgentFeedbackJSON = "{AGENT_FEEDBACK_JSON}"
	StudyTitle        = "{STUDY_TITLE}"
	Indication        = "{INDICATION}"
	Objectives        = "{OBJECTIVES}"
)

//go:embed templates/*.txt
var builtin embed.FS

// Builtin returns an embedded template by base name, e.g. "pi" or "risk".
func Builtin(name string) (string, error) {
	data, err := builtin.ReadFile("templates/" + name + ".txt")
	if err != nil {
		return "", fmt.Errorf("unknown built-in template %q", name)
	}
	return string(data), nil
}

// MustBuiltin is for package-level role tables.
func MustBuiltin(name string) string {
	t, err := Builtin(name)
	if err != nil {
		panic(err)
	}
	return t
}

// LoadTemplate reads a template file. A missing file yields fallback and
// reports usedFallback so callers can warn; other read errors are returned.
func LoadTemplate(path string, fallback string) (template string, usedFallback bool, err error) {
	if strings.TrimSpace(path) == "" {
		return fallback, false, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fallback, true, nil
		}
		return "", false, fmt.Errorf("failed to read prompt template: %w", err)
	}
	return string(content), false, nil
}

// Render substitutes every placeholder in one pass, so values that happen
// to contain placeholder text are left alone.
func Render(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for placeholder, value := range values {
		pairs = append(pairs, placeholder, value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// CheckPlaceholder requires exactly one occurrence of placeholder.
func CheckPlaceholder(template string, placeholder string) error {
	switch n := strings.Count(template, placeholder); n {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("template is missing %s", placeholder)
	default:
		return fmt.Errorf("template contains %s %d times, want exactly one", placeholder, n)
	}
}
