// Package reviewer runs one reviewer role over a protocol. Roles are data:
// a name, a display label and an instruction template with a single
// {PROTOCOL_CONTENT} substitution point.
package reviewer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/brianndofor/trialrev/internal/config"
	"github.com/brianndofor/trialrev/internal/prompt"
	"github.com/brianndofor/trialrev/internal/protocol"
	"github.com/brianndofor/trialrev/internal/provider"
	"github.com/brianndofor/trialrev/internal/redact"
)

const (
	RolePI              = "pi"
	RoleSitePhysician   = "site_physician"
	RoleHealthAuthority = "health_authority"
)

var (
	ErrUnknownRole = errors.New("unknown reviewer role")
	ErrInvalidRole = errors.New("invalid reviewer role")
)

type Role struct {
	Name     string
	Label    string
	Template string
	// Temperature overrides the model default for this role when set.
	Temperature *float64
}

func (r Role) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRole)
	}
	if err := prompt.CheckPlaceholder(r.Template, prompt.ProtocolContent); err != nil {
		return fmt.Errorf("%w %s: %v", ErrInvalidRole, r.Name, err)
	}
	return nil
}

func (r Role) DisplayName() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Name
}

func FromConfig(rc config.RoleConfig) Role {
	return Role{Name: rc.Name, Label: rc.Label, Template: rc.Template, Temperature: rc.Temperature}
}

type Registry struct {
	roles map[string]Role
}

func NewRegistry() *Registry {
	return &Registry{roles: map[string]Role{}}
}

// DefaultRegistry holds the three built-in roles.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, role := range []Role{
		{Name: RolePI, Label: "Principal Investigator", Template: prompt.MustBuiltin("pi")},
		{Name: RoleSitePhysician, Label: "Site Physician", Template: prompt.MustBuiltin("site_physician")},
		{Name: RoleHealthAuthority, Label: "Health Authority", Template: prompt.MustBuiltin("health_authority")},
	} {
		if err := r.Register(role); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a role, replacing any role with the same name.
func (r *Registry) Register(role Role) error {
	if err := role.validate(); err != nil {
		return err
	}
	r.roles[role.Name] = role
	return nil
}

func (r *Registry) Get(name string) (Role, bool) {
	role, ok := r.roles[name]
	return role, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.roles))
	for name := range r.roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Agents builds one agent per name, in the given order. Unknown names fail
// before any agent is built.
func (r *Registry) Agents(names []string, c provider.Completer, model config.ModelConfig, opts ...Option) ([]*Agent, error) {
	agents := make([]*Agent, 0, len(names))
	for _, name := range names {
		role, ok := r.roles[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s (known: %s)", ErrUnknownRole, name, strings.Join(r.Names(), ", "))
		}
		agents = append(agents, NewAgent(role, c, model, opts...))
	}
	return agents, nil
}

type Option func(*Agent)

// WithRedaction scrubs secrets and participant identifiers from the
// protocol text before it is placed in the prompt.
func WithRedaction(enabled bool) Option {
	return func(a *Agent) { a.redact = enabled }
}

type Agent struct {
	role      Role
	completer provider.Completer
	model     config.ModelConfig
	redact    bool
}

func NewAgent(role Role, c provider.Completer, model config.ModelConfig, opts ...Option) *Agent {
	a := &Agent{role: role, completer: c, model: model}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) Role() string {
	return a.role.Name
}

func (a *Agent) Label() string {
	return a.role.DisplayName()
}

// Review sends the full protocol through the role template and returns the
// completion unmodified. One model call per invocation; nothing is cached or
// retried.
func (a *Agent) Review(ctx context.Context, p *protocol.Store) (string, error) {
	content := redact.RedactOptional(p.GetAll(), a.redact)
	temperature := a.model.Temperature
	if a.role.Temperature != nil {
		temperature = *a.role.Temperature
	}
	out, err := a.completer.Complete(ctx, provider.Request{
		Operation:   provider.OpReview,
		Role:        a.role.Name,
		Prompt:      prompt.Render(a.role.Template, map[string]string{prompt.ProtocolContent: content}),
		Model:       a.model.ID,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s review: %w", a.role.Name, err)
	}
	return out, nil
}
