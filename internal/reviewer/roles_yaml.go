package reviewer

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brianndofor/trialrev/internal/config"
)

// ParseRoleYAML decodes a single role definition:
//
//	name: biostatistician
//	label: Biostatistician
//	temperature: 0.2
//	template: |
//	  ... {PROTOCOL_CONTENT} ...
func ParseRoleYAML(data []byte) (Role, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Role{}, fmt.Errorf("reviewer: role definition is empty")
	}
	var rc config.RoleConfig
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return Role{}, fmt.Errorf("reviewer: decode role: %w", err)
	}
	role := FromConfig(rc)
	if err := role.validate(); err != nil {
		return Role{}, err
	}
	return role, nil
}

// LoadRolesDir reads every *.yaml / *.yml file in dir, sorted by file name.
// A missing directory means no extra roles.
func LoadRolesDir(dir string) ([]Role, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reviewer: read %s: %w", trimmed, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	roles := make([]Role, 0, len(names))
	for _, name := range names {
		path := filepath.Join(trimmed, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reviewer: read %s: %w", path, err)
		}
		role, err := ParseRoleYAML(data)
		if err != nil {
			return nil, fmt.Errorf("reviewer: %s: %w", path, err)
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// RegistryFromConfig starts from the built-in roles and layers the roles
// directory and inline config roles on top, later definitions winning.
func RegistryFromConfig(cfg config.Config) (*Registry, error) {
	reg := DefaultRegistry()
	fromDir, err := LoadRolesDir(cfg.RolesDir)
	if err != nil {
		return nil, err
	}
	for _, role := range fromDir {
		if err := reg.Register(role); err != nil {
			return nil, err
		}
	}
	for _, rc := range cfg.Roles {
		if err := reg.Register(FromConfig(rc)); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
