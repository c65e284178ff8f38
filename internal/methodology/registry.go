// Package methodology serves the fixed methodology library: a read-only JSON
// registry browsed by phase, scenario, or category.
package methodology

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Method is one registry entry. Phases and scenarios are multi-valued.
type Method struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Phase       []string `json:"phase"`
	Scenarios   []string `json:"scenarios"`
	Description string   `json:"description,omitempty"`
	Reference   string   `json:"reference,omitempty"`
}

// Filter narrows a listing; empty fields match everything.
type Filter struct {
	Phase    string
	Scenario string
	Category string
}

// Registry reads the methodology registry file per call, so edits to the
// library show up without a restart.
type Registry struct {
	path string
}

func NewRegistry(path string) *Registry {
	return &Registry{path: path}
}

// List returns the registry entries matching the filter.
func (r *Registry) List(f Filter) ([]Method, error) {
	b, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("methodology: read registry: %w", err)
	}
	var all []Method
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, fmt.Errorf("methodology: parse registry: %w", err)
	}
	out := make([]Method, 0, len(all))
	for _, m := range all {
		if f.Phase != "" && !containsMatch(m.Phase, f.Phase) {
			continue
		}
		if f.Scenario != "" && !containsMatch(m.Scenarios, f.Scenario) {
			continue
		}
		if f.Category != "" && m.Category != f.Category {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func containsMatch(values []string, want string) bool {
	for _, v := range values {
		if strings.Contains(v, want) {
			return true
		}
	}
	return false
}
