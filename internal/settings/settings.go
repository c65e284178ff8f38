// Package settings stores the company profile used to pre-fill the wizard's
// vision input. A single JSON file with merge-on-update semantics.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Profile holds the company-profile fields.
type Profile struct {
	CompanyName    string `json:"companyName"`
	Industry       string `json:"industry"`
	AnnualRevenue  string `json:"annualRevenue"`
	EmployeeCount  string `json:"employeeCount"`
	Description    string `json:"description"`
	StrategicCycle string `json:"strategicCycle"`
	CurrentYear    int    `json:"currentYear"`
}

func defaults() Profile {
	return Profile{
		CompanyName:    "AIOEP Demo Company",
		StrategicCycle: "annual",
		CurrentYear:    time.Now().Year(),
	}
}

// Store reads and writes the settings file.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Get returns the stored profile, or defaults when the file is absent or
// unreadable.
func (s *Store) Get() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) read() Profile {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return defaults()
	}
	p := defaults()
	if err := json.Unmarshal(b, &p); err != nil {
		return defaults()
	}
	return p
}

// Update merges the given partial JSON body over the current profile and
// persists the result, creating the data directory on first write.
func (s *Store) Update(partial json.RawMessage) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.read()
	if err := json.Unmarshal(partial, &p); err != nil {
		return Profile{}, fmt.Errorf("settings: invalid update body: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return Profile{}, err
	}
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return Profile{}, err
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// PrefillText builds the Input-stage prefill from the profile: a company
// background line followed by a vision heading for the human to fill in.
// Empty when no profile field is set.
func (p Profile) PrefillText() string {
	var parts []string
	if p.CompanyName != "" {
		parts = append(parts, "Company: "+p.CompanyName)
	}
	if p.Industry != "" {
		parts = append(parts, "Industry: "+p.Industry)
	}
	if p.AnnualRevenue != "" {
		parts = append(parts, "Annual revenue: "+p.AnnualRevenue)
	}
	if p.EmployeeCount != "" {
		parts = append(parts, "Employees: "+p.EmployeeCount)
	}
	if p.Description != "" {
		parts = append(parts, "About: "+p.Description)
	}
	if len(parts) == 0 {
		return ""
	}
	return "[Company background] " + strings.Join(parts, "; ") + "\n\n[Strategic vision and pain points]\n"
}
