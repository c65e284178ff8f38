// Package prompt loads the strategy-modeling skill prompts. Each sub-skill has
// a markdown system-prompt template under the skills root; an optional shared
// feedback corpus is appended to every generation prompt to bias the model
// away from previously recorded mistakes.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"aioep/internal/safeio"
)

// SubSkill names one AI-generation operation in the modeling pipeline.
type SubSkill string

const (
	ExtractDrivers       SubSkill = "extract-drivers"
	DeriveGoals          SubSkill = "derive-goals"
	DecomposeInitiatives SubSkill = "decompose-initiatives"
	SpawnProjects        SubSkill = "spawn-projects"
	ValidateModel        SubSkill = "validate-model"
)

// SubSkills lists the valid identifiers in a stable order for error messages.
var SubSkills = []SubSkill{
	ExtractDrivers,
	DeriveGoals,
	DecomposeInitiatives,
	SpawnProjects,
	ValidateModel,
}

// Known reports whether id belongs to the enumerated sub-skill set.
func Known(id SubSkill) bool {
	for _, s := range SubSkills {
		if s == id {
			return true
		}
	}
	return false
}

// ErrTemplateNotFound means the sub-skill is unknown or its template file is
// missing. It is a configuration fault, not a bad request: the caller must
// fail the generation instead of calling the gateway.
var ErrTemplateNotFound = errors.New("prompt: template not found")

// FeedbackHeading prefixes the feedback corpus appended to system prompts.
const FeedbackHeading = "## Recorded correction patterns (avoid repeating these mistakes)"

const feedbackFile = "feedback/patterns.md"

// Store resolves sub-skill ids to prompt templates under a skills root.
type Store struct {
	root  *safeio.Root
	cache *lru.Cache[SubSkill, string]
}

// NewStore opens the skills directory. Template contents are cached; the
// feedback corpus is read fresh per call since it grows as corrections land.
func NewStore(dir string) (*Store, error) {
	root, err := safeio.New(dir)
	if err != nil {
		return nil, fmt.Errorf("prompt: open skills root: %w", err)
	}
	cache, err := lru.New[SubSkill, string](len(SubSkills) * 2)
	if err != nil {
		return nil, err
	}
	return &Store{root: root, cache: cache}, nil
}

// Load returns the raw system-prompt template for a sub-skill.
func (s *Store) Load(id SubSkill) (string, error) {
	if !Known(id) {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, id)
	}
	if tmpl, ok := s.cache.Get(id); ok {
		return tmpl, nil
	}
	b, err := s.root.ReadFile("prompts/" + string(id) + ".prompt.md")
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, id)
		}
		return "", err
	}
	tmpl := string(b)
	if strings.TrimSpace(tmpl) == "" {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, id)
	}
	s.cache.Add(id, tmpl)
	return tmpl, nil
}

// FeedbackPatterns returns the correction corpus, or "" when none exists.
func (s *Store) FeedbackPatterns() string {
	b, err := s.root.ReadFile(feedbackFile)
	if err != nil {
		return ""
	}
	return string(b)
}

// SystemPrompt builds the full system prompt for a sub-skill: the template
// plus, when present, the feedback corpus under a fixed heading.
func (s *Store) SystemPrompt(id SubSkill) (string, error) {
	tmpl, err := s.Load(id)
	if err != nil {
		return "", err
	}
	patterns := s.FeedbackPatterns()
	if patterns == "" {
		return tmpl, nil
	}
	return tmpl + "\n\n" + FeedbackHeading + "\n\n" + patterns, nil
}

// Invalidate drops cached templates so edited prompt files are picked up.
func (s *Store) Invalidate() {
	s.cache.Purge()
}
